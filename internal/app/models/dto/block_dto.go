package dto

// CreateBlockRequest represents a request to create a block within a course.
// A tracking ID may be supplied by import tooling; when present and valid it
// is preserved, otherwise the server allocates the next one.
type CreateBlockRequest struct {
	BlockType  string  `json:"blockType" binding:"required" example:"BLOCK" enums:"BLOCK,SECTION,ASSET"`
	Title      string  `json:"title" binding:"required" example:"Week 1: Variables"`
	Content    *string `json:"content,omitempty"`
	TrackingID *int64  `json:"trackingId,omitempty" example:"7"`
}

// UpdateBlockRequest represents a request to update a block's content.
// Tracking IDs are not editable through this request.
type UpdateBlockRequest struct {
	Title   string  `json:"title" binding:"required" example:"Week 1: Variables"`
	Content *string `json:"content,omitempty"`
}
