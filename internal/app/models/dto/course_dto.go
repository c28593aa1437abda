package dto

// CreateCourseRequest represents a request to create a course
type CreateCourseRequest struct {
	Code        string  `json:"code" binding:"required" example:"CS101"`
	Title       string  `json:"title" binding:"required" example:"Introduction to Computer Science"`
	Description *string `json:"description,omitempty"`
}

// UpdateCourseRequest represents a request to update a course
type UpdateCourseRequest struct {
	Code        string  `json:"code" binding:"required" example:"CS101"`
	Title       string  `json:"title" binding:"required" example:"Introduction to Computer Science"`
	Description *string `json:"description,omitempty"`
}
