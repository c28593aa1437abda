package models

import "time"

// SentinelTrackingID parks a block's tracking ID during renumbering so that
// no reader ever observes a stale ID colliding with the new dense sequence.
const SentinelTrackingID int64 = -1

// Block is a unit of course content. Blocks of the trackable kind carry a
// per-course sequential tracking ID consumed by downstream reporting.
type Block struct {
	ID        int64     `json:"id" db:"id"`
	CourseID  int64     `json:"courseId" db:"course_id"`
	BlockType BlockType `json:"blockType" db:"block_type"`
	Title     string    `json:"title" db:"title"`
	Content   *string   `json:"content,omitempty" db:"content"` // Nullable

	// TrackingID is nil when never assigned. The stored sentinel also counts
	// as unassigned; any value >= 0, including 0, counts as assigned.
	TrackingID *int64 `json:"trackingId,omitempty" db:"tracking_id"`

	CreatedAt time.Time `json:"createdAt" db:"created_at"`
	UpdatedAt time.Time `json:"updatedAt" db:"updated_at"`
}

// IsTrackable reports whether this kind of block carries a tracking ID.
func (b *Block) IsTrackable() bool {
	return b.BlockType == BlockTypeBlock
}

// HasTrackingID reports whether the block already carries a valid tracking
// ID. Zero is a valid, already-assigned ID; nil and the sentinel are not.
func (b *Block) HasTrackingID() bool {
	return b.TrackingID != nil && *b.TrackingID >= 0
}

// SetTrackingID assigns the given tracking ID to the in-memory block.
func (b *Block) SetTrackingID(id int64) {
	b.TrackingID = &id
}
