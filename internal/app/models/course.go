package models

import "time"

// Course is the owning aggregate for a set of blocks and their tracking ID
// namespace.
type Course struct {
	ID          int64   `json:"id" db:"id"`
	Code        string  `json:"code" db:"code"`
	Title       string  `json:"title" db:"title"`
	Description *string `json:"description,omitempty" db:"description"` // Nullable

	// LatestTrackingID is the allocation cursor for this course's blocks.
	// It never decreases and is always >= the highest tracking ID ever
	// issued to one of the course's blocks.
	LatestTrackingID int64 `json:"latestTrackingId" db:"latest_tracking_id"`

	CreatedAt time.Time `json:"createdAt" db:"created_at"`
	UpdatedAt time.Time `json:"updatedAt" db:"updated_at"`
}
