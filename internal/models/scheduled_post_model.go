package models

import "time"

// ScheduledPost is a publish request persisted for later. Media is stored as
// already-resolved public URLs; Targets and Result are JSON documents.
type ScheduledPost struct {
	ID           int64     `db:"id" json:"id"`
	UserID       int64     `db:"user_id" json:"user_id"`
	Content      string    `db:"content" json:"content"`
	Media        []string  `db:"media" json:"media"`
	Targets      []byte    `db:"targets" json:"targets"`
	ScheduledFor time.Time `db:"scheduled_for" json:"scheduled_for"`
	Status       string    `db:"status" json:"status"`
	Result       []byte    `db:"result" json:"result,omitempty"`
	Error        string    `db:"error" json:"error,omitempty"`
	CreatedAt    time.Time `db:"created_at" json:"created_at"`
	UpdatedAt    time.Time `db:"updated_at" json:"updated_at"`
}

// Scheduled post lifecycle: pending -> processing -> published | failed.
// There is no edge back to pending; failed posts are re-scheduled manually.
const (
	ScheduleStatusPending    = "pending"
	ScheduleStatusProcessing = "processing"
	ScheduleStatusPublished  = "published"
	ScheduleStatusFailed     = "failed"
)
