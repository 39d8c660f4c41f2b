package models

import "time"

// ActivityLog is one audit event, appended per publish target outcome.
type ActivityLog struct {
	ID        int64     `db:"id" json:"id"`
	UserID    int64     `db:"user_id" json:"user_id"`
	Title     string    `db:"title" json:"title"`
	Platform  string    `db:"platform" json:"platform"`
	Kind      string    `db:"kind" json:"kind"`
	Meta      string    `db:"meta" json:"meta,omitempty"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
}

const (
	ActivitySuccess = "success"
	ActivityError   = "error"
)
