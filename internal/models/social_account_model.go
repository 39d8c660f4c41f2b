package models

import (
	"database/sql"
	"time"
)

// SocialAccount is one linked identity on an external platform. Tokens are
// stored AES-GCM encrypted; TokenExpiresAt is NULL for platforms that issue
// non-expiring credentials (Facebook page tokens, Bluesky app passwords).
type SocialAccount struct {
	ID              int64        `db:"id" json:"id"`
	UserID          int64        `db:"user_id" json:"user_id"`
	Platform        string       `db:"platform" json:"platform"`
	AccountID       string       `db:"account_id" json:"account_id"`
	AccountName     string       `db:"account_name" json:"account_name"`
	AccountUsername string       `db:"account_username" json:"account_username"`
	ProfilePicture  string       `db:"profile_picture_url" json:"profile_picture"`
	AccessToken     string       `db:"access_token" json:"-"`
	RefreshToken    string       `db:"refresh_token" json:"-"`
	TokenExpiresAt  sql.NullTime `db:"token_expires_at" json:"token_expires_at"`
	ProfileGroupID  sql.NullInt64 `db:"profile_group_id" json:"profile_group_id"`
	CreatedAt       time.Time    `db:"created_at" json:"created_at"`
	UpdatedAt       time.Time    `db:"updated_at" json:"updated_at"`
}
