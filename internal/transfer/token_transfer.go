package transfer

import (
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// OAuthToken is the normalized result of a code exchange or a refresh
// exchange, whatever wire shape the platform used.
type OAuthToken struct {
	AccessToken  string
	RefreshToken string
	ExpiresAt    time.Time
}

// Expires reports whether the platform issued an expiring credential.
func (t *OAuthToken) Expires() bool {
	return !t.ExpiresAt.IsZero()
}

// AccountInfo is the platform-side identity fetched after linking.
type AccountInfo struct {
	AccountID      string
	Name           string
	Username       string
	ProfilePicture string
}

type CustomClaims struct {
	UserID string `json:"user_id"`
	jwt.RegisteredClaims
}
