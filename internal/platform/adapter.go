// Package platform holds one adapter per social network plus the registry
// and capability rules shared by all of them. Adapters receive a resolved
// credential and normalized media; everything credential- and
// storage-related stays outside the package.
package platform

import (
	"context"

	"github.com/nikhilm27/socialcast/internal/media"
	"github.com/nikhilm27/socialcast/internal/transfer"
)

// PublishInput carries everything an adapter needs for one post on one
// account. AccessToken is already decrypted and refreshed.
type PublishInput struct {
	AccessToken string
	AccountID   string
	Username    string
	Content     string
	Link        string
	Media       []*media.Item
}

// Adapter publishes to one platform. Publish returns the platform-assigned
// post ID on success.
type Adapter interface {
	Name() string
	Capabilities() Capabilities
	Publish(ctx context.Context, in *PublishInput) (string, error)
}

// TokenRefresher is implemented by adapters whose platform issues expiring
// tokens that can be renewed without user interaction.
type TokenRefresher interface {
	RefreshToken(ctx context.Context, refreshToken string) (*transfer.OAuthToken, error)
}

// Linker is implemented by adapters that link accounts through an OAuth
// authorization-code flow.
type Linker interface {
	AuthURL(state string) string
	ExchangeCode(ctx context.Context, code, state string) (*transfer.OAuthToken, *transfer.AccountInfo, error)
}
