package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/nikhilm27/socialcast/internal/models"
	"github.com/nikhilm27/socialcast/internal/platform"
	"github.com/nikhilm27/socialcast/internal/repository"
	"github.com/nikhilm27/socialcast/pkg/utils"
)

// Tokens are refreshed slightly before they actually expire so a publish
// started near the boundary does not race the platform clock.
const expirySkew = 2 * time.Minute

// ReconnectError means the stored credential is unusable and cannot be
// renewed without the user relinking the account.
type ReconnectError struct {
	Platform  string
	AccountID string
	Reason    string
}

func (e *ReconnectError) Error() string {
	return fmt.Sprintf("%s account needs to be reconnected: %s", e.Platform, e.Reason)
}

type TokenService interface {
	Resolve(ctx context.Context, acc *models.SocialAccount) (string, error)
	Refresh(ctx context.Context, acc *models.SocialAccount) error
	Save(ctx context.Context, acc *models.SocialAccount, accessToken, refreshToken string) error
}

type tokenService struct {
	sa       repository.SocialAccountRepository
	cipher   *utils.TokenCipher
	registry *platform.Registry
}

func NewTokenService(sa repository.SocialAccountRepository, cipher *utils.TokenCipher, registry *platform.Registry) TokenService {
	return &tokenService{
		sa:       sa,
		cipher:   cipher,
		registry: registry,
	}
}

// Resolve returns a usable plaintext access token for the account,
// refreshing and persisting it first when the stored one has expired.
func (s *tokenService) Resolve(ctx context.Context, acc *models.SocialAccount) (string, error) {
	accessToken, err := s.cipher.Decrypt(acc.AccessToken)
	if err != nil {
		return "", &ReconnectError{
			Platform:  acc.Platform,
			AccountID: acc.AccountID,
			Reason:    "stored credential could not be decrypted",
		}
	}

	if !s.expired(acc) {
		return accessToken, nil
	}

	fresh, err := s.refreshAccount(ctx, acc)
	if err != nil {
		return "", err
	}
	return fresh, nil
}

// Refresh renews the account's token unconditionally. Used by the
// background refresh job ahead of expiry.
func (s *tokenService) Refresh(ctx context.Context, acc *models.SocialAccount) error {
	_, err := s.refreshAccount(ctx, acc)
	return err
}

func (s *tokenService) refreshAccount(ctx context.Context, acc *models.SocialAccount) (string, error) {
	if acc.RefreshToken == "" {
		return "", &ReconnectError{
			Platform:  acc.Platform,
			AccountID: acc.AccountID,
			Reason:    "token expired and no refresh token is stored",
		}
	}

	adapter, err := s.registry.Get(acc.Platform)
	if err != nil {
		return "", err
	}
	refresher, ok := adapter.(platform.TokenRefresher)
	if !ok {
		return "", &ReconnectError{
			Platform:  acc.Platform,
			AccountID: acc.AccountID,
			Reason:    "token expired and the platform does not support refresh",
		}
	}

	refreshToken, err := s.cipher.Decrypt(acc.RefreshToken)
	if err != nil {
		return "", &ReconnectError{
			Platform:  acc.Platform,
			AccountID: acc.AccountID,
			Reason:    "stored refresh token could not be decrypted",
		}
	}

	token, err := refresher.RefreshToken(ctx, refreshToken)
	if err != nil {
		var apiErr *platform.APIError
		if errors.As(err, &apiErr) && apiErr.StatusCode >= 400 && apiErr.StatusCode < 500 {
			return "", &ReconnectError{
				Platform:  acc.Platform,
				AccountID: acc.AccountID,
				Reason:    "the platform rejected the refresh token",
			}
		}
		return "", err
	}

	encryptedAccess, err := s.cipher.Encrypt(token.AccessToken)
	if err != nil {
		return "", err
	}
	newRefresh := token.RefreshToken
	if newRefresh == "" {
		newRefresh = refreshToken
	}
	encryptedRefresh, err := s.cipher.Encrypt(newRefresh)
	if err != nil {
		return "", err
	}

	updated := &models.SocialAccount{
		AccessToken:  encryptedAccess,
		RefreshToken: encryptedRefresh,
	}
	if token.Expires() {
		updated.TokenExpiresAt = sql.NullTime{Time: token.ExpiresAt, Valid: true}
	}

	err = s.sa.UpdateTokens(ctx, acc.ID, acc.AccessToken, updated)
	if errors.Is(err, repository.ErrStaleWrite) {
		// Another worker refreshed first and its write won. The token we
		// just obtained is still valid for this attempt.
		slog.Info("concurrent token refresh detected, using local result",
			"platform", acc.Platform, "account_id", acc.AccountID)
	} else if err != nil {
		return "", err
	}

	acc.AccessToken = encryptedAccess
	acc.RefreshToken = encryptedRefresh
	acc.TokenExpiresAt = updated.TokenExpiresAt

	return token.AccessToken, nil
}

// Save encrypts and stores a freshly exchanged credential pair.
func (s *tokenService) Save(ctx context.Context, acc *models.SocialAccount, accessToken, refreshToken string) error {
	encryptedAccess, err := s.cipher.Encrypt(accessToken)
	if err != nil {
		return err
	}
	acc.AccessToken = encryptedAccess

	if refreshToken != "" {
		encryptedRefresh, err := s.cipher.Encrypt(refreshToken)
		if err != nil {
			return err
		}
		acc.RefreshToken = encryptedRefresh
	}

	_, err = s.sa.Create(ctx, nil, acc)
	return err
}

func (s *tokenService) expired(acc *models.SocialAccount) bool {
	if !acc.TokenExpiresAt.Valid {
		return false
	}
	return time.Now().Add(expirySkew).After(acc.TokenExpiresAt.Time)
}
