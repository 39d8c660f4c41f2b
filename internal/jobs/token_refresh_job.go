package job

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/nikhilm27/socialcast/internal/models"
	"github.com/nikhilm27/socialcast/internal/repository"
	"github.com/nikhilm27/socialcast/internal/service"
)

// TokenRefreshJob renews credentials shortly before they expire so
// publishes rarely pay the refresh on the hot path.
type TokenRefreshJob struct {
	sa     repository.SocialAccountRepository
	tokens service.TokenService
}

func NewTokenRefreshJob(sa repository.SocialAccountRepository, tokens service.TokenService) *TokenRefreshJob {
	return &TokenRefreshJob{
		sa:     sa,
		tokens: tokens,
	}
}

func (c *TokenRefreshJob) RefreshTokens() {
	ctx := context.Background()

	accounts, err := c.sa.ListExpiring(ctx, time.Now().Add(30*time.Minute))
	if err != nil {
		slog.Info(err.Error())
		return
	}

	var wg sync.WaitGroup

	concurrencyLimit := 10
	semaphore := make(chan struct{}, concurrencyLimit)

	for _, acc := range accounts {
		wg.Add(1)
		semaphore <- struct{}{}

		go func(acc *models.SocialAccount) {
			defer wg.Done()
			defer func() { <-semaphore }()

			if err := c.tokens.Refresh(ctx, acc); err != nil {
				var reconnect *service.ReconnectError
				if errors.As(err, &reconnect) {
					slog.Info("account needs reconnect, skipping refresh",
						"platform", acc.Platform, "account_id", acc.AccountID)
					return
				}
				slog.Info("unable to refresh tokens",
					"platform", acc.Platform, "account_id", acc.AccountID, "error", err)
			}
		}(acc)
	}

	wg.Wait()
}
