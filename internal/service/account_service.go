package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"

	"github.com/nikhilm27/socialcast/internal/models"
	"github.com/nikhilm27/socialcast/internal/platform"
	"github.com/nikhilm27/socialcast/internal/repository"
)

type AccountService interface {
	GetAuthURL(ctx context.Context, platformName, state string) (string, error)
	Callback(ctx context.Context, userID int64, platformName, code, state string) error
	ConnectBluesky(ctx context.Context, userID int64, handle, appPassword string) error
	List(ctx context.Context, userID int64) ([]*models.SocialAccount, error)
	Delete(ctx context.Context, userID, accountID int64) error
}

type accountService struct {
	sa       repository.SocialAccountRepository
	tokens   TokenService
	registry *platform.Registry
}

func NewAccountService(sa repository.SocialAccountRepository, tokens TokenService, registry *platform.Registry) AccountService {
	return &accountService{
		sa:       sa,
		tokens:   tokens,
		registry: registry,
	}
}

func (s *accountService) GetAuthURL(ctx context.Context, platformName, state string) (string, error) {
	adapter, err := s.registry.Get(platformName)
	if err != nil {
		return "", err
	}

	linker, ok := adapter.(platform.Linker)
	if !ok {
		return "", fmt.Errorf("%s accounts are not linked through OAuth", platformName)
	}

	return linker.AuthURL(state), nil
}

func (s *accountService) Callback(ctx context.Context, userID int64, platformName, code, state string) error {
	if code == "" {
		err := errors.New("code is empty")
		slog.Info(err.Error())
		return err
	}

	adapter, err := s.registry.Get(platformName)
	if err != nil {
		return err
	}

	linker, ok := adapter.(platform.Linker)
	if !ok {
		return fmt.Errorf("%s accounts are not linked through OAuth", platformName)
	}

	token, info, err := linker.ExchangeCode(ctx, code, state)
	if err != nil {
		slog.Info(err.Error())
		return err
	}

	acc := &models.SocialAccount{
		UserID:          userID,
		Platform:        platformName,
		AccountID:       info.AccountID,
		AccountName:     info.Name,
		AccountUsername: info.Username,
		ProfilePicture:  info.ProfilePicture,
	}
	if token.Expires() {
		acc.TokenExpiresAt = sql.NullTime{Time: token.ExpiresAt, Valid: true}
	}

	return s.tokens.Save(ctx, acc, token.AccessToken, token.RefreshToken)
}

// ConnectBluesky links an account with a handle and app password, the only
// platform here that does not use OAuth.
func (s *accountService) ConnectBluesky(ctx context.Context, userID int64, handle, appPassword string) error {
	if handle == "" || appPassword == "" {
		err := errors.New("handle and app password are required")
		slog.Info(err.Error())
		return err
	}

	adapter, err := s.registry.Get("bluesky")
	if err != nil {
		return err
	}
	bsky, ok := adapter.(*platform.Bluesky)
	if !ok {
		return errors.New("bluesky adapter is not registered")
	}

	token, info, err := bsky.CreateSession(ctx, handle, appPassword)
	if err != nil {
		slog.Info(err.Error())
		return err
	}

	acc := &models.SocialAccount{
		UserID:          userID,
		Platform:        "bluesky",
		AccountID:       info.AccountID,
		AccountName:     info.Name,
		AccountUsername: info.Username,
		TokenExpiresAt:  sql.NullTime{Time: token.ExpiresAt, Valid: true},
	}

	return s.tokens.Save(ctx, acc, token.AccessToken, token.RefreshToken)
}

func (s *accountService) List(ctx context.Context, userID int64) ([]*models.SocialAccount, error) {
	accounts, err := s.sa.ListByUserID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("error getting social accounts")
	}
	return accounts, nil
}

func (s *accountService) Delete(ctx context.Context, userID, accountID int64) error {
	if accountID == 0 {
		err := errors.New("account id is not valid")
		slog.Info(err.Error())
		return err
	}

	err := s.sa.Remove(ctx, userID, accountID)
	if errors.Is(err, sql.ErrNoRows) {
		err = errors.New("social account doesn't exist")
		slog.Info(err.Error())
		return err
	}
	if err != nil {
		return fmt.Errorf("error removing account")
	}

	return nil
}
