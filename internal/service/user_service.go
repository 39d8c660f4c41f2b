package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/nikhilm27/socialcast/internal/models"
	"github.com/nikhilm27/socialcast/internal/repository"
	"github.com/nikhilm27/socialcast/pkg/utils"
)

type UserService interface {
	GetUserInfo(ctx context.Context, id int64) (*models.User, error)
	GetByAPIKey(ctx context.Context, apiKey string) (*models.User, error)
	RotateAPIKey(ctx context.Context, userID int64) (string, error)
}

type userService struct {
	u repository.UserRepository
}

func NewUserService(u repository.UserRepository) UserService {
	return &userService{
		u: u,
	}
}

func (s *userService) GetUserInfo(ctx context.Context, id int64) (*models.User, error) {
	user, exists, err := s.u.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("error getting user info")
	}

	if !exists {
		err = errors.New("user not found")
		slog.Info(err.Error())
		return nil, err
	}

	return user, nil
}

func (s *userService) GetByAPIKey(ctx context.Context, apiKey string) (*models.User, error) {
	user, exists, err := s.u.GetByAPIKeyHash(ctx, utils.HashKey(apiKey))
	if err != nil {
		return nil, err
	}
	if !exists {
		return nil, errors.New("invalid API key")
	}
	return user, nil
}

// RotateAPIKey issues a new key and stores only its hash. The plaintext is
// returned once and never recoverable afterwards.
func (s *userService) RotateAPIKey(ctx context.Context, userID int64) (string, error) {
	key, err := utils.GenerateRandomKey(24)
	if err != nil {
		slog.Info(err.Error())
		return "", fmt.Errorf("error generating API key")
	}

	if err := s.u.SetAPIKeyHash(ctx, userID, utils.HashKey(key)); err != nil {
		return "", fmt.Errorf("error saving API key")
	}

	return key, nil
}
