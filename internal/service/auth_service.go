package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	config "github.com/nikhilm27/socialcast/configs"
	"github.com/nikhilm27/socialcast/internal/models"
	"github.com/nikhilm27/socialcast/internal/repository"
	"github.com/nikhilm27/socialcast/internal/transfer"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
)

type AuthService interface {
	LoginURL(state string) string
	LoginCallback(ctx context.Context, code string) (int64, error)
}

type authService struct {
	cfg *config.Config
	u   repository.UserRepository
}

func NewAuthService(cfg *config.Config, u repository.UserRepository) AuthService {
	return &authService{
		cfg: cfg,
		u:   u,
	}
}

func (s *authService) oauthConfig() *oauth2.Config {
	return &oauth2.Config{
		ClientID:     s.cfg.GoogleClientID,
		ClientSecret: s.cfg.GoogleClientSecret,
		RedirectURL:  s.cfg.GoogleRedirectURI,
		Scopes: []string{
			"https://www.googleapis.com/auth/userinfo.email",
			"https://www.googleapis.com/auth/userinfo.profile",
		},
		Endpoint: google.Endpoint,
	}
}

func (s *authService) LoginURL(state string) string {
	return s.oauthConfig().AuthCodeURL(state)
}

func (s *authService) LoginCallback(ctx context.Context, code string) (int64, error) {
	if code == "" {
		err := errors.New("code is empty")
		slog.Info(err.Error())
		return 0, err
	}

	conf := s.oauthConfig()
	if conf.ClientID == "" || conf.ClientSecret == "" || conf.RedirectURL == "" {
		err := errors.New("OAuth2 configuration is incomplete")
		slog.Info(err.Error())
		return 0, err
	}

	token, err := conf.Exchange(ctx, code)
	if err != nil {
		slog.Info(err.Error())
		return 0, err
	}

	userInfo, err := googleUserInfo(conf.Client(ctx, token))
	if err != nil {
		return 0, err
	}

	user, exists, err := s.u.GetByEmail(ctx, userInfo.Email)
	if err != nil {
		return 0, err
	}

	if !exists || user.GoogleID == "" {
		userID, err := s.u.Create(ctx, nil, &models.User{
			GoogleID:       userInfo.ID,
			Email:          userInfo.Email,
			Name:           userInfo.Name,
			ProfilePicture: userInfo.Picture,
		})
		if err != nil {
			slog.Info(err.Error())
			return 0, err
		}
		return userID, nil
	}

	return user.ID, nil
}

func googleUserInfo(client *http.Client) (*transfer.GoogleUserInfo, error) {
	resp, err := client.Get("https://www.googleapis.com/oauth2/v1/userinfo")
	if err != nil {
		slog.Info(err.Error())
		return nil, fmt.Errorf("error fetching user info: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("unexpected response status: %d", resp.StatusCode)
	}

	var userInfo transfer.GoogleUserInfo
	if err := json.NewDecoder(resp.Body).Decode(&userInfo); err != nil {
		slog.Info(err.Error())
		return nil, fmt.Errorf("error decoding user info: %w", err)
	}

	return &userInfo, nil
}
