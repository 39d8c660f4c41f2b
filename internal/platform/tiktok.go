package platform

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	config "github.com/nikhilm27/socialcast/configs"
	"github.com/nikhilm27/socialcast/internal/media"
	"github.com/nikhilm27/socialcast/internal/transfer"
)

const (
	tiktokAuthURL      = "https://www.tiktok.com/v2/auth/authorize"
	tiktokTokenURL     = "https://open.tiktokapis.com/v2/oauth/token/"
	tiktokUserInfoURL  = "https://open.tiktokapis.com/v2/user/info/?fields=open_id,avatar_url,display_name,username"
	tiktokVideoInitURL = "https://open.tiktokapis.com/v2/post/publish/video/init/"
	tiktokScopes       = "user.info.basic,user.info.profile,video.publish,video.upload"
)

type Tiktok struct {
	cfg *config.Config
}

func NewTiktok(cfg *config.Config) *Tiktok {
	return &Tiktok{cfg: cfg}
}

func (t *Tiktok) Name() string {
	return "tiktok"
}

func (t *Tiktok) Capabilities() Capabilities {
	return Capabilities{NeedsVideo: true, MaxTextLength: 2200}
}

func (t *Tiktok) AuthURL(state string) string {
	params := url.Values{}
	params.Add("client_key", t.cfg.TiktokClientKey)
	params.Add("scope", tiktokScopes)
	params.Add("response_type", "code")
	params.Add("redirect_uri", t.cfg.TiktokRedirectURI)
	params.Add("state", state)

	return fmt.Sprintf("%s?%s", tiktokAuthURL, params.Encode())
}

func (t *Tiktok) ExchangeCode(ctx context.Context, code, state string) (*transfer.OAuthToken, *transfer.AccountInfo, error) {
	data := url.Values{}
	data.Add("client_key", t.cfg.TiktokClientKey)
	data.Add("client_secret", t.cfg.TiktokClientSecret)
	data.Add("code", code)
	data.Add("grant_type", "authorization_code")
	data.Add("redirect_uri", t.cfg.TiktokRedirectURI)

	tokenResponse, err := t.tokenRequest(ctx, data)
	if err != nil {
		return nil, nil, err
	}

	userInfo, err := t.userInfo(ctx, tokenResponse.AccessToken)
	if err != nil {
		return nil, nil, err
	}

	token := &transfer.OAuthToken{
		AccessToken:  tokenResponse.AccessToken,
		RefreshToken: tokenResponse.RefreshToken,
		ExpiresAt:    time.Now().Add(time.Second * time.Duration(tokenResponse.ExpiresIn)),
	}
	info := &transfer.AccountInfo{
		AccountID:      userInfo.Data.User.OpenID,
		Name:           userInfo.Data.User.DisplayName,
		Username:       userInfo.Data.User.Username,
		ProfilePicture: userInfo.Data.User.AvatarURL,
	}
	return token, info, nil
}

func (t *Tiktok) RefreshToken(ctx context.Context, refreshToken string) (*transfer.OAuthToken, error) {
	data := url.Values{}
	data.Set("client_key", t.cfg.TiktokClientKey)
	data.Set("client_secret", t.cfg.TiktokClientSecret)
	data.Set("grant_type", "refresh_token")
	data.Set("refresh_token", refreshToken)

	tokenResponse, err := t.tokenRequest(ctx, data)
	if err != nil {
		return nil, err
	}

	return &transfer.OAuthToken{
		AccessToken:  tokenResponse.AccessToken,
		RefreshToken: tokenResponse.RefreshToken,
		ExpiresAt:    time.Now().Add(time.Second * time.Duration(tokenResponse.ExpiresIn)),
	}, nil
}

func (t *Tiktok) tokenRequest(ctx context.Context, data url.Values) (*transfer.TiktokTokenResponse, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, tiktokTokenURL, strings.NewReader(data.Encode()))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := httpClient.Do(req)
	if err != nil {
		slog.Info(err.Error())
		return nil, fmt.Errorf("HTTP request failed: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return nil, &APIError{Platform: "tiktok", StatusCode: resp.StatusCode, Message: readBody(resp)}
	}

	var tokenResponse transfer.TiktokTokenResponse
	if err := decodeJSON(resp, &tokenResponse); err != nil {
		return nil, fmt.Errorf("failed to decode token response: %w", err)
	}
	if tokenResponse.AccessToken == "" {
		return nil, fmt.Errorf("TikTok token endpoint returned no access token")
	}

	return &tokenResponse, nil
}

func (t *Tiktok) userInfo(ctx context.Context, accessToken string) (*transfer.TiktokUserResponse, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, tiktokUserInfoURL, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", "Bearer "+accessToken)
	req.Header.Set("Content-Type", "application/json; charset=UTF-8")

	resp, err := httpClient.Do(req)
	if err != nil {
		slog.Info(err.Error())
		return nil, err
	}

	var result transfer.TiktokUserResponse
	if err := decodeJSON(resp, &result); err != nil {
		return nil, err
	}

	return &result, nil
}

func (t *Tiktok) Publish(ctx context.Context, in *PublishInput) (string, error) {
	var video *media.Item
	for _, item := range resolvedItems(in.Media) {
		if item.Kind == media.KindVideo {
			video = item
			break
		}
	}
	if video == nil || video.PublicURL == "" {
		return "", fmt.Errorf("tiktok requires a publicly accessible video URL")
	}

	initRequest := transfer.TiktokVideoInitRequest{
		PostInfo: transfer.TiktokVideoPostInfo{
			Title:                 in.Content,
			PrivacyLevel:          "PUBLIC_TO_EVERYONE",
			VideoCoverTimestampMs: 1000,
		},
		SourceInfo: transfer.TiktokVideoSourceInfo{
			Source:   "PULL_FROM_URL",
			VideoURL: video.PublicURL,
		},
	}

	jsonData, err := json.Marshal(initRequest)
	if err != nil {
		return "", err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, tiktokVideoInitURL, bytes.NewBuffer(jsonData))
	if err != nil {
		return "", err
	}
	req.Header.Set("Authorization", "Bearer "+in.AccessToken)
	req.Header.Set("Content-Type", "application/json; charset=UTF-8")

	resp, err := httpClient.Do(req)
	if err != nil {
		slog.Info(err.Error())
		return "", fmt.Errorf("HTTP request failed: %w", err)
	}

	var result transfer.TiktokPublishResponse
	if err := decodeJSON(resp, &result); err != nil {
		return "", err
	}

	if resp.StatusCode != http.StatusOK {
		return "", &APIError{Platform: "tiktok", StatusCode: resp.StatusCode, Message: result.Error.Message}
	}

	return result.Data.PublishID, nil
}
