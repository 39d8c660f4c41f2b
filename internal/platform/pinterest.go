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
	pinterestAuthURL  = "https://www.pinterest.com/oauth/"
	pinterestTokenURL = "https://api.pinterest.com/v5/oauth/token"
	pinterestAPIURL   = "https://api.pinterest.com/v5"
)

// Pinterest creates pins on the account's first board.
type Pinterest struct {
	cfg *config.Config
}

func NewPinterest(cfg *config.Config) *Pinterest {
	return &Pinterest{cfg: cfg}
}

func (p *Pinterest) Name() string {
	return "pinterest"
}

func (p *Pinterest) Capabilities() Capabilities {
	return Capabilities{NeedsMedia: true, MaxTextLength: 500}
}

func (p *Pinterest) AuthURL(state string) string {
	params := url.Values{}
	params.Add("client_id", p.cfg.PinterestClientID)
	params.Add("redirect_uri", p.cfg.PinterestRedirectURI)
	params.Add("response_type", "code")
	params.Add("scope", "boards:read,pins:read,pins:write,user_accounts:read")
	params.Add("state", state)

	return fmt.Sprintf("%s?%s", pinterestAuthURL, params.Encode())
}

func (p *Pinterest) ExchangeCode(ctx context.Context, code, state string) (*transfer.OAuthToken, *transfer.AccountInfo, error) {
	data := url.Values{}
	data.Set("grant_type", "authorization_code")
	data.Set("code", code)
	data.Set("redirect_uri", p.cfg.PinterestRedirectURI)

	token, err := p.tokenRequest(ctx, data)
	if err != nil {
		return nil, nil, err
	}

	info, err := p.userInfo(ctx, token.AccessToken)
	if err != nil {
		return nil, nil, err
	}

	return token, info, nil
}

func (p *Pinterest) RefreshToken(ctx context.Context, refreshToken string) (*transfer.OAuthToken, error) {
	data := url.Values{}
	data.Set("grant_type", "refresh_token")
	data.Set("refresh_token", refreshToken)

	token, err := p.tokenRequest(ctx, data)
	if err != nil {
		return nil, err
	}
	if token.RefreshToken == "" {
		token.RefreshToken = refreshToken
	}
	return token, nil
}

func (p *Pinterest) tokenRequest(ctx context.Context, data url.Values) (*transfer.OAuthToken, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, pinterestTokenURL, strings.NewReader(data.Encode()))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.SetBasicAuth(p.cfg.PinterestClientID, p.cfg.PinterestClientSecret)

	resp, err := httpClient.Do(req)
	if err != nil {
		slog.Info(err.Error())
		return nil, fmt.Errorf("HTTP request failed: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return nil, &APIError{Platform: "pinterest", StatusCode: resp.StatusCode, Message: readBody(resp)}
	}

	var body struct {
		AccessToken  string `json:"access_token"`
		RefreshToken string `json:"refresh_token"`
		ExpiresIn    int64  `json:"expires_in"`
	}
	if err := decodeJSON(resp, &body); err != nil {
		return nil, fmt.Errorf("failed to decode token response: %w", err)
	}

	return &transfer.OAuthToken{
		AccessToken:  body.AccessToken,
		RefreshToken: body.RefreshToken,
		ExpiresAt:    time.Now().Add(time.Duration(body.ExpiresIn) * time.Second),
	}, nil
}

func (p *Pinterest) userInfo(ctx context.Context, accessToken string) (*transfer.AccountInfo, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, pinterestAPIURL+"/user_account", nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", "Bearer "+accessToken)

	resp, err := httpClient.Do(req)
	if err != nil {
		slog.Info(err.Error())
		return nil, err
	}

	if resp.StatusCode != http.StatusOK {
		return nil, &APIError{Platform: "pinterest", StatusCode: resp.StatusCode, Message: readBody(resp)}
	}

	var body struct {
		ID              string `json:"id"`
		Username        string `json:"username"`
		ProfileImageURL string `json:"profile_image"`
	}
	if err := decodeJSON(resp, &body); err != nil {
		return nil, err
	}

	return &transfer.AccountInfo{
		AccountID:      body.ID,
		Name:           body.Username,
		Username:       body.Username,
		ProfilePicture: body.ProfileImageURL,
	}, nil
}

func (p *Pinterest) Publish(ctx context.Context, in *PublishInput) (string, error) {
	items := resolvedItems(in.Media)

	var item *media.Item
	for _, it := range items {
		if it.Kind == media.KindImage {
			item = it
			break
		}
	}
	if item == nil || item.PublicURL == "" {
		return "", fmt.Errorf("pinterest requires a publicly accessible image URL")
	}

	boardID, err := p.firstBoard(ctx, in.AccessToken)
	if err != nil {
		return "", err
	}

	payload := map[string]any{
		"board_id":    boardID,
		"description": in.Content,
		"media_source": map[string]string{
			"source_type": "image_url",
			"url":         item.PublicURL,
		},
	}
	if in.Link != "" {
		payload["link"] = in.Link
	}

	jsonData, err := json.Marshal(payload)
	if err != nil {
		return "", err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, pinterestAPIURL+"/pins", bytes.NewBuffer(jsonData))
	if err != nil {
		return "", err
	}
	req.Header.Set("Authorization", "Bearer "+in.AccessToken)
	req.Header.Set("Content-Type", "application/json")

	resp, err := httpClient.Do(req)
	if err != nil {
		slog.Info(err.Error())
		return "", fmt.Errorf("HTTP request failed: %w", err)
	}

	if resp.StatusCode != http.StatusCreated && resp.StatusCode != http.StatusOK {
		return "", &APIError{Platform: "pinterest", StatusCode: resp.StatusCode, Message: readBody(resp)}
	}

	var result struct {
		ID string `json:"id"`
	}
	if err := decodeJSON(resp, &result); err != nil {
		return "", err
	}

	return result.ID, nil
}

func (p *Pinterest) firstBoard(ctx context.Context, accessToken string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, pinterestAPIURL+"/boards?page_size=1", nil)
	if err != nil {
		return "", err
	}
	req.Header.Set("Authorization", "Bearer "+accessToken)

	resp, err := httpClient.Do(req)
	if err != nil {
		slog.Info(err.Error())
		return "", err
	}

	if resp.StatusCode != http.StatusOK {
		return "", &APIError{Platform: "pinterest", StatusCode: resp.StatusCode, Message: readBody(resp)}
	}

	var body struct {
		Items []struct {
			ID string `json:"id"`
		} `json:"items"`
	}
	if err := decodeJSON(resp, &body); err != nil {
		return "", err
	}
	if len(body.Items) == 0 {
		return "", fmt.Errorf("no Pinterest boards available on this account")
	}

	return body.Items[0].ID, nil
}
