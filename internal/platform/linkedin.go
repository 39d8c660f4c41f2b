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
	linkedinAuthURL     = "https://www.linkedin.com/oauth/v2/authorization"
	linkedinTokenURL    = "https://www.linkedin.com/oauth/v2/accessToken"
	linkedinUserInfoURL = "https://api.linkedin.com/v2/userinfo"
	linkedinUploadURL   = "https://api.linkedin.com/v2/assets?action=registerUpload"
	linkedinUgcPostURL  = "https://api.linkedin.com/v2/ugcPosts"
)

type Linkedin struct {
	cfg *config.Config
}

func NewLinkedin(cfg *config.Config) *Linkedin {
	return &Linkedin{cfg: cfg}
}

func (l *Linkedin) Name() string {
	return "linkedin"
}

func (l *Linkedin) Capabilities() Capabilities {
	return Capabilities{MaxTextLength: 3000}
}

func (l *Linkedin) AuthURL(state string) string {
	params := url.Values{}
	params.Add("response_type", "code")
	params.Add("client_id", l.cfg.LinkedinClientID)
	params.Add("redirect_uri", l.cfg.LinkedinRedirectURI)
	params.Add("scope", "openid profile w_member_social")
	params.Add("state", state)

	return fmt.Sprintf("%s?%s", linkedinAuthURL, params.Encode())
}

func (l *Linkedin) ExchangeCode(ctx context.Context, code, state string) (*transfer.OAuthToken, *transfer.AccountInfo, error) {
	data := url.Values{}
	data.Set("grant_type", "authorization_code")
	data.Set("code", code)
	data.Set("redirect_uri", l.cfg.LinkedinRedirectURI)
	data.Set("client_id", l.cfg.LinkedinClientID)
	data.Set("client_secret", l.cfg.LinkedinClientSecret)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, linkedinTokenURL, strings.NewReader(data.Encode()))
	if err != nil {
		return nil, nil, err
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := httpClient.Do(req)
	if err != nil {
		slog.Info(err.Error())
		return nil, nil, fmt.Errorf("HTTP request failed: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return nil, nil, &APIError{Platform: "linkedin", StatusCode: resp.StatusCode, Message: readBody(resp)}
	}

	var body struct {
		AccessToken string `json:"access_token"`
		ExpiresIn   int64  `json:"expires_in"`
	}
	if err := decodeJSON(resp, &body); err != nil {
		return nil, nil, fmt.Errorf("failed to decode token response: %w", err)
	}

	token := &transfer.OAuthToken{
		AccessToken: body.AccessToken,
		ExpiresAt:   time.Now().Add(time.Duration(body.ExpiresIn) * time.Second),
	}

	info, err := l.userInfo(ctx, token.AccessToken)
	if err != nil {
		return nil, nil, err
	}

	return token, info, nil
}

func (l *Linkedin) userInfo(ctx context.Context, accessToken string) (*transfer.AccountInfo, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, linkedinUserInfoURL, nil)
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
		return nil, &APIError{Platform: "linkedin", StatusCode: resp.StatusCode, Message: readBody(resp)}
	}

	var body struct {
		Sub     string `json:"sub"`
		Name    string `json:"name"`
		Picture string `json:"picture"`
	}
	if err := decodeJSON(resp, &body); err != nil {
		return nil, err
	}

	return &transfer.AccountInfo{
		AccountID:      body.Sub,
		Name:           body.Name,
		Username:       body.Name,
		ProfilePicture: body.Picture,
	}, nil
}

func (l *Linkedin) Publish(ctx context.Context, in *PublishInput) (string, error) {
	author := "urn:li:person:" + in.AccountID

	items := resolvedItems(in.Media)

	var assets []string
	category := "NONE"
	for _, item := range items {
		recipe := "urn:li:digitalmediaRecipe:feedshare-image"
		if item.Kind == media.KindVideo {
			recipe = "urn:li:digitalmediaRecipe:feedshare-video"
			category = "VIDEO"
		} else if category == "NONE" {
			category = "IMAGE"
		}

		asset, uploadURL, err := l.registerUpload(ctx, in.AccessToken, author, recipe)
		if err != nil {
			return "", err
		}
		if err := l.uploadAsset(ctx, in.AccessToken, uploadURL, item); err != nil {
			return "", err
		}
		assets = append(assets, asset)
	}

	shareContent := map[string]any{
		"shareCommentary":    map[string]string{"text": in.Content},
		"shareMediaCategory": category,
	}
	if len(assets) > 0 {
		mediaEntries := make([]map[string]any, len(assets))
		for i, asset := range assets {
			mediaEntries[i] = map[string]any{"status": "READY", "media": asset}
		}
		shareContent["media"] = mediaEntries
	}

	payload := map[string]any{
		"author":         author,
		"lifecycleState": "PUBLISHED",
		"specificContent": map[string]any{
			"com.linkedin.ugc.ShareContent": shareContent,
		},
		"visibility": map[string]string{
			"com.linkedin.ugc.MemberNetworkVisibility": "PUBLIC",
		},
	}

	jsonData, err := json.Marshal(payload)
	if err != nil {
		return "", err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, linkedinUgcPostURL, bytes.NewBuffer(jsonData))
	if err != nil {
		return "", err
	}
	req.Header.Set("Authorization", "Bearer "+in.AccessToken)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Restli-Protocol-Version", "2.0.0")

	resp, err := httpClient.Do(req)
	if err != nil {
		slog.Info(err.Error())
		return "", fmt.Errorf("HTTP request failed: %w", err)
	}

	if resp.StatusCode != http.StatusCreated && resp.StatusCode != http.StatusOK {
		return "", &APIError{Platform: "linkedin", StatusCode: resp.StatusCode, Message: readBody(resp)}
	}

	var result struct {
		ID string `json:"id"`
	}
	if err := decodeJSON(resp, &result); err != nil {
		return "", err
	}

	return result.ID, nil
}

func (l *Linkedin) registerUpload(ctx context.Context, accessToken, author, recipe string) (asset, uploadURL string, err error) {
	payload := map[string]any{
		"registerUploadRequest": map[string]any{
			"recipes": []string{recipe},
			"owner":   author,
			"serviceRelationships": []map[string]string{
				{
					"relationshipType": "OWNER",
					"identifier":       "urn:li:userGeneratedContent",
				},
			},
		},
	}

	jsonData, err := json.Marshal(payload)
	if err != nil {
		return "", "", err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, linkedinUploadURL, bytes.NewBuffer(jsonData))
	if err != nil {
		return "", "", err
	}
	req.Header.Set("Authorization", "Bearer "+accessToken)
	req.Header.Set("Content-Type", "application/json")

	resp, err := httpClient.Do(req)
	if err != nil {
		slog.Info(err.Error())
		return "", "", fmt.Errorf("HTTP request failed: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return "", "", &APIError{Platform: "linkedin", StatusCode: resp.StatusCode, Message: readBody(resp)}
	}

	var body struct {
		Value struct {
			Asset           string `json:"asset"`
			UploadMechanism map[string]struct {
				UploadURL string `json:"uploadUrl"`
			} `json:"uploadMechanism"`
		} `json:"value"`
	}
	if err := decodeJSON(resp, &body); err != nil {
		return "", "", err
	}

	for _, mech := range body.Value.UploadMechanism {
		if mech.UploadURL != "" {
			return body.Value.Asset, mech.UploadURL, nil
		}
	}
	return "", "", fmt.Errorf("no upload URL returned from LinkedIn")
}

func (l *Linkedin) uploadAsset(ctx context.Context, accessToken, uploadURL string, item *media.Item) error {
	data, err := item.Bytes(ctx)
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPut, uploadURL, bytes.NewReader(data))
	if err != nil {
		return err
	}
	req.Header.Set("Authorization", "Bearer "+accessToken)
	if item.MediaType != "" {
		req.Header.Set("Content-Type", item.MediaType)
	}

	resp, err := httpClient.Do(req)
	if err != nil {
		slog.Info(err.Error())
		return fmt.Errorf("HTTP request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusCreated && resp.StatusCode != http.StatusOK {
		return &APIError{Platform: "linkedin", StatusCode: resp.StatusCode}
	}

	return nil
}
