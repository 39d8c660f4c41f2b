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
	instagramAuthURL  = "https://www.instagram.com/oauth/authorize"
	instagramGraphURL = "https://graph.instagram.com/v21.0"
)

// Video containers are processed asynchronously; publishing waits for the
// container to reach a terminal state.
const (
	containerMaxPolls  = 10
	containerPollDelay = 2 * time.Second
)

type Instagram struct {
	cfg *config.Config

	pollDelay time.Duration
}

func NewInstagram(cfg *config.Config) *Instagram {
	return &Instagram{cfg: cfg, pollDelay: containerPollDelay}
}

func (ig *Instagram) Name() string {
	return "instagram"
}

func (ig *Instagram) Capabilities() Capabilities {
	return Capabilities{NeedsMedia: true, MaxTextLength: 2200}
}

func (ig *Instagram) AuthURL(state string) string {
	params := url.Values{}
	params.Add("client_id", ig.cfg.MetaClientID)
	params.Add("scope", "instagram_business_basic,instagram_business_content_publish")
	params.Add("response_type", "code")
	params.Add("redirect_uri", ig.cfg.MetaRedirectURI)
	params.Add("state", state)

	return fmt.Sprintf("%s?%s", instagramAuthURL, params.Encode())
}

func (ig *Instagram) ExchangeCode(ctx context.Context, code, state string) (*transfer.OAuthToken, *transfer.AccountInfo, error) {
	shortLived, err := ig.getShortLivedToken(ctx, code)
	if err != nil {
		return nil, nil, err
	}

	token, err := ig.getLongLivedToken(ctx, shortLived)
	if err != nil {
		return nil, nil, err
	}

	info, err := ig.userInfo(ctx, token.AccessToken)
	if err != nil {
		return nil, nil, err
	}

	return token, info, nil
}

func (ig *Instagram) getShortLivedToken(ctx context.Context, code string) (string, error) {
	data := url.Values{}
	data.Set("client_id", ig.cfg.MetaClientID)
	data.Set("client_secret", ig.cfg.MetaClientSecret)
	data.Set("grant_type", "authorization_code")
	data.Set("redirect_uri", ig.cfg.MetaRedirectURI)
	data.Set("code", code)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		"https://api.instagram.com/oauth/access_token", strings.NewReader(data.Encode()))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := httpClient.Do(req)
	if err != nil {
		slog.Info(err.Error())
		return "", fmt.Errorf("failed to get short-lived token: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return "", &APIError{Platform: "instagram", StatusCode: resp.StatusCode, Message: readBody(resp)}
	}

	var result struct {
		AccessToken string `json:"access_token"`
	}
	if err := decodeJSON(resp, &result); err != nil {
		return "", fmt.Errorf("failed to decode token response: %w", err)
	}

	return result.AccessToken, nil
}

func (ig *Instagram) getLongLivedToken(ctx context.Context, shortLived string) (*transfer.OAuthToken, error) {
	reqURL := fmt.Sprintf(
		"https://graph.instagram.com/access_token?grant_type=ig_exchange_token&client_secret=%s&access_token=%s",
		ig.cfg.MetaClientSecret, shortLived,
	)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, err
	}

	resp, err := httpClient.Do(req)
	if err != nil {
		slog.Info(err.Error())
		return nil, fmt.Errorf("failed to get long-lived token: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return nil, &APIError{Platform: "instagram", StatusCode: resp.StatusCode, Message: readBody(resp)}
	}

	var result transfer.GraphTokenResponse
	if err := decodeJSON(resp, &result); err != nil {
		return nil, fmt.Errorf("failed to decode long-lived token response: %w", err)
	}

	// Instagram long-lived tokens refresh with the token itself, not a
	// separate refresh credential.
	return &transfer.OAuthToken{
		AccessToken:  result.AccessToken,
		RefreshToken: result.AccessToken,
		ExpiresAt:    time.Now().Add(time.Second * time.Duration(result.ExpiresIn)),
	}, nil
}

func (ig *Instagram) RefreshToken(ctx context.Context, refreshToken string) (*transfer.OAuthToken, error) {
	reqURL := fmt.Sprintf(
		"https://graph.instagram.com/refresh_access_token?grant_type=ig_refresh_token&access_token=%s",
		refreshToken,
	)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, err
	}

	resp, err := httpClient.Do(req)
	if err != nil {
		return nil, err
	}

	if resp.StatusCode != http.StatusOK {
		return nil, &APIError{Platform: "instagram", StatusCode: resp.StatusCode, Message: readBody(resp)}
	}

	var result transfer.GraphTokenResponse
	if err := decodeJSON(resp, &result); err != nil {
		return nil, err
	}

	return &transfer.OAuthToken{
		AccessToken:  result.AccessToken,
		RefreshToken: result.AccessToken,
		ExpiresAt:    time.Now().Add(time.Second * time.Duration(result.ExpiresIn)),
	}, nil
}

func (ig *Instagram) userInfo(ctx context.Context, accessToken string) (*transfer.AccountInfo, error) {
	reqURL := fmt.Sprintf(
		"https://graph.instagram.com/me?fields=id,username,name,profile_picture_url&access_token=%s",
		accessToken,
	)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, err
	}

	resp, err := httpClient.Do(req)
	if err != nil {
		slog.Info(err.Error())
		return nil, err
	}

	var result struct {
		ID                string `json:"id"`
		Username          string `json:"username"`
		Name              string `json:"name"`
		ProfilePictureURL string `json:"profile_picture_url"`
	}
	if err := decodeJSON(resp, &result); err != nil {
		return nil, err
	}

	return &transfer.AccountInfo{
		AccountID:      result.ID,
		Name:           result.Name,
		Username:       result.Username,
		ProfilePicture: result.ProfilePictureURL,
	}, nil
}

func (ig *Instagram) Publish(ctx context.Context, in *PublishInput) (string, error) {
	items := resolvedItems(in.Media)

	var containerID string
	var err error
	switch {
	case len(items) == 1 && items[0].Kind == media.KindVideo:
		containerID, err = ig.createVideoContainer(ctx, in, items[0])
	case len(items) > 1:
		containerID, err = ig.createCarouselContainer(ctx, in, items)
	default:
		containerID, err = ig.createImageContainer(ctx, in, items[0])
	}
	if err != nil {
		return "", err
	}

	return ig.publishContainer(ctx, in.AccountID, containerID, in.AccessToken)
}

func (ig *Instagram) createImageContainer(ctx context.Context, in *PublishInput, item *media.Item) (string, error) {
	if item.PublicURL == "" {
		return "", &ValidationError{Platform: "instagram", Reason: "instagram requires publicly accessible media URLs"}
	}

	payload := map[string]any{
		"image_url":    item.PublicURL,
		"caption":      in.Content,
		"access_token": in.AccessToken,
	}
	return ig.createContainer(ctx, in.AccountID, payload)
}

func (ig *Instagram) createVideoContainer(ctx context.Context, in *PublishInput, item *media.Item) (string, error) {
	if item.PublicURL == "" {
		return "", &ValidationError{Platform: "instagram", Reason: "instagram requires publicly accessible media URLs"}
	}

	payload := map[string]any{
		"media_type":   "REELS",
		"video_url":    item.PublicURL,
		"caption":      in.Content,
		"access_token": in.AccessToken,
	}
	containerID, err := ig.createContainer(ctx, in.AccountID, payload)
	if err != nil {
		return "", err
	}

	if err := ig.waitForContainer(ctx, containerID, in.AccessToken); err != nil {
		return "", err
	}

	return containerID, nil
}

func (ig *Instagram) createCarouselContainer(ctx context.Context, in *PublishInput, items []*media.Item) (string, error) {
	// Every child is checked before the first container is created; an
	// unusable item must not leave orphaned child containers behind.
	for _, item := range items {
		if item.PublicURL == "" {
			return "", &ValidationError{Platform: "instagram", Reason: "instagram requires publicly accessible media URLs for every carousel item"}
		}
	}

	children := make([]string, 0, len(items))
	for _, item := range items {
		payload := map[string]any{
			"image_url":        item.PublicURL,
			"is_carousel_item": true,
			"access_token":     in.AccessToken,
		}
		if item.Kind == media.KindVideo {
			payload["media_type"] = "REELS"
			delete(payload, "image_url")
			payload["video_url"] = item.PublicURL
		}

		childID, err := ig.createContainer(ctx, in.AccountID, payload)
		if err != nil {
			return "", err
		}
		if item.Kind == media.KindVideo {
			if err := ig.waitForContainer(ctx, childID, in.AccessToken); err != nil {
				return "", err
			}
		}
		children = append(children, childID)
	}

	payload := map[string]any{
		"media_type":   "CAROUSEL",
		"caption":      in.Content,
		"children":     children,
		"access_token": in.AccessToken,
	}
	return ig.createContainer(ctx, in.AccountID, payload)
}

func (ig *Instagram) createContainer(ctx context.Context, accountID string, payload map[string]any) (string, error) {
	reqURL := fmt.Sprintf("%s/%s/media", instagramGraphURL, accountID)

	body, err := json.Marshal(payload)
	if err != nil {
		return "", err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, reqURL, bytes.NewBuffer(body))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("HTTP request failed: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return "", &APIError{Platform: "instagram", StatusCode: resp.StatusCode, Message: readBody(resp)}
	}

	var result transfer.GraphIDResponse
	if err := decodeJSON(resp, &result); err != nil {
		return "", fmt.Errorf("error parsing response: %w", err)
	}
	if result.ID == "" {
		return "", fmt.Errorf("no container ID returned from Instagram")
	}

	return result.ID, nil
}

// waitForContainer polls the container until Instagram reports FINISHED.
// ERROR and poll exhaustion both fail the publish.
func (ig *Instagram) waitForContainer(ctx context.Context, containerID, accessToken string) error {
	for attempt := 0; attempt < containerMaxPolls; attempt++ {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(ig.pollDelay):
		}

		status, err := ig.containerStatus(ctx, containerID, accessToken)
		if err != nil {
			return err
		}

		switch status.StatusCode {
		case "FINISHED":
			return nil
		case "ERROR":
			return &ProcessingError{
				Platform: "instagram",
				Reason:   fmt.Sprintf("instagram media processing failed: %s", status.Status),
			}
		}
	}

	return &ProcessingError{
		Platform: "instagram",
		Reason:   "timed out waiting for instagram media processing",
	}
}

func (ig *Instagram) containerStatus(ctx context.Context, containerID, accessToken string) (*transfer.GraphContainerStatus, error) {
	reqURL := fmt.Sprintf("%s/%s?fields=status_code,status&access_token=%s",
		instagramGraphURL, containerID, accessToken)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, err
	}

	resp, err := httpClient.Do(req)
	if err != nil {
		return nil, err
	}

	if resp.StatusCode != http.StatusOK {
		return nil, &APIError{Platform: "instagram", StatusCode: resp.StatusCode, Message: readBody(resp)}
	}

	var status transfer.GraphContainerStatus
	if err := decodeJSON(resp, &status); err != nil {
		return nil, err
	}
	return &status, nil
}

func (ig *Instagram) publishContainer(ctx context.Context, accountID, containerID, accessToken string) (string, error) {
	reqURL := fmt.Sprintf("%s/%s/media_publish", instagramGraphURL, accountID)
	payload := map[string]string{
		"creation_id":  containerID,
		"access_token": accessToken,
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return "", err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, reqURL, bytes.NewBuffer(body))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("HTTP request failed: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return "", &APIError{Platform: "instagram", StatusCode: resp.StatusCode, Message: readBody(resp)}
	}

	var result transfer.GraphIDResponse
	if err := decodeJSON(resp, &result); err != nil {
		return "", fmt.Errorf("error parsing response: %w", err)
	}

	return result.ID, nil
}

// resolvedItems filters out items that failed normalization.
func resolvedItems(items []*media.Item) []*media.Item {
	var out []*media.Item
	for _, it := range items {
		if it.Resolved() {
			out = append(out, it)
		}
	}
	return out
}
