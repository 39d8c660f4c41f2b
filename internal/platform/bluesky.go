package platform

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/nikhilm27/socialcast/internal/media"
	"github.com/nikhilm27/socialcast/internal/transfer"
)

const blueskyPDSURL = "https://bsky.social/xrpc"

// Bluesky account linking uses an app password instead of OAuth; see
// CreateSession. Session tokens are short-lived and renewed through the
// refresh JWT.
type Bluesky struct{}

func NewBluesky() *Bluesky {
	return &Bluesky{}
}

func (b *Bluesky) Name() string {
	return "bluesky"
}

func (b *Bluesky) Capabilities() Capabilities {
	return Capabilities{ImagesOnly: true, MaxTextLength: 300}
}

type blueskySession struct {
	DID        string `json:"did"`
	Handle     string `json:"handle"`
	AccessJwt  string `json:"accessJwt"`
	RefreshJwt string `json:"refreshJwt"`
}

// CreateSession authenticates with handle and app password, the Bluesky
// equivalent of an OAuth code exchange.
func (b *Bluesky) CreateSession(ctx context.Context, handle, appPassword string) (*transfer.OAuthToken, *transfer.AccountInfo, error) {
	payload := map[string]string{
		"identifier": handle,
		"password":   appPassword,
	}
	jsonData, err := json.Marshal(payload)
	if err != nil {
		return nil, nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		blueskyPDSURL+"/com.atproto.server.createSession", bytes.NewBuffer(jsonData))
	if err != nil {
		return nil, nil, err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := httpClient.Do(req)
	if err != nil {
		slog.Info(err.Error())
		return nil, nil, fmt.Errorf("HTTP request failed: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return nil, nil, &APIError{Platform: "bluesky", StatusCode: resp.StatusCode, Message: readBody(resp)}
	}

	var session blueskySession
	if err := decodeJSON(resp, &session); err != nil {
		return nil, nil, fmt.Errorf("failed to decode session response: %w", err)
	}

	token := &transfer.OAuthToken{
		AccessToken:  session.AccessJwt,
		RefreshToken: session.RefreshJwt,
		ExpiresAt:    time.Now().Add(time.Hour),
	}
	info := &transfer.AccountInfo{
		AccountID: session.DID,
		Name:      session.Handle,
		Username:  session.Handle,
	}
	return token, info, nil
}

func (b *Bluesky) RefreshToken(ctx context.Context, refreshToken string) (*transfer.OAuthToken, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		blueskyPDSURL+"/com.atproto.server.refreshSession", nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", "Bearer "+refreshToken)

	resp, err := httpClient.Do(req)
	if err != nil {
		slog.Info(err.Error())
		return nil, fmt.Errorf("HTTP request failed: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return nil, &APIError{Platform: "bluesky", StatusCode: resp.StatusCode, Message: readBody(resp)}
	}

	var session blueskySession
	if err := decodeJSON(resp, &session); err != nil {
		return nil, err
	}

	return &transfer.OAuthToken{
		AccessToken:  session.AccessJwt,
		RefreshToken: session.RefreshJwt,
		ExpiresAt:    time.Now().Add(time.Hour),
	}, nil
}

func (b *Bluesky) Publish(ctx context.Context, in *PublishInput) (string, error) {
	record := map[string]any{
		"$type":     "app.bsky.feed.post",
		"text":      in.Content,
		"createdAt": time.Now().UTC().Format(time.RFC3339),
	}

	var images []map[string]any
	for _, item := range resolvedItems(in.Media) {
		if item.Kind != media.KindImage {
			continue
		}
		blob, err := b.uploadBlob(ctx, in.AccessToken, item)
		if err != nil {
			return "", err
		}
		images = append(images, map[string]any{"alt": "", "image": blob})
	}
	if len(images) > 0 {
		record["embed"] = map[string]any{
			"$type":  "app.bsky.embed.images",
			"images": images,
		}
	}

	payload := map[string]any{
		"repo":       in.AccountID,
		"collection": "app.bsky.feed.post",
		"record":     record,
	}
	jsonData, err := json.Marshal(payload)
	if err != nil {
		return "", err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		blueskyPDSURL+"/com.atproto.repo.createRecord", bytes.NewBuffer(jsonData))
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

	if resp.StatusCode != http.StatusOK {
		return "", &APIError{Platform: "bluesky", StatusCode: resp.StatusCode, Message: readBody(resp)}
	}

	var result struct {
		URI string `json:"uri"`
	}
	if err := decodeJSON(resp, &result); err != nil {
		return "", err
	}

	return result.URI, nil
}

func (b *Bluesky) uploadBlob(ctx context.Context, accessToken string, item *media.Item) (json.RawMessage, error) {
	data, err := item.Bytes(ctx)
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		blueskyPDSURL+"/com.atproto.repo.uploadBlob", bytes.NewReader(data))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", "Bearer "+accessToken)
	contentType := item.MediaType
	if contentType == "" {
		contentType = "image/jpeg"
	}
	req.Header.Set("Content-Type", contentType)

	resp, err := httpClient.Do(req)
	if err != nil {
		slog.Info(err.Error())
		return nil, fmt.Errorf("HTTP request failed: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return nil, &APIError{Platform: "bluesky", StatusCode: resp.StatusCode, Message: readBody(resp)}
	}

	var result struct {
		Blob json.RawMessage `json:"blob"`
	}
	if err := decodeJSON(resp, &result); err != nil {
		return nil, err
	}

	return result.Blob, nil
}
