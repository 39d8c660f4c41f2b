package platform

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strings"
)

// Mastodon publishes to whichever instance the account lives on. The
// account username is stored as user@instance, so the API host comes from
// the credential itself. Instance access tokens do not expire.
type Mastodon struct{}

func NewMastodon() *Mastodon {
	return &Mastodon{}
}

func (m *Mastodon) Name() string {
	return "mastodon"
}

func (m *Mastodon) Capabilities() Capabilities {
	return Capabilities{MaxTextLength: 500}
}

// instanceURL derives the API base from a user@instance handle.
func (m *Mastodon) instanceURL(username string) (string, error) {
	_, instance, found := strings.Cut(username, "@")
	if !found || instance == "" {
		return "", fmt.Errorf("mastodon account username must be user@instance, got %q", username)
	}
	return "https://" + instance, nil
}

func (m *Mastodon) Publish(ctx context.Context, in *PublishInput) (string, error) {
	base, err := m.instanceURL(in.Username)
	if err != nil {
		return "", err
	}

	var mediaIDs []string
	for _, item := range resolvedItems(in.Media) {
		path, err := item.Materialize(ctx)
		if err != nil {
			return "", err
		}
		id, err := m.uploadMedia(ctx, base, in.AccessToken, path)
		if err != nil {
			return "", err
		}
		mediaIDs = append(mediaIDs, id)
	}

	data := url.Values{}
	data.Set("status", in.Content)
	for _, id := range mediaIDs {
		data.Add("media_ids[]", id)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		base+"/api/v1/statuses", strings.NewReader(data.Encode()))
	if err != nil {
		return "", err
	}
	req.Header.Set("Authorization", "Bearer "+in.AccessToken)
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := httpClient.Do(req)
	if err != nil {
		slog.Info(err.Error())
		return "", fmt.Errorf("HTTP request failed: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return "", &APIError{Platform: "mastodon", StatusCode: resp.StatusCode, Message: readBody(resp)}
	}

	var result struct {
		ID string `json:"id"`
	}
	if err := decodeJSON(resp, &result); err != nil {
		return "", err
	}

	return result.ID, nil
}

func (m *Mastodon) uploadMedia(ctx context.Context, base, accessToken, path string) (string, error) {
	file, err := os.Open(path)
	if err != nil {
		return "", err
	}
	defer file.Close()

	var buf bytes.Buffer
	writer := multipart.NewWriter(&buf)
	part, err := writer.CreateFormFile("file", filepath.Base(path))
	if err != nil {
		return "", err
	}
	if _, err := io.Copy(part, file); err != nil {
		return "", err
	}
	writer.Close()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, base+"/api/v2/media", &buf)
	if err != nil {
		return "", err
	}
	req.Header.Set("Authorization", "Bearer "+accessToken)
	req.Header.Set("Content-Type", writer.FormDataContentType())

	resp, err := httpClient.Do(req)
	if err != nil {
		slog.Info(err.Error())
		return "", fmt.Errorf("HTTP request failed: %w", err)
	}

	// 202 means the instance is still processing the media; the ID is
	// already usable for statuses.
	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusAccepted {
		return "", &APIError{Platform: "mastodon", StatusCode: resp.StatusCode, Message: readBody(resp)}
	}

	var result struct {
		ID string `json:"id"`
	}
	if err := decodeJSON(resp, &result); err != nil {
		return "", err
	}

	return result.ID, nil
}
