package platform

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	config "github.com/nikhilm27/socialcast/configs"
	"github.com/nikhilm27/socialcast/internal/transfer"
)

const (
	twitterAuthURL   = "https://twitter.com/i/oauth2/authorize"
	twitterTokenURL  = "https://api.twitter.com/2/oauth2/token"
	twitterTweetURL  = "https://api.twitter.com/2/tweets"
	twitterUploadURL = "https://upload.twitter.com/1.1/media/upload.json"
	twitterMeURL     = "https://api.twitter.com/2/users/me"
)

type Twitter struct {
	cfg *config.Config
}

func NewTwitter(cfg *config.Config) *Twitter {
	return &Twitter{cfg: cfg}
}

func (t *Twitter) Name() string {
	return "twitter"
}

func (t *Twitter) Capabilities() Capabilities {
	return Capabilities{MaxTextLength: 280}
}

// AuthURL derives the PKCE challenge from the state token itself, so no
// verifier needs to be stored across the redirect.
func (t *Twitter) AuthURL(state string) string {
	sum := sha256.Sum256([]byte(state))
	challenge := base64.RawURLEncoding.EncodeToString(sum[:])

	params := url.Values{}
	params.Add("response_type", "code")
	params.Add("client_id", t.cfg.TwitterClientID)
	params.Add("redirect_uri", t.cfg.TwitterRedirectURI)
	params.Add("scope", "tweet.read tweet.write users.read offline.access")
	params.Add("state", state)
	params.Add("code_challenge", challenge)
	params.Add("code_challenge_method", "S256")

	return fmt.Sprintf("%s?%s", twitterAuthURL, params.Encode())
}

func (t *Twitter) ExchangeCode(ctx context.Context, code, state string) (*transfer.OAuthToken, *transfer.AccountInfo, error) {
	data := url.Values{}
	data.Set("grant_type", "authorization_code")
	data.Set("code", code)
	data.Set("redirect_uri", t.cfg.TwitterRedirectURI)
	data.Set("code_verifier", state)
	data.Set("client_id", t.cfg.TwitterClientID)

	token, err := t.tokenRequest(ctx, data)
	if err != nil {
		return nil, nil, err
	}

	info, err := t.userInfo(ctx, token.AccessToken)
	if err != nil {
		return nil, nil, err
	}

	return token, info, nil
}

func (t *Twitter) RefreshToken(ctx context.Context, refreshToken string) (*transfer.OAuthToken, error) {
	data := url.Values{}
	data.Set("grant_type", "refresh_token")
	data.Set("refresh_token", refreshToken)
	data.Set("client_id", t.cfg.TwitterClientID)

	return t.tokenRequest(ctx, data)
}

func (t *Twitter) tokenRequest(ctx context.Context, data url.Values) (*transfer.OAuthToken, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, twitterTokenURL, strings.NewReader(data.Encode()))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.SetBasicAuth(t.cfg.TwitterClientID, t.cfg.TwitterClientSecret)

	resp, err := httpClient.Do(req)
	if err != nil {
		slog.Info(err.Error())
		return nil, fmt.Errorf("HTTP request failed: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return nil, &APIError{Platform: "twitter", StatusCode: resp.StatusCode, Message: readBody(resp)}
	}

	var body struct {
		AccessToken  string `json:"access_token"`
		RefreshToken string `json:"refresh_token"`
		ExpiresIn    int64  `json:"expires_in"`
	}
	if err := decodeJSON(resp, &body); err != nil {
		return nil, fmt.Errorf("failed to decode token response: %w", err)
	}

	token := &transfer.OAuthToken{
		AccessToken:  body.AccessToken,
		RefreshToken: body.RefreshToken,
	}
	if body.ExpiresIn > 0 {
		token.ExpiresAt = time.Now().Add(time.Duration(body.ExpiresIn) * time.Second)
	}
	return token, nil
}

func (t *Twitter) userInfo(ctx context.Context, accessToken string) (*transfer.AccountInfo, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, twitterMeURL+"?user.fields=profile_image_url", nil)
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
		return nil, &APIError{Platform: "twitter", StatusCode: resp.StatusCode, Message: readBody(resp)}
	}

	var body struct {
		Data struct {
			ID              string `json:"id"`
			Name            string `json:"name"`
			Username        string `json:"username"`
			ProfileImageURL string `json:"profile_image_url"`
		} `json:"data"`
	}
	if err := decodeJSON(resp, &body); err != nil {
		return nil, err
	}

	return &transfer.AccountInfo{
		AccountID:      body.Data.ID,
		Name:           body.Data.Name,
		Username:       body.Data.Username,
		ProfilePicture: body.Data.ProfileImageURL,
	}, nil
}

func (t *Twitter) Publish(ctx context.Context, in *PublishInput) (string, error) {
	var mediaIDs []string
	for _, item := range in.Media {
		if !item.Resolved() {
			continue
		}
		path, err := item.Materialize(ctx)
		if err != nil {
			return "", err
		}
		id, err := t.uploadMedia(ctx, in.AccessToken, item.MediaType, path)
		if err != nil {
			return "", err
		}
		mediaIDs = append(mediaIDs, id)
	}

	payload := map[string]any{}
	if in.Content != "" {
		payload["text"] = in.Content
	}
	if len(mediaIDs) > 0 {
		payload["media"] = map[string]any{"media_ids": mediaIDs}
	}

	jsonData, err := json.Marshal(payload)
	if err != nil {
		return "", err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, twitterTweetURL, bytes.NewBuffer(jsonData))
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
		return "", &APIError{Platform: "twitter", StatusCode: resp.StatusCode, Message: readBody(resp)}
	}

	var body struct {
		Data struct {
			ID string `json:"id"`
		} `json:"data"`
	}
	if err := decodeJSON(resp, &body); err != nil {
		return "", err
	}

	return body.Data.ID, nil
}

func (t *Twitter) uploadMedia(ctx context.Context, accessToken, mediaType, path string) (string, error) {
	if path == "" {
		return "", fmt.Errorf("media item has no local content")
	}

	file, err := os.Open(path)
	if err != nil {
		return "", err
	}
	defer file.Close()

	var buf bytes.Buffer
	writer := multipart.NewWriter(&buf)
	part, err := writer.CreateFormFile("media", filepath.Base(path))
	if err != nil {
		return "", err
	}
	if _, err := io.Copy(part, file); err != nil {
		return "", err
	}
	writer.Close()

	uploadURL := twitterUploadURL
	if strings.HasPrefix(mediaType, "video") {
		uploadURL += "?media_category=tweet_video"
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, uploadURL, &buf)
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

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated {
		return "", &APIError{Platform: "twitter", StatusCode: resp.StatusCode, Message: readBody(resp)}
	}

	var body struct {
		MediaIDString string `json:"media_id_string"`
	}
	if err := decodeJSON(resp, &body); err != nil {
		return "", err
	}

	return body.MediaIDString, nil
}
