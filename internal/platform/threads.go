package platform

import (
	"context"
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
	threadsAuthURL  = "https://threads.net/oauth/authorize"
	threadsGraphURL = "https://graph.threads.net/v1.0"
)

type Threads struct {
	cfg *config.Config

	pollDelay time.Duration
}

func NewThreads(cfg *config.Config) *Threads {
	return &Threads{cfg: cfg, pollDelay: containerPollDelay}
}

func (th *Threads) Name() string {
	return "threads"
}

func (th *Threads) Capabilities() Capabilities {
	return Capabilities{MaxTextLength: 500}
}

func (th *Threads) AuthURL(state string) string {
	params := url.Values{}
	params.Add("client_id", th.cfg.ThreadsClientID)
	params.Add("redirect_uri", th.cfg.ThreadsRedirectURI)
	params.Add("scope", "threads_basic,threads_content_publish")
	params.Add("response_type", "code")
	params.Add("state", state)

	return fmt.Sprintf("%s?%s", threadsAuthURL, params.Encode())
}

func (th *Threads) ExchangeCode(ctx context.Context, code, state string) (*transfer.OAuthToken, *transfer.AccountInfo, error) {
	data := url.Values{}
	data.Set("client_id", th.cfg.ThreadsClientID)
	data.Set("client_secret", th.cfg.ThreadsClientSecret)
	data.Set("grant_type", "authorization_code")
	data.Set("redirect_uri", th.cfg.ThreadsRedirectURI)
	data.Set("code", code)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		"https://graph.threads.net/oauth/access_token", strings.NewReader(data.Encode()))
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
		return nil, nil, &APIError{Platform: "threads", StatusCode: resp.StatusCode, Message: readBody(resp)}
	}

	var shortLived struct {
		AccessToken string `json:"access_token"`
		UserID      int64  `json:"user_id"`
	}
	if err := decodeJSON(resp, &shortLived); err != nil {
		return nil, nil, fmt.Errorf("failed to decode token response: %w", err)
	}

	token, err := th.getLongLivedToken(ctx, shortLived.AccessToken)
	if err != nil {
		return nil, nil, err
	}

	info, err := th.userInfo(ctx, token.AccessToken)
	if err != nil {
		return nil, nil, err
	}

	return token, info, nil
}

func (th *Threads) getLongLivedToken(ctx context.Context, shortLived string) (*transfer.OAuthToken, error) {
	reqURL := fmt.Sprintf(
		"https://graph.threads.net/access_token?grant_type=th_exchange_token&client_secret=%s&access_token=%s",
		th.cfg.ThreadsClientSecret, shortLived,
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
		return nil, &APIError{Platform: "threads", StatusCode: resp.StatusCode, Message: readBody(resp)}
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

func (th *Threads) RefreshToken(ctx context.Context, refreshToken string) (*transfer.OAuthToken, error) {
	reqURL := fmt.Sprintf(
		"https://graph.threads.net/refresh_access_token?grant_type=th_refresh_token&access_token=%s",
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
		return nil, &APIError{Platform: "threads", StatusCode: resp.StatusCode, Message: readBody(resp)}
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

func (th *Threads) userInfo(ctx context.Context, accessToken string) (*transfer.AccountInfo, error) {
	reqURL := fmt.Sprintf(
		"%s/me?fields=id,username,name,threads_profile_picture_url&access_token=%s",
		threadsGraphURL, accessToken,
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

	var body struct {
		ID                string `json:"id"`
		Username          string `json:"username"`
		Name              string `json:"name"`
		ProfilePictureURL string `json:"threads_profile_picture_url"`
	}
	if err := decodeJSON(resp, &body); err != nil {
		return nil, err
	}

	return &transfer.AccountInfo{
		AccountID:      body.ID,
		Name:           body.Name,
		Username:       body.Username,
		ProfilePicture: body.ProfilePictureURL,
	}, nil
}

func (th *Threads) Publish(ctx context.Context, in *PublishInput) (string, error) {
	items := resolvedItems(in.Media)

	data := url.Values{}
	data.Set("access_token", in.AccessToken)
	data.Set("text", in.Content)

	needsPoll := false
	switch {
	case len(items) == 0:
		data.Set("media_type", "TEXT")
	case items[0].Kind == media.KindVideo:
		if items[0].PublicURL == "" {
			return "", fmt.Errorf("threads requires publicly accessible media URLs")
		}
		data.Set("media_type", "VIDEO")
		data.Set("video_url", items[0].PublicURL)
		needsPoll = true
	default:
		if items[0].PublicURL == "" {
			return "", fmt.Errorf("threads requires publicly accessible media URLs")
		}
		data.Set("media_type", "IMAGE")
		data.Set("image_url", items[0].PublicURL)
	}

	containerID, err := th.graphPost(ctx, fmt.Sprintf("%s/%s/threads", threadsGraphURL, in.AccountID), data)
	if err != nil {
		return "", err
	}

	if needsPoll {
		if err := th.waitForContainer(ctx, containerID, in.AccessToken); err != nil {
			return "", err
		}
	}

	publishData := url.Values{}
	publishData.Set("creation_id", containerID)
	publishData.Set("access_token", in.AccessToken)

	return th.graphPost(ctx, fmt.Sprintf("%s/%s/threads_publish", threadsGraphURL, in.AccountID), publishData)
}

func (th *Threads) waitForContainer(ctx context.Context, containerID, accessToken string) error {
	for attempt := 0; attempt < containerMaxPolls; attempt++ {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(th.pollDelay):
		}

		reqURL := fmt.Sprintf("%s/%s?fields=status,error_message&access_token=%s",
			threadsGraphURL, containerID, accessToken)

		req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
		if err != nil {
			return err
		}

		resp, err := httpClient.Do(req)
		if err != nil {
			return err
		}

		var status struct {
			Status       string `json:"status"`
			ErrorMessage string `json:"error_message"`
		}
		if err := decodeJSON(resp, &status); err != nil {
			return err
		}

		switch status.Status {
		case "FINISHED":
			return nil
		case "ERROR":
			return &ProcessingError{
				Platform: "threads",
				Reason:   fmt.Sprintf("threads media processing failed: %s", status.ErrorMessage),
			}
		}
	}

	return &ProcessingError{
		Platform: "threads",
		Reason:   "timed out waiting for threads media processing",
	}
}

func (th *Threads) graphPost(ctx context.Context, reqURL string, data url.Values) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, reqURL, strings.NewReader(data.Encode()))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := httpClient.Do(req)
	if err != nil {
		slog.Info(err.Error())
		return "", fmt.Errorf("HTTP request failed: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return "", &APIError{Platform: "threads", StatusCode: resp.StatusCode, Message: readBody(resp)}
	}

	var result transfer.GraphIDResponse
	if err := decodeJSON(resp, &result); err != nil {
		return "", fmt.Errorf("error parsing response: %w", err)
	}

	return result.ID, nil
}
