package platform

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strings"

	config "github.com/nikhilm27/socialcast/configs"
	"github.com/nikhilm27/socialcast/internal/media"
	"github.com/nikhilm27/socialcast/internal/transfer"
)

const (
	facebookDialogURL = "https://www.facebook.com/v21.0/dialog/oauth"
	facebookGraphURL  = "https://graph.facebook.com/v21.0"
)

// Facebook publishes to a Page using a page access token captured at link
// time. Page tokens do not expire, so the adapter has no refresher.
type Facebook struct {
	cfg *config.Config
}

func NewFacebook(cfg *config.Config) *Facebook {
	return &Facebook{cfg: cfg}
}

func (f *Facebook) Name() string {
	return "facebook"
}

func (f *Facebook) Capabilities() Capabilities {
	return Capabilities{MaxTextLength: 63206}
}

func (f *Facebook) AuthURL(state string) string {
	params := url.Values{}
	params.Add("client_id", f.cfg.MetaClientID)
	params.Add("redirect_uri", f.cfg.MetaRedirectURI)
	params.Add("scope", "pages_show_list,pages_manage_posts,pages_read_engagement")
	params.Add("response_type", "code")
	params.Add("state", state)

	return fmt.Sprintf("%s?%s", facebookDialogURL, params.Encode())
}

// ExchangeCode trades the code for a user token, then picks up the first
// managed Page and its non-expiring page token.
func (f *Facebook) ExchangeCode(ctx context.Context, code, state string) (*transfer.OAuthToken, *transfer.AccountInfo, error) {
	params := url.Values{}
	params.Add("client_id", f.cfg.MetaClientID)
	params.Add("client_secret", f.cfg.MetaClientSecret)
	params.Add("redirect_uri", f.cfg.MetaRedirectURI)
	params.Add("code", code)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet,
		fmt.Sprintf("%s/oauth/access_token?%s", facebookGraphURL, params.Encode()), nil)
	if err != nil {
		return nil, nil, err
	}

	resp, err := httpClient.Do(req)
	if err != nil {
		slog.Info(err.Error())
		return nil, nil, fmt.Errorf("HTTP request failed: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return nil, nil, &APIError{Platform: "facebook", StatusCode: resp.StatusCode, Message: readBody(resp)}
	}

	var tokenResp transfer.GraphTokenResponse
	if err := decodeJSON(resp, &tokenResp); err != nil {
		return nil, nil, fmt.Errorf("failed to decode token response: %w", err)
	}

	page, err := f.firstPage(ctx, tokenResp.AccessToken)
	if err != nil {
		return nil, nil, err
	}

	token := &transfer.OAuthToken{AccessToken: page.AccessToken}
	info := &transfer.AccountInfo{
		AccountID:      page.ID,
		Name:           page.Name,
		Username:       page.Name,
		ProfilePicture: fmt.Sprintf("%s/%s/picture?type=large", facebookGraphURL, page.ID),
	}
	return token, info, nil
}

type facebookPage struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	AccessToken string `json:"access_token"`
}

func (f *Facebook) firstPage(ctx context.Context, userToken string) (*facebookPage, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet,
		fmt.Sprintf("%s/me/accounts?access_token=%s", facebookGraphURL, userToken), nil)
	if err != nil {
		return nil, err
	}

	resp, err := httpClient.Do(req)
	if err != nil {
		slog.Info(err.Error())
		return nil, err
	}

	if resp.StatusCode != http.StatusOK {
		return nil, &APIError{Platform: "facebook", StatusCode: resp.StatusCode, Message: readBody(resp)}
	}

	var body struct {
		Data []facebookPage `json:"data"`
	}
	if err := decodeJSON(resp, &body); err != nil {
		return nil, err
	}
	if len(body.Data) == 0 {
		return nil, fmt.Errorf("no Facebook Pages available on this account")
	}

	return &body.Data[0], nil
}

func (f *Facebook) Publish(ctx context.Context, in *PublishInput) (string, error) {
	items := resolvedItems(in.Media)

	switch {
	case len(items) == 0:
		return f.publishFeed(ctx, in)
	case items[0].Kind == media.KindVideo:
		return f.publishVideo(ctx, in, items[0])
	default:
		return f.publishPhotos(ctx, in, items)
	}
}

func (f *Facebook) publishFeed(ctx context.Context, in *PublishInput) (string, error) {
	data := url.Values{}
	data.Set("message", in.Content)
	data.Set("access_token", in.AccessToken)
	if in.Link != "" {
		data.Set("link", in.Link)
	}

	return f.graphPost(ctx, fmt.Sprintf("%s/%s/feed", facebookGraphURL, in.AccountID), data)
}

func (f *Facebook) publishVideo(ctx context.Context, in *PublishInput, item *media.Item) (string, error) {
	if item.PublicURL == "" {
		return "", fmt.Errorf("facebook video posts require a publicly accessible URL")
	}

	data := url.Values{}
	data.Set("description", in.Content)
	data.Set("file_url", item.PublicURL)
	data.Set("access_token", in.AccessToken)

	return f.graphPost(ctx, fmt.Sprintf("%s/%s/videos", facebookGraphURL, in.AccountID), data)
}

// publishPhotos uploads every photo unpublished, then attaches them to a
// single feed post.
func (f *Facebook) publishPhotos(ctx context.Context, in *PublishInput, items []*media.Item) (string, error) {
	var photoIDs []string
	for _, item := range items {
		if item.Kind != media.KindImage {
			continue
		}
		if item.PublicURL == "" {
			return "", fmt.Errorf("facebook photo posts require a publicly accessible URL")
		}

		data := url.Values{}
		data.Set("url", item.PublicURL)
		data.Set("published", "false")
		data.Set("access_token", in.AccessToken)

		id, err := f.graphPost(ctx, fmt.Sprintf("%s/%s/photos", facebookGraphURL, in.AccountID), data)
		if err != nil {
			return "", err
		}
		photoIDs = append(photoIDs, id)
	}

	data := url.Values{}
	data.Set("message", in.Content)
	data.Set("access_token", in.AccessToken)
	for i, id := range photoIDs {
		data.Set(fmt.Sprintf("attached_media[%d]", i), fmt.Sprintf(`{"media_fbid":"%s"}`, id))
	}

	return f.graphPost(ctx, fmt.Sprintf("%s/%s/feed", facebookGraphURL, in.AccountID), data)
}

func (f *Facebook) graphPost(ctx context.Context, reqURL string, data url.Values) (string, error) {
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
		return "", &APIError{Platform: "facebook", StatusCode: resp.StatusCode, Message: readBody(resp)}
	}

	var result transfer.GraphIDResponse
	if err := decodeJSON(resp, &result); err != nil {
		return "", fmt.Errorf("error parsing response: %w", err)
	}

	return result.ID, nil
}
