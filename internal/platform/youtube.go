package platform

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"strings"

	config "github.com/nikhilm27/socialcast/configs"
	"github.com/nikhilm27/socialcast/internal/media"
	"github.com/nikhilm27/socialcast/internal/transfer"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
	"google.golang.org/api/option"
	"google.golang.org/api/youtube/v3"
)

var youtubeScopes = []string{
	"https://www.googleapis.com/auth/userinfo.email",
	"https://www.googleapis.com/auth/userinfo.profile",
	"https://www.googleapis.com/auth/youtube.upload",
}

type Youtube struct {
	cfg *config.Config
}

func NewYoutube(cfg *config.Config) *Youtube {
	return &Youtube{cfg: cfg}
}

func (y *Youtube) Name() string {
	return "youtube"
}

func (y *Youtube) Capabilities() Capabilities {
	return Capabilities{NeedsVideo: true}
}

func (y *Youtube) oauthConfig() *oauth2.Config {
	return &oauth2.Config{
		ClientID:     y.cfg.GoogleClientID,
		ClientSecret: y.cfg.GoogleClientSecret,
		RedirectURL:  y.cfg.GoogleRedirectURI,
		Scopes:       youtubeScopes,
		Endpoint:     google.Endpoint,
	}
}

func (y *Youtube) AuthURL(state string) string {
	return y.oauthConfig().AuthCodeURL(state,
		oauth2.AccessTypeOffline,
		oauth2.SetAuthURLParam("prompt", "consent"))
}

func (y *Youtube) ExchangeCode(ctx context.Context, code, state string) (*transfer.OAuthToken, *transfer.AccountInfo, error) {
	conf := y.oauthConfig()

	token, err := conf.Exchange(ctx, code)
	if err != nil {
		slog.Info(err.Error())
		return nil, nil, err
	}
	if token.RefreshToken == "" {
		return nil, nil, fmt.Errorf("google returned no refresh token")
	}

	userInfo, err := y.userInfo(ctx, conf.Client(ctx, token))
	if err != nil {
		return nil, nil, err
	}

	result := &transfer.OAuthToken{
		AccessToken:  token.AccessToken,
		RefreshToken: token.RefreshToken,
		ExpiresAt:    token.Expiry,
	}
	info := &transfer.AccountInfo{
		AccountID:      userInfo.ID,
		Name:           userInfo.Name,
		Username:       userInfo.Email,
		ProfilePicture: userInfo.Picture,
	}
	return result, info, nil
}

func (y *Youtube) RefreshToken(ctx context.Context, refreshToken string) (*transfer.OAuthToken, error) {
	source := y.oauthConfig().TokenSource(ctx, &oauth2.Token{RefreshToken: refreshToken})

	token, err := source.Token()
	if err != nil {
		slog.Info(err.Error())
		return nil, err
	}

	result := &transfer.OAuthToken{
		AccessToken:  token.AccessToken,
		RefreshToken: refreshToken,
		ExpiresAt:    token.Expiry,
	}
	if token.RefreshToken != "" {
		result.RefreshToken = token.RefreshToken
	}
	return result, nil
}

func (y *Youtube) userInfo(ctx context.Context, client *http.Client) (*transfer.GoogleUserInfo, error) {
	resp, err := client.Get("https://www.googleapis.com/oauth2/v1/userinfo")
	if err != nil {
		slog.Info(err.Error())
		return nil, fmt.Errorf("error fetching user info: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, &APIError{Platform: "youtube", StatusCode: resp.StatusCode}
	}

	var userInfo transfer.GoogleUserInfo
	if err := json.NewDecoder(resp.Body).Decode(&userInfo); err != nil {
		return nil, fmt.Errorf("error decoding user info: %w", err)
	}

	return &userInfo, nil
}

func (y *Youtube) Publish(ctx context.Context, in *PublishInput) (string, error) {
	var videoItem *media.Item
	for _, item := range resolvedItems(in.Media) {
		if item.Kind == media.KindVideo {
			videoItem = item
			break
		}
	}
	if videoItem == nil {
		return "", fmt.Errorf("youtube requires a video")
	}

	path, err := videoItem.Materialize(ctx)
	if err != nil {
		return "", err
	}

	file, err := os.Open(path)
	if err != nil {
		return "", err
	}
	defer file.Close()

	client := oauth2.NewClient(ctx, oauth2.StaticTokenSource(&oauth2.Token{AccessToken: in.AccessToken}))
	service, err := youtube.NewService(ctx, option.WithHTTPClient(client))
	if err != nil {
		slog.Info(err.Error())
		return "", fmt.Errorf("error creating YouTube service: %w", err)
	}

	video := &youtube.Video{
		Snippet: &youtube.VideoSnippet{
			Title:       videoTitle(in.Content),
			Description: in.Content,
			CategoryId:  "22",
		},
		Status: &youtube.VideoStatus{
			PrivacyStatus: "public",
		},
	}

	call := service.Videos.Insert([]string{"snippet", "status"}, video)
	response, err := call.Media(file).Do()
	if err != nil {
		slog.Info(err.Error())
		return "", fmt.Errorf("error uploading video: %w", err)
	}

	return response.Id, nil
}

// videoTitle derives a title from the first line of content, capped at
// YouTube's 100-character limit.
func videoTitle(content string) string {
	title := content
	if i := strings.IndexByte(title, '\n'); i >= 0 {
		title = title[:i]
	}
	runes := []rune(title)
	if len(runes) > 100 {
		title = string(runes[:100])
	}
	if title == "" {
		title = "New video"
	}
	return title
}
