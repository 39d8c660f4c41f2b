package platform

import (
	"errors"
	"strings"
	"testing"

	"github.com/nikhilm27/socialcast/internal/media"
)

func imageItem() *media.Item {
	return &media.Item{Kind: media.KindImage, PublicURL: "https://cdn.example.com/a.jpg", MediaType: "image/jpeg"}
}

func videoItem() *media.Item {
	return &media.Item{Kind: media.KindVideo, PublicURL: "https://cdn.example.com/a.mp4", MediaType: "video/mp4"}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		caps    Capabilities
		content string
		items   []*media.Item
		wantErr string
	}{
		{
			name:    "text only within limit",
			caps:    Capabilities{MaxTextLength: 280},
			content: "hello",
		},
		{
			name:    "text over limit",
			caps:    Capabilities{MaxTextLength: 5},
			content: "hello world",
			wantErr: "exceeds 5 characters",
		},
		{
			name:    "needs media without media",
			caps:    Capabilities{NeedsMedia: true},
			content: "caption",
			wantErr: "requires at least one media item",
		},
		{
			name:    "needs media with image",
			caps:    Capabilities{NeedsMedia: true},
			content: "caption",
			items:   []*media.Item{imageItem()},
		},
		{
			name:    "needs video with image only",
			caps:    Capabilities{NeedsVideo: true},
			items:   []*media.Item{imageItem()},
			wantErr: "requires a video",
		},
		{
			name:  "needs video with video",
			caps:  Capabilities{NeedsVideo: true},
			items: []*media.Item{videoItem()},
		},
		{
			name:    "images only with video",
			caps:    Capabilities{ImagesOnly: true},
			content: "hi",
			items:   []*media.Item{videoItem()},
			wantErr: "only supports image media",
		},
		{
			name:    "empty post",
			caps:    Capabilities{MaxTextLength: 280},
			wantErr: "requires text content or media",
		},
		{
			name:  "media only no text",
			caps:  Capabilities{MaxTextLength: 280},
			items: []*media.Item{imageItem()},
		},
		{
			name:    "unresolved items do not count as media",
			caps:    Capabilities{NeedsMedia: true},
			content: "caption",
			items:   []*media.Item{{Err: errors.New("bad media")}},
			wantErr: "requires at least one media item",
		},
		{
			name:    "rune count not byte count",
			caps:    Capabilities{MaxTextLength: 4},
			content: "héllo",
			wantErr: "exceeds 4 characters",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := Validate("testplatform", tt.caps, tt.content, tt.items)
			if tt.wantErr == "" {
				if err != nil {
					t.Fatalf("expected no error, got %v", err)
				}
				return
			}
			if err == nil {
				t.Fatalf("expected error containing %q, got nil", tt.wantErr)
			}
			var vErr *ValidationError
			if !errors.As(err, &vErr) {
				t.Fatalf("expected ValidationError, got %T", err)
			}
			if !strings.Contains(err.Error(), tt.wantErr) {
				t.Fatalf("expected error containing %q, got %q", tt.wantErr, err.Error())
			}
		})
	}
}
