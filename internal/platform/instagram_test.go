package platform

import (
	"context"
	"errors"
	"strings"
	"testing"

	config "github.com/nikhilm27/socialcast/configs"
	"github.com/nikhilm27/socialcast/internal/media"
)

func TestInstagramCarouselValidatesEveryItemUpFront(t *testing.T) {
	ig := NewInstagram(&config.Config{})

	// The second item never finished uploading to durable storage. The
	// carousel must be rejected before any child container is created,
	// even though the first item is fine.
	in := &PublishInput{
		AccessToken: "token",
		AccountID:   "17841400000000000",
		Content:     "carousel caption",
		Media: []*media.Item{
			{Kind: media.KindImage, PublicURL: "https://cdn.example.com/a.jpg"},
			{Kind: media.KindImage, LocalPath: "/tmp/b.jpg"},
		},
	}

	_, err := ig.Publish(context.Background(), in)
	var verr *ValidationError
	if !errors.As(err, &verr) {
		t.Fatalf("expected ValidationError, got %v", err)
	}
	if verr.Platform != "instagram" {
		t.Fatalf("platform = %q", verr.Platform)
	}
	if !strings.Contains(verr.Reason, "carousel") {
		t.Fatalf("reason = %q", verr.Reason)
	}
}

func TestInstagramSingleItemNeedsPublicURL(t *testing.T) {
	ig := NewInstagram(&config.Config{})

	in := &PublishInput{
		AccessToken: "token",
		AccountID:   "17841400000000000",
		Media: []*media.Item{
			{Kind: media.KindImage, LocalPath: "/tmp/a.jpg"},
		},
	}

	_, err := ig.Publish(context.Background(), in)
	var verr *ValidationError
	if !errors.As(err, &verr) {
		t.Fatalf("expected ValidationError, got %v", err)
	}
}
