package platform

import (
	"fmt"

	"github.com/nikhilm27/socialcast/internal/media"
)

// Capabilities describes what a platform accepts. MaxTextLength of 0 means
// the platform imposes no limit worth enforcing here.
type Capabilities struct {
	NeedsMedia    bool
	NeedsVideo    bool
	ImagesOnly    bool
	MaxTextLength int
}

// Validate checks content and media against the platform's capabilities
// before any network call. A failure is final for this target.
func Validate(name string, caps Capabilities, content string, items []*media.Item) error {
	hasMedia := false
	hasVideo := false
	for _, it := range items {
		if !it.Resolved() {
			continue
		}
		hasMedia = true
		if it.Kind == media.KindVideo {
			hasVideo = true
		}
	}

	if caps.NeedsVideo && !hasVideo {
		return &ValidationError{
			Platform: name,
			Reason:   fmt.Sprintf("%s requires a video", name),
		}
	}

	if caps.NeedsMedia && !hasMedia {
		return &ValidationError{
			Platform: name,
			Reason:   fmt.Sprintf("%s requires at least one media item", name),
		}
	}

	if !caps.NeedsMedia && !caps.NeedsVideo && content == "" && !hasMedia {
		return &ValidationError{
			Platform: name,
			Reason:   fmt.Sprintf("%s requires text content or media", name),
		}
	}

	if caps.ImagesOnly && hasVideo {
		return &ValidationError{
			Platform: name,
			Reason:   fmt.Sprintf("%s only supports image media", name),
		}
	}

	if caps.MaxTextLength > 0 && len([]rune(content)) > caps.MaxTextLength {
		return &ValidationError{
			Platform: name,
			Reason:   fmt.Sprintf("%s content exceeds %d characters", name, caps.MaxTextLength),
		}
	}

	return nil
}
