package media

import (
	"log/slog"
	"os"
)

// Set is the ordered result of one normalization pass plus the ledger of
// temp files it created. A Set lives for exactly one publish attempt.
type Set struct {
	Items []*Item

	tempFiles []string
}

func (s *Set) trackTemp(path string) {
	s.tempFiles = append(s.tempFiles, path)
}

// Resolved returns the items that survived normalization, in order.
func (s *Set) Resolved() []*Item {
	var items []*Item
	for _, it := range s.Items {
		if it.Resolved() {
			items = append(items, it)
		}
	}
	return items
}

// HasVideo reports whether any resolved item is a video.
func (s *Set) HasVideo() bool {
	for _, it := range s.Resolved() {
		if it.Kind == KindVideo {
			return true
		}
	}
	return false
}

// Cleanup removes every temp file the set created, regardless of how the
// publish attempt ended. Safe to call more than once.
func (s *Set) Cleanup() {
	for _, path := range s.tempFiles {
		if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
			slog.Info("failed to remove temp media file", "path", path, "error", err)
		}
	}
	s.tempFiles = nil
}
