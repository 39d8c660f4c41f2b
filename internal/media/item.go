package media

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
)

// Item is one normalized piece of media. An item that failed normalization
// carries Err and is skipped by adapters; the rest of the set stays usable.
type Item struct {
	Kind      Kind
	LocalPath string
	PublicURL string
	MediaType string
	Err       error

	set *Set
}

// Resolved reports whether the item survived normalization with at least
// one usable source.
func (it *Item) Resolved() bool {
	return it != nil && it.Err == nil && (it.LocalPath != "" || it.PublicURL != "")
}

// Materialize returns a local file path for the item's bytes, downloading
// the public URL into a scoped temp file on first use. Adapters that upload
// request bodies (Twitter, LinkedIn, Mastodon, Bluesky, YouTube) call this;
// URL-pull platforms never do.
func (it *Item) Materialize(ctx context.Context) (string, error) {
	if it.Err != nil {
		return "", it.Err
	}
	if it.LocalPath != "" {
		return it.LocalPath, nil
	}
	if it.PublicURL == "" {
		return "", fmt.Errorf("media item has no source")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, it.PublicURL, nil)
	if err != nil {
		return "", err
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("error downloading media: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("unexpected response status downloading media: %d", resp.StatusCode)
	}

	tempFile, err := os.CreateTemp("", "socialcast-media-*")
	if err != nil {
		return "", fmt.Errorf("error creating temporary file: %w", err)
	}
	defer tempFile.Close()

	if _, err := io.Copy(tempFile, resp.Body); err != nil {
		os.Remove(tempFile.Name())
		return "", fmt.Errorf("error saving media to temporary file: %w", err)
	}

	it.LocalPath = tempFile.Name()
	if it.set != nil {
		it.set.trackTemp(it.LocalPath)
	}
	return it.LocalPath, nil
}

// Bytes reads the item's content, materializing it first when needed.
func (it *Item) Bytes(ctx context.Context) ([]byte, error) {
	path, err := it.Materialize(ctx)
	if err != nil {
		return nil, err
	}
	return os.ReadFile(path)
}
