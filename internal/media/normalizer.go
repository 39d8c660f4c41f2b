package media

import (
	"context"
	"encoding/base64"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/h2non/filetype"
	gonanoid "github.com/matoous/go-nanoid/v2"
	"github.com/nikhilm27/socialcast/internal/transfer"
)

// Normalizer resolves publish media descriptors into Items. A nil store is
// allowed; inline items then resolve with a local path only.
type Normalizer struct {
	store Store
}

func NewNormalizer(store Store) *Normalizer {
	return &Normalizer{store: store}
}

// IsBlobURL reports whether the descriptor points at a browser blob: URL,
// which means the client-side upload never finished. These are rejected
// before any normalization work.
func IsBlobURL(d transfer.MediaDescriptor) bool {
	return strings.HasPrefix(d.URL, "blob:")
}

// Resolve normalizes every descriptor. A single item's failure is recorded
// on that item and logged, never fatal: callers receive a set with one
// entry per descriptor, in order, and must tolerate unresolved entries.
func (n *Normalizer) Resolve(ctx context.Context, descriptors []transfer.MediaDescriptor) *Set {
	set := &Set{}

	for _, d := range descriptors {
		item := n.resolveOne(ctx, d, set)
		if item.Err != nil {
			slog.Error("failed to normalize media item", "error", item.Err)
		}
		item.set = set
		set.Items = append(set.Items, item)
	}

	return set
}

func (n *Normalizer) resolveOne(ctx context.Context, d transfer.MediaDescriptor, set *Set) *Item {
	switch {
	case d.LocalPath != "":
		return &Item{
			LocalPath: d.LocalPath,
			MediaType: d.MediaType,
			Kind:      KindOf(d.MediaType, d.LocalPath),
		}

	case d.InlineData != "" || strings.HasPrefix(d.URL, "data:"):
		data := d.InlineData
		if data == "" {
			data = d.URL
		}
		return n.resolveInline(ctx, data, d.MediaType, set)

	case d.URL != "":
		return &Item{
			PublicURL: d.URL,
			MediaType: d.MediaType,
			Kind:      KindOf(d.MediaType, d.URL),
		}

	default:
		return &Item{Err: fmt.Errorf("media descriptor has no source")}
	}
}

// resolveInline decodes base64 content (raw or a full data: URL) into a
// scoped temp file and, when a store is configured, persists it to obtain
// a public URL.
func (n *Normalizer) resolveInline(ctx context.Context, data, declaredType string, set *Set) *Item {
	mediaType := declaredType

	if strings.HasPrefix(data, "data:") {
		header, payload, found := strings.Cut(data, ",")
		if !found {
			return &Item{Err: fmt.Errorf("malformed data URL")}
		}
		if mediaType == "" {
			mediaType = strings.TrimSuffix(strings.TrimPrefix(header, "data:"), ";base64")
		}
		data = payload
	}

	raw, err := base64.StdEncoding.DecodeString(data)
	if err != nil {
		return &Item{Err: fmt.Errorf("invalid base64 media content: %w", err)}
	}

	ext := "bin"
	if t, err := filetype.Match(raw); err == nil && t != filetype.Unknown {
		ext = t.Extension
		if mediaType == "" {
			mediaType = t.MIME.Value
		}
	}

	tempFile, err := os.CreateTemp("", "socialcast-media-*."+ext)
	if err != nil {
		return &Item{Err: fmt.Errorf("error creating temporary file: %w", err)}
	}
	set.trackTemp(tempFile.Name())

	if _, err := tempFile.Write(raw); err != nil {
		tempFile.Close()
		return &Item{Err: fmt.Errorf("error writing temporary file: %w", err)}
	}
	tempFile.Close()

	item := &Item{
		LocalPath: tempFile.Name(),
		MediaType: mediaType,
		Kind:      KindOf(mediaType, tempFile.Name()),
	}

	if n.store != nil {
		key, err := gonanoid.New()
		if err != nil {
			return &Item{Err: err}
		}
		url, err := n.store.Put(ctx, key+"."+ext, raw, mediaType)
		if err != nil {
			// The local copy is still usable for upload-style platforms.
			slog.Info("failed to persist inline media to public store", "error", err)
		} else {
			item.PublicURL = url
		}
	}

	return item
}
