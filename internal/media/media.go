// Package media converts heterogeneous publish media descriptors (remote
// URL, inline base64 data, local file) into uniform items a platform
// adapter can consume: a locally readable path, a publicly fetchable URL,
// and an image/video kind. Temporary files created along the way are scoped
// to one publish attempt and released through Set.Cleanup.
package media

import (
	"context"
	"strings"
)

type Kind string

const (
	KindImage   Kind = "image"
	KindVideo   Kind = "video"
	KindUnknown Kind = "unknown"
)

// Store persists bytes durably and returns a publicly fetchable URL.
// Platforms that pull media themselves (Instagram, TikTok, Threads) need
// such a URL for inline uploads.
type Store interface {
	Put(ctx context.Context, key string, data []byte, contentType string) (string, error)
}

var videoExtensions = map[string]struct{}{
	"mp4": {}, "mov": {}, "avi": {}, "mkv": {}, "webm": {},
}

var imageExtensions = map[string]struct{}{
	"jpg": {}, "jpeg": {}, "png": {}, "gif": {}, "webp": {},
}

// KindOf classifies media by declared media type first, falling back to a
// file-extension heuristic on the given name or URL.
func KindOf(mediaType, name string) Kind {
	switch {
	case strings.HasPrefix(mediaType, "video"):
		return KindVideo
	case strings.HasPrefix(mediaType, "image"):
		return KindImage
	}

	ext := extensionOf(name)
	if _, ok := videoExtensions[ext]; ok {
		return KindVideo
	}
	if _, ok := imageExtensions[ext]; ok {
		return KindImage
	}
	return KindUnknown
}

func extensionOf(name string) string {
	name = strings.SplitN(name, "?", 2)[0]
	i := strings.LastIndex(name, ".")
	if i < 0 || i == len(name)-1 {
		return ""
	}
	return strings.ToLower(name[i+1:])
}
