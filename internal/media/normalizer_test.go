package media

import (
	"context"
	"encoding/base64"
	"errors"
	"os"
	"testing"

	"github.com/nikhilm27/socialcast/internal/transfer"
)

type fakeStore struct {
	puts []string
	err  error
}

func (s *fakeStore) Put(ctx context.Context, key string, data []byte, contentType string) (string, error) {
	if s.err != nil {
		return "", s.err
	}
	s.puts = append(s.puts, key)
	return "https://cdn.example.com/" + key, nil
}

// Smallest valid PNG header bytes, enough for filetype sniffing.
var pngBytes = []byte{0x89, 0x50, 0x4E, 0x47, 0x0D, 0x0A, 0x1A, 0x0A, 0, 0, 0, 0}

func TestIsBlobURL(t *testing.T) {
	if !IsBlobURL(transfer.MediaDescriptor{URL: "blob:https://app.example.com/123"}) {
		t.Fatal("expected blob URL to be detected")
	}
	if IsBlobURL(transfer.MediaDescriptor{URL: "https://cdn.example.com/a.jpg"}) {
		t.Fatal("expected https URL not to be detected as blob")
	}
}

func TestResolveRemoteURL(t *testing.T) {
	n := NewNormalizer(nil)

	set := n.Resolve(context.Background(), []transfer.MediaDescriptor{
		{URL: "https://cdn.example.com/a.jpg"},
	})
	defer set.Cleanup()

	if len(set.Items) != 1 {
		t.Fatalf("expected 1 item, got %d", len(set.Items))
	}
	item := set.Items[0]
	if item.Err != nil {
		t.Fatalf("unexpected error: %v", item.Err)
	}
	if item.PublicURL != "https://cdn.example.com/a.jpg" {
		t.Fatalf("unexpected public URL %q", item.PublicURL)
	}
	if item.Kind != KindImage {
		t.Fatalf("expected image kind, got %q", item.Kind)
	}
}

func TestResolveInlineData(t *testing.T) {
	store := &fakeStore{}
	n := NewNormalizer(store)

	encoded := base64.StdEncoding.EncodeToString(pngBytes)
	set := n.Resolve(context.Background(), []transfer.MediaDescriptor{
		{InlineData: encoded},
	})

	if len(set.Items) != 1 {
		t.Fatalf("expected 1 item, got %d", len(set.Items))
	}
	item := set.Items[0]
	if item.Err != nil {
		t.Fatalf("unexpected error: %v", item.Err)
	}
	if item.LocalPath == "" {
		t.Fatal("expected a local path for inline data")
	}
	if item.PublicURL == "" {
		t.Fatal("expected a public URL from the store")
	}
	if item.Kind != KindImage {
		t.Fatalf("expected image kind from sniffing, got %q", item.Kind)
	}
	if len(store.puts) != 1 {
		t.Fatalf("expected 1 store put, got %d", len(store.puts))
	}

	if _, err := os.Stat(item.LocalPath); err != nil {
		t.Fatalf("expected temp file to exist before cleanup: %v", err)
	}
	set.Cleanup()
	if _, err := os.Stat(item.LocalPath); !os.IsNotExist(err) {
		t.Fatalf("expected temp file removed after cleanup, stat err = %v", err)
	}
}

func TestResolveDataURL(t *testing.T) {
	n := NewNormalizer(nil)

	encoded := base64.StdEncoding.EncodeToString(pngBytes)
	set := n.Resolve(context.Background(), []transfer.MediaDescriptor{
		{URL: "data:image/png;base64," + encoded},
	})
	defer set.Cleanup()

	item := set.Items[0]
	if item.Err != nil {
		t.Fatalf("unexpected error: %v", item.Err)
	}
	if item.MediaType != "image/png" {
		t.Fatalf("expected media type from data URL header, got %q", item.MediaType)
	}
	if item.Kind != KindImage {
		t.Fatalf("expected image kind, got %q", item.Kind)
	}
}

func TestResolveFailureDoesNotStopOthers(t *testing.T) {
	n := NewNormalizer(nil)

	set := n.Resolve(context.Background(), []transfer.MediaDescriptor{
		{InlineData: "not-valid-base64!!"},
		{URL: "https://cdn.example.com/ok.png"},
	})
	defer set.Cleanup()

	if len(set.Items) != 2 {
		t.Fatalf("expected 2 items, got %d", len(set.Items))
	}
	if set.Items[0].Err == nil {
		t.Fatal("expected first item to carry an error")
	}
	if set.Items[1].Err != nil {
		t.Fatalf("expected second item to resolve, got %v", set.Items[1].Err)
	}
	if len(set.Resolved()) != 1 {
		t.Fatalf("expected 1 resolved item, got %d", len(set.Resolved()))
	}
}

func TestResolveStoreFailureKeepsLocalCopy(t *testing.T) {
	n := NewNormalizer(&fakeStore{err: errors.New("bucket unavailable")})

	encoded := base64.StdEncoding.EncodeToString(pngBytes)
	set := n.Resolve(context.Background(), []transfer.MediaDescriptor{
		{InlineData: encoded},
	})
	defer set.Cleanup()

	item := set.Items[0]
	if item.Err != nil {
		t.Fatalf("store failure should not fail the item: %v", item.Err)
	}
	if item.LocalPath == "" {
		t.Fatal("expected a local path despite store failure")
	}
	if item.PublicURL != "" {
		t.Fatalf("expected no public URL, got %q", item.PublicURL)
	}
}

func TestResolveEmptyDescriptor(t *testing.T) {
	n := NewNormalizer(nil)

	set := n.Resolve(context.Background(), []transfer.MediaDescriptor{{}})
	defer set.Cleanup()

	if set.Items[0].Err == nil {
		t.Fatal("expected error for descriptor with no source")
	}
}
