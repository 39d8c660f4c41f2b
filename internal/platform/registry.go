package platform

import (
	"fmt"
	"sort"

	config "github.com/nikhilm27/socialcast/configs"
)

// Registry maps platform names to adapters. It is populated once at
// startup and read-only afterwards.
type Registry struct {
	adapters map[string]Adapter
}

func NewRegistry() *Registry {
	return &Registry{adapters: make(map[string]Adapter)}
}

func (r *Registry) Register(a Adapter) {
	r.adapters[a.Name()] = a
}

func (r *Registry) Get(name string) (Adapter, error) {
	a, ok := r.adapters[name]
	if !ok {
		return nil, fmt.Errorf("unsupported platform: %s", name)
	}
	return a, nil
}

// Platforms returns all registered platform names, sorted.
func (r *Registry) Platforms() []string {
	names := make([]string, 0, len(r.adapters))
	for name := range r.adapters {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// DefaultRegistry wires every supported platform from config.
func DefaultRegistry(cfg *config.Config) *Registry {
	r := NewRegistry()
	r.Register(NewTwitter(cfg))
	r.Register(NewInstagram(cfg))
	r.Register(NewFacebook(cfg))
	r.Register(NewLinkedin(cfg))
	r.Register(NewTiktok(cfg))
	r.Register(NewYoutube(cfg))
	r.Register(NewPinterest(cfg))
	r.Register(NewThreads(cfg))
	r.Register(NewBluesky())
	r.Register(NewMastodon())
	return r
}
