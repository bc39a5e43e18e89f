// Package registry maps source keys to GatherContent clients, with an
// optional separate client for preview (draft) reads.
package registry

import (
	"context"
	"sort"
	"sync"

	"github.com/Sternrassler/gathercontent-resolver/pkg/gathercontent"
)

// DefaultSource is used when a registration or parameter names no source.
const DefaultSource = "default"

// Client is the subset of the GatherContent client the resolver needs.
type Client interface {
	GetItems(ctx context.Context, q gathercontent.ItemsQuery) (*gathercontent.ItemsResult, error)
}

// Registration binds clients to a source key.
type Registration struct {
	// Source defaults to DefaultSource.
	Source string

	// Client serves published reads. Required.
	Client Client

	// PreviewClient serves preview reads. Defaults to Client.
	PreviewClient Client
}

type entry struct {
	client        Client
	previewClient Client
}

// Registry is safe for concurrent use.
type Registry struct {
	mu      sync.RWMutex
	entries map[string]entry
}

// New returns an empty registry.
func New() *Registry {
	return &Registry{entries: make(map[string]entry)}
}

// AddClient registers a source. A source can only be registered once.
func (r *Registry) AddClient(reg Registration) error {
	source := reg.Source
	if source == "" {
		source = DefaultSource
	}
	if reg.Client == nil {
		return &gathercontent.ConfigurationError{Source: source, Err: gathercontent.ErrMissingClient}
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.entries[source]; exists {
		return &gathercontent.ConfigurationError{Source: source, Err: gathercontent.ErrDuplicateSource}
	}

	preview := reg.PreviewClient
	if preview == nil {
		preview = reg.Client
	}
	r.entries[source] = entry{client: reg.Client, previewClient: preview}
	return nil
}

// GetClient returns the client for source, or the preview client when
// isPreview is set. An empty source selects DefaultSource. The boolean
// is false when the source is not registered.
func (r *Registry) GetClient(source string, isPreview bool) (Client, bool) {
	if source == "" {
		source = DefaultSource
	}

	r.mu.RLock()
	defer r.mu.RUnlock()
	e, ok := r.entries[source]
	if !ok {
		return nil, false
	}
	if isPreview {
		return e.previewClient, true
	}
	return e.client, true
}

// Sources lists the registered source keys in sorted order.
func (r *Registry) Sources() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	sources := make([]string, 0, len(r.entries))
	for source := range r.entries {
		sources = append(sources, source)
	}
	sort.Strings(sources)
	return sources
}
