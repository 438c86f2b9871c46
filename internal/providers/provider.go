package providers

import (
	"context"
	"sync/atomic"
)

// Hint carries launcher-side context along with a query. Providers may use
// any subset; an empty hint is valid.
type Hint struct {
	// Source is the launcher the scan came from (steam, epic, gog, ...).
	Source string
	// AppID is the launcher-native identifier, when the scan carried one.
	AppID string
	// Year narrows search results when known.
	Year int
}

// SearchResult is one normalized catalog hit.
type SearchResult struct {
	ID          string
	Title       string
	ReleaseYear int
	Provider    string
}

// Description holds the textual metadata a provider knows about a game.
// Empty fields mean the provider had nothing; the orchestrator merges across
// providers field by field.
type Description struct {
	Summary     string
	Genres      []string
	Developers  []string
	Publishers  []string
	ReleaseDate string
	Website     string
	Rating      float64
}

// Artwork holds image URLs for a game.
type Artwork struct {
	CoverURL    string
	HeroURL     string
	Screenshots []string
}

// Provider is a single external game catalog. Implementations route every
// HTTP call through the shared Dispatcher under their own service tag and
// self-disable permanently on authentication failure.
type Provider interface {
	Name() string
	Available() bool
	Search(ctx context.Context, title string, hint Hint) ([]SearchResult, error)
	Description(ctx context.Context, id string) (*Description, error)
	Artwork(ctx context.Context, id string, hint Hint) (*Artwork, error)
}

// Dispatcher admits outbound calls under per-service timing floors. The
// ratelimit coordinator satisfies this; tests substitute a passthrough.
type Dispatcher interface {
	Do(ctx context.Context, service string, fn func(context.Context) (any, error)) (any, error)
}

// Gate tracks whether a provider may still be called. Disabling is one-way:
// a provider that failed authentication stays out for the process lifetime.
type Gate struct {
	disabled atomic.Bool
}

// Available reports whether the provider has not been disabled.
func (g *Gate) Available() bool {
	return !g.disabled.Load()
}

// Disable permanently marks the provider unusable.
func (g *Gate) Disable() {
	g.disabled.Store(true)
}
