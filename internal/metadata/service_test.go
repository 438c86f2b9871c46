package metadata_test

import (
	"context"
	"errors"
	"testing"

	"ludex/internal/logging"
	"ludex/internal/metadata"
	"ludex/internal/providers"
	"ludex/internal/scanner"
	"ludex/internal/services"
)

type stubProvider struct {
	name        string
	unavailable bool

	searchResults []providers.SearchResult
	searchErr     error
	searchCalls   int

	desc    *providers.Description
	descErr error

	art *providers.Artwork
}

func (s *stubProvider) Name() string    { return s.name }
func (s *stubProvider) Available() bool { return !s.unavailable }

func (s *stubProvider) Search(ctx context.Context, title string, hint providers.Hint) ([]providers.SearchResult, error) {
	s.searchCalls++
	return s.searchResults, s.searchErr
}

func (s *stubProvider) Description(ctx context.Context, id string) (*providers.Description, error) {
	return s.desc, s.descErr
}

func (s *stubProvider) Artwork(ctx context.Context, id string, hint providers.Hint) (*providers.Artwork, error) {
	return s.art, nil
}

func hit(provider, id, title string) []providers.SearchResult {
	return []providers.SearchResult{{ID: id, Title: title, Provider: provider}}
}

func scannedPortal() *scanner.ScannedGameResult {
	result := scanner.NewResult(scanner.SourceSteam, "Portal", "Portal")
	result.InstallPath = "/games/Portal"
	result.AppID = "400"
	return result
}

func TestResolveWithoutProvidersIsAmbiguous(t *testing.T) {
	service := metadata.NewService(nil, nil, 0, logging.NewNop())

	record, err := service.Resolve(context.Background(), scannedPortal())
	if err != nil {
		t.Fatalf("Resolve returned error: %v", err)
	}
	if record.Status != scanner.StatusAmbiguous {
		t.Fatalf("expected ambiguous status, got %q", record.Status)
	}
	if record.Provider != "" {
		t.Fatalf("unexpected provider %q", record.Provider)
	}
}

func TestResolvePriorityOrderWins(t *testing.T) {
	first := &stubProvider{name: "alpha", searchResults: hit("alpha", "a1", "Portal")}
	second := &stubProvider{name: "beta", searchResults: hit("beta", "b1", "Portal")}

	service := metadata.NewService([]providers.Provider{first, second}, nil, 0, logging.NewNop())
	record, err := service.Resolve(context.Background(), scannedPortal())
	if err != nil {
		t.Fatalf("Resolve returned error: %v", err)
	}
	if record.Provider != "alpha" || record.ProviderID != "a1" {
		t.Fatalf("expected alpha to win, got %q/%q", record.Provider, record.ProviderID)
	}
	if record.Status != scanner.StatusReady {
		t.Fatalf("expected ready status, got %q", record.Status)
	}
	if record.Confidence <= 0 {
		t.Fatalf("expected positive confidence, got %v", record.Confidence)
	}
}

func TestResolveFailsOverOnRateLimit(t *testing.T) {
	limited := &stubProvider{
		name:      "alpha",
		searchErr: services.Wrap(services.ErrRateLimited, "alpha", "search", "status 429", nil),
	}
	fallback := &stubProvider{name: "beta", searchResults: hit("beta", "b1", "Portal")}

	service := metadata.NewService([]providers.Provider{limited, fallback}, nil, 0, logging.NewNop())
	record, err := service.Resolve(context.Background(), scannedPortal())
	if err != nil {
		t.Fatalf("Resolve returned error: %v", err)
	}
	if record.Provider != "beta" {
		t.Fatalf("expected failover to beta, got %q", record.Provider)
	}
}

func TestResolveSkipsUnavailableProviders(t *testing.T) {
	disabled := &stubProvider{name: "alpha", unavailable: true, searchResults: hit("alpha", "a1", "Portal")}
	fallback := &stubProvider{name: "beta", searchResults: hit("beta", "b1", "Portal")}

	service := metadata.NewService([]providers.Provider{disabled, fallback}, nil, 0, logging.NewNop())
	record, err := service.Resolve(context.Background(), scannedPortal())
	if err != nil {
		t.Fatalf("Resolve returned error: %v", err)
	}
	if record.Provider != "beta" {
		t.Fatalf("expected beta, got %q", record.Provider)
	}
	if disabled.searchCalls != 0 {
		t.Fatalf("disabled provider must not be searched, got %d calls", disabled.searchCalls)
	}
}

func TestResolveRejectsPoorCandidates(t *testing.T) {
	provider := &stubProvider{name: "alpha", searchResults: hit("alpha", "a1", "Completely Different Game")}

	service := metadata.NewService([]providers.Provider{provider}, nil, 0, logging.NewNop())
	record, err := service.Resolve(context.Background(), scannedPortal())
	if err != nil {
		t.Fatalf("Resolve returned error: %v", err)
	}
	if record.Status != scanner.StatusAmbiguous {
		t.Fatalf("expected ambiguous status, got %q", record.Status)
	}
}

func TestMergeTakesFirstNonEmptyField(t *testing.T) {
	first := &stubProvider{
		name:          "alpha",
		searchResults: hit("alpha", "a1", "Portal"),
		desc:          &providers.Description{Genres: []string{"Puzzle"}},
		art:           &providers.Artwork{CoverURL: "https://alpha.example/cover.jpg"},
	}
	second := &stubProvider{
		name:          "beta",
		searchResults: hit("beta", "b1", "Portal"),
		desc:          &providers.Description{Summary: "A test chamber puzzler.", Genres: []string{"Action"}},
		art:           &providers.Artwork{CoverURL: "https://beta.example/cover.jpg", Screenshots: []string{"https://beta.example/s1.jpg"}},
	}

	service := metadata.NewService([]providers.Provider{first, second}, nil, 0, logging.NewNop())
	record, err := service.Resolve(context.Background(), scannedPortal())
	if err != nil {
		t.Fatalf("Resolve returned error: %v", err)
	}
	if record.Summary != "A test chamber puzzler." {
		t.Fatalf("expected summary from beta, got %q", record.Summary)
	}
	if len(record.Genres) != 1 || record.Genres[0] != "Puzzle" {
		t.Fatalf("expected genres from alpha, got %v", record.Genres)
	}
	if record.CoverURL != "https://alpha.example/cover.jpg" {
		t.Fatalf("expected cover from alpha, got %q", record.CoverURL)
	}
	if len(record.Screenshots) != 1 {
		t.Fatalf("expected screenshots from beta, got %v", record.Screenshots)
	}
}

type localCache struct{}

func (localCache) Cache(ctx context.Context, url, gameID, kind string) (string, error) {
	return "/cache/" + gameID + "/" + kind, nil
}

type brokenCache struct{}

func (brokenCache) Cache(ctx context.Context, url, gameID, kind string) (string, error) {
	return "", errors.New("disk full")
}

func TestArtworkRunsThroughImageCache(t *testing.T) {
	provider := &stubProvider{
		name:          "alpha",
		searchResults: hit("alpha", "a1", "Portal"),
		art:           &providers.Artwork{CoverURL: "https://alpha.example/cover.jpg"},
	}

	scanned := scannedPortal()
	service := metadata.NewService([]providers.Provider{provider}, localCache{}, 0, logging.NewNop())
	record, err := service.Resolve(context.Background(), scanned)
	if err != nil {
		t.Fatalf("Resolve returned error: %v", err)
	}
	if record.CoverURL != "/cache/"+scanned.UUID+"/cover" {
		t.Fatalf("expected cached cover path, got %q", record.CoverURL)
	}
}

func TestCacheFailureKeepsOriginalURL(t *testing.T) {
	provider := &stubProvider{
		name:          "alpha",
		searchResults: hit("alpha", "a1", "Portal"),
		art:           &providers.Artwork{CoverURL: "https://alpha.example/cover.jpg"},
	}

	service := metadata.NewService([]providers.Provider{provider}, brokenCache{}, 0, logging.NewNop())
	record, err := service.Resolve(context.Background(), scannedPortal())
	if err != nil {
		t.Fatalf("Resolve returned error: %v", err)
	}
	if record.CoverURL != "https://alpha.example/cover.jpg" {
		t.Fatalf("expected original URL after cache failure, got %q", record.CoverURL)
	}
}
