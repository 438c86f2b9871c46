package rawg_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"ludex/internal/logging"
	"ludex/internal/providers"
	"ludex/internal/providers/rawg"
	"ludex/internal/services"
)

type directDispatcher struct{}

func (directDispatcher) Do(ctx context.Context, service string, fn func(context.Context) (any, error)) (any, error) {
	return fn(ctx)
}

func TestNewRequiresAPIKey(t *testing.T) {
	if _, err := rawg.New("", "https://example.com", directDispatcher{}, logging.NewNop()); err == nil {
		t.Fatal("expected error when api key missing")
	}
}

func TestSearchParsesResults(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("key") != "key" {
			t.Fatalf("expected key query parameter, got %q", r.URL.RawQuery)
		}
		if r.URL.Query().Get("search") != "Hollow Knight" {
			t.Fatalf("unexpected search query: %q", r.URL.RawQuery)
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"results":[{"id":42,"name":"Hollow Knight","released":"2017-02-24"}]}`))
	}))
	t.Cleanup(server.Close)

	client, err := rawg.New("key", server.URL, directDispatcher{}, logging.NewNop())
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}

	results, err := client.Search(context.Background(), "Hollow Knight", providers.Hint{})
	if err != nil {
		t.Fatalf("Search returned error: %v", err)
	}
	if len(results) != 1 {
		t.Fatalf("expected one result, got %d", len(results))
	}
	if results[0].ID != "42" || results[0].Title != "Hollow Knight" || results[0].ReleaseYear != 2017 {
		t.Fatalf("unexpected result: %#v", results[0])
	}
}

func TestAuthFailureDisablesProvider(t *testing.T) {
	var requests atomic.Int64
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requests.Add(1)
		w.WriteHeader(http.StatusUnauthorized)
	}))
	t.Cleanup(server.Close)

	client, err := rawg.New("bad", server.URL, directDispatcher{}, logging.NewNop())
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}

	if _, err := client.Search(context.Background(), "Portal", providers.Hint{}); !services.IsAuth(err) {
		t.Fatalf("expected auth error, got %v", err)
	}
	if client.Available() {
		t.Fatal("expected provider to self-disable after 401")
	}
	if _, err := client.Search(context.Background(), "Portal", providers.Hint{}); !services.IsAuth(err) {
		t.Fatalf("expected auth error from disabled provider, got %v", err)
	}
	if got := requests.Load(); got != 1 {
		t.Fatalf("expected a single upstream request, got %d", got)
	}
}

func TestRateLimitNotRetried(t *testing.T) {
	var requests atomic.Int64
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requests.Add(1)
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	t.Cleanup(server.Close)

	client, err := rawg.New("key", server.URL, directDispatcher{}, logging.NewNop())
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}

	if _, err := client.Search(context.Background(), "Portal", providers.Hint{}); !services.IsRateLimited(err) {
		t.Fatalf("expected rate limit error, got %v", err)
	}
	if got := requests.Load(); got != 1 {
		t.Fatalf("429 must not be retried, got %d requests", got)
	}
	if !client.Available() {
		t.Fatal("rate limiting must not disable the provider")
	}
}

func TestDescriptionMapsFields(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/games/42" {
			t.Fatalf("unexpected path %q", r.URL.Path)
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{
			"id":42,"name":"Hollow Knight","released":"2017-02-24",
			"description_raw":"A bug knight descends.","website":"https://example.com",
			"rating":4.4,
			"genres":[{"name":"Metroidvania"}],
			"developers":[{"name":"Team Cherry"}],
			"publishers":[{"name":"Team Cherry"}]
		}`))
	}))
	t.Cleanup(server.Close)

	client, err := rawg.New("key", server.URL, directDispatcher{}, logging.NewNop())
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}

	desc, err := client.Description(context.Background(), "42")
	if err != nil {
		t.Fatalf("Description returned error: %v", err)
	}
	if desc.Summary != "A bug knight descends." {
		t.Fatalf("unexpected summary %q", desc.Summary)
	}
	if len(desc.Genres) != 1 || desc.Genres[0] != "Metroidvania" {
		t.Fatalf("unexpected genres %v", desc.Genres)
	}
	if desc.ReleaseDate != "2017-02-24" || desc.Rating != 4.4 {
		t.Fatalf("unexpected description: %#v", desc)
	}
}

func TestArtworkCollectsScreenshots(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		switch r.URL.Path {
		case "/games/42":
			_, _ = w.Write([]byte(`{"id":42,"name":"Hollow Knight","background_image":"https://img.example/bg.jpg"}`))
		case "/games/42/screenshots":
			_, _ = w.Write([]byte(`{"results":[{"image":"https://img.example/s1.jpg"},{"image":"https://img.example/s2.jpg"}]}`))
		default:
			t.Fatalf("unexpected path %q", r.URL.Path)
		}
	}))
	t.Cleanup(server.Close)

	client, err := rawg.New("key", server.URL, directDispatcher{}, logging.NewNop())
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}

	art, err := client.Artwork(context.Background(), "42", providers.Hint{})
	if err != nil {
		t.Fatalf("Artwork returned error: %v", err)
	}
	if art.CoverURL != "https://img.example/bg.jpg" {
		t.Fatalf("unexpected cover %q", art.CoverURL)
	}
	if len(art.Screenshots) != 2 {
		t.Fatalf("expected two screenshots, got %v", art.Screenshots)
	}
}

func TestSearchEmptyTitle(t *testing.T) {
	client, err := rawg.New("key", "https://example.com", directDispatcher{}, logging.NewNop())
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}
	if _, err := client.Search(context.Background(), "  ", providers.Hint{}); err == nil {
		t.Fatal("expected error for empty title")
	}
}
