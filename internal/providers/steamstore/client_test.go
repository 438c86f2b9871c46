package steamstore_test

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"ludex/internal/logging"
	"ludex/internal/providers"
	"ludex/internal/providers/steamstore"
	"ludex/internal/services"
)

type directDispatcher struct{}

func (directDispatcher) Do(ctx context.Context, service string, fn func(context.Context) (any, error)) (any, error) {
	return fn(ctx)
}

const portalDetails = `{"400":{"success":true,"data":{
	"name":"Portal",
	"short_description":"A test chamber puzzler.",
	"header_image":"https://cdn.example/400/header.jpg",
	"website":"https://example.com",
	"developers":["Valve"],
	"publishers":["Valve"],
	"genres":[{"description":"Puzzle"}],
	"screenshots":[{"path_full":"https://cdn.example/400/s1.jpg"}],
	"release_date":{"date":"10 Oct, 2007"},
	"metacritic":{"score":90}
}}}`

func TestSearchWithoutAppIDContributesNothing(t *testing.T) {
	var requests atomic.Int64
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requests.Add(1)
	}))
	t.Cleanup(server.Close)

	client, err := steamstore.New(server.URL, directDispatcher{}, logging.NewNop())
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}

	results, err := client.Search(context.Background(), "Portal", providers.Hint{Source: "gog"})
	if err != nil {
		t.Fatalf("Search returned error: %v", err)
	}
	if results != nil {
		t.Fatalf("expected no results without a steam app id, got %#v", results)
	}
	if requests.Load() != 0 {
		t.Fatal("search without an app id must not reach the network")
	}
}

func TestSearchResolvesAppID(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("appids") != "400" {
			t.Fatalf("unexpected query %q", r.URL.RawQuery)
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(portalDetails))
	}))
	t.Cleanup(server.Close)

	client, err := steamstore.New(server.URL, directDispatcher{}, logging.NewNop())
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}

	results, err := client.Search(context.Background(), "Portal", providers.Hint{Source: "steam", AppID: "400"})
	if err != nil {
		t.Fatalf("Search returned error: %v", err)
	}
	if len(results) != 1 {
		t.Fatalf("expected one result, got %d", len(results))
	}
	if results[0].ID != "400" || results[0].Title != "Portal" || results[0].ReleaseYear != 2007 {
		t.Fatalf("unexpected result: %#v", results[0])
	}
}

func TestDescriptionMapsFields(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(portalDetails))
	}))
	t.Cleanup(server.Close)

	client, err := steamstore.New(server.URL, directDispatcher{}, logging.NewNop())
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}

	desc, err := client.Description(context.Background(), "400")
	if err != nil {
		t.Fatalf("Description returned error: %v", err)
	}
	if desc.Summary != "A test chamber puzzler." || desc.ReleaseDate != "10 Oct, 2007" {
		t.Fatalf("unexpected description: %#v", desc)
	}
	if len(desc.Genres) != 1 || desc.Genres[0] != "Puzzle" {
		t.Fatalf("unexpected genres %v", desc.Genres)
	}
	if desc.Rating != 90 {
		t.Fatalf("unexpected rating %v", desc.Rating)
	}
}

func TestArtworkUsesHeaderImage(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(portalDetails))
	}))
	t.Cleanup(server.Close)

	client, err := steamstore.New(server.URL, directDispatcher{}, logging.NewNop())
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}

	art, err := client.Artwork(context.Background(), "400", providers.Hint{})
	if err != nil {
		t.Fatalf("Artwork returned error: %v", err)
	}
	if art.CoverURL != "https://cdn.example/400/header.jpg" {
		t.Fatalf("unexpected cover %q", art.CoverURL)
	}
	if len(art.Screenshots) != 1 {
		t.Fatalf("unexpected screenshots %v", art.Screenshots)
	}
}

func TestUnknownAppReportsNoMatch(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"999":{"success":false}}`))
	}))
	t.Cleanup(server.Close)

	client, err := steamstore.New(server.URL, directDispatcher{}, logging.NewNop())
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}

	if _, err := client.Description(context.Background(), "999"); !errors.Is(err, services.ErrNoMatch) {
		t.Fatalf("expected no-match error, got %v", err)
	}

	// Search swallows the miss; an unknown app is not a failure.
	results, err := client.Search(context.Background(), "Unknown", providers.Hint{Source: "steam", AppID: "999"})
	if err != nil {
		t.Fatalf("Search returned error: %v", err)
	}
	if results != nil {
		t.Fatalf("expected no results, got %#v", results)
	}
}
