package steamgrid

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"ludex/internal/config"
	"ludex/internal/logging"
	"ludex/internal/providers"
	"ludex/internal/services"
)

type searchResponse struct {
	Success bool `json:"success"`
	Data    []struct {
		ID          int64  `json:"id"`
		Name        string `json:"name"`
		ReleaseDate int64  `json:"release_date"`
	} `json:"data"`
}

type gridResponse struct {
	Success bool `json:"success"`
	Data    []struct {
		URL   string `json:"url"`
		Style string `json:"style"`
	} `json:"data"`
}

// Client queries SteamGridDB for artwork. The service carries no textual
// metadata, so Description always reports no contribution.
type Client struct {
	providers.Gate

	apiKey     string
	baseURL    string
	httpClient *http.Client
	dispatcher providers.Dispatcher
	logger     *slog.Logger
}

var _ providers.Provider = (*Client)(nil)

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient overrides the default HTTP client.
func WithHTTPClient(client *http.Client) Option {
	return func(c *Client) {
		if client != nil {
			c.httpClient = client
		}
	}
}

// New creates a SteamGridDB client.
func New(apiKey, baseURL string, dispatcher providers.Dispatcher, logger *slog.Logger, opts ...Option) (*Client, error) {
	apiKey = strings.TrimSpace(apiKey)
	if apiKey == "" {
		return nil, errors.New("steamgrid api key required")
	}
	baseURL = strings.TrimSpace(baseURL)
	if baseURL == "" {
		return nil, errors.New("steamgrid base url required")
	}
	if dispatcher == nil {
		return nil, errors.New("steamgrid dispatcher required")
	}
	client := &Client{
		apiKey:     apiKey,
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: 10 * time.Second},
		dispatcher: dispatcher,
		logger:     logging.NewComponentLogger(logger, "steamgrid"),
	}
	for _, opt := range opts {
		opt(client)
	}
	return client, nil
}

// Name identifies the provider in priority lists and merge logs.
func (c *Client) Name() string {
	return config.ServiceSteamGrid
}

// Search queries the autocomplete endpoint for the supplied title.
func (c *Client) Search(ctx context.Context, title string, hint providers.Hint) ([]providers.SearchResult, error) {
	title = strings.TrimSpace(title)
	if title == "" {
		return nil, services.Wrap(services.ErrConfiguration, "steamgrid", "search", "title must not be empty", nil)
	}
	if !c.Available() {
		return nil, services.Wrap(services.ErrAuth, "steamgrid", "search", "provider disabled", nil)
	}

	value, err := providers.Call(ctx, c.dispatcher, &c.Gate, config.ServiceSteamGrid, c.logger, func(ctx context.Context) (any, error) {
		var payload searchResponse
		if err := c.getJSON(ctx, "/search/autocomplete/"+url.PathEscape(title), &payload); err != nil {
			return nil, err
		}
		return &payload, nil
	})
	if err != nil {
		return nil, err
	}

	payload := value.(*searchResponse)
	results := make([]providers.SearchResult, 0, len(payload.Data))
	for _, entry := range payload.Data {
		year := 0
		if entry.ReleaseDate > 0 {
			year = time.Unix(entry.ReleaseDate, 0).UTC().Year()
		}
		results = append(results, providers.SearchResult{
			ID:          strconv.FormatInt(entry.ID, 10),
			Title:       entry.Name,
			ReleaseYear: year,
			Provider:    config.ServiceSteamGrid,
		})
	}
	return results, nil
}

// Description is not supported; SteamGridDB carries artwork only.
func (c *Client) Description(ctx context.Context, id string) (*providers.Description, error) {
	return nil, nil
}

// Artwork fetches grids for a SteamGridDB game id. The first grid serves as
// cover, the remainder as hero and screenshots.
func (c *Client) Artwork(ctx context.Context, id string, hint providers.Hint) (*providers.Artwork, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return nil, services.Wrap(services.ErrConfiguration, "steamgrid", "artwork", "id must not be empty", nil)
	}
	if !c.Available() {
		return nil, services.Wrap(services.ErrAuth, "steamgrid", "artwork", "provider disabled", nil)
	}

	value, err := providers.Call(ctx, c.dispatcher, &c.Gate, config.ServiceSteamGrid, c.logger, func(ctx context.Context) (any, error) {
		var payload gridResponse
		if err := c.getJSON(ctx, "/grids/game/"+url.PathEscape(id), &payload); err != nil {
			return nil, err
		}
		return &payload, nil
	})
	if err != nil {
		return nil, err
	}

	payload := value.(*gridResponse)
	art := &providers.Artwork{}
	for _, grid := range payload.Data {
		if grid.URL == "" {
			continue
		}
		switch {
		case art.CoverURL == "":
			art.CoverURL = grid.URL
		case art.HeroURL == "":
			art.HeroURL = grid.URL
		default:
			art.Screenshots = append(art.Screenshots, grid.URL)
		}
	}
	return art, nil
}

func (c *Client) getJSON(ctx context.Context, path string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return services.Wrap(services.ErrConfiguration, "steamgrid", "request", "build request", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.apiKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return services.Wrap(services.ErrTransient, "steamgrid", "request", "execute request", err)
	}
	defer resp.Body.Close()

	if err := providers.ClassifyStatus("steamgrid", resp.StatusCode); err != nil {
		return err
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return services.Wrap(services.ErrParse, "steamgrid", "request", "decode response", err)
	}
	return nil
}
