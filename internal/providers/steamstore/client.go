package steamstore

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"ludex/internal/config"
	"ludex/internal/logging"
	"ludex/internal/providers"
	"ludex/internal/services"
)

type detailsEnvelope struct {
	Success bool           `json:"success"`
	Data    detailsPayload `json:"data"`
}

type detailsPayload struct {
	Name             string   `json:"name"`
	ShortDescription string   `json:"short_description"`
	HeaderImage      string   `json:"header_image"`
	Website          string   `json:"website"`
	Developers       []string `json:"developers"`
	Publishers       []string `json:"publishers"`
	Genres           []struct {
		Description string `json:"description"`
	} `json:"genres"`
	Screenshots []struct {
		PathFull string `json:"path_full"`
	} `json:"screenshots"`
	ReleaseDate struct {
		Date string `json:"date"`
	} `json:"release_date"`
	Metacritic struct {
		Score float64 `json:"score"`
	} `json:"metacritic"`
}

// Client queries the keyless Steam storefront appdetails endpoint. It can
// only resolve scans that carried a Steam app id; there is no title search.
// The storefront is the strictest upstream, so its service tag carries the
// most conservative dispatch floor.
type Client struct {
	providers.Gate

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

// New creates a Steam storefront client.
func New(baseURL string, dispatcher providers.Dispatcher, logger *slog.Logger, opts ...Option) (*Client, error) {
	baseURL = strings.TrimSpace(baseURL)
	if baseURL == "" {
		return nil, errors.New("steamstore base url required")
	}
	if dispatcher == nil {
		return nil, errors.New("steamstore dispatcher required")
	}
	client := &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: 10 * time.Second},
		dispatcher: dispatcher,
		logger:     logging.NewComponentLogger(logger, "steamstore"),
	}
	for _, opt := range opts {
		opt(client)
	}
	return client, nil
}

// Name identifies the provider in priority lists and merge logs.
func (c *Client) Name() string {
	return config.ServiceSteamStore
}

// Search resolves the hint's Steam app id against the storefront. Without an
// app id the storefront has nothing to offer and contributes no results.
func (c *Client) Search(ctx context.Context, title string, hint providers.Hint) ([]providers.SearchResult, error) {
	appID := strings.TrimSpace(hint.AppID)
	if appID == "" || hint.Source != "steam" {
		return nil, nil
	}
	if !c.Available() {
		return nil, services.Wrap(services.ErrAuth, "steamstore", "search", "provider disabled", nil)
	}

	details, err := c.fetch(ctx, appID)
	if err != nil {
		if errors.Is(err, services.ErrNoMatch) {
			return nil, nil
		}
		return nil, err
	}
	return []providers.SearchResult{{
		ID:          appID,
		Title:       details.Name,
		ReleaseYear: releaseYear(details.ReleaseDate.Date),
		Provider:    config.ServiceSteamStore,
	}}, nil
}

// Description fetches storefront details for a Steam app id.
func (c *Client) Description(ctx context.Context, id string) (*providers.Description, error) {
	if !c.Available() {
		return nil, services.Wrap(services.ErrAuth, "steamstore", "description", "provider disabled", nil)
	}
	details, err := c.fetch(ctx, id)
	if err != nil {
		return nil, err
	}
	desc := &providers.Description{
		Summary:     details.ShortDescription,
		Developers:  details.Developers,
		Publishers:  details.Publishers,
		ReleaseDate: details.ReleaseDate.Date,
		Website:     details.Website,
		Rating:      details.Metacritic.Score,
	}
	for _, genre := range details.Genres {
		if genre.Description != "" {
			desc.Genres = append(desc.Genres, genre.Description)
		}
	}
	return desc, nil
}

// Artwork fetches the header image and screenshots for a Steam app id.
func (c *Client) Artwork(ctx context.Context, id string, hint providers.Hint) (*providers.Artwork, error) {
	if !c.Available() {
		return nil, services.Wrap(services.ErrAuth, "steamstore", "artwork", "provider disabled", nil)
	}
	details, err := c.fetch(ctx, id)
	if err != nil {
		return nil, err
	}
	art := &providers.Artwork{
		CoverURL: details.HeaderImage,
		HeroURL:  details.HeaderImage,
	}
	for _, shot := range details.Screenshots {
		if shot.PathFull != "" {
			art.Screenshots = append(art.Screenshots, shot.PathFull)
		}
	}
	return art, nil
}

func (c *Client) fetch(ctx context.Context, appID string) (*detailsPayload, error) {
	appID = strings.TrimSpace(appID)
	if appID == "" {
		return nil, services.Wrap(services.ErrConfiguration, "steamstore", "appdetails", "app id must not be empty", nil)
	}

	value, err := providers.Call(ctx, c.dispatcher, &c.Gate, config.ServiceSteamStore, c.logger, func(ctx context.Context) (any, error) {
		endpoint := c.baseURL + "/appdetails?" + url.Values{"appids": {appID}}.Encode()
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
		if err != nil {
			return nil, services.Wrap(services.ErrConfiguration, "steamstore", "appdetails", "build request", err)
		}

		resp, err := c.httpClient.Do(req)
		if err != nil {
			return nil, services.Wrap(services.ErrTransient, "steamstore", "appdetails", "execute request", err)
		}
		defer resp.Body.Close()

		if err := providers.ClassifyStatus("steamstore", resp.StatusCode); err != nil {
			return nil, err
		}
		var payload map[string]detailsEnvelope
		if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
			return nil, services.Wrap(services.ErrParse, "steamstore", "appdetails", "decode response", err)
		}
		return payload, nil
	})
	if err != nil {
		return nil, err
	}

	payload := value.(map[string]detailsEnvelope)
	envelope, ok := payload[appID]
	if !ok || !envelope.Success {
		return nil, services.Wrap(services.ErrNoMatch, "steamstore", "appdetails", "no details for app "+appID, nil)
	}
	return &envelope.Data, nil
}

// releaseYear extracts the trailing year from a storefront release date
// ("10 Oct, 2007").
func releaseYear(date string) int {
	fields := strings.Fields(date)
	if len(fields) == 0 {
		return 0
	}
	year := fields[len(fields)-1]
	if len(year) != 4 {
		return 0
	}
	parsed := 0
	for _, r := range year {
		if r < '0' || r > '9' {
			return 0
		}
		parsed = parsed*10 + int(r-'0')
	}
	return parsed
}
