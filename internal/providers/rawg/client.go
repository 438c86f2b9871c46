package rawg

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
	Results []gamePayload `json:"results"`
}

type gamePayload struct {
	ID              int64          `json:"id"`
	Name            string         `json:"name"`
	Released        string         `json:"released"`
	DescriptionRaw  string         `json:"description_raw"`
	BackgroundImage string         `json:"background_image"`
	Website         string         `json:"website"`
	Rating          float64        `json:"rating"`
	Genres          []namedPayload `json:"genres"`
	Developers      []namedPayload `json:"developers"`
	Publishers      []namedPayload `json:"publishers"`
}

type namedPayload struct {
	Name string `json:"name"`
}

type screenshotResponse struct {
	Results []struct {
		Image string `json:"image"`
	} `json:"results"`
}

// Client queries the RAWG video game database. The API key travels as a
// query parameter on every request.
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

// New creates a RAWG client.
func New(apiKey, baseURL string, dispatcher providers.Dispatcher, logger *slog.Logger, opts ...Option) (*Client, error) {
	apiKey = strings.TrimSpace(apiKey)
	if apiKey == "" {
		return nil, errors.New("rawg api key required")
	}
	baseURL = strings.TrimSpace(baseURL)
	if baseURL == "" {
		return nil, errors.New("rawg base url required")
	}
	if dispatcher == nil {
		return nil, errors.New("rawg dispatcher required")
	}
	client := &Client{
		apiKey:     apiKey,
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: 10 * time.Second},
		dispatcher: dispatcher,
		logger:     logging.NewComponentLogger(logger, "rawg"),
	}
	for _, opt := range opts {
		opt(client)
	}
	return client, nil
}

// Name identifies the provider in priority lists and merge logs.
func (c *Client) Name() string {
	return config.ServiceRAWG
}

// Search queries RAWG for the supplied title.
func (c *Client) Search(ctx context.Context, title string, hint providers.Hint) ([]providers.SearchResult, error) {
	title = strings.TrimSpace(title)
	if title == "" {
		return nil, services.Wrap(services.ErrConfiguration, "rawg", "search", "title must not be empty", nil)
	}
	if !c.Available() {
		return nil, services.Wrap(services.ErrAuth, "rawg", "search", "provider disabled", nil)
	}

	value, err := providers.Call(ctx, c.dispatcher, &c.Gate, config.ServiceRAWG, c.logger, func(ctx context.Context) (any, error) {
		params := url.Values{}
		params.Set("search", title)
		params.Set("page_size", "10")
		var payload searchResponse
		if err := c.getJSON(ctx, "/games", params, &payload); err != nil {
			return nil, err
		}
		return &payload, nil
	})
	if err != nil {
		return nil, err
	}

	payload := value.(*searchResponse)
	results := make([]providers.SearchResult, 0, len(payload.Results))
	for _, game := range payload.Results {
		results = append(results, providers.SearchResult{
			ID:          strconv.FormatInt(game.ID, 10),
			Title:       game.Name,
			ReleaseYear: releaseYear(game.Released),
			Provider:    config.ServiceRAWG,
		})
	}
	return results, nil
}

// Description fetches the full game record by RAWG id.
func (c *Client) Description(ctx context.Context, id string) (*providers.Description, error) {
	if !c.Available() {
		return nil, services.Wrap(services.ErrAuth, "rawg", "description", "provider disabled", nil)
	}
	game, err := c.details(ctx, id)
	if err != nil {
		return nil, err
	}
	return &providers.Description{
		Summary:     game.DescriptionRaw,
		Genres:      names(game.Genres),
		Developers:  names(game.Developers),
		Publishers:  names(game.Publishers),
		ReleaseDate: game.Released,
		Website:     game.Website,
		Rating:      game.Rating,
	}, nil
}

// Artwork fetches the background image and screenshots for a RAWG id.
func (c *Client) Artwork(ctx context.Context, id string, hint providers.Hint) (*providers.Artwork, error) {
	if !c.Available() {
		return nil, services.Wrap(services.ErrAuth, "rawg", "artwork", "provider disabled", nil)
	}
	game, err := c.details(ctx, id)
	if err != nil {
		return nil, err
	}

	value, err := providers.Call(ctx, c.dispatcher, &c.Gate, config.ServiceRAWG, c.logger, func(ctx context.Context) (any, error) {
		var payload screenshotResponse
		if err := c.getJSON(ctx, "/games/"+url.PathEscape(id)+"/screenshots", url.Values{}, &payload); err != nil {
			return nil, err
		}
		return &payload, nil
	})
	if err != nil {
		return nil, err
	}

	shots := value.(*screenshotResponse)
	art := &providers.Artwork{
		CoverURL: game.BackgroundImage,
		HeroURL:  game.BackgroundImage,
	}
	for _, shot := range shots.Results {
		if shot.Image != "" {
			art.Screenshots = append(art.Screenshots, shot.Image)
		}
	}
	return art, nil
}

func (c *Client) details(ctx context.Context, id string) (*gamePayload, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return nil, services.Wrap(services.ErrConfiguration, "rawg", "details", "id must not be empty", nil)
	}
	value, err := providers.Call(ctx, c.dispatcher, &c.Gate, config.ServiceRAWG, c.logger, func(ctx context.Context) (any, error) {
		var payload gamePayload
		if err := c.getJSON(ctx, "/games/"+url.PathEscape(id), url.Values{}, &payload); err != nil {
			return nil, err
		}
		return &payload, nil
	})
	if err != nil {
		return nil, err
	}
	return value.(*gamePayload), nil
}

func (c *Client) getJSON(ctx context.Context, path string, params url.Values, out any) error {
	endpoint, err := url.Parse(c.baseURL + path)
	if err != nil {
		return services.Wrap(services.ErrConfiguration, "rawg", "request", "parse url", err)
	}
	params.Set("key", c.apiKey)
	endpoint.RawQuery = params.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint.String(), nil)
	if err != nil {
		return services.Wrap(services.ErrConfiguration, "rawg", "request", "build request", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return services.Wrap(services.ErrTransient, "rawg", "request", "execute request", err)
	}
	defer resp.Body.Close()

	if err := providers.ClassifyStatus("rawg", resp.StatusCode); err != nil {
		return err
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return services.Wrap(services.ErrParse, "rawg", "request", "decode response", err)
	}
	return nil
}

func names(entries []namedPayload) []string {
	if len(entries) == 0 {
		return nil
	}
	out := make([]string, 0, len(entries))
	for _, entry := range entries {
		if entry.Name != "" {
			out = append(out, entry.Name)
		}
	}
	return out
}

// releaseYear extracts the year from a RAWG release date ("2007-10-10").
func releaseYear(released string) int {
	if len(released) < 4 {
		return 0
	}
	year, err := strconv.Atoi(released[:4])
	if err != nil {
		return 0
	}
	return year
}
