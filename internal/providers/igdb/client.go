package igdb

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"ludex/internal/config"
	"ludex/internal/logging"
	"ludex/internal/providers"
	"ludex/internal/services"
)

type gamePayload struct {
	ID               int64             `json:"id"`
	Name             string            `json:"name"`
	Summary          string            `json:"summary"`
	FirstReleaseDate int64             `json:"first_release_date"`
	URL              string            `json:"url"`
	TotalRating      float64           `json:"total_rating"`
	Genres           []namedPayload    `json:"genres"`
	Companies        []involvedCompany `json:"involved_companies"`
}

type namedPayload struct {
	Name string `json:"name"`
}

type involvedCompany struct {
	Company   namedPayload `json:"company"`
	Developer bool         `json:"developer"`
	Publisher bool         `json:"publisher"`
}

type imagePayload struct {
	ImageID string `json:"image_id"`
}

// Client queries the IGDB catalog through its Apicalypse query endpoints.
// Authentication uses Twitch client credentials with a cached bearer token.
type Client struct {
	providers.Gate

	clientID     string
	clientSecret string
	baseURL      string
	tokenURL     string
	httpClient   *http.Client
	dispatcher   providers.Dispatcher
	logger       *slog.Logger
	now          func() time.Time

	tokenMu      sync.Mutex
	token        string
	tokenExpires time.Time
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

// New creates an IGDB client.
func New(clientID, clientSecret, baseURL, tokenURL string, dispatcher providers.Dispatcher, logger *slog.Logger, opts ...Option) (*Client, error) {
	clientID = strings.TrimSpace(clientID)
	clientSecret = strings.TrimSpace(clientSecret)
	if clientID == "" || clientSecret == "" {
		return nil, errors.New("igdb client credentials required")
	}
	baseURL = strings.TrimSpace(baseURL)
	if baseURL == "" {
		return nil, errors.New("igdb base url required")
	}
	tokenURL = strings.TrimSpace(tokenURL)
	if tokenURL == "" {
		return nil, errors.New("igdb token url required")
	}
	if dispatcher == nil {
		return nil, errors.New("igdb dispatcher required")
	}
	client := &Client{
		clientID:     clientID,
		clientSecret: clientSecret,
		baseURL:      strings.TrimRight(baseURL, "/"),
		tokenURL:     tokenURL,
		httpClient:   &http.Client{Timeout: 10 * time.Second},
		dispatcher:   dispatcher,
		logger:       logging.NewComponentLogger(logger, "igdb"),
		now:          time.Now,
	}
	for _, opt := range opts {
		opt(client)
	}
	return client, nil
}

// Name identifies the provider in priority lists and merge logs.
func (c *Client) Name() string {
	return config.ServiceIGDB
}

// Search queries IGDB for the supplied title.
func (c *Client) Search(ctx context.Context, title string, hint providers.Hint) ([]providers.SearchResult, error) {
	title = strings.TrimSpace(title)
	if title == "" {
		return nil, services.Wrap(services.ErrConfiguration, "igdb", "search", "title must not be empty", nil)
	}
	if !c.Available() {
		return nil, services.Wrap(services.ErrAuth, "igdb", "search", "provider disabled", nil)
	}

	body := fmt.Sprintf("search %q; fields id,name,first_release_date; limit 10;", title)
	var games []gamePayload
	if err := c.query(ctx, "/games", body, &games); err != nil {
		return nil, err
	}

	results := make([]providers.SearchResult, 0, len(games))
	for _, game := range games {
		results = append(results, providers.SearchResult{
			ID:          strconv.FormatInt(game.ID, 10),
			Title:       game.Name,
			ReleaseYear: yearOf(game.FirstReleaseDate),
			Provider:    config.ServiceIGDB,
		})
	}
	return results, nil
}

// Description fetches the full game record by IGDB id.
func (c *Client) Description(ctx context.Context, id string) (*providers.Description, error) {
	if !c.Available() {
		return nil, services.Wrap(services.ErrAuth, "igdb", "description", "provider disabled", nil)
	}
	numeric, err := numericID("igdb", id)
	if err != nil {
		return nil, err
	}

	body := fmt.Sprintf("fields name,summary,first_release_date,url,total_rating,genres.name,involved_companies.company.name,involved_companies.developer,involved_companies.publisher; where id = %d;", numeric)
	var games []gamePayload
	if err := c.query(ctx, "/games", body, &games); err != nil {
		return nil, err
	}
	if len(games) == 0 {
		return nil, services.Wrap(services.ErrNoMatch, "igdb", "description", "no game for id "+id, nil)
	}

	game := games[0]
	desc := &providers.Description{
		Summary:     game.Summary,
		ReleaseDate: dateOf(game.FirstReleaseDate),
		Website:     game.URL,
		Rating:      game.TotalRating,
	}
	for _, genre := range game.Genres {
		if genre.Name != "" {
			desc.Genres = append(desc.Genres, genre.Name)
		}
	}
	for _, company := range game.Companies {
		if company.Company.Name == "" {
			continue
		}
		if company.Developer {
			desc.Developers = append(desc.Developers, company.Company.Name)
		}
		if company.Publisher {
			desc.Publishers = append(desc.Publishers, company.Company.Name)
		}
	}
	return desc, nil
}

// Artwork fetches the cover and screenshots for an IGDB id.
func (c *Client) Artwork(ctx context.Context, id string, hint providers.Hint) (*providers.Artwork, error) {
	if !c.Available() {
		return nil, services.Wrap(services.ErrAuth, "igdb", "artwork", "provider disabled", nil)
	}
	numeric, err := numericID("igdb", id)
	if err != nil {
		return nil, err
	}

	var covers []imagePayload
	if err := c.query(ctx, "/covers", fmt.Sprintf("fields image_id; where game = %d;", numeric), &covers); err != nil {
		return nil, err
	}
	var shots []imagePayload
	if err := c.query(ctx, "/screenshots", fmt.Sprintf("fields image_id; where game = %d; limit 10;", numeric), &shots); err != nil {
		return nil, err
	}

	art := &providers.Artwork{}
	if len(covers) > 0 {
		art.CoverURL = imageURL(covers[0].ImageID, "cover_big")
	}
	for _, shot := range shots {
		if shot.ImageID == "" {
			continue
		}
		sized := imageURL(shot.ImageID, "screenshot_big")
		if art.HeroURL == "" {
			art.HeroURL = sized
		}
		art.Screenshots = append(art.Screenshots, sized)
	}
	return art, nil
}

// query posts an Apicalypse body to the given endpoint. Token acquisition
// happens inside the dispatched call so a refresh counts against the same
// service floor as the query itself.
func (c *Client) query(ctx context.Context, path, body string, out any) error {
	_, err := providers.Call(ctx, c.dispatcher, &c.Gate, config.ServiceIGDB, c.logger, func(ctx context.Context) (any, error) {
		token, err := c.ensureToken(ctx)
		if err != nil {
			return nil, err
		}

		req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, strings.NewReader(body))
		if err != nil {
			return nil, services.Wrap(services.ErrConfiguration, "igdb", "request", "build request", err)
		}
		req.Header.Set("Client-ID", c.clientID)
		req.Header.Set("Authorization", "Bearer "+token)
		req.Header.Set("Accept", "application/json")

		resp, err := c.httpClient.Do(req)
		if err != nil {
			return nil, services.Wrap(services.ErrTransient, "igdb", "request", "execute request", err)
		}
		defer resp.Body.Close()

		if err := providers.ClassifyStatus("igdb", resp.StatusCode); err != nil {
			return nil, err
		}
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			return nil, services.Wrap(services.ErrParse, "igdb", "request", "decode response", err)
		}
		return nil, nil
	})
	return err
}

func numericID(component, id string) (int64, error) {
	numeric, err := strconv.ParseInt(strings.TrimSpace(id), 10, 64)
	if err != nil {
		return 0, services.Wrap(services.ErrConfiguration, component, "request", "id must be numeric: "+id, nil)
	}
	return numeric, nil
}

// imageURL builds a sized IGDB image URL from an image id.
func imageURL(imageID, size string) string {
	if imageID == "" {
		return ""
	}
	return fmt.Sprintf("https://images.igdb.com/igdb/image/upload/t_%s/%s.jpg", size, imageID)
}

func yearOf(unix int64) int {
	if unix <= 0 {
		return 0
	}
	return time.Unix(unix, 0).UTC().Year()
}

func dateOf(unix int64) string {
	if unix <= 0 {
		return ""
	}
	return time.Unix(unix, 0).UTC().Format("2006-01-02")
}
