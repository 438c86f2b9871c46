package igdb

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"ludex/internal/services"
)

// tokenSafetyMargin forces a refresh before the upstream expiry so a token
// cannot lapse mid-request.
const tokenSafetyMargin = 60 * time.Second

type tokenResponse struct {
	AccessToken string `json:"access_token"`
	ExpiresIn   int64  `json:"expires_in"`
}

// ensureToken returns a cached Twitch access token, fetching a fresh one
// when the cache is empty or within the safety margin of expiry.
func (c *Client) ensureToken(ctx context.Context) (string, error) {
	c.tokenMu.Lock()
	defer c.tokenMu.Unlock()

	if c.token != "" && c.now().Add(tokenSafetyMargin).Before(c.tokenExpires) {
		return c.token, nil
	}

	endpoint, err := url.Parse(c.tokenURL)
	if err != nil {
		return "", services.Wrap(services.ErrConfiguration, "igdb", "token", "parse token url", err)
	}
	params := url.Values{}
	params.Set("client_id", c.clientID)
	params.Set("client_secret", c.clientSecret)
	params.Set("grant_type", "client_credentials")
	endpoint.RawQuery = params.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint.String(), nil)
	if err != nil {
		return "", services.Wrap(services.ErrConfiguration, "igdb", "token", "build request", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", services.Wrap(services.ErrTransient, "igdb", "token", "execute request", err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusOK:
	case resp.StatusCode == http.StatusBadRequest || resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden:
		// Twitch reports bad client credentials as 400 "invalid client".
		return "", services.Wrap(services.ErrAuth, "igdb", "token", fmt.Sprintf("credentials rejected (status %d)", resp.StatusCode), nil)
	case resp.StatusCode >= 500:
		return "", services.Wrap(services.ErrTransient, "igdb", "token", fmt.Sprintf("status %d", resp.StatusCode), nil)
	default:
		return "", services.Wrap(services.ErrParse, "igdb", "token", fmt.Sprintf("unexpected status %d", resp.StatusCode), nil)
	}

	var payload tokenResponse
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return "", services.Wrap(services.ErrParse, "igdb", "token", "decode response", err)
	}
	if payload.AccessToken == "" {
		return "", services.Wrap(services.ErrAuth, "igdb", "token", "empty access token", nil)
	}

	c.token = payload.AccessToken
	c.tokenExpires = c.now().Add(time.Duration(payload.ExpiresIn) * time.Second)
	return c.token, nil
}
