package config

import (
	"errors"
	"fmt"
	"strings"
)

// Validate ensures the configuration is usable.
func (c *Config) Validate() error {
	if err := c.validatePaths(); err != nil {
		return err
	}
	if err := c.validateProviders(); err != nil {
		return err
	}
	if err := c.validateRateLimit(); err != nil {
		return err
	}
	if err := c.validateMatching(); err != nil {
		return err
	}
	return c.validateLogging()
}

func (c *Config) validatePaths() error {
	if strings.TrimSpace(c.Paths.LibraryPath) == "" {
		return errors.New("paths.library_path must be set")
	}
	return nil
}

func (c *Config) validateProviders() error {
	known := map[string]bool{
		ServiceRAWG:       true,
		ServiceIGDB:       true,
		ServiceSteamGrid:  true,
		ServiceSteamStore: true,
	}
	seen := map[string]bool{}
	for _, name := range c.Providers.Priority {
		if !known[name] {
			return fmt.Errorf("providers.priority: unknown provider %q", name)
		}
		if seen[name] {
			return fmt.Errorf("providers.priority: duplicate provider %q", name)
		}
		seen[name] = true
	}
	if (c.Providers.IGDB.ClientID == "") != (c.Providers.IGDB.ClientSecret == "") {
		return errors.New("providers.igdb: client_id and client_secret must be set together")
	}
	return nil
}

func (c *Config) validateRateLimit() error {
	if c.RateLimit.GlobalFloorMS < 0 {
		return errors.New("ratelimit.global_floor_ms must not be negative")
	}
	for service, interval := range c.RateLimit.ServiceIntervalsMS {
		if interval < 0 {
			return fmt.Errorf("ratelimit.service_intervals_ms[%s] must not be negative", service)
		}
	}
	if c.RateLimit.MaxInFlight < 1 {
		return errors.New("ratelimit.max_in_flight must be at least 1")
	}
	return nil
}

func (c *Config) validateMatching() error {
	if c.Matching.AcceptThreshold < 0 || c.Matching.AcceptThreshold > 1 {
		return errors.New("matching.accept_threshold must be between 0 and 1")
	}
	return nil
}

func (c *Config) validateLogging() error {
	switch strings.ToLower(strings.TrimSpace(c.Logging.Format)) {
	case "", "console", "json":
		return nil
	default:
		return fmt.Errorf("logging.format: unsupported value %q", c.Logging.Format)
	}
}
