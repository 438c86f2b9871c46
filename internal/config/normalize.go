package config

import (
	"fmt"
	"strings"
)

func (c *Config) normalize() error {
	if err := c.normalizePaths(); err != nil {
		return err
	}
	if err := c.normalizeSources(); err != nil {
		return err
	}
	c.normalizeProviders()
	c.normalizeRateLimit()
	c.normalizeLogging()
	if c.Matching.AcceptThreshold == 0 {
		c.Matching.AcceptThreshold = DefaultAcceptThreshold
	}
	return nil
}

func (c *Config) normalizePaths() error {
	var err error
	if c.Paths.DataDir, err = expandPath(c.Paths.DataDir); err != nil {
		return fmt.Errorf("paths.data_dir: %w", err)
	}
	if c.Paths.ImageCache, err = expandPath(c.Paths.ImageCache); err != nil {
		return fmt.Errorf("paths.image_cache_dir: %w", err)
	}
	if c.Paths.LibraryPath, err = expandPath(c.Paths.LibraryPath); err != nil {
		return fmt.Errorf("paths.library_path: %w", err)
	}
	return nil
}

func (c *Config) normalizeSources() error {
	var err error
	if c.Sources.SteamRoot, err = expandPath(c.Sources.SteamRoot); err != nil {
		return fmt.Errorf("sources.steam_root: %w", err)
	}
	if c.Sources.EpicRoot, err = expandPath(c.Sources.EpicRoot); err != nil {
		return fmt.Errorf("sources.epic_root: %w", err)
	}
	if c.Sources.GOGRoot, err = expandPath(c.Sources.GOGRoot); err != nil {
		return fmt.Errorf("sources.gog_root: %w", err)
	}
	if c.Sources.AmazonRoot, err = expandPath(c.Sources.AmazonRoot); err != nil {
		return fmt.Errorf("sources.amazon_root: %w", err)
	}
	for i, dir := range c.Sources.CustomDirs {
		expanded, err := expandPath(dir)
		if err != nil {
			return fmt.Errorf("sources.custom_dirs[%d]: %w", i, err)
		}
		c.Sources.CustomDirs[i] = expanded
	}
	return nil
}

func (c *Config) normalizeProviders() {
	if len(c.Providers.Priority) == 0 {
		c.Providers.Priority = []string{ServiceRAWG, ServiceIGDB, ServiceSteamGrid, ServiceSteamStore}
	}
	if strings.TrimSpace(c.Providers.RAWG.BaseURL) == "" {
		c.Providers.RAWG.BaseURL = defaultRAWGBaseURL
	}
	if strings.TrimSpace(c.Providers.IGDB.BaseURL) == "" {
		c.Providers.IGDB.BaseURL = defaultIGDBBaseURL
	}
	if strings.TrimSpace(c.Providers.IGDB.TokenURL) == "" {
		c.Providers.IGDB.TokenURL = defaultIGDBTokenURL
	}
	if strings.TrimSpace(c.Providers.SteamGrid.BaseURL) == "" {
		c.Providers.SteamGrid.BaseURL = defaultSteamGridBaseURL
	}
	if strings.TrimSpace(c.Providers.SteamStore.BaseURL) == "" {
		c.Providers.SteamStore.BaseURL = defaultSteamStoreBaseURL
	}
}

func (c *Config) normalizeRateLimit() {
	if c.RateLimit.GlobalFloorMS == 0 {
		c.RateLimit.GlobalFloorMS = defaultGlobalFloorMS
	}
	if c.RateLimit.MaxInFlight == 0 {
		c.RateLimit.MaxInFlight = defaultMaxInFlight
	}
	defaults := defaultServiceIntervals()
	if c.RateLimit.ServiceIntervalsMS == nil {
		c.RateLimit.ServiceIntervalsMS = defaults
		return
	}
	for service, interval := range defaults {
		if _, ok := c.RateLimit.ServiceIntervalsMS[service]; !ok {
			c.RateLimit.ServiceIntervalsMS[service] = interval
		}
	}
}

func (c *Config) normalizeLogging() {
	if strings.TrimSpace(c.Logging.Format) == "" {
		c.Logging.Format = defaultLogFormat
	}
	if strings.TrimSpace(c.Logging.Level) == "" {
		c.Logging.Level = defaultLogLevel
	}
}
