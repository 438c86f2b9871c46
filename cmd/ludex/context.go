package main

import (
	"log/slog"
	"os"
	"strings"
	"sync"

	"ludex/internal/config"
	"ludex/internal/library"
	"ludex/internal/logging"
	"ludex/internal/metadata"
	"ludex/internal/providers"
	"ludex/internal/providers/igdb"
	"ludex/internal/providers/rawg"
	"ludex/internal/providers/steamgrid"
	"ludex/internal/providers/steamstore"
	"ludex/internal/ratelimit"
)

type commandContext struct {
	configFlag *string

	configOnce sync.Once
	config     *config.Config
	configErr  error

	loggerOnce sync.Once
	logger     *slog.Logger
	loggerErr  error
}

func newCommandContext(configFlag *string) *commandContext {
	return &commandContext{configFlag: configFlag}
}

func (c *commandContext) ensureConfig() (*config.Config, error) {
	c.configOnce.Do(func() {
		var path string
		if c.configFlag != nil {
			path = strings.TrimSpace(*c.configFlag)
		}
		cfg, _, _, err := config.Load(path)
		if err != nil {
			c.configErr = err
			return
		}
		if err := cfg.EnsureDirectories(); err != nil {
			c.configErr = err
			return
		}
		c.config = cfg
	})
	return c.config, c.configErr
}

func (c *commandContext) ensureLogger() (*slog.Logger, error) {
	c.loggerOnce.Do(func() {
		cfg, err := c.ensureConfig()
		if err != nil {
			c.loggerErr = err
			return
		}
		logger, err := logging.New(logging.Options{
			Level:  cfg.Logging.Level,
			Format: cfg.Logging.Format,
			Writer: os.Stderr,
		})
		if err != nil {
			c.loggerErr = err
			return
		}
		c.logger = logger
	})
	return c.logger, c.loggerErr
}

// openLibrary opens the configured library database. The caller owns Close.
func (c *commandContext) openLibrary() (*library.Store, error) {
	cfg, err := c.ensureConfig()
	if err != nil {
		return nil, err
	}
	return library.Open(cfg.Paths.LibraryPath)
}

// newCoordinator builds the rate-limit coordinator from config. The caller
// owns Stop.
func (c *commandContext) newCoordinator() (*ratelimit.Coordinator, error) {
	cfg, err := c.ensureConfig()
	if err != nil {
		return nil, err
	}
	logger, err := c.ensureLogger()
	if err != nil {
		return nil, err
	}
	return ratelimit.New(ratelimit.OptionsFromConfig(cfg), logger), nil
}

// buildProviders constructs every configured catalog client in priority
// order. Providers without credentials are skipped, not errors: a partial
// provider set still resolves games.
func (c *commandContext) buildProviders(dispatcher providers.Dispatcher) ([]providers.Provider, error) {
	cfg, err := c.ensureConfig()
	if err != nil {
		return nil, err
	}
	logger, err := c.ensureLogger()
	if err != nil {
		return nil, err
	}

	var out []providers.Provider
	for _, name := range cfg.Providers.Priority {
		switch name {
		case config.ServiceRAWG:
			if strings.TrimSpace(cfg.Providers.RAWG.APIKey) == "" {
				continue
			}
			client, err := rawg.New(cfg.Providers.RAWG.APIKey, cfg.Providers.RAWG.BaseURL, dispatcher, logger)
			if err != nil {
				return nil, err
			}
			out = append(out, client)
		case config.ServiceIGDB:
			if strings.TrimSpace(cfg.Providers.IGDB.ClientID) == "" || strings.TrimSpace(cfg.Providers.IGDB.ClientSecret) == "" {
				continue
			}
			client, err := igdb.New(cfg.Providers.IGDB.ClientID, cfg.Providers.IGDB.ClientSecret, cfg.Providers.IGDB.BaseURL, cfg.Providers.IGDB.TokenURL, dispatcher, logger)
			if err != nil {
				return nil, err
			}
			out = append(out, client)
		case config.ServiceSteamGrid:
			if strings.TrimSpace(cfg.Providers.SteamGrid.APIKey) == "" {
				continue
			}
			client, err := steamgrid.New(cfg.Providers.SteamGrid.APIKey, cfg.Providers.SteamGrid.BaseURL, dispatcher, logger)
			if err != nil {
				return nil, err
			}
			out = append(out, client)
		case config.ServiceSteamStore:
			if !cfg.Providers.SteamStore.Enabled {
				continue
			}
			client, err := steamstore.New(cfg.Providers.SteamStore.BaseURL, dispatcher, logger)
			if err != nil {
				return nil, err
			}
			out = append(out, client)
		}
	}
	return out, nil
}

// newMetadataService wires the orchestrator over the configured providers
// and the on-disk image cache.
func (c *commandContext) newMetadataService(dispatcher providers.Dispatcher) (*metadata.Service, error) {
	cfg, err := c.ensureConfig()
	if err != nil {
		return nil, err
	}
	logger, err := c.ensureLogger()
	if err != nil {
		return nil, err
	}
	provs, err := c.buildProviders(dispatcher)
	if err != nil {
		return nil, err
	}
	images := metadata.NewDiskCache(cfg.Paths.ImageCache, logger)
	return metadata.NewService(provs, images, cfg.Matching.AcceptThreshold, logger), nil
}
