package config

import (
	_ "embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/pelletier/go-toml/v2"
)

//go:embed sample_config.toml
var sampleConfig string

// Paths contains directory configuration.
type Paths struct {
	DataDir     string `toml:"data_dir"`
	ImageCache  string `toml:"image_cache_dir"`
	LibraryPath string `toml:"library_path"`
}

// Sources configures the per-launcher scan roots. A missing root is a
// configuration state, not an error: the scanner contributes an empty list.
type Sources struct {
	SteamEnabled  bool     `toml:"steam_enabled"`
	SteamRoot     string   `toml:"steam_root"`
	EpicEnabled   bool     `toml:"epic_enabled"`
	EpicRoot      string   `toml:"epic_root"`
	GOGEnabled    bool     `toml:"gog_enabled"`
	GOGRoot       string   `toml:"gog_root"`
	AmazonEnabled bool     `toml:"amazon_enabled"`
	AmazonRoot    string   `toml:"amazon_root"`
	CustomDirs    []string `toml:"custom_dirs"`
}

// RAWG contains credentials for the RAWG video game database.
type RAWG struct {
	APIKey  string `toml:"api_key"`
	BaseURL string `toml:"base_url"`
}

// IGDB contains Twitch client credentials for the IGDB catalog.
type IGDB struct {
	ClientID     string `toml:"client_id"`
	ClientSecret string `toml:"client_secret"`
	BaseURL      string `toml:"base_url"`
	TokenURL     string `toml:"token_url"`
}

// SteamGrid contains credentials for SteamGridDB artwork lookups.
type SteamGrid struct {
	APIKey  string `toml:"api_key"`
	BaseURL string `toml:"base_url"`
}

// SteamStore configures the keyless Steam storefront details endpoint.
type SteamStore struct {
	Enabled bool   `toml:"enabled"`
	BaseURL string `toml:"base_url"`
}

// Providers groups external catalog configuration and the priority order the
// orchestrator consults them in.
type Providers struct {
	Priority   []string   `toml:"priority"`
	RAWG       RAWG       `toml:"rawg"`
	IGDB       IGDB       `toml:"igdb"`
	SteamGrid  SteamGrid  `toml:"steamgrid"`
	SteamStore SteamStore `toml:"steamstore"`
}

// RateLimit configures the admission-control coordinator. Intervals are in
// milliseconds; the global floor applies to every dispatch regardless of
// service.
type RateLimit struct {
	GlobalFloorMS      int            `toml:"global_floor_ms"`
	ServiceIntervalsMS map[string]int `toml:"service_intervals_ms"`
	MaxInFlight        int            `toml:"max_in_flight"`
}

// Matching configures match acceptance. Scoring weights are a fixed contract
// and intentionally not configurable.
type Matching struct {
	AcceptThreshold float64 `toml:"accept_threshold"`
}

// Logging contains configuration for log output.
type Logging struct {
	Format string `toml:"format"`
	Level  string `toml:"level"`
}

// Config encapsulates all configuration values for ludex.
//
// Sections by subsystem:
//   - Paths: data directory, image cache, library database
//   - Sources: per-launcher scan roots and enable flags
//   - Providers: external catalog credentials and priority order
//   - RateLimit: coordinator dispatch floors
//   - Matching: acceptance threshold
//   - Logging: log format and level
type Config struct {
	Paths     Paths     `toml:"paths"`
	Sources   Sources   `toml:"sources"`
	Providers Providers `toml:"providers"`
	RateLimit RateLimit `toml:"ratelimit"`
	Matching  Matching  `toml:"matching"`
	Logging   Logging   `toml:"logging"`
}

// DefaultConfigPath returns the absolute path to the default configuration
// file location.
func DefaultConfigPath() (string, error) {
	return expandPath("~/.config/ludex/config.toml")
}

// Load locates, parses, and validates a configuration file. The returned
// config has all path fields expanded and normalized.
func Load(path string) (*Config, string, bool, error) {
	cfg := Default()

	resolvedPath, exists, err := resolveConfigPath(path)
	if err != nil {
		return nil, "", false, err
	}

	if exists {
		file, err := os.Open(resolvedPath)
		if err != nil {
			return nil, "", false, fmt.Errorf("open config: %w", err)
		}
		defer file.Close()

		decoder := toml.NewDecoder(file)
		if err := decoder.Decode(&cfg); err != nil {
			return nil, "", false, fmt.Errorf("parse config: %w", err)
		}
	}

	if err := cfg.normalize(); err != nil {
		return nil, "", false, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, "", false, err
	}

	return &cfg, resolvedPath, exists, nil
}

func resolveConfigPath(path string) (string, bool, error) {
	if path != "" {
		expanded, err := expandPath(path)
		if err != nil {
			return "", false, err
		}
		_, err = os.Stat(expanded)
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return expanded, false, nil
			}
			return "", false, fmt.Errorf("stat config: %w", err)
		}
		return expanded, true, nil
	}

	defaultPath, err := DefaultConfigPath()
	if err != nil {
		return "", false, err
	}

	projectPath, err := filepath.Abs("ludex.toml")
	if err != nil {
		return "", false, err
	}

	if info, err := os.Stat(defaultPath); err == nil && !info.IsDir() {
		return defaultPath, true, nil
	}
	if info, err := os.Stat(projectPath); err == nil && !info.IsDir() {
		return projectPath, true, nil
	}

	return defaultPath, false, nil
}

// EnsureDirectories creates required directories for operation.
func (c *Config) EnsureDirectories() error {
	for _, dir := range []string{c.Paths.DataDir, c.Paths.ImageCache} {
		if strings.TrimSpace(dir) == "" {
			continue
		}
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create directory %q: %w", dir, err)
		}
	}
	return nil
}

func expandPath(pathValue string) (string, error) {
	if pathValue == "" {
		return pathValue, nil
	}
	if strings.HasPrefix(pathValue, "~") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home directory: %w", err)
		}
		if pathValue == "~" {
			pathValue = home
		} else if len(pathValue) > 1 && (pathValue[1] == '/' || pathValue[1] == '\\') {
			pathValue = filepath.Join(home, pathValue[2:])
		}
	}
	cleaned := filepath.Clean(pathValue)
	absolute, err := filepath.Abs(cleaned)
	if err != nil {
		return "", fmt.Errorf("resolve absolute path for %q: %w", cleaned, err)
	}
	return absolute, nil
}

// ExpandPath exposes the repository path expansion rules for other packages.
func ExpandPath(pathValue string) (string, error) {
	return expandPath(pathValue)
}

// CreateSample writes a sample configuration file to the specified location.
func CreateSample(path string) error {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create config directory: %w", err)
		}
	}
	if err := os.WriteFile(path, []byte(sampleConfig), 0o644); err != nil {
		return fmt.Errorf("write sample config: %w", err)
	}
	return nil
}
