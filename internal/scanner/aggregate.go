package scanner

import (
	"context"
	"log/slog"
	"sync"

	"ludex/internal/config"
	"ludex/internal/logging"
)

// A Scanner discovers installed titles for one launcher family. Scans are
// independent: no scanner consumes another's output.
type Scanner interface {
	Source() Source
	Scan(ctx context.Context) ([]*ScannedGameResult, error)
}

// FromConfig builds the enabled scanners for the configured sources.
func FromConfig(cfg *config.Config, logger *slog.Logger) []Scanner {
	var scanners []Scanner
	if cfg.Sources.SteamEnabled && cfg.Sources.SteamRoot != "" {
		scanners = append(scanners, NewSteamScanner(cfg.Sources.SteamRoot, logger))
	}
	if cfg.Sources.EpicEnabled && cfg.Sources.EpicRoot != "" {
		scanners = append(scanners, NewEpicScanner(cfg.Sources.EpicRoot, logger))
	}
	if cfg.Sources.GOGEnabled && cfg.Sources.GOGRoot != "" {
		scanners = append(scanners, NewGOGScanner(cfg.Sources.GOGRoot, logger))
	}
	if cfg.Sources.AmazonEnabled && cfg.Sources.AmazonRoot != "" {
		scanners = append(scanners, NewAmazonScanner(cfg.Sources.AmazonRoot, logger))
	}
	for _, dir := range cfg.Sources.CustomDirs {
		scanners = append(scanners, NewCustomScanner(dir, logger))
	}
	return scanners
}

// All runs every scanner concurrently and concatenates their results in
// scanner order. A failing scanner logs and contributes nothing; it never
// aborts its siblings.
func All(ctx context.Context, scanners []Scanner, logger *slog.Logger) []*ScannedGameResult {
	logger = logging.NewComponentLogger(logger, "scanner")

	perScanner := make([][]*ScannedGameResult, len(scanners))
	var wg sync.WaitGroup
	for i, s := range scanners {
		wg.Add(1)
		go func(i int, s Scanner) {
			defer wg.Done()
			results, err := s.Scan(ctx)
			if err != nil {
				logger.Warn("source scan failed",
					logging.String("source", string(s.Source())),
					logging.Error(err))
				return
			}
			perScanner[i] = results
		}(i, s)
	}
	wg.Wait()

	var combined []*ScannedGameResult
	for i, results := range perScanner {
		combined = append(combined, results...)
		logger.Debug("source scan finished",
			logging.String("source", string(scanners[i].Source())),
			logging.Int("games", len(results)))
	}
	logger.Info("scan complete",
		logging.Int("sources", len(scanners)),
		logging.Int("games", len(combined)))
	return combined
}
