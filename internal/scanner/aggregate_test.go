package scanner_test

import (
	"context"
	"errors"
	"testing"

	"ludex/internal/config"
	"ludex/internal/logging"
	"ludex/internal/scanner"
)

type stubScanner struct {
	source  scanner.Source
	results []*scanner.ScannedGameResult
	err     error
}

func (s stubScanner) Source() scanner.Source { return s.source }

func (s stubScanner) Scan(context.Context) ([]*scanner.ScannedGameResult, error) {
	return s.results, s.err
}

func TestAllConcatenatesInScannerOrder(t *testing.T) {
	first := scanner.NewResult(scanner.SourceSteam, "A", "A")
	second := scanner.NewResult(scanner.SourceGOG, "B", "B")

	combined := scanner.All(context.Background(), []scanner.Scanner{
		stubScanner{source: scanner.SourceSteam, results: []*scanner.ScannedGameResult{first}},
		stubScanner{source: scanner.SourceGOG, results: []*scanner.ScannedGameResult{second}},
	}, logging.NewNop())

	if len(combined) != 2 {
		t.Fatalf("expected 2 results, got %d", len(combined))
	}
	if combined[0].UUID != first.UUID || combined[1].UUID != second.UUID {
		t.Fatal("expected scanner-order concatenation")
	}
}

func TestAllIsolatesFailingScanner(t *testing.T) {
	ok := scanner.NewResult(scanner.SourceEpic, "Fine", "Fine")

	combined := scanner.All(context.Background(), []scanner.Scanner{
		stubScanner{source: scanner.SourceSteam, err: errors.New("disk on fire")},
		stubScanner{source: scanner.SourceEpic, results: []*scanner.ScannedGameResult{ok}},
	}, logging.NewNop())

	if len(combined) != 1 || combined[0].UUID != ok.UUID {
		t.Fatalf("expected surviving scanner output only, got %#v", combined)
	}
}

func TestFromConfigSkipsDisabledAndRootlessSources(t *testing.T) {
	cfg := config.Default()
	cfg.Sources.SteamEnabled = true
	cfg.Sources.SteamRoot = "" // enabled but unconfigured
	cfg.Sources.EpicEnabled = false
	cfg.Sources.EpicRoot = "/tmp/epic"
	cfg.Sources.GOGEnabled = true
	cfg.Sources.GOGRoot = "/tmp/gog"
	cfg.Sources.AmazonEnabled = false
	cfg.Sources.CustomDirs = []string{"/tmp/shelf"}

	scanners := scanner.FromConfig(&cfg, logging.NewNop())
	if len(scanners) != 2 {
		t.Fatalf("expected gog + custom scanners, got %d", len(scanners))
	}
	if scanners[0].Source() != scanner.SourceGOG || scanners[1].Source() != scanner.SourceCustom {
		t.Fatalf("unexpected scanner set: %v, %v", scanners[0].Source(), scanners[1].Source())
	}
}
