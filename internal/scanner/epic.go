package scanner

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"ludex/internal/logging"
)

// epicManifest mirrors the launcher's flat JSON item format. Field shapes
// are third-party and may vary between launcher versions.
type epicManifest struct {
	AppName          string `json:"AppName"`
	DisplayName      string `json:"DisplayName"`
	InstallLocation  string `json:"InstallLocation"`
	LaunchExecutable string `json:"LaunchExecutable"`
	IsIncomplete     bool   `json:"bIsIncompleteInstall"`
}

// EpicScanner discovers installed titles from the launcher's .item manifest
// directory.
type EpicScanner struct {
	root   string
	logger *slog.Logger
}

// NewEpicScanner creates a scanner for the given manifest directory.
func NewEpicScanner(root string, logger *slog.Logger) *EpicScanner {
	return &EpicScanner{
		root:   root,
		logger: logging.NewComponentLogger(logger, "scanner.epic"),
	}
}

func (e *EpicScanner) Source() Source { return SourceEpic }

// Scan reads every .item manifest, validating required keys independently of
// parse success and skipping records whose install path no longer exists.
func (e *EpicScanner) Scan(ctx context.Context) ([]*ScannedGameResult, error) {
	entries, err := os.ReadDir(e.root)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) || errors.Is(err, fs.ErrPermission) || e.root == "" {
			return nil, nil
		}
		return nil, err
	}

	var results []*ScannedGameResult
	for _, entry := range entries {
		if ctx.Err() != nil {
			return results, ctx.Err()
		}
		if entry.IsDir() || !strings.EqualFold(filepath.Ext(entry.Name()), ".item") {
			continue
		}
		for _, manifest := range e.readManifests(filepath.Join(e.root, entry.Name())) {
			if result := e.toResult(manifest); result != nil {
				results = append(results, result)
			}
		}
	}
	return results, nil
}

// readManifests decodes one or more JSON records from a manifest file. The
// decoder loop handles both a single object and line-delimited records.
func (e *EpicScanner) readManifests(path string) []epicManifest {
	file, err := os.Open(path)
	if err != nil {
		return nil
	}
	defer file.Close()

	var manifests []epicManifest
	decoder := json.NewDecoder(file)
	for {
		var manifest epicManifest
		if err := decoder.Decode(&manifest); err != nil {
			if !errors.Is(err, io.EOF) {
				e.logger.Debug("skipping malformed manifest",
					logging.String("manifest", filepath.Base(path)),
					logging.Error(err))
			}
			break
		}
		manifests = append(manifests, manifest)
	}
	return manifests
}

func (e *EpicScanner) toResult(manifest epicManifest) *ScannedGameResult {
	installPath := strings.TrimSpace(manifest.InstallLocation)
	if installPath == "" {
		return nil
	}
	if manifest.IsIncomplete {
		return nil
	}
	if _, err := os.Stat(installPath); err != nil {
		// Stale manifest for an uninstalled or moved game.
		e.logger.Debug("skipping manifest with missing install path",
			logging.String("app", manifest.AppName),
			logging.String("path", installPath))
		return nil
	}

	name := strings.TrimSpace(manifest.DisplayName)
	if name == "" {
		name = DeriveTitle(filepath.Base(installPath))
	}
	if name == "" {
		return nil
	}

	result := NewResult(SourceEpic, name, name)
	result.AppID = strings.TrimSpace(manifest.AppName)
	result.InstallPath = installPath
	if exe := strings.TrimSpace(manifest.LaunchExecutable); exe != "" {
		result.ExePath = filepath.Join(installPath, filepath.FromSlash(exe))
	}
	result.Status = StatusReady
	return result
}
