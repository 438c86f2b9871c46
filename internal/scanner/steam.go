package scanner

import (
	"context"
	"errors"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"

	"ludex/internal/logging"
	"ludex/internal/vdf"
)

// Steam installation-state bits packed into the manifest's StateFlags field.
const (
	steamStateUpdateRequired = 1 << 1
	steamStateFullyInstalled = 1 << 2
	steamStateFilesMissing   = 1 << 5
	steamStateFilesCorrupt   = 1 << 7
	steamStateUpdateRunning  = 1 << 8
	steamStateUninstalling   = 1 << 11
)

const steamStateBlocked = steamStateUpdateRequired | steamStateFilesMissing |
	steamStateFilesCorrupt | steamStateUpdateRunning | steamStateUninstalling

// Non-game utility app ids that always accompany real installs.
var steamAppDenylist = map[string]bool{
	"228980":  true, // Steamworks Common Redistributables
	"1070560": true, // Steam Linux Runtime
	"1391110": true, // Steam Linux Runtime - Soldier
	"1628350": true, // Steam Linux Runtime - Sniper
	"1493710": true, // Proton Experimental
	"2348590": true, // Proton Hotfix
}

var steamManifestPattern = regexp.MustCompile(`^appmanifest_(\d+)\.acf$`)

// SteamScanner discovers installed titles from appmanifest files in a
// steamapps directory.
type SteamScanner struct {
	root   string
	logger *slog.Logger
}

// NewSteamScanner creates a scanner for the given steamapps root.
func NewSteamScanner(root string, logger *slog.Logger) *SteamScanner {
	return &SteamScanner{
		root:   root,
		logger: logging.NewComponentLogger(logger, "scanner.steam"),
	}
}

func (s *SteamScanner) Source() Source { return SourceSteam }

// Scan parses every appmanifest in the root and emits one result per fully
// installed game. A missing root is a configuration state and yields an
// empty slice.
func (s *SteamScanner) Scan(ctx context.Context) ([]*ScannedGameResult, error) {
	entries, err := os.ReadDir(s.root)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) || s.root == "" {
			return nil, nil
		}
		if errors.Is(err, fs.ErrPermission) {
			s.logger.Debug("steam root unreadable", logging.String("root", s.root))
			return nil, nil
		}
		return nil, err
	}

	var results []*ScannedGameResult
	for _, entry := range entries {
		if ctx.Err() != nil {
			return results, ctx.Err()
		}
		match := steamManifestPattern.FindStringSubmatch(entry.Name())
		if match == nil || entry.IsDir() {
			continue
		}
		result := s.scanManifest(filepath.Join(s.root, entry.Name()), match[1])
		if result != nil {
			results = append(results, result)
		}
	}
	return results, nil
}

func (s *SteamScanner) scanManifest(path, fallbackAppID string) *ScannedGameResult {
	app := s.parseManifest(path)

	appID := strings.TrimSpace(app.String("appid"))
	recovered := appID == ""
	if recovered {
		// Manifest body unusable: recover the id from the filename.
		appID = fallbackAppID
		s.logger.Debug("recovered app id from manifest filename",
			logging.String("manifest", filepath.Base(path)),
			logging.String("app_id", appID))
	}
	if steamAppDenylist[appID] {
		return nil
	}

	name := strings.TrimSpace(app.String("name"))
	if name == "" && recovered {
		// Best-effort name only on the filename-recovery path. A manifest
		// that parsed with an appid but carries no name is non-game content.
		if installDir := strings.TrimSpace(app.String("installdir")); installDir != "" {
			name = DeriveTitle(installDir)
		}
	}
	if name == "" {
		s.logger.Debug("rejecting manifest without name", logging.String("app_id", appID))
		return nil
	}

	state, err := strconv.ParseInt(app.String("StateFlags"), 10, 64)
	if err != nil {
		state = 0
	}
	if state&steamStateFullyInstalled == 0 || state&steamStateBlocked != 0 {
		s.logger.Debug("rejecting manifest by install state",
			logging.String("app_id", appID),
			logging.Int64("state_flags", state))
		return nil
	}

	result := NewResult(SourceSteam, name, name)
	result.AppID = appID
	if installDir := strings.TrimSpace(app.String("installdir")); installDir != "" {
		result.InstallPath = filepath.Join(s.root, "common", installDir)
	}
	result.Status = StatusReady
	return result
}

// parseManifest returns the AppState block, or an empty node when the file
// is unreadable or the wrapper key is missing in every casing.
func (s *SteamScanner) parseManifest(path string) vdf.Node {
	file, err := os.Open(path)
	if err != nil {
		return vdf.Node{}
	}
	defer file.Close()

	node := vdf.Parse(file)
	if app := node.Child("AppState"); app != nil {
		return app
	}
	return vdf.Node{}
}
