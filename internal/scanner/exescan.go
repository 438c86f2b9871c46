package scanner

import (
	"context"
	"errors"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"unicode"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"ludex/internal/logging"
)

// maxWalkDepth bounds executable discovery below a game folder. Deeper
// trees are engine internals, not launch targets.
const maxWalkDepth = 3

// Helper, installer, and runtime binaries that never identify the game.
// Matching is case-insensitive substring on the base filename.
var sharedExeDenylist = []string{
	"uninstall",
	"unins",
	"setup",
	"redist",
	"vcredist",
	"vc_redist",
	"dxsetup",
	"dxwebsetup",
	"bootstrapper",
	"installer",
	"crashhandler",
	"crashreport",
	"crashpad",
	"unitycrashhandler",
	"update",
	"patcher",
	"support",
}

// ExeScanner discovers installed titles by walking an install root where
// each immediate subdirectory holds one game.
type ExeScanner struct {
	source   Source
	root     string
	denylist []string
	logger   *slog.Logger
}

// NewGOGScanner creates an executable-discovery scanner for a GOG Galaxy
// games directory.
func NewGOGScanner(root string, logger *slog.Logger) *ExeScanner {
	return newExeScanner(SourceGOG, root, []string{"galaxy", "goggame", "webcache"}, logger)
}

// NewAmazonScanner creates an executable-discovery scanner for an Amazon
// Games library directory.
func NewAmazonScanner(root string, logger *slog.Logger) *ExeScanner {
	return newExeScanner(SourceAmazon, root, []string{"amazon", "fuel"}, logger)
}

// NewCustomScanner creates an executable-discovery scanner for a
// user-configured directory.
func NewCustomScanner(root string, logger *slog.Logger) *ExeScanner {
	return newExeScanner(SourceCustom, root, nil, logger)
}

func newExeScanner(source Source, root string, extra []string, logger *slog.Logger) *ExeScanner {
	denylist := make([]string, 0, len(sharedExeDenylist)+len(extra))
	denylist = append(denylist, sharedExeDenylist...)
	denylist = append(denylist, extra...)
	return &ExeScanner{
		source:   source,
		root:     root,
		denylist: denylist,
		logger:   logging.NewComponentLogger(logger, "scanner."+string(source)),
	}
}

func (e *ExeScanner) Source() Source { return e.source }

// Scan emits one result per game folder that yields a usable executable.
// A missing root returns empty; unreadable subdirectories are skipped.
func (e *ExeScanner) Scan(ctx context.Context) ([]*ScannedGameResult, error) {
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
		if !entry.IsDir() {
			continue
		}
		gameDir := filepath.Join(e.root, entry.Name())
		exe := e.selectExecutable(gameDir, entry.Name())
		if exe == "" {
			continue
		}
		title := DeriveTitle(entry.Name())
		if title == "" {
			continue
		}
		result := NewResult(e.source, entry.Name(), title)
		result.InstallPath = gameDir
		result.ExePath = exe
		result.Status = StatusReady
		results = append(results, result)
	}
	return results, nil
}

// selectExecutable walks the game folder with an explicit work stack bounded
// by maxWalkDepth, then applies the selection policy: an executable named
// after its containing folder wins; otherwise the first one discovered in
// traversal order.
func (e *ExeScanner) selectExecutable(gameDir, folderName string) string {
	type workItem struct {
		path  string
		depth int
	}

	var candidates []string
	stack := []workItem{{path: gameDir, depth: 0}}
	for len(stack) > 0 {
		item := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		entries, err := os.ReadDir(item.path)
		if err != nil {
			// Permission errors are common and expected; skip the subtree.
			continue
		}
		var subdirs []string
		for _, entry := range entries {
			full := filepath.Join(item.path, entry.Name())
			if entry.IsDir() {
				if item.depth+1 < maxWalkDepth {
					subdirs = append(subdirs, full)
				}
				continue
			}
			if !strings.EqualFold(filepath.Ext(entry.Name()), ".exe") {
				continue
			}
			if e.denied(entry.Name()) {
				continue
			}
			candidates = append(candidates, full)
		}
		// Push in reverse so pops visit subdirectories in listing order.
		for i := len(subdirs) - 1; i >= 0; i-- {
			stack = append(stack, workItem{path: subdirs[i], depth: item.depth + 1})
		}
	}

	if len(candidates) == 0 {
		return ""
	}
	wanted := strings.ToLower(folderName)
	for _, candidate := range candidates {
		base := strings.TrimSuffix(filepath.Base(candidate), filepath.Ext(candidate))
		if strings.ToLower(base) == wanted {
			return candidate
		}
	}
	return candidates[0]
}

func (e *ExeScanner) denied(name string) bool {
	lowered := strings.ToLower(name)
	for _, pattern := range e.denylist {
		if strings.Contains(lowered, pattern) {
			return true
		}
	}
	return false
}

var titleCaser = cases.Title(language.Und)

// DeriveTitle turns an install folder name into a display title: delimiter
// tokens become spaces, trailing version and hash segments are dropped, and
// a leading publisher prefix separated by a dash is stripped.
func DeriveTitle(folder string) string {
	if folder == "" {
		return ""
	}

	// A "Publisher - Game" folder keeps only the game part.
	if idx := strings.Index(folder, " - "); idx > 0 {
		folder = folder[idx+3:]
	}

	runes := []rune(folder)
	var cleaned strings.Builder
	prevSpace := false
	for i, r := range runes {
		switch {
		case unicode.IsLetter(r) || unicode.IsNumber(r) || r == '\'':
			cleaned.WriteRune(r)
			prevSpace = false
		case r == '.' && i > 0 && i < len(runes)-1 && unicode.IsDigit(runes[i-1]) && unicode.IsDigit(runes[i+1]):
			// Dots inside numbers are version separators, not delimiters.
			cleaned.WriteRune(r)
			prevSpace = false
		case unicode.IsSpace(r) || r == '-' || r == '_' || r == '.':
			if !prevSpace {
				cleaned.WriteRune(' ')
				prevSpace = true
			}
		}
	}

	tokens := strings.Fields(cleaned.String())
	for len(tokens) > 1 {
		last := tokens[len(tokens)-1]
		if isVersionToken(last) || isHashToken(last) {
			tokens = tokens[:len(tokens)-1]
			continue
		}
		break
	}
	if len(tokens) == 0 {
		return ""
	}

	title := strings.Join(tokens, " ")
	if strings.ToLower(title) == title {
		title = titleCaser.String(title)
	}
	return title
}

// isVersionToken matches segments like "v1", "1.05", "v2.3.1", "build1234".
// A bare trailing integer is a sequel number, not a version, and is kept.
func isVersionToken(token string) bool {
	lowered := strings.ToLower(token)
	trimmed := strings.TrimPrefix(lowered, "build")
	trimmed = strings.TrimPrefix(trimmed, "v")
	prefixed := trimmed != lowered
	if trimmed == "" {
		return false
	}
	digits := false
	dotted := false
	for _, r := range trimmed {
		switch {
		case unicode.IsDigit(r):
			digits = true
		case r == '.':
			dotted = true
		default:
			return false
		}
	}
	return digits && (prefixed || dotted)
}

// isHashToken matches hex-ish suffixes store installers append to folders.
func isHashToken(token string) bool {
	if len(token) < 6 {
		return false
	}
	digits := false
	for _, r := range strings.ToLower(token) {
		switch {
		case r >= '0' && r <= '9':
			digits = true
		case r >= 'a' && r <= 'f':
		default:
			return false
		}
	}
	return digits
}
