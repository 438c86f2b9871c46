package metadata

import (
	"context"
	"fmt"
	"hash/fnv"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"os"
	"path"
	"path/filepath"
	"strings"
	"time"

	"ludex/internal/logging"
	"ludex/internal/services"
)

// DiskCache stores artwork under a local directory, keyed by game id and a
// hash of the source URL so re-resolving a game never re-downloads.
type DiskCache struct {
	dir        string
	httpClient *http.Client
	logger     *slog.Logger
}

var _ ImageCache = (*DiskCache)(nil)

// NewDiskCache creates a cache rooted at dir.
func NewDiskCache(dir string, logger *slog.Logger) *DiskCache {
	return &DiskCache{
		dir:        dir,
		httpClient: &http.Client{Timeout: 30 * time.Second},
		logger:     logging.NewComponentLogger(logger, "imagecache"),
	}
}

// Cache downloads the image once and returns its local path. Subsequent
// calls for the same URL hit the existing file.
func (c *DiskCache) Cache(ctx context.Context, rawURL, gameID, kind string) (string, error) {
	if rawURL == "" {
		return "", nil
	}

	target := filepath.Join(c.dir, gameID, fmt.Sprintf("%s-%08x%s", kind, urlHash(rawURL), extensionOf(rawURL)))
	if _, err := os.Stat(target); err == nil {
		return target, nil
	}
	if err := os.MkdirAll(filepath.Dir(target), 0o755); err != nil {
		return "", services.Wrap(services.ErrPermission, "imagecache", "store", "create cache directory", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return "", services.Wrap(services.ErrConfiguration, "imagecache", "fetch", "build request", err)
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", services.Wrap(services.ErrTransient, "imagecache", "fetch", "execute request", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return "", services.Wrap(services.ErrTransient, "imagecache", "fetch", fmt.Sprintf("status %d for %s", resp.StatusCode, rawURL), nil)
	}

	// Write to a temp file first so a torn download never becomes a hit.
	tmp, err := os.CreateTemp(filepath.Dir(target), ".download-*")
	if err != nil {
		return "", services.Wrap(services.ErrPermission, "imagecache", "store", "create temp file", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := io.Copy(tmp, resp.Body); err != nil {
		_ = tmp.Close()
		return "", services.Wrap(services.ErrTransient, "imagecache", "store", "write image", err)
	}
	if err := tmp.Close(); err != nil {
		return "", services.Wrap(services.ErrTransient, "imagecache", "store", "close temp file", err)
	}
	if err := os.Rename(tmp.Name(), target); err != nil {
		return "", services.Wrap(services.ErrPermission, "imagecache", "store", "finalize image", err)
	}

	c.logger.Debug("cached image",
		logging.String("url", rawURL),
		logging.String("path", target))
	return target, nil
}

func urlHash(rawURL string) uint32 {
	h := fnv.New32a()
	_, _ = h.Write([]byte(rawURL))
	return h.Sum32()
}

func extensionOf(rawURL string) string {
	parsed, err := url.Parse(rawURL)
	if err != nil {
		return ".jpg"
	}
	ext := strings.ToLower(path.Ext(parsed.Path))
	switch ext {
	case ".jpg", ".jpeg", ".png", ".webp", ".gif":
		return ext
	default:
		return ".jpg"
	}
}
