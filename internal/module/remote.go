package module

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"
)

const (
	// CacheDirEnv overrides the bundle cache location (for testing).
	CacheDirEnv = "ARCSHELL_MODULE_CACHE"
	// DefaultCacheBase is the cache location relative to the user's home.
	DefaultCacheBase = ".cache/arcshell/modules"
	// bundleExt is appended to a resource path to form the bundle file name.
	bundleExt = ".html"
)

// RemoteLoader fetches module bundles from a base URL or a bundle directory and
// keeps a copy under the cache directory. When a fetch fails and a cached copy
// exists, the cached bundle is used.
type RemoteLoader struct {
	base     string
	cacheDir string
	client   *http.Client
	log      *slog.Logger
}

// NewRemoteLoader creates a loader for bundles under base. base is either an
// http(s) URL or a local directory. An empty cacheDir falls back to
// ARCSHELL_MODULE_CACHE, then to ~/.cache/arcshell/modules.
func NewRemoteLoader(base, cacheDir string, log *slog.Logger) (*RemoteLoader, error) {
	if cacheDir == "" {
		cacheDir = os.Getenv(CacheDirEnv)
	}
	if cacheDir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, err
		}
		cacheDir = filepath.Join(home, DefaultCacheBase)
	}
	if log == nil {
		log = slog.Default()
	}
	return &RemoteLoader{
		base:     strings.TrimSuffix(base, "/"),
		cacheDir: cacheDir,
		client:   &http.Client{Timeout: 30 * time.Second},
		log:      log,
	}, nil
}

// CachePath returns where the bundle for resource is stored.
func (l *RemoteLoader) CachePath(resource string) string {
	return filepath.Join(l.cacheDir, filepath.FromSlash(resource)+bundleExt)
}

// Load implements Loader.
func (l *RemoteLoader) Load(ctx context.Context, d Descriptor) error {
	if d.Resource == "" {
		return fmt.Errorf("module %q has no resource path", d.ID)
	}
	body, err := l.fetch(ctx, d.Resource)
	if err != nil {
		if _, statErr := os.Stat(l.CachePath(d.Resource)); statErr == nil {
			l.log.Warn("module.RemoteLoader: fetch failed, using cached bundle", "module", d.ID, "err", err)
			return nil
		}
		return err
	}
	return l.store(d.Resource, body)
}

func (l *RemoteLoader) fetch(ctx context.Context, resource string) ([]byte, error) {
	if l.base == "" {
		return nil, fmt.Errorf("no module base configured")
	}
	if isHTTP(l.base) {
		url := l.base + "/" + resource + bundleExt
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
		if err != nil {
			return nil, fmt.Errorf("create request: %w", err)
		}
		resp, err := l.client.Do(req)
		if err != nil {
			return nil, fmt.Errorf("fetch %s: %w", url, err)
		}
		defer resp.Body.Close()
		if resp.StatusCode != http.StatusOK {
			return nil, fmt.Errorf("fetch %s: status %d", url, resp.StatusCode)
		}
		b, err := io.ReadAll(resp.Body)
		if err != nil {
			return nil, fmt.Errorf("read %s: %w", url, err)
		}
		return b, nil
	}
	path := filepath.Join(l.base, filepath.FromSlash(resource)+bundleExt)
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read bundle: %w", err)
	}
	return b, nil
}

func (l *RemoteLoader) store(resource string, body []byte) error {
	path := l.CachePath(resource)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create cache dir: %w", err)
	}
	if err := os.WriteFile(path, body, 0o644); err != nil {
		return fmt.Errorf("write cache: %w", err)
	}
	return nil
}

func isHTTP(s string) bool {
	return strings.HasPrefix(s, "http://") || strings.HasPrefix(s, "https://")
}
