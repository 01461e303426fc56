package module

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/codes"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
)

func TestLoaders_DispatchesOnLocal(t *testing.T) {
	var local, remote int
	l := Loaders{
		Local: LoaderFunc(func(ctx context.Context, d Descriptor) error {
			local++
			return nil
		}),
		Remote: LoaderFunc(func(ctx context.Context, d Descriptor) error {
			remote++
			return nil
		}),
	}

	require.NoError(t, l.Load(context.Background(), Descriptor{ID: "about-arc-chrome", Local: true}))
	require.NoError(t, l.Load(context.Background(), workspaceModule))
	assert.Equal(t, 1, local)
	assert.Equal(t, 1, remote)
}

func TestLoaders_MissingLoader(t *testing.T) {
	err := Loaders{}.Load(context.Background(), Descriptor{ID: "x", Local: true})
	assert.ErrorContains(t, err, "no local loader")
}

func TestLocalLoader(t *testing.T) {
	l := NewLocalLoader("about-arc-chrome")

	assert.NoError(t, l.Load(context.Background(), Descriptor{ID: "about-arc-chrome", Local: true}))
	assert.Error(t, l.Load(context.Background(), Descriptor{ID: "install-proxy-dialog", Local: true}))

	l.Register("install-proxy-dialog")
	assert.NoError(t, l.Load(context.Background(), Descriptor{ID: "install-proxy-dialog", Local: true}))
}

func TestRemoteLoader_HTTPFetchCachesBundle(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/arc-request-workspace/arc-request-workspace.html" {
			http.NotFound(w, r)
			return
		}
		_, _ = w.Write([]byte("<bundle/>"))
	}))
	defer srv.Close()

	cache := t.TempDir()
	l, err := NewRemoteLoader(srv.URL+"/", cache, nil)
	require.NoError(t, err)

	require.NoError(t, l.Load(context.Background(), workspaceModule))
	b, err := os.ReadFile(l.CachePath(workspaceModule.Resource))
	require.NoError(t, err)
	assert.Equal(t, "<bundle/>", string(b))

	err = l.Load(context.Background(), Descriptor{ID: "cookie-manager", Resource: "cookie-manager/cookie-manager"})
	assert.ErrorContains(t, err, "status 404")
}

func TestRemoteLoader_FallsBackToCache(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	cache := t.TempDir()
	l, err := NewRemoteLoader(srv.URL, cache, nil)
	require.NoError(t, err)

	path := l.CachePath(workspaceModule.Resource)
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte("cached"), 0o644))

	assert.NoError(t, l.Load(context.Background(), workspaceModule))
}

func TestRemoteLoader_BundleDirectory(t *testing.T) {
	base := t.TempDir()
	src := filepath.Join(base, "history-panel", "history-panel.html")
	require.NoError(t, os.MkdirAll(filepath.Dir(src), 0o755))
	require.NoError(t, os.WriteFile(src, []byte("history"), 0o644))

	l, err := NewRemoteLoader(base, t.TempDir(), nil)
	require.NoError(t, err)

	assert.NoError(t, l.Load(context.Background(), Descriptor{ID: "history-panel", Resource: "history-panel/history-panel"}))
	assert.Error(t, l.Load(context.Background(), Descriptor{ID: "saved-requests-panel", Resource: "saved-requests-panel/saved-requests-panel"}))
	assert.Error(t, l.Load(context.Background(), Descriptor{ID: "empty"}))
}

func TestRemoteLoader_CacheDirFromEnv(t *testing.T) {
	dir := t.TempDir()
	t.Setenv(CacheDirEnv, dir)

	l, err := NewRemoteLoader("http://example.invalid", "", nil)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "a", "b.html"), l.CachePath("a/b"))
}

func TestTracedLoader_RecordsSpan(t *testing.T) {
	exp := tracetest.NewInMemoryExporter()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSyncer(exp))
	defer func() { _ = tp.Shutdown(context.Background()) }()

	failing := NewTracedLoader(LoaderFunc(func(ctx context.Context, d Descriptor) error {
		return errors.New("offline")
	}), tp)
	assert.Error(t, failing.Load(context.Background(), workspaceModule))

	spans := exp.GetSpans()
	require.Len(t, spans, 1)
	assert.Equal(t, "module.load", spans[0].Name)
	assert.Equal(t, codes.Error, spans[0].Status.Code)
}
