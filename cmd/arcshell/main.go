package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"arcshell/internal/analytics"
	"arcshell/internal/auth"
	"arcshell/internal/config"
	"arcshell/internal/database"
	"arcshell/internal/event"
	"arcshell/internal/module"
	"arcshell/internal/platform"
	"arcshell/internal/route"
	"arcshell/internal/router"
	"arcshell/internal/shell"
	"arcshell/internal/syncstore"
	"arcshell/internal/trace"
	"arcshell/internal/ui"
	"arcshell/internal/workspace"
)

// maxTraces is how many navigation traces the trace view keeps.
const maxTraces = 20

// flags holds the parsed command line.
type flags struct {
	route string
}

func parseFlags() flags {
	var f flags
	flag.StringVar(&f.route, "route", "", "start route as a location fragment, e.g. request?type=saved&id=123")
	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: arcshell [flags]\n\n")
		fmt.Fprintf(os.Stderr, "arcshell is a terminal REST client shell. Settings are read from\n")
		fmt.Fprintf(os.Stderr, "%s and ARCSHELL_* environment variables.\n\n", config.Path())
		fmt.Fprintf(os.Stderr, "Flags:\n")
		flag.PrintDefaults()
	}
	flag.Parse()
	return f
}

func newLogger(cfg config.LogConfig) (*slog.Logger, io.Closer, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(cfg.Level)); err != nil {
		return nil, nil, fmt.Errorf("log level %q: %w", cfg.Level, err)
	}
	if cfg.File == "" {
		return slog.New(slog.NewTextHandler(io.Discard, nil)), io.NopCloser(nil), nil
	}
	if err := os.MkdirAll(filepath.Dir(cfg.File), 0o755); err != nil {
		return nil, nil, fmt.Errorf("log dir: %w", err)
	}
	f, err := os.OpenFile(cfg.File, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, nil, fmt.Errorf("open log: %w", err)
	}
	return slog.New(slog.NewTextHandler(f, &slog.HandlerOptions{Level: level})), f, nil
}

// newLoaders serves screen modules from cfg.BaseURL. Without a base URL every
// screen in the table is treated as built in.
func newLoaders(cfg config.ModulesConfig, table *route.Table, log *slog.Logger) (module.Loaders, error) {
	var builtin []string
	for _, k := range table.Keys() {
		d, err := table.Resolve(string(k))
		if err != nil {
			return module.Loaders{}, err
		}
		if d.Local || cfg.BaseURL == "" {
			builtin = append(builtin, d.ID)
		}
	}
	for _, d := range shell.Dialogs {
		if cfg.BaseURL == "" {
			builtin = append(builtin, d.ID)
		}
	}
	local := module.NewLocalLoader(builtin...)
	if cfg.BaseURL == "" {
		log.Info("main: no module base URL, using built-in screens")
		return module.Loaders{Local: local, Remote: local}, nil
	}
	remote, err := module.NewRemoteLoader(cfg.BaseURL, cfg.CacheDir, log)
	if err != nil {
		return module.Loaders{}, fmt.Errorf("module loader: %w", err)
	}
	return module.Loaders{Local: local, Remote: remote}, nil
}

func run(f flags) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	log, logFile, err := newLogger(cfg.Log)
	if err != nil {
		return err
	}
	defer logFile.Close()
	slog.SetDefault(log)

	ctx := context.Background()
	tp, err := trace.NewProvider(ctx, maxTraces)
	if err != nil {
		return fmt.Errorf("tracing: %w", err)
	}
	defer func() {
		sctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := tp.Shutdown(sctx); err != nil {
			log.Warn("main: tracer shutdown", "err", err)
		}
	}()

	db, err := database.OpenMigrated(cfg.Database.Path)
	if err != nil {
		return fmt.Errorf("database: %w", err)
	}
	defer db.Close()
	requests := database.NewRequestRepo(db)

	synced, err := syncstore.Open(cfg.Sync.Path)
	if err != nil {
		return fmt.Errorf("sync store: %w", err)
	}
	defer synced.Close()

	bus := event.New(event.WithLogger(log))
	table := route.DefaultTable()
	loaders, err := newLoaders(cfg.Modules, table, log)
	if err != nil {
		return err
	}
	registry := module.NewRegistry(module.NewTracedLoader(loaders, tp.TracerProvider())).WithLogger(log)

	toasts := shell.NewToasts(log)
	ws := workspace.New()
	restorer := workspace.NewRestorer(ws, requests, log)
	project := &workspace.Project{}
	nav := router.New(table, registry, bus, toasts,
		router.WithSetup(route.Request, restorer.Setup),
		router.WithSetup(route.Project, project.Setup),
		router.WithLogger(log),
		router.WithTracerProvider(tp.TracerProvider()),
	)

	tracker := analytics.NewTracker(synced, database.NewMetaRepo(db),
		analytics.WithLogger(log),
		analytics.WithTracerProvider(tp.TracerProvider()),
	)
	if cfg.Telemetry.Enabled {
		tracker.Subscribe(bus)
		defer tracker.Close()
	}

	coord := shell.New(shell.Config{
		Bus:       bus,
		Router:    nav,
		Table:     table,
		Modules:   registry,
		Auth:      auth.NewTokenAuthenticator(cfg.Auth.Token),
		Opener:    platform.NewBrowserOpener(),
		Clipboard: platform.SystemClipboard{},
		Toasts:    toasts,
		Workspace: ws,
		Restorer:  restorer,
		Analytics: tracker,
		Telemetry: cfg.Telemetry.Enabled,
		Logger:    log,
	})
	coord.Start()
	defer coord.Stop()

	start := f.route
	if start == "" {
		start = cfg.Start.Route
	}
	model := ui.NewAppModel(ui.Config{
		Coordinator: coord,
		Router:      nav,
		Table:       table,
		Bus:         bus,
		Traces:      tp.Manager,
		Requests:    requests,
		Project:     project,
		Menu:        cfg.Menu.Router(),
		StartRoute:  start,
		Logger:      log,
	})

	p := tea.NewProgram(model.AsTeaModel(), tea.WithAltScreen())
	tp.Manager.SetOnChange(func() { go p.Send(ui.TraceChangedMsg{}) })
	log.Info("main: starting", "start", start, "telemetry", cfg.Telemetry.Enabled, "otlp", tp.Exporting())
	if _, err := p.Run(); err != nil {
		return err
	}
	return nil
}

func main() {
	f := parseFlags()
	if err := run(f); err != nil {
		fmt.Fprintf(os.Stderr, "arcshell: %v\n", err)
		os.Exit(1)
	}
}
