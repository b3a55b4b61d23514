package cli

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/aretw0/arbor"
	"github.com/aretw0/arbor/internal/config"
	"github.com/aretw0/arbor/internal/layout"
	"github.com/aretw0/arbor/internal/logging"
	httpadapter "github.com/aretw0/arbor/pkg/adapters/http"
	"github.com/aretw0/arbor/pkg/catalog"
	"github.com/aretw0/arbor/pkg/domain"
	"github.com/aretw0/arbor/pkg/editor"
	"github.com/aretw0/arbor/pkg/observability"
	"github.com/aretw0/arbor/pkg/ports"
)

// App is the wired application shared by every command.
type App struct {
	Config  *config.Config
	Logger  *slog.Logger
	Catalog *catalog.Repository
	Player  *arbor.Player
	Editor  *editor.Service
	Metrics *observability.Metrics
	Streams *httpadapter.StreamManager
	Layout  layout.Engine
	// Watcher is nil unless the document backend reports changes.
	Watcher ports.Watcher

	backends *backends
}

// Open wires storage, player and editor from cfg.
func Open(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*App, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if logger == nil {
		logger = logging.NewNop()
	}

	b, err := openBackends(ctx, cfg)
	if err != nil {
		return nil, err
	}

	engine, err := layout.New(cfg.Layout.Engine, cfg.Layout.DotPath, logger)
	if err != nil {
		b.close()
		return nil, err
	}

	metrics := observability.NewMetrics()
	streams := httpadapter.NewStreamManager(logger)

	repo := catalog.New(b.objects,
		catalog.WithCache(b.cache),
		catalog.WithLogger(logger),
		catalog.WithDefaultKey(cfg.Storage.DefaultKey),
		catalog.WithPrefix(cfg.Storage.Prefix),
	)

	hooks := metrics.Hooks()
	editHooks := metrics.EditorHooks()
	if logger.Enabled(ctx, slog.LevelDebug) {
		hooks = observability.Combine(hooks, observability.LogHooks(logger))
		editHooks = observability.CombineEditor(editHooks, observability.LogEditorHooks(logger))
	}
	playerOpts := []arbor.Option{
		arbor.WithLogger(logger),
		arbor.WithLifecycleHooks(hooks),
		arbor.WithDiffListener(streams.Publish),
	}
	if b.locker != nil {
		playerOpts = append(playerOpts, arbor.WithLocker(b.locker))
	}

	return &App{
		Config:   cfg,
		Logger:   logger,
		Catalog:  repo,
		Player:   arbor.New(repo, b.sessions, playerOpts...),
		Editor:   editor.NewService(repo, editor.WithLogger(logger), editor.WithHooks(editHooks)),
		Metrics:  metrics,
		Streams:  streams,
		Layout:   engine,
		Watcher:  b.watcher,
		backends: b,
	}, nil
}

// Close releases backend connections.
func (a *App) Close() error {
	if a.backends == nil {
		return nil
	}
	return a.backends.close()
}

// Document loads key, or the document a new session would play when key is empty.
func (a *App) Document(ctx context.Context, key string) (*domain.Document, error) {
	if key == "" {
		return a.Catalog.Resolve(ctx, "")
	}
	doc, err := a.Catalog.Load(ctx, key)
	if err != nil {
		return nil, fmt.Errorf("loading %s: %w", key, err)
	}
	return doc, nil
}

// NewLogger builds the application logger. Quiet commands such as play
// discard logs unless debug is set, keeping stdout and stderr for the user.
func NewLogger(cfg config.LogConfig, debug, quiet bool) *slog.Logger {
	level := logging.ParseLevel(cfg.Level)
	if debug {
		level = slog.LevelDebug
	} else if quiet {
		return logging.NewNop()
	}
	if cfg.Format == "json" {
		return logging.NewJSON(nil, level)
	}
	return logging.New(level)
}
