// Package app wires configuration, storage, the editor and the services
// into one running instance.
package app

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog"

	"blockpad/internal/config"
	"blockpad/internal/domain"
	"blockpad/internal/editor"
	"blockpad/internal/service"
	"blockpad/internal/storage"
	"blockpad/internal/storage/mongostore"
)

// App owns the backend, the editor and the background services.
type App struct {
	cfg config.Config
	log zerolog.Logger

	backend   domain.Backend
	events    *service.Broadcaster
	persister *editor.Persister
	editor    *editor.Controller
	pages     *service.PageService
	sync      *service.SyncService

	cancel context.CancelFunc
}

// New opens the configured backend and starts the persister and the sync
// service. The returned App must be closed.
func New(ctx context.Context, cfg config.Config, logger zerolog.Logger) (*App, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	backend, err := openBackend(ctx, cfg, logger)
	if err != nil {
		return nil, err
	}

	events := &service.Broadcaster{}
	events.Attach(service.LogEmitter{Log: logger})

	persister := editor.NewPersister(backend, logger,
		editor.WithOpTimeout(cfg.PersistTimeout),
		editor.WithEmitter(events),
	)
	// Writes must outlive a cancelled caller context so Close can drain them.
	runCtx, cancel := context.WithCancel(context.WithoutCancel(ctx))
	persister.Start(runCtx)

	ctrl := editor.NewController(backend, persister, logger, events)

	syncOpts := []service.SyncOption{
		service.WithSchedule(cfg.SyncSchedule),
		service.WithSyncEmitter(events),
	}
	if cfg.WatchExternal && cfg.Backend == config.BackendSQLite {
		syncOpts = append(syncOpts, service.WithWatchFile(cfg.SQLitePath()))
	}
	syncSvc := service.NewSyncService(ctrl, logger, syncOpts...)
	if err := syncSvc.Start(runCtx); err != nil {
		cancel()
		_ = persister.Close(ctx)
		backend.Close()
		return nil, err
	}

	a := &App{
		cfg:       cfg,
		log:       logger.With().Str("component", "app").Logger(),
		backend:   backend,
		events:    events,
		persister: persister,
		editor:    ctrl,
		pages:     service.NewPageService(backend, backend, ctrl, events, logger),
		sync:      syncSvc,
		cancel:    cancel,
	}
	a.log.Debug().Str("backend", cfg.Backend).Msg("app ready")
	return a, nil
}

func openBackend(ctx context.Context, cfg config.Config, logger zerolog.Logger) (domain.Backend, error) {
	switch cfg.Backend {
	case config.BackendSQLite:
		db, err := storage.OpenSQLite(cfg.SQLitePath(), logger)
		if err != nil {
			return nil, fmt.Errorf("open sqlite: %w", err)
		}
		logger.Info().Str("dialect", string(db.Dialect())).Str("path", cfg.SQLitePath()).Msg("backend ready")
		return storage.NewBackend(db), nil
	case config.BackendPostgres, config.BackendMySQL:
		db, err := storage.Open(storage.Dialect(cfg.Backend), cfg.DSN, logger)
		if err != nil {
			return nil, fmt.Errorf("open %s: %w", cfg.Backend, err)
		}
		logger.Info().Str("dialect", string(db.Dialect())).Msg("backend ready")
		return storage.NewBackend(db), nil
	case config.BackendMongo:
		return mongostore.Open(ctx, cfg.DSN, cfg.MongoDatabase, logger)
	}
	return nil, fmt.Errorf("unknown backend %q", cfg.Backend)
}

func (a *App) Pages() *service.PageService { return a.pages }
func (a *App) Editor() *editor.Controller  { return a.editor }
func (a *App) Sync() *service.SyncService  { return a.sync }

// Events lets listeners such as the MCP server subscribe to editor events.
func (a *App) Events() *service.Broadcaster { return a.events }

// Settle blocks until every queued write has reached the backend.
func (a *App) Settle(ctx context.Context) error {
	return a.persister.WaitIdle(ctx)
}

// Close stops the sync service, retries unsaved blocks once, drains the
// persister and closes the backend. Blocks that still fail are reported.
func (a *App) Close(ctx context.Context) error {
	a.sync.Stop()
	if err := a.sync.Wait(ctx); err != nil {
		a.log.Warn().Err(err).Msg("sync job still running at close")
	}
	a.editor.FlushDirty()

	var errs []error
	if err := a.persister.Close(ctx); err != nil {
		errs = append(errs, fmt.Errorf("drain writes: %w", err))
	}
	if n := a.persister.DirtyCount(""); n > 0 {
		a.log.Warn().Int("blocks", n).Msg("closing with unsaved blocks")
		errs = append(errs, fmt.Errorf("%d block(s) not saved: %w", n, domain.ErrPersistence))
	}
	a.cancel()
	if err := a.backend.Close(); err != nil {
		errs = append(errs, fmt.Errorf("close backend: %w", err))
	}
	return errors.Join(errs...)
}
