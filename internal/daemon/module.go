package daemon

import (
	"context"

	"github.com/wahook/wahook/internal/bus"
	"github.com/wahook/wahook/internal/config"
	"github.com/wahook/wahook/internal/httpapi"
	"github.com/wahook/wahook/internal/ingest"
	"github.com/wahook/wahook/internal/lock"
	"github.com/wahook/wahook/internal/logging"
	"github.com/wahook/wahook/internal/media"
	"github.com/wahook/wahook/internal/session"
	"github.com/wahook/wahook/internal/status"
	"github.com/wahook/wahook/internal/store"
	"github.com/wahook/wahook/internal/wa"
	"github.com/wahook/wahook/internal/webhook"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

// Params holds the resolved session configuration passed to the fx module.
type Params struct {
	SessionName string
	Config      *config.Config
}

// Module returns the fx module for the daemon, composing all providers and lifecycle hooks.
func Module(p Params) fx.Option {
	return fx.Module("daemon",
		fx.Supply(p),
		fx.Provide(
			provideConfig,
			provideLogger,
			provideBus,
			provideStateMachine,
			provideLock,
			provideStore,
			provideMediaStore,
			provideManager,
			provideDispatcher,
			provideIngestEngine,
			provideAPI,
			NewServer,
		),
		fx.Invoke(registerLifecycle),
	)
}

func provideConfig(p Params) *config.Config {
	return p.Config
}

func provideLogger(p Params) (*zap.Logger, error) {
	return logging.New(session.LogPath(p.SessionName), p.SessionName)
}

func provideBus() *bus.Bus {
	return bus.New()
}

func provideStateMachine(b *bus.Bus) *status.Machine {
	return status.NewMachine(b)
}

func provideLock(p Params, logger *zap.Logger) (*lock.Lock, error) {
	if err := session.EnsureDir(p.SessionName); err != nil {
		return nil, err
	}
	logger.Info("acquiring daemon lock", zap.String("session", p.SessionName))
	l, err := lock.Acquire(session.Dir(p.SessionName))
	if err != nil {
		return nil, err
	}
	logger.Info("daemon lock acquired")
	return l, nil
}

func provideStore(p Params, logger *zap.Logger) (*store.DB, error) {
	dbPath := session.AppDBPath(p.SessionName)
	db, err := store.Open(dbPath)
	if err != nil {
		return nil, err
	}
	result, err := db.Migrate()
	if err != nil {
		_ = db.Close()
		return nil, err
	}
	if result.Changed {
		logger.Info("migrations applied", zap.Uint("version", result.Version))
	} else {
		logger.Info("migrations up to date", zap.Uint("version", result.Version))
	}
	logger.Info("store initialized", zap.String("path", dbPath))
	return db, nil
}

func provideMediaStore(p Params) (*media.Store, error) {
	return media.NewStore(session.MediaDir(p.SessionName))
}

func provideManager(p Params, machine *status.Machine, b *bus.Bus, logger *zap.Logger) *wa.Manager {
	return wa.NewManager(p.SessionName, machine, b, logger)
}

func provideDispatcher(logger *zap.Logger) *webhook.Dispatcher {
	return webhook.NewDispatcher(logger)
}

func provideIngestEngine(db *store.DB, ms *media.Store, mgr *wa.Manager, d *webhook.Dispatcher, b *bus.Bus, logger *zap.Logger) *ingest.Engine {
	return ingest.NewEngine(db, ms, mgr, d, b, logger)
}

func provideAPI(db *store.DB, ms *media.Store, mgr *wa.Manager, logger *zap.Logger) *httpapi.API {
	return httpapi.New(db, ms, mgr, logger)
}

func registerLifecycle(lc fx.Lifecycle, srv *Server, lk *lock.Lock, mgr *wa.Manager, engine *ingest.Engine, db *store.DB, logger *zap.Logger) {
	lc.Append(fx.Hook{
		OnStart: func(_ context.Context) error {
			// The integration key exists before the first request asks
			// for it.
			key, err := db.EnsureAPIKey()
			if err != nil {
				return err
			}
			logger.Info("API key ready", zap.Int("length", len(key)))

			// Ingest engine subscribes to wa.* bus events.
			engine.Start(context.Background())

			// Start HTTP server in background.
			go func() {
				if err := srv.Start(); err != nil {
					logger.Error("HTTP server error", zap.Error(err))
				}
			}()

			// Bring up the session. With stored credentials this
			// resumes directly, otherwise it starts pairing.
			go func() {
				if err := mgr.Reconnect(); err != nil {
					logger.Error("initial connect failed", zap.Error(err))
				}
			}()

			return nil
		},
		OnStop: func(ctx context.Context) error {
			mgr.Stop()
			engine.Stop()
			srv.Stop(ctx)
			if err := lk.Release(); err != nil {
				logger.Warn("error releasing lock", zap.Error(err))
			}
			logger.Info("daemon stopped")
			return nil
		},
	})
}
