package main

import (
	"context"

	"go.uber.org/zap"

	"weaver/internal/ai"
	"weaver/internal/auth"
	"weaver/internal/config"
	"weaver/internal/session"
	"weaver/internal/store"
)

// app holds what every game command needs.
type app struct {
	cfg      *config.ProjectConfig
	catalog  *config.Catalog
	identity auth.Identity
	db       store.Store
	saver    *store.Saver
	manager  *session.Manager
}

type appOptions struct {
	// withAI is false for commands that never generate text.
	withAI bool
}

func openApp(ctx context.Context, opts appOptions) (*app, error) {
	cfg, err := config.LoadProjectConfig(configPath)
	if err != nil {
		return nil, err
	}

	catalog, err := config.LoadCatalog(cfg.Catalog)
	if err != nil {
		return nil, err
	}

	identity, err := auth.Resolve(cfg.User, cfg.StateDir)
	if err != nil {
		return nil, err
	}

	db, err := openDB(ctx, cfg)
	if err != nil {
		return nil, err
	}

	saver := store.NewSaver(db,
		store.WithSaveTimeout(cfg.Persistence.SaveTimeout),
		store.WithRetryInterval(cfg.Persistence.RetryInitial, cfg.Persistence.RetryMax),
		store.WithLogger(logger.Named("saver")))

	deps := session.Deps{
		Catalog: catalog,
		Saver:   saver,
		UserID:  identity.UID,
		Logger:  logger.Named("session"),
	}
	if opts.withAI {
		client, err := ai.New(ctx, cfg.AI, logger.Named("ai"))
		if err != nil {
			_ = db.Close(ctx)
			return nil, err
		}
		deps.Transport = client
	}

	logger.Debug("project loaded",
		zap.String("project", cfg.Project),
		zap.String("driver", cfg.Database.Driver),
		zap.String("provider", cfg.AI.Provider),
		zap.Bool("anonymous", identity.IsAnonymous))

	return &app{
		cfg:      cfg,
		catalog:  catalog,
		identity: identity,
		db:       db,
		saver:    saver,
		manager:  session.NewManager(deps, db),
	}, nil
}

// runSaver retries queued saves in the background. The returned stop func
// cancels the loop and makes a last attempt at anything still queued.
func (a *app) runSaver(ctx context.Context) (stop func()) {
	ctx, cancel := context.WithCancel(ctx)
	done := make(chan struct{})
	go func() {
		defer close(done)
		if err := a.saver.Run(ctx); err != nil {
			logger.Warn("save retry loop stopped", zap.Error(err))
		}
	}()

	return func() {
		cancel()
		<-done
		if err := a.saver.Flush(context.Background()); err != nil {
			logger.Warn("unsaved progress", zap.Int("pending", a.saver.Pending()), zap.Error(err))
		}
	}
}

func (a *app) Close(ctx context.Context) error {
	return a.db.Close(ctx)
}
