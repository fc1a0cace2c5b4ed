package main

import (
	"context"
	"fmt"

	"weaver/internal/config"
	"weaver/internal/store"
	"weaver/internal/store/firestore"
	"weaver/internal/store/postgres"
	"weaver/internal/store/sqlite"
	"weaver/internal/store/supabase"
)

func openDB(ctx context.Context, cfg *config.ProjectConfig) (store.Store, error) {
	var (
		db  store.Store
		err error
	)
	switch cfg.Database.Driver {
	case config.DriverSQLite:
		db, err = sqlite.New(ctx, cfg.Database.DSN)
	case config.DriverPostgres:
		db, err = postgres.New(ctx, cfg.Database.DSN)
	case config.DriverFirestore:
		db, err = firestore.New(ctx, cfg.Database.ProjectID, cfg.Database.CredentialsFile)
	case config.DriverSupabase:
		db, err = supabase.New(cfg.Database.URL, cfg.Database.Key)
	default:
		return nil, fmt.Errorf("unsupported database driver: %s", cfg.Database.Driver)
	}
	if err != nil {
		return nil, err
	}

	if err := db.EnsureSchema(ctx); err != nil {
		_ = db.Close(ctx)
		return nil, err
	}
	return db, nil
}
