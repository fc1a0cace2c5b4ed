package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"weaver/internal/store"

	_ "modernc.org/sqlite"
)

var _ store.Store = (*Client)(nil)

const connectTimeout = 30 * time.Second

// Client stores games in a single sqlite file, or in memory for
// sqlite://:memory:.
type Client struct {
	db *sql.DB
}

func New(ctx context.Context, dsn string) (*Client, error) {
	driverDSN, err := parseDSN(dsn)
	if err != nil {
		return nil, fmt.Errorf("parsing sqlite DSN: %w", err)
	}

	db, err := sql.Open("sqlite", driverDSN)
	if err != nil {
		return nil, fmt.Errorf("opening sqlite database: %w", err)
	}

	inMemory := driverDSN == memoryDSN
	if inMemory {
		// Each connection to :memory: opens its own empty database.
		db.SetMaxOpenConns(1)
	}

	ctx, cancel := context.WithTimeout(ctx, connectTimeout)
	defer cancel()

	if err := configure(ctx, db, inMemory); err != nil {
		db.Close()
		return nil, err
	}
	return &Client{db: db}, nil
}

func configure(ctx context.Context, db *sql.DB, inMemory bool) error {
	if err := db.PingContext(ctx); err != nil {
		return fmt.Errorf("pinging sqlite: %w", err)
	}

	pragmas := []string{
		"PRAGMA foreign_keys = ON",
		"PRAGMA busy_timeout = 30000",
	}
	if !inMemory {
		pragmas = append(pragmas, "PRAGMA journal_mode = WAL", "PRAGMA synchronous = NORMAL")
	}
	for _, pragma := range pragmas {
		if _, err := db.ExecContext(ctx, pragma); err != nil {
			return fmt.Errorf("setting pragma %q: %w", pragma, err)
		}
	}
	return nil
}

func (c *Client) Close(ctx context.Context) error {
	return c.db.Close()
}
