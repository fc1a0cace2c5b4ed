package sqlite

import (
	"context"
	"fmt"
)

// schemaVersion is stored in PRAGMA user_version.
const schemaVersion = 1

var schema = []string{
	`CREATE TABLE IF NOT EXISTS games (
		id             TEXT PRIMARY KEY,
		user_id        TEXT NOT NULL,
		era            TEXT NOT NULL DEFAULT '',
		theme          TEXT NOT NULL DEFAULT '',
		character_name TEXT NOT NULL DEFAULT '',
		turn_count     INTEGER NOT NULL DEFAULT 0,
		data           TEXT NOT NULL DEFAULT '{}',
		created_at     TEXT NOT NULL,
		updated_at     TEXT NOT NULL
	)`,
	// Rows leave this table only with their game.
	`CREATE TABLE IF NOT EXISTS memories (
		game_id     TEXT NOT NULL REFERENCES games(id) ON DELETE CASCADE,
		id          TEXT NOT NULL,
		position    INTEGER NOT NULL,
		title       TEXT NOT NULL DEFAULT '',
		description TEXT NOT NULL DEFAULT '',
		category    TEXT NOT NULL DEFAULT '',
		created_at  TEXT NOT NULL,
		PRIMARY KEY (game_id, id)
	)`,
	`CREATE INDEX IF NOT EXISTS idx_games_user ON games (user_id, updated_at)`,
	`CREATE INDEX IF NOT EXISTS idx_memories_game_position ON memories (game_id, position)`,
}

func (c *Client) EnsureSchema(ctx context.Context) error {
	var version int
	if err := c.db.QueryRowContext(ctx, `PRAGMA user_version`).Scan(&version); err != nil {
		return fmt.Errorf("reading schema version: %w", err)
	}
	if version > schemaVersion {
		return fmt.Errorf("database schema version %d is newer than supported version %d", version, schemaVersion)
	}

	tx, err := c.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	for _, stmt := range schema {
		if _, err := tx.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("executing DDL: %w", err)
		}
	}
	if _, err := tx.ExecContext(ctx, fmt.Sprintf(`PRAGMA user_version = %d`, schemaVersion)); err != nil {
		return fmt.Errorf("setting schema version: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing schema transaction: %w", err)
	}
	return nil
}
