package postgres

import (
	"context"
	"fmt"
)

// Schema is the DDL applied by EnsureSchema. The supabase backend expects the
// same tables.
const Schema = `
CREATE TABLE IF NOT EXISTS games (
    id             TEXT PRIMARY KEY,
    user_id        TEXT NOT NULL,
    era            TEXT NOT NULL DEFAULT '',
    theme          TEXT NOT NULL DEFAULT '',
    character_name TEXT NOT NULL DEFAULT '',
    turn_count     INTEGER NOT NULL DEFAULT 0,
    data           JSONB NOT NULL DEFAULT '{}',
    created_at     TIMESTAMPTZ NOT NULL DEFAULT now(),
    updated_at     TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE TABLE IF NOT EXISTS memories (
    game_id     TEXT NOT NULL REFERENCES games(id) ON DELETE CASCADE,
    id          TEXT NOT NULL,
    position    INTEGER NOT NULL,
    title       TEXT NOT NULL DEFAULT '',
    description TEXT NOT NULL DEFAULT '',
    category    TEXT NOT NULL DEFAULT '',
    created_at  TIMESTAMPTZ NOT NULL DEFAULT now(),
    PRIMARY KEY (game_id, id)
);

CREATE INDEX IF NOT EXISTS idx_games_user ON games (user_id, updated_at DESC);
CREATE INDEX IF NOT EXISTS idx_memories_game_position ON memories (game_id, position);
`

func (c *Client) EnsureSchema(ctx context.Context) error {
	// PostgreSQL runs the multi-statement call in one implicit transaction.
	if _, err := c.pool.Exec(ctx, Schema); err != nil {
		return fmt.Errorf("ensuring schema: %w", err)
	}
	return nil
}
