package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"weaver/internal/game"
	"weaver/internal/store"
)

func (c *Client) GetGame(ctx context.Context, userID, gameID string) (*game.State, error) {
	var data []byte
	err := c.pool.QueryRow(ctx,
		`SELECT data FROM games WHERE id = $1 AND user_id = $2`, gameID, userID,
	).Scan(&data)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("getting game: %w", err)
	}

	state, err := store.DecodeGame(data)
	if err != nil {
		return nil, err
	}

	rows, err := c.pool.Query(ctx, `
SELECT id, title, description, category, created_at
FROM memories
WHERE game_id = $1
ORDER BY position ASC
`, gameID)
	if err != nil {
		return nil, fmt.Errorf("listing memories: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var m game.Memory
		if err := rows.Scan(&m.ID, &m.Title, &m.Description, &m.Category, &m.Timestamp); err != nil {
			return nil, fmt.Errorf("scanning memory: %w", err)
		}
		state.Memories = append(state.Memories, m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating memories: %w", err)
	}
	return state, nil
}

func (c *Client) PutGame(ctx context.Context, userID string, state *game.State) error {
	if err := store.CheckPut(userID, state); err != nil {
		return err
	}
	data, err := store.EncodeGame(state)
	if err != nil {
		return err
	}

	tx, err := c.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	query := `
INSERT INTO games (id, user_id, era, theme, character_name, turn_count, data, created_at, updated_at)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
ON CONFLICT (id) DO UPDATE SET
    era = EXCLUDED.era,
    theme = EXCLUDED.theme,
    character_name = EXCLUDED.character_name,
    turn_count = EXCLUDED.turn_count,
    data = EXCLUDED.data,
    updated_at = EXCLUDED.updated_at
WHERE games.user_id = EXCLUDED.user_id
`
	tag, err := tx.Exec(ctx, query,
		state.ID,
		userID,
		state.Era,
		state.Theme,
		state.Character.Name,
		state.TurnCount,
		data,
		state.CreatedAt,
		state.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("upserting game: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("game %s belongs to another user: %w", state.ID, store.ErrNotFound)
	}

	batch := &pgx.Batch{}
	for _, m := range store.MemoryRecords(state) {
		batch.Queue(`
INSERT INTO memories (game_id, id, position, title, description, category, created_at)
VALUES ($1, $2, $3, $4, $5, $6, $7)
ON CONFLICT (game_id, id) DO NOTHING
`, m.GameID, m.ID, m.Position, m.Title, m.Description, m.Category, m.Timestamp)
	}
	if batch.Len() > 0 {
		if err := tx.SendBatch(ctx, batch).Close(); err != nil {
			return fmt.Errorf("inserting memories: %w", err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("committing game: %w", err)
	}
	return nil
}

func (c *Client) ListGames(ctx context.Context, userID string) ([]store.GameSummary, error) {
	query := `
SELECT g.id, g.era, g.theme, g.character_name, g.turn_count, g.created_at, g.updated_at,
    (SELECT COUNT(*) FROM memories m WHERE m.game_id = g.id)::int
FROM games g
WHERE g.user_id = $1
ORDER BY g.updated_at DESC, g.id ASC
`
	rows, err := c.pool.Query(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("listing games: %w", err)
	}
	defer rows.Close()

	var games []store.GameSummary
	for rows.Next() {
		var g store.GameSummary
		if err := rows.Scan(&g.ID, &g.Era, &g.Theme, &g.CharacterName, &g.TurnCount, &g.CreatedAt, &g.UpdatedAt, &g.MemoryCount); err != nil {
			return nil, fmt.Errorf("scanning game: %w", err)
		}
		games = append(games, g)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating games: %w", err)
	}

	if games == nil {
		games = []store.GameSummary{}
	}
	return games, nil
}

func (c *Client) DeleteGame(ctx context.Context, userID, gameID string) error {
	// memories cascade through the foreign key.
	tag, err := c.pool.Exec(ctx, `DELETE FROM games WHERE id = $1 AND user_id = $2`, gameID, userID)
	if err != nil {
		return fmt.Errorf("deleting game: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return store.ErrNotFound
	}
	return nil
}
