package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"weaver/internal/game"
	"weaver/internal/store"
)

func (c *Client) GetGame(ctx context.Context, userID, gameID string) (*game.State, error) {
	var data string
	err := c.db.QueryRowContext(ctx,
		`SELECT data FROM games WHERE id = ? AND user_id = ?`, gameID, userID,
	).Scan(&data)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("getting game: %w", err)
	}

	state, err := store.DecodeGame([]byte(data))
	if err != nil {
		return nil, err
	}

	state.Memories, err = c.listMemories(ctx, gameID)
	if err != nil {
		return nil, err
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

	tx, err := c.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	query := `
	INSERT INTO games (id, user_id, era, theme, character_name, turn_count, data, created_at, updated_at)
	VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	ON CONFLICT (id) DO UPDATE SET
		era = excluded.era,
		theme = excluded.theme,
		character_name = excluded.character_name,
		turn_count = excluded.turn_count,
		data = excluded.data,
		updated_at = excluded.updated_at
	WHERE games.user_id = excluded.user_id
	`
	res, err := tx.ExecContext(ctx, query,
		state.ID,
		userID,
		state.Era,
		state.Theme,
		state.Character.Name,
		state.TurnCount,
		string(data),
		formatTime(state.CreatedAt),
		formatTime(state.UpdatedAt),
	)
	if err != nil {
		return fmt.Errorf("upserting game: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return fmt.Errorf("game %s belongs to another user: %w", state.ID, store.ErrNotFound)
	}

	stmt, err := tx.PrepareContext(ctx, `
	INSERT INTO memories (game_id, id, position, title, description, category, created_at)
	VALUES (?, ?, ?, ?, ?, ?, ?)
	ON CONFLICT (game_id, id) DO NOTHING
	`)
	if err != nil {
		return fmt.Errorf("preparing memory insert: %w", err)
	}
	defer stmt.Close()

	for _, m := range store.MemoryRecords(state) {
		_, err := stmt.ExecContext(ctx, m.GameID, m.ID, m.Position, m.Title, m.Description, m.Category, formatTime(m.Timestamp))
		if err != nil {
			return fmt.Errorf("inserting memory %s: %w", m.ID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing game: %w", err)
	}
	return nil
}

func (c *Client) ListGames(ctx context.Context, userID string) ([]store.GameSummary, error) {
	query := `
	SELECT g.id, g.era, g.theme, g.character_name, g.turn_count, g.created_at, g.updated_at,
		(SELECT COUNT(*) FROM memories m WHERE m.game_id = g.id)
	FROM games g
	WHERE g.user_id = ?
	ORDER BY g.updated_at DESC, g.id ASC
	`

	rows, err := c.db.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("listing games: %w", err)
	}
	defer rows.Close()

	var games []store.GameSummary
	for rows.Next() {
		var g store.GameSummary
		var createdAt, updatedAt string
		if err := rows.Scan(&g.ID, &g.Era, &g.Theme, &g.CharacterName, &g.TurnCount, &createdAt, &updatedAt, &g.MemoryCount); err != nil {
			return nil, fmt.Errorf("scanning game: %w", err)
		}
		g.CreatedAt = parseTime(createdAt)
		g.UpdatedAt = parseTime(updatedAt)
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
	tx, err := c.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	res, err := tx.ExecContext(ctx, `DELETE FROM games WHERE id = ? AND user_id = ?`, gameID, userID)
	if err != nil {
		return fmt.Errorf("deleting game: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("deleting game: %w", err)
	}
	if n == 0 {
		return store.ErrNotFound
	}

	// foreign_keys is per connection, so cascade explicitly.
	if _, err := tx.ExecContext(ctx, `DELETE FROM memories WHERE game_id = ?`, gameID); err != nil {
		return fmt.Errorf("deleting memories: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing delete: %w", err)
	}
	return nil
}

func (c *Client) listMemories(ctx context.Context, gameID string) ([]game.Memory, error) {
	rows, err := c.db.QueryContext(ctx, `
	SELECT id, title, description, category, created_at
	FROM memories
	WHERE game_id = ?
	ORDER BY position ASC
	`, gameID)
	if err != nil {
		return nil, fmt.Errorf("listing memories: %w", err)
	}
	defer rows.Close()

	memories := []game.Memory{}
	for rows.Next() {
		var m game.Memory
		var createdAt string
		if err := rows.Scan(&m.ID, &m.Title, &m.Description, &m.Category, &createdAt); err != nil {
			return nil, fmt.Errorf("scanning memory: %w", err)
		}
		m.Timestamp = parseTime(createdAt)
		memories = append(memories, m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating memories: %w", err)
	}
	return memories, nil
}

// Fixed-width so text ordering matches time ordering.
const timeLayout = "2006-01-02T15:04:05.000000000Z"

func formatTime(t time.Time) string {
	return t.UTC().Format(timeLayout)
}

func parseTime(s string) time.Time {
	t, err := time.Parse(timeLayout, s)
	if err != nil {
		return time.Time{}
	}
	return t
}
