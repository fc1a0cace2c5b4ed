package supabase

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/supabase-community/postgrest-go"

	"weaver/internal/game"
	"weaver/internal/store"
)

type gameRow struct {
	ID            string          `json:"id"`
	UserID        string          `json:"user_id"`
	Era           string          `json:"era"`
	Theme         string          `json:"theme"`
	CharacterName string          `json:"character_name"`
	TurnCount     int             `json:"turn_count"`
	Data          json.RawMessage `json:"data,omitempty"`
	CreatedAt     time.Time       `json:"created_at"`
	UpdatedAt     time.Time       `json:"updated_at"`
}

type memoryRow struct {
	GameID      string    `json:"game_id"`
	ID          string    `json:"id"`
	Position    int       `json:"position"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	Category    string    `json:"category"`
	CreatedAt   time.Time `json:"created_at"`
}

// The PostgREST client takes no context, so ctx is unused below.

func (c *Client) GetGame(ctx context.Context, userID, gameID string) (*game.State, error) {
	var rows []gameRow
	_, err := c.api.From(gamesTable).
		Select("data", "", false).
		Eq("id", gameID).
		Eq("user_id", userID).
		ExecuteTo(&rows)
	if err != nil {
		return nil, fmt.Errorf("getting game: %w", err)
	}
	if len(rows) == 0 {
		return nil, nil
	}

	state, err := store.DecodeGame(rows[0].Data)
	if err != nil {
		return nil, err
	}

	var memories []memoryRow
	_, err = c.api.From(memoriesTable).
		Select("id,title,description,category,created_at", "", false).
		Eq("game_id", gameID).
		Order("position", &postgrest.OrderOpts{Ascending: true}).
		ExecuteTo(&memories)
	if err != nil {
		return nil, fmt.Errorf("listing memories: %w", err)
	}
	for _, m := range memories {
		state.Memories = append(state.Memories, game.Memory{
			ID:          m.ID,
			Title:       m.Title,
			Description: m.Description,
			Category:    m.Category,
			Timestamp:   m.CreatedAt,
		})
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

	owner, err := c.owner(state.ID)
	if err != nil {
		return err
	}
	if owner != "" && owner != userID {
		return fmt.Errorf("game %s belongs to another user: %w", state.ID, store.ErrNotFound)
	}

	row := gameRow{
		ID:            state.ID,
		UserID:        userID,
		Era:           state.Era,
		Theme:         state.Theme,
		CharacterName: state.Character.Name,
		TurnCount:     state.TurnCount,
		Data:          data,
		CreatedAt:     state.CreatedAt,
		UpdatedAt:     state.UpdatedAt,
	}
	if _, _, err := c.api.From(gamesTable).Upsert(row, "id", "minimal", "").Execute(); err != nil {
		return fmt.Errorf("upserting game: %w", err)
	}

	var existing []struct {
		ID string `json:"id"`
	}
	if _, err := c.api.From(memoriesTable).Select("id", "", false).Eq("game_id", state.ID).ExecuteTo(&existing); err != nil {
		return fmt.Errorf("listing memory ids: %w", err)
	}
	seen := make(map[string]bool, len(existing))
	for _, e := range existing {
		seen[e.ID] = true
	}

	var fresh []memoryRow
	for _, m := range store.MemoryRecords(state) {
		if seen[m.ID] {
			continue
		}
		fresh = append(fresh, memoryRow{
			GameID:      m.GameID,
			ID:          m.ID,
			Position:    m.Position,
			Title:       m.Title,
			Description: m.Description,
			Category:    m.Category,
			CreatedAt:   m.Timestamp,
		})
	}
	if len(fresh) == 0 {
		return nil
	}
	if _, _, err := c.api.From(memoriesTable).Insert(fresh, false, "", "minimal", "").Execute(); err != nil {
		return fmt.Errorf("inserting memories: %w", err)
	}
	return nil
}

func (c *Client) ListGames(ctx context.Context, userID string) ([]store.GameSummary, error) {
	var rows []gameRow
	_, err := c.api.From(gamesTable).
		Select("id,user_id,era,theme,character_name,turn_count,created_at,updated_at", "", false).
		Eq("user_id", userID).
		Order("updated_at", &postgrest.OrderOpts{Ascending: false}).
		ExecuteTo(&rows)
	if err != nil {
		return nil, fmt.Errorf("listing games: %w", err)
	}

	games := make([]store.GameSummary, 0, len(rows))
	for _, row := range rows {
		_, count, err := c.api.From(memoriesTable).Select("id", "exact", true).Eq("game_id", row.ID).Execute()
		if err != nil {
			return nil, fmt.Errorf("counting memories for %s: %w", row.ID, err)
		}
		games = append(games, store.GameSummary{
			ID:            row.ID,
			Era:           row.Era,
			Theme:         row.Theme,
			CharacterName: row.CharacterName,
			TurnCount:     row.TurnCount,
			MemoryCount:   int(count),
			CreatedAt:     row.CreatedAt,
			UpdatedAt:     row.UpdatedAt,
		})
	}
	return games, nil
}

func (c *Client) DeleteGame(ctx context.Context, userID, gameID string) error {
	owner, err := c.owner(gameID)
	if err != nil {
		return err
	}
	if owner == "" || owner != userID {
		return store.ErrNotFound
	}

	if _, _, err := c.api.From(memoriesTable).Delete("minimal", "").Eq("game_id", gameID).Execute(); err != nil {
		return fmt.Errorf("deleting memories: %w", err)
	}
	if _, _, err := c.api.From(gamesTable).Delete("minimal", "").Eq("id", gameID).Eq("user_id", userID).Execute(); err != nil {
		return fmt.Errorf("deleting game: %w", err)
	}
	return nil
}

// owner returns the user id that owns gameID, or "" when it does not exist.
func (c *Client) owner(gameID string) (string, error) {
	var rows []gameRow
	if _, err := c.api.From(gamesTable).Select("id,user_id", "", false).Eq("id", gameID).ExecuteTo(&rows); err != nil {
		return "", fmt.Errorf("looking up game owner: %w", err)
	}
	if len(rows) == 0 {
		return "", nil
	}
	return rows[0].UserID, nil
}
