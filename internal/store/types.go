package store

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"weaver/internal/game"
)

type GameSummary struct {
	ID            string    `json:"id"`
	Era           string    `json:"era"`
	Theme         string    `json:"theme"`
	CharacterName string    `json:"character_name"`
	TurnCount     int       `json:"turn_count"`
	MemoryCount   int       `json:"memory_count"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}

// MemoryRecord is a memory with its position in the game's history.
type MemoryRecord struct {
	GameID   string
	Position int
	game.Memory
}

// Summarize builds the listing row for a state.
func Summarize(state *game.State) GameSummary {
	return GameSummary{
		ID:            state.ID,
		Era:           state.Era,
		Theme:         state.Theme,
		CharacterName: state.Character.Name,
		TurnCount:     state.TurnCount,
		MemoryCount:   len(state.Memories),
		CreatedAt:     state.CreatedAt,
		UpdatedAt:     state.UpdatedAt,
	}
}

// EncodeGame serializes a state without its memories, which backends keep in
// their own append-only table.
func EncodeGame(state *game.State) ([]byte, error) {
	doc := state.Clone()
	doc.Memories = nil
	data, err := json.Marshal(doc)
	if err != nil {
		return nil, fmt.Errorf("encoding game %s: %w", state.ID, err)
	}
	return data, nil
}

func DecodeGame(data []byte) (*game.State, error) {
	var state game.State
	if err := json.Unmarshal(data, &state); err != nil {
		return nil, fmt.Errorf("decoding game: %w", err)
	}
	if state.WorldSystems == nil {
		state.WorldSystems = game.WorldSystems{}
	}
	state.Memories = []game.Memory{}
	return &state, nil
}

// MemoryRecords pairs every memory of state with its position.
func MemoryRecords(state *game.State) []MemoryRecord {
	records := make([]MemoryRecord, 0, len(state.Memories))
	for i, m := range state.Memories {
		records = append(records, MemoryRecord{GameID: state.ID, Position: i, Memory: m})
	}
	return records
}

// CheckPut validates the arguments shared by every backend's PutGame.
func CheckPut(userID string, state *game.State) error {
	if strings.TrimSpace(userID) == "" {
		return fmt.Errorf("user id is required")
	}
	if state == nil {
		return fmt.Errorf("game state is required")
	}
	if strings.TrimSpace(state.ID) == "" {
		return fmt.Errorf("game id is required")
	}
	for i, m := range state.Memories {
		if strings.TrimSpace(m.ID) == "" {
			return fmt.Errorf("memory %d has no id", i)
		}
	}
	return nil
}
