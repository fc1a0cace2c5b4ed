package store

import (
	"context"
	"errors"

	"weaver/internal/game"
)

// ErrNotFound is returned when a game does not exist for the given user.
var ErrNotFound = errors.New("game not found")

// Store persists saved games per user. GetGame returns (nil, nil) when the
// game does not exist. Memories are append-only: PutGame inserts memories it
// has not seen and never rewrites or removes existing ones.
type Store interface {
	Close(ctx context.Context) error
	EnsureSchema(ctx context.Context) error

	GetGame(ctx context.Context, userID, gameID string) (*game.State, error)
	PutGame(ctx context.Context, userID string, state *game.State) error
	ListGames(ctx context.Context, userID string) ([]GameSummary, error)
	DeleteGame(ctx context.Context, userID, gameID string) error
}
