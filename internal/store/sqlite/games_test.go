package sqlite

import (
	"context"
	"errors"
	"testing"
	"time"

	"weaver/internal/game"
	"weaver/internal/store"
)

func newTestClient(t *testing.T) *Client {
	t.Helper()
	ctx := context.Background()
	client, err := New(ctx, "sqlite://:memory:")
	if err != nil {
		t.Fatalf("opening sqlite: %v", err)
	}
	t.Cleanup(func() { client.Close(ctx) })
	if err := client.EnsureSchema(ctx); err != nil {
		t.Fatalf("ensuring schema: %v", err)
	}
	return client
}

func sampleGame(id string, turn int, at time.Time) *game.State {
	state := &game.State{
		ID:        id,
		Era:       "ancient_rome",
		Theme:     "political",
		Realism:   50,
		Character: game.Character{Name: "Livia", Stats: game.DefaultStats(), Inventory: []string{"Signet ring"}},
		TurnCount: turn,
		CurrentSegment: &game.Segment{
			ID:                  "seg-1",
			Text:                "The Senate gathers.",
			Choices:             []game.Choice{{ID: "1", Text: "Speak"}},
			CustomChoiceEnabled: true,
		},
		WorldSystems: game.WorldSystems{"politics": "tense"},
		CreatedAt:    at,
		UpdatedAt:    at,
	}
	for i := 0; i < turn; i++ {
		state.Memories = append(state.Memories, game.Memory{
			ID:        string(rune('a' + i)),
			Title:     "turn",
			Category:  game.MemoryCategoryDecision,
			Timestamp: at,
		})
	}
	return state
}

func TestGameRoundTrip(t *testing.T) {
	ctx := context.Background()
	client := newTestClient(t)
	at := time.Date(2024, 3, 15, 12, 0, 0, 0, time.UTC)

	t.Run("missing game", func(t *testing.T) {
		got, err := client.GetGame(ctx, "u1", "nope")
		if err != nil || got != nil {
			t.Fatalf("expected (nil, nil), got (%v, %v)", got, err)
		}
	})

	t.Run("put and get", func(t *testing.T) {
		if err := client.PutGame(ctx, "u1", sampleGame("g1", 2, at)); err != nil {
			t.Fatalf("put: %v", err)
		}
		got, err := client.GetGame(ctx, "u1", "g1")
		if err != nil {
			t.Fatalf("get: %v", err)
		}
		if got.Character.Name != "Livia" || got.TurnCount != 2 || got.CurrentSegment == nil {
			t.Fatalf("unexpected game: %+v", got)
		}
		if len(got.Memories) != 2 || got.Memories[0].ID != "a" || !got.Memories[0].Timestamp.Equal(at) {
			t.Fatalf("unexpected memories: %+v", got.Memories)
		}
		if got.WorldSystems["politics"] != "tense" {
			t.Fatalf("unexpected world systems: %+v", got.WorldSystems)
		}
	})

	t.Run("other user cannot read", func(t *testing.T) {
		got, err := client.GetGame(ctx, "u2", "g1")
		if err != nil || got != nil {
			t.Fatalf("expected no game for other user, got (%v, %v)", got, err)
		}
	})

	t.Run("other user cannot overwrite", func(t *testing.T) {
		err := client.PutGame(ctx, "u2", sampleGame("g1", 5, at))
		if !errors.Is(err, store.ErrNotFound) {
			t.Fatalf("expected ErrNotFound, got %v", err)
		}
	})

	t.Run("memories are append-only", func(t *testing.T) {
		later := sampleGame("g1", 3, at.Add(time.Hour))
		later.Memories[0].Title = "rewritten"
		if err := client.PutGame(ctx, "u1", later); err != nil {
			t.Fatalf("put: %v", err)
		}

		shrunk := sampleGame("g1", 3, at.Add(2*time.Hour))
		shrunk.Memories = shrunk.Memories[:1]
		if err := client.PutGame(ctx, "u1", shrunk); err != nil {
			t.Fatalf("put: %v", err)
		}

		got, err := client.GetGame(ctx, "u1", "g1")
		if err != nil {
			t.Fatalf("get: %v", err)
		}
		if len(got.Memories) != 3 {
			t.Fatalf("expected 3 memories, got %d", len(got.Memories))
		}
		if got.Memories[0].Title != "turn" {
			t.Fatalf("existing memory was rewritten: %+v", got.Memories[0])
		}
	})
}

func TestListAndDeleteGames(t *testing.T) {
	ctx := context.Background()
	client := newTestClient(t)
	at := time.Date(2024, 3, 15, 12, 0, 0, 0, time.UTC)

	for i, id := range []string{"g1", "g2"} {
		if err := client.PutGame(ctx, "u1", sampleGame(id, i+1, at.Add(time.Duration(i)*time.Minute))); err != nil {
			t.Fatalf("put %s: %v", id, err)
		}
	}
	if err := client.PutGame(ctx, "u2", sampleGame("g3", 1, at)); err != nil {
		t.Fatalf("put g3: %v", err)
	}

	games, err := client.ListGames(ctx, "u1")
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(games) != 2 || games[0].ID != "g2" || games[0].MemoryCount != 2 {
		t.Fatalf("unexpected listing: %+v", games)
	}

	empty, err := client.ListGames(ctx, "nobody")
	if err != nil || empty == nil || len(empty) != 0 {
		t.Fatalf("expected empty non-nil listing, got %v (%v)", empty, err)
	}

	if err := client.DeleteGame(ctx, "u2", "g2"); !errors.Is(err, store.ErrNotFound) {
		t.Fatalf("expected ErrNotFound deleting another user's game, got %v", err)
	}
	if err := client.DeleteGame(ctx, "u1", "g2"); err != nil {
		t.Fatalf("delete: %v", err)
	}

	var remaining int
	if err := client.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM memories WHERE game_id = 'g2'`).Scan(&remaining); err != nil {
		t.Fatalf("counting memories: %v", err)
	}
	if remaining != 0 {
		t.Fatalf("expected memories deleted with game, %d remain", remaining)
	}

	got, err := client.GetGame(ctx, "u1", "g2")
	if err != nil || got != nil {
		t.Fatalf("expected deleted game to be gone, got (%v, %v)", got, err)
	}
}
