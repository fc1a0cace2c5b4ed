package firestore

import (
	"context"
	"errors"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"

	"weaver/internal/game"
	"weaver/internal/store"
)

// Runs against the Firestore emulator when FIRESTORE_EMULATOR_HOST is set.
func TestGamesAgainstEmulator(t *testing.T) {
	if os.Getenv("FIRESTORE_EMULATOR_HOST") == "" {
		t.Skip("FIRESTORE_EMULATOR_HOST not set")
	}
	ctx := context.Background()
	client, err := New(ctx, "weaver-test", "")
	if err != nil {
		t.Fatalf("creating client: %v", err)
	}
	defer client.Close(ctx)

	userID := uuid.NewString()
	at := time.Now().UTC().Truncate(time.Millisecond)
	state := &game.State{
		ID:             uuid.NewString(),
		Era:            "ancient_rome",
		Character:      game.Character{Name: "Livia"},
		TurnCount:      1,
		CurrentSegment: &game.Segment{Text: "The Senate gathers.", Choices: []game.Choice{{ID: "1", Text: "Speak"}}},
		Memories:       []game.Memory{{ID: "m1", Title: "Arrival", Timestamp: at}},
		CreatedAt:      at,
		UpdatedAt:      at,
	}

	if err := client.PutGame(ctx, userID, state); err != nil {
		t.Fatalf("put: %v", err)
	}
	state.Memories[0].Title = "rewritten"
	if err := client.PutGame(ctx, userID, state); err != nil {
		t.Fatalf("second put: %v", err)
	}

	got, err := client.GetGame(ctx, userID, state.ID)
	if err != nil || got == nil {
		t.Fatalf("get: (%v, %v)", got, err)
	}
	if len(got.Memories) != 1 || got.Memories[0].Title != "Arrival" {
		t.Fatalf("expected original memory, got %+v", got.Memories)
	}

	games, err := client.ListGames(ctx, userID)
	if err != nil || len(games) != 1 {
		t.Fatalf("list: (%v, %v)", games, err)
	}

	if err := client.DeleteGame(ctx, userID, state.ID); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if err := client.DeleteGame(ctx, userID, state.ID); !errors.Is(err, store.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestNewMemories(t *testing.T) {
	state := &game.State{ID: "g1", Memories: []game.Memory{{ID: "a"}, {ID: "b"}, {ID: "c"}}}
	records := store.MemoryRecords(state)

	tests := []struct {
		name   string
		stored int
		want   []string
	}{
		{name: "new game", stored: 0, want: []string{"a", "b", "c"}},
		{name: "one turn since last save", stored: 2, want: []string{"c"}},
		{name: "nothing new", stored: 3, want: nil},
		{name: "stored ahead of state", stored: 5, want: nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var got []string
			for _, r := range newMemories(records, tt.stored) {
				got = append(got, r.ID)
			}
			if len(got) != len(tt.want) {
				t.Fatalf("got %v, want %v", got, tt.want)
			}
			for i := range got {
				if got[i] != tt.want[i] {
					t.Fatalf("got %v, want %v", got, tt.want)
				}
			}
			if len(got) > 0 && records[tt.stored].Position != tt.stored {
				t.Fatalf("first new record position = %d, want %d", records[tt.stored].Position, tt.stored)
			}
		})
	}
}
