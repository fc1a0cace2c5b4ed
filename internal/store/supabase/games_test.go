package supabase

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func fakePostgREST(t *testing.T, tables map[string]string) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		table := strings.TrimPrefix(r.URL.Path, "/rest/v1/")
		body, ok := tables[table]
		if !ok || r.Method != http.MethodGet {
			http.Error(w, `{"message":"unexpected request"}`, http.StatusBadRequest)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(body))
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestGetGame(t *testing.T) {
	ctx := context.Background()

	t.Run("decodes game and memories", func(t *testing.T) {
		srv := fakePostgREST(t, map[string]string{
			"games": `[{"data": {"id": "g1", "era": "ancient_rome", "character": {"name": "Livia"}, "turn_count": 1,
				"current_segment": {"id": "s1", "text": "The Senate gathers.", "choices": [{"id": "1", "text": "Speak"}]}}}]`,
			"memories": `[{"id": "m1", "title": "Arrival", "description": "You reached Rome.", "category": "decision",
				"created_at": "2024-03-15T12:00:00+00:00"}]`,
		})
		client, err := New(srv.URL, "anon-key")
		if err != nil {
			t.Fatalf("creating client: %v", err)
		}

		state, err := client.GetGame(ctx, "u1", "g1")
		if err != nil {
			t.Fatalf("get: %v", err)
		}
		if state == nil || state.Character.Name != "Livia" || state.CurrentSegment == nil {
			t.Fatalf("unexpected state: %+v", state)
		}
		if len(state.Memories) != 1 || state.Memories[0].Title != "Arrival" || state.Memories[0].Timestamp.IsZero() {
			t.Fatalf("unexpected memories: %+v", state.Memories)
		}
	})

	t.Run("missing game", func(t *testing.T) {
		srv := fakePostgREST(t, map[string]string{"games": `[]`})
		client, err := New(srv.URL, "anon-key")
		if err != nil {
			t.Fatalf("creating client: %v", err)
		}
		state, err := client.GetGame(ctx, "u1", "nope")
		if err != nil || state != nil {
			t.Fatalf("expected (nil, nil), got (%v, %v)", state, err)
		}
	})
}

func TestNewRequiresCredentials(t *testing.T) {
	if _, err := New("", "key"); err == nil {
		t.Fatal("expected error without url")
	}
	if _, err := New("https://example.supabase.co", ""); err == nil {
		t.Fatal("expected error without key")
	}
}
