package store

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"weaver/internal/game"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

type flakyStore struct {
	mu     sync.Mutex
	fail   bool
	puts   int
	saved  map[string]*game.State
	putErr error

	// When set, PutGame reports on started and waits for release.
	started chan struct{}
	release chan struct{}
}

func newFlakyStore() *flakyStore {
	return &flakyStore{saved: map[string]*game.State{}, putErr: errors.New("connection refused")}
}

func (f *flakyStore) setFail(fail bool) {
	f.mu.Lock()
	f.fail = fail
	f.mu.Unlock()
}

func (f *flakyStore) turn(id string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	if s, ok := f.saved[id]; ok {
		return s.TurnCount
	}
	return -1
}

func (f *flakyStore) Close(context.Context) error        { return nil }
func (f *flakyStore) EnsureSchema(context.Context) error { return nil }

func (f *flakyStore) GetGame(_ context.Context, _, gameID string) (*game.State, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.saved[gameID], nil
}

func (f *flakyStore) PutGame(_ context.Context, _ string, state *game.State) error {
	f.mu.Lock()
	started, release := f.started, f.release
	f.mu.Unlock()
	if started != nil {
		started <- struct{}{}
		<-release
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	f.puts++
	if f.fail {
		return f.putErr
	}
	f.saved[state.ID] = state.Clone()
	return nil
}

func (f *flakyStore) putCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.puts
}

func (f *flakyStore) ListGames(context.Context, string) ([]GameSummary, error) { return nil, nil }
func (f *flakyStore) DeleteGame(context.Context, string, string) error         { return nil }

func testState(id string, turn int) *game.State {
	return &game.State{ID: id, TurnCount: turn, Character: game.Character{Name: "Livia"}}
}

func TestSaverSave(t *testing.T) {
	t.Run("success writes through", func(t *testing.T) {
		fs := newFlakyStore()
		saver := NewSaver(fs)

		require.NoError(t, saver.Save(context.Background(), "u1", testState("g1", 1)))
		assert.Equal(t, 1, fs.turn("g1"))
		assert.Equal(t, 0, saver.Pending())
	})

	t.Run("failure queues latest state per game", func(t *testing.T) {
		fs := newFlakyStore()
		fs.setFail(true)
		saver := NewSaver(fs)

		assert.Error(t, saver.Save(context.Background(), "u1", testState("g1", 1)))
		assert.Error(t, saver.Save(context.Background(), "u1", testState("g1", 2)))
		assert.Error(t, saver.Save(context.Background(), "u1", testState("g2", 1)))
		assert.Equal(t, 2, saver.Pending())

		fs.setFail(false)
		require.NoError(t, saver.Flush(context.Background()))
		assert.Equal(t, 0, saver.Pending())
		assert.Equal(t, 2, fs.turn("g1"))
		assert.Equal(t, 1, fs.turn("g2"))
	})

	t.Run("newer save supersedes queued state", func(t *testing.T) {
		fs := newFlakyStore()
		fs.setFail(true)
		saver := NewSaver(fs)

		assert.Error(t, saver.Save(context.Background(), "u1", testState("g1", 1)))
		fs.setFail(false)
		require.NoError(t, saver.Save(context.Background(), "u1", testState("g1", 2)))
		assert.Equal(t, 0, saver.Pending())

		require.NoError(t, saver.Flush(context.Background()))
		assert.Equal(t, 2, fs.turn("g1"))
	})

	t.Run("forget drops queued write", func(t *testing.T) {
		fs := newFlakyStore()
		fs.setFail(true)
		saver := NewSaver(fs)

		assert.Error(t, saver.Save(context.Background(), "u1", testState("g1", 1)))
		saver.Forget("g1")
		fs.setFail(false)
		require.NoError(t, saver.Flush(context.Background()))
		assert.Equal(t, -1, fs.turn("g1"))
	})

	t.Run("forget during a failing write keeps the game out of the queue", func(t *testing.T) {
		fs := newFlakyStore()
		fs.setFail(true)
		fs.started = make(chan struct{})
		fs.release = make(chan struct{})
		saver := NewSaver(fs)

		saved := make(chan error, 1)
		go func() { saved <- saver.Save(context.Background(), "u1", testState("g1", 4)) }()
		<-fs.started

		forgotten := make(chan struct{})
		go func() {
			saver.Forget("g1")
			close(forgotten)
		}()

		close(fs.release)
		<-saved
		<-forgotten

		assert.Equal(t, 0, saver.Pending())
		require.NoError(t, saver.Flush(context.Background()))
		assert.Equal(t, 1, fs.putCount())
		assert.Equal(t, -1, fs.turn("g1"))
	})

	t.Run("save after forget is dropped", func(t *testing.T) {
		fs := newFlakyStore()
		saver := NewSaver(fs)

		saver.Forget("g1")
		require.NoError(t, saver.Save(context.Background(), "u1", testState("g1", 5)))
		assert.Equal(t, 0, fs.putCount())
		assert.Equal(t, 0, saver.Pending())
		assert.Equal(t, -1, fs.turn("g1"))
	})

	t.Run("queued state is a snapshot", func(t *testing.T) {
		fs := newFlakyStore()
		fs.setFail(true)
		saver := NewSaver(fs)

		state := testState("g1", 1)
		assert.Error(t, saver.Save(context.Background(), "u1", state))
		state.TurnCount = 9

		fs.setFail(false)
		require.NoError(t, saver.Flush(context.Background()))
		assert.Equal(t, 1, fs.turn("g1"))
	})
}

func TestSaverRun(t *testing.T) {
	fs := newFlakyStore()
	fs.setFail(true)
	saver := NewSaver(fs, WithRetryInterval(5*time.Millisecond, 20*time.Millisecond))

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- saver.Run(ctx) }()

	assert.Error(t, saver.Save(context.Background(), "u1", testState("g1", 3)))
	time.Sleep(30 * time.Millisecond)
	fs.setFail(false)

	require.Eventually(t, func() bool { return saver.Pending() == 0 }, 2*time.Second, 5*time.Millisecond)
	assert.Equal(t, 3, fs.turn("g1"))

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(time.Second):
		t.Fatal("saver did not stop")
	}
}
