package store

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/cenkalti/backoff/v5"
	"go.uber.org/zap"

	"weaver/internal/game"
)

const (
	DefaultSaveTimeout  = 10 * time.Second
	DefaultRetryInitial = 5 * time.Second
	DefaultRetryMax     = 2 * time.Minute
)

type SaverOption func(*Saver)

func WithSaveTimeout(d time.Duration) SaverOption {
	return func(s *Saver) {
		if d > 0 {
			s.timeout = d
		}
	}
}

func WithRetryInterval(initial, max time.Duration) SaverOption {
	return func(s *Saver) {
		if initial > 0 {
			s.retryInitial = initial
		}
		if max > 0 {
			s.retryMax = max
		}
	}
}

func WithLogger(logger *zap.Logger) SaverOption {
	return func(s *Saver) {
		if logger != nil {
			s.logger = logger
		}
	}
}

type pendingSave struct {
	userID string
	state  *game.State
	seq    uint64
}

// Saver writes games best-effort. A failed write is queued in memory, keyed
// by game, and retried by Run or Flush. Only the newest state of a game is
// kept. Queued writes are lost if the process exits. Once a game is
// forgotten, no later or in-flight save writes it again.
type Saver struct {
	store        Store
	logger       *zap.Logger
	timeout      time.Duration
	retryInitial time.Duration
	retryMax     time.Duration

	// writeMu serializes writes so an older queued state never lands after a
	// newer one.
	writeMu sync.Mutex

	mu      sync.Mutex
	seq     uint64
	pending map[string]pendingSave
	wake    chan struct{}

	// forgotten holds the seq at which each deleted game was forgotten.
	forgotten map[string]uint64
}

func NewSaver(store Store, opts ...SaverOption) *Saver {
	s := &Saver{
		store:        store,
		logger:       zap.NewNop(),
		timeout:      DefaultSaveTimeout,
		retryInitial: DefaultRetryInitial,
		retryMax:     DefaultRetryMax,
		pending:      make(map[string]pendingSave),
		forgotten:    make(map[string]uint64),
		wake:         make(chan struct{}, 1),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Save writes state once. On failure the state is queued for retry and the
// error is returned for the caller to report; gameplay continues either way.
func (s *Saver) Save(ctx context.Context, userID string, state *game.State) error {
	if state == nil {
		return fmt.Errorf("game state is required")
	}
	snapshot := state.Clone()

	s.mu.Lock()
	s.seq++
	seq := s.seq
	s.mu.Unlock()

	s.writeMu.Lock()
	if s.isForgotten(snapshot.ID) {
		s.writeMu.Unlock()
		s.logger.Debug("save skipped for deleted game", zap.String("game_id", snapshot.ID))
		return nil
	}
	err := s.put(ctx, userID, snapshot)
	s.writeMu.Unlock()

	s.mu.Lock()
	defer s.mu.Unlock()
	if _, gone := s.forgotten[snapshot.ID]; gone {
		return nil
	}
	current, queued := s.pending[snapshot.ID]
	if err == nil {
		if queued && current.seq < seq {
			delete(s.pending, snapshot.ID)
		}
		return nil
	}

	if !queued || current.seq < seq {
		s.pending[snapshot.ID] = pendingSave{userID: userID, state: snapshot, seq: seq}
	}
	s.logger.Warn("saving game failed, queued for retry",
		zap.String("game_id", snapshot.ID),
		zap.Int("turn", snapshot.TurnCount),
		zap.Error(err))
	s.signal()
	return fmt.Errorf("saving game %s: %w", snapshot.ID, err)
}

// Flush retries every queued write once.
func (s *Saver) Flush(ctx context.Context) error {
	s.mu.Lock()
	queue := make([]pendingSave, 0, len(s.pending))
	for _, p := range s.pending {
		queue = append(queue, p)
	}
	s.mu.Unlock()

	var errs []error
	for _, p := range queue {
		if err := s.retry(ctx, p); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func (s *Saver) retry(ctx context.Context, p pendingSave) error {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	if !s.isCurrent(p) {
		return nil
	}
	if err := s.put(ctx, p.userID, p.state); err != nil {
		return fmt.Errorf("retrying save of game %s: %w", p.state.ID, err)
	}

	s.mu.Lock()
	if current, ok := s.pending[p.state.ID]; ok && current.seq == p.seq {
		delete(s.pending, p.state.ID)
	}
	s.mu.Unlock()

	s.logger.Info("queued game saved", zap.String("game_id", p.state.ID), zap.Int("turn", p.state.TurnCount))
	return nil
}

func (s *Saver) isCurrent(p pendingSave) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, gone := s.forgotten[p.state.ID]; gone {
		return false
	}
	current, ok := s.pending[p.state.ID]
	return ok && current.seq == p.seq
}

func (s *Saver) isForgotten(gameID string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, gone := s.forgotten[gameID]
	return gone
}

// Forget drops any queued write for a game and refuses every later save of
// it. It waits for a write already in flight, so a delete issued after
// Forget returns lands after that write.
func (s *Saver) Forget(gameID string) {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	s.mu.Lock()
	delete(s.pending, gameID)
	s.forgotten[gameID] = s.seq
	s.mu.Unlock()
}

func (s *Saver) Pending() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.pending)
}

// Run retries queued writes with exponential backoff until ctx is done.
func (s *Saver) Run(ctx context.Context) error {
	bo := backoff.NewExponentialBackOff()
	bo.InitialInterval = s.retryInitial
	bo.MaxInterval = s.retryMax
	bo.Reset()

	var (
		timer *time.Timer
		retry <-chan time.Time
	)
	defer func() {
		if timer != nil {
			timer.Stop()
		}
	}()

	for {
		if retry == nil && s.Pending() > 0 {
			timer = time.NewTimer(bo.NextBackOff())
			retry = timer.C
		}

		select {
		case <-ctx.Done():
			return nil
		case <-s.wake:
		case <-retry:
			retry = nil
			if err := s.Flush(ctx); err != nil {
				s.logger.Debug("retry pass incomplete", zap.Int("pending", s.Pending()), zap.Error(err))
				continue
			}
			bo.Reset()
		}
	}
}

func (s *Saver) put(ctx context.Context, userID string, state *game.State) error {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()
	return s.store.PutGame(ctx, userID, state)
}

func (s *Saver) signal() {
	select {
	case s.wake <- struct{}{}:
	default:
	}
}
