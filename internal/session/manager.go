package session

import (
	"context"
	"fmt"
	"sync"

	"weaver/internal/game"
	"weaver/internal/store"
)

// Manager keeps the sessions of one user, loading saved games on demand.
type Manager struct {
	deps  Deps
	games store.Store

	mu       sync.Mutex
	sessions map[string]*Session
}

func NewManager(deps Deps, games store.Store) *Manager {
	return &Manager{
		deps:     deps.withDefaults(),
		games:    games,
		sessions: make(map[string]*Session),
	}
}

func (m *Manager) Start(ctx context.Context, setup game.Setup) (*Session, error) {
	s, err := Start(ctx, m.deps, setup)
	if err != nil {
		return nil, err
	}
	state := s.Store().Game()

	m.mu.Lock()
	m.sessions[state.ID] = s
	m.mu.Unlock()
	return s, nil
}

// Get returns the live session for gameID, resuming it from storage when it
// is not loaded. Missing games yield store.ErrNotFound.
func (m *Manager) Get(ctx context.Context, gameID string) (*Session, error) {
	m.mu.Lock()
	s, ok := m.sessions[gameID]
	m.mu.Unlock()
	if ok {
		return s, nil
	}

	if m.games == nil {
		return nil, store.ErrNotFound
	}
	state, err := m.games.GetGame(ctx, m.deps.UserID, gameID)
	if err != nil {
		return nil, fmt.Errorf("loading game %s: %w", gameID, err)
	}
	if state == nil {
		return nil, store.ErrNotFound
	}

	s, err = Resume(m.deps, state)
	if err != nil {
		return nil, err
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if existing, ok := m.sessions[gameID]; ok {
		return existing, nil
	}
	m.sessions[gameID] = s
	return s, nil
}

func (m *Manager) List(ctx context.Context) ([]store.GameSummary, error) {
	if m.games == nil {
		return []store.GameSummary{}, nil
	}
	return m.games.ListGames(ctx, m.deps.UserID)
}

// Delete removes a game with all of its memories and drops any queued save.
func (m *Manager) Delete(ctx context.Context, gameID string) error {
	if m.deps.Saver != nil {
		m.deps.Saver.Forget(gameID)
	}

	m.mu.Lock()
	s, live := m.sessions[gameID]
	delete(m.sessions, gameID)
	m.mu.Unlock()
	if live {
		s.discarded.Store(true)
	}

	if m.games == nil {
		if !live {
			return store.ErrNotFound
		}
		return nil
	}
	if err := m.games.DeleteGame(ctx, m.deps.UserID, gameID); err != nil {
		return fmt.Errorf("deleting game %s: %w", gameID, err)
	}
	return nil
}
