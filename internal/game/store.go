package game

import (
	"errors"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
)

// ErrNoGame is returned by actions that need a loaded game.
var ErrNoGame = errors.New("no game loaded")

// Phase is the per-turn state of the store.
type Phase string

const (
	PhaseIdle             Phase = "idle"
	PhaseAwaitingResponse Phase = "awaiting_response"
	PhaseReady            Phase = "ready"
	PhaseFailed           Phase = "failed"
)

// Snapshot is a read-only copy of the store handed to subscribers.
type Snapshot struct {
	Game     *State
	Phase    Phase
	Loading  bool
	Error    string
	Fallback *Segment
}

// Segment returns what the player should see: the fallback while a failure is
// shown, otherwise the current segment.
func (s Snapshot) Segment() *Segment {
	if s.Fallback != nil {
		return s.Fallback
	}
	if s.Game == nil {
		return nil
	}
	return s.Game.CurrentSegment
}

type Option func(*Store)

func WithClock(now func() time.Time) Option {
	return func(s *Store) {
		s.now = now
	}
}

// Store is the single mutable container for one game. All mutation goes
// through its actions; readers get copies.
type Store struct {
	mu       sync.Mutex
	game     *State
	phase    Phase
	loading  bool
	err      string
	fallback *Segment

	now    func() time.Time
	nextID int
	subs   map[int]func(Snapshot)
}

func NewStore(opts ...Option) *Store {
	s := &Store{
		phase: PhaseIdle,
		now:   time.Now,
		subs:  make(map[int]func(Snapshot)),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Subscribe registers fn for change notifications and returns its
// unsubscribe function.
func (s *Store) Subscribe(fn func(Snapshot)) func() {
	s.mu.Lock()
	id := s.nextID
	s.nextID++
	s.subs[id] = fn
	s.mu.Unlock()

	return func() {
		s.mu.Lock()
		delete(s.subs, id)
		s.mu.Unlock()
	}
}

func (s *Store) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snapshotLocked()
}

// Game returns a copy of the loaded game, or nil.
func (s *Store) Game() *State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.game.Clone()
}

func (s *Store) NewGame(state *State) {
	s.update(func() error {
		s.game = state.Clone()
		if s.game.WorldSystems == nil {
			s.game.WorldSystems = WorldSystems{}
		}
		s.phase = PhaseReady
		s.loading = false
		s.err = ""
		s.fallback = nil
		return nil
	})
}

func (s *Store) Clear() {
	s.update(func() error {
		s.game = nil
		s.phase = PhaseIdle
		s.loading = false
		s.err = ""
		s.fallback = nil
		return nil
	})
}

// UpdateGameSegment replaces the current segment, advances the turn counter
// and enables custom input for the next round.
func (s *Store) UpdateGameSegment(segment Segment) error {
	return s.update(func() error {
		if s.game == nil {
			return ErrNoGame
		}
		next := segment.Clone()
		if next.ID == "" {
			next.ID = uuid.NewString()
		}
		next.CustomChoiceEnabled = true
		s.game.CurrentSegment = next
		s.game.TurnCount++
		s.game.UpdatedAt = s.now()
		s.phase = PhaseReady
		s.loading = false
		s.err = ""
		s.fallback = nil
		return nil
	})
}

// AddMemory appends to the memory log.
func (s *Store) AddMemory(memory Memory) error {
	return s.update(func() error {
		if s.game == nil {
			return ErrNoGame
		}
		if memory.ID == "" {
			memory.ID = uuid.NewString()
		}
		if memory.Timestamp.IsZero() {
			memory.Timestamp = s.now()
		}
		s.game.Memories = append(s.game.Memories, memory)
		return nil
	})
}

// AddLoreEntry records a lore entry unless one with the same title exists.
func (s *Store) AddLoreEntry(entry LoreEntry) error {
	return s.update(func() error {
		if s.game == nil {
			return ErrNoGame
		}
		title := strings.TrimSpace(entry.Title)
		if title == "" {
			return errors.New("lore entry title is required")
		}
		for _, existing := range s.game.LoreEntries {
			if strings.EqualFold(existing.Title, title) {
				return nil
			}
		}
		entry.Title = title
		if entry.ID == "" {
			entry.ID = uuid.NewString()
		}
		if entry.DiscoveredAt.IsZero() {
			entry.DiscoveredAt = s.now()
		}
		entry.Tags = append([]string(nil), entry.Tags...)
		s.game.LoreEntries = append(s.game.LoreEntries, entry)
		return nil
	})
}

func (s *Store) UpdateCharacterBackstory(backstory string) error {
	return s.update(func() error {
		if s.game == nil {
			return ErrNoGame
		}
		s.game.Character.Backstory = strings.TrimSpace(backstory)
		return nil
	})
}

func (s *Store) ApplyCharacterChanges(changes CharacterChanges) error {
	return s.update(func() error {
		if s.game == nil {
			return ErrNoGame
		}
		for name, delta := range changes.Stats {
			s.game.Character.Stats.Apply(name, delta)
		}
		s.game.Character.Inventory = removeItems(s.game.Character.Inventory, changes.InventoryRemove)
		for _, item := range changes.InventoryAdd {
			item = strings.TrimSpace(item)
			if item == "" || containsFold(s.game.Character.Inventory, item) {
				continue
			}
			s.game.Character.Inventory = append(s.game.Character.Inventory, item)
		}
		return nil
	})
}

func (s *Store) UpdateWorldSystems(updates map[string]string) error {
	return s.update(func() error {
		if s.game == nil {
			return ErrNoGame
		}
		if s.game.WorldSystems == nil {
			s.game.WorldSystems = WorldSystems{}
		}
		for key, value := range updates {
			key = strings.ToLower(strings.TrimSpace(key))
			if key == "" {
				continue
			}
			s.game.WorldSystems[key] = value
		}
		return nil
	})
}

// SetLoading marks a request in flight. Starting a request clears any shown
// failure.
func (s *Store) SetLoading(loading bool) {
	s.update(func() error {
		s.loading = loading
		if loading {
			s.phase = PhaseAwaitingResponse
			s.err = ""
			s.fallback = nil
		} else if s.phase == PhaseAwaitingResponse {
			s.phase = PhaseIdle
		}
		return nil
	})
}

func (s *Store) SetError(message string) {
	s.update(func() error {
		s.err = message
		s.loading = false
		s.phase = PhaseFailed
		return nil
	})
}

// ShowFallback sets the segment rendered in place of the current one while a
// failure is displayed. The game itself is untouched.
func (s *Store) ShowFallback(segment Segment) {
	s.update(func() error {
		s.fallback = segment.Clone()
		return nil
	})
}

func (s *Store) update(fn func() error) error {
	s.mu.Lock()
	if err := fn(); err != nil {
		s.mu.Unlock()
		return err
	}
	snap := s.snapshotLocked()
	subs := make([]func(Snapshot), 0, len(s.subs))
	for _, sub := range s.subs {
		subs = append(subs, sub)
	}
	s.mu.Unlock()

	for _, sub := range subs {
		sub(snap)
	}
	return nil
}

func (s *Store) snapshotLocked() Snapshot {
	return Snapshot{
		Game:     s.game.Clone(),
		Phase:    s.phase,
		Loading:  s.loading,
		Error:    s.err,
		Fallback: s.fallback.Clone(),
	}
}

func removeItems(items, remove []string) []string {
	if len(remove) == 0 {
		return items
	}
	out := items[:0:0]
	for _, item := range items {
		if containsFold(remove, item) {
			continue
		}
		out = append(out, item)
	}
	return out
}

func containsFold(values []string, target string) bool {
	for _, value := range values {
		if strings.EqualFold(strings.TrimSpace(value), strings.TrimSpace(target)) {
			return true
		}
	}
	return false
}
