// Package session drives the turn loop for one game: it builds the request
// for a choice, calls the transport, reduces the response into the game store
// and saves the result.
package session

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"weaver/internal/ai"
	"weaver/internal/config"
	"weaver/internal/game"
	"weaver/internal/narrative"
	"weaver/internal/store"
)

var (
	ErrTurnInProgress = errors.New("a turn is already being processed")
	ErrInvalidChoice  = errors.New("choice is not offered by the current segment")
	ErrNothingToRetry = errors.New("no failed turn to retry")
)

// GenerationError reports a failed generation. The game keeps its previous
// segment and turn count.
type GenerationError struct {
	Kind narrative.Kind
	Err  error
}

func (e *GenerationError) Error() string {
	return fmt.Sprintf("generating %s segment: %v", e.Kind, e.Err)
}

func (e *GenerationError) Unwrap() error {
	return e.Err
}

// Deps are shared by every session of a process.
type Deps struct {
	Transport ai.Transport
	// Catalog is optional; without it any non-empty era or theme is accepted.
	Catalog *config.Catalog
	// Saver is optional; without it games live only in memory.
	Saver  *store.Saver
	UserID string
	Logger *zap.Logger
	Clock  func() time.Time
}

// setupCatalog keeps a nil catalog an untyped nil so setup validation
// accepts any era or theme.
func (d Deps) setupCatalog() game.Catalog {
	if d.Catalog == nil {
		return nil
	}
	return d.Catalog
}

func (d Deps) withDefaults() Deps {
	if d.Logger == nil {
		d.Logger = zap.NewNop()
	}
	if d.Clock == nil {
		d.Clock = time.Now
	}
	return d
}

type Session struct {
	deps   Deps
	store  *game.Store
	logger *zap.Logger

	processing atomic.Bool
	// discarded stops saves after the game is deleted mid-turn.
	discarded atomic.Bool

	mu         sync.Mutex
	lastFailed *game.Choice
}

func newSession(deps Deps) *Session {
	deps = deps.withDefaults()
	return &Session{
		deps:   deps,
		store:  game.NewStore(game.WithClock(deps.Clock)),
		logger: deps.Logger,
	}
}

// Start validates setup and creates a new game from a generated opening. When
// generation fails the fallback opening becomes the first segment and the
// failure is shown through the store; the game is still created.
func Start(ctx context.Context, deps Deps, setup game.Setup) (*Session, error) {
	if errs := setup.Validate(deps.setupCatalog()); !errs.IsValid() {
		return nil, errs
	}

	s := newSession(deps)
	req := narrative.BuildOpening(setup, s.deps.Catalog)
	now := s.deps.Clock()

	state := &game.State{
		ID:      uuid.NewString(),
		UserID:  s.deps.UserID,
		Era:     setup.EraValue(),
		Theme:   setup.ThemeValue(),
		Realism: setup.Realism,
		Character: game.Character{
			Name:      strings.TrimSpace(setup.CharacterName),
			Backstory: strings.TrimSpace(setup.Backstory),
			Stats:     game.DefaultStats(),
			Inventory: []string{},
		},
		Memories:     []game.Memory{},
		WorldSystems: game.WorldSystems{},
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	logger := s.logger.With(zap.String("game_id", state.ID))

	s.store.SetLoading(true)
	resp, err := s.deps.Transport.Generate(ctx, req)

	var segment game.Segment
	if err != nil {
		logger.Warn("opening generation failed, using fallback", zap.Error(err))
		segment = game.FallbackOpening(state.Character.Name, req.EraLabel)
		if setup.GenerateBackstory && state.Character.Backstory == "" {
			state.Character.Backstory = game.FallbackBackstory(state.Character.Name, req.EraLabel)
		}
	} else {
		segment = resp.Segment()
		segment.ID = uuid.NewString()
		if setup.GenerateBackstory && resp.Backstory != "" {
			state.Character.Backstory = resp.Backstory
		}
	}
	state.CurrentSegment = &segment

	s.store.NewGame(state)
	if resp != nil {
		if resp.Memory != nil && strings.TrimSpace(resp.Memory.Title) != "" {
			s.store.AddMemory(game.Memory{
				Title:       strings.TrimSpace(resp.Memory.Title),
				Description: strings.TrimSpace(resp.Memory.Description),
				Category:    game.MemoryCategoryOpening,
			})
		}
		if err := s.applyExtras(resp); err != nil {
			logger.Warn("applying opening details", zap.Error(err))
		}
	}
	if err != nil {
		s.store.SetError((&GenerationError{Kind: narrative.KindOpening, Err: err}).Error())
	}

	logger.Info("game started",
		zap.String("era", state.Era),
		zap.String("theme", state.Theme),
		zap.Bool("fallback", err != nil))
	s.save(ctx)
	return s, nil
}

// Resume loads an existing game into a fresh session.
func Resume(deps Deps, state *game.State) (*Session, error) {
	if state == nil {
		return nil, game.ErrNoGame
	}
	if state.CurrentSegment == nil {
		return nil, fmt.Errorf("game %s has no current segment", state.ID)
	}
	s := newSession(deps)
	s.store.NewGame(state)
	return s, nil
}

func (s *Session) Store() *game.Store {
	return s.store
}

func (s *Session) Processing() bool {
	return s.processing.Load()
}

// Choose plays one turn. Fixed choices are matched by id against the segment
// on screen; custom choices carry their own text. While a turn is in flight
// it returns ErrTurnInProgress without touching the game.
func (s *Session) Choose(ctx context.Context, choice game.Choice) error {
	return s.play(ctx, choice, true)
}

// Retry re-sends the choice of the last failed turn.
func (s *Session) Retry(ctx context.Context) error {
	s.mu.Lock()
	last := s.lastFailed
	s.mu.Unlock()
	if last == nil {
		return ErrNothingToRetry
	}
	return s.play(ctx, *last, false)
}

func (s *Session) play(ctx context.Context, choice game.Choice, validate bool) error {
	if !s.processing.CompareAndSwap(false, true) {
		return ErrTurnInProgress
	}
	defer s.processing.Store(false)

	snap := s.store.Snapshot()
	if snap.Game == nil {
		return game.ErrNoGame
	}
	if validate {
		resolved, err := resolveChoice(snap, choice)
		if err != nil {
			return err
		}
		choice = resolved
	}

	state := snap.Game
	logger := s.logger.With(zap.String("game_id", state.ID), zap.Int("turn", state.TurnCount))

	req := narrative.BuildTurn(state, choice, s.deps.Catalog)
	s.store.SetLoading(true)

	resp, err := s.deps.Transport.Generate(ctx, req)
	if err != nil {
		genErr := &GenerationError{Kind: narrative.KindTurn, Err: err}
		s.store.SetError(genErr.Error())
		s.store.ShowFallback(game.FallbackSegment())

		s.mu.Lock()
		failed := choice
		s.lastFailed = &failed
		s.mu.Unlock()

		logger.Warn("turn generation failed", zap.String("choice", choice.Text), zap.Error(err))
		return genErr
	}

	if err := s.reduce(state, choice, resp); err != nil {
		s.store.SetError(err.Error())
		return fmt.Errorf("applying turn: %w", err)
	}

	s.mu.Lock()
	s.lastFailed = nil
	s.mu.Unlock()

	logger.Debug("turn applied", zap.Bool("custom", choice.IsCustom()))
	s.save(ctx)
	return nil
}

// reduce applies a response to the store. The segment goes last since it
// advances the turn and marks the store ready.
func (s *Session) reduce(prev *game.State, choice game.Choice, resp *narrative.Response) error {
	if err := s.store.AddMemory(turnMemory(prev, choice, resp)); err != nil {
		return err
	}
	if err := s.applyExtras(resp); err != nil {
		return err
	}
	return s.store.UpdateGameSegment(resp.Segment())
}

func (s *Session) applyExtras(resp *narrative.Response) error {
	for _, note := range resp.Lore {
		if strings.TrimSpace(note.Title) == "" {
			continue
		}
		err := s.store.AddLoreEntry(game.LoreEntry{
			Title:    note.Title,
			Content:  strings.TrimSpace(note.Content),
			Category: strings.TrimSpace(note.Category),
		})
		if err != nil {
			return err
		}
	}

	changes := game.CharacterChanges{
		Stats:           resp.StatChanges,
		InventoryAdd:    resp.InventoryAdd,
		InventoryRemove: resp.InventoryRemove,
	}
	if err := s.store.ApplyCharacterChanges(changes); err != nil {
		return err
	}
	if len(resp.WorldUpdates) > 0 {
		return s.store.UpdateWorldSystems(resp.WorldUpdates)
	}
	return nil
}

func (s *Session) save(ctx context.Context) {
	if s.deps.Saver == nil || s.discarded.Load() {
		return
	}
	state := s.store.Game()
	if state == nil {
		return
	}
	// The saver queues failures itself; the turn already succeeded.
	if err := s.deps.Saver.Save(context.WithoutCancel(ctx), s.deps.UserID, state); err != nil {
		s.logger.Debug("save deferred", zap.String("game_id", state.ID), zap.Error(err))
	}
}

func resolveChoice(snap game.Snapshot, choice game.Choice) (game.Choice, error) {
	segment := snap.Segment()
	if segment == nil {
		return game.Choice{}, fmt.Errorf("%w: no segment on screen", ErrInvalidChoice)
	}

	if choice.IsCustom() {
		choice = game.CustomChoice(choice.Text)
		if !segment.CustomChoiceEnabled {
			return game.Choice{}, fmt.Errorf("%w: custom actions are not enabled", ErrInvalidChoice)
		}
		if choice.Text == "" {
			return game.Choice{}, fmt.Errorf("%w: custom action is empty", ErrInvalidChoice)
		}
		return choice, nil
	}

	found, ok := segment.FindChoice(choice.ID)
	if !ok {
		return game.Choice{}, fmt.Errorf("%w: %q", ErrInvalidChoice, choice.ID)
	}
	return found, nil
}

func turnMemory(prev *game.State, choice game.Choice, resp *narrative.Response) game.Memory {
	category := game.MemoryCategoryDecision
	if choice.IsCustom() {
		category = game.MemoryCategoryCustom
	}

	memory := game.Memory{
		Title:    fmt.Sprintf("Turn %d: %s", prev.TurnCount+1, excerpt(choice.Text, 60)),
		Category: category,
	}
	if prev.CurrentSegment != nil {
		memory.Description = excerpt(prev.CurrentSegment.Text, 160)
	}
	if resp.Memory != nil {
		if title := strings.TrimSpace(resp.Memory.Title); title != "" {
			memory.Title = title
		}
		if desc := strings.TrimSpace(resp.Memory.Description); desc != "" {
			memory.Description = desc
		}
	}
	return memory
}

func excerpt(text string, limit int) string {
	text = strings.Join(strings.Fields(text), " ")
	runes := []rune(text)
	if len(runes) <= limit {
		return text
	}
	return strings.TrimSpace(string(runes[:limit])) + "..."
}
