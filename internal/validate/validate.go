// Package validate checks saved games for broken invariants.
package validate

import (
	"context"
	"fmt"
	"strings"

	"weaver/internal/config"
	"weaver/internal/game"
	"weaver/internal/store"
)

type Severity string

const (
	SeverityError Severity = "error"
	SeverityWarn  Severity = "warning"
)

const (
	codeMissingName      = "missing_character_name"
	codeMissingSegment   = "missing_segment"
	codeNoChoices        = "segment_without_choices"
	codeMemoriesBehind   = "memories_behind_turns"
	codeDuplicateMemory  = "duplicate_memory_id"
	codeStatsOutOfRange  = "stats_out_of_range"
	codeNegativeTurn     = "negative_turn_count"
	codeCustomEra        = "custom_era"
	codeCustomTheme      = "custom_theme"
	codeFallbackSegment  = "fallback_segment"
	codeUnreadableRecord = "unreadable_game"
)

type Issue struct {
	Severity  Severity
	Code      string
	Message   string
	GameID    string
	Character string
}

type Report struct {
	Games  int
	Issues []Issue
}

func (r *Report) HasErrors() bool {
	for _, issue := range r.Issues {
		if issue.Severity == SeverityError {
			return true
		}
	}
	return false
}

// GameSource is the subset of store.Store the validator reads.
type GameSource interface {
	ListGames(ctx context.Context, userID string) ([]store.GameSummary, error)
	GetGame(ctx context.Context, userID, gameID string) (*game.State, error)
}

// Run checks every saved game of userID.
func Run(ctx context.Context, catalog *config.Catalog, source GameSource, userID string) (*Report, error) {
	if source == nil {
		return nil, fmt.Errorf("game store is required")
	}

	summaries, err := source.ListGames(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("list games: %w", err)
	}

	report := &Report{Issues: make([]Issue, 0)}
	for _, summary := range summaries {
		state, err := source.GetGame(ctx, userID, summary.ID)
		if err != nil {
			report.Issues = append(report.Issues, Issue{
				Severity:  SeverityError,
				Code:      codeUnreadableRecord,
				Message:   fmt.Sprintf("cannot load game: %v", err),
				GameID:    summary.ID,
				Character: summary.CharacterName,
			})
			continue
		}
		if state == nil {
			continue
		}
		report.Games++
		report.Issues = append(report.Issues, Check(state, catalog)...)
	}

	return report, nil
}

// Check returns the issues of a single game.
func Check(state *game.State, catalog *config.Catalog) []Issue {
	var issues []Issue
	add := func(severity Severity, code, message string) {
		issues = append(issues, Issue{
			Severity:  severity,
			Code:      code,
			Message:   message,
			GameID:    state.ID,
			Character: state.Character.Name,
		})
	}

	if strings.TrimSpace(state.Character.Name) == "" {
		add(SeverityError, codeMissingName, "character has no name")
	}
	if state.TurnCount < 0 {
		add(SeverityError, codeNegativeTurn, fmt.Sprintf("turn count is %d", state.TurnCount))
	}

	switch {
	case state.CurrentSegment == nil:
		add(SeverityError, codeMissingSegment, "game has no current segment")
	case len(state.CurrentSegment.Choices) == 0:
		add(SeverityError, codeNoChoices, "current segment offers no choices")
	case strings.HasPrefix(state.CurrentSegment.ID, "fallback-"):
		add(SeverityWarn, codeFallbackSegment, "current segment is a fallback; the opening was never generated")
	}

	if len(state.Memories) < state.TurnCount {
		add(SeverityError, codeMemoriesBehind,
			fmt.Sprintf("%d memories for %d turns", len(state.Memories), state.TurnCount))
	}
	seen := make(map[string]bool, len(state.Memories))
	for _, m := range state.Memories {
		if seen[m.ID] {
			add(SeverityError, codeDuplicateMemory, fmt.Sprintf("memory id %s appears more than once", m.ID))
		}
		seen[m.ID] = true
	}

	if !state.Character.Stats.InRange() {
		add(SeverityError, codeStatsOutOfRange, fmt.Sprintf("stats out of range: %+v", state.Character.Stats))
	}

	if catalog == nil {
		return issues
	}
	if state.Era != "" && !catalog.HasEra(state.Era) {
		add(SeverityWarn, codeCustomEra, fmt.Sprintf("era %q is not in the catalog", state.Era))
	}
	if state.Theme != "" && !catalog.HasTheme(state.Theme) {
		add(SeverityWarn, codeCustomTheme, fmt.Sprintf("theme %q is not in the catalog", state.Theme))
	}

	return issues
}
