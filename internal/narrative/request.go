// Package narrative builds generation requests from game context and parses
// the structured segments returned by the model.
package narrative

import (
	"weaver/internal/config"
	"weaver/internal/game"
)

type Kind string

const (
	KindOpening Kind = "opening"
	KindTurn    Kind = "turn"
)

const (
	recentMemoryLimit = 10
	loreLimit         = 10
)

// Request is everything the transport needs to generate a segment.
type Request struct {
	Kind Kind

	Era              string
	EraLabel         string
	EraPeriod        string
	EraDescription   string
	Theme            string
	ThemeLabel       string
	ThemeDescription string
	Realism          int

	Character         game.Character
	GenerateBackstory bool

	TurnCount    int
	CurrentText  string
	Choice       game.Choice
	Memories     []game.Memory
	Lore         []game.LoreEntry
	WorldSystems game.WorldSystems
}

// BuildOpening describes the first segment of a new game. The setup is
// expected to be validated already.
func BuildOpening(setup game.Setup, catalog *config.Catalog) Request {
	req := Request{
		Kind:    KindOpening,
		Realism: setup.Realism,
		Character: game.Character{
			Name:      setup.CharacterName,
			Backstory: setup.Backstory,
			Stats:     game.DefaultStats(),
		},
		GenerateBackstory: setup.GenerateBackstory,
	}
	fillEra(&req, setup.EraValue(), catalog)
	fillTheme(&req, setup.ThemeValue(), catalog)
	return req
}

// BuildTurn describes the segment that follows choice in state.
func BuildTurn(state *game.State, choice game.Choice, catalog *config.Catalog) Request {
	req := Request{
		Kind:         KindTurn,
		Realism:      state.Realism,
		Character:    state.Character,
		TurnCount:    state.TurnCount,
		Choice:       choice,
		Memories:     tail(state.Memories, recentMemoryLimit),
		Lore:         tail(state.LoreEntries, loreLimit),
		WorldSystems: state.WorldSystems,
	}
	if state.CurrentSegment != nil {
		req.CurrentText = state.CurrentSegment.Text
	}
	fillEra(&req, state.Era, catalog)
	fillTheme(&req, state.Theme, catalog)
	return req
}

func fillEra(req *Request, value string, catalog *config.Catalog) {
	req.Era = value
	req.EraLabel = value
	if option, ok := catalog.EraByID(value); ok {
		req.EraLabel = option.Name
		req.EraPeriod = option.Period
		req.EraDescription = option.Description
	}
}

func fillTheme(req *Request, value string, catalog *config.Catalog) {
	req.Theme = value
	req.ThemeLabel = value
	if option, ok := catalog.ThemeByID(value); ok {
		req.ThemeLabel = option.Name
		req.ThemeDescription = option.Description
	}
}

func tail[T any](items []T, n int) []T {
	if len(items) <= n {
		return append([]T(nil), items...)
	}
	return append([]T(nil), items[len(items)-n:]...)
}
