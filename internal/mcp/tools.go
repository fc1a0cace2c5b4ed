package mcp

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	sdk "github.com/modelcontextprotocol/go-sdk/mcp"

	"weaver/internal/config"
	"weaver/internal/game"
	"weaver/internal/session"
)

const recentMemories = 5

type ListCatalogInput struct{}

type StartGameInput struct {
	Era               string `json:"era" jsonschema:"catalog era id, or custom"`
	CustomEra         string `json:"custom_era,omitempty" jsonschema:"era description when era is custom"`
	Theme             string `json:"theme" jsonschema:"catalog theme id, or custom"`
	CustomTheme       string `json:"custom_theme,omitempty" jsonschema:"theme description when theme is custom"`
	CharacterName     string `json:"character_name" jsonschema:"name of the player character"`
	Realism           *int   `json:"realism,omitempty" jsonschema:"0 dramatic to 100 strictly historical, default 50"`
	GenerateBackstory bool   `json:"generate_backstory,omitempty" jsonschema:"ask the narrator to write a backstory"`
	Backstory         string `json:"backstory,omitempty" jsonschema:"player-written backstory"`
}

type MakeChoiceInput struct {
	GameID     string `json:"game_id" jsonschema:"game id"`
	ChoiceID   string `json:"choice_id,omitempty" jsonschema:"id of an offered choice"`
	CustomText string `json:"custom_text,omitempty" jsonschema:"free-text action instead of an offered choice"`
}

type GameIDInput struct {
	GameID string `json:"game_id" jsonschema:"game id"`
}

type ListGamesInput struct{}

type OptionOutput struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Period      string `json:"period,omitempty"`
	Description string `json:"description,omitempty"`
}

type CatalogOutput struct {
	Eras   []OptionOutput `json:"eras"`
	Themes []OptionOutput `json:"themes"`
}

type ChoiceOutput struct {
	ID   string `json:"id"`
	Text string `json:"text"`
}

type SegmentOutput struct {
	Text                string         `json:"text"`
	Choices             []ChoiceOutput `json:"choices"`
	CustomChoiceEnabled bool           `json:"custom_choice_enabled"`
}

type CharacterOutput struct {
	Name      string         `json:"name"`
	Backstory string         `json:"backstory,omitempty"`
	Stats     map[string]int `json:"stats"`
	Inventory []string       `json:"inventory"`
}

type MemoryOutput struct {
	Title       string `json:"title"`
	Description string `json:"description,omitempty"`
	Category    string `json:"category"`
}

type GameOutput struct {
	ID             string            `json:"id"`
	Era            string            `json:"era"`
	Theme          string            `json:"theme"`
	Character      CharacterOutput   `json:"character"`
	TurnCount      int               `json:"turn_count"`
	Phase          string            `json:"phase"`
	Error          string            `json:"error,omitempty"`
	Segment        SegmentOutput     `json:"segment"`
	MemoryCount    int               `json:"memory_count"`
	RecentMemories []MemoryOutput    `json:"recent_memories"`
	WorldSystems   map[string]string `json:"world_systems"`
}

type GameSummaryOutput struct {
	ID            string `json:"id"`
	Era           string `json:"era"`
	Theme         string `json:"theme"`
	CharacterName string `json:"character_name"`
	TurnCount     int    `json:"turn_count"`
	MemoryCount   int    `json:"memory_count"`
	UpdatedAt     string `json:"updated_at"`
}

type ListGamesOutput struct {
	Games []GameSummaryOutput `json:"games"`
}

type DeleteGameOutput struct {
	Deleted string `json:"deleted"`
}

func (s *Server) registerTools() {
	sdk.AddTool(s.mcp, &sdk.Tool{
		Name:        "list_catalog",
		Description: "List the eras and themes a new game can use",
	}, s.handleListCatalog)

	sdk.AddTool(s.mcp, &sdk.Tool{
		Name:        "start_game",
		Description: "Create a character and generate the opening of a new chronicle",
	}, s.handleStartGame)

	sdk.AddTool(s.mcp, &sdk.Tool{
		Name:        "make_choice",
		Description: "Play one turn by picking an offered choice or describing a custom action",
	}, s.handleMakeChoice)

	sdk.AddTool(s.mcp, &sdk.Tool{
		Name:        "retry_turn",
		Description: "Re-send the choice of the last failed turn",
	}, s.handleRetryTurn)

	sdk.AddTool(s.mcp, &sdk.Tool{
		Name:        "get_game",
		Description: "Return the current state of a game",
	}, s.handleGetGame)

	sdk.AddTool(s.mcp, &sdk.Tool{
		Name:        "list_games",
		Description: "List saved games",
	}, s.handleListGames)

	sdk.AddTool(s.mcp, &sdk.Tool{
		Name:        "delete_game",
		Description: "Delete a game and all of its memories",
	}, s.handleDeleteGame)
}

func (s *Server) handleListCatalog(ctx context.Context, req *sdk.CallToolRequest, input ListCatalogInput) (*sdk.CallToolResult, CatalogOutput, error) {
	return nil, catalogOutput(s.catalog), nil
}

func (s *Server) handleStartGame(ctx context.Context, req *sdk.CallToolRequest, input StartGameInput) (*sdk.CallToolResult, GameOutput, error) {
	setup := game.Setup{
		Era:               input.Era,
		CustomEra:         input.CustomEra,
		Theme:             input.Theme,
		CustomTheme:       input.CustomTheme,
		CharacterName:     input.CharacterName,
		Realism:           game.DefaultRealism,
		GenerateBackstory: input.GenerateBackstory,
		Backstory:         input.Backstory,
	}
	if input.Realism != nil {
		setup.Realism = *input.Realism
	}

	sess, err := s.games.Start(ctx, setup)
	if err != nil {
		return nil, GameOutput{}, err
	}
	return nil, gameOutput(sess.Store().Snapshot()), nil
}

func (s *Server) handleMakeChoice(ctx context.Context, req *sdk.CallToolRequest, input MakeChoiceInput) (*sdk.CallToolResult, GameOutput, error) {
	var choice game.Choice
	switch {
	case strings.TrimSpace(input.CustomText) != "":
		choice = game.CustomChoice(input.CustomText)
	case strings.TrimSpace(input.ChoiceID) != "":
		choice = game.Choice{ID: strings.TrimSpace(input.ChoiceID)}
	default:
		return nil, GameOutput{}, fmt.Errorf("choice_id or custom_text is required")
	}

	sess, err := s.session(ctx, input.GameID)
	if err != nil {
		return nil, GameOutput{}, err
	}
	return s.turnResult(sess, sess.Choose(ctx, choice))
}

func (s *Server) handleRetryTurn(ctx context.Context, req *sdk.CallToolRequest, input GameIDInput) (*sdk.CallToolResult, GameOutput, error) {
	sess, err := s.session(ctx, input.GameID)
	if err != nil {
		return nil, GameOutput{}, err
	}
	return s.turnResult(sess, sess.Retry(ctx))
}

func (s *Server) handleGetGame(ctx context.Context, req *sdk.CallToolRequest, input GameIDInput) (*sdk.CallToolResult, GameOutput, error) {
	sess, err := s.session(ctx, input.GameID)
	if err != nil {
		return nil, GameOutput{}, err
	}
	return nil, gameOutput(sess.Store().Snapshot()), nil
}

func (s *Server) handleListGames(ctx context.Context, req *sdk.CallToolRequest, input ListGamesInput) (*sdk.CallToolResult, ListGamesOutput, error) {
	games, err := s.games.List(ctx)
	if err != nil {
		return nil, ListGamesOutput{}, err
	}

	output := make([]GameSummaryOutput, 0, len(games))
	for _, g := range games {
		output = append(output, GameSummaryOutput{
			ID:            g.ID,
			Era:           s.catalog.EraLabel(g.Era),
			Theme:         s.catalog.ThemeLabel(g.Theme),
			CharacterName: g.CharacterName,
			TurnCount:     g.TurnCount,
			MemoryCount:   g.MemoryCount,
			UpdatedAt:     g.UpdatedAt.Format(time.RFC3339),
		})
	}
	return nil, ListGamesOutput{Games: output}, nil
}

func (s *Server) handleDeleteGame(ctx context.Context, req *sdk.CallToolRequest, input GameIDInput) (*sdk.CallToolResult, DeleteGameOutput, error) {
	if strings.TrimSpace(input.GameID) == "" {
		return nil, DeleteGameOutput{}, fmt.Errorf("game_id is required")
	}
	if err := s.games.Delete(ctx, input.GameID); err != nil {
		return nil, DeleteGameOutput{}, err
	}
	return nil, DeleteGameOutput{Deleted: input.GameID}, nil
}

func (s *Server) session(ctx context.Context, gameID string) (*session.Session, error) {
	if strings.TrimSpace(gameID) == "" {
		return nil, fmt.Errorf("game_id is required")
	}
	return s.games.Get(ctx, gameID)
}

// turnResult reports generation failures through the game output, which
// carries the error and the fallback segment; other errors fail the call.
func (s *Server) turnResult(sess *session.Session, err error) (*sdk.CallToolResult, GameOutput, error) {
	var genErr *session.GenerationError
	if err != nil && !errors.As(err, &genErr) {
		return nil, GameOutput{}, err
	}
	return nil, gameOutput(sess.Store().Snapshot()), nil
}

func catalogOutput(catalog *config.Catalog) CatalogOutput {
	out := CatalogOutput{Eras: []OptionOutput{}, Themes: []OptionOutput{}}
	if catalog == nil {
		return out
	}
	for _, era := range catalog.Eras {
		out.Eras = append(out.Eras, OptionOutput{ID: era.ID, Name: era.Name, Period: era.Period, Description: era.Description})
	}
	for _, theme := range catalog.Themes {
		out.Themes = append(out.Themes, OptionOutput{ID: theme.ID, Name: theme.Name, Description: theme.Description})
	}
	return out
}

func gameOutput(snap game.Snapshot) GameOutput {
	out := GameOutput{
		Phase:          string(snap.Phase),
		Error:          snap.Error,
		RecentMemories: []MemoryOutput{},
		WorldSystems:   map[string]string{},
	}
	state := snap.Game
	if state == nil {
		return out
	}

	out.ID = state.ID
	out.Era = state.Era
	out.Theme = state.Theme
	out.TurnCount = state.TurnCount
	out.MemoryCount = len(state.Memories)
	out.Character = CharacterOutput{
		Name:      state.Character.Name,
		Backstory: state.Character.Backstory,
		Stats: map[string]int{
			"influence":  state.Character.Stats.Influence,
			"knowledge":  state.Character.Stats.Knowledge,
			"resources":  state.Character.Stats.Resources,
			"reputation": state.Character.Stats.Reputation,
		},
		Inventory: append([]string{}, state.Character.Inventory...),
	}
	for key, value := range state.WorldSystems {
		out.WorldSystems[key] = value
	}

	start := len(state.Memories) - recentMemories
	if start < 0 {
		start = 0
	}
	for _, m := range state.Memories[start:] {
		out.RecentMemories = append(out.RecentMemories, MemoryOutput{Title: m.Title, Description: m.Description, Category: m.Category})
	}

	if segment := snap.Segment(); segment != nil {
		out.Segment = SegmentOutput{
			Text:                segment.Text,
			Choices:             make([]ChoiceOutput, 0, len(segment.Choices)),
			CustomChoiceEnabled: segment.CustomChoiceEnabled,
		}
		for _, c := range segment.Choices {
			out.Segment.Choices = append(out.Segment.Choices, ChoiceOutput{ID: c.ID, Text: c.Text})
		}
	}
	return out
}
