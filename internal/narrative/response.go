package narrative

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"unicode/utf8"

	"weaver/internal/game"
)

// MinTextLength is the shortest segment text accepted from the model.
const MinTextLength = 100

var (
	ErrMalformedResponse = errors.New("malformed generation response")
	ErrShortResponse     = errors.New("generated text is too short")
	ErrNoChoices         = errors.New("generation returned no choices")
)

type Response struct {
	Text            string            `json:"text"`
	Choices         []game.Choice     `json:"-"`
	Backstory       string            `json:"backstory,omitempty"`
	Memory          *MemoryNote       `json:"memory,omitempty"`
	Lore            []LoreNote        `json:"lore,omitempty"`
	StatChanges     map[string]int    `json:"stat_changes,omitempty"`
	InventoryAdd    []string          `json:"inventory_add,omitempty"`
	InventoryRemove []string          `json:"inventory_remove,omitempty"`
	WorldUpdates    map[string]string `json:"world_updates,omitempty"`
}

type MemoryNote struct {
	Title       string `json:"title"`
	Description string `json:"description"`
}

type LoreNote struct {
	Title    string `json:"title"`
	Content  string `json:"content"`
	Category string `json:"category"`
}

type rawResponse struct {
	Response
	RawChoices []json.RawMessage `json:"choices"`
}

// Segment converts the response into a game segment.
func (r *Response) Segment() game.Segment {
	return game.Segment{
		Text:                r.Text,
		Choices:             append([]game.Choice(nil), r.Choices...),
		CustomChoiceEnabled: true,
	}
}

// ParseResponse decodes the model output. Code fences and prose around the
// JSON object are tolerated.
func ParseResponse(raw string) (*Response, error) {
	payload, err := extractObject(raw)
	if err != nil {
		return nil, err
	}

	var decoded rawResponse
	if err := json.Unmarshal(payload, &decoded); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedResponse, err)
	}

	resp := decoded.Response
	resp.Text = strings.TrimSpace(resp.Text)
	resp.Backstory = strings.TrimSpace(resp.Backstory)

	choices, err := decodeChoices(decoded.RawChoices)
	if err != nil {
		return nil, err
	}
	resp.Choices = choices

	if err := Validate(&resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// Validate enforces the minimum contract: enough text and at least one choice.
func Validate(resp *Response) error {
	if resp == nil {
		return ErrMalformedResponse
	}
	if n := utf8.RuneCountInString(strings.TrimSpace(resp.Text)); n < MinTextLength {
		return fmt.Errorf("%w: %d characters", ErrShortResponse, n)
	}
	if len(resp.Choices) == 0 {
		return ErrNoChoices
	}
	return nil
}

func extractObject(raw string) ([]byte, error) {
	text := strings.TrimSpace(raw)
	if strings.HasPrefix(text, "```") {
		text = strings.TrimPrefix(text, "```json")
		text = strings.TrimPrefix(text, "```")
		text = strings.TrimSuffix(strings.TrimSpace(text), "```")
	}
	start := strings.Index(text, "{")
	end := strings.LastIndex(text, "}")
	if start == -1 || end <= start {
		return nil, fmt.Errorf("%w: no JSON object found", ErrMalformedResponse)
	}
	return []byte(text[start : end+1]), nil
}

// decodeChoices accepts both plain strings and {id, text} objects. Missing or
// reserved ids are replaced by their position.
func decodeChoices(items []json.RawMessage) ([]game.Choice, error) {
	choices := make([]game.Choice, 0, len(items))
	seen := make(map[string]struct{})
	for i, item := range items {
		var choice game.Choice
		trimmed := bytes.TrimSpace(item)
		if len(trimmed) > 0 && trimmed[0] == '"' {
			if err := json.Unmarshal(trimmed, &choice.Text); err != nil {
				return nil, fmt.Errorf("%w: choice %d: %v", ErrMalformedResponse, i, err)
			}
		} else if err := json.Unmarshal(trimmed, &choice); err != nil {
			return nil, fmt.Errorf("%w: choice %d: %v", ErrMalformedResponse, i, err)
		}

		choice.Text = strings.TrimSpace(choice.Text)
		if choice.Text == "" {
			continue
		}
		choice.ID = strings.TrimSpace(choice.ID)
		if _, dup := seen[choice.ID]; choice.ID == "" || choice.ID == game.CustomChoiceID || dup {
			for n := len(choices) + 1; ; n++ {
				choice.ID = strconv.Itoa(n)
				if _, taken := seen[choice.ID]; !taken {
					break
				}
			}
		}
		seen[choice.ID] = struct{}{}
		choices = append(choices, choice)
	}
	return choices, nil
}
