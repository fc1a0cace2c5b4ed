package narrative

import (
	"errors"
	"reflect"
	"strings"
	"testing"

	"weaver/internal/game"
)

var longText = strings.Repeat("The forum is crowded with senators and their clients. ", 3)

func TestParseResponse(t *testing.T) {
	t.Run("object choices", func(t *testing.T) {
		raw := `{"text": "` + longText + `", "choices": [{"id": "a", "text": "Speak"}, {"id": "b", "text": "Listen"}]}`
		resp, err := ParseResponse(raw)
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if len(resp.Choices) != 2 {
			t.Fatalf("choices = %d, want 2", len(resp.Choices))
		}
		if resp.Choices[0].ID != "a" || resp.Choices[1].Text != "Listen" {
			t.Fatalf("unexpected choices: %+v", resp.Choices)
		}
	})

	t.Run("string choices get positional ids", func(t *testing.T) {
		raw := `{"text": "` + longText + `", "choices": ["Speak", "  ", "Listen"]}`
		resp, err := ParseResponse(raw)
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if len(resp.Choices) != 2 {
			t.Fatalf("choices = %d, want 2", len(resp.Choices))
		}
		if resp.Choices[0].ID != "1" || resp.Choices[1].ID != "2" {
			t.Fatalf("unexpected ids: %+v", resp.Choices)
		}
	})

	t.Run("reserved and duplicate ids are replaced", func(t *testing.T) {
		raw := `{"text": "` + longText + `", "choices": [{"id": "2", "text": "A"}, {"id": "custom", "text": "B"}, {"id": "2", "text": "C"}]}`
		resp, err := ParseResponse(raw)
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		ids := map[string]bool{}
		for _, choice := range resp.Choices {
			if choice.ID == "custom" {
				t.Errorf("choice %q kept the reserved id", choice.Text)
			}
			if ids[choice.ID] {
				t.Errorf("duplicate id %s", choice.ID)
			}
			ids[choice.ID] = true
		}
	})

	t.Run("code fence and extras", func(t *testing.T) {
		raw := "```json\n{\"text\": \"" + longText + "\", \"choices\": [\"Go\"], \"backstory\": \" Born in Ostia. \", " +
			"\"memory\": {\"title\": \"Arrival\", \"description\": \"You reached the forum.\"}, " +
			"\"stat_changes\": {\"influence\": 2}, \"inventory_add\": [\"Scroll\"], \"world_updates\": {\"politics\": \"Tense\"}}\n```"
		resp, err := ParseResponse(raw)
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if resp.Backstory != "Born in Ostia." {
			t.Errorf("Backstory = %q", resp.Backstory)
		}
		if resp.Memory == nil || resp.Memory.Title != "Arrival" {
			t.Fatalf("Memory = %+v, want title Arrival", resp.Memory)
		}
		if resp.StatChanges["influence"] != 2 {
			t.Errorf("StatChanges = %v", resp.StatChanges)
		}
		if !reflect.DeepEqual(resp.InventoryAdd, []string{"Scroll"}) {
			t.Errorf("InventoryAdd = %#v", resp.InventoryAdd)
		}
		if resp.WorldUpdates["politics"] != "Tense" {
			t.Errorf("WorldUpdates = %v", resp.WorldUpdates)
		}
	})

	errorCases := []struct {
		name string
		raw  string
		want error
	}{
		{name: "short text", raw: `{"text": "Too short.", "choices": ["Go"]}`, want: ErrShortResponse},
		{name: "no choices", raw: `{"text": "` + longText + `", "choices": []}`, want: ErrNoChoices},
		{name: "not json", raw: "Once upon a time", want: ErrMalformedResponse},
		{name: "invalid json", raw: `{"text": 12, "choices": []}`, want: ErrMalformedResponse},
	}
	for _, tc := range errorCases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := ParseResponse(tc.raw)
			if !errors.Is(err, tc.want) {
				t.Fatalf("error = %v, want %v", err, tc.want)
			}
		})
	}
}

func TestResponseSegment(t *testing.T) {
	resp := &Response{Text: longText}
	resp.Choices = append(resp.Choices, game.Choice{ID: "1", Text: "Go"})
	segment := resp.Segment()
	if segment.Text != longText {
		t.Errorf("Text = %q", segment.Text)
	}
	if !segment.CustomChoiceEnabled {
		t.Error("expected custom choices to be enabled")
	}
	if len(segment.Choices) != 1 {
		t.Fatalf("choices = %d, want 1", len(segment.Choices))
	}
}
