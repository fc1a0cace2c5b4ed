package game

import (
	"strings"
	"time"
)

// CustomChoiceID is the synthetic id carried by free-text choices.
const CustomChoiceID = "custom"

const (
	MemoryCategoryDecision = "decision"
	MemoryCategoryCustom   = "custom_action"
	MemoryCategoryOpening  = "opening"
)

const (
	statMin = 0
	statMax = 100
)

type State struct {
	ID             string       `json:"id"`
	UserID         string       `json:"user_id"`
	Era            string       `json:"era"`
	Theme          string       `json:"theme"`
	Realism        int          `json:"realism"`
	Character      Character    `json:"character"`
	TurnCount      int          `json:"turn_count"`
	CurrentSegment *Segment     `json:"current_segment"`
	Memories       []Memory     `json:"memories"`
	LoreEntries    []LoreEntry  `json:"lore_entries"`
	WorldSystems   WorldSystems `json:"world_systems"`
	CreatedAt      time.Time    `json:"created_at"`
	UpdatedAt      time.Time    `json:"updated_at"`
}

type Character struct {
	Name      string   `json:"name"`
	Backstory string   `json:"backstory"`
	Stats     Stats    `json:"stats"`
	Inventory []string `json:"inventory"`
}

type Stats struct {
	Influence  int `json:"influence"`
	Knowledge  int `json:"knowledge"`
	Resources  int `json:"resources"`
	Reputation int `json:"reputation"`
}

type Segment struct {
	ID                  string   `json:"id"`
	Text                string   `json:"text"`
	Choices             []Choice `json:"choices"`
	CustomChoiceEnabled bool     `json:"custom_choice_enabled"`
}

type Choice struct {
	ID   string `json:"id"`
	Text string `json:"text"`
}

// Memory is an append-only history entry written once per turn.
type Memory struct {
	ID          string    `json:"id"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	Timestamp   time.Time `json:"timestamp"`
	Category    string    `json:"category"`
}

type LoreEntry struct {
	ID           string    `json:"id"`
	Title        string    `json:"title"`
	Content      string    `json:"content"`
	Category     string    `json:"category"`
	Tags         []string  `json:"tags,omitempty"`
	DiscoveredAt time.Time `json:"discovered_at"`
}

// WorldSystems maps a system name (politics, economy, religion...) to its
// current description.
type WorldSystems map[string]string

// CharacterChanges is the delta a turn applies to the character.
type CharacterChanges struct {
	Stats           map[string]int
	InventoryAdd    []string
	InventoryRemove []string
}

func DefaultStats() Stats {
	return Stats{Influence: 10, Knowledge: 10, Resources: 10, Reputation: 10}
}

// CustomChoice builds the free-text choice. The text is trimmed.
func CustomChoice(text string) Choice {
	return Choice{ID: CustomChoiceID, Text: strings.TrimSpace(text)}
}

func (c Choice) IsCustom() bool {
	return c.ID == CustomChoiceID
}

func (s Segment) FindChoice(id string) (Choice, bool) {
	for _, choice := range s.Choices {
		if choice.ID == id {
			return choice, true
		}
	}
	return Choice{}, false
}

// Apply adds delta to the named stat and clamps it. Unknown names are ignored.
func (s *Stats) Apply(name string, delta int) bool {
	var target *int
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "influence":
		target = &s.Influence
	case "knowledge":
		target = &s.Knowledge
	case "resources":
		target = &s.Resources
	case "reputation":
		target = &s.Reputation
	default:
		return false
	}
	*target = clamp(*target+delta, statMin, statMax)
	return true
}

func (s Stats) InRange() bool {
	for _, v := range []int{s.Influence, s.Knowledge, s.Resources, s.Reputation} {
		if v < statMin || v > statMax {
			return false
		}
	}
	return true
}

// Clone returns a deep copy of the state.
func (s *State) Clone() *State {
	if s == nil {
		return nil
	}
	out := *s
	out.Character.Inventory = append([]string(nil), s.Character.Inventory...)
	out.CurrentSegment = s.CurrentSegment.Clone()
	out.Memories = append([]Memory(nil), s.Memories...)
	out.LoreEntries = make([]LoreEntry, len(s.LoreEntries))
	for i, entry := range s.LoreEntries {
		entry.Tags = append([]string(nil), entry.Tags...)
		out.LoreEntries[i] = entry
	}
	if s.LoreEntries == nil {
		out.LoreEntries = nil
	}
	if s.WorldSystems != nil {
		out.WorldSystems = make(WorldSystems, len(s.WorldSystems))
		for key, value := range s.WorldSystems {
			out.WorldSystems[key] = value
		}
	}
	return &out
}

func (s *Segment) Clone() *Segment {
	if s == nil {
		return nil
	}
	out := *s
	out.Choices = append([]Choice(nil), s.Choices...)
	return &out
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
