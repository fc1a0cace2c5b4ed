package narrative

import (
	"fmt"
	"sort"
	"strings"
	"text/template"
)

const systemPrompt = `You are the narrator of a historical role-playing chronicle. You write vivid, historically grounded prose in the second person and never break the fourth wall.

Always answer with a single JSON object and nothing else:
{
  "text": "the next narrative segment, two to four paragraphs",
  "choices": [{"id": "1", "text": "a concrete action"}, ...],
  "backstory": "only when asked to write one",
  "memory": {"title": "short title of what just happened", "description": "one or two sentences"},
  "lore": [{"title": "...", "content": "...", "category": "person|place|custom|event"}],
  "stat_changes": {"influence": 0, "knowledge": 0, "resources": 0, "reputation": 0},
  "inventory_add": [],
  "inventory_remove": [],
  "world_updates": {"politics": "..."}
}

Rules:
- "text" must be at least 100 characters.
- Offer three or four distinct choices.
- Stat changes are small integers between -10 and 10.
- Only mention lore the player has actually encountered in this segment.`

var userTemplate = template.Must(template.New("user").Funcs(template.FuncMap{
	"realism": realismLabel,
	"sorted":  sortedKeys,
	"join":    strings.Join,
}).Parse(`Era: {{.EraLabel}}{{if .EraPeriod}} ({{.EraPeriod}}){{end}}
{{- if .EraDescription}}
Era notes: {{.EraDescription}}{{end}}
Theme: {{.ThemeLabel}}
{{- if .ThemeDescription}}
Theme notes: {{.ThemeDescription}}{{end}}
Realism: {{realism .Realism}} ({{.Realism}}/100)

Character: {{.Character.Name}}
{{- if .Character.Backstory}}
Backstory: {{.Character.Backstory}}{{end}}
Stats: influence {{.Character.Stats.Influence}}, knowledge {{.Character.Stats.Knowledge}}, resources {{.Character.Stats.Resources}}, reputation {{.Character.Stats.Reputation}}
{{- if .Character.Inventory}}
Possessions: {{join .Character.Inventory ", "}}{{end}}
{{- if .WorldSystems}}

World:
{{- range $key := sorted .WorldSystems}}
- {{$key}}: {{index $.WorldSystems $key}}{{end}}{{end}}
{{- if .Lore}}

Known lore:
{{- range .Lore}}
- {{.Title}}: {{.Content}}{{end}}{{end}}
{{- if .Memories}}

Recent history:
{{- range .Memories}}
- {{.Title}}: {{.Description}}{{end}}{{end}}
{{if eq .Kind "opening"}}
Write the opening segment of this chronicle, introducing the character in their world.
{{- if .GenerateBackstory}} Also write a backstory of three to five sentences in "backstory".{{end}}
{{- else}}
Turn {{.TurnCount}}. The previous segment was:
{{.CurrentText}}

The player chose: {{.Choice.Text}}
Continue the story from this choice.
{{- end}}
`))

// SystemPrompt returns the instructions shared by every request.
func (r Request) SystemPrompt() string {
	return systemPrompt
}

// UserPrompt renders the request context.
func (r Request) UserPrompt() (string, error) {
	var b strings.Builder
	if err := userTemplate.Execute(&b, r); err != nil {
		return "", fmt.Errorf("rendering prompt: %w", err)
	}
	return b.String(), nil
}

func realismLabel(value int) string {
	switch {
	case value < 34:
		return "dramatic, legend and embellishment welcome"
	case value < 67:
		return "balanced"
	default:
		return "strict historical accuracy"
	}
}

func sortedKeys(values map[string]string) []string {
	keys := make([]string, 0, len(values))
	for key := range values {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	return keys
}
