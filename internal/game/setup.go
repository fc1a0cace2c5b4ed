package game

import (
	"fmt"
	"sort"
	"strings"
)

// CustomOption is the era/theme id that selects the free-text field.
const CustomOption = "custom"

const DefaultRealism = 50

// Catalog reports whether an era or theme id is known.
type Catalog interface {
	HasEra(id string) bool
	HasTheme(id string) bool
}

// Setup is the new-game form.
type Setup struct {
	Era               string
	CustomEra         string
	Theme             string
	CustomTheme       string
	CharacterName     string
	Realism           int
	GenerateBackstory bool
	Backstory         string
}

// ValidationErrors maps a form field to its inline message.
type ValidationErrors map[string]string

func (v ValidationErrors) Error() string {
	if len(v) == 0 {
		return "setup is valid"
	}
	fields := make([]string, 0, len(v))
	for field := range v {
		fields = append(fields, field)
	}
	sort.Strings(fields)
	parts := make([]string, 0, len(fields))
	for _, field := range fields {
		parts = append(parts, fmt.Sprintf("%s: %s", field, v[field]))
	}
	return "invalid setup: " + strings.Join(parts, "; ")
}

func (v ValidationErrors) IsValid() bool {
	return len(v) == 0
}

// Validate checks the form. A nil catalog accepts any non-empty era or theme.
func (s Setup) Validate(catalog Catalog) ValidationErrors {
	errs := ValidationErrors{}

	if strings.TrimSpace(s.CharacterName) == "" {
		errs["character_name"] = "character name is required"
	}

	if msg := validateOption(s.Era, s.CustomEra, "era", catalog != nil && catalog.HasEra(s.Era), catalog == nil); msg != "" {
		errs["era"] = msg
	}
	if msg := validateOption(s.Theme, s.CustomTheme, "theme", catalog != nil && catalog.HasTheme(s.Theme), catalog == nil); msg != "" {
		errs["theme"] = msg
	}

	if s.Realism < 0 || s.Realism > 100 {
		errs["realism"] = "realism must be between 0 and 100"
	}

	return errs
}

func validateOption(id, custom, label string, known, acceptAny bool) string {
	id = strings.TrimSpace(id)
	switch {
	case id == "":
		return label + " is required"
	case strings.EqualFold(id, CustomOption):
		if strings.TrimSpace(custom) == "" {
			return "custom " + label + " must not be empty"
		}
		return ""
	case known || acceptAny:
		return ""
	default:
		return fmt.Sprintf("unknown %s: %s", label, id)
	}
}

// EraValue is the era stored on the game: the catalog id or the custom text.
func (s Setup) EraValue() string {
	if strings.EqualFold(strings.TrimSpace(s.Era), CustomOption) {
		return strings.TrimSpace(s.CustomEra)
	}
	return strings.TrimSpace(s.Era)
}

func (s Setup) ThemeValue() string {
	if strings.EqualFold(strings.TrimSpace(s.Theme), CustomOption) {
		return strings.TrimSpace(s.CustomTheme)
	}
	return strings.TrimSpace(s.Theme)
}
