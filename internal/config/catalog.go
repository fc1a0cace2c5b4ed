package config

import (
	_ "embed"
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

//go:embed default_catalog.yaml
var defaultCatalog []byte

// Catalog lists the eras and themes offered at setup.
type Catalog struct {
	Version int      `yaml:"version"`
	Eras    []Option `yaml:"eras"`
	Themes  []Option `yaml:"themes"`

	eraIndex   map[string]*Option
	themeIndex map[string]*Option
}

type Option struct {
	ID          string `yaml:"id"`
	Name        string `yaml:"name"`
	Period      string `yaml:"period"`
	Description string `yaml:"description"`
}

// LoadCatalog reads a catalog file. An empty path yields the built-in catalog.
func LoadCatalog(path string) (*Catalog, error) {
	if strings.TrimSpace(path) == "" {
		return DefaultCatalog()
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("loading catalog: %w", err)
	}
	return parseCatalog(data)
}

func DefaultCatalog() (*Catalog, error) {
	return parseCatalog(defaultCatalog)
}

func parseCatalog(data []byte) (*Catalog, error) {
	var catalog Catalog
	if err := yaml.Unmarshal(data, &catalog); err != nil {
		return nil, fmt.Errorf("loading catalog: %w", err)
	}

	if err := validateCatalog(&catalog); err != nil {
		return nil, fmt.Errorf("loading catalog: %w", err)
	}

	catalog.eraIndex = indexOptions(catalog.Eras)
	catalog.themeIndex = indexOptions(catalog.Themes)
	return &catalog, nil
}

func validateCatalog(c *Catalog) error {
	if c.Version != 1 {
		return fmt.Errorf("unsupported version: %d", c.Version)
	}
	if len(c.Eras) == 0 {
		return fmt.Errorf("at least one era is required")
	}
	if len(c.Themes) == 0 {
		return fmt.Errorf("at least one theme is required")
	}
	if err := validateOptions("era", c.Eras); err != nil {
		return err
	}
	return validateOptions("theme", c.Themes)
}

func validateOptions(kind string, options []Option) error {
	seen := make(map[string]struct{})
	for i, option := range options {
		id := strings.ToLower(strings.TrimSpace(option.ID))
		if id == "" {
			return fmt.Errorf("%s %d id is required", kind, i)
		}
		if id == "custom" {
			return fmt.Errorf("%s id %q is reserved", kind, option.ID)
		}
		if strings.TrimSpace(option.Name) == "" {
			return fmt.Errorf("%s %s name is required", kind, option.ID)
		}
		if _, exists := seen[id]; exists {
			return fmt.Errorf("duplicate %s id: %s", kind, option.ID)
		}
		seen[id] = struct{}{}
	}
	return nil
}

func indexOptions(options []Option) map[string]*Option {
	index := make(map[string]*Option, len(options))
	for i := range options {
		option := &options[i]
		index[strings.ToLower(option.ID)] = option
	}
	return index
}

func (c *Catalog) EraByID(id string) (*Option, bool) {
	if c == nil {
		return nil, false
	}
	option, ok := c.eraIndex[strings.ToLower(strings.TrimSpace(id))]
	return option, ok
}

func (c *Catalog) ThemeByID(id string) (*Option, bool) {
	if c == nil {
		return nil, false
	}
	option, ok := c.themeIndex[strings.ToLower(strings.TrimSpace(id))]
	return option, ok
}

func (c *Catalog) HasEra(id string) bool {
	_, ok := c.EraByID(id)
	return ok
}

func (c *Catalog) HasTheme(id string) bool {
	_, ok := c.ThemeByID(id)
	return ok
}

// EraLabel returns the display name for a stored era value. Custom eras are
// returned as written.
func (c *Catalog) EraLabel(value string) string {
	if option, ok := c.EraByID(value); ok {
		return option.Name
	}
	return value
}

func (c *Catalog) ThemeLabel(value string) string {
	if option, ok := c.ThemeByID(value); ok {
		return option.Name
	}
	return value
}
