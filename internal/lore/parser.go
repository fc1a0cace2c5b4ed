// Package lore reads lore entries from markdown files with YAML frontmatter
// and adds them to a game.
package lore

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"weaver/internal/game"
)

const DefaultCategory = "general"

var (
	ErrNoFrontmatter = errors.New("no frontmatter found")
	ErrInvalidYAML   = errors.New("invalid YAML in frontmatter")
	ErrMissingTitle  = errors.New("frontmatter missing required 'title' field")
	ErrEmptyContent  = errors.New("lore entry has no content")
)

type Document struct {
	Title      string
	Category   string
	Tags       []string
	Content    string
	SourceFile string
}

func ParseFile(path string) (*Document, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	doc, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	doc.SourceFile = path
	return doc, nil
}

func Parse(content []byte) (*Document, error) {
	content = bytes.ReplaceAll(content, []byte("\r\n"), []byte("\n"))
	trimmed := bytes.TrimLeft(content, "\ufeff\n\t ")
	if !bytes.HasPrefix(trimmed, []byte("---\n")) {
		return nil, ErrNoFrontmatter
	}

	rest := trimmed[len("---\n"):]
	end := bytes.Index(rest, []byte("---\n"))
	if end == -1 {
		if !bytes.HasSuffix(rest, []byte("---")) {
			return nil, ErrNoFrontmatter
		}
		end = len(rest) - len("---")
	}

	yamlBytes := rest[:end]
	body := ""
	if start := end + len("---\n"); start <= len(rest) {
		body = string(rest[start:])
	}

	var frontmatter struct {
		Title    string `yaml:"title"`
		Category string `yaml:"category"`
		Tags     any    `yaml:"tags"`
	}
	if err := yaml.Unmarshal(yamlBytes, &frontmatter); err != nil {
		return nil, ErrInvalidYAML
	}

	title := strings.TrimSpace(frontmatter.Title)
	if title == "" {
		return nil, ErrMissingTitle
	}

	content = []byte(strings.TrimSpace(body))
	if len(content) == 0 {
		return nil, ErrEmptyContent
	}

	tags, err := parseTags(frontmatter.Tags)
	if err != nil {
		return nil, err
	}

	category := strings.ToLower(strings.TrimSpace(frontmatter.Category))
	if category == "" {
		category = DefaultCategory
	}

	return &Document{
		Title:    title,
		Category: category,
		Tags:     tags,
		Content:  string(content),
	}, nil
}

// Entry converts the document into a lore entry for a game.
func (d *Document) Entry() game.LoreEntry {
	return game.LoreEntry{
		Title:    d.Title,
		Content:  d.Content,
		Category: d.Category,
		Tags:     append([]string(nil), d.Tags...),
	}
}

func parseTags(value any) ([]string, error) {
	if value == nil {
		return nil, nil
	}
	switch v := value.(type) {
	case string:
		if strings.TrimSpace(v) == "" {
			return nil, nil
		}
		return []string{strings.TrimSpace(v)}, nil
	case []any:
		tags := make([]string, 0, len(v))
		for _, item := range v {
			s, ok := item.(string)
			if !ok {
				return nil, fmt.Errorf("tags must be strings")
			}
			if strings.TrimSpace(s) == "" {
				continue
			}
			tags = append(tags, strings.TrimSpace(s))
		}
		if len(tags) == 0 {
			return nil, nil
		}
		return tags, nil
	default:
		return nil, fmt.Errorf("tags must be string or list of strings")
	}
}
