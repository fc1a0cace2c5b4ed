package lore

import (
	"errors"
	"path/filepath"
	"reflect"
	"testing"

	"weaver/internal/game"
)

func TestParse(t *testing.T) {
	t.Run("full frontmatter", func(t *testing.T) {
		content := []byte("---\ntitle: Cursus Honorum\ncategory: Custom\ntags: [politics, offices]\n---\n\nThe ladder of offices a Roman politician climbs.\n")
		doc, err := Parse(content)
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if doc.Title != "Cursus Honorum" || doc.Category != "custom" {
			t.Fatalf("unexpected document: %+v", doc)
		}
		if doc.Content != "The ladder of offices a Roman politician climbs." {
			t.Fatalf("unexpected content: %q", doc.Content)
		}
		if !reflect.DeepEqual(doc.Tags, []string{"politics", "offices"}) {
			t.Fatalf("unexpected tags: %#v", doc.Tags)
		}
	})

	t.Run("default category and windows line endings", func(t *testing.T) {
		doc, err := Parse([]byte("---\r\ntitle: Ostia\r\n---\r\nThe port of Rome.\r\n"))
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if doc.Category != DefaultCategory || doc.Tags != nil {
			t.Fatalf("unexpected document: %+v", doc)
		}
	})

	t.Run("no frontmatter", func(t *testing.T) {
		_, err := Parse([]byte("Just text"))
		if !errors.Is(err, ErrNoFrontmatter) {
			t.Fatalf("expected ErrNoFrontmatter, got %v", err)
		}
	})

	t.Run("missing closing marker", func(t *testing.T) {
		_, err := Parse([]byte("---\ntitle: Missing\n"))
		if !errors.Is(err, ErrNoFrontmatter) {
			t.Fatalf("expected ErrNoFrontmatter, got %v", err)
		}
	})

	t.Run("invalid yaml", func(t *testing.T) {
		_, err := Parse([]byte("---\ntitle: [\n---\nbody\n"))
		if !errors.Is(err, ErrInvalidYAML) {
			t.Fatalf("expected ErrInvalidYAML, got %v", err)
		}
	})

	t.Run("missing title", func(t *testing.T) {
		_, err := Parse([]byte("---\ncategory: person\n---\nbody\n"))
		if !errors.Is(err, ErrMissingTitle) {
			t.Fatalf("expected ErrMissingTitle, got %v", err)
		}
	})

	t.Run("empty body", func(t *testing.T) {
		_, err := Parse([]byte("---\ntitle: Empty\n---\n\n"))
		if !errors.Is(err, ErrEmptyContent) {
			t.Fatalf("expected ErrEmptyContent, got %v", err)
		}
	})

	t.Run("tags single string", func(t *testing.T) {
		doc, err := Parse([]byte("---\ntitle: Tags\ntags: lone\n---\nbody\n"))
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if !reflect.DeepEqual(doc.Tags, []string{"lone"}) {
			t.Fatalf("unexpected tags: %#v", doc.Tags)
		}
	})
}

func TestImport(t *testing.T) {
	st := game.NewStore()
	st.NewGame(&game.State{ID: "g1", Character: game.Character{Name: "Livia"}})

	paths := []string{
		filepath.Join("testdata", "curia.md"),
		filepath.Join("testdata", "no_frontmatter.md"),
		filepath.Join("testdata", "curia.md"),
		filepath.Join("testdata", "missing_title.md"),
	}
	result, err := Import(st, paths)

	if !errors.Is(err, ErrNoFrontmatter) || !errors.Is(err, ErrMissingTitle) {
		t.Fatalf("expected both parse errors, got %v", err)
	}
	if !reflect.DeepEqual(result.Added, []string{"The Curia"}) || !reflect.DeepEqual(result.Skipped, []string{"The Curia"}) {
		t.Fatalf("unexpected result: %+v", result)
	}

	entries := st.Game().LoreEntries
	if len(entries) != 1 || entries[0].Category != "location" || entries[0].ID == "" {
		t.Fatalf("unexpected lore entries: %+v", entries)
	}
}
