package lore

import (
	"errors"
	"fmt"

	"weaver/internal/game"
)

type ImportResult struct {
	Added   []string
	Skipped []string
}

// Import parses every file and adds its entry to the game in st. Entries
// whose title already exists are skipped. Parse failures are collected and
// returned together after the remaining files are imported.
func Import(st *game.Store, paths []string) (ImportResult, error) {
	var result ImportResult
	var errs []error

	for _, path := range paths {
		doc, err := ParseFile(path)
		if err != nil {
			errs = append(errs, err)
			continue
		}

		before := loreCount(st)
		if err := st.AddLoreEntry(doc.Entry()); err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", path, err))
			continue
		}
		if loreCount(st) > before {
			result.Added = append(result.Added, doc.Title)
		} else {
			result.Skipped = append(result.Skipped, doc.Title)
		}
	}

	return result, errors.Join(errs...)
}

func loreCount(st *game.Store) int {
	state := st.Game()
	if state == nil {
		return 0
	}
	return len(state.LoreEntries)
}
