package lore

import (
	"os"
	"path/filepath"
	"reflect"
	"testing"
)

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("write: %v", err)
	}
}

func TestCollect(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "rome", "senate.md"), "x")
	writeFile(t, filepath.Join(dir, "rome", "forum.MD"), "x")
	writeFile(t, filepath.Join(dir, "rome", "notes.txt"), "x")
	writeFile(t, filepath.Join(dir, "drafts", "wip.md"), "x")
	single := filepath.Join(dir, "single.txt")
	writeFile(t, single, "x")

	t.Run("walks directories and keeps explicit files", func(t *testing.T) {
		got, err := Collect([]string{dir, single, filepath.Join(dir, "rome", "senate.md")}, []string{filepath.Join(dir, "drafts")})
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		want := []string{
			filepath.Join(dir, "rome", "forum.MD"),
			filepath.Join(dir, "rome", "senate.md"),
			single,
		}
		if !reflect.DeepEqual(got, want) {
			t.Fatalf("got %v, want %v", got, want)
		}
	})

	t.Run("missing path", func(t *testing.T) {
		if _, err := Collect([]string{filepath.Join(dir, "nope")}, nil); err == nil {
			t.Fatal("expected error for missing path")
		}
	})
}
