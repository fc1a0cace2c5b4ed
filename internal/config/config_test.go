package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func clearEnv(t *testing.T) {
	t.Helper()
	for _, key := range []string{
		"WEAVER_AI_API_KEY", "WEAVER_AI_PROVIDER", "WEAVER_AI_MODEL", "WEAVER_DATABASE_DSN",
		"WEAVER_SUPABASE_URL", "WEAVER_SUPABASE_KEY", "WEAVER_FIRESTORE_PROJECT",
		"WEAVER_USER_ID", "WEAVER_USER_EMAIL", "GEMINI_API_KEY", "OPENAI_API_KEY",
		"GOOGLE_APPLICATION_CREDENTIALS",
	} {
		t.Setenv(key, "")
	}
}

func TestLoadProjectConfig(t *testing.T) {
	clearEnv(t)

	t.Run("valid config loads", func(t *testing.T) {
		cfg, err := LoadProjectConfig(filepath.Join("testdata", "valid_config.yaml"))
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if cfg.Project != "test-chronicle" {
			t.Fatalf("expected project name, got %q", cfg.Project)
		}
		if cfg.AI.Timeout != 30*time.Second {
			t.Fatalf("expected 30s timeout, got %v", cfg.AI.Timeout)
		}
		if cfg.Persistence.SaveTimeout != 10*time.Second {
			t.Fatalf("expected default save timeout, got %v", cfg.Persistence.SaveTimeout)
		}
		if cfg.StateDir != ".weaver" {
			t.Fatalf("expected default state dir, got %q", cfg.StateDir)
		}
	})

	t.Run("defaults for minimal config", func(t *testing.T) {
		path := writeTempConfig(t, "project: test\nversion: 1\n")
		cfg, err := LoadProjectConfig(path)
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if cfg.Database.Driver != DriverSQLite || cfg.Database.DSN != "sqlite://./chronicle.db" {
			t.Fatalf("unexpected database defaults: %+v", cfg.Database)
		}
		if cfg.AI.Provider != ProviderGemini || cfg.AI.Model == "" {
			t.Fatalf("unexpected ai defaults: %+v", cfg.AI)
		}
	})

	t.Run("missing project name", func(t *testing.T) {
		path := writeTempConfig(t, "version: 1\n")
		if _, err := LoadProjectConfig(path); err == nil {
			t.Fatalf("expected error")
		}
	})

	t.Run("unsupported version", func(t *testing.T) {
		path := writeTempConfig(t, "project: test\nversion: 2\n")
		if _, err := LoadProjectConfig(path); err == nil {
			t.Fatalf("expected error")
		}
	})

	t.Run("unknown driver", func(t *testing.T) {
		path := writeTempConfig(t, "project: test\nversion: 1\ndatabase:\n  driver: mongo\n")
		if _, err := LoadProjectConfig(path); err == nil {
			t.Fatalf("expected error")
		}
	})

	t.Run("postgres needs dsn", func(t *testing.T) {
		path := writeTempConfig(t, "project: test\nversion: 1\ndatabase:\n  driver: postgres\n")
		if _, err := LoadProjectConfig(path); err == nil {
			t.Fatalf("expected error")
		}
	})

	t.Run("firestore needs project id", func(t *testing.T) {
		path := writeTempConfig(t, "project: test\nversion: 1\ndatabase:\n  driver: firestore\n")
		if _, err := LoadProjectConfig(path); err == nil {
			t.Fatalf("expected error")
		}
	})

	t.Run("unknown provider", func(t *testing.T) {
		path := writeTempConfig(t, "project: test\nversion: 1\nai:\n  provider: oracle\n")
		if _, err := LoadProjectConfig(path); err == nil {
			t.Fatalf("expected error")
		}
	})

	t.Run("retry max below initial", func(t *testing.T) {
		path := writeTempConfig(t, "project: test\nversion: 1\npersistence:\n  retry_initial: 1m\n  retry_max: 10s\n")
		if _, err := LoadProjectConfig(path); err == nil {
			t.Fatalf("expected error")
		}
	})

	t.Run("file not found", func(t *testing.T) {
		if _, err := LoadProjectConfig(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
			t.Fatalf("expected error")
		}
	})

	t.Run("invalid yaml", func(t *testing.T) {
		path := writeTempConfig(t, "project: [\n")
		if _, err := LoadProjectConfig(path); err == nil {
			t.Fatalf("expected error")
		}
	})
}

func TestApplyEnv(t *testing.T) {
	clearEnv(t)
	t.Setenv("WEAVER_DATABASE_DSN", "postgres://localhost/weaver")
	t.Setenv("OPENAI_API_KEY", "sk-test")
	t.Setenv("WEAVER_USER_ID", "player-7")

	path := writeTempConfig(t, "project: test\nversion: 1\ndatabase:\n  driver: postgres\nai:\n  provider: openai\n")
	cfg, err := LoadProjectConfig(path)
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if cfg.Database.DSN != "postgres://localhost/weaver" {
		t.Fatalf("expected dsn from env, got %q", cfg.Database.DSN)
	}
	if cfg.AI.APIKey != "sk-test" {
		t.Fatalf("expected openai key from env, got %q", cfg.AI.APIKey)
	}
	if cfg.AI.Model != "gpt-4o-mini" {
		t.Fatalf("expected openai default model, got %q", cfg.AI.Model)
	}
	if cfg.User.ID != "player-7" {
		t.Fatalf("expected user id from env, got %q", cfg.User.ID)
	}
}

func writeTempConfig(t *testing.T, contents string) string {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "chronicle.yaml")
	if err := os.WriteFile(path, []byte(contents), 0o600); err != nil {
		t.Fatalf("writing temp config: %v", err)
	}
	return path
}
