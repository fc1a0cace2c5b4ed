package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

const (
	DriverSQLite    = "sqlite"
	DriverPostgres  = "postgres"
	DriverFirestore = "firestore"
	DriverSupabase  = "supabase"

	ProviderGemini = "gemini"
	ProviderOpenAI = "openai"
)

type ProjectConfig struct {
	Project     string            `yaml:"project"`
	Version     int               `yaml:"version"`
	StateDir    string            `yaml:"state_dir"`
	Catalog     string            `yaml:"catalog"`
	Database    DatabaseConfig    `yaml:"database"`
	AI          AIConfig          `yaml:"ai"`
	Persistence PersistenceConfig `yaml:"persistence"`
	User        UserConfig        `yaml:"user"`
}

type DatabaseConfig struct {
	Driver string `yaml:"driver"`
	DSN    string `yaml:"dsn"`
	// ProjectID and CredentialsFile select the Firestore project.
	ProjectID       string `yaml:"project_id"`
	CredentialsFile string `yaml:"credentials_file"`
	// URL and Key address the Supabase project. The key is normally supplied
	// through the environment.
	URL string `yaml:"url"`
	Key string `yaml:"-"`
}

type AIConfig struct {
	Provider    string        `yaml:"provider"`
	Model       string        `yaml:"model"`
	BaseURL     string        `yaml:"base_url"`
	Timeout     time.Duration `yaml:"timeout"`
	Temperature float32       `yaml:"temperature"`
	APIKey      string        `yaml:"-"`
}

type PersistenceConfig struct {
	SaveTimeout  time.Duration `yaml:"save_timeout"`
	RetryInitial time.Duration `yaml:"retry_initial"`
	RetryMax     time.Duration `yaml:"retry_max"`
}

type UserConfig struct {
	ID    string `yaml:"id"`
	Email string `yaml:"email"`
}

func LoadProjectConfig(path string) (*ProjectConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("loading project config: %w", err)
	}

	var cfg ProjectConfig
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("loading project config: %w", err)
	}

	if err := ApplyEnv(&cfg); err != nil {
		return nil, fmt.Errorf("loading project config: %w", err)
	}

	applyDefaults(&cfg)

	if err := validateProjectConfig(&cfg); err != nil {
		return nil, fmt.Errorf("loading project config: %w", err)
	}

	return &cfg, nil
}

func applyDefaults(cfg *ProjectConfig) {
	if strings.TrimSpace(cfg.StateDir) == "" {
		cfg.StateDir = ".weaver"
	}
	if strings.TrimSpace(cfg.Database.Driver) == "" {
		cfg.Database.Driver = DriverSQLite
	}
	cfg.Database.Driver = strings.ToLower(strings.TrimSpace(cfg.Database.Driver))
	if cfg.Database.Driver == DriverSQLite && strings.TrimSpace(cfg.Database.DSN) == "" {
		cfg.Database.DSN = "sqlite://./chronicle.db"
	}
	if strings.TrimSpace(cfg.AI.Provider) == "" {
		cfg.AI.Provider = ProviderGemini
	}
	cfg.AI.Provider = strings.ToLower(strings.TrimSpace(cfg.AI.Provider))
	if strings.TrimSpace(cfg.AI.Model) == "" {
		switch cfg.AI.Provider {
		case ProviderOpenAI:
			cfg.AI.Model = "gpt-4o-mini"
		default:
			cfg.AI.Model = "gemini-2.5-flash"
		}
	}
	if cfg.AI.Timeout == 0 {
		cfg.AI.Timeout = 90 * time.Second
	}
	if cfg.AI.Temperature == 0 {
		cfg.AI.Temperature = 0.9
	}
	if cfg.Persistence.SaveTimeout == 0 {
		cfg.Persistence.SaveTimeout = 10 * time.Second
	}
	if cfg.Persistence.RetryInitial == 0 {
		cfg.Persistence.RetryInitial = 5 * time.Second
	}
	if cfg.Persistence.RetryMax == 0 {
		cfg.Persistence.RetryMax = 2 * time.Minute
	}
}

func validateProjectConfig(cfg *ProjectConfig) error {
	if strings.TrimSpace(cfg.Project) == "" {
		return fmt.Errorf("project name is required")
	}
	if cfg.Version != 1 {
		return fmt.Errorf("unsupported version: %d", cfg.Version)
	}

	switch cfg.Database.Driver {
	case DriverSQLite, DriverPostgres:
		if strings.TrimSpace(cfg.Database.DSN) == "" {
			return fmt.Errorf("database dsn is required for %s", cfg.Database.Driver)
		}
	case DriverFirestore:
		if strings.TrimSpace(cfg.Database.ProjectID) == "" {
			return fmt.Errorf("database project_id is required for firestore")
		}
	case DriverSupabase:
		if strings.TrimSpace(cfg.Database.URL) == "" {
			return fmt.Errorf("database url is required for supabase")
		}
	default:
		return fmt.Errorf("unsupported database driver: %s", cfg.Database.Driver)
	}

	switch cfg.AI.Provider {
	case ProviderGemini, ProviderOpenAI:
	default:
		return fmt.Errorf("unsupported ai provider: %s", cfg.AI.Provider)
	}
	if cfg.AI.Timeout < 0 {
		return fmt.Errorf("ai timeout must not be negative")
	}
	if cfg.AI.Temperature < 0 || cfg.AI.Temperature > 2 {
		return fmt.Errorf("ai temperature must be between 0 and 2")
	}
	if cfg.Persistence.RetryMax < cfg.Persistence.RetryInitial {
		return fmt.Errorf("persistence retry_max must be at least retry_initial")
	}

	return nil
}
