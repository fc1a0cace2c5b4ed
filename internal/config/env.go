package config

import (
	"fmt"
	"strings"

	"github.com/caarlos0/env/v11"
)

// Overrides holds values read from the environment. Secrets only ever come
// from here; non-empty values replace what the YAML file says.
type Overrides struct {
	AIAPIKey      string `env:"WEAVER_AI_API_KEY"`
	AIProvider    string `env:"WEAVER_AI_PROVIDER"`
	AIModel       string `env:"WEAVER_AI_MODEL"`
	DatabaseDSN   string `env:"WEAVER_DATABASE_DSN"`
	DatabaseURL   string `env:"WEAVER_SUPABASE_URL"`
	DatabaseKey   string `env:"WEAVER_SUPABASE_KEY"`
	FirestoreID   string `env:"WEAVER_FIRESTORE_PROJECT"`
	UserID        string `env:"WEAVER_USER_ID"`
	UserEmail     string `env:"WEAVER_USER_EMAIL"`
	GeminiAPIKey  string `env:"GEMINI_API_KEY"`
	OpenAIAPIKey  string `env:"OPENAI_API_KEY"`
	CredentialsGC string `env:"GOOGLE_APPLICATION_CREDENTIALS"`
}

// ApplyEnv overlays environment overrides on cfg.
func ApplyEnv(cfg *ProjectConfig) error {
	var o Overrides
	if err := env.Parse(&o); err != nil {
		return fmt.Errorf("parse env: %w", err)
	}

	set := func(dst *string, value string) {
		if strings.TrimSpace(value) != "" {
			*dst = value
		}
	}

	set(&cfg.AI.Provider, o.AIProvider)
	set(&cfg.AI.Model, o.AIModel)
	set(&cfg.Database.DSN, o.DatabaseDSN)
	set(&cfg.Database.URL, o.DatabaseURL)
	set(&cfg.Database.Key, o.DatabaseKey)
	set(&cfg.Database.ProjectID, o.FirestoreID)
	set(&cfg.User.ID, o.UserID)
	set(&cfg.User.Email, o.UserEmail)
	if cfg.Database.CredentialsFile == "" {
		cfg.Database.CredentialsFile = o.CredentialsGC
	}

	switch {
	case o.AIAPIKey != "":
		cfg.AI.APIKey = o.AIAPIKey
	case strings.EqualFold(cfg.AI.Provider, ProviderOpenAI):
		cfg.AI.APIKey = o.OpenAIAPIKey
	default:
		cfg.AI.APIKey = o.GeminiAPIKey
	}

	return nil
}
