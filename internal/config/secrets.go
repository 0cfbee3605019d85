package config

import (
	"fmt"

	"github.com/caarlos0/env/v11"
)

// Secrets holds credentials read from the environment rather than config
// files.
type Secrets struct {
	// DatabaseURL is the Postgres connection string.
	DatabaseURL string `env:"ROSTERGEN_DATABASE_URL,required"`
	// ExtractionAPIKey authenticates against the rule extraction service.
	ExtractionAPIKey string `env:"ROSTERGEN_EXTRACTION_API_KEY,required"`
}

// LoadSecrets reads the secrets from the environment.
func LoadSecrets() (*Secrets, error) {
	var s Secrets
	if err := env.Parse(&s); err != nil {
		return nil, fmt.Errorf("failed to load secrets: %w", err)
	}
	return &s, nil
}
