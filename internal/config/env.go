// Package config loads process settings from the environment and
// experiment plans from JSON or HCL files.
package config

import (
	"fmt"

	"github.com/caarlos0/env/v11"
)

// Env holds settings shared by every tendencyctl command. Flags override
// these values.
type Env struct {
	Store        string `env:"TENDENCY_STORE"`
	DBPath       string `env:"TENDENCY_DB_PATH"       envDefault:"tendency.db"`
	ArtifactsDir string `env:"TENDENCY_ARTIFACTS_DIR" envDefault:"runs"`
	LogLevel     string `env:"TENDENCY_LOG_LEVEL"     envDefault:"info"`
	LogFormat    string `env:"TENDENCY_LOG_FORMAT"    envDefault:"text"`
}

// ParseEnv loads configuration from environment variables.
func ParseEnv(target any) error {
	if err := env.Parse(target); err != nil {
		return fmt.Errorf("parse env: %w", err)
	}
	return nil
}

// LoadEnv parses Env. An empty Store is left for the caller to default.
func LoadEnv() (Env, error) {
	var cfg Env
	if err := ParseEnv(&cfg); err != nil {
		return Env{}, err
	}
	return cfg, nil
}
