// Package config loads the session configuration from an optional YAML file
// with environment variable overrides.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"

	"github.com/caarlos0/env/v11"
	"gopkg.in/yaml.v3"
)

// Config holds every runtime knob. File values are overridden by the
// matching environment variables.
type Config struct {
	PlayerName     string  `yaml:"player_name" env:"COURIER_PLAYER_NAME"`
	DBPath         string  `yaml:"db_path" env:"COURIER_DB_PATH"`
	APIAddr        string  `yaml:"api_addr" env:"COURIER_API_ADDR"`
	AdminToken     string  `yaml:"admin_token" env:"COURIER_ADMIN_TOKEN"`
	TimeMultiplier float64 `yaml:"time_multiplier" env:"COURIER_TIME_MULTIPLIER"`
	Seed           int64   `yaml:"seed" env:"COURIER_SEED"`
	DialogueMode   string  `yaml:"dialogue_mode" env:"COURIER_DIALOGUE_MODE"` // "offline" or "online"
	AnthropicKey   string  `yaml:"anthropic_key" env:"ANTHROPIC_API_KEY"`
	RandomOrgKey   string  `yaml:"random_org_key" env:"RANDOM_ORG_API_KEY"`
	SaveInterval   int     `yaml:"save_interval_seconds" env:"COURIER_SAVE_INTERVAL"`
}

// ApplyDefaults fills zero values with working defaults.
func (c *Config) ApplyDefaults() {
	if c.PlayerName == "" {
		c.PlayerName = "Rider"
	}
	if c.DBPath == "" {
		c.DBPath = "courier.db"
	}
	if c.APIAddr == "" {
		c.APIAddr = ":8080"
	}
	if c.TimeMultiplier <= 0 {
		c.TimeMultiplier = 60.0
	}
	if c.DialogueMode == "" {
		c.DialogueMode = "offline"
	}
	if c.SaveInterval <= 0 {
		c.SaveInterval = 60
	}
}

// Load reads the YAML file at path, then applies env overrides and defaults.
// A missing file is not an error: env and defaults still apply.
func Load(path string) (*Config, error) {
	var c Config

	b, err := os.ReadFile(path)
	switch {
	case err == nil:
		if err := yaml.Unmarshal(b, &c); err != nil {
			return nil, fmt.Errorf("parse config %s: %w", path, err)
		}
	case errors.Is(err, fs.ErrNotExist):
		// fall through to env and defaults
	default:
		return nil, fmt.Errorf("read config %s: %w", path, err)
	}

	if err := env.Parse(&c); err != nil {
		return nil, fmt.Errorf("parse env: %w", err)
	}

	c.ApplyDefaults()
	return &c, nil
}
