// Package config resolves the runtime knobs for one deck server.
// Precedence: built-in defaults, then the optional YAML file, then
// environment variables. CLI flag overrides are applied by the caller.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/quickdeck/quickdeck/pkg/deck/internalerr"
)

// DefaultFile is the config file probed when none is named explicitly.
const DefaultFile = "quickdeck.yaml"

// Config holds the runtime knobs for one deck server.
type Config struct {
	Port            int    `yaml:"port"`
	DeckID          string `yaml:"deck_id"`
	DeckDisplayName string `yaml:"deck_display_name"`
	DatabaseURL     string `yaml:"database_url"`
}

// Default returns the built-in configuration.
func Default() Config {
	return Config{Port: 8080, DeckID: "deck"}
}

// Load resolves configuration from the given YAML file (missing file
// tolerated) and the environment.
func Load(path string) (Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		switch {
		case errors.Is(err, os.ErrNotExist):
			// optional
		case err != nil:
			return cfg, fmt.Errorf("read config: %w", err)
		default:
			if err := yaml.Unmarshal(data, &cfg); err != nil {
				return cfg, fmt.Errorf("%w: %v", internalerr.ErrInvalidConfig, err)
			}
		}
	}

	applyEnv(&cfg)

	if cfg.Port <= 0 || cfg.Port > 65535 {
		return cfg, fmt.Errorf("%w: port %d out of range", internalerr.ErrInvalidConfig, cfg.Port)
	}
	if cfg.DeckID == "" {
		return cfg, fmt.Errorf("%w: deck id must not be empty", internalerr.ErrInvalidConfig)
	}
	return cfg, nil
}

func applyEnv(cfg *Config) {
	if v := os.Getenv("PORT"); v != "" {
		if p, err := strconv.Atoi(v); err == nil {
			cfg.Port = p
		}
	}
	if v := os.Getenv("DECK_ID"); v != "" {
		cfg.DeckID = v
	}
	if v := os.Getenv("DECK_DISPLAY_NAME"); v != "" {
		cfg.DeckDisplayName = v
	}
	if v := os.Getenv("DATABASE_URL"); v != "" {
		cfg.DatabaseURL = v
	}
}

// DisplayName falls back to the deck id.
func (c Config) DisplayName() string {
	if c.DeckDisplayName != "" {
		return c.DeckDisplayName
	}
	return c.DeckID
}

// DBPath returns the SQLite file backing this deck. DatabaseURL wins
// only when it does not point at a .db file; otherwise the deck-scoped
// local filename is used.
func (c Config) DBPath() string {
	if c.DatabaseURL != "" && !strings.HasSuffix(c.DatabaseURL, ".db") {
		return c.DatabaseURL
	}
	return "./" + c.DeckID + ".db"
}

// MarkdownDir is the deck-scoped markdown content directory.
func (c Config) MarkdownDir() string {
	return filepath.Join("static", c.DeckID, "md")
}

// ImageDir is the deck-scoped image content directory.
func (c Config) ImageDir() string {
	return filepath.Join("static", c.DeckID, "img")
}
