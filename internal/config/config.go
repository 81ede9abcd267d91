// Package config loads the optional mailtriage.toml configuration
// file. Flags on the cmds override anything set here.
package config

import (
	"fmt"
	"os"

	"github.com/BurntSushi/toml"
)

// GmailConfig holds Gmail API configuration.
type GmailConfig struct {
	CredentialsDir    string `toml:"credentials_dir"`
	PageSize          int    `toml:"page_size"`
	RequestsPerSecond int    `toml:"requests_per_second"`
}

// DatabaseConfig holds local store configuration.
type DatabaseConfig struct {
	Path string `toml:"path"`
}

// RulesConfig holds rule definition configuration.
type RulesConfig struct {
	Path string `toml:"path"`
}

// FetchConfig holds mirror pass configuration.
type FetchConfig struct {
	Query   string `toml:"query"`
	Max     int    `toml:"max"`
	Workers int    `toml:"workers"`
}

// Config is the root of mailtriage.toml.
type Config struct {
	Gmail    GmailConfig    `toml:"gmail"`
	Database DatabaseConfig `toml:"database"`
	Rules    RulesConfig    `toml:"rules"`
	Fetch    FetchConfig    `toml:"fetch"`
}

// Default returns the configuration used when no file is present.
func Default() Config {
	return Config{
		Gmail: GmailConfig{
			CredentialsDir:    os.ExpandEnv("$HOME/.gmailctl"),
			PageSize:          100,
			RequestsPerSecond: 4,
		},
		Database: DatabaseConfig{Path: "mailtriage.db"},
		Rules:    RulesConfig{Path: "rules.json"},
		Fetch:    FetchConfig{Query: "in:inbox", Max: 0, Workers: 4},
	}
}

// Load reads the file at path over the defaults. A missing file is not
// an error; an unreadable or malformed one is.
func Load(path string) (Config, error) {
	cfg := Default()
	if path == "" {
		return cfg, nil
	}
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return cfg, nil
	}
	if _, err := toml.DecodeFile(path, &cfg); err != nil {
		return Config{}, fmt.Errorf("decode config %s: %w", path, err)
	}
	return cfg, nil
}
