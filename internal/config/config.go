// Package config loads the optional YAML config file and applies environment
// overrides on top of it.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/julianstephens/tally/internal/constants"
	"github.com/julianstephens/tally/internal/models"
)

// Config holds the values a user can set outside the database. Zero values
// mean "not set"; the stored settings apply instead.
type Config struct {
	// Database is a SQLite path or a PostgreSQL connection string.
	Database   string `yaml:"database,omitempty"`
	Timezone   string `yaml:"timezone,omitempty"`
	Debug      bool   `yaml:"debug,omitempty"`
	AutoBackup *bool  `yaml:"auto_backup,omitempty"`
	WeekStart  int    `yaml:"week_start,omitempty"`
}

// Load reads the config file at path. A missing file is not an error.
// Environment variables override the file.
func Load(path string) (Config, error) {
	var cfg Config

	expanded, err := ExpandPath(path)
	if err != nil {
		return cfg, err
	}
	data, err := os.ReadFile(expanded)
	switch {
	case err == nil:
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return Config{}, fmt.Errorf("failed to parse config %s: %w", expanded, err)
		}
	case os.IsNotExist(err):
	default:
		return cfg, fmt.Errorf("failed to read config %s: %w", expanded, err)
	}

	cfg.Database = getEnv(constants.EnvDatabase, cfg.Database)
	cfg.Timezone = getEnv(constants.EnvTimezone, cfg.Timezone)
	cfg.Debug = getEnvBool(constants.EnvDebug, cfg.Debug)

	if cfg.WeekStart < 0 || cfg.WeekStart > 7 {
		return cfg, fmt.Errorf("week_start must be an ISO weekday (1-7), got %d", cfg.WeekStart)
	}
	return cfg, nil
}

// Save writes the config as YAML, creating the parent directory.
func (c Config) Save(path string) error {
	expanded, err := ExpandPath(path)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(expanded), 0700); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to encode config: %w", err)
	}
	return os.WriteFile(expanded, data, 0600)
}

// Apply overlays the values set in the config onto stored settings.
func (c Config) Apply(s *models.Settings) {
	if c.Timezone != "" {
		s.Timezone = c.Timezone
	}
	if c.AutoBackup != nil {
		s.AutoBackup = *c.AutoBackup
	}
	if c.WeekStart != 0 {
		s.WeekStart = c.WeekStart
	}
}

// LogDir is where the rotating log file lives: next to a SQLite database, or
// in the default config directory otherwise.
func (c Config) LogDir(database string) string {
	if database != "" && !strings.Contains(database, "://") && !strings.Contains(database, "=") {
		if expanded, err := ExpandPath(database); err == nil {
			return filepath.Dir(expanded)
		}
	}
	dir, err := ExpandPath(constants.DefaultConfigDir)
	if err != nil {
		return "."
	}
	return dir
}

// ExpandPath replaces a leading ~ with the user's home directory.
func ExpandPath(path string) (string, error) {
	if path != "~" && !strings.HasPrefix(path, "~/") {
		return path, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to resolve home directory: %w", err)
	}
	return filepath.Join(home, strings.TrimPrefix(path, "~")), nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		return value == "true" || value == "1" || value == "yes"
	}
	return defaultValue
}
