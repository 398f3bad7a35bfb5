// Package config loads labtrack settings from YAML, .env and the environment.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/fentz26/labtrack/internal/models"
	"github.com/fentz26/labtrack/internal/session"
	"github.com/fentz26/labtrack/internal/view"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// EnvPrefix prefixes every environment override.
const EnvPrefix = "LABTRACK_"

// Config holds labtrack configuration.
type Config struct {
	// API is the remote sample service.
	API APIConfig `yaml:"api"`
	// Poll controls the background refresh.
	Poll PollConfig `yaml:"poll"`
	// Store is the local SQLite database for session flags and audit.
	Store StoreConfig `yaml:"store"`
	// Log configures the zap logger.
	Log LogConfig `yaml:"log"`
	// Metrics is where `labtrack watch` serves health, samples, audit and
	// Prometheus metrics.
	Metrics MetricsConfig `yaml:"metrics"`
	// Dashboard holds view defaults.
	Dashboard DashboardConfig `yaml:"dashboard"`
	// Credentials maps role ("ed", "lab") to its login.
	Credentials map[models.Role]session.Credential `yaml:"credentials"`
}

// APIConfig points at the sample API.
type APIConfig struct {
	BaseURL string        `yaml:"base_url"`
	Timeout time.Duration `yaml:"timeout"`
}

// PollConfig sets the refresh cadence.
type PollConfig struct {
	Interval time.Duration `yaml:"interval"`
}

// StoreConfig locates the local database.
type StoreConfig struct {
	Path string `yaml:"path"`
}

// LogConfig configures logging. An empty File discards log output.
type LogConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
	File   string `yaml:"file"`
}

// MetricsConfig configures the watcher's status server. Empty Addr
// disables it.
type MetricsConfig struct {
	Addr string `yaml:"addr"`
}

// DashboardConfig holds view defaults.
type DashboardConfig struct {
	Window string `yaml:"window"`
}

// Dir returns ~/.config/labtrack, or a relative fallback.
func Dir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".labtrack"
	}
	return filepath.Join(home, ".config", "labtrack")
}

// DefaultPath returns the default config file location.
func DefaultPath() string {
	return filepath.Join(Dir(), "config.yaml")
}

// DefaultConfig returns a sensible default configuration.
func DefaultConfig() *Config {
	dir := Dir()
	return &Config{
		API: APIConfig{
			BaseURL: "http://localhost:5000",
			Timeout: 10 * time.Second,
		},
		Poll: PollConfig{
			Interval: 5 * time.Second,
		},
		Store: StoreConfig{
			Path: filepath.Join(dir, "labtrack.db"),
		},
		Log: LogConfig{
			Level:  "info",
			Format: "json",
			File:   filepath.Join(dir, "labtrack.log"),
		},
		Dashboard: DashboardConfig{
			Window: "24h",
		},
		Credentials: session.DefaultCredentials(),
	}
}

// Load reads path (missing is fine), then .env and LABTRACK_* overrides.
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(path)
	switch {
	case err == nil:
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parsing config file: %w", err)
		}
	case !os.IsNotExist(err):
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("loading .env: %w", err)
	}
	if err := cfg.applyEnv(); err != nil {
		return nil, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

// LoadFromHome loads ~/.config/labtrack/config.yaml.
func LoadFromHome() (*Config, error) {
	return Load(DefaultPath())
}

// Save writes cfg as YAML, creating parent directories if needed.
func Save(path string, cfg *Config) error {
	if cfg == nil {
		return fmt.Errorf("config cannot be nil")
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return fmt.Errorf("creating config dir: %w", err)
	}

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("marshaling config: %w", err)
	}

	if err := os.WriteFile(path, data, 0o600); err != nil {
		return fmt.Errorf("writing config file: %w", err)
	}
	return nil
}

func (c *Config) applyEnv() error {
	c.API.BaseURL = getEnv("API_URL", c.API.BaseURL)
	c.Store.Path = getEnv("DB", c.Store.Path)
	c.Log.Level = getEnv("LOG_LEVEL", c.Log.Level)
	c.Log.Format = getEnv("LOG_FORMAT", c.Log.Format)
	c.Log.File = getEnv("LOG_FILE", c.Log.File)
	c.Metrics.Addr = getEnv("METRICS_ADDR", c.Metrics.Addr)
	c.Dashboard.Window = getEnv("WINDOW", c.Dashboard.Window)

	var err error
	if c.API.Timeout, err = getEnvAsDuration("TIMEOUT", c.API.Timeout); err != nil {
		return err
	}
	if c.Poll.Interval, err = getEnvAsDuration("POLL_INTERVAL", c.Poll.Interval); err != nil {
		return err
	}

	if c.Credentials == nil {
		c.Credentials = make(map[models.Role]session.Credential)
	}
	for _, role := range []models.Role{models.RoleED, models.RoleLab} {
		cred := c.Credentials[role]
		prefix := strings.ToUpper(string(role)) + "_"
		cred.Username = getEnv(prefix+"USER", cred.Username)
		cred.Password = getEnv(prefix+"PASSWORD", cred.Password)
		c.Credentials[role] = cred
	}
	return nil
}

// Validate checks that the configuration is usable.
func (c *Config) Validate() error {
	if c.API.BaseURL == "" {
		return fmt.Errorf("api.base_url is required")
	}
	if c.API.Timeout <= 0 {
		return fmt.Errorf("api.timeout must be positive")
	}
	if c.Poll.Interval < time.Second {
		return fmt.Errorf("poll.interval must be at least 1s")
	}
	if c.Store.Path == "" {
		return fmt.Errorf("store.path is required")
	}
	if _, err := view.ParseWindow(c.Dashboard.Window); err != nil {
		return fmt.Errorf("dashboard.window: %w", err)
	}
	validLevels := map[string]bool{"debug": true, "info": true, "warn": true, "error": true}
	if !validLevels[c.Log.Level] {
		return fmt.Errorf("invalid log level %q, must be: debug, info, warn, or error", c.Log.Level)
	}
	return nil
}

// Window returns the configured default time window.
func (c *Config) Window() view.Window {
	w, err := view.ParseWindow(c.Dashboard.Window)
	if err != nil {
		return view.Window24h
	}
	return w
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(EnvPrefix + key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsDuration(key string, defaultValue time.Duration) (time.Duration, error) {
	value := os.Getenv(EnvPrefix + key)
	if value == "" {
		return defaultValue, nil
	}
	d, err := time.ParseDuration(value)
	if err != nil {
		return 0, fmt.Errorf("%s%s: %w", EnvPrefix, key, err)
	}
	return d, nil
}
