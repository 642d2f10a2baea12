// Package config handles the XDG configuration directory, file paths and the
// client settings file.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"
)

const (
	// AppName is the application directory name.
	AppName = "taskdeck"

	// CredentialsFile is the stored token pair filename.
	CredentialsFile = "credentials.json"

	// ProfileFile caches the authenticated user's profile.
	ProfileFile = "profile.json"

	// SettingsFile is the client settings filename.
	SettingsFile = "config.yaml"

	// DefaultBaseURL targets a local taskdeckd instance.
	DefaultBaseURL = "http://localhost:5000/api"
)

// Settings is the persisted client configuration.
type Settings struct {
	// BaseURL is the API root every request is issued under.
	BaseURL string `yaml:"base_url"`

	// Timeout is the fixed request timeout.
	Timeout time.Duration `yaml:"timeout"`
}

// Config holds configuration paths and runtime flags.
type Config struct {
	// Dir is the configuration directory path.
	Dir string

	// Quiet suppresses informational output.
	Quiet bool

	// Settings is the loaded client configuration.
	Settings Settings
}

// New creates a Config rooted at configDir, loading the settings file when
// present. If configDir is empty, uses XDG_CONFIG_HOME/taskdeck or
// $HOME/.config/taskdeck. The TASKDECK_API_URL environment variable
// overrides the configured base URL.
func New(configDir string) (*Config, error) {
	dir := configDir
	if dir == "" {
		dir = DefaultConfigDir()
	}

	cfg := &Config{
		Dir: dir,
		Settings: Settings{
			BaseURL: DefaultBaseURL,
			Timeout: 10 * time.Second,
		},
	}
	if err := cfg.loadSettings(); err != nil {
		return nil, err
	}

	if url := os.Getenv("TASKDECK_API_URL"); url != "" {
		cfg.Settings.BaseURL = url
	}
	return cfg, nil
}

// DefaultConfigDir returns the default configuration directory.
// Uses XDG_CONFIG_HOME if set, otherwise $HOME/.config.
func DefaultConfigDir() string {
	if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
		return filepath.Join(xdg, AppName)
	}
	home, err := os.UserHomeDir()
	if err != nil {
		// Fallback to current directory if home can't be determined
		return AppName
	}
	return filepath.Join(home, ".config", AppName)
}

// CredentialsPath returns the path to the stored token pair.
func (c *Config) CredentialsPath() string {
	return filepath.Join(c.Dir, CredentialsFile)
}

// ProfilePath returns the path to the cached user profile.
func (c *Config) ProfilePath() string {
	return filepath.Join(c.Dir, ProfileFile)
}

// SettingsPath returns the path to the client settings file.
func (c *Config) SettingsPath() string {
	return filepath.Join(c.Dir, SettingsFile)
}

// EnsureDir creates the config directory if it doesn't exist.
// Directory is created with mode 0700.
func (c *Config) EnsureDir() error {
	return os.MkdirAll(c.Dir, 0700)
}

// HasCredentials checks if the token file exists.
func (c *Config) HasCredentials() bool {
	_, err := os.Stat(c.CredentialsPath())
	return err == nil
}

// SaveSettings writes the settings file.
func (c *Config) SaveSettings() error {
	if err := c.EnsureDir(); err != nil {
		return err
	}
	data, err := yaml.Marshal(c.Settings)
	if err != nil {
		return fmt.Errorf("encode settings: %w", err)
	}
	return os.WriteFile(c.SettingsPath(), data, 0600)
}

func (c *Config) loadSettings() error {
	data, err := os.ReadFile(c.SettingsPath())
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("read settings: %w", err)
	}
	if err := yaml.Unmarshal(data, &c.Settings); err != nil {
		return fmt.Errorf("invalid settings file %s: %w", c.SettingsPath(), err)
	}
	if c.Settings.BaseURL == "" {
		c.Settings.BaseURL = DefaultBaseURL
	}
	if c.Settings.Timeout <= 0 {
		c.Settings.Timeout = 10 * time.Second
	}
	return nil
}
