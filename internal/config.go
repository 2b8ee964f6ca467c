package internal

import (
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// DefaultAPIBase is the production Devin API endpoint.
const DefaultAPIBase = "https://api.devin.ai/v1"

// DefaultAllowedNotifyHosts are the hosts a notification click is allowed to
// open when the config does not override the list.
var DefaultAllowedNotifyHosts = []string{
	"github.com",
	"app.devin.ai",
	"gitlab.com",
	"bitbucket.org",
}

// Config is the persisted tool configuration.
type Config struct {
	APIKey             string   `yaml:"api_key"`
	APIBaseURL         string   `yaml:"api_base_url,omitempty"`
	DatabasePath       string   `yaml:"database_path,omitempty"`
	Repos              []string `yaml:"repos,omitempty"`
	AllowedNotifyHosts []string `yaml:"allowed_notify_hosts,omitempty"`
}

// DefaultConfigPath returns the standard config file location.
func DefaultConfigPath() (string, error) {
	base, err := os.UserConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(base, "devwatch", "config.yaml"), nil
}

// DefaultDatabasePath returns the standard session database location.
func DefaultDatabasePath() (string, error) {
	base, err := os.UserConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(base, "devwatch", "sessions.db"), nil
}

// LoadConfig reads the config file at path. A missing file yields a config
// with defaults applied rather than an error, so first runs work without any
// setup beyond the API key.
func LoadConfig(path string) (*Config, error) {
	cfg := &Config{}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			cfg.applyDefaults()
			return cfg, nil
		}
		return nil, &ConfigError{Path: path, Err: err}
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, &ConfigError{Path: path, Err: err}
	}

	cfg.applyDefaults()
	return cfg, nil
}

// Save writes the config to path, creating parent directories as needed.
func (c *Config) Save(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return &ConfigError{Path: path, Err: err}
	}

	data, err := yaml.Marshal(c)
	if err != nil {
		return &ConfigError{Path: path, Err: err}
	}

	// Config holds the API key, keep it private to the user.
	if err := os.WriteFile(path, data, 0600); err != nil {
		return &ConfigError{Path: path, Err: err}
	}
	return nil
}

// HasRepo reports whether repo is in the configured repo list. An empty list
// accepts any repo.
func (c *Config) HasRepo(repo string) bool {
	if len(c.Repos) == 0 {
		return true
	}
	for _, r := range c.Repos {
		if r == repo {
			return true
		}
	}
	return false
}

func (c *Config) applyDefaults() {
	if c.APIBaseURL == "" {
		c.APIBaseURL = DefaultAPIBase
	}
	if len(c.AllowedNotifyHosts) == 0 {
		c.AllowedNotifyHosts = append([]string(nil), DefaultAllowedNotifyHosts...)
	}
	if c.DatabasePath == "" {
		if p, err := DefaultDatabasePath(); err == nil {
			c.DatabasePath = p
		}
	}
}
