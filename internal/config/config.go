// Package config handles the XDG configuration directory and settings file.
package config

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

const (
	// AppName is the application directory name.
	AppName = "rtodo"

	// SettingsFile is the YAML settings filename.
	SettingsFile = "config.yaml"

	// StoreFile is the key-value database filename.
	StoreFile = "store.db"

	// PhotosDirName is the directory for locally copied photos.
	PhotosDirName = "photos"

	// EnvAPIURL overrides the configured backend URL.
	EnvAPIURL = "RTODO_API_URL"
)

// Config holds configuration paths and settings.
type Config struct {
	// Dir is the configuration directory path.
	Dir string

	// APIURL is the backend base URL, without a trailing slash.
	APIURL string

	// Debug enables debug logging.
	Debug bool

	// Quiet suppresses informational output.
	Quiet bool
}

// settings is the on-disk shape of config.yaml.
type settings struct {
	APIURL string `yaml:"api_url"`
}

// New creates a Config with the default or specified config directory and
// loads the settings file if one exists. The RTODO_API_URL environment
// variable wins over the file.
func New(configDir string) (*Config, error) {
	dir := configDir
	if dir == "" {
		dir = DefaultConfigDir()
	}
	c := &Config{Dir: dir}
	if err := c.loadSettings(); err != nil {
		return nil, err
	}
	if env := os.Getenv(EnvAPIURL); env != "" {
		c.APIURL = env
	}
	c.APIURL = trimSlash(c.APIURL)
	return c, nil
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

func (c *Config) loadSettings() error {
	data, err := os.ReadFile(c.SettingsPath())
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("read settings: %w", err)
	}
	var s settings
	if err := yaml.Unmarshal(data, &s); err != nil {
		return fmt.Errorf("invalid %s: %w", SettingsFile, err)
	}
	c.APIURL = s.APIURL
	return nil
}

// SettingsPath returns the path to the settings file.
func (c *Config) SettingsPath() string {
	return filepath.Join(c.Dir, SettingsFile)
}

// StorePath returns the path to the key-value database.
func (c *Config) StorePath() string {
	return filepath.Join(c.Dir, StoreFile)
}

// PhotosDir returns the directory locally copied photos live in.
func (c *Config) PhotosDir() string {
	return filepath.Join(c.Dir, PhotosDirName)
}

// EnsureDir creates the config directory if it doesn't exist.
// Directory is created with mode 0700.
func (c *Config) EnsureDir() error {
	return os.MkdirAll(c.Dir, 0700)
}

func trimSlash(s string) string {
	for len(s) > 0 && s[len(s)-1] == '/' {
		s = s[:len(s)-1]
	}
	return s
}
