package config

import (
	"encoding/json"
	"math"
	"os"
	"path/filepath"

	"github.com/charmbracelet/log"
	"github.com/pkg/errors"
)

// Env names a config file that replaces the default path.
const Env = "PIANOLA_CONFIG"

// Config is the main configuration structure
type Config struct {
	SampleRate  int     `json:"sampleRate"`
	Volume      int     `json:"volume"`
	TempoScale  float64 `json:"tempoScale"`
	ReleaseTail float64 `json:"releaseTail"`
	LogLevel    string  `json:"logLevel"`
	Listen      string  `json:"listen"`
	Width       int     `json:"width"`
	Height      int     `json:"height"`
	Headless    bool    `json:"headless,omitempty"`
}

// DefaultConfig returns a config with sensible defaults
func DefaultConfig() *Config {
	return &Config{
		SampleRate:  44100,
		Volume:      30,
		TempoScale:  1,
		ReleaseTail: 0.1,
		LogLevel:    "info",
		Listen:      ":8080",
		Width:       800,
		Height:      600,
	}
}

// ConfigDir returns the config directory path
func ConfigDir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".config", "pianola"), nil
}

// ConfigPath returns the full path to config.json, or the file named by Env
func ConfigPath() (string, error) {
	if path := os.Getenv(Env); path != "" {
		return path, nil
	}
	dir, err := ConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "config.json"), nil
}

// Load reads the config from path, ConfigPath when empty, or returns
// defaults if not found. Fields missing from the file keep their defaults.
func Load(path string) (*Config, error) {
	if path == "" {
		var err error
		path, err = ConfigPath()
		if err != nil {
			return DefaultConfig(), nil
		}
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return DefaultConfig(), nil
		}
		return nil, errors.Wrap(err, "config")
	}

	cfg := DefaultConfig()
	if err := json.Unmarshal(data, cfg); err != nil {
		return nil, errors.Wrapf(err, "config %s", path)
	}
	if err := cfg.Validate(); err != nil {
		return nil, errors.Wrapf(err, "config %s", path)
	}

	return cfg, nil
}

// Save writes the config to path, ConfigPath when empty
func (c *Config) Save(path string) error {
	if path == "" {
		var err error
		path, err = ConfigPath()
		if err != nil {
			return err
		}
	}

	// Create directory if it doesn't exist
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return errors.Wrap(err, "config")
	}

	data, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return err
	}

	return errors.Wrap(os.WriteFile(path, data, 0644), "config")
}

// Level returns the parsed log level
func (c *Config) Level() (log.Level, error) {
	return log.ParseLevel(c.LogLevel)
}

// Validate reports the first field out of range
func (c *Config) Validate() error {
	switch {
	case c.SampleRate < 8000 || c.SampleRate > 192000:
		return errors.Errorf("sampleRate %d out of range", c.SampleRate)
	case c.Volume < 0 || c.Volume > 100:
		return errors.Errorf("volume %d out of range", c.Volume)
	case !(c.TempoScale > 0) || math.IsInf(c.TempoScale, 0):
		return errors.Errorf("tempoScale %v must be positive", c.TempoScale)
	case c.ReleaseTail < 0:
		return errors.Errorf("releaseTail %v is negative", c.ReleaseTail)
	case c.Width <= 0 || c.Height <= 0:
		return errors.Errorf("window %dx%d is empty", c.Width, c.Height)
	}
	if _, err := c.Level(); err != nil {
		return err
	}
	return nil
}
