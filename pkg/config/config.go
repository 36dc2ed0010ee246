package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/rezmoss/polytimer/pkg/state"
)

const (
	xdgAppName = "polytimer"
	configFile = "config.yaml"
	soundFile  = "notify.ogg"
)

type Config struct {
	StateDir       string        `yaml:"state_dir"`
	PlayIcon       string        `yaml:"play_icon"`
	PauseIcon      string        `yaml:"pause_icon"`
	PollInterval   time.Duration `yaml:"poll_interval"`
	IncreaseStep   time.Duration `yaml:"increase_step"`
	DefaultMinutes uint64        `yaml:"default_minutes"`
	Sound          string        `yaml:"sound"`
	Volume         float64       `yaml:"volume"`
	Silent         bool          `yaml:"silent"`
}

func Default() *Config {
	cfg := &Config{
		StateDir:       state.DefaultDir(),
		PlayIcon:       "⏵",
		PauseIcon:      "⏸",
		PollInterval:   250 * time.Millisecond,
		IncreaseStep:   time.Minute,
		DefaultMinutes: 25,
	}
	if dir, err := Dir(); err == nil {
		cfg.Sound = filepath.Join(dir, soundFile)
	}
	return cfg
}

// Dir is $XDG_CONFIG_HOME/polytimer, falling back to ~/.config/polytimer.
func Dir() (string, error) {
	if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
		return filepath.Join(xdg, xdgAppName), nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".config", xdgAppName), nil
}

func GetConfigPath() (string, error) {
	dir, err := Dir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, configFile), nil
}

// Load reads the config at path, or the default location when path is
// empty. A missing file yields the defaults; keys absent from the file
// keep their default values.
func Load(path string) (*Config, error) {
	if path == "" {
		p, err := GetConfigPath()
		if err != nil {
			return Default(), nil
		}
		path = p
	}

	cfg := Default()
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return cfg, nil
		}
		return nil, err
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to decode config %s: %w", path, err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config %s: %w", path, err)
	}
	return cfg, nil
}

func (c *Config) Validate() error {
	switch {
	case c.StateDir == "":
		return errors.New("state_dir must not be empty")
	case c.PollInterval <= 0:
		return fmt.Errorf("poll_interval must be positive, got %s", c.PollInterval)
	case c.IncreaseStep < 0:
		return fmt.Errorf("increase_step must not be negative, got %s", c.IncreaseStep)
	}
	return nil
}

func Save(path string, cfg *Config) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}
	return os.WriteFile(path, data, 0644)
}
