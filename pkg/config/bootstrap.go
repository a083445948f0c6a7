package config

import (
	"errors"
	"fmt"
	"io/fs"

	"github.com/caarlos0/env/v6"
)

// EnvOverrides are the settings that can be forced from the environment.
// Zero values leave the file or default value untouched.
type EnvOverrides struct {
	LogLevel         string `env:"ROVPILOT_LOG_LEVEL"`
	LogDir           string `env:"ROVPILOT_LOG_DIR"`
	HTTPPort         int    `env:"ROVPILOT_HTTP_PORT"`
	InputDevice      string `env:"ROVPILOT_INPUT_DEVICE"`
	TelemetryAddress string `env:"ROVPILOT_TELEMETRY_ADDRESS"`
	JournalPath      string `env:"ROVPILOT_JOURNAL_PATH"`
}

// LoadOrDefault loads path, falling back to Default when the file does not
// exist. The second return value reports whether the file was found. Parse
// and validation errors are returned as-is.
func LoadOrDefault(path string) (*Config, bool, error) {
	cfg, err := LoadConfig(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return Default(), false, nil
		}
		return nil, false, err
	}
	return cfg, true, nil
}

// ApplyEnv reads EnvOverrides from the process environment and applies them.
func (c *Config) ApplyEnv() error {
	var o EnvOverrides
	if err := env.Parse(&o); err != nil {
		return fmt.Errorf("error parsing environment overrides: %w", err)
	}
	c.applyOverrides(o)
	return nil
}

func (c *Config) applyOverrides(o EnvOverrides) {
	if o.LogLevel != "" {
		c.Logging.Level = o.LogLevel
	}
	if o.LogDir != "" {
		c.Logging.LogDir = o.LogDir
	}
	if o.HTTPPort != 0 {
		c.Server.HTTPPort = o.HTTPPort
	}
	if o.InputDevice != "" {
		c.Input.Device = o.InputDevice
	}
	if o.TelemetryAddress != "" {
		c.Telemetry.PublishAddress = o.TelemetryAddress
	}
	if o.JournalPath != "" {
		c.Journal.Path = o.JournalPath
	}
}
