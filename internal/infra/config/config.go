// Package config provides configuration loading from YAML files.
package config

import (
	"os"
	"path/filepath"
	"time"

	"github.com/adrg/xdg"
	"github.com/cockroachdb/errors"
	"github.com/creasty/defaults"
	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"

	"github.com/osa030/omxbox/internal/domain/options"
)

// FallbackPath is used when no config file is found in the XDG config directories.
const FallbackPath = "config/server.yaml"

// Config represents the application configuration.
type Config struct {
	Server     ServerConfig              `yaml:"server"`
	Player     PlayerConfig              `yaml:"player"`
	Supervisor SupervisorConfig          `yaml:"supervisor"`
	Filters    map[string]FilterConfig   `yaml:"filters"`
	Presets    map[string]map[string]any `yaml:"presets"`
	Autoplay   AutoplayConfig            `yaml:"autoplay"`
}

// ServerConfig represents server configuration.
type ServerConfig struct {
	Addr  string      `yaml:"addr" default:":8080"`
	Token string      `yaml:"token"`
	Hooks HooksConfig `yaml:"hooks"`
}

// HooksConfig represents lifecycle hooks configuration.
type HooksConfig struct {
	OnStarted []string `yaml:"on_started"`
	OnStopped []string `yaml:"on_stopped"`
}

// PlayerConfig represents the player process configuration.
type PlayerConfig struct {
	Command           string `yaml:"command" default:"omxplayer" validate:"required"`
	VideosDirectory   string `yaml:"videos_directory" default:"./"`
	VideosExtension   string `yaml:"videos_extension"`
	NativeLoop        bool   `yaml:"native_loop"`
	Strict            bool   `yaml:"strict"`
	ReportWriteErrors *bool  `yaml:"report_write_errors" default:"true"`
}

// SupervisorConfig represents respawn supervision configuration.
// Respawning stops after crash_limit consecutive exits that both failed (non-zero
// status) and happened within min_uptime_ms of the spawn. Clean exits never count,
// so playlists of short clips are not cut short. Zero in either field disables it.
type SupervisorConfig struct {
	MinUptimeMs int `yaml:"min_uptime_ms" default:"1000" validate:"gte=0,lte=600000"`
	CrashLimit  int `yaml:"crash_limit" default:"5" validate:"gte=0"`
}

// FilterConfig represents a filter's configuration.
type FilterConfig struct {
	Enabled  bool           `yaml:"enabled"`
	Settings map[string]any `yaml:"settings,omitempty"`
}

// AutoplayConfig describes a session started as soon as the server is up.
type AutoplayConfig struct {
	Videos []string `yaml:"videos"`
	Preset string   `yaml:"preset"`
	Loop   bool     `yaml:"loop"`
}

// DefaultPath returns the config file found in the XDG config directories,
// or FallbackPath when there is none.
func DefaultPath() string {
	if p, err := xdg.SearchConfigFile(filepath.Join("omxbox", "server.yaml")); err == nil {
		return p
	}
	return FallbackPath
}

// Load loads configuration from a YAML file.
// Environment variables take precedence over file values.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrap(err, "failed to read config file")
	}
	return Parse(data)
}

// Parse parses configuration from YAML data.
func Parse(data []byte) (*Config, error) {
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, errors.Wrap(err, "failed to parse config file")
	}

	// Override with environment variables
	cfg.overrideFromEnv()

	// Set defaults using creasty/defaults
	if err := defaults.Set(&cfg); err != nil {
		return nil, errors.Wrap(err, "failed to set defaults")
	}

	// Validate configuration
	if err := cfg.Validate(); err != nil {
		return nil, errors.Wrap(err, "config validation failed")
	}

	return &cfg, nil
}

// overrideFromEnv overrides config values with environment variables.
func (c *Config) overrideFromEnv() {
	if v := os.Getenv("OMXBOX_TOKEN"); v != "" {
		c.Server.Token = v
	}
	if v := os.Getenv("OMXBOX_COMMAND"); v != "" {
		c.Player.Command = v
	}
	if v := os.Getenv("OMXBOX_VIDEOS_DIRECTORY"); v != "" {
		c.Player.VideosDirectory = v
	}
}

// Validate validates the configuration.
func (c *Config) Validate() error {
	validate := validator.New()
	if err := validate.Struct(c); err != nil {
		return errors.Wrap(err, "struct validation failed")
	}

	for name, preset := range c.Presets {
		opts, err := options.FromAny(preset)
		if err != nil {
			return errors.Wrapf(err, "preset %s", name)
		}
		if err := opts.Validate(); err != nil {
			return errors.Wrapf(err, "preset %s", name)
		}
	}

	if c.Autoplay.Preset != "" {
		if _, ok := c.Presets[c.Autoplay.Preset]; !ok {
			return errors.Newf("autoplay preset %q is not defined", c.Autoplay.Preset)
		}
	}

	return nil
}

// Preset returns the options of a named preset.
func (c *Config) Preset(name string) (options.Options, bool) {
	preset, ok := c.Presets[name]
	if !ok {
		return nil, false
	}
	opts, err := options.FromAny(preset)
	if err != nil {
		return nil, false
	}
	return opts, true
}

// MinUptime returns the minimum uptime below which an exit counts as rapid.
func (c *Config) MinUptime() time.Duration {
	return time.Duration(c.Supervisor.MinUptimeMs) * time.Millisecond
}

// ReportWriteErrors reports whether stdin write failures are emitted as error events.
func (c *Config) ReportWriteErrors() bool {
	return c.Player.ReportWriteErrors == nil || *c.Player.ReportWriteErrors
}
