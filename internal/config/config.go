// Package config loads the harness and twin configuration from defaults,
// an optional sosbdd.yaml, a .env file and the process environment.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"net/url"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

const (
	// DefaultConfigName is the config file searched in the working directory.
	DefaultConfigName = "sosbdd"
	// DefaultEnvFile is loaded into the environment before reading config.
	DefaultEnvFile = ".env"
	// DefaultBaseURL is the reporting-service address when nothing overrides it.
	DefaultBaseURL = "http://localhost:8080"
	// DefaultTwinPort is the twin's listen port.
	DefaultTwinPort = 8080
)

// TwinConfig configures the HTTP twin server.
type TwinConfig struct {
	Port     int           `mapstructure:"port"`
	Latency  time.Duration `mapstructure:"latency"`
	FailRate float64       `mapstructure:"fail_rate"`
	Verbose  bool          `mapstructure:"verbose"`
	SeedFile string        `mapstructure:"seed_file"`
}

// FeaturesConfig configures the godog suite.
type FeaturesConfig struct {
	Paths  []string `mapstructure:"paths"`
	Format string   `mapstructure:"format"`
	Tags   string   `mapstructure:"tags"`
	Strict bool     `mapstructure:"strict"`
}

// Config is the full harness configuration.
type Config struct {
	// BaseURL is the reporting service address (API_BASE_URL). The in-memory
	// client only displays it.
	BaseURL  string         `mapstructure:"base_url"`
	Twin     TwinConfig     `mapstructure:"twin"`
	Features FeaturesConfig `mapstructure:"features"`
}

// NewViper returns a viper instance with defaults and environment bindings
// registered. Callers may bind command-line flags on it before LoadWith.
func NewViper() *viper.Viper {
	v := viper.New()

	v.SetDefault("base_url", DefaultBaseURL)
	v.SetDefault("twin.port", DefaultTwinPort)
	v.SetDefault("twin.latency", "0s")
	v.SetDefault("twin.fail_rate", 0.0)
	v.SetDefault("twin.verbose", false)
	v.SetDefault("twin.seed_file", "")
	v.SetDefault("features.paths", []string{"features"})
	v.SetDefault("features.format", "pretty")
	v.SetDefault("features.tags", "")
	v.SetDefault("features.strict", true)

	// SOS_TWIN_LATENCY, SOS_FEATURES_FORMAT, ...
	v.SetEnvPrefix("SOS")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Names shared with other tooling take precedence over the prefixed ones.
	_ = v.BindEnv("base_url", "API_BASE_URL", "SOS_BASE_URL")
	_ = v.BindEnv("twin.port", "PORT", "SOS_TWIN_PORT")
	_ = v.BindEnv("features.tags", "GODOG_TAGS", "SOS_FEATURES_TAGS")

	return v
}

// Load reads configuration using a fresh viper instance.
// See LoadWith for path semantics.
func Load(path string) (*Config, error) {
	return LoadWith(NewViper(), path)
}

// LoadWith loads .env (if present), then the config file at path. An empty
// path searches ./sosbdd.{yaml,yml,json} and tolerates its absence; an
// explicit path must exist.
func LoadWith(v *viper.Viper, path string) (*Config, error) {
	if err := godotenv.Load(DefaultEnvFile); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("loading %s: %w", DefaultEnvFile, err)
	}

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("reading config %s: %w", path, err)
		}
	} else {
		v.SetConfigName(DefaultConfigName)
		v.AddConfigPath(".")
		if err := v.ReadInConfig(); err != nil {
			var notFound viper.ConfigFileNotFoundError
			if !errors.As(err, &notFound) {
				return nil, fmt.Errorf("reading config: %w", err)
			}
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks value ranges.
func (c *Config) Validate() error {
	u, err := url.Parse(c.BaseURL)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return fmt.Errorf("base_url must be an absolute URL, got %q", c.BaseURL)
	}
	if c.Twin.Port < 0 || c.Twin.Port > 65535 {
		return fmt.Errorf("twin.port out of range: %d", c.Twin.Port)
	}
	if c.Twin.Latency < 0 {
		return fmt.Errorf("twin.latency must not be negative")
	}
	if c.Twin.FailRate < 0 || c.Twin.FailRate > 1 {
		return fmt.Errorf("twin.fail_rate must be between 0.0 and 1.0")
	}
	if len(c.Features.Paths) == 0 {
		return fmt.Errorf("features.paths must not be empty")
	}
	return nil
}
