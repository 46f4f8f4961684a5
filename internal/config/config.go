// Package config loads settings for the crack CLI and server.
//
// Settings come from an optional YAML file layered over Default, followed by
// a small set of environment overrides:
//   - DB_PATH sets server.db_path
//   - CRC32RAINBOW_ADDR sets server.addr
//   - CRC32RAINBOW_API_KEY sets server.api_key
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"

	"go.uber.org/zap"
	"gopkg.in/yaml.v3"
)

// Environment variables consulted by Load.
const (
	EnvConfig = "CRC32RAINBOW_CONFIG"
	EnvDBPath = "DB_PATH"
	EnvAddr   = "CRC32RAINBOW_ADDR"
	EnvAPIKey = "CRC32RAINBOW_API_KEY"
)

// Config is the top-level configuration.
type Config struct {
	Engine EngineConfig `yaml:"engine"`
	Server ServerConfig `yaml:"server"`
	Log    LogConfig    `yaml:"log"`
}

// EngineConfig configures the cracking engine.
type EngineConfig struct {
	// Polynomial is the reversed CRC-32 polynomial, written in hex.
	// Default: 0xedb88320
	Polynomial string `yaml:"polynomial"`

	// MaxWidth bounds the field-width hypotheses, 1 to 9.
	// Default: 9
	MaxWidth int `yaml:"max_width"`

	// Workers is the parallelism of index builds and batch cracks.
	// Zero uses every CPU.
	Workers int `yaml:"workers"`

	// Strict rejects hashes that are not 1 to 8 hex digits.
	Strict bool `yaml:"strict"`
}

// ServerConfig configures the HTTP API.
type ServerConfig struct {
	// Addr is the listen address.
	// Default: :8080
	Addr string `yaml:"addr"`

	// DBPath is the sqlite database holding crack history.
	// Default: ./cracks.db
	DBPath string `yaml:"db_path"`

	// APIKey, if set, must be sent in the api_key header.
	APIKey string `yaml:"api_key"`

	// CacheTTL is how long crack results stay cached. Zero keeps them
	// until the server exits.
	// Default: 10m
	CacheTTL time.Duration `yaml:"cache_ttl"`
}

// LogConfig configures logging.
type LogConfig struct {
	// Level is one of debug, info, warn, error.
	// Default: info
	Level string `yaml:"level"`

	// Development selects human-readable console output.
	Development bool `yaml:"development"`
}

// Default returns the default configuration.
func Default() *Config {
	return &Config{
		Engine: EngineConfig{
			Polynomial: "0xedb88320",
			MaxWidth:   9,
		},
		Server: ServerConfig{
			Addr:     ":8080",
			DBPath:   "./cracks.db",
			CacheTTL: 10 * time.Minute,
		},
		Log: LogConfig{
			Level: "info",
		},
	}
}

// Load reads the YAML file at path over the defaults and applies environment
// overrides. An empty path skips the file.
func Load(path string) (*Config, error) {
	cfg := Default()
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config %s: %w", path, err)
		}
	}
	cfg.applyEnv()
	return cfg, nil
}

func (c *Config) applyEnv() {
	if v := os.Getenv(EnvDBPath); v != "" {
		c.Server.DBPath = v
	}
	if v := os.Getenv(EnvAddr); v != "" {
		c.Server.Addr = v
	}
	if v := os.Getenv(EnvAPIKey); v != "" {
		c.Server.APIKey = v
	}
}

// PolynomialValue parses Engine.Polynomial.
func (e EngineConfig) PolynomialValue() (uint32, error) {
	v, err := strconv.ParseUint(e.Polynomial, 0, 32)
	if err != nil {
		return 0, fmt.Errorf("invalid polynomial %q: %w", e.Polynomial, err)
	}
	return uint32(v), nil
}

// Validate checks the configuration for errors.
func (c *Config) Validate() error {
	var errs []error

	if _, err := c.Engine.PolynomialValue(); err != nil {
		errs = append(errs, fmt.Errorf("engine.polynomial: %w", err))
	}
	if c.Engine.MaxWidth < 1 || c.Engine.MaxWidth > 9 {
		errs = append(errs, fmt.Errorf("engine.max_width must be between 1 and 9, got %d", c.Engine.MaxWidth))
	}
	if c.Engine.Workers < 0 {
		errs = append(errs, fmt.Errorf("engine.workers must not be negative, got %d", c.Engine.Workers))
	}
	if c.Server.Addr == "" {
		errs = append(errs, errors.New("server.addr is required"))
	}
	if c.Server.DBPath == "" {
		errs = append(errs, errors.New("server.db_path is required"))
	}
	if c.Server.CacheTTL < 0 {
		errs = append(errs, fmt.Errorf("server.cache_ttl must not be negative, got %v", c.Server.CacheTTL))
	}
	if _, err := zap.ParseAtomicLevel(c.Log.Level); err != nil {
		errs = append(errs, fmt.Errorf("log.level: %w", err))
	}

	return errors.Join(errs...)
}

// Build constructs a logger for the configured level and format.
func (l LogConfig) Build() (*zap.Logger, error) {
	level, err := zap.ParseAtomicLevel(l.Level)
	if err != nil {
		return nil, fmt.Errorf("invalid log level: %w", err)
	}
	cfg := zap.NewProductionConfig()
	if l.Development {
		cfg = zap.NewDevelopmentConfig()
	}
	cfg.Level = level
	return cfg.Build()
}
