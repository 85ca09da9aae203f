// Package config loads the engine's YAML configuration and applies
// environment overrides.
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

// #region types
// Config is the full configuration for the wargames binary.
type Config struct {
	Store    StoreConfig    `yaml:"store"`
	Engine   EngineConfig   `yaml:"engine"`
	Extract  ExtractConfig  `yaml:"extract"`
	Rewriter RewriterConfig `yaml:"rewriter"`
	Server   ServerConfig   `yaml:"server"`
	Log      LogConfig      `yaml:"log"`
}

// StoreConfig selects where the world lives.
type StoreConfig struct {
	// Driver is "sqlite" or "file".
	Driver string `yaml:"driver"`
	// Path is the sqlite database path.
	Path string `yaml:"path"`
	// WorldFile is the JSON world used by the file driver and by imports.
	WorldFile string `yaml:"world_file"`
}

// EngineConfig tunes propagation and tagging. A decay_lambda of 0 turns
// decay off.
type EngineConfig struct {
	DecayLambda  float64 `yaml:"decay_lambda"`
	TagThreshold float64 `yaml:"tag_threshold"`
}

// ExtractConfig points at an optional keyword rule file.
type ExtractConfig struct {
	RulesFile string `yaml:"rules_file"`
}

// RewriterConfig selects the cascade rewriter backend.
type RewriterConfig struct {
	// Backend is "none", "openai" or "grpc".
	Backend     string        `yaml:"backend"`
	Model       string        `yaml:"model"`
	Addr        string        `yaml:"addr"`
	Timeout     time.Duration `yaml:"timeout"`
	Temperature float32       `yaml:"temperature"`

	// APIKey is only ever read from OPENAI_API_KEY.
	APIKey string `yaml:"-"`
}

// ServerConfig configures `wargames serve`.
type ServerConfig struct {
	Addr string `yaml:"addr"`
	// WatchWorldFile re-imports store.world_file whenever it changes.
	WatchWorldFile bool `yaml:"watch_world_file"`
	// RewriterAddr, when set, also hosts the OpenAI rewriter over gRPC.
	RewriterAddr string `yaml:"rewriter_addr"`
}

// LogConfig configures zap.
type LogConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// #endregion types

// #region defaults

const (
	DriverSQLite = "sqlite"
	DriverFile   = "file"

	BackendNone   = "none"
	BackendOpenAI = "openai"
	BackendGRPC   = "grpc"
)

// Default returns a configuration that works with no file present.
func Default() *Config {
	return &Config{
		Store: StoreConfig{
			Driver:    DriverSQLite,
			Path:      "wargames.db",
			WorldFile: "data/wwi.json",
		},
		Engine: EngineConfig{
			DecayLambda:  0.25,
			TagThreshold: 0.2,
		},
		Rewriter: RewriterConfig{
			Backend:     BackendNone,
			Model:       "gpt-4o-mini",
			Addr:        "localhost:50051",
			Timeout:     30 * time.Second,
			Temperature: 0.6,
		},
		Server: ServerConfig{
			Addr: ":8080",
		},
		Log: LogConfig{
			Level:  "info",
			Format: "json",
		},
	}
}

// #endregion defaults

// #region load

// Load reads path over the defaults, then applies environment overrides.
// An empty path skips the file.
func Load(path string) (*Config, error) {
	cfg := Default()
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read config: %w", err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config: %w", err)
		}
	}
	cfg.applyEnv()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Save writes the configuration as YAML.
func (c *Config) Save(path string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("marshal config: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write config: %w", err)
	}
	return nil
}

func (c *Config) applyEnv() {
	c.Store.Path = envOr("WARGAMES_DB", c.Store.Path)
	c.Store.WorldFile = envOr("WARGAMES_WORLD", c.Store.WorldFile)
	c.Server.Addr = envOr("WARGAMES_ADDR", c.Server.Addr)
	c.Log.Level = envOr("WARGAMES_LOG_LEVEL", c.Log.Level)
	c.Rewriter.APIKey = envOr("OPENAI_API_KEY", c.Rewriter.APIKey)
	c.Rewriter.Model = envOr("OPENAI_MODEL", c.Rewriter.Model)
	c.Rewriter.Addr = envOr("REWRITER_ADDR", c.Rewriter.Addr)
	if v := os.Getenv("WARGAMES_DECAY_LAMBDA"); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			c.Engine.DecayLambda = f
		}
	}
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

// #endregion load

// #region validate

// Validate checks the configuration for errors.
func (c *Config) Validate() error {
	switch c.Store.Driver {
	case DriverSQLite:
		if c.Store.Path == "" {
			return errors.New("store.path is required for the sqlite driver")
		}
	case DriverFile:
		if c.Store.WorldFile == "" {
			return errors.New("store.world_file is required for the file driver")
		}
	default:
		return fmt.Errorf("store.driver %q must be sqlite or file", c.Store.Driver)
	}

	if c.Engine.DecayLambda < 0 {
		return fmt.Errorf("engine.decay_lambda must be non-negative, got %v", c.Engine.DecayLambda)
	}
	if c.Engine.TagThreshold <= 0 {
		return fmt.Errorf("engine.tag_threshold must be positive, got %v", c.Engine.TagThreshold)
	}

	switch c.Rewriter.Backend {
	case BackendNone, "":
	case BackendOpenAI:
		if c.Rewriter.Model == "" {
			return errors.New("rewriter.model is required for the openai backend")
		}
	case BackendGRPC:
		if c.Rewriter.Addr == "" {
			return errors.New("rewriter.addr is required for the grpc backend")
		}
	default:
		return fmt.Errorf("rewriter.backend %q must be none, openai or grpc", c.Rewriter.Backend)
	}
	if c.Rewriter.Timeout < 0 {
		return errors.New("rewriter.timeout must be non-negative")
	}

	if c.Server.WatchWorldFile && c.Store.Driver != DriverSQLite {
		return errors.New("server.watch_world_file requires the sqlite driver")
	}

	switch c.Log.Format {
	case "json", "console":
	default:
		return fmt.Errorf("log.format %q must be json or console", c.Log.Format)
	}
	return nil
}

// #endregion validate
