// Package config provides configuration management.
package config

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strconv"

	"github.com/joho/godotenv"

	"tripcost/core/types"
	"tripcost/internal/logging"
)

// Config is the main application configuration
type Config struct {
	// Version is the configuration version
	Version string `json:"version"`

	// Engine contains pricing engine settings
	Engine EngineConfig `json:"engine"`

	// Output contains output configuration
	Output OutputConfig `json:"output"`

	// Storage selects where computed cotations are persisted
	Storage StorageConfig `json:"storage"`

	// Cache contains grid cache configuration
	Cache CacheConfig `json:"cache"`

	// Logging contains logging configuration
	Logging logging.Config `json:"logging"`
}

// EngineConfig contains pricing engine settings
type EngineConfig struct {
	// Workers bounds the parallel rows of a range computation
	Workers int `json:"workers"`

	// ExhaustiveRoomLimit is the largest party the room allocator solves exactly
	ExhaustiveRoomLimit int `json:"exhaustive_room_limit"`

	// DefaultCurrency applies to trips that do not declare one
	DefaultCurrency types.Currency `json:"default_currency"`
}

// OutputConfig contains output-related settings
type OutputConfig struct {
	// DefaultFormat is the default output format
	DefaultFormat string `json:"default_format"`

	// ShowBreakdown prints the per-day breakdown of each row
	ShowBreakdown bool `json:"show_breakdown"`
}

// StorageConfig contains persistence settings
type StorageConfig struct {
	// Backend is memory, file or postgres
	Backend string `json:"backend"`

	// Directory is used by the file backend
	Directory string `json:"directory"`

	// PostgresDSN is used by the postgres backend
	PostgresDSN string `json:"postgres_dsn,omitempty"`
}

// CacheConfig contains cache-related settings
type CacheConfig struct {
	// Enabled enables caching
	Enabled bool `json:"enabled"`

	// Backend is memory or redis
	Backend string `json:"backend"`

	// RedisAddr is the redis host:port
	RedisAddr string `json:"redis_addr,omitempty"`

	// TTLSeconds is how long a cached grid stays valid
	TTLSeconds int `json:"ttl_seconds"`
}

// Default returns a default configuration
func Default() *Config {
	homeDir, _ := os.UserHomeDir()

	return &Config{
		Version: "1.0",
		Engine: EngineConfig{
			Workers:             4,
			ExhaustiveRoomLimit: 20,
			DefaultCurrency:     types.CurrencyEUR,
		},
		Output: OutputConfig{
			DefaultFormat: "table",
			ShowBreakdown: false,
		},
		Storage: StorageConfig{
			Backend:   "file",
			Directory: filepath.Join(homeDir, ".tripcost", "cotations"),
		},
		Cache: CacheConfig{
			Enabled:    false,
			Backend:    "memory",
			RedisAddr:  "localhost:6379",
			TTLSeconds: 86400,
		},
		Logging: logging.DefaultConfig(),
	}
}

// Load loads configuration from a file. A .env file in the working
// directory is read first so that TRIPCOST_* overrides can live there.
func Load(path string) (*Config, error) {
	_ = godotenv.Load()

	config := Default()
	data, err := os.ReadFile(path)
	switch {
	case err == nil:
		if err := json.Unmarshal(data, config); err != nil {
			return nil, err
		}
	case os.IsNotExist(err):
	default:
		return nil, err
	}

	config.applyEnv()
	return config, nil
}

func (c *Config) applyEnv() {
	if v := os.Getenv("TRIPCOST_WORKERS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			c.Engine.Workers = n
		}
	}
	if v := os.Getenv("TRIPCOST_ROOM_LIMIT"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			c.Engine.ExhaustiveRoomLimit = n
		}
	}
	if v := os.Getenv("TRIPCOST_STORAGE"); v != "" {
		c.Storage.Backend = v
	}
	if v := os.Getenv("TRIPCOST_POSTGRES_DSN"); v != "" {
		c.Storage.PostgresDSN = v
	}
	if v := os.Getenv("TRIPCOST_REDIS_ADDR"); v != "" {
		c.Cache.RedisAddr = v
		c.Cache.Backend = "redis"
		c.Cache.Enabled = true
	}
	if v := os.Getenv("TRIPCOST_LOG_LEVEL"); v != "" {
		c.Logging.Level = v
	}
}

// Save saves configuration to a file
func (c *Config) Save(path string) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return err
	}

	data, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return err
	}

	return os.WriteFile(path, data, 0644)
}

// Global configuration instance
var globalConfig = Default()

// Get returns the global configuration
func Get() *Config {
	return globalConfig
}

// Set sets the global configuration
func Set(config *Config) {
	globalConfig = config
}
