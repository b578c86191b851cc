package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

// Config holds all configuration for the portal agent
type Config struct {
	API     APIConfig     `yaml:"api"`
	Push    PushConfig    `yaml:"push"`
	Storage StorageConfig `yaml:"storage"`
	Sync    SyncConfig    `yaml:"sync"`
	Facade  FacadeConfig  `yaml:"facade"`
}

// APIConfig holds the portal backend REST configuration
type APIConfig struct {
	BaseURL string        `yaml:"base_url"`
	Timeout time.Duration `yaml:"timeout"`
}

// PushConfig holds the push channel configuration
type PushConfig struct {
	URL               string        `yaml:"url"`
	ReconnectAttempts int           `yaml:"reconnect_attempts"`
	ReconnectBackoff  time.Duration `yaml:"reconnect_backoff"`
}

// StorageConfig selects and configures the durable client storage
type StorageConfig struct {
	// Backend is "sqlite" or "redis"
	Backend    string      `yaml:"backend"`
	SQLitePath string      `yaml:"sqlite_path"`
	Redis      RedisConfig `yaml:"redis"`
}

// RedisConfig holds Redis storage configuration
type RedisConfig struct {
	Address  string `yaml:"address"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
	Prefix   string `yaml:"prefix"`
}

// SyncConfig holds the periodic resync configuration
type SyncConfig struct {
	PullInterval     time.Duration `yaml:"pull_interval"`
	LeaderboardLimit int           `yaml:"leaderboard_limit"`
}

// FacadeConfig holds the local status HTTP facade configuration
type FacadeConfig struct {
	Host string `yaml:"host"`
	Port int    `yaml:"port"`
}

// Load builds the configuration. An optional YAML file named by
// PORTAL_CONFIG_FILE is read first; environment variables override it.
func Load() (*Config, error) {
	cfg := &Config{
		API: APIConfig{
			BaseURL: "http://localhost:3000/api",
			Timeout: 10 * time.Second,
		},
		Push: PushConfig{
			URL:               "ws://localhost:3000/ws",
			ReconnectAttempts: 5,
			ReconnectBackoff:  time.Second,
		},
		Storage: StorageConfig{
			Backend:    "sqlite",
			SQLitePath: "./portal-agent.db",
			Redis: RedisConfig{
				Address: "localhost:6379",
				Prefix:  "event-portal:",
			},
		},
		Sync: SyncConfig{
			PullInterval:     time.Minute,
			LeaderboardLimit: 50,
		},
		Facade: FacadeConfig{
			Host: "127.0.0.1",
			Port: 8090,
		},
	}

	if path := os.Getenv("PORTAL_CONFIG_FILE"); path != "" {
		raw, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
		if err := yaml.Unmarshal(raw, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config file: %w", err)
		}
	}

	applyEnv(cfg)

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return cfg, nil
}

// applyEnv overrides file values with environment variables
func applyEnv(cfg *Config) {
	cfg.API.BaseURL = getEnv("PORTAL_API_URL", cfg.API.BaseURL)
	cfg.API.Timeout = getEnvAsDuration("PORTAL_API_TIMEOUT", cfg.API.Timeout)

	cfg.Push.URL = getEnv("PORTAL_PUSH_URL", cfg.Push.URL)
	cfg.Push.ReconnectAttempts = getEnvAsInt("PORTAL_PUSH_RECONNECT_ATTEMPTS", cfg.Push.ReconnectAttempts)
	cfg.Push.ReconnectBackoff = getEnvAsDuration("PORTAL_PUSH_RECONNECT_BACKOFF", cfg.Push.ReconnectBackoff)

	cfg.Storage.Backend = getEnv("PORTAL_STORAGE_BACKEND", cfg.Storage.Backend)
	cfg.Storage.SQLitePath = getEnv("PORTAL_STORAGE_SQLITE_PATH", cfg.Storage.SQLitePath)
	cfg.Storage.Redis.Address = getEnv("PORTAL_REDIS_ADDRESS", cfg.Storage.Redis.Address)
	cfg.Storage.Redis.Password = getEnv("PORTAL_REDIS_PASSWORD", cfg.Storage.Redis.Password)
	cfg.Storage.Redis.DB = getEnvAsInt("PORTAL_REDIS_DB", cfg.Storage.Redis.DB)
	cfg.Storage.Redis.Prefix = getEnv("PORTAL_REDIS_PREFIX", cfg.Storage.Redis.Prefix)

	cfg.Sync.PullInterval = getEnvAsDuration("PORTAL_PULL_INTERVAL", cfg.Sync.PullInterval)
	cfg.Sync.LeaderboardLimit = getEnvAsInt("PORTAL_LEADERBOARD_LIMIT", cfg.Sync.LeaderboardLimit)

	cfg.Facade.Host = getEnv("PORTAL_FACADE_HOST", cfg.Facade.Host)
	cfg.Facade.Port = getEnvAsInt("PORTAL_FACADE_PORT", cfg.Facade.Port)
}

// Validate validates the configuration
func (c *Config) Validate() error {
	if c.API.BaseURL == "" {
		return fmt.Errorf("api base URL is required")
	}
	if c.Push.URL == "" {
		return fmt.Errorf("push URL is required")
	}
	switch c.Storage.Backend {
	case "sqlite":
		if c.Storage.SQLitePath == "" {
			return fmt.Errorf("sqlite path is required")
		}
	case "redis":
		if c.Storage.Redis.Address == "" {
			return fmt.Errorf("redis address is required")
		}
	default:
		return fmt.Errorf("unknown storage backend: %q", c.Storage.Backend)
	}
	if c.Facade.Port < 1 || c.Facade.Port > 65535 {
		return fmt.Errorf("invalid facade port: %d", c.Facade.Port)
	}
	if c.Sync.LeaderboardLimit < 1 {
		return fmt.Errorf("leaderboard limit must be positive")
	}
	return nil
}

// Helper functions

func getEnv(key, defaultValue string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	if value, exists := os.LookupEnv(key); exists {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	if value, exists := os.LookupEnv(key); exists {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultValue
}
