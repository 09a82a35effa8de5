// Package config provides configuration loading for the UniHub client.
package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/unkn0wn-root/unihub/codec"
	"github.com/unkn0wn-root/unihub/provider"
)

// Config is the complete client configuration.
type Config struct {
	API        APIConfig        `yaml:"api" envPrefix:"API_"`
	Auth       AuthConfig       `yaml:"auth" envPrefix:"AUTH_"`
	Cache      CacheConfig      `yaml:"cache" envPrefix:"CACHE_"`
	Membership MembershipConfig `yaml:"membership" envPrefix:"MEMBERSHIP_"`
	Log        LogConfig        `yaml:"log" envPrefix:"LOG_"`
}

// APIConfig configures the REST backend.
type APIConfig struct {
	// BaseURL is the backend origin, e.g. http://localhost:8000
	BaseURL string `yaml:"base_url" env:"BASE_URL"`
	// Timeout bounds each HTTP request (0 = none)
	Timeout time.Duration `yaml:"timeout" env:"TIMEOUT"`
}

// AuthConfig configures where tokens are kept.
type AuthConfig struct {
	// TokenFile holds access/refresh tokens (empty = in memory only)
	TokenFile string `yaml:"token_file" env:"TOKEN_FILE"`
}

// CacheConfig configures both cache tiers.
type CacheConfig struct {
	MemoryTTL     time.Duration `yaml:"memory_ttl" env:"MEMORY_TTL"`
	PersistentTTL time.Duration `yaml:"persistent_ttl" env:"PERSISTENT_TTL"`
	// Provider backs the persisted tier: sqlite, redis, bigcache, ristretto, none
	Provider string `yaml:"provider" env:"PROVIDER"`
	// Codec for persisted entries: json, cbor, msgpack
	Codec string `yaml:"codec" env:"CODEC"`
	// MaxDecodeBytes rejects larger persisted entries (0 = no limit)
	MaxDecodeBytes int `yaml:"max_decode_bytes" env:"MAX_DECODE_BYTES"`
	// Prefix namespaces persisted keys
	Prefix string `yaml:"prefix" env:"PREFIX"`

	SQLitePath string `yaml:"sqlite_path" env:"SQLITE_PATH"`

	RedisAddr     string `yaml:"redis_addr" env:"REDIS_ADDR"`
	RedisPassword string `yaml:"redis_password" env:"REDIS_PASSWORD"`
	RedisDB       int    `yaml:"redis_db" env:"REDIS_DB"`

	// Hooks selects cache event reporting: none, slog, prom
	Hooks string `yaml:"hooks" env:"HOOKS"`
}

// MembershipConfig tunes the membership status retry policy.
type MembershipConfig struct {
	MaxAttempts int           `yaml:"max_attempts" env:"MAX_ATTEMPTS"`
	BaseDelay   time.Duration `yaml:"base_delay" env:"BASE_DELAY"`
}

// LogConfig selects the logging backend.
type LogConfig struct {
	// Backend is zap, logrus or slog
	Backend string `yaml:"backend" env:"BACKEND"`
	// Level is debug, info, warn or error
	Level string `yaml:"level" env:"LEVEL"`
}

// Hook names accepted in cache.hooks.
const (
	HooksNone = "none"
	HooksSlog = "slog"
	HooksProm = "prom"
)

// DefaultConfig returns a Config with sensible defaults
func DefaultConfig() *Config {
	return &Config{
		API: APIConfig{
			BaseURL: "http://localhost:8000",
			Timeout: 30 * time.Second,
		},
		Auth: AuthConfig{
			TokenFile: defaultStatePath("tokens.yaml"),
		},
		Cache: CacheConfig{
			MemoryTTL:     5 * time.Minute,
			PersistentTTL: time.Hour,
			Provider:      provider.DriverSQLite,
			Codec:         codec.NameJSON,
			SQLitePath:    defaultStatePath("cache.db"),
			RedisAddr:     "localhost:6379",
			Hooks:         HooksNone,
		},
		Membership: MembershipConfig{
			MaxAttempts: 3,
			BaseDelay:   time.Second,
		},
		Log: LogConfig{
			Backend: "zap",
			Level:   "warn",
		},
	}
}

// Validate checks that the configuration is usable
func (c *Config) Validate() error {
	var errs []error
	if c.API.BaseURL == "" {
		errs = append(errs, errors.New("api.base_url is required"))
	} else if u, err := url.Parse(c.API.BaseURL); err != nil || u.Scheme == "" || u.Host == "" {
		errs = append(errs, fmt.Errorf("api.base_url %q is not an absolute URL", c.API.BaseURL))
	}
	if c.API.Timeout < 0 {
		errs = append(errs, errors.New("api.timeout must not be negative"))
	}
	if c.Cache.MemoryTTL <= 0 {
		errs = append(errs, errors.New("cache.memory_ttl must be positive"))
	}
	if c.Cache.PersistentTTL <= 0 {
		errs = append(errs, errors.New("cache.persistent_ttl must be positive"))
	}
	switch c.Cache.Provider {
	case provider.DriverSQLite:
		if c.Cache.SQLitePath == "" {
			errs = append(errs, errors.New("cache.sqlite_path is required for the sqlite provider"))
		}
	case provider.DriverRedis:
		if c.Cache.RedisAddr == "" {
			errs = append(errs, errors.New("cache.redis_addr is required for the redis provider"))
		}
	case provider.DriverBigCache, provider.DriverRistretto, provider.DriverNone:
	default:
		errs = append(errs, fmt.Errorf("cache.provider %q is not supported", c.Cache.Provider))
	}
	switch c.Cache.Codec {
	case codec.NameJSON, codec.NameCBOR, codec.NameMsgpack:
	default:
		errs = append(errs, fmt.Errorf("cache.codec %q is not supported", c.Cache.Codec))
	}
	switch c.Cache.Hooks {
	case "", HooksNone, HooksSlog, HooksProm:
	default:
		errs = append(errs, fmt.Errorf("cache.hooks %q is not supported", c.Cache.Hooks))
	}
	if c.Membership.MaxAttempts < 0 {
		errs = append(errs, errors.New("membership.max_attempts must not be negative"))
	}
	if c.Membership.BaseDelay <= 0 {
		errs = append(errs, errors.New("membership.base_delay must be positive"))
	}
	switch c.Log.Backend {
	case "zap", "logrus", "slog":
	default:
		errs = append(errs, fmt.Errorf("log.backend %q is not supported", c.Log.Backend))
	}
	switch c.Log.Level {
	case "debug", "info", "warn", "error":
	default:
		errs = append(errs, fmt.Errorf("log.level %q is not supported", c.Log.Level))
	}
	return errors.Join(errs...)
}

// LoadFromFile reads a YAML file. Absent keys stay zero so Merge skips them.
func LoadFromFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	config := &Config{}
	if err := yaml.Unmarshal(data, config); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	return config, nil
}

// SaveToFile saves configuration to a YAML file
func (c *Config) SaveToFile(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// Merge merges another config into this one (other takes precedence for non-zero values)
func (c *Config) Merge(other *Config) {
	if other == nil {
		return
	}

	// API
	if other.API.BaseURL != "" {
		c.API.BaseURL = other.API.BaseURL
	}
	if other.API.Timeout != 0 {
		c.API.Timeout = other.API.Timeout
	}

	// Auth
	if other.Auth.TokenFile != "" {
		c.Auth.TokenFile = other.Auth.TokenFile
	}

	// Cache
	if other.Cache.MemoryTTL != 0 {
		c.Cache.MemoryTTL = other.Cache.MemoryTTL
	}
	if other.Cache.PersistentTTL != 0 {
		c.Cache.PersistentTTL = other.Cache.PersistentTTL
	}
	if other.Cache.Provider != "" {
		c.Cache.Provider = other.Cache.Provider
	}
	if other.Cache.Codec != "" {
		c.Cache.Codec = other.Cache.Codec
	}
	if other.Cache.MaxDecodeBytes != 0 {
		c.Cache.MaxDecodeBytes = other.Cache.MaxDecodeBytes
	}
	if other.Cache.Prefix != "" {
		c.Cache.Prefix = other.Cache.Prefix
	}
	if other.Cache.SQLitePath != "" {
		c.Cache.SQLitePath = other.Cache.SQLitePath
	}
	if other.Cache.RedisAddr != "" {
		c.Cache.RedisAddr = other.Cache.RedisAddr
	}
	if other.Cache.RedisPassword != "" {
		c.Cache.RedisPassword = other.Cache.RedisPassword
	}
	if other.Cache.RedisDB != 0 {
		c.Cache.RedisDB = other.Cache.RedisDB
	}
	if other.Cache.Hooks != "" {
		c.Cache.Hooks = other.Cache.Hooks
	}

	// Membership
	if other.Membership.MaxAttempts != 0 {
		c.Membership.MaxAttempts = other.Membership.MaxAttempts
	}
	if other.Membership.BaseDelay != 0 {
		c.Membership.BaseDelay = other.Membership.BaseDelay
	}

	// Log
	if other.Log.Backend != "" {
		c.Log.Backend = other.Log.Backend
	}
	if other.Log.Level != "" {
		c.Log.Level = other.Log.Level
	}
}

func defaultStatePath(name string) string {
	dir, err := os.UserCacheDir()
	if err != nil {
		dir = os.TempDir()
	}
	return filepath.Join(dir, "unihub", name)
}
