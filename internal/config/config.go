// Package config provides unified configuration loading for the Inventory Engine.
// Supports YAML files, .env files, environment variables, and programmatic overrides.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/spherical-ai/spherical/libs/inventory-engine/internal/domain"
)

// Config holds all configuration for the Inventory Engine.
type Config struct {
	Server        ServerConfig        `yaml:"server"`
	Catalog       CatalogConfig       `yaml:"catalog"`
	Engine        EngineConfig        `yaml:"engine"`
	LLM           LLMConfig           `yaml:"llm"`
	Cache         CacheConfig         `yaml:"cache"`
	Audit         AuditConfig         `yaml:"audit"`
	Observability ObservabilityConfig `yaml:"observability"`
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Host             string        `yaml:"host"`
	Port             int           `yaml:"port"`
	ReadTimeout      time.Duration `yaml:"read_timeout"`
	WriteTimeout     time.Duration `yaml:"write_timeout"`
	IdleTimeout      time.Duration `yaml:"idle_timeout"`
	RequestTimeout   time.Duration `yaml:"request_timeout"`
	GracefulShutdown time.Duration `yaml:"graceful_shutdown"`
}

// CatalogConfig locates the catalog and the curated Q&A source.
type CatalogConfig struct {
	Path          string        `yaml:"path"`
	QAPath        string        `yaml:"qa_path"`
	Watch         bool          `yaml:"watch"`
	WatchDebounce time.Duration `yaml:"watch_debounce"`
}

// EngineConfig holds query resolution tuning.
type EngineConfig struct {
	PageSize        int     `yaml:"page_size"`
	PreviewSize     int     `yaml:"preview_size"`
	TopN            int     `yaml:"top_n"`
	ValueCutoff     float64 `yaml:"value_cutoff"`
	EqualsCutoff    float64 `yaml:"equals_cutoff"`
	QACutoff        float64 `yaml:"qa_cutoff"`
	FallbackOnEmpty bool    `yaml:"fallback_on_empty"`
	SampleSize      int     `yaml:"sample_size"`
	SampleSeed      int64   `yaml:"sample_seed"` // 0 = time-seeded
}

// LLMConfig holds the external language-model collaborator settings.
type LLMConfig struct {
	Enabled       bool          `yaml:"enabled"`
	BaseURL       string        `yaml:"base_url"`
	Model         string        `yaml:"model"`
	APIKey        string        `yaml:"api_key"`
	Timeout       time.Duration `yaml:"timeout"`
	Temperature   float64       `yaml:"temperature"`
	MaxTokens     int           `yaml:"max_tokens"`
	TopP          float64       `yaml:"top_p"`
	MaxConcurrent int           `yaml:"max_concurrent"`
}

// CacheConfig holds cache settings.
type CacheConfig struct {
	Driver     string        `yaml:"driver"` // memory or redis
	TTL        time.Duration `yaml:"ttl"`
	MaxEntries int           `yaml:"max_entries"`
	Redis      RedisConfig   `yaml:"redis"`
}

// RedisConfig holds Redis-specific settings.
type RedisConfig struct {
	Addr     string `yaml:"addr"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
	PoolSize int    `yaml:"pool_size"`
}

// AuditConfig holds query audit persistence settings.
type AuditConfig struct {
	Enabled  bool           `yaml:"enabled"`
	Driver   string         `yaml:"driver"` // sqlite or postgres
	SQLite   SQLiteConfig   `yaml:"sqlite"`
	Postgres PostgresConfig `yaml:"postgres"`
}

// SQLiteConfig holds SQLite-specific settings.
type SQLiteConfig struct {
	Path         string `yaml:"path"`
	MaxOpenConns int    `yaml:"max_open_conns"`
	JournalMode  string `yaml:"journal_mode"`
}

// PostgresConfig holds Postgres-specific settings.
type PostgresConfig struct {
	DSN             string        `yaml:"dsn"`
	MaxOpenConns    int           `yaml:"max_open_conns"`
	MaxIdleConns    int           `yaml:"max_idle_conns"`
	ConnMaxLifetime time.Duration `yaml:"conn_max_lifetime"`
}

// ObservabilityConfig holds logging and metrics settings.
type ObservabilityConfig struct {
	LogLevel       string `yaml:"log_level"`
	LogFormat      string `yaml:"log_format"`
	ServiceName    string `yaml:"service_name"`
	MetricsEnabled bool   `yaml:"metrics_enabled"`
}

// Load reads configuration from a YAML file, an optional .env file, and
// environment overrides, then validates the result.
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, domain.ConfigError("read config file", err)
		}

		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, domain.ConfigError("parse config file", err)
		}

		cfg.Catalog.Path = ResolveRelativePath(path, cfg.Catalog.Path)
		if cfg.Catalog.QAPath != "" {
			cfg.Catalog.QAPath = ResolveRelativePath(path, cfg.Catalog.QAPath)
		}
	}

	// Missing .env is normal outside local development.
	_ = godotenv.Load()

	applyEnvOverrides(cfg)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// DefaultConfig returns a configuration with sensible defaults for development.
func DefaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Host:             "0.0.0.0",
			Port:             8086,
			ReadTimeout:      30 * time.Second,
			WriteTimeout:     60 * time.Second,
			IdleTimeout:      120 * time.Second,
			RequestTimeout:   45 * time.Second,
			GracefulShutdown: 10 * time.Second,
		},
		Catalog: CatalogConfig{
			Path:          "data/inventory.json",
			QAPath:        "data/qa.json",
			Watch:         false,
			WatchDebounce: 500 * time.Millisecond,
		},
		Engine: EngineConfig{
			PageSize:        10,
			PreviewSize:     10,
			TopN:            5,
			ValueCutoff:     0.7,
			EqualsCutoff:    0.6,
			QACutoff:        0.6,
			FallbackOnEmpty: true,
			SampleSize:      100,
		},
		LLM: LLMConfig{
			Enabled:       true,
			BaseURL:       "https://api.groq.com/openai/v1",
			Model:         "meta-llama/llama-4-scout-17b-16e-instruct",
			Timeout:       30 * time.Second,
			Temperature:   0.2,
			MaxTokens:     2048,
			TopP:          1,
			MaxConcurrent: 4,
		},
		Cache: CacheConfig{
			Driver:     "memory",
			TTL:        5 * time.Minute,
			MaxEntries: 10000,
			Redis: RedisConfig{
				Addr:     "localhost:6380",
				DB:       0,
				PoolSize: 10,
			},
		},
		Audit: AuditConfig{
			Enabled: false,
			Driver:  "sqlite",
			SQLite: SQLiteConfig{
				Path:         "/tmp/inventory-engine.db",
				MaxOpenConns: 1,
				JournalMode:  "WAL",
			},
			Postgres: PostgresConfig{
				MaxOpenConns:    25,
				MaxIdleConns:    5,
				ConnMaxLifetime: 5 * time.Minute,
			},
		},
		Observability: ObservabilityConfig{
			LogLevel:       "info",
			LogFormat:      "json",
			ServiceName:    "inventory-engine",
			MetricsEnabled: true,
		},
	}
}

// Validate checks the configuration for errors.
func (c *Config) Validate() error {
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return domain.ConfigError(fmt.Sprintf("invalid server port: %d", c.Server.Port), nil)
	}

	if strings.TrimSpace(c.Catalog.Path) == "" {
		return domain.ConfigError("catalog path is required", nil)
	}

	if c.Engine.PageSize < 1 || c.Engine.PageSize > 100 {
		return domain.ConfigError("page_size must be between 1 and 100", nil)
	}

	if c.Engine.PreviewSize < 1 {
		return domain.ConfigError("preview_size must be positive", nil)
	}

	if c.Engine.TopN < 1 {
		return domain.ConfigError("top_n must be positive", nil)
	}

	for name, v := range map[string]float64{
		"value_cutoff":  c.Engine.ValueCutoff,
		"equals_cutoff": c.Engine.EqualsCutoff,
		"qa_cutoff":     c.Engine.QACutoff,
	} {
		if v <= 0 || v > 1 {
			return domain.ConfigError(fmt.Sprintf("%s must be in (0, 1]", name), nil)
		}
	}

	if c.Engine.SampleSize < 1 || c.Engine.SampleSize > 100 {
		return domain.ConfigError("sample_size must be between 1 and 100", nil)
	}

	if c.LLM.Enabled {
		if c.LLM.Timeout <= 0 {
			return domain.ConfigError("llm timeout must be positive", nil)
		}
		if c.LLM.MaxConcurrent < 1 {
			return domain.ConfigError("llm max_concurrent must be positive", nil)
		}
	}

	if c.Cache.Driver != "memory" && c.Cache.Driver != "redis" {
		return domain.ConfigError(fmt.Sprintf("invalid cache driver: %s", c.Cache.Driver), nil)
	}

	if c.Audit.Driver != "sqlite" && c.Audit.Driver != "postgres" {
		return domain.ConfigError(fmt.Sprintf("invalid audit driver: %s", c.Audit.Driver), nil)
	}

	if c.Audit.Enabled && c.Audit.Driver == "postgres" && c.Audit.Postgres.DSN == "" {
		return domain.ConfigError("postgres audit requires a dsn", nil)
	}

	return nil
}

// LLMAvailable reports whether the external collaborator can be called.
func (c *Config) LLMAvailable() bool {
	return c.LLM.Enabled && c.LLM.APIKey != ""
}

// AuditDSN returns the appropriate database connection string.
func (c *Config) AuditDSN() string {
	if c.Audit.Driver == "sqlite" {
		return c.Audit.SQLite.Path
	}
	return c.Audit.Postgres.DSN
}

// Addr returns the listen address for the HTTP server.
func (c *Config) Addr() string {
	return fmt.Sprintf("%s:%d", c.Server.Host, c.Server.Port)
}

// applyEnvOverrides applies environment variable overrides to config.
func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("SERVER_PORT"); v != "" {
		if port, err := strconv.Atoi(v); err == nil {
			cfg.Server.Port = port
		}
	}

	if v := os.Getenv("SERVER_HOST"); v != "" {
		cfg.Server.Host = v
	}

	if v := os.Getenv("CATALOG_PATH"); v != "" {
		cfg.Catalog.Path = v
	}

	if v := os.Getenv("QA_PATH"); v != "" {
		cfg.Catalog.QAPath = v
	}

	if v := os.Getenv("PAGE_SIZE"); v != "" {
		if size, err := strconv.Atoi(v); err == nil {
			cfg.Engine.PageSize = size
		}
	}

	// GROQ_API_KEY is what the hosted deployment exports; LLM_API_KEY wins when both are set.
	if v := os.Getenv("GROQ_API_KEY"); v != "" {
		cfg.LLM.APIKey = v
	}

	if v := os.Getenv("LLM_API_KEY"); v != "" {
		cfg.LLM.APIKey = v
	}

	if v := os.Getenv("LLM_BASE_URL"); v != "" {
		cfg.LLM.BaseURL = v
	}

	if v := os.Getenv("LLM_MODEL"); v != "" {
		cfg.LLM.Model = v
	}

	if v := os.Getenv("REDIS_URL"); v != "" {
		cfg.Cache.Driver = "redis"
		// Parse redis://host:port format
		cfg.Cache.Redis.Addr = strings.TrimPrefix(v, "redis://")
	}

	if v := os.Getenv("DATABASE_URL"); v != "" {
		cfg.Audit.Enabled = true
		if strings.HasPrefix(v, "sqlite:") {
			cfg.Audit.Driver = "sqlite"
			cfg.Audit.SQLite.Path = strings.TrimPrefix(v, "sqlite:")
		} else if strings.HasPrefix(v, "postgres") {
			cfg.Audit.Driver = "postgres"
			cfg.Audit.Postgres.DSN = v
		}
	}

	if v := os.Getenv("LOG_LEVEL"); v != "" {
		cfg.Observability.LogLevel = v
	}

	if v := os.Getenv("LOG_FORMAT"); v != "" {
		cfg.Observability.LogFormat = v
	}
}

// ResolveRelativePath resolves a path relative to the config file location.
func ResolveRelativePath(configPath, targetPath string) string {
	if targetPath == "" || filepath.IsAbs(targetPath) {
		return targetPath
	}
	configDir := filepath.Dir(configPath)
	return filepath.Join(configDir, targetPath)
}
