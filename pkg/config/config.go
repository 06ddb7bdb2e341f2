package config

import (
	"fmt"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
)

// Config holds all configuration for bidiq-engine.
// Configuration can come from YAML file (config.yaml) or environment variables.
// Environment variables always override YAML values for fields that support both.
// Secrets (passwords, API keys) must only come from environment variables.
type Config struct {
	// Server configuration
	BindAddr string `yaml:"bind_addr" env:"BIND_ADDR" env-default:"127.0.0.1"`
	Port     string `yaml:"port" env:"PORT" env-default:"8090"`
	Env      string `yaml:"env" env:"ENVIRONMENT" env-default:"local"`
	Version  string `yaml:"-"` // Set at load time, not from config

	// MigrationsPath is the directory containing SQL migrations.
	MigrationsPath string `yaml:"migrations_path" env:"MIGRATIONS_PATH" env-default:"migrations"`

	// Database configuration (PostgreSQL)
	Database DatabaseConfig `yaml:"database"`

	// Redis configuration (optional roster cache)
	Redis RedisConfig `yaml:"redis"`

	// Oracle configuration (fuzzy match / duplicate detection model)
	Oracle OracleConfig `yaml:"oracle"`
}

// DatabaseConfig holds PostgreSQL database configuration.
type DatabaseConfig struct {
	Host           string `yaml:"host" env:"PGHOST" env-default:"localhost"`
	Port           int    `yaml:"port" env:"PGPORT" env-default:"5432"`
	User           string `yaml:"user" env:"PGUSER" env-default:"bidiq"`
	Password       string `yaml:"-" env:"PGPASSWORD"` // Secret - not in YAML
	Database       string `yaml:"database" env:"PGDATABASE" env-default:"bidiq_engine"`
	MaxConnections int32  `yaml:"max_connections" env:"PGMAX_CONNECTIONS" env-default:"25"`
	SSLMode        string `yaml:"ssl_mode" env:"PGSSLMODE" env-default:"disable"`
}

// RedisConfig holds the optional Redis roster-cache configuration.
// Leave Host empty to run without a cache.
type RedisConfig struct {
	Host     string `yaml:"host" env:"REDIS_HOST" env-default:""`
	Port     int    `yaml:"port" env:"REDIS_PORT" env-default:"6379"`
	Password string `yaml:"-" env:"REDIS_PASSWORD"` // Secret - not in YAML
	DB       int    `yaml:"db" env:"REDIS_DB" env-default:"0"`
	// RosterTTLSeconds is how long a cached approved roster stays fresh.
	RosterTTLSeconds int `yaml:"roster_ttl_seconds" env:"REDIS_ROSTER_TTL_SECONDS" env-default:"300"`
}

// OracleConfig holds the fuzzy-matching oracle endpoint configuration.
// Provider selects the transport: "anthropic" (hosted) or "openai"
// (any OpenAI-compatible endpoint, e.g. a self-hosted vLLM).
type OracleConfig struct {
	Provider string `yaml:"provider" env:"ORACLE_PROVIDER" env-default:"anthropic"`
	Model    string `yaml:"model" env:"ORACLE_MODEL" env-default:"claude-sonnet-4-20250514"`
	// Endpoint is only used by the openai provider.
	Endpoint string `yaml:"endpoint" env:"ORACLE_ENDPOINT" env-default:""`
	APIKey   string `yaml:"-" env:"ORACLE_API_KEY"` // Secret - not in YAML
	// TimeoutSeconds bounds every oracle call. On timeout the engine uses
	// the documented fallback rather than surfacing an error.
	TimeoutSeconds int `yaml:"timeout_seconds" env:"ORACLE_TIMEOUT_SECONDS" env-default:"20"`
}

// Timeout returns the oracle call budget as a duration.
func (c *OracleConfig) Timeout() time.Duration {
	return time.Duration(c.TimeoutSeconds) * time.Second
}

// RosterTTL returns the roster cache TTL as a duration.
func (c *RedisConfig) RosterTTL() time.Duration {
	return time.Duration(c.RosterTTLSeconds) * time.Second
}

// Load reads configuration from config.yaml with environment variable overrides.
// The version parameter is injected at build time and set on the returned Config.
func Load(version string) (*Config, error) {
	cfg := &Config{
		Version: version,
	}

	if err := cleanenv.ReadConfig("config.yaml", cfg); err != nil {
		return nil, fmt.Errorf("failed to read config.yaml: %w", err)
	}

	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

func (c *Config) validate() error {
	switch c.Oracle.Provider {
	case "anthropic":
		// Hosted endpoint, nothing else required at load time.
	case "openai":
		if c.Oracle.Endpoint == "" {
			return fmt.Errorf("oracle.endpoint is required for the openai provider")
		}
	default:
		return fmt.Errorf("unknown oracle provider %q", c.Oracle.Provider)
	}

	if c.Oracle.TimeoutSeconds <= 0 {
		return fmt.Errorf("oracle.timeout_seconds must be positive")
	}

	return nil
}

// ConnectionString returns a PostgreSQL connection string.
func (c *DatabaseConfig) ConnectionString() string {
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.User, c.Password, c.Database, c.SSLMode,
	)
}
