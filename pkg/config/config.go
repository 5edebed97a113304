package config

import (
	"fmt"
	"os"

	"github.com/ilyakaznacheev/cleanenv"
)

// Config holds all configuration for glossary-engine.
// Configuration can come from a YAML file (config.yaml) or environment
// variables; environment variables always override YAML values. Secrets
// (API keys, database password) must only come from environment variables.
type Config struct {
	// Server configuration
	BindAddr string `yaml:"bind_addr" env:"BIND_ADDR" env-default:"127.0.0.1"`
	Port     string `yaml:"port" env:"PORT" env-default:"8080"`
	Env      string `yaml:"env" env:"ENVIRONMENT" env-default:"local"`
	Version  string `yaml:"-"` // Set at load time, not from config

	// Database configuration (PostgreSQL). Optional: when no host is set
	// the engine falls back to the in-memory term store.
	Database DatabaseConfig `yaml:"database"`

	// Catalog holds connection settings for the external metadata catalog.
	Catalog CatalogConfig `yaml:"catalog"`

	// LLM holds the language model endpoint used for term generation.
	LLM LLMConfig `yaml:"llm"`

	// Generation tunes the ingestion/generation pipeline.
	Generation GenerationConfig `yaml:"generation"`
}

// DatabaseConfig holds PostgreSQL connection settings.
type DatabaseConfig struct {
	Host           string `yaml:"host" env:"PGHOST" env-default:""`
	Port           int    `yaml:"port" env:"PGPORT" env-default:"5432"`
	User           string `yaml:"user" env:"PGUSER" env-default:"glossary"`
	Password       string `yaml:"-" env:"PGPASSWORD"` // Secret - not in YAML
	Database       string `yaml:"database" env:"PGDATABASE" env-default:"glossary_engine"`
	SSLMode        string `yaml:"ssl_mode" env:"PGSSLMODE" env-default:"disable"`
	MaxConnections int32  `yaml:"max_connections" env:"PGMAX_CONNECTIONS" env-default:"25"`
	MigrationsPath string `yaml:"migrations_path" env:"MIGRATIONS_PATH" env-default:"migrations"`
}

// Enabled reports whether a Postgres backend is configured.
func (c *DatabaseConfig) Enabled() bool {
	return c.Host != ""
}

// ConnectionString returns a PostgreSQL connection string.
func (c *DatabaseConfig) ConnectionString() string {
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.User, c.Password, c.Database, c.SSLMode,
	)
}

// CatalogConfig holds settings for the external metadata catalog.
type CatalogConfig struct {
	BaseURL        string `yaml:"base_url" env:"CATALOG_BASE_URL" env-default:""`
	APIKey         string `yaml:"-" env:"CATALOG_API_KEY"` // Secret - not in YAML
	TimeoutSeconds int    `yaml:"timeout_seconds" env:"CATALOG_TIMEOUT_SECONDS" env-default:"30"`
}

// LLMConfig holds the language model endpoint configuration.
// Provider selects the wire protocol: "openai" for OpenAI-compatible
// endpoints, "anthropic" for the Anthropic messages API.
type LLMConfig struct {
	Provider       string  `yaml:"provider" env:"LLM_PROVIDER" env-default:"openai"`
	Endpoint       string  `yaml:"endpoint" env:"LLM_ENDPOINT" env-default:""`
	Model          string  `yaml:"model" env:"LLM_MODEL" env-default:""`
	APIKey         string  `yaml:"-" env:"LLM_API_KEY"` // Secret - not in YAML
	Temperature    float64 `yaml:"temperature" env:"LLM_TEMPERATURE" env-default:"0.2"`
	TimeoutSeconds int     `yaml:"timeout_seconds" env:"LLM_TIMEOUT_SECONDS" env-default:"60"`
}

// GenerationConfig tunes the ingestion/generation pipeline.
type GenerationConfig struct {
	// MaxAssets caps how many assets one generation run pulls from the catalog.
	MaxAssets int `yaml:"max_assets" env:"GENERATION_MAX_ASSETS" env-default:"100"`
	// BatchSize bounds concurrent LLM calls to respect rate limits.
	BatchSize int `yaml:"batch_size" env:"GENERATION_BATCH_SIZE" env-default:"5"`
	// MaxRetries bounds retries of transient generation failures.
	MaxRetries int `yaml:"max_retries" env:"GENERATION_MAX_RETRIES" env-default:"2"`
	// IncludeColumns enables the column classification pass that drafts
	// metric and dimension terms from individual table columns.
	IncludeColumns bool `yaml:"include_columns" env:"GENERATION_INCLUDE_COLUMNS" env-default:"true"`
	// TargetGlossary is the qualified name of the glossary published terms land in.
	TargetGlossary string `yaml:"target_glossary" env:"GENERATION_TARGET_GLOSSARY" env-default:""`
}

// Load reads configuration from config.yaml with environment variable
// overrides. When config.yaml is absent, configuration comes from the
// environment alone. The version parameter is injected at build time.
func Load(version string) (*Config, error) {
	cfg := &Config{Version: version}

	if _, err := os.Stat("config.yaml"); err == nil {
		if err := cleanenv.ReadConfig("config.yaml", cfg); err != nil {
			return nil, fmt.Errorf("failed to read config.yaml: %w", err)
		}
	} else {
		if err := cleanenv.ReadEnv(cfg); err != nil {
			return nil, fmt.Errorf("failed to read config from environment: %w", err)
		}
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

func (c *Config) validate() error {
	if c.Generation.MaxAssets < 1 {
		return fmt.Errorf("generation.max_assets must be positive, got %d", c.Generation.MaxAssets)
	}
	if c.Generation.BatchSize < 1 {
		return fmt.Errorf("generation.batch_size must be positive, got %d", c.Generation.BatchSize)
	}
	switch c.LLM.Provider {
	case "openai", "anthropic":
	default:
		return fmt.Errorf("llm.provider must be openai or anthropic, got %q", c.LLM.Provider)
	}
	return nil
}
