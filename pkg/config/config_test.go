package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load("test-version")
	require.NoError(t, err)

	assert.Equal(t, "test-version", cfg.Version)
	assert.Equal(t, "8080", cfg.Port)
	assert.Equal(t, "openai", cfg.LLM.Provider)
	assert.Equal(t, 100, cfg.Generation.MaxAssets)
	assert.Equal(t, 5, cfg.Generation.BatchSize)
	assert.False(t, cfg.Database.Enabled())
}

func TestLoadEnvOverrides(t *testing.T) {
	t.Setenv("PORT", "9999")
	t.Setenv("LLM_PROVIDER", "anthropic")
	t.Setenv("LLM_MODEL", "claude-sonnet-4-20250514")
	t.Setenv("LLM_API_KEY", "secret-key")
	t.Setenv("GENERATION_MAX_ASSETS", "25")

	cfg, err := Load("dev")
	require.NoError(t, err)

	assert.Equal(t, "9999", cfg.Port)
	assert.Equal(t, "anthropic", cfg.LLM.Provider)
	assert.Equal(t, "secret-key", cfg.LLM.APIKey)
	assert.Equal(t, 25, cfg.Generation.MaxAssets)
}

func TestLoadYAMLFileWithEnvOverride(t *testing.T) {
	dir := t.TempDir()
	t.Chdir(dir)

	fileCfg := map[string]any{
		"port": "7070",
		"llm": map[string]any{
			"provider": "openai",
			"model":    "gpt-4o-mini",
		},
		"generation": map[string]any{
			"max_assets":      50,
			"batch_size":      3,
			"max_retries":     1,
			"target_glossary": "default/glossary/business",
		},
	}
	data, err := yaml.Marshal(fileCfg)
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yaml"), data, 0o600))

	// Environment always wins over the file.
	t.Setenv("PORT", "7071")

	cfg, err := Load("dev")
	require.NoError(t, err)

	assert.Equal(t, "7071", cfg.Port)
	assert.Equal(t, "gpt-4o-mini", cfg.LLM.Model)
	assert.Equal(t, 50, cfg.Generation.MaxAssets)
	assert.Equal(t, "default/glossary/business", cfg.Generation.TargetGlossary)
}

func TestLoadRejectsUnknownProvider(t *testing.T) {
	t.Setenv("LLM_PROVIDER", "bedrock")

	_, err := Load("dev")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "llm.provider")
}

func TestLoadRejectsNonPositiveBatchSize(t *testing.T) {
	t.Setenv("GENERATION_BATCH_SIZE", "0")

	_, err := Load("dev")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "batch_size")
}

func TestDatabaseConnectionString(t *testing.T) {
	cfg := DatabaseConfig{
		Host:     "localhost",
		Port:     5432,
		User:     "glossary",
		Password: "pw",
		Database: "glossary_engine",
		SSLMode:  "disable",
	}
	assert.True(t, cfg.Enabled())
	assert.Equal(t,
		"host=localhost port=5432 user=glossary password=pw dbname=glossary_engine sslmode=disable",
		cfg.ConnectionString())
}
