package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfig_Defaults(t *testing.T) {
	t.Setenv("CONFIG_FILE", "")
	t.Setenv("STORE_BACKEND", "")
	t.Setenv("ENVIRONMENT", "")
	t.Setenv("LLM_API_KEY", "")
	t.Setenv("OPENAI_API_KEY", "")

	cfg, err := LoadConfig()

	require.NoError(t, err)
	assert.Equal(t, StoreMemory, cfg.StoreBackend)
	assert.Equal(t, 30*time.Second, cfg.GenerationTimeout)
	assert.Len(t, cfg.BaseElements, 4)
	assert.False(t, cfg.GeneratorEnabled())
}

func TestLoadConfig_OverlayOrder(t *testing.T) {
	// Arrange
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	yamlConfig := `
store_backend: sqlite
sqlite_path: /tmp/from-file.db
generation_timeout: 5s
llm_model: file-model
`
	require.NoError(t, os.WriteFile(path, []byte(yamlConfig), 0o600))
	t.Setenv("CONFIG_FILE", path)
	t.Setenv("LLM_MODEL", "env-model")
	t.Setenv("LLM_API_KEY", "secret")

	// Act
	cfg, err := LoadConfig()

	// Assert
	require.NoError(t, err)
	assert.Equal(t, StoreSQLite, cfg.StoreBackend)
	assert.Equal(t, "/tmp/from-file.db", cfg.SQLitePath)
	assert.Equal(t, 5*time.Second, cfg.GenerationTimeout)
	assert.Equal(t, "env-model", cfg.LLMModel)
	assert.True(t, cfg.GeneratorEnabled())
	assert.Equal(t, ":8080", cfg.ServerAddress, "unset keys keep defaults")
}

func TestLoadConfig_MissingFile(t *testing.T) {
	t.Setenv("CONFIG_FILE", filepath.Join(t.TempDir(), "missing.yaml"))

	_, err := LoadConfig()

	assert.Error(t, err)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(c *Config)
		wantErr bool
	}{
		{name: "defaults", mutate: func(c *Config) {}},
		{name: "unknown store", mutate: func(c *Config) { c.StoreBackend = "mongo" }, wantErr: true},
		{name: "memory in production", mutate: func(c *Config) { c.Environment = "production" }, wantErr: true},
		{name: "dynamodb without table", mutate: func(c *Config) {
			c.StoreBackend = StoreDynamoDB
			c.DynamoDBTable = ""
		}, wantErr: true},
		{name: "three base elements", mutate: func(c *Config) { c.BaseElements = c.BaseElements[:3] }, wantErr: true},
		{name: "duplicate base element", mutate: func(c *Config) {
			c.BaseElements = []BaseElement{
				{Name: "Water", Symbol: "💧"},
				{Name: "Water", Symbol: "💧"},
				{Name: "Wind", Symbol: "💨"},
				{Name: "Earth", Symbol: "🌍"},
			}
		}, wantErr: true},
		{name: "zero timeout", mutate: func(c *Config) { c.GenerationTimeout = 0 }, wantErr: true},
		{name: "unknown cache", mutate: func(c *Config) { c.CacheBackend = "memcached" }, wantErr: true},
		{name: "events without bus", mutate: func(c *Config) {
			c.EnableEvents = true
			c.EventBusName = ""
		}, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(cfg)

			err := cfg.Validate()

			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestGetEnvDuration(t *testing.T) {
	t.Setenv("TEST_DURATION", "45")
	assert.Equal(t, 45*time.Second, getEnvDuration("TEST_DURATION", time.Second))

	t.Setenv("TEST_DURATION", "250ms")
	assert.Equal(t, 250*time.Millisecond, getEnvDuration("TEST_DURATION", time.Second))

	t.Setenv("TEST_DURATION", "soon")
	assert.Equal(t, time.Second, getEnvDuration("TEST_DURATION", time.Second))
}
