package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spherical-ai/spherical/libs/inventory-engine/internal/domain"
)

func TestDefaultConfig_Valid(t *testing.T) {
	cfg := DefaultConfig()
	require.NoError(t, cfg.Validate())
	assert.Equal(t, 10, cfg.Engine.PageSize)
	assert.Equal(t, 0.7, cfg.Engine.ValueCutoff)
	assert.Equal(t, 0.6, cfg.Engine.QACutoff)
	assert.Equal(t, 100, cfg.Engine.SampleSize)
	assert.True(t, cfg.Engine.FallbackOnEmpty)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"bad port", func(c *Config) { c.Server.Port = 0 }},
		{"empty catalog path", func(c *Config) { c.Catalog.Path = " " }},
		{"page size too large", func(c *Config) { c.Engine.PageSize = 500 }},
		{"zero cutoff", func(c *Config) { c.Engine.QACutoff = 0 }},
		{"sample too large", func(c *Config) { c.Engine.SampleSize = 101 }},
		{"bad cache driver", func(c *Config) { c.Cache.Driver = "memcached" }},
		{"bad audit driver", func(c *Config) { c.Audit.Driver = "mysql" }},
		{"postgres without dsn", func(c *Config) {
			c.Audit.Enabled = true
			c.Audit.Driver = "postgres"
		}},
		{"llm without timeout", func(c *Config) { c.LLM.Timeout = 0 }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(cfg)
			err := cfg.Validate()
			require.Error(t, err)
			assert.True(t, domain.IsType(err, domain.ErrorTypeConfig))
		})
	}
}

func TestLoad_YAMLAndEnv(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "engine.yaml")
	yamlDoc := `
server:
  port: 9100
catalog:
  path: inventory.json
  qa_path: qa.json
engine:
  page_size: 5
llm:
  timeout: 5s
`
	require.NoError(t, os.WriteFile(path, []byte(yamlDoc), 0o644))

	t.Setenv("LLM_API_KEY", "test-key")
	t.Setenv("LOG_LEVEL", "warn")

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, 9100, cfg.Server.Port)
	assert.Equal(t, filepath.Join(dir, "inventory.json"), cfg.Catalog.Path)
	assert.Equal(t, filepath.Join(dir, "qa.json"), cfg.Catalog.QAPath)
	assert.Equal(t, 5, cfg.Engine.PageSize)
	assert.Equal(t, 5*time.Second, cfg.LLM.Timeout)
	assert.Equal(t, "test-key", cfg.LLM.APIKey)
	assert.Equal(t, "warn", cfg.Observability.LogLevel)
	assert.True(t, cfg.LLMAvailable())
}

func TestLoad_DatabaseURL(t *testing.T) {
	t.Setenv("DATABASE_URL", "sqlite:/tmp/audit-test.db")

	cfg, err := Load("")
	require.NoError(t, err)
	assert.True(t, cfg.Audit.Enabled)
	assert.Equal(t, "sqlite", cfg.Audit.Driver)
	assert.Equal(t, "/tmp/audit-test.db", cfg.AuditDSN())
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	require.Error(t, err)
	assert.True(t, domain.IsType(err, domain.ErrorTypeConfig))
}

func TestLoad_MalformedYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.yaml")
	require.NoError(t, os.WriteFile(path, []byte("server: [unterminated"), 0o644))

	_, err := Load(path)
	require.Error(t, err)
	assert.True(t, domain.IsType(err, domain.ErrorTypeConfig))
}

func TestResolveRelativePath(t *testing.T) {
	assert.Equal(t, "/etc/inv/data.json", ResolveRelativePath("/etc/inv/engine.yaml", "data.json"))
	assert.Equal(t, "/abs/data.json", ResolveRelativePath("/etc/inv/engine.yaml", "/abs/data.json"))
	assert.Equal(t, "", ResolveRelativePath("/etc/inv/engine.yaml", ""))
}
