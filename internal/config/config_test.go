package config

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, name, body string) string {
	t.Helper()
	p := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(p, []byte(body), 0o600))
	return p
}

func TestLoadMissingFileUsesDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	require.NoError(t, err)
	assert.Equal(t, DefaultPort, cfg.Server.Port)
	assert.Equal(t, DefaultTimeout, cfg.Analysis.Timeout)
	assert.EqualValues(t, DefaultMaxCodeBytes, cfg.Server.MaxCodeBytes)
	assert.True(t, cfg.Analysis.ExternalTools)
}

func TestLoadFile(t *testing.T) {
	p := writeFile(t, "config.yaml", `
server:
  port: 8088
  cors_origins: ["http://localhost:3000"]
analysis:
  timeout: 3s
  workers: 4
  lint:
    max_complexity: 7
  tools:
    - name: semgrep
      language: python
      kind: security
      format: sarif
      command: [semgrep, --sarif, "-"]
minio:
  enabled: true
  endpoint: localhost:9000
  bucket: rules
  prefix: automaton
`)
	cfg, err := Load(p)
	require.NoError(t, err)

	assert.Equal(t, 8088, cfg.Server.Port)
	assert.Equal(t, []string{"http://localhost:3000"}, cfg.Server.CORSOrigins)
	assert.Equal(t, 3*time.Second, cfg.Analysis.Timeout)
	assert.Equal(t, 4, cfg.Analysis.Workers)
	assert.Equal(t, 7, cfg.Analysis.Lint.MaxComplexity)
	require.Len(t, cfg.Analysis.Tools, 1)
	assert.Equal(t, "semgrep", cfg.Analysis.Tools[0].Name)
	assert.Equal(t, "rules", cfg.Minio.Bucket)
	assert.Equal(t, "automaton", cfg.Minio.Prefix)
	// untouched keys keep their defaults
	assert.EqualValues(t, DefaultMaxCodeBytes, cfg.Server.MaxCodeBytes)
}

func TestLoadBadYAML(t *testing.T) {
	_, err := Load(writeFile(t, "config.yaml", "server: [oops"))
	require.Error(t, err)
}

func TestApplyEnv(t *testing.T) {
	env := map[string]string{
		"PORT":             "9090",
		"OPENAI_API_KEY":   "sk-test",
		"DATABASE_DRIVER":  "postgres",
		"DATABASE_DSN":     "postgres://u@h/db",
		"MINIO_BUCKET":     "overlays",
		"ANALYSIS_TIMEOUT": "2s",
	}
	cfg := Default()
	require.NoError(t, cfg.applyEnv(func(k string) (string, bool) {
		v, ok := env[k]
		return v, ok
	}))
	assert.Equal(t, 9090, cfg.Server.Port)
	assert.Equal(t, "sk-test", cfg.LLM.APIKey)
	assert.Equal(t, "postgres", cfg.Database.Driver)
	assert.Equal(t, "postgres://u@h/db", cfg.DatabaseDSN())
	assert.Equal(t, "overlays", cfg.Minio.Bucket)
	assert.Equal(t, 2*time.Second, cfg.Analysis.Timeout)
}

func TestApplyEnvBadPort(t *testing.T) {
	cfg := Default()
	err := cfg.applyEnv(func(k string) (string, bool) {
		if k == "PORT" {
			return "eighty", true
		}
		return "", false
	})
	require.Error(t, err)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
		ok     bool
	}{
		{"defaults", func(*Config) {}, true},
		{"port", func(c *Config) { c.Server.Port = 0 }, false},
		{"timeout", func(c *Config) { c.Analysis.Timeout = 0 }, false},
		{"driver", func(c *Config) { c.Database.Driver = "sqlite" }, false},
		{"llm without key", func(c *Config) { c.LLM.Enabled = true }, false},
		{"llm with key", func(c *Config) { c.LLM.Enabled = true; c.LLM.APIKey = "k" }, true},
		{"minio without bucket", func(c *Config) { c.Minio.Enabled = true; c.Minio.Endpoint = "x" }, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(cfg)
			err := cfg.Validate()
			if tt.ok {
				assert.NoError(t, err)
			} else {
				assert.Error(t, err)
			}
		})
	}
}

func TestDSN(t *testing.T) {
	cfg := Default()
	assert.Empty(t, cfg.DatabaseDSN())

	cfg.Database.Host = "db"
	cfg.Database.Port = 3306
	cfg.Database.User = "app"
	cfg.Database.Password = "pw"
	cfg.Database.Name = "automaton"
	assert.Equal(t, "app:pw@tcp(db:3306)/automaton?parseTime=true&charset=utf8mb4&loc=UTC", cfg.DatabaseDSN())

	cfg.Database.Driver = "postgres"
	cfg.Database.Port = 5432
	assert.Equal(t, "host=db port=5432 user=app password=pw dbname=automaton sslmode=disable", cfg.DatabaseDSN())
}

func TestLoadEnvIgnoresMissing(t *testing.T) {
	require.NoError(t, LoadEnv(filepath.Join(t.TempDir(), ".env")))
}

func TestLoadEnvReadsFile(t *testing.T) {
	p := writeFile(t, ".env", "AUTOMATON_TEST_VALUE=from-dotenv\n")
	t.Setenv("AUTOMATON_TEST_VALUE", "")
	os.Unsetenv("AUTOMATON_TEST_VALUE")
	require.NoError(t, LoadEnv(p))
	assert.Equal(t, "from-dotenv", os.Getenv("AUTOMATON_TEST_VALUE"))
}

func TestLogger(t *testing.T) {
	var buf bytes.Buffer
	cfg := Default()
	cfg.Log.Level = "warn"
	log := cfg.Logger(&buf)
	log.Info("hidden")
	log.Warn("shown", "k", "v")
	assert.NotContains(t, buf.String(), "hidden")
	assert.Contains(t, buf.String(), `"msg":"shown"`)

	buf.Reset()
	cfg.Log.Format = "text"
	cfg.Log.Level = "bogus"
	cfg.Logger(&buf).Info("plain")
	assert.Contains(t, buf.String(), "msg=plain")
}
