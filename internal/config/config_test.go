package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestLoadFile_Defaults(t *testing.T) {
	cfg, err := LoadFile(writeFile(t, "config.yaml", "environment: DEV\n"))
	require.NoError(t, err)

	assert.True(t, cfg.IsDev())
	assert.Equal(t, DriverMemory, cfg.Tasks.Driver)
	assert.Equal(t, ProviderCanned, cfg.AI.Provider)
	assert.Equal(t, 10*time.Second, cfg.AI.Timeout)
	assert.Equal(t, 1000, cfg.Intelligence.MessageCapacity)
	assert.Equal(t, 20, cfg.Intelligence.InsightCapacity)
	assert.Equal(t, 30*time.Second, cfg.Intelligence.AnalysisInterval)
	assert.Equal(t, 15*time.Second, cfg.Server.ReadTimeout)
}

func TestLoadFile_Values(t *testing.T) {
	cfg, err := LoadFile(writeFile(t, "config.yaml", `
tasks:
  driver: SQLite
  sqlite_path: /tmp/tasks.db
ai:
  provider: http
  url: http://sidecar:9000
  timeout: 2s
auth:
  okta_domain: https://example.okta.com/oauth2/default/
intelligence:
  analysis_interval: 1m
`))
	require.NoError(t, err)

	assert.Equal(t, DriverSQLite, cfg.Tasks.Driver)
	assert.Equal(t, "/tmp/tasks.db", cfg.Tasks.SQLitePath)
	assert.Equal(t, "http://sidecar:9000", cfg.AI.URL)
	assert.Equal(t, 2*time.Second, cfg.AI.Timeout)
	assert.Equal(t, "https://example.okta.com/oauth2/default", cfg.Auth.OktaDomain)
	assert.Equal(t, time.Minute, cfg.Intelligence.AnalysisInterval)
	assert.False(t, cfg.IsDev())
}

func TestLoadFile_EnvOverride(t *testing.T) {
	t.Setenv("EVS_AI_PROVIDER", "gemini")
	t.Setenv("EVS_INTELLIGENCE_MESSAGE_CAPACITY", "250")

	cfg, err := LoadFile(writeFile(t, "config.yaml", "ai:\n  provider: canned\n"))
	require.NoError(t, err)
	assert.Equal(t, ProviderGemini, cfg.AI.Provider)
	assert.Equal(t, 250, cfg.Intelligence.MessageCapacity)
}

func TestLoadFile_Invalid(t *testing.T) {
	_, err := LoadFile(writeFile(t, "config.yaml", "tasks:\n  driver: mongo\n"))
	assert.ErrorContains(t, err, "tasks.driver")

	_, err = LoadFile(writeFile(t, "config.yaml", "ai:\n  provider: oracle\n"))
	assert.ErrorContains(t, err, "ai.provider")
}

func TestNormalizeOktaIssuer(t *testing.T) {
	assert.Equal(t, "https://x.okta.com", normalizeOktaIssuer(" https://x.okta.com/ "))
	assert.Equal(t, "", normalizeOktaIssuer(""))
}

func TestLoadConfigFrom_EnvFileAndExplicitPath(t *testing.T) {
	path := writeFile(t, "evs.yaml", "tasks:\n  driver: sqlite\n")
	envFile := writeFile(t, ".env", "EVS_LOGGING_DEBUG=true\n")
	t.Cleanup(func() { os.Unsetenv("EVS_LOGGING_DEBUG") })

	cfg, err := LoadConfigFrom(envFile, path)
	require.NoError(t, err)
	assert.Equal(t, DriverSQLite, cfg.Tasks.Driver)
	assert.True(t, cfg.Logging.Debug)

	_, err = LoadConfigFrom(filepath.Join(t.TempDir(), "missing.env"), "")
	assert.Error(t, err)
}
