package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load(writeEnvFile(t, ""))
	require.NoError(t, err)
	assert.Equal(t, "sqlite://./rfm.db", cfg.DSN)
	assert.Equal(t, "info", cfg.LogLevel)
	assert.Equal(t, "text", cfg.LogFormat)
	assert.Equal(t, ":8080", cfg.HTTPAddr)
	assert.True(t, cfg.Progress)
	assert.NoError(t, cfg.Validate())
}

func TestLoad_EnvOverrides(t *testing.T) {
	t.Setenv("RFM_DSN", "mysql://u:p@db:3306/rfm")
	t.Setenv("RFM_LOG_FORMAT", "json")
	t.Setenv("RFM_EXPLAIN_SEED", "42")
	t.Setenv("RFM_PROGRESS", "false")

	cfg, err := Load(writeEnvFile(t, ""))
	require.NoError(t, err)
	assert.Equal(t, "mysql://u:p@db:3306/rfm", cfg.DSN)
	assert.Equal(t, "json", cfg.LogFormat)
	assert.Equal(t, int64(42), cfg.ExplainSeed)
	assert.False(t, cfg.Progress)
}

func TestLoad_EnvFile(t *testing.T) {
	// godotenv does not override variables already set; make sure ours is unset
	t.Setenv("RFM_LOG_LEVEL", "")
	os.Unsetenv("RFM_LOG_LEVEL")

	path := writeEnvFile(t, "RFM_LOG_LEVEL=debug\n")
	t.Cleanup(func() { os.Unsetenv("RFM_LOG_LEVEL") })

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "debug", cfg.LogLevel)
}

func TestLoad_MissingEnvFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.env"))
	assert.Error(t, err)
}

func TestValidate(t *testing.T) {
	cfg := &Configuration{DSN: "", LogFormat: "text"}
	assert.Error(t, cfg.Validate())

	cfg = &Configuration{DSN: "sqlite://x.db", LogFormat: "yaml"}
	assert.Error(t, cfg.Validate())
}

func writeEnvFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "test.env")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}
