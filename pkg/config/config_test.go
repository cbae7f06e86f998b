package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type testConfig struct {
	Port     int    `env:"TEST_CFG_PORT" envDefault:"8080"`
	Secret   string `env:"TEST_CFG_SECRET" envDefault:"dev"`
	LogLevel string `env:"TEST_CFG_LOG_LEVEL" envDefault:"info"`
}

func TestLoad_Defaults(t *testing.T) {
	var cfg testConfig
	require.NoError(t, Load(&cfg))

	assert.Equal(t, 8080, cfg.Port)
	assert.Equal(t, "dev", cfg.Secret)
	assert.Equal(t, "info", cfg.LogLevel)
}

func TestLoad_FromEnvVars(t *testing.T) {
	t.Setenv("TEST_CFG_PORT", "9090")
	t.Setenv("TEST_CFG_LOG_LEVEL", "debug")

	var cfg testConfig
	require.NoError(t, Load(&cfg))

	assert.Equal(t, 9090, cfg.Port)
	assert.Equal(t, "debug", cfg.LogLevel)
}

func TestLoad_MissingDotenvIsSkipped(t *testing.T) {
	var cfg testConfig
	err := Load(&cfg, filepath.Join(t.TempDir(), "does-not-exist.env"))

	require.NoError(t, err)
	assert.Equal(t, 8080, cfg.Port)
}

func TestLoad_DotenvDoesNotOverrideEnvironment(t *testing.T) {
	path := filepath.Join(t.TempDir(), ".env")
	require.NoError(t, os.WriteFile(path, []byte("TEST_CFG_SECRET=from-file\nTEST_CFG_PORT=7070\n"), 0o600))

	t.Setenv("TEST_CFG_PORT", "9191")
	// Registered so t.Setenv's cleanup unsets the value the file will add.
	t.Setenv("TEST_CFG_SECRET", "")
	require.NoError(t, os.Unsetenv("TEST_CFG_SECRET"))

	var cfg testConfig
	require.NoError(t, Load(&cfg, path))

	assert.Equal(t, 9191, cfg.Port)
	assert.Equal(t, "from-file", cfg.Secret)
}

type requiredConfig struct {
	APIKey string `env:"TEST_CFG_API_KEY,required"`
}

func TestLoad_RequiredFieldMissing(t *testing.T) {
	var cfg requiredConfig
	err := Load(&cfg)

	require.Error(t, err)
	assert.Contains(t, err.Error(), "parse config")
}

func TestLoad_InvalidType(t *testing.T) {
	t.Setenv("TEST_CFG_PORT", "not-a-number")

	var cfg testConfig
	err := Load(&cfg)

	require.Error(t, err)
	assert.Contains(t, err.Error(), "parse config")
}
