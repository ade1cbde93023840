package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func clearEnv(t *testing.T) {
	t.Helper()
	for _, k := range []string{
		"IMAGESHOP_API_BASE_URL", "IMAGESHOP_HTTP_TIMEOUT", "IMAGESHOP_INSECURE_TLS",
		"IMAGESHOP_RATE_LIMIT_RPS", "IMAGESHOP_RATE_LIMIT_BURST", "IMAGESHOP_STORE",
		"IMAGESHOP_STORE_PATH", "IMAGESHOP_STORE_KEY", "IMAGESHOP_PG_DSN", "IMAGESHOP_REDIS_ADDR",
		"IMAGESHOP_REDIS_PASSWORD", "IMAGESHOP_REDIS_DB", "IMAGESHOP_SESSION_ID", "IMAGESHOP_LEDGER",
		"IMAGESHOP_NOTIFY_DURATION", "IMAGESHOP_ENV", "IMAGESHOP_LOG_LEVEL",
	} {
		t.Setenv(k, "")
	}
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())
}

func TestLoad_Defaults(t *testing.T) {
	clearEnv(t)

	cfg, err := Load("")
	require.NoError(t, err)
	require.Equal(t, "https://localhost:7147/api", cfg.APIBaseURL)
	require.Equal(t, 30*time.Second, cfg.HTTPTimeout)
	require.Equal(t, StoreFile, cfg.Store)
	require.Equal(t, LedgerAuto, cfg.Ledger)
	require.Equal(t, 4200*time.Millisecond, cfg.NotifyDuration)
	require.Equal(t, "default", cfg.SessionID)
	require.Equal(t, filepath.Join(os.Getenv("XDG_CONFIG_HOME"), "imageshop", "session.json"), cfg.StorePath)
	require.False(t, cfg.Dev())
}

func TestLoad_EnvFileAndOverrides(t *testing.T) {
	clearEnv(t)

	dir := t.TempDir()
	envFile := filepath.Join(dir, ".env")
	require.NoError(t, os.WriteFile(envFile, []byte("IMAGESHOP_API_BASE_URL=http://api.local/api/\nIMAGESHOP_LEDGER=local\n"), 0o600))
	// godotenv never overrides variables that are already set; unset the blanks first.
	require.NoError(t, os.Unsetenv("IMAGESHOP_API_BASE_URL"))
	require.NoError(t, os.Unsetenv("IMAGESHOP_LEDGER"))
	t.Cleanup(func() {
		_ = os.Unsetenv("IMAGESHOP_API_BASE_URL")
		_ = os.Unsetenv("IMAGESHOP_LEDGER")
	})
	t.Setenv("IMAGESHOP_STORE", "memory")
	t.Setenv("IMAGESHOP_HTTP_TIMEOUT", "5s")
	t.Setenv("IMAGESHOP_ENV", "dev")

	cfg, err := Load(envFile)
	require.NoError(t, err)
	require.Equal(t, "http://api.local/api", cfg.APIBaseURL)
	require.Equal(t, LedgerLocal, cfg.Ledger)
	require.Equal(t, StoreMemory, cfg.Store)
	require.Equal(t, 5*time.Second, cfg.HTTPTimeout)
	require.True(t, cfg.Dev())
}

func TestLoad_MissingEnvFileIsFine(t *testing.T) {
	clearEnv(t)
	_, err := Load(filepath.Join(t.TempDir(), "nope.env"))
	require.NoError(t, err)
}

func TestLoad_Invalid(t *testing.T) {
	cases := map[string][2]string{
		"bad url":      {"IMAGESHOP_API_BASE_URL", "ftp://x"},
		"bad store":    {"IMAGESHOP_STORE", "s3"},
		"pg w/o dsn":   {"IMAGESHOP_STORE", "postgres"},
		"bad ledger":   {"IMAGESHOP_LEDGER", "maybe"},
		"bad timeout":  {"IMAGESHOP_HTTP_TIMEOUT", "soon"},
		"neg rps":      {"IMAGESHOP_RATE_LIMIT_RPS", "-1"},
		"bad redis db": {"IMAGESHOP_REDIS_DB", "zero"},
	}
	for name, kv := range cases {
		t.Run(name, func(t *testing.T) {
			clearEnv(t)
			t.Setenv(kv[0], kv[1])
			_, err := Load("")
			require.Error(t, err)
		})
	}
}
