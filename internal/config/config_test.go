package config

import (
	"errors"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	chdir(t, t.TempDir())

	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, "Finance Ledger", cfg.App.Name)
	assert.Equal(t, "EUR", cfg.App.Currency)
	assert.True(t, cfg.Audit.Enabled)
	assert.True(t, cfg.Notifications.Console)
	assert.False(t, cfg.Notifications.Email)
	assert.Empty(t, cfg.Metrics.Addr)

	maxTransfer, err := cfg.MaxTransfer()
	require.NoError(t, err)
	assert.Equal(t, "10000", maxTransfer.String())

	level, err := cfg.LogLevel()
	require.NoError(t, err)
	assert.Equal(t, slog.LevelInfo, level)
}

func TestLoad_EnvOverrides(t *testing.T) {
	chdir(t, t.TempDir())
	t.Setenv("LEDGER_LIMITS_MAX_TRANSFER", "250.50")
	t.Setenv("LEDGER_NOTIFICATIONS_SMS", "true")
	t.Setenv("LEDGER_LOG_LEVEL", "debug")

	cfg, err := Load("")
	require.NoError(t, err)

	maxTransfer, err := cfg.MaxTransfer()
	require.NoError(t, err)
	assert.Equal(t, "250.5", maxTransfer.String())
	assert.True(t, cfg.Notifications.SMS)

	level, err := cfg.LogLevel()
	require.NoError(t, err)
	assert.Equal(t, slog.LevelDebug, level)
}

func TestLoad_ConfigFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "ledger.yaml")
	content := `
app:
  name: Test Ledger
limits:
  max_transfer: "500"
audit:
  file: /tmp/audit.log
  secret: s3cret
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "Test Ledger", cfg.App.Name)
	assert.Equal(t, "/tmp/audit.log", cfg.Audit.File)
	assert.Equal(t, "s3cret", cfg.Audit.Secret)
	maxTransfer, err := cfg.MaxTransfer()
	require.NoError(t, err)
	assert.Equal(t, "500", maxTransfer.String())
}

func TestLoad_MissingExplicitFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.Error(t, err)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name        string
		maxTransfer string
		maxDeposit  string
		level       string
		wantErr     bool
	}{
		{"valid", "100", "1000", "info", false},
		{"zero transfer limit", "0", "1000", "info", true},
		{"negative deposit limit", "100", "-1", "info", true},
		{"not a number", "abc", "1000", "info", true},
		{"bad level", "100", "1000", "loud", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var cfg Config
			cfg.Limits.MaxTransfer = tt.maxTransfer
			cfg.Limits.MaxInitialDeposit = tt.maxDeposit
			cfg.Log.Level = tt.level

			err := cfg.Validate()
			if tt.wantErr {
				assert.True(t, errors.Is(err, ErrInvalidConfig), "got %v", err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

// chdir changes the working directory for the duration of the test,
// equivalent to testing.T.Chdir (Go 1.24+).
func chdir(t *testing.T, dir string) {
	t.Helper()
	prev, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { _ = os.Chdir(prev) })
}
