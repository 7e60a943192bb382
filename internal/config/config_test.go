package config

import (
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, src string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "rewardstore.cue")
	require.NoError(t, os.WriteFile(path, []byte(src), 0o644))
	return path
}

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, Config{
		Database:      "publisher_info.db",
		BusyTimeoutMS: 5000,
		Synchronous:   "NORMAL",
		JournalMode:   "WAL",
		CacheSize:     0,
		LogLevel:      "info",
	}, cfg)
	assert.Equal(t, cfg, Default())
}

func TestLoad_File(t *testing.T) {
	path := writeConfig(t, `
database: "/var/lib/rewards/publisher_info.db"
busy_timeout_ms: 250
synchronous: "FULL"
cache_size: -2000
log_level: "debug"
`)

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "/var/lib/rewards/publisher_info.db", cfg.Database)
	assert.Equal(t, 250, cfg.BusyTimeoutMS)
	assert.Equal(t, "FULL", cfg.Synchronous)
	assert.Equal(t, "WAL", cfg.JournalMode, "unset fields keep defaults")
	assert.Equal(t, -2000, cfg.CacheSize)
	assert.Equal(t, slog.LevelDebug, cfg.Level())
}

func TestLoad_RejectsInvalidFile(t *testing.T) {
	tests := []struct {
		name string
		src  string
	}{
		{"unknown field", `databse: "x.db"`},
		{"bad enum", `synchronous: "SOMETIMES"`},
		{"negative timeout", `busy_timeout_ms: -1`},
		{"empty database", `database: ""`},
		{"syntax", `database: `},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Load(writeConfig(t, tt.src))
			assert.Error(t, err)
		})
	}
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.cue"))
	assert.Error(t, err)
}

func TestLoad_EnvOverridesFile(t *testing.T) {
	path := writeConfig(t, `database: "file.db"`)
	t.Setenv("REWARDSTORE_DATABASE", "env.db")
	t.Setenv("REWARDSTORE_BUSY_TIMEOUT_MS", "10")

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "env.db", cfg.Database)
	assert.Equal(t, 10, cfg.BusyTimeoutMS)
	assert.Equal(t, "NORMAL", cfg.Synchronous)
}

func TestLoad_EnvValidatedAgainstSchema(t *testing.T) {
	t.Setenv("REWARDSTORE_JOURNAL_MODE", "sideways")

	_, err := Load("")
	assert.Error(t, err)
}

func TestLoad_EnvTypeError(t *testing.T) {
	t.Setenv("REWARDSTORE_CACHE_SIZE", "lots")

	_, err := Load("")
	assert.Error(t, err)
}

func TestStoreOptions(t *testing.T) {
	cfg := Default()
	opts := cfg.StoreOptions(slog.Default())
	assert.Len(t, opts, 5)
}

func TestLevel(t *testing.T) {
	for in, want := range map[string]slog.Level{
		"debug": slog.LevelDebug,
		"INFO":  slog.LevelInfo,
		"warn":  slog.LevelWarn,
		"error": slog.LevelError,
		"":      slog.LevelInfo,
	} {
		assert.Equal(t, want, Config{LogLevel: in}.Level(), in)
	}
}
