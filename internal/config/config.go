// Package config loads rewardstore settings.
//
// Settings come from three layers, later layers winning:
//
//  1. defaults in the embedded CUE schema (schema.cue)
//  2. an optional CUE file given with --config
//  3. REWARDSTORE_* environment variables
//
// The merged result is checked against the schema after every layer, so an
// environment variable cannot smuggle in a value the file could not hold.
package config

import (
	_ "embed"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	"github.com/kelseyhightower/envconfig"

	"github.com/roach88/rewardstore/internal/store"
)

//go:embed schema.cue
var schemaSrc []byte

// EnvPrefix prefixes every environment override, e.g. REWARDSTORE_DATABASE.
const EnvPrefix = "REWARDSTORE"

// Config holds the resolved settings.
type Config struct {
	Database      string `json:"database" envconfig:"DATABASE"`
	BusyTimeoutMS int    `json:"busy_timeout_ms" envconfig:"BUSY_TIMEOUT_MS"`
	Synchronous   string `json:"synchronous" envconfig:"SYNCHRONOUS"`
	JournalMode   string `json:"journal_mode" envconfig:"JOURNAL_MODE"`
	CacheSize     int    `json:"cache_size" envconfig:"CACHE_SIZE"`
	LogLevel      string `json:"log_level" envconfig:"LOG_LEVEL"`
}

// Load resolves the configuration. path may be empty, in which case only
// defaults and the environment apply.
func Load(path string) (Config, error) {
	ctx := cuecontext.New()
	schema, err := compileSchema(ctx)
	if err != nil {
		return Config{}, err
	}

	v := schema
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return Config{}, fmt.Errorf("read config: %w", err)
		}
		file := ctx.CompileBytes(data, cue.Filename(path))
		if err := file.Err(); err != nil {
			return Config{}, fmt.Errorf("compile config %s: %w", path, err)
		}
		v = schema.Unify(file)
	}

	cfg, err := decode(v)
	if err != nil {
		return Config{}, fmt.Errorf("config %s: %w", displayPath(path), err)
	}

	if err := envconfig.Process(EnvPrefix, &cfg); err != nil {
		return Config{}, fmt.Errorf("process environment: %w", err)
	}

	// Re-check the merged values against the schema.
	if _, err := decode(schema.Unify(ctx.Encode(cfg))); err != nil {
		return Config{}, fmt.Errorf("environment overrides: %w", err)
	}
	return cfg, nil
}

// Default returns the schema defaults.
func Default() Config {
	ctx := cuecontext.New()
	schema, err := compileSchema(ctx)
	if err != nil {
		panic(err)
	}
	cfg, err := decode(schema)
	if err != nil {
		panic(err)
	}
	return cfg
}

func compileSchema(ctx *cue.Context) (cue.Value, error) {
	v := ctx.CompileBytes(schemaSrc, cue.Filename("schema.cue"))
	if err := v.Err(); err != nil {
		return cue.Value{}, fmt.Errorf("compile config schema: %w", err)
	}
	def := v.LookupPath(cue.ParsePath("#Config"))
	if !def.Exists() {
		return cue.Value{}, fmt.Errorf("config schema has no #Config")
	}
	return def, nil
}

func decode(v cue.Value) (Config, error) {
	if err := v.Validate(cue.Concrete(true)); err != nil {
		return Config{}, err
	}
	var cfg Config
	if err := v.Decode(&cfg); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func displayPath(path string) string {
	if path == "" {
		return "(defaults)"
	}
	return path
}

// StoreOptions converts the settings to store options.
func (c Config) StoreOptions(logger *slog.Logger) []store.Option {
	return []store.Option{
		store.WithLogger(logger),
		store.WithBusyTimeout(c.BusyTimeoutMS),
		store.WithSynchronous(c.Synchronous),
		store.WithJournalMode(c.JournalMode),
		store.WithCacheSize(c.CacheSize),
	}
}

// Level returns the slog level named by LogLevel.
func (c Config) Level() slog.Level {
	switch strings.ToLower(c.LogLevel) {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
