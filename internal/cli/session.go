package cli

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/roach88/rewardstore/internal/config"
	"github.com/roach88/rewardstore/internal/store"
)

// session is the resolved environment of one command: configuration,
// logger and output formatter.
type session struct {
	cfg    config.Config
	logger *slog.Logger
	out    *OutputFormatter
}

// newSession loads the configuration and builds the logger. The --db flag
// takes precedence over the config file and the environment.
func newSession(opts *RootOptions, cmd *cobra.Command) (*session, error) {
	cfg, err := config.Load(opts.Config)
	if err != nil {
		return nil, WrapExitError(ExitCommandError, "failed to load config", err)
	}
	if opts.Database != "" {
		cfg.Database = opts.Database
	}

	level := cfg.Level()
	if opts.Verbose {
		level = slog.LevelDebug
	}
	traceID := newTraceID()
	logger := slog.New(slog.NewTextHandler(cmd.ErrOrStderr(), &slog.HandlerOptions{Level: level})).
		With("trace_id", traceID)

	return &session{
		cfg:    cfg,
		logger: logger,
		out: &OutputFormatter{
			Format:    opts.Format,
			Writer:    cmd.OutOrStdout(),
			ErrWriter: cmd.ErrOrStderr(),
			Verbose:   opts.Verbose,
			TraceID:   traceID,
		},
	}, nil
}

// openStore opens the configured database. Unless create is set, a missing
// file is a command error instead of a new empty store.
func (s *session) openStore(ctx context.Context, create bool) (*store.Store, error) {
	path := s.cfg.Database
	if !create {
		if _, err := os.Stat(path); errors.Is(err, fs.ErrNotExist) {
			return nil, NewExitError(ExitCommandError,
				fmt.Sprintf("database not found: %s (run init to create it)", path))
		}
	}

	st := store.New(path, s.cfg.StoreOptions(s.logger)...)
	status, err := st.Open(ctx)
	switch status {
	case store.StatusReady:
	case store.StatusIncompatibleTooNew:
		return nil, WrapExitError(ExitCommandError, "database was written by a newer version", err)
	default:
		return nil, WrapExitError(ExitCommandError, "failed to open database", err)
	}

	if report := st.MigrationReport(); report.Failed() {
		s.logger.Warn("store opened with incomplete migration",
			"reached", report.Reached,
			"target", report.To,
		)
	}
	s.out.VerboseLog("opened %s (version %d)", path, st.Meta().Version)
	return st, nil
}
