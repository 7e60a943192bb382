package cli

import (
	"context"
	"fmt"
	"io"

	"github.com/spf13/cobra"
	"golang.org/x/text/message"

	"github.com/roach88/rewardstore/internal/store"
)

// InitResult describes the store after init.
type InitResult struct {
	Path      string                `json:"path"`
	StoreID   string                `json:"store_id"`
	Version   int                   `json:"version"`
	Migration store.MigrationReport `json:"migration"`
	Failures  []string              `json:"failures,omitempty"`
}

// RenderText implements TextRenderer.
func (r InitResult) RenderText(p *message.Printer, w io.Writer) {
	m := r.Migration
	switch {
	case m.Created:
		p.Fprintf(w, "Created %s at version %d\n", r.Path, r.Version)
	case m.From == m.Reached:
		p.Fprintf(w, "%s is up to date (version %d)\n", r.Path, r.Version)
	default:
		p.Fprintf(w, "Migrated %s from version %d to %d\n", r.Path, m.From, m.Reached)
	}
	p.Fprintf(w, "Store ID: %s\n", r.StoreID)
	for _, f := range r.Failures {
		fmt.Fprintf(w, "  ✗ %s\n", f)
	}
}

// NewInitCommand creates the init command.
func NewInitCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "init",
		Short: "Create or upgrade the database",
		Long: `Open the database, creating it if needed, and migrate it to the
current schema version.

A migration step that fails leaves the store at the last version reached;
the remaining steps are retried on the next open.

Exit codes:
  0 - Store is at the current version
  1 - A migration step failed
  2 - Command error (unreadable file, store written by a newer version)

Examples:
  rewardstore init --db ./publisher_info.db
  rewardstore init --config ./rewardstore.cue --format json`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runInit(cmd.Context(), rootOpts, cmd)
		},
	}
}

func runInit(ctx context.Context, opts *RootOptions, cmd *cobra.Command) error {
	sess, err := newSession(opts, cmd)
	if err != nil {
		return err
	}
	st, err := sess.openStore(ctx, true)
	if err != nil {
		return err
	}
	defer st.Close()

	report := st.MigrationReport()
	result := InitResult{
		Path:      st.Path(),
		StoreID:   st.Meta().StoreID,
		Version:   report.Reached,
		Migration: report,
	}
	for _, step := range report.Steps {
		if step.Err != nil {
			result.Failures = append(result.Failures, step.Err.Error())
		}
	}

	if report.Failed() {
		msg := fmt.Sprintf("migration stopped at version %d of %d", report.Reached, report.To)
		if err := sess.out.Failure(result, string(store.CodeMigrationStepFailed), msg); err != nil {
			return err
		}
		return reported(WrapExitError(ExitFailure, msg, report.Err()))
	}
	return sess.out.Success(result)
}
