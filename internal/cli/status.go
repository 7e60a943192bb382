package cli

import (
	"context"
	"io"
	"sort"

	"github.com/spf13/cobra"
	"golang.org/x/text/message"

	"github.com/roach88/rewardstore/internal/store"
)

// StatusResult wraps store diagnostics for output.
type StatusResult struct {
	store.Diagnostics
}

// RenderText implements TextRenderer.
func (r StatusResult) RenderText(p *message.Printer, w io.Writer) {
	d := r.Diagnostics
	p.Fprintf(w, "Path:      %s\n", d.Path)
	p.Fprintf(w, "Store ID:  %s\n", d.StoreID)
	p.Fprintf(w, "Version:   %d (compatible with %d, target %d)\n", d.Version, d.CompatibleVersion, d.TargetVersion)
	p.Fprintf(w, "Journal:   %s\n", d.JournalMode)
	p.Fprintf(w, "Size:      %d bytes\n", d.SizeBytes)
	p.Fprintf(w, "Rows:\n")

	tables := make([]string, 0, len(d.RowCounts))
	for t := range d.RowCounts {
		tables = append(tables, t)
	}
	sort.Strings(tables)
	for _, t := range tables {
		p.Fprintf(w, "  %-22s %12d\n", t, d.RowCounts[t])
	}
}

// NewStatusCommand creates the status command.
func NewStatusCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show schema version, store id and row counts",
		Long: `Show the schema version, compatibility floor, store id, file size
and the number of rows in each table.

Examples:
  rewardstore status --db ./publisher_info.db
  rewardstore status --format json`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runStatus(cmd.Context(), rootOpts, cmd)
		},
	}
}

func runStatus(ctx context.Context, opts *RootOptions, cmd *cobra.Command) error {
	sess, err := newSession(opts, cmd)
	if err != nil {
		return err
	}
	st, err := sess.openStore(ctx, false)
	if err != nil {
		return err
	}
	defer st.Close()

	d, err := st.Diagnostics(ctx)
	if err != nil {
		return storeExit("failed to read diagnostics", err)
	}
	return sess.out.Success(StatusResult{d})
}
