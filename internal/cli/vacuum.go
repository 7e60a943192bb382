package cli

import (
	"context"
	"io"

	"github.com/spf13/cobra"
	"golang.org/x/text/message"
)

// VacuumResult reports the file size around a vacuum.
type VacuumResult struct {
	Path       string `json:"path"`
	SizeBefore int64  `json:"size_before"`
	SizeAfter  int64  `json:"size_after"`
	Reclaimed  int64  `json:"bytes_reclaimed"`
}

// RenderText implements TextRenderer.
func (r VacuumResult) RenderText(p *message.Printer, w io.Writer) {
	p.Fprintf(w, "Vacuumed %s: %d -> %d bytes (%d reclaimed)\n", r.Path, r.SizeBefore, r.SizeAfter, r.Reclaimed)
}

// NewVacuumCommand creates the vacuum command.
func NewVacuumCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "vacuum",
		Short: "Compact the database file",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runVacuum(cmd.Context(), rootOpts, cmd)
		},
	}
}

func runVacuum(ctx context.Context, opts *RootOptions, cmd *cobra.Command) error {
	sess, err := newSession(opts, cmd)
	if err != nil {
		return err
	}
	st, err := sess.openStore(ctx, false)
	if err != nil {
		return err
	}
	defer st.Close()

	before, err := st.Diagnostics(ctx)
	if err != nil {
		return storeExit("failed to read diagnostics", err)
	}
	if err := st.Vacuum(ctx); err != nil {
		return storeExit("vacuum failed", err)
	}
	after, err := st.Diagnostics(ctx)
	if err != nil {
		return storeExit("failed to read diagnostics", err)
	}

	return sess.out.Success(VacuumResult{
		Path:       st.Path(),
		SizeBefore: before.SizeBytes,
		SizeAfter:  after.SizeBytes,
		Reclaimed:  before.SizeBytes - after.SizeBytes,
	})
}
