package cli

import (
	"context"
	"io"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/text/message"

	"github.com/roach88/rewardstore/internal/ledger"
)

// TipsResult is the output of the tips command.
type TipsResult struct {
	Month ledger.Month `json:"month"`
	Year  int          `json:"year"`
	Tips  []ledger.Tip `json:"tips"`
}

// RenderText implements TextRenderer.
func (r TipsResult) RenderText(p *message.Printer, w io.Writer) {
	if len(r.Tips) == 0 {
		p.Fprintf(w, "No tips in %s %d.\n", r.Month, r.Year)
		return
	}
	for _, t := range r.Tips {
		p.Fprintf(w, "%s  %-32s %-16s %s\n",
			formatDate(t.Date), t.Publisher.ID, t.Category, t.Probi)
	}
	p.Fprintf(w, "\n%d tips\n", len(r.Tips))
}

// formatDate renders a unix timestamp as a UTC date.
func formatDate(unix int64) string {
	return time.Unix(unix, 0).UTC().Format(time.DateOnly)
}

// NewTipsCommand creates the tips command.
func NewTipsCommand(rootOpts *RootOptions) *cobra.Command {
	var month string
	var year int

	cmd := &cobra.Command{
		Use:   "tips",
		Short: "List one-time tips of a month",
		Long: `List the one-time contributions (tips and direct donations) of a
month with their publishers, oldest first.

Examples:
  rewardstore tips --month march --year 2020
  rewardstore tips --month 3 --year 2020 --format json`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			m, err := ledger.ParseMonth(month)
			if err != nil || m == ledger.MonthAny {
				return WrapExitError(ExitCommandError, "invalid --month", err)
			}
			return runTips(cmd.Context(), rootOpts, cmd, m, year)
		},
	}

	cmd.Flags().StringVar(&month, "month", "", "month name or number (required)")
	_ = cmd.MarkFlagRequired("month")
	cmd.Flags().IntVar(&year, "year", 0, "year (required)")
	_ = cmd.MarkFlagRequired("year")

	return cmd
}

func runTips(ctx context.Context, opts *RootOptions, cmd *cobra.Command, month ledger.Month, year int) error {
	sess, err := newSession(opts, cmd)
	if err != nil {
		return err
	}
	st, err := sess.openStore(ctx, false)
	if err != nil {
		return err
	}
	defer st.Close()

	tips, err := st.ListTips(ctx, month, year)
	if err != nil {
		return storeExit("failed to list tips", err)
	}
	return sess.out.Success(TipsResult{Month: month, Year: year, Tips: tips})
}
