package cli

import (
	"context"
	"io"

	"github.com/spf13/cobra"
	"golang.org/x/text/message"

	"github.com/roach88/rewardstore/internal/ledger"
)

// RecurringResult is the output of recurring list.
type RecurringResult struct {
	Donations []ledger.RecurringTip `json:"donations"`
}

// RenderText implements TextRenderer.
func (r RecurringResult) RenderText(p *message.Printer, w io.Writer) {
	if len(r.Donations) == 0 {
		p.Fprintln(w, "No recurring donations.")
		return
	}
	var total float64
	for _, d := range r.Donations {
		p.Fprintf(w, "%s  %-32s %10.2f\n", formatDate(d.AddedDate), d.Publisher.ID, d.Amount)
		total += d.Amount
	}
	p.Fprintf(w, "\n%d donations, %.2f per month\n", len(r.Donations), total)
}

// RemovedResult reports a removed record.
type RemovedResult struct {
	PublisherID string `json:"publisher_id"`
	Removed     string `json:"removed"`
}

// RenderText implements TextRenderer.
func (r RemovedResult) RenderText(p *message.Printer, w io.Writer) {
	p.Fprintf(w, "Removed %s %s\n", r.Removed, r.PublisherID)
}

// NewRecurringCommand creates the recurring command group.
func NewRecurringCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "recurring",
		Short: "Manage recurring donations",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "list",
		Short: "List recurring donations, oldest first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runRecurringList(cmd.Context(), rootOpts, cmd)
		},
	})
	cmd.AddCommand(&cobra.Command{
		Use:   "remove <publisher-id>",
		Short: "Remove the recurring donation of a publisher",
		Long: `Remove the recurring donation of a publisher. Removing a donation
that does not exist succeeds.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runRecurringRemove(cmd.Context(), rootOpts, cmd, args[0])
		},
	})

	return cmd
}

func runRecurringList(ctx context.Context, opts *RootOptions, cmd *cobra.Command) error {
	sess, err := newSession(opts, cmd)
	if err != nil {
		return err
	}
	st, err := sess.openStore(ctx, false)
	if err != nil {
		return err
	}
	defer st.Close()

	list, err := st.ListRecurringDonations(ctx)
	if err != nil {
		return storeExit("failed to list recurring donations", err)
	}
	return sess.out.Success(RecurringResult{Donations: list})
}

func runRecurringRemove(ctx context.Context, opts *RootOptions, cmd *cobra.Command, id string) error {
	sess, err := newSession(opts, cmd)
	if err != nil {
		return err
	}
	st, err := sess.openStore(ctx, false)
	if err != nil {
		return err
	}
	defer st.Close()

	if err := st.RemoveRecurring(ctx, id); err != nil {
		return storeExit("failed to remove recurring donation", err)
	}
	return sess.out.Success(RemovedResult{PublisherID: id, Removed: "recurring donation"})
}
