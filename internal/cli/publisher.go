package cli

import (
	"context"
	"io"

	"github.com/spf13/cobra"
	"golang.org/x/text/message"

	"github.com/roach88/rewardstore/internal/ledger"
)

// PublisherResult wraps a publisher for output.
type PublisherResult struct {
	ledger.PublisherInfo
}

// RenderText implements TextRenderer.
func (r PublisherResult) RenderText(p *message.Printer, w io.Writer) {
	pub := r.PublisherInfo
	p.Fprintf(w, "ID:        %s\n", pub.ID)
	p.Fprintf(w, "Name:      %s\n", pub.Name)
	p.Fprintf(w, "URL:       %s\n", pub.URL)
	p.Fprintf(w, "Favicon:   %s\n", pub.FaviconURL)
	p.Fprintf(w, "Provider:  %s\n", pub.Provider)
	p.Fprintf(w, "Verified:  %t\n", pub.Verified)
	p.Fprintf(w, "Excluded:  %s\n", pub.Excluded)
}

// NewPublisherCommand creates the publisher command group.
func NewPublisherCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "publisher",
		Short: "Inspect or delete publishers",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "get <publisher-id>",
		Short: "Show a publisher",
		Long: `Show a publisher.

Exit codes:
  0 - Publisher found
  1 - No such publisher
  2 - Command error`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runPublisherGet(cmd.Context(), rootOpts, cmd, args[0])
		},
	})
	cmd.AddCommand(&cobra.Command{
		Use:   "delete <publisher-id>",
		Short: "Delete a publisher and all its records",
		Long: `Delete a publisher together with its activity, contributions, media
mappings and recurring donation. Deleting a missing publisher succeeds.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runPublisherDelete(cmd.Context(), rootOpts, cmd, args[0])
		},
	})

	return cmd
}

func runPublisherGet(ctx context.Context, opts *RootOptions, cmd *cobra.Command, id string) error {
	sess, err := newSession(opts, cmd)
	if err != nil {
		return err
	}
	st, err := sess.openStore(ctx, false)
	if err != nil {
		return err
	}
	defer st.Close()

	pub, err := st.GetPublisher(ctx, id)
	if err != nil {
		return storeExit("failed to get publisher "+id, err)
	}
	return sess.out.Success(PublisherResult{pub})
}

func runPublisherDelete(ctx context.Context, opts *RootOptions, cmd *cobra.Command, id string) error {
	sess, err := newSession(opts, cmd)
	if err != nil {
		return err
	}
	st, err := sess.openStore(ctx, false)
	if err != nil {
		return err
	}
	defer st.Close()

	if err := st.DeletePublisher(ctx, id); err != nil {
		return storeExit("failed to delete publisher", err)
	}
	return sess.out.Success(RemovedResult{PublisherID: id, Removed: "publisher"})
}
