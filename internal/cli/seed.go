package cli

import (
	"context"
	"io"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/text/message"

	"github.com/roach88/rewardstore/internal/harness"
	"github.com/roach88/rewardstore/internal/testutil"
)

// SeedResult reports what a fixture wrote.
type SeedResult struct {
	Fixture string               `json:"fixture"`
	Written harness.FixtureStats `json:"written"`
}

// RenderText implements TextRenderer.
func (r SeedResult) RenderText(p *message.Printer, w io.Writer) {
	s := r.Written
	p.Fprintf(w, "Seeded %d records from %s\n", s.Total(), r.Fixture)
	p.Fprintf(w, "  publishers:     %d\n", s.Publishers)
	p.Fprintf(w, "  activity:       %d\n", s.Activity)
	p.Fprintf(w, "  contributions:  %d\n", s.Contributions)
	p.Fprintf(w, "  media:          %d\n", s.Media)
	p.Fprintf(w, "  recurring:      %d\n", s.Recurring)
}

// NewSeedCommand creates the seed command.
func NewSeedCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "seed <fixture.yaml>",
		Short: "Load a YAML fixture into the database",
		Long: `Load publishers, activity, contributions, media mappings and
recurring donations from a YAML fixture. The database is created if it
does not exist.

Contributions and donations without a date are stamped one second apart
starting now.

Examples:
  rewardstore seed ./fixtures/publishers.yaml --db ./publisher_info.db`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSeed(cmd.Context(), rootOpts, cmd, args[0])
		},
	}
}

func runSeed(ctx context.Context, opts *RootOptions, cmd *cobra.Command, path string) error {
	sess, err := newSession(opts, cmd)
	if err != nil {
		return err
	}
	fixture, err := harness.LoadFixture(path)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to load fixture", err)
	}

	st, err := sess.openStore(ctx, true)
	if err != nil {
		return err
	}
	defer st.Close()

	stats, err := fixture.Apply(ctx, st, testutil.NewStepClock(time.Now().Unix(), 1))
	if err != nil {
		return storeExit("failed to apply fixture", err)
	}
	sess.logger.Info("fixture applied",
		"fixture", path,
		"records", stats.Total(),
	)
	return sess.out.Success(SeedResult{Fixture: path, Written: stats})
}
