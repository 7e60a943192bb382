package cli

import (
	"context"
	"io"
	"strings"

	"github.com/spf13/cobra"
	"golang.org/x/text/message"

	"github.com/roach88/rewardstore/internal/ledger"
	"github.com/roach88/rewardstore/internal/queryir"
	"github.com/roach88/rewardstore/internal/querysql"
)

// ActivityOptions holds flags for the activity command.
type ActivityOptions struct {
	*RootOptions
	Publisher   string
	Month       string
	Year        int
	Stamp       uint64
	MinDuration uint64
	Excluded    string
	Order       []string
	Limit       int
	Offset      int
	Explain     bool
}

// ActivityResult is the output of the activity command.
type ActivityResult struct {
	Filter queryir.ActivityFilter      `json:"filter"`
	Rows   []ledger.PublisherActivity `json:"rows"`
}

// RenderText implements TextRenderer.
func (r ActivityResult) RenderText(p *message.Printer, w io.Writer) {
	if len(r.Rows) == 0 {
		p.Fprintln(w, "No activity found.")
		return
	}
	p.Fprintf(w, "%-32s %-9s %5s %10s %7s %8s %8s %s\n",
		"PUBLISHER", "MONTH", "YEAR", "DURATION", "VISITS", "SCORE", "PERCENT", "EXCLUDED")
	for _, a := range r.Rows {
		p.Fprintf(w, "%-32s %-9s %5d %10d %7d %8.2f %8d %s\n",
			a.PublisherID, a.Month, a.Year, a.Duration, a.Visits, a.Score, a.Percent, a.Publisher.Excluded)
	}
	p.Fprintf(w, "\n%d rows\n", len(r.Rows))
}

// ExplainResult is the compiled query printed by --explain.
type ExplainResult struct {
	SQL  string `json:"sql"`
	Args []any  `json:"args"`
}

// RenderText implements TextRenderer.
func (r ExplainResult) RenderText(_ *message.Printer, w io.Writer) {
	io.WriteString(w, querysql.Query{SQL: r.SQL, Args: r.Args}.String()+"\n")
}

// NewActivityCommand creates the activity command.
func NewActivityCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &ActivityOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "activity",
		Short: "List publisher activity",
		Long: `List activity rows joined with their publishers.

Every flag narrows the result; with no flags all rows are listed in
storage order. --order may be repeated and takes col, col:asc or col:desc.
Sortable columns: ` + strings.Join(queryir.SortColumns(), ", ") + `.

--excluded selects publishers by inclusion state: all, all-except-excluded,
default, excluded or included.

Examples:
  rewardstore activity --month march --year 2020 --excluded all-except-excluded
  rewardstore activity --order score:desc --order name --limit 10
  rewardstore activity --publisher a.com --explain`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runActivity(cmd.Context(), opts, cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Publisher, "publisher", "", "publisher id")
	cmd.Flags().StringVar(&opts.Month, "month", "any", "month name or number")
	cmd.Flags().IntVar(&opts.Year, "year", 0, "year (0 for any)")
	cmd.Flags().Uint64Var(&opts.Stamp, "stamp", 0, "reconcile stamp (0 for any)")
	cmd.Flags().Uint64Var(&opts.MinDuration, "min-duration", 0, "minimum duration in seconds")
	cmd.Flags().StringVar(&opts.Excluded, "excluded", "all", "inclusion state filter")
	cmd.Flags().StringArrayVar(&opts.Order, "order", nil, "sort key col[:asc|desc] (repeatable)")
	cmd.Flags().IntVar(&opts.Limit, "limit", 0, "maximum rows (0 for all)")
	cmd.Flags().IntVar(&opts.Offset, "offset", 0, "rows to skip")
	cmd.Flags().BoolVar(&opts.Explain, "explain", false, "print the compiled SQL instead of running it")

	return cmd
}

// filter builds the activity filter from the flags.
func (o *ActivityOptions) filter() (queryir.ActivityFilter, error) {
	month, err := ledger.ParseMonth(o.Month)
	if err != nil {
		return queryir.ActivityFilter{}, WrapExitError(ExitCommandError, "invalid --month", err)
	}
	excluded, err := queryir.ParseExcludeFilter(o.Excluded)
	if err != nil {
		return queryir.ActivityFilter{}, WrapExitError(ExitCommandError, "invalid --excluded", err)
	}

	f := queryir.ActivityFilter{
		PublisherID:    o.Publisher,
		Month:          month,
		Year:           o.Year,
		ReconcileStamp: o.Stamp,
		MinDuration:    o.MinDuration,
		Excluded:       excluded,
		Window:         queryir.Window{Limit: o.Limit, Offset: o.Offset},
	}
	for _, s := range o.Order {
		key, err := queryir.ParseOrderKey(s)
		if err != nil {
			return queryir.ActivityFilter{}, WrapExitError(ExitCommandError, "invalid --order", err)
		}
		f.OrderBy = append(f.OrderBy, key)
	}
	return f, nil
}

func runActivity(ctx context.Context, opts *ActivityOptions, cmd *cobra.Command) error {
	sess, err := newSession(opts.RootOptions, cmd)
	if err != nil {
		return err
	}
	f, err := opts.filter()
	if err != nil {
		return err
	}

	if opts.Explain {
		q, err := querysql.CompileActivity(f)
		if err != nil {
			return WrapExitError(ExitCommandError, "invalid filter", err)
		}
		return sess.out.Success(ExplainResult{SQL: q.SQL, Args: q.Args})
	}

	st, err := sess.openStore(ctx, false)
	if err != nil {
		return err
	}
	defer st.Close()

	rows, err := st.ListActivity(ctx, f)
	if err != nil {
		return storeExit("failed to list activity", err)
	}
	return sess.out.Success(ActivityResult{Filter: f, Rows: rows})
}
