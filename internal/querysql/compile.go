package querysql

import (
	"fmt"
	"strings"

	"github.com/roach88/rewardstore/internal/ledger"
	"github.com/roach88/rewardstore/internal/queryir"
)

// ActivityColumns is the projection of every activity query, in scan order.
const ActivityColumns = "ai.publisher_id, ai.duration, ai.visits, ai.score, ai.percent, ai.weight, " +
	"ai.month, ai.year, ai.reconcile_stamp, " +
	"pi.verified, pi.excluded, pi.name, pi.favIcon, pi.url, pi.provider"

const activityBase = "SELECT " + ActivityColumns + " " +
	"FROM activity_info AS ai " +
	"INNER JOIN publisher_info AS pi ON ai.publisher_id = pi.publisher_id"

// stableOrderKey is appended to every ORDER BY.
const stableOrderKey = "ai.rowid"

// CompileActivity converts an activity filter to SQL.
//
// Predicates are appended in a fixed order: publisher id, month, year,
// reconcile stamp, minimum duration, exclusion state.
func CompileActivity(f queryir.ActivityFilter) (Query, error) {
	if err := queryir.Validate(f); err != nil {
		return Query{}, fmt.Errorf("compile activity filter: %w", err)
	}

	b := NewBuilder(activityBase)

	if f.PublisherID != "" {
		b.Where("ai.publisher_id = ?", f.PublisherID)
	}
	if f.HasMonth() {
		b.Where("ai.month = ?", int(f.Month))
	}
	if f.Year > 0 {
		b.Where("ai.year = ?", f.Year)
	}
	if f.ReconcileStamp > 0 {
		b.Where("ai.reconcile_stamp = ?", int64(f.ReconcileStamp))
	}
	if f.MinDuration > 0 {
		b.Where("ai.duration >= ?", int64(f.MinDuration))
	}

	switch f.Excluded {
	case queryir.FilterAll:
	case queryir.FilterAllExceptExcluded:
		b.Where("pi.excluded != ?", int(ledger.Excluded))
	default:
		state, _ := f.Excluded.State()
		b.Where("pi.excluded = ?", int(state))
	}

	for _, key := range f.OrderBy {
		col, _ := queryir.ResolveColumn(key.Column)
		b.OrderBy(col, key.Ascending)
	}
	b.OrderBy(stableOrderKey, true)

	b.Window(f.Window.Limit, f.Window.Offset)

	return b.Build(), nil
}

// ActivityByKey selects the single activity row with the given identity.
func ActivityByKey(key ledger.ActivityKey) Query {
	return NewBuilder(activityBase).
		Where("ai.publisher_id = ?", key.PublisherID).
		Where("ai.month = ?", int(key.Month)).
		Where("ai.year = ?", key.Year).
		Where("ai.reconcile_stamp = ?", int64(key.ReconcileStamp)).
		Build()
}

// ContributionColumns is the projection of every contribution query.
const ContributionColumns = "ci.publisher_id, ci.probi, ci.date, ci.category, ci.month, ci.year"

const contributionBase = "SELECT " + ContributionColumns + " FROM contribution_info AS ci"

// CompileContributions converts a contribution filter to SQL.
// Rows are ordered by date, then by insertion.
func CompileContributions(f queryir.ContributionFilter) (Query, error) {
	if err := queryir.ValidateContributions(f); err != nil {
		return Query{}, fmt.Errorf("compile contribution filter: %w", err)
	}

	b := NewBuilder(contributionBase)
	if f.PublisherID != "" {
		b.Where("ci.publisher_id = ?", f.PublisherID)
	}
	if f.HasMonth() {
		b.Where("ci.month = ?", int(f.Month))
	}
	if f.Year > 0 {
		b.Where("ci.year = ?", f.Year)
	}
	if len(f.Categories) > 0 {
		b.Where("ci.category IN ("+placeholders(len(f.Categories))+")", categoryArgs(f.Categories)...)
	}
	b.OrderBy("ci.date", true)
	b.OrderBy("ci.rowid", true)
	return b.Build(), nil
}

// Tips selects the one-time contributions of a period joined with their
// publishers, oldest first.
func Tips(month ledger.Month, year int) Query {
	oneTime := []ledger.Category{ledger.CategoryTip, ledger.CategoryDirectDonation}
	return NewBuilder("SELECT pi.publisher_id, pi.verified, pi.excluded, pi.name, pi.favIcon, pi.url, pi.provider, "+
		"ci.probi, ci.date, ci.category "+
		"FROM contribution_info AS ci "+
		"INNER JOIN publisher_info AS pi ON ci.publisher_id = pi.publisher_id").
		Where("ci.month = ?", int(month)).
		Where("ci.year = ?", year).
		Where("ci.category IN ("+placeholders(len(oneTime))+")", categoryArgs(oneTime)...).
		OrderBy("ci.date", true).
		OrderBy("ci.rowid", true).
		Build()
}

func placeholders(n int) string {
	return strings.TrimSuffix(strings.Repeat("?, ", n), ", ")
}

func categoryArgs(cats []ledger.Category) []any {
	args := make([]any, len(cats))
	for i, c := range cats {
		args[i] = int(c)
	}
	return args
}
