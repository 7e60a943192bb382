package querysql

import (
	"strings"
	"testing"

	"github.com/sebdah/goldie/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/rewardstore/internal/ledger"
	"github.com/roach88/rewardstore/internal/queryir"
)

func TestCompileActivity_EmptyFilterHasNoPredicates(t *testing.T) {
	q, err := CompileActivity(queryir.ActivityFilter{})
	require.NoError(t, err)

	assert.True(t, strings.HasSuffix(q.SQL, "WHERE 1 = 1 ORDER BY ai.rowid ASC"), q.SQL)
	assert.Empty(t, q.Args)
	assert.NotContains(t, q.SQL, "LIMIT")
}

func TestCompileActivity_ValuesNeverInterpolated(t *testing.T) {
	q, err := CompileActivity(queryir.ActivityFilter{PublisherID: "evil.com' OR 1=1 --"})
	require.NoError(t, err)

	assert.NotContains(t, q.SQL, "evil.com")
	assert.Equal(t, []any{"evil.com' OR 1=1 --"}, q.Args)
}

func TestCompileActivity_ExclusionModes(t *testing.T) {
	testCases := []struct {
		mode     queryir.ExcludeFilter
		fragment string
		args     []any
	}{
		{queryir.FilterAll, "", []any{}},
		{queryir.FilterAllExceptExcluded, "pi.excluded != ?", []any{int(ledger.Excluded)}},
		{queryir.FilterExcluded, "pi.excluded = ?", []any{int(ledger.Excluded)}},
		{queryir.FilterIncluded, "pi.excluded = ?", []any{int(ledger.Included)}},
		{queryir.FilterDefault, "pi.excluded = ?", []any{int(ledger.ExcludeDefault)}},
	}

	for _, tc := range testCases {
		t.Run(tc.mode.String(), func(t *testing.T) {
			q, err := CompileActivity(queryir.ActivityFilter{Excluded: tc.mode})
			require.NoError(t, err)
			if tc.fragment == "" {
				assert.NotContains(t, q.SQL, "pi.excluded ")
			} else {
				assert.Contains(t, q.SQL, tc.fragment)
				assert.Equal(t, 1, strings.Count(q.SQL, "pi.excluded "))
			}
			assert.Equal(t, tc.args, q.Args)
		})
	}
}

// Every combination of optional fields must bind the Nth value to the Nth
// placeholder.
func TestCompileActivity_BindOrderMatchesPredicateOrder(t *testing.T) {
	type field struct {
		set      func(*queryir.ActivityFilter)
		fragment string
		value    any
	}
	fields := []field{
		{func(f *queryir.ActivityFilter) { f.PublisherID = "a.com" }, "ai.publisher_id = ?", "a.com"},
		{func(f *queryir.ActivityFilter) { f.Month = ledger.March }, "ai.month = ?", 3},
		{func(f *queryir.ActivityFilter) { f.Year = 2020 }, "ai.year = ?", 2020},
		{func(f *queryir.ActivityFilter) { f.ReconcileStamp = 1000 }, "ai.reconcile_stamp = ?", int64(1000)},
		{func(f *queryir.ActivityFilter) { f.MinDuration = 30 }, "ai.duration >= ?", int64(30)},
		{func(f *queryir.ActivityFilter) { f.Excluded = queryir.FilterIncluded }, "pi.excluded = ?", int(ledger.Included)},
	}

	for mask := 0; mask < 1<<len(fields); mask++ {
		f := queryir.ActivityFilter{Window: queryir.Window{Limit: 7, Offset: 3}}
		var wantFragments []string
		var wantArgs []any
		for i, fd := range fields {
			if mask&(1<<i) != 0 {
				fd.set(&f)
				wantFragments = append(wantFragments, fd.fragment)
				wantArgs = append(wantArgs, fd.value)
			}
		}
		wantArgs = append(wantArgs, 7, 3)

		q, err := CompileActivity(f)
		require.NoError(t, err, "mask %b", mask)

		assert.Equal(t, wantArgs, q.Args, "mask %b", mask)
		assert.Equal(t, len(q.Args), strings.Count(q.SQL, "?"), "mask %b", mask)

		// Fragments appear in the declared order.
		pos := 0
		for _, frag := range wantFragments {
			idx := strings.Index(q.SQL[pos:], frag)
			require.GreaterOrEqual(t, idx, 0, "mask %b: %q missing or out of order", mask, frag)
			pos += idx + len(frag)
		}
	}
}

func TestCompileActivity_OffsetOnlyAboveOne(t *testing.T) {
	testCases := []struct {
		window     queryir.Window
		wantLimit  bool
		wantOffset bool
	}{
		{queryir.Window{}, false, false},
		{queryir.Window{Offset: 10}, false, false},
		{queryir.Window{Limit: 5}, true, false},
		{queryir.Window{Limit: 5, Offset: 1}, true, false},
		{queryir.Window{Limit: 5, Offset: 2}, true, true},
	}
	for _, tc := range testCases {
		q, err := CompileActivity(queryir.ActivityFilter{Window: tc.window})
		require.NoError(t, err)
		assert.Equal(t, tc.wantLimit, strings.Contains(q.SQL, "LIMIT ?"), "%+v", tc.window)
		assert.Equal(t, tc.wantOffset, strings.Contains(q.SQL, "OFFSET ?"), "%+v", tc.window)
	}
}

func TestCompileActivity_SortKeysInCallerOrder(t *testing.T) {
	q, err := CompileActivity(queryir.ActivityFilter{
		OrderBy: []queryir.OrderKey{
			{Column: "name", Ascending: true},
			{Column: "ai.score", Ascending: false},
		},
	})
	require.NoError(t, err)
	assert.Contains(t, q.SQL, "ORDER BY pi.name ASC, ai.score DESC, ai.rowid ASC")
	assert.Equal(t, 1, strings.Count(q.SQL, "ORDER BY"))
}

func TestCompileActivity_RejectsUnknownSortColumn(t *testing.T) {
	_, err := CompileActivity(queryir.ActivityFilter{
		OrderBy: []queryir.OrderKey{{Column: "1; DELETE FROM activity_info"}},
	})
	require.Error(t, err)

	var ve *queryir.ValidationError
	require.ErrorAs(t, err, &ve)
	assert.Equal(t, queryir.ErrCodeUnknownColumn, ve.Code)
}

func TestBuilder_WhereKeepsValuesWithFragments(t *testing.T) {
	q := NewBuilder("SELECT x FROM t").
		Where("a = ?", 1).
		Where("b BETWEEN ? AND ?", 2, 3).
		Where("c = ?", "four").
		Build()

	assert.Equal(t, "SELECT x FROM t WHERE 1 = 1 AND a = ? AND b BETWEEN ? AND ? AND c = ?", q.SQL)
	assert.Equal(t, []any{1, 2, 3, "four"}, q.Args)
}

func TestCompileActivity_Golden(t *testing.T) {
	testCases := []struct {
		name   string
		filter queryir.ActivityFilter
	}{
		{"all_rows", queryir.AllActivity()},
		{"period_all_except_excluded", queryir.ActivityFilter{
			Month:    ledger.March,
			Year:     2020,
			Excluded: queryir.FilterAllExceptExcluded,
		}},
		{"full_filter", queryir.ActivityFilter{
			PublisherID:    "a.com",
			Month:          ledger.March,
			Year:           2020,
			ReconcileStamp: 1000,
			MinDuration:    60,
			Excluded:       queryir.FilterIncluded,
			OrderBy: []queryir.OrderKey{
				{Column: "score", Ascending: false},
				{Column: "name", Ascending: true},
			},
			Window: queryir.Window{Limit: 10, Offset: 20},
		}},
		{"first_page", queryir.ActivityFilter{
			Month:          ledger.MonthAny,
			ReconcileStamp: 1000,
			OrderBy:        []queryir.OrderKey{{Column: "percent", Ascending: false}},
			Window:         queryir.Window{Limit: 5, Offset: 1},
		}},
	}

	g := goldie.New(t,
		goldie.WithFixtureDir("testdata/golden"),
		goldie.WithNameSuffix(".golden"),
	)

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			q, err := CompileActivity(tc.filter)
			require.NoError(t, err)
			g.Assert(t, tc.name, []byte(q.String()+"\n"))
		})
	}
}

func TestActivityByKey_BindsEveryKeyField(t *testing.T) {
	q := ActivityByKey(ledger.ActivityKey{PublisherID: "a.com", Month: ledger.March, Year: 2020, ReconcileStamp: 1000})

	assert.True(t, strings.HasSuffix(q.SQL,
		"WHERE 1 = 1 AND ai.publisher_id = ? AND ai.month = ? AND ai.year = ? AND ai.reconcile_stamp = ?"), q.SQL)
	assert.Equal(t, []any{"a.com", 3, 2020, int64(1000)}, q.Args)
	assert.NotContains(t, q.SQL, "ORDER BY")
}

func TestCompileContributions(t *testing.T) {
	q, err := CompileContributions(queryir.ContributionFilter{
		PublisherID: "a.com",
		Month:       ledger.March,
		Year:        2020,
		Categories:  []ledger.Category{ledger.CategoryTip, ledger.CategoryRecurring},
	})
	require.NoError(t, err)

	assert.Equal(t, contributionBase+
		" WHERE 1 = 1 AND ci.publisher_id = ? AND ci.month = ? AND ci.year = ? AND ci.category IN (?, ?)"+
		" ORDER BY ci.date ASC, ci.rowid ASC", q.SQL)
	assert.Equal(t, []any{"a.com", 3, 2020, 8, 32}, q.Args)
}

func TestCompileContributions_AnyMonthHasNoPredicates(t *testing.T) {
	q, err := CompileContributions(queryir.ContributionFilter{Month: ledger.MonthAny})
	require.NoError(t, err)

	assert.Equal(t, contributionBase+" WHERE 1 = 1 ORDER BY ci.date ASC, ci.rowid ASC", q.SQL)
	assert.Empty(t, q.Args)
}

func TestCompileContributions_RejectsUnknownCategory(t *testing.T) {
	_, err := CompileContributions(queryir.ContributionFilter{Categories: []ledger.Category{3}})
	require.Error(t, err)

	var ve *queryir.ValidationError
	require.ErrorAs(t, err, &ve)
	assert.Equal(t, queryir.ErrCodeInvalidCategory, ve.Code)
}

func TestTips_SelectsOneTimeCategories(t *testing.T) {
	q := Tips(ledger.March, 2020)

	assert.Contains(t, q.SQL, "INNER JOIN publisher_info AS pi ON ci.publisher_id = pi.publisher_id")
	assert.Contains(t, q.SQL, "AND ci.category IN (?, ?)")
	assert.True(t, strings.HasSuffix(q.SQL, "ORDER BY ci.date ASC, ci.rowid ASC"), q.SQL)
	assert.Equal(t, []any{3, 2020, int(ledger.CategoryTip), int(ledger.CategoryDirectDonation)}, q.Args)
}

func TestPlaceholders(t *testing.T) {
	assert.Equal(t, "?", placeholders(1))
	assert.Equal(t, "?, ?, ?", placeholders(3))
}
