package harness

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/rewardstore/internal/ledger"
	"github.com/roach88/rewardstore/internal/queryir"
	"github.com/roach88/rewardstore/internal/store"
	"github.com/roach88/rewardstore/internal/testutil"
)

func seededStore(t *testing.T) (*store.Store, *AssertionContext) {
	t.Helper()
	ctx := context.Background()
	st := testutil.OpenStore(t)

	require.NoError(t, st.PutPublisher(ctx, testutil.Publisher("a.com")))
	require.NoError(t, st.PutActivity(ctx, testutil.Activity("a.com", 120, ledger.March, 2020, 1000)))
	require.NoError(t, st.PutActivity(ctx, testutil.Activity("b.com", 60, ledger.March, 2020, 1000)))
	require.NoError(t, st.PutContribution(ctx, ledger.ContributionInfo{
		PublisherID: "a.com", Probi: "5", Date: 1, Category: ledger.CategoryDirectDonation, Month: ledger.March, Year: 2020,
	}))
	require.NoError(t, st.PutRecurringDonation(ctx, ledger.RecurringDonation{PublisherID: "a.com", Amount: 3, AddedDate: 1}))
	return st, &AssertionContext{Store: st, Ctx: ctx}
}

func TestEvaluateAssertions_AllPass(t *testing.T) {
	_, actx := seededStore(t)
	result := NewResult()
	result.AddTrace(OpPutActivity, "a.com", OutcomeOK)

	errs := EvaluateAssertions(result, []Assertion{
		{
			Type: AssertGetActivity,
			Key:  &ledger.ActivityKey{PublisherID: "a.com", Month: ledger.March, Year: 2020, ReconcileStamp: 1000},
			Expect: map[string]interface{}{
				"duration":           120,
				"visits":             1,
				"month":              "march",
				"publisher.excluded": "included",
			},
		},
		{Type: AssertGetPublisher, PublisherID: "a.com", Expect: map[string]interface{}{"verified": true, "excluded": 2}},
		{Type: AssertPublisherMissing, PublisherID: "z.com"},
		{
			Type:       AssertListActivity,
			Filter:     &queryir.ActivityFilter{OrderBy: []queryir.OrderKey{{Column: "duration"}}},
			Publishers: []string{"b.com", "a.com"},
			Count:      intPtr(2),
		},
		{Type: AssertRowCount, Table: "publisher_info", Count: intPtr(2)},
		{Type: AssertTips, Month: ledger.March, Year: 2020, Count: intPtr(1)},
		{Type: AssertRecurring, Publishers: []string{"a.com"}},
		{Type: AssertTraceCount, Op: OpPutActivity, Count: intPtr(1)},
	}, actx)

	assert.Empty(t, errs)
}

func TestEvaluateAssertions_Failures(t *testing.T) {
	_, actx := seededStore(t)

	tests := []struct {
		name      string
		assertion Assertion
		contains  string
	}{
		{
			name: "activity field mismatch",
			assertion: Assertion{
				Type:   AssertGetActivity,
				Key:    &ledger.ActivityKey{PublisherID: "a.com", Month: ledger.March, Year: 2020, ReconcileStamp: 1000},
				Expect: map[string]interface{}{"duration": 121},
			},
			contains: `field "duration" = 120`,
		},
		{
			name: "activity missing",
			assertion: Assertion{
				Type:   AssertGetActivity,
				Key:    &ledger.ActivityKey{PublisherID: "a.com", Month: ledger.April, Year: 2020, ReconcileStamp: 1000},
				Expect: map[string]interface{}{"duration": 120},
			},
			contains: "NOT_FOUND",
		},
		{
			name: "unknown field",
			assertion: Assertion{
				Type:        AssertGetPublisher,
				PublisherID: "a.com",
				Expect:      map[string]interface{}{"colour": "red"},
			},
			contains: "field not present",
		},
		{
			name:      "publisher exists",
			assertion: Assertion{Type: AssertPublisherMissing, PublisherID: "a.com"},
			contains:  "publisher exists",
		},
		{
			name:      "list order",
			assertion: Assertion{Type: AssertListActivity, Publishers: []string{"b.com", "a.com"}},
			contains:  "publishers [a.com b.com]",
		},
		{
			name:      "row count",
			assertion: Assertion{Type: AssertRowCount, Table: "activity_info", Count: intPtr(5)},
			contains:  "2 rows",
		},
		{
			name:      "unknown table",
			assertion: Assertion{Type: AssertRowCount, Table: "meta_info", Count: intPtr(0)},
			contains:  `unknown table "meta_info"`,
		},
		{
			name:      "tips",
			assertion: Assertion{Type: AssertTips, Month: ledger.April, Year: 2020, Count: intPtr(1)},
			contains:  "0 tips",
		},
		{
			name:      "recurring",
			assertion: Assertion{Type: AssertRecurring, Publishers: []string{}},
			contains:  "publishers [a.com]",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			errs := EvaluateAssertions(NewResult(), []Assertion{tt.assertion}, actx)
			require.Len(t, errs, 1)
			assert.Contains(t, errs[0], tt.contains)
		})
	}
}

func TestEvaluateAssertions_TraceIncludedInFailure(t *testing.T) {
	result := NewResult()
	result.AddTrace(OpDeletePublisher, "a.com", OutcomeOK)

	errs := EvaluateAssertions(result, []Assertion{
		{Type: AssertTraceCount, Op: OpDeletePublisher, Count: intPtr(2)},
	}, nil)

	require.Len(t, errs, 1)
	assert.Contains(t, errs[0], "Assertion failed: trace_count")
	assert.Contains(t, errs[0], "[1] delete_publisher a.com -> ok")
}

func TestEvaluateAssertions_StoreAssertionWithoutStore(t *testing.T) {
	errs := EvaluateAssertions(NewResult(), []Assertion{
		{Type: AssertPublisherMissing, PublisherID: "a.com"},
	}, nil)

	require.Len(t, errs, 1)
	assert.Contains(t, errs[0], "requires a store")
}

func TestFieldEqual(t *testing.T) {
	tests := []struct {
		name     string
		expected interface{}
		actual   interface{}
		want     bool
	}{
		{"int vs float", 3, float64(3), true},
		{"float", 1.5, 1.5, true},
		{"number mismatch", 3, float64(4), false},
		{"month name", "March", "march", true},
		{"month number", 3, "march", true},
		{"exclude number", 1, "excluded", true},
		{"category number", 8, "tip", true},
		{"probi as int", 1000, "1000", true},
		{"string mismatch", "april", "march", false},
		{"bool", true, true, true},
		{"bool mismatch", false, true, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, fieldEqual(tt.expected, tt.actual))
		})
	}
}
