package harness

import (
	"context"
	"encoding/json"
	"fmt"
	"reflect"
	"sort"
	"strings"

	"github.com/roach88/rewardstore/internal/ledger"
	"github.com/roach88/rewardstore/internal/queryir"
	"github.com/roach88/rewardstore/internal/store"
)

// AssertionError is returned when an assertion fails.
// It includes detailed context to help debug the failure.
type AssertionError struct {
	Type     string       // Assertion type for categorization
	Expected string       // Human-readable expected outcome
	Actual   string       // Human-readable actual outcome
	Trace    []TraceEvent // Steps executed before the assertion
}

// Error implements the error interface.
func (e *AssertionError) Error() string {
	var buf strings.Builder

	fmt.Fprintf(&buf, "Assertion failed: %s\n", e.Type)
	fmt.Fprintf(&buf, "  Expected: %s\n", e.Expected)
	fmt.Fprintf(&buf, "  Actual: %s\n", e.Actual)

	if len(e.Trace) > 0 {
		fmt.Fprintf(&buf, "\nSteps:\n")
		for _, event := range e.Trace {
			fmt.Fprintf(&buf, "  [%d] %s %s -> %s\n", event.Seq, event.Op, event.Subject, event.Outcome)
		}
	}
	return buf.String()
}

// AssertionContext provides context for evaluating assertions.
type AssertionContext struct {
	Store *store.Store
	Ctx   context.Context
}

// EvaluateAssertions evaluates all assertions against the store.
// Returns a slice of error messages for failed assertions.
func EvaluateAssertions(result *Result, assertions []Assertion, actx *AssertionContext) []string {
	var errors []string

	for i, assertion := range assertions {
		var err error

		switch {
		case assertion.Type == AssertTraceCount:
			err = assertTraceCount(result.Trace, assertion)
		case actx == nil || actx.Store == nil:
			err = fmt.Errorf("assertion[%d]: %s requires a store", i, assertion.Type)
		default:
			err = evaluateStoreAssertion(actx.Ctx, actx.Store, assertion)
		}

		if err != nil {
			if aerr, ok := err.(*AssertionError); ok {
				aerr.Trace = result.Trace
			}
			errors = append(errors, err.Error())
		}
	}
	return errors
}

func evaluateStoreAssertion(ctx context.Context, st *store.Store, a Assertion) error {
	switch a.Type {
	case AssertGetActivity:
		return assertGetActivity(ctx, st, a)
	case AssertGetPublisher:
		return assertGetPublisher(ctx, st, a)
	case AssertPublisherMissing:
		return assertPublisherMissing(ctx, st, a)
	case AssertListActivity:
		return assertListActivity(ctx, st, a)
	case AssertRowCount:
		return assertRowCount(ctx, st, a)
	case AssertTips:
		return assertTips(ctx, st, a)
	case AssertRecurring:
		return assertRecurring(ctx, st, a)
	}
	return fmt.Errorf("unknown assertion type %q", a.Type)
}

// assertTraceCount checks that op ran exactly Count times.
func assertTraceCount(trace []TraceEvent, a Assertion) error {
	count := 0
	for _, event := range trace {
		if event.Op == a.Op {
			count++
		}
	}
	if count != *a.Count {
		return &AssertionError{
			Type:     AssertTraceCount,
			Expected: fmt.Sprintf("%d occurrences of %s", *a.Count, a.Op),
			Actual:   fmt.Sprintf("%d occurrences", count),
		}
	}
	return nil
}

func assertGetActivity(ctx context.Context, st *store.Store, a Assertion) error {
	got, err := st.GetActivity(ctx, *a.Key)
	if err != nil {
		return &AssertionError{
			Type:     AssertGetActivity,
			Expected: fmt.Sprintf("activity %s %s/%d stamp %d", a.Key.PublisherID, a.Key.Month, a.Key.Year, a.Key.ReconcileStamp),
			Actual:   err.Error(),
		}
	}
	return matchRecord(AssertGetActivity, got, a.Expect)
}

func assertGetPublisher(ctx context.Context, st *store.Store, a Assertion) error {
	got, err := st.GetPublisher(ctx, a.PublisherID)
	if err != nil {
		return &AssertionError{
			Type:     AssertGetPublisher,
			Expected: fmt.Sprintf("publisher %s", a.PublisherID),
			Actual:   err.Error(),
		}
	}
	return matchRecord(AssertGetPublisher, got, a.Expect)
}

func assertPublisherMissing(ctx context.Context, st *store.Store, a Assertion) error {
	_, err := st.GetPublisher(ctx, a.PublisherID)
	if store.IsNotFound(err) {
		return nil
	}
	actual := "publisher exists"
	if err != nil {
		actual = err.Error()
	}
	return &AssertionError{
		Type:     AssertPublisherMissing,
		Expected: fmt.Sprintf("no publisher %s", a.PublisherID),
		Actual:   actual,
	}
}

func assertListActivity(ctx context.Context, st *store.Store, a Assertion) error {
	filter := queryir.ActivityFilter{}
	if a.Filter != nil {
		filter = *a.Filter
	}
	rows, err := st.ListActivity(ctx, filter)
	if err != nil {
		return &AssertionError{Type: AssertListActivity, Expected: "activity rows", Actual: err.Error()}
	}

	ids := make([]string, len(rows))
	for i, r := range rows {
		ids[i] = r.PublisherID
	}
	if a.Count != nil && len(ids) != *a.Count {
		return &AssertionError{
			Type:     AssertListActivity,
			Expected: fmt.Sprintf("%d rows", *a.Count),
			Actual:   fmt.Sprintf("%d rows %v", len(ids), ids),
		}
	}
	if a.Publishers != nil && !reflect.DeepEqual(ids, a.Publishers) {
		return &AssertionError{
			Type:     AssertListActivity,
			Expected: fmt.Sprintf("publishers %v", a.Publishers),
			Actual:   fmt.Sprintf("publishers %v", ids),
		}
	}
	return nil
}

func assertRowCount(ctx context.Context, st *store.Store, a Assertion) error {
	d, err := st.Diagnostics(ctx)
	if err != nil {
		return err
	}
	n, ok := d.RowCounts[a.Table]
	if !ok {
		tables := make([]string, 0, len(d.RowCounts))
		for t := range d.RowCounts {
			tables = append(tables, t)
		}
		sort.Strings(tables)
		return fmt.Errorf("row_count: unknown table %q (tables: %v)", a.Table, tables)
	}
	if n != int64(*a.Count) {
		return &AssertionError{
			Type:     AssertRowCount,
			Expected: fmt.Sprintf("%d rows in %s", *a.Count, a.Table),
			Actual:   fmt.Sprintf("%d rows", n),
		}
	}
	return nil
}

func assertTips(ctx context.Context, st *store.Store, a Assertion) error {
	tips, err := st.ListTips(ctx, a.Month, a.Year)
	if err != nil {
		return &AssertionError{Type: AssertTips, Expected: "tips", Actual: err.Error()}
	}
	if len(tips) != *a.Count {
		return &AssertionError{
			Type:     AssertTips,
			Expected: fmt.Sprintf("%d tips in %s %d", *a.Count, a.Month, a.Year),
			Actual:   fmt.Sprintf("%d tips", len(tips)),
		}
	}
	return nil
}

func assertRecurring(ctx context.Context, st *store.Store, a Assertion) error {
	list, err := st.ListRecurringDonations(ctx)
	if err != nil {
		return &AssertionError{Type: AssertRecurring, Expected: "recurring donations", Actual: err.Error()}
	}
	ids := make([]string, len(list))
	for i, r := range list {
		ids[i] = r.Publisher.ID
	}
	if !reflect.DeepEqual(ids, a.Publishers) {
		return &AssertionError{
			Type:     AssertRecurring,
			Expected: fmt.Sprintf("publishers %v", a.Publishers),
			Actual:   fmt.Sprintf("publishers %v", ids),
		}
	}
	return nil
}

// matchRecord compares the expected fields against the record's JSON form
// (subset semantics: only fields in expect are checked).
func matchRecord(kind string, record any, expect map[string]interface{}) error {
	actual, err := recordFields(record)
	if err != nil {
		return err
	}

	keys := make([]string, 0, len(expect))
	for k := range expect {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	for _, key := range keys {
		got, ok := actual[key]
		if !ok {
			return &AssertionError{
				Type:     kind,
				Expected: fmt.Sprintf("field %q to exist", key),
				Actual:   "field not present",
			}
		}
		if !fieldEqual(expect[key], got) {
			return &AssertionError{
				Type:     kind,
				Expected: fmt.Sprintf("field %q = %v", key, expect[key]),
				Actual:   fmt.Sprintf("field %q = %v", key, got),
			}
		}
	}
	return nil
}

// recordFields flattens a record to its JSON fields. Nested publisher
// fields are reachable as "publisher.<field>".
func recordFields(record any) (map[string]interface{}, error) {
	data, err := json.Marshal(record)
	if err != nil {
		return nil, fmt.Errorf("encode record: %w", err)
	}
	var fields map[string]interface{}
	if err := json.Unmarshal(data, &fields); err != nil {
		return nil, fmt.Errorf("decode record: %w", err)
	}
	if nested, ok := fields["publisher"].(map[string]interface{}); ok {
		for k, v := range nested {
			fields["publisher."+k] = v
		}
	}
	return fields, nil
}

// fieldEqual compares a YAML-decoded expectation with a JSON-decoded value.
// Numbers compare by value and enum names compare case-insensitively, so
// "month: 3" and "month: march" both match.
func fieldEqual(expected, actual interface{}) bool {
	if f, ok := actual.(float64); ok {
		switch e := expected.(type) {
		case int:
			return float64(e) == f
		case int64:
			return float64(e) == f
		case float64:
			return e == f
		}
		return false
	}

	if s, ok := actual.(string); ok {
		switch e := expected.(type) {
		case string:
			return strings.EqualFold(e, s) || enumEqual(e, s)
		case int:
			return fmt.Sprint(e) == s || enumEqual(fmt.Sprint(e), s)
		}
		return false
	}

	return reflect.DeepEqual(expected, actual)
}

// enumEqual reports whether two spellings name the same enum value.
func enumEqual(a, b string) bool {
	for _, parse := range []func(string) (int, error){
		func(s string) (int, error) { v, err := ledger.ParseMonth(s); return int(v), err },
		func(s string) (int, error) { v, err := ledger.ParseExcludeState(s); return int(v), err },
		func(s string) (int, error) { v, err := ledger.ParseCategory(s); return int(v), err },
	} {
		x, errA := parse(a)
		y, errB := parse(b)
		if errA == nil && errB == nil && x == y {
			return true
		}
	}
	return false
}
