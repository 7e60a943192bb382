package queryir

import (
	"fmt"
	"math"
	"sort"
	"strings"
)

// Validation error codes.
const (
	ErrCodeUnknownColumn   = "UNKNOWN_SORT_COLUMN"
	ErrCodeInvalidWindow   = "INVALID_WINDOW"
	ErrCodeInvalidMonth    = "INVALID_MONTH"
	ErrCodeInvalidExclude  = "INVALID_EXCLUDE_FILTER"
	ErrCodeInvalidCategory = "INVALID_CATEGORY"
	ErrCodeOutOfRange      = "VALUE_OUT_OF_RANGE"
)

// ValidationError reports why a filter cannot be compiled.
type ValidationError struct {
	Code    string
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s: %s", e.Code, e.Field, e.Message)
}

// sortColumns is the ORDER BY allow-list, keyed by qualified name.
var sortColumns = map[string]bool{
	"ai.publisher_id":    true,
	"ai.duration":        true,
	"ai.visits":          true,
	"ai.score":           true,
	"ai.percent":         true,
	"ai.weight":          true,
	"ai.month":           true,
	"ai.year":            true,
	"ai.reconcile_stamp": true,
	"pi.name":            true,
	"pi.verified":        true,
	"pi.excluded":        true,
	"pi.provider":        true,
}

// SortColumns returns the allowed sort columns in sorted order.
func SortColumns() []string {
	cols := make([]string, 0, len(sortColumns))
	for c := range sortColumns {
		cols = append(cols, c)
	}
	sort.Strings(cols)
	return cols
}

// ResolveColumn maps a sort column to its qualified allow-listed form.
// Bare names are looked up under the activity alias first, then the
// publisher alias. Matching is case-insensitive.
func ResolveColumn(col string) (string, bool) {
	col = strings.ToLower(strings.TrimSpace(col))
	if sortColumns[col] {
		return col, true
	}
	if strings.Contains(col, ".") {
		return "", false
	}
	for _, alias := range []string{"ai.", "pi."} {
		if sortColumns[alias+col] {
			return alias + col, true
		}
	}
	return "", false
}

// Validate checks f against the filter rules.
// It returns the first violation as a *ValidationError, or nil.
//
// Validate is a pure function with no side effects.
func Validate(f ActivityFilter) error {
	if f.Month != 0 && !f.Month.Valid() {
		return &ValidationError{Code: ErrCodeInvalidMonth, Field: "month",
			Message: fmt.Sprintf("%d is not a month", int(f.Month))}
	}
	if _, ok := excludeFilterNames[f.Excluded]; !ok {
		return &ValidationError{Code: ErrCodeInvalidExclude, Field: "excluded",
			Message: fmt.Sprintf("unknown mode %d", int(f.Excluded))}
	}
	if f.ReconcileStamp > math.MaxInt64 {
		return &ValidationError{Code: ErrCodeOutOfRange, Field: "reconcile_stamp",
			Message: fmt.Sprintf("%d exceeds the storable range", f.ReconcileStamp)}
	}
	if f.MinDuration > math.MaxInt64 {
		return &ValidationError{Code: ErrCodeOutOfRange, Field: "min_duration",
			Message: fmt.Sprintf("%d exceeds the storable range", f.MinDuration)}
	}
	if f.Window.Limit < 0 {
		return &ValidationError{Code: ErrCodeInvalidWindow, Field: "window.limit",
			Message: "must not be negative"}
	}
	if f.Window.Offset < 0 {
		return &ValidationError{Code: ErrCodeInvalidWindow, Field: "window.offset",
			Message: "must not be negative"}
	}
	for i, key := range f.OrderBy {
		if _, ok := ResolveColumn(key.Column); !ok {
			return &ValidationError{Code: ErrCodeUnknownColumn, Field: fmt.Sprintf("order_by[%d]", i),
				Message: fmt.Sprintf("column %q is not sortable", key.Column)}
		}
	}
	return nil
}

// ValidateContributions checks a contribution filter.
func ValidateContributions(f ContributionFilter) error {
	if f.Month != 0 && !f.Month.Valid() {
		return &ValidationError{Code: ErrCodeInvalidMonth, Field: "month",
			Message: fmt.Sprintf("%d is not a month", int(f.Month))}
	}
	for i, c := range f.Categories {
		if !c.Valid() {
			return &ValidationError{Code: ErrCodeInvalidCategory, Field: fmt.Sprintf("categories[%d]", i),
				Message: fmt.Sprintf("unknown category %d", int(c))}
		}
	}
	return nil
}
