package queryir

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/roach88/rewardstore/internal/ledger"
)

// ExcludeFilter selects publishers by exclusion state.
//
// The zero value is FilterAll so an empty filter matches every row.
type ExcludeFilter int

const (
	FilterAll ExcludeFilter = iota
	FilterAllExceptExcluded
	FilterDefault
	FilterExcluded
	FilterIncluded
)

var excludeFilterNames = map[ExcludeFilter]string{
	FilterDefault:           "default",
	FilterExcluded:          "excluded",
	FilterIncluded:          "included",
	FilterAll:               "all",
	FilterAllExceptExcluded: "all-except-excluded",
}

func (f ExcludeFilter) String() string {
	if name, ok := excludeFilterNames[f]; ok {
		return name
	}
	return fmt.Sprintf("ExcludeFilter(%d)", int(f))
}

// State returns the exclusion state matched exactly by f.
// ok is false for FilterAll and FilterAllExceptExcluded.
func (f ExcludeFilter) State() (state ledger.ExcludeState, ok bool) {
	switch f {
	case FilterDefault:
		return ledger.ExcludeDefault, true
	case FilterExcluded:
		return ledger.Excluded, true
	case FilterIncluded:
		return ledger.Included, true
	}
	return 0, false
}

// ParseExcludeFilter parses a filter name or its integer value.
func ParseExcludeFilter(s string) (ExcludeFilter, error) {
	s = strings.TrimSpace(s)
	if n, err := strconv.Atoi(s); err == nil {
		if _, ok := excludeFilterNames[ExcludeFilter(n)]; ok {
			return ExcludeFilter(n), nil
		}
		return 0, fmt.Errorf("unknown exclude filter %d", n)
	}
	for f, name := range excludeFilterNames {
		if strings.EqualFold(name, s) {
			return f, nil
		}
	}
	return 0, fmt.Errorf("unknown exclude filter %q", s)
}

func (f ExcludeFilter) MarshalText() ([]byte, error) { return []byte(f.String()), nil }

func (f *ExcludeFilter) UnmarshalText(b []byte) error {
	v, err := ParseExcludeFilter(string(b))
	if err != nil {
		return err
	}
	*f = v
	return nil
}

// OrderKey is one ORDER BY term.
type OrderKey struct {
	Column    string `json:"column" yaml:"column"`
	Ascending bool   `json:"ascending" yaml:"ascending"`
}

// ParseOrderKey parses "column", "column:asc" or "column:desc".
func ParseOrderKey(s string) (OrderKey, error) {
	col, dir, found := strings.Cut(strings.TrimSpace(s), ":")
	key := OrderKey{Column: col, Ascending: true}
	if found {
		switch strings.ToLower(dir) {
		case "asc":
		case "desc":
			key.Ascending = false
		default:
			return OrderKey{}, fmt.Errorf("order key %q: direction must be asc or desc", s)
		}
	}
	if key.Column == "" {
		return OrderKey{}, fmt.Errorf("order key %q: empty column", s)
	}
	return key, nil
}

// Window is a pagination window. Limit 0 means unbounded.
type Window struct {
	Limit  int `json:"limit" yaml:"limit"`
	Offset int `json:"offset" yaml:"offset"`
}

// ActivityFilter selects activity rows joined with their publishers.
type ActivityFilter struct {
	PublisherID    string        `json:"publisher_id,omitempty" yaml:"publisher_id,omitempty"`
	Month          ledger.Month  `json:"month,omitempty" yaml:"month,omitempty"`
	Year           int           `json:"year,omitempty" yaml:"year,omitempty"`
	ReconcileStamp uint64        `json:"reconcile_stamp,omitempty" yaml:"reconcile_stamp,omitempty"`
	MinDuration    uint64        `json:"min_duration,omitempty" yaml:"min_duration,omitempty"`
	Excluded       ExcludeFilter `json:"excluded" yaml:"excluded"`
	OrderBy        []OrderKey    `json:"order_by,omitempty" yaml:"order_by,omitempty"`
	Window         Window        `json:"window" yaml:"window"`
}

// AllActivity returns a filter that matches every row.
func AllActivity() ActivityFilter {
	return ActivityFilter{Month: ledger.MonthAny, Excluded: FilterAll}
}

// HasMonth reports whether the filter restricts the month.
func (f ActivityFilter) HasMonth() bool {
	return f.Month != ledger.MonthAny && f.Month != 0
}

// ContributionFilter selects contribution rows. Zero fields match anything.
type ContributionFilter struct {
	PublisherID string            `json:"publisher_id,omitempty" yaml:"publisher_id,omitempty"`
	Month       ledger.Month      `json:"month,omitempty" yaml:"month,omitempty"`
	Year        int               `json:"year,omitempty" yaml:"year,omitempty"`
	Categories  []ledger.Category `json:"categories,omitempty" yaml:"categories,omitempty"`
}

// HasMonth reports whether the filter restricts the month.
func (f ContributionFilter) HasMonth() bool {
	return f.Month != ledger.MonthAny && f.Month != 0
}
