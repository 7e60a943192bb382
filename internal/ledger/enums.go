package ledger

import (
	"fmt"
	"strconv"
	"strings"
)

// ExcludeState is the user's inclusion decision for a publisher.
type ExcludeState int

const (
	// ExcludeDefault means no decision has been made yet.
	ExcludeDefault ExcludeState = 0
	Excluded       ExcludeState = 1
	Included       ExcludeState = 2
)

var excludeStateNames = map[ExcludeState]string{
	ExcludeDefault: "default",
	Excluded:       "excluded",
	Included:       "included",
}

func (s ExcludeState) String() string {
	if name, ok := excludeStateNames[s]; ok {
		return name
	}
	return fmt.Sprintf("ExcludeState(%d)", int(s))
}

// Valid reports whether s is a known state.
func (s ExcludeState) Valid() bool {
	_, ok := excludeStateNames[s]
	return ok
}

// ParseExcludeState parses a state name or its integer value.
func ParseExcludeState(s string) (ExcludeState, error) {
	v, err := parseEnum(s, "exclude state", excludeStateNames)
	return ExcludeState(v), err
}

func (s ExcludeState) MarshalText() ([]byte, error) { return []byte(s.String()), nil }

func (s *ExcludeState) UnmarshalText(b []byte) error {
	v, err := ParseExcludeState(string(b))
	if err != nil {
		return err
	}
	*s = v
	return nil
}

// Category classifies a contribution.
type Category int

const (
	CategoryAutoContribute Category = 1 << 1
	// CategoryTip is a one-time tip.
	CategoryTip Category = 1 << 3
	// CategoryDirectDonation is a one-time donation made outside a tip flow.
	CategoryDirectDonation Category = 1 << 4
	CategoryRecurring      Category = 1 << 5
)

var categoryNames = map[Category]string{
	CategoryAutoContribute: "auto-contribute",
	CategoryTip:            "tip",
	CategoryDirectDonation: "direct-donation",
	CategoryRecurring:      "recurring",
}

func (c Category) String() string {
	if name, ok := categoryNames[c]; ok {
		return name
	}
	return fmt.Sprintf("Category(%d)", int(c))
}

// Valid reports whether c is a known category.
func (c Category) Valid() bool {
	_, ok := categoryNames[c]
	return ok
}

// OneTime reports whether c is a one-time contribution.
func (c Category) OneTime() bool {
	return c == CategoryTip || c == CategoryDirectDonation
}

// ParseCategory parses a category name or its integer value.
func ParseCategory(s string) (Category, error) {
	v, err := parseEnum(s, "category", categoryNames)
	return Category(v), err
}

func (c Category) MarshalText() ([]byte, error) { return []byte(c.String()), nil }

func (c *Category) UnmarshalText(b []byte) error {
	v, err := ParseCategory(string(b))
	if err != nil {
		return err
	}
	*c = v
	return nil
}

// Month is a reporting month. MonthAny matches every month in filters.
type Month int

const (
	MonthAny  Month = -1
	January   Month = 1
	February  Month = 2
	March     Month = 3
	April     Month = 4
	May       Month = 5
	June      Month = 6
	July      Month = 7
	August    Month = 8
	September Month = 9
	October   Month = 10
	November  Month = 11
	December  Month = 12
)

var monthNames = map[Month]string{
	MonthAny: "any", January: "january", February: "february", March: "march",
	April: "april", May: "may", June: "june", July: "july", August: "august",
	September: "september", October: "october", November: "november", December: "december",
}

func (m Month) String() string {
	if name, ok := monthNames[m]; ok {
		return name
	}
	return fmt.Sprintf("Month(%d)", int(m))
}

// Valid reports whether m is MonthAny or a calendar month.
func (m Month) Valid() bool {
	_, ok := monthNames[m]
	return ok
}

// ParseMonth parses a month name or its integer value.
func ParseMonth(s string) (Month, error) {
	v, err := parseEnum(s, "month", monthNames)
	return Month(v), err
}

func (m Month) MarshalText() ([]byte, error) { return []byte(m.String()), nil }

func (m *Month) UnmarshalText(b []byte) error {
	v, err := ParseMonth(string(b))
	if err != nil {
		return err
	}
	*m = v
	return nil
}

// parseEnum resolves a case-insensitive name or a decimal value against names.
func parseEnum[T ~int](s, kind string, names map[T]string) (T, error) {
	s = strings.TrimSpace(s)
	if n, err := strconv.Atoi(s); err == nil {
		if _, ok := names[T(n)]; ok {
			return T(n), nil
		}
		return 0, fmt.Errorf("unknown %s %d", kind, n)
	}
	for v, name := range names {
		if strings.EqualFold(name, s) {
			return v, nil
		}
	}
	return 0, fmt.Errorf("unknown %s %q", kind, s)
}
