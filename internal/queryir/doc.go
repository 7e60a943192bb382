// Package queryir describes activity listing queries independently of SQL.
//
// An ActivityFilter is the runtime filter a caller hands to the store: every
// field is optional, and the zero value selects every activity row joined
// with its publisher in storage order.
//
// ARCHITECTURE:
//
//	[caller filter] → [queryir.ActivityFilter] → [querysql.Compile] → SQL + args
//
// queryir owns the vocabulary (exclusion modes, sort keys, windows) and the
// validation rules. querysql owns the SQL text. Keeping them apart means the
// CLI, fixtures and store share one definition of what a valid filter is.
//
// SORT KEYS:
//
// Ordering input comes from callers (and from the command line), so every
// sort column must be on a fixed allow-list. Validate rejects anything else
// before it can reach the SQL text. Bare column names are resolved to their
// qualified form (duration → ai.duration, name → pi.name).
//
// OPTIONAL FIELDS:
//
//	PublisherID     ""        any publisher
//	Month           MonthAny  any month (the zero value 0 is treated the same)
//	Year            0         any year
//	ReconcileStamp  0         any cycle
//	MinDuration     0         no threshold
//	Excluded        FilterAll every exclusion state
package queryir
