// Package querysql compiles activity filters to parameterized SQLite queries.
//
// CRITICAL: predicate text and bound values are accumulated together by
// Builder, one (fragment, value) pair at a time, so the Nth placeholder is
// always bound to the Nth argument. There is no second binding pass to keep
// in sync.
//
// CRITICAL: values are never interpolated into SQL text. Sort columns are the
// only identifiers that come from callers and they are resolved through the
// queryir allow-list before they reach the builder.
//
// Every query ends with the activity rowid as final ordering key, so results
// are deterministic and, without caller sort keys, in storage order.
package querysql
