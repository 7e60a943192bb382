// Package store provides the SQLite-backed publisher info database of the
// rewards subsystem.
//
// The store persists five record kinds, all keyed by publisher id:
//   - publisher_info: publisher metadata and exclusion state
//   - activity_info: engagement per publisher, period and reconcile stamp
//   - contribution_info: append-only contribution log
//   - media_publisher_info: media key to publisher mapping
//   - recurring_donation: at most one recurring donation per publisher
//
// # Lifecycle
//
// A handle is created with New and must be opened with Open before use.
// Open creates missing tables, checks the stored schema version against
// CurrentVersion and runs forward migrations, all inside one transaction.
// Every record operation called before Open or after Close fails with
// ErrNotInitialized; nothing is initialized lazily.
//
// # Consistency
//
//   - foreign_keys=ON on every connection; dependent tables cascade on
//     publisher deletion
//   - dependent writes insert a publisher shell (INSERT OR IGNORE) and the
//     dependent row in one transaction, so no dependent row is orphaned
//   - the schema version never decreases; a store whose compatibility floor
//     is above CurrentVersion is refused without being modified
//
// # Concurrency
//
// The handle is sequence-confined: callers serialize access. The pool holds a
// single connection since SQLite allows one writer at a time.
package store
