// Package ledger provides the record types persisted by the rewards store.
//
// This package contains type definitions only. All other internal packages
// import ledger; ledger imports nothing internal.
//
// Key design constraints:
//   - Publisher keys are opaque and stored byte-for-byte
//   - Probi amounts are decimal strings, never floats
//   - Enum integer values are the persisted values and must not change
//   - All JSON and YAML tags use snake_case
package ledger
