// Package harness runs scripted scenarios against fresh publisher info
// stores.
//
// # Scenario Format
//
// Scenarios are YAML files with the following structure:
//
//	name: activity_replace
//	description: "Re-putting activity replaces the row"
//	fixture: fixtures/publishers.yaml   # optional, relative to this file
//	seed:                               # optional inline fixture
//	  publishers:
//	    - { id: a.com, verified: false, excluded: default, name: A,
//	        favicon_url: "", url: "https://a.com", provider: "" }
//	steps:
//	  - op: put_activity
//	    activity: { publisher_id: a.com, duration: 120, month: 3, year: 2020,
//	                reconcile_stamp: 1000 }
//	  - op: set_exclude
//	    publisher_id: missing.com
//	    exclude: excluded
//	    expect_error: NOT_FOUND
//	assertions:
//	  - type: get_activity
//	    key: { publisher_id: a.com, month: 3, year: 2020, reconcile_stamp: 1000 }
//	    expect: { duration: 120 }
//	  - type: row_count
//	    table: activity_info
//	    count: 1
//
// Unknown fields are rejected so typos fail loudly.
//
// # Step Operations
//
//   - put_publisher, put_activity, put_contribution, put_media, put_recurring
//   - delete_publisher, remove_recurring, set_exclude (by publisher_id)
//   - vacuum
//
// A step without expect_error must succeed; with it, the step must fail with
// that store error code (NOT_FOUND, INVALID_RECORD, ...).
//
// # Assertion Types
//
//   - get_activity: point lookup by key, subset match on record fields
//   - get_publisher: point lookup by id, subset match on record fields
//   - publisher_missing: the publisher does not exist
//   - list_activity: filtered listing, checks publisher order and/or count
//   - row_count: rows in one table
//   - tips: number of one-time contributions in a period
//   - recurring: recurring donation publishers in listing order
//   - trace_count: number of executed steps with a given op
//
// # Deterministic Runs
//
// Each scenario gets its own database file in a temporary directory.
// Contribution and donation dates left at zero come from a StepClock, so the
// final state, and therefore the golden snapshot, is identical across runs.
package harness
