package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
)

// step upgrades the schema by one version inside the initialization
// transaction.
type step func(ctx context.Context, tx *sql.Tx) error

// migrations maps a stored version to the step that brings it to the next
// version. Every version below currentVersion must have an entry.
var migrations = map[int]step{
	1: migrateV1toV2,
	2: migrateV2toV3,
}

// StepResult is the outcome of one migration step.
type StepResult struct {
	From int   `json:"from"`
	To   int   `json:"to"`
	Err  error `json:"-"`
}

// MigrationReport describes the migration run by Open.
type MigrationReport struct {
	// From is the version stored when Open started.
	From int `json:"from"`
	// To is the target version.
	To int `json:"to"`
	// Reached is the version recorded when Open finished.
	Reached int `json:"reached"`
	// Created is true when the store was created by this Open.
	Created bool         `json:"created"`
	Steps   []StepResult `json:"steps,omitempty"`
}

// Failed reports whether any step failed or was missing.
func (r MigrationReport) Failed() bool {
	for _, st := range r.Steps {
		if st.Err != nil {
			return true
		}
	}
	return false
}

// Err joins the errors of failed steps. Nil when nothing failed.
func (r MigrationReport) Err() error {
	var errs []error
	for _, st := range r.Steps {
		if st.Err != nil {
			errs = append(errs, st.Err)
		}
	}
	return errors.Join(errs...)
}

// initialize creates or upgrades the schema in a single transaction.
func (s *Store) initialize(ctx context.Context, db *sql.DB) (Meta, MigrationReport, error) {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return Meta{}, MigrationReport{}, fmt.Errorf("begin init tx: %w", err)
	}
	defer tx.Rollback() // No-op if committed

	meta, found, err := readMeta(ctx, tx)
	if err != nil {
		return Meta{}, MigrationReport{}, err
	}

	report := MigrationReport{To: currentVersion}
	if !found {
		if meta, err = createMeta(ctx, tx, currentVersion, compatibleVersion); err != nil {
			return Meta{}, MigrationReport{}, err
		}
		report.Created = true
	}
	report.From = meta.Version
	report.Reached = meta.Version

	if meta.CompatibleVersion > currentVersion {
		s.logger.Error("store is too new",
			"path", s.path,
			"version", meta.Version,
			"compatible_version", meta.CompatibleVersion,
			"supported", currentVersion,
		)
		return Meta{}, MigrationReport{}, &Error{
			Code: CodeSchemaTooNew,
			Op:   "open",
			Err: fmt.Errorf("store requires schema version %d, this build supports %d",
				meta.CompatibleVersion, currentVersion),
		}
	}

	if err := ensureStoreID(ctx, tx, &meta); err != nil {
		return Meta{}, MigrationReport{}, err
	}
	if err := createSchema(ctx, tx); err != nil {
		return Meta{}, MigrationReport{}, err
	}

	s.migrate(ctx, tx, &report)

	if report.Reached > meta.Version {
		if err := setVersion(ctx, tx, report.Reached); err != nil {
			return Meta{}, MigrationReport{}, err
		}
		meta.Version = report.Reached
	}

	if err := tx.Commit(); err != nil {
		return Meta{}, MigrationReport{}, fmt.Errorf("commit init tx: %w", err)
	}
	return meta, report, nil
}

// migrate runs the steps from report.Reached up to currentVersion and stops
// at the first step that fails or is missing.
func (s *Store) migrate(ctx context.Context, tx *sql.Tx, report *MigrationReport) {
	for v := report.Reached; v < currentVersion; v++ {
		result := StepResult{From: v, To: v + 1}

		fn, ok := migrations[v]
		if !ok {
			result.Err = &Error{
				Code: CodeMigrationStepFailed,
				Op:   fmt.Sprintf("migrate v%d->v%d", v, v+1),
				Err:  fmt.Errorf("no migration registered for version %d", v),
			}
			report.Steps = append(report.Steps, result)
			s.logger.Error("migration step missing",
				"from", v,
				"to", v+1,
			)
			return
		}

		if err := runStep(ctx, tx, v, fn); err != nil {
			result.Err = &Error{
				Code: CodeMigrationStepFailed,
				Op:   fmt.Sprintf("migrate v%d->v%d", v, v+1),
				Err:  err,
			}
			report.Steps = append(report.Steps, result)
			s.logger.Error("migration step failed",
				"from", v,
				"to", v+1,
				"error", err,
			)
			return
		}

		report.Steps = append(report.Steps, result)
		report.Reached = v + 1
		s.logger.Info("migration step applied",
			"from", v,
			"to", v+1,
		)
	}
}

// runStep runs fn inside a savepoint. On failure the savepoint is rolled
// back so no half-rebuilt table survives.
func runStep(ctx context.Context, tx *sql.Tx, from int, fn step) error {
	name := fmt.Sprintf("migrate_v%d", from)
	if _, err := tx.ExecContext(ctx, "SAVEPOINT "+name); err != nil {
		return fmt.Errorf("savepoint: %w", err)
	}

	if err := fn(ctx, tx); err != nil {
		if _, rbErr := tx.ExecContext(ctx, "ROLLBACK TO "+name); rbErr != nil {
			return errors.Join(err, fmt.Errorf("rollback to savepoint: %w", rbErr))
		}
		if _, relErr := tx.ExecContext(ctx, "RELEASE "+name); relErr != nil {
			return errors.Join(err, fmt.Errorf("release savepoint: %w", relErr))
		}
		return err
	}

	if _, err := tx.ExecContext(ctx, "RELEASE "+name); err != nil {
		return fmt.Errorf("release savepoint: %w", err)
	}
	return nil
}

// migrateV1toV2 adds the reconcile stamp to activity rows, stores probi as
// text and adds recurring donations.
func migrateV1toV2(ctx context.Context, tx *sql.Tx) error {
	has, err := columnExists(ctx, tx, tableActivityInfo, "reconcile_stamp")
	if err != nil {
		return err
	}
	if !has {
		if _, err := tx.ExecContext(ctx,
			"ALTER TABLE activity_info ADD reconcile_stamp INTEGER DEFAULT 0 NOT NULL",
		); err != nil {
			return fmt.Errorf("add activity_info.reconcile_stamp: %w", err)
		}
	}

	err = rebuildTable(ctx, tx, tableContributionInfo, contributionInfoColumns, contributionInfoIndex,
		"publisher_id, probi, date, category, month, year",
		"publisher_id, CAST(probi AS TEXT), date, category, month, year",
	)
	if err != nil {
		return err
	}

	if err := ensureTable(ctx, tx, tableRecurringDonation, recurringDonationColumns); err != nil {
		return err
	}
	return ensureIndex(ctx, tx, recurringDonationIndex.name, recurringDonationIndex.definition)
}

// migrateV2toV3 adds visit counts and widens the activity unique key to
// include the reconcile stamp.
func migrateV2toV3(ctx context.Context, tx *sql.Tx) error {
	return rebuildTable(ctx, tx, tableActivityInfo, activityInfoColumns, activityInfoIndex,
		"publisher_id, duration, visits, score, percent, weight, month, year, reconcile_stamp",
		// Rows from before visit counting get a nominal count.
		"publisher_id, duration, 5, score, percent, weight, month, year, reconcile_stamp",
	)
}

// rebuildTable recreates table with the current shape and copies its rows.
// insertCols and selectExprs are matched by position. Publisher shells are
// inserted for rows whose publisher is missing so the copy satisfies the
// foreign key.
func rebuildTable(ctx context.Context, tx *sql.Tx, table, columns string, idx indexDef, insertCols, selectExprs string) error {
	old := table + "_old"
	stmts := []string{
		fmt.Sprintf("ALTER TABLE %s RENAME TO %s", table, old),
		fmt.Sprintf("INSERT OR IGNORE INTO publisher_info (publisher_id, name, favIcon, url, provider) "+
			"SELECT DISTINCT publisher_id, '', '', '', '' FROM %s WHERE publisher_id IS NOT NULL", old),
		fmt.Sprintf("CREATE TABLE %s (%s)", table, columns),
		fmt.Sprintf("INSERT INTO %s (%s) SELECT %s FROM %s WHERE publisher_id IS NOT NULL",
			table, insertCols, selectExprs, old),
		fmt.Sprintf("DROP TABLE %s", old),
	}
	for _, q := range stmts {
		if _, err := tx.ExecContext(ctx, q); err != nil {
			return fmt.Errorf("rebuild %s: %w", table, err)
		}
	}
	return ensureIndex(ctx, tx, idx.name, idx.definition)
}
