package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"math"

	"github.com/roach88/rewardstore/internal/ledger"
	"github.com/roach88/rewardstore/internal/queryir"
	"github.com/roach88/rewardstore/internal/querysql"
)

const upsertActivitySQL = `
INSERT OR REPLACE INTO activity_info
	(publisher_id, duration, visits, score, percent, weight, month, year, reconcile_stamp)
VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`

// PutActivity stores the activity of a publisher for one period, replacing
// any row with the same publisher, month, year and reconcile stamp.
//
// The publisher row is created from a.Publisher if it does not exist yet;
// an existing publisher is not modified.
func (s *Store) PutActivity(ctx context.Context, a ledger.PublisherActivity) error {
	const op = "put activity"
	if s.db == nil {
		return notInitialized(op)
	}
	if err := validateActivity(a.ActivityInfo); err != nil {
		return invalidRecord(op, err)
	}

	pub := a.Publisher
	pub.ID = a.PublisherID
	if !pub.Excluded.Valid() {
		return invalidRecord(op, fmt.Errorf("publisher %s: unknown exclude state %d", pub.ID, int(pub.Excluded)))
	}

	err := s.withTx(ctx, func(tx *sql.Tx) error {
		if err := s.putShell(ctx, tx, pub); err != nil {
			return err
		}
		_, err := s.exec(ctx, tx, upsertActivitySQL,
			a.PublisherID,
			int64(a.Duration),
			int64(a.Visits),
			a.Score,
			int64(a.Percent),
			a.Weight,
			int(a.Month),
			a.Year,
			int64(a.ReconcileStamp),
		)
		return err
	})
	if err != nil {
		return writeFailed(op, err)
	}
	return nil
}

// GetActivity returns the activity row with the given identity joined with
// its publisher.
func (s *Store) GetActivity(ctx context.Context, key ledger.ActivityKey) (ledger.PublisherActivity, error) {
	const op = "get activity"
	if s.db == nil {
		return ledger.PublisherActivity{}, notInitialized(op)
	}

	q := querysql.ActivityByKey(key)
	var a ledger.PublisherActivity
	err := s.withStmt(ctx, nil, q.SQL, func(st *sql.Stmt) error {
		return scanActivity(st.QueryRowContext(ctx, q.Args...), &a)
	})
	if errors.Is(err, sql.ErrNoRows) {
		return ledger.PublisherActivity{}, notFound(op)
	}
	if err != nil {
		return ledger.PublisherActivity{}, fmt.Errorf("%s %s: %w", op, key.PublisherID, err)
	}
	return a, nil
}

// ListActivity returns the activity rows matching f joined with their
// publishers. An empty filter returns every row in storage order.
//
// A filter that fails validation is returned as a *queryir.ValidationError
// reachable with errors.As.
func (s *Store) ListActivity(ctx context.Context, f queryir.ActivityFilter) ([]ledger.PublisherActivity, error) {
	const op = "list activity"
	if s.db == nil {
		return nil, notInitialized(op)
	}

	q, err := querysql.CompileActivity(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	// Filtered queries vary in text, so they are not cached.
	rows, err := s.db.QueryContext(ctx, q.SQL, q.Args...)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer rows.Close()

	out := []ledger.PublisherActivity{}
	for rows.Next() {
		var a ledger.PublisherActivity
		if err := scanActivity(rows, &a); err != nil {
			return nil, fmt.Errorf("%s: scan: %w", op, err)
		}
		out = append(out, a)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return out, nil
}

func validateActivity(a ledger.ActivityInfo) error {
	if a.PublisherID == "" {
		return fmt.Errorf("activity publisher id is empty")
	}
	if a.Month < ledger.January || a.Month > ledger.December {
		return fmt.Errorf("activity %s: month %d out of range", a.PublisherID, int(a.Month))
	}
	// SQLite integers are signed 64-bit.
	if a.Duration > math.MaxInt64 {
		return fmt.Errorf("activity %s: duration %d out of range", a.PublisherID, a.Duration)
	}
	if a.ReconcileStamp > math.MaxInt64 {
		return fmt.Errorf("activity %s: reconcile stamp %d out of range", a.PublisherID, a.ReconcileStamp)
	}
	return nil
}

// scanActivity reads a row in querysql.ActivityColumns order.
func scanActivity(sc scanner, a *ledger.PublisherActivity) error {
	p := &a.Publisher
	if err := sc.Scan(
		&a.PublisherID, &a.Duration, &a.Visits, &a.Score, &a.Percent, &a.Weight,
		&a.Month, &a.Year, &a.ReconcileStamp,
		&p.Verified, &p.Excluded, &p.Name, &p.FaviconURL, &p.URL, &p.Provider,
	); err != nil {
		return err
	}
	p.ID = a.PublisherID
	return nil
}
