package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/roach88/rewardstore/internal/ledger"
)

// PutRecurringDonation stores the recurring donation of a publisher,
// replacing the previous one.
func (s *Store) PutRecurringDonation(ctx context.Context, d ledger.RecurringDonation) error {
	const op = "put recurring donation"
	if s.db == nil {
		return notInitialized(op)
	}
	if d.PublisherID == "" {
		return invalidRecord(op, fmt.Errorf("recurring donation publisher id is empty"))
	}
	if d.Amount < 0 {
		return invalidRecord(op, fmt.Errorf("recurring donation %s: negative amount %v", d.PublisherID, d.Amount))
	}

	err := s.withTx(ctx, func(tx *sql.Tx) error {
		if err := s.putShell(ctx, tx, ledger.Shell(d.PublisherID)); err != nil {
			return err
		}
		_, err := s.exec(ctx, tx,
			"INSERT OR REPLACE INTO recurring_donation (publisher_id, amount, added_date) VALUES (?, ?, ?)",
			d.PublisherID, d.Amount, d.AddedDate)
		return err
	})
	if err != nil {
		return writeFailed(op, err)
	}
	return nil
}

// GetRecurringDonation returns the recurring donation of a publisher.
func (s *Store) GetRecurringDonation(ctx context.Context, publisherID string) (ledger.RecurringDonation, error) {
	const op = "get recurring donation"
	if s.db == nil {
		return ledger.RecurringDonation{}, notInitialized(op)
	}

	var d ledger.RecurringDonation
	err := s.withStmt(ctx, nil,
		"SELECT publisher_id, amount, added_date FROM recurring_donation WHERE publisher_id = ?",
		func(st *sql.Stmt) error {
			return st.QueryRowContext(ctx, publisherID).Scan(&d.PublisherID, &d.Amount, &d.AddedDate)
		})
	if errors.Is(err, sql.ErrNoRows) {
		return ledger.RecurringDonation{}, notFound(op)
	}
	if err != nil {
		return ledger.RecurringDonation{}, fmt.Errorf("%s %s: %w", op, publisherID, err)
	}
	return d, nil
}

// ListRecurringDonations returns every recurring donation joined with its
// publisher, oldest first.
func (s *Store) ListRecurringDonations(ctx context.Context) ([]ledger.RecurringTip, error) {
	const op = "list recurring donations"
	if s.db == nil {
		return nil, notInitialized(op)
	}

	tips := []ledger.RecurringTip{}
	err := s.withStmt(ctx, nil, `
SELECT pi.publisher_id, pi.verified, pi.excluded, pi.name, pi.favIcon, pi.url, pi.provider,
	rd.amount, rd.added_date
FROM recurring_donation AS rd
INNER JOIN publisher_info AS pi ON rd.publisher_id = pi.publisher_id
ORDER BY rd.added_date ASC, rd.publisher_id ASC`,
		func(st *sql.Stmt) error {
			rows, err := st.QueryContext(ctx)
			if err != nil {
				return err
			}
			defer rows.Close()

			for rows.Next() {
				var t ledger.RecurringTip
				p := &t.Publisher
				if err := rows.Scan(
					&p.ID, &p.Verified, &p.Excluded, &p.Name, &p.FaviconURL, &p.URL, &p.Provider,
					&t.Amount, &t.AddedDate,
				); err != nil {
					return err
				}
				tips = append(tips, t)
			}
			return rows.Err()
		})
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return tips, nil
}

// RemoveRecurring deletes the recurring donation of a publisher. Removing
// a donation that does not exist succeeds.
func (s *Store) RemoveRecurring(ctx context.Context, publisherID string) error {
	const op = "remove recurring"
	if s.db == nil {
		return notInitialized(op)
	}
	if _, err := s.exec(ctx, nil, "DELETE FROM recurring_donation WHERE publisher_id = ?", publisherID); err != nil {
		return writeFailed(op, err)
	}
	return nil
}
