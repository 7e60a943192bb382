package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/roach88/rewardstore/internal/ledger"
)

const publisherColumns = "publisher_id, verified, excluded, name, favIcon, url, provider"

// Replacing a publisher row would cascade to its dependents, so updates go
// through ON CONFLICT instead of INSERT OR REPLACE.
const upsertPublisherSQL = `
INSERT INTO publisher_info (` + publisherColumns + `)
VALUES (?, ?, ?, ?, ?, ?, ?)
ON CONFLICT (publisher_id) DO UPDATE SET
	verified = excluded.verified,
	excluded = excluded.excluded,
	name = excluded.name,
	favIcon = excluded.favIcon,
	url = excluded.url,
	provider = excluded.provider`

const insertPublisherIfAbsentSQL = `
INSERT OR IGNORE INTO publisher_info (` + publisherColumns + `)
VALUES (?, ?, ?, ?, ?, ?, ?)`

// PutPublisher inserts p or replaces the stored metadata of p.ID.
// Dependent rows are kept.
func (s *Store) PutPublisher(ctx context.Context, p ledger.PublisherInfo) error {
	const op = "put publisher"
	if s.db == nil {
		return notInitialized(op)
	}
	if err := validatePublisher(p); err != nil {
		return invalidRecord(op, err)
	}
	if _, err := s.exec(ctx, nil, upsertPublisherSQL, publisherArgs(p)...); err != nil {
		return writeFailed(op, err)
	}
	return nil
}

// PutPublisherIfAbsent inserts p unless a publisher with p.ID exists.
// An existing row is left untouched.
func (s *Store) PutPublisherIfAbsent(ctx context.Context, p ledger.PublisherInfo) error {
	const op = "put publisher if absent"
	if s.db == nil {
		return notInitialized(op)
	}
	if err := validatePublisher(p); err != nil {
		return invalidRecord(op, err)
	}
	if err := s.putShell(ctx, nil, p); err != nil {
		return writeFailed(op, err)
	}
	return nil
}

// GetPublisher returns the publisher with the given id.
func (s *Store) GetPublisher(ctx context.Context, id string) (ledger.PublisherInfo, error) {
	const op = "get publisher"
	if s.db == nil {
		return ledger.PublisherInfo{}, notInitialized(op)
	}

	var p ledger.PublisherInfo
	err := s.withStmt(ctx, nil,
		"SELECT "+publisherColumns+" FROM publisher_info WHERE publisher_id = ?",
		func(st *sql.Stmt) error {
			return scanPublisher(st.QueryRowContext(ctx, id), &p)
		})
	if errors.Is(err, sql.ErrNoRows) {
		return ledger.PublisherInfo{}, notFound(op)
	}
	if err != nil {
		return ledger.PublisherInfo{}, fmt.Errorf("%s %s: %w", op, id, err)
	}
	return p, nil
}

// ListPublishers returns every publisher ordered by id.
func (s *Store) ListPublishers(ctx context.Context) ([]ledger.PublisherInfo, error) {
	const op = "list publishers"
	if s.db == nil {
		return nil, notInitialized(op)
	}

	publishers := []ledger.PublisherInfo{}
	err := s.withStmt(ctx, nil,
		"SELECT "+publisherColumns+" FROM publisher_info ORDER BY publisher_id",
		func(st *sql.Stmt) error {
			rows, err := st.QueryContext(ctx)
			if err != nil {
				return err
			}
			defer rows.Close()

			for rows.Next() {
				var p ledger.PublisherInfo
				if err := scanPublisher(rows, &p); err != nil {
					return err
				}
				publishers = append(publishers, p)
			}
			return rows.Err()
		})
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return publishers, nil
}

// DeletePublisher removes a publisher and, by cascade, its activity,
// contributions, media mappings and recurring donation.
// Deleting an unknown id succeeds.
func (s *Store) DeletePublisher(ctx context.Context, id string) error {
	const op = "delete publisher"
	if s.db == nil {
		return notInitialized(op)
	}
	if _, err := s.exec(ctx, nil, "DELETE FROM publisher_info WHERE publisher_id = ?", id); err != nil {
		return writeFailed(op, err)
	}
	return nil
}

// SetPublisherExclude records the inclusion decision for a publisher.
func (s *Store) SetPublisherExclude(ctx context.Context, id string, state ledger.ExcludeState) error {
	const op = "set publisher exclude"
	if s.db == nil {
		return notInitialized(op)
	}
	if !state.Valid() {
		return invalidRecord(op, fmt.Errorf("unknown exclude state %d", int(state)))
	}

	res, err := s.exec(ctx, nil,
		"UPDATE publisher_info SET excluded = ? WHERE publisher_id = ?", int(state), id)
	if err != nil {
		return writeFailed(op, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return writeFailed(op, err)
	}
	if n == 0 {
		return notFound(op)
	}
	return nil
}

// putShell inserts p if its id is not stored yet. Dependent writes call it
// in their transaction before inserting the dependent row.
func (s *Store) putShell(ctx context.Context, tx *sql.Tx, p ledger.PublisherInfo) error {
	if _, err := s.exec(ctx, tx, insertPublisherIfAbsentSQL, publisherArgs(p)...); err != nil {
		return fmt.Errorf("insert publisher %s: %w", p.ID, err)
	}
	return nil
}

func validatePublisher(p ledger.PublisherInfo) error {
	if p.ID == "" {
		return fmt.Errorf("publisher id is empty")
	}
	if !p.Excluded.Valid() {
		return fmt.Errorf("publisher %s: unknown exclude state %d", p.ID, int(p.Excluded))
	}
	return nil
}

func publisherArgs(p ledger.PublisherInfo) []any {
	return []any{p.ID, p.Verified, int(p.Excluded), p.Name, p.FaviconURL, p.URL, p.Provider}
}

// scanner is satisfied by *sql.Row and *sql.Rows.
type scanner interface {
	Scan(dest ...any) error
}

func scanPublisher(sc scanner, p *ledger.PublisherInfo) error {
	return sc.Scan(&p.ID, &p.Verified, &p.Excluded, &p.Name, &p.FaviconURL, &p.URL, &p.Provider)
}
