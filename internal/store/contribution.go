package store

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/roach88/rewardstore/internal/ledger"
	"github.com/roach88/rewardstore/internal/queryir"
	"github.com/roach88/rewardstore/internal/querysql"
)

const insertContributionSQL = `
INSERT INTO contribution_info (publisher_id, probi, date, category, month, year)
VALUES (?, ?, ?, ?, ?, ?)`

// PutContribution appends a contribution. A publisher shell is created if
// the publisher is not stored yet.
func (s *Store) PutContribution(ctx context.Context, c ledger.ContributionInfo) error {
	const op = "put contribution"
	if s.db == nil {
		return notInitialized(op)
	}
	if err := validateContribution(c); err != nil {
		return invalidRecord(op, err)
	}

	err := s.withTx(ctx, func(tx *sql.Tx) error {
		if err := s.putShell(ctx, tx, ledger.Shell(c.PublisherID)); err != nil {
			return err
		}
		_, err := s.exec(ctx, tx, insertContributionSQL,
			c.PublisherID, c.Probi, c.Date, int(c.Category), int(c.Month), c.Year)
		return err
	})
	if err != nil {
		return writeFailed(op, err)
	}
	return nil
}

// ListContributions returns the contributions matching f ordered by date.
func (s *Store) ListContributions(ctx context.Context, f queryir.ContributionFilter) ([]ledger.ContributionInfo, error) {
	const op = "list contributions"
	if s.db == nil {
		return nil, notInitialized(op)
	}

	q, err := querysql.CompileContributions(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	rows, err := s.db.QueryContext(ctx, q.SQL, q.Args...)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer rows.Close()

	out := []ledger.ContributionInfo{}
	for rows.Next() {
		var c ledger.ContributionInfo
		if err := rows.Scan(&c.PublisherID, &c.Probi, &c.Date, &c.Category, &c.Month, &c.Year); err != nil {
			return nil, fmt.Errorf("%s: scan: %w", op, err)
		}
		out = append(out, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return out, nil
}

// ListTips returns the one-time contributions (tips and direct donations)
// of a period joined with their publishers.
func (s *Store) ListTips(ctx context.Context, month ledger.Month, year int) ([]ledger.Tip, error) {
	const op = "list tips"
	if s.db == nil {
		return nil, notInitialized(op)
	}

	q := querysql.Tips(month, year)
	tips := []ledger.Tip{}
	err := s.withStmt(ctx, nil, q.SQL, func(st *sql.Stmt) error {
		rows, err := st.QueryContext(ctx, q.Args...)
		if err != nil {
			return err
		}
		defer rows.Close()

		for rows.Next() {
			var t ledger.Tip
			p := &t.Publisher
			if err := rows.Scan(
				&p.ID, &p.Verified, &p.Excluded, &p.Name, &p.FaviconURL, &p.URL, &p.Provider,
				&t.Probi, &t.Date, &t.Category,
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

func validateContribution(c ledger.ContributionInfo) error {
	if c.PublisherID == "" {
		return fmt.Errorf("contribution publisher id is empty")
	}
	if err := ledger.ValidateProbi(c.Probi); err != nil {
		return err
	}
	if !c.Category.Valid() {
		return fmt.Errorf("contribution %s: unknown category %d", c.PublisherID, int(c.Category))
	}
	if c.Month < ledger.January || c.Month > ledger.December {
		return fmt.Errorf("contribution %s: month %d out of range", c.PublisherID, int(c.Month))
	}
	return nil
}
