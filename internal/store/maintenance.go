package store

import (
	"context"
	"fmt"
)

// Vacuum rebuilds the database file to reclaim free pages.
// It fails with ErrTransactionOpen while the handle has a transaction open.
func (s *Store) Vacuum(ctx context.Context) error {
	const op = "vacuum"
	if s.db == nil {
		return notInitialized(op)
	}
	if n := s.openTxs.Load(); n > 0 {
		return &Error{Code: CodeTransactionOpen, Op: op, Err: fmt.Errorf("%d transaction(s) open", n)}
	}

	if _, err := s.db.ExecContext(ctx, "VACUUM"); err != nil {
		return writeFailed(op, err)
	}
	s.logger.Info("database vacuumed", "path", s.path)
	return nil
}

// TrimMemory releases memory held by the store in the background.
// When critical is set, cached prepared statements are dropped as well.
// Close waits for pending trims.
func (s *Store) TrimMemory(critical bool) {
	if s.db == nil {
		return
	}
	db := s.db

	s.trims.Add(1)
	go func() {
		defer s.trims.Done()

		dropped := 0
		if critical {
			dropped = s.dropStatements()
		}
		if _, err := db.ExecContext(context.Background(), "PRAGMA shrink_memory"); err != nil {
			s.logger.Warn("shrink memory failed", "path", s.path, "error", err)
			return
		}
		s.logger.Debug("memory trimmed",
			"path", s.path,
			"critical", critical,
			"statements_dropped", dropped,
		)
	}()
}

// Diagnostics is a snapshot of store health.
type Diagnostics struct {
	Path              string           `json:"path"`
	StoreID           string           `json:"store_id"`
	Version           int              `json:"version"`
	CompatibleVersion int              `json:"compatible_version"`
	TargetVersion     int              `json:"target_version"`
	JournalMode       string           `json:"journal_mode"`
	SizeBytes         int64            `json:"size_bytes"`
	CachedStatements  int              `json:"cached_statements"`
	RowCounts         map[string]int64 `json:"row_counts"`
}

// Diagnostics reports version, size and row counts.
func (s *Store) Diagnostics(ctx context.Context) (Diagnostics, error) {
	const op = "diagnostics"
	if s.db == nil {
		return Diagnostics{}, notInitialized(op)
	}

	d := Diagnostics{
		Path:              s.path,
		StoreID:           s.meta.StoreID,
		Version:           s.meta.Version,
		CompatibleVersion: s.meta.CompatibleVersion,
		TargetVersion:     currentVersion,
		CachedStatements:  s.cachedStatements(),
		RowCounts:         make(map[string]int64, len(currentTables)),
	}

	for _, t := range currentTables {
		var n int64
		if err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM "+t.name).Scan(&n); err != nil {
			return Diagnostics{}, fmt.Errorf("%s: count %s: %w", op, t.name, err)
		}
		d.RowCounts[t.name] = n
	}

	// Approximate file size from page_count * page_size.
	var pageCount, pageSize int64
	if err := s.db.QueryRowContext(ctx, "PRAGMA page_count").Scan(&pageCount); err != nil {
		return Diagnostics{}, fmt.Errorf("%s: page count: %w", op, err)
	}
	if err := s.db.QueryRowContext(ctx, "PRAGMA page_size").Scan(&pageSize); err != nil {
		return Diagnostics{}, fmt.Errorf("%s: page size: %w", op, err)
	}
	d.SizeBytes = pageCount * pageSize

	if err := s.db.QueryRowContext(ctx, "PRAGMA journal_mode").Scan(&d.JournalMode); err != nil {
		return Diagnostics{}, fmt.Errorf("%s: journal mode: %w", op, err)
	}
	return d, nil
}
