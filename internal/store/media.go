package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/roach88/rewardstore/internal/ledger"
)

// PutMediaPublisher maps a media key to a publisher, replacing any previous
// mapping of the key.
func (s *Store) PutMediaPublisher(ctx context.Context, m ledger.MediaPublisherInfo) error {
	const op = "put media publisher"
	if s.db == nil {
		return notInitialized(op)
	}
	if m.MediaKey == "" {
		return invalidRecord(op, fmt.Errorf("media key is empty"))
	}
	if m.PublisherID == "" {
		return invalidRecord(op, fmt.Errorf("media %s: publisher id is empty", m.MediaKey))
	}

	err := s.withTx(ctx, func(tx *sql.Tx) error {
		if err := s.putShell(ctx, tx, ledger.Shell(m.PublisherID)); err != nil {
			return err
		}
		_, err := s.exec(ctx, tx,
			"INSERT OR REPLACE INTO media_publisher_info (media_key, publisher_id) VALUES (?, ?)",
			m.MediaKey, m.PublisherID)
		return err
	})
	if err != nil {
		return writeFailed(op, err)
	}
	return nil
}

// GetMediaPublisher returns the publisher a media key maps to.
func (s *Store) GetMediaPublisher(ctx context.Context, mediaKey string) (ledger.PublisherInfo, error) {
	const op = "get media publisher"
	if s.db == nil {
		return ledger.PublisherInfo{}, notInitialized(op)
	}

	var p ledger.PublisherInfo
	err := s.withStmt(ctx, nil, `
SELECT pi.publisher_id, pi.verified, pi.excluded, pi.name, pi.favIcon, pi.url, pi.provider
FROM media_publisher_info AS mpi
INNER JOIN publisher_info AS pi ON mpi.publisher_id = pi.publisher_id
WHERE mpi.media_key = ?`,
		func(st *sql.Stmt) error {
			return scanPublisher(st.QueryRowContext(ctx, mediaKey), &p)
		})
	if errors.Is(err, sql.ErrNoRows) {
		return ledger.PublisherInfo{}, notFound(op)
	}
	if err != nil {
		return ledger.PublisherInfo{}, fmt.Errorf("%s %s: %w", op, mediaKey, err)
	}
	return p, nil
}
