package testutil

import (
	"context"
	"io"
	"log/slog"
	"path/filepath"
	"testing"

	"github.com/roach88/rewardstore/internal/ledger"
	"github.com/roach88/rewardstore/internal/store"
)

// DiscardLogger returns a logger that drops everything.
func DiscardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// OpenStore opens a fresh store under t.TempDir and closes it on cleanup.
func OpenStore(t testing.TB) *store.Store {
	t.Helper()
	path := filepath.Join(t.TempDir(), "publisher_info.db")
	s := store.New(path, store.WithLogger(DiscardLogger()))
	status, err := s.Open(context.Background())
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	if status != store.StatusReady {
		t.Fatalf("open store: status %v", status)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

// Publisher returns a verified, included publisher with metadata derived
// from id.
func Publisher(id string) ledger.PublisherInfo {
	return ledger.PublisherInfo{
		ID:         id,
		Verified:   true,
		Excluded:   ledger.Included,
		Name:       id,
		FaviconURL: "https://" + id + "/favicon.ico",
		URL:        "https://" + id + "/",
	}
}

// Activity returns an activity record of Publisher(id) for one period.
func Activity(id string, duration uint64, month ledger.Month, year int, stamp uint64) ledger.PublisherActivity {
	return ledger.PublisherActivity{
		ActivityInfo: ledger.ActivityInfo{
			PublisherID:    id,
			Duration:       duration,
			Visits:         1,
			Month:          month,
			Year:           year,
			ReconcileStamp: stamp,
		},
		Publisher: Publisher(id),
	}
}
