package store

import (
	"context"
	"database/sql"
	"io"
	"log/slog"
	"path/filepath"
	"testing"

	"github.com/roach88/rewardstore/internal/ledger"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// createTestStore opens a fresh store in a temp directory.
func createTestStore(t *testing.T) *Store {
	t.Helper()
	return openTestStore(t, filepath.Join(t.TempDir(), "publisher_info.db"))
}

// openTestStore opens the store at path and closes it on cleanup.
func openTestStore(t *testing.T, path string) *Store {
	t.Helper()
	s := New(path, WithLogger(discardLogger()))
	status, err := s.Open(context.Background())
	if err != nil {
		t.Fatalf("Open() failed: %v", err)
	}
	if status != StatusReady {
		t.Fatalf("Open() status = %v, want ready", status)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

// rawDB opens path without going through the store, for fixtures and
// inspection.
func rawDB(t *testing.T, path string) *sql.DB {
	t.Helper()
	db, err := sql.Open("sqlite3", "file:"+path+"?_foreign_keys=on")
	if err != nil {
		t.Fatalf("sql.Open() failed: %v", err)
	}
	db.SetMaxOpenConns(1)
	t.Cleanup(func() { db.Close() })
	return db
}

func mustExec(t *testing.T, db *sql.DB, query string, args ...any) {
	t.Helper()
	if _, err := db.Exec(query, args...); err != nil {
		t.Fatalf("exec %q: %v", query, err)
	}
}

type schemaEntry struct {
	Type string
	Name string
	SQL  sql.NullString
}

// dumpSchema returns every table and index definition ordered by name.
func dumpSchema(t *testing.T, db *sql.DB) []schemaEntry {
	t.Helper()
	rows, err := db.Query(
		"SELECT type, name, sql FROM sqlite_master WHERE type IN ('table', 'index') ORDER BY name")
	if err != nil {
		t.Fatalf("query schema: %v", err)
	}
	defer rows.Close()

	var out []schemaEntry
	for rows.Next() {
		var e schemaEntry
		if err := rows.Scan(&e.Type, &e.Name, &e.SQL); err != nil {
			t.Fatalf("scan schema: %v", err)
		}
		out = append(out, e)
	}
	if err := rows.Err(); err != nil {
		t.Fatalf("iterate schema: %v", err)
	}
	return out
}

func countRows(t *testing.T, db *sql.DB, table string) int {
	t.Helper()
	var n int
	if err := db.QueryRow("SELECT COUNT(*) FROM " + table).Scan(&n); err != nil {
		t.Fatalf("count %s: %v", table, err)
	}
	return n
}

func testPublisher(id string) ledger.PublisherInfo {
	return ledger.PublisherInfo{
		ID:         id,
		Verified:   true,
		Excluded:   ledger.Included,
		Name:       id,
		FaviconURL: "https://" + id + "/favicon.ico",
		URL:        "https://" + id + "/",
		Provider:   "",
	}
}

func testActivity(id string, duration uint64, month ledger.Month, year int, stamp uint64) ledger.PublisherActivity {
	return ledger.PublisherActivity{
		ActivityInfo: ledger.ActivityInfo{
			PublisherID:    id,
			Duration:       duration,
			Visits:         1,
			Score:          1.5,
			Percent:        50,
			Weight:         0.5,
			Month:          month,
			Year:           year,
			ReconcileStamp: stamp,
		},
		Publisher: testPublisher(id),
	}
}
