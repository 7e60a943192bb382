package store

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"net/url"
	"strings"
	"sync"
	"sync/atomic"

	_ "github.com/mattn/go-sqlite3"
)

// OpenStatus is the outcome of Open.
type OpenStatus int

const (
	// StatusFailed means the file could not be opened or initialized.
	StatusFailed OpenStatus = iota
	// StatusReady means the store is open and usable.
	StatusReady
	// StatusIncompatibleTooNew means the stored compatibility floor is above
	// CurrentVersion. Nothing was written.
	StatusIncompatibleTooNew
)

func (s OpenStatus) String() string {
	switch s {
	case StatusReady:
		return "ready"
	case StatusIncompatibleTooNew:
		return "incompatible_too_new"
	default:
		return "failed"
	}
}

type options struct {
	logger      *slog.Logger
	busyTimeout int
	synchronous string
	journalMode string
	cacheSize   int
}

func defaultOptions() options {
	return options{
		logger:      slog.Default(),
		busyTimeout: 5000,
		synchronous: "NORMAL",
		journalMode: "WAL",
	}
}

// Option customises a Store.
type Option func(*options)

// WithLogger sets the logger used for migration and maintenance events.
func WithLogger(l *slog.Logger) Option {
	return func(o *options) {
		if l != nil {
			o.logger = l
		}
	}
}

// WithBusyTimeout sets the SQLite busy timeout in milliseconds. Default: 5000.
func WithBusyTimeout(ms int) Option { return func(o *options) { o.busyTimeout = ms } }

// WithSynchronous sets PRAGMA synchronous. Default: NORMAL.
func WithSynchronous(mode string) Option { return func(o *options) { o.synchronous = mode } }

// WithJournalMode sets PRAGMA journal_mode. Default: WAL.
func WithJournalMode(mode string) Option { return func(o *options) { o.journalMode = mode } }

// WithCacheSize sets PRAGMA cache_size. 0 keeps the SQLite default.
// Negative values are KiB.
func WithCacheSize(pages int) Option { return func(o *options) { o.cacheSize = pages } }

// Store is a handle on one publisher info database file.
type Store struct {
	path   string
	opts   options
	logger *slog.Logger

	db      *sql.DB
	meta    Meta
	report  MigrationReport
	openTxs atomic.Int32
	trims   sync.WaitGroup

	// trimMu is held for reading while a cached statement is in use and for
	// writing while the cache is dropped.
	trimMu sync.RWMutex
	mu     sync.Mutex
	stmts  map[string]*sql.Stmt
}

// New returns an unopened handle for the database at path.
func New(path string, opts ...Option) *Store {
	o := defaultOptions()
	for _, opt := range opts {
		opt(&o)
	}
	return &Store{
		path:   path,
		opts:   o,
		logger: o.logger,
		stmts:  make(map[string]*sql.Stmt),
	}
}

// Path returns the database file path.
func (s *Store) Path() string { return s.path }

// Open opens the database file, creates missing tables and indexes, checks
// the schema version and runs pending migrations.
//
// Initialization runs in one transaction: either tables, indexes, migrations
// and the version record are all committed, or nothing is. A migration step
// that fails is rolled back on its own, logged and reported, and Open still
// returns StatusReady.
//
// Calling Open on an open handle is a no-op.
func (s *Store) Open(ctx context.Context) (OpenStatus, error) {
	if s.db != nil {
		return StatusReady, nil
	}

	db, err := sql.Open("sqlite3", s.dsn())
	if err != nil {
		return StatusFailed, fmt.Errorf("open database: %w", err)
	}

	// SQLite only supports one writer at a time, so limit connections.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return StatusFailed, fmt.Errorf("connect to database: %w", err)
	}

	if err := verifyForeignKeys(ctx, db); err != nil {
		db.Close()
		return StatusFailed, err
	}

	meta, report, err := s.initialize(ctx, db)
	if err != nil {
		db.Close()
		if IsSchemaTooNew(err) {
			return StatusIncompatibleTooNew, err
		}
		return StatusFailed, fmt.Errorf("initialize schema: %w", err)
	}

	// Journal mode rewrites the file header, so it waits until the version
	// check has accepted the file.
	if err := setJournalMode(ctx, db, s.opts.journalMode); err != nil {
		db.Close()
		return StatusFailed, err
	}

	s.db = db
	s.meta = meta
	s.report = report
	return StatusReady, nil
}

// Close releases cached statements and closes the database.
// Closing an unopened or closed handle is a no-op.
func (s *Store) Close() error {
	if s.db == nil {
		return nil
	}
	s.trims.Wait()
	s.dropStatements()
	err := s.db.Close()
	s.db = nil
	return err
}

// IsOpen reports whether Open succeeded and Close has not been called.
func (s *Store) IsOpen() bool { return s.db != nil }

// MigrationReport returns the report of the migration run by Open.
func (s *Store) MigrationReport() MigrationReport { return s.report }

// Meta returns the metadata record read (or written) by Open.
func (s *Store) Meta() Meta { return s.meta }

// dsn builds the go-sqlite3 connection string. Pragmas are passed as DSN
// parameters so every connection the pool opens carries them. Journal mode
// is set by setJournalMode once the schema has been accepted.
func (s *Store) dsn() string {
	q := url.Values{}
	q.Set("_foreign_keys", "on")
	q.Set("_busy_timeout", fmt.Sprint(s.opts.busyTimeout))
	q.Set("_synchronous", s.opts.synchronous)
	if s.opts.cacheSize != 0 {
		q.Set("_cache_size", fmt.Sprint(s.opts.cacheSize))
	}
	return "file:" + s.path + "?" + q.Encode()
}

var journalModes = map[string]bool{
	"DELETE": true, "TRUNCATE": true, "PERSIST": true,
	"MEMORY": true, "WAL": true, "OFF": true,
}

// setJournalMode applies PRAGMA journal_mode on the pool's connection.
func setJournalMode(ctx context.Context, db *sql.DB, mode string) error {
	mode = strings.ToUpper(mode)
	if !journalModes[mode] {
		return fmt.Errorf("unknown journal mode %q", mode)
	}
	var got string
	if err := db.QueryRowContext(ctx, "PRAGMA journal_mode = "+mode).Scan(&got); err != nil {
		return fmt.Errorf("set journal_mode: %w", err)
	}
	return nil
}

// verifyForeignKeys checks that cascade deletes are enforced.
func verifyForeignKeys(ctx context.Context, db *sql.DB) error {
	var on int
	if err := db.QueryRowContext(ctx, "PRAGMA foreign_keys").Scan(&on); err != nil {
		return fmt.Errorf("query foreign_keys: %w", err)
	}
	if on != 1 {
		return fmt.Errorf("foreign_keys = %d, expected 1", on)
	}
	return nil
}

// dbtx is satisfied by *sql.DB and *sql.Tx.
type dbtx interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// withTx runs fn in a transaction and commits if fn succeeds.
func (s *Store) withTx(ctx context.Context, fn func(tx *sql.Tx) error) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	s.openTxs.Add(1)
	defer s.openTxs.Add(-1)
	defer tx.Rollback() // No-op if committed

	if err := fn(tx); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	return nil
}

// exec runs a cached statement, inside tx when tx is non-nil.
func (s *Store) exec(ctx context.Context, tx *sql.Tx, query string, args ...any) (sql.Result, error) {
	var res sql.Result
	err := s.withStmt(ctx, tx, query, func(st *sql.Stmt) error {
		var err error
		res, err = st.ExecContext(ctx, args...)
		return err
	})
	return res, err
}

// withStmt hands fn the cached prepared statement for query, preparing it on
// first use. Inside a transaction the statement is rebound to tx; a
// statement not yet cached is prepared on tx directly, since the single pool
// connection belongs to tx.
func (s *Store) withStmt(ctx context.Context, tx *sql.Tx, query string, fn func(*sql.Stmt) error) error {
	s.trimMu.RLock()
	defer s.trimMu.RUnlock()

	s.mu.Lock()
	st, cached := s.stmts[query]
	s.mu.Unlock()

	if tx != nil {
		var err error
		if cached {
			st = tx.StmtContext(ctx, st)
		} else if st, err = tx.PrepareContext(ctx, query); err != nil {
			return err
		}
		defer st.Close()
		return fn(st)
	}

	if !cached {
		var err error
		st, err = s.db.PrepareContext(ctx, query)
		if err != nil {
			return err
		}
		s.mu.Lock()
		if existing, ok := s.stmts[query]; ok {
			st.Close()
			st = existing
		} else {
			s.stmts[query] = st
		}
		s.mu.Unlock()
	}
	return fn(st)
}

// dropStatements closes and forgets every cached statement.
func (s *Store) dropStatements() int {
	s.trimMu.Lock()
	defer s.trimMu.Unlock()

	s.mu.Lock()
	old := s.stmts
	s.stmts = make(map[string]*sql.Stmt)
	s.mu.Unlock()

	for _, st := range old {
		st.Close()
	}
	return len(old)
}

// cachedStatements returns the number of cached statements.
func (s *Store) cachedStatements() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.stmts)
}
