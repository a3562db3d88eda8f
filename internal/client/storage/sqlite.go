package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/pressly/goose/v3"

	"github.com/dmitrijs2005/careerkit/internal/client/storage/migrations"
	"github.com/dmitrijs2005/careerkit/internal/dbx"
	"github.com/dmitrijs2005/careerkit/internal/logging"

	_ "modernc.org/sqlite"
)

const (
	defaultPollInterval = time.Second
	changeLogRetention  = 1000
)

// SQLiteOption customises OpenSQLite.
type SQLiteOption func(*SQLiteStore)

// WithPollInterval sets how often the change log is scanned for writes made
// by other processes.
func WithPollInterval(d time.Duration) SQLiteOption {
	return func(s *SQLiteStore) {
		if d > 0 {
			s.pollInterval = d
		}
	}
}

func WithLogger(l logging.Logger) SQLiteOption {
	return func(s *SQLiteStore) { s.logger = l }
}

// SQLiteStore keeps values in an SQLite file. Every write is also appended to
// a change log; other processes opening the same file pick the entries up by
// polling and deliver them through Subscribe.
type SQLiteStore struct {
	db           *sql.DB
	origin       string
	feed         *feed
	pollInterval time.Duration
	logger       logging.Logger

	mu      sync.Mutex
	lastSeq int64
	closed  bool

	stop chan struct{}
	done chan struct{}
}

// RunMigrations applies the embedded goose migrations.
func RunMigrations(ctx context.Context, db *sql.DB) error {
	goose.SetBaseFS(migrations.FS)
	goose.SetLogger(goose.NopLogger())
	if err := goose.SetDialect("sqlite3"); err != nil {
		return fmt.Errorf("set goose dialect: %w", err)
	}
	return goose.UpContext(ctx, db, ".")
}

// OpenSQLite opens (creating if needed) the store at path and starts the
// change log poller.
func OpenSQLite(ctx context.Context, path string, opts ...SQLiteOption) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", sqliteDSN(path))
	if err != nil {
		return nil, err
	}
	db.SetMaxOpenConns(1)

	if err := RunMigrations(ctx, db); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("migrate %s: %w", path, err)
	}

	s, err := newSQLiteStore(ctx, db, opts...)
	if err != nil {
		_ = db.Close()
		return nil, err
	}
	go s.poll()
	return s, nil
}

func newSQLiteStore(ctx context.Context, db *sql.DB, opts ...SQLiteOption) (*SQLiteStore, error) {
	s := &SQLiteStore{
		db:           db,
		origin:       uuid.NewString(),
		feed:         newFeed(),
		pollInterval: defaultPollInterval,
		logger:       logging.Nop(),
		stop:         make(chan struct{}),
		done:         make(chan struct{}),
	}
	for _, opt := range opts {
		opt(s)
	}

	if err := db.QueryRowContext(ctx, `SELECT COALESCE(MAX(seq), 0) FROM kv_changes`).Scan(&s.lastSeq); err != nil {
		return nil, fmt.Errorf("read change log head: %w", err)
	}
	if _, err := db.ExecContext(ctx, `DELETE FROM kv_changes WHERE seq <= ?`, s.lastSeq-changeLogRetention); err != nil {
		return nil, fmt.Errorf("prune change log: %w", err)
	}
	return s, nil
}

func sqliteDSN(path string) string {
	if strings.HasPrefix(path, "file:") {
		return path
	}
	return "file:" + path + "?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)"
}

func (s *SQLiteStore) Origin() string { return s.origin }

func (s *SQLiteStore) isClosed() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.closed
}

func (s *SQLiteStore) Get(ctx context.Context, key string) ([]byte, error) {
	if s.isClosed() {
		return nil, ErrClosed
	}
	var value []byte
	err := s.db.QueryRowContext(ctx, `SELECT value FROM kv WHERE key = ?`, key).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get %s: %w", key, err)
	}
	return value, nil
}

func (s *SQLiteStore) Set(ctx context.Context, key string, value []byte) error {
	if s.isClosed() {
		return ErrClosed
	}
	if value == nil {
		value = []byte{}
	}
	return dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO kv (key, value) VALUES (?, ?)
			ON CONFLICT(key) DO UPDATE SET value = excluded.value
		`, key, value); err != nil {
			return fmt.Errorf("set %s: %w", key, err)
		}
		return s.logChange(ctx, tx, key, false)
	})
}

func (s *SQLiteStore) Delete(ctx context.Context, keys ...string) error {
	if s.isClosed() {
		return ErrClosed
	}
	return dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		for _, key := range keys {
			res, err := tx.ExecContext(ctx, `DELETE FROM kv WHERE key = ?`, key)
			if err != nil {
				return fmt.Errorf("delete %s: %w", key, err)
			}
			n, err := res.RowsAffected()
			if err != nil {
				return fmt.Errorf("delete %s: %w", key, err)
			}
			if n == 0 {
				continue
			}
			if err := s.logChange(ctx, tx, key, true); err != nil {
				return err
			}
		}
		return nil
	})
}

func (s *SQLiteStore) logChange(ctx context.Context, tx dbx.DBTX, key string, removed bool) error {
	_, err := tx.ExecContext(ctx,
		`INSERT INTO kv_changes (key, removed, origin) VALUES (?, ?, ?)`,
		key, removed, s.origin)
	if err != nil {
		return fmt.Errorf("log change %s: %w", key, err)
	}
	return nil
}

func (s *SQLiteStore) Subscribe() (<-chan Change, func()) {
	return s.feed.subscribe()
}

// Close stops the poller, closes subscriptions and the database.
func (s *SQLiteStore) Close() error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return nil
	}
	s.closed = true
	s.mu.Unlock()

	close(s.stop)
	<-s.done
	s.feed.closeAll()
	return s.db.Close()
}

func (s *SQLiteStore) poll() {
	defer close(s.done)

	ticker := time.NewTicker(s.pollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-s.stop:
			return
		case <-ticker.C:
			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			if err := s.pollOnce(ctx); err != nil {
				s.logger.Warn(ctx, "change log poll failed", "err", err)
			}
			cancel()
		}
	}
}

// pollOnce publishes change log entries written by other origins since the
// last scan.
func (s *SQLiteStore) pollOnce(ctx context.Context) error {
	s.mu.Lock()
	since := s.lastSeq
	s.mu.Unlock()

	rows, err := s.db.QueryContext(ctx,
		`SELECT seq, key, removed, origin FROM kv_changes WHERE seq > ? ORDER BY seq`, since)
	if err != nil {
		return fmt.Errorf("scan change log: %w", err)
	}
	defer rows.Close()

	var changes []Change
	last := since
	for rows.Next() {
		var (
			seq int64
			c   Change
		)
		if err := rows.Scan(&seq, &c.Key, &c.Removed, &c.Origin); err != nil {
			return fmt.Errorf("scan change row: %w", err)
		}
		last = seq
		if c.Origin == s.origin {
			continue
		}
		changes = append(changes, c)
	}
	if err := rows.Err(); err != nil {
		return fmt.Errorf("iterate change log: %w", err)
	}

	s.mu.Lock()
	s.lastSeq = last
	s.mu.Unlock()

	for _, c := range changes {
		s.feed.publish(c)
	}
	return nil
}
