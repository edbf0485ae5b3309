// Package sqlite provides a SQLite-backed implementation of the storage.Store interface.
package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"

	_ "modernc.org/sqlite" // Pure Go SQLite driver (no CGO)

	"github.com/mmynk/choreshare/internal/storage"
)

// Ensure SQLiteStore implements storage.Store
var _ storage.Store = (*SQLiteStore)(nil)

// querier is satisfied by both *sql.DB and *sql.Tx, so every repository
// works the same inside and outside a transaction.
type querier interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// SQLiteStore implements storage.Store using SQLite.
type SQLiteStore struct {
	db *sql.DB
}

// New creates a new SQLiteStore with the given database path.
// It creates the parent directories and runs migrations automatically.
func New(dbPath string) (*SQLiteStore, error) {
	// Create parent directory if it doesn't exist
	dir := filepath.Dir(dbPath)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create database directory: %w", err)
	}

	// Pragmas go in the DSN so that every pooled connection gets them.
	dsn := "file:" + dbPath + "?_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)"
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// SQLite allows a single writer; one connection keeps transactions from
	// failing with SQLITE_BUSY under concurrent requests.
	db.SetMaxOpenConns(1)

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	// Run migrations
	if err := runMigrations(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}

	return &SQLiteStore{db: db}, nil
}

// Close closes the database connection.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

func (s *SQLiteStore) Groups() storage.GroupRepository { return groupRepo{q: s.db} }
func (s *SQLiteStore) Members() storage.MemberRepository { return memberRepo{q: s.db} }
func (s *SQLiteStore) Chores() storage.ChoreRepository { return choreRepo{q: s.db} }
func (s *SQLiteStore) ChoreLogs() storage.ChoreLogRepository { return choreLogRepo{q: s.db} }
func (s *SQLiteStore) Invites() storage.GroupInviteRepository { return inviteRepo{q: s.db} }
func (s *SQLiteStore) Reminders() storage.ReminderRepository { return reminderRepo{q: s.db} }

// txRepos binds every repository to one transaction.
type txRepos struct {
	tx *sql.Tx
}

func (t txRepos) Groups() storage.GroupRepository { return groupRepo{q: t.tx} }
func (t txRepos) Members() storage.MemberRepository { return memberRepo{q: t.tx} }
func (t txRepos) Chores() storage.ChoreRepository { return choreRepo{q: t.tx} }
func (t txRepos) ChoreLogs() storage.ChoreLogRepository { return choreLogRepo{q: t.tx} }
func (t txRepos) Invites() storage.GroupInviteRepository { return inviteRepo{q: t.tx} }
func (t txRepos) Reminders() storage.ReminderRepository { return reminderRepo{q: t.tx} }

// Atomically runs fn inside a database transaction and commits only if fn succeeds.
func (s *SQLiteStore) Atomically(ctx context.Context, fn func(storage.Repositories) error) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if err := fn(txRepos{tx: tx}); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}

	return nil
}

// checkAffected turns a zero-row delete or update into storage.ErrNotFound.
func checkAffected(res sql.Result, what string) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to read affected rows: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("%s: %w", what, storage.ErrNotFound)
	}
	return nil
}
