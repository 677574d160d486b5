package store

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/ashureev/coach-finder/internal/shared"
	"github.com/cenkalti/backoff/v4"
	_ "modernc.org/sqlite"
)

const (
	sqliteMaxRetries     = 3
	sqliteInitialBackoff = 50 * time.Millisecond
	sqliteMaxBackoff     = 400 * time.Millisecond
)

// SQLiteStore implements SessionStore on a single-file SQLite database.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLite opens (creating if needed) the database at dbPath.
func NewSQLite(dbPath string) (*SQLiteStore, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("create database directory: %w", err)
	}

	dsn := dbPath + "?_pragma=journal_mode(WAL)&_pragma=synchronous(NORMAL)&_pragma=busy_timeout(5000)"
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	db.SetMaxOpenConns(4)
	db.SetMaxIdleConns(2)
	db.SetConnMaxLifetime(5 * time.Minute)

	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("ping database: %w", err)
	}

	s := &SQLiteStore{db: db}
	if err := s.initSchema(); err != nil {
		return nil, fmt.Errorf("initialize schema: %w", err)
	}
	return s, nil
}

func (s *SQLiteStore) initSchema() error {
	query := `
	CREATE TABLE IF NOT EXISTS session_kv (
		key TEXT PRIMARY KEY,
		value TEXT NOT NULL,
		updated_at INTEGER NOT NULL
	);
	`
	if _, err := s.db.Exec(query); err != nil {
		return fmt.Errorf("create schema: %w", err)
	}
	return nil
}

// Ping verifies database connectivity.
func (s *SQLiteStore) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// Load reads the persisted session keys.
func (s *SQLiteStore) Load(ctx context.Context) (Persisted, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT key, value FROM session_kv WHERE key IN (?, ?, ?)`,
		KeyToken, KeyUserID, KeyTokenExpiration)
	if err != nil {
		return Persisted{}, fmt.Errorf("query session keys: %w", err)
	}
	defer func() {
		if closeErr := rows.Close(); closeErr != nil {
			slog.Warn("Failed to close session rows", "error", closeErr)
		}
	}()

	values := make(map[string]string, 3)
	for rows.Next() {
		var key, value string
		if err := rows.Scan(&key, &value); err != nil {
			return Persisted{}, fmt.Errorf("scan session row: %w", err)
		}
		values[key] = value
	}
	if err := rows.Err(); err != nil {
		return Persisted{}, fmt.Errorf("iterate session rows: %w", err)
	}
	return fromValues(values), nil
}

// Save writes token, user id and expiration in one transaction.
func (s *SQLiteStore) Save(ctx context.Context, p Persisted) error {
	return s.withRetry(ctx, "save", func(tx *sql.Tx) error {
		now := time.Now().Unix()
		for key, value := range toValues(p) {
			_, err := tx.ExecContext(ctx, `
				INSERT INTO session_kv (key, value, updated_at) VALUES (?, ?, ?)
				ON CONFLICT(key) DO UPDATE SET value = excluded.value, updated_at = excluded.updated_at`,
				key, value, now)
			if err != nil {
				return fmt.Errorf("upsert %s: %w", key, err)
			}
		}
		return nil
	})
}

// Clear removes all session keys in one transaction.
func (s *SQLiteStore) Clear(ctx context.Context) error {
	return s.withRetry(ctx, "clear", func(tx *sql.Tx) error {
		_, err := tx.ExecContext(ctx,
			`DELETE FROM session_kv WHERE key IN (?, ?, ?)`,
			KeyToken, KeyUserID, KeyTokenExpiration)
		if err != nil {
			return fmt.Errorf("delete session keys: %w", err)
		}
		return nil
	})
}

// withRetry runs fn in a transaction, retrying with exponential backoff while
// SQLite reports the database as busy or locked.
func (s *SQLiteStore) withRetry(ctx context.Context, op string, fn func(tx *sql.Tx) error) error {
	operation := func() error {
		err := s.inTx(ctx, fn)
		if err == nil {
			return nil
		}
		if shared.IsSQLiteConflictError(err) {
			return err
		}
		return backoff.Permanent(err)
	}

	strategy := backoff.WithContext(
		backoff.WithMaxRetries(
			backoff.NewExponentialBackOff(
				backoff.WithInitialInterval(sqliteInitialBackoff),
				backoff.WithMaxInterval(sqliteMaxBackoff),
			),
			sqliteMaxRetries,
		),
		ctx,
	)

	err := backoff.RetryNotify(operation, strategy, func(err error, d time.Duration) {
		slog.Debug("Session store busy, retrying", "op", op, "error", err, "delay", d)
	})
	if err != nil {
		return fmt.Errorf("%s session: %w", op, err)
	}
	return nil
}

func (s *SQLiteStore) inTx(ctx context.Context, fn func(tx *sql.Tx) error) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	if err := fn(tx); err != nil {
		if rbErr := tx.Rollback(); rbErr != nil {
			slog.Warn("Failed to roll back session transaction", "error", rbErr)
		}
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}
	return nil
}

// Close closes the database connection.
func (s *SQLiteStore) Close() error {
	if err := s.db.Close(); err != nil {
		return fmt.Errorf("close database: %w", err)
	}
	return nil
}
