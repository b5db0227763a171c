package localstore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "github.com/ncruces/go-sqlite3/driver"
	_ "github.com/ncruces/go-sqlite3/embed"
	log "github.com/sirupsen/logrus"

	"github.com/2beens/rerack/internal/telemetry/tracing"
)

var _ Store = (*SQLiteStore)(nil)

const schemaSQL = `
CREATE TABLE IF NOT EXISTS kv (
    collection TEXT    NOT NULL,
    id         TEXT    NOT NULL,
    value      BLOB    NOT NULL,
    updated_at INTEGER NOT NULL,
    PRIMARY KEY (collection, id)
);`

// SQLiteStore is the durable local store: a single key/value table in an
// embedded sqlite database running in WAL mode.
type SQLiteStore struct {
	conn *sql.DB
	path string
	now  func() time.Time
}

func OpenSQLite(path string) (*SQLiteStore, error) {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create local store directory: %w", err)
		}
	}

	connStr := fmt.Sprintf("file:%s?_pragma=busy_timeout(5000)&_pragma=journal_mode(wal)", path)
	conn, err := sql.Open("sqlite3", connStr)
	if err != nil {
		return nil, fmt.Errorf("open local store: %w", err)
	}

	if err := conn.Ping(); err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("ping local store: %w", err)
	}

	conn.SetMaxOpenConns(4)
	conn.SetMaxIdleConns(2)

	if _, err := conn.Exec(schemaSQL); err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("create local store schema: %w", err)
	}

	log.Debugf("local store opened: %s", path)

	return &SQLiteStore{
		conn: conn,
		path: path,
		now:  time.Now,
	}, nil
}

func (s *SQLiteStore) Put(ctx context.Context, collection Collection, id string, value []byte) (err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "localstore.put")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()

	_, err = s.conn.ExecContext(
		ctx,
		`INSERT INTO kv (collection, id, value, updated_at) VALUES (?, ?, ?, ?)
			ON CONFLICT (collection, id) DO UPDATE SET value = excluded.value, updated_at = excluded.updated_at`,
		string(collection), id, value, s.now().UnixNano(),
	)
	if err != nil {
		return fmt.Errorf("put %s/%s: %w", collection, id, err)
	}
	return nil
}

func (s *SQLiteStore) Get(ctx context.Context, collection Collection, id string) (_ []byte, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "localstore.get")
	defer func() {
		if errors.Is(err, ErrNotFound) {
			span.End()
			return
		}
		tracing.EndSpanWithErrCheck(span, err)
	}()

	var value []byte
	err = s.conn.QueryRowContext(
		ctx,
		`SELECT value FROM kv WHERE collection = ? AND id = ?`,
		string(collection), id,
	).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get %s/%s: %w", collection, id, err)
	}
	return value, nil
}

func (s *SQLiteStore) List(ctx context.Context, collection Collection) (_ []Entry, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "localstore.list")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()

	rows, err := s.conn.QueryContext(
		ctx,
		`SELECT id, value, updated_at FROM kv WHERE collection = ?`,
		string(collection),
	)
	if err != nil {
		return nil, fmt.Errorf("list %s: %w", collection, err)
	}
	defer rows.Close()

	var entries []Entry
	for rows.Next() {
		var (
			e         Entry
			updatedAt int64
		)
		if err := rows.Scan(&e.ID, &e.Value, &updatedAt); err != nil {
			return nil, fmt.Errorf("rows scan: %w", err)
		}
		e.UpdatedAt = time.Unix(0, updatedAt)
		entries = append(entries, e)
	}

	return entries, rows.Err()
}

func (s *SQLiteStore) Delete(ctx context.Context, collection Collection, id string) error {
	if _, err := s.conn.ExecContext(
		ctx,
		`DELETE FROM kv WHERE collection = ? AND id = ?`,
		string(collection), id,
	); err != nil {
		return fmt.Errorf("delete %s/%s: %w", collection, id, err)
	}
	return nil
}

func (s *SQLiteStore) Clear(ctx context.Context, collection Collection) error {
	if _, err := s.conn.ExecContext(
		ctx,
		`DELETE FROM kv WHERE collection = ?`,
		string(collection),
	); err != nil {
		return fmt.Errorf("clear %s: %w", collection, err)
	}
	return nil
}

func (s *SQLiteStore) Count(ctx context.Context, collection Collection) (int, error) {
	var count int
	if err := s.conn.QueryRowContext(
		ctx,
		`SELECT COUNT(*) FROM kv WHERE collection = ?`,
		string(collection),
	).Scan(&count); err != nil {
		return 0, fmt.Errorf("count %s: %w", collection, err)
	}
	return count, nil
}

func (s *SQLiteStore) Exists(ctx context.Context, collection Collection) (bool, error) {
	var exists int
	if err := s.conn.QueryRowContext(
		ctx,
		`SELECT EXISTS (SELECT 1 FROM kv WHERE collection = ? LIMIT 1)`,
		string(collection),
	).Scan(&exists); err != nil {
		return false, fmt.Errorf("exists %s: %w", collection, err)
	}
	return exists == 1, nil
}

// Close checkpoints the WAL and closes the database.
func (s *SQLiteStore) Close() error {
	if s.conn == nil {
		return nil
	}
	if _, err := s.conn.Exec("PRAGMA wal_checkpoint(TRUNCATE)"); err != nil {
		log.Warnf("local store wal checkpoint: %s", err)
	}
	return s.conn.Close()
}
