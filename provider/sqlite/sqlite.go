// Package sqlite is the durable default for the persisted tier: a single
// key/value table in a local SQLite file, the Go-side counterpart of the
// browser's localStorage.
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/jmoiron/sqlx"
	_ "github.com/mattn/go-sqlite3" // driver "sqlite3"

	pr "github.com/unkn0wn-root/unihub/provider"
)

const schema = `
CREATE TABLE IF NOT EXISTS cache_entries (
	key        TEXT PRIMARY KEY,
	value      BLOB NOT NULL,
	expires_at INTEGER NOT NULL DEFAULT 0
);
CREATE INDEX IF NOT EXISTS idx_cache_entries_expires_at ON cache_entries (expires_at);
`

type Provider struct {
	db  *sqlx.DB
	now func() time.Time

	closeOnce sync.Once
}

var _ pr.Provider = (*Provider)(nil)

type Config struct {
	// Path of the database file. Parent directories are created.
	// ":memory:" opens a private in-memory database (tests).
	Path string
	// Now overrides the clock used for provider-level expiry.
	Now func() time.Time
}

type row struct {
	Value     []byte `db:"value"`
	ExpiresAt int64  `db:"expires_at"`
}

func Open(ctx context.Context, cfg Config) (*Provider, error) {
	if cfg.Path == "" {
		return nil, errors.New("sqlite provider: path is required")
	}
	dsn := cfg.Path
	if cfg.Path != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(cfg.Path), 0o755); err != nil {
			return nil, fmt.Errorf("sqlite provider: create dir: %w", err)
		}
		dsn = "file:" + cfg.Path + "?_busy_timeout=5000&_journal_mode=WAL"
	}
	db, err := sqlx.ConnectContext(ctx, "sqlite3", dsn)
	if err != nil {
		return nil, fmt.Errorf("sqlite provider: open %s: %w", cfg.Path, err)
	}
	// one writer; also keeps ":memory:" on a single shared connection
	db.SetMaxOpenConns(1)
	if _, err := db.ExecContext(ctx, schema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("sqlite provider: migrate: %w", err)
	}
	now := cfg.Now
	if now == nil {
		now = time.Now
	}
	return &Provider{db: db, now: now}, nil
}

func (p *Provider) Get(ctx context.Context, key string) ([]byte, bool, error) {
	var r row
	err := p.db.GetContext(ctx, &r, `SELECT value, expires_at FROM cache_entries WHERE key = ?`, key)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("sqlite get %q: %w", key, err)
	}
	if r.ExpiresAt > 0 && p.now().UnixMilli() >= r.ExpiresAt {
		_ = p.Del(ctx, key)
		return nil, false, nil
	}
	return r.Value, true, nil
}

func (p *Provider) Set(ctx context.Context, key string, value []byte, _ int64, ttl time.Duration) (bool, error) {
	var expiresAt int64
	if ttl > 0 {
		expiresAt = p.now().Add(ttl).UnixMilli()
	}
	_, err := p.db.ExecContext(ctx,
		`INSERT INTO cache_entries (key, value, expires_at) VALUES (?, ?, ?)
		 ON CONFLICT(key) DO UPDATE SET value = excluded.value, expires_at = excluded.expires_at`,
		key, value, expiresAt)
	if err != nil {
		return false, fmt.Errorf("sqlite set %q: %w", key, err)
	}
	return true, nil
}

func (p *Provider) Del(ctx context.Context, key string) error {
	if _, err := p.db.ExecContext(ctx, `DELETE FROM cache_entries WHERE key = ?`, key); err != nil {
		return fmt.Errorf("sqlite del %q: %w", key, err)
	}
	return nil
}

// Purge removes every row whose provider-level expiry has passed and
// returns how many were deleted.
func (p *Provider) Purge(ctx context.Context) (int64, error) {
	res, err := p.db.ExecContext(ctx,
		`DELETE FROM cache_entries WHERE expires_at > 0 AND expires_at <= ?`, p.now().UnixMilli())
	if err != nil {
		return 0, fmt.Errorf("sqlite purge: %w", err)
	}
	return res.RowsAffected()
}

func (p *Provider) Close(_ context.Context) error {
	var err error
	p.closeOnce.Do(func() { err = p.db.Close() })
	return err
}
