// Package database manages the embedded SQLite store backing the
// screenshot index. It provides connection pooling, transactional
// helpers, and versioned schema migrations.
package database

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	_ "github.com/mattn/go-sqlite3"
)

type Pool struct {
	db     *sql.DB
	path   string
	config PoolConfig
	mu     sync.RWMutex
}

type PoolConfig struct {
	MaxOpen     int
	MaxIdle     int
	MaxLifetime time.Duration
	BusyTimeout time.Duration
	ForeignKeys bool
	CacheSize   int
}

// DefaultPoolConfig returns the pool settings for a single-writer,
// many-reader desktop store. WAL mode keeps readers unblocked while
// the indexing loop writes.
func DefaultPoolConfig() PoolConfig {
	return PoolConfig{
		MaxOpen:     10,
		MaxIdle:     5,
		MaxLifetime: time.Hour,
		BusyTimeout: 30 * time.Second,
		ForeignKeys: true,
		CacheSize:   -2000,
	}
}

// Open opens (creating if necessary) the database file at path.
func Open(path string, config PoolConfig) (*Pool, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, fmt.Errorf("create dir: %w", err)
	}

	dsn := fmt.Sprintf("file:%s?_busy_timeout=%d&_journal_mode=WAL&_foreign_keys=%d&cache_size=%d",
		path,
		int(config.BusyTimeout.Milliseconds()),
		boolToInt(config.ForeignKeys),
		config.CacheSize,
	)

	db, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return nil, fmt.Errorf("open: %w", err)
	}

	db.SetMaxOpenConns(config.MaxOpen)
	db.SetMaxIdleConns(config.MaxIdle)
	db.SetConnMaxLifetime(config.MaxLifetime)

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping: %w", err)
	}

	return &Pool{
		db:     db,
		path:   path,
		config: config,
	}, nil
}

func (p *Pool) DB() *sql.DB {
	return p.db
}

func (p *Pool) Path() string {
	return p.path
}

func (p *Pool) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.db == nil {
		return nil
	}

	err := p.db.Close()
	p.db = nil
	return err
}

func (p *Pool) Exec(ctx context.Context, query string, args ...any) (sql.Result, error) {
	return p.db.ExecContext(ctx, query, args...)
}

func (p *Pool) Query(ctx context.Context, query string, args ...any) (*sql.Rows, error) {
	return p.db.QueryContext(ctx, query, args...)
}

func (p *Pool) QueryRow(ctx context.Context, query string, args ...any) *sql.Row {
	return p.db.QueryRowContext(ctx, query, args...)
}

func (p *Pool) Begin(ctx context.Context) (*sql.Tx, error) {
	return p.db.BeginTx(ctx, nil)
}

// Transaction runs fn inside a transaction, rolling back on error.
func (p *Pool) Transaction(ctx context.Context, fn func(tx *sql.Tx) error) error {
	tx, err := p.Begin(ctx)
	if err != nil {
		return err
	}

	if err := fn(tx); err != nil {
		_ = tx.Rollback()
		return err
	}

	return tx.Commit()
}

func (p *Pool) Version() (int, error) {
	var version int
	err := p.db.QueryRow("PRAGMA user_version").Scan(&version)
	return version, err
}

func (p *Pool) IntegrityCheck() error {
	var result string
	err := p.db.QueryRow("PRAGMA integrity_check").Scan(&result)
	if err != nil {
		return err
	}
	if result != "ok" {
		return fmt.Errorf("integrity check failed: %s", result)
	}
	return nil
}

func (p *Pool) Stats() sql.DBStats {
	return p.db.Stats()
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
