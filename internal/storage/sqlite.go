package storage

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/pierrec/lz4/v4"
	_ "modernc.org/sqlite"
)

// migration is a numbered schema change. Migrations are applied in order
// and tracked in the schema_migrations table so each runs exactly once.
type migration struct {
	Version     int
	Description string
	SQL         string
}

var migrations = []migration{
	{
		Version:     1,
		Description: "key-value area",
		SQL: `
CREATE TABLE kv (
    key         TEXT PRIMARY KEY,
    value       BLOB NOT NULL,
    raw_size    INTEGER NOT NULL,
    updated_at  DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
);`,
	},
}

// SQLiteArea is an Area backed by a local SQLite database. Values are
// lz4-compressed; raw_size records the uncompressed length for
// decompression. It plays the role of the browser's large-quota "local"
// storage area. Change notifications reach subscribers in the same
// process; writers in other processes are not observed.
type SQLiteArea struct {
	db *sql.DB

	mu     sync.Mutex
	subs   map[string]map[int]func()
	nextID int
}

// OpenSQLiteArea opens (or creates) the database at path, creating parent
// directories, enabling foreign keys and WAL mode, and running pending
// migrations.
func OpenSQLiteArea(path string) (*SQLiteArea, error) {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create directory %s: %w", dir, err)
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	if _, err := db.Exec("PRAGMA foreign_keys = ON"); err != nil {
		db.Close()
		return nil, fmt.Errorf("enable foreign keys: %w", err)
	}
	if _, err := db.Exec("PRAGMA journal_mode = WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("enable WAL mode: %w", err)
	}
	if err := runMigrations(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	return &SQLiteArea{
		db:   db,
		subs: make(map[string]map[int]func()),
	}, nil
}

// Close closes the underlying database.
func (a *SQLiteArea) Close() error {
	return a.db.Close()
}

func (a *SQLiteArea) Get(ctx context.Context, key string) ([]byte, bool, error) {
	var compressed []byte
	var rawSize int
	err := a.db.QueryRowContext(ctx,
		"SELECT value, raw_size FROM kv WHERE key = ?", key,
	).Scan(&compressed, &rawSize)
	if err == sql.ErrNoRows {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("get %q: %w", key, err)
	}

	// Incompressible values are stored raw (see Set); compressed blocks
	// are always strictly smaller than the original.
	if len(compressed) == rawSize {
		return compressed, true, nil
	}

	raw := make([]byte, rawSize)
	n, err := lz4.UncompressBlock(compressed, raw)
	if err != nil {
		return nil, false, fmt.Errorf("decompress %q: %w", key, err)
	}
	return raw[:n], true, nil
}

func (a *SQLiteArea) Set(ctx context.Context, key string, value []byte) error {
	buf := make([]byte, lz4.CompressBlockBound(len(value)))
	var c lz4.Compressor
	n, err := c.CompressBlock(value, buf)
	if err != nil {
		return fmt.Errorf("compress %q: %w", key, err)
	}
	compressed := buf[:n]
	if n == 0 {
		// Incompressible input; lz4 signals this with n == 0.
		compressed = value
	}

	_, err = a.db.ExecContext(ctx,
		`INSERT INTO kv (key, value, raw_size, updated_at) VALUES (?, ?, ?, CURRENT_TIMESTAMP)
		 ON CONFLICT(key) DO UPDATE SET
		   value = excluded.value,
		   raw_size = excluded.raw_size,
		   updated_at = CURRENT_TIMESTAMP`,
		key, compressed, len(value),
	)
	if err != nil {
		return fmt.Errorf("set %q: %w", key, err)
	}

	a.mu.Lock()
	var fns []func()
	for _, fn := range a.subs[key] {
		fns = append(fns, fn)
	}
	a.mu.Unlock()
	for _, fn := range fns {
		fn()
	}
	return nil
}

func (a *SQLiteArea) Subscribe(key string, fn func()) func() {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.subs[key] == nil {
		a.subs[key] = make(map[int]func())
	}
	id := a.nextID
	a.nextID++
	a.subs[key][id] = fn
	return func() {
		a.mu.Lock()
		defer a.mu.Unlock()
		delete(a.subs[key], id)
	}
}

// runMigrations ensures the schema_migrations table exists and applies any
// pending migrations in order.
func runMigrations(db *sql.DB) error {
	_, err := db.Exec(`CREATE TABLE IF NOT EXISTS schema_migrations (
		version     INTEGER PRIMARY KEY,
		description TEXT NOT NULL,
		applied_at  DATETIME DEFAULT CURRENT_TIMESTAMP
	)`)
	if err != nil {
		return fmt.Errorf("create schema_migrations table: %w", err)
	}

	for _, m := range migrations {
		var exists int
		err := db.QueryRow("SELECT COUNT(*) FROM schema_migrations WHERE version = ?", m.Version).Scan(&exists)
		if err != nil {
			return fmt.Errorf("check migration %d: %w", m.Version, err)
		}
		if exists > 0 {
			continue
		}

		if _, err := db.Exec(m.SQL); err != nil {
			return fmt.Errorf("apply migration %d (%s): %w", m.Version, m.Description, err)
		}
		if _, err := db.Exec(
			"INSERT INTO schema_migrations (version, description) VALUES (?, ?)",
			m.Version, m.Description,
		); err != nil {
			return fmt.Errorf("record migration %d: %w", m.Version, err)
		}
	}
	return nil
}

// DefaultDBPath returns the default database file path:
// ~/.local/share/tabkorb/tabkorb.db
func DefaultDBPath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("get home directory: %w", err)
	}
	return filepath.Join(home, ".local", "share", "tabkorb", "tabkorb.db"), nil
}
