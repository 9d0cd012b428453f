// Package permstore persists player permission bits in sqlite.
//
// Permissions are keyed by player name. The server reads them when a player
// joins and writes them when an admin grants or revokes bits.
package permstore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"golang.org/x/text/unicode/norm"
	_ "modernc.org/sqlite"
)

// ErrEmptyName is returned for a blank player name.
var ErrEmptyName = errors.New("permstore: empty player name")

// Store is a sqlite-backed permission table.
type Store struct {
	db *sql.DB
}

// Open opens or creates the database at path. ":memory:" opens a private
// in-memory database.
func Open(ctx context.Context, path string) (*Store, error) {
	if path == "" {
		return nil, fmt.Errorf("permstore: empty db path")
	}
	if path != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return nil, err
		}
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}
	// One connection: an in-memory database exists per connection, and
	// sqlite serializes writers anyway.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	if err := initSchema(ctx, db); err != nil {
		_ = db.Close()
		return nil, err
	}
	return &Store{db: db}, nil
}

func initSchema(ctx context.Context, db *sql.DB) error {
	stmts := []string{
		"PRAGMA journal_mode=WAL;",
		"PRAGMA busy_timeout=5000;",
		`CREATE TABLE IF NOT EXISTS player_permissions (
			name       TEXT PRIMARY KEY,
			bits       INTEGER NOT NULL,
			updated_at TEXT NOT NULL DEFAULT (datetime('now'))
		);`,
	}
	for _, stmt := range stmts {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("permstore: %s: %w", strings.Fields(stmt)[0], err)
		}
	}
	return nil
}

// Close closes the database.
func (s *Store) Close() error {
	return s.db.Close()
}

// normalize trims name and puts it in NFC so that names typed with different
// composition map to the same row.
func normalize(name string) (string, error) {
	name = norm.NFC.String(strings.TrimSpace(name))
	if name == "" {
		return "", ErrEmptyName
	}
	return name, nil
}

// Get returns the bits stored for name, or 0 when there is no row.
func (s *Store) Get(ctx context.Context, name string) (uint32, error) {
	name, err := normalize(name)
	if err != nil {
		return 0, err
	}
	var bits int64
	err = s.db.QueryRowContext(ctx,
		`SELECT bits FROM player_permissions WHERE name = ?`, name).Scan(&bits)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("permstore: get %q: %w", name, err)
	}
	return uint32(bits), nil
}

// Set replaces the bits stored for name. Setting 0 deletes the row.
func (s *Store) Set(ctx context.Context, name string, bits uint32) error {
	name, err := normalize(name)
	if err != nil {
		return err
	}
	if bits == 0 {
		_, err = s.db.ExecContext(ctx, `DELETE FROM player_permissions WHERE name = ?`, name)
	} else {
		_, err = s.db.ExecContext(ctx,
			`INSERT INTO player_permissions (name, bits) VALUES (?, ?)
			 ON CONFLICT(name) DO UPDATE SET bits = excluded.bits, updated_at = datetime('now')`,
			name, int64(bits))
	}
	if err != nil {
		return fmt.Errorf("permstore: set %q: %w", name, err)
	}
	return nil
}

// Grant adds bits to name's permissions and returns the new value.
func (s *Store) Grant(ctx context.Context, name string, bits uint32) (uint32, error) {
	return s.update(ctx, name, func(cur uint32) uint32 { return cur | bits })
}

// Revoke clears bits from name's permissions and returns the new value.
func (s *Store) Revoke(ctx context.Context, name string, bits uint32) (uint32, error) {
	return s.update(ctx, name, func(cur uint32) uint32 { return cur &^ bits })
}

func (s *Store) update(ctx context.Context, name string, fn func(uint32) uint32) (uint32, error) {
	cur, err := s.Get(ctx, name)
	if err != nil {
		return 0, err
	}
	next := fn(cur)
	if err := s.Set(ctx, name, next); err != nil {
		return 0, err
	}
	return next, nil
}

// Entry is one stored row.
type Entry struct {
	Name string
	Bits uint32
}

// List returns every stored row ordered by name.
func (s *Store) List(ctx context.Context) ([]Entry, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT name, bits FROM player_permissions ORDER BY name`)
	if err != nil {
		return nil, fmt.Errorf("permstore: list: %w", err)
	}
	defer rows.Close()

	var out []Entry
	for rows.Next() {
		var e Entry
		var bits int64
		if err := rows.Scan(&e.Name, &bits); err != nil {
			return nil, fmt.Errorf("permstore: list: %w", err)
		}
		e.Bits = uint32(bits)
		out = append(out, e)
	}
	return out, rows.Err()
}
