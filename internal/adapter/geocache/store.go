// Package geocache persists geocoding answers across runs in a SQLite
// database with two lookup tables: forward (address text -> coordinates)
// and reverse (coordinate -> street/number). Entries are immutable once
// written: the first answer wins, so fingerprints stay stable even if the
// provider's answers drift over time.
package geocache

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strconv"

	_ "github.com/mattn/go-sqlite3"

	"github.com/enterate/incident-etl/internal/domain"
)

const schemaSQL = `
CREATE TABLE IF NOT EXISTS forward_cache (
	address TEXT PRIMARY KEY,
	lat     REAL NOT NULL,
	lon     REAL NOT NULL
);
CREATE TABLE IF NOT EXISTS reverse_cache (
	coord  TEXT PRIMARY KEY,
	street TEXT NOT NULL,
	number TEXT NOT NULL
);
`

// Store is the persistent geocode cache. Access within a run is sequential;
// the single connection keeps SQLite's one-writer rule trivially satisfied.
type Store struct {
	db *sql.DB
}

// Open creates or opens the cache database at path and bootstraps the
// schema. Safe to call on every run.
func Open(path string) (*Store, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("open geocode cache: %w", err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("connect geocode cache: %w", err)
	}

	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	for _, pragma := range []string{
		"PRAGMA journal_mode = WAL",
		"PRAGMA synchronous = NORMAL",
		"PRAGMA busy_timeout = 5000",
	} {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, fmt.Errorf("apply pragma %q: %w", pragma, err)
		}
	}

	if _, err := db.Exec(schemaSQL); err != nil {
		db.Close()
		return nil, fmt.Errorf("apply geocode cache schema: %w", err)
	}
	return &Store{db: db}, nil
}

// Close releases the database handle.
func (s *Store) Close() error {
	return s.db.Close()
}

// GetForward looks up cached coordinates for a normalized address string.
func (s *Store) GetForward(ctx context.Context, address string) (domain.Coordinates, bool, error) {
	var c domain.Coordinates
	err := s.db.QueryRowContext(ctx,
		"SELECT lat, lon FROM forward_cache WHERE address = ?", address,
	).Scan(&c.Lat, &c.Lon)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.Coordinates{}, false, nil
	}
	if err != nil {
		return domain.Coordinates{}, false, fmt.Errorf("forward cache lookup: %w", err)
	}
	return c, true, nil
}

// PutForward stores a forward answer. An existing entry is kept unchanged.
func (s *Store) PutForward(ctx context.Context, address string, c domain.Coordinates) error {
	_, err := s.db.ExecContext(ctx,
		"INSERT OR IGNORE INTO forward_cache (address, lat, lon) VALUES (?, ?, ?)",
		address, c.Lat, c.Lon,
	)
	if err != nil {
		return fmt.Errorf("forward cache insert: %w", err)
	}
	return nil
}

// GetReverse looks up a cached street/number for a coordinate.
func (s *Store) GetReverse(ctx context.Context, lat, lon float64) (domain.Address, bool, error) {
	var a domain.Address
	err := s.db.QueryRowContext(ctx,
		"SELECT street, number FROM reverse_cache WHERE coord = ?", coordKey(lat, lon),
	).Scan(&a.Street, &a.Number)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.Address{}, false, nil
	}
	if err != nil {
		return domain.Address{}, false, fmt.Errorf("reverse cache lookup: %w", err)
	}
	return a, true, nil
}

// PutReverse stores a reverse answer. An existing entry is kept unchanged.
func (s *Store) PutReverse(ctx context.Context, lat, lon float64, a domain.Address) error {
	_, err := s.db.ExecContext(ctx,
		"INSERT OR IGNORE INTO reverse_cache (coord, street, number) VALUES (?, ?, ?)",
		coordKey(lat, lon), a.Street, a.Number,
	)
	if err != nil {
		return fmt.Errorf("reverse cache insert: %w", err)
	}
	return nil
}

// coordKey renders a coordinate as the shortest decimal strings that
// round-trip the float64 values. This keeps exactly the precision the
// source supplied, with no extra rounding that could collide distinct
// nearby addresses, and the key is stable across runs for identical input.
func coordKey(lat, lon float64) string {
	return strconv.FormatFloat(lat, 'f', -1, 64) + "," + strconv.FormatFloat(lon, 'f', -1, 64)
}
