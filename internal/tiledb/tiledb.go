// Package tiledb keeps a sqlite catalog of persisted maplets: which world
// tiles exist on disk, where their files live, and which fusion session
// last wrote them. The catalog is bookkeeping only; maplet pixel data
// stays in the raster files.
package tiledb

import (
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"time"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/sqlite"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	"github.com/google/uuid"
	_ "modernc.org/sqlite"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

// Catalog is a handle on the tile catalog database.
type Catalog struct {
	*sql.DB
}

// TileRecord is one row of the tiles table.
type TileRecord struct {
	TileX              int
	TileY              int
	Path               string
	SaveCount          int
	LastSavedUnixNanos int64
	LastSessionID      string
}

// Open opens (creating if needed) the catalog at path and applies any
// pending schema migrations.
func Open(path string) (*Catalog, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("tiledb: open %s: %w", path, err)
	}

	if err := migrateUp(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("tiledb: migrate %s: %w", path, err)
	}

	return &Catalog{db}, nil
}

func migrateUp(db *sql.DB) error {
	src, err := iofs.New(migrationsFS, "migrations")
	if err != nil {
		return err
	}
	drv, err := sqlite.WithInstance(db, &sqlite.Config{})
	if err != nil {
		return err
	}
	m, err := migrate.NewWithInstance("iofs", src, "sqlite", drv)
	if err != nil {
		return err
	}
	// Note: m is not closed because that would close the underlying DB
	// connection; it is garbage collected when no longer referenced.
	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return err
	}
	return nil
}

// BeginSession inserts a session row and returns its generated id.
func (c *Catalog) BeginSession(label string) (string, error) {
	id := uuid.NewString()
	_, err := c.Exec(
		`INSERT INTO sessions (session_id, label, started_unix_nanos) VALUES (?, ?, ?)`,
		id, label, time.Now().UnixNano())
	if err != nil {
		return "", fmt.Errorf("tiledb: begin session: %w", err)
	}
	return id, nil
}

// RecordSave upserts the tile row for (tx, ty), bumping its save counter.
func (c *Catalog) RecordSave(tx, ty int, path, sessionID string) error {
	_, err := c.Exec(`
		INSERT INTO tiles (tile_x, tile_y, path, save_count, last_saved_unix_nanos, last_session_id)
		VALUES (?, ?, ?, 1, ?, ?)
		ON CONFLICT (tile_x, tile_y) DO UPDATE SET
			path = excluded.path,
			save_count = tiles.save_count + 1,
			last_saved_unix_nanos = excluded.last_saved_unix_nanos,
			last_session_id = excluded.last_session_id`,
		tx, ty, path, time.Now().UnixNano(), nullable(sessionID))
	if err != nil {
		return fmt.Errorf("tiledb: record save (%d,%d): %w", tx, ty, err)
	}
	return nil
}

// GetTile returns the catalog row for (tx, ty), or nil when unknown.
func (c *Catalog) GetTile(tx, ty int) (*TileRecord, error) {
	row := c.QueryRow(`
		SELECT tile_x, tile_y, path, save_count,
		       COALESCE(last_saved_unix_nanos, 0), COALESCE(last_session_id, '')
		FROM tiles WHERE tile_x = ? AND tile_y = ?`, tx, ty)
	var r TileRecord
	err := row.Scan(&r.TileX, &r.TileY, &r.Path, &r.SaveCount, &r.LastSavedUnixNanos, &r.LastSessionID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("tiledb: get tile (%d,%d): %w", tx, ty, err)
	}
	return &r, nil
}

// ListTiles returns all catalog rows ordered by tile coordinates.
func (c *Catalog) ListTiles() ([]TileRecord, error) {
	rows, err := c.Query(`
		SELECT tile_x, tile_y, path, save_count,
		       COALESCE(last_saved_unix_nanos, 0), COALESCE(last_session_id, '')
		FROM tiles ORDER BY tile_y, tile_x`)
	if err != nil {
		return nil, fmt.Errorf("tiledb: list tiles: %w", err)
	}
	defer rows.Close()

	var out []TileRecord
	for rows.Next() {
		var r TileRecord
		if err := rows.Scan(&r.TileX, &r.TileY, &r.Path, &r.SaveCount,
			&r.LastSavedUnixNanos, &r.LastSessionID); err != nil {
			return nil, fmt.Errorf("tiledb: scan tile row: %w", err)
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

func nullable(s string) any {
	if s == "" {
		return nil
	}
	return s
}
