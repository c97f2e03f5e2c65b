// Package sqlite provides the dispatcher's telemetry store: an append-only
// log of tile emissions plus a small key/value table for daemon state, such
// as the dispatcher's last heartbeat.
package sqlite

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite" // Pure-Go SQLite driver (no CGO required)

	"github.com/tutu-network/rasterq/internal/domain"
)

// DB wraps a SQLite connection with WAL mode and migrations.
type DB struct {
	db *sql.DB
}

// Open creates or opens the SQLite database at dir/telemetry.db. Enables
// WAL mode and a 5-second busy timeout.
func Open(dir string) (*DB, error) {
	if err := os.MkdirAll(dir, 0700); err != nil {
		return nil, fmt.Errorf("create data dir: %w", err)
	}

	dbPath := filepath.Join(dir, "telemetry.db")
	dsn := dbPath + "?_journal_mode=WAL&_busy_timeout=5000&_foreign_keys=on"

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping sqlite: %w", err)
	}

	db.SetMaxOpenConns(1) // SQLite is single-writer
	db.SetMaxIdleConns(1)

	d := &DB{db: db}
	if err := d.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}

	return d, nil
}

// Close cleanly shuts down the database.
func (d *DB) Close() error {
	return d.db.Close()
}

// Ping checks database connectivity.
func (d *DB) Ping() error {
	return d.db.Ping()
}

// migrate runs idempotent schema migrations.
func (d *DB) migrate() error {
	migrations := []string{
		`CREATE TABLE IF NOT EXISTS tile_events (
			id         INTEGER PRIMARY KEY AUTOINCREMENT,
			tile_id    TEXT NOT NULL,
			bin        TEXT NOT NULL,
			resolution TEXT NOT NULL,
			policy     TEXT NOT NULL,
			emitted_at INTEGER NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_tile_events_emitted ON tile_events(emitted_at)`,
		`CREATE TABLE IF NOT EXISTS daemon_state (
			key   TEXT PRIMARY KEY,
			value TEXT NOT NULL
		)`,
	}

	for _, m := range migrations {
		if _, err := d.db.Exec(m); err != nil {
			return fmt.Errorf("migration failed: %w\nSQL: %s", err, m)
		}
	}
	return nil
}

// ─── Tile Events ────────────────────────────────────────────────────────────

// RecordTileEvent appends one tile emission to the log.
func (d *DB) RecordTileEvent(ev domain.TileEvent) error {
	_, err := d.db.Exec(
		`INSERT INTO tile_events (tile_id, bin, resolution, policy, emitted_at)
		 VALUES (?, ?, ?, ?, ?)`,
		string(ev.TileID), ev.Bin.String(), ev.Resolution.String(), ev.Policy.String(), ev.EmittedAt.Unix(),
	)
	return err
}

// RecentTileEvents returns the most recently recorded events, newest first,
// capped at limit.
func (d *DB) RecentTileEvents(limit int) ([]domain.TileEvent, error) {
	rows, err := d.db.Query(
		`SELECT id, tile_id, bin, resolution, policy, emitted_at
		 FROM tile_events ORDER BY id DESC LIMIT ?`, limit,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var events []domain.TileEvent
	for rows.Next() {
		var ev domain.TileEvent
		var tileID, bin, resolution, policy string
		var emittedAt int64
		if err := rows.Scan(&ev.ID, &tileID, &bin, &resolution, &policy, &emittedAt); err != nil {
			return nil, err
		}
		ev.TileID = domain.TileID(tileID)
		ev.Bin = parseBin(bin)
		ev.Resolution = parseResolution(resolution)
		ev.Policy = parsePolicy(policy)
		ev.EmittedAt = time.Unix(emittedAt, 0)
		events = append(events, ev)
	}
	return events, rows.Err()
}

// CountTileEvents returns the total number of recorded events.
func (d *DB) CountTileEvents() (int64, error) {
	var count int64
	err := d.db.QueryRow(`SELECT COUNT(*) FROM tile_events`).Scan(&count)
	return count, err
}

// ─── Daemon State ───────────────────────────────────────────────────────────

// SetDaemonState stores a key/value pair, overwriting any existing value.
func (d *DB) SetDaemonState(key, value string) error {
	_, err := d.db.Exec(
		`INSERT INTO daemon_state (key, value) VALUES (?, ?)
		 ON CONFLICT(key) DO UPDATE SET value=excluded.value`,
		key, value,
	)
	return err
}

// DaemonState retrieves a value, returning "" if the key is unset.
func (d *DB) DaemonState(key string) (string, error) {
	var value string
	err := d.db.QueryRow(`SELECT value FROM daemon_state WHERE key = ?`, key).Scan(&value)
	if err == sql.ErrNoRows {
		return "", nil
	}
	return value, err
}

// ─── Helpers ────────────────────────────────────────────────────────────────

func parseBin(s string) domain.PriorityBin {
	switch s {
	case domain.Now.String():
		return domain.Now
	case domain.Soon.String():
		return domain.Soon
	default:
		return domain.Eventually
	}
}

func parseResolution(s string) domain.Resolution {
	switch s {
	case domain.LowResolution.String():
		return domain.LowResolution
	case domain.NonIdealResolution.String():
		return domain.NonIdealResolution
	default:
		return domain.HighResolution
	}
}

func parsePolicy(s string) domain.TreePriority {
	switch s {
	case domain.NewContentTakesPriority.String():
		return domain.NewContentTakesPriority
	case domain.SamePriorityForBothTrees.String():
		return domain.SamePriorityForBothTrees
	default:
		return domain.SmoothnessTakesPriority
	}
}
