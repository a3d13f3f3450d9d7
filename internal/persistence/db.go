// Package persistence provides SQLite-based map storage: the auto-saved
// current map, shared snapshots and a little metadata.
package persistence

import (
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	_ "modernc.org/sqlite"
)

// CurrentMapID is the key of the auto-saved map record.
const CurrentMapID = "currentMap"

// ErrNotFound is returned when a record does not exist.
var ErrNotFound = errors.New("record not found")

// MapRecord is one stored document payload.
type MapRecord struct {
	ID        string `db:"id" json:"id"`
	Timestamp int64  `db:"timestamp" json:"timestamp"` // Unix millis
	Data      string `db:"data" json:"data"`
}

// Time returns the record timestamp.
func (r *MapRecord) Time() time.Time { return time.UnixMilli(r.Timestamp) }

// Event is one entry of the activity log.
type Event struct {
	At     int64  `db:"at" json:"at"`
	Kind   string `db:"kind" json:"kind"`
	Detail string `db:"detail" json:"detail"`
}

// DB wraps a SQLite connection.
type DB struct {
	conn *sqlx.DB
}

// Open opens or creates a SQLite database at the given path.
func Open(path string) (*DB, error) {
	conn, err := sqlx.Open("sqlite", path+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}

	db := &DB{conn: conn}
	if err := db.migrate(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}

	return db, nil
}

var shared struct {
	once sync.Once
	db   *DB
	err  error
}

// Shared opens the process-wide database on first use. Later calls return
// the same handle whatever path they pass.
func Shared(path string) (*DB, error) {
	shared.once.Do(func() {
		shared.db, shared.err = Open(path)
		if shared.err == nil {
			slog.Info("database opened", "path", path)
		}
	})
	return shared.db, shared.err
}

// Close closes the database connection.
func (db *DB) Close() error {
	return db.conn.Close()
}

func (db *DB) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS map_data (
		id TEXT PRIMARY KEY,
		timestamp INTEGER NOT NULL,
		data TEXT NOT NULL
	);

	CREATE TABLE IF NOT EXISTS shares (
		id TEXT PRIMARY KEY,
		created INTEGER NOT NULL,
		data TEXT NOT NULL
	);

	CREATE TABLE IF NOT EXISTS events (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		at INTEGER NOT NULL,
		kind TEXT NOT NULL,
		detail TEXT NOT NULL
	);

	CREATE TABLE IF NOT EXISTS world_meta (
		key TEXT PRIMARY KEY,
		value TEXT NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_events_at ON events(at);
	`
	_, err := db.conn.Exec(schema)
	return err
}

// SaveMap writes the current map record, replacing any previous one.
func (db *DB) SaveMap(at time.Time, data []byte) error {
	_, err := db.conn.Exec(
		"INSERT OR REPLACE INTO map_data (id, timestamp, data) VALUES (?, ?, ?)",
		CurrentMapID, at.UnixMilli(), string(data),
	)
	if err != nil {
		return fmt.Errorf("save map: %w", err)
	}
	return nil
}

// LoadMap returns the current map record or ErrNotFound.
func (db *DB) LoadMap() (*MapRecord, error) {
	var rec MapRecord
	err := db.conn.Get(&rec, "SELECT id, timestamp, data FROM map_data WHERE id = ?", CurrentMapID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("load map: %w", err)
	}
	return &rec, nil
}

// ClearMap deletes the current map record.
func (db *DB) ClearMap() error {
	_, err := db.conn.Exec("DELETE FROM map_data WHERE id = ?", CurrentMapID)
	return err
}

// SaveShare stores an exported document under a fresh id.
func (db *DB) SaveShare(at time.Time, data []byte) (string, error) {
	id := uuid.NewString()
	_, err := db.conn.Exec(
		"INSERT INTO shares (id, created, data) VALUES (?, ?, ?)",
		id, at.UnixMilli(), string(data),
	)
	if err != nil {
		return "", fmt.Errorf("save share: %w", err)
	}
	return id, nil
}

// LoadShare returns a shared document or ErrNotFound.
func (db *DB) LoadShare(id string) (*MapRecord, error) {
	if _, err := uuid.Parse(id); err != nil {
		return nil, ErrNotFound
	}
	var rec MapRecord
	err := db.conn.Get(&rec, "SELECT id, created AS timestamp, data FROM shares WHERE id = ?", id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("load share: %w", err)
	}
	return &rec, nil
}

// AppendEvents records activity log entries in one transaction.
func (db *DB) AppendEvents(events []Event) error {
	if len(events) == 0 {
		return nil
	}

	tx, err := db.conn.Beginx()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	for _, e := range events {
		_, err := tx.Exec(
			"INSERT INTO events (at, kind, detail) VALUES (?, ?, ?)",
			e.At, e.Kind, e.Detail,
		)
		if err != nil {
			return err
		}
	}

	return tx.Commit()
}

// RecentEvents returns the most recent N events, newest first.
func (db *DB) RecentEvents(limit int) ([]Event, error) {
	var events []Event
	err := db.conn.Select(&events,
		"SELECT at, kind, detail FROM events ORDER BY id DESC LIMIT ?",
		limit,
	)
	return events, err
}

// SaveMeta stores a key-value pair in metadata.
func (db *DB) SaveMeta(key, value string) error {
	_, err := db.conn.Exec(
		"INSERT OR REPLACE INTO world_meta (key, value) VALUES (?, ?)",
		key, value,
	)
	return err
}

// GetMeta retrieves a metadata value.
func (db *DB) GetMeta(key string) (string, error) {
	var value string
	err := db.conn.Get(&value, "SELECT value FROM world_meta WHERE key = ?", key)
	if errors.Is(err, sql.ErrNoRows) {
		return "", ErrNotFound
	}
	return value, err
}
