// Package persistence provides SQLite-based session storage: engine
// snapshots, the event log and a small metadata table.
package persistence

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"github.com/jmoiron/sqlx"
	_ "modernc.org/sqlite"

	"github.com/talgya/statecraft/internal/events"
)

// ErrNoSnapshot is returned when the store holds no snapshot yet.
var ErrNoSnapshot = errors.New("persistence: no snapshot stored")

// DB wraps a SQLite connection for session persistence.
type DB struct {
	conn *sqlx.DB
}

// SnapshotRow is one stored engine snapshot.
type SnapshotRow struct {
	ID        int64     `db:"id" json:"id"`
	Month     int       `db:"month" json:"month"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
	Data      []byte    `db:"data" json:"-"`
}

type eventRow struct {
	EventID  string    `db:"event_id"`
	Type     string    `db:"type"`
	Month    int       `db:"month"`
	DataJSON string    `db:"data_json"`
	TS       time.Time `db:"ts"`
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

// Close closes the database connection.
func (db *DB) Close() error {
	return db.conn.Close()
}

func (db *DB) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS snapshots (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		month INTEGER NOT NULL,
		created_at DATETIME NOT NULL,
		data BLOB NOT NULL
	);

	CREATE TABLE IF NOT EXISTS events (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		event_id TEXT NOT NULL UNIQUE,
		type TEXT NOT NULL,
		month INTEGER NOT NULL,
		data_json TEXT NOT NULL,
		ts DATETIME NOT NULL
	);

	CREATE TABLE IF NOT EXISTS world_meta (
		key TEXT PRIMARY KEY,
		value TEXT NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_events_month ON events(month);
	CREATE INDEX IF NOT EXISTS idx_snapshots_month ON snapshots(month);
	`
	_, err := db.conn.Exec(schema)
	return err
}

// SaveSnapshot stores an engine snapshot taken at month and records the
// month in world_meta. Older snapshots beyond keep are pruned; keep <= 0
// keeps everything.
func (db *DB) SaveSnapshot(month int, raw []byte, keep int) (int64, error) {
	tx, err := db.conn.Beginx()
	if err != nil {
		return 0, err
	}
	defer tx.Rollback()

	res, err := tx.Exec(
		"INSERT INTO snapshots (month, created_at, data) VALUES (?, ?, ?)",
		month, time.Now().UTC(), raw,
	)
	if err != nil {
		return 0, fmt.Errorf("insert snapshot: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, err
	}

	if keep > 0 {
		if _, err := tx.Exec(
			"DELETE FROM snapshots WHERE id NOT IN (SELECT id FROM snapshots ORDER BY id DESC LIMIT ?)",
			keep,
		); err != nil {
			return 0, fmt.Errorf("prune snapshots: %w", err)
		}
	}
	if _, err := tx.Exec(
		"INSERT OR REPLACE INTO world_meta (key, value) VALUES (?, ?)",
		"last_month", strconv.Itoa(month),
	); err != nil {
		return 0, fmt.Errorf("save meta: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return 0, err
	}
	slog.Debug("snapshot saved", "id", id, "month", month, "bytes", len(raw))
	return id, nil
}

// LatestSnapshot returns the most recently stored snapshot.
func (db *DB) LatestSnapshot() (SnapshotRow, error) {
	var row SnapshotRow
	err := db.conn.Get(&row,
		"SELECT id, month, created_at, data FROM snapshots ORDER BY id DESC LIMIT 1",
	)
	if errors.Is(err, sql.ErrNoRows) {
		return SnapshotRow{}, ErrNoSnapshot
	}
	return row, err
}

// Snapshots lists stored snapshots newest first, without their data.
func (db *DB) Snapshots(limit int) ([]SnapshotRow, error) {
	var rows []SnapshotRow
	err := db.conn.Select(&rows,
		"SELECT id, month, created_at FROM snapshots ORDER BY id DESC LIMIT ?",
		limit,
	)
	return rows, err
}

// SaveEvents appends events to the database. Events already stored are
// skipped.
func (db *DB) SaveEvents(evs []events.Event) error {
	if len(evs) == 0 {
		return nil
	}

	tx, err := db.conn.Beginx()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	stmt, err := tx.Preparex(`INSERT OR IGNORE INTO events
		(event_id, type, month, data_json, ts) VALUES (?, ?, ?, ?, ?)`)
	if err != nil {
		return err
	}
	defer stmt.Close()

	for _, e := range evs {
		dataJSON, err := json.Marshal(e.Data)
		if err != nil {
			return fmt.Errorf("encode event %s: %w", e.ID, err)
		}
		if _, err := stmt.Exec(e.ID, string(e.Type), e.Month, string(dataJSON), e.Timestamp.UTC()); err != nil {
			return fmt.Errorf("insert event %s: %w", e.ID, err)
		}
	}

	return tx.Commit()
}

// RecentEvents returns the most recent N events, oldest first.
func (db *DB) RecentEvents(limit int) ([]events.Event, error) {
	var rows []eventRow
	err := db.conn.Select(&rows,
		"SELECT event_id, type, month, data_json, ts FROM events ORDER BY id DESC LIMIT ?",
		limit,
	)
	if err != nil {
		return nil, err
	}

	out := make([]events.Event, 0, len(rows))
	for i := len(rows) - 1; i >= 0; i-- {
		r := rows[i]
		e := events.Event{ID: r.EventID, Type: events.Type(r.Type), Month: r.Month, Timestamp: r.TS}
		if err := json.Unmarshal([]byte(r.DataJSON), &e.Data); err != nil {
			return nil, fmt.Errorf("decode event %s: %w", r.EventID, err)
		}
		out = append(out, e)
	}
	return out, nil
}

// SaveMeta stores a key-value pair in world metadata.
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
	return value, err
}
