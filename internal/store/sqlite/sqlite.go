package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/vovakirdan/collabhub-server/internal/activity"
)

const schema = `
CREATE TABLE IF NOT EXISTS activity (
	id            INTEGER PRIMARY KEY AUTOINCREMENT,
	kind          TEXT    NOT NULL,
	room_id       TEXT    NOT NULL DEFAULT '',
	connection_id TEXT    NOT NULL DEFAULT '',
	user_name     TEXT    NOT NULL DEFAULT '',
	size          INTEGER NOT NULL DEFAULT 0,
	at_ms         INTEGER NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_activity_room ON activity(room_id, id DESC);
`

// Journal is an append-only SQLite log of activity events.
// It records what happened in rooms, never document or chat contents.
type Journal struct {
	db *sql.DB
}

// New opens (creating if needed) the journal at dbPath and applies the schema.
func New(dbPath string) (*Journal, error) {
	return NewWithSetup(dbPath, applySchema)
}

// NewWithSetup opens the journal and runs setup instead of the default schema.
// Useful for tests.
func NewWithSetup(dbPath string, setup func(*sql.DB) error) (*Journal, error) {
	db, err := sql.Open("sqlite3", dbPath+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}

	// SQLite works best with single connection
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	if setup != nil {
		if err := setup(db); err != nil {
			db.Close()
			return nil, fmt.Errorf("setup: %w", err)
		}
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping sqlite: %w", err)
	}

	return &Journal{db: db}, nil
}

func applySchema(db *sql.DB) error {
	_, err := db.Exec(schema)
	return err
}

// Close closes the database connection.
func (j *Journal) Close() error {
	return j.db.Close()
}

// Record implements activity.Sink.
func (j *Journal) Record(ctx context.Context, ev activity.Event) error {
	query := `
		INSERT INTO activity (kind, room_id, connection_id, user_name, size, at_ms)
		VALUES (?, ?, ?, ?, ?, ?)
	`
	_, err := j.db.ExecContext(ctx, query,
		string(ev.Kind), ev.RoomID, ev.ConnID, ev.User, ev.Size, ev.At.UnixMilli())
	if err != nil {
		return fmt.Errorf("insert activity: %w", err)
	}
	return nil
}

// Recent returns up to limit events, newest first. An empty roomID returns
// events across all rooms.
func (j *Journal) Recent(ctx context.Context, roomID string, limit int) ([]activity.Event, error) {
	if limit <= 0 {
		limit = 50
	}

	var (
		rows *sql.Rows
		err  error
	)
	if roomID == "" {
		rows, err = j.db.QueryContext(ctx, `
			SELECT kind, room_id, connection_id, user_name, size, at_ms
			FROM activity
			ORDER BY id DESC
			LIMIT ?
		`, limit)
	} else {
		rows, err = j.db.QueryContext(ctx, `
			SELECT kind, room_id, connection_id, user_name, size, at_ms
			FROM activity
			WHERE room_id = ?
			ORDER BY id DESC
			LIMIT ?
		`, roomID, limit)
	}
	if err != nil {
		return nil, fmt.Errorf("query activity: %w", err)
	}
	defer rows.Close()

	var events []activity.Event
	for rows.Next() {
		var (
			ev   activity.Event
			kind string
			atMS int64
		)
		if err := rows.Scan(&kind, &ev.RoomID, &ev.ConnID, &ev.User, &ev.Size, &atMS); err != nil {
			return nil, fmt.Errorf("scan activity: %w", err)
		}
		ev.Kind = activity.Kind(kind)
		ev.At = time.UnixMilli(atMS).UTC()
		events = append(events, ev)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate activity: %w", err)
	}
	return events, nil
}

var _ activity.Sink = (*Journal)(nil)
