package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	_ "modernc.org/sqlite"

	"github.com/pfrederiksen/seatwatch/internal/history"
	"github.com/pfrederiksen/seatwatch/internal/seat"
)

const schema = `
CREATE TABLE IF NOT EXISTS poll_records (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	session_id TEXT NOT NULL,
	showtime_id TEXT NOT NULL,
	polled_at TEXT NOT NULL,
	event TEXT NOT NULL,
	available_seats TEXT NOT NULL,
	new_seats TEXT NOT NULL,
	removed_seats TEXT NOT NULL,
	error TEXT NOT NULL
);
CREATE INDEX IF NOT EXISTS poll_records_session ON poll_records (session_id, id);
`

// SQLiteMirror appends poll records to a SQLite database
type SQLiteMirror struct {
	db         *sql.DB
	sessionID  string
	showtimeID string
}

// OpenSQLiteMirror opens (or creates) the database at path for one session
func OpenSQLiteMirror(ctx context.Context, path, sessionID, showtimeID string) (*SQLiteMirror, error) {
	path, err := ExpandPath(path)
	if err != nil {
		return nil, err
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("opening history database: %w", err)
	}
	db.SetMaxOpenConns(1)

	if _, err := db.ExecContext(ctx, schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating history schema: %w", err)
	}

	return &SQLiteMirror{
		db:         db,
		sessionID:  sessionID,
		showtimeID: showtimeID,
	}, nil
}

// Append stores a single record
func (m *SQLiteMirror) Append(ctx context.Context, r history.Record) error {
	available, err := encodeSeats(r.AvailableSeats)
	if err != nil {
		return err
	}
	added, err := encodeSeats(r.NewSeats)
	if err != nil {
		return err
	}
	removed, err := encodeSeats(r.RemovedSeats)
	if err != nil {
		return err
	}

	_, err = m.db.ExecContext(ctx,
		`INSERT INTO poll_records
			(session_id, showtime_id, polled_at, event, available_seats, new_seats, removed_seats, error)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		m.sessionID, m.showtimeID, r.Timestamp.UTC().Format(time.RFC3339Nano), string(r.Event),
		available, added, removed, r.Error,
	)
	if err != nil {
		return fmt.Errorf("inserting poll record: %w", err)
	}
	return nil
}

// Session returns the records stored for a session, oldest first
func (m *SQLiteMirror) Session(ctx context.Context, sessionID string) ([]history.Record, error) {
	rows, err := m.db.QueryContext(ctx,
		`SELECT polled_at, event, available_seats, new_seats, removed_seats, error
		FROM poll_records WHERE session_id = ? ORDER BY id`, sessionID)
	if err != nil {
		return nil, fmt.Errorf("querying poll records: %w", err)
	}
	defer rows.Close()

	records := make([]history.Record, 0)
	for rows.Next() {
		var (
			polledAt, event, available, added, removed string
			r                                          history.Record
		)
		if err := rows.Scan(&polledAt, &event, &available, &added, &removed, &r.Error); err != nil {
			return nil, fmt.Errorf("scanning poll record: %w", err)
		}

		r.Timestamp, err = time.Parse(time.RFC3339Nano, polledAt)
		if err != nil {
			return nil, fmt.Errorf("parsing poll time: %w", err)
		}
		r.Event = history.Kind(event)
		if r.AvailableSeats, err = decodeSeats(available); err != nil {
			return nil, err
		}
		if r.NewSeats, err = decodeSeats(added); err != nil {
			return nil, err
		}
		if r.RemovedSeats, err = decodeSeats(removed); err != nil {
			return nil, err
		}
		records = append(records, r)
	}

	return records, rows.Err()
}

// Close closes the database
func (m *SQLiteMirror) Close() error {
	return m.db.Close()
}

func encodeSeats(ids []seat.ID) (string, error) {
	if ids == nil {
		ids = []seat.ID{}
	}
	data, err := json.Marshal(ids)
	if err != nil {
		return "", fmt.Errorf("encoding seats: %w", err)
	}
	return string(data), nil
}

func decodeSeats(s string) ([]seat.ID, error) {
	var ids []seat.ID
	if err := json.Unmarshal([]byte(s), &ids); err != nil {
		return nil, fmt.Errorf("decoding seats: %w", err)
	}
	if len(ids) == 0 {
		return nil, nil
	}
	return ids, nil
}
