// Package storage provides the optional alert ledger: a small sqlite file recording
// which alerts have been delivered. With it, an alerts invocation that overlaps or
// repeats a previous one does not send the same alert twice.
//
// The ledger is off unless storage.ledger_path is set; without it every invocation
// is stateless.
package storage

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"
)

const schema = `
CREATE TABLE IF NOT EXISTS sent_alerts (
	row_id     TEXT    NOT NULL,
	event_time INTEGER NOT NULL,
	sent_at    INTEGER NOT NULL,
	PRIMARY KEY (row_id, event_time)
);
CREATE INDEX IF NOT EXISTS idx_sent_alerts_sent_at ON sent_alerts (sent_at);
`

// Storage is the sqlite-backed alert ledger
type Storage struct {
	db *sql.DB
}

// New opens (creating if needed) the ledger at path
func New(path string) (*Storage, error) {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("failed to create ledger directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open ledger: %w", err)
	}
	// single writer; avoids SQLITE_BUSY between pooled connections
	db.SetMaxOpenConns(1)

	if _, err := db.Exec("PRAGMA busy_timeout = 5000"); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to configure ledger: %w", err)
	}
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize ledger schema: %w", err)
	}

	return &Storage{db: db}, nil
}

// Close closes the ledger
func (s *Storage) Close() error {
	return s.db.Close()
}

// WasSent reports whether the alert for rowID at eventTime has been delivered.
// The event time is part of the key so a rescheduled release alerts again.
func (s *Storage) WasSent(rowID string, eventTime time.Time) (bool, error) {
	var n int
	err := s.db.QueryRow(
		"SELECT COUNT(*) FROM sent_alerts WHERE row_id = ? AND event_time = ?",
		rowID, eventTime.Unix(),
	).Scan(&n)
	if err != nil {
		return false, fmt.Errorf("failed to query ledger: %w", err)
	}
	return n > 0, nil
}

// MarkSent records a delivered alert
func (s *Storage) MarkSent(rowID string, eventTime, sentAt time.Time) error {
	_, err := s.db.Exec(
		"INSERT OR REPLACE INTO sent_alerts (row_id, event_time, sent_at) VALUES (?, ?, ?)",
		rowID, eventTime.Unix(), sentAt.Unix(),
	)
	if err != nil {
		return fmt.Errorf("failed to record alert %s: %w", rowID, err)
	}
	return nil
}

// Rotate removes entries sent before cutoff and returns how many were removed
func (s *Storage) Rotate(cutoff time.Time) (int64, error) {
	res, err := s.db.Exec("DELETE FROM sent_alerts WHERE sent_at < ?", cutoff.Unix())
	if err != nil {
		return 0, fmt.Errorf("failed to rotate ledger: %w", err)
	}
	return res.RowsAffected()
}

// Count returns the number of recorded alerts
func (s *Storage) Count() (int, error) {
	var n int
	if err := s.db.QueryRow("SELECT COUNT(*) FROM sent_alerts").Scan(&n); err != nil {
		return 0, fmt.Errorf("failed to count ledger entries: %w", err)
	}
	return n, nil
}
