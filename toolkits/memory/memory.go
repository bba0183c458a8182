// Package memory provides per-chat durable notes backed by SQLite.
//
// Notes are (chat_id, key, value) rows; remembering an existing key replaces
// its value. The remember/recall/forget tools share one Store, so a single
// database file can serve several registries.
package memory

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	_ "modernc.org/sqlite"
)

const schema = `
CREATE TABLE IF NOT EXISTS notes (
	chat_id    TEXT NOT NULL,
	key        TEXT NOT NULL,
	value      TEXT NOT NULL,
	updated_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP,
	PRIMARY KEY (chat_id, key)
)`

// Store persists notes in a SQLite database file.
type Store struct {
	db *sql.DB
}

// Open creates or opens the database at path and ensures the notes table
// exists. Close the store when done.
func Open(path string) (*Store, error) {
	if path == "" {
		return nil, errors.New("memory: database path is required")
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	// SQLite allows a single writer, so the pool keeps one connection.
	db.SetMaxOpenConns(1)
	if _, err := db.Exec(schema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("create schema: %w", err)
	}
	return &Store{db: db}, nil
}

// Close releases the underlying database handle.
func (s *Store) Close() error {
	return s.db.Close()
}

type note struct {
	key   string
	value string
}

func (s *Store) upsert(ctx context.Context, chatID, key, value string) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO notes (chat_id, key, value, updated_at)
		 VALUES (?, ?, ?, CURRENT_TIMESTAMP)
		 ON CONFLICT (chat_id, key)
		 DO UPDATE SET value = excluded.value, updated_at = CURRENT_TIMESTAMP`,
		chatID, key, value)
	return err
}

func (s *Store) get(ctx context.Context, chatID, key string) (string, bool, error) {
	var value string
	err := s.db.QueryRowContext(ctx,
		`SELECT value FROM notes WHERE chat_id = ? AND key = ?`,
		chatID, key).Scan(&value)
	switch {
	case errors.Is(err, sql.ErrNoRows):
		return "", false, nil
	case err != nil:
		return "", false, err
	}
	return value, true, nil
}

func (s *Store) list(ctx context.Context, chatID string) ([]note, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT key, value FROM notes WHERE chat_id = ? ORDER BY key`,
		chatID)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	var notes []note
	for rows.Next() {
		var n note
		if err := rows.Scan(&n.key, &n.value); err != nil {
			return nil, err
		}
		notes = append(notes, n)
	}
	return notes, rows.Err()
}

func (s *Store) remove(ctx context.Context, chatID, key string) (bool, error) {
	res, err := s.db.ExecContext(ctx,
		`DELETE FROM notes WHERE chat_id = ? AND key = ?`,
		chatID, key)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}
