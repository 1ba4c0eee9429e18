// Package store provides storage backends for CocoroChat conversation logs.
//
// This file implements the SQLite-backed store.
package store

import (
	"database/sql"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	_ "embed"

	"github.com/cocoro-lab/cocorochat/internal/models"
	_ "github.com/mattn/go-sqlite3"
)

// Constants for SQLite store configuration
const (
	// DefaultDirPermissions defines the default permissions for database directories
	DefaultDirPermissions = 0755
)

//go:embed migrations_sqlite.sql
var sqliteMigrations string

// SQLiteStore is a conversation log backed by a SQLite database file.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLiteStore creates a new SQLite store with the given DSN.
// The DSN is a file path to the SQLite database file; its directory is
// created if missing.
func NewSQLiteStore(opts ...Option) (*SQLiteStore, error) {
	var cfg Opts
	for _, opt := range opts {
		opt(&cfg)
	}
	slog.Debug("NewSQLiteStore invoked", "DSN_set", cfg.DSN != "")

	dsn := cfg.DSN
	if dsn == "" {
		slog.Error("SQLiteStore DSN not set")
		return nil, fmt.Errorf("database DSN not set")
	}

	dir := filepath.Dir(dsn)
	if err := os.MkdirAll(dir, DefaultDirPermissions); err != nil {
		slog.Error("Failed to create database directory", "error", err, "dir", dir)
		return nil, fmt.Errorf("failed to create database directory: %w", err)
	}
	slog.Debug("SQLite database directory verified/created", "dir", dir)

	db, err := sql.Open("sqlite3", dsn)
	if err != nil {
		slog.Error("Failed to open SQLite connection", "error", err)
		return nil, err
	}
	if err := db.Ping(); err != nil {
		slog.Error("SQLite ping failed", "error", err)
		return nil, err
	}

	// Run migrations to ensure the turns table exists
	slog.Debug("Running SQLite migrations")
	if _, err := db.Exec(sqliteMigrations); err != nil {
		slog.Error("Failed to run migrations", "error", err)
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}
	slog.Debug("SQLite migrations applied successfully")

	return &SQLiteStore{db: db}, nil
}

// AddTurn appends one completed turn to the conversation log.
func (s *SQLiteStore) AddTurn(t models.Turn) error {
	_, err := s.db.Exec(
		`INSERT INTO turns (id, user_id, chat_date, user_message, bot_message, phase, message_time) VALUES (?, ?, ?, ?, ?, ?, ?)`,
		t.ID, t.UserID, t.ChatDate, t.UserMessage, t.BotMessage, t.Phase, t.MessageTime)
	if err != nil {
		slog.Error("SQLiteStore AddTurn failed", "error", err, "userID", t.UserID, "chatDate", t.ChatDate)
		return fmt.Errorf("failed to insert turn for %s: %w", t.UserID, err)
	}
	slog.Debug("SQLiteStore AddTurn succeeded", "userID", t.UserID, "chatDate", t.ChatDate, "phase", t.Phase)
	return nil
}

// ListTurns returns the turns of one (user, date) conversation day, ascending
// by message time.
func (s *SQLiteStore) ListTurns(userID, chatDate string) ([]models.Turn, error) {
	rows, err := s.db.Query(
		`SELECT id, user_id, chat_date, user_message, bot_message, phase, message_time
		 FROM turns WHERE user_id = ? AND chat_date = ? ORDER BY message_time ASC`,
		userID, chatDate)
	if err != nil {
		slog.Error("SQLiteStore ListTurns query failed", "error", err, "userID", userID, "chatDate", chatDate)
		return nil, fmt.Errorf("failed to query turns: %w", err)
	}
	defer rows.Close()

	turns := []models.Turn{}
	for rows.Next() {
		t, err := scanTurn(rows)
		if err != nil {
			slog.Error("SQLiteStore ListTurns scan failed", "error", err)
			return nil, err
		}
		turns = append(turns, t)
	}
	if err := rows.Err(); err != nil {
		slog.Error("SQLiteStore ListTurns rows iteration failed", "error", err)
		return nil, fmt.Errorf("failed to iterate turn rows: %w", err)
	}
	slog.Debug("SQLiteStore ListTurns succeeded", "userID", userID, "chatDate", chatDate, "count", len(turns))
	return turns, nil
}

// ListChatDates returns the user's conversation dates, descending.
func (s *SQLiteStore) ListChatDates(userID string) ([]string, error) {
	rows, err := s.db.Query(
		`SELECT DISTINCT chat_date FROM turns WHERE user_id = ? ORDER BY chat_date DESC`, userID)
	if err != nil {
		slog.Error("SQLiteStore ListChatDates query failed", "error", err, "userID", userID)
		return nil, fmt.Errorf("failed to query chat dates: %w", err)
	}
	defer rows.Close()

	dates := []string{}
	for rows.Next() {
		var d string
		if err := rows.Scan(&d); err != nil {
			slog.Error("SQLiteStore ListChatDates scan failed", "error", err)
			return nil, fmt.Errorf("failed to scan chat date row: %w", err)
		}
		dates = append(dates, d)
	}
	if err := rows.Err(); err != nil {
		slog.Error("SQLiteStore ListChatDates rows iteration failed", "error", err)
		return nil, fmt.Errorf("failed to iterate chat date rows: %w", err)
	}
	slog.Debug("SQLiteStore ListChatDates succeeded", "userID", userID, "count", len(dates))
	return dates, nil
}

// ClearTurns deletes all records in the turns table (for tests).
func (s *SQLiteStore) ClearTurns() error {
	_, err := s.db.Exec("DELETE FROM turns")
	if err != nil {
		slog.Error("SQLiteStore ClearTurns failed", "error", err)
		return err
	}
	slog.Debug("SQLiteStore ClearTurns succeeded")
	return nil
}

// Close closes the SQLite database connection.
func (s *SQLiteStore) Close() error {
	slog.Debug("Closing SQLite database connection")
	err := s.db.Close()
	if err != nil {
		slog.Error("Failed to close SQLite database", "error", err)
	}
	return err
}
