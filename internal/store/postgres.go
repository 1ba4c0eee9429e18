// Package store provides storage backends for CocoroChat conversation logs.
//
// This file implements the PostgreSQL-backed store.
package store

import (
	"database/sql"
	"fmt"
	"log/slog"
	"time"

	_ "embed"

	"github.com/cocoro-lab/cocorochat/internal/models"
	_ "github.com/lib/pq"
)

// Database connection pool configuration constants
const (
	// DefaultMaxOpenConns is the default maximum number of open connections to the database
	DefaultMaxOpenConns = 25
	// DefaultMaxIdleConns is the default maximum number of idle connections in the pool
	DefaultMaxIdleConns = 25
	// DefaultConnMaxLifetime is the default maximum amount of time a connection may be reused
	DefaultConnMaxLifetime = 5 * time.Minute
)

//go:embed migrations_postgres.sql
var postgresMigrations string

// PostgresStore is a conversation log backed by PostgreSQL.
type PostgresStore struct {
	db *sql.DB
}

// NewPostgresStore creates a new Postgres store based on provided options.
func NewPostgresStore(opts ...Option) (*PostgresStore, error) {
	var cfg Opts
	for _, opt := range opts {
		opt(&cfg)
	}
	slog.Debug("PostgresStore.NewPostgresStore: creating Postgres store", "DSN_set", cfg.DSN != "")

	dsn := cfg.DSN
	if dsn == "" {
		slog.Error("PostgresStore DSN not set")
		return nil, fmt.Errorf("database DSN not set")
	}

	db, err := sql.Open("postgres", dsn)
	if err != nil {
		slog.Error("Failed to open Postgres connection", "error", err)
		return nil, err
	}

	db.SetMaxOpenConns(DefaultMaxOpenConns)
	db.SetMaxIdleConns(DefaultMaxIdleConns)
	db.SetConnMaxLifetime(DefaultConnMaxLifetime)

	if err := db.Ping(); err != nil {
		slog.Error("Postgres ping failed", "error", err)
		return nil, err
	}

	// Run migrations to ensure the turns table exists
	slog.Debug("Running Postgres migrations")
	if _, err := db.Exec(postgresMigrations); err != nil {
		slog.Error("Failed to run migrations", "error", err)
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}
	slog.Debug("Postgres migrations applied successfully")

	return &PostgresStore{db: db}, nil
}

// AddTurn appends one completed turn to the conversation log.
func (s *PostgresStore) AddTurn(t models.Turn) error {
	_, err := s.db.Exec(
		`INSERT INTO turns (id, user_id, chat_date, user_message, bot_message, phase, message_time) VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		t.ID, t.UserID, t.ChatDate, t.UserMessage, t.BotMessage, t.Phase, t.MessageTime)
	if err != nil {
		slog.Error("PostgresStore AddTurn failed", "error", err, "userID", t.UserID, "chatDate", t.ChatDate)
		return fmt.Errorf("failed to insert turn for %s: %w", t.UserID, err)
	}
	slog.Debug("PostgresStore AddTurn succeeded", "userID", t.UserID, "chatDate", t.ChatDate, "phase", t.Phase)
	return nil
}

// ListTurns returns the turns of one (user, date) conversation day, ascending
// by message time.
func (s *PostgresStore) ListTurns(userID, chatDate string) ([]models.Turn, error) {
	rows, err := s.db.Query(
		`SELECT id, user_id, chat_date, user_message, bot_message, phase, message_time
		 FROM turns WHERE user_id = $1 AND chat_date = $2 ORDER BY message_time ASC`,
		userID, chatDate)
	if err != nil {
		slog.Error("PostgresStore ListTurns query failed", "error", err, "userID", userID, "chatDate", chatDate)
		return nil, fmt.Errorf("failed to query turns: %w", err)
	}
	defer rows.Close()

	turns := []models.Turn{}
	for rows.Next() {
		t, err := scanTurn(rows)
		if err != nil {
			slog.Error("PostgresStore ListTurns scan failed", "error", err)
			return nil, err
		}
		turns = append(turns, t)
	}
	if err := rows.Err(); err != nil {
		slog.Error("PostgresStore ListTurns rows iteration failed", "error", err)
		return nil, fmt.Errorf("failed to iterate turn rows: %w", err)
	}
	slog.Debug("PostgresStore ListTurns succeeded", "userID", userID, "chatDate", chatDate, "count", len(turns))
	return turns, nil
}

// ListChatDates returns the user's conversation dates, descending.
func (s *PostgresStore) ListChatDates(userID string) ([]string, error) {
	rows, err := s.db.Query(
		`SELECT DISTINCT chat_date FROM turns WHERE user_id = $1 ORDER BY chat_date DESC`, userID)
	if err != nil {
		slog.Error("PostgresStore ListChatDates query failed", "error", err, "userID", userID)
		return nil, fmt.Errorf("failed to query chat dates: %w", err)
	}
	defer rows.Close()

	dates := []string{}
	for rows.Next() {
		var d string
		if err := rows.Scan(&d); err != nil {
			slog.Error("PostgresStore ListChatDates scan failed", "error", err)
			return nil, fmt.Errorf("failed to scan chat date row: %w", err)
		}
		dates = append(dates, d)
	}
	if err := rows.Err(); err != nil {
		slog.Error("PostgresStore ListChatDates rows iteration failed", "error", err)
		return nil, fmt.Errorf("failed to iterate chat date rows: %w", err)
	}
	slog.Debug("PostgresStore ListChatDates succeeded", "userID", userID, "count", len(dates))
	return dates, nil
}

// ClearTurns deletes all records in the turns table (for tests).
func (s *PostgresStore) ClearTurns() error {
	_, err := s.db.Exec("DELETE FROM turns")
	if err != nil {
		slog.Error("PostgresStore ClearTurns failed", "error", err)
		return err
	}
	slog.Debug("PostgresStore ClearTurns succeeded")
	return nil
}

// Close closes the PostgreSQL database connection.
func (s *PostgresStore) Close() error {
	slog.Debug("Closing PostgreSQL database connection")
	err := s.db.Close()
	if err != nil {
		slog.Error("Failed to close PostgreSQL database", "error", err)
	}
	return err
}
