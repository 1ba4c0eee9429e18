// Package store provides storage backends for CocoroChat conversation logs.
//
// Turns are keyed by (user_id, chat_date) and ordered by message_time. Three
// backends exist: in-memory (tests and DSN-less runs), SQLite, and PostgreSQL.
package store

import (
	"log/slog"
	"sort"
	"strings"
	"sync"

	"github.com/cocoro-lab/cocorochat/internal/models"
)

// Store defines the conversation log operations used by the flow and API layers.
type Store interface {
	// AddTurn appends one completed turn to the conversation log.
	AddTurn(t models.Turn) error
	// ListTurns returns the turns of one (user, date) conversation day,
	// ascending by message time. A day with no turns yields an empty slice.
	ListTurns(userID, chatDate string) ([]models.Turn, error)
	// ListChatDates returns the dates with at least one turn for the user,
	// descending for display.
	ListChatDates(userID string) ([]string, error)
	// Close releases backend resources.
	Close() error
}

// Opts holds configuration options for store backends.
type Opts struct {
	DSN string
}

// Option configures a store backend.
type Option func(*Opts)

// WithSQLiteDSN sets a SQLite file path DSN.
func WithSQLiteDSN(dsn string) Option {
	return func(o *Opts) { o.DSN = dsn }
}

// WithPostgresDSN sets a PostgreSQL connection DSN.
func WithPostgresDSN(dsn string) Option {
	return func(o *Opts) { o.DSN = dsn }
}

// DetectDSNType classifies a DSN as "postgres" or "sqlite".
// PostgreSQL DSNs use URL or key=value form; anything else is a file path.
func DetectDSNType(dsn string) string {
	if strings.HasPrefix(dsn, "postgres://") || strings.HasPrefix(dsn, "postgresql://") || strings.Contains(dsn, "host=") {
		return "postgres"
	}
	return "sqlite"
}

// NewStore creates a store backend from options: PostgreSQL or SQLite when a
// DSN is configured, otherwise the in-memory store.
func NewStore(opts ...Option) (Store, error) {
	var cfg Opts
	for _, opt := range opts {
		opt(&cfg)
	}
	if cfg.DSN == "" {
		slog.Debug("store.NewStore: no DSN configured, using in-memory store")
		return NewInMemoryStore(), nil
	}
	if DetectDSNType(cfg.DSN) == "postgres" {
		slog.Debug("store.NewStore: using PostgreSQL store")
		return NewPostgresStore(opts...)
	}
	slog.Debug("store.NewStore: using SQLite store", "path", cfg.DSN)
	return NewSQLiteStore(opts...)
}

// InMemoryStore is a mutex-guarded in-memory conversation log.
type InMemoryStore struct {
	mu    sync.Mutex
	turns []models.Turn
}

// NewInMemoryStore creates an empty in-memory store.
func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{}
}

// AddTurn appends a turn to the in-memory log.
func (s *InMemoryStore) AddTurn(t models.Turn) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.turns = append(s.turns, t)
	slog.Debug("InMemoryStore.AddTurn succeeded", "userID", t.UserID, "chatDate", t.ChatDate)
	return nil
}

// ListTurns returns the turns of one conversation day, ascending by message time.
func (s *InMemoryStore) ListTurns(userID, chatDate string) ([]models.Turn, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	turns := []models.Turn{}
	for _, t := range s.turns {
		if t.UserID == userID && t.ChatDate == chatDate {
			turns = append(turns, t)
		}
	}
	sort.SliceStable(turns, func(i, j int) bool {
		return turns[i].MessageTime.Before(turns[j].MessageTime)
	})
	return turns, nil
}

// ListChatDates returns the user's conversation dates, descending.
func (s *InMemoryStore) ListChatDates(userID string) ([]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	seen := map[string]bool{}
	dates := []string{}
	for _, t := range s.turns {
		if t.UserID == userID && !seen[t.ChatDate] {
			seen[t.ChatDate] = true
			dates = append(dates, t.ChatDate)
		}
	}
	sort.Sort(sort.Reverse(sort.StringSlice(dates)))
	return dates, nil
}

// Close is a no-op for the in-memory store.
func (s *InMemoryStore) Close() error {
	return nil
}
