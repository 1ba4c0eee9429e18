// Package api provides HTTP handlers and the main API server logic for CocoroChat.
//
// It exposes JSON endpoints for running conversation turns, browsing the
// per-day chat log, and inspecting the counseling knowledge base. The API
// integrates the flow, genai, kb, and store modules; authentication happens
// upstream and the supplied user_id is trusted as-is.
package api

import (
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/cocoro-lab/cocorochat/internal/flow"
	"github.com/cocoro-lab/cocorochat/internal/genai"
	"github.com/cocoro-lab/cocorochat/internal/kb"
	"github.com/cocoro-lab/cocorochat/internal/models"
	"github.com/cocoro-lab/cocorochat/internal/store"
)

// Default server configuration constants
const (
	// DefaultAddr is the default API listen address.
	DefaultAddr = ":8080"
	// DefaultTimezone is the IANA timezone used to derive the conversation day.
	DefaultTimezone = "Asia/Tokyo"
	// DefaultReadHeaderTimeout bounds header reads on incoming connections.
	DefaultReadHeaderTimeout = 10 * time.Second
)

// Opts holds configuration options for the API server.
type Opts struct {
	Addr     string
	Timezone string
}

// Option configures the API server.
type Option func(*Opts)

// WithAddr sets the API listen address.
func WithAddr(addr string) Option {
	return func(o *Opts) { o.Addr = addr }
}

// WithTimezone sets the IANA timezone used to compute "today".
func WithTimezone(tz string) Option {
	return func(o *Opts) { o.Timezone = tz }
}

// Server bundles the API dependencies and handlers.
type Server struct {
	st      store.Store
	session *flow.Session
	kb      *kb.KnowledgeBase
	loc     *time.Location
}

// NewServer creates an API server with the given dependencies.
func NewServer(st store.Store, session *flow.Session, k *kb.KnowledgeBase, loc *time.Location) *Server {
	if loc == nil {
		loc = time.UTC
	}
	return &Server{st: st, session: session, kb: k, loc: loc}
}

// today returns the current conversation date in the configured timezone.
func (s *Server) today() string {
	return time.Now().In(s.loc).Format(models.ChatDateLayout)
}

// Routes registers all handlers on a new ServeMux.
func (s *Server) Routes() *http.ServeMux {
	mux := http.NewServeMux()
	mux.HandleFunc("/chat/turns", s.chatTurnHandler)
	mux.HandleFunc("/chat/history", s.historyHandler)
	mux.HandleFunc("/chat/dates", s.datesHandler)
	mux.HandleFunc("/phases", s.phasesHandler)
	mux.HandleFunc("/phases/score", s.scorePhasesHandler)
	mux.HandleFunc("/health", s.healthHandler)
	return mux
}

// Run wires up all modules from the given options and serves the API.
// A knowledge base that fails to load is fatal: no turns can proceed
// without the reference data.
func Run(storeOpts []store.Option, genaiOpts []genai.Option, apiOpts []Option) error {
	cfg := Opts{
		Addr:     DefaultAddr,
		Timezone: DefaultTimezone,
	}
	for _, opt := range apiOpts {
		opt(&cfg)
	}

	loc, err := time.LoadLocation(cfg.Timezone)
	if err != nil {
		slog.Error("api.Run: invalid timezone", "timezone", cfg.Timezone, "error", err)
		return fmt.Errorf("invalid timezone %q: %w", cfg.Timezone, err)
	}

	k, err := kb.Load()
	if err != nil {
		slog.Error("api.Run: failed to load knowledge base", "error", err)
		return fmt.Errorf("failed to load knowledge base: %w", err)
	}
	slog.Info("api.Run: knowledge base loaded", "phases", len(k.AllPhases()))

	st, err := store.NewStore(storeOpts...)
	if err != nil {
		slog.Error("api.Run: failed to initialize store", "error", err)
		return fmt.Errorf("failed to initialize store: %w", err)
	}
	defer st.Close()

	gaClient, err := genai.NewClient(genaiOpts...)
	if err != nil {
		slog.Error("api.Run: failed to initialize GenAI client", "error", err)
		return fmt.Errorf("failed to initialize GenAI client: %w", err)
	}

	session := flow.NewSession(k, st, gaClient)
	server := NewServer(st, session, k, loc)

	httpServer := &http.Server{
		Addr:              cfg.Addr,
		Handler:           server.Routes(),
		ReadHeaderTimeout: DefaultReadHeaderTimeout,
	}
	slog.Info("CocoroChat API running", "addr", cfg.Addr, "timezone", cfg.Timezone)
	return httpServer.ListenAndServe()
}
