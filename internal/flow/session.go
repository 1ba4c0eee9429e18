package flow

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/cocoro-lab/cocorochat/internal/genai"
	"github.com/cocoro-lab/cocorochat/internal/kb"
	"github.com/cocoro-lab/cocorochat/internal/models"
	"github.com/cocoro-lab/cocorochat/internal/store"
	"github.com/cocoro-lab/cocorochat/internal/util"
	"github.com/openai/openai-go"
)

// TurnResult is the outcome of one conversation turn.
type TurnResult struct {
	Turn models.Turn
	// PhaseInferred reports whether this turn ran first-of-day phase inference.
	PhaseInferred bool
	// StoreErr is set when the reply was computed but could not be persisted.
	// The turn itself still succeeded; only durability is degraded.
	StoreErr error
}

// Session orchestrates conversation turns end-to-end: it loads the day's
// history, decides whether phase inference is required, invokes the
// completion engine, commits the per-day phase, and appends the turn to the
// conversation log.
type Session struct {
	kb          *kb.KnowledgeBase
	st          store.Store
	genaiClient genai.ClientInterface
	phaseState  *PhaseState
}

// NewSession creates a session orchestrator with its dependencies.
func NewSession(k *kb.KnowledgeBase, st store.Store, genaiClient genai.ClientInterface) *Session {
	slog.Debug("flow.NewSession: creating session orchestrator", "hasStore", st != nil, "hasGenAI", genaiClient != nil)
	return &Session{
		kb:          k,
		st:          st,
		genaiClient: genaiClient,
		phaseState:  NewPhaseState(),
	}
}

// HandleTurn processes one user message for the given conversation day.
//
// Only a completion-engine failure aborts the turn; a store failure on
// append degrades to TurnResult.StoreErr so the computed reply still reaches
// the caller. History that cannot be loaded is treated as empty with a
// warning: losing context is preferable to refusing the turn.
func (s *Session) HandleTurn(ctx context.Context, userID, chatDate, userMessage string) (TurnResult, error) {
	history, err := s.st.ListTurns(userID, chatDate)
	if err != nil {
		slog.Warn("Session.HandleTurn: failed to load day history, continuing with empty history", "error", err, "userID", userID, "chatDate", chatDate)
		history = nil
	}

	sessionPhase, havePhase := s.phaseState.Get(userID, chatDate)
	isFirstToday := len(history) == 0 || !havePhase
	fixedPhase := ""
	if !isFirstToday {
		fixedPhase = sessionPhase
	}
	slog.Debug("Session.HandleTurn: processing turn", "userID", userID, "chatDate", chatDate, "historyCount", len(history), "isFirstToday", isFirstToday, "fixedPhase", fixedPhase)

	messages := make([]openai.ChatCompletionMessageParamUnion, 0, 2*len(history)+2)
	messages = append(messages, openai.SystemMessage(ComposeSystemPrompt(s.kb, fixedPhase, isFirstToday)))
	messages = append(messages, BuildTurnMessages(history, userMessage)...)

	raw, err := s.genaiClient.GenerateWithMessages(ctx, messages)
	if err != nil {
		slog.Error("Session.HandleTurn: completion engine failed", "error", err, "userID", userID)
		return TurnResult{}, fmt.Errorf("completion engine failed: %w", err)
	}

	parsedPhase, responseText := ParseCompletion(raw, isFirstToday)
	if isFirstToday {
		// First write wins; a concurrent first turn may already have
		// committed, in which case that phase is the one in effect.
		sessionPhase = s.phaseState.Commit(userID, chatDate, parsedPhase)
	}

	turn := models.Turn{
		ID:          util.GenerateTurnID(),
		UserID:      userID,
		ChatDate:    chatDate,
		UserMessage: userMessage,
		BotMessage:  responseText,
		Phase:       sessionPhase,
		MessageTime: time.Now(),
	}
	result := TurnResult{Turn: turn, PhaseInferred: isFirstToday}

	if err := s.st.AddTurn(turn); err != nil {
		slog.Warn("Session.HandleTurn: failed to persist turn, returning reply anyway", "error", err, "userID", userID, "chatDate", chatDate)
		result.StoreErr = err
	}

	slog.Info("Session.HandleTurn: turn completed", "userID", userID, "chatDate", chatDate, "phase", sessionPhase, "phaseInferred", result.PhaseInferred, "persisted", result.StoreErr == nil)
	return result, nil
}

// CurrentPhase returns the phase fixed for the user's conversation day, if
// one has been committed.
func (s *Session) CurrentPhase(userID, chatDate string) (string, bool) {
	return s.phaseState.Get(userID, chatDate)
}
