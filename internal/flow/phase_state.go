package flow

import (
	"log/slog"
	"sync"
)

// phaseKey scopes the committed phase to one (user, calendar date) pair.
type phaseKey struct {
	userID   string
	chatDate string
}

// PhaseState holds the per-day inferred phase for each user. An entry is
// created by the first successful turn of a day and is never overwritten
// within that day; a new calendar date uses a new key, which resets the
// state to "no phase" and drops the previous day's entry for that user.
type PhaseState struct {
	mu     sync.Mutex
	phases map[phaseKey]string
}

// NewPhaseState creates an empty phase state keyed by (user, date).
func NewPhaseState() *PhaseState {
	return &PhaseState{phases: make(map[phaseKey]string)}
}

// Get returns the phase committed for the user's conversation day, if any.
func (s *PhaseState) Get(userID, chatDate string) (string, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.phases[phaseKey{userID, chatDate}]
	return p, ok
}

// Commit records the phase for the user's conversation day and returns the
// phase that is now in effect. The first write wins: committing again on the
// same day returns the already-committed phase unchanged. Entries the user
// holds for other dates are dropped, so state does not accumulate across
// date rollovers.
func (s *PhaseState) Commit(userID, chatDate, phase string) string {
	s.mu.Lock()
	defer s.mu.Unlock()

	key := phaseKey{userID, chatDate}
	if existing, ok := s.phases[key]; ok {
		slog.Debug("PhaseState.Commit: phase already fixed for day", "userID", userID, "chatDate", chatDate, "phase", existing)
		return existing
	}
	for k := range s.phases {
		if k.userID == userID && k.chatDate != chatDate {
			delete(s.phases, k)
		}
	}
	s.phases[key] = phase
	slog.Debug("PhaseState.Commit: phase fixed for day", "userID", userID, "chatDate", chatDate, "phase", phase)
	return phase
}
