package flow

import (
	"log/slog"
	"strings"

	"github.com/cocoro-lab/cocorochat/internal/kb"
)

// ParseCompletion extracts the inferred phase and the reply body from raw
// completion text.
//
// The marker format is a requested convention, not a guarantee, so absence
// degrades gracefully: a missing or unrecognizable phase section falls back
// to phase_1, and a missing response marker treats the whole trimmed text as
// the reply. A turn never fails because of parsing.
//
// When isFirstToday is false the phase is not parsed (the caller already
// holds the fixed phase) and the returned phase is empty.
func ParseCompletion(raw string, isFirstToday bool) (phase, responseText string) {
	responseText = extractResponseText(raw)
	if isFirstToday {
		phase = extractPhase(raw)
	}
	return phase, responseText
}

// extractPhase scans the line following the phase marker for a known phase
// id; the earliest match by string position wins.
func extractPhase(raw string) string {
	idx := strings.Index(raw, PhaseMarker)
	if idx < 0 {
		slog.Debug("flow.extractPhase: phase marker absent, using fallback", "fallback", kb.DefaultPhase)
		return kb.DefaultPhase
	}
	line := raw[idx+len(PhaseMarker):]
	if nl := strings.IndexByte(line, '\n'); nl >= 0 {
		line = line[:nl]
	}

	best := ""
	bestPos := -1
	for _, id := range kb.PhaseOrder {
		if pos := strings.Index(line, id); pos >= 0 && (bestPos < 0 || pos < bestPos) {
			best = id
			bestPos = pos
		}
	}
	if best == "" {
		slog.Debug("flow.extractPhase: no known phase id after marker, using fallback", "line", line, "fallback", kb.DefaultPhase)
		return kb.DefaultPhase
	}
	return best
}

// extractResponseText returns everything after the response marker, trimmed;
// without the marker the whole trimmed text is the response.
func extractResponseText(raw string) string {
	idx := strings.Index(raw, ResponseMarker)
	if idx < 0 {
		return strings.TrimSpace(raw)
	}
	return strings.TrimSpace(raw[idx+len(ResponseMarker):])
}
