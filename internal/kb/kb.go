// Package kb provides the immutable counseling knowledge base: the four
// support phases, the transformation triggers that move a person between
// phases, and the catalog of support interventions.
//
// The backing data is embedded at build time and loaded once at process
// start; the loaded value is shared read-only across all sessions.
package kb

import (
	"encoding/json"
	"fmt"
	"sort"
	"strings"

	_ "embed"
)

//go:embed knowledge_base.json
var knowledgeBaseJSON []byte

// Known phase identifiers, in their fixed progression order.
const (
	Phase1 = "phase_1"
	Phase2 = "phase_2"
	Phase3 = "phase_3"
	Phase4 = "phase_4"
)

// DefaultPhase is the fallback phase used whenever inference cannot
// identify a phase for a first-of-day message.
const DefaultPhase = Phase1

// PhaseOrder lists the known phase identifiers in fixed order.
var PhaseOrder = []string{Phase1, Phase2, Phase3, Phase4}

// Phase describes one support phase of the knowledge base.
type Phase struct {
	ID         string   `json:"id"`
	Name       string   `json:"name"`       // display name
	Features   string   `json:"features"`   // descriptive features text
	Utterances []string `json:"utterances"` // example first-person utterances
	Support    string   `json:"support"`    // recommended support direction
	Concepts   []string `json:"concepts"`   // related-concept tags
}

// PhaseScore pairs a phase with its keyword-match score against free text.
type PhaseScore struct {
	Phase Phase `json:"phase"`
	Score int   `json:"score"`
}

// IsValidPhase reports whether id is one of the known phase identifiers.
func IsValidPhase(id string) bool {
	switch id {
	case Phase1, Phase2, Phase3, Phase4:
		return true
	default:
		return false
	}
}

// rawKnowledgeBase mirrors the embedded JSON schema.
type rawKnowledgeBase struct {
	Phases   map[string]rawPhase `json:"phases"`
	Triggers map[string][]string `json:"triggers"`
	Supports map[string]string   `json:"supports"`
}

type rawPhase struct {
	Name       string   `json:"name"`
	Features   string   `json:"features"`
	Utterances []string `json:"utterances"`
	Support    string   `json:"support"`
	Concepts   []string `json:"concepts"`
}

// KnowledgeBase is the loaded, read-only reference data.
type KnowledgeBase struct {
	phases     map[string]Phase
	triggers   map[string][]string
	supports   map[string]string
	serialized string
}

// Load parses the embedded knowledge base data.
// It fails if the data is malformed or contains no phase entries.
func Load() (*KnowledgeBase, error) {
	return LoadFrom(knowledgeBaseJSON)
}

// LoadFrom parses knowledge base data from the given JSON bytes.
// Missing optional fields default to empty or placeholder text; only a
// malformed document or an empty phase set is an error.
func LoadFrom(data []byte) (*KnowledgeBase, error) {
	var raw rawKnowledgeBase
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("failed to parse knowledge base: %w", err)
	}
	if len(raw.Phases) == 0 {
		return nil, fmt.Errorf("knowledge base contains no phase entries")
	}

	k := &KnowledgeBase{
		phases:   make(map[string]Phase, len(raw.Phases)),
		triggers: raw.Triggers,
		supports: raw.Supports,
	}
	if k.triggers == nil {
		k.triggers = map[string][]string{}
	}
	if k.supports == nil {
		k.supports = map[string]string{}
	}
	for id, rp := range raw.Phases {
		p := Phase{
			ID:         id,
			Name:       rp.Name,
			Features:   rp.Features,
			Utterances: rp.Utterances,
			Support:    rp.Support,
			Concepts:   rp.Concepts,
		}
		if p.Name == "" {
			p.Name = id
		}
		if p.Support == "" {
			p.Support = "状態に応じた環境調整が有効とされています。"
		}
		k.phases[id] = p
	}

	serialized, err := json.Marshal(raw)
	if err != nil {
		return nil, fmt.Errorf("failed to serialize knowledge base: %w", err)
	}
	k.serialized = string(serialized)
	return k, nil
}

// Phase returns the phase with the given id.
func (k *KnowledgeBase) Phase(id string) (Phase, bool) {
	p, ok := k.phases[id]
	return p, ok
}

// AllPhases returns the known phases in fixed phase_1..phase_4 order.
// Phases absent from the loaded data are skipped.
func (k *KnowledgeBase) AllPhases() []Phase {
	phases := make([]Phase, 0, len(k.phases))
	for _, id := range PhaseOrder {
		if p, ok := k.phases[id]; ok {
			phases = append(phases, p)
		}
	}
	// Any non-standard phase ids come after the fixed order, sorted by id.
	var extra []string
	for id := range k.phases {
		if !IsValidPhase(id) {
			extra = append(extra, id)
		}
	}
	sort.Strings(extra)
	for _, id := range extra {
		phases = append(phases, k.phases[id])
	}
	return phases
}

// Triggers returns the transformation trigger categories.
func (k *KnowledgeBase) Triggers() map[string][]string {
	return k.triggers
}

// Supports returns the support intervention catalog.
func (k *KnowledgeBase) Supports() map[string]string {
	return k.supports
}

// Serialized returns the full knowledge base as a JSON string, suitable for
// embedding verbatim into completion-engine instructions.
func (k *KnowledgeBase) Serialized() string {
	return k.serialized
}

// ScorePhases scores free text against each phase by counting example
// utterances and related concepts that appear as substrings, and returns
// the phases ranked by score descending (ties keep phase order).
func (k *KnowledgeBase) ScorePhases(text string) []PhaseScore {
	scores := make([]PhaseScore, 0, len(k.phases))
	for _, p := range k.AllPhases() {
		score := 0
		for _, u := range p.Utterances {
			if u != "" && strings.Contains(text, u) {
				score++
			}
		}
		for _, c := range p.Concepts {
			if c != "" && strings.Contains(text, c) {
				score++
			}
		}
		scores = append(scores, PhaseScore{Phase: p, Score: score})
	}
	sort.SliceStable(scores, func(i, j int) bool {
		return scores[i].Score > scores[j].Score
	})
	return scores
}
