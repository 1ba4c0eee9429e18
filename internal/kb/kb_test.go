package kb

import (
	"strings"
	"testing"
)

func TestLoadEmbeddedData(t *testing.T) {
	k, err := Load()
	if err != nil {
		t.Fatalf("failed to load embedded knowledge base: %v", err)
	}

	for _, id := range PhaseOrder {
		p, ok := k.Phase(id)
		if !ok {
			t.Errorf("expected phase %s to be present", id)
			continue
		}
		if p.Name == "" {
			t.Errorf("phase %s has no display name", id)
		}
		if len(p.Utterances) == 0 {
			t.Errorf("phase %s has no example utterances", id)
		}
	}

	if len(k.Triggers()) == 0 {
		t.Error("expected transformation triggers to be present")
	}
	if len(k.Supports()) == 0 {
		t.Error("expected support catalog to be present")
	}
}

func TestLoadFromRejectsBadData(t *testing.T) {
	if _, err := LoadFrom([]byte("{not json")); err == nil {
		t.Error("expected error for malformed JSON")
	}
	if _, err := LoadFrom([]byte(`{"phases": {}}`)); err == nil {
		t.Error("expected error for empty phase set")
	}
}

func TestLoadFromDefaults(t *testing.T) {
	k, err := LoadFrom([]byte(`{"phases": {"phase_1": {}}}`))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	p, ok := k.Phase("phase_1")
	if !ok {
		t.Fatal("expected phase_1 to be present")
	}
	if p.Name != "phase_1" {
		t.Errorf("expected name defaulted to id, got %q", p.Name)
	}
	if p.Support == "" {
		t.Error("expected support text to receive a default")
	}
	if k.Triggers() == nil || k.Supports() == nil {
		t.Error("expected empty maps rather than nil for missing sections")
	}
}

func TestAllPhasesFixedOrder(t *testing.T) {
	k, err := Load()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	phases := k.AllPhases()
	if len(phases) != 4 {
		t.Fatalf("expected 4 phases, got %d", len(phases))
	}
	for i, id := range PhaseOrder {
		if phases[i].ID != id {
			t.Errorf("expected %s at position %d, got %s", id, i, phases[i].ID)
		}
	}
}

func TestIsValidPhase(t *testing.T) {
	for _, id := range PhaseOrder {
		if !IsValidPhase(id) {
			t.Errorf("expected %s to be valid", id)
		}
	}
	for _, id := range []string{"", "phase_0", "phase_5", "PHASE_1"} {
		if IsValidPhase(id) {
			t.Errorf("expected %q to be invalid", id)
		}
	}
}

func TestSerializedEmbedsPhaseData(t *testing.T) {
	k, err := Load()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	s := k.Serialized()
	if s == "" {
		t.Fatal("expected non-empty serialization")
	}
	for _, id := range PhaseOrder {
		if !strings.Contains(s, id) {
			t.Errorf("serialized data missing %s", id)
		}
	}
	if !strings.Contains(s, "triggers") || !strings.Contains(s, "supports") {
		t.Error("serialized data missing triggers or supports sections")
	}
}

func TestScorePhases(t *testing.T) {
	k, err := LoadFrom([]byte(`{
		"phases": {
			"phase_1": {"name": "A", "utterances": ["会いたくない"], "concepts": ["ひきこもり"]},
			"phase_2": {"name": "B", "utterances": ["このままでいいのか"], "concepts": []}
		}
	}`))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	scores := k.ScorePhases("誰にも会いたくない。ひきこもりのままでつらい。")
	if len(scores) != 2 {
		t.Fatalf("expected 2 scores, got %d", len(scores))
	}
	if scores[0].Phase.ID != "phase_1" || scores[0].Score != 2 {
		t.Errorf("expected phase_1 first with score 2, got %s score %d", scores[0].Phase.ID, scores[0].Score)
	}
	if scores[1].Phase.ID != "phase_2" || scores[1].Score != 0 {
		t.Errorf("expected phase_2 second with score 0, got %s score %d", scores[1].Phase.ID, scores[1].Score)
	}
}

func TestScorePhasesNoMatches(t *testing.T) {
	k, err := Load()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	scores := k.ScorePhases("completely unrelated english text")
	if len(scores) != 4 {
		t.Fatalf("expected 4 scores, got %d", len(scores))
	}
	// Ties keep the fixed phase order.
	for i, id := range PhaseOrder {
		if scores[i].Phase.ID != id {
			t.Errorf("expected %s at position %d on all-zero scores, got %s", id, i, scores[i].Phase.ID)
		}
		if scores[i].Score != 0 {
			t.Errorf("expected zero score for %s, got %d", id, scores[i].Score)
		}
	}
}
