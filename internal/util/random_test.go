package util

import (
	"strings"
	"testing"
)

func TestGenerateRandomHex(t *testing.T) {
	hex := GenerateRandomHex(32)
	if len(hex) != 32 {
		t.Errorf("expected length 32, got %d", len(hex))
	}
	for _, c := range hex {
		if !strings.ContainsRune("0123456789abcdef", c) {
			t.Errorf("unexpected character %q in hex string", c)
		}
	}

	if GenerateRandomHex(0) != "" {
		t.Error("expected empty string for zero length")
	}
	if GenerateRandomHex(-1) != "" {
		t.Error("expected empty string for negative length")
	}
}

func TestGenerateTurnID(t *testing.T) {
	id := GenerateTurnID()
	if !strings.HasPrefix(id, "t_") {
		t.Errorf("expected t_ prefix, got %q", id)
	}
	if len(id) != 2+32 {
		t.Errorf("expected length 34, got %d", len(id))
	}

	// Collisions over a small sample would indicate a broken generator.
	seen := make(map[string]bool)
	for i := 0; i < 100; i++ {
		id := GenerateTurnID()
		if seen[id] {
			t.Fatalf("duplicate ID generated: %s", id)
		}
		seen[id] = true
	}
}
