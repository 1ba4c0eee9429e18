package genai

import (
	"testing"

	"github.com/openai/openai-go"
)

func TestNewClientRequiresAPIKey(t *testing.T) {
	t.Setenv("OPENAI_API_KEY", "")
	if _, err := NewClient(); err == nil {
		t.Error("expected error when no API key is configured")
	}
}

func TestNewClientFromEnv(t *testing.T) {
	t.Setenv("OPENAI_API_KEY", "test-key")
	c, err := NewClient()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if c.model != DefaultModel {
		t.Errorf("expected default model %s, got %s", DefaultModel, c.model)
	}
	if c.temperature != DefaultTemperature {
		t.Errorf("expected default temperature %v, got %v", DefaultTemperature, c.temperature)
	}
}

func TestNewClientOptions(t *testing.T) {
	c, err := NewClient(
		WithAPIKey("explicit-key"),
		WithModel("gpt-4o-mini"),
		WithTemperature(0.2),
	)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if c.model != openai.ChatModel("gpt-4o-mini") {
		t.Errorf("expected gpt-4o-mini, got %s", c.model)
	}
	if c.temperature != 0.2 {
		t.Errorf("expected temperature 0.2, got %v", c.temperature)
	}
}
