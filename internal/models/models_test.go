package models

import (
	"errors"
	"strings"
	"testing"
)

func TestTurnRequestValidate(t *testing.T) {
	tests := []struct {
		name    string
		req     TurnRequest
		wantErr error
	}{
		{"valid", TurnRequest{UserID: "u1", Message: "こんにちは"}, nil},
		{"empty user", TurnRequest{Message: "hi"}, ErrEmptyUserID},
		{"long user", TurnRequest{UserID: strings.Repeat("a", MaxUserIDLength+1), Message: "hi"}, ErrUserIDTooLong},
		{"empty message", TurnRequest{UserID: "u1"}, ErrEmptyMessage},
		{"long message", TurnRequest{UserID: "u1", Message: strings.Repeat("x", MaxUserMessageLength+1)}, ErrMessageTooLong},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.req.Validate()
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("Validate() = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

func TestScoreRequestValidate(t *testing.T) {
	if err := (&ScoreRequest{Text: "外に出たくない"}).Validate(); err != nil {
		t.Errorf("unexpected error: %v", err)
	}
	if err := (&ScoreRequest{}).Validate(); !errors.Is(err, ErrEmptyScoreText) {
		t.Errorf("expected ErrEmptyScoreText, got %v", err)
	}
	long := ScoreRequest{Text: strings.Repeat("x", MaxUserMessageLength+1)}
	if err := long.Validate(); !errors.Is(err, ErrMessageTooLong) {
		t.Errorf("expected ErrMessageTooLong, got %v", err)
	}
}

func TestParseChatDate(t *testing.T) {
	got, err := ParseChatDate("2025-11-03")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != "2025-11-03" {
		t.Errorf("expected normalized date, got %q", got)
	}

	for _, bad := range []string{"", "2025/11/03", "11-03-2025", "2025-13-40", "today"} {
		if _, err := ParseChatDate(bad); !errors.Is(err, ErrInvalidChatDate) {
			t.Errorf("ParseChatDate(%q): expected ErrInvalidChatDate, got %v", bad, err)
		}
	}
}

func TestAPIResponseHelpers(t *testing.T) {
	ok := Success([]string{"a"})
	if ok.Status != string(APIStatusOK) || ok.Result == nil || ok.Message != "" {
		t.Errorf("unexpected success response: %+v", ok)
	}

	withMsg := SuccessWithMessage("done", 42)
	if withMsg.Status != string(APIStatusOK) || withMsg.Message != "done" {
		t.Errorf("unexpected response: %+v", withMsg)
	}

	errResp := Error("boom")
	if errResp.Status != string(APIStatusError) || errResp.Message != "boom" || errResp.Result != nil {
		t.Errorf("unexpected error response: %+v", errResp)
	}

	deg := Degraded("not saved", "payload")
	if deg.Status != string(APIStatusDegraded) || deg.Message != "not saved" || deg.Result != "payload" {
		t.Errorf("unexpected degraded response: %+v", deg)
	}
}

func TestAPIResponseBuilder(t *testing.T) {
	resp := NewAPIResponseBuilder().
		WithStatus(APIStatusOK).
		WithMessage("hello").
		WithResult(map[string]string{"k": "v"}).
		Build()
	if resp.Status != "ok" || resp.Message != "hello" || resp.Result == nil {
		t.Errorf("builder produced unexpected response: %+v", resp)
	}
}
