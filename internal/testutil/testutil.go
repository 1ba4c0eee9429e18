// Package testutil provides common test utilities and helpers for CocoroChat tests.
package testutil

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/cocoro-lab/cocorochat/internal/api"
	"github.com/cocoro-lab/cocorochat/internal/flow"
	"github.com/cocoro-lab/cocorochat/internal/kb"
	"github.com/cocoro-lab/cocorochat/internal/models"
	"github.com/cocoro-lab/cocorochat/internal/store"
	"github.com/openai/openai-go"
)

// MockGenAIClient is a canned completion engine for tests.
type MockGenAIClient struct {
	Response string
	Err      error
	Calls    [][]openai.ChatCompletionMessageParamUnion
}

// GenerateWithMessages records the request and returns the canned response.
func (m *MockGenAIClient) GenerateWithMessages(ctx context.Context, messages []openai.ChatCompletionMessageParamUnion) (string, error) {
	m.Calls = append(m.Calls, messages)
	if m.Err != nil {
		return "", m.Err
	}
	return m.Response, nil
}

// NewTestServer creates a test API server with an in-memory store and the
// given canned completion engine. It returns the server and the store for
// seeding and assertions.
func NewTestServer(t *testing.T, genaiClient *MockGenAIClient) (*api.Server, *store.InMemoryStore) {
	t.Helper()
	k, err := kb.Load()
	if err != nil {
		t.Fatalf("failed to load knowledge base: %v", err)
	}
	st := store.NewInMemoryStore()
	session := flow.NewSession(k, st, genaiClient)
	return api.NewServer(st, session, k, time.UTC), st
}

// AssertHTTPStatus checks the HTTP status code and fails the test if it doesn't match.
func AssertHTTPStatus(t *testing.T, expected, actual int, context string) {
	t.Helper()
	if actual != expected {
		t.Errorf("%s: expected status %d, got %d", context, expected, actual)
	}
}

// AssertJSONResponse decodes JSON response and validates the status field.
func AssertJSONResponse(t *testing.T, rr *httptest.ResponseRecorder, expectedStatus string) map[string]interface{} {
	t.Helper()
	var response map[string]interface{}
	if err := json.NewDecoder(rr.Body).Decode(&response); err != nil {
		t.Fatalf("failed to decode JSON response: %v", err)
	}

	if status, ok := response["status"].(string); ok {
		if status != expectedStatus {
			t.Errorf("expected status '%s', got '%s'", expectedStatus, status)
		}
	} else {
		t.Error("response missing or invalid 'status' field")
	}

	return response
}

// CreateHTTPRequest creates an HTTP request with optional JSON body for testing.
func CreateHTTPRequest(t *testing.T, method, url string, body interface{}) *http.Request {
	t.Helper()
	var reqBody *bytes.Buffer
	if body != nil {
		jsonData, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("failed to marshal request body: %v", err)
		}
		reqBody = bytes.NewBuffer(jsonData)
	} else {
		reqBody = bytes.NewBuffer(nil)
	}

	req, err := http.NewRequest(method, url, reqBody)
	if err != nil {
		t.Fatalf("failed to create HTTP request: %v", err)
	}
	return req
}

// SeedTurns adds sample conversation turns to the store for testing.
func SeedTurns(t *testing.T, st store.Store, turns []models.Turn) {
	t.Helper()
	for _, turn := range turns {
		if err := st.AddTurn(turn); err != nil {
			t.Fatalf("failed to add test turn: %v", err)
		}
	}
}
