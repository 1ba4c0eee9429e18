package api_test

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/cocoro-lab/cocorochat/internal/api"
	"github.com/cocoro-lab/cocorochat/internal/flow"
	"github.com/cocoro-lab/cocorochat/internal/kb"
	"github.com/cocoro-lab/cocorochat/internal/models"
	"github.com/cocoro-lab/cocorochat/internal/store"
	"github.com/cocoro-lab/cocorochat/internal/testutil"
)

// writeFailStore fails every write and, optionally, every read.
type writeFailStore struct {
	store.Store
	failReads bool
}

func (f *writeFailStore) AddTurn(models.Turn) error {
	return errors.New("disk full")
}

func (f *writeFailStore) ListChatDates(userID string) ([]string, error) {
	if f.failReads {
		return nil, errors.New("store unreachable")
	}
	return f.Store.ListChatDates(userID)
}

func newFailingServer(t *testing.T, client *testutil.MockGenAIClient, failReads bool) *api.Server {
	t.Helper()
	k, err := kb.Load()
	if err != nil {
		t.Fatalf("failed to load knowledge base: %v", err)
	}
	st := &writeFailStore{Store: store.NewInMemoryStore(), failReads: failReads}
	session := flow.NewSession(k, st, client)
	return api.NewServer(st, session, k, time.UTC)
}

func TestChatTurnHandlerStoreFailureDegrades(t *testing.T) {
	client := &testutil.MockGenAIClient{Response: "【phase】phase_1\n【response】そばにいます。"}
	server := newFailingServer(t, client, false)
	mux := server.Routes()

	req := testutil.CreateHTTPRequest(t, http.MethodPost, "/chat/turns", models.TurnRequest{
		UserID:  "u1",
		Message: "ひとりが怖い",
	})
	rr := httptest.NewRecorder()
	mux.ServeHTTP(rr, req)

	// The reply is still delivered; only durability is lost.
	testutil.AssertHTTPStatus(t, http.StatusOK, rr.Code, "degraded turn")
	resp := testutil.AssertJSONResponse(t, rr, "degraded")
	result, ok := resp["result"].(map[string]interface{})
	if !ok {
		t.Fatalf("expected turn object in result, got %v", resp["result"])
	}
	if result["bot_message"] != "そばにいます。" {
		t.Errorf("expected computed reply in degraded response, got %v", result["bot_message"])
	}
}

func TestHealthHandlerStoreUnreachable(t *testing.T) {
	server := newFailingServer(t, &testutil.MockGenAIClient{}, true)
	mux := server.Routes()

	req := testutil.CreateHTTPRequest(t, http.MethodGet, "/health", nil)
	rr := httptest.NewRecorder()
	mux.ServeHTTP(rr, req)

	testutil.AssertHTTPStatus(t, http.StatusServiceUnavailable, rr.Code, "health with dead store")
	testutil.AssertJSONResponse(t, rr, "degraded")
}
