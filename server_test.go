package main

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	orchestratorx "github.com/tanpawarit/Chative-Goal-Orchestrator/agent/agents/orchestrator"
	goalx "github.com/tanpawarit/Chative-Goal-Orchestrator/agent/goal"
	statex "github.com/tanpawarit/Chative-Goal-Orchestrator/agent/state"
)

type fakeVerifier struct {
	err error
}

func (f fakeVerifier) Verify(string, []byte) error { return f.err }

func newTestServer(t *testing.T, verifier signatureVerifier) http.Handler {
	t.Helper()

	manager, err := statex.NewManager(statex.NewMemoryStore())
	if err != nil {
		t.Fatalf("NewManager() error = %v", err)
	}
	o, err := orchestratorx.New(manager)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	goals, err := goalx.LoadFile("configs/goals.example.yaml")
	if err != nil {
		t.Fatalf("LoadFile() error = %v", err)
	}
	return newServer(o, manager, goals, verifier).routes()
}

func do(t *testing.T, h http.Handler, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()

	req := httptest.NewRequest(method, path, strings.NewReader(body))
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestOrchestrateAndInspectGoals(t *testing.T) {
	t.Parallel()

	h := newTestServer(t, nil)
	goalsPath := "/v1/tenants/gym/users/u-1/sessions/s-1/goals"

	rec := do(t, h, http.MethodPost, "/v1/orchestrate",
		`{"message":"Hi, my email is jane@example.com","session_id":"s-1","user_id":"u-1","tenant_id":"gym"}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("orchestrate status = %d body=%s", rec.Code, rec.Body.String())
	}
	var result struct {
		OrchestrationID string `json:"orchestrationId"`
		ExtractedInfo   struct {
			Email *struct {
				Value string `json:"value"`
			} `json:"email"`
		} `json:"extractedInfo"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &result); err != nil {
		t.Fatalf("decode result: %v", err)
	}
	if result.OrchestrationID == "" {
		t.Fatal("orchestrationId is empty")
	}
	if result.ExtractedInfo.Email == nil || result.ExtractedInfo.Email.Value != "jane@example.com" {
		t.Fatalf("extracted email = %+v", result.ExtractedInfo.Email)
	}

	rec = do(t, h, http.MethodGet, goalsPath, "")
	if rec.Code != http.StatusOK {
		t.Fatalf("get goals status = %d body=%s", rec.Code, rec.Body.String())
	}
	var summary statex.Summary
	if err := json.Unmarshal(rec.Body.Bytes(), &summary); err != nil {
		t.Fatalf("decode summary: %v", err)
	}
	if summary.MessageCount == 0 {
		t.Fatalf("summary = %+v, want a counted message", summary)
	}

	if rec = do(t, h, http.MethodDelete, goalsPath, ""); rec.Code != http.StatusNoContent {
		t.Fatalf("reset status = %d", rec.Code)
	}
	if rec = do(t, h, http.MethodGet, goalsPath, ""); rec.Code != http.StatusNotFound {
		t.Fatalf("get after reset status = %d", rec.Code)
	}
}

func TestOrchestrateRejectsBadRequests(t *testing.T) {
	t.Parallel()

	h := newTestServer(t, nil)
	tests := []struct {
		name string
		body string
	}{
		{"malformed json", `{"message":`},
		{"missing session", `{"message":"hi","user_id":"u-1","tenant_id":"gym"}`},
	}
	for _, tt := range tests {
		if rec := do(t, h, http.MethodPost, "/v1/orchestrate", tt.body); rec.Code != http.StatusBadRequest {
			t.Fatalf("%s: status = %d body=%s", tt.name, rec.Code, rec.Body.String())
		}
	}
}

func TestIntentWebhook(t *testing.T) {
	t.Parallel()

	body := `{"intent":"create_lead","session_id":"s-1","user_id":"u-1","tenant_id":"gym"}`
	tests := []struct {
		name     string
		verifier signatureVerifier
		body     string
		want     int
	}{
		{"disabled", nil, body, http.StatusNotFound},
		{"bad signature", fakeVerifier{err: errors.New("nope")}, body, http.StatusUnauthorized},
		{"missing intent", fakeVerifier{}, `{"session_id":"s-1"}`, http.StatusBadRequest},
		{"accepted", fakeVerifier{}, body, http.StatusAccepted},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			h := newTestServer(t, tt.verifier)
			if rec := do(t, h, http.MethodPost, "/v1/intents", tt.body); rec.Code != tt.want {
				t.Fatalf("status = %d, want %d", rec.Code, tt.want)
			}
		})
	}
}

func TestStatusFor(t *testing.T) {
	t.Parallel()

	tests := []struct {
		err  error
		want int
	}{
		{orchestratorx.ErrValidation, http.StatusBadRequest},
		{statex.ErrInvalidTenant, http.StatusBadRequest},
		{orchestratorx.ErrConfiguration, http.StatusUnprocessableEntity},
		{orchestratorx.ErrStateConflict, http.StatusConflict},
		{errors.New("boom"), http.StatusInternalServerError},
	}
	for _, tt := range tests {
		if got := statusFor(tt.err); got != tt.want {
			t.Fatalf("statusFor(%v) = %d, want %d", tt.err, got, tt.want)
		}
	}
}
