package main

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog/log"

	orchestratorx "github.com/tanpawarit/Chative-Goal-Orchestrator/agent/agents/orchestrator"
	dispatchx "github.com/tanpawarit/Chative-Goal-Orchestrator/agent/dispatch"
	goalx "github.com/tanpawarit/Chative-Goal-Orchestrator/agent/goal"
	statex "github.com/tanpawarit/Chative-Goal-Orchestrator/agent/state"
)

const maxBodyBytes = 1 << 20

// signatureVerifier is satisfied by *qstash.Client.
type signatureVerifier interface {
	Verify(signature string, body []byte) error
}

type server struct {
	orchestrator *orchestratorx.Orchestrator
	manager      *statex.Manager
	goals        *goalx.Configuration
	verifier     signatureVerifier
}

func newServer(o *orchestratorx.Orchestrator, m *statex.Manager, goals *goalx.Configuration, verifier signatureVerifier) *server {
	return &server{orchestrator: o, manager: m, goals: goals, verifier: verifier}
}

func (s *server) routes() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("POST /v1/orchestrate", s.handleOrchestrate)
	mux.HandleFunc("GET /v1/tenants/{tenant}/users/{user}/sessions/{session}/goals", s.handleGetGoals)
	mux.HandleFunc("DELETE /v1/tenants/{tenant}/users/{user}/sessions/{session}/goals", s.handleResetGoals)
	mux.HandleFunc("POST /v1/intents", s.handleIntent)
	mux.Handle("GET /metrics", promhttp.Handler())
	mux.HandleFunc("GET /healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	})
	return mux
}

type orchestrateRequest struct {
	Message   string   `json:"message"`
	SessionID string   `json:"session_id"`
	UserID    string   `json:"user_id"`
	TenantID  string   `json:"tenant_id"`
	History   []string `json:"history,omitempty"`
}

func (s *server) handleOrchestrate(w http.ResponseWriter, r *http.Request) {
	var body orchestrateRequest
	if err := json.NewDecoder(io.LimitReader(r.Body, maxBodyBytes)).Decode(&body); err != nil {
		writeError(w, http.StatusBadRequest, "invalid json body")
		return
	}

	result, err := s.orchestrator.OrchestrateGoals(r.Context(), orchestratorx.Request{
		Message:   body.Message,
		SessionID: body.SessionID,
		UserID:    body.UserID,
		TenantID:  body.TenantID,
		Config:    s.goals,
		History:   body.History,
	})
	if err != nil {
		writeError(w, statusFor(err), err.Error())
		return
	}
	writeJSON(w, http.StatusOK, result)
}

func (s *server) handleGetGoals(w http.ResponseWriter, r *http.Request) {
	key := pathKey(r)
	if err := key.Validate(); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	summary, err := s.manager.GetStateSummary(r.Context(), key)
	if err != nil {
		writeError(w, statusFor(err), err.Error())
		return
	}
	if summary == nil {
		writeError(w, http.StatusNotFound, "no goal state for conversation")
		return
	}
	writeJSON(w, http.StatusOK, summary)
}

func (s *server) handleResetGoals(w http.ResponseWriter, r *http.Request) {
	if err := s.orchestrator.ResetGoalState(r.Context(), pathKey(r)); err != nil {
		writeError(w, statusFor(err), err.Error())
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// handleIntent receives intents delivered back by QStash. It answers 404 when
// no verifier is configured.
func (s *server) handleIntent(w http.ResponseWriter, r *http.Request) {
	if s.verifier == nil {
		writeError(w, http.StatusNotFound, "intent delivery is not enabled")
		return
	}
	raw, err := io.ReadAll(io.LimitReader(r.Body, maxBodyBytes))
	if err != nil {
		writeError(w, http.StatusBadRequest, "read body")
		return
	}
	if err := s.verifier.Verify(r.Header.Get("Upstash-Signature"), raw); err != nil {
		writeError(w, http.StatusUnauthorized, "invalid signature")
		return
	}

	var msg dispatchx.IntentMessage
	if err := json.Unmarshal(raw, &msg); err != nil || msg.Intent == "" {
		writeError(w, http.StatusBadRequest, "invalid intent message")
		return
	}
	log.Info().
		Str("intent", msg.Intent).
		Str("tenant_id", msg.TenantID).
		Str("session_id", msg.SessionID).
		Str("orchestration_id", msg.OrchestrationID).
		Str("message_id", r.Header.Get("Upstash-Message-Id")).
		Msg("intent received")
	w.WriteHeader(http.StatusAccepted)
}

func pathKey(r *http.Request) statex.Key {
	return statex.Key{
		TenantID:  r.PathValue("tenant"),
		UserID:    r.PathValue("user"),
		SessionID: r.PathValue("session"),
	}
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, orchestratorx.ErrValidation),
		errors.Is(err, statex.ErrInvalidSession),
		errors.Is(err, statex.ErrInvalidUser),
		errors.Is(err, statex.ErrInvalidTenant):
		return http.StatusBadRequest
	case errors.Is(err, orchestratorx.ErrConfiguration):
		return http.StatusUnprocessableEntity
	case errors.Is(err, orchestratorx.ErrStateConflict):
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Warn().Err(err).Msg("write response")
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
