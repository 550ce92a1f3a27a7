// Package channel exposes the support orchestrator over HTTP. It is the
// only writer of session history: every answered turn appends the user
// message and the assistant reply, serialized per session.
package channel

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/chative/supportdesk/internal/agent/graph"
	"github.com/chative/supportdesk/internal/agent/model"
	errx "github.com/chative/supportdesk/internal/core/error"
	logx "github.com/chative/supportdesk/pkg/logger"
)

const (
	maxBodyBytes        = 64 << 10
	defaultHistoryLimit = 50
)

// Server is an http.Handler serving the chat API.
type Server struct {
	runner     graph.Runner
	classifier model.Classifier
	sessions   model.SessionStore
	ready      func() bool

	locks *sessionLocks
	mux   *http.ServeMux
}

// NewServer wires the routes. ready may be nil, in which case /healthz
// always reports ok.
func NewServer(runner graph.Runner, classifier model.Classifier, sessions model.SessionStore, ready func() bool) *Server {
	s := &Server{
		runner:     runner,
		classifier: classifier,
		sessions:   sessions,
		ready:      ready,
		locks:      newSessionLocks(),
		mux:        http.NewServeMux(),
	}
	s.mux.HandleFunc("POST /api/v1/chat", s.handleChat)
	s.mux.HandleFunc("POST /api/v1/classify", s.handleClassify)
	s.mux.HandleFunc("GET /api/v1/sessions/{id}/history", s.handleHistory)
	s.mux.HandleFunc("GET /healthz", s.handleHealth)
	return s
}

// ServeHTTP delegates to the internal mux, implementing http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.mux.ServeHTTP(w, r)
}

type chatRequest struct {
	SessionID string `json:"session_id"`
	Message   string `json:"message"`
}

type chatResponse struct {
	SessionID string `json:"session_id"`
	Reply     string `json:"reply"`
}

func (s *Server) handleChat(w http.ResponseWriter, r *http.Request) {
	var req chatRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	req.SessionID = strings.TrimSpace(req.SessionID)
	if req.SessionID == "" {
		writeError(w, http.StatusBadRequest, "session_id is required")
		return
	}

	ctx := r.Context()
	unlock := s.locks.lock(req.SessionID)
	defer unlock()

	userTurn := model.NewTurn(model.RoleUser, req.Message)
	reply, err := s.runner.Invoke(ctx, model.QueryInput{SessionID: req.SessionID, Text: req.Message})
	if err != nil {
		status := http.StatusInternalServerError
		if errors.Is(err, errx.ErrInvalidInput) {
			status = http.StatusBadRequest
		}
		logx.Error().Err(err).Str("session_id", req.SessionID).Int("status", status).Msg("Chat turn failed")
		writeError(w, status, errx.UserRetryMessage)
		return
	}

	for _, t := range []model.Turn{userTurn, model.NewTurn(model.RoleAssistant, reply)} {
		if err := s.sessions.Append(ctx, req.SessionID, t); err != nil {
			logx.Warn().Err(err).Str("session_id", req.SessionID).Str("role", string(t.Role)).Msg("Failed to persist turn")
		}
	}

	writeJSON(w, http.StatusOK, chatResponse{SessionID: req.SessionID, Reply: reply})
}

type classifyRequest struct {
	Text string `json:"text"`
}

func (s *Server) handleClassify(w http.ResponseWriter, r *http.Request) {
	var req classifyRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	c, err := s.classifier.Classify(r.Context(), req.Text)
	if err != nil {
		logx.Error().Err(err).Msg("Classify request failed")
		writeError(w, http.StatusInternalServerError, errx.UserRetryMessage)
		return
	}
	writeJSON(w, http.StatusOK, c.Normalized())
}

type historyResponse struct {
	SessionID string       `json:"session_id"`
	Turns     []model.Turn `json:"turns"`
}

func (s *Server) handleHistory(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if strings.TrimSpace(id) == "" {
		writeError(w, http.StatusBadRequest, "session id is required")
		return
	}
	limit := defaultHistoryLimit
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 {
			writeError(w, http.StatusBadRequest, "limit must be a positive integer")
			return
		}
		limit = n
	}

	turns, err := s.sessions.Recent(r.Context(), id, limit)
	if err != nil {
		logx.Error().Err(err).Str("session_id", id).Msg("History request failed")
		writeError(w, errx.StatusOf(err), errx.UserRetryMessage)
		return
	}
	if turns == nil {
		turns = []model.Turn{}
	}
	writeJSON(w, http.StatusOK, historyResponse{SessionID: id, Turns: turns})
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if s.ready != nil && !s.ready() {
		writeJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "not ready"})
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func decodeJSON(w http.ResponseWriter, r *http.Request, v any) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	return dec.Decode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(false)
	_ = enc.Encode(payload)
}
