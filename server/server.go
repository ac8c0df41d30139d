// Package server is the HTTP front door: it validates incoming task
// requests, hands them to the agent and maps session outcomes onto HTTP
// responses. The orchestration core itself knows nothing about HTTP.
package server

import (
	"encoding/json"
	"net/http"

	"github.com/julienschmidt/httprouter"
	"github.com/rs/zerolog/log"

	"github.com/mwillems/devassist/agent"
	"github.com/mwillems/devassist/errors"
	"github.com/mwillems/devassist/session"
)

// maxRequestBytes caps the request body; task descriptions have no business
// being larger.
const maxRequestBytes = 1 << 20

// Server serves the task-processing API.
type Server struct {
	agent  *agent.Agent
	router *httprouter.Router
}

// New builds the server and its routes.
func New(a *agent.Agent) *Server {
	s := &Server{agent: a, router: httprouter.New()}
	s.router.POST("/process-task", s.handleProcessTask)
	s.router.GET("/health", s.handleHealth)
	return s
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

// errorBody is the structured failure payload. It always carries the
// actions taken before the failure.
type errorBody struct {
	Error        string   `json:"error"`
	Kind         string   `json:"kind,omitempty"`
	ActionsTaken []string `json:"actions_taken"`
}

func (s *Server) handleProcessTask(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	var task session.Task
	decoder := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxRequestBytes))
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(&task); err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody{Error: "invalid task payload: " + err.Error(), ActionsTaken: []string{}})
		return
	}
	if task.Description == "" {
		writeJSON(w, http.StatusBadRequest, errorBody{Error: "task description is required", ActionsTaken: []string{}})
		return
	}

	resp, err := s.agent.ProcessTask(r.Context(), task)
	if err != nil {
		var sessErr *agent.SessionError
		if errors.As(err, &sessErr) {
			writeJSON(w, statusForKind(sessErr.Kind), errorBody{
				Error:        sessErr.Err.Error(),
				Kind:         string(sessErr.Kind),
				ActionsTaken: sessErr.ActionsTaken,
			})
			return
		}
		writeJSON(w, http.StatusInternalServerError, errorBody{Error: err.Error(), ActionsTaken: []string{}})
		return
	}

	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "healthy"})
}

func statusForKind(kind errors.Kind) int {
	switch kind {
	case errors.KindBackendUnavailable:
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

func writeJSON(w http.ResponseWriter, status int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		log.Warn().Err(err).Msg("failed to encode response")
	}
}
