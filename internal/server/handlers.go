// internal/server/handlers.go
package server

import (
	"encoding/json"
	"net/http"

	stderrors "application-wizard/internal/common/errors"
	"application-wizard/internal/submit"
	"application-wizard/internal/wizard"

	"github.com/go-chi/chi/v5"
)

// sessionView is the state payload returned for session reads and mutations.
type sessionView struct {
	SessionID  string                 `json:"sessionId"`
	Step       int                    `json:"step"`
	StepName   string                 `json:"stepName"`
	Record     map[string]interface{} `json:"record"`
	Suggestion suggestionView         `json:"suggestion"`
}

type suggestionView struct {
	State  string     `json:"state"`
	Field  string     `json:"field,omitempty"`
	Staged string     `json:"staged,omitempty"`
	Error  *errorBody `json:"error,omitempty"`
}

func (s *Server) view(session *Session) sessionView {
	state, field, staged := session.Suggestions.Snapshot()

	sv := suggestionView{State: state.String(), Field: field, Staged: staged}
	if se := session.Suggestions.LastError(); se != nil {
		body := errorBody{Code: se.Code, Message: se.Message, Retryable: se.Retryable}
		if f, ok := se.Metadata["field"].(string); ok {
			body.Field = f
		}
		sv.Error = &body
	}

	step := session.Controller.Step()
	return sessionView{
		SessionID:  session.ID,
		Step:       int(step),
		StepName:   step.String(),
		Record:     session.Controller.Record(),
		Suggestion: sv,
	}
}

func (s *Server) session(w http.ResponseWriter, r *http.Request) (*Session, bool) {
	id := chi.URLParam(r, "sessionID")
	session, ok := s.sessions.Get(id)
	if !ok {
		writeJSON(w, http.StatusNotFound, map[string]interface{}{
			"error": errorBody{Code: "SESSION_NOT_FOUND", Message: "unknown session id"},
		})
		return nil, false
	}
	return session, true
}

// ==========================
// Session lifecycle
// ==========================

func (s *Server) handleCreateSession(w http.ResponseWriter, r *http.Request) {
	var body struct {
		DraftKey string `json:"draftKey"`
	}
	// An empty body is fine: the fixed default draft key applies.
	_ = json.NewDecoder(r.Body).Decode(&body)

	session := s.sessions.Create(r.Context(), body.DraftKey)
	writeJSON(w, http.StatusCreated, s.view(session))
}

func (s *Server) handleGetSession(w http.ResponseWriter, r *http.Request) {
	session, ok := s.session(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, s.view(session))
}

func (s *Server) handleCloseSession(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "sessionID")
	if !s.sessions.Close(id) {
		writeJSON(w, http.StatusNotFound, map[string]interface{}{
			"error": errorBody{Code: "SESSION_NOT_FOUND", Message: "unknown session id"},
		})
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// ==========================
// Record editing and transitions
// ==========================

func (s *Server) handlePatchFields(w http.ResponseWriter, r *http.Request) {
	session, ok := s.session(w, r)
	if !ok {
		return
	}

	var values map[string]interface{}
	if err := json.NewDecoder(r.Body).Decode(&values); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]interface{}{
			"error": errorBody{Code: "BAD_REQUEST", Message: "body must be a JSON object of field values"},
		})
		return
	}

	// Type-level check against the registry before the controller sees it.
	if err := s.registry.ValidatePatch(values); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]interface{}{
			"error": errorBody{Code: "BAD_REQUEST", Message: err.Error()},
		})
		return
	}

	if err := session.Controller.SetFields(r.Context(), values); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, s.view(session))
}

func (s *Server) handleAdvance(w http.ResponseWriter, r *http.Request) {
	session, ok := s.session(w, r)
	if !ok {
		return
	}

	fieldErr, err := session.Controller.Advance(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	if fieldErr != nil {
		writeFieldError(w, fieldErr)
		return
	}
	writeJSON(w, http.StatusOK, s.view(session))
}

func (s *Server) handleRetreat(w http.ResponseWriter, r *http.Request) {
	session, ok := s.session(w, r)
	if !ok {
		return
	}

	if err := session.Controller.Retreat(); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, s.view(session))
}

func (s *Server) handleSubmit(w http.ResponseWriter, r *http.Request) {
	session, ok := s.session(w, r)
	if !ok {
		return
	}

	// Schema pre-check on the full record before the controller runs its own
	// validation. Transition errors keep precedence: off-step submits fall
	// through to the controller's conflict.
	if session.Controller.Step() == wizard.StepSituation {
		if err := s.registry.ValidateRecord(session.Controller.Record()); err != nil {
			writeJSON(w, http.StatusUnprocessableEntity, map[string]interface{}{
				"error": errorBody{
					Code:      stderrors.ErrCodeValidationFailed,
					Message:   err.Error(),
					Retryable: true,
				},
			})
			return
		}
	}

	message, fieldErr, err := session.Controller.Submit(r.Context())
	if err != nil {
		if _, ok := stderrors.AsStandard(err); !ok {
			err = submit.AsStandardError(err)
		}
		writeError(w, err)
		return
	}
	if fieldErr != nil {
		writeFieldError(w, fieldErr)
		return
	}

	view := s.view(session)
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"message":  message,
		"session":  view,
		"step":     view.Step,
		"stepName": view.StepName,
	})
}

func (s *Server) handleRestart(w http.ResponseWriter, r *http.Request) {
	session, ok := s.session(w, r)
	if !ok {
		return
	}

	if err := session.Controller.Restart(r.Context()); err != nil {
		writeError(w, err)
		return
	}
	session.Suggestions.Reset()
	writeJSON(w, http.StatusOK, s.view(session))
}

// ==========================
// Suggestion sub-flow
// ==========================

func (s *Server) handleRequestSuggestion(w http.ResponseWriter, r *http.Request) {
	session, ok := s.session(w, r)
	if !ok {
		return
	}

	var body struct {
		Field string `json:"field"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil || body.Field == "" {
		writeJSON(w, http.StatusBadRequest, map[string]interface{}{
			"error": errorBody{Code: "BAD_REQUEST", Message: "field is required"},
		})
		return
	}

	current := session.Controller.Record().StringField(body.Field)
	snapshot := session.Controller.ContextSnapshot()

	if err := session.Suggestions.Request(body.Field, current, snapshot); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusAccepted, s.view(session))
}

func (s *Server) handleEditSuggestion(w http.ResponseWriter, r *http.Request) {
	session, ok := s.session(w, r)
	if !ok {
		return
	}

	var body struct {
		Text string `json:"text"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]interface{}{
			"error": errorBody{Code: "BAD_REQUEST", Message: "text is required"},
		})
		return
	}

	if err := session.Suggestions.EditStaged(body.Text); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, s.view(session))
}

func (s *Server) handleAcceptSuggestion(w http.ResponseWriter, r *http.Request) {
	session, ok := s.session(w, r)
	if !ok {
		return
	}

	if err := session.Suggestions.Accept(r.Context()); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, s.view(session))
}

func (s *Server) handleDiscardSuggestion(w http.ResponseWriter, r *http.Request) {
	session, ok := s.session(w, r)
	if !ok {
		return
	}

	if err := session.Suggestions.Discard(); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, s.view(session))
}

// ==========================
// Introspection
// ==========================

func (s *Server) handleRegistry(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.registry.Form)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if err := s.redis.Ping(r.Context()); err != nil {
		writeJSON(w, http.StatusServiceUnavailable, map[string]interface{}{
			"status": "degraded",
			"redis":  err.Error(),
		})
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"status": "ok"})
}
