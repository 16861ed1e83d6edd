// internal/server/server.go

// Package server exposes the wizard over HTTP: session lifecycle, field
// edits, step transitions, the suggestion sub-flow, and the form registry.
package server

import (
	"encoding/json"
	"net/http"

	"application-wizard/internal/common/config"
	"application-wizard/internal/common/database"
	stderrors "application-wizard/internal/common/errors"
	"application-wizard/internal/common/logger"
	"application-wizard/internal/schema"
	"application-wizard/pkg/registry"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

type Server struct {
	sessions *SessionManager
	registry *registry.Registry
	redis    *database.RedisClient
	logger   logger.Logger
}

func New(sessions *SessionManager, reg *registry.Registry, redis *database.RedisClient, log logger.Logger) *Server {
	return &Server{
		sessions: sessions,
		registry: reg,
		redis:    redis,
		logger:   log.With(map[string]interface{}{"component": "http"}),
	}
}

// Router assembles the chi router with CORS and logging middleware.
func (s *Server) Router(cfg config.ServerConfig) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   cfg.AllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Content-Type", "Authorization"},
		AllowCredentials: true,
	}))

	r.Get("/healthz", s.handleHealth)
	r.Handle("/metrics", promhttp.Handler())
	r.Get("/api/registry", s.handleRegistry)

	r.Route("/api/sessions", func(r chi.Router) {
		r.Post("/", s.handleCreateSession)
		r.Route("/{sessionID}", func(r chi.Router) {
			r.Get("/", s.handleGetSession)
			r.Delete("/", s.handleCloseSession)
			r.Patch("/fields", s.handlePatchFields)
			r.Post("/advance", s.handleAdvance)
			r.Post("/retreat", s.handleRetreat)
			r.Post("/submit", s.handleSubmit)
			r.Post("/restart", s.handleRestart)
			r.Route("/suggestion", func(r chi.Router) {
				r.Post("/", s.handleRequestSuggestion)
				r.Patch("/", s.handleEditSuggestion)
				r.Post("/accept", s.handleAcceptSuggestion)
				r.Post("/discard", s.handleDiscardSuggestion)
			})
		})
	})

	return r
}

// ==========================
// Response helpers
// ==========================

type errorBody struct {
	Code      stderrors.ErrorCode `json:"code"`
	Message   string              `json:"message"`
	Field     string              `json:"field,omitempty"`
	Retryable bool                `json:"retryable"`
}

func writeJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

// writeError maps the error taxonomy onto HTTP statuses: validation and bad
// transitions are client problems, service failures are retryable gateway
// problems.
func writeError(w http.ResponseWriter, err error) {
	se, ok := stderrors.AsStandard(err)
	if !ok {
		writeJSON(w, http.StatusInternalServerError, map[string]interface{}{
			"error": errorBody{Code: "INTERNAL", Message: err.Error()},
		})
		return
	}

	status := http.StatusBadGateway
	switch se.Code {
	case stderrors.ErrCodeValidationFailed:
		status = http.StatusUnprocessableEntity
	case stderrors.ErrCodeInvalidTransition, stderrors.ErrCodeSuggestionInFlight:
		status = http.StatusConflict
	case stderrors.ErrCodeInvalidSuggestionField:
		status = http.StatusBadRequest
	case stderrors.ErrCodeSubmissionTimeout, stderrors.ErrCodeSuggestionTimeout:
		status = http.StatusGatewayTimeout
	}

	body := errorBody{Code: se.Code, Message: se.Message, Retryable: se.Retryable}
	if f, ok := se.Metadata["field"].(string); ok {
		body.Field = f
	}
	writeJSON(w, status, map[string]interface{}{"error": body})
}

func writeFieldError(w http.ResponseWriter, fe *schema.FieldError) {
	writeJSON(w, http.StatusUnprocessableEntity, map[string]interface{}{
		"error": errorBody{
			Code:      stderrors.ErrCodeValidationFailed,
			Message:   fe.Message,
			Field:     fe.Field,
			Retryable: true,
		},
	})
}
