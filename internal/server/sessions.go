// internal/server/sessions.go
package server

import (
	"context"
	"fmt"
	"sync"
	"time"

	"application-wizard/internal/common/config"
	"application-wizard/internal/common/logger"
	"application-wizard/internal/draft"
	"application-wizard/internal/i18n"
	"application-wizard/internal/models"
	"application-wizard/internal/suggest"
	"application-wizard/internal/wizard"

	"github.com/google/uuid"
)

// Session binds one wizard controller and its suggestion workflow to an ID.
type Session struct {
	ID          string
	Controller  *wizard.Controller
	Suggestions *suggest.Workflow
	CreatedAt   time.Time
}

// SessionManager creates and tracks sessions. Each session serializes its own
// mutation through the controller; the manager only guards the map.
type SessionManager struct {
	mu       sync.RWMutex
	sessions map[string]*Session

	drafts     *draft.Store
	submitter  wizard.Submitter
	suggester  suggest.Suggester
	translator i18n.Translator
	cfg        *config.Config
	logger     logger.Logger
}

func NewSessionManager(drafts *draft.Store, submitter wizard.Submitter, suggester suggest.Suggester, t i18n.Translator, cfg *config.Config, log logger.Logger) *SessionManager {
	return &SessionManager{
		sessions:   make(map[string]*Session),
		drafts:     drafts,
		submitter:  submitter,
		suggester:  suggester,
		translator: t,
		cfg:        cfg,
		logger:     log.With(map[string]interface{}{"component": "sessions"}),
	}
}

// Create opens a session. The draft key identifies the applicant's draft
// across reloads; when empty the fixed default key is used, so reopening with
// the same key resumes the stored draft at section 1.
func (m *SessionManager) Create(ctx context.Context, draftKey string) *Session {
	if draftKey == "" {
		draftKey = models.DefaultDraftKey
	}
	prefixed := fmt.Sprintf("%s:%s", m.cfg.Draft.KeyPrefix, draftKey)

	controller := wizard.NewController(
		ctx,
		m.drafts,
		prefixed,
		m.submitter,
		time.Duration(m.cfg.Submission.Timeout)*time.Millisecond,
		m.translator,
		m.logger,
	)

	workflow := suggest.NewWorkflow(
		m.suggester,
		func(ctx context.Context, field, text string) error {
			return controller.SetField(ctx, field, text)
		},
		time.Duration(m.cfg.Suggestion.Timeout)*time.Millisecond,
		m.logger,
	)

	session := &Session{
		ID:          uuid.NewString(),
		Controller:  controller,
		Suggestions: workflow,
		CreatedAt:   time.Now().UTC(),
	}

	m.mu.Lock()
	m.sessions[session.ID] = session
	m.mu.Unlock()

	m.logger.Info("session created", map[string]interface{}{
		"sessionId": session.ID,
		"draftKey":  prefixed,
	})
	return session
}

// Get returns a session by ID.
func (m *SessionManager) Get(id string) (*Session, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	s, ok := m.sessions[id]
	return s, ok
}

// Close drops a session. Any in-flight suggestion is left unobserved; its
// result is discarded on arrival.
func (m *SessionManager) Close(id string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.sessions[id]
	if !ok {
		return false
	}
	s.Suggestions.Reset()
	delete(m.sessions, id)
	return true
}
