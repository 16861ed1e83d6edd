// internal/suggest/workflow.go
package suggest

import (
	"context"
	"sync"
	"time"

	stderrors "application-wizard/internal/common/errors"
	"application-wizard/internal/common/logger"
	"application-wizard/internal/common/metrics"
	"application-wizard/internal/models"
)

// State is the suggestion workflow state.
type State int

const (
	StateIdle State = iota
	StateRequesting
	StatePreviewing
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateRequesting:
		return "requesting"
	case StatePreviewing:
		return "previewing"
	default:
		return "unknown"
	}
}

// Suggester abstracts the suggestion service client.
type Suggester interface {
	Suggest(ctx context.Context, req *Request) (string, error)
}

// Applier writes accepted text into the record through the same path as any
// field edit (validation state and draft save included). A rejected write,
// e.g. after the wizard reached its terminal state, is returned to the caller.
type Applier func(ctx context.Context, field, text string) error

// Workflow stages one suggestion at a time: request it, preview it, let the
// user accept, edit, or discard it before it touches the record.
type Workflow struct {
	mu      sync.Mutex
	state   State
	field   string
	staged  string
	lastErr *stderrors.StandardError
	seq     uint64

	client  Suggester
	apply   Applier
	timeout time.Duration
	logger  logger.Logger
}

func NewWorkflow(client Suggester, apply Applier, timeout time.Duration, log logger.Logger) *Workflow {
	return &Workflow{
		state:   StateIdle,
		client:  client,
		apply:   apply,
		timeout: timeout,
		logger:  log.With(map[string]interface{}{"component": "suggestion-workflow"}),
	}
}

// Snapshot returns the current state, the targeted field ("" when idle) and
// the staged text ("" unless previewing).
func (w *Workflow) Snapshot() (State, string, string) {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.state, w.field, w.staged
}

// LastError returns the failure of the most recent request, cleared by the
// next Request call.
func (w *Workflow) LastError() *stderrors.StandardError {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.lastErr
}

// Request starts an asynchronous suggestion call for field. Only one request
// may be in flight; a second call while Requesting is rejected before any
// service traffic. Fields outside the narrative whitelist are rejected the
// same way, synchronously, without touching the state.
func (w *Workflow) Request(field, currentText string, snapshot map[string]interface{}) error {
	if !models.IsNarrativeField(field) {
		metrics.SuggestionRequests.WithLabelValues(field, "rejected").Inc()
		return stderrors.NewInvalidSuggestionFieldError(field)
	}

	w.mu.Lock()
	if w.state == StateRequesting {
		pending := w.field
		w.mu.Unlock()
		return stderrors.NewSuggestionInFlightError(pending)
	}
	if w.state == StatePreviewing {
		w.mu.Unlock()
		return stderrors.NewInvalidTransitionError("a staged suggestion is awaiting accept or discard")
	}

	w.seq++
	seq := w.seq
	w.state = StateRequesting
	w.field = field
	w.lastErr = nil
	w.mu.Unlock()

	go w.run(seq, field, currentText, snapshot)
	return nil
}

func (w *Workflow) run(seq uint64, field, currentText string, snapshot map[string]interface{}) {
	ctx, cancel := context.WithTimeout(context.Background(), w.timeout)
	defer cancel()

	text, err := w.client.Suggest(ctx, &Request{
		Field:        field,
		CurrentValue: currentText,
		PersonalInfo: snapshot,
	})

	w.mu.Lock()
	defer w.mu.Unlock()

	// A Reset (navigate-away) bumps seq; a late result is simply dropped.
	if w.seq != seq || w.state != StateRequesting {
		w.logger.Debug("discarding stale suggestion result", map[string]interface{}{
			"field": field,
		})
		return
	}

	if err != nil {
		w.state = StateIdle
		w.field = ""
		w.lastErr = AsStandardError(field, err)
		w.logger.Warn("suggestion request failed", map[string]interface{}{
			"field": field,
			"error": err.Error(),
		})
		return
	}

	w.state = StatePreviewing
	w.staged = text
}

// EditStaged replaces the staged text while previewing. The record is not
// touched.
func (w *Workflow) EditStaged(text string) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.state != StatePreviewing {
		return stderrors.NewInvalidTransitionError("no staged suggestion to edit")
	}
	w.staged = text
	return nil
}

// Accept writes the staged text into the record field and returns to idle.
// The workflow leaves previewing either way; an apply rejection is surfaced,
// not retried.
func (w *Workflow) Accept(ctx context.Context) error {
	w.mu.Lock()
	if w.state != StatePreviewing {
		w.mu.Unlock()
		return stderrors.NewInvalidTransitionError("no staged suggestion to accept")
	}
	field, text := w.field, w.staged
	w.state = StateIdle
	w.field = ""
	w.staged = ""
	w.mu.Unlock()

	return w.apply(ctx, field, text)
}

// Discard drops the staged text and returns to idle. The record field stays
// unchanged.
func (w *Workflow) Discard() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.state != StatePreviewing {
		return stderrors.NewInvalidTransitionError("no staged suggestion to discard")
	}
	w.state = StateIdle
	w.field = ""
	w.staged = ""
	return nil
}

// Reset abandons any request or preview, e.g. when the user navigates away.
// An in-flight call is left unobserved; its result is dropped on arrival.
func (w *Workflow) Reset() {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.seq++
	w.state = StateIdle
	w.field = ""
	w.staged = ""
	w.lastErr = nil
}
