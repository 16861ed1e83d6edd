// internal/wizard/controller.go

// Package wizard implements the state machine governing section sequencing and
// record assembly. All mutation of the record flows through the Controller;
// every accepted field mutation synchronously saves the draft.
package wizard

import (
	"context"
	"sync"
	"time"

	stderrors "application-wizard/internal/common/errors"
	"application-wizard/internal/common/logger"
	"application-wizard/internal/common/metrics"
	"application-wizard/internal/draft"
	"application-wizard/internal/i18n"
	"application-wizard/internal/models"
	"application-wizard/internal/schema"
)

// Step is the wizard position. Steps 1..3 map to the form sections;
// StepSubmitted is the only terminal state.
type Step int

const (
	StepPersonal Step = iota + 1
	StepFinancial
	StepSituation
	StepSubmitted
)

func (s Step) String() string {
	switch s {
	case StepPersonal:
		return "personal"
	case StepFinancial:
		return "financial"
	case StepSituation:
		return "situation"
	case StepSubmitted:
		return "submitted"
	default:
		return "unknown"
	}
}

// Section maps a non-terminal step to its schema section.
func (s Step) Section() schema.SectionID {
	return schema.SectionID(s)
}

// Submitter abstracts the submission service client.
type Submitter interface {
	Submit(ctx context.Context, record models.Record) (string, error)
}

// Controller owns one application record. Methods are serialized by an
// internal mutex: the single-writer contract is enforced, not assumed.
type Controller struct {
	mu     sync.Mutex
	step   Step
	record models.Record

	drafts        *draft.Store
	draftKey      string
	translator    i18n.Translator
	submitter     Submitter
	submitTimeout time.Duration
	logger        logger.Logger
}

// NewController builds a controller at step 1 with the record initialized from
// the draft store, falling back to the default record. The wizard position is
// never restored from the draft.
func NewController(ctx context.Context, drafts *draft.Store, draftKey string, submitter Submitter, submitTimeout time.Duration, t i18n.Translator, log logger.Logger) *Controller {
	return &Controller{
		step:          StepPersonal,
		record:        drafts.Load(ctx, draftKey, models.DefaultRecord()),
		drafts:        drafts,
		draftKey:      draftKey,
		translator:    t,
		submitter:     submitter,
		submitTimeout: submitTimeout,
		logger:        log.With(map[string]interface{}{"component": "wizard", "draftKey": draftKey}),
	}
}

// Step returns the current wizard position.
func (c *Controller) Step() Step {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.step
}

// Record returns a copy of the in-memory record.
func (c *Controller) Record() models.Record {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.record.Clone()
}

// ContextSnapshot returns a read-only copy of the non-narrative sections for
// suggestion requests.
func (c *Controller) ContextSnapshot() map[string]interface{} {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.record.ContextSnapshot()
}

// SetField updates one field in the in-memory record and saves the draft.
// Edits are accepted in any non-terminal step, including sections not yet
// advanced through.
func (c *Controller) SetField(ctx context.Context, field string, value interface{}) error {
	return c.SetFields(ctx, map[string]interface{}{field: value})
}

// SetFields merges several field values in one draft write.
func (c *Controller) SetFields(ctx context.Context, values map[string]interface{}) error {
	for field := range values {
		if !models.IsKnownField(field) {
			return stderrors.NewValidationFailedError(field, "unknown field")
		}
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.step == StepSubmitted {
		return stderrors.NewInvalidTransitionError("record already submitted")
	}

	c.record.Merge(values)
	c.drafts.Save(ctx, c.draftKey, c.record)
	return nil
}

// Advance validates the active section. When invalid, position and draft stay
// untouched and the first error of that section is returned. When valid, the
// record is persisted and the position moves forward.
func (c *Controller) Advance(ctx context.Context) (*schema.FieldError, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.step >= StepSituation {
		return nil, stderrors.NewInvalidTransitionError("advance is only valid before the final section; use submit")
	}

	section := c.step.Section()
	result := schema.Section(section, c.translator).Validate(c.record)
	if !result.Valid {
		metrics.WizardValidationFailures.WithLabelValues(section.String(), result.FirstError.Field).Inc()
		return result.FirstError, nil
	}

	c.drafts.Save(ctx, c.draftKey, c.record)
	c.step++
	metrics.WizardAdvances.WithLabelValues(section.String()).Inc()

	c.logger.Info("advanced to next section", map[string]interface{}{
		"step": c.step.String(),
	})
	return nil, nil
}

// Retreat moves one section back without validation. No data is lost: the
// record already holds whatever was entered.
func (c *Controller) Retreat() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	switch c.step {
	case StepPersonal:
		return stderrors.NewInvalidTransitionError("already at the first section")
	case StepSubmitted:
		return stderrors.NewInvalidTransitionError("record already submitted")
	}

	c.step--
	return nil
}

// Submit validates the whole record and calls the submission service. On
// success the draft is cleared and the wizard reaches its terminal state. On
// any failure the record and the draft are preserved; the user may retry
// without re-entering data.
func (c *Controller) Submit(ctx context.Context) (string, *schema.FieldError, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.step != StepSituation {
		return "", nil, stderrors.NewInvalidTransitionError("submit is only valid from the final section")
	}

	result := schema.Full(c.translator).Validate(c.record)
	if !result.Valid {
		metrics.WizardValidationFailures.WithLabelValues("full", result.FirstError.Field).Inc()
		return "", result.FirstError, nil
	}

	submitCtx, cancel := context.WithTimeout(ctx, c.submitTimeout)
	defer cancel()

	message, err := c.submitter.Submit(submitCtx, c.record.Clone())
	if err != nil {
		c.logger.Warn("submission failed, state preserved", map[string]interface{}{
			"error": err.Error(),
		})
		return "", nil, err
	}

	c.drafts.Clear(ctx, c.draftKey)
	c.step = StepSubmitted

	c.logger.Info("application submitted", map[string]interface{}{
		"message": message,
	})
	return message, nil, nil
}

// Restart begins a fresh application after a successful submission: step 1,
// default record, empty draft.
func (c *Controller) Restart(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.step != StepSubmitted {
		return stderrors.NewInvalidTransitionError("restart is only valid after submission")
	}

	c.step = StepPersonal
	c.record = models.DefaultRecord()
	c.drafts.Clear(ctx, c.draftKey)
	return nil
}
