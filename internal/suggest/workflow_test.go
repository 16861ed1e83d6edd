// internal/suggest/workflow_test.go
package suggest

import (
	"context"
	"sync"
	"testing"
	"time"

	stderrors "application-wizard/internal/common/errors"
	"application-wizard/internal/common/logger"
	"application-wizard/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// ==========================
// Test Helper Functions
// ==========================

// blockingSuggester holds every call until release is signalled, so tests can
// observe the Requesting state deterministically.
type blockingSuggester struct {
	mu      sync.Mutex
	release chan struct{}
	result  string
	err     error
	calls   int
	lastReq *Request
}

func newBlockingSuggester(result string) *blockingSuggester {
	return &blockingSuggester{release: make(chan struct{}), result: result}
}

func (s *blockingSuggester) callCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.calls
}

func (s *blockingSuggester) last() *Request {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastReq
}

func (s *blockingSuggester) Suggest(ctx context.Context, req *Request) (string, error) {
	s.mu.Lock()
	s.calls++
	s.lastReq = req
	release := s.release
	s.mu.Unlock()

	select {
	case <-release:
	case <-ctx.Done():
		return "", ErrSuggestionTimeout
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return "", s.err
	}
	return s.result, nil
}

type recordingApplier struct {
	mu     sync.Mutex
	err    error
	fields []string
	texts  []string
}

func (a *recordingApplier) apply(ctx context.Context, field, text string) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.err != nil {
		return a.err
	}
	a.fields = append(a.fields, field)
	a.texts = append(a.texts, text)
	return nil
}

func (a *recordingApplier) applied() ([]string, []string) {
	a.mu.Lock()
	defer a.mu.Unlock()
	return append([]string(nil), a.fields...), append([]string(nil), a.texts...)
}

func newTestWorkflow(t *testing.T, suggester Suggester, applier *recordingApplier) *Workflow {
	return NewWorkflow(suggester, applier.apply, 5*time.Second, logger.NewTestLogger(t))
}

func waitForState(t *testing.T, w *Workflow, want State) {
	t.Helper()
	require.Eventually(t, func() bool {
		state, _, _ := w.Snapshot()
		return state == want
	}, 2*time.Second, 5*time.Millisecond)
}

// ==========================
// Workflow Tests
// ==========================

func TestWorkflow_RequestPreviewAccept(t *testing.T) {
	suggester := newBlockingSuggester("My financial situation has become difficult since losing steady work.")
	applier := &recordingApplier{}
	w := newTestWorkflow(t, suggester, applier)

	snapshot := map[string]interface{}{models.FieldName: "John Doe"}
	require.NoError(t, w.Request(models.FieldFinancialSituation, "My financial", snapshot))

	state, field, _ := w.Snapshot()
	assert.Equal(t, StateRequesting, state)
	assert.Equal(t, models.FieldFinancialSituation, field)

	close(suggester.release)
	waitForState(t, w, StatePreviewing)

	_, field, staged := w.Snapshot()
	assert.Equal(t, models.FieldFinancialSituation, field)
	assert.Equal(t, suggester.result, staged)
	lastReq := suggester.last()
	assert.Equal(t, "My financial", lastReq.CurrentValue)
	assert.Equal(t, "John Doe", lastReq.PersonalInfo[models.FieldName])

	// Nothing reaches the record until the user accepts.
	appliedFields, _ := applier.applied()
	assert.Empty(t, appliedFields)

	require.NoError(t, w.Accept(context.Background()))
	appliedFields, appliedTexts := applier.applied()
	assert.Equal(t, []string{models.FieldFinancialSituation}, appliedFields)
	assert.Equal(t, []string{suggester.result}, appliedTexts)

	state, field, staged = w.Snapshot()
	assert.Equal(t, StateIdle, state)
	assert.Empty(t, field)
	assert.Empty(t, staged)
}

func TestWorkflow_EditStagedBeforeAccept(t *testing.T) {
	suggester := newBlockingSuggester("generated text for the employment circumstances field")
	applier := &recordingApplier{}
	w := newTestWorkflow(t, suggester, applier)

	require.NoError(t, w.Request(models.FieldEmploymentCircumstances, "", nil))
	close(suggester.release)
	waitForState(t, w, StatePreviewing)

	edited := "generated text, reworded by the user before accepting it"
	require.NoError(t, w.EditStaged(edited))
	require.NoError(t, w.Accept(context.Background()))

	// Exactly the edited text lands, not the original generation.
	_, texts := applier.applied()
	assert.Equal(t, []string{edited}, texts)
}

func TestWorkflow_DiscardLeavesRecordUntouched(t *testing.T) {
	suggester := newBlockingSuggester("suggestion the user does not want")
	applier := &recordingApplier{}
	w := newTestWorkflow(t, suggester, applier)

	require.NoError(t, w.Request(models.FieldReasonForApplying, "my own words", nil))
	close(suggester.release)
	waitForState(t, w, StatePreviewing)

	require.NoError(t, w.Discard())

	state, field, staged := w.Snapshot()
	assert.Equal(t, StateIdle, state)
	assert.Empty(t, field)
	assert.Empty(t, staged)

	fields, _ := applier.applied()
	assert.Empty(t, fields)
}

func TestWorkflow_SecondRequestRejectedWhileInFlight(t *testing.T) {
	suggester := newBlockingSuggester("slow suggestion")
	applier := &recordingApplier{}
	w := newTestWorkflow(t, suggester, applier)

	require.NoError(t, w.Request(models.FieldFinancialSituation, "", nil))
	require.Eventually(t, func() bool { return suggester.callCount() == 1 }, 2*time.Second, 5*time.Millisecond)

	err := w.Request(models.FieldReasonForApplying, "", nil)
	se, ok := stderrors.AsStandard(err)
	require.True(t, ok)
	assert.Equal(t, stderrors.ErrCodeSuggestionInFlight, se.Code)
	assert.Equal(t, 1, suggester.callCount())

	close(suggester.release)
	waitForState(t, w, StatePreviewing)
}

func TestWorkflow_RequestRejectedWhilePreviewing(t *testing.T) {
	suggester := newBlockingSuggester("staged text")
	applier := &recordingApplier{}
	w := newTestWorkflow(t, suggester, applier)

	require.NoError(t, w.Request(models.FieldFinancialSituation, "", nil))
	close(suggester.release)
	waitForState(t, w, StatePreviewing)

	err := w.Request(models.FieldFinancialSituation, "", nil)
	se, ok := stderrors.AsStandard(err)
	require.True(t, ok)
	assert.Equal(t, stderrors.ErrCodeInvalidTransition, se.Code)
}

func TestWorkflow_FailureReturnsToIdleWithError(t *testing.T) {
	suggester := newBlockingSuggester("")
	suggester.err = ErrSuggestionFailed
	applier := &recordingApplier{}
	w := newTestWorkflow(t, suggester, applier)

	require.NoError(t, w.Request(models.FieldFinancialSituation, "", nil))
	close(suggester.release)
	waitForState(t, w, StateIdle)

	lastErr := w.LastError()
	require.NotNil(t, lastErr)
	assert.Equal(t, stderrors.ErrCodeSuggestionFailed, lastErr.Code)

	fields, _ := applier.applied()
	assert.Empty(t, fields)

	// A new request is allowed and clears the previous failure.
	suggester2 := newBlockingSuggester("second attempt succeeds this time")
	w2 := newTestWorkflow(t, suggester2, applier)
	require.NoError(t, w2.Request(models.FieldFinancialSituation, "", nil))
	assert.Nil(t, w2.LastError())
}

func TestWorkflow_RequestRejectsNonNarrativeFieldSynchronously(t *testing.T) {
	suggester := newBlockingSuggester("never used")
	applier := &recordingApplier{}
	w := newTestWorkflow(t, suggester, applier)

	for _, field := range []string{models.FieldName, models.FieldMonthlyIncome, "bogus"} {
		err := w.Request(field, "", nil)
		se, ok := stderrors.AsStandard(err)
		require.True(t, ok, field)
		assert.Equal(t, stderrors.ErrCodeInvalidSuggestionField, se.Code, field)
	}

	// No state detour, no service traffic.
	state, _, _ := w.Snapshot()
	assert.Equal(t, StateIdle, state)
	assert.Zero(t, suggester.callCount())

	// A real narrative field is still accepted afterwards.
	require.NoError(t, w.Request(models.FieldFinancialSituation, "", nil))
}

func TestWorkflow_AcceptSurfacesRejectedWrite(t *testing.T) {
	suggester := newBlockingSuggester("text staged after the form was already submitted")
	applier := &recordingApplier{err: stderrors.NewInvalidTransitionError("record already submitted")}
	w := newTestWorkflow(t, suggester, applier)

	require.NoError(t, w.Request(models.FieldFinancialSituation, "", nil))
	close(suggester.release)
	waitForState(t, w, StatePreviewing)

	err := w.Accept(context.Background())
	se, ok := stderrors.AsStandard(err)
	require.True(t, ok)
	assert.Equal(t, stderrors.ErrCodeInvalidTransition, se.Code)

	fields, _ := applier.applied()
	assert.Empty(t, fields)

	state, _, staged := w.Snapshot()
	assert.Equal(t, StateIdle, state)
	assert.Empty(t, staged)
}

func TestWorkflow_ResetDropsLateResult(t *testing.T) {
	suggester := newBlockingSuggester("arrives after the user navigated away")
	applier := &recordingApplier{}
	w := newTestWorkflow(t, suggester, applier)

	require.NoError(t, w.Request(models.FieldFinancialSituation, "", nil))
	w.Reset()

	state, _, _ := w.Snapshot()
	assert.Equal(t, StateIdle, state)

	// The in-flight result lands after the reset and must be ignored.
	close(suggester.release)

	assert.Never(t, func() bool {
		state, _, staged := w.Snapshot()
		return state != StateIdle || staged != ""
	}, 200*time.Millisecond, 10*time.Millisecond)

	fields, _ := applier.applied()
	assert.Empty(t, fields)
}

func TestWorkflow_TerminalActionsInvalidWhenIdle(t *testing.T) {
	applier := &recordingApplier{}
	w := newTestWorkflow(t, newBlockingSuggester(""), applier)

	for name, call := range map[string]func() error{
		"accept":  func() error { return w.Accept(context.Background()) },
		"discard": w.Discard,
		"edit":    func() error { return w.EditStaged("text") },
	} {
		err := call()
		se, ok := stderrors.AsStandard(err)
		require.True(t, ok, name)
		assert.Equal(t, stderrors.ErrCodeInvalidTransition, se.Code, name)
	}
}
