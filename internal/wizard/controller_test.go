// internal/wizard/controller_test.go
package wizard

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"application-wizard/internal/common/database"
	stderrors "application-wizard/internal/common/errors"
	"application-wizard/internal/common/logger"
	"application-wizard/internal/draft"
	"application-wizard/internal/i18n"
	"application-wizard/internal/models"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// ==========================
// Test Helper Functions
// ==========================

type fakeSubmitter struct {
	err     error
	message string
	calls   int
	last    models.Record
}

func (f *fakeSubmitter) Submit(ctx context.Context, record models.Record) (string, error) {
	f.calls++
	f.last = record
	if f.err != nil {
		return "", f.err
	}
	return f.message, nil
}

type testEnv struct {
	controller *Controller
	submitter  *fakeSubmitter
	mini       *miniredis.Miniredis
	drafts     *draft.Store
}

const testDraftKey = "draft:social-support-application"

func newTestEnv(t *testing.T) *testEnv {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	drafts := draft.NewStore(database.NewRedisFromClient(client), logger.NewTestLogger(t), 0)
	submitter := &fakeSubmitter{message: "Application submitted successfully"}

	controller := NewController(
		context.Background(),
		drafts,
		testDraftKey,
		submitter,
		5*time.Second,
		i18n.Default(),
		logger.NewTestLogger(t),
	)

	return &testEnv{controller: controller, submitter: submitter, mini: mr, drafts: drafts}
}

func personalValues() map[string]interface{} {
	return map[string]interface{}{
		models.FieldName:        "John Doe",
		models.FieldNationalID:  "123456789012345",
		models.FieldDateOfBirth: "1988-04-12",
		models.FieldGender:      "male",
		models.FieldAddress:     "14 Al Wasl Road",
		models.FieldCity:        "Dubai",
		models.FieldState:       "Dubai",
		models.FieldCountry:     "ARE",
		models.FieldPhone:       "+971501234567",
		models.FieldEmail:       "john.doe@example.com",
	}
}

func financialValues() map[string]interface{} {
	return map[string]interface{}{
		models.FieldMaritalStatus:    "married",
		models.FieldDependents:       2.0,
		models.FieldEmploymentStatus: "unemployed",
		models.FieldMonthlyIncome:    1500.0,
		models.FieldHousingStatus:    "renting",
	}
}

func situationValues() map[string]interface{} {
	long := "I have been struggling with rising living costs while supporting my family on a single income."
	return map[string]interface{}{
		models.FieldFinancialSituation:      long,
		models.FieldEmploymentCircumstances: long,
		models.FieldReasonForApplying:       long,
	}
}

func (e *testEnv) storedDraft(t *testing.T) models.Record {
	raw, err := e.mini.Get(testDraftKey)
	require.NoError(t, err)
	var record models.Record
	require.NoError(t, json.Unmarshal([]byte(raw), &record))
	return record
}

// ==========================
// Initialization Tests
// ==========================

func TestNewController_StartsAtSectionOneWithDefaultRecord(t *testing.T) {
	env := newTestEnv(t)

	assert.Equal(t, StepPersonal, env.controller.Step())
	assert.Equal(t, models.DefaultRecord(), env.controller.Record())
}

func TestNewController_RestoresDraftButNotPosition(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	drafts := draft.NewStore(database.NewRedisFromClient(client), logger.NewTestLogger(t), 0)

	stored := models.Record{models.FieldName: "Jane Doe", models.FieldCity: "Abu Dhabi"}
	data, err := json.Marshal(stored)
	require.NoError(t, err)
	require.NoError(t, mr.Set(testDraftKey, string(data)))

	c := NewController(context.Background(), drafts, testDraftKey, &fakeSubmitter{}, time.Second, i18n.Default(), logger.NewTestLogger(t))

	assert.Equal(t, stored, c.Record())
	// Position is transient: always reset to section 1 on fresh load.
	assert.Equal(t, StepPersonal, c.Step())
}

// ==========================
// Field Edit Tests
// ==========================

func TestSetField_UpdatesRecordAndSavesDraft(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	require.NoError(t, env.controller.SetField(ctx, models.FieldName, "Jane Doe"))

	assert.Equal(t, "Jane Doe", env.controller.Record()[models.FieldName])
	assert.Equal(t, "Jane Doe", env.storedDraft(t)[models.FieldName])
}

func TestSetField_AcceptsEditsInSectionsNotYetReached(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	// Still on section 1, editing a section 3 field.
	require.NoError(t, env.controller.SetField(ctx, models.FieldReasonForApplying, "partial text"))
	assert.Equal(t, StepPersonal, env.controller.Step())
	assert.Equal(t, "partial text", env.storedDraft(t)[models.FieldReasonForApplying])
}

func TestSetField_RejectsUnknownField(t *testing.T) {
	env := newTestEnv(t)
	err := env.controller.SetField(context.Background(), "favoriteColor", "blue")

	se, ok := stderrors.AsStandard(err)
	require.True(t, ok)
	assert.Equal(t, stderrors.ErrCodeValidationFailed, se.Code)
	assert.NotContains(t, env.controller.Record(), "favoriteColor")
}

func TestSetField_SurvivesDraftStoreOutage(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	// Persistence failures never block the controller.
	env.mini.Close()
	require.NoError(t, env.controller.SetField(ctx, models.FieldName, "Jane Doe"))
	assert.Equal(t, "Jane Doe", env.controller.Record()[models.FieldName])
}

// ==========================
// Transition Tests
// ==========================

func TestAdvance_BlockedWhenSectionInvalid(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	fieldErr, err := env.controller.Advance(ctx)
	require.NoError(t, err)
	require.NotNil(t, fieldErr)
	assert.Equal(t, models.FieldName, fieldErr.Field)
	assert.Equal(t, StepPersonal, env.controller.Step())

	// No draft write on a blocked advance.
	assert.False(t, env.mini.Exists(testDraftKey))
}

func TestAdvance_ReportsFirstErrorOfSection(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	values := personalValues()
	values[models.FieldNationalID] = "12345"
	values[models.FieldEmail] = "broken"
	require.NoError(t, env.controller.SetFields(ctx, values))

	fieldErr, err := env.controller.Advance(ctx)
	require.NoError(t, err)
	require.NotNil(t, fieldErr)
	assert.Equal(t, models.FieldNationalID, fieldErr.Field)
}

func TestAdvance_MovesForwardAndPersists(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	require.NoError(t, env.controller.SetFields(ctx, personalValues()))
	fieldErr, err := env.controller.Advance(ctx)
	require.NoError(t, err)
	require.Nil(t, fieldErr)

	assert.Equal(t, StepFinancial, env.controller.Step())
	assert.Equal(t, env.controller.Record(), env.storedDraft(t))
}

func TestAdvance_InvalidFromFinalSection(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	require.NoError(t, env.controller.SetFields(ctx, personalValues()))
	_, err := env.controller.Advance(ctx)
	require.NoError(t, err)
	require.NoError(t, env.controller.SetFields(ctx, financialValues()))
	_, err = env.controller.Advance(ctx)
	require.NoError(t, err)
	require.Equal(t, StepSituation, env.controller.Step())

	_, err = env.controller.Advance(ctx)
	se, ok := stderrors.AsStandard(err)
	require.True(t, ok)
	assert.Equal(t, stderrors.ErrCodeInvalidTransition, se.Code)
}

func TestRetreat_NeverAltersValues(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	require.NoError(t, env.controller.SetFields(ctx, personalValues()))
	_, err := env.controller.Advance(ctx)
	require.NoError(t, err)

	// Edit a section 2 field, then go back without validating.
	require.NoError(t, env.controller.SetField(ctx, models.FieldDependents, 4.0))
	before := env.controller.Record()

	require.NoError(t, env.controller.Retreat())
	assert.Equal(t, StepPersonal, env.controller.Step())
	assert.Equal(t, before, env.controller.Record())
}

func TestRetreat_InvalidFromFirstSection(t *testing.T) {
	env := newTestEnv(t)
	err := env.controller.Retreat()

	se, ok := stderrors.AsStandard(err)
	require.True(t, ok)
	assert.Equal(t, stderrors.ErrCodeInvalidTransition, se.Code)
}

// ==========================
// Submission Tests
// ==========================

func (e *testEnv) fillAndReachFinalSection(t *testing.T) {
	ctx := context.Background()
	require.NoError(t, e.controller.SetFields(ctx, personalValues()))
	_, err := e.controller.Advance(ctx)
	require.NoError(t, err)
	require.NoError(t, e.controller.SetFields(ctx, financialValues()))
	_, err = e.controller.Advance(ctx)
	require.NoError(t, err)
	require.NoError(t, e.controller.SetFields(ctx, situationValues()))
	require.Equal(t, StepSituation, e.controller.Step())
}

func TestSubmit_OnlyCallableFromFinalSection(t *testing.T) {
	env := newTestEnv(t)

	_, _, err := env.controller.Submit(context.Background())
	se, ok := stderrors.AsStandard(err)
	require.True(t, ok)
	assert.Equal(t, stderrors.ErrCodeInvalidTransition, se.Code)
	assert.Zero(t, env.submitter.calls)
}

func TestSubmit_BlockedByFullValidation(t *testing.T) {
	env := newTestEnv(t)
	env.fillAndReachFinalSection(t)
	ctx := context.Background()

	require.NoError(t, env.controller.SetField(ctx, models.FieldReasonForApplying, "too short"))

	_, fieldErr, err := env.controller.Submit(ctx)
	require.NoError(t, err)
	require.NotNil(t, fieldErr)
	assert.Equal(t, models.FieldReasonForApplying, fieldErr.Field)
	assert.Equal(t, StepSituation, env.controller.Step())
	assert.Zero(t, env.submitter.calls)
}

func TestSubmit_SuccessClearsDraftAndTerminates(t *testing.T) {
	env := newTestEnv(t)
	env.fillAndReachFinalSection(t)
	ctx := context.Background()

	message, fieldErr, err := env.controller.Submit(ctx)
	require.NoError(t, err)
	require.Nil(t, fieldErr)
	assert.Equal(t, "Application submitted successfully", message)

	assert.Equal(t, StepSubmitted, env.controller.Step())
	assert.False(t, env.mini.Exists(testDraftKey))
	assert.Equal(t, 1, env.submitter.calls)
	assert.Equal(t, env.controller.Record(), env.submitter.last)
}

func TestSubmit_FailurePreservesRecordAndDraft(t *testing.T) {
	env := newTestEnv(t)
	env.fillAndReachFinalSection(t)
	ctx := context.Background()

	env.submitter.err = errors.New("SUBMISSION_FAILED: status 503")
	before := env.controller.Record()

	_, fieldErr, err := env.controller.Submit(ctx)
	require.Error(t, err)
	assert.Nil(t, fieldErr)
	assert.Equal(t, StepSituation, env.controller.Step())
	assert.Equal(t, before, env.controller.Record())
	assert.True(t, env.mini.Exists(testDraftKey))

	// Unlimited user-initiated retries: a later attempt succeeds in place.
	env.submitter.err = nil
	_, fieldErr, err = env.controller.Submit(ctx)
	require.NoError(t, err)
	require.Nil(t, fieldErr)
	assert.Equal(t, StepSubmitted, env.controller.Step())
	assert.Equal(t, 2, env.submitter.calls)
}

func TestSubmit_EditsRejectedAfterTerminalState(t *testing.T) {
	env := newTestEnv(t)
	env.fillAndReachFinalSection(t)
	ctx := context.Background()

	_, _, err := env.controller.Submit(ctx)
	require.NoError(t, err)

	err = env.controller.SetField(ctx, models.FieldName, "Someone Else")
	se, ok := stderrors.AsStandard(err)
	require.True(t, ok)
	assert.Equal(t, stderrors.ErrCodeInvalidTransition, se.Code)
}

func TestRestart_AfterSubmissionStartsFresh(t *testing.T) {
	env := newTestEnv(t)
	env.fillAndReachFinalSection(t)
	ctx := context.Background()

	_, _, err := env.controller.Submit(ctx)
	require.NoError(t, err)

	require.NoError(t, env.controller.Restart(ctx))
	assert.Equal(t, StepPersonal, env.controller.Step())
	assert.Equal(t, models.DefaultRecord(), env.controller.Record())
	assert.False(t, env.mini.Exists(testDraftKey))
}

func TestRestart_InvalidBeforeSubmission(t *testing.T) {
	env := newTestEnv(t)
	err := env.controller.Restart(context.Background())

	se, ok := stderrors.AsStandard(err)
	require.True(t, ok)
	assert.Equal(t, stderrors.ErrCodeInvalidTransition, se.Code)
}
