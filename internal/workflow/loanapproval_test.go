// internal/workflow/loanapproval_test.go
package workflow

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/aws/aws-sdk-go-v2/service/ses"
	"github.com/aws/aws-sdk-go-v2/service/sns"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	stderrors "loanflow/internal/common/errors"
	"loanflow/internal/common/logger"
	"loanflow/internal/ledger"
	"loanflow/internal/models"
	"loanflow/internal/retry"
	"loanflow/internal/stages/contact"
	"loanflow/internal/stages/decide"
	"loanflow/internal/stages/dupcheck"
	"loanflow/internal/stages/format"
	"loanflow/internal/stages/notify"
	"loanflow/internal/stages/persist"
	"loanflow/internal/stages/validate"
	"loanflow/internal/steprunner"
	"loanflow/pkg/registry"
)

type sesStub struct {
	err   error
	calls int
}

func (s *sesStub) SendEmail(context.Context, *ses.SendEmailInput) (*ses.SendEmailOutput, error) {
	s.calls++
	return &ses.SendEmailOutput{}, s.err
}

type snsStub struct{ calls int }

func (s *snsStub) Publish(context.Context, *sns.PublishInput) (*sns.PublishOutput, error) {
	s.calls++
	return &sns.PublishOutput{}, nil
}

// fakeRunner executes each step at most once and lets a test script a
// final StageFailure for any stage. It records invocation order.
type fakeRunner struct {
	failures map[string]error
	ran      []string
}

func (r *fakeRunner) Run(ctx context.Context, stage string, _ retry.Policy, fn steprunner.StepFunc) error {
	r.ran = append(r.ran, stage)
	if err, ok := r.failures[stage]; ok {
		return err
	}
	if err := fn(ctx); err != nil {
		return &stderrors.StageFailure{Stage: stage, Attempts: 1, Cause: err}
	}
	return nil
}

type fixture struct {
	workflow *LoanApproval
	contact  *ContactPreference
	runner   *fakeRunner
	store    *ledger.FileStore
	ses      *sesStub
}

func testRegistry() *registry.MessageRegistry {
	return &registry.MessageRegistry{
		Decisions: map[string]registry.DecisionTemplate{
			"pre_approved": {Title: "Congratulations!", Message: "Your loan of ${loan_amount} is pre-approved.", NextSteps: []string{"Review terms"}},
			"conditional":  {Title: "Almost There", Message: "Your application for ${loan_amount} needs review.", NextSteps: []string{"Wait for an agent"}},
			"denied":       {Title: "Application Update", Message: "We are unable to approve your application.", NextSteps: []string{"Review your credit report"}},
		},
	}
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	log := logger.NewTestLogger(t)
	store := ledger.NewFileStore(filepath.Join(t.TempDir(), "submissions.json"))
	led := ledger.New(store, log)

	sesMock := &sesStub{}
	notifyCfg := notify.LoadConfig()
	notifyCfg.AgentEmail = "agents@loanflow.example.com"
	runner := &fakeRunner{failures: map[string]error{}}

	wf := NewLoanApproval(
		runner,
		DefaultPolicies(),
		validate.NewHandler(validate.LoadConfig(), log),
		dupcheck.NewHandler(dupcheck.LoadConfig(), ledger.NewDuplicateGuard(store), log),
		decide.NewHandler(decide.LoadConfig(), log),
		format.NewHandler(format.LoadConfig(), testRegistry(), log),
		persist.NewHandler(persist.LoadConfig(), led, log),
		notify.NewHandler(notifyCfg, sesMock, &snsStub{}, log),
		log,
	)
	cp := NewContactPreference(runner, contact.LoadConfig().Policy, contact.NewHandler(contact.LoadConfig(), led, log), log)

	return &fixture{workflow: wf, contact: cp, runner: runner, store: store, ses: sesMock}
}

func payload(email string, overrides map[string]interface{}) map[string]interface{} {
	p := map[string]interface{}{
		"name":           "John Doe",
		"email":          email,
		"loan_amount":    50000.0,
		"credit_score":   750.0,
		"annual_income":  150000.0,
		"has_bankruptcy": false,
	}
	for k, v := range overrides {
		p[k] = v
	}
	return p
}

func TestRun_PreApprovedEndToEnd(t *testing.T) {
	f := newFixture(t)

	result, err := f.workflow.Run(context.Background(), payload("john@example.com", nil))
	require.NoError(t, err)

	assert.Equal(t, StatusSuccess, result.Status)
	assert.Equal(t, models.DecisionPreApproved, result.Decision)
	require.NotNil(t, result.Message)
	assert.Equal(t, "Your loan of $50,000.00 is pre-approved.", result.Message.Message)
	assert.Equal(t, 0.33, result.LoanToIncomeRatio)

	records, err := f.store.Load(context.Background())
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, models.DecisionPreApproved, records[0].Decision)

	assert.Equal(t, []string{
		validate.TaskType, dupcheck.TaskType, decide.TaskType,
		format.TaskType, persist.TaskType,
	}, f.runner.ran, "pre-approved runs must not notify")
}

func TestRun_InvalidApplicationShortCircuits(t *testing.T) {
	f := newFixture(t)

	result, err := f.workflow.Run(context.Background(), payload("john@example.com", map[string]interface{}{
		"credit_score": 200.0,
	}))
	require.NoError(t, err)

	assert.Equal(t, StatusError, result.Status)
	assert.Equal(t, []string{"Credit score must be between 300 and 850"}, result.Errors)
	assert.Equal(t, []string{validate.TaskType}, f.runner.ran)

	records, err := f.store.Load(context.Background())
	require.NoError(t, err)
	assert.Empty(t, records, "invalid applications are never persisted")
}

func TestRun_DuplicateShortCircuits(t *testing.T) {
	f := newFixture(t)

	_, err := f.workflow.Run(context.Background(), payload("john@example.com", nil))
	require.NoError(t, err)
	f.runner.ran = nil

	result, err := f.workflow.Run(context.Background(), payload("JOHN@example.com", nil))
	require.NoError(t, err)

	assert.Equal(t, StatusDuplicate, result.Status)
	assert.Equal(t, 7, result.DaysRemaining)
	require.NotNil(t, result.Existing)
	assert.Equal(t, []string{validate.TaskType, dupcheck.TaskType}, f.runner.ran)

	records, err := f.store.Load(context.Background())
	require.NoError(t, err)
	assert.Len(t, records, 1, "duplicate run must not write a second record")
}

func TestRun_ConditionalNotifiesAgent(t *testing.T) {
	f := newFixture(t)

	result, err := f.workflow.Run(context.Background(), payload("john@example.com", map[string]interface{}{
		"has_bankruptcy": true,
	}))
	require.NoError(t, err)

	assert.Equal(t, StatusSuccess, result.Status)
	assert.Equal(t, models.DecisionConditional, result.Decision)
	assert.Contains(t, f.runner.ran, notify.TaskType)
	assert.Equal(t, 1, f.ses.calls)
}

func TestRun_NotifyFailureDoesNotSinkTheRun(t *testing.T) {
	f := newFixture(t)
	f.runner.failures[notify.TaskType] = &stderrors.StageFailure{
		Stage: notify.TaskType, Attempts: 3, Cause: assert.AnError,
	}

	result, err := f.workflow.Run(context.Background(), payload("john@example.com", map[string]interface{}{
		"has_bankruptcy": true,
	}))
	require.NoError(t, err)

	assert.Equal(t, StatusSuccess, result.Status)
	assert.Equal(t, models.DecisionConditional, result.Decision)

	records, loadErr := f.store.Load(context.Background())
	require.NoError(t, loadErr)
	assert.Len(t, records, 1, "application persisted despite notification failure")
}

func TestRun_PersistFailureFailsTheRun(t *testing.T) {
	f := newFixture(t)
	f.runner.failures[persist.TaskType] = &stderrors.StageFailure{
		Stage: persist.TaskType, Attempts: 10, Cause: assert.AnError,
	}

	result, err := f.workflow.Run(context.Background(), payload("john@example.com", nil))
	require.Error(t, err)
	assert.Nil(t, result, "infrastructure failure is an error, never a business outcome")
	assert.True(t, stderrors.IsStageFailure(err))
}

func TestRun_DupCheckFailureFailsTheRun(t *testing.T) {
	f := newFixture(t)
	f.runner.failures[dupcheck.TaskType] = &stderrors.StageFailure{
		Stage: dupcheck.TaskType, Attempts: 3, Cause: assert.AnError,
	}

	result, err := f.workflow.Run(context.Background(), payload("john@example.com", nil))
	require.Error(t, err)
	assert.Nil(t, result)
	assert.NotContains(t, f.runner.ran, decide.TaskType)
}

func TestContactPreference_Run(t *testing.T) {
	f := newFixture(t)

	_, err := f.workflow.Run(context.Background(), payload("john@example.com", nil))
	require.NoError(t, err)

	result, err := f.contact.Run(context.Background(), "john@example.com", true)
	require.NoError(t, err)
	assert.Equal(t, StatusSuccess, result.Status)
	assert.True(t, result.Preference)

	records, err := f.store.Load(context.Background())
	require.NoError(t, err)
	require.Len(t, records, 1)
	require.NotNil(t, records[0].ContactRequested)
	assert.True(t, *records[0].ContactRequested)
}

func TestContactPreference_UnknownEmailIsError(t *testing.T) {
	f := newFixture(t)

	result, err := f.contact.Run(context.Background(), "nobody@example.com", false)
	require.NoError(t, err)
	assert.Equal(t, StatusError, result.Status)
}
