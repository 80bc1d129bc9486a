// internal/stages/notify/handler_test.go
package notify

import (
	"context"
	"errors"
	"testing"

	"github.com/aws/aws-sdk-go-v2/service/ses"
	"github.com/aws/aws-sdk-go-v2/service/sns"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	stderrors "loanflow/internal/common/errors"
	"loanflow/internal/common/logger"
	"loanflow/internal/models"
)

type MockSESService struct {
	SendEmailFunc func(ctx context.Context, input *ses.SendEmailInput) (*ses.SendEmailOutput, error)
	calls         int
}

func (m *MockSESService) SendEmail(ctx context.Context, input *ses.SendEmailInput) (*ses.SendEmailOutput, error) {
	m.calls++
	return m.SendEmailFunc(ctx, input)
}

type MockSNSService struct {
	PublishFunc func(ctx context.Context, input *sns.PublishInput) (*sns.PublishOutput, error)
	calls       int
}

func (m *MockSNSService) Publish(ctx context.Context, input *sns.PublishInput) (*sns.PublishOutput, error) {
	m.calls++
	return m.PublishFunc(ctx, input)
}

func createTestConfig() *Config {
	cfg := LoadConfig()
	cfg.EmailEnabled = true
	cfg.SMSEnabled = true
	cfg.FromEmail = "noreply@loanflow.example.com"
	cfg.AgentEmail = "agents@loanflow.example.com"
	cfg.AgentPhone = "+15550100"
	cfg.PageThreshold = 100000
	return cfg
}

func createTestInput(loanAmount float64) *Input {
	return &Input{
		Application: models.Application{
			Name:         "John Doe",
			Email:        "john@example.com",
			LoanAmount:   loanAmount,
			CreditScore:  750,
			AnnualIncome: 150000,
		},
		Decision: models.DecisionConditional,
	}
}

func TestExecute_SendsAgentEmail(t *testing.T) {
	sesMock := &MockSESService{SendEmailFunc: func(_ context.Context, input *ses.SendEmailInput) (*ses.SendEmailOutput, error) {
		assert.Equal(t, []string{"agents@loanflow.example.com"}, input.Destination.ToAddresses)
		assert.Contains(t, *input.Message.Subject.Data, "$50,000.00")
		assert.Contains(t, *input.Message.Body.Text.Data, "agent_review_required")
		return &ses.SendEmailOutput{}, nil
	}}
	snsMock := &MockSNSService{PublishFunc: func(context.Context, *sns.PublishInput) (*sns.PublishOutput, error) {
		return &sns.PublishOutput{}, nil
	}}

	h := NewHandler(createTestConfig(), sesMock, snsMock, logger.NewTestLogger(t))
	out, err := h.Execute(context.Background(), createTestInput(50000))
	require.NoError(t, err)

	assert.Equal(t, models.NotificationStatusSent, out.Status)
	assert.NotEmpty(t, out.NotificationID)
	assert.Equal(t, 1, sesMock.calls)
	assert.Zero(t, snsMock.calls, "loan below page threshold must not page")
}

func TestExecute_LargeLoanAlsoPages(t *testing.T) {
	sesMock := &MockSESService{SendEmailFunc: func(context.Context, *ses.SendEmailInput) (*ses.SendEmailOutput, error) {
		return &ses.SendEmailOutput{}, nil
	}}
	snsMock := &MockSNSService{PublishFunc: func(_ context.Context, input *sns.PublishInput) (*sns.PublishOutput, error) {
		assert.Equal(t, "+15550100", *input.PhoneNumber)
		return &sns.PublishOutput{}, nil
	}}

	h := NewHandler(createTestConfig(), sesMock, snsMock, logger.NewTestLogger(t))
	out, err := h.Execute(context.Background(), createTestInput(150000))
	require.NoError(t, err)

	assert.Equal(t, models.NotificationStatusSent, out.Status)
	assert.Equal(t, 1, snsMock.calls)
}

func TestExecute_EmailFailureIsRetryable(t *testing.T) {
	sesMock := &MockSESService{SendEmailFunc: func(context.Context, *ses.SendEmailInput) (*ses.SendEmailOutput, error) {
		return nil, errors.New("ses throttled")
	}}

	h := NewHandler(createTestConfig(), sesMock, &MockSNSService{}, logger.NewTestLogger(t))
	out, err := h.Execute(context.Background(), createTestInput(50000))
	require.Error(t, err)

	assert.True(t, stderrors.IsRetryable(err))
	assert.Equal(t, models.NotificationStatusFailed, out.Status)
}

func TestExecute_AllChannelsDisabled(t *testing.T) {
	cfg := createTestConfig()
	cfg.EmailEnabled = false
	cfg.SMSEnabled = false

	h := NewHandler(cfg, &MockSESService{}, &MockSNSService{}, logger.NewTestLogger(t))
	out, err := h.Execute(context.Background(), createTestInput(50000))
	require.NoError(t, err)

	assert.Equal(t, models.NotificationStatusDisabled, out.Status)
}

func TestExecute_PayloadShape(t *testing.T) {
	cfg := createTestConfig()
	cfg.EmailEnabled = false
	cfg.SMSEnabled = false

	h := NewHandler(cfg, &MockSESService{}, &MockSNSService{}, logger.NewTestLogger(t))
	out, err := h.Execute(context.Background(), createTestInput(50000))
	require.NoError(t, err)

	n := out.Notification
	assert.Equal(t, "agent_review_required", n.Type)
	assert.Equal(t, "john@example.com", n.ApplicantEmail)
	assert.Equal(t, "John Doe", n.ApplicantName)
	assert.Equal(t, models.DecisionConditional, n.Decision)
	assert.Equal(t, 50000.0, n.LoanAmount)
	assert.Equal(t, 750, n.CreditScore)
	assert.NotEmpty(t, n.Timestamp)
}
