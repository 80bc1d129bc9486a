// internal/stages/notify/handler.go
package notify

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/ses"
	"github.com/aws/aws-sdk-go-v2/service/ses/types"
	"github.com/aws/aws-sdk-go-v2/service/sns"
	"github.com/google/uuid"

	stderrors "loanflow/internal/common/errors"
	"loanflow/internal/common/logger"
	"loanflow/internal/models"
	"loanflow/internal/stages/format"
)

const (
	TaskType = "send-agent-notification"
)

// Interfaces for mocking the AWS clients in tests.
type SESService interface {
	SendEmail(ctx context.Context, input *ses.SendEmailInput) (*ses.SendEmailOutput, error)
}

type SNSService interface {
	Publish(ctx context.Context, input *sns.PublishInput) (*sns.PublishOutput, error)
}

type Handler struct {
	config    *Config
	logger    logger.Logger
	sesClient SESService
	snsClient SNSService
	now       func() time.Time
}

func NewHandler(config *Config, sesClient SESService, snsClient SNSService, log logger.Logger) *Handler {
	return &Handler{
		config:    config,
		logger:    log.WithFields(map[string]interface{}{"taskType": TaskType}),
		sesClient: sesClient,
		snsClient: snsClient,
		now:       time.Now,
	}
}

// Execute dispatches the agent review notification. Delivery failures
// return a retryable error; the orchestrator decides whether a final
// failure sinks the run.
func (h *Handler) Execute(ctx context.Context, input *Input) (*Output, error) {
	sentAt := h.now().UTC().Format(time.RFC3339)
	notification := models.AgentNotification{
		Type:           models.NotificationTypeAgentReview,
		ApplicantEmail: input.Application.Email,
		ApplicantName:  input.Application.Name,
		Decision:       input.Decision,
		LoanAmount:     input.Application.LoanAmount,
		CreditScore:    input.Application.CreditScore,
		Timestamp:      sentAt,
	}

	out := &Output{
		NotificationID: uuid.New().String(),
		SentAt:         sentAt,
		Notification:   notification,
	}

	emailSent := false
	if h.config.EmailEnabled && h.config.AgentEmail != "" {
		if err := h.sendEmail(ctx, notification); err != nil {
			out.Status = models.NotificationStatusFailed
			return out, stderrors.NewNotificationSendFailedError("email", err)
		}
		emailSent = true
	}

	// Large loans additionally page the agent desk.
	smsSent := false
	if h.config.SMSEnabled && h.config.AgentPhone != "" && input.Application.LoanAmount >= h.config.PageThreshold {
		if err := h.sendSMS(ctx, notification); err != nil {
			out.Status = models.NotificationStatusFailed
			return out, stderrors.NewNotificationSendFailedError("sms", err)
		}
		smsSent = true
	}

	out.Status = models.NotificationStatusDisabled
	if emailSent || smsSent {
		out.Status = models.NotificationStatusSent
	}

	h.logger.Info("agent notification dispatched", map[string]interface{}{
		"email":    input.Application.Email,
		"decision": string(input.Decision),
		"status":   out.Status,
	})

	return out, nil
}

func (h *Handler) sendEmail(ctx context.Context, n models.AgentNotification) error {
	body, err := json.MarshalIndent(n, "", "  ")
	if err != nil {
		return err
	}
	subject := fmt.Sprintf("Agent review required: %s (%s)", n.ApplicantName, format.FormatAmount(n.LoanAmount))

	_, err = h.sesClient.SendEmail(ctx, &ses.SendEmailInput{
		Destination: &types.Destination{
			ToAddresses: []string{h.config.AgentEmail},
		},
		Message: &types.Message{
			Subject: &types.Content{Data: aws.String(subject)},
			Body: &types.Body{
				Text: &types.Content{Data: aws.String(string(body))},
			},
		},
		Source: aws.String(h.config.FromEmail),
	})
	return err
}

func (h *Handler) sendSMS(ctx context.Context, n models.AgentNotification) error {
	message := fmt.Sprintf("Review needed: %s, loan %s, score %d", n.ApplicantEmail, format.FormatAmount(n.LoanAmount), n.CreditScore)
	_, err := h.snsClient.Publish(ctx, &sns.PublishInput{
		PhoneNumber: aws.String(h.config.AgentPhone),
		Message:     aws.String(message),
	})
	return err
}
