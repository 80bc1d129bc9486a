// internal/stages/notify/models.go
package notify

import "loanflow/internal/models"

type Input struct {
	Application models.Application `json:"application"`
	Decision    models.Decision    `json:"decision"`
}

type Output struct {
	NotificationID string                   `json:"notificationId"`
	Status         string                   `json:"status"` // "sent", "failed", "disabled"
	SentAt         string                   `json:"sentAt"` // ISO 8601
	Notification   models.AgentNotification `json:"notification"`
}
