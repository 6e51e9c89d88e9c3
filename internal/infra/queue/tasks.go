package queue

import (
	"encoding/json"
	"time"

	"github.com/hibiken/asynq"
)

const (
	TypeNotificationEmail = "notification:email"
	TypeReceiptRender     = "receipt:render"
)

// NotificationEmailPayload carries everything the email handler needs so it
// never has to read application state.
type NotificationEmailPayload struct {
	NotificationID string    `json:"notification_id"`
	UserID         string    `json:"user_id"`
	Email          string    `json:"email,omitempty"`
	Subject        string    `json:"subject"`
	Body           string    `json:"body"`
	CreatedAt      time.Time `json:"created_at"`
}

type ReceiptRenderPayload struct {
	ReceiptID   string `json:"receipt_id"`
	PaymentID   string `json:"payment_id"`
	Number      string `json:"number"`
	Email       string `json:"email,omitempty"`
	Reference   string `json:"reference"`
	CourseName  string `json:"course_name"`
	AmountMinor int64  `json:"amount_minor"`
}

func NewNotificationEmailTask(p NotificationEmailPayload) (*asynq.Task, error) {
	b, err := json.Marshal(p)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TypeNotificationEmail, b, asynq.MaxRetry(5), asynq.Timeout(30*time.Second)), nil
}

func NewReceiptRenderTask(p ReceiptRenderPayload) (*asynq.Task, error) {
	b, err := json.Marshal(p)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TypeReceiptRender, b, asynq.MaxRetry(3), asynq.Timeout(time.Minute)), nil
}
