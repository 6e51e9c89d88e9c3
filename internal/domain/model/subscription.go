package model

import (
	"time"

	"edu-subscription-platform/internal/domain"
)

type SubscriptionStatus string

const (
	SubscriptionStatusPending      SubscriptionStatus = "pending"
	SubscriptionStatusActive       SubscriptionStatus = "active"
	SubscriptionStatusExpiringSoon SubscriptionStatus = "expiring_soon"
	SubscriptionStatusRenewed      SubscriptionStatus = "renewed"
	SubscriptionStatusExpired      SubscriptionStatus = "expired"
)

// IsLive reports whether the subscription still grants access.
func (s SubscriptionStatus) IsLive() bool {
	switch s {
	case SubscriptionStatusActive, SubscriptionStatusRenewed, SubscriptionStatusExpiringSoon:
		return true
	}
	return false
}

// Subscription is a user's time-bounded access grant to one course level.
// At most one row per (UserID, CourseID, LevelID) is live at a time; a
// renewal extends the existing row instead of inserting a second one.
type Subscription struct {
	ID           string // UUID
	UserID       string
	CourseID     string
	LevelID      string
	StartDate    time.Time
	EndDate      time.Time
	Status       SubscriptionStatus
	RenewalCount int
	PaymentID    string // payment that created or last extended this row
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// NewSubscription creates a fresh active grant running from now.
func NewSubscription(id, userID, courseID, levelID, paymentID string, now time.Time, duration time.Duration) (*Subscription, error) {
	if id == "" || userID == "" || courseID == "" || levelID == "" {
		return nil, domain.ErrInvalidArgument
	}
	return &Subscription{
		ID:        id,
		UserID:    userID,
		CourseID:  courseID,
		LevelID:   levelID,
		StartDate: now,
		EndDate:   now.Add(duration),
		Status:    SubscriptionStatusActive,
		PaymentID: paymentID,
		CreatedAt: now,
		UpdatedAt: now,
	}, nil
}

type HistoryEvent string

const (
	HistoryEventCreated  HistoryEvent = "Created"
	HistoryEventRenewed  HistoryEvent = "Renewed"
	HistoryEventExtended HistoryEvent = "Extended"
	HistoryEventExpired  HistoryEvent = "Expired"
)

// SubscriptionHistory is the append-only audit trail of subscription
// transitions. Rows are never updated or deleted.
type SubscriptionHistory struct {
	ID             string // UUID
	SubscriptionID string
	Event          HistoryEvent
	PrevEndDate    *time.Time
	NewEndDate     time.Time
	PaymentID      string // empty for time-driven transitions
	CreatedAt      time.Time
}
