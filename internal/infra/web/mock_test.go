//go:build !integration

package web

import (
	"context"
	"time"

	"edu-subscription-platform/internal/domain/model"
	"edu-subscription-platform/internal/domain/ports/repository"
)

type mockPaymentUC struct {
	InitiateFunc       func(ctx context.Context, userID, levelID string, provider model.Provider) (*model.Payment, string, error)
	HandleWebhookFunc  func(ctx context.Context, provider model.Provider, reference string) error
	FinalizeFunc       func(ctx context.Context, reference string) error
	ReconcileStaleFunc func(ctx context.Context, staleAfter time.Duration, limit int) (int, error)
	GetByRefFunc       func(ctx context.Context, reference string) (*model.Payment, error)
	RevenueFunc        func(ctx context.Context, period string) (int64, error)
}

func (m *mockPaymentUC) Initiate(ctx context.Context, userID, levelID string, provider model.Provider) (*model.Payment, string, error) {
	return m.InitiateFunc(ctx, userID, levelID, provider)
}
func (m *mockPaymentUC) HandleWebhookEvent(ctx context.Context, provider model.Provider, reference string) error {
	return m.HandleWebhookFunc(ctx, provider, reference)
}
func (m *mockPaymentUC) Finalize(ctx context.Context, reference string) error {
	return m.FinalizeFunc(ctx, reference)
}
func (m *mockPaymentUC) ReconcileStale(ctx context.Context, staleAfter time.Duration, limit int) (int, error) {
	return m.ReconcileStaleFunc(ctx, staleAfter, limit)
}
func (m *mockPaymentUC) GetByReference(ctx context.Context, reference string) (*model.Payment, error) {
	return m.GetByRefFunc(ctx, reference)
}
func (m *mockPaymentUC) Revenue(ctx context.Context, period string) (int64, error) {
	return m.RevenueFunc(ctx, period)
}

type mockSubUC struct {
	ListByUserFunc func(ctx context.Context, userID string) ([]*model.Subscription, error)
	HistoryFunc    func(ctx context.Context, subscriptionID string) ([]*model.SubscriptionHistory, error)
}

func (m *mockSubUC) GrantForPayment(context.Context, repository.Tx, *model.Payment, time.Time) (*model.Subscription, model.HistoryEvent, error) {
	panic("not used in web tests")
}
func (m *mockSubUC) ExpireDue(context.Context, time.Time) ([]*model.Subscription, error) {
	panic("not used in web tests")
}
func (m *mockSubUC) ListByUser(ctx context.Context, userID string) ([]*model.Subscription, error) {
	return m.ListByUserFunc(ctx, userID)
}
func (m *mockSubUC) History(ctx context.Context, subscriptionID string) ([]*model.SubscriptionHistory, error) {
	return m.HistoryFunc(ctx, subscriptionID)
}

type mockNotifUC struct {
	ListByUserFunc func(ctx context.Context, userID string, limit int) ([]*model.Notification, error)
	MarkReadFunc   func(ctx context.Context, id string) error
}

func (m *mockNotifUC) CheckAndSendExpiryReminders(context.Context, time.Time) (int, error) {
	panic("not used in web tests")
}
func (m *mockNotifUC) SendExpiredNotices(context.Context, []*model.Subscription) int {
	panic("not used in web tests")
}
func (m *mockNotifUC) ListByUser(ctx context.Context, userID string, limit int) ([]*model.Notification, error) {
	return m.ListByUserFunc(ctx, userID, limit)
}
func (m *mockNotifUC) MarkRead(ctx context.Context, id string) error {
	return m.MarkReadFunc(ctx, id)
}
