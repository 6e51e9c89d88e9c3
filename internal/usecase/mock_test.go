//go:build !integration

package usecase

import (
	"context"
	"time"

	"github.com/jackc/pgx/v4"

	"edu-subscription-platform/internal/domain"
	"edu-subscription-platform/internal/domain/model"
	"edu-subscription-platform/internal/domain/ports/adapter"
	"edu-subscription-platform/internal/domain/ports/repository"
	"edu-subscription-platform/internal/infra/worker"
)

// --- repository mocks ---

type mockPaymentRepo struct {
	SaveFunc                 func(ctx context.Context, tx repository.Tx, p *model.Payment) error
	FindByIDFunc             func(ctx context.Context, tx repository.Tx, id string) (*model.Payment, error)
	FindByReferenceFunc      func(ctx context.Context, tx repository.Tx, reference string) (*model.Payment, error)
	MarkTerminalFunc         func(ctx context.Context, tx repository.Tx, id string, status model.PaymentStatus, providerRef string, paidAt *time.Time) (bool, error)
	ListPendingOlderThanFunc func(ctx context.Context, tx repository.Tx, olderThan time.Time, limit int) ([]*model.Payment, error)
	SumSucceededByPeriodFunc func(ctx context.Context, tx repository.Tx, period string) (int64, error)
}

func (m *mockPaymentRepo) Save(ctx context.Context, tx repository.Tx, p *model.Payment) error {
	return m.SaveFunc(ctx, tx, p)
}
func (m *mockPaymentRepo) FindByID(ctx context.Context, tx repository.Tx, id string) (*model.Payment, error) {
	return m.FindByIDFunc(ctx, tx, id)
}
func (m *mockPaymentRepo) FindByReference(ctx context.Context, tx repository.Tx, reference string) (*model.Payment, error) {
	return m.FindByReferenceFunc(ctx, tx, reference)
}
func (m *mockPaymentRepo) MarkTerminal(ctx context.Context, tx repository.Tx, id string, status model.PaymentStatus, providerRef string, paidAt *time.Time) (bool, error) {
	return m.MarkTerminalFunc(ctx, tx, id, status, providerRef, paidAt)
}
func (m *mockPaymentRepo) ListPendingOlderThan(ctx context.Context, tx repository.Tx, olderThan time.Time, limit int) ([]*model.Payment, error) {
	return m.ListPendingOlderThanFunc(ctx, tx, olderThan, limit)
}
func (m *mockPaymentRepo) SumSucceededByPeriod(ctx context.Context, tx repository.Tx, period string) (int64, error) {
	return m.SumSucceededByPeriodFunc(ctx, tx, period)
}

type mockSubscriptionRepo struct {
	SaveFunc             func(ctx context.Context, tx repository.Tx, s *model.Subscription) error
	FindByIDFunc         func(ctx context.Context, tx repository.Tx, id string) (*model.Subscription, error)
	FindLiveByKeyFunc    func(ctx context.Context, tx repository.Tx, userID, courseID, levelID string) (*model.Subscription, error)
	ListByUserFunc       func(ctx context.Context, tx repository.Tx, userID string) ([]*model.Subscription, error)
	ExpireDueFunc        func(ctx context.Context, tx repository.Tx, now time.Time) ([]*model.Subscription, error)
	ListEndingWithinFunc func(ctx context.Context, tx repository.Tx, now time.Time, days int) ([]*model.Subscription, error)
	MarkExpiringSoonFunc func(ctx context.Context, tx repository.Tx, id string) error
}

func (m *mockSubscriptionRepo) Save(ctx context.Context, tx repository.Tx, s *model.Subscription) error {
	return m.SaveFunc(ctx, tx, s)
}
func (m *mockSubscriptionRepo) FindByID(ctx context.Context, tx repository.Tx, id string) (*model.Subscription, error) {
	return m.FindByIDFunc(ctx, tx, id)
}
func (m *mockSubscriptionRepo) FindLiveByKey(ctx context.Context, tx repository.Tx, userID, courseID, levelID string) (*model.Subscription, error) {
	return m.FindLiveByKeyFunc(ctx, tx, userID, courseID, levelID)
}
func (m *mockSubscriptionRepo) ListByUser(ctx context.Context, tx repository.Tx, userID string) ([]*model.Subscription, error) {
	return m.ListByUserFunc(ctx, tx, userID)
}
func (m *mockSubscriptionRepo) ExpireDue(ctx context.Context, tx repository.Tx, now time.Time) ([]*model.Subscription, error) {
	return m.ExpireDueFunc(ctx, tx, now)
}
func (m *mockSubscriptionRepo) ListEndingWithin(ctx context.Context, tx repository.Tx, now time.Time, days int) ([]*model.Subscription, error) {
	return m.ListEndingWithinFunc(ctx, tx, now, days)
}
func (m *mockSubscriptionRepo) MarkExpiringSoon(ctx context.Context, tx repository.Tx, id string) error {
	return m.MarkExpiringSoonFunc(ctx, tx, id)
}

type mockHistoryRepo struct {
	AppendFunc             func(ctx context.Context, tx repository.Tx, h *model.SubscriptionHistory) error
	ListBySubscriptionFunc func(ctx context.Context, tx repository.Tx, subscriptionID string) ([]*model.SubscriptionHistory, error)
}

func (m *mockHistoryRepo) Append(ctx context.Context, tx repository.Tx, h *model.SubscriptionHistory) error {
	return m.AppendFunc(ctx, tx, h)
}
func (m *mockHistoryRepo) ListBySubscription(ctx context.Context, tx repository.Tx, subscriptionID string) ([]*model.SubscriptionHistory, error) {
	return m.ListBySubscriptionFunc(ctx, tx, subscriptionID)
}

type mockCourseRepo struct {
	FindCourseFunc func(ctx context.Context, tx repository.Tx, id string) (*model.Course, error)
	FindLevelFunc  func(ctx context.Context, tx repository.Tx, id string) (*model.CourseLevel, error)
}

func (m *mockCourseRepo) FindCourse(ctx context.Context, tx repository.Tx, id string) (*model.Course, error) {
	if m.FindCourseFunc == nil {
		return nil, domain.ErrNotFound
	}
	return m.FindCourseFunc(ctx, tx, id)
}
func (m *mockCourseRepo) FindLevel(ctx context.Context, tx repository.Tx, id string) (*model.CourseLevel, error) {
	return m.FindLevelFunc(ctx, tx, id)
}

type mockUserDirectory struct {
	FindEmailFunc func(ctx context.Context, tx repository.Tx, userID string) (string, error)
}

func (m *mockUserDirectory) FindEmail(ctx context.Context, tx repository.Tx, userID string) (string, error) {
	return m.FindEmailFunc(ctx, tx, userID)
}

type mockNotificationRepo struct {
	SaveFunc          func(ctx context.Context, tx repository.Tx, n *model.Notification) error
	ListByUserFunc    func(ctx context.Context, tx repository.Tx, userID string, limit int) ([]*model.Notification, error)
	MarkReadFunc      func(ctx context.Context, tx repository.Tx, id string) error
	MarkEmailSentFunc func(ctx context.Context, tx repository.Tx, id string) error
	ExistsForDayFunc  func(ctx context.Context, tx repository.Tx, userID string, typ model.NotificationType, day time.Time) (bool, error)
}

func (m *mockNotificationRepo) Save(ctx context.Context, tx repository.Tx, n *model.Notification) error {
	return m.SaveFunc(ctx, tx, n)
}
func (m *mockNotificationRepo) ListByUser(ctx context.Context, tx repository.Tx, userID string, limit int) ([]*model.Notification, error) {
	return m.ListByUserFunc(ctx, tx, userID, limit)
}
func (m *mockNotificationRepo) MarkRead(ctx context.Context, tx repository.Tx, id string) error {
	return m.MarkReadFunc(ctx, tx, id)
}
func (m *mockNotificationRepo) MarkEmailSent(ctx context.Context, tx repository.Tx, id string) error {
	return m.MarkEmailSentFunc(ctx, tx, id)
}
func (m *mockNotificationRepo) ExistsForDay(ctx context.Context, tx repository.Tx, userID string, typ model.NotificationType, day time.Time) (bool, error) {
	return m.ExistsForDayFunc(ctx, tx, userID, typ, day)
}

// mockTxManager runs the callback directly; a token value stands in for the
// transaction handle so code under test can pass it through.
type mockTxManager struct{}

func (m *mockTxManager) WithTx(ctx context.Context, _ pgx.TxOptions, fn func(ctx context.Context, tx repository.Tx) error) error {
	return fn(ctx, "mock-tx")
}

// --- adapter mocks ---

type mockGateway struct {
	name       model.Provider
	InitFunc   func(ctx context.Context, email string, amountMinor int64, reference, callbackURL string) (adapter.InitResult, error)
	VerifyFunc func(ctx context.Context, reference string) (adapter.VerifyResult, error)
}

func (m *mockGateway) Name() model.Provider { return m.name }
func (m *mockGateway) InitializeTransaction(ctx context.Context, email string, amountMinor int64, reference, callbackURL string) (adapter.InitResult, error) {
	return m.InitFunc(ctx, email, amountMinor, reference, callbackURL)
}
func (m *mockGateway) VerifyTransaction(ctx context.Context, reference string) (adapter.VerifyResult, error) {
	return m.VerifyFunc(ctx, reference)
}

// mockDispatcher records every call for assertion.
type mockDispatcher struct {
	successes []string // references
	failures  []string // references
	reminders []int    // daysRemaining values
}

func (m *mockDispatcher) NotifyPaymentSuccess(_ context.Context, _, _, _, reference string, _ int64) {
	m.successes = append(m.successes, reference)
}
func (m *mockDispatcher) NotifyPaymentFailed(_ context.Context, _, _, _, reference string) {
	m.failures = append(m.failures, reference)
}
func (m *mockDispatcher) NotifyExpiryReminder(_ context.Context, _, _, _ string, _ time.Time, daysRemaining int) {
	m.reminders = append(m.reminders, daysRemaining)
}

type mockReceipts struct {
	calls []string // payment IDs
	err   error
}

func (m *mockReceipts) GenerateReceipt(_ context.Context, paymentID string) (string, error) {
	m.calls = append(m.calls, paymentID)
	return "rcp-" + paymentID, m.err
}

// mockLocker grants every lock unless told otherwise.
type mockLocker struct {
	denied  bool
	locked  []string
	unlocks []string
}

func (m *mockLocker) TryLock(_ context.Context, key string, _ time.Duration) (string, error) {
	if m.denied {
		return "", domain.ErrReferenceClaimed
	}
	m.locked = append(m.locked, key)
	return "token", nil
}
func (m *mockLocker) Unlock(_ context.Context, key, _ string) error {
	m.unlocks = append(m.unlocks, key)
	return nil
}

// inlinePool runs each task synchronously on the submitting goroutine so
// tests observe the full webhook continuation without sleeping.
type inlinePool struct {
	submitErr error
}

func (p *inlinePool) Submit(task worker.Task) error {
	if p.submitErr != nil {
		return p.submitErr
	}
	return task(context.Background())
}
