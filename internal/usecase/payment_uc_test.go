//go:build !integration

package usecase

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"edu-subscription-platform/internal/domain"
	"edu-subscription-platform/internal/domain/model"
	"edu-subscription-platform/internal/domain/ports/adapter"
	"edu-subscription-platform/internal/domain/ports/repository"
)

type paymentFixture struct {
	uc         *paymentUC
	payments   *mockPaymentRepo
	subs       *mockSubscriptionRepo
	history    *mockHistoryRepo
	courses    *mockCourseRepo
	gateway    *mockGateway
	dispatcher *mockDispatcher
	receipts   *mockReceipts
	locker     *mockLocker
	pool       *inlinePool
	now        time.Time
}

func newPaymentFixture(t *testing.T) *paymentFixture {
	t.Helper()
	log := zerolog.Nop()
	now := time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC)

	f := &paymentFixture{
		payments: &mockPaymentRepo{},
		subs:     &mockSubscriptionRepo{},
		history:  &mockHistoryRepo{},
		courses: &mockCourseRepo{
			FindCourseFunc: func(context.Context, repository.Tx, string) (*model.Course, error) {
				return &model.Course{ID: "course-1", Name: "Mathematics"}, nil
			},
			FindLevelFunc: func(context.Context, repository.Tx, string) (*model.CourseLevel, error) {
				return &model.CourseLevel{ID: "level-1", CourseID: "course-1", Name: "SS1", PriceMinor: 500000, DurationMonths: 6}, nil
			},
		},
		gateway:    &mockGateway{name: model.ProviderPaystack},
		dispatcher: &mockDispatcher{},
		receipts:   &mockReceipts{},
		locker:     &mockLocker{},
		pool:       &inlinePool{},
		now:        now,
	}

	users := &mockUserDirectory{
		FindEmailFunc: func(context.Context, repository.Tx, string) (string, error) {
			return "student@example.com", nil
		},
	}
	subUC := NewSubscriptionUseCase(f.subs, f.history, f.courses, &log)
	f.uc = NewPaymentUseCase(
		f.payments, f.courses, users, &mockTxManager{}, subUC,
		map[model.Provider]adapter.PaymentGateway{model.ProviderPaystack: f.gateway},
		map[model.Provider]string{model.ProviderPaystack: "https://edu.example.com/callback"},
		f.dispatcher, f.receipts, f.locker, f.pool, &log,
	)
	f.uc.clock = func() time.Time { return now }
	return f
}

func pendingPayment(now time.Time) *model.Payment {
	return &model.Payment{
		ID:          "pay-1",
		UserID:      "user-1",
		CourseID:    "course-1",
		LevelID:     "level-1",
		AmountMinor: 500000,
		Currency:    "NGN",
		Provider:    model.ProviderPaystack,
		Reference:   "EDU_01HTEST",
		Status:      model.PaymentStatusPending,
		CreatedAt:   now.Add(-time.Minute),
		UpdatedAt:   now.Add(-time.Minute),
	}
}

func TestHandleWebhookEvent(t *testing.T) {
	t.Run("verified success grants a fresh subscription", func(t *testing.T) {
		// Arrange
		f := newPaymentFixture(t)
		p := pendingPayment(f.now)
		var savedSub *model.Subscription
		var appended []*model.SubscriptionHistory

		f.payments.FindByReferenceFunc = func(_ context.Context, _ repository.Tx, ref string) (*model.Payment, error) {
			return p, nil
		}
		f.payments.MarkTerminalFunc = func(_ context.Context, tx repository.Tx, id string, status model.PaymentStatus, providerRef string, paidAt *time.Time) (bool, error) {
			if tx == nil {
				t.Fatal("terminal flip must run inside the transaction")
			}
			if status != model.PaymentStatusSuccess || providerRef != "PSK-42" || paidAt == nil {
				t.Fatalf("unexpected flip: status=%s ref=%s", status, providerRef)
			}
			return true, nil
		}
		f.subs.FindLiveByKeyFunc = func(context.Context, repository.Tx, string, string, string) (*model.Subscription, error) {
			return nil, domain.ErrNotFound
		}
		f.subs.SaveFunc = func(_ context.Context, _ repository.Tx, s *model.Subscription) error {
			savedSub = s
			return nil
		}
		f.history.AppendFunc = func(_ context.Context, _ repository.Tx, h *model.SubscriptionHistory) error {
			appended = append(appended, h)
			return nil
		}
		f.gateway.VerifyFunc = func(context.Context, string) (adapter.VerifyResult, error) {
			return adapter.VerifyResult{Status: adapter.VerifySuccess, AmountMinor: 500000, ProviderRef: "PSK-42"}, nil
		}

		// Act
		err := f.uc.HandleWebhookEvent(context.Background(), model.ProviderPaystack, p.Reference)

		// Assert
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if savedSub == nil {
			t.Fatal("expected a subscription to be created")
		}
		wantEnd := f.now.Add(6 * 30 * 24 * time.Hour)
		if !savedSub.EndDate.Equal(wantEnd) {
			t.Errorf("end date = %v, want %v", savedSub.EndDate, wantEnd)
		}
		if len(appended) != 1 || appended[0].Event != model.HistoryEventCreated {
			t.Errorf("history = %+v, want single Created entry", appended)
		}
		if len(f.dispatcher.successes) != 1 || f.dispatcher.successes[0] != p.Reference {
			t.Errorf("success notifications = %v", f.dispatcher.successes)
		}
		if len(f.receipts.calls) != 1 || f.receipts.calls[0] != p.ID {
			t.Errorf("receipt calls = %v", f.receipts.calls)
		}
		if len(f.locker.unlocks) != 1 {
			t.Errorf("lock not released: %v", f.locker.unlocks)
		}
	})

	t.Run("duplicate delivery of a settled payment is a no-op", func(t *testing.T) {
		f := newPaymentFixture(t)
		p := pendingPayment(f.now)
		p.Status = model.PaymentStatusSuccess
		f.payments.FindByReferenceFunc = func(context.Context, repository.Tx, string) (*model.Payment, error) {
			return p, nil
		}
		f.gateway.VerifyFunc = func(context.Context, string) (adapter.VerifyResult, error) {
			t.Fatal("duplicate must not reach the provider")
			return adapter.VerifyResult{}, nil
		}

		err := f.uc.HandleWebhookEvent(context.Background(), model.ProviderPaystack, p.Reference)

		if !errors.Is(err, domain.ErrAlreadyTerminal) {
			t.Fatalf("err = %v, want ErrAlreadyTerminal", err)
		}
		if len(f.dispatcher.successes)+len(f.dispatcher.failures) != 0 {
			t.Error("duplicate delivery must not notify")
		}
	})

	t.Run("losing the conditional flip skips all side effects", func(t *testing.T) {
		f := newPaymentFixture(t)
		p := pendingPayment(f.now)
		f.payments.FindByReferenceFunc = func(context.Context, repository.Tx, string) (*model.Payment, error) {
			return p, nil
		}
		f.payments.MarkTerminalFunc = func(context.Context, repository.Tx, string, model.PaymentStatus, string, *time.Time) (bool, error) {
			return false, nil // another worker already settled the row
		}
		f.subs.FindLiveByKeyFunc = func(context.Context, repository.Tx, string, string, string) (*model.Subscription, error) {
			t.Fatal("grant must not run when the flip was lost")
			return nil, nil
		}
		f.gateway.VerifyFunc = func(context.Context, string) (adapter.VerifyResult, error) {
			return adapter.VerifyResult{Status: adapter.VerifySuccess, AmountMinor: 500000}, nil
		}

		if err := f.uc.HandleWebhookEvent(context.Background(), model.ProviderPaystack, p.Reference); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if len(f.dispatcher.successes) != 0 || len(f.receipts.calls) != 0 {
			t.Error("lost flip must not produce notifications or receipts")
		}
	})

	t.Run("verified failure marks the payment failed and notifies", func(t *testing.T) {
		f := newPaymentFixture(t)
		p := pendingPayment(f.now)
		var gotStatus model.PaymentStatus
		f.payments.FindByReferenceFunc = func(context.Context, repository.Tx, string) (*model.Payment, error) {
			return p, nil
		}
		f.payments.MarkTerminalFunc = func(_ context.Context, _ repository.Tx, _ string, status model.PaymentStatus, _ string, _ *time.Time) (bool, error) {
			gotStatus = status
			return true, nil
		}
		f.gateway.VerifyFunc = func(context.Context, string) (adapter.VerifyResult, error) {
			return adapter.VerifyResult{Status: adapter.VerifyFailed}, nil
		}

		if err := f.uc.HandleWebhookEvent(context.Background(), model.ProviderPaystack, p.Reference); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if gotStatus != model.PaymentStatusFailed {
			t.Errorf("status = %s, want failed", gotStatus)
		}
		if len(f.dispatcher.failures) != 1 {
			t.Errorf("failure notifications = %v", f.dispatcher.failures)
		}
		if len(f.dispatcher.successes) != 0 {
			t.Error("failed payment must not send a success notification")
		}
	})

	t.Run("transport error leaves the payment pending", func(t *testing.T) {
		f := newPaymentFixture(t)
		p := pendingPayment(f.now)
		f.payments.FindByReferenceFunc = func(context.Context, repository.Tx, string) (*model.Payment, error) {
			return p, nil
		}
		f.payments.MarkTerminalFunc = func(context.Context, repository.Tx, string, model.PaymentStatus, string, *time.Time) (bool, error) {
			t.Fatal("transport failure must not settle the payment")
			return false, nil
		}
		f.gateway.VerifyFunc = func(context.Context, string) (adapter.VerifyResult, error) {
			return adapter.VerifyResult{}, domain.ErrTransport
		}

		// The handler path still acks; the task error surfaces via the pool.
		if err := f.uc.HandleWebhookEvent(context.Background(), model.ProviderPaystack, p.Reference); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if len(f.locker.unlocks) != 1 {
			t.Error("lock must be released after a transport failure")
		}
	})

	t.Run("amount mismatch settles the payment as failed", func(t *testing.T) {
		f := newPaymentFixture(t)
		p := pendingPayment(f.now)
		var gotStatus model.PaymentStatus
		f.payments.FindByReferenceFunc = func(context.Context, repository.Tx, string) (*model.Payment, error) {
			return p, nil
		}
		f.payments.MarkTerminalFunc = func(_ context.Context, _ repository.Tx, _ string, status model.PaymentStatus, _ string, _ *time.Time) (bool, error) {
			gotStatus = status
			return true, nil
		}
		f.gateway.VerifyFunc = func(context.Context, string) (adapter.VerifyResult, error) {
			return adapter.VerifyResult{Status: adapter.VerifySuccess, AmountMinor: 100}, nil
		}

		if err := f.uc.HandleWebhookEvent(context.Background(), model.ProviderPaystack, p.Reference); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if gotStatus != model.PaymentStatusFailed {
			t.Errorf("status = %s, want failed on amount mismatch", gotStatus)
		}
	})

	t.Run("unknown reference is reported but never settled", func(t *testing.T) {
		f := newPaymentFixture(t)
		f.payments.FindByReferenceFunc = func(context.Context, repository.Tx, string) (*model.Payment, error) {
			return nil, domain.ErrNotFound
		}

		err := f.uc.HandleWebhookEvent(context.Background(), model.ProviderPaystack, "EDU_NOPE")

		if !errors.Is(err, domain.ErrNotFound) {
			t.Fatalf("err = %v, want ErrNotFound", err)
		}
	})

	t.Run("held reference lock acks without verifying", func(t *testing.T) {
		f := newPaymentFixture(t)
		p := pendingPayment(f.now)
		f.locker.denied = true
		f.payments.FindByReferenceFunc = func(context.Context, repository.Tx, string) (*model.Payment, error) {
			return p, nil
		}
		f.gateway.VerifyFunc = func(context.Context, string) (adapter.VerifyResult, error) {
			t.Fatal("lock loser must not verify")
			return adapter.VerifyResult{}, nil
		}

		if err := f.uc.HandleWebhookEvent(context.Background(), model.ProviderPaystack, p.Reference); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
	})
}

func TestFinalize_RenewalExtendsFromCurrentEnd(t *testing.T) {
	// Arrange: a live subscription ending 30 days out; renewing now must
	// extend from that end date, never truncate back to now+duration.
	f := newPaymentFixture(t)
	p := pendingPayment(f.now)
	currentEnd := f.now.Add(30 * 24 * time.Hour)
	live := &model.Subscription{
		ID: "sub-1", UserID: p.UserID, CourseID: p.CourseID, LevelID: p.LevelID,
		StartDate: f.now.Add(-150 * 24 * time.Hour), EndDate: currentEnd,
		Status: model.SubscriptionStatusActive, RenewalCount: 0,
	}
	var saved *model.Subscription
	var appended *model.SubscriptionHistory

	f.payments.FindByReferenceFunc = func(context.Context, repository.Tx, string) (*model.Payment, error) {
		return p, nil
	}
	f.payments.MarkTerminalFunc = func(context.Context, repository.Tx, string, model.PaymentStatus, string, *time.Time) (bool, error) {
		return true, nil
	}
	f.subs.FindLiveByKeyFunc = func(context.Context, repository.Tx, string, string, string) (*model.Subscription, error) {
		return live, nil
	}
	f.subs.SaveFunc = func(_ context.Context, _ repository.Tx, s *model.Subscription) error {
		saved = s
		return nil
	}
	f.history.AppendFunc = func(_ context.Context, _ repository.Tx, h *model.SubscriptionHistory) error {
		appended = h
		return nil
	}
	f.gateway.VerifyFunc = func(context.Context, string) (adapter.VerifyResult, error) {
		return adapter.VerifyResult{Status: adapter.VerifySuccess, AmountMinor: 500000}, nil
	}

	// Act
	if err := f.uc.Finalize(context.Background(), p.Reference); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	// Assert
	if saved == nil {
		t.Fatal("expected the live subscription to be saved")
	}
	wantEnd := currentEnd.Add(6 * 30 * 24 * time.Hour)
	if !saved.EndDate.Equal(wantEnd) {
		t.Fatalf("end date = %v, want %v (extension from current end)", saved.EndDate, wantEnd)
	}
	if saved.RenewalCount != 1 {
		t.Errorf("renewal count = %d, want 1", saved.RenewalCount)
	}
	if appended == nil || appended.Event != model.HistoryEventRenewed {
		t.Fatalf("history = %+v, want Renewed entry", appended)
	}
	if appended.PrevEndDate == nil || !appended.PrevEndDate.Equal(currentEnd) {
		t.Errorf("history prev end = %v, want %v", appended.PrevEndDate, currentEnd)
	}
}

func TestFinalize_GrantFailureRollsBackSettlement(t *testing.T) {
	// A grant error inside the transaction must propagate so the payment
	// flip rolls back with it; no success side effects may run.
	f := newPaymentFixture(t)
	p := pendingPayment(f.now)
	f.payments.FindByReferenceFunc = func(context.Context, repository.Tx, string) (*model.Payment, error) {
		return p, nil
	}
	f.payments.MarkTerminalFunc = func(context.Context, repository.Tx, string, model.PaymentStatus, string, *time.Time) (bool, error) {
		return true, nil
	}
	f.subs.FindLiveByKeyFunc = func(context.Context, repository.Tx, string, string, string) (*model.Subscription, error) {
		return nil, domain.ErrNotFound
	}
	f.subs.SaveFunc = func(context.Context, repository.Tx, *model.Subscription) error {
		return domain.ErrOperationFailed
	}
	f.gateway.VerifyFunc = func(context.Context, string) (adapter.VerifyResult, error) {
		return adapter.VerifyResult{Status: adapter.VerifySuccess, AmountMinor: 500000}, nil
	}

	err := f.uc.Finalize(context.Background(), p.Reference)

	if !errors.Is(err, domain.ErrOperationFailed) {
		t.Fatalf("err = %v, want grant failure to propagate", err)
	}
	if len(f.dispatcher.successes) != 0 || len(f.receipts.calls) != 0 {
		t.Error("rolled-back settlement must not notify or issue receipts")
	}
}

func TestInitiate(t *testing.T) {
	t.Run("creates a pending payment and returns the checkout URL", func(t *testing.T) {
		f := newPaymentFixture(t)
		var saved *model.Payment
		f.payments.SaveFunc = func(_ context.Context, _ repository.Tx, p *model.Payment) error {
			saved = p
			return nil
		}
		f.gateway.InitFunc = func(_ context.Context, email string, amountMinor int64, reference, callbackURL string) (adapter.InitResult, error) {
			if email != "student@example.com" || amountMinor != 500000 {
				t.Fatalf("init called with email=%s amount=%d", email, amountMinor)
			}
			return adapter.InitResult{OK: true, PaymentURL: "https://checkout.example/abc"}, nil
		}

		p, url, err := f.uc.Initiate(context.Background(), "user-1", "level-1", model.ProviderPaystack)

		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if url != "https://checkout.example/abc" {
			t.Errorf("url = %s", url)
		}
		if saved == nil || saved.Status != model.PaymentStatusPending {
			t.Fatalf("saved payment = %+v, want pending", saved)
		}
		if !strings.HasPrefix(p.Reference, "EDU_") {
			t.Errorf("reference = %s, want EDU_ prefix", p.Reference)
		}
	})

	t.Run("provider decline surfaces as an operation failure", func(t *testing.T) {
		f := newPaymentFixture(t)
		f.payments.SaveFunc = func(context.Context, repository.Tx, *model.Payment) error { return nil }
		f.gateway.InitFunc = func(context.Context, string, int64, string, string) (adapter.InitResult, error) {
			return adapter.InitResult{OK: false, Message: "merchant suspended"}, nil
		}

		_, _, err := f.uc.Initiate(context.Background(), "user-1", "level-1", model.ProviderPaystack)

		if !errors.Is(err, domain.ErrOperationFailed) {
			t.Fatalf("err = %v, want ErrOperationFailed", err)
		}
	})

	t.Run("unknown provider is rejected before any write", func(t *testing.T) {
		f := newPaymentFixture(t)
		f.payments.SaveFunc = func(context.Context, repository.Tx, *model.Payment) error {
			t.Fatal("no payment row may be written for an unknown provider")
			return nil
		}

		_, _, err := f.uc.Initiate(context.Background(), "user-1", "level-1", model.Provider("flutterwave"))

		if !errors.Is(err, domain.ErrUnknownProvider) {
			t.Fatalf("err = %v, want ErrUnknownProvider", err)
		}
	})
}

func TestReconcileStale(t *testing.T) {
	f := newPaymentFixture(t)
	stale := pendingPayment(f.now)
	stale.Reference = "EDU_STALE"
	locked := pendingPayment(f.now)
	locked.ID = "pay-2"
	locked.Reference = "EDU_LOCKED"

	var cutoffSeen time.Time
	f.payments.ListPendingOlderThanFunc = func(_ context.Context, _ repository.Tx, olderThan time.Time, _ int) ([]*model.Payment, error) {
		cutoffSeen = olderThan
		return []*model.Payment{stale}, nil
	}
	f.payments.FindByReferenceFunc = func(_ context.Context, _ repository.Tx, ref string) (*model.Payment, error) {
		return stale, nil
	}
	verified := 0
	f.gateway.VerifyFunc = func(_ context.Context, ref string) (adapter.VerifyResult, error) {
		verified++
		return adapter.VerifyResult{Status: adapter.VerifyPending}, nil
	}

	n, err := f.uc.ReconcileStale(context.Background(), 15*time.Minute, 100)

	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if n != 1 || verified != 1 {
		t.Errorf("attempted=%d verified=%d, want 1/1", n, verified)
	}
	if want := f.now.Add(-15 * time.Minute); !cutoffSeen.Equal(want) {
		t.Errorf("cutoff = %v, want %v", cutoffSeen, want)
	}
	if len(f.locker.unlocks) != 1 {
		t.Error("sweep must release the reference lock")
	}
}
