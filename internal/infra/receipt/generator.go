package receipt

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"edu-subscription-platform/internal/domain"
	"edu-subscription-platform/internal/domain/model"
	"edu-subscription-platform/internal/domain/ports/adapter"
	"edu-subscription-platform/internal/domain/ports/repository"
	"edu-subscription-platform/internal/infra/queue"
)

var _ adapter.ReceiptGenerator = (*Generator)(nil)

// Generator persists the receipt row for a successful payment and queues the
// receipt email. Re-generating for the same payment returns the existing
// receipt (payment_id is unique in storage).
type Generator struct {
	receipts repository.ReceiptRepository
	payments repository.PaymentRepository
	courses  repository.CourseRepository
	users    repository.UserDirectory
	q        *queue.Client
	log      *zerolog.Logger
}

func NewGenerator(
	receipts repository.ReceiptRepository,
	payments repository.PaymentRepository,
	courses repository.CourseRepository,
	users repository.UserDirectory,
	q *queue.Client,
	logger *zerolog.Logger,
) *Generator {
	gLog := logger.With().Str("component", "ReceiptGenerator").Logger()
	return &Generator{receipts: receipts, payments: payments, courses: courses, users: users, q: q, log: &gLog}
}

func (g *Generator) GenerateReceipt(ctx context.Context, paymentID string) (string, error) {
	p, err := g.payments.FindByID(ctx, nil, paymentID)
	if err != nil {
		return "", fmt.Errorf("load payment: %w", err)
	}
	if p.Status != model.PaymentStatusSuccess {
		return "", domain.ErrInvalidArgument
	}

	if existing, err := g.receipts.FindByPaymentID(ctx, nil, paymentID); err == nil {
		return existing.ID, nil
	}

	now := time.Now()
	rc := &model.Receipt{
		ID:        uuid.NewString(),
		PaymentID: paymentID,
		Number:    fmt.Sprintf("RCP-%s-%s", now.Format("20060102"), p.Reference),
		CreatedAt: now,
	}
	if err := g.receipts.Save(ctx, nil, rc); err != nil {
		return "", fmt.Errorf("save receipt: %w", err)
	}

	courseName := ""
	if c, err := g.courses.FindCourse(ctx, nil, p.CourseID); err == nil {
		courseName = c.Name
	}
	addr, _ := g.users.FindEmail(ctx, nil, p.UserID)

	task, err := queue.NewReceiptRenderTask(queue.ReceiptRenderPayload{
		ReceiptID:   rc.ID,
		PaymentID:   paymentID,
		Number:      rc.Number,
		Email:       addr,
		Reference:   p.Reference,
		CourseName:  courseName,
		AmountMinor: p.AmountMinor,
	})
	if err != nil {
		g.log.Error().Err(err).Msg("build receipt task failed")
		return rc.ID, nil
	}
	if err := g.q.Enqueue(ctx, task); err != nil {
		g.log.Error().Err(err).Str("receipt_id", rc.ID).Msg("enqueue receipt task failed")
	}
	return rc.ID, nil
}
