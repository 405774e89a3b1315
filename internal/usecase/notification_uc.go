// File: internal/usecase/notification_uc.go
package usecase

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"

	"course-marketplace/internal/domain/model"
	"course-marketplace/internal/domain/ports/adapter"
	"course-marketplace/internal/domain/ports/repository"
)

const notifKindPaymentApproved = "payment-approved"

// Compile-time check
var _ NotificationUseCase = (*notificationUC)(nil)

// NotificationUseCase is the best-effort dispatcher for payment artifacts.
// Nothing here ever propagates an error to the payment flow: a lost email is
// an ops problem, not a payment problem.
type NotificationUseCase interface {
	// PaymentApproved sends the confirmation email for a first-time grant.
	// At-most-once: the notification log row is claimed before sending and
	// a failed send is not retried here.
	PaymentApproved(ctx context.Context, p *model.Payment)
	// ReceiptSubmitted alerts operators that a bank transfer receipt awaits review.
	ReceiptSubmitted(ctx context.Context, p *model.Payment)
	// VerificationFailed alerts operators about a rejected provider notification.
	VerificationFailed(ctx context.Context, provider, ref, reason string)
}

type notificationUC struct {
	notifLog repository.NotificationLogRepository
	users    repository.UserRepository
	courses  repository.CourseRepository
	mailer   adapter.Mailer
	ops      adapter.OpsNotifier
	certs    adapter.CertificateRenderer
	log      *zerolog.Logger
}

func NewNotificationUseCase(
	notifLog repository.NotificationLogRepository,
	users repository.UserRepository,
	courses repository.CourseRepository,
	mailer adapter.Mailer,
	ops adapter.OpsNotifier,
	certs adapter.CertificateRenderer,
	logger *zerolog.Logger,
) *notificationUC {
	return &notificationUC{notifLog: notifLog, users: users, courses: courses, mailer: mailer, ops: ops, certs: certs, log: logger}
}

func (n *notificationUC) PaymentApproved(ctx context.Context, p *model.Payment) {
	claimed, err := n.notifLog.Insert(ctx, repository.NoTX, p.ID, p.UserID, notifKindPaymentApproved)
	if err != nil {
		n.log.Error().Err(err).Str("payment_id", p.ID).Msg("notification log insert failed")
		return
	}
	if !claimed {
		// Another delivery already owns the dispatch for this payment.
		n.log.Debug().Str("payment_id", p.ID).Msg("confirmation already dispatched")
		return
	}

	user, err := n.users.FindByID(ctx, repository.NoTX, p.UserID)
	if err != nil {
		n.log.Error().Err(err).Str("payment_id", p.ID).Str("user_id", p.UserID).Msg("confirmation email skipped: user lookup failed")
		return
	}
	title := p.CourseID
	if c, err := n.courses.FindByID(ctx, repository.NoTX, p.CourseID); err == nil {
		title = c.Title
	}

	subject := fmt.Sprintf("Payment confirmed: %s", title)
	body := fmt.Sprintf(
		"Hi %s,\n\nyour payment %s for %q was confirmed and the course is now unlocked.\n\nAmount: %d %s\n",
		user.FullName, p.ID, title, p.Amount, p.Currency,
	)
	if err := n.mailer.Send(ctx, user.Email, subject, body); err != nil {
		n.log.Error().Err(err).Str("payment_id", p.ID).Msg("confirmation email failed")
		return
	}
	n.log.Info().Str("payment_id", p.ID).Str("user_id", p.UserID).Msg("confirmation email sent")

	if n.certs != nil {
		if ref, err := n.certs.Generate(ctx, p.UserID, p.CourseID); err != nil {
			n.log.Error().Err(err).Str("payment_id", p.ID).Msg("certificate generation failed")
		} else {
			n.log.Info().Str("payment_id", p.ID).Str("artifact", ref).Msg("certificate generated")
		}
	}
}

func (n *notificationUC) ReceiptSubmitted(ctx context.Context, p *model.Payment) {
	text := fmt.Sprintf("Bank transfer receipt submitted: payment=%s user=%s amount=%d %s", p.ID, p.UserID, p.Amount, p.Currency)
	if err := n.ops.Alert(ctx, text); err != nil {
		n.log.Error().Err(err).Str("payment_id", p.ID).Msg("ops alert failed")
	}
}

func (n *notificationUC) VerificationFailed(ctx context.Context, provider, ref, reason string) {
	text := fmt.Sprintf("Payment verification rejected: provider=%s ref=%s reason=%s", provider, ref, reason)
	if err := n.ops.Alert(ctx, text); err != nil {
		n.log.Error().Err(err).Str("provider", provider).Str("ref", ref).Msg("ops alert failed")
	}
}
