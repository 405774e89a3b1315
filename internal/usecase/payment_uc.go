// File: internal/usecase/payment_uc.go
package usecase

import (
	"context"
	"time"

	"github.com/jackc/pgx/v4"
	"github.com/rs/zerolog"

	"course-marketplace/internal/domain"
	"course-marketplace/internal/domain/model"
	"course-marketplace/internal/domain/ports/adapter"
	"course-marketplace/internal/domain/ports/repository"
	"course-marketplace/internal/infra/logging"
)

// applyTimeout bounds a single reconciliation transition. The transition runs
// on a detached context so a disconnecting caller cannot abort it mid-flight.
const applyTimeout = 15 * time.Second

// Compile-time check
var _ PaymentUseCase = (*paymentUC)(nil)

// PaymentUseCase is the intent initiator plus the reconciliation engine: the
// one place where a payment moves from pending into a terminal state. Every
// ingress path (card webhook, gateway callback, client poll, operator
// approval, background sweep) reduces its provider event to a
// model.PaymentOutcome and hands it to Apply.
type PaymentUseCase interface {
	// Initiate creates a pending payment and the provider-specific redirect
	// parameters. For bank transfer no redirect exists and params is nil.
	Initiate(ctx context.Context, userID, courseID string, method model.PaymentMethod) (*model.Payment, map[string]string, error)
	// Apply performs the idempotent pending->terminal transition for the
	// canonical outcome event. An already-terminal payment is returned
	// unchanged with no error and no side effects. The bool reports whether
	// this call won the transition; replayed deliveries see false.
	Apply(ctx context.Context, paymentID string, out model.PaymentOutcome) (*model.Payment, bool, error)
	// VerifySession is the client poll path: it re-queries the card
	// processor for the session and feeds the answer through Apply.
	VerifySession(ctx context.Context, sessionID string) (*model.Payment, error)
	// AttachReceipt stores the bank transfer receipt reference on a pending payment.
	AttachReceipt(ctx context.Context, paymentID, receiptRef string) (*model.Payment, error)
	// ApproveBankTransfer is the operator-authenticated manual success transition.
	ApproveBankTransfer(ctx context.Context, paymentID, operatorID string) (*model.Payment, error)

	FindByID(ctx context.Context, id string) (*model.Payment, error)
	FindByProviderRef(ctx context.Context, ref string) (*model.Payment, error)
	ListStalePending(ctx context.Context, olderThan time.Time, limit int) ([]*model.Payment, error)
	SumByPeriod(ctx context.Context, period string) (int64, error)
}

type paymentUC struct {
	payments repository.PaymentRepository
	courses  repository.CourseRepository
	access   AccessUseCase
	notif    NotificationUseCase
	card     adapter.CardProcessor
	gateway  adapter.RedirectGateway
	tm       repository.TransactionManager
	currency string
	log      *zerolog.Logger
}

func NewPaymentUseCase(
	payments repository.PaymentRepository,
	courses repository.CourseRepository,
	access AccessUseCase,
	notif NotificationUseCase,
	card adapter.CardProcessor,
	gateway adapter.RedirectGateway,
	tm repository.TransactionManager,
	currency string,
	logger *zerolog.Logger,
) *paymentUC {
	return &paymentUC{
		payments: payments,
		courses:  courses,
		access:   access,
		notif:    notif,
		card:     card,
		gateway:  gateway,
		tm:       tm,
		currency: currency,
		log:      logger,
	}
}

func (u *paymentUC) Initiate(ctx context.Context, userID, courseID string, method model.PaymentMethod) (*model.Payment, map[string]string, error) {
	defer logging.TraceDuration(u.log, "PaymentUC.Initiate")()

	switch method {
	case model.MethodCardRedirect, model.MethodRegionalGateway, model.MethodBankTransfer:
	default:
		return nil, nil, domain.ErrInvalidArgument
	}

	course, err := u.courses.FindByID(ctx, repository.NoTX, courseID)
	if err != nil {
		return nil, nil, err
	}
	if !course.Published {
		return nil, nil, domain.ErrNotFound
	}

	paid, err := u.payments.HasApproved(ctx, repository.NoTX, userID, courseID)
	if err != nil {
		return nil, nil, err
	}
	if paid {
		return nil, nil, domain.ErrAlreadyPurchased
	}

	now := time.Now()
	p := &model.Payment{
		ID:        model.NewOrderRef(),
		UserID:    userID,
		CourseID:  courseID,
		Amount:    course.Price,
		Currency:  u.currency,
		Method:    method,
		Status:    model.PaymentStatusPending,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := u.payments.Save(ctx, repository.NoTX, p); err != nil {
		return nil, nil, err
	}

	switch method {
	case model.MethodCardRedirect:
		sessionID, checkoutURL, err := u.card.CreateSession(ctx, p.Amount, p.Currency, p.ID)
		if err != nil {
			u.log.Error().Err(err).Str("payment_id", p.ID).Msg("checkout session creation failed")
			return nil, nil, err
		}
		if err := u.payments.SetProviderRef(ctx, repository.NoTX, p.ID, sessionID); err != nil {
			return nil, nil, err
		}
		p.ProviderRef = &sessionID
		return p, map[string]string{"session_id": sessionID, "checkout_url": checkoutURL}, nil

	case model.MethodRegionalGateway:
		params, err := u.gateway.CheckoutParams(p)
		if err != nil {
			return nil, nil, err
		}
		return p, params, nil

	default: // bank transfer: no redirect, record waits for a receipt + operator
		return p, nil, nil
	}
}

func (u *paymentUC) Apply(ctx context.Context, paymentID string, out model.PaymentOutcome) (*model.Payment, bool, error) {
	defer logging.TraceDuration(u.log, "PaymentUC.Apply")()

	// Detach from the caller: a client disconnect must not abort a
	// transition that already started.
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), applyTimeout)
	defer cancel()

	var (
		result  *model.Payment
		won     bool
		granted bool
	)
	err := u.tm.WithTx(ctx, pgx.TxOptions{}, func(ctx context.Context, tx repository.Tx) error {
		p, err := u.payments.FindByID(ctx, tx, paymentID)
		if err != nil {
			return err
		}
		if p.Terminal() {
			// Providers retry until acknowledged; a terminal record means a
			// previous delivery already won. Acknowledge, change nothing.
			result = p
			return nil
		}

		now := time.Now()
		switch out.Kind {
		case model.OutcomeIndeterminate:
			result = p
			return nil

		case model.OutcomeFailure:
			won, err = u.payments.UpdateStatusIfPending(ctx, tx, p.ID, model.PaymentStatusFailed, out.ProviderRef, out.OperatorID, nil)
			if err != nil {
				return err
			}

		case model.OutcomeSuccess:
			won, err = u.payments.UpdateStatusIfPending(ctx, tx, p.ID, model.PaymentStatusApproved, out.ProviderRef, out.OperatorID, &now)
			if err != nil {
				return err
			}
			if won {
				p.Status = model.PaymentStatusApproved
				granted, err = u.access.Grant(ctx, tx, p)
				if err != nil {
					return err
				}
			}

		default:
			return domain.ErrInvalidArgument
		}

		result, err = u.payments.FindByID(ctx, tx, p.ID)
		return err
	})
	if err != nil {
		return nil, false, err
	}

	if won {
		lctx := logging.WithPaymentID(logging.WithUserID(ctx, result.UserID), result.ID)
		logging.With(lctx, u.log).Info().
			Str("provider", out.Provider).
			Str("status", string(result.Status)).
			Str("reason", out.Reason).
			Msg("payment reconciled")
	}
	if granted {
		// Best effort, after commit: a notification failure never unwinds the grant.
		u.notif.PaymentApproved(ctx, result)
	}
	return result, won, nil
}

func (u *paymentUC) VerifySession(ctx context.Context, sessionID string) (*model.Payment, error) {
	defer logging.TraceDuration(u.log, "PaymentUC.VerifySession")()

	p, err := u.payments.FindByProviderRef(ctx, repository.NoTX, sessionID)
	if err != nil {
		return nil, err
	}
	if p.Terminal() {
		return p, nil
	}

	status, err := u.card.QuerySession(ctx, sessionID)
	if err != nil {
		// Timeouts and transport failures are transient: nothing is mutated
		// and the client is expected to poll again.
		return nil, err
	}

	switch status {
	case adapter.SessionStatusPaid:
		res, _, err := u.Apply(ctx, p.ID, model.PaymentOutcome{
			Kind:        model.OutcomeSuccess,
			Provider:    u.card.Name(),
			ProviderRef: &sessionID,
		})
		return res, err
	case adapter.SessionStatusFailed:
		res, _, err := u.Apply(ctx, p.ID, model.PaymentOutcome{
			Kind:        model.OutcomeFailure,
			Provider:    u.card.Name(),
			ProviderRef: &sessionID,
			Reason:      "session_failed",
		})
		return res, err
	default:
		// Not paid yet: no transition.
		return p, nil
	}
}

func (u *paymentUC) AttachReceipt(ctx context.Context, paymentID, receiptRef string) (*model.Payment, error) {
	p, err := u.payments.FindByID(ctx, repository.NoTX, paymentID)
	if err != nil {
		return nil, err
	}
	if p.Method != model.MethodBankTransfer {
		return nil, domain.ErrInvalidArgument
	}
	if p.Terminal() {
		return nil, domain.ErrPaymentNotPending
	}
	if err := u.payments.SetReceiptRef(ctx, repository.NoTX, p.ID, receiptRef); err != nil {
		return nil, err
	}
	p.ReceiptRef = &receiptRef
	u.notif.ReceiptSubmitted(ctx, p)
	return p, nil
}

func (u *paymentUC) ApproveBankTransfer(ctx context.Context, paymentID, operatorID string) (*model.Payment, error) {
	defer logging.TraceDuration(u.log, "PaymentUC.ApproveBankTransfer")()

	p, err := u.payments.FindByID(ctx, repository.NoTX, paymentID)
	if err != nil {
		return nil, err
	}
	if p.Method != model.MethodBankTransfer {
		return nil, domain.ErrInvalidArgument
	}
	if !p.Terminal() && p.ReceiptRef == nil {
		return nil, domain.ErrReceiptMissing
	}
	res, _, err := u.Apply(ctx, p.ID, model.PaymentOutcome{
		Kind:       model.OutcomeSuccess,
		Provider:   string(model.MethodBankTransfer),
		OperatorID: &operatorID,
	})
	return res, err
}

func (u *paymentUC) FindByID(ctx context.Context, id string) (*model.Payment, error) {
	return u.payments.FindByID(ctx, repository.NoTX, id)
}

func (u *paymentUC) FindByProviderRef(ctx context.Context, ref string) (*model.Payment, error) {
	return u.payments.FindByProviderRef(ctx, repository.NoTX, ref)
}

func (u *paymentUC) ListStalePending(ctx context.Context, olderThan time.Time, limit int) ([]*model.Payment, error) {
	return u.payments.ListPendingOlderThan(ctx, repository.NoTX, olderThan, limit)
}

func (u *paymentUC) SumByPeriod(ctx context.Context, period string) (int64, error) {
	return u.payments.SumByPeriod(ctx, repository.NoTX, period)
}
