package sched

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"course-marketplace/internal/domain/model"
	"course-marketplace/internal/infra/metrics"
	"course-marketplace/internal/usecase"
)

// PaymentReconciler periodically scans for stale pending payments and re-asks
// the card processor for their sessions. This covers lost webhooks and a
// process that crashed between provider settlement and the local transition.
// Bank transfers stay pending until an operator acts; the sweep skips them.
type PaymentReconciler struct {
	uc         usecase.PaymentUseCase
	interval   time.Duration // how often to scan
	staleAfter time.Duration // how old a pending payment must be to retry
	log        *zerolog.Logger
}

func NewPaymentReconciler(uc usecase.PaymentUseCase, interval, staleAfter time.Duration, logger *zerolog.Logger) *PaymentReconciler {
	if interval <= 0 {
		interval = time.Minute
	}
	if staleAfter <= 0 {
		staleAfter = 10 * time.Minute
	}
	return &PaymentReconciler{uc: uc, interval: interval, staleAfter: staleAfter, log: logger}
}

func (w *PaymentReconciler) Start(ctx context.Context) {
	t := time.NewTicker(w.interval)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
			w.tick(ctx)
		}
	}
}

func (w *PaymentReconciler) tick(ctx context.Context) {
	cutoff := time.Now().Add(-w.staleAfter)
	pending, err := w.uc.ListStalePending(ctx, cutoff, 200)
	if err != nil {
		w.log.Error().Err(err).Msg("payment-reconciler: list pending failed")
		metrics.IncReconcilerSweep("failed")
		return
	}

	for _, p := range pending {
		if p.Method != model.MethodCardRedirect || p.ProviderRef == nil {
			continue
		}
		res, err := w.uc.VerifySession(ctx, *p.ProviderRef)
		if err != nil {
			w.log.Warn().Err(err).Str("payment_id", p.ID).Msg("payment-reconciler: verify failed")
			metrics.IncReconcilerPayment("error")
			continue
		}
		switch res.Status {
		case model.PaymentStatusApproved:
			metrics.IncReconcilerPayment("approved")
			w.log.Info().Str("payment_id", p.ID).Msg("payment-reconciler: reconciled to approved")
		case model.PaymentStatusFailed:
			metrics.IncReconcilerPayment("failed")
			w.log.Info().Str("payment_id", p.ID).Msg("payment-reconciler: reconciled to failed")
		default:
			metrics.IncReconcilerPayment("still_pending")
		}
	}
	metrics.IncReconcilerSweep("completed")
}
