// File: internal/usecase/notification_uc_test.go
package usecase

import (
	"context"
	"errors"
	"sync"
	"testing"

	"course-marketplace/internal/domain/model"
	"course-marketplace/internal/domain/ports/repository"
)

func notifFixture(t *testing.T) (*notificationUC, *memNotifLogRepo, *mockMailer, *mockOps) {
	t.Helper()
	notifLog := newMemNotifLogRepo()
	users := newMemUserRepo()
	courses := newMemCourseRepo()
	mailer := &mockMailer{}
	ops := &mockOps{}

	user, _ := model.NewUser("user-1", "buyer@example.com", "Buyer One")
	_ = users.Save(context.Background(), repository.NoTX, user)
	course, _ := model.NewCourse("course-1", "Intro to Go", "", 1000)
	_ = courses.Save(context.Background(), repository.NoTX, course)

	uc := NewNotificationUseCase(notifLog, users, courses, mailer, ops, mockCerts{}, newTestLogger())
	return uc, notifLog, mailer, ops
}

func TestPaymentApprovedDispatch(t *testing.T) {
	ctx := context.Background()
	p := approvedPayment("pay-1")

	t.Run("sends exactly once", func(t *testing.T) {
		uc, _, mailer, _ := notifFixture(t)
		uc.PaymentApproved(ctx, p)
		uc.PaymentApproved(ctx, p)
		if mailer.count() != 1 {
			t.Fatalf("want 1 email, got %d", mailer.count())
		}
	})

	t.Run("at most once under concurrency", func(t *testing.T) {
		uc, _, mailer, _ := notifFixture(t)
		var wg sync.WaitGroup
		for i := 0; i < 8; i++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				uc.PaymentApproved(ctx, p)
			}()
		}
		wg.Wait()
		if mailer.count() != 1 {
			t.Fatalf("want 1 email under race, got %d", mailer.count())
		}
	})

	t.Run("failed send is not retried", func(t *testing.T) {
		uc, notifLog, mailer, _ := notifFixture(t)
		mailer.err = errors.New("smtp down")
		uc.PaymentApproved(ctx, p)

		// The dispatch slot stays claimed; a later call must not resend.
		mailer.err = nil
		uc.PaymentApproved(ctx, p)
		if mailer.count() != 0 {
			t.Fatalf("lost send was retried, got %d", mailer.count())
		}
		claimed, _ := notifLog.Exists(ctx, repository.NoTX, p.ID, notifKindPaymentApproved)
		if !claimed {
			t.Fatalf("dispatch slot not claimed")
		}
	})

	t.Run("log error swallowed", func(t *testing.T) {
		uc, notifLog, mailer, _ := notifFixture(t)
		notifLog.errIns = errors.New("db down")
		uc.PaymentApproved(ctx, p) // must not panic or send
		if mailer.count() != 0 {
			t.Fatalf("sent despite claim failure")
		}
	})
}

func TestOpsAlerts(t *testing.T) {
	ctx := context.Background()

	uc, _, _, ops := notifFixture(t)
	uc.ReceiptSubmitted(ctx, approvedPayment("pay-1"))
	uc.VerificationFailed(ctx, "sslcommerz", "pay-1", "signature mismatch")
	if ops.count() != 2 {
		t.Fatalf("want 2 ops alerts, got %d", ops.count())
	}
}
