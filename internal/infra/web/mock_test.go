package web

import (
	"context"
	"sync"
	"time"

	"course-marketplace/internal/domain"
	"course-marketplace/internal/domain/model"
	"course-marketplace/internal/domain/ports/adapter"
	"course-marketplace/internal/usecase"
)

// --- Mock Use Cases ---

type mockPaymentUC struct {
	usecase.PaymentUseCase // Embed interface for forward compatibility
	initiateFn             func(ctx context.Context, userID, courseID string, method model.PaymentMethod) (*model.Payment, map[string]string, error)
	applyFn                func(ctx context.Context, paymentID string, out model.PaymentOutcome) (*model.Payment, bool, error)
	verifyFn               func(ctx context.Context, sessionID string) (*model.Payment, error)
	attachFn               func(ctx context.Context, paymentID, receiptRef string) (*model.Payment, error)
	approveFn              func(ctx context.Context, paymentID, operatorID string) (*model.Payment, error)
	findByIDFn             func(ctx context.Context, id string) (*model.Payment, error)
	findByRefFn            func(ctx context.Context, ref string) (*model.Payment, error)
	listStaleFn            func(ctx context.Context, olderThan time.Time, limit int) ([]*model.Payment, error)
}

func (m *mockPaymentUC) Initiate(ctx context.Context, userID, courseID string, method model.PaymentMethod) (*model.Payment, map[string]string, error) {
	return m.initiateFn(ctx, userID, courseID, method)
}
func (m *mockPaymentUC) Apply(ctx context.Context, paymentID string, out model.PaymentOutcome) (*model.Payment, bool, error) {
	return m.applyFn(ctx, paymentID, out)
}
func (m *mockPaymentUC) VerifySession(ctx context.Context, sessionID string) (*model.Payment, error) {
	return m.verifyFn(ctx, sessionID)
}
func (m *mockPaymentUC) AttachReceipt(ctx context.Context, paymentID, receiptRef string) (*model.Payment, error) {
	return m.attachFn(ctx, paymentID, receiptRef)
}
func (m *mockPaymentUC) ApproveBankTransfer(ctx context.Context, paymentID, operatorID string) (*model.Payment, error) {
	return m.approveFn(ctx, paymentID, operatorID)
}
func (m *mockPaymentUC) FindByID(ctx context.Context, id string) (*model.Payment, error) {
	return m.findByIDFn(ctx, id)
}
func (m *mockPaymentUC) FindByProviderRef(ctx context.Context, ref string) (*model.Payment, error) {
	return m.findByRefFn(ctx, ref)
}
func (m *mockPaymentUC) ListStalePending(ctx context.Context, olderThan time.Time, limit int) ([]*model.Payment, error) {
	return m.listStaleFn(ctx, olderThan, limit)
}

type mockCourseUC struct {
	usecase.CourseUseCase
	courses map[string]*model.Course
}

func (m *mockCourseUC) Get(ctx context.Context, id string) (*model.Course, error) {
	if c, ok := m.courses[id]; ok {
		return c, nil
	}
	return nil, domain.ErrNotFound
}

func (m *mockCourseUC) ListPublished(ctx context.Context, offset, limit int) ([]*model.Course, error) {
	var out []*model.Course
	for _, c := range m.courses {
		if c.Published {
			out = append(out, c)
		}
	}
	return out, nil
}

type mockUserUC struct {
	usecase.UserUseCase
	registerFn func(ctx context.Context, email, fullName string) (*model.User, error)
}

func (m *mockUserUC) RegisterOrFetch(ctx context.Context, email, fullName string) (*model.User, error) {
	return m.registerFn(ctx, email, fullName)
}

type mockAccessUC struct {
	usecase.AccessUseCase
	purchases map[string][]*model.Purchase
}

func (m *mockAccessUC) ListByUser(ctx context.Context, userID string) ([]*model.Purchase, error) {
	return m.purchases[userID], nil
}

type mockStatsUC struct {
	usecase.StatsUseCase
}

func (m *mockStatsUC) Totals(ctx context.Context) (int, int, error) { return 7, 3, nil }
func (m *mockStatsUC) Revenue(ctx context.Context) (int64, int64, int64, error) {
	return 100, 1000, 10000, nil
}

// mockNotifUC records operator alerts so webhook rejection paths can assert
// on them.
type mockNotifUC struct {
	mu       sync.Mutex
	approved []string
	failures []string
}

func (m *mockNotifUC) PaymentApproved(ctx context.Context, p *model.Payment) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.approved = append(m.approved, p.ID)
}
func (m *mockNotifUC) ReceiptSubmitted(ctx context.Context, p *model.Payment) {}
func (m *mockNotifUC) VerificationFailed(ctx context.Context, provider, ref, reason string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.failures = append(m.failures, provider+":"+ref)
}

func (m *mockNotifUC) failureCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.failures)
}

// --- Mock Provider Adapters ---

type mockCardProc struct {
	verifyEventFn func(payload []byte, header string) (*adapter.CardEvent, error)
}

func (m *mockCardProc) Name() string { return "stripe" }
func (m *mockCardProc) CreateSession(ctx context.Context, amount int64, currency, orderRef string) (string, string, error) {
	return "cs_" + orderRef, "https://checkout.example/cs_" + orderRef, nil
}
func (m *mockCardProc) QuerySession(ctx context.Context, sessionID string) (adapter.SessionStatus, error) {
	return adapter.SessionStatusUnpaid, nil
}
func (m *mockCardProc) VerifyEvent(payload []byte, header string) (*adapter.CardEvent, error) {
	return m.verifyEventFn(payload, header)
}

type mockGateway struct {
	verifyFn func(p *model.Payment, cb adapter.GatewayCallback) error
}

func (m *mockGateway) Name() string { return "sslcommerz" }
func (m *mockGateway) CheckoutParams(p *model.Payment) (map[string]string, error) {
	return map[string]string{"tran_id": p.ID}, nil
}
func (m *mockGateway) VerifyCallback(p *model.Payment, cb adapter.GatewayCallback) error {
	return m.verifyFn(p, cb)
}
