// File: internal/usecase/mocks_test.go
package usecase

import (
	"context"
	"sync"
	"time"

	"github.com/jackc/pgx/v4"
	"github.com/rs/zerolog"

	"course-marketplace/internal/domain"
	"course-marketplace/internal/domain/model"
	"course-marketplace/internal/domain/ports/adapter"
	"course-marketplace/internal/domain/ports/repository"
)

func newTestLogger() *zerolog.Logger { l := zerolog.Nop(); return &l }

type mockTxManager struct{}

func (m *mockTxManager) WithTx(ctx context.Context, _ pgx.TxOptions, fn func(ctx context.Context, tx repository.Tx) error) error {
	return fn(ctx, repository.NoTX)
}

// memPaymentRepo is a small in-memory implementation used by unit tests. Its
// UpdateStatusIfPending mirrors the SQL CAS: the swap only succeeds while the
// stored status is still pending.
type memPaymentRepo struct {
	mu      sync.Mutex
	store   map[string]*model.Payment
	saveErr error
}

func newMemPaymentRepo() *memPaymentRepo {
	return &memPaymentRepo{store: make(map[string]*model.Payment)}
}

func (m *memPaymentRepo) Save(ctx context.Context, tx repository.Tx, p *model.Payment) error {
	if m.saveErr != nil {
		return m.saveErr
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *p
	m.store[p.ID] = &cp
	return nil
}

func (m *memPaymentRepo) FindByID(ctx context.Context, tx repository.Tx, id string) (*model.Payment, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.store[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	cp := *p
	return &cp, nil
}

func (m *memPaymentRepo) FindByProviderRef(ctx context.Context, tx repository.Tx, ref string) (*model.Payment, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, p := range m.store {
		if p.ProviderRef != nil && *p.ProviderRef == ref {
			cp := *p
			return &cp, nil
		}
	}
	return nil, domain.ErrNotFound
}

func (m *memPaymentRepo) SetProviderRef(ctx context.Context, tx repository.Tx, id, ref string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.store[id]
	if !ok {
		return domain.ErrNotFound
	}
	if p.ProviderRef != nil {
		return domain.ErrAlreadyExists
	}
	p.ProviderRef = &ref
	return nil
}

func (m *memPaymentRepo) SetReceiptRef(ctx context.Context, tx repository.Tx, id, receiptRef string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.store[id]
	if !ok {
		return domain.ErrNotFound
	}
	p.ReceiptRef = &receiptRef
	return nil
}

func (m *memPaymentRepo) UpdateStatusIfPending(ctx context.Context, tx repository.Tx, id string, status model.PaymentStatus, providerRef, operatorID *string, approvedAt *time.Time) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.store[id]
	if !ok {
		return false, domain.ErrNotFound
	}
	if p.Status != model.PaymentStatusPending {
		return false, nil
	}
	p.Status = status
	if p.ProviderRef == nil {
		p.ProviderRef = providerRef
	}
	if operatorID != nil {
		p.ApprovedBy = operatorID
	}
	p.ApprovedAt = approvedAt
	p.UpdatedAt = time.Now()
	return true, nil
}

func (m *memPaymentRepo) HasApproved(ctx context.Context, tx repository.Tx, userID, courseID string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, p := range m.store {
		if p.UserID == userID && p.CourseID == courseID && p.Status == model.PaymentStatusApproved {
			return true, nil
		}
	}
	return false, nil
}

func (m *memPaymentRepo) ListPendingOlderThan(ctx context.Context, tx repository.Tx, olderThan time.Time, limit int) ([]*model.Payment, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := []*model.Payment{}
	for _, p := range m.store {
		if p.Status == model.PaymentStatusPending && p.CreatedAt.Before(olderThan) {
			cp := *p
			out = append(out, &cp)
		}
		if limit > 0 && len(out) >= limit {
			break
		}
	}
	return out, nil
}

func (m *memPaymentRepo) SumByPeriod(ctx context.Context, tx repository.Tx, period string) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var sum int64
	for _, p := range m.store {
		if p.Status == model.PaymentStatusApproved {
			sum += p.Amount
		}
	}
	return sum, nil
}

// memPurchaseRepo reproduces the monotonic upsert contract.
type memPurchaseRepo struct {
	mu    sync.Mutex
	store map[string]*model.Purchase // key: userID|courseID
}

func newMemPurchaseRepo() *memPurchaseRepo {
	return &memPurchaseRepo{store: make(map[string]*model.Purchase)}
}

func purchaseKey(userID, courseID string) string { return userID + "|" + courseID }

func (m *memPurchaseRepo) Upsert(ctx context.Context, tx repository.Tx, pu *model.Purchase) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	key := purchaseKey(pu.UserID, pu.CourseID)
	existing, ok := m.store[key]
	if !ok {
		cp := *pu
		m.store[key] = &cp
		return cp.AccessGranted, nil
	}
	if existing.AccessGranted {
		return false, nil
	}
	existing.AccessGranted = pu.AccessGranted
	existing.PaymentID = pu.PaymentID
	return pu.AccessGranted, nil
}

func (m *memPurchaseRepo) Find(ctx context.Context, tx repository.Tx, userID, courseID string) (*model.Purchase, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	pu, ok := m.store[purchaseKey(userID, courseID)]
	if !ok {
		return nil, domain.ErrNotFound
	}
	cp := *pu
	return &cp, nil
}

func (m *memPurchaseRepo) ListByUser(ctx context.Context, tx repository.Tx, userID string) ([]*model.Purchase, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := []*model.Purchase{}
	for _, pu := range m.store {
		if pu.UserID == userID {
			cp := *pu
			out = append(out, &cp)
		}
	}
	return out, nil
}

type memCourseRepo struct {
	mu    sync.RWMutex
	store map[string]*model.Course
}

func newMemCourseRepo() *memCourseRepo {
	return &memCourseRepo{store: make(map[string]*model.Course)}
}

func (m *memCourseRepo) Save(ctx context.Context, tx repository.Tx, c *model.Course) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *c
	m.store[c.ID] = &cp
	return nil
}

func (m *memCourseRepo) Delete(ctx context.Context, tx repository.Tx, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.store[id]; !ok {
		return domain.ErrNotFound
	}
	delete(m.store, id)
	return nil
}

func (m *memCourseRepo) FindByID(ctx context.Context, tx repository.Tx, id string) (*model.Course, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	c, ok := m.store[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	cp := *c
	return &cp, nil
}

func (m *memCourseRepo) ListPublished(ctx context.Context, tx repository.Tx, offset, limit int) ([]*model.Course, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := []*model.Course{}
	for _, c := range m.store {
		if c.Published {
			cp := *c
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (m *memCourseRepo) ListAll(ctx context.Context, tx repository.Tx) ([]*model.Course, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := []*model.Course{}
	for _, c := range m.store {
		cp := *c
		out = append(out, &cp)
	}
	return out, nil
}

type memUserRepo struct {
	mu    sync.RWMutex
	store map[string]*model.User
}

func newMemUserRepo() *memUserRepo {
	return &memUserRepo{store: make(map[string]*model.User)}
}

func (m *memUserRepo) Save(ctx context.Context, tx repository.Tx, u *model.User) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *u
	m.store[u.ID] = &cp
	return nil
}

func (m *memUserRepo) FindByID(ctx context.Context, tx repository.Tx, id string) (*model.User, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	u, ok := m.store[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	cp := *u
	return &cp, nil
}

func (m *memUserRepo) FindByEmail(ctx context.Context, tx repository.Tx, email string) (*model.User, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, u := range m.store {
		if u.Email == email {
			cp := *u
			return &cp, nil
		}
	}
	return nil, domain.ErrNotFound
}

func (m *memUserRepo) List(ctx context.Context, tx repository.Tx, offset, limit int) ([]*model.User, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := []*model.User{}
	for _, u := range m.store {
		cp := *u
		out = append(out, &cp)
	}
	return out, nil
}

func (m *memUserRepo) CountUsers(ctx context.Context, tx repository.Tx) (int, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.store), nil
}

// memNotifLogRepo reproduces the unique-constraint dedup.
type memNotifLogRepo struct {
	mu      sync.Mutex
	claimed map[string]bool // key: paymentID|kind
	errIns  error
}

func newMemNotifLogRepo() *memNotifLogRepo {
	return &memNotifLogRepo{claimed: make(map[string]bool)}
}

func (m *memNotifLogRepo) Insert(ctx context.Context, tx repository.Tx, paymentID, userID, kind string) (bool, error) {
	if m.errIns != nil {
		return false, m.errIns
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	key := paymentID + "|" + kind
	if m.claimed[key] {
		return false, nil
	}
	m.claimed[key] = true
	return true, nil
}

func (m *memNotifLogRepo) Exists(ctx context.Context, tx repository.Tx, paymentID, kind string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.claimed[paymentID+"|"+kind], nil
}

// mockCardProcessor exposes func fields so each test scripts provider truth.
type mockCardProcessor struct {
	createFn func(ctx context.Context, amount int64, currency, orderRef string) (string, string, error)
	queryFn  func(ctx context.Context, sessionID string) (adapter.SessionStatus, error)
	verifyFn func(payload []byte, signatureHeader string) (*adapter.CardEvent, error)
}

func (m *mockCardProcessor) Name() string { return "mock-card" }

func (m *mockCardProcessor) CreateSession(ctx context.Context, amount int64, currency, orderRef string) (string, string, error) {
	if m.createFn != nil {
		return m.createFn(ctx, amount, currency, orderRef)
	}
	return "sess_" + orderRef, "https://pay.example/" + orderRef, nil
}

func (m *mockCardProcessor) QuerySession(ctx context.Context, sessionID string) (adapter.SessionStatus, error) {
	if m.queryFn != nil {
		return m.queryFn(ctx, sessionID)
	}
	return adapter.SessionStatusUnpaid, nil
}

func (m *mockCardProcessor) VerifyEvent(payload []byte, signatureHeader string) (*adapter.CardEvent, error) {
	if m.verifyFn != nil {
		return m.verifyFn(payload, signatureHeader)
	}
	return nil, domain.ErrInvalidSignature
}

type mockGateway struct {
	paramsFn func(p *model.Payment) (map[string]string, error)
	verifyFn func(p *model.Payment, cb adapter.GatewayCallback) error
}

func (m *mockGateway) Name() string { return "mock-gateway" }

func (m *mockGateway) CheckoutParams(p *model.Payment) (map[string]string, error) {
	if m.paramsFn != nil {
		return m.paramsFn(p)
	}
	return map[string]string{"tran_id": p.ID}, nil
}

func (m *mockGateway) VerifyCallback(p *model.Payment, cb adapter.GatewayCallback) error {
	if m.verifyFn != nil {
		return m.verifyFn(p, cb)
	}
	return nil
}

// recording notification collaborators

type mockMailer struct {
	mu   sync.Mutex
	sent []string // recipient addresses
	err  error
}

func (m *mockMailer) Send(ctx context.Context, to, subject, body string) error {
	if m.err != nil {
		return m.err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sent = append(m.sent, to)
	return nil
}

func (m *mockMailer) count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.sent)
}

type mockOps struct {
	mu     sync.Mutex
	alerts []string
}

func (m *mockOps) Alert(ctx context.Context, text string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.alerts = append(m.alerts, text)
	return nil
}

func (m *mockOps) count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.alerts)
}

type mockCerts struct{}

func (mockCerts) Generate(ctx context.Context, userID, courseID string) (string, error) {
	return "cert://" + courseID + "/" + userID, nil
}
