// File: internal/infra/payment/noop.go
package payment

import (
	"context"
	"fmt"

	"course-marketplace/internal/domain/model"
	"course-marketplace/internal/domain/ports/adapter"
)

// NoopCardProcessor approves everything instantly. Dev mode only.
type NoopCardProcessor struct{}

var _ adapter.CardProcessor = (*NoopCardProcessor)(nil)

func (NoopCardProcessor) Name() string { return "noop-card" }

func (NoopCardProcessor) CreateSession(_ context.Context, _ int64, _ string, orderRef string) (string, string, error) {
	sessionID := "cs_noop_" + orderRef
	return sessionID, fmt.Sprintf("http://localhost/checkout/%s", sessionID), nil
}

func (NoopCardProcessor) QuerySession(context.Context, string) (adapter.SessionStatus, error) {
	return adapter.SessionStatusPaid, nil
}

func (NoopCardProcessor) VerifyEvent(payload []byte, _ string) (*adapter.CardEvent, error) {
	return &adapter.CardEvent{EventID: "evt_noop", SessionID: "cs_noop", Kind: model.OutcomeSuccess}, nil
}

// NoopGateway accepts any callback. Dev mode only.
type NoopGateway struct{}

var _ adapter.RedirectGateway = (*NoopGateway)(nil)

func (NoopGateway) Name() string { return "noop-gateway" }

func (NoopGateway) CheckoutParams(p *model.Payment) (map[string]string, error) {
	return map[string]string{"tran_id": p.ID, "endpoint": "http://localhost/gateway"}, nil
}

func (NoopGateway) VerifyCallback(*model.Payment, adapter.GatewayCallback) error { return nil }
