package adapter

import (
	"context"

	"course-marketplace/internal/domain/model"
)

// SessionStatus is the card processor's answer when its truth is re-queried
// on the poll path.
type SessionStatus string

const (
	SessionStatusPaid   SessionStatus = "paid"
	SessionStatusUnpaid SessionStatus = "unpaid" // checkout not completed yet
	SessionStatusFailed SessionStatus = "failed" // expired or declined
)

// CardEvent is a verified, parsed card-processor webhook notification.
type CardEvent struct {
	EventID   string
	SessionID string
	Kind      model.OutcomeKind
}

// CardProcessor is the hex port for the hosted-checkout card provider.
type CardProcessor interface {
	Name() string

	// CreateSession opens a provider-side checkout session for the order and
	// returns its id plus the URL the user is redirected to.
	CreateSession(ctx context.Context, amount int64, currency, orderRef string) (sessionID, checkoutURL string, err error)
	// QuerySession re-queries provider truth for the poll path.
	QuerySession(ctx context.Context, sessionID string) (SessionStatus, error)
	// VerifyEvent authenticates a webhook delivery against the raw request
	// body bytes and reduces it to a CardEvent. The payload must be the
	// unmodified bytes read off the wire; re-serializing parsed JSON breaks
	// the signature.
	VerifyEvent(payload []byte, signatureHeader string) (*CardEvent, error)
}

// GatewayCallback carries the fields the regional gateway posts back.
type GatewayCallback struct {
	OrderID    string // our payment id (tran_id at the gateway)
	TranRef    string // gateway-side transaction reference
	Amount     string // decimal string as posted by the gateway
	Currency   string
	StatusCode string
	Signature  string
}

// RedirectGateway is the hex port for the regional redirect gateway.
type RedirectGateway interface {
	Name() string

	// CheckoutParams produces the signed field set the frontend posts to the
	// gateway to start a redirect checkout.
	CheckoutParams(p *model.Payment) (map[string]string, error)
	// VerifyCallback authenticates a gateway callback against the payment
	// record. It returns domain.ErrInvalidSignature on a hash mismatch and
	// domain.ErrNotApproved when the status code is not the success
	// sentinel; in both cases no state may be mutated by the caller.
	VerifyCallback(p *model.Payment, cb GatewayCallback) error
}
