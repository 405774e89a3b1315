package model

import (
	"crypto/rand"
	"time"

	"github.com/oklog/ulid/v2"
)

type PaymentMethod string

const (
	MethodCardRedirect    PaymentMethod = "card-redirect"    // hosted checkout at the card processor
	MethodRegionalGateway PaymentMethod = "regional-gateway" // signed redirect to the regional gateway
	MethodBankTransfer    PaymentMethod = "bank-transfer"    // manual receipt + operator approval
)

type PaymentStatus string

const (
	PaymentStatusPending  PaymentStatus = "pending"  // created before redirect; awaiting provider truth
	PaymentStatusApproved PaymentStatus = "approved" // terminal
	PaymentStatusFailed   PaymentStatus = "failed"   // terminal
)

// Payment records the lifecycle of a single purchase attempt. Its ID doubles
// as the provider-visible order reference for the gateway and bank-transfer
// channels; the card processor assigns its own session id (ProviderRef).
type Payment struct {
	ID          string // ULID; also the order reference shown to providers
	UserID      string // UUID
	CourseID    string // UUID
	Amount      int64  // integer amount in the platform base unit
	Currency    string
	Method      PaymentMethod
	Status      PaymentStatus
	ProviderRef *string // provider session/transaction id; set at most once
	ReceiptRef  *string // bank transfer receipt artifact reference
	ApprovedBy  *string // operator id for manual approvals
	CreatedAt   time.Time
	UpdatedAt   time.Time
	ApprovedAt  *time.Time
}

// Terminal reports whether no further status transition is permitted.
func (p *Payment) Terminal() bool {
	return p.Status == PaymentStatusApproved || p.Status == PaymentStatusFailed
}

// NewOrderRef mints a sortable, provider-safe order reference.
func NewOrderRef() string {
	return ulid.MustNew(ulid.Timestamp(time.Now()), rand.Reader).String()
}

// OutcomeKind tags the canonical event every provider adapter reduces to
// before it reaches the reconciliation state machine.
type OutcomeKind string

const (
	OutcomeSuccess       OutcomeKind = "success"
	OutcomeFailure       OutcomeKind = "failure"
	OutcomeIndeterminate OutcomeKind = "indeterminate" // provider truth not final yet; no transition
)

// PaymentOutcome is the single event shape consumed by the reconciliation
// engine, regardless of which ingress path produced it.
type PaymentOutcome struct {
	Kind        OutcomeKind
	Provider    string  // card|gateway|bank-transfer
	ProviderRef *string // provider transaction id, when the event carries one
	OperatorID  *string // set only for manual bank-transfer approvals
	Reason      string  // short failure/diagnostic tag for logs
}
