// File: internal/infra/payment/gateway.go
package payment

import (
	"crypto/md5"
	"encoding/hex"
	"fmt"
	"strings"

	"course-marketplace/internal/domain"
	"course-marketplace/internal/domain/model"
	"course-marketplace/internal/domain/ports/adapter"
)

// gatewayStatusValid is the gateway's single success sentinel. Every other
// status code, signed or not, is rejected without touching any state.
const gatewayStatusValid = "VALID"

// SSLCommerzGateway implements the regional redirect gateway port. The same
// digest routine signs outbound checkout parameters and authenticates inbound
// callbacks, so the hashing rules live in exactly one place.
type SSLCommerzGateway struct {
	storeID     string
	storePass   string
	baseURL     string
	callbackURL string
}

var _ adapter.RedirectGateway = (*SSLCommerzGateway)(nil)

func NewSSLCommerzGateway(storeID, storePass, callbackURL string, sandbox bool) *SSLCommerzGateway {
	baseURL := "https://securepay.sslcommerz.com"
	if sandbox {
		baseURL = "https://sandbox.sslcommerz.com"
	}
	return &SSLCommerzGateway{
		storeID:     storeID,
		storePass:   storePass,
		baseURL:     baseURL,
		callbackURL: callbackURL,
	}
}

func (g *SSLCommerzGateway) Name() string { return "sslcommerz" }

// CheckoutParams returns the signed field set posted to the gateway to start
// a redirect checkout. The payment id is the gateway-visible tran_id.
func (g *SSLCommerzGateway) CheckoutParams(p *model.Payment) (map[string]string, error) {
	if p.ID == "" || p.Amount <= 0 {
		return nil, domain.ErrInvalidArgument
	}
	amount := formatAmount(p.Amount)
	return map[string]string{
		"endpoint":     g.baseURL + "/gwprocess/v4/api.php",
		"store_id":     g.storeID,
		"tran_id":      p.ID,
		"total_amount": amount,
		"currency":     p.Currency,
		"success_url":  g.callbackURL,
		"fail_url":     g.callbackURL,
		"signature":    g.digest(p.ID, amount, p.Currency),
	}, nil
}

// VerifyCallback authenticates a gateway callback against the stored payment
// record. The digest is computed from the record's own amount, so a callback
// with a tampered amount can never produce a matching signature.
func (g *SSLCommerzGateway) VerifyCallback(p *model.Payment, cb adapter.GatewayCallback) error {
	expected := g.digest(p.ID, formatAmount(p.Amount), p.Currency)
	if !strings.EqualFold(expected, cb.Signature) {
		return domain.ErrInvalidSignature
	}
	if cb.StatusCode != gatewayStatusValid {
		return domain.ErrNotApproved
	}
	return nil
}

// digest is MD5(store_id + tran_id + amount + currency + UPPER(MD5(store_passwd)))
// with the amount formatted to exactly two decimal places.
func (g *SSLCommerzGateway) digest(tranID, amount, currency string) string {
	passSum := md5.Sum([]byte(g.storePass))
	passHex := strings.ToUpper(hex.EncodeToString(passSum[:]))
	sum := md5.Sum([]byte(g.storeID + tranID + amount + currency + passHex))
	return hex.EncodeToString(sum[:])
}

// formatAmount renders an integer base-unit amount with two decimal places,
// the format the gateway hashes over.
func formatAmount(amount int64) string {
	return fmt.Sprintf("%d.00", amount)
}
