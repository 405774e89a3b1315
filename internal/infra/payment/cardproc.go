// File: internal/infra/payment/cardproc.go
package payment

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"course-marketplace/internal/domain"
	"course-marketplace/internal/domain/model"
	"course-marketplace/internal/domain/ports/adapter"
)

// ErrEventIgnored marks webhook event types this integration does not act on.
// Callers acknowledge them so the provider stops retrying.
var ErrEventIgnored = errors.New("webhook event type ignored")

// webhookTolerance rejects signed payloads whose timestamp drifted too far
// (replay window).
const webhookTolerance = 5 * time.Minute

// StripeCheckout implements the card-processor port against the hosted
// checkout API using direct HTTP calls.
type StripeCheckout struct {
	secretKey     string
	webhookSecret string
	baseURL       string
	successURL    string
	cancelURL     string
	client        *http.Client
	now           func() time.Time
}

var _ adapter.CardProcessor = (*StripeCheckout)(nil)

func NewStripeCheckout(secretKey, webhookSecret, baseURL, successURL, cancelURL string) *StripeCheckout {
	if baseURL == "" {
		baseURL = "https://api.stripe.com"
	}
	return &StripeCheckout{
		secretKey:     secretKey,
		webhookSecret: webhookSecret,
		baseURL:       strings.TrimRight(baseURL, "/"),
		successURL:    successURL,
		cancelURL:     cancelURL,
		client:        &http.Client{Timeout: 10 * time.Second},
		now:           time.Now,
	}
}

func (s *StripeCheckout) Name() string { return "stripe" }

type checkoutSession struct {
	ID            string `json:"id"`
	URL           string `json:"url"`
	Status        string `json:"status"`         // open | complete | expired
	PaymentStatus string `json:"payment_status"` // paid | unpaid | no_payment_required
	ClientRef     string `json:"client_reference_id"`
}

type apiError struct {
	Error struct {
		Type    string `json:"type"`
		Message string `json:"message"`
	} `json:"error"`
}

func (s *StripeCheckout) CreateSession(ctx context.Context, amount int64, currency, orderRef string) (string, string, error) {
	form := url.Values{}
	form.Set("mode", "payment")
	form.Set("client_reference_id", orderRef)
	form.Set("success_url", s.successURL)
	form.Set("cancel_url", s.cancelURL)
	form.Set("line_items[0][quantity]", "1")
	form.Set("line_items[0][price_data][currency]", strings.ToLower(currency))
	form.Set("line_items[0][price_data][unit_amount]", strconv.FormatInt(amount, 10))
	form.Set("line_items[0][price_data][product_data][name]", "Course "+orderRef)

	var session checkoutSession
	if err := s.call(ctx, http.MethodPost, "/v1/checkout/sessions", form, &session); err != nil {
		return "", "", err
	}
	if session.ID == "" || session.URL == "" {
		return "", "", fmt.Errorf("checkout session response missing id or url")
	}
	return session.ID, session.URL, nil
}

func (s *StripeCheckout) QuerySession(ctx context.Context, sessionID string) (adapter.SessionStatus, error) {
	var session checkoutSession
	if err := s.call(ctx, http.MethodGet, "/v1/checkout/sessions/"+url.PathEscape(sessionID), nil, &session); err != nil {
		return "", err
	}
	switch {
	case session.PaymentStatus == "paid":
		return adapter.SessionStatusPaid, nil
	case session.Status == "expired":
		return adapter.SessionStatusFailed, nil
	default:
		return adapter.SessionStatusUnpaid, nil
	}
}

// VerifyEvent authenticates the raw webhook body against the signature
// header (format "t=<unix>,v1=<hex hmac>", HMAC-SHA256 over "<t>.<body>")
// and reduces the event to a canonical CardEvent. The payload must be the
// exact bytes read from the request.
func (s *StripeCheckout) VerifyEvent(payload []byte, signatureHeader string) (*adapter.CardEvent, error) {
	ts, signatures, err := parseSignatureHeader(signatureHeader)
	if err != nil {
		return nil, domain.ErrInvalidSignature
	}
	if drift := s.now().Sub(time.Unix(ts, 0)); drift > webhookTolerance || drift < -webhookTolerance {
		return nil, domain.ErrInvalidSignature
	}

	mac := hmac.New(sha256.New, []byte(s.webhookSecret))
	fmt.Fprintf(mac, "%d.", ts)
	mac.Write(payload)
	expected := hex.EncodeToString(mac.Sum(nil))

	ok := false
	for _, sig := range signatures {
		if hmac.Equal([]byte(sig), []byte(expected)) {
			ok = true
			break
		}
	}
	if !ok {
		return nil, domain.ErrInvalidSignature
	}

	var event struct {
		ID   string `json:"id"`
		Type string `json:"type"`
		Data struct {
			Object checkoutSession `json:"object"`
		} `json:"data"`
	}
	if err := json.Unmarshal(payload, &event); err != nil {
		return nil, fmt.Errorf("parse webhook event: %w", err)
	}
	if event.ID == "" || event.Data.Object.ID == "" {
		return nil, fmt.Errorf("webhook event missing ids")
	}

	out := &adapter.CardEvent{EventID: event.ID, SessionID: event.Data.Object.ID}
	switch event.Type {
	case "checkout.session.completed", "checkout.session.async_payment_succeeded":
		if event.Data.Object.PaymentStatus == "paid" {
			out.Kind = model.OutcomeSuccess
		} else {
			// Completed but funds not settled yet (delayed methods).
			out.Kind = model.OutcomeIndeterminate
		}
	case "checkout.session.expired", "checkout.session.async_payment_failed":
		out.Kind = model.OutcomeFailure
	default:
		return nil, ErrEventIgnored
	}
	return out, nil
}

func (s *StripeCheckout) call(ctx context.Context, method, path string, form url.Values, out any) error {
	var body io.Reader
	if form != nil {
		body = strings.NewReader(form.Encode())
	}
	req, err := http.NewRequestWithContext(ctx, method, s.baseURL+path, body)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+s.secretKey)
	if form != nil {
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	}

	resp, err := s.client.Do(req)
	if err != nil {
		var netErr net.Error
		if errors.As(err, &netErr) && netErr.Timeout() {
			return fmt.Errorf("%w: %v", domain.ErrProviderTimeout, err)
		}
		return fmt.Errorf("card processor request: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("read response body: %w", err)
	}
	if resp.StatusCode >= 400 {
		var apiErr apiError
		_ = json.Unmarshal(raw, &apiErr)
		return fmt.Errorf("card processor error: status %d type=%s message=%s", resp.StatusCode, apiErr.Error.Type, apiErr.Error.Message)
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return fmt.Errorf("unmarshal response: %w, body: %s", err, string(raw))
	}
	return nil
}

func parseSignatureHeader(header string) (int64, []string, error) {
	if strings.TrimSpace(header) == "" {
		return 0, nil, errors.New("empty signature header")
	}
	var (
		ts         int64
		signatures []string
	)
	for _, part := range strings.Split(header, ",") {
		kv := strings.SplitN(strings.TrimSpace(part), "=", 2)
		if len(kv) != 2 {
			continue
		}
		switch kv[0] {
		case "t":
			v, err := strconv.ParseInt(kv[1], 10, 64)
			if err != nil {
				return 0, nil, err
			}
			ts = v
		case "v1":
			signatures = append(signatures, kv[1])
		}
	}
	if ts == 0 || len(signatures) == 0 {
		return 0, nil, errors.New("signature header missing t or v1")
	}
	return ts, signatures, nil
}
