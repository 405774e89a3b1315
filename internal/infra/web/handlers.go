package web

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"course-marketplace/internal/domain"
	"course-marketplace/internal/domain/model"
	"course-marketplace/internal/domain/ports/adapter"
	"course-marketplace/internal/infra/metrics"
	"course-marketplace/internal/infra/payment"
	red "course-marketplace/internal/infra/redis"
)

const maxWebhookBody = 1 << 20 // 1 MiB

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// errStatus maps domain sentinels onto HTTP codes. Unknown errors are 500 and
// deliberately opaque.
func errStatus(err error) int {
	switch {
	case errors.Is(err, domain.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, domain.ErrInvalidArgument):
		return http.StatusBadRequest
	case errors.Is(err, domain.ErrAlreadyPurchased), errors.Is(err, domain.ErrAlreadyExists), errors.Is(err, domain.ErrPaymentNotPending):
		return http.StatusConflict
	case errors.Is(err, domain.ErrReceiptMissing):
		return http.StatusUnprocessableEntity
	case errors.Is(err, domain.ErrInvalidSignature), errors.Is(err, domain.ErrNotApproved):
		return http.StatusBadRequest
	case errors.Is(err, domain.ErrRateLimited):
		return http.StatusTooManyRequests
	case errors.Is(err, domain.ErrProviderTimeout):
		return http.StatusGatewayTimeout
	default:
		return http.StatusInternalServerError
	}
}

func writeErr(w http.ResponseWriter, err error) {
	status := errStatus(err)
	msg := http.StatusText(status)
	if status < http.StatusInternalServerError {
		msg = err.Error()
	}
	writeJSON(w, status, map[string]string{"error": msg})
}

type paymentResponse struct {
	ID          string            `json:"id"`
	UserID      string            `json:"user_id"`
	CourseID    string            `json:"course_id"`
	Amount      int64             `json:"amount"`
	Currency    string            `json:"currency"`
	Method      string            `json:"method"`
	Status      string            `json:"status"`
	ProviderRef *string           `json:"provider_ref,omitempty"`
	ReceiptRef  *string           `json:"receipt_ref,omitempty"`
	Redirect    map[string]string `json:"redirect,omitempty"`
}

func toPaymentResponse(p *model.Payment, redirect map[string]string) paymentResponse {
	return paymentResponse{
		ID:          p.ID,
		UserID:      p.UserID,
		CourseID:    p.CourseID,
		Amount:      p.Amount,
		Currency:    p.Currency,
		Method:      string(p.Method),
		Status:      string(p.Status),
		ProviderRef: p.ProviderRef,
		ReceiptRef:  p.ReceiptRef,
		Redirect:    redirect,
	}
}

// ---------- intent ----------

type intentRequest struct {
	UserID   string `json:"user_id"`
	CourseID string `json:"course_id"`
	Method   string `json:"method"`
}

func (s *Server) handleIntent(w http.ResponseWriter, r *http.Request) {
	var req intentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	if req.UserID == "" || req.CourseID == "" {
		writeErr(w, domain.ErrInvalidArgument)
		return
	}

	p, params, err := s.payUC.Initiate(r.Context(), req.UserID, req.CourseID, model.PaymentMethod(req.Method))
	if err != nil {
		writeErr(w, err)
		return
	}
	metrics.IncPayment(string(p.Method), "initiated")
	writeJSON(w, http.StatusCreated, toPaymentResponse(p, params))
}

// ---------- card webhook ----------

// handleCardWebhook consumes the card processor's signed event stream. The
// signature covers the raw body bytes, so the body is read before any parsing.
func (s *Server) handleCardWebhook(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(io.LimitReader(r.Body, maxWebhookBody))
	if err != nil {
		metrics.IncWebhookEvent(s.card.Name(), "error")
		http.Error(w, "Bad request", http.StatusBadRequest)
		return
	}

	ev, err := s.card.VerifyEvent(body, r.Header.Get("Stripe-Signature"))
	if err != nil {
		if errors.Is(err, payment.ErrEventIgnored) {
			// Unrelated event type. Acknowledge so the provider stops retrying.
			metrics.IncWebhookEvent(s.card.Name(), "ignored")
			w.WriteHeader(http.StatusOK)
			return
		}
		metrics.IncWebhookEvent(s.card.Name(), "bad_signature")
		s.notif.VerificationFailed(r.Context(), s.card.Name(), "", err.Error())
		http.Error(w, "Bad signature", http.StatusBadRequest)
		return
	}

	p, err := s.payUC.FindByProviderRef(r.Context(), ev.SessionID)
	if err != nil {
		// A session we never created. Acknowledged with 404; the provider
		// gives up after its retry budget.
		metrics.IncWebhookEvent(s.card.Name(), "error")
		writeErr(w, err)
		return
	}

	out := model.PaymentOutcome{
		Kind:        ev.Kind,
		Provider:    s.card.Name(),
		ProviderRef: &ev.SessionID,
		Reason:      ev.EventID,
	}
	_, won, err := s.payUC.Apply(r.Context(), p.ID, out)
	if err != nil {
		metrics.IncWebhookEvent(s.card.Name(), "error")
		writeErr(w, err)
		return
	}
	// Only the delivery that won the transition counts; replays and
	// indeterminate events leave the counters alone.
	if won {
		if ev.Kind == model.OutcomeSuccess {
			metrics.IncPayment(string(p.Method), "approved")
			metrics.AddPaymentRevenue(p.Currency, p.Amount)
		} else {
			metrics.IncPayment(string(p.Method), "failed")
		}
	}
	metrics.IncWebhookEvent(s.card.Name(), "applied")
	w.WriteHeader(http.StatusOK)
}

// ---------- gateway webhook ----------

// handleGatewayWebhook consumes the regional gateway's form-encoded IPN post.
func (s *Server) handleGatewayWebhook(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		metrics.IncWebhookEvent(s.gateway.Name(), "error")
		http.Error(w, "Bad request", http.StatusBadRequest)
		return
	}
	cb := adapter.GatewayCallback{
		OrderID:    r.PostFormValue("tran_id"),
		TranRef:    r.PostFormValue("bank_tran_id"),
		Amount:     r.PostFormValue("amount"),
		Currency:   r.PostFormValue("currency"),
		StatusCode: r.PostFormValue("status"),
		Signature:  r.PostFormValue("verify_sign"),
	}
	if cb.OrderID == "" {
		metrics.IncWebhookEvent(s.gateway.Name(), "error")
		http.Error(w, "Missing tran_id", http.StatusBadRequest)
		return
	}

	p, err := s.payUC.FindByID(r.Context(), cb.OrderID)
	if err != nil {
		metrics.IncWebhookEvent(s.gateway.Name(), "error")
		writeErr(w, err)
		return
	}

	out := model.PaymentOutcome{
		Kind:     model.OutcomeSuccess,
		Provider: s.gateway.Name(),
	}
	// Failed IPNs often omit bank_tran_id; provider_ref stays NULL rather
	// than holding an empty string that would trip the unique index.
	if cb.TranRef != "" {
		out.ProviderRef = &cb.TranRef
	}
	if err := s.gateway.VerifyCallback(p, cb); err != nil {
		switch {
		case errors.Is(err, domain.ErrInvalidSignature):
			// Tampered or misconfigured. Never a state transition.
			metrics.IncWebhookEvent(s.gateway.Name(), "bad_signature")
			s.notif.VerificationFailed(r.Context(), s.gateway.Name(), cb.OrderID, "signature mismatch")
			http.Error(w, "Bad signature", http.StatusBadRequest)
			return
		case errors.Is(err, domain.ErrNotApproved):
			out.Kind = model.OutcomeFailure
			out.Reason = cb.StatusCode
		default:
			metrics.IncWebhookEvent(s.gateway.Name(), "error")
			writeErr(w, err)
			return
		}
	}

	_, won, err := s.payUC.Apply(r.Context(), p.ID, out)
	if err != nil {
		metrics.IncWebhookEvent(s.gateway.Name(), "error")
		writeErr(w, err)
		return
	}
	if won {
		if out.Kind == model.OutcomeSuccess {
			metrics.IncPayment(string(p.Method), "approved")
			metrics.AddPaymentRevenue(p.Currency, p.Amount)
		} else {
			metrics.IncPayment(string(p.Method), "failed")
		}
	}
	metrics.IncWebhookEvent(s.gateway.Name(), "applied")
	w.WriteHeader(http.StatusOK)
}

// ---------- client poll ----------

func (s *Server) handleVerify(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	sessionID := r.URL.Query().Get("session_id")
	if sessionID == "" {
		metrics.PaymentVerifyRequests.WithLabelValues("fail", "unknown").Inc()
		http.Error(w, "session_id is required", http.StatusBadRequest)
		return
	}

	// Serialize concurrent polls for the same session; losers read current
	// state instead of hammering the provider.
	if s.locker != nil {
		if token, err := s.locker.TryLock(r.Context(), red.PaymentVerifyKey(sessionID), 10*time.Second); err == nil {
			defer func() { _ = s.locker.Unlock(r.Context(), red.PaymentVerifyKey(sessionID), token) }()
		} else {
			p, err := s.payUC.FindByProviderRef(r.Context(), sessionID)
			if err != nil {
				metrics.PaymentVerifyRequests.WithLabelValues("fail", "not_found").Inc()
				writeErr(w, err)
				return
			}
			metrics.PaymentVerifyRequests.WithLabelValues("ok", "").Inc()
			writeJSON(w, http.StatusOK, toPaymentResponse(p, nil))
			return
		}
	}

	p, err := s.payUC.VerifySession(r.Context(), sessionID)
	if err != nil {
		reason := "provider_error"
		switch {
		case errors.Is(err, domain.ErrNotFound):
			reason = "not_found"
		case errors.Is(err, domain.ErrProviderTimeout):
			reason = "provider_timeout"
		}
		metrics.PaymentVerifyRequests.WithLabelValues("fail", reason).Inc()
		metrics.PaymentVerifyDuration.WithLabelValues("fail").Observe(time.Since(start).Seconds())
		writeErr(w, err)
		return
	}
	metrics.PaymentVerifyRequests.WithLabelValues("ok", "").Inc()
	metrics.PaymentVerifyDuration.WithLabelValues("ok").Observe(time.Since(start).Seconds())
	writeJSON(w, http.StatusOK, toPaymentResponse(p, nil))
}

func (s *Server) handlePaymentGet(w http.ResponseWriter, r *http.Request) {
	p, err := s.payUC.FindByID(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeErr(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toPaymentResponse(p, nil))
}

// ---------- bank transfer receipt ----------

type receiptRequest struct {
	ReceiptRef string `json:"receipt_ref"`
}

func (s *Server) handleAttachReceipt(w http.ResponseWriter, r *http.Request) {
	var req receiptRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	if req.ReceiptRef == "" {
		writeErr(w, domain.ErrInvalidArgument)
		return
	}
	p, err := s.payUC.AttachReceipt(r.Context(), chi.URLParam(r, "id"), req.ReceiptRef)
	if err != nil {
		writeErr(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toPaymentResponse(p, nil))
}

// ---------- catalog ----------

func (s *Server) handleCourseList(w http.ResponseWriter, r *http.Request) {
	offset, limit := pageParams(r)
	courses, err := s.courseUC.ListPublished(r.Context(), offset, limit)
	if err != nil {
		writeErr(w, err)
		return
	}
	writeJSON(w, http.StatusOK, struct {
		Data []*model.Course `json:"data"`
	}{Data: courses})
}

func (s *Server) handleCourseGet(w http.ResponseWriter, r *http.Request) {
	c, err := s.courseUC.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeErr(w, err)
		return
	}
	if !c.Published {
		writeErr(w, domain.ErrNotFound)
		return
	}
	writeJSON(w, http.StatusOK, c)
}

// ---------- users ----------

type registerRequest struct {
	Email    string `json:"email"`
	FullName string `json:"full_name"`
}

func (s *Server) handleUserRegister(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	user, err := s.userUC.RegisterOrFetch(r.Context(), req.Email, req.FullName)
	if err != nil {
		writeErr(w, err)
		return
	}
	writeJSON(w, http.StatusOK, user)
}

func (s *Server) handleUserPurchases(w http.ResponseWriter, r *http.Request) {
	purchases, err := s.accessUC.ListByUser(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeErr(w, err)
		return
	}
	writeJSON(w, http.StatusOK, struct {
		Data []*model.Purchase `json:"data"`
	}{Data: purchases})
}
