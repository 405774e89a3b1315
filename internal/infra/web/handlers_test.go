package web

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"course-marketplace/internal/domain"
	"course-marketplace/internal/domain/model"
	"course-marketplace/internal/domain/ports/adapter"
	"course-marketplace/internal/infra/payment"
)

func pendingPayment(id string) *model.Payment {
	now := time.Now()
	return &model.Payment{
		ID:        id,
		UserID:    "user-1",
		CourseID:  "course-1",
		Amount:    2500,
		Currency:  "BDT",
		Method:    model.MethodCardRedirect,
		Status:    model.PaymentStatusPending,
		CreatedAt: now,
		UpdatedAt: now,
	}
}

func TestHandleIntent(t *testing.T) {
	pay := &mockPaymentUC{
		initiateFn: func(ctx context.Context, userID, courseID string, method model.PaymentMethod) (*model.Payment, map[string]string, error) {
			switch {
			case courseID == "missing":
				return nil, nil, domain.ErrNotFound
			case courseID == "owned":
				return nil, nil, domain.ErrAlreadyPurchased
			}
			p := pendingPayment("pay-1")
			p.UserID = userID
			p.CourseID = courseID
			p.Method = method
			return p, map[string]string{"checkout_url": "https://checkout.example/cs_1"}, nil
		},
	}
	server := newTestServer(pay, nil, &mockCardProc{}, &mockGateway{})
	router := server.PublicRouter()

	post := func(body string) *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodPost, "/api/v1/payments/intent", strings.NewReader(body))
		rr := httptest.NewRecorder()
		router.ServeHTTP(rr, req)
		return rr
	}

	t.Run("creates pending payment with redirect params", func(t *testing.T) {
		rr := post(`{"user_id":"user-1","course_id":"course-1","method":"card-redirect"}`)
		if rr.Code != http.StatusCreated {
			t.Fatalf("expected 201, got %d: %s", rr.Code, rr.Body.String())
		}
		var resp paymentResponse
		if err := json.Unmarshal(rr.Body.Bytes(), &resp); err != nil {
			t.Fatalf("unmarshal: %v", err)
		}
		if resp.ID != "pay-1" || resp.Status != "pending" {
			t.Fatalf("unexpected payment: %+v", resp)
		}
		if resp.Redirect["checkout_url"] == "" {
			t.Fatalf("redirect params missing")
		}
	})

	t.Run("malformed body -> 400", func(t *testing.T) {
		if rr := post(`{not json`); rr.Code != http.StatusBadRequest {
			t.Fatalf("expected 400, got %d", rr.Code)
		}
	})

	t.Run("missing fields -> 400", func(t *testing.T) {
		if rr := post(`{"user_id":"user-1"}`); rr.Code != http.StatusBadRequest {
			t.Fatalf("expected 400, got %d", rr.Code)
		}
	})

	t.Run("unknown course -> 404", func(t *testing.T) {
		if rr := post(`{"user_id":"user-1","course_id":"missing","method":"card-redirect"}`); rr.Code != http.StatusNotFound {
			t.Fatalf("expected 404, got %d", rr.Code)
		}
	})

	t.Run("already purchased -> 409", func(t *testing.T) {
		if rr := post(`{"user_id":"user-1","course_id":"owned","method":"card-redirect"}`); rr.Code != http.StatusConflict {
			t.Fatalf("expected 409, got %d", rr.Code)
		}
	})
}

func TestHandleCardWebhook(t *testing.T) {
	sessionID := "cs_123"
	stored := pendingPayment("pay-1")
	stored.ProviderRef = &sessionID

	var applied []model.PaymentOutcome
	pay := &mockPaymentUC{
		findByRefFn: func(ctx context.Context, ref string) (*model.Payment, error) {
			if ref == sessionID {
				return stored, nil
			}
			return nil, domain.ErrNotFound
		},
		applyFn: func(ctx context.Context, paymentID string, out model.PaymentOutcome) (*model.Payment, bool, error) {
			applied = append(applied, out)
			p := *stored
			if out.Kind == model.OutcomeSuccess {
				p.Status = model.PaymentStatusApproved
			}
			return &p, out.Kind != model.OutcomeIndeterminate, nil
		},
	}

	post := func(router http.Handler, body, sig string) *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodPost, "/api/v1/payments/webhook/card", strings.NewReader(body))
		req.Header.Set("Stripe-Signature", sig)
		rr := httptest.NewRecorder()
		router.ServeHTTP(rr, req)
		return rr
	}

	t.Run("verified success event applied", func(t *testing.T) {
		applied = nil
		card := &mockCardProc{verifyEventFn: func(payload []byte, header string) (*adapter.CardEvent, error) {
			return &adapter.CardEvent{EventID: "evt_1", SessionID: sessionID, Kind: model.OutcomeSuccess}, nil
		}}
		server := newTestServer(pay, nil, card, &mockGateway{})
		rr := post(server.PublicRouter(), `{}`, "t=1,v1=sig")
		if rr.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d: %s", rr.Code, rr.Body.String())
		}
		if len(applied) != 1 || applied[0].Kind != model.OutcomeSuccess {
			t.Fatalf("outcome not applied: %+v", applied)
		}
	})

	t.Run("bad signature rejected and alerted", func(t *testing.T) {
		applied = nil
		card := &mockCardProc{verifyEventFn: func(payload []byte, header string) (*adapter.CardEvent, error) {
			return nil, domain.ErrInvalidSignature
		}}
		notif := &mockNotifUC{}
		server := newTestServer(pay, notif, card, &mockGateway{})
		rr := post(server.PublicRouter(), `{}`, "t=1,v1=forged")
		if rr.Code != http.StatusBadRequest {
			t.Fatalf("expected 400, got %d", rr.Code)
		}
		if len(applied) != 0 {
			t.Fatalf("outcome applied on bad signature")
		}
		if notif.failureCount() != 1 {
			t.Fatalf("expected 1 operator alert, got %d", notif.failureCount())
		}
	})

	t.Run("ignored event type acked with 200", func(t *testing.T) {
		applied = nil
		card := &mockCardProc{verifyEventFn: func(payload []byte, header string) (*adapter.CardEvent, error) {
			return nil, payment.ErrEventIgnored
		}}
		server := newTestServer(pay, nil, card, &mockGateway{})
		rr := post(server.PublicRouter(), `{}`, "t=1,v1=sig")
		if rr.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d", rr.Code)
		}
		if len(applied) != 0 {
			t.Fatalf("ignored event was applied")
		}
	})

	t.Run("unknown session -> 404", func(t *testing.T) {
		card := &mockCardProc{verifyEventFn: func(payload []byte, header string) (*adapter.CardEvent, error) {
			return &adapter.CardEvent{EventID: "evt_2", SessionID: "cs_unknown", Kind: model.OutcomeSuccess}, nil
		}}
		server := newTestServer(pay, nil, card, &mockGateway{})
		rr := post(server.PublicRouter(), `{}`, "t=1,v1=sig")
		if rr.Code != http.StatusNotFound {
			t.Fatalf("expected 404, got %d", rr.Code)
		}
	})
}

func TestHandleGatewayWebhook(t *testing.T) {
	stored := pendingPayment("pay-1")
	stored.Method = model.MethodRegionalGateway

	var applied []model.PaymentOutcome
	pay := &mockPaymentUC{
		findByIDFn: func(ctx context.Context, id string) (*model.Payment, error) {
			if id == stored.ID {
				return stored, nil
			}
			return nil, domain.ErrNotFound
		},
		applyFn: func(ctx context.Context, paymentID string, out model.PaymentOutcome) (*model.Payment, bool, error) {
			applied = append(applied, out)
			return stored, true, nil
		},
	}

	post := func(router http.Handler, form url.Values) *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodPost, "/api/v1/payments/webhook/gateway", strings.NewReader(form.Encode()))
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
		rr := httptest.NewRecorder()
		router.ServeHTTP(rr, req)
		return rr
	}

	validForm := func() url.Values {
		return url.Values{
			"tran_id":      {stored.ID},
			"bank_tran_id": {"bank-ref-1"},
			"amount":       {"2500.00"},
			"currency":     {"BDT"},
			"status":       {"VALID"},
			"verify_sign":  {"deadbeef"},
		}
	}

	t.Run("valid callback applies success", func(t *testing.T) {
		applied = nil
		gw := &mockGateway{verifyFn: func(p *model.Payment, cb adapter.GatewayCallback) error { return nil }}
		server := newTestServer(pay, nil, &mockCardProc{}, gw)
		rr := post(server.PublicRouter(), validForm())
		if rr.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d: %s", rr.Code, rr.Body.String())
		}
		if len(applied) != 1 || applied[0].Kind != model.OutcomeSuccess {
			t.Fatalf("success not applied: %+v", applied)
		}
		if applied[0].ProviderRef == nil || *applied[0].ProviderRef != "bank-ref-1" {
			t.Fatalf("provider ref not carried through")
		}
	})

	t.Run("signature mismatch never transitions", func(t *testing.T) {
		applied = nil
		gw := &mockGateway{verifyFn: func(p *model.Payment, cb adapter.GatewayCallback) error {
			return domain.ErrInvalidSignature
		}}
		notif := &mockNotifUC{}
		server := newTestServer(pay, notif, &mockCardProc{}, gw)
		rr := post(server.PublicRouter(), validForm())
		if rr.Code != http.StatusBadRequest {
			t.Fatalf("expected 400, got %d", rr.Code)
		}
		if len(applied) != 0 {
			t.Fatalf("state transitioned on bad signature")
		}
		if notif.failureCount() != 1 {
			t.Fatalf("expected 1 operator alert, got %d", notif.failureCount())
		}
	})

	t.Run("callback without bank_tran_id leaves provider ref unset", func(t *testing.T) {
		applied = nil
		gw := &mockGateway{verifyFn: func(p *model.Payment, cb adapter.GatewayCallback) error {
			return domain.ErrNotApproved
		}}
		server := newTestServer(pay, nil, &mockCardProc{}, gw)
		form := validForm()
		form.Del("bank_tran_id")
		form.Set("status", "FAILED")
		rr := post(server.PublicRouter(), form)
		if rr.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d: %s", rr.Code, rr.Body.String())
		}
		if len(applied) != 1 || applied[0].Kind != model.OutcomeFailure {
			t.Fatalf("failure not applied: %+v", applied)
		}
		if applied[0].ProviderRef != nil {
			t.Fatalf("empty bank_tran_id produced provider ref %q", *applied[0].ProviderRef)
		}
	})

	t.Run("authentic non-success status applies failure", func(t *testing.T) {
		applied = nil
		gw := &mockGateway{verifyFn: func(p *model.Payment, cb adapter.GatewayCallback) error {
			return domain.ErrNotApproved
		}}
		server := newTestServer(pay, nil, &mockCardProc{}, gw)
		form := validForm()
		form.Set("status", "FAILED")
		rr := post(server.PublicRouter(), form)
		if rr.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d", rr.Code)
		}
		if len(applied) != 1 || applied[0].Kind != model.OutcomeFailure {
			t.Fatalf("failure not applied: %+v", applied)
		}
		if applied[0].Reason != "FAILED" {
			t.Fatalf("status code not recorded as reason: %q", applied[0].Reason)
		}
	})

	t.Run("missing tran_id -> 400", func(t *testing.T) {
		gw := &mockGateway{verifyFn: func(p *model.Payment, cb adapter.GatewayCallback) error { return nil }}
		server := newTestServer(pay, nil, &mockCardProc{}, gw)
		form := validForm()
		form.Del("tran_id")
		if rr := post(server.PublicRouter(), form); rr.Code != http.StatusBadRequest {
			t.Fatalf("expected 400, got %d", rr.Code)
		}
	})
}

func TestHandleVerify(t *testing.T) {
	sessionID := "cs_123"
	approved := pendingPayment("pay-1")
	approved.ProviderRef = &sessionID
	approved.Status = model.PaymentStatusApproved

	pay := &mockPaymentUC{
		verifyFn: func(ctx context.Context, sid string) (*model.Payment, error) {
			switch sid {
			case sessionID:
				return approved, nil
			case "cs_slow":
				return nil, domain.ErrProviderTimeout
			}
			return nil, domain.ErrNotFound
		},
	}
	server := newTestServer(pay, nil, &mockCardProc{}, &mockGateway{})
	router := server.PublicRouter()

	get := func(sid string) *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodGet, "/api/v1/payments/verify?session_id="+sid, nil)
		rr := httptest.NewRecorder()
		router.ServeHTTP(rr, req)
		return rr
	}

	t.Run("returns reconciled payment", func(t *testing.T) {
		rr := get(sessionID)
		if rr.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d", rr.Code)
		}
		var resp paymentResponse
		if err := json.Unmarshal(rr.Body.Bytes(), &resp); err != nil {
			t.Fatalf("unmarshal: %v", err)
		}
		if resp.Status != "approved" {
			t.Fatalf("expected approved, got %s", resp.Status)
		}
	})

	t.Run("missing session_id -> 400", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/api/v1/payments/verify", nil)
		rr := httptest.NewRecorder()
		router.ServeHTTP(rr, req)
		if rr.Code != http.StatusBadRequest {
			t.Fatalf("expected 400, got %d", rr.Code)
		}
	})

	t.Run("unknown session -> 404", func(t *testing.T) {
		if rr := get("cs_unknown"); rr.Code != http.StatusNotFound {
			t.Fatalf("expected 404, got %d", rr.Code)
		}
	})

	t.Run("provider timeout -> 504", func(t *testing.T) {
		if rr := get("cs_slow"); rr.Code != http.StatusGatewayTimeout {
			t.Fatalf("expected 504, got %d", rr.Code)
		}
	})
}

func TestHandleAttachReceipt(t *testing.T) {
	pay := &mockPaymentUC{
		attachFn: func(ctx context.Context, paymentID, receiptRef string) (*model.Payment, error) {
			if paymentID != "pay-1" {
				return nil, domain.ErrNotFound
			}
			p := pendingPayment(paymentID)
			p.Method = model.MethodBankTransfer
			p.ReceiptRef = &receiptRef
			return p, nil
		},
	}
	server := newTestServer(pay, nil, &mockCardProc{}, &mockGateway{})
	router := server.PublicRouter()

	t.Run("stores receipt reference", func(t *testing.T) {
		body := bytes.NewReader([]byte(`{"receipt_ref":"slip-77"}`))
		req := httptest.NewRequest(http.MethodPost, "/api/v1/payments/pay-1/receipt", body)
		rr := httptest.NewRecorder()
		router.ServeHTTP(rr, req)
		if rr.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d: %s", rr.Code, rr.Body.String())
		}
		var resp paymentResponse
		if err := json.Unmarshal(rr.Body.Bytes(), &resp); err != nil {
			t.Fatalf("unmarshal: %v", err)
		}
		if resp.ReceiptRef == nil || *resp.ReceiptRef != "slip-77" {
			t.Fatalf("receipt ref missing: %+v", resp)
		}
	})

	t.Run("empty receipt -> 400", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/api/v1/payments/pay-1/receipt", strings.NewReader(`{}`))
		rr := httptest.NewRecorder()
		router.ServeHTTP(rr, req)
		if rr.Code != http.StatusBadRequest {
			t.Fatalf("expected 400, got %d", rr.Code)
		}
	})
}

func TestHandleBankTransferApprove(t *testing.T) {
	var gotOperator string
	pay := &mockPaymentUC{
		approveFn: func(ctx context.Context, paymentID, operatorID string) (*model.Payment, error) {
			gotOperator = operatorID
			p := pendingPayment(paymentID)
			p.Method = model.MethodBankTransfer
			p.Status = model.PaymentStatusApproved
			p.ApprovedBy = &operatorID
			return p, nil
		},
	}
	server := newTestServer(pay, nil, &mockCardProc{}, &mockGateway{})
	router := server.AdminRouter()

	t.Run("unauthenticated -> 401", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/api/v1/admin/payments/pay-1/approve", nil)
		rr := httptest.NewRecorder()
		router.ServeHTTP(rr, req)
		if rr.Code != http.StatusUnauthorized {
			t.Fatalf("expected 401, got %d", rr.Code)
		}
	})

	t.Run("operator identity flows into approval", func(t *testing.T) {
		token, err := server.auth.Mint(httptest.NewRecorder(), "op-9")
		if err != nil {
			t.Fatalf("mint: %v", err)
		}
		req := httptest.NewRequest(http.MethodPost, "/api/v1/admin/payments/pay-1/approve", nil)
		req.Header.Set("Authorization", "Bearer "+token)
		rr := httptest.NewRecorder()
		router.ServeHTTP(rr, req)
		if rr.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d: %s", rr.Code, rr.Body.String())
		}
		if gotOperator != "op-9" {
			t.Fatalf("expected operator op-9, got %q", gotOperator)
		}
	})
}

func TestHandleCourseRoutes(t *testing.T) {
	courses := map[string]*model.Course{
		"course-1": {ID: "course-1", Title: "Go Fundamentals", Price: 1500, Published: true},
		"course-2": {ID: "course-2", Title: "Draft", Price: 900, Published: false},
	}
	server := newTestServer(&mockPaymentUC{}, nil, &mockCardProc{}, &mockGateway{})
	server.courseUC = &mockCourseUC{courses: courses}
	router := server.PublicRouter()

	t.Run("list shows only published", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/api/v1/courses/", nil)
		rr := httptest.NewRecorder()
		router.ServeHTTP(rr, req)
		if rr.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d", rr.Code)
		}
		var resp struct {
			Data []*model.Course `json:"data"`
		}
		if err := json.Unmarshal(rr.Body.Bytes(), &resp); err != nil {
			t.Fatalf("unmarshal: %v", err)
		}
		if len(resp.Data) != 1 || resp.Data[0].ID != "course-1" {
			t.Fatalf("unexpected listing: %+v", resp.Data)
		}
	})

	t.Run("unpublished course hidden", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/api/v1/courses/course-2", nil)
		rr := httptest.NewRecorder()
		router.ServeHTTP(rr, req)
		if rr.Code != http.StatusNotFound {
			t.Fatalf("expected 404, got %d", rr.Code)
		}
	})
}
