package web

import (
	"context"
	"crypto/subtle"
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"course-marketplace/internal/domain"
	"course-marketplace/internal/domain/model"
)

type operatorKey struct{}

func withOperator(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, operatorKey{}, id)
}

func operatorFrom(ctx context.Context) string {
	if v, ok := ctx.Value(operatorKey{}).(string); ok {
		return v
	}
	return ""
}

func pageParams(r *http.Request) (offset, limit int) {
	offset, _ = strconv.Atoi(r.URL.Query().Get("offset"))
	limit, _ = strconv.Atoi(r.URL.Query().Get("limit"))
	if limit <= 0 {
		limit = 50
	}
	if offset < 0 {
		offset = 0
	}
	return offset, limit
}

// ---------- session ----------

type loginRequest struct {
	OperatorID string `json:"operator_id"`
	APIKey     string `json:"api_key"`
}

// handleAdminLogin exchanges the shared operator key for a short-lived
// session JWT identifying who performed later approvals.
func (s *Server) handleAdminLogin(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	if req.OperatorID == "" {
		writeErr(w, domain.ErrInvalidArgument)
		return
	}
	if subtle.ConstantTimeCompare([]byte(req.APIKey), []byte(s.apiKey)) != 1 {
		http.Error(w, "Forbidden", http.StatusForbidden)
		return
	}
	token, err := s.auth.Mint(w, req.OperatorID)
	if err != nil {
		writeErr(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"token": token})
}

func (s *Server) handleAdminLogout(w http.ResponseWriter, r *http.Request) {
	s.auth.Clear(w)
	w.WriteHeader(http.StatusNoContent)
}

// ---------- stats ----------

func (s *Server) handleStats(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	users, courses, err := s.statsUC.Totals(ctx)
	if err != nil {
		http.Error(w, "Failed to get totals", http.StatusInternalServerError)
		return
	}
	week, month, year, err := s.statsUC.Revenue(ctx)
	if err != nil {
		http.Error(w, "Failed to get revenue", http.StatusInternalServerError)
		return
	}

	response := struct {
		TotalUsers   int `json:"total_users"`
		TotalCourses int `json:"total_courses"`
		Revenue      struct {
			Week  int64 `json:"week"`
			Month int64 `json:"month"`
			Year  int64 `json:"year"`
		} `json:"revenue"`
	}{
		TotalUsers:   users,
		TotalCourses: courses,
	}
	response.Revenue.Week = week
	response.Revenue.Month = month
	response.Revenue.Year = year

	writeJSON(w, http.StatusOK, response)
}

// ---------- course CRUD ----------

type courseRequest struct {
	Title       string `json:"title"`
	Description string `json:"description"`
	Price       int64  `json:"price"`
	Published   bool   `json:"published"`
}

func (s *Server) handleAdminCourseList(w http.ResponseWriter, r *http.Request) {
	courses, err := s.courseUC.ListAll(r.Context())
	if err != nil {
		writeErr(w, err)
		return
	}
	writeJSON(w, http.StatusOK, struct {
		Data []*model.Course `json:"data"`
	}{Data: courses})
}

func (s *Server) handleCourseCreate(w http.ResponseWriter, r *http.Request) {
	var req courseRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	c, err := s.courseUC.Create(r.Context(), req.Title, req.Description, req.Price)
	if err != nil {
		writeErr(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, c)
}

func (s *Server) handleCourseUpdate(w http.ResponseWriter, r *http.Request) {
	var req courseRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	c, err := s.courseUC.Update(r.Context(), chi.URLParam(r, "id"), req.Title, req.Description, req.Price, req.Published)
	if err != nil {
		writeErr(w, err)
		return
	}
	writeJSON(w, http.StatusOK, c)
}

func (s *Server) handleCourseDelete(w http.ResponseWriter, r *http.Request) {
	if err := s.courseUC.Delete(r.Context(), chi.URLParam(r, "id")); err != nil {
		writeErr(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// ---------- users ----------

func (s *Server) handleUserList(w http.ResponseWriter, r *http.Request) {
	offset, limit := pageParams(r)
	users, err := s.userUC.List(r.Context(), offset, limit)
	if err != nil {
		http.Error(w, "Failed to list users", http.StatusInternalServerError)
		return
	}
	total, err := s.userUC.Count(r.Context())
	if err != nil {
		http.Error(w, "Failed to count users", http.StatusInternalServerError)
		return
	}

	response := struct {
		Data   []*model.User `json:"data"`
		Total  int           `json:"total"`
		Limit  int           `json:"limit"`
		Offset int           `json:"offset"`
	}{
		Data:   users,
		Total:  total,
		Limit:  limit,
		Offset: offset,
	}
	writeJSON(w, http.StatusOK, response)
}

func (s *Server) handleUserGet(w http.ResponseWriter, r *http.Request) {
	user, err := s.userUC.FindByID(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeErr(w, err)
		return
	}
	purchases, err := s.accessUC.ListByUser(r.Context(), user.ID)
	if err != nil {
		http.Error(w, "Failed to get user purchases", http.StatusInternalServerError)
		return
	}

	response := struct {
		User      *model.User       `json:"user"`
		Purchases []*model.Purchase `json:"purchases"`
	}{
		User:      user,
		Purchases: purchases,
	}
	writeJSON(w, http.StatusOK, response)
}

// ---------- bank transfer review ----------

func (s *Server) handlePendingPayments(w http.ResponseWriter, r *http.Request) {
	_, limit := pageParams(r)
	payments, err := s.payUC.ListStalePending(r.Context(), time.Now(), limit)
	if err != nil {
		writeErr(w, err)
		return
	}
	writeJSON(w, http.StatusOK, struct {
		Data []*model.Payment `json:"data"`
	}{Data: payments})
}

func (s *Server) handleBankTransferApprove(w http.ResponseWriter, r *http.Request) {
	operator := operatorFrom(r.Context())
	if operator == "" {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}
	p, err := s.payUC.ApproveBankTransfer(r.Context(), chi.URLParam(r, "id"), operator)
	if err != nil {
		writeErr(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toPaymentResponse(p, nil))
}
