package web

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"course-marketplace/internal/domain/ports/adapter"
	red "course-marketplace/internal/infra/redis"
	"course-marketplace/internal/usecase"
)

type Server struct {
	payUC    usecase.PaymentUseCase
	courseUC usecase.CourseUseCase
	userUC   usecase.UserUseCase
	accessUC usecase.AccessUseCase
	statsUC  usecase.StatsUseCase
	notif    usecase.NotificationUseCase

	card    adapter.CardProcessor
	gateway adapter.RedirectGateway

	auth    *AuthManager
	apiKey  string
	locker  red.Locker
	limiter *red.RateLimiter
	log     *zerolog.Logger
}

func NewServer(
	payUC usecase.PaymentUseCase,
	courseUC usecase.CourseUseCase,
	userUC usecase.UserUseCase,
	accessUC usecase.AccessUseCase,
	statsUC usecase.StatsUseCase,
	notif usecase.NotificationUseCase,
	card adapter.CardProcessor,
	gateway adapter.RedirectGateway,
	auth *AuthManager,
	apiKey string,
	locker red.Locker,
	limiter *red.RateLimiter,
	logger *zerolog.Logger,
) *Server {
	return &Server{
		payUC:    payUC,
		courseUC: courseUC,
		userUC:   userUC,
		accessUC: accessUC,
		statsUC:  statsUC,
		notif:    notif,
		card:     card,
		gateway:  gateway,
		auth:     auth,
		apiKey:   apiKey,
		locker:   locker,
		limiter:  limiter,
		log:      logger,
	}
}

// PublicRouter serves the storefront payment API. Webhook routes are never
// rate limited; a throttled provider retry would only delay reconciliation.
func (s *Server) PublicRouter() *chi.Mux {
	r := chi.NewRouter()
	r.Use(TraceID)
	r.Use(RequestLog(s.log))

	r.Route("/api/v1", func(r chi.Router) {
		r.Route("/payments", func(r chi.Router) {
			r.With(RateLimit(s.limiter, 10, time.Minute, red.ClientIntentKey)).
				Post("/intent", s.handleIntent)
			r.Post("/webhook/card", s.handleCardWebhook)
			r.Post("/webhook/gateway", s.handleGatewayWebhook)
			r.With(RateLimit(s.limiter, 30, time.Minute, red.ClientVerifyKey)).
				Get("/verify", s.handleVerify)
			r.Get("/{id}", s.handlePaymentGet)
			r.Post("/{id}/receipt", s.handleAttachReceipt)
		})

		r.Route("/courses", func(r chi.Router) {
			r.Get("/", s.handleCourseList)
			r.Get("/{id}", s.handleCourseGet)
		})

		r.Route("/users", func(r chi.Router) {
			r.Post("/register", s.handleUserRegister)
			r.Get("/{id}/purchases", s.handleUserPurchases)
		})
	})

	r.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("OK"))
	})
	return r
}

// AdminRouter serves the operator API plus /metrics, bound to a separate port.
func (s *Server) AdminRouter() *chi.Mux {
	r := chi.NewRouter()
	r.Use(TraceID)
	r.Use(RequestLog(s.log))

	r.Post("/api/v1/admin/login", s.handleAdminLogin)

	r.Route("/api/v1/admin", func(r chi.Router) {
		r.Use(s.requireOperator)

		r.Post("/logout", s.handleAdminLogout)
		r.Get("/stats", s.handleStats)

		r.Route("/courses", func(r chi.Router) {
			r.Get("/", s.handleAdminCourseList)
			r.Post("/", s.handleCourseCreate)
			r.Put("/{id}", s.handleCourseUpdate)
			r.Delete("/{id}", s.handleCourseDelete)
		})

		r.Route("/users", func(r chi.Router) {
			r.Get("/", s.handleUserList)
			r.Get("/{id}", s.handleUserGet)
		})

		r.Route("/payments", func(r chi.Router) {
			r.Get("/pending", s.handlePendingPayments)
			r.Post("/{id}/approve", s.handleBankTransferApprove)
		})
	})

	r.Handle("/metrics", promhttp.Handler())
	r.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("OK"))
	})
	return r
}

// requireOperator gates mutating admin routes behind a valid session JWT.
func (s *Server) requireOperator(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		claims, err := s.auth.ParseFromRequest(r)
		if err != nil {
			http.Error(w, "Unauthorized", http.StatusUnauthorized)
			return
		}
		next.ServeHTTP(w, r.WithContext(withOperator(r.Context(), claims.Subject)))
	})
}
