// File: cmd/app/main.go
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"course-marketplace/internal/config"
	"course-marketplace/internal/domain/ports/adapter"
	pg "course-marketplace/internal/infra/db/postgres"
	"course-marketplace/internal/infra/logging"
	"course-marketplace/internal/infra/metrics"
	"course-marketplace/internal/infra/notify"
	pay "course-marketplace/internal/infra/payment"
	red "course-marketplace/internal/infra/redis"
	"course-marketplace/internal/infra/sched"
	"course-marketplace/internal/infra/web"
	"course-marketplace/internal/usecase"
)

func main() {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// ---- CLI flags ----
	cfgPath := flag.String("config", "config.yaml", "path to YAML config file")
	devMode := flag.Bool("dev", false, "enable developer mode (noop providers, console logs)")
	flag.Parse()

	cfg, err := config.LoadConfig(*cfgPath, *devMode)
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	logger := logging.New(cfg.Log, cfg.Runtime.Dev)
	if cfg.Runtime.Dev {
		logger.Warn().Msg("developer mode enabled")
	}

	metrics.MustRegister()

	// ---- Postgres ----
	pool, err := pg.NewPgxPool(ctx, cfg.Database.URL, 10)
	if err != nil {
		logger.Fatal().Err(err).Msg("postgres")
	}
	defer pool.Close()

	// ---- Redis ----
	redisClient, err := red.NewClient(ctx, &cfg.Redis)
	if err != nil {
		logger.Fatal().Err(err).Msg("redis")
	}
	defer redisClient.Close()
	rateLimiter := red.NewRateLimiter(redisClient)
	locker := red.NewLocker(redisClient)

	// ---- Repositories ----
	tm := pg.NewTxManager(pool)
	payRepo := pg.NewPaymentRepo(pool)
	purchaseRepo := pg.NewPurchaseRepo(pool)
	userRepo := pg.NewUserRepo(pool)
	courseRepo := pg.NewCourseRepoCacheDecorator(pg.NewCourseRepo(pool), redisClient)
	notifLogRepo := pg.NewNotificationLogRepo(pool)

	// ---- Provider adapters ----
	var card adapter.CardProcessor
	var gateway adapter.RedirectGateway
	if cfg.Runtime.Dev {
		card = pay.NoopCardProcessor{}
		gateway = pay.NoopGateway{}
	} else {
		card = pay.NewStripeCheckout(
			cfg.Payment.Card.SecretKey,
			cfg.Payment.Card.WebhookSecret,
			cfg.Payment.Card.BaseURL,
			cfg.Payment.Card.SuccessURL,
			cfg.Payment.Card.CancelURL,
		)
		gateway = pay.NewSSLCommerzGateway(
			cfg.Payment.Gateway.StoreID,
			cfg.Payment.Gateway.StorePassword,
			cfg.Payment.Gateway.CallbackURL,
			cfg.Payment.Gateway.Sandbox,
		)
	}

	// ---- Notification collaborators ----
	var mailer adapter.Mailer
	var ops adapter.OpsNotifier
	if cfg.Runtime.Dev || cfg.Notify.SMTP.Host == "" {
		mailer = &notify.LogMailer{Log: logger}
	} else {
		mailer = notify.NewSMTPMailer(cfg.Notify.SMTP, logger)
	}
	if cfg.Runtime.Dev || cfg.Notify.Telegram.Token == "" {
		ops = &notify.LogOpsNotifier{Log: logger}
	} else {
		ops, err = notify.NewTelegramOpsNotifier(cfg.Notify.Telegram, logger)
		if err != nil {
			logger.Fatal().Err(err).Msg("telegram ops notifier")
		}
	}

	// ---- Use cases ----
	accessUC := usecase.NewAccessUseCase(purchaseRepo, logger)
	notifUC := usecase.NewNotificationUseCase(notifLogRepo, userRepo, courseRepo, mailer, ops, notify.StubCertificateRenderer{}, logger)
	payUC := usecase.NewPaymentUseCase(payRepo, courseRepo, accessUC, notifUC, card, gateway, tm, cfg.Payment.Currency, logger)
	courseUC := usecase.NewCourseUseCase(courseRepo, logger)
	userUC := usecase.NewUserUseCase(userRepo, logger)
	statsUC := usecase.NewStatsUseCase(userRepo, courseRepo, payRepo, logger)

	// ---- HTTP ----
	auth := web.NewAuthManager(cfg.Admin.JWTSecret, !cfg.Runtime.Dev, "", cfg.Admin.TokenTTL)
	srv := web.NewServer(payUC, courseUC, userUC, accessUC, statsUC, notifUC, card, gateway, auth, cfg.Admin.APIKey, locker, rateLimiter, logger)

	public := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:           srv.PublicRouter(),
		ReadHeaderTimeout: 5 * time.Second,
	}
	admin := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Server.AdminPort),
		Handler:           srv.AdminRouter(),
		ReadHeaderTimeout: 5 * time.Second,
	}
	go func() {
		logger.Info().Str("addr", public.Addr).Msg("public api listening")
		if err := public.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error().Err(err).Msg("public server")
		}
	}()
	go func() {
		logger.Info().Str("addr", admin.Addr).Msg("admin api listening")
		if err := admin.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error().Err(err).Msg("admin server")
		}
	}()

	// ---- Stale payment reconciler ----
	reconciler := sched.NewPaymentReconciler(payUC, cfg.Reconciler.Interval, cfg.Reconciler.StaleAfter, logger)
	go reconciler.Start(ctx)

	// ---- DB pool gauge ----
	go func() {
		t := time.NewTicker(15 * time.Second)
		defer t.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-t.C:
				st := pool.Stat()
				metrics.SetDBPoolStats(st.TotalConns(), st.IdleConns(), st.AcquiredConns())
			}
		}
	}()

	// ---- Graceful shutdown ----
	sigc := make(chan os.Signal, 1)
	signal.Notify(sigc, syscall.SIGINT, syscall.SIGTERM)
	<-sigc
	logger.Info().Msg("shutdown requested")
	cancel()

	shutdownCtx, stop := context.WithTimeout(context.Background(), 10*time.Second)
	defer stop()
	_ = public.Shutdown(shutdownCtx)
	_ = admin.Shutdown(shutdownCtx)
}
