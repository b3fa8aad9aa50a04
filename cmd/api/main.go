package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-redis/redis/v8"
	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"github.com/BruksfildServices01/lesson-scheduler/internal/audit"
	"github.com/BruksfildServices01/lesson-scheduler/internal/config"
	dbpkg "github.com/BruksfildServices01/lesson-scheduler/internal/db"
	domain "github.com/BruksfildServices01/lesson-scheduler/internal/domain/booking"
	"github.com/BruksfildServices01/lesson-scheduler/internal/infra/mailer"
	"github.com/BruksfildServices01/lesson-scheduler/internal/infra/payment"
	infraRepo "github.com/BruksfildServices01/lesson-scheduler/internal/infra/repository"
	"github.com/BruksfildServices01/lesson-scheduler/internal/infra/stash"
	"github.com/BruksfildServices01/lesson-scheduler/internal/logger"
	"github.com/BruksfildServices01/lesson-scheduler/internal/metrics"
	"github.com/BruksfildServices01/lesson-scheduler/internal/notification"
	"github.com/BruksfildServices01/lesson-scheduler/internal/routes"
	"github.com/BruksfildServices01/lesson-scheduler/internal/timezone"
)

func main() {
	cfg := config.Load()

	log, err := logger.New(cfg.LogLevel, cfg.LogFormat)
	if err != nil {
		panic(err)
	}
	defer func() { _ = log.Sync() }()

	if err := run(cfg, log); err != nil {
		log.Fatal("server stopped", zap.Error(err))
	}
}

func run(cfg *config.Config, log *zap.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if !timezone.IsValid(cfg.BusinessTimezone) {
		log.Warn("unknown business timezone, using UTC", zap.String("timezone", cfg.BusinessTimezone))
	}

	db, err := dbpkg.NewDB(cfg, log)
	if err != nil {
		return err
	}

	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
		DB:       cfg.RedisDB,
	})
	defer rdb.Close()
	if err := rdb.Ping(ctx).Err(); err != nil {
		log.Warn("redis unreachable, online checkout will fail until it recovers", zap.Error(err))
	}

	var gateway domain.PaymentGateway
	if cfg.PaymentsEnabled() {
		gw, err := payment.NewMercadoPagoGateway(cfg.MPAccessToken)
		if err != nil {
			return err
		}
		gateway = gw
	} else {
		log.Info("MP_ACCESS_TOKEN not set, only cash bookings are accepted")
	}

	mail := notification.NewDispatcher(
		mailer.NewSMTPSender(cfg.SMTPHost, cfg.SMTPPort, cfg.SMTPUser, cfg.SMTPPassword, cfg.MailFrom),
		log,
		100,
	)
	defer mail.Close()

	auditDispatcher := audit.NewDispatcher(audit.New(db), log)
	defer auditDispatcher.Close()

	r := gin.New()
	r.Use(gin.Recovery())

	routes.RegisterRoutes(r, routes.Deps{
		DB:       db,
		Repo:     infraRepo.NewBookingGormRepository(db),
		Payments: infraRepo.NewPaymentGormRepository(db),
		Stash:    stash.NewRedisStash(rdb, cfg.StashTTL),
		Gateway:  gateway,
		Notifier: notification.NewService(mail, cfg.StaffEmails, log),
		Audit:    auditDispatcher,
		Metrics:  metrics.New(prometheus.DefaultRegisterer),
		Log:      log,
	}, cfg)

	srv := &http.Server{
		Addr:              cfg.Addr(),
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info("server running", zap.String("addr", cfg.Addr()))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	log.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}
