// cmd/server is the portal API entry point.
// It wires together all layers and starts the HTTP server.
package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/Shivanand-hulikatti/school-portal/internal/auth"
	"github.com/Shivanand-hulikatti/school-portal/internal/config"
	"github.com/Shivanand-hulikatti/school-portal/internal/crm"
	"github.com/Shivanand-hulikatti/school-portal/internal/database"
	"github.com/Shivanand-hulikatti/school-portal/internal/handler"
	"github.com/Shivanand-hulikatti/school-portal/internal/logger"
	"github.com/Shivanand-hulikatti/school-portal/internal/notify"
	"github.com/Shivanand-hulikatti/school-portal/internal/payment"
	"github.com/Shivanand-hulikatti/school-portal/internal/policy"
	"github.com/Shivanand-hulikatti/school-portal/internal/ratelimit"
	"github.com/Shivanand-hulikatti/school-portal/internal/repository"
	"github.com/Shivanand-hulikatti/school-portal/internal/service"
	"github.com/Shivanand-hulikatti/school-portal/internal/telemetry"
)

const meterName = "github.com/Shivanand-hulikatti/school-portal"

func main() {
	std := logger.NewStd(os.Stdout)

	cfg, err := config.Load()
	if err != nil {
		std.Error("load config", err, nil)
		os.Exit(1)
	}

	var log logger.Logger = std
	if cfg.RollbarToken != "" {
		host, _ := os.Hostname()
		rb := logger.NewRollbar(std, logger.RollbarOptions{
			Token:       cfg.RollbarToken,
			Environment: cfg.Env,
			ServerHost:  host,
			CodeVersion: cfg.Build,
		})
		defer rb.Close()
		log = rb
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, log); err != nil {
		log.Error("server exited", err, nil)
		stop()
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg *config.Config, log logger.Logger) error {
	// ── 1. Telemetry ──────────────────────────────────────────────────────
	providers, err := telemetry.NewProviders(ctx, cfg.OTLPEndpoint, cfg.ServiceName, cfg.OTLPInsecure, log)
	if err != nil {
		return err
	}
	providers.SetGlobal()
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = providers.Shutdown(shutdownCtx)
	}()
	metrics, err := telemetry.NewMetrics(providers.MeterProvider.Meter(meterName))
	if err != nil {
		return err
	}

	// ── 2. Connect to PostgreSQL ──────────────────────────────────────────
	pool, err := database.NewPool(ctx, cfg.DSN(), database.DefaultPoolOptions(), log)
	if err != nil {
		return err
	}
	defer pool.Close()
	log.Info("connected to postgres", nil)

	// ── 3. Integrations ───────────────────────────────────────────────────
	var limiter ratelimit.Limiter
	if cfg.RedisAddr != "" {
		client := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
		defer client.Close()
		limiter = ratelimit.NewRedis(client, cfg.RateLimitRequests, cfg.RateLimitWindow)
		log.Info("rate limiting through redis", logger.Fields{"addr": cfg.RedisAddr})
	} else {
		mem := ratelimit.NewMemory(cfg.RateLimitRequests, cfg.RateLimitWindow)
		go mem.Run(ctx, cfg.RateLimitSweep)
		limiter = mem
	}

	var publisher notify.Publisher = notify.Nop{}
	if cfg.AMQPURL != "" {
		broker, err := notify.Dial(cfg.AMQPURL, cfg.AMQPExchange)
		if err != nil {
			return err
		}
		defer broker.Close()
		publisher = broker
		log.Info("publishing notifications", logger.Fields{"exchange": cfg.AMQPExchange})
	}

	var gateway service.PaymentGateway
	if cfg.StripeSecretKey != "" {
		gateway = payment.NewStripe(cfg.StripeSecretKey, cfg.StripeWebhookSecret, cfg.StripeCurrency)
	} else {
		log.Info("payments disabled: STRIPE_SECRET_KEY is not set", nil)
	}

	authz, err := policy.New(ctx)
	if err != nil {
		return err
	}

	// ── 4. Wire up layers ─────────────────────────────────────────────────
	eventRepo := repository.NewEventRepository(pool)
	regRepo := repository.NewRegistrationRepository(pool)
	contactRepo := repository.NewContactRepository(pool)
	profileRepo := repository.NewProfileRepository(pool)

	common := service.Common{
		Log:       log,
		Audit:     repository.NewAuditRepository(pool),
		Tracker:   crm.NewTracker(contactRepo),
		Publisher: publisher,
		Metrics:   metrics,
		Currency:  cfg.StripeCurrency,
	}

	router := handler.NewRouter(handler.Config{
		Log:        log,
		Verifier:   auth.NewVerifier(cfg.AuthJWTSecret, cfg.AuthJWTIssuer),
		Authorizer: authz,
		Limiter:    limiter,
		Metrics:    metrics,
		Tracer:     telemetry.Tracer(),
		CORSOrigin: cfg.CORSAllowedOrigin,
		Events:     service.NewEventService(eventRepo, regRepo, profileRepo, common),
		Payments:   service.NewPaymentService(regRepo, eventRepo, gateway, common),
		Bookings:   service.NewBookingService(repository.NewBookingRepository(pool), cfg.Location(), common),
		Forms:      service.NewFormService(repository.NewFormRepository(pool), contactRepo, common),
		CRM:        service.NewCRMService(contactRepo, common),
		Profiles:   service.NewProfileService(profileRepo, common),
	})

	// ── 5. Start server with graceful shutdown ────────────────────────────
	srv := &http.Server{
		Addr:         cfg.HTTPAddr,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info("server listening", logger.Fields{"addr": cfg.HTTPAddr, "env": cfg.Env})
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	log.Info("shutting down server", nil)
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	log.Info("server stopped", nil)
	return nil
}
