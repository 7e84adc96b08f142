package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	_ "github.com/noah-isme/lingua-tutor-api/api/swagger"
	"github.com/noah-isme/lingua-tutor-api/internal/handler"
	"github.com/noah-isme/lingua-tutor-api/internal/middleware"
	"github.com/noah-isme/lingua-tutor-api/internal/repository"
	"github.com/noah-isme/lingua-tutor-api/internal/scheduling"
	"github.com/noah-isme/lingua-tutor-api/internal/service"
	"github.com/noah-isme/lingua-tutor-api/pkg/cache"
	"github.com/noah-isme/lingua-tutor-api/pkg/config"
	"github.com/noah-isme/lingua-tutor-api/pkg/database"
	"github.com/noah-isme/lingua-tutor-api/pkg/jobs"
	"github.com/noah-isme/lingua-tutor-api/pkg/lock"
	"github.com/noah-isme/lingua-tutor-api/pkg/logger"
	corsmiddleware "github.com/noah-isme/lingua-tutor-api/pkg/middleware/cors"
	reqidmiddleware "github.com/noah-isme/lingua-tutor-api/pkg/middleware/requestid"
)

// @title Lingua Tutor API
// @version 1.0.0
// @description Language tutoring marketplace: availability, slots, bookings and payouts
// @BasePath /api/v1
// @schemes http
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logr, err := logger.New(cfg)
	if err != nil {
		log.Fatalf("failed to init logger: %v", err)
	}
	defer logr.Sync() //nolint:errcheck

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, logr); err != nil {
		logr.Fatal("server failed", zap.Error(err))
	}
}

func run(ctx context.Context, cfg *config.Config, logr *zap.Logger) error {
	db, err := database.NewPostgres(ctx, cfg.Database)
	if err != nil {
		return err
	}
	defer db.Close()

	redisClient, err := cache.NewRedis(ctx, cfg.Redis)
	if err != nil {
		return err
	}

	var (
		locker    lock.Locker
		cacheRepo service.CacheRepository
	)
	if redisClient != nil {
		defer redisClient.Close()
		locker = lock.NewRedisLocker(redisClient, cfg.Booking.LockTTL, cfg.Booking.LockWait)
		cacheRepo = repository.NewCacheRepository(redisClient, logr)
	} else {
		logr.Warn("redis disabled: using in-process booking lock, run a single instance")
		locker = lock.NewLocalLocker(cfg.Booking.LockWait)
	}

	var metrics *service.MetricsService
	if cfg.Metrics.Enabled {
		metrics = service.NewMetricsService()
	}

	validate := validator.New()

	users := repository.NewUserRepository(db)
	tutors := repository.NewTutorRepository(db)
	windows := repository.NewAvailabilityRepository(db)
	bookings := repository.NewBookingRepository(db)
	payments := repository.NewPaymentRepository(db)
	reviews := repository.NewReviewRepository(db)
	audit := service.NewAuditService(ctx, repository.NewAuditRepository(db), logr, jobs.Config{
		Workers:    cfg.Audit.Workers,
		BufferSize: cfg.Audit.BufferSize,
		MaxRetries: cfg.Audit.MaxRetries,
	})
	defer audit.Close()

	cacheSvc := service.NewCacheService(cacheRepo, metrics, cfg.Slots.CacheTTL, logr, cfg.Slots.CacheEnabled)
	authSvc := service.NewAuthService(users, tutors, validate, logr, service.AuthConfig{
		AccessTokenSecret: cfg.JWT.Secret,
		AccessTokenExpiry: cfg.JWT.Expiration,
		Issuer:            cfg.JWT.Issuer,
		DefaultHourlyRate: cfg.Tutors.DefaultHourlyRate,
	})
	tutorSvc := service.NewTutorService(tutors, validate, logr)
	slotSvc := service.NewSlotService(windows, bookings, tutors, cacheSvc, metrics, logr, service.SlotConfig{
		Policy:      scheduling.ParseSlotPolicy(cfg.Slots.Policy),
		CacheTTL:    cfg.Slots.CacheTTL,
		BrowseDays:  cfg.Slots.BrowseDays,
		HorizonDays: cfg.Slots.HorizonDays,
	})
	availabilitySvc := service.NewAvailabilityService(windows, tutors, locker, slotSvc, validate, logr)
	bookingSvc := service.NewBookingService(bookings, payments, windows, tutors, locker, slotSvc, metrics, validate, logr, service.BookingConfig{
		PlatformFeeRate: cfg.Payments.PlatformFeeRate,
		Currency:        cfg.Payments.Currency,
	})
	reviewSvc := service.NewReviewService(reviews, bookings, tutors, validate, logr)
	earningsSvc := service.NewEarningsService(payments, tutors, cfg.Payments.Currency, logr)

	if cfg.Env == config.EnvProduction {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(reqidmiddleware.Middleware())
	r.Use(logger.GinMiddleware(logr))
	r.Use(corsmiddleware.New(cfg.CORS.AllowedOrigins))
	r.Use(middleware.Metrics(metrics))

	registerRoutes(r, handlers{
		auth:         handler.NewAuthHandler(authSvc),
		tutors:       handler.NewTutorHandler(tutorSvc, reviewSvc),
		availability: handler.NewAvailabilityHandler(availabilitySvc),
		slots:        handler.NewSlotHandler(slotSvc),
		bookings:     handler.NewBookingHandler(bookingSvc, reviewSvc),
		earnings:     handler.NewEarningsHandler(earningsSvc),
		ops:          handler.NewMetricsHandler(metrics, db),
	}, routeDeps{
		prefix:  cfg.APIPrefix,
		tokens:  authSvc,
		audit:   audit,
		logger:  logr,
		docs:    cfg.Env != config.EnvProduction,
		metrics: cfg.Metrics.Enabled,
	})

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Port),
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logr.Sugar().Infow("server starting", "addr", srv.Addr, "env", cfg.Env, "slot_policy", cfg.Slots.Policy)
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

	logr.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}
