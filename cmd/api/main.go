package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/joho/godotenv"
	"golang.org/x/sync/errgroup"

	"github.com/atsmith2k/AshtonCheyenneWedding-sub000/internal/handlers"
	"github.com/atsmith2k/AshtonCheyenneWedding-sub000/internal/mailer"
	"github.com/atsmith2k/AshtonCheyenneWedding-sub000/internal/repository"
	"github.com/atsmith2k/AshtonCheyenneWedding-sub000/internal/service"
	"github.com/atsmith2k/AshtonCheyenneWedding-sub000/internal/storage"
	"github.com/atsmith2k/AshtonCheyenneWedding-sub000/pkg/config"
	"github.com/atsmith2k/AshtonCheyenneWedding-sub000/pkg/database"
	"github.com/atsmith2k/AshtonCheyenneWedding-sub000/pkg/events"
	"github.com/atsmith2k/AshtonCheyenneWedding-sub000/pkg/logger"
	mw "github.com/atsmith2k/AshtonCheyenneWedding-sub000/pkg/middleware"
)

const cleanupInterval = 15 * time.Minute

func main() {
	if err := godotenv.Load(); err != nil {
		logger.Debug("No .env file loaded", "error", err)
	}
	cfg := config.Load()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Connect to database
	pool, err := database.Connect(ctx, cfg.Database)
	if err != nil {
		logger.Error("Failed to connect to database", "error", err)
		os.Exit(1)
	}
	defer pool.Close()

	// Initialize repositories
	guestRepo := repository.NewGuestRepository(pool)
	requestRepo := repository.NewAccessRequestRepository(pool)
	templateRepo := repository.NewTemplateRepository(pool)
	rateLimitRepo := repository.NewRateLimitRepository(pool)
	idempotencyRepo := repository.NewIdempotencyRepository(pool)

	var limiter repository.RateLimiter = rateLimitRepo
	var idempotency mw.IdempotencyStore = idempotencyRepo
	if cfg.Redis.URL != "" {
		rdb, err := repository.NewRedisClient(ctx, cfg.Redis.URL, cfg.Redis.Password, cfg.Redis.DB)
		if err != nil {
			logger.Warn("Redis unavailable, using Postgres for rate limits and idempotency", "error", err)
		} else {
			defer rdb.Close()
			limiter = repository.NewRedisRateLimiter(rdb)
			idempotency = repository.NewRedisIdempotencyStore(rdb)
		}
	}

	// Connect to event bus
	var publisher events.Publisher = events.NopPublisher{}
	if cfg.NATS.URL != "" {
		nc, err := events.NewNATSPublisher(cfg.NATS.URL)
		if err != nil {
			logger.Warn("NATS unavailable, domain events disabled", "error", err)
		} else {
			publisher = nc
		}
	}
	defer publisher.Close()

	mail := mailer.New(cfg.Email)
	if !mail.Enabled() {
		logger.Warn("No mail transport configured, invitation emails will not be sent")
	}

	var presigner storage.Presigner
	if cfg.Storage.PhotoBucket != "" {
		s3p, err := storage.NewS3Presigner(ctx, cfg.Storage)
		if err != nil {
			logger.Warn("S3 unavailable, photo uploads disabled", "error", err)
		} else {
			presigner = s3p
		}
	}

	// Initialize services
	h := handlers.New(handlers.Deps{
		Invitations:    service.NewInvitationService(guestRepo, cfg),
		Recovery:       service.NewRecoveryService(guestRepo, templateRepo, limiter, mail, cfg),
		AccessRequests: service.NewAccessRequestService(requestRepo, templateRepo, mail, publisher, cfg),
		RSVP:           service.NewRSVPService(guestRepo, publisher),
		Photos:         service.NewPhotoService(presigner, cfg.Storage),
		Admin:          service.NewAdminService(cfg),
		Limiter:        limiter,
		Idempotency:    idempotency,
	}, cfg)

	// Setup router
	r := chi.NewRouter()

	r.Use(mw.RequestID)
	r.Use(mw.ServiceName("wedding-api"))
	r.Use(mw.Logging)
	r.Use(middleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   cfg.Server.AllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "Idempotency-Key"},
		ExposedHeaders:   []string{"Retry-After", "Idempotent-Replayed"},
		AllowCredentials: true,
		MaxAge:           300,
	}))
	r.Use(mw.Health(pool.Ping))

	h.Routes(r)

	srv := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      r,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		logger.Info("Starting wedding api", "port", cfg.Server.Port)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})

	g.Go(func() error {
		<-gctx.Done()
		logger.Info("Shutting down wedding api...")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	g.Go(func() error {
		ticker := time.NewTicker(cleanupInterval)
		defer ticker.Stop()
		for {
			select {
			case <-gctx.Done():
				return nil
			case <-ticker.C:
				if n, err := rateLimitRepo.CleanupExpired(gctx); err != nil {
					logger.Error("Rate limit cleanup failed", "error", err)
				} else if n > 0 {
					logger.Debug("Expired rate limits removed", "count", n)
				}
				if n, err := idempotencyRepo.CleanupExpired(gctx); err != nil {
					logger.Error("Idempotency cleanup failed", "error", err)
				} else if n > 0 {
					logger.Debug("Expired idempotency keys removed", "count", n)
				}
			}
		}
	})

	if err := g.Wait(); err != nil {
		logger.Error("Wedding api error", "error", err)
		os.Exit(1)
	}
}
