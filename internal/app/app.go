package app

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/tandemly/srscore/internal/adapter/postgres"
	"github.com/tandemly/srscore/internal/adapter/postgres/card"
	"github.com/tandemly/srscore/internal/adapter/postgres/cardstate"
	"github.com/tandemly/srscore/internal/adapter/postgres/dailycount"
	"github.com/tandemly/srscore/internal/adapter/postgres/eventlog"
	relationshiprepo "github.com/tandemly/srscore/internal/adapter/postgres/relationship"
	sessionrepo "github.com/tandemly/srscore/internal/adapter/postgres/session"
	userrepo "github.com/tandemly/srscore/internal/adapter/postgres/user"
	"github.com/tandemly/srscore/internal/changefeed"
	"github.com/tandemly/srscore/internal/config"
	"github.com/tandemly/srscore/internal/identity"
	"github.com/tandemly/srscore/internal/projector"
	"github.com/tandemly/srscore/internal/relationship"
	"github.com/tandemly/srscore/internal/selector"
	sessionsvc "github.com/tandemly/srscore/internal/service/session"
	usersvc "github.com/tandemly/srscore/internal/service/user"
	"github.com/tandemly/srscore/internal/study"
	"github.com/tandemly/srscore/internal/transport/middleware"
	"github.com/tandemly/srscore/internal/transport/rest"
)

// Run is the application entry point. It loads configuration, initializes
// all layers (repos, services, transport), starts the HTTP server, and
// waits for a shutdown signal for graceful termination.
func Run(ctx context.Context) error {
	// -----------------------------------------------------------------------
	// 1. Load and validate config
	// -----------------------------------------------------------------------
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	// -----------------------------------------------------------------------
	// 2. Initialize logger
	// -----------------------------------------------------------------------
	logger := NewLogger(cfg.Log)

	logger.Info("starting application",
		slog.String("version", BuildVersion()),
		slog.String("log_level", cfg.Log.Level),
	)

	// -----------------------------------------------------------------------
	// 3. Connect to DB (pool)
	// -----------------------------------------------------------------------
	pool, err := postgres.NewPool(ctx, cfg.Database)
	if err != nil {
		return fmt.Errorf("connect to database: %w", err)
	}
	defer pool.Close()

	logger.Info("database connected",
		slog.Int("max_conns", int(cfg.Database.MaxConns)),
	)

	// -----------------------------------------------------------------------
	// 4. Create TxManager
	// -----------------------------------------------------------------------
	txm := postgres.NewTxManager(pool)

	// -----------------------------------------------------------------------
	// 5. Create repositories
	// -----------------------------------------------------------------------
	eventsRepo := eventlog.New(pool)
	cardsRepo := card.New(pool)
	cardStateRepo := cardstate.New(pool)
	dailyCountsRepo := dailycount.New(pool)
	relationshipsRepo := relationshiprepo.New(pool)
	sessionsRepo := sessionrepo.New(pool)
	usersRepo := userrepo.New(pool)

	// -----------------------------------------------------------------------
	// 6. Create core services
	// -----------------------------------------------------------------------
	proj := projector.New(eventsRepo, cardStateRepo)

	sel := selector.New(cardsRepo, usersRepo, dailyCountsRepo)

	relSvc := relationship.NewService(
		logger, relationshipsRepo, relationshipsRepo, usersRepo, txm,
		time.Duration(cfg.Invitation.ExpiryDays)*24*time.Hour,
	)

	studySvc := study.NewService(logger, eventsRepo, cardsRepo, proj, usersRepo, dailyCountsRepo)

	sessionSvc := sessionsvc.NewService(logger, sessionsRepo, usersRepo, cfg.Session.Duration)

	userSvc := usersvc.NewService(logger, usersRepo, usersRepo, txm)

	feedSvc := changefeed.NewService(logger, eventsRepo)

	identitySvc := identity.NewService(logger, usersRepo, usersRepo, txm, relSvc, sessionSvc)

	// -----------------------------------------------------------------------
	// 7. Create REST handlers
	// -----------------------------------------------------------------------
	healthHandler := rest.NewHealthHandler(pool, BuildVersion())
	studyHandler := rest.NewStudyHandler(sel, proj, usersRepo, studySvc, logger)
	reviewsHandler := rest.NewReviewsHandler(studySvc, feedSvc, logger)
	cardsHandler := rest.NewCardsHandler(sel, logger)
	relationshipsHandler := rest.NewRelationshipsHandler(relSvc, logger)
	userHandler := rest.NewUserHandler(userSvc, logger)
	identityHandler := rest.NewIdentityHandler(identitySvc, logger)
	adminHandler := rest.NewAdminHandler(proj, usersRepo, cardsRepo, logger)

	// -----------------------------------------------------------------------
	// 8. Assemble middleware chain
	// -----------------------------------------------------------------------
	authed := middleware.Chain(
		middleware.Recovery(logger),
		middleware.RequestID(),
		middleware.Logger(logger),
		middleware.CORS(cfg.CORS),
		middleware.Auth(sessionSvc),
	)

	corsOnly := middleware.Chain(
		middleware.Recovery(logger),
		middleware.RequestID(),
		middleware.Logger(logger),
		middleware.CORS(cfg.CORS),
	)

	var rateLimiter *middleware.RateLimiter
	if cfg.RateLimit.Enabled {
		rateLimiter = middleware.NewRateLimiter(cfg.RateLimit.CleanupInterval)
		defer rateLimiter.Stop()
	}

	signInHandler := corsOnly(http.HandlerFunc(identityHandler.SignIn))
	if rateLimiter != nil {
		signInHandler = middleware.Chain(
			middleware.Recovery(logger),
			middleware.RequestID(),
			middleware.Logger(logger),
			middleware.CORS(cfg.CORS),
			rateLimiter.Limit(cfg.RateLimit.Login),
		)(http.HandlerFunc(identityHandler.SignIn))
	}

	// -----------------------------------------------------------------------
	// 9. Create ServeMux and register routes
	// -----------------------------------------------------------------------
	mux := http.NewServeMux()

	// Health endpoints - outside middleware stack
	mux.HandleFunc("GET /live", healthHandler.Live)
	mux.HandleFunc("GET /ready", healthHandler.Ready)
	mux.HandleFunc("GET /health", healthHandler.Health)

	// Sign-up/sign-in - CORS + rate-limit only (no auth middleware, the
	// caller doesn't have a session yet)
	mux.Handle("POST /auth/sign-in", signInHandler)

	// Study session (spec §6)
	mux.Handle("GET /study/next-card", authed(http.HandlerFunc(studyHandler.NextCard)))
	mux.Handle("POST /study/review", authed(http.HandlerFunc(studyHandler.SubmitReview)))

	// Review events / change feed (spec §6)
	mux.Handle("POST /reviews", authed(http.HandlerFunc(reviewsHandler.UploadBatch)))
	mux.Handle("GET /reviews", authed(http.HandlerFunc(reviewsHandler.ChangeFeed)))
	mux.Handle("GET /cards/{id}/events", authed(http.HandlerFunc(reviewsHandler.CardEvents)))
	mux.Handle("GET /cards/queue-counts", authed(http.HandlerFunc(cardsHandler.QueueCounts)))

	// Relationship graph (spec §6)
	mux.Handle("POST /relationships", authed(http.HandlerFunc(relationshipsHandler.Request)))
	mux.Handle("POST /relationships/{id}/accept", authed(http.HandlerFunc(relationshipsHandler.Accept)))
	mux.Handle("DELETE /relationships/{id}", authed(http.HandlerFunc(relationshipsHandler.Remove)))
	mux.Handle("DELETE /invitations/{id}", authed(http.HandlerFunc(relationshipsHandler.CancelInvitation)))
	mux.Handle("GET /relationships", authed(http.HandlerFunc(relationshipsHandler.List)))

	// User profile/settings
	mux.Handle("GET /me", authed(http.HandlerFunc(userHandler.GetProfile)))
	mux.Handle("PATCH /me", authed(http.HandlerFunc(userHandler.UpdateProfile)))
	mux.Handle("GET /me/settings", authed(http.HandlerFunc(userHandler.GetSettings)))
	mux.Handle("PATCH /me/settings", authed(http.HandlerFunc(userHandler.UpdateSettings)))

	// Admin (supplemented, is_admin-gated per spec §6)
	mux.Handle("POST /admin/cards/{id}/reproject", authed(http.HandlerFunc(adminHandler.Reproject)))

	// CORS preflight for all of the above
	mux.Handle("OPTIONS /{path...}", corsOnly(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	})))

	// -----------------------------------------------------------------------
	// 10. Create and start HTTP server
	// -----------------------------------------------------------------------
	addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)

	srv := &http.Server{
		Addr:         addr,
		Handler:      mux,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	go func() {
		logger.Info("HTTP server started", slog.String("addr", addr))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("HTTP server error", slog.String("error", err.Error()))
		}
	}()

	// -----------------------------------------------------------------------
	// 11. Wait for signal -> graceful shutdown
	// -----------------------------------------------------------------------
	<-ctx.Done()
	logger.Info("shutdown signal received")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("HTTP server shutdown error", slog.String("error", err.Error()))
	}
	logger.Info("HTTP server stopped")

	// pool.Close() called via defer
	logger.Info("shutdown complete")

	return nil
}
