package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/cors"

	"github.com/movieflix/backend/internal/accounts"
	"github.com/movieflix/backend/internal/config"
	"github.com/movieflix/backend/internal/history"
	"github.com/movieflix/backend/internal/identity"
	"github.com/movieflix/backend/internal/mylist"
	"github.com/movieflix/backend/internal/plans"
	"github.com/movieflix/backend/internal/profiles"
	"github.com/movieflix/backend/internal/testimonials"
)

func main() {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))
	slog.SetDefault(logger)

	cfg, err := config.Load()
	if err != nil {
		slog.Error("Invalid configuration", "error", err)
		os.Exit(1)
	}

	ctx := context.Background()
	pool, err := pgxpool.New(ctx, cfg.DatabaseURL)
	if err != nil {
		slog.Error("Unable to create database pool", "error", err)
		os.Exit(1)
	}
	defer pool.Close()

	if err := pool.Ping(ctx); err != nil {
		slog.Error("Cannot reach PostgreSQL (connection refused or invalid). Ensure Postgres is running, e.g. docker-compose up -d", "error", err)
		os.Exit(1)
	}
	slog.Info("Connected to PostgreSQL database successfully!")

	var verifier identity.Verifier
	if cfg.OIDCIssuer != "" {
		verifier, err = identity.NewOIDCVerifier(ctx, cfg.OIDCIssuer, cfg.OIDCClientID)
		if err != nil {
			slog.Error("OIDC provider discovery failed", "issuer", cfg.OIDCIssuer, "error", err)
			os.Exit(1)
		}
		slog.Info("Token verification via OIDC", "issuer", cfg.OIDCIssuer)
	} else {
		verifier = identity.NewStaticVerifier(cfg.AuthSecret)
		slog.Warn("Token verification via static secret; do not use in production")
	}

	admins := accounts.NewAdminList(cfg.AdminEmails)

	accountsRepo := accounts.NewRepository(pool)
	accountsSvc := accounts.NewService(accountsRepo, admins, nil)

	profilesRepo := profiles.NewRepository(pool)
	profilesSvc := profiles.NewService(profilesRepo)

	plansRepo := plans.NewRepository(pool)
	plansSvc := plans.NewService(plansRepo, logger)
	if err := plansSvc.Seed(ctx); err != nil {
		slog.Error("Plan seeding failed", "error", err)
		os.Exit(1)
	}

	testimonialsSvc := testimonials.NewService(testimonials.NewRepository(pool))
	historySvc := history.NewService(history.NewRepository(pool))
	myListSvc := mylist.NewService(mylist.NewRepository(pool))

	mux := newRouter(routerDeps{
		verifier:     verifier,
		accounts:     accountsSvc,
		profiles:     profilesSvc,
		plans:        plansSvc,
		testimonials: testimonialsSvc,
		history:      historySvc,
		mylist:       myListSvc,
		logger:       logger,
	})

	corsHandler := cors.New(cors.Options{
		AllowedOrigins:   cfg.CORSOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: true,
	}).Handler(mux)

	srv := &http.Server{
		Addr:              "0.0.0.0:" + cfg.Port,
		Handler:           corsHandler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		slog.Info("Starting HTTP server", "addr", srv.Addr, "env", cfg.Env)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("HTTP server failed", "error", err)
			os.Exit(1)
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	<-stop

	slog.Info("Shutting down")
	shutdownCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		slog.Error("Graceful shutdown failed", "error", err)
	}
}
