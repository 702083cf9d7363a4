package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/sethvargo/go-retry"

	"github.com/DevFlex-AI/idea-ai-engine/internal/app/migrate"
	"github.com/DevFlex-AI/idea-ai-engine/internal/genai"
	httpx "github.com/DevFlex-AI/idea-ai-engine/internal/http"
	"github.com/DevFlex-AI/idea-ai-engine/internal/repository/postgres"
	"github.com/DevFlex-AI/idea-ai-engine/internal/service/auth"
	"github.com/DevFlex-AI/idea-ai-engine/internal/service/gateway"
	"github.com/DevFlex-AI/idea-ai-engine/internal/service/sandbox"
	"github.com/DevFlex-AI/idea-ai-engine/internal/ws"
	"github.com/DevFlex-AI/idea-ai-engine/pkg/config"
	"github.com/DevFlex-AI/idea-ai-engine/pkg/logger"
)

func main() {
	cfg := config.LoadServiceConfig()
	log := logger.New("vortex", config.GetString("LOG_LEVEL", "info"))

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	pool, err := pgxpool.New(ctx, cfg.DatabaseURL)
	if err != nil {
		log.Error("failed to connect to database", "error", err)
		os.Exit(1)
	}

	// The database container may still be warming up when the service
	// starts, so the first ping is retried with backoff.
	backoff := retry.WithMaxRetries(5, retry.NewExponential(500*time.Millisecond))
	if err := retry.Do(ctx, backoff, func(ctx context.Context) error {
		pingCtx, cancel := context.WithTimeout(ctx, 2*time.Second)
		defer cancel()
		if err := pool.Ping(pingCtx); err != nil {
			log.Warn("database not ready", "error", err)
			return retry.RetryableError(err)
		}
		return nil
	}); err != nil {
		log.Error("database unreachable", "error", err)
		os.Exit(1)
	}

	runner, err := migrate.New(pool, cfg.DatabaseURL, cfg.MigrationsDir, log)
	if err != nil {
		log.Error("failed to configure migrations", "error", err)
		os.Exit(1)
	}
	defer runner.Close()
	if err := runner.Ensure(ctx); err != nil {
		log.Error("migrations failed", "error", err)
		os.Exit(1)
	}

	repo := postgres.New(pool)
	hub := ws.NewHub()

	authSvc := auth.New(repo, repo, log, cfg)
	geminiClient := genai.NewGeminiClient(cfg.GeminiBaseURL, cfg.GeminiAPIKey, cfg.GeminiModel, cfg.GeminiTimeout)
	gatewaySvc := gateway.New(repo, repo, repo, geminiClient, log)

	controller := sandbox.NewController(sandbox.DefaultEnvironments(), hub, repo, repo, log, sandbox.Config{
		Domain:     cfg.SandboxDomain,
		StepDelay:  cfg.SandboxStepDelay,
		ReadyDelay: cfg.SandboxReadyDelay,
		SessionKey: cfg.SessionKey,
	})
	defer controller.Close()

	limiter := httpx.NewMemoryRateLimiter()
	if addr := strings.TrimSpace(cfg.RateLimitRedisAddr); addr != "" {
		redisLimiter, err := httpx.NewRedisRateLimiter(addr, cfg.RateLimitRedisPass, cfg.RateLimitRedisDB, log)
		if err != nil {
			log.Warn("redis rate limiter unavailable", "error", err)
		} else {
			limiter = redisLimiter
		}
	}

	router := httpx.NewRouter(log, authSvc, gatewaySvc, controller, hub, limiter, pool.Ping)
	defer router.Close()

	srv := &http.Server{
		Addr:              cfg.Addr,
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
	}

	errorCh := make(chan error, 1)
	go func() {
		log.Info("vortex server starting", "addr", cfg.Addr)
		errorCh <- srv.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			log.Error("graceful shutdown failed", "error", err)
		}
		log.Info("vortex server stopped")
	case err := <-errorCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("server error", "error", err)
			os.Exit(1)
		}
	}
}
