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

	"voice-gateway/internal/audit"
	"voice-gateway/internal/auth"
	"voice-gateway/internal/calls"
	"voice-gateway/internal/config"
	"voice-gateway/internal/reporting"
	"voice-gateway/internal/telephony"
	"voice-gateway/pkg/logger"
	"voice-gateway/pkg/utils"

	"github.com/gin-gonic/gin"
	_ "github.com/jackc/pgx/v5/stdlib"
)

func main() {
	// Root context that cancels on shutdown
	rootCtx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load()
	if err != nil {
		slog.Error("config load failed", "err", err)
		os.Exit(1)
	}

	log := logger.New(cfg.App.Env)
	slog.SetDefault(log)

	if cfg.App.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	authManager, err := auth.NewManager(cfg.Auth)
	if err != nil {
		log.Error("auth init failed", "err", err)
		os.Exit(1)
	}

	// Credential absence is the only condition that prevents the provider
	// from being constructed at all.
	provider, err := telephony.NewAliyunProvider(telephony.AliyunConfig{
		AccessKeyID:       cfg.Voice.AccessKeyID,
		AccessKeySecret:   cfg.Voice.AccessKeySecret,
		RegionID:          cfg.Voice.Region,
		Endpoint:          cfg.Voice.Endpoint,
		PublicURL:         cfg.Voice.PublicURL,
		SessionTimeout:    cfg.Voice.SessionTimeout,
		SkipWebhookVerify: cfg.Voice.SkipWebhookVerify,
	}, log)
	if err != nil {
		log.Error("telephony provider init failed", "err", err)
		os.Exit(1)
	}

	db, err := utils.OpenPostgres(rootCtx, "pgx", cfg.PostgresDSN(), utils.PostgresPoolConfig{})
	if err != nil {
		log.Error("postgres init failed", "err", err)
		os.Exit(1)
	}
	defer db.Close()

	rdb, err := utils.OpenRedis(rootCtx, utils.RedisConfig{Addr: cfg.RedisAddr()})
	if err != nil {
		log.Error("redis init failed", "err", err)
		os.Exit(1)
	}
	defer rdb.Close()

	auditSvc := audit.NewService(audit.NewMemoryRepo())

	callsRepo := calls.NewPostgresRepo(db)

	callsSvc, err := calls.NewService(calls.ServiceConfig{
		Provider:           provider,
		Repo:               callsRepo,
		Redis:              rdb,
		MaxConcurrentCalls: cfg.Voice.MaxConcurrentCalls,
		Audit:              auditSvc,
	})
	if err != nil {
		log.Error("calls service init failed", "err", err)
		os.Exit(1)
	}

	// Gin router
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(logger.Middleware(log))

	reportingSvc := reporting.NewService(callsRepo)

	registerRoutes(r, routeDeps{
		Auth:      authManager,
		Provider:  provider,
		Calls:     callsSvc,
		Audit:     auditSvc,
		Reporting: reportingSvc,
	})

	srv := &http.Server{
		Addr:              cfg.HTTPAddr(),
		Handler:           r,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	go func() {
		log.Info("api listening", "addr", srv.Addr, "env", cfg.App.Env, "provider", provider.Name())
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("http server failed", "err", err)
			stop()
		}
	}()

	<-rootCtx.Done()
	log.Info("shutdown initiated")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 20*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("http shutdown failed", "err", err)
	}

	_ = logger.ShutdownFlush(shutdownCtx, 2*time.Second)
}
