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

	"voicebridge/internal/auth"
	"voicebridge/internal/calls"
	"voicebridge/internal/config"
	"voicebridge/internal/notify"
	"voicebridge/internal/registrar"
	"voicebridge/internal/telephony"
	"voicebridge/pkg/logger"
	"voicebridge/pkg/utils"

	"github.com/gin-gonic/gin"
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

	// Collaborator handles: constructed once, shared read-only by all requests.
	gateway := telephony.NewTwilioGateway(cfg.Twilio.AccountSID, cfg.Twilio.AuthToken)
	voiceAgents := registrar.NewClient(cfg.Retell.APIBaseURL, cfg.Retell.APIKey)
	dispatcher := notify.NewDispatcher(notify.NewNotifier(), log)

	var authManager *auth.Manager
	if cfg.Auth.JWTSecret != "" {
		authManager, err = auth.NewManager(cfg.Auth)
		if err != nil {
			log.Error("auth init failed", "err", err)
			os.Exit(1)
		}
	}

	var limiter *calls.Limiter
	if cfg.Redis.Host != "" && cfg.Redis.MaxConcurrentCalls > 0 {
		rdb, err := utils.OpenRedis(rootCtx, utils.RedisConfig{Addr: cfg.RedisAddr()})
		if err != nil {
			log.Error("redis init failed", "err", err)
			os.Exit(1)
		}
		defer rdb.Close()

		limiter, err = calls.NewLimiter(rdb, cfg.Redis.MaxConcurrentCalls, cfg.Redis.SlotTTL)
		if err != nil {
			log.Error("call limiter init failed", "err", err)
			os.Exit(1)
		}
	}

	// Point the configured inbound number at the voice webhook. Best effort:
	// the API still serves outbound calls if registration fails.
	if cfg.Twilio.FromNumber != "" {
		voiceURL := cfg.VoiceWebhookURL(cfg.Retell.AgentID)
		if err := gateway.RegisterInboundAgent(rootCtx, cfg.Twilio.FromNumber, voiceURL); err != nil {
			log.Error("inbound number registration failed", "number", cfg.Twilio.FromNumber, "err", err)
		} else {
			log.Info("inbound number registered", "number", cfg.Twilio.FromNumber, "voice_url", voiceURL)
		}
	}

	// Gin router
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(logger.Middleware(log))

	registerRoutes(r, dependencies{
		cfg:        cfg,
		gateway:    gateway,
		registrar:  voiceAgents,
		dispatcher: dispatcher,
		limiter:    limiter,
		auth:       authManager,
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
		log.Info("api listening", "addr", srv.Addr, "env", cfg.App.Env)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("http server failed", "err", err)
			stop()
		}
	}()

	<-rootCtx.Done()
	// Detached CRM notifications are intentionally abandoned here.
	log.Info("shutdown initiated")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 20*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("http shutdown failed", "err", err)
	}
}
