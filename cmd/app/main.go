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
	"strings"
	"syscall"
	"time"

	"telegram-chat-bridge/internal/config"
	"telegram-chat-bridge/internal/domain/ports/adapter"
	pg "telegram-chat-bridge/internal/infra/db/postgres"
	"telegram-chat-bridge/internal/infra/i18n"
	"telegram-chat-bridge/internal/infra/logging"
	"telegram-chat-bridge/internal/infra/metrics"
	red "telegram-chat-bridge/internal/infra/redis"
	tele "telegram-chat-bridge/internal/infra/telegram"
	"telegram-chat-bridge/internal/infra/web"
	"telegram-chat-bridge/internal/usecase"
)

func main() {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// ---- CLI flags ----
	cfgPath := flag.String("config", "config.yaml", "path to YAML config file")
	devMode := flag.Bool("dev", false, "development mode (console logs, noop bot allowed)")
	flag.Parse()

	cfg, err := config.LoadConfig(*cfgPath, *devMode)
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	logger := logging.New(cfg.Log, cfg.Runtime.Dev)
	if cfg.Runtime.Dev {
		logger.Info().Msg("dev mode enabled")
	}

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
	bindingCache := red.NewBindingCache(redisClient, cfg.Redis.TTL)

	// ---- i18n ----
	translator, err := i18n.NewTranslator(i18n.LocalesFS, cfg.Web.Language)
	if err != nil {
		logger.Fatal().Err(err).Msg("i18n")
	}

	// ---- Metrics ----
	metrics.MustRegister()

	// ---- Repositories ----
	userRepo := pg.NewPostgresUserRepo(pool)
	pairingRepo := pg.NewPostgresPairingRepo(pool)
	messageRepo := pg.NewPostgresMessageRepo(pool)
	txManager := pg.NewTxManager(pool)

	// ---- Use cases ----
	pairingUC := usecase.NewPairingUseCase(pairingRepo, bindingCache, logger)
	accountUC := usecase.NewAccountUseCase(userRepo, pairingUC, txManager, logger)

	// The bot adapter is both the relay gateway and the inbound listener, so
	// it is wired in two steps: gateway first, listener after the relay use
	// case exists.
	var gateway adapter.RelayGateway
	var bot *tele.RealBotAdapter
	if cfg.Runtime.Dev && cfg.Bot.Token == "noop" {
		gateway = tele.NewNoopBotAdapter(logger)
	} else {
		bot, err = tele.NewRealBotAdapter(&cfg.Bot, pairingUC, nil, rateLimiter, translator, cfg.Limits.BindPerMinute, logger)
		if err != nil {
			logger.Fatal().Err(err).Msg("telegram")
		}
		gateway = bot
	}

	relayUC := usecase.NewRelayUseCase(messageRepo, userRepo, pairingUC, gateway, translator, cfg.Relay.Timeout, logger)
	if bot != nil {
		bot.SetRelay(relayUC)
		if strings.ToLower(cfg.Bot.Mode) != "polling" && cfg.Bot.Mode != "" {
			logger.Warn().Str("mode", cfg.Bot.Mode).Msg("bot mode not implemented; falling back to polling")
		}
		go func() {
			if err := bot.StartPolling(ctx); err != nil {
				logger.Error().Err(err).Msg("telegram polling stopped")
			}
		}()
	}

	// ---- HTTP ----
	authManager := web.NewAuthManager(cfg.Web.JWTSecret, cfg.Web.CookieSecure, cfg.Web.SessionTTL)
	srv := web.NewServer(accountUC, pairingUC, relayUC, authManager, rateLimiter, translator, cfg.Limits.LoginPerMinute, logger)
	server := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Web.Port),
		Handler:      srv.Router(),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
	}
	go func() {
		logger.Info().Str("addr", server.Addr).Msg("http listening")
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error().Err(err).Msg("http server error")
		}
	}()

	// ---- Graceful shutdown ----
	sigc := make(chan os.Signal, 1)
	signal.Notify(sigc, syscall.SIGINT, syscall.SIGTERM)
	<-sigc
	logger.Info().Msg("shutdown requested")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("http shutdown")
	}
	if bot != nil {
		bot.StopPolling()
	}
	cancel()
}
