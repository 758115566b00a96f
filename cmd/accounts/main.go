package main

import (
	"errors"
	"log/slog"
	"net/http"
	"os"

	"accounts/internal/adapter/brevo"
	adapthttp "accounts/internal/adapter/http"
	"accounts/internal/adapter/memory"
	"accounts/internal/adapter/postgres"
	"accounts/internal/app"
	"accounts/internal/config"
	"accounts/internal/domain"
)

func main() {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))

	cfg, err := config.Load()
	if err != nil {
		logger.Error("config", "err", err)
		os.Exit(1)
	}

	var identities domain.IdentityRepository
	if cfg.DatabaseURL != "" {
		db, err := postgres.Open(cfg.DatabaseURL)
		if err != nil {
			logger.Error("db open", "err", err)
			os.Exit(1)
		}
		defer func() { _ = db.Close() }()
		identities = db
	} else {
		logger.Warn("DATABASE_URL not set, using in-memory store")
		identities = memory.New()
	}

	hasher := app.NewHasher(cfg.BcryptCost)
	tokens := app.NewTokenService([]byte(cfg.JWTSecret))
	notifier := brevo.New(cfg.BrevoAPIKey, cfg.BrevoSender, cfg.BrevoBaseURL)

	authSvc := app.NewAuthService(identities, hasher, tokens, cfg.UserSessionTTL(), cfg.AdminTTL())
	recoverySvc := app.NewRecoveryService(identities, notifier, hasher, tokens, cfg.RecoveryTTL())
	cookies := adapthttp.NewCookieManager(cfg.CookieSecure())

	h := adapthttp.New(authSvc, recoverySvc, tokens, cookies, logger).Handler()
	logger.Info("listening", "addr", cfg.Addr)
	if err := http.ListenAndServe(cfg.Addr, h); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Error("server", "err", err)
		os.Exit(1)
	}
}
