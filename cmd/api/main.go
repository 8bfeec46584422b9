package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/quick-orders/internal/application/account"
	"github.com/quick-orders/internal/application/passcode"
	"github.com/quick-orders/internal/application/shop"
	"github.com/quick-orders/internal/application/sso"
	"github.com/quick-orders/internal/config"
	"github.com/quick-orders/internal/infrastructure/dynamo"
	jwtinfra "github.com/quick-orders/internal/infrastructure/jwt"
	"github.com/quick-orders/internal/infrastructure/memory"
	"github.com/quick-orders/internal/infrastructure/metrics"
	redisinfra "github.com/quick-orders/internal/infrastructure/redis"
	"github.com/quick-orders/internal/infrastructure/shopify"
	"github.com/quick-orders/internal/infrastructure/smtp"
	"github.com/quick-orders/internal/pkg/logging"
	transporthttp "github.com/quick-orders/internal/transport/http"
)

func main() {
	envErr := godotenv.Load()

	cfg := config.Load()
	logging.Setup(os.Stdout, cfg.LogLevel, cfg.LogFormat)
	if envErr != nil {
		slog.Info("no .env file found, reading from environment")
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg); err != nil {
		slog.Error("server failed", "err", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg *config.Config) error {
	m := metrics.New()

	store, err := newPasscodeStore(ctx, cfg)
	if err != nil {
		return err
	}

	passcodes := passcode.NewService(passcode.ServiceDeps{
		Store:    store,
		Sender:   smtp.NewMailer(cfg),
		Observer: m,
		TTL:      cfg.PasscodeTTL,
	})

	// Sessions are optional: without key files the session routes answer 503.
	var sessions transporthttp.SessionProvider
	if p, err := jwtinfra.NewProvider(cfg); err == nil {
		sessions = p
	} else {
		slog.Warn("JWT provider not available, sessions disabled", "err", err)
	}

	client := shopify.NewClient(cfg, m)
	var directory account.CustomerDirectory
	if cfg.ShopAccessToken != "" {
		directory = client
	} else {
		slog.Warn("SHOPIFY_PASSWORD not set, verification returns bare identities")
	}
	if cfg.MultipassSecret == "" {
		slog.Warn("SHOPIFY_MULTIPASS_SECRET not set, sso tokens will fail")
	}

	deps := &transporthttp.Deps{
		Passcodes: passcodes,
		Accounts: account.NewService(account.ServiceDeps{
			Passcodes: passcodes,
			Directory: directory,
			Sessions:  sessions,
		}),
		Shop:     shop.NewService(client, cfg.PlaceholderImage),
		ShopAuth: client,
		SSO:      sso.NewBuilder(cfg.MultipassSecret, cfg.ShopDomain()),
		Sessions: sessions,
		Metrics:  m.Handler(),
	}

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%s", cfg.AppPort),
		Handler:      transporthttp.NewRouter(ctx, cfg, deps),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		slog.Info("server starting", "port", cfg.AppPort, "env", cfg.AppEnv, "passcode_store", cfg.PasscodeStore)
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

	slog.Info("shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("forced shutdown: %w", err)
	}
	slog.Info("server stopped")
	return nil
}

func newPasscodeStore(ctx context.Context, cfg *config.Config) (passcode.Store, error) {
	switch cfg.PasscodeStore {
	case "memory", "":
		s := memory.NewPasscodeStore()
		if cfg.SweepInterval > 0 {
			go s.RunSweeper(ctx, cfg.SweepInterval, cfg.PasscodeTTL)
		}
		return s, nil
	case "redis":
		client, err := redisinfra.NewClient(cfg)
		if err != nil {
			return nil, err
		}
		return redisinfra.NewPasscodeStore(client, cfg.RedisKeyPrefix, cfg.PasscodeTTL), nil
	case "dynamodb":
		client, err := dynamo.NewClient(ctx, cfg)
		if err != nil {
			return nil, err
		}
		dynamo.Bootstrap(ctx, client, cfg.DynamoPasscodeTable)
		return dynamo.NewPasscodeRepo(client, cfg.DynamoPasscodeTable), nil
	}
	return nil, fmt.Errorf("unknown PASSCODE_STORE %q", cfg.PasscodeStore)
}
