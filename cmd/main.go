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
	"github.com/shopspring/decimal"

	"github.com/tinoosan/accountrix/internal/accounts"
	"github.com/tinoosan/accountrix/internal/config"
	httpapi "github.com/tinoosan/accountrix/internal/httpapi/v1"
	"github.com/tinoosan/accountrix/internal/service/account"
	"github.com/tinoosan/accountrix/internal/storage/jsonfile"
	"github.com/tinoosan/accountrix/internal/storage/memory"
	pgstore "github.com/tinoosan/accountrix/internal/storage/postgres"
)

// backend is what main needs from a store: the account contract plus readiness.
type backend interface {
	account.Store
	httpapi.ReadyChecker
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	envErr := godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		slog.Error("invalid configuration", "err", err)
		os.Exit(1)
	}

	logger := buildLogger(cfg)
	slog.SetDefault(logger)
	if envErr != nil {
		logger.Debug("no .env file loaded", "err", envErr)
	}

	var store backend
	var closeFn func()

	switch {
	case cfg.DatabaseURL != "":
		pg, err := pgstore.Open(ctx, cfg.DatabaseURL, pgstore.WithLogger(logger))
		if err != nil {
			logger.Error("failed to connect to postgres", "err", err)
			os.Exit(1)
		}
		closeFn = pg.Close
		store = pg
		logger.Info("storage backend: postgres")
	case cfg.StorageBackend == "memory":
		store = memory.New(memory.WithLogger(logger))
		logger.Info("storage backend: memory")
	default:
		fs, err := jsonfile.Open(cfg.AccountsFile, jsonfile.WithLogger(logger))
		if err != nil {
			logger.Error("failed to open accounts file", "path", cfg.AccountsFile, "err", err)
			os.Exit(1)
		}
		store = fs
		logger.Info("storage backend: file", "path", fs.Path())
	}

	svc := account.New(store, logger)

	if cfg.DevSeed {
		seeded, err := svc.EnsureSeed(ctx, devSeed())
		switch {
		case err != nil:
			logger.Error("dev seed failed", "err", err)
		case len(seeded) > 0:
			logDevSeed(logger, seeded)
			printDevSeedBanner(seeded)
		default:
			logger.Info("dev seed skipped; store is not empty")
		}
	}

	srv := &http.Server{
		Addr:              cfg.HTTPAddress(),
		Handler:           httpapi.New(svc, store, logger).Handler(),
		ReadTimeout:       5 * time.Second,
		ReadHeaderTimeout: 5 * time.Second,
		WriteTimeout:      10 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("accounts service listening", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case <-ctx.Done():
		ctxShutdown, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(ctxShutdown); err != nil {
			logger.Error("server shutdown error", "err", err)
		}
	case err := <-errCh:
		logger.Error("server error", "err", err)
	}
	if closeFn != nil {
		closeFn()
	}
}

func devSeed() []accounts.Account {
	return []accounts.Account{
		{Username: "DogPool", Balance: decimal.NewFromInt(42)},
		{Username: "Knuckles", Balance: decimal.Zero},
	}
}

// logDevSeed emits structured logs with useful IDs
func logDevSeed(l *slog.Logger, accs []accounts.Account) {
	ids := make(map[string]string, len(accs))
	for _, a := range accs {
		ids[a.Username] = a.ID.String()
	}
	l.Info("DEV seed", "ids", ids)
}

// printDevSeedBanner prints a simple banner to stdout for easy copy/paste of IDs
func printDevSeedBanner(accs []accounts.Account) {
	fmt.Println("==================== DEV SEED ====================")
	for _, a := range accs {
		fmt.Printf("%s: %s (balance %s)\n", a.Username, a.ID.String(), a.Balance.String())
	}
	fmt.Println("==================================================")
}

func buildLogger(cfg config.Config) *slog.Logger {
	opts := &slog.HandlerOptions{Level: cfg.LogLevel}
	if cfg.LogFormat == "text" {
		return slog.New(slog.NewTextHandler(os.Stdout, opts))
	}
	return slog.New(slog.NewJSONHandler(os.Stdout, opts))
}
