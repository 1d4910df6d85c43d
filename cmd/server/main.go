package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/peopledesk/hrms/internal/server"
	"github.com/peopledesk/hrms/internal/server/auth"
	"github.com/peopledesk/hrms/internal/server/config"
	"github.com/peopledesk/hrms/internal/server/docstore"
	"github.com/peopledesk/hrms/internal/server/googleid"
	"github.com/peopledesk/hrms/internal/server/storage/sqlite"
	"github.com/peopledesk/hrms/internal/server/token"
)

var (
	// Version information set via ldflags during build
	Version   = "dev"
	BuildDate = "unknown"
	GitCommit = "unknown"
)

const shutdownTimeout = 10 * time.Second

func main() {
	showVersion := flag.Bool("version", false, "Show version information")
	configPath := flag.String("config", "", "Path to config file (empty = environment only)")
	flag.Parse()

	if *showVersion {
		printVersion()
		os.Exit(0)
	}

	cfg := config.MustLoad(*configPath)
	logger := setupLogger(cfg.Env)

	if err := run(cfg, logger); err != nil {
		logger.Error("server failed", slog.Any("error", err))
		os.Exit(1)
	}
}

func run(cfg *config.Config, logger *slog.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	store, err := sqlite.New(ctx, cfg.Storage.Path)
	if err != nil {
		return fmt.Errorf("failed to open storage: %w", err)
	}
	defer func() { _ = store.Close() }()

	codec, err := token.New(cfg.Auth.JWTSecret, cfg.Auth.JWTAlgorithm,
		cfg.Auth.AccessTokenTTL, cfg.Auth.RefreshTokenTTL)
	if err != nil {
		return fmt.Errorf("failed to create token codec: %w", err)
	}

	verifier := googleid.New(cfg.Auth.GoogleClientID)
	authSvc := auth.NewService(logger, store, codec, verifier)

	blobs, err := docstore.New(ctx, cfg.S3)
	if err != nil {
		return fmt.Errorf("failed to create document store: %w", err)
	}

	logger.Info("starting HRMS server",
		slog.String("version", Version),
		slog.String("env", cfg.Env),
		slog.String("db", cfg.Storage.Path))

	srv := server.New(logger, cfg, authSvc, store, blobs, Version)

	return srv.Run(ctx, shutdownTimeout)
}

// setupLogger настраивает slog в зависимости от окружения:
// локально — текст с debug, в остальных — JSON
func setupLogger(env string) *slog.Logger {
	var handler slog.Handler
	if env == "local" {
		handler = slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelDebug})
	} else {
		handler = slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo})
	}
	return slog.New(handler)
}

func printVersion() {
	fmt.Printf("HRMS Server\n")
	fmt.Printf("Version:    %s\n", Version)
	fmt.Printf("Build Date: %s\n", BuildDate)
	fmt.Printf("Git Commit: %s\n", GitCommit)
}
