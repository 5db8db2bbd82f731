// Package main содержит точку входа HTTP-сервиса подписок.
package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/magabrotheeeer/filmland/internal/app/filmland"
	"github.com/magabrotheeeer/filmland/internal/config"
)

func main() {
	cfg := config.MustLoad()
	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelDebug}))

	logger.Info("starting filmland", slog.String("env", cfg.Env))

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	app, err := filmland.New(ctx, cfg, logger)
	if err != nil {
		logger.Error("failed to initialize filmland app", slog.Any("err", err))
		os.Exit(1)
	}

	if err := app.Run(ctx); err != nil {
		logger.Error("filmland app stopped with error", slog.Any("err", err))
		os.Exit(1)
	}

	logger.Info("filmland app stopped gracefully")
}
