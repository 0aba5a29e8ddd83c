package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"golang.org/x/sync/errgroup"

	"telegram-movie-bot/internal/bot"
	"telegram-movie-bot/internal/config"
	"telegram-movie-bot/internal/handler"
	"telegram-movie-bot/internal/health"
	"telegram-movie-bot/internal/logging"
	"telegram-movie-bot/internal/storage"
)

func main() {
	logging.Init()

	if err := godotenv.Load(); err != nil {
		logging.Log.Debug().Msg(".env file not found, relying on environment")
	}

	cfg, err := config.Load()
	if err != nil {
		logging.Log.Fatal().Err(err).Msg("invalid configuration")
	}

	store, err := storage.Open(cfg.DBPath)
	if err != nil {
		logging.Log.Fatal().Err(err).Str("path", cfg.DBPath).Msg("storage init failed")
	}
	defer store.Close()

	h := handler.New(cfg, store)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// The polling loop and the liveness endpoint run as two independent
	// tasks sharing only process lifetime.
	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error { return bot.Run(ctx, cfg.Token, h) })
	g.Go(func() error { return health.Run(ctx, cfg.HealthPort) })

	if err := g.Wait(); err != nil {
		logging.Log.Fatal().Err(err).Msg("bot stopped")
	}
	logging.Log.Info().Msg("shutdown complete")
}
