package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/xaenox/channel-bot/internal/advisor"
	"github.com/xaenox/channel-bot/internal/bot"
	"github.com/xaenox/channel-bot/internal/inference"
	"github.com/xaenox/channel-bot/pkg/config"
	"go.uber.org/zap"
)

func main() {
	// Initialize logger
	logger, _ := zap.NewProduction()
	defer logger.Sync()

	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		logger.Warn("Failed to load .env file", zap.Error(err))
	}

	// Load configuration
	cfg, err := config.LoadConfig("config.yaml")
	if errors.Is(err, config.ErrMissingToken) {
		logger.Fatal("DISCORD_TOKEN is not set; add it to the environment or a .env file")
	}
	if err != nil {
		logger.Fatal("Failed to load config", zap.Error(err), zap.String("path", "config.yaml"))
	}

	generator, err := inference.New(cfg, logger)
	if err != nil {
		logger.Fatal("Failed to create inference client", zap.Error(err))
	}

	b, err := bot.New(cfg.Discord.Token, cfg.Bot.Prefix, advisor.New(generator, logger), logger)
	if err != nil {
		logger.Fatal("Failed to create bot", zap.Error(err))
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	logger.Info("Starting channel bot",
		zap.String("provider", cfg.Inference.Provider),
		zap.String("ollama_url", cfg.Ollama.BaseURL),
		zap.String("model", cfg.Ollama.Model))

	if err := b.Start(ctx); err != nil {
		logger.Fatal("Bot error", zap.Error(err))
	}
}
