package main

import (
	"context"
	"flag"
	"log/slog"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"time"

	pkgconfig "github.com/Vodeneev/slipconv/internal/pkg/config"
	"github.com/Vodeneev/slipconv/internal/pkg/logging"
	"github.com/Vodeneev/slipconv/internal/telegram"
)

func main() {
	var (
		configPath   string
		token        string
		converterURL string
		allowedUsers string
	)
	flag.StringVar(&configPath, "config", os.Getenv("CONFIG_PATH"), "Path to config file (optional)")
	flag.StringVar(&token, "token", "", "Telegram bot token (or TELEGRAM_BOT_TOKEN env var)")
	flag.StringVar(&converterURL, "converter-url", "", "Converter service URL (or CONVERTER_URL env var)")
	flag.StringVar(&allowedUsers, "allowed-users", "", "Comma-separated list of allowed user IDs (optional)")
	flag.Parse()

	cfg := pkgconfig.Default()
	if configPath != "" {
		var err error
		if cfg, err = pkgconfig.Load(configPath); err != nil {
			slog.Error("Failed to load config", "error", err)
			os.Exit(1)
		}
	}

	if token != "" {
		cfg.Telegram.BotToken = token
	}
	if converterURL == "" {
		converterURL = os.Getenv("CONVERTER_URL")
	}
	if converterURL != "" {
		cfg.Telegram.ConverterURL = converterURL
	}
	if allowedUsers != "" {
		cfg.Telegram.AllowedUserIDs = nil
		for _, idStr := range strings.Split(allowedUsers, ",") {
			if id, err := strconv.ParseInt(strings.TrimSpace(idStr), 10, 64); err == nil {
				cfg.Telegram.AllowedUserIDs = append(cfg.Telegram.AllowedUserIDs, id)
			}
		}
	}
	if cfg.Telegram.BotToken == "" {
		slog.Error("Telegram bot token is required. Set -token flag or TELEGRAM_BOT_TOKEN env var")
		os.Exit(1)
	}

	logger, closer, err := logging.SetupLogger(&cfg.Logging, "telegram-bot")
	if err != nil {
		logger = slog.Default()
	} else {
		defer closer.Close()
	}

	logger.Info("Starting Telegram bot...", "converter_url", cfg.Telegram.ConverterURL)

	conv := telegram.NewConverterClient(cfg.Telegram.ConverterURL, cfg.HTTP.RequestTimeout+30*time.Second)
	bot, err := telegram.NewBot(cfg.Telegram, conv, logger)
	if err != nil {
		logger.Error("Failed to create bot", "error", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	bot.Run(ctx)
	logger.Info("Telegram bot stopped")
}
