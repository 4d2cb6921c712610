package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/Vodeneev/slipconv/internal/api"
	"github.com/Vodeneev/slipconv/internal/converter"
	pkgconfig "github.com/Vodeneev/slipconv/internal/pkg/config"
	"github.com/Vodeneev/slipconv/internal/pkg/logging"
	"github.com/Vodeneev/slipconv/internal/pkg/metrics"
)

const (
	defaultConfigPath = "configs/converter.yaml"
	serviceName       = "converter-service"
)

func main() {
	if err := run(); err != nil {
		slog.Error("Converter service failed", "error", err)
		os.Exit(1)
	}
}

func run() error {
	slog.Info("Starting converter service...")

	configPath := parseFlags()
	slog.Info("Loading config", "path", configPath)
	appConfig, err := pkgconfig.Load(configPath)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	logger, closer, err := logging.SetupLogger(&appConfig.Logging, serviceName)
	if err != nil {
		slog.Warn("Failed to setup logging, continuing with default logger", "error", err)
		logger = slog.Default()
	} else {
		defer closer.Close()
		slog.Info("Logging initialized", "service", serviceName, "level", appConfig.Logging.Level)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	setupSignalHandler(ctx, cancel)

	rec := metrics.NewRecorder()
	svc, err := converter.NewFromConfig(ctx, appConfig, rec, logger)
	if err != nil {
		return err
	}

	defer svc.Timings().LogSummary(logger)

	router := api.NewRouter(svc, appConfig.HTTP, rec)
	return api.Run(ctx, api.AddrFor(appConfig.HTTP.Port), serviceName, router, appConfig.HTTP.ReadHeaderTimeout)
}

func parseFlags() string {
	var configPath string
	defaultConfig := os.Getenv("CONFIG_PATH")
	if defaultConfig == "" {
		defaultConfig = defaultConfigPath
	}
	flag.StringVar(&configPath, "config", defaultConfig, "Path to config file")
	flag.Parse()
	return configPath
}

func setupSignalHandler(ctx context.Context, cancel context.CancelFunc) {
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		select {
		case sig := <-sigChan:
			slog.Info("Received shutdown signal", "signal", sig.String())
			cancel()
		case <-ctx.Done():
			signal.Stop(sigChan)
		}
	}()
}
