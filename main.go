package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"szz/internal/api"
	"szz/internal/bootstrap"
	"szz/internal/config"
	"szz/internal/logging"

	"go.uber.org/zap"
)

func main() {
	configPath := flag.String("config", "", "config file (default config/config.$SZZ_ENV.json)")
	flag.Parse()

	// Load configuration
	cfg, err := config.LoadOrDefault(*configPath)
	if err != nil {
		log.Fatal("failed to load config:", err)
	}

	// Initialize logger
	logger, err := logging.NewLogger(cfg.LogLevel)
	if err != nil {
		log.Fatal("failed to initialize logger:", err)
	}
	defer logger.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	env, err := bootstrap.Open(ctx, cfg, logger.Logger)
	if err != nil {
		logger.Fatal("failed to initialize linker", zap.Error(err))
	}
	defer env.Close()

	handler := api.NewRouter(api.NewLinkHandler(env.Linker, logger), logger)
	addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)

	logger.Info("serving repository",
		zap.String("repository", cfg.Repository.Path),
		zap.String("environment", cfg.Environment),
	)
	if err := api.Serve(ctx, addr, handler, logger); err != nil {
		logger.Fatal("server failed", zap.Error(err))
	}
}
