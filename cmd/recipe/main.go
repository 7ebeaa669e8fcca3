// Package main runs a recipe against the ingested datasets of the working directory.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/zap"

	"go.ngs.io/harmonize/internal/config"
	"go.ngs.io/harmonize/internal/observability"
	"go.ngs.io/harmonize/internal/recipe"
	"go.ngs.io/harmonize/internal/usecase"
)

func main() {
	userConfig := flag.String("user-config", "", "User config with working_directory (default: ~/.config/harmonize/harmonize_config.yml)")
	configFile := flag.String("config", "", "Path to a service config file")
	flag.Parse()

	if flag.NArg() != 1 {
		fmt.Fprintln(os.Stderr, "Usage: recipe [flags] RECIPE.yml")
		flag.PrintDefaults()
		os.Exit(2)
	}

	cfg, err := config.Load(*configFile)
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}
	logger, err := observability.NewLogger("recipe", cfg.Log.Level)
	if err != nil {
		log.Fatalf("Failed to create logger: %v", err)
	}
	defer func() { _ = logger.Sync() }()

	rc, err := recipe.Load(flag.Arg(0))
	if err != nil {
		logger.Fatal("failed to load recipe", zap.Error(err))
	}

	path := *userConfig
	if path == "" {
		if path, err = recipe.DefaultConfigPath(); err != nil {
			logger.Fatal("failed to locate user config", zap.Error(err))
		}
	}
	uc, err := recipe.LoadConfig(path)
	switch {
	case err == nil:
	case *userConfig == "" && errors.Is(err, os.ErrNotExist):
		logger.Info("no user config found, using work.directory", zap.String("work_directory", cfg.Work.Directory))
		uc = &recipe.UserConfig{WorkingDirectory: cfg.Work.Directory}
	default:
		logger.Fatal("failed to load user config", zap.Error(err))
	}

	regridUC, err := usecase.NewRegridUseCaseFromConfig(cfg.Regrid, logger)
	if err != nil {
		logger.Fatal("invalid regrid configuration", zap.Error(err))
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	runner := recipe.NewRunner(uc, regridUC, cfg.Regrid.ChunkSize, logger)
	written, err := runner.Run(ctx, rc)
	if err != nil {
		logger.Fatal("recipe failed", zap.Error(err))
	}
	for _, p := range written {
		fmt.Println(p)
	}
}
