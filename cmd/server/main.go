// Package main provides the harmonize HTTP server.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"go.ngs.io/harmonize/internal/config"
	httpHandler "go.ngs.io/harmonize/internal/http"
	"go.ngs.io/harmonize/internal/observability"
	"go.ngs.io/harmonize/internal/usecase"
)

const version = "0.1.0"

func main() {
	// Parse command-line flags.
	showHelp := flag.Bool("help", false, "Show usage information")
	showVersion := flag.Bool("version", false, "Show version information")
	configFile := flag.String("config", "", "Path to a config file (default: ./config.yaml or ./configs/config.yaml if present)")
	flag.Parse()

	if *showHelp {
		printUsage()
		return
	}

	if *showVersion {
		fmt.Printf("harmonize-server version %s\n", version)
		return
	}

	cfg, err := config.Load(*configFile)
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	logger, err := observability.NewLogger("server", cfg.Log.Level)
	if err != nil {
		log.Fatalf("Failed to create logger: %v", err)
	}
	defer func() { _ = logger.Sync() }()

	regridUC, err := usecase.NewRegridUseCaseFromConfig(cfg.Regrid, logger)
	if err != nil {
		logger.Fatal("invalid regrid configuration", zap.Error(err))
	}

	router := httpHandler.SetupRouter(regridUC, cfg.Server, logger)

	addr := fmt.Sprintf(":%d", cfg.Server.Port)
	srv := &http.Server{
		Addr:              addr,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		logger.Info("server starting",
			zap.String("addr", addr),
			zap.String("version", version),
			zap.String("default_method", regridUC.DefaultMethod()),
			zap.Bool("conservative_enabled", cfg.Regrid.ConservativeEnabled),
			zap.Float64("regrid_rate_limit", cfg.Server.RegridRateLimit),
		)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("server", zap.Error(err))
		}
	}()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	<-ctx.Done()
	stop()

	logger.Info("graceful shutdown triggered")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("server shutdown", zap.Error(err))
	}
}

// printUsage prints usage information.
func printUsage() {
	fmt.Printf("Harmonize Server v%s\n\n", version)
	fmt.Println("USAGE:")
	fmt.Println("  harmonize-server [flags]")
	fmt.Println()
	fmt.Println("FLAGS:")
	fmt.Println("  -help          Show this help message")
	fmt.Println("  -version       Show version information")
	fmt.Println("  -config PATH   Config file (YAML)")
	fmt.Println()
	fmt.Println("ENVIRONMENT VARIABLES (override the config file):")
	fmt.Println("  HARMONIZE_SERVER_PORT                   Server port (default: 8080)")
	fmt.Println("  HARMONIZE_SERVER_CORS_ALLOWED_ORIGINS   Comma-separated list of allowed origins (default: all origins)")
	fmt.Println("  HARMONIZE_SERVER_REGRID_RATE_LIMIT      POST /v1/regrid requests per second (default: 0, unlimited)")
	fmt.Println("  HARMONIZE_LOG_LEVEL                     debug, info, warn or error (default: info)")
	fmt.Println("  HARMONIZE_REGRID_METHOD                 Default method: adaptive, conservative (default: adaptive)")
	fmt.Println("  HARMONIZE_REGRID_CONSERVATIVE_ENABLED   Enable the conservative backend (default: false)")
	fmt.Println("  HARMONIZE_REGRID_MAX_TARGET_CELLS       Largest lat x lon grid a request may build (default: 25000000)")
	fmt.Println()
	fmt.Println("API ENDPOINTS:")
	fmt.Println("  GET  /health       Health check")
	fmt.Println("  GET  /metrics      Prometheus metrics")
	fmt.Println("  GET  /v1/methods   List regridding methods")
	fmt.Println("  POST /v1/regrid    Regrid a JSON grid")
	fmt.Println()
}
