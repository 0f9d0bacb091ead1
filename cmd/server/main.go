package main

import (
	"context"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"github.com/raaihank/pii-scanner/internal/api"
	"github.com/raaihank/pii-scanner/internal/app"
	"github.com/raaihank/pii-scanner/internal/config"
	"github.com/raaihank/pii-scanner/internal/logger"
	"github.com/raaihank/pii-scanner/internal/metrics"
	"github.com/raaihank/pii-scanner/internal/websocket"
)

var (
	version = "0.1.0"
	commit  = "dev"
	date    = "unknown"
)

func main() {
	// Parse command line flags
	var (
		configPath  = flag.String("config", "", "Path to configuration file")
		envFile     = flag.String("env-file", ".env", "Optional dotenv file loaded before configuration")
		showVersion = flag.Bool("version", false, "Show version information")
		healthCheck = flag.String("health-check", "", "Check the health endpoint at this base URL and exit")
	)
	flag.Parse()

	if *showVersion {
		fmt.Printf("pii-scanner %s (commit: %s, built: %s)\n", version, commit, date)
		os.Exit(0)
	}

	if *healthCheck != "" {
		performHealthCheck(*healthCheck)
		return
	}

	// A missing dotenv file is fine; explicit ones must load
	if err := godotenv.Load(*envFile); err != nil && *envFile != ".env" {
		fmt.Fprintf(os.Stderr, "Failed to load env file: %v\n", err)
		os.Exit(1)
	}

	loader := config.NewLoader()
	cfg, err := loader.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	log, err := logger.New(app.LoggerConfig(cfg))
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer func() { _ = log.Sync() }()

	api.Version = version
	log.Info("Starting pii-scanner",
		zap.String("version", version),
		zap.String("commit", commit),
		zap.String("build_date", date),
		zap.String("config_file", loader.ConfigFile()),
		zap.Int("port", cfg.Server.Port),
	)

	engine := app.NewEngine(cfg, log)

	var hub *websocket.Hub
	if cfg.WebSocket.Enabled {
		hub = websocket.NewHub(app.HubConfig(cfg), log.WithComponent("websocket").Logger)
		engine.AddNotifier(hub)
	}

	var m *metrics.Metrics
	if cfg.Metrics.Enabled {
		m = metrics.New()
		engine.AddNotifier(m)
	}

	server := api.New(cfg, log, engine, hub, m)

	loader.Watch(func(next *config.Config) {
		if err := log.SetLevel(next.Logging.Level); err != nil {
			log.Warn("Ignoring invalid log level", zap.Error(err))
		}
		engine.UpdateConfig(app.EngineConfig(next))
		server.UpdateConfig(next)
		log.Info("Configuration reloaded",
			zap.String("log_level", next.Logging.Level),
			zap.Int("concurrency", next.Scanner.Concurrency),
			zap.Bool("rate_limit", next.RateLimit.Enabled))
	}, func(err error) {
		log.Warn("Configuration reload rejected", zap.Error(err))
	})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	serverErrors := make(chan error, 1)
	go func() {
		log.Info("HTTP server listening", zap.Int("port", cfg.Server.Port))
		serverErrors <- server.Start(ctx)
	}()

	// Setup graceful shutdown
	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-serverErrors:
		if err != nil {
			log.Error("Server error", zap.Error(err))
			os.Exit(1)
		}
	case sig := <-shutdown:
		log.Info("Shutdown signal received", zap.String("signal", sig.String()))

		// Scans can run long; give them a bounded window to finish
		shutdownCtx, stop := context.WithTimeout(context.Background(), 30*time.Second)
		defer stop()

		if err := server.Stop(shutdownCtx); err != nil {
			log.Error("Failed to shutdown server gracefully", zap.Error(err))
			cancel()
			os.Exit(1)
		}
		cancel()

		log.Info("Server shutdown complete")
	}
}

// performHealthCheck checks a running server and exits
func performHealthCheck(baseURL string) {
	client := &http.Client{
		Timeout: 5 * time.Second,
	}

	resp, err := client.Get(baseURL + "/health")
	if err != nil {
		fmt.Fprintf(os.Stderr, "Health check failed: %v\n", err)
		os.Exit(1)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		fmt.Fprintf(os.Stderr, "Health check failed: HTTP %d\n", resp.StatusCode)
		os.Exit(1)
	}

	fmt.Println("Health check passed")
}
