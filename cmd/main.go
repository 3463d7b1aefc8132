package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"message-board/internal/api"
	"message-board/internal/config"
	"message-board/internal/consumer"
	"message-board/internal/messaging"
	"message-board/internal/metrics"
	"message-board/internal/service"
	"message-board/internal/storage"
)

// Exit codes reported to the process supervisor.
const (
	exitOK      = 0
	exitRuntime = 1
	exitConfig  = 2
)

// @title Message Board API
// @version 1.0
// @description Hello-world message board: list, look up and create short text messages
// @host localhost:8080
// @BasePath /
// @schemes http
func main() {
	fmt.Println("hello world")

	code, err := run()
	if err != nil {
		fmt.Fprintf(os.Stderr, "message-board terminated with error: %v\n", err)
	}
	os.Exit(code)
}

func run() (int, error) {
	configPath := flag.String("config", "config.yaml", "path to the YAML configuration file")
	flag.Parse()

	// Load Configuration
	_ = godotenv.Load()
	cfg, err := config.LoadConfig(*configPath)
	if err != nil {
		return exitConfig, fmt.Errorf("config error: %w", err)
	}

	logger := newLogger(cfg.Log.Level)
	slog.SetDefault(logger)
	logger.Info("Configuration loaded", "store", cfg.Store.Kind, "addr", cfg.Server.Addr)

	// Init Metrics
	metrics.Init()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Init Store
	store, err := storage.Open(ctx, cfg, logger)
	if err != nil {
		return exitRuntime, fmt.Errorf("failed to init store: %w", err)
	}
	defer store.Close()

	// Init RabbitMQ
	var (
		rabbitClient *messaging.RabbitClient
		publisher    service.Publisher
	)
	if cfg.BrokerEnabled() {
		rabbitClient, err = messaging.NewRabbitClient(cfg.RabbitMQ.URL, logger)
		if err != nil {
			return exitRuntime, err
		}
		defer rabbitClient.Close()
		if err := rabbitClient.DeclareQueues(); err != nil {
			return exitRuntime, err
		}

		if cfg.RabbitMQ.PublishEvents {
			publisher = rabbitClient
		}
	}

	svc := service.NewMessageService(store, publisher, logger)

	// scaler stays a nil interface unless ingestion runs
	var scaler api.WorkerScaler

	// Start ingestion consumer
	if cfg.RabbitMQ.Ingest {
		c, err := consumer.StartConsumer(
			rabbitClient.GetConnection(),
			messaging.IngestQueue,
			cfg.RabbitMQ.Workers,
			consumer.SaveHandler(svc, logger),
			logger,
		)
		if err != nil {
			return exitRuntime, err
		}
		defer c.Stop()
		scaler = c

		// Background loop for updating queue depth metrics
		go func() {
			ticker := time.NewTicker(10 * time.Second)
			defer ticker.Stop()

			for {
				select {
				case <-ctx.Done():
					return
				case <-ticker.C:
					rabbitClient.UpdateQueueDepth(messaging.IngestQueue)
					rabbitClient.UpdateQueueDepth(messaging.IngestDLQ)
				}
			}
		}()
	}

	// Init API
	apiHandler := api.NewAPI(svc, logger)
	server := &http.Server{
		Addr:    cfg.Server.Addr,
		Handler: apiHandler.Router(),
	}
	opsServer := &http.Server{
		Addr:    cfg.Server.OpsAddr,
		Handler: apiHandler.OpsRouter(scaler),
	}

	errCh := make(chan error, 2)
	for _, s := range []*http.Server{server, opsServer} {
		go func(s *http.Server) {
			logger.Info("Starting HTTP server", "addr", s.Addr)
			if err := s.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				errCh <- fmt.Errorf("server %s: %w", s.Addr, err)
			}
		}(s)
	}

	code, runErr := exitOK, error(nil)
	select {
	case <-ctx.Done():
		logger.Info("Shutdown initiated...")
	case runErr = <-errCh:
		code = exitRuntime
	}

	// Shutdown sequence
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	for _, s := range []*http.Server{server, opsServer} {
		if err := s.Shutdown(shutdownCtx); err != nil {
			logger.Warn("HTTP shutdown error", "addr", s.Addr, "error", err)
		}
	}

	logger.Info("Graceful shutdown complete")
	return code, runErr
}

func newLogger(level string) *slog.Logger {
	var lvl slog.Level
	if err := lvl.UnmarshalText([]byte(level)); err != nil {
		lvl = slog.LevelInfo
	}
	return slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: lvl}))
}
