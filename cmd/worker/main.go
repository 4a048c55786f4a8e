package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"sales-service/cmd"
	"sales-service/config"
	"sales-service/infrastructure/persistence/sqlstore"
	"sales-service/pkg/logger"
	"sales-service/pkg/metrics"

	"go.uber.org/zap"
)

func main() {
	if err := run(); err != nil {
		fmt.Printf("Worker startup failed: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	var (
		configPath  string
		metricsAddr string
	)
	flag.StringVar(&configPath, "config", "", "Path to config file")
	flag.StringVar(&metricsAddr, "metrics-addr", ":9091", "Listen address for /metrics (empty to disable)")
	flag.Parse()

	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	if err := logger.Init(&cfg.Log, cfg.App.Env); err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}
	defer func() { _ = logger.Sync() }()

	if !cfg.Worker.Enabled {
		logger.Info("Outbox worker is disabled by config; exiting")
		return nil
	}
	if cfg.Database.Driver == "memory" {
		return errors.New("outbox worker requires a SQL database driver")
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	var m *metrics.Metrics
	if cfg.Metrics.Enabled && metricsAddr != "" {
		m = metrics.New(cfg.Metrics.Namespace)
		go serveMetrics(metricsAddr, cfg.Metrics.Path, m)
	}

	db, err := cmd.OpenDatabase(cfg)
	if err != nil {
		return err
	}
	defer func() { _ = sqlstore.Close(db) }()

	relay, closeRelay, err := cmd.NewRelay(ctx, cfg.Worker.Relay, cfg, m)
	if err != nil {
		return fmt.Errorf("failed to create %s relay: %w", cfg.Worker.Relay, err)
	}
	defer func() { _ = closeRelay() }()

	worker, err := sqlstore.NewOutboxWorker(
		sqlstore.NewOutboxRepository(db),
		relay,
		cfg.Worker.PollInterval,
		cfg.Worker.BatchSize,
		cfg.Worker.MaxRetries,
	)
	if err != nil {
		return fmt.Errorf("failed to create outbox worker: %w", err)
	}
	if m != nil {
		worker.SetObserver(m)
	}

	logger.Info("Outbox worker configured",
		zap.String("relay", cfg.Worker.Relay),
		zap.Int("max_retries", cfg.Worker.MaxRetries),
	)

	if err := worker.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		return fmt.Errorf("outbox worker exited with error: %w", err)
	}
	return nil
}

func serveMetrics(addr, path string, m *metrics.Metrics) {
	mux := http.NewServeMux()
	mux.Handle(path, m.Handler())
	if err := http.ListenAndServe(addr, mux); err != nil {
		logger.Error("Metrics listener stopped", zap.Error(err))
	}
}
