package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/Domenick1991/airinventory/config"
	"github.com/Domenick1991/airinventory/internal/bootstrap"
	"github.com/Domenick1991/airinventory/pkg/logger"
	"github.com/Domenick1991/airinventory/pkg/metrics"
	"github.com/prometheus/client_golang/prometheus"
)

func main() {
	cfgPath := os.Getenv("CONFIG_PATH")
	if cfgPath == "" {
		cfgPath = "config.yaml"
	}

	cfg, err := config.LoadConfig(cfgPath)
	if err != nil {
		log.Fatalf("load config: %v", err)
	}

	zlog := logger.NewLogger(cfg.App.LogLevel)
	defer zlog.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	infra, err := bootstrap.OpenInfra(ctx, cfg, zlog)
	if err != nil {
		zlog.Fatal("failed to open infrastructure", "error", err)
	}
	defer infra.Close()

	engine := bootstrap.NewEngine(cfg, infra.Repos, infra.Deps(), zlog, metrics.NewMetrics(prometheus.DefaultRegisterer))
	svc := engine.Services()
	svc.Gatherer = prometheus.DefaultGatherer
	svc.Health = infra.Health

	zlog.Info("starting airinventory api", "storage", cfg.App.Storage, "redis", cfg.Redis.Enabled, "kafka", cfg.Kafka.Enabled)
	if err := bootstrap.Run(ctx, cfg, svc, zlog); err != nil {
		zlog.Error("server error", "error", err)
		os.Exit(1)
	}
}
