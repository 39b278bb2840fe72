package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/Domenick1991/airinventory/config"
	"github.com/Domenick1991/airinventory/internal/bootstrap"
	"github.com/Domenick1991/airinventory/internal/kafka"
	"github.com/Domenick1991/airinventory/internal/worker"
	"github.com/Domenick1991/airinventory/pkg/logger"
	"github.com/Domenick1991/airinventory/pkg/metrics"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"golang.org/x/sync/errgroup"
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

	var opts []worker.ReaperOption
	if cfg.Worker.AuditEnabled {
		opts = append(opts, worker.WithAudit(infra.Repos.Flights, engine.Ledger))
	}
	reaper := worker.NewReaper(engine.Bookings, cfg.Worker.SweepInterval(), zlog, opts...)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error { return reaper.Run(gctx) })

	if cfg.Kafka.Enabled {
		var dedup worker.Deduplicator
		if infra.Cache != nil {
			dedup = infra.Cache
		}
		handler := worker.NewPaymentOutcomeHandler(engine.Payments, dedup, zlog)
		consumer := kafka.NewConsumer(cfg.Kafka.Brokers, cfg.Kafka.GroupID, cfg.Kafka.PaymentOutcomesTopic)
		defer consumer.Close()

		g.Go(func() error {
			zlog.Info("consuming payment outcomes", "topic", cfg.Kafka.PaymentOutcomesTopic, "group_id", cfg.Kafka.GroupID)
			return consumer.Consume(gctx, handler.Handle)
		})
	} else {
		zlog.Warn("kafka disabled, payment outcomes are only accepted over the api")
	}

	// The worker exposes only its metrics.
	metricsSrv := &http.Server{Addr: cfg.Worker.MetricsAddress, Handler: promhttp.Handler(), ReadHeaderTimeout: 5 * time.Second}
	g.Go(func() error {
		if err := metricsSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return metricsSrv.Shutdown(shutdownCtx)
	})

	zlog.Info("starting airinventory worker", "sweep_interval", cfg.Worker.SweepInterval().String(), "audit", cfg.Worker.AuditEnabled)
	if err := g.Wait(); err != nil {
		zlog.Error("worker stopped with error", "error", err)
		os.Exit(1)
	}
}
