package bootstrap

import (
	"context"
	"fmt"

	"github.com/Domenick1991/airinventory/config"
	"github.com/Domenick1991/airinventory/internal/cache"
	"github.com/Domenick1991/airinventory/internal/kafka"
	"github.com/Domenick1991/airinventory/internal/repository"
	"github.com/Domenick1991/airinventory/pkg/logger"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Infra holds the connections a process opens at start and closes on exit.
type Infra struct {
	Repos    Repositories
	Cache    *cache.RedisCache
	Producer *kafka.Producer
	Health   map[string]HealthCheck

	pool *pgxpool.Pool
	log  logger.Logger
}

// OpenInfra connects the storage backend and the optional Redis and Kafka clients.
func OpenInfra(ctx context.Context, cfg *config.Config, log logger.Logger) (*Infra, error) {
	infra := &Infra{Health: map[string]HealthCheck{}, log: log}

	switch cfg.App.Storage {
	case config.StoragePostgres:
		pool, err := pgxpool.New(ctx, cfg.Database.DSN())
		if err != nil {
			return nil, fmt.Errorf("connect postgres: %w", err)
		}
		if err := repository.Migrate(ctx, pool); err != nil {
			pool.Close()
			return nil, fmt.Errorf("migrate postgres: %w", err)
		}
		infra.pool = pool
		infra.Repos = PostgresRepositories(pool)
		infra.Health["postgres"] = pool.Ping
	default:
		repos, err := MemoryRepositories(cfg.App.Seed)
		if err != nil {
			return nil, fmt.Errorf("seed memory storage: %w", err)
		}
		infra.Repos = repos
		log.Warn("using in-memory storage, state is lost on restart")
	}

	if cfg.Redis.Enabled {
		infra.Cache = cache.NewRedisCache(cfg.Redis, cfg.Booking.FlightsTTL(), cfg.Booking.AvailabilityTTL())
		if err := infra.Cache.Ping(ctx); err != nil {
			log.Warn("redis unreachable at start, reads fall back to storage", "addr", cfg.Redis.Addr, "error", err)
		}
		infra.Health["redis"] = infra.Cache.Ping
	}

	if cfg.Kafka.Enabled {
		infra.Producer = kafka.NewProducer(cfg.Kafka.Brokers, log)
		infra.Health["kafka"] = infra.Producer.CheckConnection
	}
	return infra, nil
}

// Deps returns the optional pieces with absent ones left as nil interfaces.
func (i *Infra) Deps() Deps {
	var deps Deps
	if i.Cache != nil {
		deps.Cache = i.Cache
	}
	if i.Producer != nil {
		deps.Producer = i.Producer
	}
	return deps
}

func (i *Infra) Close() {
	if i.Producer != nil {
		if err := i.Producer.Close(); err != nil {
			i.log.Warn("close kafka producer", "error", err)
		}
	}
	if i.Cache != nil {
		if err := i.Cache.Close(); err != nil {
			i.log.Warn("close redis", "error", err)
		}
	}
	if i.pool != nil {
		i.pool.Close()
	}
}
