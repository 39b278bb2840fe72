package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

const (
	StorageMemory   = "memory"
	StoragePostgres = "postgres"
)

type Config struct {
	App      AppConfig      `yaml:"app"`
	HTTP     HTTPConfig     `yaml:"http"`
	GRPC     GRPCConfig     `yaml:"grpc"`
	Database DatabaseConfig `yaml:"database"`
	Redis    RedisConfig    `yaml:"redis"`
	Kafka    KafkaConfig    `yaml:"kafka"`
	Booking  BookingConfig  `yaml:"booking"`
	Worker   WorkerConfig   `yaml:"worker"`
}

type AppConfig struct {
	LogLevel string `yaml:"log_level"`
	// Storage selects the repository backend: "memory" or "postgres".
	Storage string `yaml:"storage"`
	Seed    bool   `yaml:"seed"`
}

type HTTPConfig struct {
	Address     string   `yaml:"address"`
	SwaggerDir  string   `yaml:"swagger_dir"`
	CORSOrigins []string `yaml:"cors_origins"`
}

type GRPCConfig struct {
	Address string `yaml:"address"`
}

type DatabaseConfig struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	User     string `yaml:"user"`
	Password string `yaml:"password"`
	Name     string `yaml:"name"`
	SSLMode  string `yaml:"ssl_mode"`
}

func (d DatabaseConfig) DSN() string {
	return fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s", d.Host, d.Port, d.User, d.Password, d.Name, d.SSLMode)
}

type RedisConfig struct {
	Enabled  bool   `yaml:"enabled"`
	Addr     string `yaml:"addr"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
}

type KafkaConfig struct {
	Enabled              bool     `yaml:"enabled"`
	Brokers              []string `yaml:"brokers"`
	BookingEventsTopic   string   `yaml:"booking_events_topic"`
	PaymentOutcomesTopic string   `yaml:"payment_outcomes_topic"`
	GroupID              string   `yaml:"group_id"`
}

type BookingConfig struct {
	HoldTTLMinutes             int `yaml:"hold_ttl_minutes"`
	FlightsCacheTTL            int `yaml:"flights_cache_ttl_seconds"`
	AvailabilityCacheTTL       int `yaml:"availability_cache_ttl_seconds"`
	CompensationTimeoutSeconds int `yaml:"compensation_timeout_seconds"`
}

type WorkerConfig struct {
	ExpirationSweepSeconds int    `yaml:"expiration_sweep_seconds"`
	OrphanGraceSeconds     int    `yaml:"orphan_grace_seconds"`
	SweepBatch             int    `yaml:"sweep_batch"`
	AuditEnabled           bool   `yaml:"audit_enabled"`
	MetricsAddress         string `yaml:"metrics_address"`
}

func (b BookingConfig) HoldTTL() time.Duration {
	return time.Duration(b.HoldTTLMinutes) * time.Minute
}

func (b BookingConfig) FlightsTTL() time.Duration {
	return time.Duration(b.FlightsCacheTTL) * time.Second
}

func (b BookingConfig) AvailabilityTTL() time.Duration {
	return time.Duration(b.AvailabilityCacheTTL) * time.Second
}

func (b BookingConfig) CompensationTimeout() time.Duration {
	return time.Duration(b.CompensationTimeoutSeconds) * time.Second
}

func (w WorkerConfig) SweepInterval() time.Duration {
	return time.Duration(w.ExpirationSweepSeconds) * time.Second
}

func (w WorkerConfig) OrphanGrace() time.Duration {
	return time.Duration(w.OrphanGraceSeconds) * time.Second
}

// LoadConfig reads the YAML file at path, then applies .env and environment overrides
// and fills defaults. An empty path skips the file.
func LoadConfig(path string) (*Config, error) {
	var cfg Config
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config: %w", err)
		}
	}

	// .env is optional
	_ = godotenv.Load()
	cfg.applyEnv()
	cfg.applyDefaults()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) applyEnv() {
	c.App.LogLevel = getEnv("LOG_LEVEL", c.App.LogLevel)
	c.App.Storage = getEnv("STORAGE", c.App.Storage)
	c.App.Seed = getEnvAsBool("SEED", c.App.Seed)

	c.HTTP.Address = getEnv("HTTP_ADDRESS", c.HTTP.Address)
	c.HTTP.CORSOrigins = getEnvAsSlice("CORS_ALLOWED_ORIGINS", c.HTTP.CORSOrigins)
	c.GRPC.Address = getEnv("GRPC_ADDRESS", c.GRPC.Address)

	c.Database.Host = getEnv("DB_HOST", c.Database.Host)
	c.Database.Port = getEnvAsInt("DB_PORT", c.Database.Port)
	c.Database.User = getEnv("DB_USER", c.Database.User)
	c.Database.Password = getEnv("DB_PASSWORD", c.Database.Password)
	c.Database.Name = getEnv("DB_NAME", c.Database.Name)
	c.Database.SSLMode = getEnv("DB_SSLMODE", c.Database.SSLMode)

	c.Redis.Enabled = getEnvAsBool("REDIS_ENABLED", c.Redis.Enabled)
	c.Redis.Addr = getEnv("REDIS_ADDR", c.Redis.Addr)
	c.Redis.Password = getEnv("REDIS_PASSWORD", c.Redis.Password)

	c.Kafka.Enabled = getEnvAsBool("KAFKA_ENABLED", c.Kafka.Enabled)
	c.Kafka.Brokers = getEnvAsSlice("KAFKA_BROKERS", c.Kafka.Brokers)

	c.Worker.AuditEnabled = getEnvAsBool("WORKER_AUDIT_ENABLED", c.Worker.AuditEnabled)
	c.Worker.MetricsAddress = getEnv("WORKER_METRICS_ADDRESS", c.Worker.MetricsAddress)
}

func (c *Config) applyDefaults() {
	setDefault(&c.App.LogLevel, "info")
	setDefault(&c.App.Storage, StorageMemory)
	setDefault(&c.HTTP.Address, ":8080")
	setDefault(&c.HTTP.SwaggerDir, "./api")
	if len(c.HTTP.CORSOrigins) == 0 {
		c.HTTP.CORSOrigins = []string{"*"}
	}
	setDefault(&c.GRPC.Address, ":9090")

	setDefault(&c.Database.Host, "localhost")
	setDefaultInt(&c.Database.Port, 5432)
	setDefault(&c.Database.SSLMode, "disable")
	setDefault(&c.Redis.Addr, "localhost:6379")

	if len(c.Kafka.Brokers) == 0 {
		c.Kafka.Brokers = []string{"localhost:9092"}
	}
	setDefault(&c.Kafka.BookingEventsTopic, "booking-events")
	setDefault(&c.Kafka.PaymentOutcomesTopic, "payment-outcomes")
	setDefault(&c.Kafka.GroupID, "airinventory-worker")

	setDefaultInt(&c.Booking.HoldTTLMinutes, 15)
	setDefaultInt(&c.Booking.FlightsCacheTTL, 30)
	setDefaultInt(&c.Booking.AvailabilityCacheTTL, 5)
	setDefaultInt(&c.Booking.CompensationTimeoutSeconds, 30)

	setDefaultInt(&c.Worker.ExpirationSweepSeconds, 60)
	setDefaultInt(&c.Worker.OrphanGraceSeconds, 300)
	setDefaultInt(&c.Worker.SweepBatch, 100)
	setDefault(&c.Worker.MetricsAddress, ":9091")
}

func (c *Config) Validate() error {
	switch c.App.Storage {
	case StorageMemory, StoragePostgres:
	default:
		return fmt.Errorf("unknown storage %q", c.App.Storage)
	}
	if c.App.Storage == StoragePostgres && (c.Database.User == "" || c.Database.Name == "") {
		return errors.New("database user and name are required for postgres storage")
	}
	if c.Kafka.Enabled && len(c.Kafka.Brokers) == 0 {
		return errors.New("kafka brokers are required when kafka is enabled")
	}
	return nil
}

func setDefault(v *string, def string) {
	if *v == "" {
		*v = def
	}
}

func setDefaultInt(v *int, def int) {
	if *v <= 0 {
		*v = def
	}
}

func getEnv(key, defaultValue string) string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	return value
}

func getEnvAsInt(key string, defaultValue int) int {
	if value, err := strconv.Atoi(getEnv(key, "")); err == nil {
		return value
	}
	return defaultValue
}

func getEnvAsBool(key string, defaultValue bool) bool {
	if value, err := strconv.ParseBool(getEnv(key, "")); err == nil {
		return value
	}
	return defaultValue
}

func getEnvAsSlice(key string, defaultValue []string) []string {
	value := getEnv(key, "")
	if value == "" {
		return defaultValue
	}
	parts := strings.Split(value, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
