package config

import (
	"fmt"
	"time"
	_ "time/tzdata"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
	log "github.com/sirupsen/logrus"
)

type Config struct {
	HTTPAddr  string `envconfig:"HTTP_ADDR" default:":8080"`
	GRPCAddr  string `envconfig:"GRPC_ADDR" default:":50051"`
	MySQLDSN  string `envconfig:"MYSQL_DSN" default:"root:root@tcp(localhost:3306)/cardapio?parseTime=true"`
	RedisAddr string `envconfig:"REDIS_ADDR" default:"localhost:6379"`
	LogLevel  string `envconfig:"LOG_LEVEL" default:"info"`

	StoreTimezone   string `envconfig:"STORE_TIMEZONE" default:"America/Sao_Paulo"`
	AcceptingOrders bool   `envconfig:"ACCEPTING_ORDERS" default:"true"`

	LookupTimeout   time.Duration `envconfig:"LOOKUP_TIMEOUT" default:"3s"`
	WriteTimeout    time.Duration `envconfig:"WRITE_TIMEOUT" default:"5s"`
	IdempotencyTTL  time.Duration `envconfig:"IDEMPOTENCY_TTL" default:"24h"`
	MetricsCacheTTL time.Duration `envconfig:"METRICS_CACHE_TTL" default:"30s"`

	FirebaseProjectID   string `envconfig:"FIREBASE_PROJECT_ID" default:""`
	FirebaseCredentials string `envconfig:"FIREBASE_CREDENTIALS_FILE" default:""`
	AdminRole           string `envconfig:"ADMIN_ROLE" default:"admin"`
}

// Load reads an optional .env file and then the process environment.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil {
		log.Debug("No .env file found, using environment variables")
	}

	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, err
	}
	if _, err := cfg.Location(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Location resolves the store timezone used for calendar-day reporting.
func (c *Config) Location() (*time.Location, error) {
	loc, err := time.LoadLocation(c.StoreTimezone)
	if err != nil {
		return nil, fmt.Errorf("store timezone %q: %w", c.StoreTimezone, err)
	}
	return loc, nil
}

// ConfigureLogging switches logrus to JSON output at the configured level.
func (c *Config) ConfigureLogging() {
	log.SetFormatter(&log.JSONFormatter{})
	level, err := log.ParseLevel(c.LogLevel)
	if err != nil {
		log.WithField("level", c.LogLevel).Warn("Unknown log level, using info")
		level = log.InfoLevel
	}
	log.SetLevel(level)
}
