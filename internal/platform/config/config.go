package config

import (
	"time"

	"github.com/caarlos0/env/v11"
)

// Config is centralized process configuration.
// Keep infra values here and pass typed config into builders.
type Config struct {
	ServiceName  string   `env:"SERVICE_NAME" envDefault:"questfund"`
	HTTPPort     string   `env:"HTTP_PORT" envDefault:"8080"`
	PostgresDSN  string   `env:"POSTGRES_DSN"`
	KafkaBrokers []string `env:"KAFKA_BROKERS" envSeparator:"," envDefault:"localhost:9092"`

	// CustodyAccount holds escrowed campaign rewards.
	CustodyAccount string `env:"CUSTODY_ACCOUNT" envDefault:"questfund-custody"`

	IdempotencyTTL     time.Duration `env:"IDEMPOTENCY_TTL" envDefault:"168h"`
	OutboxPollInterval time.Duration `env:"OUTBOX_POLL_INTERVAL" envDefault:"500ms"`
	OutboxBatchSize    int           `env:"OUTBOX_BATCH_SIZE" envDefault:"100"`
	EnableOutboxRelay  bool          `env:"ENABLE_OUTBOX_RELAY" envDefault:"true"`
}

func Load() (Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return Config{}, err
	}
	return cfg, nil
}
