package bootstrap

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	ledgerservice "questfund/contexts/funding/ledger-service"
	postgresadapter "questfund/contexts/funding/ledger-service/adapters/postgres"
	"questfund/contexts/funding/ledger-service/application/workers"
	"questfund/internal/platform/config"
	"questfund/internal/platform/db"
	"questfund/internal/platform/httpserver"
	"questfund/internal/platform/messaging"
)

// Package bootstrap is the composition root.
// Keep construction/wiring here so module code stays framework-agnostic.

type APIApp struct {
	server   *httpserver.Server
	postgres *db.Postgres
	logger   *slog.Logger
}

type WorkerApp struct {
	postgres     *db.Postgres
	relay        workers.OutboxRelay
	pollInterval time.Duration
	enabled      bool
	logger       *slog.Logger
}

func BuildAPI() (*APIApp, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}

	logger := slog.Default().With("service", cfg.ServiceName, "process", "api")
	if strings.TrimSpace(cfg.PostgresDSN) == "" {
		return nil, errors.New("POSTGRES_DSN is required")
	}

	pg, err := db.Connect(cfg.PostgresDSN)
	if err != nil {
		return nil, err
	}

	repo := postgresadapter.NewRepository(pg.DB, logger)
	module := ledgerservice.NewModule(ledgerservice.Dependencies{
		Campaigns:      repo,
		Contributions:  repo,
		Tokens:         repo,
		Idempotency:    repo,
		Outbox:         repo,
		Clock:          postgresadapter.SystemClock{},
		IDGenerator:    postgresadapter.UUIDGenerator{},
		CustodyAccount: cfg.CustodyAccount,
		IdempotencyTTL: cfg.IdempotencyTTL,
		Logger:         logger,
	})

	server := httpserver.New(module, logger, ":"+cfg.HTTPPort)
	return &APIApp{
		server:   server,
		postgres: pg,
		logger:   logger,
	}, nil
}

func (a *APIApp) Run() error {
	return a.server.Start()
}

func (a *APIApp) Close() error {
	return a.postgres.Close()
}

func BuildWorker() (*WorkerApp, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}

	logger := slog.Default().With("service", cfg.ServiceName, "process", "worker")
	if strings.TrimSpace(cfg.PostgresDSN) == "" {
		return nil, errors.New("POSTGRES_DSN is required")
	}

	pg, err := db.Connect(cfg.PostgresDSN)
	if err != nil {
		return nil, err
	}

	bus, err := messaging.NewKafka(cfg.KafkaBrokers, logger)
	if err != nil {
		_ = pg.Close()
		return nil, err
	}

	repo := postgresadapter.NewRepository(pg.DB, logger)
	relay := workers.OutboxRelay{
		Outbox:    repo,
		Publisher: bus,
		Clock:     postgresadapter.SystemClock{},
		BatchSize: cfg.OutboxBatchSize,
		Logger:    logger,
	}
	return &WorkerApp{
		postgres:     pg,
		relay:        relay,
		pollInterval: cfg.OutboxPollInterval,
		enabled:      cfg.EnableOutboxRelay,
		logger:       logger,
	}, nil
}

// Run polls the outbox until the context is cancelled. Relay errors are
// logged inside RunOnce and retried on the next tick.
func (w *WorkerApp) Run(ctx context.Context) error {
	if !w.enabled {
		w.logger.Info("outbox relay disabled",
			"event", "outbox_relay_disabled",
			"module", "internal/app/bootstrap",
			"layer", "platform",
		)
		<-ctx.Done()
		return ctx.Err()
	}

	ticker := time.NewTicker(w.pollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			_ = w.relay.RunOnce(ctx)
		}
	}
}

func (w *WorkerApp) Close() error {
	return w.postgres.Close()
}
