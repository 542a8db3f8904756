package main

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"time"

	"github.com/twmb/franz-go/pkg/kgo"

	"decide/internal/census/cache"
	censusservice "decide/internal/census/service"
	censusstore "decide/internal/census/store"
	"decide/internal/identity"
	"decide/internal/platform/config"
	"decide/internal/platform/kafka"
	"decide/internal/platform/postgres"
	platformredis "decide/internal/platform/redis"
	"decide/internal/voting"
	"decide/pkg/platform/audit/publisher"
	auditkafka "decide/pkg/platform/audit/store/kafka"
	auditmemory "decide/pkg/platform/audit/store/memory"
	"decide/pkg/platform/circuit"
)

const (
	auditBufferSize = 1024
	cacheCooldown   = 30 * time.Second
)

// infra holds the backing services chosen from configuration. Empty URLs
// fall back to in-process implementations so the service runs standalone.
type infra struct {
	census     censusservice.Store
	identities censusservice.IdentityStore
	votings    censusservice.VotingCatalog
	cache      *cache.Guarded
	audit      *publisher.Publisher
	health     map[string]healthCheck

	closers []func()
}

func buildInfra(ctx context.Context, cfg config.Server, log *slog.Logger) (*infra, error) {
	in := &infra{health: map[string]healthCheck{}}

	if err := in.withDatabase(ctx, cfg.Database, log); err != nil {
		in.Close()
		return nil, err
	}
	if err := in.withRedis(ctx, cfg.Redis, log); err != nil {
		in.Close()
		return nil, err
	}
	if err := in.withAudit(ctx, cfg.Kafka, log); err != nil {
		in.Close()
		return nil, err
	}
	return in, nil
}

func (in *infra) withDatabase(ctx context.Context, cfg config.DatabaseConfig, log *slog.Logger) error {
	if cfg.URL == "" {
		log.Warn("DATABASE_URL not set, using in-memory census store")
		identities, votings, err := memoryDirectory(cfg, log)
		if err != nil {
			return err
		}
		in.census = censusstore.NewInMemory()
		in.identities = identities
		in.votings = votings
		return nil
	}

	db, err := postgres.Open(ctx, cfg.Driver, cfg.URL)
	if err != nil {
		return err
	}
	in.closers = append(in.closers, func() { _ = db.Close() })
	if err := postgres.Migrate(ctx, db); err != nil {
		return err
	}

	in.census = censusstore.NewPostgres(db)
	in.identities = identity.NewPostgres(db)
	in.votings = voting.NewPostgres(db)
	in.health["postgres"] = func(ctx context.Context) error { return ping(ctx, db) }
	log.Info("census store ready", "driver", cfg.Driver)
	return nil
}

// memoryDirectory builds the user directory and voting catalog for
// database-less runs from the configured seed.
func memoryDirectory(cfg config.DatabaseConfig, log *slog.Logger) (*identity.InMemory, *voting.InMemory, error) {
	users, votingIDs, err := cfg.Seed()
	if err != nil {
		return nil, nil, fmt.Errorf("seed in-memory directory: %w", err)
	}

	identities := identity.NewInMemory()
	for _, u := range users {
		identities.Add(u.ID, u.Username)
	}
	votings := voting.NewInMemory(votingIDs...)

	if len(users) == 0 || len(votingIDs) == 0 {
		log.Warn("in-memory directory has no users or votings, every import will be rejected; set SEED_USERS and SEED_VOTINGS",
			"users", len(users),
			"votings", len(votingIDs),
		)
	} else {
		log.Info("in-memory directory seeded", "users", len(users), "votings", len(votingIDs))
	}
	return identities, votings, nil
}

func (in *infra) withRedis(ctx context.Context, cfg config.RedisConfig, log *slog.Logger) error {
	client, err := platformredis.New(ctx, cfg)
	if err != nil {
		return err
	}
	if client == nil {
		log.Info("REDIS_URL not set, eligibility cache disabled")
		return nil
	}
	in.closers = append(in.closers, func() { _ = client.Close() })
	in.cache = cache.NewGuarded(
		cache.NewRedisCache(client.Client, cfg.CacheTTL),
		circuit.New("eligibility-cache", circuit.WithFailureThreshold(3), circuit.WithCooldown(cacheCooldown)),
		log,
	)
	in.health["redis"] = client.Health
	return nil
}

func (in *infra) withAudit(ctx context.Context, cfg config.KafkaConfig, log *slog.Logger) error {
	client, err := kafka.NewClient(ctx, cfg.Brokers, kgo.DefaultProduceTopic(cfg.AuditTopic))
	if err != nil {
		return err
	}
	if client == nil {
		log.Info("KAFKA_BROKERS not set, audit events kept in memory")
		in.audit = publisher.NewPublisher(auditmemory.NewInMemoryStore(), publisher.WithLogger(log))
		return nil
	}
	in.closers = append(in.closers, client.Close)

	if err := kafka.EnsureTopic(ctx, client, cfg.AuditTopic, cfg.Partitions); err != nil {
		return err
	}
	in.audit = publisher.NewPublisher(
		auditkafka.New(client, cfg.AuditTopic),
		publisher.WithAsyncBuffer(auditBufferSize),
		publisher.WithLogger(log),
	)
	// Registered after the client closer so buffered events drain first.
	in.closers = append(in.closers, in.audit.Close)
	in.health["kafka"] = client.Ping
	return nil
}

// Close releases resources in reverse order of acquisition.
func (in *infra) Close() {
	for i := len(in.closers) - 1; i >= 0; i-- {
		in.closers[i]()
	}
}

func ping(ctx context.Context, db *sql.DB) error {
	if err := db.PingContext(ctx); err != nil {
		return fmt.Errorf("ping database: %w", err)
	}
	return nil
}
