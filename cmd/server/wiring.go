package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"fraudintel/internal/account/ports"
	accountstore "fraudintel/internal/account/store"
	"fraudintel/internal/entitlement"
	jwttoken "fraudintel/internal/jwt_token"
	"fraudintel/internal/notification"
	"fraudintel/internal/platform/config"
	"fraudintel/internal/platform/kafka"
	"fraudintel/internal/platform/kafka/consumer"
	"fraudintel/internal/platform/kafka/producer"
	platformmetrics "fraudintel/internal/platform/metrics"
	"fraudintel/internal/platform/migrations"
	"fraudintel/internal/platform/outbox"
	"fraudintel/internal/platform/postgres"
	"fraudintel/internal/platform/redis"
	"fraudintel/internal/search/decoy"
	"fraudintel/internal/search/handler"
	searchmetrics "fraudintel/internal/search/metrics"
	"fraudintel/internal/search/service"
	"fraudintel/internal/search/source"
	searchstore "fraudintel/internal/search/store"
	httptransport "fraudintel/internal/transport/http"
	"fraudintel/internal/usage"
	"fraudintel/pkg/email"
	"fraudintel/pkg/platform/audit"
	"fraudintel/pkg/platform/audit/publisher"
	auditmemory "fraudintel/pkg/platform/audit/store/memory"
	auditpostgres "fraudintel/pkg/platform/audit/store/postgres"
	"fraudintel/pkg/platform/audit/worker"
	txcontext "fraudintel/pkg/platform/tx"
)

const (
	topicPartitions  = 3
	topicReplication = 1
)

type txRunner interface {
	RunInTx(ctx context.Context, fn func(ctx context.Context) error) error
}

type backgroundJob struct {
	name string
	run  func(ctx context.Context) error
}

type app struct {
	router     http.Handler
	storage    string
	background []backgroundJob
	closers    []func()
}

func (a *app) close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		a.closers[i]()
	}
}

// stores are the persistence backends for one process.
type stores struct {
	accounts ports.AccountStore
	records  source.RecordStore
	audit    audit.Store
	outbox   outbox.Store
	tx       txRunner
}

func build(ctx context.Context, cfg config.Server, log *slog.Logger) (_ *app, err error) {
	a := &app{}
	defer func() {
		if err != nil {
			a.close()
		}
	}()
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	checks := map[string]httptransport.HealthCheck{}

	st, err := a.openStores(ctx, cfg, log, checks)
	if err != nil {
		return nil, err
	}

	decoyCache, err := a.openDecoy(ctx, cfg, log, checks)
	if err != nil {
		return nil, err
	}

	sender, err := a.openNotifications(ctx, cfg, log, st, checks)
	if err != nil {
		return nil, err
	}

	searchMetrics := searchmetrics.New(reg)

	resolver, err := entitlement.New(st.accounts, entitlement.WithLogger(log))
	if err != nil {
		return nil, err
	}
	selector, err := source.New(st.records, decoyCache)
	if err != nil {
		return nil, err
	}
	usageService, err := usage.New(st.accounts, sender, st.tx,
		usage.WithLogger(log),
		usage.WithMetrics(searchMetrics),
		usage.WithLowQuotaRatio(cfg.Notification.LowQuotaRatio),
	)
	if err != nil {
		return nil, err
	}

	auditPublisher := publisher.New(cfg.Audit.BufferSize, publisher.WithLogger(log))
	auditWorker := worker.New(auditPublisher, st.audit,
		worker.WithLogger(log),
		worker.WithMetrics(worker.NewMetrics(reg)),
		worker.WithBatchSize(cfg.Audit.BatchSize),
		worker.WithFlushInterval(cfg.Audit.FlushInterval),
	)
	a.background = append(a.background, backgroundJob{name: "audit-worker", run: auditWorker.Run})

	searchService, err := service.New(resolver, selector, usageService, auditPublisher,
		service.WithLogger(log),
		service.WithMetrics(searchMetrics),
		service.WithHasher(audit.NewHasher(cfg.Audit.HashKey)),
	)
	if err != nil {
		return nil, err
	}

	jwtService := jwttoken.NewJWTService(cfg.JWTSigningKey, cfg.JWTIssuer, cfg.JWTAudience)
	a.router = httptransport.NewRouter(httptransport.Dependencies{
		Logger:             log,
		Search:             handler.New(searchService, log),
		Validator:          jwttoken.NewJWTServiceAdapter(jwtService),
		Metrics:            platformmetrics.New(reg),
		Gatherer:           reg,
		CORSAllowedOrigins: cfg.CORSAllowedOrigins,
		AdminToken:         cfg.AdminToken,
		Decoy:              decoyCache,
		HealthChecks:       checks,
	})
	return a, nil
}

// openStores connects to Postgres when DATABASE_URL is set and otherwise
// falls back to in-memory stores.
func (a *app) openStores(ctx context.Context, cfg config.Server, log *slog.Logger, checks map[string]httptransport.HealthCheck) (*stores, error) {
	if cfg.Database.URL == "" {
		log.Warn("DATABASE_URL not set, using in-memory stores")
		a.storage = "memory"
		accounts := accountstore.NewInMemoryAccountStore()
		if cfg.Database.SeedAccounts != "" {
			n, err := accounts.LoadSeedFile(ctx, cfg.Database.SeedAccounts)
			if err != nil {
				return nil, err
			}
			log.Info("seeded in-memory accounts", "count", n, "file", cfg.Database.SeedAccounts)
		} else {
			log.Warn("SEED_ACCOUNTS not set, in-memory account store is empty")
		}
		return &stores{
			accounts: accounts,
			records:  searchstore.NewInMemoryRecordStore(),
			audit:    auditmemory.NewInMemoryStore(),
			outbox:   outbox.NewInMemoryStore(),
			tx:       txcontext.NoopRunner{},
		}, nil
	}

	db, err := postgres.Open(ctx, cfg.Database)
	if err != nil {
		return nil, err
	}
	a.closers = append(a.closers, func() { _ = db.Close() })
	checks["postgres"] = db.PingContext

	if cfg.Database.RunMigrations {
		if err := migrations.Up(ctx, db); err != nil {
			return nil, err
		}
	}
	a.storage = "postgres"
	return postgresStores(db), nil
}

func postgresStores(db *sql.DB) *stores {
	return &stores{
		accounts: accountstore.NewPostgres(db),
		records:  searchstore.NewPostgres(db),
		audit:    auditpostgres.New(db),
		outbox:   outbox.NewPostgres(db),
		tx:       txcontext.NewPostgresRunner(db),
	}
}

// openDecoy serves the decoy dataset from Redis when configured, with the
// embedded copy as fallback.
func (a *app) openDecoy(ctx context.Context, cfg config.Server, log *slog.Logger, checks map[string]httptransport.HealthCheck) (*decoy.Cache, error) {
	client, err := redis.New(ctx, cfg.Redis)
	if errors.Is(err, redis.ErrNotConfigured) {
		return decoy.NewCache(decoy.EmbeddedSource{}, decoy.WithLogger(log))
	}
	if err != nil {
		return nil, err
	}
	a.closers = append(a.closers, func() { _ = client.Close() })
	checks["redis"] = client.Health

	return decoy.NewCache(decoy.NewRedisSource(client.Client, cfg.Decoy.RedisKey),
		decoy.WithLogger(log),
		decoy.WithFallback(decoy.EmbeddedSource{}),
	)
}

// openNotifications picks the notification transport. With brokers
// configured, notices go through the outbox to Kafka and are delivered by
// the dispatcher; otherwise they are only logged.
func (a *app) openNotifications(ctx context.Context, cfg config.Server, log *slog.Logger, st *stores, checks map[string]httptransport.HealthCheck) (notification.Sender, error) {
	if len(cfg.Kafka.Brokers) == 0 {
		log.Warn("KAFKA_BROKERS not set, notifications are logged only")
		return notification.NewLogSender(log), nil
	}

	prod, err := producer.New(cfg.Kafka.Brokers)
	if err != nil {
		return nil, err
	}
	a.closers = append(a.closers, prod.Close)
	checks["kafka"] = prod.Health

	if err := kafka.EnsureTopics(ctx, prod.Client(), topicPartitions, topicReplication, cfg.Kafka.NotificationTopic); err != nil {
		return nil, err
	}

	relay, err := outbox.NewRelay(st.outbox, prod,
		outbox.WithRelayLogger(log),
		outbox.WithInterval(cfg.Kafka.RelayInterval),
		outbox.WithBatchSize(cfg.Kafka.RelayBatchSize),
		outbox.WithTxRunner(st.tx),
	)
	if err != nil {
		return nil, err
	}

	dispatcher, err := notification.NewDispatcher(email.NewLogMailer(log), notification.WithDispatcherLogger(log))
	if err != nil {
		return nil, err
	}
	router := consumer.NewRouter(log, nil)
	router.Register(notification.EventRequested, dispatcher)

	cons, err := consumer.New(cfg.Kafka.Brokers, cfg.Kafka.ConsumerGroup, []string{cfg.Kafka.NotificationTopic}, router,
		consumer.WithLogger(log),
	)
	if err != nil {
		return nil, fmt.Errorf("create notification consumer: %w", err)
	}
	a.closers = append(a.closers, cons.Close)

	a.background = append(a.background,
		backgroundJob{name: "outbox-relay", run: relay.Run},
		backgroundJob{name: "notification-consumer", run: cons.Run},
	)
	return notification.NewOutboxSender(st.outbox, cfg.Kafka.NotificationTopic), nil
}
