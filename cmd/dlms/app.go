package main

import (
	"context"
	"database/sql"
	"errors"
	"log/slog"

	"github.com/twmb/franz-go/pkg/kgo"

	applicanthandler "dlms/internal/applicant/handler"
	applicantservice "dlms/internal/applicant/service"
	applicantstore "dlms/internal/applicant/store"
	appointmenthandler "dlms/internal/appointment/handler"
	appointmentmetrics "dlms/internal/appointment/metrics"
	appointmentservice "dlms/internal/appointment/service"
	appointmentstore "dlms/internal/appointment/store"
	licensehandler "dlms/internal/license/handler"
	licensemetrics "dlms/internal/license/metrics"
	licenseservice "dlms/internal/license/service"
	licensestore "dlms/internal/license/store"
	"dlms/internal/platform/config"
	"dlms/internal/platform/kafka"
	"dlms/internal/platform/metrics"
	"dlms/internal/platform/postgres"
	platformredis "dlms/internal/platform/redis"
	procedurehandler "dlms/internal/procedure/handler"
	proceduremetrics "dlms/internal/procedure/metrics"
	procedureservice "dlms/internal/procedure/service"
	procedurestore "dlms/internal/procedure/store"
	resourcehandler "dlms/internal/resource/handler"
	resourceservice "dlms/internal/resource/service"
	resourcestore "dlms/internal/resource/store"
	httptransport "dlms/internal/transport/http"
	"dlms/pkg/platform/audit"
	auditkafka "dlms/pkg/platform/audit/publishers/kafka"
	auditmemory "dlms/pkg/platform/audit/store/memory"
	auditpostgres "dlms/pkg/platform/audit/store/postgres"
	"dlms/pkg/platform/tx"
)

// eventStore is both the event history read by the applicant handler and a
// publisher sink.
type eventStore interface {
	audit.Store
	audit.Publisher
}

// app holds the wired services and the connections that must be closed.
type app struct {
	cfg     config.Server
	logger  *slog.Logger
	metrics *metrics.Metrics

	db    *sql.DB
	redis *platformredis.Client
	kafka *kgo.Client

	applicants   *applicantservice.Service
	resources    *resourceservice.Service
	licenses     *licenseservice.Service
	procedures   *procedureservice.Service
	appointments *appointmentservice.Service

	handlers []httptransport.Registrar
	health   []httptransport.HealthCheck
}

// newApp connects to whatever backing services cfg names. Without a database
// every store is in memory and units of work use the sharded runner.
func newApp(ctx context.Context, cfg config.Server, logger *slog.Logger) (_ *app, err error) {
	a := &app{cfg: cfg, logger: logger, metrics: metrics.New()}
	defer func() {
		if err != nil {
			a.Close()
		}
	}()

	var (
		runner       tx.Runner
		applicantReg applicantstore.Registry
		resourceReg  resourcestore.Registry
		licenses     licenseservice.Store
		procedures   procedureservice.Store
		appointments appointmentservice.Store
		events       eventStore
	)
	if cfg.DatabaseURL != "" {
		a.db, err = postgres.Open(ctx, postgres.Config{DSN: cfg.DatabaseURL, MaxOpenConns: 20, MaxIdleConns: 5})
		if err != nil {
			return nil, err
		}
		a.health = append(a.health, httptransport.HealthCheck{Name: "postgres", Check: a.db.PingContext})
		runner = tx.NewPostgresRunner(a.db, cfg.TxTimeout)
		applicantReg = applicantstore.NewPostgres(a.db)
		resourceReg = resourcestore.NewPostgres(a.db)
		licenses = licensestore.NewPostgres(a.db)
		procedures = procedurestore.NewPostgres(a.db)
		appointments = appointmentstore.NewPostgres(a.db)
		events = auditpostgres.New(a.db)
	} else {
		logger.WarnContext(ctx, "DATABASE_URL not set; using in-memory stores")
		runner = tx.NewShardedRunner(cfg.TxTimeout)
		applicantReg = applicantstore.NewInMemoryStore()
		resourceReg = resourcestore.NewInMemoryStore()
		licenses = licensestore.NewInMemoryStore()
		procedures = procedurestore.NewInMemoryStore()
		appointments = appointmentstore.NewInMemoryStore()
		events = auditmemory.NewInMemoryStore()
	}

	if a.redis, err = platformredis.New(cfg.Redis); err != nil {
		return nil, err
	}
	if a.redis != nil {
		cacheCfg := platformredis.CacheConfig{TTL: cfg.CacheTTL, Metrics: a.metrics}
		applicantReg = applicantstore.NewCachedStore(applicantReg, a.redis, cacheCfg, logger)
		resourceReg = resourcestore.NewCachedStore(resourceReg, a.redis, cacheCfg, logger)
		a.health = append(a.health, httptransport.HealthCheck{Name: "redis", Check: a.redis.Health})
	}

	publishers := audit.Fanout{events}
	if a.kafka, err = kafka.New(ctx, cfg.Kafka); err != nil {
		return nil, err
	}
	if a.kafka != nil {
		if err := auditkafka.EnsureTopic(ctx, a.kafka, cfg.Kafka.Topic, 3, 1); err != nil {
			return nil, err
		}
		publishers = append(publishers, auditkafka.New(a.kafka, cfg.Kafka.Topic, auditkafka.WithLogger(logger)))
		a.health = append(a.health, httptransport.HealthCheck{Name: "kafka", Check: a.kafka.Ping})
	}
	emitter := audit.NewEmitter(logger, publishers)

	a.applicants = applicantservice.New(applicantReg, runner,
		applicantservice.WithLogger(logger),
		applicantservice.WithAuditEmitter(emitter),
	)
	a.resources = resourceservice.New(resourceReg, runner, resourceservice.WithLogger(logger))
	a.licenses = licenseservice.New(licenses, applicantReg, runner,
		licenseservice.WithLogger(logger),
		licenseservice.WithMetrics(licensemetrics.New()),
		licenseservice.WithAuditEmitter(emitter),
	)
	a.procedures = procedureservice.New(procedures, applicantReg, a.licenses, runner,
		procedureservice.WithLogger(logger),
		procedureservice.WithMetrics(proceduremetrics.New()),
		procedureservice.WithAuditEmitter(emitter),
	)
	a.appointments = appointmentservice.New(appointments, applicantReg, resourceReg, runner,
		appointmentservice.WithLogger(logger),
		appointmentservice.WithMetrics(appointmentmetrics.New()),
		appointmentservice.WithAuditEmitter(emitter),
		appointmentservice.WithProcedureFinder(a.procedures),
	)

	a.handlers = []httptransport.Registrar{
		applicanthandler.New(a.applicants, events, logger),
		resourcehandler.New(a.resources, logger),
		procedurehandler.New(a.procedures, logger),
		licensehandler.New(a.licenses, logger),
		appointmenthandler.New(a.appointments, logger),
	}
	return a, nil
}

func (a *app) routerConfig() httptransport.Config {
	return httptransport.Config{
		Logger:   a.logger,
		Metrics:  a.metrics,
		Handlers: a.handlers,
		Health:   a.health,
	}
}

func (a *app) Close() {
	var errs []error
	if a.kafka != nil {
		a.kafka.Close()
	}
	if a.redis != nil {
		errs = append(errs, a.redis.Close())
	}
	if a.db != nil {
		errs = append(errs, a.db.Close())
	}
	if err := errors.Join(errs...); err != nil {
		a.logger.Error("closing connections", "error", err)
	}
}
