package main

import (
	"context"
	"database/sql"

	goredis "github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"workbridge/internal/audit"
	"workbridge/internal/classifier"
	"workbridge/internal/connection"
	"workbridge/internal/fieldcrypt"
	"workbridge/internal/job"
	"workbridge/internal/match"
	"workbridge/internal/platform/config"
	platformlogger "workbridge/internal/platform/logger"
	"workbridge/internal/platform/metrics"
	"workbridge/internal/platform/postgres"
	"workbridge/internal/platform/redis"
	"workbridge/internal/profile"
	"workbridge/pkg/platform/tx"
)

// app holds the wired object graph. Postgres, Redis, Kafka, and the external
// classifier are all optional; absent ones degrade to in-memory or fallback
// behavior so the binary runs standalone.
type app struct {
	cfg     *config.Config
	logger  *zap.Logger
	metrics *metrics.Metrics
	db      *sql.DB

	profiles    *profile.Service
	jobs        *job.Service
	matches     *match.Service
	connections *connection.Service

	auditStore audit.Store
	recorder   *audit.Recorder
	sweeper    *audit.Sweeper
	publisher  *audit.Publisher
}

func buildApp(ctx context.Context, cfgPath string) (*app, error) {
	cfg, err := config.Load(cfgPath)
	if err != nil {
		return nil, err
	}

	logger, err := platformlogger.New(cfg.LogLevel, cfg.LogFormat)
	if err != nil {
		return nil, err
	}

	m := metrics.New()

	db, err := postgres.Open(ctx, cfg.Postgres)
	if err != nil {
		return nil, err
	}

	var (
		auditStore      audit.Store
		auditPG         *audit.PostgresStore
		profileStore    profile.Store
		jobStore        job.Store
		matchStore      match.Store
		connectionStore connection.Store
		runner          tx.Runner
	)
	if db != nil {
		key, err := cfg.EncryptionKey()
		if err != nil {
			return nil, err
		}
		crypter, err := fieldcrypt.New(key)
		if err != nil {
			return nil, err
		}

		auditPG = audit.NewPostgres(db)
		auditStore = auditPG
		profileStore = profile.NewPostgres(db, crypter)
		jobStore = job.NewPostgres(db)
		matchStore = match.NewPostgres(db)
		connectionStore = connection.NewPostgres(db)
		runner = tx.NewSQLRunner(db)
	} else {
		logger.Warn("postgres not configured, using in-memory stores")
		auditStore = audit.NewInMemoryStore()
		profileStore = profile.NewInMemoryStore()
		jobStore = job.NewInMemoryStore()
		matchStore = match.NewInMemoryStore()
		connectionStore = connection.NewInMemoryStore()
		runner = tx.NewMemoryRunner()
	}

	recorder := audit.NewRecorder(auditStore, logger, m)
	sweeper := audit.NewSweeper(auditStore, logger, m)

	publisher, err := audit.NewPublisher(auditPG, cfg.Kafka.Brokers, cfg.Kafka.AuditTopic, cfg.Kafka.Interval, logger)
	if err != nil {
		return nil, err
	}

	rc, err := redis.New(cfg.Redis)
	if err != nil {
		return nil, err
	}
	var cache *goredis.Client
	if rc != nil {
		cache = rc.Client
	}

	var model classifier.Classifier
	if cfg.Classifier.Enabled {
		gem, err := classifier.NewGemini(ctx, cfg.Classifier.APIKey, cfg.Classifier.Model, logger)
		if err != nil {
			return nil, err
		}
		model = gem
	}
	reviewer := classifier.NewService(model, cache, cfg.Classifier.CacheTTL, cfg.Classifier.Timeout, logger, m)

	profileSvc := profile.NewService(profileStore, recorder, logger, profile.DefaultPrivacySettings())
	jobSvc := job.NewService(jobStore, recorder, reviewer, logger)
	connectionSvc := connection.NewService(connectionStore, profileStore, recorder, logger, m)
	matchSvc := match.NewService(matchStore, connectionStore, profileStore, jobStore, runner, recorder, logger, m)

	profileSvc.SetCascades(matchSvc, connectionSvc)
	jobSvc.SetCascade(matchSvc)

	return &app{
		cfg:         cfg,
		logger:      logger,
		metrics:     m,
		db:          db,
		profiles:    profileSvc,
		jobs:        jobSvc,
		matches:     matchSvc,
		connections: connectionSvc,
		auditStore:  auditStore,
		recorder:    recorder,
		sweeper:     sweeper,
		publisher:   publisher,
	}, nil
}

func (a *app) close() {
	if a.publisher != nil {
		a.publisher.Close()
	}
	if a.db != nil {
		a.db.Close()
	}
	_ = a.logger.Sync()
}
