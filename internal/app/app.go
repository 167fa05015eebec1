package app

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/go-co-op/gocron/v2"
	"github.com/jmoiron/sqlx"
	"github.com/riskibarqy/match-ledger/internal/config"
	"github.com/riskibarqy/match-ledger/internal/domain/backend"
	"github.com/riskibarqy/match-ledger/internal/infrastructure/account/anubis"
	"github.com/riskibarqy/match-ledger/internal/infrastructure/backend/memory"
	"github.com/riskibarqy/match-ledger/internal/infrastructure/backend/postgrest"
	"github.com/riskibarqy/match-ledger/internal/infrastructure/repository/local"
	"github.com/riskibarqy/match-ledger/internal/infrastructure/repository/postgres"
	"github.com/riskibarqy/match-ledger/internal/interfaces/httpapi"
	"github.com/riskibarqy/match-ledger/internal/platform/dburl"
	"github.com/riskibarqy/match-ledger/internal/platform/device"
	idgen "github.com/riskibarqy/match-ledger/internal/platform/id"
	"github.com/riskibarqy/match-ledger/internal/platform/logging"
	"github.com/riskibarqy/match-ledger/internal/platform/worker"
	"github.com/riskibarqy/match-ledger/internal/usecase"
	"github.com/uptrace/opentelemetry-go-extra/otelsql"
	"github.com/uptrace/opentelemetry-go-extra/otelsqlx"
	"go.opentelemetry.io/otel/attribute"
)

// App owns the HTTP server and everything that must be released on shutdown.
type App struct {
	Server *http.Server

	logger    *logging.Logger
	executor  *worker.Executor
	scheduler gocron.Scheduler
	db        *sqlx.DB
}

func New(cfg config.Config, logger *logging.Logger) (*App, error) {
	if logger == nil {
		logger = logging.Default()
	}
	if strings.TrimSpace(cfg.HTTPAddr) == "" {
		return nil, fmt.Errorf("http server addr cannot be empty")
	}

	store, err := local.Open(cfg.DataDir)
	if err != nil {
		return nil, fmt.Errorf("open local store: %w", err)
	}

	ids := idgen.NewUUIDGenerator()
	deviceIdentity, err := newDeviceIdentity(cfg, ids)
	if err != nil {
		return nil, err
	}

	remote, db, err := newRemoteBackend(cfg, logger)
	if err != nil {
		return nil, err
	}

	executor, err := worker.NewExecutor(cfg.BackgroundWorkers, cfg.BackgroundTaskTimeout, logger.Named("worker"))
	if err != nil {
		closeDB(logger, db)
		return nil, fmt.Errorf("create background executor: %w", err)
	}

	var verifier usecase.AccessTokenVerifier
	if cfg.AnubisEnabled {
		verifier = anubis.NewClient(
			&http.Client{Timeout: cfg.AnubisTimeout},
			anubis.Config{
				BaseURL:         cfg.AnubisBaseURL,
				IntrospectPath:  cfg.AnubisIntrospectPath,
				AdminKey:        cfg.AnubisAdminKey,
				CacheTTL:        cfg.AnubisCacheTTL,
				CacheMaxEntries: cfg.AnubisCacheMaxEntries,
				CircuitBreaker:  cfg.AnubisCircuit,
			},
			logger,
		)
	}

	profileSvc := usecase.NewProfileService(
		store.Profiles,
		store.DeviceLinks,
		deviceIdentity,
		remote,
		ids,
		nil,
		logger.Named("profiles"),
	)
	syncSvc := usecase.NewSyncService(
		profileSvc,
		store.Profiles,
		store.Matches,
		store.KnownUsers,
		store.Venues,
		remote,
		logger,
		cfg.SyncFanout,
	)
	sessionSvc := usecase.NewSessionService(syncSvc, verifier, logger.Named("session"))
	matchSvc := usecase.NewMatchService(
		store.Matches,
		store.Venues,
		syncSvc,
		remote,
		sessionSvc,
		executor,
		ids,
		logger.Named("matches"),
	)
	claimSvc := usecase.NewClaimService(
		profileSvc,
		syncSvc,
		store.Profiles,
		store.Matches,
		store.DeviceLinks,
		store.KnownUsers,
		remote,
		sessionSvc,
		logger.Named("claims"),
	)

	handler := httpapi.NewHandler(profileSvc, matchSvc, claimSvc, sessionSvc, logger.Named("http"))
	router := httpapi.NewRouter(handler, logger.Named("http"), cfg.SwaggerEnabled, cfg.CORSAllowedOrigins)

	var scheduler gocron.Scheduler
	if cfg.SyncInterval > 0 {
		scheduler, err = newSyncScheduler(cfg.SyncInterval, cfg.SyncInterval, sessionSvc, logger.Named("scheduler"))
		if err != nil {
			_ = executor.Close(context.Background())
			closeDB(logger, db)
			return nil, err
		}
		scheduler.Start()
	}

	logger.Info("match ledger wired",
		"backend", cfg.BackendKind,
		"data_dir", cfg.DataDir,
		"anubis", cfg.AnubisEnabled,
		"workers", cfg.BackgroundWorkers,
		"sync_interval", cfg.SyncInterval.String(),
	)

	return &App{
		Server: &http.Server{
			Addr:         cfg.HTTPAddr,
			Handler:      router,
			ReadTimeout:  cfg.ReadTimeout,
			WriteTimeout: cfg.WriteTimeout,
		},
		logger:    logger,
		executor:  executor,
		scheduler: scheduler,
		db:        db,
	}, nil
}

// Shutdown stops accepting requests, lets in-flight background pushes finish
// and closes the database pool.
func (a *App) Shutdown(ctx context.Context) error {
	var errs []error
	if a.scheduler != nil {
		if err := a.scheduler.Shutdown(); err != nil {
			errs = append(errs, fmt.Errorf("stop scheduler: %w", err))
		}
	}
	if err := a.Server.Shutdown(ctx); err != nil {
		errs = append(errs, fmt.Errorf("shutdown http server: %w", err))
	}
	if err := a.executor.Close(ctx); err != nil {
		errs = append(errs, fmt.Errorf("drain background executor: %w", err))
	}
	closeDB(a.logger, a.db)
	return errors.Join(errs...)
}

func newDeviceIdentity(cfg config.Config, ids idgen.Generator) (device.Identity, error) {
	switch {
	case strings.TrimSpace(cfg.DeviceID) != "":
		return device.Static(cfg.DeviceID), nil
	case strings.TrimSpace(cfg.DeviceIDFile) != "":
		return device.NewFileIdentity(cfg.DeviceIDFile), nil
	default:
		generated, err := ids.NewID()
		if err != nil {
			return nil, fmt.Errorf("generate device id: %w", err)
		}
		return device.Static(generated), nil
	}
}

func newRemoteBackend(cfg config.Config, logger *logging.Logger) (backend.Backend, *sqlx.DB, error) {
	switch cfg.BackendKind {
	case config.BackendPostgREST:
		client, err := postgrest.NewClient(postgrest.Config{
			BaseURL:        cfg.BackendBaseURL,
			APIKey:         cfg.BackendAPIKey,
			Timeout:        cfg.BackendTimeout,
			CircuitBreaker: cfg.BackendCircuit,
		}, logger)
		if err != nil {
			return nil, nil, fmt.Errorf("create postgrest backend: %w", err)
		}
		return client, nil, nil
	case config.BackendPostgres:
		dsn := dburl.Normalize(cfg.DBURL, cfg.DBDisablePreparedBinary)
		db, err := otelsqlx.Open("postgres", dsn,
			otelsql.WithDBSystem("postgresql"),
			otelsql.WithDBName(dburl.Name(dsn)),
			otelsql.WithAttributes(attribute.String("service.name", cfg.ServiceName)),
			otelsql.WithQueryFormatter(formatDBQueryForTrace),
		)
		if err != nil {
			return nil, nil, fmt.Errorf("open database: %w", err)
		}
		logger.Info("postgres backend configured", "db", dburl.Redact(dsn))
		return postgres.NewBackend(db), db, nil
	default:
		return memory.NewBackend(), nil, nil
	}
}

func closeDB(logger *logging.Logger, db *sqlx.DB) {
	if db == nil {
		return
	}
	if err := db.Close(); err != nil {
		logger.Warn("close database", "error", err)
	}
}
