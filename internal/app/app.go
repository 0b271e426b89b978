package app

import (
	"context"
	"fmt"
	"os"

	"gorm.io/gorm"

	"github.com/yungbote/langqc-backend/internal/data/db"
	"github.com/yungbote/langqc-backend/internal/observability"
	"github.com/yungbote/langqc-backend/internal/pkg/logger"
)

type App struct {
	Log      *logger.Logger
	QCDB     *gorm.DB
	MLWHDB   *gorm.DB
	Cfg      Config
	Repos    Repos
	Clients  Clients
	Services Services
	Metrics  *observability.Metrics

	shutdownOTel func(context.Context) error
}

type Options struct {
	// Migrate forces schema migration and reference data seeding
	// regardless of QC_DB_AUTOMIGRATE.
	Migrate bool
}

func New(ctx context.Context, opts Options) (*App, error) {
	if err := LoadDotEnv(); err != nil {
		return nil, fmt.Errorf("load .env: %w", err)
	}
	logMode := os.Getenv("LOG_MODE")
	if logMode == "" {
		logMode = "development"
	}
	log, err := logger.New(logMode)
	if err != nil {
		return nil, fmt.Errorf("init logger: %w", err)
	}

	log.Info("Loading environment variables...")
	cfg := LoadConfig(log)

	shutdown := observability.InitOTel(ctx, log, observability.OtelConfig{
		Enabled:     cfg.OtelEnabled,
		ServiceName: "langqc",
		Environment: cfg.Environment,
		Version:     cfg.Version,
		Endpoint:    cfg.OtelEndpoint,
		Insecure:    cfg.OtelInsecure,
		SampleRatio: cfg.OtelSampleRatio,
	})

	a := &App{Log: log, Cfg: cfg, shutdownOTel: shutdown}
	if err := a.init(ctx, opts); err != nil {
		a.Close()
		return nil, err
	}
	return a, nil
}

func (a *App) init(ctx context.Context, opts Options) error {
	qcDB, err := openStore(a.Cfg.QC, a.Cfg.OtelEnabled, a.Log.With("store", "qc"))
	if err != nil {
		return fmt.Errorf("init qc store: %w", err)
	}
	a.QCDB = qcDB
	mlwhDB, err := openStore(a.Cfg.MLWH, a.Cfg.OtelEnabled, a.Log.With("store", "mlwh"))
	if err != nil {
		return fmt.Errorf("init tracking store: %w", err)
	}
	a.MLWHDB = mlwhDB

	if opts.Migrate || a.Cfg.AutoMigrate {
		if err := a.Migrate(); err != nil {
			return err
		}
	}

	a.Metrics = observability.NewMetrics(nil)
	a.Repos = wireRepos(a.QCDB, a.MLWHDB, a.Log)

	clients, err := wireClients(ctx, a.Log, a.Cfg)
	if err != nil {
		return err
	}
	a.Clients = clients

	svc, err := wireServices(ctx, a.QCDB, a.Log, a.Cfg, a.Repos, a.Clients, a.Metrics)
	if err != nil {
		return err
	}
	a.Services = svc
	return nil
}

func openStore(sc StoreConfig, tracing bool, log *logger.Logger) (*gorm.DB, error) {
	return db.Open(db.Options{
		Dialect:         sc.Dialect,
		DSN:             sc.DSN,
		MaxOpenConns:    sc.MaxOpenConns,
		MaxIdleConns:    sc.MaxIdleConns,
		ConnMaxLifetime: sc.ConnMaxLifetime,
		Tracing:         tracing,
	}, log)
}

// Migrate creates the QC schema and seeds reference data. The tracking
// store is only migrated when it is a local sqlite file.
func (a *App) Migrate() error {
	a.Log.Info("Migrating QC store...")
	if err := db.AutoMigrateQC(a.QCDB); err != nil {
		return fmt.Errorf("qc automigrate: %w", err)
	}
	if err := db.SeedReferenceData(a.QCDB); err != nil {
		return fmt.Errorf("seed reference data: %w", err)
	}
	if a.Cfg.MLWH.Dialect == db.DialectSQLite {
		if err := db.AutoMigrateMLWH(a.MLWHDB); err != nil {
			return fmt.Errorf("tracking store automigrate: %w", err)
		}
	}
	return nil
}

func (a *App) Close() {
	if a == nil {
		return
	}
	a.Clients.Close()
	for _, g := range []*gorm.DB{a.QCDB, a.MLWHDB} {
		if g == nil {
			continue
		}
		if sqlDB, err := g.DB(); err == nil {
			_ = sqlDB.Close()
		}
	}
	if a.shutdownOTel != nil {
		if err := a.shutdownOTel(context.Background()); err != nil && a.Log != nil {
			a.Log.Warn("otel shutdown failed", "error", err)
		}
	}
	if a.Log != nil {
		a.Log.Sync()
	}
}
