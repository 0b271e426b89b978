package db

import (
	"fmt"
	"log"
	"os"
	"strings"
	"time"

	"github.com/uptrace/opentelemetry-go-extra/otelgorm"
	"gorm.io/driver/mysql"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormLogger "gorm.io/gorm/logger"

	"github.com/yungbote/langqc-backend/internal/pkg/logger"
)

const (
	DialectPostgres = "postgres"
	DialectMySQL    = "mysql"
	DialectSQLite   = "sqlite"
)

type Options struct {
	Dialect         string
	DSN             string
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
	// Tracing installs the otelgorm plugin.
	Tracing bool
	// Silent disables gorm's SQL logger (tests).
	Silent bool
}

// Open connects to one store. The QC store and the tracking store each get
// their own handle.
func Open(opts Options, logg *logger.Logger) (*gorm.DB, error) {
	dialector, err := dialectorFor(opts.Dialect, opts.DSN)
	if err != nil {
		return nil, err
	}

	gormLog := gormLogger.New(
		log.New(os.Stdout, "\r\n", log.LstdFlags),
		gormLogger.Config{
			SlowThreshold:             1 * time.Second,
			LogLevel:                  gormLogger.Warn,
			IgnoreRecordNotFoundError: true,
			Colorful:                  false,
		},
	)
	if opts.Silent {
		gormLog = gormLogger.Default.LogMode(gormLogger.Silent)
	}

	db, err := gorm.Open(dialector, &gorm.Config{
		DisableForeignKeyConstraintWhenMigrating: true,
		TranslateError:                           true,
		Logger:                                   gormLog,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to %s: %w", opts.Dialect, err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("sql handle: %w", err)
	}
	if strings.EqualFold(opts.Dialect, DialectSQLite) {
		// sqlite serializes writers; a single connection also keeps
		// in-memory databases alive and shared.
		sqlDB.SetMaxOpenConns(1)
	} else {
		if opts.MaxOpenConns > 0 {
			sqlDB.SetMaxOpenConns(opts.MaxOpenConns)
		}
		if opts.MaxIdleConns > 0 {
			sqlDB.SetMaxIdleConns(opts.MaxIdleConns)
		}
		if opts.ConnMaxLifetime > 0 {
			sqlDB.SetConnMaxLifetime(opts.ConnMaxLifetime)
		}
	}

	if opts.Tracing {
		if pluginErr := db.Use(otelgorm.NewPlugin()); pluginErr != nil && logg != nil {
			logg.Warn("db connected but failed to install otelgorm plugin", "error", pluginErr)
		}
	}
	if logg != nil {
		logg.Info("connected to database", "dialect", opts.Dialect)
	}
	return db, nil
}

func dialectorFor(dialect, dsn string) (gorm.Dialector, error) {
	if strings.TrimSpace(dsn) == "" {
		return nil, fmt.Errorf("missing DSN for dialect %q", dialect)
	}
	switch strings.ToLower(strings.TrimSpace(dialect)) {
	case DialectPostgres:
		return postgres.Open(dsn), nil
	case DialectMySQL:
		return mysql.Open(dsn), nil
	case DialectSQLite:
		return sqlite.Open(dsn), nil
	default:
		return nil, fmt.Errorf("unsupported database dialect %q", dialect)
	}
}
