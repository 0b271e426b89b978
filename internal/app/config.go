package app

import (
	"errors"
	"io/fs"
	"time"

	"github.com/joho/godotenv"

	"github.com/yungbote/langqc-backend/internal/data/db"
	"github.com/yungbote/langqc-backend/internal/pkg/logger"
	"github.com/yungbote/langqc-backend/internal/utils"
)

type StoreConfig struct {
	Dialect         string
	DSN             string
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
}

type Config struct {
	LogMode         string
	ApplicationName string
	Environment     string
	Version         string

	QC          StoreConfig
	MLWH        StoreConfig
	AutoMigrate bool

	InboxLookback time.Duration

	RedisAddr    string
	ClaimLockTTL time.Duration

	MetricsAddr string

	OtelEnabled     bool
	OtelEndpoint    string
	OtelInsecure    bool
	OtelSampleRatio float64
}

// LoadDotEnv reads an optional .env file; a missing file is not an error.
func LoadDotEnv(paths ...string) error {
	if len(paths) == 0 {
		paths = []string{".env"}
	}
	for _, p := range paths {
		if err := godotenv.Load(p); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return err
		}
	}
	return nil
}

func LoadConfig(log *logger.Logger) Config {
	lookbackWeeks := utils.GetEnvAsInt("INBOX_LOOKBACK_WEEKS", 12, log)
	if lookbackWeeks <= 0 {
		log.Warn("INBOX_LOOKBACK_WEEKS must be positive, using default", "provided", lookbackWeeks)
		lookbackWeeks = 12
	}
	return Config{
		LogMode:         utils.GetEnv("LOG_MODE", "development", log),
		ApplicationName: utils.GetEnv("APPLICATION_NAME", "LangQC", log),
		Environment:     utils.GetEnv("ENVIRONMENT", "development", log),
		Version:         utils.GetEnv("APP_VERSION", "dev", log),

		QC: StoreConfig{
			Dialect:         utils.GetEnv("QC_DB_DIALECT", db.DialectPostgres, log),
			DSN:             utils.GetEnv("QC_DB_DSN", "", log),
			MaxOpenConns:    utils.GetEnvAsInt("QC_DB_MAX_OPEN_CONNS", 10, log),
			MaxIdleConns:    utils.GetEnvAsInt("QC_DB_MAX_IDLE_CONNS", 5, log),
			ConnMaxLifetime: utils.GetEnvAsDuration("QC_DB_CONN_MAX_LIFETIME", 30*time.Minute, log),
		},
		MLWH: StoreConfig{
			Dialect:         utils.GetEnv("MLWH_DB_DIALECT", db.DialectMySQL, log),
			DSN:             utils.GetEnv("MLWH_DB_DSN", "", log),
			MaxOpenConns:    utils.GetEnvAsInt("MLWH_DB_MAX_OPEN_CONNS", 10, log),
			MaxIdleConns:    utils.GetEnvAsInt("MLWH_DB_MAX_IDLE_CONNS", 5, log),
			ConnMaxLifetime: utils.GetEnvAsDuration("MLWH_DB_CONN_MAX_LIFETIME", 30*time.Minute, log),
		},
		AutoMigrate: utils.GetEnvAsBool("QC_DB_AUTOMIGRATE", false, log),

		InboxLookback: time.Duration(lookbackWeeks) * 7 * 24 * time.Hour,

		RedisAddr:    utils.GetEnv("REDIS_ADDR", "", log),
		ClaimLockTTL: utils.GetEnvAsDuration("CLAIM_LOCK_TTL", 10*time.Second, log),

		MetricsAddr: utils.GetEnv("METRICS_ADDR", ":9090", log),

		OtelEnabled:     utils.GetEnvAsBool("OTEL_ENABLED", false, log),
		OtelEndpoint:    utils.GetEnv("OTEL_EXPORTER_OTLP_ENDPOINT", "", log),
		OtelInsecure:    utils.GetEnvAsBool("OTEL_EXPORTER_OTLP_INSECURE", false, log),
		OtelSampleRatio: utils.GetEnvAsFloat("OTEL_SAMPLER_RATIO", 1, log),
	}
}
