package testutil

import (
	"fmt"
	"sync"
	"testing"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/yungbote/langqc-backend/internal/data/db"
	"github.com/yungbote/langqc-backend/internal/pkg/logger"
)

var (
	logOnce sync.Once
	logg    *logger.Logger
	logErr  error
)

func Logger(tb testing.TB) *logger.Logger {
	tb.Helper()
	logOnce.Do(func() {
		logg, logErr = logger.New("test")
	})
	if logErr != nil {
		tb.Fatalf("failed to init logger: %v", logErr)
	}
	return logg
}

func openMemory(tb testing.TB) *gorm.DB {
	tb.Helper()
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", uuid.NewString())
	gdb, err := db.Open(db.Options{Dialect: db.DialectSQLite, DSN: dsn, Silent: true}, nil)
	if err != nil {
		tb.Fatalf("open sqlite: %v", err)
	}
	tb.Cleanup(func() {
		if sqlDB, err := gdb.DB(); err == nil {
			_ = sqlDB.Close()
		}
	})
	return gdb
}

// QCDB returns a fresh, migrated and seeded QC store.
func QCDB(tb testing.TB) *gorm.DB {
	tb.Helper()
	gdb := openMemory(tb)
	if err := db.AutoMigrateQC(gdb); err != nil {
		tb.Fatalf("migrate qc: %v", err)
	}
	if err := db.SeedReferenceData(gdb); err != nil {
		tb.Fatalf("seed reference data: %v", err)
	}
	return gdb
}

// MLWHDB returns a fresh, empty tracking store.
func MLWHDB(tb testing.TB) *gorm.DB {
	tb.Helper()
	gdb := openMemory(tb)
	if err := db.AutoMigrateMLWH(gdb); err != nil {
		tb.Fatalf("migrate mlwh: %v", err)
	}
	return gdb
}

func Tx(tb testing.TB, db *gorm.DB) *gorm.DB {
	tb.Helper()
	tx := db.Begin()
	if tx.Error != nil {
		tb.Fatalf("begin tx: %v", tx.Error)
	}
	tb.Cleanup(func() {
		_ = tx.Rollback().Error
	})
	return tx
}
