package db

import (
	"fmt"

	"gorm.io/gorm"

	types "github.com/yungbote/langqc-backend/internal/domain"
)

// AutoMigrateQC creates or updates the QC store tables.
func AutoMigrateQC(db *gorm.DB) error {
	if err := db.AutoMigrate(types.QCModels()...); err != nil {
		return fmt.Errorf("migrate qc store: %w", err)
	}
	return nil
}

// AutoMigrateMLWH creates the tracking store table. Production never runs
// this; the warehouse schema is owned elsewhere. Local and test databases do.
func AutoMigrateMLWH(db *gorm.DB) error {
	if err := db.AutoMigrate(types.MLWHModels()...); err != nil {
		return fmt.Errorf("migrate tracking store: %w", err)
	}
	return nil
}
