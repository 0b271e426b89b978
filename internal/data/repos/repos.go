package repos

import (
	"gorm.io/gorm"

	"github.com/yungbote/langqc-backend/internal/data/repos/mlwh"
	"github.com/yungbote/langqc-backend/internal/data/repos/qc"
	"github.com/yungbote/langqc-backend/internal/pkg/logger"
)

type DictionaryRepo = qc.DictionaryRepo
type UserRepo = qc.UserRepo
type SeqProductRepo = qc.SeqProductRepo
type QcStateRepo = qc.QcStateRepo
type QcStateHistRepo = qc.QcStateHistRepo
type StateFilter = qc.StateFilter

type WellMetricsRepo = mlwh.WellMetricsRepo

func NewDictionaryRepo(db *gorm.DB, baseLog *logger.Logger) DictionaryRepo {
	return qc.NewDictionaryRepo(db, baseLog)
}
func NewUserRepo(db *gorm.DB, baseLog *logger.Logger) UserRepo { return qc.NewUserRepo(db, baseLog) }
func NewSeqProductRepo(db *gorm.DB, baseLog *logger.Logger) SeqProductRepo {
	return qc.NewSeqProductRepo(db, baseLog)
}
func NewQcStateRepo(db *gorm.DB, baseLog *logger.Logger) QcStateRepo {
	return qc.NewQcStateRepo(db, baseLog)
}
func NewQcStateHistRepo(db *gorm.DB, baseLog *logger.Logger) QcStateHistRepo {
	return qc.NewQcStateHistRepo(db, baseLog)
}

func NewWellMetricsRepo(db *gorm.DB, baseLog *logger.Logger) WellMetricsRepo {
	return mlwh.NewWellMetricsRepo(db, baseLog)
}
