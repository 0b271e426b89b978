package app

import (
	"gorm.io/gorm"

	"github.com/yungbote/langqc-backend/internal/data/repos"
	"github.com/yungbote/langqc-backend/internal/pkg/logger"
)

type Repos struct {
	Dictionary  repos.DictionaryRepo
	User        repos.UserRepo
	SeqProduct  repos.SeqProductRepo
	QcState     repos.QcStateRepo
	QcStateHist repos.QcStateHistRepo

	WellMetrics repos.WellMetricsRepo
}

func wireRepos(qcDB, mlwhDB *gorm.DB, log *logger.Logger) Repos {
	log.Info("Wiring repos...")
	return Repos{
		Dictionary:  repos.NewDictionaryRepo(qcDB, log),
		User:        repos.NewUserRepo(qcDB, log),
		SeqProduct:  repos.NewSeqProductRepo(qcDB, log),
		QcState:     repos.NewQcStateRepo(qcDB, log),
		QcStateHist: repos.NewQcStateHistRepo(qcDB, log),

		WellMetrics: repos.NewWellMetricsRepo(mlwhDB, log),
	}
}
