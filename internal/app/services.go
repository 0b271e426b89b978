package app

import (
	"context"
	"fmt"

	"gorm.io/gorm"

	"github.com/yungbote/langqc-backend/internal/observability"
	"github.com/yungbote/langqc-backend/internal/pkg/dbctx"
	"github.com/yungbote/langqc-backend/internal/pkg/logger"
	"github.com/yungbote/langqc-backend/internal/services"
)

type Services struct {
	Dictionary *services.Dictionary
	Tracking   services.TrackingStore
	Products   services.ProductRegistry
	QcState    services.QcStateService
	Wells      services.WellsService
}

func wireServices(ctx context.Context, qcDB *gorm.DB, log *logger.Logger, cfg Config, repos Repos, clients Clients, metrics *observability.Metrics) (Services, error) {
	log.Info("Wiring services...")

	dict, err := services.LoadDictionary(dbctx.Context{Ctx: ctx}, repos.Dictionary)
	if err != nil {
		return Services{}, fmt.Errorf("load dictionary: %w", err)
	}

	var locker services.ClaimLocker
	if clients.ClaimLocker != nil {
		locker = clients.ClaimLocker
	}

	tracking := services.NewTrackingStore(repos.WellMetrics)
	products := services.NewProductRegistry(qcDB, log, repos.SeqProduct, repos.Dictionary, tracking)
	qcState := services.NewQcStateService(
		qcDB,
		log,
		dict,
		repos.User,
		repos.QcState,
		repos.QcStateHist,
		products,
		locker,
		metrics,
		services.QcStateServiceConfig{ApplicationName: cfg.ApplicationName},
	)
	wells := services.NewWellsService(log, qcState, tracking, metrics, services.WellsServiceConfig{
		InboxLookback: cfg.InboxLookback,
	})

	return Services{
		Dictionary: dict,
		Tracking:   tracking,
		Products:   products,
		QcState:    qcState,
		Wells:      wells,
	}, nil
}
