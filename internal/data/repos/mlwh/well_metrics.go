package mlwh

import (
	"fmt"
	"time"

	"gorm.io/gorm"

	types "github.com/yungbote/langqc-backend/internal/domain"
	"github.com/yungbote/langqc-backend/internal/pkg/dbctx"
	"github.com/yungbote/langqc-backend/internal/pkg/logger"
)

// WellMetricsRepo reads pac_bio_run_well_metrics. It never writes.
type WellMetricsRepo interface {
	GetByProductID(dbc dbctx.Context, idProduct string) (*types.PacBioRunWellMetrics, error)
	// GetByCoordinates matches run and well; a nil plate does not filter on
	// plate. More than one match is an error.
	GetByCoordinates(dbc dbctx.Context, runName, wellLabel string, plateNumber *int) (*types.PacBioRunWellMetrics, error)
	ListByProductIDs(dbc dbctx.Context, idProducts []string) ([]*types.PacBioRunWellMetrics, error)
	ListByRunNames(dbc dbctx.Context, runNames []string) ([]*types.PacBioRunWellMetrics, error)
	ListByWellStatusPrefixes(dbc dbctx.Context, prefixes []string) ([]*types.PacBioRunWellMetrics, error)
	ListByWellStatus(dbc dbctx.Context, status string) ([]*types.PacBioRunWellMetrics, error)
	ListCompletedSince(dbc dbctx.Context, since time.Time) ([]*types.PacBioRunWellMetrics, error)
	ListStartedSince(dbc dbctx.Context, since time.Time) ([]*types.PacBioRunWellMetrics, error)
}

type wellMetricsRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewWellMetricsRepo(db *gorm.DB, baseLog *logger.Logger) WellMetricsRepo {
	return &wellMetricsRepo{db: db, log: baseLog.With("repo", "WellMetricsRepo")}
}

func (r *wellMetricsRepo) GetByProductID(dbc dbctx.Context, idProduct string) (*types.PacBioRunWellMetrics, error) {
	if idProduct == "" {
		return nil, nil
	}
	var row types.PacBioRunWellMetrics
	if err := dbc.DB(r.db).Where("id_pac_bio_product = ?", idProduct).Limit(1).Find(&row).Error; err != nil {
		return nil, err
	}
	if row.ID == 0 {
		return nil, nil
	}
	return &row, nil
}

func (r *wellMetricsRepo) GetByCoordinates(dbc dbctx.Context, runName, wellLabel string, plateNumber *int) (*types.PacBioRunWellMetrics, error) {
	q := dbc.DB(r.db).Where("pac_bio_run_name = ? AND well_label = ?", runName, wellLabel)
	if plateNumber != nil {
		q = q.Where("plate_number = ?", *plateNumber)
	}
	var rows []*types.PacBioRunWellMetrics
	if err := q.Limit(2).Find(&rows).Error; err != nil {
		return nil, err
	}
	switch len(rows) {
	case 0:
		return nil, nil
	case 1:
		return rows[0], nil
	default:
		return nil, fmt.Errorf("well %s of run %s is ambiguous without a plate number", wellLabel, runName)
	}
}

func (r *wellMetricsRepo) ListByProductIDs(dbc dbctx.Context, idProducts []string) ([]*types.PacBioRunWellMetrics, error) {
	var out []*types.PacBioRunWellMetrics
	if len(idProducts) == 0 {
		return out, nil
	}
	if err := dbc.DB(r.db).Where("id_pac_bio_product IN ?", idProducts).Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

func (r *wellMetricsRepo) ListByRunNames(dbc dbctx.Context, runNames []string) ([]*types.PacBioRunWellMetrics, error) {
	var out []*types.PacBioRunWellMetrics
	if len(runNames) == 0 {
		return out, nil
	}
	err := dbc.DB(r.db).
		Where("pac_bio_run_name IN ?", runNames).
		Order("pac_bio_run_name ASC, plate_number ASC, well_label ASC").
		Find(&out).Error
	if err != nil {
		return nil, err
	}
	return out, nil
}

func (r *wellMetricsRepo) ListByWellStatusPrefixes(dbc dbctx.Context, prefixes []string) ([]*types.PacBioRunWellMetrics, error) {
	var out []*types.PacBioRunWellMetrics
	if len(prefixes) == 0 {
		return out, nil
	}
	q := dbc.DB(r.db).Where("well_status LIKE ?", prefixes[0]+"%")
	for _, p := range prefixes[1:] {
		q = q.Or("well_status LIKE ?", p+"%")
	}
	if err := q.Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

func (r *wellMetricsRepo) ListByWellStatus(dbc dbctx.Context, status string) ([]*types.PacBioRunWellMetrics, error) {
	var out []*types.PacBioRunWellMetrics
	if err := dbc.DB(r.db).Where("well_status = ?", status).Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

func (r *wellMetricsRepo) ListCompletedSince(dbc dbctx.Context, since time.Time) ([]*types.PacBioRunWellMetrics, error) {
	var out []*types.PacBioRunWellMetrics
	if err := dbc.DB(r.db).Where("well_complete > ?", since).Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

func (r *wellMetricsRepo) ListStartedSince(dbc dbctx.Context, since time.Time) ([]*types.PacBioRunWellMetrics, error) {
	var out []*types.PacBioRunWellMetrics
	if err := dbc.DB(r.db).Where("run_start > ?", since).Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}
