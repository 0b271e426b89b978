package qc

import (
	"gorm.io/gorm"

	types "github.com/yungbote/langqc-backend/internal/domain"
	"github.com/yungbote/langqc-backend/internal/pkg/dbctx"
	"github.com/yungbote/langqc-backend/internal/pkg/logger"
)

type QcStateHistRepo interface {
	Create(dbc dbctx.Context, row *types.QcStateHist) error
	// List returns the history of one (product, QC type), oldest first.
	List(dbc dbctx.Context, idSeqProduct, idQcType uint) ([]*types.QcStateHist, error)
	Count(dbc dbctx.Context, idSeqProduct, idQcType uint) (int64, error)
}

type qcStateHistRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewQcStateHistRepo(db *gorm.DB, baseLog *logger.Logger) QcStateHistRepo {
	return &qcStateHistRepo{db: db, log: baseLog.With("repo", "QcStateHistRepo")}
}

func (r *qcStateHistRepo) Create(dbc dbctx.Context, row *types.QcStateHist) error {
	return dbc.DB(r.db).Create(row).Error
}

func (r *qcStateHistRepo) List(dbc dbctx.Context, idSeqProduct, idQcType uint) ([]*types.QcStateHist, error) {
	var out []*types.QcStateHist
	err := dbc.DB(r.db).
		Preload("User").
		Preload("Dict").
		Where("id_seq_product = ? AND id_qc_type = ?", idSeqProduct, idQcType).
		Order("id_qc_state_hist ASC").
		Find(&out).Error
	if err != nil {
		return nil, err
	}
	return out, nil
}

func (r *qcStateHistRepo) Count(dbc dbctx.Context, idSeqProduct, idQcType uint) (int64, error) {
	var n int64
	err := dbc.DB(r.db).
		Model(&types.QcStateHist{}).
		Where("id_seq_product = ? AND id_qc_type = ?", idSeqProduct, idQcType).
		Count(&n).Error
	return n, err
}
