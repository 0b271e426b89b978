package qc

import (
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	types "github.com/yungbote/langqc-backend/internal/domain"
	"github.com/yungbote/langqc-backend/internal/pkg/dbctx"
	"github.com/yungbote/langqc-backend/internal/pkg/logger"
)

// StateFilter selects QC states of one QC type by dictionary state and
// preliminary flag. Empty or nil fields do not filter.
type StateFilter struct {
	IDQcType    uint
	StateName   string
	NegateState bool
	Preliminary *bool
}

type QcStateRepo interface {
	Get(dbc dbctx.Context, idSeqProduct, idQcType uint) (*types.QcState, error)
	// GetForUpdate locks the row until the surrounding transaction ends.
	GetForUpdate(dbc dbctx.Context, idSeqProduct, idQcType uint) (*types.QcState, error)
	Create(dbc dbctx.Context, row *types.QcState) error
	Update(dbc dbctx.Context, id uint, updates map[string]interface{}) error
	ListBySeqProductIDs(dbc dbctx.Context, idSeqProducts []uint, idQcType *uint) ([]*types.QcState, error)
	ListByFilter(dbc dbctx.Context, f StateFilter) ([]*types.QcState, error)
}

type qcStateRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewQcStateRepo(db *gorm.DB, baseLog *logger.Logger) QcStateRepo {
	return &qcStateRepo{db: db, log: baseLog.With("repo", "QcStateRepo")}
}

func (r *qcStateRepo) withAssociations(t *gorm.DB) *gorm.DB {
	return t.
		Preload("SeqProduct").
		Preload("SeqProduct.Layouts", func(db *gorm.DB) *gorm.DB {
			return db.Order("id_product_layout ASC")
		}).
		Preload("SeqProduct.Layouts.SubProduct").
		Preload("Type").
		Preload("User").
		Preload("Dict")
}

func (r *qcStateRepo) Get(dbc dbctx.Context, idSeqProduct, idQcType uint) (*types.QcState, error) {
	var row types.QcState
	err := r.withAssociations(dbc.DB(r.db)).
		Where("id_seq_product = ? AND id_qc_type = ?", idSeqProduct, idQcType).
		Limit(1).
		Find(&row).Error
	if err != nil {
		return nil, err
	}
	if row.ID == 0 {
		return nil, nil
	}
	return &row, nil
}

func (r *qcStateRepo) GetForUpdate(dbc dbctx.Context, idSeqProduct, idQcType uint) (*types.QcState, error) {
	var row types.QcState
	err := dbc.DB(r.db).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("id_seq_product = ? AND id_qc_type = ?", idSeqProduct, idQcType).
		Limit(1).
		Find(&row).Error
	if err != nil {
		return nil, err
	}
	if row.ID == 0 {
		return nil, nil
	}
	return &row, nil
}

func (r *qcStateRepo) Create(dbc dbctx.Context, row *types.QcState) error {
	return dbc.DB(r.db).Create(row).Error
}

func (r *qcStateRepo) Update(dbc dbctx.Context, id uint, updates map[string]interface{}) error {
	return dbc.DB(r.db).
		Model(&types.QcState{}).
		Where("id_qc_state = ?", id).
		Updates(updates).Error
}

func (r *qcStateRepo) ListBySeqProductIDs(dbc dbctx.Context, idSeqProducts []uint, idQcType *uint) ([]*types.QcState, error) {
	var out []*types.QcState
	if len(idSeqProducts) == 0 {
		return out, nil
	}
	q := r.withAssociations(dbc.DB(r.db)).Where("id_seq_product IN ?", idSeqProducts)
	if idQcType != nil {
		q = q.Where("id_qc_type = ?", *idQcType)
	}
	if err := q.Order("id_seq_product ASC, id_qc_type ASC").Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

// ListByFilter returns matching states, most recently updated first.
func (r *qcStateRepo) ListByFilter(dbc dbctx.Context, f StateFilter) ([]*types.QcState, error) {
	var out []*types.QcState
	q := r.withAssociations(dbc.DB(r.db)).
		Select("qc_state.*").
		Joins("JOIN qc_state_dict ON qc_state_dict.id_qc_state_dict = qc_state.id_qc_state_dict")
	if f.IDQcType != 0 {
		q = q.Where("qc_state.id_qc_type = ?", f.IDQcType)
	}
	if f.StateName != "" {
		if f.NegateState {
			q = q.Where("qc_state_dict.state <> ?", f.StateName)
		} else {
			q = q.Where("qc_state_dict.state = ?", f.StateName)
		}
	}
	if f.Preliminary != nil {
		q = q.Where("qc_state.is_preliminary = ?", *f.Preliminary)
	}
	if err := q.Order("qc_state.date_updated DESC").Order("qc_state.id_qc_state ASC").Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}
