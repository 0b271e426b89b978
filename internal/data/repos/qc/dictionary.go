package qc

import (
	"gorm.io/gorm"

	types "github.com/yungbote/langqc-backend/internal/domain"
	"github.com/yungbote/langqc-backend/internal/pkg/dbctx"
	"github.com/yungbote/langqc-backend/internal/pkg/logger"
)

type DictionaryRepo interface {
	ListQcTypes(dbc dbctx.Context) ([]*types.QcType, error)
	ListQcStates(dbc dbctx.Context) ([]*types.QcStateDict, error)
	GetSeqPlatform(dbc dbctx.Context, name string) (*types.SeqPlatform, error)
	ListSubProductAttrs(dbc dbctx.Context) ([]*types.SubProductAttr, error)
}

type dictionaryRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewDictionaryRepo(db *gorm.DB, baseLog *logger.Logger) DictionaryRepo {
	return &dictionaryRepo{db: db, log: baseLog.With("repo", "DictionaryRepo")}
}

func (r *dictionaryRepo) ListQcTypes(dbc dbctx.Context) ([]*types.QcType, error) {
	var out []*types.QcType
	if err := dbc.DB(r.db).Order("id_qc_type ASC").Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

// ListQcStates returns the states in definition order.
func (r *dictionaryRepo) ListQcStates(dbc dbctx.Context) ([]*types.QcStateDict, error) {
	var out []*types.QcStateDict
	if err := dbc.DB(r.db).Order("id_qc_state_dict ASC").Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

func (r *dictionaryRepo) GetSeqPlatform(dbc dbctx.Context, name string) (*types.SeqPlatform, error) {
	var row types.SeqPlatform
	err := dbc.DB(r.db).Where("name = ?", name).Limit(1).Find(&row).Error
	if err != nil {
		return nil, err
	}
	if row.ID == 0 {
		return nil, nil
	}
	return &row, nil
}

func (r *dictionaryRepo) ListSubProductAttrs(dbc dbctx.Context) ([]*types.SubProductAttr, error) {
	var out []*types.SubProductAttr
	if err := dbc.DB(r.db).Order("id_attr ASC").Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}
