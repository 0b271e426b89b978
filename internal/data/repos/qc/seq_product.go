package qc

import (
	"fmt"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	types "github.com/yungbote/langqc-backend/internal/domain"
	"github.com/yungbote/langqc-backend/internal/pkg/dbctx"
	"github.com/yungbote/langqc-backend/internal/pkg/logger"
)

type SeqProductRepo interface {
	GetByProductID(dbc dbctx.Context, idProduct string) (*types.SeqProduct, error)
	GetByProductIDs(dbc dbctx.Context, idProducts []string) ([]*types.SeqProduct, error)
	GetByIDs(dbc dbctx.Context, ids []uint) ([]*types.SeqProduct, error)
	// FindOrCreate registers a product and its sub-products. Sub-products
	// are matched on their properties digest and shared between products.
	// An existing product is returned unchanged.
	FindOrCreate(dbc dbctx.Context, idProduct string, idSeqPlatform uint, subs []*types.SubProduct) (*types.SeqProduct, error)
}

type seqProductRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewSeqProductRepo(db *gorm.DB, baseLog *logger.Logger) SeqProductRepo {
	return &seqProductRepo{db: db, log: baseLog.With("repo", "SeqProductRepo")}
}

func (r *seqProductRepo) withLayouts(dbc dbctx.Context) *gorm.DB {
	return dbc.DB(r.db).Preload("Layouts", func(db *gorm.DB) *gorm.DB {
		return db.Order("id_product_layout ASC")
	}).Preload("Layouts.SubProduct")
}

func (r *seqProductRepo) GetByProductID(dbc dbctx.Context, idProduct string) (*types.SeqProduct, error) {
	if idProduct == "" {
		return nil, nil
	}
	var row types.SeqProduct
	if err := r.withLayouts(dbc).Where("id_product = ?", idProduct).Limit(1).Find(&row).Error; err != nil {
		return nil, err
	}
	if row.ID == 0 {
		return nil, nil
	}
	return &row, nil
}

func (r *seqProductRepo) GetByProductIDs(dbc dbctx.Context, idProducts []string) ([]*types.SeqProduct, error) {
	var out []*types.SeqProduct
	if len(idProducts) == 0 {
		return out, nil
	}
	if err := r.withLayouts(dbc).Where("id_product IN ?", idProducts).Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

func (r *seqProductRepo) GetByIDs(dbc dbctx.Context, ids []uint) ([]*types.SeqProduct, error) {
	var out []*types.SeqProduct
	if len(ids) == 0 {
		return out, nil
	}
	if err := r.withLayouts(dbc).Where("id_seq_product IN ?", ids).Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

func (r *seqProductRepo) FindOrCreate(dbc dbctx.Context, idProduct string, idSeqPlatform uint, subs []*types.SubProduct) (*types.SeqProduct, error) {
	if existing, err := r.GetByProductID(dbc, idProduct); err != nil || existing != nil {
		return existing, err
	}
	if len(subs) == 0 {
		return nil, fmt.Errorf("product %s has no sub-products", idProduct)
	}

	t := dbc.DB(r.db)
	subIDs := make([]uint, 0, len(subs))
	for _, sp := range subs {
		if err := t.Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "properties_digest"}},
			DoNothing: true,
		}).Create(sp).Error; err != nil {
			return nil, fmt.Errorf("create sub_product: %w", err)
		}
		var stored types.SubProduct
		if err := t.Where("properties_digest = ?", sp.PropertiesDigest).Limit(1).Find(&stored).Error; err != nil {
			return nil, err
		}
		if stored.ID == 0 {
			return nil, fmt.Errorf("sub_product %s not found after insert", sp.PropertiesDigest)
		}
		subIDs = append(subIDs, stored.ID)
	}

	product := &types.SeqProduct{IDProduct: idProduct, IDSeqPlatform: idSeqPlatform, HasSeqData: true}
	if err := t.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "id_product"}},
		DoNothing: true,
	}).Create(product).Error; err != nil {
		return nil, fmt.Errorf("create seq_product: %w", err)
	}
	stored, err := r.GetByProductID(dbc, idProduct)
	if err != nil {
		return nil, err
	}
	if stored == nil {
		return nil, fmt.Errorf("seq_product %s not found after insert", idProduct)
	}

	for _, subID := range subIDs {
		layout := &types.ProductLayout{IDSeqProduct: stored.ID, IDSubProduct: subID}
		if err := t.Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "id_seq_product"}, {Name: "id_sub_product"}},
			DoNothing: true,
		}).Create(layout).Error; err != nil {
			return nil, fmt.Errorf("create product_layout: %w", err)
		}
	}
	return r.GetByProductID(dbc, idProduct)
}
