package services

import (
	"fmt"
	"strconv"

	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/yungbote/langqc-backend/internal/data/repos"
	types "github.com/yungbote/langqc-backend/internal/domain"
	"github.com/yungbote/langqc-backend/internal/identity"
	"github.com/yungbote/langqc-backend/internal/pkg/dbctx"
	apperrors "github.com/yungbote/langqc-backend/internal/pkg/errors"
	"github.com/yungbote/langqc-backend/internal/pkg/logger"
)

const (
	platformPacBio = "PacBio"

	attrRunName     = "run_name"
	attrWellLabel   = "well_label"
	attrPlateNumber = "plate_number"
)

// ProductRegistry maps product checksums to QC store products. Products
// are only ever added; an existing checksum is never rewritten.
type ProductRegistry interface {
	Get(dbc dbctx.Context, id identity.ProductID) (*types.SeqProduct, error)
	GetMany(dbc dbctx.Context, ids []identity.ProductID) ([]*types.SeqProduct, error)
	// FindOrCreate registers an unknown product from its tracking store
	// coordinates. A product the tracking store does not know is NotFound.
	FindOrCreate(dbc dbctx.Context, id identity.ProductID) (*types.SeqProduct, error)
}

type productRegistry struct {
	db       *gorm.DB
	log      *logger.Logger
	products repos.SeqProductRepo
	dict     repos.DictionaryRepo
	tracking TrackingStore
}

func NewProductRegistry(db *gorm.DB, log *logger.Logger, products repos.SeqProductRepo, dict repos.DictionaryRepo, tracking TrackingStore) ProductRegistry {
	return &productRegistry{
		db:       db,
		log:      log.With("service", "ProductRegistry"),
		products: products,
		dict:     dict,
		tracking: tracking,
	}
}

func (r *productRegistry) Get(dbc dbctx.Context, id identity.ProductID) (*types.SeqProduct, error) {
	return r.products.GetByProductID(dbc, id.String())
}

func (r *productRegistry) GetMany(dbc dbctx.Context, ids []identity.ProductID) ([]*types.SeqProduct, error) {
	raw := make([]string, 0, len(ids))
	for _, id := range ids {
		raw = append(raw, id.String())
	}
	return r.products.GetByProductIDs(dbc, raw)
}

func (r *productRegistry) FindOrCreate(dbc dbctx.Context, id identity.ProductID) (*types.SeqProduct, error) {
	existing, err := r.Get(dbc, id)
	if err != nil {
		return nil, fmt.Errorf("lookup product: %w", err)
	}
	if existing != nil {
		return existing, nil
	}

	well, err := r.tracking.WellByProductID(dbc.Ctx, id)
	if err != nil {
		return nil, fmt.Errorf("lookup tracking record: %w", err)
	}
	if well == nil {
		return nil, apperrors.NotFound("product %s is not in the tracking store", id)
	}

	platform, err := r.dict.GetSeqPlatform(dbc, platformPacBio)
	if err != nil {
		return nil, err
	}
	if platform == nil {
		return nil, fmt.Errorf("sequencing platform %q is not in the dictionary", platformPacBio)
	}
	sub, err := r.subProductFor(dbc, well.Coordinates())
	if err != nil {
		return nil, err
	}

	p, err := r.products.FindOrCreate(dbc, id.String(), platform.ID, []*types.SubProduct{sub})
	if err != nil {
		return nil, fmt.Errorf("register product: %w", err)
	}
	r.log.Info("registered product", "id_product", id, "run_name", well.RunName, "well_label", well.WellLabel)
	return p, nil
}

func (r *productRegistry) subProductFor(dbc dbctx.Context, c identity.Coordinates) (*types.SubProduct, error) {
	attrs, err := r.dict.ListSubProductAttrs(dbc)
	if err != nil {
		return nil, err
	}
	ids := make(map[string]uint, len(attrs))
	for _, a := range attrs {
		ids[a.AttrName] = a.ID
	}
	for _, name := range []string{attrRunName, attrWellLabel, attrPlateNumber} {
		if ids[name] == 0 {
			return nil, fmt.Errorf("sub-product attribute %q is not in the dictionary", name)
		}
	}

	sp := &types.SubProduct{
		IDAttrOne:        ids[attrRunName],
		ValueAttrOne:     c.RunName,
		IDAttrTwo:        ids[attrWellLabel],
		ValueAttrTwo:     c.WellLabel,
		Properties:       datatypes.JSON([]byte(c.JSON())),
		PropertiesDigest: c.Digest(),
	}
	if c.PlateNumber != nil {
		attr := ids[attrPlateNumber]
		v := strconv.Itoa(*c.PlateNumber)
		sp.IDAttrThree = &attr
		sp.ValueAttrThree = &v
	}
	if c.Tags != "" {
		tags := c.Tags
		sp.Tags = &tags
	}
	return sp, nil
}

// coordinatesOf recovers coordinates from a product's first layout.
func coordinatesOf(p *types.SeqProduct) (identity.Coordinates, bool) {
	if p == nil {
		return identity.Coordinates{}, false
	}
	for _, l := range p.Layouts {
		if l.SubProduct == nil {
			continue
		}
		c := identity.Coordinates{RunName: l.SubProduct.ValueAttrOne, WellLabel: l.SubProduct.ValueAttrTwo}
		if v := l.SubProduct.ValueAttrThree; v != nil {
			if n, err := strconv.Atoi(*v); err == nil {
				c.PlateNumber = &n
			}
		}
		if l.SubProduct.Tags != nil {
			c.Tags = *l.SubProduct.Tags
		}
		return c, true
	}
	return identity.Coordinates{}, false
}
