package testutil

import (
	"context"
	"strconv"
	"testing"
	"time"

	"gorm.io/datatypes"
	"gorm.io/gorm"

	types "github.com/yungbote/langqc-backend/internal/domain"
	"github.com/yungbote/langqc-backend/internal/identity"
)

func SeedUser(tb testing.TB, ctx context.Context, tx *gorm.DB, username string) *types.User {
	tb.Helper()
	now := time.Now().UTC()
	u := &types.User{Username: username, IsCurrent: true, DateCreated: now, DateUpdated: now}
	if err := tx.WithContext(ctx).Create(u).Error; err != nil {
		tb.Fatalf("seed user: %v", err)
	}
	return u
}

// SeedWell inserts a tracking store row. The product id is derived from the
// coordinates when not set.
func SeedWell(tb testing.TB, ctx context.Context, tx *gorm.DB, w *types.PacBioRunWellMetrics) *types.PacBioRunWellMetrics {
	tb.Helper()
	if w.IDPacBioProduct == "" {
		id, err := identity.NewPacBioResolver().ProductID(w.Coordinates())
		if err != nil {
			tb.Fatalf("product id: %v", err)
		}
		w.IDPacBioProduct = id.String()
	}
	if w.InstrumentType == "" {
		w.InstrumentType = "Revio"
	}
	if err := tx.WithContext(ctx).Create(w).Error; err != nil {
		tb.Fatalf("seed well: %v", err)
	}
	return w
}

// SeedProduct registers a product for the well with a single sub-product.
func SeedProduct(tb testing.TB, ctx context.Context, tx *gorm.DB, w *types.PacBioRunWellMetrics) *types.SeqProduct {
	tb.Helper()
	t := tx.WithContext(ctx)

	var platform types.SeqPlatform
	if err := t.Where("name = ?", "PacBio").First(&platform).Error; err != nil {
		tb.Fatalf("platform: %v", err)
	}
	attrs := map[string]uint{}
	var rows []types.SubProductAttr
	if err := t.Find(&rows).Error; err != nil {
		tb.Fatalf("attrs: %v", err)
	}
	for _, a := range rows {
		attrs[a.AttrName] = a.ID
	}

	c := w.Coordinates()
	sp := &types.SubProduct{
		IDAttrOne:        attrs["run_name"],
		ValueAttrOne:     c.RunName,
		IDAttrTwo:        attrs["well_label"],
		ValueAttrTwo:     c.WellLabel,
		Properties:       datatypes.JSON([]byte(c.JSON())),
		PropertiesDigest: c.Digest(),
	}
	if c.PlateNumber != nil {
		id := attrs["plate_number"]
		v := strconv.Itoa(*c.PlateNumber)
		sp.IDAttrThree, sp.ValueAttrThree = &id, &v
	}
	if err := t.Create(sp).Error; err != nil {
		tb.Fatalf("seed sub_product: %v", err)
	}
	p := &types.SeqProduct{IDProduct: w.IDPacBioProduct, IDSeqPlatform: platform.ID, HasSeqData: true}
	if err := t.Create(p).Error; err != nil {
		tb.Fatalf("seed seq_product: %v", err)
	}
	if err := t.Create(&types.ProductLayout{IDSeqProduct: p.ID, IDSubProduct: sp.ID}).Error; err != nil {
		tb.Fatalf("seed product_layout: %v", err)
	}
	return p
}

// SeedQcState writes a live QC state row directly, bypassing the ledger.
func SeedQcState(tb testing.TB, ctx context.Context, tx *gorm.DB, p *types.SeqProduct, u *types.User, qcType, state string, preliminary bool, updated time.Time) *types.QcState {
	tb.Helper()
	t := tx.WithContext(ctx)
	var qt types.QcType
	if err := t.Where("qc_type = ?", qcType).First(&qt).Error; err != nil {
		tb.Fatalf("qc type %q: %v", qcType, err)
	}
	var sd types.QcStateDict
	if err := t.Where("state = ?", state).First(&sd).Error; err != nil {
		tb.Fatalf("qc state %q: %v", state, err)
	}
	row := &types.QcState{
		IDSeqProduct:  p.ID,
		IDQcType:      qt.ID,
		IDUser:        u.ID,
		IDQcStateDict: sd.ID,
		CreatedBy:     "LangQC",
		DateCreated:   updated,
		DateUpdated:   updated,
		IsPreliminary: preliminary,
	}
	if err := t.Create(row).Error; err != nil {
		tb.Fatalf("seed qc_state: %v", err)
	}
	return row
}
