package services

import (
	"time"

	types "github.com/yungbote/langqc-backend/internal/domain"
	"github.com/yungbote/langqc-backend/internal/identity"
)

// QcStateView is a QC state (live or historical) resolved against the
// dictionary, ready to be returned to a caller.
type QcStateView struct {
	ProductID         identity.ProductID `json:"id_product"`
	User              string             `json:"user"`
	DateCreated       time.Time          `json:"date_created"`
	DateUpdated       time.Time          `json:"date_updated"`
	QcType            string             `json:"qc_type"`
	QcTypeDescription string             `json:"qc_type_description"`
	QcState           string             `json:"qc_state"`
	IsPreliminary     bool               `json:"is_preliminary"`
	Outcome           Outcome            `json:"outcome"`
	CreatedBy         string             `json:"created_by"`

	Coordinates *identity.Coordinates `json:"-"`
}

func (d *Dictionary) viewOf(id identity.ProductID, username string, idQcType, idQcStateDict uint, preliminary bool, createdBy string, created, updated time.Time) *QcStateView {
	v := &QcStateView{
		ProductID:     id,
		User:          username,
		DateCreated:   created,
		DateUpdated:   updated,
		IsPreliminary: preliminary,
		CreatedBy:     createdBy,
		Outcome:       OutcomeUndetermined,
	}
	if t, ok := d.QcTypeByID(idQcType); ok {
		v.QcType = t.Name
		v.QcTypeDescription = t.Description
	}
	if s, ok := d.QcStateByID(idQcStateDict); ok {
		v.QcState = s.Name
		v.Outcome = s.Outcome
	}
	return v
}

// stateView expects the SeqProduct and User associations to be loaded; the
// fallbacks are used when they are not.
func (d *Dictionary) stateView(row *types.QcState, id identity.ProductID, username string) *QcStateView {
	if row.SeqProduct != nil && row.SeqProduct.IDProduct != "" {
		id = identity.ProductID(row.SeqProduct.IDProduct)
	}
	if row.User != nil {
		username = row.User.Username
	}
	v := d.viewOf(id, username, row.IDQcType, row.IDQcStateDict, row.IsPreliminary, row.CreatedBy, row.DateCreated, row.DateUpdated)
	if c, ok := coordinatesOf(row.SeqProduct); ok {
		v.Coordinates = &c
	}
	return v
}

func (d *Dictionary) histView(row *types.QcStateHist, id identity.ProductID) *QcStateView {
	username := ""
	if row.User != nil {
		username = row.User.Username
	}
	return d.viewOf(id, username, row.IDQcType, row.IDQcStateDict, row.IsPreliminary, row.CreatedBy, row.DateCreated, row.DateUpdated)
}

func withCoordinates(v *QcStateView, p *types.SeqProduct) *QcStateView {
	if c, ok := coordinatesOf(p); ok {
		v.Coordinates = &c
	}
	return v
}
