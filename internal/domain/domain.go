package domain

import (
	"github.com/yungbote/langqc-backend/internal/domain/mlwh"
	"github.com/yungbote/langqc-backend/internal/domain/qc"
)

type QcType = qc.QcType
type QcStateDict = qc.QcStateDict
type SeqPlatform = qc.SeqPlatform
type SubProductAttr = qc.SubProductAttr
type User = qc.User
type SeqProduct = qc.SeqProduct
type SubProduct = qc.SubProduct
type ProductLayout = qc.ProductLayout
type QcState = qc.QcState
type QcStateHist = qc.QcStateHist

type PacBioRunWellMetrics = mlwh.PacBioRunWellMetrics

// QCModels lists the tables owned by the QC store, in migration order.
func QCModels() []any {
	return []any{
		&QcType{},
		&QcStateDict{},
		&SeqPlatform{},
		&SubProductAttr{},
		&User{},
		&SeqProduct{},
		&SubProduct{},
		&ProductLayout{},
		&QcState{},
		&QcStateHist{},
	}
}

// MLWHModels lists the tracking store tables this service reads.
func MLWHModels() []any {
	return []any{&PacBioRunWellMetrics{}}
}
