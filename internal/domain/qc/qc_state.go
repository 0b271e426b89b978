package qc

import "time"

// QcState is the live state of one (product, QC type) pair.
type QcState struct {
	ID            uint      `gorm:"column:id_qc_state;primaryKey;autoIncrement" json:"-"`
	IDSeqProduct  uint      `gorm:"column:id_seq_product;not null;uniqueIndex:unique_qc_state,priority:1" json:"-"`
	IDQcType      uint      `gorm:"column:id_qc_type;not null;uniqueIndex:unique_qc_state,priority:2" json:"-"`
	IDUser        uint      `gorm:"column:id_user;not null;index" json:"-"`
	IDQcStateDict uint      `gorm:"column:id_qc_state_dict;not null;index" json:"-"`
	CreatedBy     string    `gorm:"column:created_by;size:20;not null" json:"created_by"`
	DateCreated   time.Time `gorm:"column:date_created;not null" json:"date_created"`
	DateUpdated   time.Time `gorm:"column:date_updated;not null;index" json:"date_updated"`
	IsPreliminary bool      `gorm:"column:is_preliminary;not null" json:"is_preliminary"`

	SeqProduct *SeqProduct  `gorm:"foreignKey:IDSeqProduct;references:ID" json:"-"`
	Type       *QcType      `gorm:"foreignKey:IDQcType;references:ID" json:"-"`
	User       *User        `gorm:"foreignKey:IDUser;references:ID" json:"-"`
	Dict       *QcStateDict `gorm:"foreignKey:IDQcStateDict;references:ID" json:"-"`
}

func (QcState) TableName() string { return "qc_state" }

// QcStateHist is an append-only copy of a QcState taken before it changed.
type QcStateHist struct {
	ID            uint      `gorm:"column:id_qc_state_hist;primaryKey;autoIncrement" json:"-"`
	IDSeqProduct  uint      `gorm:"column:id_seq_product;not null;index:idx_qc_state_hist_product_type,priority:1" json:"-"`
	IDQcType      uint      `gorm:"column:id_qc_type;not null;index:idx_qc_state_hist_product_type,priority:2" json:"-"`
	IDUser        uint      `gorm:"column:id_user;not null" json:"-"`
	IDQcStateDict uint      `gorm:"column:id_qc_state_dict;not null" json:"-"`
	CreatedBy     string    `gorm:"column:created_by;size:20;not null" json:"created_by"`
	DateCreated   time.Time `gorm:"column:date_created;not null" json:"date_created"`
	DateUpdated   time.Time `gorm:"column:date_updated;not null" json:"date_updated"`
	IsPreliminary bool      `gorm:"column:is_preliminary;not null" json:"is_preliminary"`

	User *User        `gorm:"foreignKey:IDUser;references:ID" json:"-"`
	Dict *QcStateDict `gorm:"foreignKey:IDQcStateDict;references:ID" json:"-"`
}

func (QcStateHist) TableName() string { return "qc_state_hist" }

// Snapshot copies the live values of s into a history row.
func (s *QcState) Snapshot() *QcStateHist {
	return &QcStateHist{
		IDSeqProduct:  s.IDSeqProduct,
		IDQcType:      s.IDQcType,
		IDUser:        s.IDUser,
		IDQcStateDict: s.IDQcStateDict,
		CreatedBy:     s.CreatedBy,
		DateCreated:   s.DateCreated,
		DateUpdated:   s.DateUpdated,
		IsPreliminary: s.IsPreliminary,
	}
}
