package qc

// QcType is a category of QC tracked independently per product.
type QcType struct {
	ID          uint   `gorm:"column:id_qc_type;primaryKey;autoIncrement" json:"-"`
	QcType      string `gorm:"column:qc_type;size:10;not null;uniqueIndex:unique_qc_type" json:"qc_type"`
	Description string `gorm:"column:description;size:255;not null" json:"description"`
}

func (QcType) TableName() string { return "qc_type" }

// QcStateDict is a controlled QC state value. Outcome is 1 for pass, 0 for
// fail, nil when undetermined.
type QcStateDict struct {
	ID              uint   `gorm:"column:id_qc_state_dict;primaryKey;autoIncrement" json:"-"`
	State           string `gorm:"column:state;size:255;not null;uniqueIndex:unique_qc_state_dict" json:"state"`
	Outcome         *int8  `gorm:"column:outcome" json:"outcome"`
	OnlyPreliminary bool   `gorm:"column:only_preliminary;not null" json:"only_preliminary"`
}

func (QcStateDict) TableName() string { return "qc_state_dict" }

type SeqPlatform struct {
	ID          uint   `gorm:"column:id_seq_platform;primaryKey;autoIncrement" json:"-"`
	Name        string `gorm:"column:name;size:10;not null;uniqueIndex:unique_seq_platform" json:"name"`
	Description string `gorm:"column:description;size:255;not null" json:"description"`
	IsCurrent   bool   `gorm:"column:iscurrent;not null" json:"iscurrent"`
}

func (SeqPlatform) TableName() string { return "seq_platform" }

type SubProductAttr struct {
	ID          uint   `gorm:"column:id_attr;primaryKey;autoIncrement" json:"-"`
	AttrName    string `gorm:"column:attr_name;size:20;not null;uniqueIndex:unique_sub_product_attr" json:"attr_name"`
	Description string `gorm:"column:description;size:255;not null" json:"description"`
}

func (SubProductAttr) TableName() string { return "sub_product_attr" }
