package qc

import "gorm.io/datatypes"

// SeqProduct is a QC-able product, keyed by its immutable checksum.
type SeqProduct struct {
	ID            uint            `gorm:"column:id_seq_product;primaryKey;autoIncrement" json:"-"`
	IDProduct     string          `gorm:"column:id_product;type:char(64);not null;uniqueIndex:unique_seq_product" json:"id_product"`
	IDSeqPlatform uint            `gorm:"column:id_seq_platform;not null;index" json:"-"`
	HasSeqData    bool            `gorm:"column:has_seq_data;not null" json:"has_seq_data"`
	Layouts       []ProductLayout `gorm:"foreignKey:IDSeqProduct;references:ID" json:"layouts,omitempty"`
}

func (SeqProduct) TableName() string { return "seq_product" }

// SubProduct is a coordinate tuple. Several products may share one.
type SubProduct struct {
	ID               uint           `gorm:"column:id_sub_product;primaryKey;autoIncrement" json:"-"`
	IDAttrOne        uint           `gorm:"column:id_attr_one;not null" json:"-"`
	ValueAttrOne     string         `gorm:"column:value_attr_one;size:63;not null;index" json:"value_attr_one"`
	IDAttrTwo        uint           `gorm:"column:id_attr_two;not null" json:"-"`
	ValueAttrTwo     string         `gorm:"column:value_attr_two;size:63;not null;index" json:"value_attr_two"`
	IDAttrThree      *uint          `gorm:"column:id_attr_three" json:"-"`
	ValueAttrThree   *string        `gorm:"column:value_attr_three;size:63" json:"value_attr_three,omitempty"`
	Properties       datatypes.JSON `gorm:"column:properties;not null" json:"properties"`
	PropertiesDigest string         `gorm:"column:properties_digest;type:char(64);not null;uniqueIndex:unique_sub_product" json:"properties_digest"`
	Tags             *string        `gorm:"column:tags;size:255" json:"tags,omitempty"`
}

func (SubProduct) TableName() string { return "sub_product" }

type ProductLayout struct {
	ID           uint        `gorm:"column:id_product_layout;primaryKey;autoIncrement" json:"-"`
	IDSeqProduct uint        `gorm:"column:id_seq_product;not null;uniqueIndex:unique_product_layout,priority:1" json:"-"`
	IDSubProduct uint        `gorm:"column:id_sub_product;not null;uniqueIndex:unique_product_layout,priority:2" json:"-"`
	SubProduct   *SubProduct `gorm:"foreignKey:IDSubProduct;references:ID" json:"sub_product,omitempty"`
}

func (ProductLayout) TableName() string { return "product_layout" }
