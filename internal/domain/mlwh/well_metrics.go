package mlwh

import (
	"time"

	"github.com/yungbote/langqc-backend/internal/identity"
)

// PacBioRunWellMetrics is one well as recorded by the tracking warehouse.
// The table is owned elsewhere; this service only reads it.
type PacBioRunWellMetrics struct {
	ID                 uint       `gorm:"column:id_pac_bio_rw_metrics_tmp;primaryKey;autoIncrement" json:"-"`
	RunName            string     `gorm:"column:pac_bio_run_name;size:255;not null;uniqueIndex:pac_bio_metrics_run_well,priority:1" json:"run_name"`
	WellLabel          string     `gorm:"column:well_label;size:255;not null;uniqueIndex:pac_bio_metrics_run_well,priority:2" json:"well_label"`
	PlateNumber        *int       `gorm:"column:plate_number;uniqueIndex:pac_bio_metrics_run_well,priority:3" json:"plate_number,omitempty"`
	InstrumentType     string     `gorm:"column:instrument_type;size:32;not null" json:"instrument_type"`
	InstrumentName     *string    `gorm:"column:instrument_name;size:32" json:"instrument_name,omitempty"`
	IDPacBioProduct    string     `gorm:"column:id_pac_bio_product;type:char(64);not null;uniqueIndex:pac_bio_metrics_product" json:"id_product"`
	RunStart           *time.Time `gorm:"column:run_start;index" json:"run_start,omitempty"`
	RunComplete        *time.Time `gorm:"column:run_complete" json:"run_complete,omitempty"`
	RunStatus          *string    `gorm:"column:run_status;size:32" json:"run_status,omitempty"`
	WellStart          *time.Time `gorm:"column:well_start" json:"well_start,omitempty"`
	WellComplete       *time.Time `gorm:"column:well_complete;index" json:"well_complete,omitempty"`
	WellStatus         *string    `gorm:"column:well_status;size:32;index" json:"well_status,omitempty"`
	CcsExecutionMode   *string    `gorm:"column:ccs_execution_mode;size:32" json:"ccs_execution_mode,omitempty"`
	PolymeraseNumReads *int64     `gorm:"column:polymerase_num_reads" json:"polymerase_num_reads,omitempty"`
	HifiNumReads       *int64     `gorm:"column:hifi_num_reads" json:"hifi_num_reads,omitempty"`
}

func (PacBioRunWellMetrics) TableName() string { return "pac_bio_run_well_metrics" }

func (w *PacBioRunWellMetrics) Coordinates() identity.Coordinates {
	return identity.Coordinates{RunName: w.RunName, WellLabel: w.WellLabel, PlateNumber: w.PlateNumber}
}

// Status returns the well status, "" when unset.
func (w *PacBioRunWellMetrics) Status() string {
	if w == nil || w.WellStatus == nil {
		return ""
	}
	return *w.WellStatus
}
