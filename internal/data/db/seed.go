package db

import (
	_ "embed"
	"fmt"

	"gopkg.in/yaml.v3"
	"gorm.io/gorm"

	types "github.com/yungbote/langqc-backend/internal/domain"
)

//go:embed dictionary.yaml
var dictionaryYAML []byte

type ReferenceData struct {
	QcTypes []struct {
		Name        string `yaml:"name"`
		Description string `yaml:"description"`
	} `yaml:"qc_types"`
	QcStates []struct {
		State           string `yaml:"state"`
		Outcome         *int8  `yaml:"outcome"`
		OnlyPreliminary bool   `yaml:"only_preliminary"`
	} `yaml:"qc_states"`
	SeqPlatforms []struct {
		Name        string `yaml:"name"`
		Description string `yaml:"description"`
	} `yaml:"seq_platforms"`
	SubProductAttrs []struct {
		Name        string `yaml:"name"`
		Description string `yaml:"description"`
	} `yaml:"sub_product_attrs"`
}

// LoadReferenceData parses the embedded reference data.
func LoadReferenceData() (*ReferenceData, error) {
	var ref ReferenceData
	if err := yaml.Unmarshal(dictionaryYAML, &ref); err != nil {
		return nil, fmt.Errorf("parse reference data: %w", err)
	}
	return &ref, nil
}

// SeedReferenceData inserts missing reference rows in definition order.
// Existing rows are left untouched.
func SeedReferenceData(db *gorm.DB) error {
	ref, err := LoadReferenceData()
	if err != nil {
		return err
	}
	return db.Transaction(func(tx *gorm.DB) error {
		for _, t := range ref.QcTypes {
			row := types.QcType{QcType: t.Name, Description: t.Description}
			if err := tx.Where("qc_type = ?", t.Name).FirstOrCreate(&row).Error; err != nil {
				return fmt.Errorf("seed qc_type %q: %w", t.Name, err)
			}
		}
		for _, s := range ref.QcStates {
			row := types.QcStateDict{State: s.State, Outcome: s.Outcome, OnlyPreliminary: s.OnlyPreliminary}
			if err := tx.Where("state = ?", s.State).FirstOrCreate(&row).Error; err != nil {
				return fmt.Errorf("seed qc_state_dict %q: %w", s.State, err)
			}
		}
		for _, p := range ref.SeqPlatforms {
			row := types.SeqPlatform{Name: p.Name, Description: p.Description, IsCurrent: true}
			if err := tx.Where("name = ?", p.Name).FirstOrCreate(&row).Error; err != nil {
				return fmt.Errorf("seed seq_platform %q: %w", p.Name, err)
			}
		}
		for _, a := range ref.SubProductAttrs {
			row := types.SubProductAttr{AttrName: a.Name, Description: a.Description}
			if err := tx.Where("attr_name = ?", a.Name).FirstOrCreate(&row).Error; err != nil {
				return fmt.Errorf("seed sub_product_attr %q: %w", a.Name, err)
			}
		}
		return nil
	})
}
