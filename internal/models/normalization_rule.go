package models

import "time"

// NormalizationRule is a persisted mappings entry. Position keeps the
// declaration order of the imported file.
type NormalizationRule struct {
	ID             uint   `gorm:"primaryKey"`
	Position       int    `gorm:"not null;index"`
	Pattern        string `gorm:"not null"`
	CanonicalLabel string `gorm:"column:vacina_normalizada;not null"`
	Priority       *int
	CreatedAt      time.Time
}

func (NormalizationRule) TableName() string {
	return "normalization_rules"
}
