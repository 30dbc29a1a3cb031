package db

import (
	"github.com/terraincognita07/vacprev/internal/models"
	"github.com/terraincognita07/vacprev/internal/normalize"
	"gorm.io/gorm"
)

type NormalizationRuleRepository struct {
	database *gorm.DB
}

func NewNormalizationRuleRepository(database *gorm.DB) *NormalizationRuleRepository {
	return &NormalizationRuleRepository{database: database}
}

func (repo *NormalizationRuleRepository) Count() (int64, error) {
	var count int64
	if err := repo.database.Model(&models.NormalizationRule{}).Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

// ListOrdered returns the stored rules in declaration order.
func (repo *NormalizationRuleRepository) ListOrdered() ([]models.NormalizationRule, error) {
	rules := make([]models.NormalizationRule, 0)
	if err := repo.database.Order("position ASC").Order("id ASC").Find(&rules).Error; err != nil {
		return nil, err
	}
	return rules, nil
}

// ReplaceAll swaps the stored rules for records in a single transaction.
func (repo *NormalizationRuleRepository) ReplaceAll(records []normalize.RuleRecord) error {
	return repo.database.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("1 = 1").Delete(&models.NormalizationRule{}).Error; err != nil {
			return err
		}
		if len(records) == 0 {
			return nil
		}

		rules := make([]models.NormalizationRule, 0, len(records))
		for index, record := range records {
			rules = append(rules, models.NormalizationRule{
				Position:       index,
				Pattern:        record.Pattern,
				CanonicalLabel: record.CanonicalLabel,
				Priority:       record.Priority,
			})
		}
		return tx.Create(&rules).Error
	})
}

// RuleRecords implements normalize.RuleSource.
func (repo *NormalizationRuleRepository) RuleRecords() ([]normalize.RuleRecord, error) {
	rules, err := repo.ListOrdered()
	if err != nil {
		return nil, err
	}

	records := make([]normalize.RuleRecord, 0, len(rules))
	for _, rule := range rules {
		records = append(records, normalize.RuleRecord{
			Pattern:        rule.Pattern,
			CanonicalLabel: rule.CanonicalLabel,
			Priority:       rule.Priority,
		})
	}
	return records, nil
}
