package db

import "gorm.io/gorm"

type Repositories struct {
	Rules *NormalizationRuleRepository
}

func NewRepositories(database *gorm.DB) *Repositories {
	return &Repositories{
		Rules: NewNormalizationRuleRepository(database),
	}
}
