package services

import (
	"errors"
	"fmt"

	"github.com/terraincognita07/vacprev/internal/logger"
	"github.com/terraincognita07/vacprev/internal/normalize"
	"go.uber.org/zap"
)

var ErrEmptyRuleFile = errors.New("rule file has no records")

const (
	RuleOriginDatabase = "database"
	RuleOriginFile     = "file"
)

type RuleStore interface {
	Count() (int64, error)
	RuleRecords() ([]normalize.RuleRecord, error)
	ReplaceAll(records []normalize.RuleRecord) error
}

type RuleService struct {
	store        RuleStore
	mappingsPath string
	log          *zap.Logger
}

// NewRuleService accepts a nil store; rules then come from mappingsPath only.
func NewRuleService(store RuleStore, mappingsPath string, log *zap.Logger) *RuleService {
	return &RuleService{store: store, mappingsPath: mappingsPath, log: logger.OrNop(log)}
}

// Load returns the rule table from the database when it holds rules and
// from the mappings file otherwise, along with the origin used.
func (service *RuleService) Load() (*normalize.RuleTable, string, error) {
	if service.store != nil {
		count, err := service.store.Count()
		if err != nil {
			return nil, "", fmt.Errorf("count stored rules: %w", err)
		}
		if count > 0 {
			table, err := normalize.LoadRuleTable(service.store)
			if err != nil {
				return nil, "", fmt.Errorf("load stored rules: %w", err)
			}
			service.log.Info("normalization rules loaded", zap.String("origin", RuleOriginDatabase), zap.Int("rules", table.Len()))
			return table, RuleOriginDatabase, nil
		}
	}

	table, err := normalize.LoadRuleFile(service.mappingsPath)
	if err != nil {
		return nil, "", err
	}
	if table.Len() == 0 {
		service.log.Warn("no normalization rules loaded", zap.String("path", service.mappingsPath))
	} else {
		service.log.Info("normalization rules loaded", zap.String("origin", RuleOriginFile), zap.String("path", service.mappingsPath), zap.Int("rules", table.Len()))
	}
	return table, RuleOriginFile, nil
}

// Import replaces the stored rules with the records of path.
func (service *RuleService) Import(path string) (int, error) {
	if service.store == nil {
		return 0, errors.New("rule store is not available")
	}
	if path == "" {
		path = service.mappingsPath
	}

	records, err := normalize.FileSource{Path: path}.RuleRecords()
	if err != nil {
		return 0, err
	}
	if len(records) == 0 {
		return 0, fmt.Errorf("%w: %s", ErrEmptyRuleFile, path)
	}
	if err := service.store.ReplaceAll(records); err != nil {
		return 0, fmt.Errorf("store rules: %w", err)
	}
	return len(records), nil
}
