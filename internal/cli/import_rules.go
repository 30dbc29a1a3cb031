// Package cli implements the maintenance commands of the vacprev binary.
package cli

import (
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/terraincognita07/vacprev/internal/db"
	"github.com/terraincognita07/vacprev/internal/services"
	"go.uber.org/zap"
)

// RunImportRulesCommand replaces the rules stored in dbPath with the records
// of mappingsPath.
func RunImportRulesCommand(dbPath string, mappingsPath string, out io.Writer, log *zap.Logger) error {
	mappingsPath = strings.TrimSpace(mappingsPath)
	if mappingsPath == "" {
		return errors.New("mappings file is required")
	}

	database, err := db.OpenSQLite(dbPath)
	if err != nil {
		return fmt.Errorf("database init failed: %w", err)
	}
	defer func() {
		_ = db.CloseSQLite(database)
	}()

	repositories := db.NewRepositories(database)
	count, err := services.NewRuleService(repositories.Rules, mappingsPath, log).Import(mappingsPath)
	if err != nil {
		return fmt.Errorf("import rules: %w", err)
	}

	fmt.Fprintf(out, "✅ Imported %d normalization rules from %s\n", count, mappingsPath)
	return nil
}
