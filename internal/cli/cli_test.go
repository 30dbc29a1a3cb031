package cli

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/terraincognita07/vacprev/internal/db"
	"github.com/terraincognita07/vacprev/internal/normalize"
)

func TestRunImportRulesCommand(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	mappingsPath := filepath.Join(dir, "mappings.yaml")
	content := "- pattern: FEBRE AMARELA\n  vacina_normalizada: Febre Amarela\n- pattern: BCG\n  vacina_normalizada: BCG\n  priority: 5\n"
	if err := os.WriteFile(mappingsPath, []byte(content), 0o600); err != nil {
		t.Fatalf("write mappings: %v", err)
	}
	dbPath := filepath.Join(dir, "vacprev.db")

	var out bytes.Buffer
	if err := RunImportRulesCommand(dbPath, mappingsPath, &out, nil); err != nil {
		t.Fatalf("RunImportRulesCommand returned error: %v", err)
	}
	if !strings.Contains(out.String(), "Imported 2 normalization rules") {
		t.Fatalf("unexpected output %q", out.String())
	}

	database, err := db.OpenSQLite(dbPath)
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	t.Cleanup(func() {
		_ = db.CloseSQLite(database)
	})

	records, err := db.NewNormalizationRuleRepository(database).RuleRecords()
	if err != nil {
		t.Fatalf("RuleRecords returned error: %v", err)
	}
	if len(records) != 2 || records[0].Pattern != "FEBRE AMARELA" || records[1].EffectivePriority() != 5 {
		t.Fatalf("unexpected stored records %#v", records)
	}
}

func TestRunImportRulesCommandRequiresFile(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	if err := RunImportRulesCommand(filepath.Join(dir, "a.db"), " ", &bytes.Buffer{}, nil); err == nil {
		t.Fatal("expected error for empty mappings path")
	}
	if err := RunImportRulesCommand(filepath.Join(dir, "b.db"), filepath.Join(dir, "missing.json"), &bytes.Buffer{}, nil); err == nil {
		t.Fatal("expected error for missing mappings file")
	}
}

func TestRunDBCheckCommandRequiresDSN(t *testing.T) {
	t.Parallel()

	if err := RunDBCheckCommand(context.Background(), "", &bytes.Buffer{}); err == nil {
		t.Fatal("expected error for empty dsn")
	}
}

func TestRunNormalizeCommand(t *testing.T) {
	t.Parallel()

	normalizer := normalize.New(normalize.NewRuleTable([]normalize.RuleRecord{
		{Pattern: "FEBRE AMARELA", CanonicalLabel: "Febre Amarela"},
	}))

	var out bytes.Buffer
	if err := RunNormalizeCommand(normalizer, "insumo", []string{"VACINA FEBRE AMARELA", "SERINGA"}, &out); err != nil {
		t.Fatalf("RunNormalizeCommand returned error: %v", err)
	}
	if want := "VACINA FEBRE AMARELA\tFebre Amarela\nSERINGA\t-\n"; out.String() != want {
		t.Fatalf("unexpected output %q, want %q", out.String(), want)
	}

	out.Reset()
	if err := RunNormalizeCommand(normalizer, "SIGLA", []string{"SES/BA"}, &out); err != nil {
		t.Fatalf("RunNormalizeCommand returned error: %v", err)
	}
	if out.String() != "SES/BA\tBA\n" {
		t.Fatalf("unexpected sigla output %q", out.String())
	}

	if err := RunNormalizeCommand(normalizer, "municipio", nil, &out); err == nil {
		t.Fatal("expected error for unknown kind")
	}
}
