package services

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/terraincognita07/vacprev/internal/normalize"
)

type stubRuleStore struct {
	records  []normalize.RuleRecord
	countErr error
	replaced []normalize.RuleRecord
}

func (stub *stubRuleStore) Count() (int64, error) {
	return int64(len(stub.records)), stub.countErr
}

func (stub *stubRuleStore) RuleRecords() ([]normalize.RuleRecord, error) {
	return stub.records, nil
}

func (stub *stubRuleStore) ReplaceAll(records []normalize.RuleRecord) error {
	stub.replaced = records
	stub.records = records
	return nil
}

func writeMappings(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "mappings.json")
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("write mappings: %v", err)
	}
	return path
}

func TestRuleServiceLoadPrefersDatabase(t *testing.T) {
	t.Parallel()

	store := &stubRuleStore{records: []normalize.RuleRecord{{Pattern: "BCG", CanonicalLabel: "BCG"}}}
	path := writeMappings(t, `[{"pattern":"HEPATITE","vacina_normalizada":"Hepatite B"}]`)

	table, origin, err := NewRuleService(store, path, nil).Load()
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if origin != RuleOriginDatabase || table.Len() != 1 {
		t.Fatalf("expected one database rule, got origin=%s len=%d", origin, table.Len())
	}
	if label, ok := table.Match("BCG ID"); !ok || label != "BCG" {
		t.Fatalf("unexpected match %q %v", label, ok)
	}
}

func TestRuleServiceLoadFallsBackToFile(t *testing.T) {
	t.Parallel()

	path := writeMappings(t, `[{"pattern":"HEPATITE","vacina_normalizada":"Hepatite B"}]`)

	for _, store := range []RuleStore{nil, &stubRuleStore{}} {
		table, origin, err := NewRuleService(store, path, nil).Load()
		if err != nil {
			t.Fatalf("Load returned error: %v", err)
		}
		if origin != RuleOriginFile || table.Len() != 1 {
			t.Fatalf("expected one file rule, got origin=%s len=%d", origin, table.Len())
		}
	}
}

func TestRuleServiceLoadMissingFileIsEmpty(t *testing.T) {
	t.Parallel()

	table, _, err := NewRuleService(nil, filepath.Join(t.TempDir(), "absent.json"), nil).Load()
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if table.Len() != 0 {
		t.Fatalf("expected empty table, got %d", table.Len())
	}
}

func TestRuleServiceLoadCountError(t *testing.T) {
	t.Parallel()

	store := &stubRuleStore{countErr: errors.New("disk I/O error")}
	if _, _, err := NewRuleService(store, "", nil).Load(); err == nil {
		t.Fatalf("expected count error")
	}
}

func TestRuleServiceImport(t *testing.T) {
	t.Parallel()

	path := writeMappings(t, `[{"pattern":"A","vacina_normalizada":"a"},{"pattern":"B","vacina_normalizada":"b","priority":1}]`)
	store := &stubRuleStore{}

	count, err := NewRuleService(store, "", nil).Import(path)
	if err != nil {
		t.Fatalf("Import returned error: %v", err)
	}
	if count != 2 || len(store.replaced) != 2 || store.replaced[1].EffectivePriority() != 1 {
		t.Fatalf("unexpected import result count=%d replaced=%#v", count, store.replaced)
	}
}

func TestRuleServiceImportRejectsEmptyFile(t *testing.T) {
	t.Parallel()

	path := writeMappings(t, `[]`)
	if _, err := NewRuleService(&stubRuleStore{}, "", nil).Import(path); !errors.Is(err, ErrEmptyRuleFile) {
		t.Fatalf("expected ErrEmptyRuleFile, got %v", err)
	}
	if _, err := NewRuleService(nil, path, nil).Import(""); err == nil {
		t.Fatalf("expected error without a store")
	}
}
