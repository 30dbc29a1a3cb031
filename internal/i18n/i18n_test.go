package i18n

import (
	"testing"
	"testing/fstest"
)

func TestNewManagerDefaultsToPortuguese(t *testing.T) {
	t.Parallel()

	manager, err := NewManager("")
	if err != nil {
		t.Fatalf("NewManager returned error: %v", err)
	}
	if manager.DefaultLanguage() != LangPT {
		t.Fatalf("expected pt default, got %q", manager.DefaultLanguage())
	}
	if got := manager.SupportedLanguages(); len(got) != 2 || got[0] != LangEN || got[1] != LangPT {
		t.Fatalf("unexpected supported languages %v", got)
	}
}

func TestDetectFromAcceptLanguage(t *testing.T) {
	t.Parallel()

	manager, err := NewManager(LangPT)
	if err != nil {
		t.Fatalf("NewManager returned error: %v", err)
	}

	tests := []struct {
		header string
		want   string
	}{
		{header: "", want: LangPT},
		{header: "en-US,en;q=0.9", want: LangEN},
		{header: "fr-FR, en_GB;q=0.5", want: LangEN},
		{header: "pt-BR", want: LangPT},
		{header: "de", want: LangPT},
	}
	for _, tc := range tests {
		if got := manager.DetectFromAcceptLanguage(tc.header); got != tc.want {
			t.Fatalf("DetectFromAcceptLanguage(%q) = %q, want %q", tc.header, got, tc.want)
		}
	}
}

func TestTranslateFallsBack(t *testing.T) {
	t.Parallel()

	locales := fstest.MapFS{
		"pt.json":   {Data: []byte(`{"greeting":"olá","only_pt":"só pt"}`)},
		"en.json":   {Data: []byte(`{"greeting":"hello"}`)},
		"notes.txt": {Data: []byte("ignored")},
	}
	manager, err := NewManagerFromFS("en", locales)
	if err != nil {
		t.Fatalf("NewManagerFromFS returned error: %v", err)
	}

	if got := manager.Translate("en", "greeting"); got != "hello" {
		t.Fatalf("expected hello, got %q", got)
	}
	if got := manager.Translate("es", "greeting"); got != "hello" {
		t.Fatalf("unsupported language must use the default, got %q", got)
	}
	if got := manager.Translate("en", "only_pt"); got != "only_pt" {
		t.Fatalf("keys missing in the default locale return the key, got %q", got)
	}
	if got := manager.Translate("pt", "only_pt"); got != "só pt" {
		t.Fatalf("expected pt text, got %q", got)
	}
}

func TestNewManagerFromFSRequiresLocales(t *testing.T) {
	t.Parallel()

	if _, err := NewManagerFromFS(LangPT, fstest.MapFS{"en.json": {Data: []byte(`{"a":"b"}`)}}); err == nil {
		t.Fatalf("expected error when pt locale is missing")
	}
	if _, err := NewManagerFromFS(LangPT, fstest.MapFS{
		"en.json": {Data: []byte(`{"a":"b"}`)},
		"pt.json": {Data: []byte(`{}`)},
	}); err == nil {
		t.Fatalf("expected error for empty locale")
	}
}
