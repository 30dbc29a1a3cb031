package cli

import (
	"fmt"
	"io"
	"strings"

	"github.com/terraincognita07/vacprev/internal/normalize"
)

const (
	NormalizeKindInsumo = "insumo"
	NormalizeKindSigla  = "sigla"
)

// RunNormalizeCommand prints the canonical form of each text, or "-" when
// there is none.
func RunNormalizeCommand(normalizer *normalize.Normalizer, kind string, texts []string, out io.Writer) error {
	var normalizeText func(string) (string, bool)
	switch strings.ToLower(strings.TrimSpace(kind)) {
	case NormalizeKindInsumo:
		normalizeText = normalizer.NormalizeInsumo
	case NormalizeKindSigla:
		normalizeText = normalizer.NormalizeSigla
	default:
		return fmt.Errorf("unknown kind %q (want %s or %s)", kind, NormalizeKindInsumo, NormalizeKindSigla)
	}

	for _, text := range texts {
		label, ok := normalizeText(text)
		if !ok {
			label = "-"
		}
		fmt.Fprintf(out, "%s\t%s\n", text, label)
	}
	return nil
}
