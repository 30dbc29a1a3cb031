package normalize

import (
	"regexp"
	"strings"

	"golang.org/x/text/unicode/norm"
)

// CovidLabel is returned for SARS-COV2 / COVID-19 descriptions that no rule
// claimed.
const CovidLabel = "Covid-19"

const diluentMarker = "DILUENTE"

var (
	diluentVaccinePattern = regexp.MustCompile(`VACINA(?:\s*(?:P/|PARA|CONTRA)\s*)?(.*)$`)
	diluentPrefixPattern  = regexp.MustCompile(`(?s)^.*?DILUENTE`)
	diluentNoisePattern   = regexp.MustCompile(`[-(),\p{Nd}]`)
	covidPattern          = regexp.MustCompile(`(?i)SARS[- ]?COV2|COVID[- ]?19`)
)

// Normalizer maps free-text supply descriptions and region codes to their
// canonical labels. It is safe for concurrent use.
type Normalizer struct {
	rules *RuleTable
}

func New(rules *RuleTable) *Normalizer {
	if rules == nil {
		rules = NewRuleTable(nil)
	}
	return &Normalizer{rules: rules}
}

func (normalizer *Normalizer) Rules() *RuleTable {
	return normalizer.rules
}

// NormalizeSigla is the package-level NormalizeSigla.
func (normalizer *Normalizer) NormalizeSigla(text string) (string, bool) {
	return NormalizeSigla(text)
}

// NormalizeInsumo returns the canonical label for a supply description.
// Rules are tried first, then the vaccine name embedded in diluent
// descriptions, then the Covid-19 keyword fallback.
func (normalizer *Normalizer) NormalizeInsumo(text string) (string, bool) {
	if text == "" {
		return "", false
	}

	trimmed := norm.NFC.String(strings.TrimSpace(text))
	if label, ok := normalizer.rules.Match(trimmed); ok {
		return label, true
	}

	if candidate := diluentCandidate(trimmed); candidate != "" {
		if label, ok := normalizer.rules.Match(candidate); ok {
			return label, true
		}
	}

	if covidPattern.MatchString(trimmed) {
		return CovidLabel, true
	}
	return "", false
}

// diluentCandidate extracts the vaccine name from descriptions such as
// "DILUENTE P/ VACINA FEBRE AMARELA (10 DOSES)".
func diluentCandidate(text string) string {
	upper := strings.ToUpper(text)
	if !strings.Contains(upper, diluentMarker) {
		return ""
	}

	var candidate string
	if matches := diluentVaccinePattern.FindStringSubmatch(upper); len(matches) == 2 {
		candidate = matches[1]
	} else {
		candidate = diluentPrefixPattern.ReplaceAllString(upper, "")
	}

	candidate = diluentNoisePattern.ReplaceAllString(strings.TrimSpace(candidate), "")
	return strings.TrimSpace(candidate)
}
