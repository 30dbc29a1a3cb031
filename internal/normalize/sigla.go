package normalize

import (
	"regexp"
	"strings"
)

var (
	siglaPrefixPattern = regexp.MustCompile(`^SES[-\s./]*`)
	siglaSuffixPattern = regexp.MustCompile(`([A-Z]{2})$`)
)

// NormalizeSigla reduces a region code such as "SES-SP" or "ses./rj" to its
// two-letter form. It reports false when nothing is left after cleanup.
func NormalizeSigla(text string) (string, bool) {
	if text == "" {
		return "", false
	}

	value := strings.ToUpper(strings.TrimSpace(text))
	value = siglaPrefixPattern.ReplaceAllString(value, "")
	if matches := siglaSuffixPattern.FindStringSubmatch(value); len(matches) == 2 {
		return matches[1], true
	}
	if value == "" {
		return "", false
	}

	runes := []rune(value)
	if len(runes) > 2 {
		runes = runes[:2]
	}
	return string(runes), true
}
