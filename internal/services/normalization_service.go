package services

import (
	"fmt"

	lru "github.com/hashicorp/golang-lru/v2"
	"github.com/terraincognita07/vacprev/internal/normalize"
)

type insumoLookup struct {
	label string
	ok    bool
}

// NormalizationService memoizes supply name lookups in front of a
// normalize.Normalizer. A cache size of zero disables memoization.
type NormalizationService struct {
	normalizer *normalize.Normalizer
	cache      *lru.Cache[string, insumoLookup]
}

func NewNormalizationService(normalizer *normalize.Normalizer, cacheSize int) (*NormalizationService, error) {
	if normalizer == nil {
		normalizer = normalize.New(nil)
	}

	service := &NormalizationService{normalizer: normalizer}
	if cacheSize > 0 {
		cache, err := lru.New[string, insumoLookup](cacheSize)
		if err != nil {
			return nil, fmt.Errorf("create normalization cache: %w", err)
		}
		service.cache = cache
	}
	return service, nil
}

func (service *NormalizationService) NormalizeInsumo(text string) (string, bool) {
	if service.cache == nil {
		return service.normalizer.NormalizeInsumo(text)
	}
	if cached, ok := service.cache.Get(text); ok {
		return cached.label, cached.ok
	}

	label, ok := service.normalizer.NormalizeInsumo(text)
	service.cache.Add(text, insumoLookup{label: label, ok: ok})
	return label, ok
}

func (service *NormalizationService) NormalizeSigla(text string) (string, bool) {
	return normalize.NormalizeSigla(text)
}

// Rules returns the loaded rules in evaluation order.
func (service *NormalizationService) Rules() []normalize.Rule {
	return service.normalizer.Rules().Rules()
}

// CachedEntries reports how many lookups are memoized.
func (service *NormalizationService) CachedEntries() int {
	if service.cache == nil {
		return 0
	}
	return service.cache.Len()
}
