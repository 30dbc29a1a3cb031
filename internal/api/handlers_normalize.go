package api

import (
	"strings"

	"github.com/gofiber/fiber/v2"
)

func (handler *Handler) NormalizeInsumo(c *fiber.Ctx) error {
	return handler.normalizeQuery(c, handler.normalization.NormalizeInsumo)
}

func (handler *Handler) NormalizeSigla(c *fiber.Ctx) error {
	return handler.normalizeQuery(c, handler.normalization.NormalizeSigla)
}

func (handler *Handler) normalizeQuery(c *fiber.Ctx, normalizeText func(string) (string, bool)) error {
	query := c.Query("q")
	if strings.TrimSpace(query) == "" {
		return handler.apiError(c, fiber.StatusBadRequest, "normalize.error.query_required")
	}

	response := normalizeResponse{Input: query}
	if label, ok := normalizeText(query); ok {
		response.Normalized = &label
	}
	return c.JSON(response)
}

// ListRules returns the loaded rules in evaluation order.
func (handler *Handler) ListRules(c *fiber.Ctx) error {
	rules := handler.normalization.Rules()

	response := rulesResponse{
		Origin: handler.ruleOrigin,
		Count:  len(rules),
		Rules:  make([]ruleResponse, 0, len(rules)),
	}
	for _, rule := range rules {
		response.Rules = append(response.Rules, ruleResponse{
			Pattern:        rule.Pattern,
			CanonicalLabel: rule.CanonicalLabel,
			Priority:       rule.Priority,
			Literal:        rule.Literal,
		})
	}
	return c.JSON(response)
}
