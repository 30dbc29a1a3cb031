package api

import (
	"strconv"
	"strings"

	"github.com/gofiber/fiber/v2"
)

const errorKey = "erro"

// apiError renders the translation of key as {"erro": message}.
func (handler *Handler) apiError(c *fiber.Ctx, status int, key string) error {
	return c.Status(status).JSON(fiber.Map{errorKey: handler.translate(c, key)})
}

func (handler *Handler) translate(c *fiber.Ctx, key string) string {
	language := currentLanguage(c)
	if language == "" {
		language = handler.i18n.DefaultLanguage()
	}
	return handler.i18n.Translate(language, key)
}

// queryBool accepts the usual spellings of a boolean flag. Anything else is
// false.
func queryBool(raw string) bool {
	value := strings.ToLower(strings.TrimSpace(raw))
	switch value {
	case "yes", "y", "on":
		return true
	}
	parsed, err := strconv.ParseBool(value)
	return err == nil && parsed
}
