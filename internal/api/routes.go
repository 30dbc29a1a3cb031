package api

import "github.com/gofiber/fiber/v2"

func RegisterRoutes(app *fiber.App, handler *Handler) {
	app.Get("/healthz", handler.Health)
	app.Get("/favicon.ico", sendNoContent)
	app.Get("/previsao", handler.Forecast)

	registerAPIRoutes(app, handler)
}

func registerAPIRoutes(app *fiber.App, handler *Handler) {
	api := app.Group("/api")

	normalize := api.Group("/normalize")
	normalize.Get("/insumo", handler.NormalizeInsumo)
	normalize.Get("/sigla", handler.NormalizeSigla)

	api.Get("/rules", handler.ListRules)
}

func sendNoContent(c *fiber.Ctx) error {
	return c.SendStatus(fiber.StatusNoContent)
}
