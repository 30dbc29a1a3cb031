package api

import (
	"encoding/json"
	"errors"

	"github.com/gofiber/fiber/v2"
	"github.com/terraincognita07/vacprev/internal/normalize"
	"github.com/terraincognita07/vacprev/internal/services"
	"github.com/terraincognita07/vacprev/internal/upstream"
	"go.uber.org/zap"
)

// Forecast serves GET /previsao. Rows are returned exactly as the RPC sent
// them.
func (handler *Handler) Forecast(c *fiber.Ctx) error {
	debug := queryBool(c.Query("debug"))

	params, err := handler.forecasts.PrepareParams(c.Query("insumo_nome"), c.Query("uf"), c.Query("mes"))
	if err != nil {
		return handler.forecastError(c, err)
	}

	result, err := handler.forecasts.Forecast(c.UserContext(), params, debug)
	if err != nil {
		return handler.forecastError(c, err)
	}

	switch result.Kind {
	case normalize.ResultEmpty:
		body := fiber.Map{errorKey: handler.translate(c, "forecast.error.no_data")}
		if result.HasRaw() {
			body["rpc_raw"] = result.Raw
		}
		return c.Status(fiber.StatusNotFound).JSON(body)
	case normalize.ResultRawDebug:
		body := fiber.Map{"rpc_raw": result.Raw}
		if result.Wrapped {
			body["result"] = result.Rows
		}
		return c.Status(fiber.StatusOK).JSON(body)
	default:
		return c.Status(fiber.StatusOK).JSON(result.Rows)
	}
}

func (handler *Handler) forecastError(c *fiber.Ctx, err error) error {
	var callErr *upstream.CallError
	switch {
	case errors.Is(err, services.ErrInsumoRequired):
		return handler.apiError(c, fiber.StatusBadRequest, "forecast.error.insumo_required")
	case errors.Is(err, services.ErrInvalidMonth):
		return handler.apiError(c, fiber.StatusBadRequest, "forecast.error.invalid_month")
	case errors.Is(err, upstream.ErrNotConfigured):
		return handler.apiError(c, fiber.StatusInternalServerError, "forecast.error.not_configured")
	case errors.As(err, &callErr):
		handler.log.Warn("forecast rpc failed", zap.Int("status_code", callErr.StatusCode))
		return c.Status(fiber.StatusBadGateway).JSON(fiber.Map{
			errorKey:      handler.translate(c, "forecast.error.upstream_failed"),
			"status_code": callErr.StatusCode,
			"details":     callErr.Details,
		})
	case errors.Is(err, upstream.ErrUpstreamFailed):
		handler.log.Warn("forecast rpc failed", zap.Error(err))
		details, _ := json.Marshal(err.Error())
		return c.Status(fiber.StatusBadGateway).JSON(fiber.Map{
			errorKey:      handler.translate(c, "forecast.error.upstream_failed"),
			"status_code": fiber.StatusBadGateway,
			"details":     json.RawMessage(details),
		})
	default:
		handler.log.Error("forecast request failed", zap.Error(err))
		return handler.apiError(c, fiber.StatusInternalServerError, "forecast.error.internal")
	}
}
