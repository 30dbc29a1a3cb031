package api

import (
	"github.com/terraincognita07/vacprev/internal/services"
)

func (handler *Handler) ensureDependencies() error {
	if handler.forecasts == nil {
		handler.forecasts = services.NewForecastService(nil, handler.log)
	}
	if handler.normalization == nil {
		normalization, err := services.NewNormalizationService(nil, 0)
		if err != nil {
			return err
		}
		handler.normalization = normalization
	}
	return nil
}
