package api

import (
	"errors"

	"github.com/terraincognita07/vacprev/internal/i18n"
	"github.com/terraincognita07/vacprev/internal/logger"
	"github.com/terraincognita07/vacprev/internal/services"
	"go.uber.org/zap"
)

type Handler struct {
	forecasts     *services.ForecastService
	normalization *services.NormalizationService
	i18n          *i18n.Manager
	log           *zap.Logger
	ruleOrigin    string
}

// Dependencies are the collaborators of a Handler. Nil services are replaced
// by unconfigured defaults.
type Dependencies struct {
	Forecasts     *services.ForecastService
	Normalization *services.NormalizationService
	I18n          *i18n.Manager
	Logger        *zap.Logger
	RuleOrigin    string
}

type normalizeResponse struct {
	Input      string  `json:"input"`
	Normalized *string `json:"normalized"`
}

type rulesResponse struct {
	Origin string         `json:"origin,omitempty"`
	Count  int            `json:"count"`
	Rules  []ruleResponse `json:"rules"`
}

type ruleResponse struct {
	Pattern        string `json:"pattern"`
	CanonicalLabel string `json:"vacina_normalizada"`
	Priority       int    `json:"priority"`
	Literal        bool   `json:"literal,omitempty"`
}

func NewHandler(deps Dependencies) (*Handler, error) {
	if deps.I18n == nil {
		return nil, errors.New("i18n manager is required")
	}

	handler := &Handler{
		forecasts:     deps.Forecasts,
		normalization: deps.Normalization,
		i18n:          deps.I18n,
		log:           logger.OrNop(deps.Logger),
		ruleOrigin:    deps.RuleOrigin,
	}
	if err := handler.ensureDependencies(); err != nil {
		return nil, err
	}
	return handler, nil
}
