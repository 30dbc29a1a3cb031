package services

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/terraincognita07/vacprev/internal/logger"
	"github.com/terraincognita07/vacprev/internal/normalize"
	"github.com/terraincognita07/vacprev/internal/upstream"
	"go.uber.org/zap"
)

var (
	ErrInsumoRequired = errors.New("insumo_nome is required")
	ErrInvalidMonth   = errors.New("mes must be an integer")
)

type ForecastClient interface {
	CallForecast(ctx context.Context, params upstream.Params) (normalize.Payload, error)
}

type ForecastService struct {
	client ForecastClient
	log    *zap.Logger
}

// NewForecastService accepts a nil client; requests then fail with
// upstream.ErrNotConfigured.
func NewForecastService(client ForecastClient, log *zap.Logger) *ForecastService {
	return &ForecastService{client: client, log: logger.OrNop(log)}
}

func (service *ForecastService) Configured() bool {
	return service.client != nil
}

// PrepareParams validates the query in the order the endpoint reports
// problems: supply name, upstream configuration, then month. The region code
// is normalized and dropped when it cannot be.
func (service *ForecastService) PrepareParams(insumo string, uf string, mes string) (upstream.Params, error) {
	insumo = strings.TrimSpace(insumo)
	if insumo == "" {
		return upstream.Params{}, ErrInsumoRequired
	}
	if !service.Configured() {
		return upstream.Params{}, upstream.ErrNotConfigured
	}

	params := upstream.Params{InsumoNome: insumo}
	if sigla, ok := normalize.NormalizeSigla(uf); ok {
		params.UF = sigla
	}

	if mes = strings.TrimSpace(mes); mes != "" {
		month, err := strconv.Atoi(mes)
		if err != nil {
			return upstream.Params{}, fmt.Errorf("%w: %q", ErrInvalidMonth, mes)
		}
		params.Mes = &month
	}
	return params, nil
}

// Forecast calls the RPC and shapes its response.
func (service *ForecastService) Forecast(ctx context.Context, params upstream.Params, debug bool) (normalize.Result, error) {
	if !service.Configured() {
		return normalize.Result{}, upstream.ErrNotConfigured
	}

	payload, err := service.client.CallForecast(ctx, params)
	if err != nil {
		return normalize.Result{}, err
	}

	result := normalize.ShapePayload(payload, debug)
	service.log.Debug("forecast shaped",
		zap.String("insumo_nome", params.InsumoNome),
		zap.String("uf", params.UF),
		zap.Stringer("kind", result.Kind),
		zap.Int("rows", len(result.Rows)))
	return result, nil
}
