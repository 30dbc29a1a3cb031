// Package upstream calls the aggregation RPC that returns the historical
// series and forecast for a supply.
package upstream

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/terraincognita07/vacprev/internal/logger"
	"github.com/terraincognita07/vacprev/internal/normalize"
	"go.uber.org/zap"
)

var (
	ErrNotConfigured  = errors.New("upstream rpc is not configured")
	ErrUpstreamFailed = errors.New("upstream rpc failed")
)

// Params are the RPC arguments. UF and Mes are optional.
type Params struct {
	InsumoNome string
	UF         string
	Mes        *int
}

// plain returns the arguments under their bare names.
func (params Params) plain() map[string]any {
	return params.named("")
}

// underscored returns the arguments with the "_" prefix some deployments of
// the RPC declare.
func (params Params) underscored() map[string]any {
	return params.named("_")
}

func (params Params) named(prefix string) map[string]any {
	args := map[string]any{prefix + "insumo_nome": params.InsumoNome}
	if params.UF != "" {
		args[prefix+"uf"] = params.UF
	}
	if params.Mes != nil {
		args[prefix+"mes"] = *params.Mes
	}
	return args
}

// Client executes the forecast RPC and returns the decoded response body.
type Client interface {
	CallForecast(ctx context.Context, params Params) (normalize.Payload, error)
}

// CallError describes a failed RPC call. Details holds the upstream
// response body, or the transport error text, as JSON.
type CallError struct {
	StatusCode int
	Details    json.RawMessage
}

func (err *CallError) Error() string {
	return fmt.Sprintf("%s: status %d", ErrUpstreamFailed, err.StatusCode)
}

func (err *CallError) Unwrap() error {
	return ErrUpstreamFailed
}

// ChainClient tries each client in order and returns the first success.
type ChainClient struct {
	clients []Client
	log     *zap.Logger
}

func NewChainClient(log *zap.Logger, clients ...Client) *ChainClient {
	active := make([]Client, 0, len(clients))
	for _, client := range clients {
		if client != nil {
			active = append(active, client)
		}
	}
	return &ChainClient{clients: active, log: logger.OrNop(log)}
}

// Len reports how many clients are chained.
func (chain *ChainClient) Len() int {
	return len(chain.clients)
}

func (chain *ChainClient) CallForecast(ctx context.Context, params Params) (normalize.Payload, error) {
	var lastErr error
	for index, client := range chain.clients {
		payload, err := client.CallForecast(ctx, params)
		if err == nil {
			return payload, nil
		}
		lastErr = err
		chain.log.Warn("forecast rpc attempt failed",
			zap.Int("attempt", index+1),
			zap.Int("clients", len(chain.clients)),
			zap.Error(err))
	}
	if lastErr == nil {
		return normalize.Payload{}, ErrNotConfigured
	}
	return normalize.Payload{}, lastErr
}

func detailsJSON(body []byte) json.RawMessage {
	if len(body) > 0 && json.Valid(body) {
		return json.RawMessage(body)
	}
	encoded, _ := json.Marshal(string(body))
	return encoded
}
