package upstream

import (
	"context"
	"net/http"
	"strings"

	"github.com/go-resty/resty/v2"
	"github.com/terraincognita07/vacprev/internal/config"
	"github.com/terraincognita07/vacprev/internal/logger"
	"github.com/terraincognita07/vacprev/internal/normalize"
	"go.uber.org/zap"
)

// RESTClient calls the RPC through the PostgREST endpoint of the project.
type RESTClient struct {
	client  *resty.Client
	rpcPath string
	log     *zap.Logger
}

func NewRESTClient(cfg config.SupabaseConfig, log *zap.Logger) (*RESTClient, error) {
	if !cfg.Configured() {
		return nil, ErrNotConfigured
	}

	rpcName := cfg.RPCName
	if rpcName == "" {
		rpcName = config.DefaultRPCName
	}

	client := resty.New().
		SetBaseURL(strings.TrimRight(cfg.URL, "/")).
		SetTimeout(cfg.Timeout).
		SetHeader("apikey", cfg.ServiceRoleKey).
		SetAuthToken(cfg.ServiceRoleKey).
		SetHeader("Accept", "application/json").
		SetHeader("Content-Type", "application/json")

	return &RESTClient{
		client:  client,
		rpcPath: "/rest/v1/rpc/" + rpcName,
		log:     logger.OrNop(log),
	}, nil
}

// CallForecast posts the plain argument names first and, when that is
// rejected, the underscored names.
func (rest *RESTClient) CallForecast(ctx context.Context, params Params) (normalize.Payload, error) {
	status, body := rest.post(ctx, params.plain())
	if succeeded(status) {
		return normalize.ParsePayload(body), nil
	}
	rest.log.Debug("rpc rejected plain arguments, retrying underscored", zap.Int("status", status))

	status, body = rest.post(ctx, params.underscored())
	if succeeded(status) {
		return normalize.ParsePayload(body), nil
	}
	return normalize.Payload{}, &CallError{StatusCode: status, Details: detailsJSON(body)}
}

// post returns the status and body, or 502 and the error text when the
// request did not complete.
func (rest *RESTClient) post(ctx context.Context, args map[string]any) (int, []byte) {
	response, err := rest.client.R().
		SetContext(ctx).
		SetBody(args).
		Post(rest.rpcPath)
	if err != nil {
		return http.StatusBadGateway, []byte(err.Error())
	}
	return response.StatusCode(), response.Body()
}

func succeeded(status int) bool {
	return status == http.StatusOK || status == http.StatusCreated
}
