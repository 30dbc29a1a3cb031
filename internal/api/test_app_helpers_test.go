package api

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/terraincognita07/vacprev/internal/i18n"
	"github.com/terraincognita07/vacprev/internal/normalize"
	"github.com/terraincognita07/vacprev/internal/services"
	"github.com/terraincognita07/vacprev/internal/upstream"
)

type stubForecastClient struct {
	body   string
	err    error
	params upstream.Params
	calls  int
}

func (stub *stubForecastClient) CallForecast(_ context.Context, params upstream.Params) (normalize.Payload, error) {
	stub.calls++
	stub.params = params
	if stub.err != nil {
		return normalize.Payload{}, stub.err
	}
	return normalize.ParsePayload([]byte(stub.body)), nil
}

func intPtr(value int) *int {
	return &value
}

func newTestApp(t *testing.T, client services.ForecastClient) *fiber.App {
	t.Helper()

	i18nManager, err := i18n.NewManager(i18n.LangPT)
	if err != nil {
		t.Fatalf("init i18n: %v", err)
	}

	normalizer := normalize.New(normalize.NewRuleTable([]normalize.RuleRecord{
		{Pattern: "FEBRE AMARELA", CanonicalLabel: "Febre Amarela", Priority: intPtr(10)},
		{Pattern: "TRIPLICE VIRAL", CanonicalLabel: "Tríplice Viral"},
	}))
	normalization, err := services.NewNormalizationService(normalizer, 16)
	if err != nil {
		t.Fatalf("init normalization: %v", err)
	}

	var forecasts *services.ForecastService
	if client != nil {
		forecasts = services.NewForecastService(client, nil)
	}

	handler, err := NewHandler(Dependencies{
		Forecasts:     forecasts,
		Normalization: normalization,
		I18n:          i18nManager,
		RuleOrigin:    services.RuleOriginFile,
	})
	if err != nil {
		t.Fatalf("init handler: %v", err)
	}

	app := fiber.New()
	app.Use(handler.LanguageMiddleware)
	RegisterRoutes(app, handler)
	app.Use(handler.NotFound)
	return app
}

func doGet(t *testing.T, app *fiber.App, target string, headers ...string) (*http.Response, []byte) {
	t.Helper()

	request := httptest.NewRequest(http.MethodGet, target, nil)
	for index := 0; index+1 < len(headers); index += 2 {
		request.Header.Set(headers[index], headers[index+1])
	}

	response, err := app.Test(request, -1)
	if err != nil {
		t.Fatalf("request %s failed: %v", target, err)
	}
	defer response.Body.Close()

	body, err := io.ReadAll(response.Body)
	if err != nil {
		t.Fatalf("read response body: %v", err)
	}
	return response, body
}

func decodeObject(t *testing.T, body []byte) map[string]json.RawMessage {
	t.Helper()

	payload := map[string]json.RawMessage{}
	if err := json.Unmarshal(body, &payload); err != nil {
		t.Fatalf("decode response body %s: %v", body, err)
	}
	return payload
}

func readAPIError(t *testing.T, body []byte) string {
	t.Helper()

	var message string
	if err := json.Unmarshal(decodeObject(t, body)[errorKey], &message); err != nil {
		t.Fatalf("decode error message from %s: %v", body, err)
	}
	return message
}
