package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"testing"

	"github.com/terraincognita07/vacprev/internal/services"
	"github.com/terraincognita07/vacprev/internal/upstream"
)

const noDataMessage = "Nenhum dado encontrado para os filtros fornecidos."

func TestForecastReturnsRowsAsReceived(t *testing.T) {
	t.Parallel()

	body := `[{"ano":2023,"quantidade":150,"tipo_dado":"historico","extra":true},[2025,"170.5","previsao"]]`
	client := &stubForecastClient{body: body}
	app := newTestApp(t, client)

	response, got := doGet(t, app, "/previsao?insumo_nome=Febre%20Amarela&uf=ses-sp&mes=3")
	if response.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", response.StatusCode, got)
	}
	if string(got) != body {
		t.Fatalf("rows must be returned unmodified\n got: %s\nwant: %s", got, body)
	}
	if client.params.InsumoNome != "Febre Amarela" || client.params.UF != "SP" || client.params.Mes == nil || *client.params.Mes != 3 {
		t.Fatalf("unexpected upstream params %#v", client.params)
	}
}

func TestForecastNoDataResponses(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		body string
	}{
		{name: "empty list", body: `[]`},
		{name: "single zero forecast", body: `[{"ano":2025,"quantidade":0,"tipo_dado":"previsao"}]`},
		{name: "single null forecast", body: `[[2025,null,"previsao"]]`},
		{name: "wrapped zero forecast", body: `{"data":[{"ano":2025,"quantidade":0,"tipo_dado":"previsao"}]}`},
		{name: "object without rows", body: `{"message":"ok"}`},
		{name: "scalar", body: `42`},
	}

	for _, tc := range tests {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			app := newTestApp(t, &stubForecastClient{body: tc.body})
			response, got := doGet(t, app, "/previsao?insumo_nome=BCG")
			if response.StatusCode != http.StatusNotFound {
				t.Fatalf("expected 404, got %d: %s", response.StatusCode, got)
			}
			if message := readAPIError(t, got); message != noDataMessage {
				t.Fatalf("unexpected message %q", message)
			}
			if _, ok := decodeObject(t, got)["rpc_raw"]; ok {
				t.Fatalf("rpc_raw must only be present in debug mode")
			}
		})
	}
}

func TestForecastSingleNonZeroForecastIsData(t *testing.T) {
	t.Parallel()

	app := newTestApp(t, &stubForecastClient{body: `[{"ano":2025,"quantidade":12,"tipo_dado":"previsao"}]`})
	response, got := doGet(t, app, "/previsao?insumo_nome=BCG")
	if response.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", response.StatusCode, got)
	}
}

func TestForecastDebugResponses(t *testing.T) {
	t.Parallel()

	t.Run("list", func(t *testing.T) {
		t.Parallel()
		body := `[[2023,10,"historico"]]`
		app := newTestApp(t, &stubForecastClient{body: body})
		response, got := doGet(t, app, "/previsao?insumo_nome=BCG&debug=true")
		if response.StatusCode != http.StatusOK {
			t.Fatalf("expected 200, got %d", response.StatusCode)
		}
		payload := decodeObject(t, got)
		if string(payload["rpc_raw"]) != body {
			t.Fatalf("unexpected rpc_raw %s", payload["rpc_raw"])
		}
		if _, ok := payload["result"]; ok {
			t.Fatalf("unwrapped lists must not carry result")
		}
	})

	t.Run("wrapped", func(t *testing.T) {
		t.Parallel()
		body := `{"data":[],"result":[[2023,10,"historico"]]}`
		app := newTestApp(t, &stubForecastClient{body: body})
		response, got := doGet(t, app, "/previsao?insumo_nome=BCG&debug=1")
		if response.StatusCode != http.StatusOK {
			t.Fatalf("expected 200, got %d", response.StatusCode)
		}
		payload := decodeObject(t, got)
		if string(payload["rpc_raw"]) != body {
			t.Fatalf("unexpected rpc_raw %s", payload["rpc_raw"])
		}
		if string(payload["result"]) != `[[2023,10,"historico"]]` {
			t.Fatalf("unexpected result %s", payload["result"])
		}
	})

	t.Run("empty", func(t *testing.T) {
		t.Parallel()
		app := newTestApp(t, &stubForecastClient{body: `[]`})
		response, got := doGet(t, app, "/previsao?insumo_nome=BCG&debug=yes")
		if response.StatusCode != http.StatusNotFound {
			t.Fatalf("expected 404, got %d", response.StatusCode)
		}
		if string(decodeObject(t, got)["rpc_raw"]) != `[]` {
			t.Fatalf("expected empty rpc_raw, got %s", got)
		}
	})
}

func TestForecastValidationErrors(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name       string
		target     string
		configured bool
		wantStatus int
		wantPrefix string
	}{
		{name: "missing insumo", target: "/previsao", configured: true, wantStatus: http.StatusBadRequest, wantPrefix: "É obrigatório informar o nome da vacina"},
		{name: "blank insumo", target: "/previsao?insumo_nome=%20%20", configured: true, wantStatus: http.StatusBadRequest, wantPrefix: "É obrigatório"},
		{name: "invalid month", target: "/previsao?insumo_nome=BCG&mes=abril", configured: true, wantStatus: http.StatusBadRequest, wantPrefix: "Parâmetro 'mes' inválido"},
		{name: "not configured", target: "/previsao?insumo_nome=BCG", configured: false, wantStatus: http.StatusInternalServerError, wantPrefix: "Supabase não está configurado"},
		{name: "missing insumo before configuration", target: "/previsao", configured: false, wantStatus: http.StatusBadRequest, wantPrefix: "É obrigatório"},
	}

	for _, tc := range tests {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			var client *stubForecastClient
			var forecastClient services.ForecastClient
			if tc.configured {
				client = &stubForecastClient{body: `[]`}
				forecastClient = client
			}
			app := newTestApp(t, forecastClient)

			response, got := doGet(t, app, tc.target)
			if response.StatusCode != tc.wantStatus {
				t.Fatalf("expected %d, got %d: %s", tc.wantStatus, response.StatusCode, got)
			}
			if message := readAPIError(t, got); !strings.HasPrefix(message, tc.wantPrefix) {
				t.Fatalf("unexpected message %q", message)
			}
			if client != nil && client.calls != 0 {
				t.Fatalf("upstream must not be called on validation errors")
			}
		})
	}
}

func TestForecastUpstreamFailure(t *testing.T) {
	t.Parallel()

	client := &stubForecastClient{err: &upstream.CallError{StatusCode: 404, Details: json.RawMessage(`{"code":"PGRST202"}`)}}
	app := newTestApp(t, client)

	response, got := doGet(t, app, "/previsao?insumo_nome=BCG")
	if response.StatusCode != http.StatusBadGateway {
		t.Fatalf("expected 502, got %d: %s", response.StatusCode, got)
	}
	payload := decodeObject(t, got)
	if string(payload["status_code"]) != "404" {
		t.Fatalf("unexpected status_code %s", payload["status_code"])
	}
	if string(payload["details"]) != `{"code":"PGRST202"}` {
		t.Fatalf("unexpected details %s", payload["details"])
	}
	if message := readAPIError(t, got); message != "Falha ao chamar RPC via HTTP no Supabase." {
		t.Fatalf("unexpected message %q", message)
	}
}

func TestForecastUnexpectedErrorIsInternal(t *testing.T) {
	t.Parallel()

	app := newTestApp(t, &stubForecastClient{err: errors.New("boom")})
	response, _ := doGet(t, app, "/previsao?insumo_nome=BCG")
	if response.StatusCode != http.StatusInternalServerError {
		t.Fatalf("expected 500, got %d", response.StatusCode)
	}
}

func TestForecastErrorsFollowLanguage(t *testing.T) {
	t.Parallel()

	app := newTestApp(t, &stubForecastClient{body: `[]`})

	_, got := doGet(t, app, "/previsao?insumo_nome=BCG", "Accept-Language", "en-US,en;q=0.9")
	if message := readAPIError(t, got); message != "No data found for the given filters." {
		t.Fatalf("unexpected english message %q", message)
	}

	response, got := doGet(t, app, "/previsao?insumo_nome=BCG&lang=pt", "Accept-Language", "en")
	if message := readAPIError(t, got); message != noDataMessage {
		t.Fatalf("lang query must win over Accept-Language, got %q", message)
	}
	if response.Header.Get("Content-Language") != "pt" {
		t.Fatalf("expected Content-Language pt, got %q", response.Header.Get("Content-Language"))
	}
}
