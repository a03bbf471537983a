package router_test

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"stockflow/internal/api/product"
	"stockflow/internal/api/report"
	"stockflow/internal/api/router"
	"stockflow/internal/api/stock"
	"stockflow/internal/domain"
	"stockflow/internal/pkg/lock"
	"stockflow/internal/pkg/logger"
	"stockflow/internal/repository/memrepo"
	"stockflow/internal/service/productservice"
	"stockflow/internal/service/reportservice"
	"stockflow/internal/service/stockservice"
)

func newTestServer(t *testing.T) *httptest.Server {
	t.Helper()
	log := logger.NewNop()
	store := memrepo.NewStore()
	locker := lock.NewLocal()

	productSvc := productservice.NewService(store.Products(), store, locker, log)
	stockSvc := stockservice.NewService(store, store, locker, nil, log, stockservice.DefaultOptions())
	reportSvc := reportservice.NewService(store.Products(), log)

	h := router.Handlers{
		Product: product.NewHandler(productSvc, stockSvc, log),
		Stock:   stock.NewHandler(stockSvc, log),
		Report:  report.NewHandler(reportSvc, log),
	}
	srv := httptest.NewServer(router.NewRouter(h, router.Options{}, log))
	t.Cleanup(srv.Close)
	return srv
}

func call(t *testing.T, srv *httptest.Server, method, path string, body interface{}) *http.Response {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req, err := http.NewRequest(method, srv.URL+path, &buf)
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")

	resp, err := srv.Client().Do(req)
	require.NoError(t, err)
	t.Cleanup(func() { resp.Body.Close() })
	return resp
}

func decode[T any](t *testing.T, resp *http.Response) T {
	t.Helper()
	var v T
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&v))
	return v
}

func createProduct(t *testing.T, srv *httptest.Server, name string) domain.Product {
	t.Helper()
	resp := call(t, srv, http.MethodPost, "/v1/products", map[string]interface{}{"name": name, "price": 1000})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	return decode[domain.Product](t, resp)
}

func TestPing(t *testing.T) {
	srv := newTestServer(t)

	resp := call(t, srv, http.MethodGet, "/ping", nil)

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	var buf bytes.Buffer
	buf.ReadFrom(resp.Body)
	assert.Equal(t, "pong", buf.String())
}

func TestProducts_CRUD(t *testing.T) {
	srv := newTestServer(t)

	created := createProduct(t, srv, "Widget")
	assert.Equal(t, 0, created.Quantity)
	assert.Equal(t, domain.DefaultMinStock, created.MinStock)

	list := decode[[]domain.Product](t, call(t, srv, http.MethodGet, "/v1/products", nil))
	require.Len(t, list, 1)
	assert.Equal(t, created.ID, list[0].ID)

	resp := call(t, srv, http.MethodPatch, "/v1/products/"+created.ID, map[string]interface{}{"price": 2500})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	updated := decode[domain.Product](t, resp)
	assert.Equal(t, int64(2500), updated.Price)
	assert.Equal(t, "Widget", updated.Name)

	resp = call(t, srv, http.MethodDelete, "/v1/products/"+created.ID, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "Produto deletado com sucesso", decode[product.DeleteResponse](t, resp).Detail)

	resp = call(t, srv, http.MethodGet, "/v1/products/"+created.ID, nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)

	resp = call(t, srv, http.MethodDelete, "/v1/products/"+created.ID, nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestProducts_ValidationErrors(t *testing.T) {
	srv := newTestServer(t)

	resp := call(t, srv, http.MethodPost, "/v1/products", map[string]interface{}{"name": " "})
	require.Equal(t, http.StatusBadRequest, resp.StatusCode)
	body := decode[domain.ErrorResponse](t, resp)
	assert.Equal(t, "VALIDATION_ERROR", body.Category)
	assert.Equal(t, "name", body.Field)

	p := createProduct(t, srv, "Widget")
	resp = call(t, srv, http.MethodPut, "/v1/products/"+p.ID, map[string]interface{}{"quantity": 50})
	require.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, "quantity", decode[domain.ErrorResponse](t, resp).Field)

	resp = call(t, srv, http.MethodGet, "/v1/products/nao-e-uuid", nil)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	req, err := http.NewRequest(http.MethodPost, srv.URL+"/v1/products", strings.NewReader("{"))
	require.NoError(t, err)
	raw, err := srv.Client().Do(req)
	require.NoError(t, err)
	defer raw.Body.Close()
	assert.Equal(t, http.StatusBadRequest, raw.StatusCode)
}

// TestMovements_WidgetScenario percorre o fluxo completo de entrada, saída e relatórios.
func TestMovements_WidgetScenario(t *testing.T) {
	srv := newTestServer(t)
	p := createProduct(t, srv, "Widget")

	resp := call(t, srv, http.MethodPost, "/v1/movements", domain.MovementRequest{ProductID: p.ID, Type: domain.MovementEntrada, Quantity: 20})
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	resp = call(t, srv, http.MethodPost, "/v1/movements", domain.MovementRequest{ProductID: p.ID, Type: domain.MovementSaida, Quantity: 25})
	require.Equal(t, http.StatusBadRequest, resp.StatusCode)
	body := decode[domain.ErrorResponse](t, resp)
	assert.Equal(t, "INSUFFICIENT_STOCK", body.Category)
	assert.Equal(t, map[string]int{"current": 20, "requested": 25}, body.Details)

	resp = call(t, srv, http.MethodPost, "/v1/movements", domain.MovementRequest{ProductID: p.ID, Type: domain.MovementSaida, Quantity: 15})
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	current := decode[domain.Product](t, call(t, srv, http.MethodGet, "/v1/products/"+p.ID, nil))
	assert.Equal(t, 5, current.Quantity)

	low := decode[[]domain.Product](t, call(t, srv, http.MethodGet, "/v1/reports/low-stock", nil))
	require.Len(t, low, 1)
	assert.Equal(t, p.ID, low[0].ID)

	history := decode[[]domain.Movement](t, call(t, srv, http.MethodGet, "/v1/products/"+p.ID+"/movements", nil))
	require.Len(t, history, 2)
	assert.Equal(t, domain.MovementSaida, history[0].Type)
	assert.Equal(t, domain.MovementEntrada, history[1].Type)

	recent := decode[[]domain.Movement](t, call(t, srv, http.MethodGet, "/v1/movements/recent?limit=1", nil))
	require.Len(t, recent, 1)
	assert.Equal(t, 15, recent[0].Quantity)
}

func TestMovements_Errors(t *testing.T) {
	srv := newTestServer(t)
	p := createProduct(t, srv, "Widget")

	resp := call(t, srv, http.MethodPost, "/v1/movements", domain.MovementRequest{ProductID: uuid.New().String(), Type: domain.MovementEntrada, Quantity: 1})
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)

	resp = call(t, srv, http.MethodPost, "/v1/movements", domain.MovementRequest{ProductID: p.ID, Type: "ajuste", Quantity: 1})
	require.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, "type", decode[domain.ErrorResponse](t, resp).Field)

	resp = call(t, srv, http.MethodPost, "/v1/movements", map[string]interface{}{"product_id": p.ID, "type": "entrada", "quantity": "10"})
	require.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, "quantity", decode[domain.ErrorResponse](t, resp).Field)

	resp = call(t, srv, http.MethodGet, "/v1/movements/recent?limit=abc", nil)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp = call(t, srv, http.MethodGet, "/v1/products/"+uuid.New().String()+"/movements", nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestReports_Export(t *testing.T) {
	srv := newTestServer(t)
	createProduct(t, srv, "Widget")

	resp := call(t, srv, http.MethodGet, "/v1/reports/export", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, resp.Header.Get("Content-Disposition"), "Relatorio_Estoque.xlsx")
	assert.Equal(t, "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet", resp.Header.Get("Content-Type"))

	resp = call(t, srv, http.MethodGet, "/v1/reports/export.pdf", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, resp.Header.Get("Content-Disposition"), "Relatorio_Estoque.pdf")
	var buf bytes.Buffer
	buf.ReadFrom(resp.Body)
	assert.True(t, bytes.HasPrefix(buf.Bytes(), []byte("%PDF")))
}

func TestCORS_Preflight(t *testing.T) {
	srv := newTestServer(t)

	req, err := http.NewRequest(http.MethodOptions, srv.URL+"/v1/products", nil)
	require.NoError(t, err)
	req.Header.Set("Origin", "http://localhost:3000")
	req.Header.Set("Access-Control-Request-Method", http.MethodPost)

	resp, err := srv.Client().Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, "*", resp.Header.Get("Access-Control-Allow-Origin"))
}
