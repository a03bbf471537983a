package router

import (
	"net/http"

	"github.com/rs/cors"
	httpSwagger "github.com/swaggo/http-swagger/v2"

	_ "stockflow/docs" // Registra o documento Swagger
	"stockflow/internal/api/product"
	"stockflow/internal/api/report"
	"stockflow/internal/api/stock"
	"stockflow/internal/pkg/logger"
	"stockflow/internal/pkg/middleware"
)

// Handlers reúne os Handlers já inicializados por injeção de dependências.
type Handlers struct {
	Product *product.Handler
	Stock   *stock.Handler
	Report  *report.Handler
}

// Options controla os middlewares globais.
type Options struct {
	AllowedOrigins []string
	// RateLimit é opcional (nil quando não há Redis).
	RateLimit func(http.Handler) http.Handler
}

// NewRouter configura e retorna o roteador HTTP principal.
func NewRouter(h Handlers, opts Options, log logger.Logger) http.Handler {
	mux := http.NewServeMux()

	// --- 1. Health Check e documentação ---
	mux.HandleFunc("GET /ping", PingHandler)
	mux.Handle("GET /swagger/", httpSwagger.Handler(httpSwagger.URL("/swagger/doc.json")))

	// --- 2. Produtos (v1) ---
	mux.HandleFunc("POST /v1/products", h.Product.CreateProductHandler)
	mux.HandleFunc("GET /v1/products", h.Product.ListProductsHandler)
	mux.HandleFunc("GET /v1/products/{id}", h.Product.GetProductHandler)
	mux.HandleFunc("PUT /v1/products/{id}", h.Product.UpdateProductHandler)
	mux.HandleFunc("PATCH /v1/products/{id}", h.Product.UpdateProductHandler)
	mux.HandleFunc("DELETE /v1/products/{id}", h.Product.DeleteProductHandler)
	mux.HandleFunc("GET /v1/products/{id}/movements", h.Product.ProductMovementsHandler)

	// --- 3. Movimentações ---
	mux.HandleFunc("POST /v1/movements", h.Stock.RecordMovementHandler)
	mux.HandleFunc("GET /v1/movements/recent", h.Stock.RecentMovementsHandler)

	// --- 4. Relatórios ---
	mux.HandleFunc("GET /v1/reports/low-stock", h.Report.LowStockHandler)
	mux.HandleFunc("GET /v1/reports/export", h.Report.ExportXLSXHandler)
	mux.HandleFunc("GET /v1/reports/export.pdf", h.Report.ExportPDFHandler)

	// --- 5. Middlewares globais (de dentro para fora) ---
	var handler http.Handler = mux
	if opts.RateLimit != nil {
		handler = opts.RateLimit(handler)
	}

	origins := opts.AllowedOrigins
	if len(origins) == 0 {
		origins = []string{"*"}
	}
	handler = cors.New(cors.Options{
		AllowedOrigins: origins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodPatch, http.MethodDelete, http.MethodOptions},
		AllowedHeaders: []string{"*"},
	}).Handler(handler)

	return middleware.RequestLogger(log)(handler)
}

// PingHandler é uma função utilitária para o health check.
func PingHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain")
	w.WriteHeader(http.StatusOK)
	w.Write([]byte("pong"))
}
