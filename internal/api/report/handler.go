package report

import (
	"context"
	"fmt"
	"net/http"
	"strconv"

	"stockflow/internal/api/respond"
	"stockflow/internal/domain"
	"stockflow/internal/pkg/export"
	"stockflow/internal/pkg/logger"
)

// ReportService define o contrato que o Handler espera do serviço de relatórios.
type ReportService interface {
	LowStock(ctx context.Context) ([]domain.Product, error)
	Export(ctx context.Context, exporter export.Exporter) ([]byte, error)
}

// Handler agrupa os Handlers de relatório.
type Handler struct {
	Service ReportService
	XLSX    export.Exporter
	PDF     export.Exporter
	Logger  logger.Logger
}

// NewHandler cria o Handler com os exportadores XLSX e PDF.
func NewHandler(svc ReportService, log logger.Logger) *Handler {
	return &Handler{
		Service: svc,
		XLSX:    export.NewXLSX(),
		PDF:     export.NewPDF(),
		Logger:  log,
	}
}

// LowStockHandler lida com a requisição GET /v1/reports/low-stock.
// @Summary Produtos com estoque baixo
// @Description Lista os produtos com quantity <= min_stock.
// @Tags reports
// @Produce json
// @Success 200 {array} domain.Product "Produtos a repor"
// @Failure 500 {object} domain.ErrorResponse "Erro interno do servidor"
// @Router /reports/low-stock [get]
func (h *Handler) LowStockHandler(w http.ResponseWriter, r *http.Request) {
	products, err := h.Service.LowStock(r.Context())
	if err != nil {
		respond.Error(w, r, h.Logger, err)
		return
	}
	if products == nil {
		products = []domain.Product{}
	}
	respond.JSON(w, h.Logger, http.StatusOK, products)
}

// ExportXLSXHandler lida com a requisição GET /v1/reports/export.
// @Summary Exporta o estoque em XLSX
// @Tags reports
// @Produce application/vnd.openxmlformats-officedocument.spreadsheetml.sheet
// @Success 200 {file} file "Relatorio_Estoque.xlsx"
// @Failure 500 {object} domain.ErrorResponse "Erro interno do servidor"
// @Router /reports/export [get]
func (h *Handler) ExportXLSXHandler(w http.ResponseWriter, r *http.Request) {
	h.serveExport(w, r, h.XLSX)
}

// ExportPDFHandler lida com a requisição GET /v1/reports/export.pdf.
// @Summary Exporta o estoque em PDF
// @Tags reports
// @Produce application/pdf
// @Success 200 {file} file "Relatorio_Estoque.pdf"
// @Failure 500 {object} domain.ErrorResponse "Erro interno do servidor"
// @Router /reports/export.pdf [get]
func (h *Handler) ExportPDFHandler(w http.ResponseWriter, r *http.Request) {
	h.serveExport(w, r, h.PDF)
}

func (h *Handler) serveExport(w http.ResponseWriter, r *http.Request, exporter export.Exporter) {
	data, err := h.Service.Export(r.Context(), exporter)
	if err != nil {
		respond.Error(w, r, h.Logger, err)
		return
	}

	w.Header().Set("Content-Type", exporter.ContentType())
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", exporter.FileName()))
	w.Header().Set("Content-Length", strconv.Itoa(len(data)))
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write(data); err != nil {
		h.Logger.Warn("Falha ao enviar arquivo do relatório.", map[string]interface{}{"file": exporter.FileName(), "error": err.Error()})
	}
}
