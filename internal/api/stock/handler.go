package stock

import (
	"context"
	"net/http"
	"strconv"

	"stockflow/internal/api/respond"
	"stockflow/internal/domain"
	apperror "stockflow/internal/errors"
	"stockflow/internal/pkg/logger"
)

// StockService define o contrato que o Handler espera do motor de estoque.
type StockService interface {
	RecordMovement(ctx context.Context, req domain.MovementRequest) (domain.Movement, error)
	RecentMovements(ctx context.Context, limit int) ([]domain.Movement, error)
}

// Handler agrupa os Handlers de movimentação.
type Handler struct {
	Service StockService
	Logger  logger.Logger
}

// NewHandler cria uma nova instância do Handler, injetando o Service e o Logger.
func NewHandler(svc StockService, log logger.Logger) *Handler {
	return &Handler{
		Service: svc,
		Logger:  log,
	}
}

// RecordMovementHandler lida com a requisição POST /v1/movements.
// @Summary Registra uma movimentação
// @Description Aplica uma entrada ou saída à quantidade do produto.
// @Tags movements
// @Accept json
// @Produce json
// @Param movement body domain.MovementRequest true "Movimentação"
// @Success 201 {object} domain.Movement "Movimentação registrada"
// @Failure 400 {object} domain.ErrorResponse "Payload inválido ou estoque insuficiente"
// @Failure 404 {object} domain.ErrorResponse "Produto não encontrado"
// @Failure 409 {object} domain.ErrorResponse "Conflito de concorrência"
// @Router /movements [post]
func (h *Handler) RecordMovementHandler(w http.ResponseWriter, r *http.Request) {
	var req domain.MovementRequest
	if err := respond.DecodeJSON(r, &req); err != nil {
		respond.Error(w, r, h.Logger, err)
		return
	}

	movement, err := h.Service.RecordMovement(r.Context(), req)
	if err != nil {
		respond.Error(w, r, h.Logger, err)
		return
	}

	respond.JSON(w, h.Logger, http.StatusCreated, movement)
}

// RecentMovementsHandler lida com a requisição GET /v1/movements/recent.
// @Summary Últimas movimentações
// @Tags movements
// @Produce json
// @Param limit query int false "Quantidade máxima (padrão 5)"
// @Success 200 {array} domain.Movement "Movimentações, mais novas primeiro"
// @Failure 400 {object} domain.ErrorResponse "Limite inválido"
// @Router /movements/recent [get]
func (h *Handler) RecentMovementsHandler(w http.ResponseWriter, r *http.Request) {
	limit := 0
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil {
			respond.Error(w, r, h.Logger, apperror.NewFieldValidationError("limit", "O limite deve ser um número inteiro."))
			return
		}
		limit = n
	}

	movements, err := h.Service.RecentMovements(r.Context(), limit)
	if err != nil {
		respond.Error(w, r, h.Logger, err)
		return
	}
	if movements == nil {
		movements = []domain.Movement{}
	}
	respond.JSON(w, h.Logger, http.StatusOK, movements)
}
