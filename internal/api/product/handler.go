package product

import (
	"context"
	"net/http"

	"stockflow/internal/api/respond"
	"stockflow/internal/domain"
	apperror "stockflow/internal/errors"
	"stockflow/internal/pkg/logger"
)

// ProductService define o contrato que o Handler espera da camada de Serviço.
type ProductService interface {
	CreateProduct(ctx context.Context, input domain.ProductInput) (domain.Product, error)
	ListProducts(ctx context.Context) ([]domain.Product, error)
	GetProduct(ctx context.Context, id string) (domain.Product, error)
	UpdateProduct(ctx context.Context, id string, upd domain.ProductUpdate) (domain.Product, error)
	DeleteProduct(ctx context.Context, id string) (bool, error)
}

// MovementHistory fornece o histórico de movimentações de um produto.
type MovementHistory interface {
	MovementsByProduct(ctx context.Context, productID string) ([]domain.Movement, error)
}

// DeleteResponse é o corpo devolvido após a exclusão.
type DeleteResponse struct {
	Detail string `json:"detail" example:"Produto deletado com sucesso"`
}

// Handler agrupa todos os métodos de Handler do produto.
type Handler struct {
	Service ProductService
	History MovementHistory
	Logger  logger.Logger
}

// NewHandler cria uma nova instância do Handler, injetando os Serviços e o Logger.
func NewHandler(svc ProductService, history MovementHistory, log logger.Logger) *Handler {
	return &Handler{
		Service: svc,
		History: history,
		Logger:  log,
	}
}

// CreateProductHandler lida com a requisição POST /v1/products.
// @Summary Cadastra um produto
// @Description Cria um produto com quantidade zero. min_stock padrão é 5.
// @Tags products
// @Accept json
// @Produce json
// @Param product body domain.ProductInput true "Dados do produto"
// @Success 201 {object} domain.Product "Produto criado"
// @Failure 400 {object} domain.ErrorResponse "Payload inválido"
// @Failure 500 {object} domain.ErrorResponse "Erro interno do servidor"
// @Router /products [post]
func (h *Handler) CreateProductHandler(w http.ResponseWriter, r *http.Request) {
	var input domain.ProductInput
	if err := respond.DecodeJSON(r, &input); err != nil {
		respond.Error(w, r, h.Logger, err)
		return
	}

	created, err := h.Service.CreateProduct(r.Context(), input)
	if err != nil {
		respond.Error(w, r, h.Logger, err)
		return
	}

	respond.JSON(w, h.Logger, http.StatusCreated, created)
}

// ListProductsHandler lida com a requisição GET /v1/products.
// @Summary Lista os produtos
// @Tags products
// @Produce json
// @Success 200 {array} domain.Product "Produtos em ordem de cadastro"
// @Failure 500 {object} domain.ErrorResponse "Erro interno do servidor"
// @Router /products [get]
func (h *Handler) ListProductsHandler(w http.ResponseWriter, r *http.Request) {
	products, err := h.Service.ListProducts(r.Context())
	if err != nil {
		respond.Error(w, r, h.Logger, err)
		return
	}
	if products == nil {
		products = []domain.Product{}
	}
	respond.JSON(w, h.Logger, http.StatusOK, products)
}

// GetProductHandler lida com a requisição GET /v1/products/{id}.
// @Summary Obtém um produto por ID
// @Tags products
// @Produce json
// @Param id path string true "ID do Produto"
// @Success 200 {object} domain.Product "Produto encontrado"
// @Failure 400 {object} domain.ErrorResponse "ID inválido"
// @Failure 404 {object} domain.ErrorResponse "Produto não encontrado"
// @Router /products/{id} [get]
func (h *Handler) GetProductHandler(w http.ResponseWriter, r *http.Request) {
	product, err := h.Service.GetProduct(r.Context(), r.PathValue("id"))
	if err != nil {
		respond.Error(w, r, h.Logger, err)
		return
	}
	respond.JSON(w, h.Logger, http.StatusOK, product)
}

// UpdateProductHandler lida com PUT e PATCH /v1/products/{id}.
// Ambos aplicam somente os campos enviados.
// @Summary Atualiza um produto
// @Description Atualiza name, description, price e min_stock. A quantidade só muda por movimentações.
// @Description Campos ausentes ou null ficam inalterados; para esvaziar description envie "".
// @Tags products
// @Accept json
// @Produce json
// @Param id path string true "ID do Produto"
// @Param product body domain.ProductUpdate true "Campos a alterar"
// @Success 200 {object} domain.Product "Produto atualizado"
// @Failure 400 {object} domain.ErrorResponse "Payload inválido"
// @Failure 404 {object} domain.ErrorResponse "Produto não encontrado"
// @Router /products/{id} [put]
// @Router /products/{id} [patch]
func (h *Handler) UpdateProductHandler(w http.ResponseWriter, r *http.Request) {
	var upd domain.ProductUpdate
	if err := respond.DecodeJSON(r, &upd); err != nil {
		respond.Error(w, r, h.Logger, err)
		return
	}

	updated, err := h.Service.UpdateProduct(r.Context(), r.PathValue("id"), upd)
	if err != nil {
		respond.Error(w, r, h.Logger, err)
		return
	}
	respond.JSON(w, h.Logger, http.StatusOK, updated)
}

// DeleteProductHandler lida com a requisição DELETE /v1/products/{id}.
// @Summary Remove um produto
// @Description Remove o produto e todo o seu histórico de movimentações.
// @Tags products
// @Produce json
// @Param id path string true "ID do Produto"
// @Success 200 {object} DeleteResponse "Produto deletado"
// @Failure 404 {object} domain.ErrorResponse "Produto não encontrado"
// @Failure 409 {object} domain.ErrorResponse "Produto em alteração"
// @Router /products/{id} [delete]
func (h *Handler) DeleteProductHandler(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")

	deleted, err := h.Service.DeleteProduct(r.Context(), id)
	if err != nil {
		respond.Error(w, r, h.Logger, err)
		return
	}
	if !deleted {
		respond.Error(w, r, h.Logger, apperror.NewNotFoundError("Produto não encontrado"))
		return
	}

	respond.JSON(w, h.Logger, http.StatusOK, DeleteResponse{Detail: "Produto deletado com sucesso"})
}

// ProductMovementsHandler lida com a requisição GET /v1/products/{id}/movements.
// @Summary Histórico de movimentações do produto
// @Tags products
// @Produce json
// @Param id path string true "ID do Produto"
// @Success 200 {array} domain.Movement "Movimentações, mais novas primeiro"
// @Failure 404 {object} domain.ErrorResponse "Produto não encontrado"
// @Router /products/{id}/movements [get]
func (h *Handler) ProductMovementsHandler(w http.ResponseWriter, r *http.Request) {
	movements, err := h.History.MovementsByProduct(r.Context(), r.PathValue("id"))
	if err != nil {
		respond.Error(w, r, h.Logger, err)
		return
	}
	if movements == nil {
		movements = []domain.Movement{}
	}
	respond.JSON(w, h.Logger, http.StatusOK, movements)
}
