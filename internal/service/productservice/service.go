package productservice

import (
	"context"
	stderrors "errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"stockflow/internal/domain"
	apperror "stockflow/internal/errors"
	"stockflow/internal/pkg/lock"
	"stockflow/internal/pkg/logger"
	"stockflow/internal/pkg/validation"
)

// Service implementa o cadastro de produtos (ProductStore).
type Service struct {
	repo      domain.ProductRepository
	tx        domain.TxRunner
	locker    lock.Locker
	validator *validation.Validator
	logger    logger.Logger
	now       func() time.Time
}

// NewService cria e retorna uma nova instância do Serviço de Produto.
// tx e locker servem à atualização e à exclusão, que usam o mesmo lock do motor de estoque.
func NewService(repo domain.ProductRepository, tx domain.TxRunner, locker lock.Locker, log logger.Logger) *Service {
	return &Service{
		repo:      repo,
		tx:        tx,
		locker:    locker,
		validator: validation.New(),
		logger:    log,
		now:       func() time.Time { return time.Now().UTC() },
	}
}

// --- Implementação: CreateProduct ---
func (s *Service) CreateProduct(ctx context.Context, input domain.ProductInput) (domain.Product, error) {
	// 1. Validação de Regras de Negócio
	input.Name = strings.TrimSpace(input.Name)
	if err := s.validator.Struct(input); err != nil {
		s.logger.Warn("Payload de produto inválido.", map[string]interface{}{"error": err.Error()})
		return domain.Product{}, err
	}

	minStock := domain.DefaultMinStock
	if input.MinStock != nil {
		minStock = *input.MinStock
	}

	// 2. Preenchimento de ID e timestamps. A quantidade sempre nasce zerada.
	now := s.now()
	product := domain.Product{
		ID:          uuid.New().String(),
		Name:        input.Name,
		Description: input.Description,
		Price:       input.Price,
		Quantity:    0,
		MinStock:    minStock,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	// 3. Delegação para a Camada de Persistência (Repository)
	created, err := s.repo.Save(ctx, product)
	if err != nil {
		return domain.Product{}, fmt.Errorf("falha ao salvar produto no repositório: %w", err)
	}

	s.logger.Info("Produto criado com sucesso.", map[string]interface{}{"product_id": created.ID, "name": created.Name})
	return created, nil
}

// ListProducts devolve todos os produtos na ordem de cadastro.
func (s *Service) ListProducts(ctx context.Context) ([]domain.Product, error) {
	products, err := s.repo.FindAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("falha ao listar produtos: %w", err)
	}
	return products, nil
}

// GetProduct busca um produto pelo ID.
func (s *Service) GetProduct(ctx context.Context, id string) (domain.Product, error) {
	if err := validateID(id); err != nil {
		return domain.Product{}, err
	}
	return s.repo.FindByID(ctx, id)
}

// UpdateProduct aplica somente os campos presentes. A quantidade não pode ser
// alterada por aqui: ela é consequência das movimentações.
func (s *Service) UpdateProduct(ctx context.Context, id string, upd domain.ProductUpdate) (domain.Product, error) {
	if err := validateID(id); err != nil {
		return domain.Product{}, err
	}
	if upd.Quantity != nil {
		s.logger.Warn("Tentativa de alterar quantidade pelo cadastro.", map[string]interface{}{"product_id": id})
		return domain.Product{}, apperror.NewFieldValidationError("quantity", "A quantidade só pode ser alterada por movimentações de estoque.")
	}
	if upd.Name != nil {
		trimmed := strings.TrimSpace(*upd.Name)
		if trimmed == "" {
			return domain.Product{}, apperror.NewFieldValidationError("name", "O campo name é obrigatório.")
		}
		upd.Name = &trimmed
	}
	if err := s.validator.Struct(upd); err != nil {
		return domain.Product{}, err
	}

	// Leitura, aplicação e escrita sob o lock do produto e numa única transação:
	// duas atualizações parciais simultâneas não desfazem uma à outra.
	release, err := s.locker.Acquire(ctx, lock.ProductKey(id))
	if err != nil {
		return domain.Product{}, lockError(err)
	}
	defer release()

	var updated domain.Product
	err = s.tx.RunInTx(ctx, func(store domain.Store) error {
		current, err := store.Products().FindForUpdate(ctx, id)
		if err != nil {
			return err
		}
		if upd.IsEmpty() {
			updated = current
			return nil
		}
		updated, err = store.Products().Update(ctx, upd.Apply(current))
		return err
	})
	if err != nil {
		return domain.Product{}, err
	}

	s.logger.Info("Produto atualizado.", map[string]interface{}{"product_id": id})
	return updated, nil
}

// DeleteProduct remove o produto e todo o seu histórico de movimentações.
// Devolve false quando o produto não existe.
func (s *Service) DeleteProduct(ctx context.Context, id string) (bool, error) {
	if err := validateID(id); err != nil {
		return false, err
	}

	release, err := s.locker.Acquire(ctx, lock.ProductKey(id))
	if err != nil {
		return false, lockError(err)
	}
	defer release()

	var purged int64
	err = s.tx.RunInTx(ctx, func(store domain.Store) error {
		if _, err := store.Products().FindForUpdate(ctx, id); err != nil {
			return err
		}
		n, err := store.Movements().PurgeByProduct(ctx, id)
		if err != nil {
			return err
		}
		purged = n
		return store.Products().Delete(ctx, id)
	})
	if apperror.IsNotFound(err) {
		return false, nil
	}
	if err != nil {
		return false, err
	}

	s.logger.Info("Produto deletado.", map[string]interface{}{"product_id": id, "movements_purged": purged})
	return true, nil
}

func validateID(id string) error {
	if _, err := uuid.Parse(id); err != nil {
		return apperror.NewFieldValidationError("id", "O ID do produto deve ser um UUID válido.")
	}
	return nil
}

func lockError(err error) error {
	if stderrors.Is(err, lock.ErrNotAcquired) {
		return apperror.NewConflictError("O produto está sendo alterado por outra operação. Tente novamente.")
	}
	if stderrors.Is(err, context.Canceled) || stderrors.Is(err, context.DeadlineExceeded) {
		return err
	}
	return apperror.NewInternalError("Falha ao adquirir lock do produto", err)
}
