package stockservice

import (
	"context"
	stderrors "errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/sethvargo/go-retry"

	"stockflow/internal/domain"
	apperror "stockflow/internal/errors"
	"stockflow/internal/pkg/lock"
	"stockflow/internal/pkg/logger"
)

// AlertPublisher recebe os alertas de estoque baixo gerados após uma movimentação.
type AlertPublisher interface {
	PublishLowStock(ctx context.Context, alert domain.LowStockAlert) error
}

// Options ajusta o motor de estoque.
type Options struct {
	MaxRetries   int           // Novas tentativas após um ConflictError
	RetryDelay   time.Duration // Espera constante entre tentativas
	RecentLimit  int           // Limite padrão de RecentMovements
	RecentMax    int           // Limite máximo aceito em RecentMovements
	AlertTimeout time.Duration
}

// DefaultOptions espelha os valores padrão da configuração.
func DefaultOptions() Options {
	return Options{
		MaxRetries:   3,
		RetryDelay:   10 * time.Millisecond,
		RecentLimit:  5,
		RecentMax:    100,
		AlertTimeout: 2 * time.Second,
	}
}

// Service é o motor de estoque: aplica movimentações à quantidade dos produtos
// e mantém o livro de movimentações consistente com ela.
type Service struct {
	store  domain.Store
	tx     domain.TxRunner
	locker lock.Locker
	alerts AlertPublisher
	logger logger.Logger
	opts   Options
}

// NewService cria o Serviço de Estoque. alerts pode ser nil.
func NewService(store domain.Store, tx domain.TxRunner, locker lock.Locker, alerts AlertPublisher, log logger.Logger, opts Options) *Service {
	return &Service{
		store:  store,
		tx:     tx,
		locker: locker,
		alerts: alerts,
		logger: log,
		opts:   opts,
	}
}

// RecordMovement aplica uma movimentação de entrada ou saída.
// A quantidade e o livro só mudam juntos; qualquer erro deixa ambos intactos.
func (s *Service) RecordMovement(ctx context.Context, req domain.MovementRequest) (domain.Movement, error) {
	s.logger.Debug("Iniciando movimentação de estoque.", map[string]interface{}{
		"product_id": req.ProductID,
		"type":       req.Type,
		"quantity":   req.Quantity,
	})

	// Um ID malformado nunca existe na base.
	if _, err := uuid.Parse(req.ProductID); err != nil {
		return domain.Movement{}, apperror.NewNotFoundError(fmt.Sprintf("Produto com ID %q não existe na base de dados.", req.ProductID))
	}

	// 1. Serializa as movimentações do mesmo produto.
	release, err := s.locker.Acquire(ctx, lock.ProductKey(req.ProductID))
	if err != nil {
		s.logger.Warn("Falha ao adquirir lock do produto.", map[string]interface{}{"product_id": req.ProductID, "error": err.Error()})
		return domain.Movement{}, lockError(err)
	}
	defer release()

	// 2. Transação com leitura bloqueante e escrita condicional. Conflitos são refeitos.
	var (
		movement domain.Movement
		product  domain.Product
	)
	backoff := retry.WithMaxRetries(uint64(s.opts.MaxRetries), retry.NewConstant(s.opts.RetryDelay))
	err = retry.Do(ctx, backoff, func(ctx context.Context) error {
		err := s.tx.RunInTx(ctx, func(store domain.Store) error {
			m, p, err := apply(ctx, store, req)
			if err != nil {
				return err
			}
			movement, product = m, p
			return nil
		})
		if apperror.IsConflict(err) {
			s.logger.Warn("Conflito ao gravar movimentação, tentando novamente.", map[string]interface{}{"product_id": req.ProductID})
			return retry.RetryableError(err)
		}
		return err
	})
	if err != nil {
		if apperror.IsBusiness(err) {
			s.logger.Info("Movimentação rejeitada.", map[string]interface{}{"product_id": req.ProductID, "reason": err.Error()})
		} else {
			s.logger.Error("Falha ao gravar movimentação.", err)
		}
		return domain.Movement{}, err
	}

	s.logger.Info("Movimentação registrada com sucesso.", map[string]interface{}{
		"movement_id":  movement.ID,
		"product_id":   product.ID,
		"type":         movement.Type,
		"quantity":     movement.Quantity,
		"new_quantity": product.Quantity,
	})

	// 3. Após o commit: alerta de estoque baixo (melhor esforço).
	if product.IsLowStock() {
		s.publishLowStock(ctx, product)
	}

	return movement, nil
}

// apply executa as regras de negócio dentro da transação, na ordem:
// existência, tipo, quantidade, saldo.
func apply(ctx context.Context, store domain.Store, req domain.MovementRequest) (domain.Movement, domain.Product, error) {
	product, err := store.Products().FindForUpdate(ctx, req.ProductID)
	if err != nil {
		return domain.Movement{}, domain.Product{}, err
	}

	if !req.Type.Valid() {
		return domain.Movement{}, domain.Product{}, apperror.NewFieldValidationError("type",
			fmt.Sprintf("Tipo de movimentação inválido: %q. Use %q ou %q.", req.Type, domain.MovementEntrada, domain.MovementSaida))
	}
	if req.Quantity <= 0 {
		return domain.Movement{}, domain.Product{}, apperror.NewFieldValidationError("quantity", "A quantidade deve ser maior que zero.")
	}
	if req.Type == domain.MovementSaida && req.Quantity > product.Quantity {
		return domain.Movement{}, domain.Product{}, apperror.NewInsufficientStockError(product.Quantity, req.Quantity)
	}

	next := product.Quantity + req.Type.Delta(req.Quantity)
	if err := store.Products().UpdateQuantity(ctx, product.ID, product.Quantity, next); err != nil {
		return domain.Movement{}, domain.Product{}, err
	}

	movement, err := store.Movements().Append(ctx, domain.Movement{
		ProductID: product.ID,
		Type:      req.Type,
		Quantity:  req.Quantity,
	})
	if err != nil {
		return domain.Movement{}, domain.Product{}, err
	}

	product.Quantity = next
	return movement, product, nil
}

func (s *Service) publishLowStock(ctx context.Context, product domain.Product) {
	if s.alerts == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), s.opts.AlertTimeout)
	defer cancel()

	alert := domain.LowStockAlert{
		ProductID: product.ID,
		Name:      product.Name,
		Quantity:  product.Quantity,
		MinStock:  product.MinStock,
		At:        time.Now().UTC(),
	}
	if err := s.alerts.PublishLowStock(ctx, alert); err != nil {
		s.logger.Warn("Falha ao publicar alerta de estoque baixo.", map[string]interface{}{"product_id": product.ID, "error": err.Error()})
		return
	}
	s.logger.Debug("Alerta de estoque baixo publicado.", map[string]interface{}{"product_id": product.ID, "quantity": product.Quantity})
}

// RecentMovements devolve as movimentações mais novas de todos os produtos.
// limit == 0 usa o padrão; valores acima do máximo são truncados.
func (s *Service) RecentMovements(ctx context.Context, limit int) ([]domain.Movement, error) {
	switch {
	case limit < 0:
		return nil, apperror.NewFieldValidationError("limit", "O limite não pode ser negativo.")
	case limit == 0:
		limit = s.opts.RecentLimit
	case limit > s.opts.RecentMax:
		limit = s.opts.RecentMax
	}
	return s.store.Movements().Recent(ctx, limit)
}

// MovementsByProduct devolve o histórico de um produto existente.
func (s *Service) MovementsByProduct(ctx context.Context, productID string) ([]domain.Movement, error) {
	if _, err := uuid.Parse(productID); err != nil {
		return nil, apperror.NewFieldValidationError("id", "O ID do produto deve ser um UUID válido.")
	}
	if _, err := s.store.Products().FindByID(ctx, productID); err != nil {
		return nil, err
	}
	return s.store.Movements().ByProduct(ctx, productID)
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
