package movementrepo

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"stockflow/internal/domain"
	"stockflow/internal/errors"
	"stockflow/internal/pkg/logger"
	"stockflow/internal/repository/pgerr"
)

const movementColumns = `id, seq, product_id, type, quantity, timestamp`

// MovementRepository implementa domain.MovementRepository: o livro de movimentações.
type MovementRepository struct {
	DB        sqlx.ExtContext
	DBTimeout time.Duration
	logger    logger.Logger
}

// NewMovementRepository cria o repositório do livro de movimentações.
func NewMovementRepository(db sqlx.ExtContext, dbTimeout time.Duration, log logger.Logger) *MovementRepository {
	return &MovementRepository{DB: db, DBTimeout: dbTimeout, logger: log}
}

// WithTx devolve uma cópia atada a tx.
func (r *MovementRepository) WithTx(tx *sqlx.Tx) *MovementRepository {
	cp := *r
	cp.DB = tx
	return &cp
}

// Append grava uma movimentação. O id e o timestamp são atribuídos aqui;
// o seq vem do BIGSERIAL.
func (r *MovementRepository) Append(ctx context.Context, movement domain.Movement) (domain.Movement, error) {
	if !movement.Type.Valid() {
		return domain.Movement{}, errors.NewFieldValidationError("type", fmt.Sprintf("Tipo de movimentação inválido: %q.", movement.Type))
	}

	ctxTimeout, cancel := context.WithTimeout(ctx, r.DBTimeout)
	defer cancel()

	movement.ID = uuid.New().String()
	movement.Timestamp = time.Now().UTC()

	query := `INSERT INTO movements (id, product_id, type, quantity, timestamp)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING ` + movementColumns

	var saved domain.Movement
	err := sqlx.GetContext(ctxTimeout, r.DB, &saved, query,
		movement.ID,
		movement.ProductID,
		movement.Type,
		movement.Quantity,
		movement.Timestamp,
	)
	if err != nil {
		r.logger.Error("Falha ao inserir movimentação.", err)
		return domain.Movement{}, pgerr.Map("Falha ao inserir movimentação", err)
	}
	return saved, nil
}

// Recent devolve as limit movimentações mais novas de todos os produtos.
func (r *MovementRepository) Recent(ctx context.Context, limit int) ([]domain.Movement, error) {
	ctxTimeout, cancel := context.WithTimeout(ctx, r.DBTimeout)
	defer cancel()

	query := `SELECT ` + movementColumns + ` FROM movements ORDER BY timestamp DESC, seq DESC LIMIT $1`
	movements := []domain.Movement{}
	if err := sqlx.SelectContext(ctxTimeout, r.DB, &movements, query, limit); err != nil {
		r.logger.Error("Falha ao listar movimentações recentes.", err)
		return nil, errors.NewDBError("Falha ao listar movimentações recentes", err)
	}
	return movements, nil
}

// ByProduct devolve o histórico de um produto, mais novas primeiro.
func (r *MovementRepository) ByProduct(ctx context.Context, productID string) ([]domain.Movement, error) {
	ctxTimeout, cancel := context.WithTimeout(ctx, r.DBTimeout)
	defer cancel()

	query := `SELECT ` + movementColumns + ` FROM movements WHERE product_id = $1 ORDER BY timestamp DESC, seq DESC`
	movements := []domain.Movement{}
	if err := sqlx.SelectContext(ctxTimeout, r.DB, &movements, query, productID); err != nil {
		r.logger.Error("Falha ao listar movimentações do produto.", err)
		return nil, errors.NewDBError("Falha ao listar movimentações do produto", err)
	}
	return movements, nil
}

// PurgeByProduct remove todas as movimentações de um produto.
func (r *MovementRepository) PurgeByProduct(ctx context.Context, productID string) (int64, error) {
	ctxTimeout, cancel := context.WithTimeout(ctx, r.DBTimeout)
	defer cancel()

	result, err := r.DB.ExecContext(ctxTimeout, `DELETE FROM movements WHERE product_id = $1`, productID)
	if err != nil {
		r.logger.Error("Falha ao remover movimentações do produto.", err)
		return 0, errors.NewDBError("Falha ao remover movimentações", err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return 0, errors.NewDBError("Falha ao verificar linhas afetadas", err)
	}
	return n, nil
}
