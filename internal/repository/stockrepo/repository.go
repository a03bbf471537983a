package stockrepo

import (
	"context"
	"database/sql"
	stderrors "errors"

	"github.com/jmoiron/sqlx"

	"stockflow/internal/domain"
	"stockflow/internal/errors"
	"stockflow/internal/pkg/logger"
	"stockflow/internal/repository/movementrepo"
	"stockflow/internal/repository/productrepo"
)

// TxRunner implementa domain.TxRunner sobre PostgreSQL: os dois repositórios
// são atados ao mesmo *sqlx.Tx e o cache só é invalidado após o commit.
type TxRunner struct {
	DB        *sqlx.DB
	products  *productrepo.ProductRepository
	movements *movementrepo.MovementRepository
	logger    logger.Logger
}

// NewTxRunner cria o executor de transações a partir dos repositórios base.
func NewTxRunner(db *sqlx.DB, products *productrepo.ProductRepository, movements *movementrepo.MovementRepository, log logger.Logger) *TxRunner {
	return &TxRunner{
		DB:        db,
		products:  products,
		movements: movements,
		logger:    log,
	}
}

type txStore struct {
	products  *productrepo.ProductRepository
	movements *movementrepo.MovementRepository
}

func (s txStore) Products() domain.ProductRepository   { return s.products }
func (s txStore) Movements() domain.MovementRepository { return s.movements }

// RunInTx abre a transação, executa fn e faz commit; qualquer erro de fn gera rollback.
func (r *TxRunner) RunInTx(ctx context.Context, fn func(store domain.Store) error) (err error) {
	tx, err := r.DB.BeginTxx(ctx, &sql.TxOptions{Isolation: sql.LevelReadCommitted})
	if err != nil {
		r.logger.Error("Falha ao iniciar transação.", err)
		return errors.NewDBError("Falha ao iniciar transação", err)
	}
	defer func() {
		if p := recover(); p != nil {
			tx.Rollback()
			panic(p)
		}
		if err != nil {
			if rbErr := tx.Rollback(); rbErr != nil && !stderrors.Is(rbErr, sql.ErrTxDone) {
				r.logger.Warn("Falha no rollback.", map[string]interface{}{"error": rbErr.Error()})
			}
		}
	}()

	var touched []string
	store := txStore{
		products:  r.products.WithTx(tx, &touched),
		movements: r.movements.WithTx(tx),
	}

	if err = fn(store); err != nil {
		return err
	}

	if err = tx.Commit(); err != nil {
		r.logger.Error("Falha ao commitar transação.", err)
		return errors.NewDBError("Falha ao commitar transação", err)
	}

	r.products.Invalidate(ctx, touched...)
	return nil
}

// Store expõe os repositórios fora de transação.
type Store struct {
	products  *productrepo.ProductRepository
	movements *movementrepo.MovementRepository
}

// NewStore agrupa os repositórios Postgres como domain.Store.
func NewStore(products *productrepo.ProductRepository, movements *movementrepo.MovementRepository) *Store {
	return &Store{products: products, movements: movements}
}

func (s *Store) Products() domain.ProductRepository   { return s.products }
func (s *Store) Movements() domain.MovementRepository { return s.movements }
