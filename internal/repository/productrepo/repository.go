package productrepo

import (
	"context"
	"database/sql"
	"encoding/json"
	stderrors "errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"stockflow/internal/domain"
	"stockflow/internal/errors"
	"stockflow/internal/pkg/cache"
	"stockflow/internal/pkg/logger"
	"stockflow/internal/repository/pgerr"
)

// Define as chaves de cache para produtos. A geração é incrementada a cada
// invalidação; entradas gravadas com uma geração anterior são ignoradas.
const (
	productCacheKey      = "product:%s"
	productGenerationKey = "product:%s:gen"
)

const productColumns = `id, name, description, price, quantity, min_stock, created_at, updated_at`

// CacheKey devolve a chave de cache de um produto.
func CacheKey(id string) string {
	return fmt.Sprintf(productCacheKey, id)
}

// GenerationKey devolve a chave do contador de geração de um produto.
func GenerationKey(id string) string {
	return fmt.Sprintf(productGenerationKey, id)
}

// cachedProduct é o valor gravado no cache: o produto e a geração lida antes da consulta ao DB.
type cachedProduct struct {
	Gen     int            `json:"gen"`
	Product domain.Product `json:"product"`
}

// ProductRepository implementa a interface domain.ProductRepository sobre PostgreSQL.
// O mesmo tipo serve a conexão principal e uma transação (ver WithTx).
type ProductRepository struct {
	DB        sqlx.ExtContext // *sqlx.DB ou *sqlx.Tx
	Cache     cache.Client    // Cliente para operações de cache (Redis)
	DBTimeout time.Duration
	CacheTTL  time.Duration
	logger    logger.Logger

	// touched é não-nil quando o repositório está atado a uma transação:
	// as invalidações de cache ficam para depois do commit.
	touched *[]string
}

// NewProductRepository cria e retorna uma nova instância do Repositório.
// Aqui injetamos as dependências de Infraestrutura (DB e Cache).
func NewProductRepository(db sqlx.ExtContext, cacheClient cache.Client, dbTimeout, cacheTTL time.Duration, log logger.Logger) *ProductRepository {
	if cacheClient == nil {
		cacheClient = cache.NopClient{}
	}
	return &ProductRepository{
		DB:        db,
		Cache:     cacheClient,
		DBTimeout: dbTimeout,
		CacheTTL:  cacheTTL,
		logger:    log,
	}
}

// WithTx devolve uma cópia do repositório atada a tx. Os ids alterados são
// acumulados em touched para invalidação após o commit.
func (r *ProductRepository) WithTx(tx *sqlx.Tx, touched *[]string) *ProductRepository {
	cp := *r
	cp.DB = tx
	cp.touched = touched
	return &cp
}

// Save persiste um novo Produto.
func (r *ProductRepository) Save(ctx context.Context, product domain.Product) (domain.Product, error) {
	ctxTimeout, cancel := context.WithTimeout(ctx, r.DBTimeout)
	defer cancel()

	const insertSQL = `INSERT INTO products (id, name, description, price, quantity, min_stock, created_at, updated_at)
		VALUES (:id, :name, :description, :price, :quantity, :min_stock, :created_at, :updated_at)`

	if _, err := sqlx.NamedExecContext(ctxTimeout, r.DB, insertSQL, product); err != nil {
		r.logger.Error("Falha ao inserir produto no DB.", err)
		return domain.Product{}, pgerr.Map("Falha ao inserir produto", err)
	}
	return product, nil
}

// FindByID busca um produto pelo ID, utilizando a estratégia Cache-Aside.
// Dentro de uma transação o cache é ignorado.
//
// A geração é lida antes do DB: se um commit invalidar o produto entre a
// consulta e a gravação no cache, a entrada fica com geração velha e nunca é servida.
func (r *ProductRepository) FindByID(ctx context.Context, id string) (domain.Product, error) {
	ctxTimeout, cancel := context.WithTimeout(ctx, r.DBTimeout)
	defer cancel()

	useCache := r.touched == nil
	gen := 0

	// --- 1. Cache-Aside (READ) ---
	if useCache {
		var ok bool
		gen, ok = r.generation(ctxTimeout, id)
		useCache = ok
	}
	if useCache {
		if product, hit := r.readCache(ctxTimeout, id, gen); hit {
			return product, nil
		}
	}

	// --- 2. Busca no Banco de Dados ---
	var product domain.Product
	query := `SELECT ` + productColumns + ` FROM products WHERE id = $1`
	if err := sqlx.GetContext(ctxTimeout, r.DB, &product, query, id); err != nil {
		return domain.Product{}, r.notFoundOrDB(id, "Falha ao buscar produto no DB", err)
	}

	// --- 3. Cache-Aside (WRITE) ---
	if useCache {
		r.writeCache(ctxTimeout, gen, product)
	}
	return product, nil
}

// generation lê o contador de geração; ok=false desliga o cache nesta leitura.
func (r *ProductRepository) generation(ctx context.Context, id string) (int, bool) {
	gen, err := r.Cache.GetInt(ctx, GenerationKey(id))
	switch {
	case err == nil:
		return gen, true
	case stderrors.Is(err, cache.ErrCacheMiss):
		return 0, true
	default:
		r.logger.Warn("Falha ao ler geração do cache Redis.", map[string]interface{}{"product_id": id, "error": err.Error()})
		return 0, false
	}
}

func (r *ProductRepository) readCache(ctx context.Context, id string, gen int) (domain.Product, bool) {
	key := CacheKey(id)
	cachedData, err := r.Cache.Get(ctx, key)
	if err != nil {
		if !stderrors.Is(err, cache.ErrCacheMiss) {
			r.logger.Warn("Falha ao ler do cache Redis.", map[string]interface{}{"key": key, "error": err.Error()})
		}
		return domain.Product{}, false
	}

	var entry cachedProduct
	if err := json.Unmarshal([]byte(cachedData), &entry); err != nil {
		r.logger.Warn("Entrada de cache inválida, consultando o DB.", map[string]interface{}{"key": key})
		return domain.Product{}, false
	}
	if entry.Gen != gen {
		return domain.Product{}, false
	}
	return entry.Product, true
}

// FindAll lista todos os produtos na ordem de cadastro.
func (r *ProductRepository) FindAll(ctx context.Context) ([]domain.Product, error) {
	ctxTimeout, cancel := context.WithTimeout(ctx, r.DBTimeout)
	defer cancel()

	query := `SELECT ` + productColumns + ` FROM products ORDER BY created_at, seq`
	products := []domain.Product{}
	if err := sqlx.SelectContext(ctxTimeout, r.DB, &products, query); err != nil {
		r.logger.Error("Falha ao listar produtos.", err)
		return nil, errors.NewDBError("Falha ao listar produtos", err)
	}
	return products, nil
}

// FindLowStock lista os produtos com quantity <= min_stock, na ordem de cadastro.
func (r *ProductRepository) FindLowStock(ctx context.Context) ([]domain.Product, error) {
	ctxTimeout, cancel := context.WithTimeout(ctx, r.DBTimeout)
	defer cancel()

	query := `SELECT ` + productColumns + ` FROM products WHERE quantity <= min_stock ORDER BY created_at, seq`
	products := []domain.Product{}
	if err := sqlx.SelectContext(ctxTimeout, r.DB, &products, query); err != nil {
		r.logger.Error("Falha ao listar produtos com estoque baixo.", err)
		return nil, errors.NewDBError("Falha ao listar estoque baixo", err)
	}
	return products, nil
}

// Update grava os campos cadastrais do produto. A quantidade não é tocada.
func (r *ProductRepository) Update(ctx context.Context, product domain.Product) (domain.Product, error) {
	ctxTimeout, cancel := context.WithTimeout(ctx, r.DBTimeout)
	defer cancel()

	query := `UPDATE products
		SET name = $1, description = $2, price = $3, min_stock = $4, updated_at = $5
		WHERE id = $6
		RETURNING ` + productColumns

	var updated domain.Product
	err := sqlx.GetContext(ctxTimeout, r.DB, &updated, query,
		product.Name,
		product.Description,
		product.Price,
		product.MinStock,
		time.Now().UTC(),
		product.ID,
	)
	if err != nil {
		return domain.Product{}, r.notFoundOrDB(product.ID, "Falha ao atualizar produto", err)
	}

	r.invalidate(ctxTimeout, product.ID)
	return updated, nil
}

// Delete remove o produto; as movimentações caem junto (ON DELETE CASCADE).
func (r *ProductRepository) Delete(ctx context.Context, id string) error {
	ctxTimeout, cancel := context.WithTimeout(ctx, r.DBTimeout)
	defer cancel()

	result, err := r.DB.ExecContext(ctxTimeout, `DELETE FROM products WHERE id = $1`, id)
	if err != nil {
		r.logger.Error("Falha ao deletar produto.", err)
		return errors.NewDBError("Falha ao deletar produto", err)
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return errors.NewDBError("Falha ao verificar linhas afetadas", err)
	}
	if rowsAffected == 0 {
		return errors.NewNotFoundError(fmt.Sprintf("Produto com ID %s não existe na base de dados.", id))
	}

	r.invalidate(ctxTimeout, id)
	return nil
}

// FindForUpdate carrega o produto com SELECT ... FOR UPDATE.
// Só faz sentido dentro de uma transação.
func (r *ProductRepository) FindForUpdate(ctx context.Context, id string) (domain.Product, error) {
	ctxTimeout, cancel := context.WithTimeout(ctx, r.DBTimeout)
	defer cancel()

	query := `SELECT ` + productColumns + ` FROM products WHERE id = $1 FOR UPDATE`
	var product domain.Product
	if err := sqlx.GetContext(ctxTimeout, r.DB, &product, query, id); err != nil {
		return domain.Product{}, r.notFoundOrDB(id, "Falha ao buscar produto para atualização", err)
	}
	return product, nil
}

// UpdateQuantity aplica a nova quantidade apenas se a persistida ainda for expected.
func (r *ProductRepository) UpdateQuantity(ctx context.Context, id string, expected, next int) error {
	ctxTimeout, cancel := context.WithTimeout(ctx, r.DBTimeout)
	defer cancel()

	const updateSQL = `UPDATE products
		SET quantity = $1, updated_at = $2
		WHERE id = $3 AND quantity = $4`

	result, err := r.DB.ExecContext(ctxTimeout, updateSQL, next, time.Now().UTC(), id, expected)
	if err != nil {
		r.logger.Error("Falha ao atualizar quantidade do produto.", err)
		return pgerr.Map("Falha ao atualizar quantidade", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return errors.NewDBError("Falha ao verificar linhas afetadas", err)
	}
	if rowsAffected == 0 {
		r.logger.Warn("Quantidade alterada por outra operação.", map[string]interface{}{
			"product_id":        id,
			"expected_quantity": expected,
		})
		return errors.NewConflictError("O estoque foi modificado por outra operação. Tente novamente.")
	}

	r.invalidate(ctxTimeout, id)
	return nil
}

// Invalidate avança a geração e remove os produtos do cache. Falhas só são logadas.
func (r *ProductRepository) Invalidate(ctx context.Context, ids ...string) {
	if len(ids) == 0 {
		return
	}
	keys := make([]string, 0, len(ids))
	for _, id := range ids {
		r.bumpGeneration(ctx, id)
		keys = append(keys, CacheKey(id))
	}
	if err := r.Cache.Delete(ctx, keys...); err != nil {
		r.logger.Warn("Falha ao invalidar cache de produtos.", map[string]interface{}{"keys": keys, "error": err.Error()})
	}
}

// bumpGeneration incrementa a geração. O contador vive o dobro do TTL das
// entradas, então nenhuma entrada sobrevive à sua geração.
func (r *ProductRepository) bumpGeneration(ctx context.Context, id string) {
	key := GenerationKey(id)
	if _, err := r.Cache.Incr(ctx, key); err != nil {
		r.logger.Warn("Falha ao avançar geração do produto no cache.", map[string]interface{}{"product_id": id, "error": err.Error()})
		return
	}
	if r.CacheTTL > 0 {
		if err := r.Cache.Expire(ctx, key, 2*r.CacheTTL); err != nil {
			r.logger.Warn("Falha ao definir TTL da geração.", map[string]interface{}{"product_id": id, "error": err.Error()})
		}
	}
}

func (r *ProductRepository) invalidate(ctx context.Context, id string) {
	if r.touched != nil {
		*r.touched = append(*r.touched, id)
		return
	}
	r.Invalidate(ctx, id)
}

func (r *ProductRepository) writeCache(ctx context.Context, gen int, product domain.Product) {
	productJSON, err := json.Marshal(cachedProduct{Gen: gen, Product: product})
	if err != nil {
		r.logger.Warn("Falha ao serializar produto para cache.", map[string]interface{}{"product_id": product.ID})
		return
	}
	if err := r.Cache.Set(ctx, CacheKey(product.ID), productJSON, r.CacheTTL); err != nil {
		r.logger.Warn("Falha ao gravar produto no cache.", map[string]interface{}{"product_id": product.ID, "error": err.Error()})
	}
}

func (r *ProductRepository) notFoundOrDB(id, msg string, err error) error {
	if stderrors.Is(err, sql.ErrNoRows) {
		return errors.NewNotFoundError(fmt.Sprintf("Produto com ID %s não existe na base de dados.", id))
	}
	r.logger.Error(msg, err)
	return errors.NewDBError(msg, err)
}
