package domain

import "context"

// --- Interfaces de Contrato da Persistência ---

// ProductRepository define o que as camadas de Serviço podem pedir à persistência de produtos.
type ProductRepository interface {
	Save(ctx context.Context, product Product) (Product, error)
	FindByID(ctx context.Context, id string) (Product, error)
	FindAll(ctx context.Context) ([]Product, error)
	FindLowStock(ctx context.Context) ([]Product, error)
	// Update grava apenas name, description, price e min_stock; nunca a quantidade.
	Update(ctx context.Context, product Product) (Product, error)
	Delete(ctx context.Context, id string) error

	// FindForUpdate carrega o produto bloqueando a linha até o fim da transação.
	FindForUpdate(ctx context.Context, id string) (Product, error)
	// UpdateQuantity troca a quantidade de expected para next; devolve ConflictError
	// se a quantidade persistida não for mais expected.
	UpdateQuantity(ctx context.Context, id string, expected, next int) error
}

// MovementRepository é o livro de movimentações (somente inclusão).
type MovementRepository interface {
	Append(ctx context.Context, movement Movement) (Movement, error)
	Recent(ctx context.Context, limit int) ([]Movement, error)
	ByProduct(ctx context.Context, productID string) ([]Movement, error)
	PurgeByProduct(ctx context.Context, productID string) (int64, error)
}

// Store agrupa os repositórios ligados a uma mesma conexão ou transação.
type Store interface {
	Products() ProductRepository
	Movements() MovementRepository
}

// TxRunner executa fn com repositórios atados a uma única transação.
// Se fn devolver erro, nada do que ela gravou fica visível.
type TxRunner interface {
	RunInTx(ctx context.Context, fn func(store Store) error) error
}
