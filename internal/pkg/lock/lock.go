// Package lock serializa operações que alteram o estoque de um mesmo produto.
package lock

import (
	"context"
	"errors"
)

// ErrNotAcquired indica que o lock não pôde ser obtido dentro do prazo.
var ErrNotAcquired = errors.New("lock: não foi possível adquirir o lock")

// Locker adquire um lock exclusivo por chave. O release devolvido deve ser
// chamado exatamente uma vez.
type Locker interface {
	Acquire(ctx context.Context, key string) (release func(), err error)
}

// ProductKey é a chave usada para serializar mudanças de estoque de um produto.
func ProductKey(productID string) string {
	return "lock:product:" + productID
}
