package memrepo

import (
	"context"
	"fmt"

	"stockflow/internal/domain"
	"stockflow/internal/errors"
)

type productRepo struct {
	store *Store
	tx    *state
}

func notFound(id string) error {
	return errors.NewNotFoundError(fmt.Sprintf("Produto com ID %s não existe na base de dados.", id))
}

func (r *productRepo) Save(_ context.Context, product domain.Product) (domain.Product, error) {
	err := r.store.with(r.tx, func(st *state) error {
		if _, exists := st.products[product.ID]; exists {
			return errors.NewConflictError(fmt.Sprintf("Produto com ID %s já existe.", product.ID))
		}
		if product.Quantity < 0 || product.Price < 0 || product.MinStock < 0 {
			return errors.NewValidationError("Valor viola uma restrição do estoque.")
		}
		st.products[product.ID] = product
		st.order = append(st.order, product.ID)
		return nil
	})
	if err != nil {
		return domain.Product{}, err
	}
	return product, nil
}

func (r *productRepo) FindByID(_ context.Context, id string) (domain.Product, error) {
	var found domain.Product
	err := r.store.with(r.tx, func(st *state) error {
		p, ok := st.products[id]
		if !ok {
			return notFound(id)
		}
		found = p
		return nil
	})
	return found, err
}

// FindForUpdate equivale a FindByID: dentro de RunInTx o mutex já isola a transação.
func (r *productRepo) FindForUpdate(ctx context.Context, id string) (domain.Product, error) {
	return r.FindByID(ctx, id)
}

func (r *productRepo) FindAll(_ context.Context) ([]domain.Product, error) {
	return r.filter(func(domain.Product) bool { return true }), nil
}

func (r *productRepo) FindLowStock(_ context.Context) ([]domain.Product, error) {
	return r.filter(domain.Product.IsLowStock), nil
}

func (r *productRepo) filter(keep func(domain.Product) bool) []domain.Product {
	out := []domain.Product{}
	r.store.with(r.tx, func(st *state) error {
		for _, id := range st.order {
			if p := st.products[id]; keep(p) {
				out = append(out, p)
			}
		}
		return nil
	})
	return out
}

func (r *productRepo) Update(_ context.Context, product domain.Product) (domain.Product, error) {
	var updated domain.Product
	err := r.store.with(r.tx, func(st *state) error {
		current, ok := st.products[product.ID]
		if !ok {
			return notFound(product.ID)
		}
		current.Name = product.Name
		current.Description = product.Description
		current.Price = product.Price
		current.MinStock = product.MinStock
		current.UpdatedAt = r.store.now()
		st.products[product.ID] = current
		updated = current
		return nil
	})
	return updated, err
}

// Delete remove o produto e, como o ON DELETE CASCADE do Postgres, suas movimentações.
func (r *productRepo) Delete(_ context.Context, id string) error {
	return r.store.with(r.tx, func(st *state) error {
		if _, ok := st.products[id]; !ok {
			return notFound(id)
		}
		delete(st.products, id)
		for i, oid := range st.order {
			if oid == id {
				st.order = append(st.order[:i:i], st.order[i+1:]...)
				break
			}
		}
		purge(st, id)
		return nil
	})
}

func (r *productRepo) UpdateQuantity(_ context.Context, id string, expected, next int) error {
	return r.store.with(r.tx, func(st *state) error {
		current, ok := st.products[id]
		if !ok {
			return notFound(id)
		}
		if next < 0 {
			return errors.NewValidationError("Valor viola uma restrição do estoque: products_quantity_check")
		}
		if current.Quantity != expected {
			return errors.NewConflictError("O estoque foi modificado por outra operação. Tente novamente.")
		}
		current.Quantity = next
		current.UpdatedAt = r.store.now()
		st.products[id] = current
		return nil
	})
}
