package memrepo

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"stockflow/internal/domain"
	"stockflow/internal/errors"
)

type movementRepo struct {
	store *Store
	tx    *state
}

func (r *movementRepo) Append(_ context.Context, movement domain.Movement) (domain.Movement, error) {
	if !movement.Type.Valid() {
		return domain.Movement{}, errors.NewFieldValidationError("type", fmt.Sprintf("Tipo de movimentação inválido: %q.", movement.Type))
	}
	if movement.Quantity <= 0 {
		return domain.Movement{}, errors.NewValidationError("Valor viola uma restrição do estoque: movements_quantity_check")
	}

	err := r.store.with(r.tx, func(st *state) error {
		if _, ok := st.products[movement.ProductID]; !ok {
			return errors.NewNotFoundError("Produto referenciado não existe.")
		}
		st.movementSeq++
		movement.ID = uuid.New().String()
		movement.Seq = st.movementSeq
		movement.Timestamp = r.store.now()
		st.movements = append(st.movements, movement)
		return nil
	})
	if err != nil {
		return domain.Movement{}, err
	}
	return movement, nil
}

func (r *movementRepo) Recent(_ context.Context, limit int) ([]domain.Movement, error) {
	var out []domain.Movement
	r.store.with(r.tx, func(st *state) error {
		out = append([]domain.Movement{}, st.movements...)
		return nil
	})
	sortNewestFirst(out)
	if limit >= 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (r *movementRepo) ByProduct(_ context.Context, productID string) ([]domain.Movement, error) {
	out := []domain.Movement{}
	r.store.with(r.tx, func(st *state) error {
		for _, m := range st.movements {
			if m.ProductID == productID {
				out = append(out, m)
			}
		}
		return nil
	})
	sortNewestFirst(out)
	return out, nil
}

func (r *movementRepo) PurgeByProduct(_ context.Context, productID string) (int64, error) {
	var n int64
	r.store.with(r.tx, func(st *state) error {
		n = purge(st, productID)
		return nil
	})
	return n, nil
}

func purge(st *state, productID string) int64 {
	kept := st.movements[:0:0]
	var removed int64
	for _, m := range st.movements {
		if m.ProductID == productID {
			removed++
			continue
		}
		kept = append(kept, m)
	}
	st.movements = kept
	return removed
}
