// Package memrepo guarda produtos e movimentações em memória, com as mesmas
// regras das tabelas Postgres (FK, CHECK e cascade).
package memrepo

import (
	"context"
	"sort"
	"sync"
	"time"

	"stockflow/internal/domain"
)

type state struct {
	products    map[string]domain.Product
	order       []string // ordem de cadastro
	movements   []domain.Movement
	movementSeq int64
}

func newState() *state {
	return &state{products: make(map[string]domain.Product)}
}

func (s *state) clone() *state {
	cp := &state{
		products:    make(map[string]domain.Product, len(s.products)),
		order:       append([]string(nil), s.order...),
		movements:   append([]domain.Movement(nil), s.movements...),
		movementSeq: s.movementSeq,
	}
	for id, p := range s.products {
		cp.products[id] = p
	}
	return cp
}

// Store implementa domain.Store e domain.TxRunner.
// Cada transação trabalha numa cópia do estado, publicada só no commit.
type Store struct {
	mu    sync.Mutex
	state *state
	now   func() time.Time
}

func NewStore() *Store {
	return &Store{
		state: newState(),
		now:   func() time.Time { return time.Now().UTC() },
	}
}

func (s *Store) Products() domain.ProductRepository   { return &productRepo{store: s} }
func (s *Store) Movements() domain.MovementRepository { return &movementRepo{store: s} }

// RunInTx segura o mutex durante fn inteira; as operações fora de transação esperam.
func (s *Store) RunInTx(ctx context.Context, fn func(store domain.Store) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	work := s.state.clone()
	if err := fn(txStore{store: s, tx: work}); err != nil {
		return err
	}
	s.state = work
	return nil
}

type txStore struct {
	store *Store
	tx    *state
}

func (t txStore) Products() domain.ProductRepository {
	return &productRepo{store: t.store, tx: t.tx}
}

func (t txStore) Movements() domain.MovementRepository {
	return &movementRepo{store: t.store, tx: t.tx}
}

// with executa fn no estado da transação, ou no estado publicado sob o mutex.
func (s *Store) with(tx *state, fn func(st *state) error) error {
	if tx != nil {
		return fn(tx)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return fn(s.state)
}

func sortNewestFirst(movements []domain.Movement) {
	sort.SliceStable(movements, func(i, j int) bool {
		a, b := movements[i], movements[j]
		if !a.Timestamp.Equal(b.Timestamp) {
			return a.Timestamp.After(b.Timestamp)
		}
		return a.Seq > b.Seq
	})
}
