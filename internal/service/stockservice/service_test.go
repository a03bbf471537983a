package stockservice_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"stockflow/internal/domain"
	apperror "stockflow/internal/errors"
	"stockflow/internal/pkg/lock"
	"stockflow/internal/pkg/logger"
	"stockflow/internal/repository/memrepo"
	"stockflow/internal/service/stockservice"
)

// MockAlertPublisher é uma implementação mock da interface AlertPublisher
type MockAlertPublisher struct {
	mock.Mock
}

func (m *MockAlertPublisher) PublishLowStock(ctx context.Context, alert domain.LowStockAlert) error {
	return m.Called(ctx, alert).Error(0)
}

// conflictingTx falha com ConflictError nas primeiras tentativas antes de delegar ao store real.
type conflictingTx struct {
	inner     domain.TxRunner
	conflicts int
	calls     int
}

func (c *conflictingTx) RunInTx(ctx context.Context, fn func(domain.Store) error) error {
	c.calls++
	if c.calls <= c.conflicts {
		return apperror.NewConflictError("versão desatualizada")
	}
	return c.inner.RunInTx(ctx, fn)
}

func testOptions() stockservice.Options {
	opts := stockservice.DefaultOptions()
	opts.RetryDelay = time.Millisecond
	return opts
}

func newService(t *testing.T, alerts stockservice.AlertPublisher) (*stockservice.Service, *memrepo.Store) {
	t.Helper()
	store := memrepo.NewStore()
	return stockservice.NewService(store, store, lock.NewLocal(), alerts, logger.NewNop(), testOptions()), store
}

func seedProduct(t *testing.T, store *memrepo.Store, quantity, minStock int) domain.Product {
	t.Helper()
	p, err := store.Products().Save(context.Background(), domain.Product{
		ID:        uuid.New().String(),
		Name:      "Widget",
		Price:     1000,
		Quantity:  quantity,
		MinStock:  minStock,
		CreatedAt: time.Now().UTC(),
	})
	require.NoError(t, err)
	return p
}

func quantityOf(t *testing.T, store *memrepo.Store, id string) int {
	t.Helper()
	p, err := store.Products().FindByID(context.Background(), id)
	require.NoError(t, err)
	return p.Quantity
}

// TestRecordMovement_Success_Entrada soma a quantidade e grava o livro.
func TestRecordMovement_Success_Entrada(t *testing.T) {
	svc, store := newService(t, nil)
	p := seedProduct(t, store, 0, 5)

	m, err := svc.RecordMovement(context.Background(), domain.MovementRequest{ProductID: p.ID, Type: domain.MovementEntrada, Quantity: 20})

	require.NoError(t, err)
	assert.NotEmpty(t, m.ID)
	assert.Equal(t, p.ID, m.ProductID)
	assert.Equal(t, time.UTC, m.Timestamp.Location())
	assert.Equal(t, 20, quantityOf(t, store, p.ID))
}

// TestRecordMovement_Success_SaidaExata permite zerar o estoque.
func TestRecordMovement_Success_SaidaExata(t *testing.T) {
	svc, store := newService(t, nil)
	p := seedProduct(t, store, 7, 0)

	_, err := svc.RecordMovement(context.Background(), domain.MovementRequest{ProductID: p.ID, Type: domain.MovementSaida, Quantity: 7})

	require.NoError(t, err)
	assert.Equal(t, 0, quantityOf(t, store, p.ID))
}

// TestRecordMovement_Fail_Rules cobre cada regra e verifica que nada foi gravado.
func TestRecordMovement_Fail_Rules(t *testing.T) {
	tests := []struct {
		name  string
		req   func(id string) domain.MovementRequest
		check func(t *testing.T, err error)
	}{
		{
			name: "produto inexistente",
			req: func(string) domain.MovementRequest {
				return domain.MovementRequest{ProductID: uuid.New().String(), Type: domain.MovementEntrada, Quantity: 1}
			},
			check: func(t *testing.T, err error) { assert.True(t, apperror.IsNotFound(err)) },
		},
		{
			name: "id malformado",
			req: func(string) domain.MovementRequest {
				return domain.MovementRequest{ProductID: "abc", Type: domain.MovementEntrada, Quantity: 1}
			},
			check: func(t *testing.T, err error) { assert.True(t, apperror.IsNotFound(err)) },
		},
		{
			name: "tipo inválido",
			req: func(id string) domain.MovementRequest {
				return domain.MovementRequest{ProductID: id, Type: "ajuste", Quantity: 1}
			},
			check: func(t *testing.T, err error) {
				var ve *apperror.ValidationError
				require.ErrorAs(t, err, &ve)
				assert.Equal(t, "type", ve.Field)
			},
		},
		{
			name: "quantidade zero",
			req: func(id string) domain.MovementRequest {
				return domain.MovementRequest{ProductID: id, Type: domain.MovementEntrada, Quantity: 0}
			},
			check: func(t *testing.T, err error) {
				var ve *apperror.ValidationError
				require.ErrorAs(t, err, &ve)
				assert.Equal(t, "quantity", ve.Field)
			},
		},
		{
			name: "quantidade negativa",
			req: func(id string) domain.MovementRequest {
				return domain.MovementRequest{ProductID: id, Type: domain.MovementSaida, Quantity: -3}
			},
			check: func(t *testing.T, err error) {
				var ve *apperror.ValidationError
				require.ErrorAs(t, err, &ve)
				assert.Equal(t, "quantity", ve.Field)
			},
		},
		{
			name: "estoque insuficiente",
			req: func(id string) domain.MovementRequest {
				return domain.MovementRequest{ProductID: id, Type: domain.MovementSaida, Quantity: 11}
			},
			check: func(t *testing.T, err error) {
				var ie *apperror.InsufficientStockError
				require.ErrorAs(t, err, &ie)
				assert.Equal(t, 10, ie.Current)
				assert.Equal(t, 11, ie.Requested)
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc, store := newService(t, nil)
			p := seedProduct(t, store, 10, 5)

			_, err := svc.RecordMovement(context.Background(), tt.req(p.ID))

			tt.check(t, err)
			assert.Equal(t, 10, quantityOf(t, store, p.ID))
			history, _ := store.Movements().ByProduct(context.Background(), p.ID)
			assert.Empty(t, history)
		})
	}
}

// TestRecordMovement_Success_RetriesConflict refaz a transação após ConflictError.
func TestRecordMovement_Success_RetriesConflict(t *testing.T) {
	store := memrepo.NewStore()
	tx := &conflictingTx{inner: store, conflicts: 2}
	svc := stockservice.NewService(store, tx, lock.NewLocal(), nil, logger.NewNop(), testOptions())
	p := seedProduct(t, store, 10, 5)

	_, err := svc.RecordMovement(context.Background(), domain.MovementRequest{ProductID: p.ID, Type: domain.MovementSaida, Quantity: 1})

	require.NoError(t, err)
	assert.Equal(t, 3, tx.calls)
	assert.Equal(t, 9, quantityOf(t, store, p.ID))
}

// TestRecordMovement_Fail_ConflictExhausted devolve o ConflictError após esgotar as tentativas.
func TestRecordMovement_Fail_ConflictExhausted(t *testing.T) {
	store := memrepo.NewStore()
	tx := &conflictingTx{inner: store, conflicts: 100}
	opts := testOptions()
	opts.MaxRetries = 2
	svc := stockservice.NewService(store, tx, lock.NewLocal(), nil, logger.NewNop(), opts)
	p := seedProduct(t, store, 10, 5)

	_, err := svc.RecordMovement(context.Background(), domain.MovementRequest{ProductID: p.ID, Type: domain.MovementSaida, Quantity: 1})

	assert.True(t, apperror.IsConflict(err))
	assert.Equal(t, 3, tx.calls)
	assert.Equal(t, 10, quantityOf(t, store, p.ID))
}

// TestRecordMovement_Success_PublishesLowStockAlert publica quando a saída atinge o mínimo.
func TestRecordMovement_Success_PublishesLowStockAlert(t *testing.T) {
	alerts := new(MockAlertPublisher)
	svc, store := newService(t, alerts)
	p := seedProduct(t, store, 8, 5)

	alerts.On("PublishLowStock", mock.Anything, mock.MatchedBy(func(a domain.LowStockAlert) bool {
		return a.ProductID == p.ID && a.Quantity == 5 && a.MinStock == 5
	})).Return(nil).Once()

	_, err := svc.RecordMovement(context.Background(), domain.MovementRequest{ProductID: p.ID, Type: domain.MovementSaida, Quantity: 3})

	require.NoError(t, err)
	alerts.AssertExpectations(t)
}

// TestRecordMovement_Success_AlertFailureIsIgnored não falha a movimentação se o broker cair.
func TestRecordMovement_Success_AlertFailureIsIgnored(t *testing.T) {
	alerts := new(MockAlertPublisher)
	svc, store := newService(t, alerts)
	p := seedProduct(t, store, 2, 5)
	alerts.On("PublishLowStock", mock.Anything, mock.Anything).Return(errors.New("broker offline"))

	_, err := svc.RecordMovement(context.Background(), domain.MovementRequest{ProductID: p.ID, Type: domain.MovementEntrada, Quantity: 1})

	require.NoError(t, err)
	assert.Equal(t, 3, quantityOf(t, store, p.ID))
}

// TestRecordMovement_Success_NoAlertAboveMinimum não publica com estoque acima do mínimo.
func TestRecordMovement_Success_NoAlertAboveMinimum(t *testing.T) {
	alerts := new(MockAlertPublisher)
	svc, store := newService(t, alerts)
	p := seedProduct(t, store, 0, 5)

	_, err := svc.RecordMovement(context.Background(), domain.MovementRequest{ProductID: p.ID, Type: domain.MovementEntrada, Quantity: 6})

	require.NoError(t, err)
	alerts.AssertNotCalled(t, "PublishLowStock", mock.Anything, mock.Anything)
}

// TestRecordMovement_Concurrency_TwoSaidas: 10 em estoque, duas saídas de 6 ao mesmo tempo.
func TestRecordMovement_Concurrency_TwoSaidas(t *testing.T) {
	svc, store := newService(t, nil)
	p := seedProduct(t, store, 10, 5)

	var wg sync.WaitGroup
	errs := make([]error, 2)
	start := make(chan struct{})
	for i := range errs {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			<-start
			_, errs[i] = svc.RecordMovement(context.Background(), domain.MovementRequest{ProductID: p.ID, Type: domain.MovementSaida, Quantity: 6})
		}(i)
	}
	close(start)
	wg.Wait()

	var ok, insufficient int
	for _, err := range errs {
		var ie *apperror.InsufficientStockError
		switch {
		case err == nil:
			ok++
		case errors.As(err, &ie):
			insufficient++
			assert.Equal(t, 4, ie.Current)
			assert.Equal(t, 6, ie.Requested)
		}
	}
	assert.Equal(t, 1, ok)
	assert.Equal(t, 1, insufficient)
	assert.Equal(t, 4, quantityOf(t, store, p.ID))
}

// TestRecordMovement_Invariant_QuantityMatchesLedger aplica muitas movimentações concorrentes
// e confere que a quantidade é sempre a soma assinada do livro.
func TestRecordMovement_Invariant_QuantityMatchesLedger(t *testing.T) {
	svc, store := newService(t, nil)
	p := seedProduct(t, store, 0, 5)
	ctx := context.Background()

	var wg sync.WaitGroup
	for i := 0; i < 60; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			req := domain.MovementRequest{ProductID: p.ID, Type: domain.MovementEntrada, Quantity: 1 + i%4}
			if i%3 == 0 {
				req = domain.MovementRequest{ProductID: p.ID, Type: domain.MovementSaida, Quantity: 1 + i%5}
			}
			_, err := svc.RecordMovement(ctx, req)
			if err != nil {
				var ie *apperror.InsufficientStockError
				assert.ErrorAs(t, err, &ie)
			}
		}(i)
	}
	wg.Wait()

	history, err := store.Movements().ByProduct(ctx, p.ID)
	require.NoError(t, err)
	sum := 0
	for _, m := range history {
		sum += m.Type.Delta(m.Quantity)
	}
	qty := quantityOf(t, store, p.ID)
	assert.Equal(t, sum, qty)
	assert.GreaterOrEqual(t, qty, 0)
}

// TestRecentMovements_LimitHandling cobre padrão, teto e valor negativo.
func TestRecentMovements_LimitHandling(t *testing.T) {
	svc, store := newService(t, nil)
	ctx := context.Background()
	p := seedProduct(t, store, 0, 5)
	for i := 1; i <= 8; i++ {
		_, err := svc.RecordMovement(ctx, domain.MovementRequest{ProductID: p.ID, Type: domain.MovementEntrada, Quantity: i})
		require.NoError(t, err)
	}

	recent, err := svc.RecentMovements(ctx, 0)
	require.NoError(t, err)
	require.Len(t, recent, 5)
	assert.Equal(t, 8, recent[0].Quantity)
	assert.Equal(t, 4, recent[4].Quantity)

	recent, err = svc.RecentMovements(ctx, 2)
	require.NoError(t, err)
	require.Len(t, recent, 2)
	assert.Equal(t, 8, recent[0].Quantity)
	assert.Equal(t, 7, recent[1].Quantity)

	recent, err = svc.RecentMovements(ctx, 1000)
	require.NoError(t, err)
	assert.Len(t, recent, 8)

	_, err = svc.RecentMovements(ctx, -1)
	var ve *apperror.ValidationError
	assert.ErrorAs(t, err, &ve)
}

// TestMovementsByProduct_Fail_NotFound exige produto existente.
func TestMovementsByProduct_Fail_NotFound(t *testing.T) {
	svc, _ := newService(t, nil)

	_, err := svc.MovementsByProduct(context.Background(), uuid.New().String())

	assert.True(t, apperror.IsNotFound(err))
}

// TestMovementsByProduct_Success_OnlyThatProduct filtra pelo produto, mais novas primeiro.
func TestMovementsByProduct_Success_OnlyThatProduct(t *testing.T) {
	svc, store := newService(t, nil)
	ctx := context.Background()
	a := seedProduct(t, store, 0, 5)
	b := seedProduct(t, store, 0, 5)

	for _, req := range []domain.MovementRequest{
		{ProductID: a.ID, Type: domain.MovementEntrada, Quantity: 1},
		{ProductID: b.ID, Type: domain.MovementEntrada, Quantity: 2},
		{ProductID: a.ID, Type: domain.MovementEntrada, Quantity: 3},
	} {
		_, err := svc.RecordMovement(ctx, req)
		require.NoError(t, err)
	}

	history, err := svc.MovementsByProduct(ctx, a.ID)
	require.NoError(t, err)
	require.Len(t, history, 2)
	assert.Equal(t, 3, history[0].Quantity)
	assert.Equal(t, 1, history[1].Quantity)
}
