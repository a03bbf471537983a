package movementrepo_test

import (
	"context"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"stockflow/internal/domain"
	"stockflow/internal/errors"
	"stockflow/internal/pkg/logger"
	"stockflow/internal/repository/movementrepo"
)

var movementCols = []string{"id", "seq", "product_id", "type", "quantity", "timestamp"}

const productID = "7d1a3c1e-0b7e-4c35-9a55-2f4f3f7c8b10"

func newRepo(t *testing.T) (*movementrepo.MovementRepository, sqlmock.Sqlmock) {
	mockDB, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { mockDB.Close() })
	return movementrepo.NewMovementRepository(sqlx.NewDb(mockDB, "postgres"), time.Second, logger.NewNop()), mock
}

func TestAppend_Success(t *testing.T) {
	repo, mock := newRepo(t)
	now := time.Now().UTC()

	mock.ExpectQuery(regexp.QuoteMeta("INSERT INTO movements")).
		WithArgs(sqlmock.AnyArg(), productID, "entrada", int64(10), sqlmock.AnyArg()).
		WillReturnRows(sqlmock.NewRows(movementCols).AddRow("m1", int64(1), productID, "entrada", int64(10), now))

	m, err := repo.Append(context.Background(), domain.Movement{ProductID: productID, Type: domain.MovementEntrada, Quantity: 10})

	require.NoError(t, err)
	assert.Equal(t, "m1", m.ID)
	assert.Equal(t, int64(1), m.Seq)
	assert.Equal(t, domain.MovementEntrada, m.Type)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAppend_Fail_InvalidType(t *testing.T) {
	repo, mock := newRepo(t)

	_, err := repo.Append(context.Background(), domain.Movement{ProductID: productID, Type: "ajuste", Quantity: 1})

	var ve *errors.ValidationError
	require.ErrorAs(t, err, &ve)
	assert.Equal(t, "type", ve.Field)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAppend_Fail_UnknownProduct(t *testing.T) {
	repo, mock := newRepo(t)

	mock.ExpectQuery(regexp.QuoteMeta("INSERT INTO movements")).
		WillReturnError(&pq.Error{Code: "23503"})

	_, err := repo.Append(context.Background(), domain.Movement{ProductID: productID, Type: domain.MovementSaida, Quantity: 1})

	assert.True(t, errors.IsNotFound(err))
}

func TestRecent_Success_OrderAndLimit(t *testing.T) {
	repo, mock := newRepo(t)
	now := time.Now().UTC()

	mock.ExpectQuery(regexp.QuoteMeta("ORDER BY timestamp DESC, seq DESC LIMIT $1")).
		WithArgs(int64(2)).
		WillReturnRows(sqlmock.NewRows(movementCols).
			AddRow("m3", int64(3), productID, "saida", int64(3), now).
			AddRow("m2", int64(2), productID, "entrada", int64(5), now))

	movements, err := repo.Recent(context.Background(), 2)

	require.NoError(t, err)
	require.Len(t, movements, 2)
	assert.Equal(t, "m3", movements[0].ID)
}

func TestByProduct_Success(t *testing.T) {
	repo, mock := newRepo(t)

	mock.ExpectQuery(regexp.QuoteMeta("WHERE product_id = $1 ORDER BY timestamp DESC, seq DESC")).
		WithArgs(productID).
		WillReturnRows(sqlmock.NewRows(movementCols))

	movements, err := repo.ByProduct(context.Background(), productID)

	require.NoError(t, err)
	assert.Empty(t, movements)
}

func TestPurgeByProduct_Success(t *testing.T) {
	repo, mock := newRepo(t)

	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM movements WHERE product_id = $1")).
		WithArgs(productID).
		WillReturnResult(sqlmock.NewResult(0, 3))

	n, err := repo.PurgeByProduct(context.Background(), productID)

	require.NoError(t, err)
	assert.EqualValues(t, 3, n)
}
