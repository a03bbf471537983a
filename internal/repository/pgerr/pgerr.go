// Package pgerr traduz erros do driver lib/pq para os erros de domínio.
package pgerr

import (
	stderrors "errors"

	"github.com/lib/pq"

	"stockflow/internal/errors"
)

// Códigos SQLSTATE usados pelas constraints do schema.
const (
	ForeignKeyViolation = "23503"
	CheckViolation      = "23514"
)

// Map converte violações de constraint em NotFound/Validation; o resto vira InternalError.
func Map(msg string, err error) error {
	var pqErr *pq.Error
	if stderrors.As(err, &pqErr) {
		switch string(pqErr.Code) {
		case ForeignKeyViolation:
			return errors.NewNotFoundError("Produto referenciado não existe.")
		case CheckViolation:
			return errors.NewValidationError("Valor viola uma restrição do estoque: " + pqErr.Constraint)
		}
	}
	return errors.NewDBError(msg, err)
}
