// Package validation adapta o go-playground/validator aos erros de domínio.
package validation

import (
	stderrors "errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"

	apperror "stockflow/internal/errors"
)

// Validator valida payloads usando as tags `validate` e reporta o nome JSON do campo.
type Validator struct {
	v *validator.Validate
}

func New() *Validator {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" || name == "" {
			return fld.Name
		}
		return name
	})
	return &Validator{v: v}
}

// Struct devolve um *ValidationError para o primeiro campo inválido.
func (val *Validator) Struct(s interface{}) error {
	err := val.v.Struct(s)
	if err == nil {
		return nil
	}

	var fieldErrs validator.ValidationErrors
	if !stderrors.As(err, &fieldErrs) || len(fieldErrs) == 0 {
		return apperror.NewValidationError(err.Error())
	}

	fe := fieldErrs[0]
	return apperror.NewFieldValidationError(fe.Field(), message(fe))
}

func message(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return fmt.Sprintf("O campo %s é obrigatório.", fe.Field())
	case "min":
		return fmt.Sprintf("O campo %s deve ser maior ou igual a %s.", fe.Field(), fe.Param())
	case "max":
		return fmt.Sprintf("O campo %s deve ter no máximo %s caracteres.", fe.Field(), fe.Param())
	default:
		return fmt.Sprintf("O campo %s é inválido (%s).", fe.Field(), fe.Tag())
	}
}
