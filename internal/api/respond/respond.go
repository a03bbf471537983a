// Package respond concentra a escrita das respostas JSON e a tradução dos erros da aplicação.
package respond

import (
	"encoding/json"
	stderrors "errors"
	"fmt"
	"net/http"

	"stockflow/internal/domain"
	apperror "stockflow/internal/errors"
	"stockflow/internal/pkg/logger"
)

// JSON escreve data com o status informado.
func JSON(w http.ResponseWriter, log logger.Logger, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if data == nil {
		return
	}
	if err := json.NewEncoder(w).Encode(data); err != nil {
		log.Error("Falha ao codificar JSON de resposta", err)
	}
}

// Error traduz err para domain.ErrorResponse e o status HTTP correspondente.
func Error(w http.ResponseWriter, r *http.Request, log logger.Logger, err error) {
	status, category, message := apperror.MapToHTTPStatus(err)

	if status >= 500 {
		log.Error(fmt.Sprintf("Erro de Servidor: %s", category), err)
	} else {
		log.Debug(fmt.Sprintf("Requisição rejeitada com status %d. Categoria: %s", status, category), map[string]interface{}{
			"method": r.Method,
			"path":   r.URL.Path,
		})
	}

	body := domain.ErrorResponse{
		Code:     status,
		Category: category,
		Message:  message,
	}

	// 500 nunca expõe a causa raiz ao cliente.
	if status >= 500 {
		body.Message = "Ocorreu um erro inesperado."
	}

	var ve *apperror.ValidationError
	if stderrors.As(err, &ve) {
		body.Field = ve.Field
	}
	var ise *apperror.InsufficientStockError
	if stderrors.As(err, &ise) {
		body.Details = map[string]int{
			"current":   ise.Current,
			"requested": ise.Requested,
		}
	}

	JSON(w, log, status, body)
}

// DecodeJSON lê o corpo da requisição em dst. Campos desconhecidos são ignorados.
func DecodeJSON(r *http.Request, dst interface{}) error {
	if r.Body == nil {
		return apperror.NewValidationError("Corpo da requisição ausente.")
	}
	err := json.NewDecoder(r.Body).Decode(dst)
	if err == nil {
		return nil
	}

	// Tipo errado num campo conhecido: a rejeição nomeia o campo.
	var typeErr *json.UnmarshalTypeError
	if stderrors.As(err, &typeErr) && typeErr.Field != "" {
		return apperror.NewFieldValidationError(typeErr.Field,
			fmt.Sprintf("O campo %s deve ser do tipo %s.", typeErr.Field, typeErr.Type.Kind()))
	}
	return apperror.NewValidationError("Payload inválido. Verifique o formato JSON.")
}
