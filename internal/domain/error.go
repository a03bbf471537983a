package domain

// ErrorResponse é a estrutura padronizada para respostas de erro na API.
// @Description Estrutura padronizada para respostas de erro na API.
type ErrorResponse struct {
	Code     int            `json:"code" example:"400"`
	Category string         `json:"category" example:"INSUFFICIENT_STOCK"`
	Message  string         `json:"message" example:"Estoque insuficiente: disponível 20, solicitado 25"`
	Field    string         `json:"field,omitempty" example:"quantity"`
	Details  map[string]int `json:"details,omitempty"`
}
