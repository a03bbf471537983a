package domain

import "time"

// MovementType é o sentido de uma movimentação de estoque.
type MovementType string

const (
	MovementEntrada MovementType = "entrada" // Entrada: aumenta a quantidade
	MovementSaida   MovementType = "saida"   // Saída: diminui a quantidade
)

// Valid informa se o tipo é um dos dois valores permitidos.
func (t MovementType) Valid() bool {
	return t == MovementEntrada || t == MovementSaida
}

// Delta devolve a variação assinada que uma movimentação deste tipo aplica à quantidade.
func (t MovementType) Delta(quantity int) int {
	if t == MovementSaida {
		return -quantity
	}
	return quantity
}

// Movement é um registro imutável do livro de movimentações.
type Movement struct {
	ID        string       `json:"id" db:"id"`
	Seq       int64        `json:"-" db:"seq"` // Ordem de inserção, desempate entre timestamps iguais
	ProductID string       `json:"product_id" db:"product_id"`
	Type      MovementType `json:"type" db:"type"`
	Quantity  int          `json:"quantity" db:"quantity"`
	Timestamp time.Time    `json:"timestamp" db:"timestamp"`
}

// MovementRequest é a intenção de movimentação submetida ao motor de estoque.
type MovementRequest struct {
	ProductID string       `json:"product_id"`
	Type      MovementType `json:"type"`
	Quantity  int          `json:"quantity"`
}

// LowStockAlert é publicado quando uma movimentação deixa o produto no nível de reposição.
type LowStockAlert struct {
	ProductID string    `json:"product_id"`
	Name      string    `json:"name"`
	Quantity  int       `json:"quantity"`
	MinStock  int       `json:"min_stock"`
	At        time.Time `json:"at"`
}
