package domain

import (
	"time"
)

// DefaultMinStock é o nível de alerta aplicado quando o cadastro não informa min_stock.
const DefaultMinStock = 5

// Product representa o item controlado pelo estoque (a Entidade).
// Quantity só é alterada pelo motor de movimentações; o cadastro sempre nasce com zero.
type Product struct {
	ID          string    `json:"id" db:"id"`
	Name        string    `json:"name" db:"name"`
	Description *string   `json:"description" db:"description"`
	Price       int64     `json:"price" db:"price"` // Preço em centavos
	Quantity    int       `json:"quantity" db:"quantity"`
	MinStock    int       `json:"min_stock" db:"min_stock"` // Nível de alerta
	CreatedAt   time.Time `json:"created_at" db:"created_at"`
	UpdatedAt   time.Time `json:"updated_at" db:"updated_at"`
}

// IsLowStock indica se o produto está no nível de reposição (quantity <= min_stock).
func (p Product) IsLowStock() bool {
	return p.Quantity <= p.MinStock
}

// ProductInput é o payload de criação de produto.
// Não há campo de quantidade: ela é sempre zero na criação.
type ProductInput struct {
	Name        string  `json:"name" validate:"required,max=200"`
	Description *string `json:"description" validate:"omitempty,max=1000"`
	Price       int64   `json:"price" validate:"min=0"`
	MinStock    *int    `json:"min_stock" validate:"omitempty,min=0"`
}

// ProductUpdate é o payload de atualização parcial: apenas os campos não-nulos são aplicados.
// Um campo ausente e um campo null são equivalentes; para esvaziar a descrição envie "".
// Quantity existe somente para que a tentativa de alterá-la seja detectada e rejeitada.
type ProductUpdate struct {
	Name        *string `json:"name" validate:"omitempty,max=200"`
	Description *string `json:"description" validate:"omitempty,max=1000"` // null mantém o valor atual; "" esvazia
	Price       *int64  `json:"price" validate:"omitempty,min=0"`
	MinStock    *int    `json:"min_stock" validate:"omitempty,min=0"`
	Quantity    *int    `json:"quantity,omitempty" swaggerignore:"true"`
}

// IsEmpty indica que nenhum campo foi informado.
func (u ProductUpdate) IsEmpty() bool {
	return u.Name == nil && u.Description == nil && u.Price == nil && u.MinStock == nil && u.Quantity == nil
}

// Apply devolve uma cópia de p com os campos presentes em u aplicados.
func (u ProductUpdate) Apply(p Product) Product {
	if u.Name != nil {
		p.Name = *u.Name
	}
	if u.Description != nil {
		p.Description = u.Description
	}
	if u.Price != nil {
		p.Price = *u.Price
	}
	if u.MinStock != nil {
		p.MinStock = *u.MinStock
	}
	return p
}
