package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// StockStatus é a situação de um produto no relatório de estoque.
type StockStatus string

const (
	StatusOK    StockStatus = "OK"
	StatusRepor StockStatus = "REPOR" // Precisa de reposição
)

// SnapshotRow é uma linha do relatório exportável.
type SnapshotRow struct {
	ID          string          `json:"id"`
	Name        string          `json:"name"`
	Description string          `json:"description"`
	Price       decimal.Decimal `json:"price"` // Em unidades monetárias (price / 100)
	Quantity    int             `json:"quantity"`
	MinStock    int             `json:"min_stock"`
	Status      StockStatus     `json:"status"`
}

// StockSnapshot é a estrutura tabular entregue aos exportadores (XLSX, PDF).
type StockSnapshot struct {
	GeneratedAt time.Time     `json:"generated_at"`
	Rows        []SnapshotRow `json:"rows"`
}

// NewSnapshotRow converte um produto em linha de relatório.
func NewSnapshotRow(p Product) SnapshotRow {
	status := StatusOK
	if p.IsLowStock() {
		status = StatusRepor
	}
	description := ""
	if p.Description != nil {
		description = *p.Description
	}
	return SnapshotRow{
		ID:          p.ID,
		Name:        p.Name,
		Description: description,
		Price:       decimal.New(p.Price, -2),
		Quantity:    p.Quantity,
		MinStock:    p.MinStock,
		Status:      status,
	}
}
