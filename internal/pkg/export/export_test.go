package export_test

import (
	"bytes"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"stockflow/internal/domain"
	"stockflow/internal/pkg/export"
)

func sampleSnapshot() domain.StockSnapshot {
	desc := "Parafuso sextavado"
	return domain.StockSnapshot{
		GeneratedAt: time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC),
		Rows: []domain.SnapshotRow{
			domain.NewSnapshotRow(domain.Product{ID: "p1", Name: "Widget", Price: 1099, Quantity: 5, MinStock: 5}),
			domain.NewSnapshotRow(domain.Product{ID: "p2", Name: "Parafuso M6", Description: &desc, Price: 50, Quantity: 40, MinStock: 5}),
		},
	}
}

func TestXLSX_Export(t *testing.T) {
	exp := export.NewXLSX()

	data, err := exp.Export(sampleSnapshot())
	require.NoError(t, err)

	f, err := excelize.OpenReader(bytes.NewReader(data))
	require.NoError(t, err)
	defer f.Close()

	assert.Equal(t, []string{export.SheetName}, f.GetSheetList())

	header := []string{"ID", "Produto", "Descrição", "Preço (R$)", "Qtd Atual", "Qtd Mínima", "Status"}
	for i, want := range header {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		got, err := f.GetCellValue(export.SheetName, cell)
		require.NoError(t, err)
		assert.Equal(t, want, got)
	}

	status, _ := f.GetCellValue(export.SheetName, "G2")
	assert.Equal(t, "REPOR", status)
	status, _ = f.GetCellValue(export.SheetName, "G3")
	assert.Equal(t, "OK", status)

	price, _ := f.GetCellValue(export.SheetName, "D2", excelize.Options{RawCellValue: true})
	assert.Equal(t, "10.99", price)

	qty, _ := f.GetCellValue(export.SheetName, "E3")
	assert.Equal(t, "40", qty)

	// Descrição: maior conteúdo é "Parafuso sextavado" (18) + 5.
	width, err := f.GetColWidth(export.SheetName, "C")
	require.NoError(t, err)
	assert.Equal(t, float64(18+5), width)

	// Status: o cabeçalho (6) é maior que "REPOR" (5).
	width, err = f.GetColWidth(export.SheetName, "G")
	require.NoError(t, err)
	assert.Equal(t, float64(6+5), width)

	assert.Equal(t, "Relatorio_Estoque.xlsx", exp.FileName())
}

func TestXLSX_Export_EmptySnapshot(t *testing.T) {
	data, err := export.NewXLSX().Export(domain.StockSnapshot{})
	require.NoError(t, err)

	f, err := excelize.OpenReader(bytes.NewReader(data))
	require.NoError(t, err)
	defer f.Close()

	rows, err := f.GetRows(export.SheetName)
	require.NoError(t, err)
	assert.Len(t, rows, 1)
}

func TestPDF_Export(t *testing.T) {
	exp := export.NewPDF()

	data, err := exp.Export(sampleSnapshot())

	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(data, []byte("%PDF")))
	assert.Equal(t, "application/pdf", exp.ContentType())
}

func TestFormatBRL(t *testing.T) {
	got := export.FormatBRL(decimal.New(123450, -2))

	assert.Contains(t, got, "R$")
	assert.Contains(t, got, "234,50")
}
