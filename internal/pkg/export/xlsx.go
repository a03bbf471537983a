package export

import (
	"fmt"
	"strconv"
	"unicode/utf8"

	"github.com/xuri/excelize/v2"

	"stockflow/internal/domain"
)

const (
	SheetName = "Estoque Atual"

	colorHeader = "0D6EFD"
	colorRepor  = "DC3545"
	colorOK     = "198754"

	priceFormat = `"R$ "#,##0.00`
	widthPad    = 5
)

// XLSX exporta o snapshot como planilha Excel.
type XLSX struct{}

func NewXLSX() XLSX { return XLSX{} }

func (XLSX) ContentType() string {
	return "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
}

func (XLSX) FileName() string { return "Relatorio_Estoque.xlsx" }

// Export monta a planilha: cabeçalho destacado, preço em moeda, status colorido
// e largura de coluna igual ao maior conteúdo mais uma folga.
func (XLSX) Export(snapshot domain.StockSnapshot) ([]byte, error) {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", SheetName); err != nil {
		return nil, fmt.Errorf("xlsx: renomear aba: %w", err)
	}

	styles, err := newStyles(f)
	if err != nil {
		return nil, err
	}

	widths := make([]int, len(headers))
	track := func(col int, s string) {
		if n := utf8.RuneCountInString(s); n > widths[col] {
			widths[col] = n
		}
	}

	// 1. Cabeçalho
	header := make([]interface{}, len(headers))
	for i, h := range headers {
		header[i] = h
		track(i, h)
	}
	if err := f.SetSheetRow(SheetName, "A1", &header); err != nil {
		return nil, fmt.Errorf("xlsx: cabeçalho: %w", err)
	}
	lastCol, _ := excelize.ColumnNumberToName(len(headers))
	if err := f.SetCellStyle(SheetName, "A1", lastCol+"1", styles.header); err != nil {
		return nil, fmt.Errorf("xlsx: estilo do cabeçalho: %w", err)
	}

	// 2. Linhas
	for i, r := range snapshot.Rows {
		rowNum := i + 2
		values := []interface{}{
			r.ID,
			r.Name,
			r.Description,
			r.Price.InexactFloat64(),
			r.Quantity,
			r.MinStock,
			string(r.Status),
		}
		texts := []string{
			r.ID,
			r.Name,
			r.Description,
			r.Price.StringFixed(2),
			strconv.Itoa(r.Quantity),
			strconv.Itoa(r.MinStock),
			string(r.Status),
		}
		for col, s := range texts {
			track(col, s)
		}

		cell, _ := excelize.CoordinatesToCellName(1, rowNum)
		if err := f.SetSheetRow(SheetName, cell, &values); err != nil {
			return nil, fmt.Errorf("xlsx: linha %d: %w", rowNum, err)
		}

		priceCell, _ := excelize.CoordinatesToCellName(4, rowNum)
		if err := f.SetCellStyle(SheetName, priceCell, priceCell, styles.price); err != nil {
			return nil, fmt.Errorf("xlsx: estilo do preço: %w", err)
		}

		statusStyle := styles.ok
		if r.Status == domain.StatusRepor {
			statusStyle = styles.repor
		}
		statusCell, _ := excelize.CoordinatesToCellName(7, rowNum)
		if err := f.SetCellStyle(SheetName, statusCell, statusCell, statusStyle); err != nil {
			return nil, fmt.Errorf("xlsx: estilo do status: %w", err)
		}
	}

	// 3. Largura das colunas
	for i, w := range widths {
		name, _ := excelize.ColumnNumberToName(i + 1)
		if err := f.SetColWidth(SheetName, name, name, float64(w+widthPad)); err != nil {
			return nil, fmt.Errorf("xlsx: largura da coluna %s: %w", name, err)
		}
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("xlsx: gravar arquivo: %w", err)
	}
	return buf.Bytes(), nil
}

type xlsxStyles struct {
	header, price, repor, ok int
}

func newStyles(f *excelize.File) (xlsxStyles, error) {
	var s xlsxStyles
	var err error

	s.header, err = f.NewStyle(&excelize.Style{
		Fill:      excelize.Fill{Type: "pattern", Pattern: 1, Color: []string{colorHeader}},
		Font:      &excelize.Font{Bold: true, Color: "FFFFFF"},
		Alignment: &excelize.Alignment{Horizontal: "center"},
	})
	if err != nil {
		return s, fmt.Errorf("xlsx: estilo do cabeçalho: %w", err)
	}

	format := priceFormat
	if s.price, err = f.NewStyle(&excelize.Style{CustomNumFmt: &format}); err != nil {
		return s, fmt.Errorf("xlsx: formato de moeda: %w", err)
	}
	if s.repor, err = f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true, Color: colorRepor}}); err != nil {
		return s, fmt.Errorf("xlsx: estilo REPOR: %w", err)
	}
	if s.ok, err = f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true, Color: colorOK}}); err != nil {
		return s, fmt.Errorf("xlsx: estilo OK: %w", err)
	}
	return s, nil
}
