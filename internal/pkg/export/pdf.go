package export

import (
	"fmt"
	"strconv"

	maroto "github.com/johnfercher/maroto/v2"
	"github.com/johnfercher/maroto/v2/pkg/components/col"
	"github.com/johnfercher/maroto/v2/pkg/components/line"
	"github.com/johnfercher/maroto/v2/pkg/components/row"
	"github.com/johnfercher/maroto/v2/pkg/components/text"
	"github.com/johnfercher/maroto/v2/pkg/config"
	"github.com/johnfercher/maroto/v2/pkg/consts/align"
	"github.com/johnfercher/maroto/v2/pkg/consts/fontstyle"
	"github.com/johnfercher/maroto/v2/pkg/consts/pagesize"
	"github.com/johnfercher/maroto/v2/pkg/core"
	"github.com/johnfercher/maroto/v2/pkg/props"
	"github.com/shopspring/decimal"
	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"stockflow/internal/domain"
)

var (
	pdfBlue  = &props.Color{Red: 13, Green: 110, Blue: 253}
	pdfRed   = &props.Color{Red: 220, Green: 53, Blue: 69}
	pdfGreen = &props.Color{Red: 25, Green: 135, Blue: 84}
	pdfGray  = &props.Color{Red: 100, Green: 100, Blue: 100}
)

var brl = message.NewPrinter(language.BrazilianPortuguese)

// FormatBRL formata um valor monetário no padrão brasileiro (R$ 1.234,56).
func FormatBRL(v decimal.Decimal) string {
	return brl.Sprintf("R$ %.2f", v.InexactFloat64())
}

// PDF exporta o snapshot como tabela A4.
type PDF struct{}

func NewPDF() PDF { return PDF{} }

func (PDF) ContentType() string { return "application/pdf" }

func (PDF) FileName() string { return "Relatorio_Estoque.pdf" }

func (PDF) Export(snapshot domain.StockSnapshot) ([]byte, error) {
	cfg := config.NewBuilder().
		WithPageSize(pagesize.A4).
		WithLeftMargin(10).WithRightMargin(10).
		WithTopMargin(10).WithBottomMargin(10).
		WithDefaultFont(&props.Font{Family: "helvetica", Size: 9}).
		WithTitle("Relatório de Estoque", true).
		Build()

	m := maroto.New(cfg)

	m.AddRows(row.New(12).Add(
		col.New(8).Add(text.New("Relatório de Estoque", props.Text{
			Style: fontstyle.Bold, Size: 14, Color: pdfBlue, Top: 2,
		})),
		col.New(4).Add(text.New("Gerado em "+snapshot.GeneratedAt.Format("02/01/2006 15:04"), props.Text{
			Size: 8, Align: align.Right, Color: pdfGray, Top: 4,
		})),
	))
	m.AddRows(line.NewRow(1, props.Line{Color: pdfBlue, Thickness: 0.5}))
	m.AddRows(pdfHeaderRow())
	for _, r := range snapshot.Rows {
		m.AddRows(pdfDetailRow(r))
	}
	m.AddRows(line.NewRow(1, props.Line{Color: pdfGray, Thickness: 0.3}))
	m.AddRows(row.New(8).Add(col.New(12).Add(text.New(
		fmt.Sprintf("%d produto(s)", len(snapshot.Rows)),
		props.Text{Size: 8, Align: align.Right, Color: pdfGray, Top: 2},
	))))

	doc, err := m.Generate()
	if err != nil {
		return nil, fmt.Errorf("pdf: gerar documento: %w", err)
	}
	return doc.GetBytes(), nil
}

// Colunas do PDF; Descrição fica só na planilha.
var pdfColumns = []struct {
	label string
	size  int
	align align.Type
}{
	{"ID", 3, align.Left},
	{"Produto", 3, align.Left},
	{"Preço (R$)", 2, align.Right},
	{"Qtd Atual", 1, align.Center},
	{"Qtd Mínima", 1, align.Center},
	{"Status", 2, align.Center},
}

func pdfHeaderRow() core.Row {
	cols := make([]core.Col, 0, len(pdfColumns))
	for _, c := range pdfColumns {
		cols = append(cols, col.New(c.size).Add(text.New(c.label, props.Text{
			Style: fontstyle.Bold, Size: 8, Align: c.align, Color: pdfBlue, Top: 2,
		})))
	}
	return row.New(8).Add(cols...)
}

func pdfDetailRow(r domain.SnapshotRow) core.Row {
	statusColor := pdfGreen
	if r.Status == domain.StatusRepor {
		statusColor = pdfRed
	}
	values := []string{
		r.ID,
		r.Name,
		FormatBRL(r.Price),
		strconv.Itoa(r.Quantity),
		strconv.Itoa(r.MinStock),
		string(r.Status),
	}

	cols := make([]core.Col, 0, len(pdfColumns))
	for i, c := range pdfColumns {
		p := props.Text{Size: 7, Align: c.align, Top: 1}
		if i == len(pdfColumns)-1 {
			p.Style = fontstyle.Bold
			p.Color = statusColor
		}
		cols = append(cols, col.New(c.size).Add(text.New(values[i], p)))
	}
	return row.New(7).Add(cols...)
}
