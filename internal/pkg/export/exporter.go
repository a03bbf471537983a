// Package export gera os arquivos do relatório de estoque a partir de um domain.StockSnapshot.
package export

import (
	"stockflow/internal/domain"
)

// Exporter transforma o snapshot em um arquivo para download.
type Exporter interface {
	Export(snapshot domain.StockSnapshot) ([]byte, error)
	ContentType() string
	FileName() string
}

// Cabeçalhos comuns aos formatos.
var headers = []string{"ID", "Produto", "Descrição", "Preço (R$)", "Qtd Atual", "Qtd Mínima", "Status"}
