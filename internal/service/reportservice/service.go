package reportservice

import (
	"context"
	"fmt"
	"time"

	"stockflow/internal/domain"
	"stockflow/internal/pkg/export"
	"stockflow/internal/pkg/logger"
)

// Service gera as visões derivadas do cadastro: estoque baixo e snapshot exportável.
type Service struct {
	repo   domain.ProductRepository
	logger logger.Logger
	now    func() time.Time
}

func NewService(repo domain.ProductRepository, log logger.Logger) *Service {
	return &Service{
		repo:   repo,
		logger: log,
		now:    func() time.Time { return time.Now().UTC() },
	}
}

// LowStock lista os produtos com quantity <= min_stock, na ordem de cadastro.
func (s *Service) LowStock(ctx context.Context) ([]domain.Product, error) {
	products, err := s.repo.FindLowStock(ctx)
	if err != nil {
		return nil, fmt.Errorf("falha ao gerar relatório de estoque baixo: %w", err)
	}
	return products, nil
}

// ExportSnapshot monta uma linha por produto com o status de reposição.
func (s *Service) ExportSnapshot(ctx context.Context) (domain.StockSnapshot, error) {
	products, err := s.repo.FindAll(ctx)
	if err != nil {
		return domain.StockSnapshot{}, fmt.Errorf("falha ao montar snapshot de estoque: %w", err)
	}

	rows := make([]domain.SnapshotRow, 0, len(products))
	for _, p := range products {
		rows = append(rows, domain.NewSnapshotRow(p))
	}
	return domain.StockSnapshot{GeneratedAt: s.now(), Rows: rows}, nil
}

// Export gera o arquivo do snapshot no formato do exportador.
func (s *Service) Export(ctx context.Context, exporter export.Exporter) ([]byte, error) {
	snapshot, err := s.ExportSnapshot(ctx)
	if err != nil {
		return nil, err
	}

	data, err := exporter.Export(snapshot)
	if err != nil {
		s.logger.Error("Falha ao exportar relatório.", err)
		return nil, fmt.Errorf("falha ao exportar %s: %w", exporter.FileName(), err)
	}

	s.logger.Info("Relatório exportado.", map[string]interface{}{"file": exporter.FileName(), "rows": len(snapshot.Rows), "bytes": len(data)})
	return data, nil
}
