package part

import (
	"context"

	"partsledger/internal/core/id"
	"partsledger/internal/core/tx"
	"partsledger/internal/domain"
)

// Repository extends the generic catalog contract with part-specific reads.
type Repository interface {
	domain.CatalogRepository[*Part]

	// ListLowStock returns parts whose warehouse balance is below their
	// reorder threshold, most depleted first.
	ListLowStock(ctx context.Context) ([]LowStockRow, error)

	// Search matches number and description with a full-text query.
	Search(ctx context.Context, query string) ([]*Part, error)

	// ListByCategory returns parts in a category.
	ListByCategory(ctx context.Context, categoryID id.ID) ([]*Part, error)
}

// Service is the parts catalog service.
type Service struct {
	*domain.CatalogService[*Part]

	repo Repository
}

// NewService wires the parts service.
func NewService(repo Repository, txManager tx.Manager) *Service {
	return &Service{
		CatalogService: domain.NewCatalogService[*Part]("part", repo, txManager),
		repo:           repo,
	}
}

// ListLowStock returns parts below their reorder threshold.
func (s *Service) ListLowStock(ctx context.Context) ([]LowStockRow, error) {
	return s.repo.ListLowStock(ctx)
}

// Search matches parts by number and description.
func (s *Service) Search(ctx context.Context, query string) ([]*Part, error) {
	if query == "" {
		return s.repo.List(ctx, domain.ListFilter{})
	}
	return s.repo.Search(ctx, query)
}

// ListByCategory returns parts in a category.
func (s *Service) ListByCategory(ctx context.Context, categoryID id.ID) ([]*Part, error) {
	return s.repo.ListByCategory(ctx, categoryID)
}
