package supplier

import (
	"context"

	"partsledger/internal/core/tx"
	"partsledger/internal/domain"
)

// Repository extends the generic catalog contract.
type Repository interface {
	domain.CatalogRepository[*Supplier]

	// ListSupplyHouses returns suppliers flagged as walk-in counters.
	ListSupplyHouses(ctx context.Context) ([]*Supplier, error)
}

// Service is the suppliers catalog service.
type Service struct {
	*domain.CatalogService[*Supplier]

	repo Repository
}

// NewService wires the suppliers service.
func NewService(repo Repository, txManager tx.Manager) *Service {
	return &Service{
		CatalogService: domain.NewCatalogService[*Supplier]("supplier", repo, txManager),
		repo:           repo,
	}
}

// ListSupplyHouses returns suppliers trucks can restock from directly.
func (s *Service) ListSupplyHouses(ctx context.Context) ([]*Supplier, error) {
	return s.repo.ListSupplyHouses(ctx)
}
