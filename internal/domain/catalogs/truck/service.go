package truck

import (
	"context"

	"partsledger/internal/core/id"
	"partsledger/internal/core/tx"
	"partsledger/internal/domain"
)

// Repository extends the generic catalog contract.
type Repository interface {
	domain.CatalogRepository[*Truck]

	// ListActive returns trucks in service.
	ListActive(ctx context.Context) ([]*Truck, error)
}

// Service is the trucks catalog service.
type Service struct {
	*domain.CatalogService[*Truck]

	repo Repository
}

// NewService wires the trucks service.
func NewService(repo Repository, txManager tx.Manager) *Service {
	return &Service{
		CatalogService: domain.NewCatalogService[*Truck]("truck", repo, txManager),
		repo:           repo,
	}
}

// ListActive returns trucks in service.
func (s *Service) ListActive(ctx context.Context) ([]*Truck, error) {
	return s.repo.ListActive(ctx)
}

// SetActive flips a truck's in-service flag.
func (s *Service) SetActive(ctx context.Context, truckID id.ID, active bool) error {
	t, err := s.GetByID(ctx, truckID)
	if err != nil {
		return err
	}
	t.IsActive = active
	return s.Update(ctx, t)
}
