package partslist

import (
	"context"

	"partsledger/internal/core/id"
	"partsledger/internal/core/tx"
	"partsledger/internal/domain"
)

// Repository extends the generic catalog contract with item access.
type Repository interface {
	domain.CatalogRepository[*List]

	// UpsertItem inserts or replaces the required quantity for a part.
	UpsertItem(ctx context.Context, item *Item) error

	RemoveItem(ctx context.Context, itemID id.ID) error

	// ListItems returns the list's lines.
	ListItems(ctx context.Context, listID id.ID) ([]Item, error)

	// ListByJob returns lists tied to a job.
	ListByJob(ctx context.Context, jobID id.ID) ([]*List, error)
}

// Service is the parts list service.
type Service struct {
	*domain.CatalogService[*List]

	repo      Repository
	txManager tx.Manager
}

// NewService wires the parts list service.
func NewService(repo Repository, txManager tx.Manager) *Service {
	return &Service{
		CatalogService: domain.NewCatalogService[*List]("parts_list", repo, txManager),
		repo:           repo,
		txManager:      txManager,
	}
}

// SetItem records the required quantity for a part on a list.
func (s *Service) SetItem(ctx context.Context, item *Item) error {
	if err := item.Validate(ctx); err != nil {
		return err
	}
	return s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		if _, err := s.repo.GetByID(ctx, item.ListID); err != nil {
			return err
		}
		if id.IsNil(item.ID) {
			item.ID = id.New()
		}
		return s.repo.UpsertItem(ctx, item)
	})
}

// RemoveItem deletes a line from a list.
func (s *Service) RemoveItem(ctx context.Context, itemID id.ID) error {
	return s.repo.RemoveItem(ctx, itemID)
}

// ListItems returns a list's lines.
func (s *Service) ListItems(ctx context.Context, listID id.ID) ([]Item, error) {
	return s.repo.ListItems(ctx, listID)
}

// ListByJob returns lists tied to a job.
func (s *Service) ListByJob(ctx context.Context, jobID id.ID) ([]*List, error) {
	return s.repo.ListByJob(ctx, jobID)
}
