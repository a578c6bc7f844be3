package returns

import (
	"context"
	"time"

	"partsledger/internal/core/apperror"
	"partsledger/internal/core/id"
	"partsledger/internal/core/tx"
	"partsledger/internal/core/types"
	"partsledger/internal/domain/ledger"
	"partsledger/pkg/logger"
	"partsledger/pkg/numerator"
)

// RecorderType tags ledger rows produced by return authorizations.
const RecorderType = "return_authorization"

// ListFilter narrows return listings.
type ListFilter struct {
	Status     *Status
	SupplierID *id.ID
	Limit      int
	Offset     int
}

// Repository is the storage contract for returns and their items.
type Repository interface {
	Create(ctx context.Context, a *Authorization) error
	GetByID(ctx context.Context, returnID id.ID) (*Authorization, error)
	GetByIDForUpdate(ctx context.Context, returnID id.ID) (*Authorization, error)
	GetByNumber(ctx context.Context, number string) (*Authorization, error)
	Update(ctx context.Context, a *Authorization) error

	// Delete removes the header and cascades to items. The service reverses
	// the ledger first.
	Delete(ctx context.Context, returnID id.ID) error

	List(ctx context.Context, filter ListFilter) ([]Authorization, error)

	AddItem(ctx context.Context, item *Item) error
	ListItems(ctx context.Context, returnID id.ID) ([]Item, error)
}

// NewReturn is the input to Create: header fields plus items, committed as
// one unit.
type NewReturn struct {
	SupplierID     id.ID
	Reason         Reason
	RelatedOrderID *id.ID
	Notes          string
	Items          []Item
}

// Service implements the return authorization lifecycle.
type Service struct {
	repo      Repository
	store     *ledger.Store
	txManager tx.Manager
	numbers   numerator.Generator
}

// NewService wires the returns service.
func NewService(repo Repository, store *ledger.Store, txManager tx.Manager, numbers numerator.Generator) *Service {
	return &Service{
		repo:      repo,
		store:     store,
		txManager: txManager,
		numbers:   numbers,
	}
}

// Create stores an initiated return and removes its items from warehouse
// stock in the same transaction. A single short item fails the whole call
// with INSUFFICIENT_STOCK and nothing moves.
func (s *Service) Create(ctx context.Context, input NewReturn) (id.ID, error) {
	if len(input.Items) == 0 {
		return id.Nil(), apperror.NewValidation("return requires at least one item")
	}

	a := New(input.SupplierID, input.Reason)
	a.RelatedOrderID = input.RelatedOrderID
	a.Notes = input.Notes
	if err := a.Validate(ctx); err != nil {
		return id.Nil(), err
	}
	for i := range input.Items {
		if err := input.Items[i].Validate(ctx); err != nil {
			return id.Nil(), err
		}
	}

	err := s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		number, err := s.numbers.GetNextNumber(ctx,
			numerator.Config{Prefix: "RA", IncludeYear: true, PadWidth: 3, ResetPeriod: "year"},
			numerator.DefaultOptions(), time.Now())
		if err != nil {
			return err
		}
		a.Number = number

		if err := s.repo.Create(ctx, a); err != nil {
			return err
		}

		supplierID := a.SupplierID
		for i := range input.Items {
			item := input.Items[i]
			item.ID = id.New()
			item.ReturnID = a.ID

			// Stock leaves the warehouse now; physical pickup follows.
			if err := s.store.Reserve(ctx, item.PartID, ledger.Warehouse(), item.Quantity); err != nil {
				return err
			}

			rec := ledger.NewMovement(ledger.KindReturn, item.PartID, item.Quantity,
				ledger.Warehouse(), ledger.External())
			rec.SupplierID = &supplierID
			rec.SourceOrderID = a.RelatedOrderID
			rec.UnitCost = item.UnitCost
			rec.RecorderType = RecorderType
			rec.RecorderID = a.ID
			if err := s.store.Apply(ctx, rec); err != nil {
				return err
			}

			if err := s.repo.AddItem(ctx, &item); err != nil {
				return err
			}
		}

		logger.Info(ctx, "return created",
			"return_id", a.ID,
			"number", a.Number,
			"supplier_id", a.SupplierID,
			"items", len(input.Items),
		)
		return nil
	})
	if err != nil {
		return id.Nil(), err
	}
	return a.ID, nil
}

// GetByID loads a return header.
func (s *Service) GetByID(ctx context.Context, returnID id.ID) (*Authorization, error) {
	return s.repo.GetByID(ctx, returnID)
}

// GetByNumber loads a return header by document number.
func (s *Service) GetByNumber(ctx context.Context, number string) (*Authorization, error) {
	return s.repo.GetByNumber(ctx, number)
}

// List returns returns matching the filter.
func (s *Service) List(ctx context.Context, filter ListFilter) ([]Authorization, error) {
	return s.repo.List(ctx, filter)
}

// ListItems returns a return's lines.
func (s *Service) ListItems(ctx context.Context, returnID id.ID) ([]Item, error) {
	return s.repo.ListItems(ctx, returnID)
}

// MarkPickedUp records the supplier collecting the stock.
func (s *Service) MarkPickedUp(ctx context.Context, returnID id.ID) error {
	return s.transition(ctx, returnID, func(a *Authorization) error {
		return a.MarkPickedUp()
	})
}

// MarkCreditReceived records the supplier credit.
func (s *Service) MarkCreditReceived(ctx context.Context, returnID id.ID, amount types.Money) error {
	return s.transition(ctx, returnID, func(a *Authorization) error {
		return a.MarkCreditReceived(amount)
	})
}

// Cancel voids an initiated return without restoring stock.
func (s *Service) Cancel(ctx context.Context, returnID id.ID) error {
	return s.transition(ctx, returnID, func(a *Authorization) error {
		return a.Cancel()
	})
}

func (s *Service) transition(ctx context.Context, returnID id.ID, fn func(*Authorization) error) error {
	return s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		a, err := s.repo.GetByIDForUpdate(ctx, returnID)
		if err != nil {
			return err
		}
		if err := fn(a); err != nil {
			return err
		}
		a.Touch()
		return s.repo.Update(ctx, a)
	})
}

// Delete removes an initiated return, restoring the warehouse stock its
// creation removed and erasing its movement rows.
func (s *Service) Delete(ctx context.Context, returnID id.ID) error {
	return s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		a, err := s.repo.GetByIDForUpdate(ctx, returnID)
		if err != nil {
			return err
		}
		if !a.CanDelete() {
			return apperror.NewInvalidState("return", a.ID, string(a.Status), "delete")
		}

		if err := s.store.Unwind(ctx, RecorderType, returnID); err != nil {
			return err
		}
		return s.repo.Delete(ctx, returnID)
	})
}
