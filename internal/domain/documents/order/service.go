package order

import (
	"context"
	"time"

	"partsledger/internal/core/apperror"
	"partsledger/internal/core/id"
	"partsledger/internal/core/tx"
	"partsledger/internal/core/types"
	"partsledger/internal/domain/catalogs/job"
	"partsledger/internal/domain/ledger"
	"partsledger/internal/domain/lineage"
	"partsledger/pkg/logger"
	"partsledger/pkg/numerator"
)

// RecorderType tags ledger rows produced by purchase orders.
const RecorderType = "purchase_order"

// ListFilter narrows order listings.
type ListFilter struct {
	Status     *Status
	SupplierID *id.ID
	Limit      int
	Offset     int
}

// Repository is the storage contract for orders and their items.
type Repository interface {
	Create(ctx context.Context, o *PurchaseOrder) error
	GetByID(ctx context.Context, orderID id.ID) (*PurchaseOrder, error)

	// GetByIDForUpdate locks the header row for the transaction, so
	// concurrent receipts against one order serialize.
	GetByIDForUpdate(ctx context.Context, orderID id.ID) (*PurchaseOrder, error)

	GetByNumber(ctx context.Context, number string) (*PurchaseOrder, error)
	Update(ctx context.Context, o *PurchaseOrder) error

	// Delete removes the header and cascades to items. Draft orders only;
	// the service checks.
	Delete(ctx context.Context, orderID id.ID) error

	List(ctx context.Context, filter ListFilter) ([]PurchaseOrder, error)

	AddItem(ctx context.Context, item *Item) error
	GetItem(ctx context.Context, itemID id.ID) (*Item, error)
	UpdateItem(ctx context.Context, item *Item) error
	DeleteItem(ctx context.Context, itemID id.ID) error
	ListItems(ctx context.Context, orderID id.ID) ([]Item, error)
}

// AllocationTarget routes received quantity.
type AllocationTarget string

const (
	AllocateWarehouse AllocationTarget = "warehouse"
	AllocateTruck     AllocationTarget = "truck"
	AllocateJob       AllocationTarget = "job"
)

// ReceiveLine is one item receipt within a ReceiveItems call.
type ReceiveLine struct {
	OrderItemID id.ID
	Quantity    types.Quantity
	Allocation  AllocationTarget

	// TargetID names the truck or job for non-warehouse allocations.
	TargetID *id.ID
}

// Service implements the order lifecycle and the receive operation.
type Service struct {
	repo      Repository
	store     *ledger.Store
	tracker   *lineage.Tracker
	jobParts  job.PartRepository
	txManager tx.Manager
	numbers   numerator.Generator
}

// NewService wires the order service.
func NewService(repo Repository, store *ledger.Store, tracker *lineage.Tracker,
	jobParts job.PartRepository, txManager tx.Manager, numbers numerator.Generator) *Service {
	return &Service{
		repo:      repo,
		store:     store,
		tracker:   tracker,
		jobParts:  jobParts,
		txManager: txManager,
		numbers:   numbers,
	}
}

// Create stores a new draft order with a generated number.
func (s *Service) Create(ctx context.Context, o *PurchaseOrder) error {
	if err := o.Validate(ctx); err != nil {
		return err
	}

	return s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		if o.Number == "" {
			number, err := s.numbers.GetNextNumber(ctx,
				numerator.DefaultConfig("PO"), numerator.DefaultOptions(), time.Now())
			if err != nil {
				return err
			}
			o.Number = number
		}
		return s.repo.Create(ctx, o)
	})
}

// GetByID loads an order header.
func (s *Service) GetByID(ctx context.Context, orderID id.ID) (*PurchaseOrder, error) {
	return s.repo.GetByID(ctx, orderID)
}

// GetByNumber loads an order header by document number.
func (s *Service) GetByNumber(ctx context.Context, number string) (*PurchaseOrder, error) {
	return s.repo.GetByNumber(ctx, number)
}

// List returns orders matching the filter.
func (s *Service) List(ctx context.Context, filter ListFilter) ([]PurchaseOrder, error) {
	return s.repo.List(ctx, filter)
}

// ListItems returns an order's lines.
func (s *Service) ListItems(ctx context.Context, orderID id.ID) ([]Item, error) {
	return s.repo.ListItems(ctx, orderID)
}

// GetItem loads one order line.
func (s *Service) GetItem(ctx context.Context, itemID id.ID) (*Item, error) {
	return s.repo.GetItem(ctx, itemID)
}

// AddItem appends a line to a draft order.
func (s *Service) AddItem(ctx context.Context, item *Item) error {
	if err := item.Validate(ctx); err != nil {
		return err
	}
	return s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		o, err := s.repo.GetByIDForUpdate(ctx, item.OrderID)
		if err != nil {
			return err
		}
		if o.Status != StatusDraft {
			return apperror.NewInvalidState("order", o.ID, string(o.Status), "add item")
		}
		if id.IsNil(item.ID) {
			item.ID = id.New()
		}
		return s.repo.AddItem(ctx, item)
	})
}

// UpdateItem rewrites a line of a draft order.
func (s *Service) UpdateItem(ctx context.Context, item *Item) error {
	if err := item.Validate(ctx); err != nil {
		return err
	}
	return s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		o, err := s.repo.GetByIDForUpdate(ctx, item.OrderID)
		if err != nil {
			return err
		}
		if o.Status != StatusDraft {
			return apperror.NewInvalidState("order", o.ID, string(o.Status), "update item")
		}
		return s.repo.UpdateItem(ctx, item)
	})
}

// RemoveItem deletes a line from a draft order.
func (s *Service) RemoveItem(ctx context.Context, itemID id.ID) error {
	return s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		item, err := s.repo.GetItem(ctx, itemID)
		if err != nil {
			return err
		}
		o, err := s.repo.GetByIDForUpdate(ctx, item.OrderID)
		if err != nil {
			return err
		}
		if o.Status != StatusDraft {
			return apperror.NewInvalidState("order", o.ID, string(o.Status), "remove item")
		}
		return s.repo.DeleteItem(ctx, itemID)
	})
}

// Submit moves a draft order to submitted. Requires at least one item.
func (s *Service) Submit(ctx context.Context, orderID id.ID) error {
	return s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		o, err := s.repo.GetByIDForUpdate(ctx, orderID)
		if err != nil {
			return err
		}
		items, err := s.repo.ListItems(ctx, orderID)
		if err != nil {
			return err
		}
		if err := o.Submit(len(items)); err != nil {
			return err
		}
		o.Touch()
		return s.repo.Update(ctx, o)
	})
}

// Cancel moves the order to cancelled.
func (s *Service) Cancel(ctx context.Context, orderID id.ID) error {
	return s.transition(ctx, orderID, (*PurchaseOrder).Cancel)
}

// Close moves a fully received order to closed.
func (s *Service) Close(ctx context.Context, orderID id.ID) error {
	return s.transition(ctx, orderID, (*PurchaseOrder).Close)
}

func (s *Service) transition(ctx context.Context, orderID id.ID, fn func(*PurchaseOrder) error) error {
	return s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		o, err := s.repo.GetByIDForUpdate(ctx, orderID)
		if err != nil {
			return err
		}
		if err := fn(o); err != nil {
			return err
		}
		o.Touch()
		return s.repo.Update(ctx, o)
	})
}

// Delete removes a draft order and its items. Drafts never touched the
// ledger, so there is nothing to reverse.
func (s *Service) Delete(ctx context.Context, orderID id.ID) error {
	return s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		o, err := s.repo.GetByIDForUpdate(ctx, orderID)
		if err != nil {
			return err
		}
		if !o.CanDelete() {
			return apperror.NewInvalidState("order", o.ID, string(o.Status), "delete")
		}
		return s.repo.Delete(ctx, orderID)
	})
}

// ReceiveItems records receipt of ordered lines and routes the quantity to
// each line's allocation target. The whole call is one atomic unit: a
// lineage conflict or stock failure on any line discards everything.
// Returns the order's status after recomputation.
func (s *Service) ReceiveItems(ctx context.Context, orderID id.ID, lines []ReceiveLine) (Status, error) {
	if len(lines) == 0 {
		return "", apperror.NewValidation("receive requires at least one line")
	}

	var status Status
	err := s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		o, err := s.repo.GetByIDForUpdate(ctx, orderID)
		if err != nil {
			return err
		}
		if !o.Status.Receivable() {
			return apperror.NewInvalidState("order", o.ID, string(o.Status), "receive")
		}

		for _, line := range lines {
			if err := s.receiveLine(ctx, o, line); err != nil {
				return err
			}
		}

		items, err := s.repo.ListItems(ctx, orderID)
		if err != nil {
			return err
		}
		o.RecomputeStatus(items)
		o.Touch()
		if err := s.repo.Update(ctx, o); err != nil {
			return err
		}

		status = o.Status
		logger.Info(ctx, "order items received",
			"order_id", orderID,
			"number", o.Number,
			"lines", len(lines),
			"status", status,
		)
		return nil
	})
	if err != nil {
		return "", err
	}
	return status, nil
}

func (s *Service) receiveLine(ctx context.Context, o *PurchaseOrder, line ReceiveLine) error {
	if !line.Quantity.IsPositive() {
		return apperror.NewValidation("received quantity must be positive").
			WithDetail("order_item_id", line.OrderItemID)
	}

	item, err := s.repo.GetItem(ctx, line.OrderItemID)
	if err != nil {
		return err
	}
	if item.OrderID != o.ID {
		return apperror.NewValidation("item does not belong to the order").
			WithDetail("order_item_id", line.OrderItemID).
			WithDetail("order_id", o.ID)
	}

	supplierID := o.SupplierID
	orderID := o.ID

	// Every allocation lands in the warehouse first; truck and job targets
	// move it onward from there in the same transaction.
	receive := ledger.NewMovement(ledger.KindReceive, item.PartID, line.Quantity,
		ledger.External(), ledger.Warehouse())
	receive.SupplierID = &supplierID
	receive.SourceOrderID = &orderID
	receive.UnitCost = item.UnitCost
	receive.RecorderType = RecorderType
	receive.RecorderID = o.ID
	if err := s.store.Apply(ctx, receive); err != nil {
		return err
	}

	switch line.Allocation {
	case AllocateWarehouse, "":
		// Done.

	case AllocateTruck:
		if line.TargetID == nil {
			return apperror.NewValidation("truck allocation requires a truck").
				WithDetail("order_item_id", line.OrderItemID)
		}
		transfer := ledger.NewMovement(ledger.KindTransfer, item.PartID, line.Quantity,
			ledger.Warehouse(), ledger.Truck(*line.TargetID))
		transfer.SupplierID = &supplierID
		transfer.SourceOrderID = &orderID
		transfer.UnitCost = item.UnitCost
		transfer.RecorderType = RecorderType
		transfer.RecorderID = o.ID
		if err := s.store.BeginTransfer(ctx, transfer); err != nil {
			return err
		}

	case AllocateJob:
		if line.TargetID == nil {
			return apperror.NewValidation("job allocation requires a job").
				WithDetail("order_item_id", line.OrderItemID)
		}
		jobID := *line.TargetID

		resolved, err := s.tracker.Resolve(ctx, item.PartID, jobID, &supplierID)
		if err != nil {
			return err
		}

		consumption := ledger.NewMovement(ledger.KindConsumption, item.PartID, line.Quantity,
			ledger.Warehouse(), ledger.Job(jobID))
		consumption.SupplierID = resolved
		consumption.SourceOrderID = &orderID
		consumption.UnitCost = item.UnitCost
		consumption.RecorderType = RecorderType
		consumption.RecorderID = o.ID
		if err := s.store.Apply(ctx, consumption); err != nil {
			return err
		}

		if err := s.jobParts.Allocate(ctx, job.Allocation{
			JobID:         jobID,
			PartID:        item.PartID,
			Quantity:      line.Quantity,
			UnitCost:      item.UnitCost,
			SupplierID:    resolved,
			SourceOrderID: &orderID,
		}); err != nil {
			return err
		}

	default:
		return apperror.NewValidation("unknown allocation target").
			WithDetail("allocation", string(line.Allocation))
	}

	item.QuantityReceived += line.Quantity
	return s.repo.UpdateItem(ctx, item)
}
