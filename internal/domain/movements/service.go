// Package movements implements the manual movement operations: warehouse to
// truck transfers, truck consumption onto jobs, and truck returns to the
// warehouse. Order receiving and return authorizations live in their
// document packages; everything here is driven by a user moving stock by
// hand.
package movements

import (
	"context"

	"partsledger/internal/core/apperror"
	"partsledger/internal/core/id"
	"partsledger/internal/core/tx"
	"partsledger/internal/core/types"
	"partsledger/internal/domain/catalogs/job"
	"partsledger/internal/domain/catalogs/part"
	"partsledger/internal/domain/ledger"
	"partsledger/internal/domain/lineage"
	"partsledger/pkg/logger"
)

// Recorder types for ledger rows produced by manual operations. The recorder
// id is the movement's own id; manual movements are their own document.
const (
	RecorderTransfer    = "manual_transfer"
	RecorderConsumption = "truck_consumption"
	RecorderTruckReturn = "truck_return"
)

// Service executes manual movement operations.
type Service struct {
	store     *ledger.Store
	tracker   *lineage.Tracker
	parts     part.Repository
	jobParts  job.PartRepository
	txManager tx.Manager
}

// NewService wires the movements service.
func NewService(store *ledger.Store, tracker *lineage.Tracker, parts part.Repository,
	jobParts job.PartRepository, txManager tx.Manager) *Service {
	return &Service{
		store:     store,
		tracker:   tracker,
		parts:     parts,
		jobParts:  jobParts,
		txManager: txManager,
	}
}

// CreateTransfer stages a warehouse-to-truck transfer. The warehouse balance
// drops immediately; the quantity rides in transit until ReceiveTransfer.
//
// When supplierID is nil the supplier is auto-detected from the most recent
// receive of the part, ties broken by latest timestamp then highest movement
// id. Returns the transfer id.
func (s *Service) CreateTransfer(ctx context.Context, partID, truckID id.ID,
	qty types.Quantity, supplierID *id.ID) (id.ID, error) {
	if !qty.IsPositive() {
		return id.Nil(), apperror.NewValidation("transfer quantity must be positive")
	}

	var transferID id.ID
	err := s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		if err := s.store.Reserve(ctx, partID, ledger.Warehouse(), qty); err != nil {
			return err
		}

		var sourceOrderID *id.ID
		if supplierID == nil {
			attr, err := s.store.LatestReceive(ctx, partID)
			if err != nil {
				return err
			}
			if attr != nil {
				supplierID = attr.SupplierID
				sourceOrderID = attr.SourceOrderID
			}
		}

		p, err := s.parts.GetByID(ctx, partID)
		if err != nil {
			return err
		}

		rec := ledger.NewMovement(ledger.KindTransfer, partID, qty,
			ledger.Warehouse(), ledger.Truck(truckID))
		rec.SupplierID = supplierID
		rec.SourceOrderID = sourceOrderID
		rec.UnitCost = p.UnitCost
		rec.RecorderType = RecorderTransfer
		rec.RecorderID = rec.ID

		if err := s.store.BeginTransfer(ctx, rec); err != nil {
			return err
		}
		transferID = rec.ID

		logger.Info(ctx, "transfer created",
			"transfer_id", transferID,
			"part_id", partID,
			"truck_id", truckID,
			"quantity", qty,
		)
		return nil
	})
	if err != nil {
		return id.Nil(), err
	}
	return transferID, nil
}

// ReceiveTransfer lands a pending transfer on its truck. Completing an
// already-completed transfer fails with INVALID_STATE and moves nothing.
func (s *Service) ReceiveTransfer(ctx context.Context, transferID id.ID) error {
	return s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		_, err := s.store.CompleteTransfer(ctx, transferID)
		return err
	})
}

// CancelTransfer voids a pending transfer and restores the warehouse.
func (s *Service) CancelTransfer(ctx context.Context, transferID id.ID) error {
	return s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		_, err := s.store.CancelTransfer(ctx, transferID)
		return err
	})
}

// ListTransfers returns transfers, optionally narrowed to a truck and status.
func (s *Service) ListTransfers(ctx context.Context, truckID *id.ID, status *ledger.TransferStatus) ([]ledger.MovementRecord, error) {
	return s.store.ListTransfers(ctx, truckID, status)
}

// ConsumeFromTruck uses truck stock on a job. The supplier is resolved from
// the most recent received transfer of the part to the truck, then checked
// against the job's lineage; a conflicting supplier fails the whole call.
func (s *Service) ConsumeFromTruck(ctx context.Context, truckID, jobID, partID id.ID, qty types.Quantity) error {
	if !qty.IsPositive() {
		return apperror.NewValidation("consumed quantity must be positive")
	}

	return s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		truckLoc := ledger.Truck(truckID)
		if err := s.store.Reserve(ctx, partID, truckLoc, qty); err != nil {
			return err
		}

		var candidate *id.ID
		var sourceOrderID *id.ID
		transfer, err := s.store.LatestReceivedTransfer(ctx, partID, truckID)
		if err != nil {
			return err
		}
		if transfer != nil {
			candidate = transfer.SupplierID
			sourceOrderID = transfer.SourceOrderID
		}

		resolved, err := s.tracker.Resolve(ctx, partID, jobID, candidate)
		if err != nil {
			return err
		}

		unitCost, err := s.usageCost(ctx, jobID, partID)
		if err != nil {
			return err
		}

		rec := ledger.NewMovement(ledger.KindConsumption, partID, qty,
			truckLoc, ledger.Job(jobID))
		rec.SupplierID = resolved
		rec.SourceOrderID = sourceOrderID
		rec.UnitCost = unitCost
		rec.RecorderType = RecorderConsumption
		rec.RecorderID = rec.ID

		if err := s.store.Apply(ctx, rec); err != nil {
			return err
		}

		if err := s.jobParts.Allocate(ctx, job.Allocation{
			JobID:         jobID,
			PartID:        partID,
			Quantity:      qty,
			UnitCost:      unitCost,
			SupplierID:    resolved,
			SourceOrderID: sourceOrderID,
		}); err != nil {
			return err
		}

		logger.Info(ctx, "consumed from truck",
			"truck_id", truckID,
			"job_id", jobID,
			"part_id", partID,
			"quantity", qty,
		)
		return nil
	})
}

// ReturnToWarehouse moves unused stock from a truck back to the warehouse.
// The supplier attribution follows the stock back so the lineage chain shows
// where the returned quantity came from.
func (s *Service) ReturnToWarehouse(ctx context.Context, truckID, partID id.ID, qty types.Quantity) error {
	if !qty.IsPositive() {
		return apperror.NewValidation("returned quantity must be positive")
	}

	return s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		truckLoc := ledger.Truck(truckID)
		if err := s.store.Reserve(ctx, partID, truckLoc, qty); err != nil {
			return err
		}

		var supplierID, sourceOrderID *id.ID
		transfer, err := s.store.LatestReceivedTransfer(ctx, partID, truckID)
		if err != nil {
			return err
		}
		if transfer != nil {
			supplierID = transfer.SupplierID
			sourceOrderID = transfer.SourceOrderID
		}

		p, err := s.parts.GetByID(ctx, partID)
		if err != nil {
			return err
		}

		rec := ledger.NewMovement(ledger.KindReturn, partID, qty,
			truckLoc, ledger.Warehouse())
		rec.SupplierID = supplierID
		rec.SourceOrderID = sourceOrderID
		rec.UnitCost = p.UnitCost
		rec.RecorderType = RecorderTruckReturn
		rec.RecorderID = rec.ID

		return s.store.Apply(ctx, rec)
	})
}

// usageCost picks the cost to record for a job allocation: the snapshot on
// an existing aggregate row wins, otherwise the part's current list cost.
func (s *Service) usageCost(ctx context.Context, jobID, partID id.ID) (types.Money, error) {
	existing, err := s.jobParts.Get(ctx, jobID, partID)
	if err != nil {
		return types.ZeroMoney(), err
	}
	if existing != nil {
		return existing.UnitCost, nil
	}
	p, err := s.parts.GetByID(ctx, partID)
	if err != nil {
		return types.ZeroMoney(), err
	}
	return p.UnitCost, nil
}
