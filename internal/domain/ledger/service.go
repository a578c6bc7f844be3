package ledger

import (
	"context"
	"time"

	"partsledger/internal/core/apperror"
	"partsledger/internal/core/appctx"
	"partsledger/internal/core/id"
	"partsledger/internal/core/types"
	"partsledger/pkg/logger"
)

// Store is the quantity ledger engine. It owns all stock mutations: movement
// services express their effects as MovementRecords and hand them to the
// Store, which applies the balance deltas and the audit row as one unit.
//
// The Store assumes the caller already opened the transaction. It performs no
// identity checks; capability gating happens at the boundary.
type Store struct {
	repo Repository
}

// NewStore creates the ledger store.
func NewStore(repo Repository) *Store {
	return &Store{repo: repo}
}

// GetStock returns the balance of a part at a location, zero when absent.
func (s *Store) GetStock(ctx context.Context, partID id.ID, loc Location) (types.Quantity, error) {
	return s.repo.GetStock(ctx, partID, loc)
}

// ListStockByPart returns all balances of a part.
func (s *Store) ListStockByPart(ctx context.Context, partID id.ID) ([]LocationStock, error) {
	return s.repo.ListStockByPart(ctx, partID)
}

// ListStockByLocation returns all balances at a location.
func (s *Store) ListStockByLocation(ctx context.Context, loc Location) ([]LocationStock, error) {
	return s.repo.ListStockByLocation(ctx, loc)
}

// Reserve locks the (part, location) balance row and verifies it covers qty.
// Fails with INSUFFICIENT_STOCK otherwise. The lock holds until the
// transaction ends, so the check stays valid through the adjustment.
func (s *Store) Reserve(ctx context.Context, partID id.ID, loc Location, qty types.Quantity) error {
	available, err := s.repo.GetStockForUpdate(ctx, partID, loc)
	if err != nil {
		return err
	}
	if available < qty {
		return apperror.NewInsufficientStock(partID.String(), loc.String(), qty, available)
	}
	return nil
}

// Apply executes a non-transfer movement: decrements the source, increments
// the destination, appends the audit row. External endpoints carry no
// balance and are skipped.
func (s *Store) Apply(ctx context.Context, rec *MovementRecord) error {
	if err := s.prepare(ctx, rec); err != nil {
		return err
	}
	if rec.Kind == KindTransfer {
		return apperror.NewValidation("transfers go through BeginTransfer")
	}

	if rec.Source().Tracked() {
		if _, err := s.repo.Adjust(ctx, rec.PartID, rec.Source(), rec.Quantity.Neg()); err != nil {
			return err
		}
	}
	if rec.Dest().Tracked() {
		if _, err := s.repo.Adjust(ctx, rec.PartID, rec.Dest(), rec.Quantity); err != nil {
			return err
		}
	}
	if err := s.repo.Append(ctx, rec); err != nil {
		return err
	}

	logger.Debug(ctx, "movement applied",
		"movement_id", rec.ID,
		"kind", rec.Kind,
		"part_id", rec.PartID,
		"quantity", rec.Quantity,
		"source", rec.Source().String(),
		"dest", rec.Dest().String(),
	)
	return nil
}

// BeginTransfer records a pending transfer: the source balance drops
// immediately and the quantity rides in transit until CompleteTransfer
// lands it on the destination.
func (s *Store) BeginTransfer(ctx context.Context, rec *MovementRecord) error {
	if err := s.prepare(ctx, rec); err != nil {
		return err
	}
	if rec.Kind != KindTransfer {
		return apperror.NewValidation("BeginTransfer requires a transfer movement")
	}
	rec.Status = TransferPending

	if _, err := s.repo.Adjust(ctx, rec.PartID, rec.Source(), rec.Quantity.Neg()); err != nil {
		return err
	}
	return s.repo.Append(ctx, rec)
}

// CompleteTransfer lands a pending transfer on its destination and stamps the
// completion time. Fails with INVALID_STATE when the transfer is already
// completed or cancelled; the stock moves at most once.
func (s *Store) CompleteTransfer(ctx context.Context, transferID id.ID) (*MovementRecord, error) {
	rec, err := s.repo.GetMovementForUpdate(ctx, transferID)
	if err != nil {
		return nil, err
	}
	if rec.Kind != KindTransfer {
		return nil, apperror.NewValidation("movement is not a transfer").
			WithDetail("movement_id", transferID)
	}
	if rec.Status != TransferPending {
		return nil, apperror.NewInvalidState("transfer", transferID, string(rec.Status), "receive")
	}

	if _, err := s.repo.Adjust(ctx, rec.PartID, rec.Dest(), rec.Quantity); err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	if err := s.repo.SetTransferStatus(ctx, transferID, TransferCompleted, &now); err != nil {
		return nil, err
	}
	rec.Status = TransferCompleted
	rec.CompletedAt = &now

	logger.Info(ctx, "transfer received",
		"transfer_id", transferID,
		"part_id", rec.PartID,
		"quantity", rec.Quantity,
		"dest", rec.Dest().String(),
	)
	return rec, nil
}

// CancelTransfer voids a pending transfer and restores the source balance.
func (s *Store) CancelTransfer(ctx context.Context, transferID id.ID) (*MovementRecord, error) {
	rec, err := s.repo.GetMovementForUpdate(ctx, transferID)
	if err != nil {
		return nil, err
	}
	if rec.Kind != KindTransfer {
		return nil, apperror.NewValidation("movement is not a transfer").
			WithDetail("movement_id", transferID)
	}
	if rec.Status != TransferPending {
		return nil, apperror.NewInvalidState("transfer", transferID, string(rec.Status), "cancel")
	}

	if _, err := s.repo.Adjust(ctx, rec.PartID, rec.Source(), rec.Quantity); err != nil {
		return nil, err
	}
	if err := s.repo.SetTransferStatus(ctx, transferID, TransferCancelled, nil); err != nil {
		return nil, err
	}
	rec.Status = TransferCancelled
	return rec, nil
}

// Unwind reverses every ledger effect a document produced and deletes its
// movement rows. Pending transfers already gave their source balance back
// through CancelTransfer or keep it in transit, so only applied deltas are
// reversed.
func (s *Store) Unwind(ctx context.Context, recorderType string, recorderID id.ID) error {
	rows, err := s.repo.ListByRecorder(ctx, recorderType, recorderID)
	if err != nil {
		return err
	}

	for i := range rows {
		rec := &rows[i]
		switch {
		case rec.Kind == KindTransfer && rec.Status == TransferPending:
			// Source already decremented; give it back.
			if _, err := s.repo.Adjust(ctx, rec.PartID, rec.Source(), rec.Quantity); err != nil {
				return err
			}
		case rec.Kind == KindTransfer && rec.Status == TransferCancelled:
			// Nothing applied.
		default:
			if rec.Dest().Tracked() {
				if _, err := s.repo.Adjust(ctx, rec.PartID, rec.Dest(), rec.Quantity.Neg()); err != nil {
					return err
				}
			}
			if rec.Source().Tracked() {
				if _, err := s.repo.Adjust(ctx, rec.PartID, rec.Source(), rec.Quantity); err != nil {
					return err
				}
			}
		}
	}

	deleted, err := s.repo.DeleteByRecorder(ctx, recorderType, recorderID)
	if err != nil {
		return err
	}

	logger.Info(ctx, "ledger unwound",
		"recorder_type", recorderType,
		"recorder_id", recorderID,
		"movements_deleted", deleted,
	)
	return nil
}

// GetTransfer loads one transfer row.
func (s *Store) GetTransfer(ctx context.Context, transferID id.ID) (*MovementRecord, error) {
	rec, err := s.repo.GetMovement(ctx, transferID)
	if err != nil {
		return nil, err
	}
	if rec.Kind != KindTransfer {
		return nil, apperror.NewNotFound("transfer", transferID)
	}
	return rec, nil
}

// ListTransfers returns transfers, optionally narrowed to a truck and status.
func (s *Store) ListTransfers(ctx context.Context, truckID *id.ID, status *TransferStatus) ([]MovementRecord, error) {
	return s.repo.ListTransfers(ctx, truckID, status)
}

// History returns movement rows matching the filter, oldest first.
func (s *Store) History(ctx context.Context, filter HistoryFilter) ([]MovementRecord, error) {
	return s.repo.History(ctx, filter)
}

// LatestReceive resolves the supplier of the most recent receive of a part.
func (s *Store) LatestReceive(ctx context.Context, partID id.ID) (*SupplierAttribution, error) {
	return s.repo.LatestReceive(ctx, partID)
}

// LatestReceivedTransfer resolves the most recent completed transfer of a
// part to a truck.
func (s *Store) LatestReceivedTransfer(ctx context.Context, partID, truckID id.ID) (*MovementRecord, error) {
	return s.repo.LatestReceivedTransfer(ctx, partID, truckID)
}

// LatestJobConsumption resolves the most recent consumption of a part on a
// job.
func (s *Store) LatestJobConsumption(ctx context.Context, partID, jobID id.ID) (*MovementRecord, error) {
	return s.repo.LatestJobConsumption(ctx, partID, jobID)
}

func (s *Store) prepare(ctx context.Context, rec *MovementRecord) error {
	if rec == nil {
		return apperror.NewValidation("movement is required")
	}
	if id.IsNil(rec.PartID) {
		return apperror.NewValidation("movement requires a part")
	}
	if !rec.Quantity.IsPositive() {
		return apperror.NewValidation("movement quantity must be positive").
			WithDetail("quantity", rec.Quantity.String())
	}
	if rec.RecorderType == "" || id.IsNil(rec.RecorderID) {
		return apperror.NewValidation("movement requires a recorder")
	}
	if id.IsNil(rec.ID) {
		rec.ID = id.New()
	}
	if rec.OccurredAt.IsZero() {
		rec.OccurredAt = time.Now().UTC()
	}
	if id.IsNil(rec.ActorID) {
		rec.ActorID = appctx.ActorID(ctx)
	}
	return nil
}
