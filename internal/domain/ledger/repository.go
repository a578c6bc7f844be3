package ledger

import (
	"context"
	"time"

	"partsledger/internal/core/id"
	"partsledger/internal/core/types"
)

// SupplierAttribution is the supplier resolved from movement history, with
// the order that introduced the stock when known.
type SupplierAttribution struct {
	SupplierID    *id.ID
	SourceOrderID *id.ID
}

// HistoryFilter narrows movement history queries. Zero value means all
// movements, oldest first.
type HistoryFilter struct {
	PartID *id.ID
	Kind   *MovementKind

	// Location matches rows whose source or destination is the location.
	Location *Location

	// Since restricts to movements at or after the instant.
	Since *time.Time

	Limit  int
	Offset int
}

// Repository is the storage contract for the quantity ledger.
//
// All write methods expect to run inside a transaction opened by the caller.
// GetStockForUpdate locks the balance row so concurrent movements against the
// same (part, location) serialize; the lineage check and the adjustment that
// follow it see no interleaved writes.
type Repository interface {
	// GetStock returns the balance, zero when no row exists.
	GetStock(ctx context.Context, partID id.ID, loc Location) (types.Quantity, error)

	// GetStockForUpdate returns the balance with the row locked for the
	// remainder of the transaction. Creates a zero row when absent so there
	// is always something to lock.
	GetStockForUpdate(ctx context.Context, partID id.ID, loc Location) (types.Quantity, error)

	// Adjust applies a signed delta and returns the resulting balance.
	// Fails with a NEGATIVE_STOCK error if the result would be below zero.
	Adjust(ctx context.Context, partID id.ID, loc Location, delta types.Quantity) (types.Quantity, error)

	// ListStockByLocation returns all non-zero balances at a location.
	ListStockByLocation(ctx context.Context, loc Location) ([]LocationStock, error)

	// ListStockByPart returns all non-zero balances of a part across
	// locations.
	ListStockByPart(ctx context.Context, partID id.ID) ([]LocationStock, error)

	// Append stores one movement row.
	Append(ctx context.Context, rec *MovementRecord) error

	// GetMovement loads one movement row.
	GetMovement(ctx context.Context, movementID id.ID) (*MovementRecord, error)

	// GetMovementForUpdate loads one movement row locked for the
	// transaction. Serializes competing transfer completions.
	GetMovementForUpdate(ctx context.Context, movementID id.ID) (*MovementRecord, error)

	// SetTransferStatus updates a transfer row's status and completion
	// timestamp. The only permitted mutation of a movement row.
	SetTransferStatus(ctx context.Context, movementID id.ID, status TransferStatus, completedAt *time.Time) error

	// ListTransfers returns transfer rows, optionally narrowed to a truck
	// and status, newest first.
	ListTransfers(ctx context.Context, truckID *id.ID, status *TransferStatus) ([]MovementRecord, error)

	// ListByRecorder returns the rows a document produced.
	ListByRecorder(ctx context.Context, recorderType string, recorderID id.ID) ([]MovementRecord, error)

	// DeleteByRecorder removes the rows a document produced. Used only when
	// reversing a document whose creation wrote ledger deltas.
	DeleteByRecorder(ctx context.Context, recorderType string, recorderID id.ID) (int64, error)

	// History returns movement rows matching the filter, oldest first for
	// chain reconstruction.
	History(ctx context.Context, filter HistoryFilter) ([]MovementRecord, error)

	// LatestReceive returns the supplier of the most recent receive of the
	// part, any location. Ties on occurred_at break toward the highest id.
	// Returns nil when the part was never received.
	LatestReceive(ctx context.Context, partID id.ID) (*SupplierAttribution, error)

	// LatestReceivedTransfer returns the most recent completed transfer of
	// the part to the truck, or nil.
	LatestReceivedTransfer(ctx context.Context, partID, truckID id.ID) (*MovementRecord, error)

	// LatestJobConsumption returns the most recent consumption of the part
	// on the job, or nil.
	LatestJobConsumption(ctx context.Context, partID, jobID id.ID) (*MovementRecord, error)
}
