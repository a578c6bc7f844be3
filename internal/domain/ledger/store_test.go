package ledger_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"partsledger/internal/core/apperror"
	"partsledger/internal/core/id"
	"partsledger/internal/core/types"
	"partsledger/internal/domain/ledger"
	"partsledger/internal/domain/ledger/ledgertest"
)

func qty(v int64) types.Quantity { return types.NewQuantityFromInt(v) }

func newReceive(partID id.ID, n int64, recorderID id.ID) *ledger.MovementRecord {
	rec := ledger.NewMovement(ledger.KindReceive, partID, qty(n), ledger.External(), ledger.Warehouse())
	rec.RecorderType = "purchase_order"
	rec.RecorderID = recorderID
	return rec
}

func TestStoreApplyReceive(t *testing.T) {
	ctx := context.Background()
	repo := ledgertest.NewRepo()
	store := ledger.NewStore(repo)
	partID := id.New()

	err := store.Apply(ctx, newReceive(partID, 10, id.New()))
	require.NoError(t, err)

	balance, err := store.GetStock(ctx, partID, ledger.Warehouse())
	require.NoError(t, err)
	assert.Equal(t, qty(10), balance)

	history, err := store.History(ctx, ledger.HistoryFilter{PartID: &partID})
	require.NoError(t, err)
	require.Len(t, history, 1)
	assert.Equal(t, ledger.KindReceive, history[0].Kind)
}

func TestStoreApplyRejectsTransfers(t *testing.T) {
	ctx := context.Background()
	store := ledger.NewStore(ledgertest.NewRepo())

	rec := ledger.NewMovement(ledger.KindTransfer, id.New(), qty(1), ledger.Warehouse(), ledger.Truck(id.New()))
	rec.RecorderType = "manual_transfer"
	rec.RecorderID = id.New()

	err := store.Apply(ctx, rec)
	assert.True(t, apperror.IsCode(err, apperror.CodeValidation))
}

func TestStoreReserveInsufficient(t *testing.T) {
	ctx := context.Background()
	repo := ledgertest.NewRepo()
	store := ledger.NewStore(repo)
	partID := id.New()
	repo.SetStock(partID, ledger.Warehouse(), qty(3))

	err := store.Reserve(ctx, partID, ledger.Warehouse(), qty(5))
	assert.True(t, apperror.IsCode(err, apperror.CodeInsufficientStock))

	// The failed reserve must not have moved anything.
	balance, err := store.GetStock(ctx, partID, ledger.Warehouse())
	require.NoError(t, err)
	assert.Equal(t, qty(3), balance)
}

func TestStoreTransferLifecycle(t *testing.T) {
	ctx := context.Background()
	repo := ledgertest.NewRepo()
	store := ledger.NewStore(repo)
	partID := id.New()
	truckID := id.New()
	repo.SetStock(partID, ledger.Warehouse(), qty(10))

	rec := ledger.NewMovement(ledger.KindTransfer, partID, qty(4), ledger.Warehouse(), ledger.Truck(truckID))
	rec.RecorderType = "manual_transfer"
	rec.RecorderID = id.New()
	require.NoError(t, store.BeginTransfer(ctx, rec))

	// Warehouse drops on create; the truck has nothing yet.
	warehouse, _ := store.GetStock(ctx, partID, ledger.Warehouse())
	truck, _ := store.GetStock(ctx, partID, ledger.Truck(truckID))
	assert.Equal(t, qty(6), warehouse)
	assert.Equal(t, qty(0), truck)

	completed, err := store.CompleteTransfer(ctx, rec.ID)
	require.NoError(t, err)
	assert.Equal(t, ledger.TransferCompleted, completed.Status)
	require.NotNil(t, completed.CompletedAt)

	truck, _ = store.GetStock(ctx, partID, ledger.Truck(truckID))
	assert.Equal(t, qty(4), truck)

	// Receiving twice must not double the stock.
	_, err = store.CompleteTransfer(ctx, rec.ID)
	assert.True(t, apperror.IsCode(err, apperror.CodeInvalidState))
	truck, _ = store.GetStock(ctx, partID, ledger.Truck(truckID))
	assert.Equal(t, qty(4), truck)
}

func TestStoreCancelTransferRestoresWarehouse(t *testing.T) {
	ctx := context.Background()
	repo := ledgertest.NewRepo()
	store := ledger.NewStore(repo)
	partID := id.New()
	truckID := id.New()
	repo.SetStock(partID, ledger.Warehouse(), qty(10))

	rec := ledger.NewMovement(ledger.KindTransfer, partID, qty(4), ledger.Warehouse(), ledger.Truck(truckID))
	rec.RecorderType = "manual_transfer"
	rec.RecorderID = id.New()
	require.NoError(t, store.BeginTransfer(ctx, rec))

	cancelled, err := store.CancelTransfer(ctx, rec.ID)
	require.NoError(t, err)
	assert.Equal(t, ledger.TransferCancelled, cancelled.Status)

	warehouse, _ := store.GetStock(ctx, partID, ledger.Warehouse())
	assert.Equal(t, qty(10), warehouse)

	// A cancelled transfer cannot be received.
	_, err = store.CompleteTransfer(ctx, rec.ID)
	assert.True(t, apperror.IsCode(err, apperror.CodeInvalidState))
}

func TestStoreUnwindReversesDocument(t *testing.T) {
	ctx := context.Background()
	repo := ledgertest.NewRepo()
	store := ledger.NewStore(repo)
	partID := id.New()
	docID := id.New()

	require.NoError(t, store.Apply(ctx, newReceive(partID, 10, docID)))

	// A second document's receive must survive the unwind.
	otherDoc := id.New()
	require.NoError(t, store.Apply(ctx, newReceive(partID, 5, otherDoc)))

	require.NoError(t, store.Unwind(ctx, "purchase_order", docID))

	warehouse, _ := store.GetStock(ctx, partID, ledger.Warehouse())
	assert.Equal(t, qty(5), warehouse)

	history, err := store.History(ctx, ledger.HistoryFilter{PartID: &partID})
	require.NoError(t, err)
	require.Len(t, history, 1)
	assert.Equal(t, otherDoc, history[0].RecorderID)
}

func TestStoreUnwindPendingTransfer(t *testing.T) {
	ctx := context.Background()
	repo := ledgertest.NewRepo()
	store := ledger.NewStore(repo)
	partID := id.New()
	docID := id.New()
	repo.SetStock(partID, ledger.Warehouse(), qty(8))

	rec := ledger.NewMovement(ledger.KindTransfer, partID, qty(3), ledger.Warehouse(), ledger.Truck(id.New()))
	rec.RecorderType = "manual_transfer"
	rec.RecorderID = docID
	require.NoError(t, store.BeginTransfer(ctx, rec))

	require.NoError(t, store.Unwind(ctx, "manual_transfer", docID))

	// The in-transit quantity goes back to the warehouse.
	warehouse, _ := store.GetStock(ctx, partID, ledger.Warehouse())
	assert.Equal(t, qty(8), warehouse)
}

func TestStorePrepareValidation(t *testing.T) {
	ctx := context.Background()
	store := ledger.NewStore(ledgertest.NewRepo())

	rec := ledger.NewMovement(ledger.KindReceive, id.New(), qty(0), ledger.External(), ledger.Warehouse())
	rec.RecorderType = "purchase_order"
	rec.RecorderID = id.New()
	err := store.Apply(ctx, rec)
	assert.True(t, apperror.IsCode(err, apperror.CodeValidation))

	rec = ledger.NewMovement(ledger.KindReceive, id.New(), qty(1), ledger.External(), ledger.Warehouse())
	err = store.Apply(ctx, rec)
	assert.True(t, apperror.IsCode(err, apperror.CodeValidation), "missing recorder must fail")
}
