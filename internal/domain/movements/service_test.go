package movements_test

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"partsledger/internal/core/apperror"
	"partsledger/internal/core/id"
	"partsledger/internal/core/types"
	"partsledger/internal/domain"
	"partsledger/internal/domain/catalogs/job"
	"partsledger/internal/domain/catalogs/part"
	"partsledger/internal/domain/ledger"
	"partsledger/internal/domain/ledger/ledgertest"
	"partsledger/internal/domain/lineage"
	"partsledger/internal/domain/movements"
)

// fakePartRepo is an in-memory part.Repository. Only the lookups the
// movements service touches do real work.
type fakePartRepo struct {
	mu    sync.Mutex
	parts map[id.ID]*part.Part
}

func newFakePartRepo() *fakePartRepo {
	return &fakePartRepo{parts: make(map[id.ID]*part.Part)}
}

func (f *fakePartRepo) Create(ctx context.Context, p *part.Part) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.parts[p.ID] = p
	return nil
}

func (f *fakePartRepo) GetByID(ctx context.Context, partID id.ID) (*part.Part, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	p, ok := f.parts[partID]
	if !ok {
		return nil, apperror.NewNotFound("part", partID)
	}
	return p, nil
}

func (f *fakePartRepo) GetByCode(ctx context.Context, code string) (*part.Part, error) {
	return nil, apperror.NewNotFound("part", code)
}

func (f *fakePartRepo) Update(ctx context.Context, p *part.Part) error { return nil }

func (f *fakePartRepo) SetDeletionMark(ctx context.Context, partID id.ID, mark bool) error {
	return nil
}

func (f *fakePartRepo) List(ctx context.Context, filter domain.ListFilter) ([]*part.Part, error) {
	return nil, nil
}

func (f *fakePartRepo) Count(ctx context.Context, filter domain.ListFilter) (int64, error) {
	return 0, nil
}

func (f *fakePartRepo) ListLowStock(ctx context.Context) ([]part.LowStockRow, error) {
	return nil, nil
}

func (f *fakePartRepo) Search(ctx context.Context, query string) ([]*part.Part, error) {
	return nil, nil
}

func (f *fakePartRepo) ListByCategory(ctx context.Context, categoryID id.ID) ([]*part.Part, error) {
	return nil, nil
}

var _ part.Repository = (*fakePartRepo)(nil)

// fakeJobParts is an in-memory job.PartRepository.
type fakeJobParts struct {
	mu   sync.Mutex
	rows map[string]*job.JobPart
}

func newFakeJobParts() *fakeJobParts {
	return &fakeJobParts{rows: make(map[string]*job.JobPart)}
}

func jpKey(jobID, partID id.ID) string { return jobID.String() + "|" + partID.String() }

func (f *fakeJobParts) Get(ctx context.Context, jobID, partID id.ID) (*job.JobPart, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	row, ok := f.rows[jpKey(jobID, partID)]
	if !ok {
		return nil, nil
	}
	cp := *row
	return &cp, nil
}

func (f *fakeJobParts) Allocate(ctx context.Context, alloc job.Allocation) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	key := jpKey(alloc.JobID, alloc.PartID)
	row, ok := f.rows[key]
	if !ok {
		f.rows[key] = &job.JobPart{
			JobID:        alloc.JobID,
			PartID:       alloc.PartID,
			QuantityUsed: alloc.Quantity,
			UnitCost:     alloc.UnitCost,
			SupplierID:   alloc.SupplierID,
		}
		return nil
	}
	row.QuantityUsed += alloc.Quantity
	if row.SupplierID == nil {
		row.SupplierID = alloc.SupplierID
	}
	return nil
}

func (f *fakeJobParts) Reduce(ctx context.Context, jobID, partID id.ID, qty types.Quantity) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	key := jpKey(jobID, partID)
	if row, ok := f.rows[key]; ok {
		row.QuantityUsed -= qty
		if !row.QuantityUsed.IsPositive() {
			delete(f.rows, key)
		}
	}
	return nil
}

func (f *fakeJobParts) ListByJob(ctx context.Context, jobID id.ID) ([]job.JobPartView, error) {
	return nil, nil
}

func (f *fakeJobParts) TotalCost(ctx context.Context, jobID id.ID) (types.Money, error) {
	return types.ZeroMoney(), nil
}

func (f *fakeJobParts) GetJobPartSupplier(ctx context.Context, jobID, partID id.ID) (*id.ID, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	row, ok := f.rows[jpKey(jobID, partID)]
	if !ok {
		return nil, nil
	}
	return row.SupplierID, nil
}

var _ job.PartRepository = (*fakeJobParts)(nil)

type fixture struct {
	ledger   *ledgertest.Repo
	store    *ledger.Store
	parts    *fakePartRepo
	jobParts *fakeJobParts
	service  *movements.Service
}

func newFixture() *fixture {
	ledgerRepo := ledgertest.NewRepo()
	store := ledger.NewStore(ledgerRepo)
	parts := newFakePartRepo()
	jobParts := newFakeJobParts()
	tracker := lineage.NewTracker(jobParts, store)
	service := movements.NewService(store, tracker, parts, jobParts, ledgertest.TxManager{})
	return &fixture{ledger: ledgerRepo, store: store, parts: parts, jobParts: jobParts, service: service}
}

func qty(v int64) types.Quantity { return types.NewQuantityFromInt(v) }

// newPart registers a part and returns its id.
func (f *fixture) newPart(cost float64) id.ID {
	p := part.New("CU-12-050", "1/2 in copper pipe")
	p.UnitCost = types.NewMoney(cost)
	_ = f.parts.Create(context.Background(), p)
	return p.ID
}

// receive seeds warehouse stock through a receive movement so the supplier
// attribution is on record.
func (f *fixture) receive(t *testing.T, partID id.ID, n int64, supplierID id.ID) {
	t.Helper()
	rec := ledger.NewMovement(ledger.KindReceive, partID, qty(n), ledger.External(), ledger.Warehouse())
	rec.SupplierID = &supplierID
	rec.RecorderType = "purchase_order"
	rec.RecorderID = id.New()
	require.NoError(t, f.store.Apply(context.Background(), rec))
}

// stockTruck moves quantity onto a truck through a completed transfer.
func (f *fixture) stockTruck(t *testing.T, partID, truckID id.ID, n int64, supplierID id.ID) {
	t.Helper()
	ctx := context.Background()
	f.receive(t, partID, n, supplierID)
	transferID, err := f.service.CreateTransfer(ctx, partID, truckID, qty(n), nil)
	require.NoError(t, err)
	require.NoError(t, f.service.ReceiveTransfer(ctx, transferID))
}

func TestCreateTransferAutoDetectsSupplier(t *testing.T) {
	ctx := context.Background()
	f := newFixture()
	partID := f.newPart(4.20)
	truckID := id.New()
	supplierID := id.New()
	f.receive(t, partID, 10, supplierID)

	transferID, err := f.service.CreateTransfer(ctx, partID, truckID, qty(4), nil)
	require.NoError(t, err)

	transfer, err := f.store.GetTransfer(ctx, transferID)
	require.NoError(t, err)
	assert.Equal(t, ledger.TransferPending, transfer.Status)
	require.NotNil(t, transfer.SupplierID)
	assert.Equal(t, supplierID, *transfer.SupplierID)

	// In transit: the warehouse dropped, the truck has nothing yet.
	warehouse, _ := f.store.GetStock(ctx, partID, ledger.Warehouse())
	truck, _ := f.store.GetStock(ctx, partID, ledger.Truck(truckID))
	assert.Equal(t, qty(6), warehouse)
	assert.Equal(t, qty(0), truck)
}

func TestCreateTransferExplicitSupplierWins(t *testing.T) {
	ctx := context.Background()
	f := newFixture()
	partID := f.newPart(4.20)
	f.receive(t, partID, 10, id.New())

	explicit := id.New()
	transferID, err := f.service.CreateTransfer(ctx, partID, id.New(), qty(2), &explicit)
	require.NoError(t, err)

	transfer, err := f.store.GetTransfer(ctx, transferID)
	require.NoError(t, err)
	require.NotNil(t, transfer.SupplierID)
	assert.Equal(t, explicit, *transfer.SupplierID)
}

func TestCreateTransferInsufficientStock(t *testing.T) {
	ctx := context.Background()
	f := newFixture()
	partID := f.newPart(1.00)
	f.receive(t, partID, 2, id.New())

	_, err := f.service.CreateTransfer(ctx, partID, id.New(), qty(5), nil)
	assert.True(t, apperror.IsCode(err, apperror.CodeInsufficientStock))

	warehouse, _ := f.store.GetStock(ctx, partID, ledger.Warehouse())
	assert.Equal(t, qty(2), warehouse)
}

func TestReceiveTransferLandsOnTruck(t *testing.T) {
	ctx := context.Background()
	f := newFixture()
	partID := f.newPart(1.00)
	truckID := id.New()
	f.receive(t, partID, 10, id.New())

	transferID, err := f.service.CreateTransfer(ctx, partID, truckID, qty(4), nil)
	require.NoError(t, err)
	require.NoError(t, f.service.ReceiveTransfer(ctx, transferID))

	truck, _ := f.store.GetStock(ctx, partID, ledger.Truck(truckID))
	assert.Equal(t, qty(4), truck)

	// Receiving twice must not double the stock.
	err = f.service.ReceiveTransfer(ctx, transferID)
	assert.True(t, apperror.IsCode(err, apperror.CodeInvalidState))
	truck, _ = f.store.GetStock(ctx, partID, ledger.Truck(truckID))
	assert.Equal(t, qty(4), truck)
}

func TestCancelTransferRestoresWarehouse(t *testing.T) {
	ctx := context.Background()
	f := newFixture()
	partID := f.newPart(1.00)
	f.receive(t, partID, 10, id.New())

	transferID, err := f.service.CreateTransfer(ctx, partID, id.New(), qty(4), nil)
	require.NoError(t, err)
	require.NoError(t, f.service.CancelTransfer(ctx, transferID))

	warehouse, _ := f.store.GetStock(ctx, partID, ledger.Warehouse())
	assert.Equal(t, qty(10), warehouse)
}

func TestListTransfersFilters(t *testing.T) {
	ctx := context.Background()
	f := newFixture()
	partID := f.newPart(1.00)
	truckA := id.New()
	truckB := id.New()
	f.receive(t, partID, 10, id.New())

	idA, err := f.service.CreateTransfer(ctx, partID, truckA, qty(2), nil)
	require.NoError(t, err)
	_, err = f.service.CreateTransfer(ctx, partID, truckB, qty(3), nil)
	require.NoError(t, err)
	require.NoError(t, f.service.ReceiveTransfer(ctx, idA))

	pending := ledger.TransferPending
	transfers, err := f.service.ListTransfers(ctx, nil, &pending)
	require.NoError(t, err)
	require.Len(t, transfers, 1)
	assert.Equal(t, truckB, *transfers[0].DestRef)

	transfers, err = f.service.ListTransfers(ctx, &truckA, nil)
	require.NoError(t, err)
	require.Len(t, transfers, 1)
	assert.Equal(t, ledger.TransferCompleted, transfers[0].Status)
}

func TestConsumeFromTruck(t *testing.T) {
	ctx := context.Background()
	f := newFixture()
	partID := f.newPart(4.20)
	truckID := id.New()
	jobID := id.New()
	supplierID := id.New()
	f.stockTruck(t, partID, truckID, 6, supplierID)

	require.NoError(t, f.service.ConsumeFromTruck(ctx, truckID, jobID, partID, qty(4)))

	truck, _ := f.store.GetStock(ctx, partID, ledger.Truck(truckID))
	jobStock, _ := f.store.GetStock(ctx, partID, ledger.Job(jobID))
	assert.Equal(t, qty(2), truck)
	assert.Equal(t, qty(4), jobStock)

	// The supplier rode along from the truck's latest received transfer.
	bound, err := f.jobParts.GetJobPartSupplier(ctx, jobID, partID)
	require.NoError(t, err)
	require.NotNil(t, bound)
	assert.Equal(t, supplierID, *bound)
}

func TestConsumeSupplierConflict(t *testing.T) {
	ctx := context.Background()
	f := newFixture()
	partID := f.newPart(4.20)
	truckID := id.New()
	jobID := id.New()
	f.stockTruck(t, partID, truckID, 6, id.New())

	// The job already uses this part from a different supplier.
	other := id.New()
	require.NoError(t, f.jobParts.Allocate(ctx, job.Allocation{
		JobID: jobID, PartID: partID, Quantity: qty(1), SupplierID: &other,
	}))

	err := f.service.ConsumeFromTruck(ctx, truckID, jobID, partID, qty(4))
	assert.True(t, apperror.IsCode(err, apperror.CodeSupplierConflict))

	// Nothing landed on the job.
	jobStock, _ := f.store.GetStock(ctx, partID, ledger.Job(jobID))
	assert.Equal(t, qty(0), jobStock)
}

func TestConsumeKeepsCostSnapshot(t *testing.T) {
	ctx := context.Background()
	f := newFixture()
	partID := f.newPart(5.00)
	truckID := id.New()
	jobID := id.New()
	supplierID := id.New()
	f.stockTruck(t, partID, truckID, 6, supplierID)

	// The pair was first assigned at an older cost; the list price moved
	// since, but the snapshot wins.
	snapshot := types.NewMoney(2.00)
	require.NoError(t, f.jobParts.Allocate(ctx, job.Allocation{
		JobID: jobID, PartID: partID, Quantity: qty(1),
		UnitCost: snapshot, SupplierID: &supplierID,
	}))

	require.NoError(t, f.service.ConsumeFromTruck(ctx, truckID, jobID, partID, qty(2)))

	kind := ledger.KindConsumption
	history, err := f.store.History(ctx, ledger.HistoryFilter{PartID: &partID, Kind: &kind})
	require.NoError(t, err)
	require.Len(t, history, 1)
	assert.True(t, snapshot.Equal(history[0].UnitCost))
}

func TestReturnToWarehouse(t *testing.T) {
	ctx := context.Background()
	f := newFixture()
	partID := f.newPart(4.20)
	truckID := id.New()
	supplierID := id.New()
	f.stockTruck(t, partID, truckID, 6, supplierID)

	require.NoError(t, f.service.ReturnToWarehouse(ctx, truckID, partID, qty(2)))

	truck, _ := f.store.GetStock(ctx, partID, ledger.Truck(truckID))
	warehouse, _ := f.store.GetStock(ctx, partID, ledger.Warehouse())
	assert.Equal(t, qty(4), truck)
	assert.Equal(t, qty(2), warehouse)

	// Attribution follows the stock back.
	kind := ledger.KindReturn
	history, err := f.store.History(ctx, ledger.HistoryFilter{PartID: &partID, Kind: &kind})
	require.NoError(t, err)
	require.Len(t, history, 1)
	require.NotNil(t, history[0].SupplierID)
	assert.Equal(t, supplierID, *history[0].SupplierID)
}

func TestReturnMoreThanOnTruck(t *testing.T) {
	ctx := context.Background()
	f := newFixture()
	partID := f.newPart(1.00)
	truckID := id.New()
	f.stockTruck(t, partID, truckID, 2, id.New())

	err := f.service.ReturnToWarehouse(ctx, truckID, partID, qty(5))
	assert.True(t, apperror.IsCode(err, apperror.CodeInsufficientStock))
}
