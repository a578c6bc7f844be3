package order_test

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"partsledger/internal/core/apperror"
	"partsledger/internal/core/id"
	"partsledger/internal/core/types"
	"partsledger/internal/domain/catalogs/job"
	"partsledger/internal/domain/documents/order"
	"partsledger/internal/domain/ledger"
	"partsledger/internal/domain/ledger/ledgertest"
	"partsledger/internal/domain/lineage"
	"partsledger/pkg/numerator"
)

// memOrderRepo is an in-memory order.Repository.
type memOrderRepo struct {
	mu     sync.Mutex
	orders map[id.ID]*order.PurchaseOrder
	items  map[id.ID]*order.Item
}

func newMemOrderRepo() *memOrderRepo {
	return &memOrderRepo{
		orders: make(map[id.ID]*order.PurchaseOrder),
		items:  make(map[id.ID]*order.Item),
	}
}

func (r *memOrderRepo) Create(ctx context.Context, o *order.PurchaseOrder) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	cp := *o
	r.orders[o.ID] = &cp
	return nil
}

func (r *memOrderRepo) GetByID(ctx context.Context, orderID id.ID) (*order.PurchaseOrder, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	o, ok := r.orders[orderID]
	if !ok {
		return nil, apperror.NewNotFound("order", orderID)
	}
	cp := *o
	return &cp, nil
}

func (r *memOrderRepo) GetByIDForUpdate(ctx context.Context, orderID id.ID) (*order.PurchaseOrder, error) {
	return r.GetByID(ctx, orderID)
}

func (r *memOrderRepo) GetByNumber(ctx context.Context, number string) (*order.PurchaseOrder, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, o := range r.orders {
		if o.Number == number {
			cp := *o
			return &cp, nil
		}
	}
	return nil, apperror.NewNotFound("order", number)
}

func (r *memOrderRepo) Update(ctx context.Context, o *order.PurchaseOrder) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.orders[o.ID]; !ok {
		return apperror.NewNotFound("order", o.ID)
	}
	cp := *o
	r.orders[o.ID] = &cp
	return nil
}

func (r *memOrderRepo) Delete(ctx context.Context, orderID id.ID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.orders, orderID)
	for itemID, item := range r.items {
		if item.OrderID == orderID {
			delete(r.items, itemID)
		}
	}
	return nil
}

func (r *memOrderRepo) List(ctx context.Context, filter order.ListFilter) ([]order.PurchaseOrder, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []order.PurchaseOrder
	for _, o := range r.orders {
		if filter.Status != nil && o.Status != *filter.Status {
			continue
		}
		if filter.SupplierID != nil && o.SupplierID != *filter.SupplierID {
			continue
		}
		out = append(out, *o)
	}
	return out, nil
}

func (r *memOrderRepo) AddItem(ctx context.Context, item *order.Item) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	cp := *item
	r.items[item.ID] = &cp
	return nil
}

func (r *memOrderRepo) GetItem(ctx context.Context, itemID id.ID) (*order.Item, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	item, ok := r.items[itemID]
	if !ok {
		return nil, apperror.NewNotFound("order item", itemID)
	}
	cp := *item
	return &cp, nil
}

func (r *memOrderRepo) UpdateItem(ctx context.Context, item *order.Item) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.items[item.ID]; !ok {
		return apperror.NewNotFound("order item", item.ID)
	}
	cp := *item
	r.items[item.ID] = &cp
	return nil
}

func (r *memOrderRepo) DeleteItem(ctx context.Context, itemID id.ID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.items, itemID)
	return nil
}

func (r *memOrderRepo) ListItems(ctx context.Context, orderID id.ID) ([]order.Item, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []order.Item
	for _, item := range r.items {
		if item.OrderID == orderID {
			out = append(out, *item)
		}
	}
	return out, nil
}

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
			JobID:         alloc.JobID,
			PartID:        alloc.PartID,
			QuantityUsed:  alloc.Quantity,
			UnitCost:      alloc.UnitCost,
			SupplierID:    alloc.SupplierID,
			SourceOrderID: alloc.SourceOrderID,
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
	repo     *memOrderRepo
	ledger   *ledgertest.Repo
	store    *ledger.Store
	jobParts *fakeJobParts
	service  *order.Service
}

func newFixture() *fixture {
	repo := newMemOrderRepo()
	ledgerRepo := ledgertest.NewRepo()
	store := ledger.NewStore(ledgerRepo)
	jobParts := newFakeJobParts()
	tracker := lineage.NewTracker(jobParts, store)
	service := order.NewService(repo, store, tracker, jobParts, ledgertest.TxManager{}, numerator.NewMock())
	return &fixture{repo: repo, ledger: ledgerRepo, store: store, jobParts: jobParts, service: service}
}

func qty(v int64) types.Quantity { return types.NewQuantityFromInt(v) }

func (f *fixture) newSubmittedOrder(t *testing.T, supplierID, partID id.ID, ordered int64) (*order.PurchaseOrder, *order.Item) {
	t.Helper()
	ctx := context.Background()

	o := order.New(supplierID)
	require.NoError(t, f.service.Create(ctx, o))
	assert.NotEmpty(t, o.Number)

	item := order.NewItem(o.ID, partID, qty(ordered), types.NewMoney(3.50))
	require.NoError(t, f.service.AddItem(ctx, item))
	require.NoError(t, f.service.Submit(ctx, o.ID))
	return o, item
}

func TestReceiveToWarehouse(t *testing.T) {
	ctx := context.Background()
	f := newFixture()
	supplierID := id.New()
	partID := id.New()
	o, item := f.newSubmittedOrder(t, supplierID, partID, 10)

	status, err := f.service.ReceiveItems(ctx, o.ID, []order.ReceiveLine{
		{OrderItemID: item.ID, Quantity: qty(6)},
	})
	require.NoError(t, err)
	assert.Equal(t, order.StatusPartial, status)

	warehouse, _ := f.store.GetStock(ctx, partID, ledger.Warehouse())
	assert.Equal(t, qty(6), warehouse)

	got, err := f.service.GetItem(ctx, item.ID)
	require.NoError(t, err)
	assert.Equal(t, qty(6), got.QuantityReceived)

	// Second receipt completes the order.
	status, err = f.service.ReceiveItems(ctx, o.ID, []order.ReceiveLine{
		{OrderItemID: item.ID, Quantity: qty(4)},
	})
	require.NoError(t, err)
	assert.Equal(t, order.StatusReceived, status)

	// The receive movement carries the order's supplier.
	attr, err := f.store.LatestReceive(ctx, partID)
	require.NoError(t, err)
	require.NotNil(t, attr)
	require.NotNil(t, attr.SupplierID)
	assert.Equal(t, supplierID, *attr.SupplierID)
}

func TestReceiveToTruckStagesPendingTransfer(t *testing.T) {
	ctx := context.Background()
	f := newFixture()
	partID := id.New()
	truckID := id.New()
	o, item := f.newSubmittedOrder(t, id.New(), partID, 5)

	_, err := f.service.ReceiveItems(ctx, o.ID, []order.ReceiveLine{
		{OrderItemID: item.ID, Quantity: qty(5), Allocation: order.AllocateTruck, TargetID: &truckID},
	})
	require.NoError(t, err)

	// Receive landed in the warehouse and left again on the pending
	// transfer; the truck gets it on transfer receive.
	warehouse, _ := f.store.GetStock(ctx, partID, ledger.Warehouse())
	truck, _ := f.store.GetStock(ctx, partID, ledger.Truck(truckID))
	assert.Equal(t, qty(0), warehouse)
	assert.Equal(t, qty(0), truck)

	pending := ledger.TransferPending
	transfers, err := f.store.ListTransfers(ctx, &truckID, &pending)
	require.NoError(t, err)
	require.Len(t, transfers, 1)

	_, err = f.store.CompleteTransfer(ctx, transfers[0].ID)
	require.NoError(t, err)
	truck, _ = f.store.GetStock(ctx, partID, ledger.Truck(truckID))
	assert.Equal(t, qty(5), truck)
}

func TestReceiveToJobBindsSupplier(t *testing.T) {
	ctx := context.Background()
	f := newFixture()
	supplierID := id.New()
	partID := id.New()
	jobID := id.New()
	o, item := f.newSubmittedOrder(t, supplierID, partID, 5)

	_, err := f.service.ReceiveItems(ctx, o.ID, []order.ReceiveLine{
		{OrderItemID: item.ID, Quantity: qty(5), Allocation: order.AllocateJob, TargetID: &jobID},
	})
	require.NoError(t, err)

	jobStock, _ := f.store.GetStock(ctx, partID, ledger.Job(jobID))
	assert.Equal(t, qty(5), jobStock)

	bound, err := f.jobParts.GetJobPartSupplier(ctx, jobID, partID)
	require.NoError(t, err)
	require.NotNil(t, bound)
	assert.Equal(t, supplierID, *bound)
}

func TestReceiveToJobSupplierConflict(t *testing.T) {
	ctx := context.Background()
	f := newFixture()
	partID := id.New()
	jobID := id.New()

	// The job already got this part from another supplier.
	existing := id.New()
	require.NoError(t, f.jobParts.Allocate(ctx, job.Allocation{
		JobID: jobID, PartID: partID, Quantity: qty(2), SupplierID: &existing,
	}))

	o, item := f.newSubmittedOrder(t, id.New(), partID, 5)
	_, err := f.service.ReceiveItems(ctx, o.ID, []order.ReceiveLine{
		{OrderItemID: item.ID, Quantity: qty(5), Allocation: order.AllocateJob, TargetID: &jobID},
	})
	assert.True(t, apperror.IsCode(err, apperror.CodeSupplierConflict))

	// The line's progress is untouched.
	got, err := f.service.GetItem(ctx, item.ID)
	require.NoError(t, err)
	assert.Equal(t, qty(0), got.QuantityReceived)
}

func TestReceiveOnDraftOrder(t *testing.T) {
	ctx := context.Background()
	f := newFixture()
	partID := id.New()

	o := order.New(id.New())
	require.NoError(t, f.service.Create(ctx, o))
	item := order.NewItem(o.ID, partID, qty(5), types.ZeroMoney())
	require.NoError(t, f.service.AddItem(ctx, item))

	// Receiving requires submission first.
	_, err := f.service.ReceiveItems(ctx, o.ID, []order.ReceiveLine{
		{OrderItemID: item.ID, Quantity: qty(5)},
	})
	assert.True(t, apperror.IsCode(err, apperror.CodeInvalidState))

	got, _ := f.service.GetByID(ctx, o.ID)
	assert.Equal(t, order.StatusDraft, got.Status)
	warehouse, _ := f.store.GetStock(ctx, partID, ledger.Warehouse())
	assert.Equal(t, qty(0), warehouse)
}

func TestReceiveOnCancelledOrder(t *testing.T) {
	ctx := context.Background()
	f := newFixture()
	o, item := f.newSubmittedOrder(t, id.New(), id.New(), 5)
	require.NoError(t, f.service.Cancel(ctx, o.ID))

	_, err := f.service.ReceiveItems(ctx, o.ID, []order.ReceiveLine{
		{OrderItemID: item.ID, Quantity: qty(5)},
	})
	assert.True(t, apperror.IsCode(err, apperror.CodeInvalidState))
}

func TestDeleteDraftOnly(t *testing.T) {
	ctx := context.Background()
	f := newFixture()

	o := order.New(id.New())
	require.NoError(t, f.service.Create(ctx, o))
	require.NoError(t, f.service.Delete(ctx, o.ID))
	_, err := f.service.GetByID(ctx, o.ID)
	assert.True(t, apperror.IsCode(err, apperror.CodeNotFound))

	o2, _ := f.newSubmittedOrder(t, id.New(), id.New(), 5)
	err = f.service.Delete(ctx, o2.ID)
	assert.True(t, apperror.IsCode(err, apperror.CodeInvalidState))
}

func TestItemEditsLockedAfterSubmit(t *testing.T) {
	ctx := context.Background()
	f := newFixture()
	o, item := f.newSubmittedOrder(t, id.New(), id.New(), 5)

	extra := order.NewItem(o.ID, id.New(), qty(1), types.ZeroMoney())
	err := f.service.AddItem(ctx, extra)
	assert.True(t, apperror.IsCode(err, apperror.CodeInvalidState))

	err = f.service.RemoveItem(ctx, item.ID)
	assert.True(t, apperror.IsCode(err, apperror.CodeInvalidState))
}
