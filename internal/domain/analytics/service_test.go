package analytics_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"partsledger/internal/core/apperror"
	"partsledger/internal/core/id"
	"partsledger/internal/core/types"
	"partsledger/internal/domain"
	"partsledger/internal/domain/analytics"
	"partsledger/internal/domain/catalogs/job"
	"partsledger/internal/domain/catalogs/part"
	"partsledger/internal/domain/catalogs/supplier"
	"partsledger/internal/domain/ledger"
	"partsledger/internal/domain/ledger/ledgertest"
	"partsledger/internal/domain/partslist"
)

type fakeParts struct {
	parts map[id.ID]*part.Part
}

func (f *fakeParts) Create(ctx context.Context, p *part.Part) error { f.parts[p.ID] = p; return nil }

func (f *fakeParts) GetByID(ctx context.Context, partID id.ID) (*part.Part, error) {
	p, ok := f.parts[partID]
	if !ok {
		return nil, apperror.NewNotFound("part", partID)
	}
	return p, nil
}

func (f *fakeParts) GetByCode(ctx context.Context, code string) (*part.Part, error) {
	return nil, apperror.NewNotFound("part", code)
}

func (f *fakeParts) Update(ctx context.Context, p *part.Part) error                  { return nil }
func (f *fakeParts) SetDeletionMark(ctx context.Context, partID id.ID, m bool) error { return nil }

func (f *fakeParts) List(ctx context.Context, filter domain.ListFilter) ([]*part.Part, error) {
	return nil, nil
}

func (f *fakeParts) Count(ctx context.Context, filter domain.ListFilter) (int64, error) {
	return 0, nil
}

func (f *fakeParts) ListLowStock(ctx context.Context) ([]part.LowStockRow, error) { return nil, nil }
func (f *fakeParts) Search(ctx context.Context, q string) ([]*part.Part, error)   { return nil, nil }

func (f *fakeParts) ListByCategory(ctx context.Context, categoryID id.ID) ([]*part.Part, error) {
	return nil, nil
}

type fakeSuppliers struct {
	suppliers map[id.ID]*supplier.Supplier
}

func (f *fakeSuppliers) Create(ctx context.Context, s *supplier.Supplier) error {
	f.suppliers[s.ID] = s
	return nil
}

func (f *fakeSuppliers) GetByID(ctx context.Context, supplierID id.ID) (*supplier.Supplier, error) {
	s, ok := f.suppliers[supplierID]
	if !ok {
		return nil, apperror.NewNotFound("supplier", supplierID)
	}
	return s, nil
}

func (f *fakeSuppliers) GetByCode(ctx context.Context, code string) (*supplier.Supplier, error) {
	return nil, apperror.NewNotFound("supplier", code)
}

func (f *fakeSuppliers) Update(ctx context.Context, s *supplier.Supplier) error     { return nil }
func (f *fakeSuppliers) SetDeletionMark(ctx context.Context, i id.ID, m bool) error { return nil }

func (f *fakeSuppliers) List(ctx context.Context, filter domain.ListFilter) ([]*supplier.Supplier, error) {
	return nil, nil
}

func (f *fakeSuppliers) Count(ctx context.Context, filter domain.ListFilter) (int64, error) {
	return 0, nil
}

func (f *fakeSuppliers) ListSupplyHouses(ctx context.Context) ([]*supplier.Supplier, error) {
	return nil, nil
}

type fakeLists struct {
	items map[id.ID][]partslist.Item
}

func (f *fakeLists) Create(ctx context.Context, l *partslist.List) error { return nil }

func (f *fakeLists) GetByID(ctx context.Context, listID id.ID) (*partslist.List, error) {
	return nil, apperror.NewNotFound("parts list", listID)
}

func (f *fakeLists) GetByCode(ctx context.Context, code string) (*partslist.List, error) {
	return nil, apperror.NewNotFound("parts list", code)
}

func (f *fakeLists) Update(ctx context.Context, l *partslist.List) error        { return nil }
func (f *fakeLists) SetDeletionMark(ctx context.Context, i id.ID, m bool) error { return nil }
func (f *fakeLists) UpsertItem(ctx context.Context, item *partslist.Item) error { return nil }
func (f *fakeLists) RemoveItem(ctx context.Context, itemID id.ID) error         { return nil }

func (f *fakeLists) List(ctx context.Context, filter domain.ListFilter) ([]*partslist.List, error) {
	return nil, nil
}

func (f *fakeLists) Count(ctx context.Context, filter domain.ListFilter) (int64, error) {
	return 0, nil
}

func (f *fakeLists) ListItems(ctx context.Context, listID id.ID) ([]partslist.Item, error) {
	return f.items[listID], nil
}

func (f *fakeLists) ListByJob(ctx context.Context, jobID id.ID) ([]*partslist.List, error) {
	return nil, nil
}

type fakeJobParts struct {
	suppliers map[string]*id.ID
}

func (f *fakeJobParts) Get(ctx context.Context, jobID, partID id.ID) (*job.JobPart, error) {
	return nil, nil
}

func (f *fakeJobParts) Allocate(ctx context.Context, alloc job.Allocation) error { return nil }

func (f *fakeJobParts) Reduce(ctx context.Context, jobID, partID id.ID, q types.Quantity) error {
	return nil
}

func (f *fakeJobParts) ListByJob(ctx context.Context, jobID id.ID) ([]job.JobPartView, error) {
	return nil, nil
}

func (f *fakeJobParts) TotalCost(ctx context.Context, jobID id.ID) (types.Money, error) {
	return types.ZeroMoney(), nil
}

func (f *fakeJobParts) GetJobPartSupplier(ctx context.Context, jobID, partID id.ID) (*id.ID, error) {
	return f.suppliers[jobID.String()+"|"+partID.String()], nil
}

type fixture struct {
	ledger    *ledgertest.Repo
	store     *ledger.Store
	parts     *fakeParts
	suppliers *fakeSuppliers
	lists     *fakeLists
	jobParts  *fakeJobParts
	service   *analytics.Service
}

func newFixture() *fixture {
	ledgerRepo := ledgertest.NewRepo()
	store := ledger.NewStore(ledgerRepo)
	parts := &fakeParts{parts: make(map[id.ID]*part.Part)}
	suppliers := &fakeSuppliers{suppliers: make(map[id.ID]*supplier.Supplier)}
	lists := &fakeLists{items: make(map[id.ID][]partslist.Item)}
	jobParts := &fakeJobParts{suppliers: make(map[string]*id.ID)}
	service := analytics.NewService(store, jobParts, parts, suppliers, lists, ledgertest.TxManager{})
	return &fixture{
		ledger: ledgerRepo, store: store, parts: parts,
		suppliers: suppliers, lists: lists, jobParts: jobParts, service: service,
	}
}

func qty(v int64) types.Quantity { return types.NewQuantityFromInt(v) }

func (f *fixture) newSupplier(name string) id.ID {
	s := supplier.New(name)
	_ = f.suppliers.Create(context.Background(), s)
	return s.ID
}

func (f *fixture) receive(t *testing.T, partID id.ID, n int64, supplierID id.ID) {
	t.Helper()
	rec := ledger.NewMovement(ledger.KindReceive, partID, qty(n), ledger.External(), ledger.Warehouse())
	rec.SupplierID = &supplierID
	rec.RecorderType = "purchase_order"
	rec.RecorderID = id.New()
	require.NoError(t, f.store.Apply(context.Background(), rec))
}

func TestPartSupplierChain(t *testing.T) {
	ctx := context.Background()
	f := newFixture()
	partID := id.New()
	truckID := id.New()
	supplierID := f.newSupplier("Ferguson Plumbing Supply")
	f.receive(t, partID, 10, supplierID)

	transfer := ledger.NewMovement(ledger.KindTransfer, partID, qty(4), ledger.Warehouse(), ledger.Truck(truckID))
	transfer.SupplierID = &supplierID
	transfer.RecorderType = "manual_transfer"
	transfer.RecorderID = transfer.ID
	require.NoError(t, f.store.BeginTransfer(ctx, transfer))

	// A pending transfer is not part of the chain yet.
	chain, err := f.service.PartSupplierChain(ctx, partID)
	require.NoError(t, err)
	require.Len(t, chain, 1)
	assert.Equal(t, analytics.EventReceived, chain[0].EventType)
	assert.Equal(t, "Ferguson Plumbing Supply", chain[0].SupplierName)

	_, err = f.store.CompleteTransfer(ctx, transfer.ID)
	require.NoError(t, err)

	chain, err = f.service.PartSupplierChain(ctx, partID)
	require.NoError(t, err)
	require.Len(t, chain, 2)
	assert.Equal(t, analytics.EventTransferred, chain[1].EventType)
	assert.Equal(t, "warehouse", chain[1].Source)
	assert.Equal(t, "truck:"+truckID.String(), chain[1].Dest)
}

func TestPartSupplierChainOrdersByDisplayedTime(t *testing.T) {
	ctx := context.Background()
	f := newFixture()
	partID := id.New()
	jobID := id.New()
	truckID := id.New()
	supplierID := f.newSupplier("Ferguson Plumbing Supply")
	base := time.Now().UTC().Add(-time.Hour)

	rec := ledger.NewMovement(ledger.KindReceive, partID, qty(10), ledger.External(), ledger.Warehouse())
	rec.SupplierID = &supplierID
	rec.RecorderType = "purchase_order"
	rec.RecorderID = id.New()
	rec.OccurredAt = base
	require.NoError(t, f.store.Apply(ctx, rec))

	transfer := ledger.NewMovement(ledger.KindTransfer, partID, qty(4), ledger.Warehouse(), ledger.Truck(truckID))
	transfer.SupplierID = &supplierID
	transfer.RecorderType = "manual_transfer"
	transfer.RecorderID = transfer.ID
	transfer.OccurredAt = base.Add(time.Minute)
	require.NoError(t, f.store.BeginTransfer(ctx, transfer))

	// Consumption recorded while the transfer is still in transit.
	consume := ledger.NewMovement(ledger.KindConsumption, partID, qty(2), ledger.Warehouse(), ledger.Job(jobID))
	consume.SupplierID = &supplierID
	consume.RecorderType = "job_consumption"
	consume.RecorderID = id.New()
	consume.OccurredAt = base.Add(2 * time.Minute)
	require.NoError(t, f.store.Apply(ctx, consume))

	// The transfer lands after the consumption, so its displayed time
	// (completion) must place it last in the chain.
	_, err := f.store.CompleteTransfer(ctx, transfer.ID)
	require.NoError(t, err)

	chain, err := f.service.PartSupplierChain(ctx, partID)
	require.NoError(t, err)
	require.Len(t, chain, 3)
	assert.Equal(t, analytics.EventReceived, chain[0].EventType)
	assert.Equal(t, analytics.EventConsumed, chain[1].EventType)
	assert.Equal(t, analytics.EventTransferred, chain[2].EventType)
	for i := 1; i < len(chain); i++ {
		assert.False(t, chain[i].OccurredAt.Before(chain[i-1].OccurredAt))
	}
}

func TestSuggestedReturnSupplierJobBinding(t *testing.T) {
	ctx := context.Background()
	f := newFixture()
	partID := id.New()
	jobID := id.New()
	bound := id.New()
	f.jobParts.suppliers[jobID.String()+"|"+partID.String()] = &bound

	// The binding wins over any receive history.
	f.receive(t, partID, 5, id.New())

	suggested, err := f.service.SuggestedReturnSupplier(ctx, partID, &jobID)
	require.NoError(t, err)
	require.NotNil(t, suggested)
	assert.Equal(t, bound, *suggested)
}

func TestSuggestedReturnSupplierConsumptionFallback(t *testing.T) {
	ctx := context.Background()
	f := newFixture()
	partID := id.New()
	jobID := id.New()
	supplierID := id.New()
	f.ledger.SetStock(partID, ledger.Warehouse(), qty(10))

	rec := ledger.NewMovement(ledger.KindConsumption, partID, qty(3), ledger.Warehouse(), ledger.Job(jobID))
	rec.SupplierID = &supplierID
	rec.RecorderType = "purchase_order"
	rec.RecorderID = id.New()
	require.NoError(t, f.store.Apply(ctx, rec))

	suggested, err := f.service.SuggestedReturnSupplier(ctx, partID, &jobID)
	require.NoError(t, err)
	require.NotNil(t, suggested)
	assert.Equal(t, supplierID, *suggested)
}

func TestSuggestedReturnSupplierReceiveFallback(t *testing.T) {
	ctx := context.Background()
	f := newFixture()
	partID := id.New()
	first := id.New()
	latest := id.New()
	f.receive(t, partID, 5, first)
	f.receive(t, partID, 5, latest)

	suggested, err := f.service.SuggestedReturnSupplier(ctx, partID, nil)
	require.NoError(t, err)
	require.NotNil(t, suggested)
	assert.Equal(t, latest, *suggested)

	// No history at all suggests nothing.
	suggested, err = f.service.SuggestedReturnSupplier(ctx, id.New(), nil)
	require.NoError(t, err)
	assert.Nil(t, suggested)
}

func TestCheckShortfall(t *testing.T) {
	ctx := context.Background()
	f := newFixture()
	listID := id.New()

	short := part.New("CU-12-050", "1/2 in copper pipe")
	short.UnitCost = types.NewMoney(2.00)
	surplus := part.New("PVC-ELL-075", "3/4 in PVC elbow")
	require.NoError(t, f.parts.Create(ctx, short))
	require.NoError(t, f.parts.Create(ctx, surplus))

	f.ledger.SetStock(short.ID, ledger.Warehouse(), qty(3))
	f.ledger.SetStock(surplus.ID, ledger.Warehouse(), qty(50))

	f.lists.items[listID] = []partslist.Item{
		{ID: id.New(), ListID: listID, PartID: short.ID, RequiredQuantity: qty(10)},
		{ID: id.New(), ListID: listID, PartID: surplus.ID, RequiredQuantity: qty(8)},
	}

	rows, err := f.service.CheckShortfall(ctx, listID)
	require.NoError(t, err)
	require.Len(t, rows, 2)

	assert.Equal(t, qty(7), rows[0].Shortfall)
	assert.True(t, types.NewMoney(14.00).Equal(rows[0].EstimatedCost))

	// Surplus clamps at zero, never negative.
	assert.Equal(t, qty(0), rows[1].Shortfall)
	assert.True(t, types.ZeroMoney().Equal(rows[1].EstimatedCost))
}

func TestTruckInventory(t *testing.T) {
	ctx := context.Background()
	f := newFixture()
	truckID := id.New()
	partID := id.New()
	f.ledger.SetStock(partID, ledger.Truck(truckID), qty(4))
	f.ledger.SetStock(id.New(), ledger.Warehouse(), qty(9))

	stocks, err := f.service.TruckInventory(ctx, truckID)
	require.NoError(t, err)
	require.Len(t, stocks, 1)
	assert.Equal(t, partID, stocks[0].PartID)
	assert.Equal(t, qty(4), stocks[0].Quantity)
}
