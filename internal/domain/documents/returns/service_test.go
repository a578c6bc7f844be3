package returns_test

import (
	"context"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"partsledger/internal/core/apperror"
	"partsledger/internal/core/id"
	"partsledger/internal/core/types"
	"partsledger/internal/domain/documents/returns"
	"partsledger/internal/domain/ledger"
	"partsledger/internal/domain/ledger/ledgertest"
	"partsledger/pkg/numerator"
)

// memReturnRepo is an in-memory returns.Repository.
type memReturnRepo struct {
	mu      sync.Mutex
	returns map[id.ID]*returns.Authorization
	items   map[id.ID]*returns.Item
}

func newMemReturnRepo() *memReturnRepo {
	return &memReturnRepo{
		returns: make(map[id.ID]*returns.Authorization),
		items:   make(map[id.ID]*returns.Item),
	}
}

func (r *memReturnRepo) Create(ctx context.Context, a *returns.Authorization) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	cp := *a
	r.returns[a.ID] = &cp
	return nil
}

func (r *memReturnRepo) GetByID(ctx context.Context, returnID id.ID) (*returns.Authorization, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	a, ok := r.returns[returnID]
	if !ok {
		return nil, apperror.NewNotFound("return", returnID)
	}
	cp := *a
	return &cp, nil
}

func (r *memReturnRepo) GetByIDForUpdate(ctx context.Context, returnID id.ID) (*returns.Authorization, error) {
	return r.GetByID(ctx, returnID)
}

func (r *memReturnRepo) GetByNumber(ctx context.Context, number string) (*returns.Authorization, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, a := range r.returns {
		if a.Number == number {
			cp := *a
			return &cp, nil
		}
	}
	return nil, apperror.NewNotFound("return", number)
}

func (r *memReturnRepo) Update(ctx context.Context, a *returns.Authorization) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.returns[a.ID]; !ok {
		return apperror.NewNotFound("return", a.ID)
	}
	cp := *a
	r.returns[a.ID] = &cp
	return nil
}

func (r *memReturnRepo) Delete(ctx context.Context, returnID id.ID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.returns, returnID)
	for itemID, item := range r.items {
		if item.ReturnID == returnID {
			delete(r.items, itemID)
		}
	}
	return nil
}

func (r *memReturnRepo) List(ctx context.Context, filter returns.ListFilter) ([]returns.Authorization, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []returns.Authorization
	for _, a := range r.returns {
		if filter.Status != nil && a.Status != *filter.Status {
			continue
		}
		if filter.SupplierID != nil && a.SupplierID != *filter.SupplierID {
			continue
		}
		out = append(out, *a)
	}
	return out, nil
}

func (r *memReturnRepo) AddItem(ctx context.Context, item *returns.Item) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	cp := *item
	r.items[item.ID] = &cp
	return nil
}

func (r *memReturnRepo) ListItems(ctx context.Context, returnID id.ID) ([]returns.Item, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []returns.Item
	for _, item := range r.items {
		if item.ReturnID == returnID {
			out = append(out, *item)
		}
	}
	return out, nil
}

var _ returns.Repository = (*memReturnRepo)(nil)

type fixture struct {
	repo    *memReturnRepo
	ledger  *ledgertest.Repo
	store   *ledger.Store
	service *returns.Service
}

func newFixture() *fixture {
	repo := newMemReturnRepo()
	ledgerRepo := ledgertest.NewRepo()
	store := ledger.NewStore(ledgerRepo)
	service := returns.NewService(repo, store, ledgertest.TxManager{}, numerator.NewMock())
	return &fixture{repo: repo, ledger: ledgerRepo, store: store, service: service}
}

func qty(v int64) types.Quantity { return types.NewQuantityFromInt(v) }

func TestCreateRemovesWarehouseStock(t *testing.T) {
	ctx := context.Background()
	f := newFixture()
	partID := id.New()
	supplierID := id.New()
	f.ledger.SetStock(partID, ledger.Warehouse(), qty(10))

	returnID, err := f.service.Create(ctx, returns.NewReturn{
		SupplierID: supplierID,
		Reason:     returns.ReasonOverstock,
		Items: []returns.Item{
			{PartID: partID, Quantity: qty(4), UnitCost: types.NewMoney(3.25)},
		},
	})
	require.NoError(t, err)

	warehouse, _ := f.store.GetStock(ctx, partID, ledger.Warehouse())
	assert.Equal(t, qty(6), warehouse)

	a, err := f.service.GetByID(ctx, returnID)
	require.NoError(t, err)
	assert.Equal(t, returns.StatusInitiated, a.Status)
	assert.True(t, strings.HasPrefix(a.Number, "RA-"))

	items, err := f.service.ListItems(ctx, returnID)
	require.NoError(t, err)
	require.Len(t, items, 1)

	kind := ledger.KindReturn
	history, err := f.store.History(ctx, ledger.HistoryFilter{PartID: &partID, Kind: &kind})
	require.NoError(t, err)
	require.Len(t, history, 1)
	require.NotNil(t, history[0].SupplierID)
	assert.Equal(t, supplierID, *history[0].SupplierID)
}

func TestCreateInsufficientStock(t *testing.T) {
	ctx := context.Background()
	f := newFixture()
	partID := id.New()
	other := id.New()
	f.ledger.SetStock(partID, ledger.Warehouse(), qty(2))
	f.ledger.SetStock(other, ledger.Warehouse(), qty(10))

	// The short line comes first; the healthy one never moves.
	_, err := f.service.Create(ctx, returns.NewReturn{
		SupplierID: id.New(),
		Reason:     returns.ReasonDamaged,
		Items: []returns.Item{
			{PartID: partID, Quantity: qty(5), UnitCost: types.ZeroMoney()},
			{PartID: other, Quantity: qty(3), UnitCost: types.ZeroMoney()},
		},
	})
	assert.True(t, apperror.IsCode(err, apperror.CodeInsufficientStock))

	warehouse, _ := f.store.GetStock(ctx, partID, ledger.Warehouse())
	otherStock, _ := f.store.GetStock(ctx, other, ledger.Warehouse())
	assert.Equal(t, qty(2), warehouse)
	assert.Equal(t, qty(10), otherStock)
}

func TestCreateValidation(t *testing.T) {
	ctx := context.Background()
	f := newFixture()

	_, err := f.service.Create(ctx, returns.NewReturn{
		SupplierID: id.New(),
		Reason:     returns.ReasonOther,
	})
	assert.True(t, apperror.IsCode(err, apperror.CodeValidation), "no items")

	_, err = f.service.Create(ctx, returns.NewReturn{
		SupplierID: id.New(),
		Reason:     returns.Reason("melted"),
		Items:      []returns.Item{{PartID: id.New(), Quantity: qty(1)}},
	})
	assert.True(t, apperror.IsCode(err, apperror.CodeValidation), "unknown reason")
}

func TestLifecycle(t *testing.T) {
	ctx := context.Background()
	f := newFixture()
	partID := id.New()
	f.ledger.SetStock(partID, ledger.Warehouse(), qty(10))

	returnID, err := f.service.Create(ctx, returns.NewReturn{
		SupplierID: id.New(),
		Reason:     returns.ReasonWrongPart,
		Items:      []returns.Item{{PartID: partID, Quantity: qty(2), UnitCost: types.NewMoney(8.00)}},
	})
	require.NoError(t, err)

	// Credit cannot arrive before pickup.
	err = f.service.MarkCreditReceived(ctx, returnID, types.NewMoney(16.00))
	assert.True(t, apperror.IsCode(err, apperror.CodeInvalidState))

	require.NoError(t, f.service.MarkPickedUp(ctx, returnID))
	a, _ := f.service.GetByID(ctx, returnID)
	assert.Equal(t, returns.StatusPickedUp, a.Status)
	assert.NotNil(t, a.PickedUpAt)

	require.NoError(t, f.service.MarkCreditReceived(ctx, returnID, types.NewMoney(16.00)))
	a, _ = f.service.GetByID(ctx, returnID)
	assert.Equal(t, returns.StatusCreditReceived, a.Status)
	assert.True(t, types.NewMoney(16.00).Equal(a.CreditAmount))
	assert.NotNil(t, a.CreditReceivedAt)

	// Picked-up stock cannot be cancelled away.
	err = f.service.Cancel(ctx, returnID)
	assert.True(t, apperror.IsCode(err, apperror.CodeInvalidState))
}

func TestCancelKeepsStockOut(t *testing.T) {
	ctx := context.Background()
	f := newFixture()
	partID := id.New()
	f.ledger.SetStock(partID, ledger.Warehouse(), qty(10))

	returnID, err := f.service.Create(ctx, returns.NewReturn{
		SupplierID: id.New(),
		Reason:     returns.ReasonDefective,
		Items:      []returns.Item{{PartID: partID, Quantity: qty(4), UnitCost: types.ZeroMoney()}},
	})
	require.NoError(t, err)

	require.NoError(t, f.service.Cancel(ctx, returnID))
	a, _ := f.service.GetByID(ctx, returnID)
	assert.Equal(t, returns.StatusCancelled, a.Status)

	// Cancel is status only; the stock stays out.
	warehouse, _ := f.store.GetStock(ctx, partID, ledger.Warehouse())
	assert.Equal(t, qty(6), warehouse)
}

func TestDeleteRestoresStock(t *testing.T) {
	ctx := context.Background()
	f := newFixture()
	partID := id.New()
	f.ledger.SetStock(partID, ledger.Warehouse(), qty(10))

	returnID, err := f.service.Create(ctx, returns.NewReturn{
		SupplierID: id.New(),
		Reason:     returns.ReasonOverstock,
		Items:      []returns.Item{{PartID: partID, Quantity: qty(4), UnitCost: types.ZeroMoney()}},
	})
	require.NoError(t, err)

	require.NoError(t, f.service.Delete(ctx, returnID))

	warehouse, _ := f.store.GetStock(ctx, partID, ledger.Warehouse())
	assert.Equal(t, qty(10), warehouse)

	_, err = f.service.GetByID(ctx, returnID)
	assert.True(t, apperror.IsCode(err, apperror.CodeNotFound))

	history, err := f.store.History(ctx, ledger.HistoryFilter{PartID: &partID})
	require.NoError(t, err)
	assert.Empty(t, history)
}

func TestDeleteAfterPickup(t *testing.T) {
	ctx := context.Background()
	f := newFixture()
	partID := id.New()
	f.ledger.SetStock(partID, ledger.Warehouse(), qty(10))

	returnID, err := f.service.Create(ctx, returns.NewReturn{
		SupplierID: id.New(),
		Reason:     returns.ReasonOverstock,
		Items:      []returns.Item{{PartID: partID, Quantity: qty(4), UnitCost: types.ZeroMoney()}},
	})
	require.NoError(t, err)
	require.NoError(t, f.service.MarkPickedUp(ctx, returnID))

	err = f.service.Delete(ctx, returnID)
	assert.True(t, apperror.IsCode(err, apperror.CodeInvalidState))
}

func TestExpectedCredit(t *testing.T) {
	items := []returns.Item{
		{Quantity: qty(2), UnitCost: types.NewMoney(3.50)},
		{Quantity: qty(1), UnitCost: types.NewMoney(1.25)},
	}
	assert.True(t, types.NewMoney(8.25).Equal(returns.ExpectedCredit(items)))
}
