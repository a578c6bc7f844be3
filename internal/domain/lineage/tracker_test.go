package lineage_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"partsledger/internal/core/apperror"
	"partsledger/internal/core/id"
	"partsledger/internal/domain/ledger"
	"partsledger/internal/domain/lineage"
)

type fakeJobParts struct {
	supplier *id.ID
}

func (f *fakeJobParts) GetJobPartSupplier(ctx context.Context, jobID, partID id.ID) (*id.ID, error) {
	return f.supplier, nil
}

type fakeMovements struct {
	rec *ledger.MovementRecord
}

func (f *fakeMovements) LatestJobConsumption(ctx context.Context, partID, jobID id.ID) (*ledger.MovementRecord, error) {
	return f.rec, nil
}

func TestResolveNoHistory(t *testing.T) {
	tracker := lineage.NewTracker(&fakeJobParts{}, &fakeMovements{})
	candidate := id.New()

	resolved, err := tracker.Resolve(context.Background(), id.New(), id.New(), &candidate)
	require.NoError(t, err)
	require.NotNil(t, resolved)
	assert.Equal(t, candidate, *resolved)

	resolved, err = tracker.Resolve(context.Background(), id.New(), id.New(), nil)
	require.NoError(t, err)
	assert.Nil(t, resolved)
}

func TestResolveInheritsExisting(t *testing.T) {
	existing := id.New()
	tracker := lineage.NewTracker(&fakeJobParts{supplier: &existing}, &fakeMovements{})

	resolved, err := tracker.Resolve(context.Background(), id.New(), id.New(), nil)
	require.NoError(t, err)
	require.NotNil(t, resolved)
	assert.Equal(t, existing, *resolved)
}

func TestResolveConflict(t *testing.T) {
	existing := id.New()
	other := id.New()
	tracker := lineage.NewTracker(&fakeJobParts{supplier: &existing}, &fakeMovements{})

	_, err := tracker.Resolve(context.Background(), id.New(), id.New(), &other)
	assert.True(t, apperror.IsCode(err, apperror.CodeSupplierConflict))
}

func TestResolveSameSupplierPasses(t *testing.T) {
	existing := id.New()
	tracker := lineage.NewTracker(&fakeJobParts{supplier: &existing}, &fakeMovements{})

	resolved, err := tracker.Resolve(context.Background(), id.New(), id.New(), &existing)
	require.NoError(t, err)
	assert.Equal(t, existing, *resolved)
}

func TestExistingFallsBackToConsumption(t *testing.T) {
	supplierID := id.New()
	rec := &ledger.MovementRecord{SupplierID: &supplierID}
	tracker := lineage.NewTracker(&fakeJobParts{}, &fakeMovements{rec: rec})

	existing, err := tracker.Existing(context.Background(), id.New(), id.New())
	require.NoError(t, err)
	require.NotNil(t, existing)
	assert.Equal(t, supplierID, *existing)
}
