package order

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"partsledger/internal/core/apperror"
	"partsledger/internal/core/id"
	"partsledger/internal/core/types"
)

func TestSubmitRequiresDraftWithItems(t *testing.T) {
	o := New(id.New())

	err := o.Submit(0)
	assert.True(t, apperror.IsCode(err, apperror.CodeValidation))

	require.NoError(t, o.Submit(2))
	assert.Equal(t, StatusSubmitted, o.Status)
	assert.NotNil(t, o.SubmittedAt)

	// Submitting twice is invalid.
	err = o.Submit(2)
	assert.True(t, apperror.IsCode(err, apperror.CodeInvalidState))
}

func TestCancelFromAnyNonTerminalState(t *testing.T) {
	for _, status := range []Status{StatusDraft, StatusSubmitted, StatusPartial, StatusReceived} {
		o := New(id.New())
		o.Status = status
		require.NoError(t, o.Cancel(), "cancel from %s", status)
		assert.Equal(t, StatusCancelled, o.Status)
	}

	for _, status := range []Status{StatusCancelled, StatusClosed} {
		o := New(id.New())
		o.Status = status
		err := o.Cancel()
		assert.True(t, apperror.IsCode(err, apperror.CodeInvalidState), "cancel from %s", status)
	}
}

func TestCloseRequiresReceived(t *testing.T) {
	o := New(id.New())
	o.Status = StatusReceived
	require.NoError(t, o.Close())
	assert.Equal(t, StatusClosed, o.Status)

	o = New(id.New())
	o.Status = StatusPartial
	err := o.Close()
	assert.True(t, apperror.IsCode(err, apperror.CodeInvalidState))
}

func TestRecomputeStatus(t *testing.T) {
	ordered := types.NewQuantityFromInt(10)
	half := types.NewQuantityFromInt(5)

	o := New(id.New())
	o.Status = StatusSubmitted

	items := []Item{
		{QuantityOrdered: ordered},
		{QuantityOrdered: ordered},
	}
	o.RecomputeStatus(items)
	assert.Equal(t, StatusSubmitted, o.Status, "no receipts leaves the status alone")

	items[0].QuantityReceived = half
	o.RecomputeStatus(items)
	assert.Equal(t, StatusPartial, o.Status)

	items[0].QuantityReceived = ordered
	items[1].QuantityReceived = ordered
	o.RecomputeStatus(items)
	assert.Equal(t, StatusReceived, o.Status)

	// received never regresses.
	items[1].QuantityReceived = 0
	o.RecomputeStatus(items)
	assert.Equal(t, StatusReceived, o.Status)
}

func TestItemOverReceiveAllowed(t *testing.T) {
	item := NewItem(id.New(), id.New(), types.NewQuantityFromInt(5), types.ZeroMoney())
	item.QuantityReceived = types.NewQuantityFromInt(8)
	assert.True(t, item.FullyReceived())
}

func TestCanDelete(t *testing.T) {
	o := New(id.New())
	assert.True(t, o.CanDelete())

	o.Status = StatusSubmitted
	assert.False(t, o.CanDelete())
}
