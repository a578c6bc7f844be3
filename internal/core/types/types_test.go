package types_test

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"partsledger/internal/core/types"
)

func TestQuantityConstruction(t *testing.T) {
	assert.Equal(t, int64(30_000), types.NewQuantityFromInt(3).Int64Scaled())
	assert.Equal(t, int64(25_000), types.NewQuantityFromFloat64(2.5).Int64Scaled())
	assert.Equal(t, int64(1), types.NewQuantityFromInt64Scaled(1).Int64Scaled())
}

func TestQuantityPredicates(t *testing.T) {
	q := types.NewQuantityFromInt(4)
	assert.True(t, q.IsPositive())
	assert.True(t, q.Neg().IsNegative())
	assert.Equal(t, q, q.Neg().Abs())
	assert.True(t, types.Quantity(0).IsZero())
}

func TestQuantityString(t *testing.T) {
	assert.Equal(t, "3.0000", types.NewQuantityFromInt(3).String())
	assert.Equal(t, "2.5000", types.NewQuantityFromFloat64(2.5).String())
	assert.Equal(t, "-1.2500", types.NewQuantityFromFloat64(-1.25).String())
	assert.Equal(t, "0.0000", types.Quantity(0).String())
}

func TestQuantityJSON(t *testing.T) {
	data, err := json.Marshal(types.NewQuantityFromFloat64(6.25))
	require.NoError(t, err)
	assert.Equal(t, "6.2500", string(data))

	cases := map[string]int64{
		`3`:       30_000,
		`3.5`:     35_000,
		`"2.25"`:  22_500,
		`-1.5`:    -15_000,
		`0.12345`: 1_234, // truncated past 4 digits
		`1e2`:     1_000_000,
		`null`:    0,
	}
	for in, want := range cases {
		var q types.Quantity
		require.NoError(t, json.Unmarshal([]byte(in), &q), in)
		assert.Equal(t, want, q.Int64Scaled(), in)
	}

	var q types.Quantity
	assert.Error(t, json.Unmarshal([]byte(`"not a number"`), &q))
}

func TestQuantityDecimal(t *testing.T) {
	d := types.NewQuantityFromFloat64(2.5).Decimal()
	assert.True(t, types.MustMoney("2.5").Equal(d))
}

func TestMoney(t *testing.T) {
	m, err := types.NewMoneyFromString("12.40")
	require.NoError(t, err)
	assert.True(t, types.NewMoney(12.40).Equal(m))
	assert.True(t, types.ZeroMoney().IsZero())

	_, err = types.NewMoneyFromString("twelve")
	assert.Error(t, err)

	// Cost extension stays exact through decimal arithmetic.
	total := types.MustMoney("3.50").Mul(types.NewQuantityFromInt(2).Decimal())
	assert.Equal(t, "7.00", total.StringFixed(2))
}
