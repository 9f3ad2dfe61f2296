package capital

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUsableCapitalFormula(t *testing.T) {
	alloc, err := NewAllocator(Snapshot{BuyingPower: 60_000, GrossPositionValue: 40_000}, 0.20)
	require.NoError(t, err)
	assert.InDelta(t, 80_000, alloc.Usable(), 1e-9)
}

func TestBudgetsNeverExceedUsable(t *testing.T) {
	alloc, err := NewAllocator(Snapshot{BuyingPower: 123_456.78, GrossPositionValue: 87_654.32}, 0.20)
	require.NoError(t, err)

	fractions := []float64{0.05, 0.10, 0.03, 0.02, 0.15, 0.15, 0.25, 0.25}
	total := 0.0
	for _, f := range fractions {
		b := alloc.Budget(f)
		assert.GreaterOrEqual(t, b, 0.0)
		total += b
	}
	assert.LessOrEqual(t, total, alloc.Usable()+1e-6)
	assert.InDelta(t, alloc.Usable(), total, 1e-6)
}

func TestNegativeBuyingPowerIsFatal(t *testing.T) {
	_, err := NewAllocator(Snapshot{BuyingPower: -1, GrossPositionValue: 100}, 0.20)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrCapitalStateInvalid)
}

func TestInvalidBuffer(t *testing.T) {
	_, err := NewAllocator(Snapshot{BuyingPower: 100}, 1.0)
	assert.ErrorIs(t, err, ErrCapitalStateInvalid)
	_, err = NewAllocator(Snapshot{BuyingPower: 100}, -0.1)
	assert.ErrorIs(t, err, ErrCapitalStateInvalid)
}

func TestSharesFloors(t *testing.T) {
	assert.Equal(t, int64(3), Shares(1000, 300))
	assert.Equal(t, int64(0), Shares(100, 300))
	assert.Equal(t, int64(0), Shares(1000, 0))
	assert.Equal(t, int64(0), Shares(-5, 10))
	assert.Equal(t, int64(33), Shares(100, 3))
}
