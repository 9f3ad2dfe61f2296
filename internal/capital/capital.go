// Package capital turns a brokerage account snapshot into per-strategy
// budgets. All intermediate math runs on decimals; only the final budget is
// handed to strategies as a float.
package capital

import (
	"errors"
	"fmt"

	"github.com/shopspring/decimal"
)

// ErrCapitalStateInvalid marks an account snapshot the run must not trade
// on. It aborts the run before any strategy evaluates.
var ErrCapitalStateInvalid = errors.New("capital state invalid")

// Snapshot carries the account figures read from the brokerage bridge.
type Snapshot struct {
	BuyingPower        float64
	GrossPositionValue float64
	NetLiquidation     float64
}

// Allocator computes usable capital once and hands out fixed-fraction
// budgets. Budgets never change mid-run.
type Allocator struct {
	usable decimal.Decimal
}

// NewAllocator derives usable capital as
// (buyingPower + grossPositionValue) * (1 - buffer). A negative buying power
// means the account state cannot be trusted and the run must stop.
func NewAllocator(snap Snapshot, buffer float64) (*Allocator, error) {
	if snap.BuyingPower < 0 {
		return nil, fmt.Errorf("%w: buying power %.2f", ErrCapitalStateInvalid, snap.BuyingPower)
	}
	if buffer < 0 || buffer >= 1 {
		return nil, fmt.Errorf("%w: buffer %.2f outside [0,1)", ErrCapitalStateInvalid, buffer)
	}
	total := decimal.NewFromFloat(snap.BuyingPower).Add(decimal.NewFromFloat(snap.GrossPositionValue))
	usable := total.Mul(decimal.NewFromFloat(1).Sub(decimal.NewFromFloat(buffer)))
	return &Allocator{usable: usable}, nil
}

// Usable returns the total capital available across all strategies.
func (a *Allocator) Usable() float64 {
	return a.usable.InexactFloat64()
}

// Budget returns the capital slice for one strategy's allocation fraction.
func (a *Allocator) Budget(fraction float64) float64 {
	return a.usable.Mul(decimal.NewFromFloat(fraction)).InexactFloat64()
}

// Shares floor-divides a dollar budget by a price. Non-positive prices yield
// zero shares rather than an error; callers drop zero-quantity intents.
func Shares(budget, price float64) int64 {
	if price <= 0 || budget <= 0 {
		return 0
	}
	return decimal.NewFromFloat(budget).Div(decimal.NewFromFloat(price)).IntPart()
}
