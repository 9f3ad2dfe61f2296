package market

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func TestExpectedLastTradingDay(t *testing.T) {
	// Monday expects the preceding Friday.
	assert.Equal(t, date(2026, 8, 21), ExpectedLastTradingDay(date(2026, 8, 24)))
	// Wednesday expects Tuesday.
	assert.Equal(t, date(2026, 8, 25), ExpectedLastTradingDay(date(2026, 8, 26)))
	// Sunday expects Friday.
	assert.Equal(t, date(2026, 8, 21), ExpectedLastTradingDay(date(2026, 8, 23)))
}

func TestIsCurrent(t *testing.T) {
	now := date(2026, 8, 26)
	assert.True(t, IsCurrent(date(2026, 8, 25), now))
	assert.True(t, IsCurrent(date(2026, 8, 26), now))
	assert.False(t, IsCurrent(date(2026, 8, 24), now))
	// weekend gap is fine on Monday
	assert.True(t, IsCurrent(date(2026, 8, 21), date(2026, 8, 24)))
}

func TestLastFridayOfMonth(t *testing.T) {
	assert.Equal(t, date(2026, 8, 28), LastFridayOfMonth(date(2026, 8, 10)))
	assert.Equal(t, date(2026, 2, 27), LastFridayOfMonth(date(2026, 2, 1)))
}

func TestMonthlyDataEndDate(t *testing.T) {
	// Before the month's last Friday: use the previous month's.
	assert.Equal(t, date(2026, 7, 31), MonthlyDataEndDate(date(2026, 8, 10)))
	// After it: use this month's.
	assert.Equal(t, date(2026, 8, 28), MonthlyDataEndDate(date(2026, 8, 31)))
}

func TestSeriesAccessors(t *testing.T) {
	s := Series{Symbol: "SPY", Bars: []Bar{
		{Date: date(2026, 8, 24), Close: 1, High: 2, Low: 0.5, Volume: 10},
		{Date: date(2026, 8, 25), Close: 2, High: 3, Low: 1.5, Volume: 20},
		{Date: date(2026, 8, 26), Close: 3, High: 4, Low: 2.5, Volume: 30},
	}}
	assert.Equal(t, 3, s.Len())

	last, ok := s.Last()
	assert.True(t, ok)
	assert.Equal(t, 3.0, last.Close)

	prev, ok := s.Prev(1)
	assert.True(t, ok)
	assert.Equal(t, 2.0, prev.Close)

	_, ok = s.Prev(3)
	assert.False(t, ok)

	assert.Equal(t, []float64{1, 2, 3}, s.Closes())
	assert.Equal(t, []float64{2, 3, 4}, s.Highs())
	assert.Equal(t, []float64{0.5, 1.5, 2.5}, s.Lows())
	assert.Equal(t, []float64{10, 20, 30}, s.Volumes())

	_, ok = Series{}.Last()
	assert.False(t, ok)
}
