package orders

import (
	"encoding/csv"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"sigmill/internal/strategy"
)

func fixedClock(t time.Time) func() time.Time {
	return func() time.Time { return t }
}

func TestHeaderHasEighteenColumns(t *testing.T) {
	h := Header()
	require.Len(t, h, 18)
	assert.Equal(t, "Symbol", h[0])
	assert.Equal(t, "DisplaySizeIsPercentage", h[17])
}

func TestRowPassThroughColumns(t *testing.T) {
	rec := Record{
		Symbol: "AAPL", Action: "BUY", Quantity: 10, OrderType: "LIMIT",
		LimitPrice: "123.45", SecurityType: "STK", Exchange: "SMART",
		TimeInForce: "GTC", AttachMOC: "NO", Strategy: "meanrev_long",
	}
	row := rec.Row()
	require.Len(t, row, 18)
	assert.Equal(t, "", row[5], "StopPrice")
	assert.Equal(t, "", row[8], "Timezone")
	assert.Equal(t, "NO", row[13], "OutsideRTH")
	assert.Equal(t, "NO", row[14], "AllOrNone")
	assert.Equal(t, "NO", row[15], "Hidden")
	assert.Equal(t, "0", row[16], "DisplaySize")
	assert.Equal(t, "NO", row[17], "DisplaySizeIsPercentage")
}

func TestGoodTillTimestampBeforeCutoff(t *testing.T) {
	loc, err := time.LoadLocation("America/New_York")
	require.NoError(t, err)
	now := time.Date(2026, 8, 26, 9, 0, 0, 0, loc)
	stamp, err := GoodTillTimestamp(now, "America/New_York")
	require.NoError(t, err)
	assert.Equal(t, "2026-08-26T15:44:00", stamp, "stamp is zone-naive exchange time")
}

func TestGoodTillTimestampRollsToNextDay(t *testing.T) {
	loc, err := time.LoadLocation("America/New_York")
	require.NoError(t, err)
	now := time.Date(2026, 8, 26, 15, 44, 0, 0, loc)
	stamp, err := GoodTillTimestamp(now, "America/New_York")
	require.NoError(t, err)
	assert.Equal(t, "2026-08-27T15:44:00", stamp)
}

func TestGoodTillTimestampBadZone(t *testing.T) {
	_, err := GoodTillTimestamp(time.Now(), "Not/AZone")
	assert.Error(t, err)
}

func TestBuilderRendersIntent(t *testing.T) {
	loc, _ := time.LoadLocation("America/New_York")
	now := time.Date(2026, 8, 26, 9, 0, 0, 0, loc)
	b := NewBuilder(map[string]Routing{
		"hft_long": {SecurityType: "CFD", Exchange: "SMART"},
	}, "America/New_York", fixedClock(now))

	recs, err := b.Build("hft_long", []strategy.Intent{{
		Symbol: "XYZ", Action: strategy.ActionBuy, Quantity: 7,
		OrderType: strategy.OrderLimit, LimitPrice: 52.104999,
		TIF: strategy.TIFGTD, AttachMOC: true,
	}})
	require.NoError(t, err)
	require.Len(t, recs, 1)
	rec := recs[0]
	assert.Equal(t, "XYZ", rec.Symbol)
	assert.Equal(t, "BUY", rec.Action)
	assert.Equal(t, "52.10", rec.LimitPrice)
	assert.Equal(t, "CFD", rec.SecurityType)
	assert.Equal(t, "GTD", rec.TimeInForce)
	assert.Equal(t, "YES", rec.AttachMOC)
	assert.Equal(t, "2026-08-26T15:44:00", rec.GoodTillDate)
	assert.Equal(t, "hft_long", rec.Strategy)
}

func TestBuilderMarketOrderHasNoLimit(t *testing.T) {
	b := NewBuilder(map[string]Routing{
		"momentum": {SecurityType: "STK", Exchange: "SMART"},
	}, "America/New_York", nil)
	recs, err := b.Build("momentum", []strategy.Intent{{
		Symbol: "QQQ", Action: strategy.ActionSell, Quantity: 3,
		OrderType: strategy.OrderMarket, TIF: strategy.TIFDay,
	}})
	require.NoError(t, err)
	require.Len(t, recs, 1)
	assert.Equal(t, "", recs[0].LimitPrice)
	assert.Equal(t, "", recs[0].GoodTillDate)
	assert.Equal(t, "NO", recs[0].AttachMOC)
}

func TestBuilderUnknownStrategy(t *testing.T) {
	b := NewBuilder(map[string]Routing{}, "America/New_York", nil)
	_, err := b.Build("mystery", nil)
	assert.Error(t, err)
}

func TestWriteCSVEmptyIsHeaderOnly(t *testing.T) {
	dir := t.TempDir()
	date := time.Date(2026, 8, 26, 0, 0, 0, 0, time.UTC)
	path, err := WriteCSV(dir, date, nil)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "daily_orders_2026-08-26.csv"), path)

	f, err := os.Open(path)
	require.NoError(t, err)
	defer f.Close()
	rows, err := csv.NewReader(f).ReadAll()
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, Header(), rows[0])
}

func TestWriteCSVRoundTripAndOverwrite(t *testing.T) {
	dir := t.TempDir()
	date := time.Date(2026, 8, 26, 0, 0, 0, 0, time.UTC)
	recs := []Record{
		{Symbol: "AAA", Action: "BUY", Quantity: 5, OrderType: "MARKET", SecurityType: "STK", Exchange: "SMART", TimeInForce: "DAY", AttachMOC: "NO", Strategy: "momentum"},
		{Symbol: "BBB", Action: "SELLSHORT", Quantity: 2, OrderType: "LIMIT", LimitPrice: "9.99", SecurityType: "CFD", Exchange: "SMART", TimeInForce: "GTD", GoodTillDate: "2026-08-26T15:44:00", AttachMOC: "YES", Strategy: "hft_short"},
	}
	_, err := WriteCSV(dir, date, recs)
	require.NoError(t, err)

	// re-run replaces the file
	path, err := WriteCSV(dir, date, recs[:1])
	require.NoError(t, err)

	f, err := os.Open(path)
	require.NoError(t, err)
	defer f.Close()
	rows, err := csv.NewReader(f).ReadAll()
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, "AAA", rows[1][0])
	assert.Equal(t, "5", rows[1][2])
}
