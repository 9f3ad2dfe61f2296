// Package orders converts strategy intents into the canonical batch-order
// rows the brokerage upload expects, and writes the consolidated CSV.
package orders

import "strconv"

// Record is one row of the batch-order file. Only the fields that vary are
// held here; the pass-through columns are fixed at render time.
type Record struct {
	Symbol       string
	Action       string
	Quantity     int64
	OrderType    string
	LimitPrice   string
	SecurityType string
	Exchange     string
	TimeInForce  string
	GoodTillDate string
	AttachMOC    string
	Strategy     string
}

// Header is the fixed 18-column schema. Order and spelling are part of the
// upload contract and must not change.
func Header() []string {
	return []string{
		"Symbol", "Action", "Quantity", "OrderType", "LimitPrice", "StopPrice",
		"SecurityType", "Exchange", "Timezone", "TimeInForce", "GoodTillDate",
		"AttachMOC", "Strategy", "OutsideRTH", "AllOrNone", "Hidden",
		"DisplaySize", "DisplaySizeIsPercentage",
	}
}

// Row renders the record with the fixed pass-through values: no stop price,
// no timezone override, regular-hours only, no iceberg fields.
func (r Record) Row() []string {
	return []string{
		r.Symbol,
		r.Action,
		strconv.FormatInt(r.Quantity, 10),
		r.OrderType,
		r.LimitPrice,
		"",
		r.SecurityType,
		r.Exchange,
		"",
		r.TimeInForce,
		r.GoodTillDate,
		r.AttachMOC,
		r.Strategy,
		"NO",
		"NO",
		"NO",
		"0",
		"NO",
	}
}
