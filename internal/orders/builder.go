package orders

import (
	"fmt"
	"time"

	"sigmill/internal/strategy"
)

// Routing carries the per-strategy contract fields that are not part of the
// signal itself.
type Routing struct {
	SecurityType string
	Exchange     string
}

// Builder turns intents into records. Intents are never deduplicated across
// strategies: opposing orders from different strategies are intentional.
type Builder struct {
	routes       map[string]Routing
	exchangeZone string
	now          func() time.Time
}

func NewBuilder(routes map[string]Routing, exchangeZone string, now func() time.Time) *Builder {
	if now == nil {
		now = time.Now
	}
	return &Builder{routes: routes, exchangeZone: exchangeZone, now: now}
}

// Build renders one strategy's intents in order. Limit prices are formatted
// to cents; GTD intents get the shared expiry stamp.
func (b *Builder) Build(strategyName string, intents []strategy.Intent) ([]Record, error) {
	route, ok := b.routes[strategyName]
	if !ok {
		return nil, fmt.Errorf("no routing for strategy %q", strategyName)
	}
	records := make([]Record, 0, len(intents))
	for _, in := range intents {
		rec := Record{
			Symbol:       in.Symbol,
			Action:       string(in.Action),
			Quantity:     in.Quantity,
			OrderType:    string(in.OrderType),
			SecurityType: route.SecurityType,
			Exchange:     route.Exchange,
			TimeInForce:  string(in.TIF),
			AttachMOC:    "NO",
			Strategy:     strategyName,
		}
		if in.OrderType == strategy.OrderLimit {
			rec.LimitPrice = fmt.Sprintf("%.2f", in.LimitPrice)
		}
		if in.AttachMOC {
			rec.AttachMOC = "YES"
		}
		if in.TIF == strategy.TIFGTD {
			stamp, err := GoodTillTimestamp(b.now(), b.exchangeZone)
			if err != nil {
				return nil, err
			}
			rec.GoodTillDate = stamp
		}
		records = append(records, rec)
	}
	return records, nil
}
