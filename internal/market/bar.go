package market

import "time"

// Bar is one daily OHLCV bar for a single symbol.
type Bar struct {
	Date   time.Time `json:"date"`
	Open   float64   `json:"open"`
	High   float64   `json:"high"`
	Low    float64   `json:"low"`
	Close  float64   `json:"close"`
	Volume float64   `json:"volume"`
}

// Series is a chronological run of bars for one symbol. The provider is
// responsible for ordering and gap handling; consumers assume oldest-first.
type Series struct {
	Symbol string `json:"symbol"`
	Bars   []Bar  `json:"bars"`
}

func (s Series) Len() int { return len(s.Bars) }

// Last returns the most recent bar and whether one exists.
func (s Series) Last() (Bar, bool) {
	if len(s.Bars) == 0 {
		return Bar{}, false
	}
	return s.Bars[len(s.Bars)-1], true
}

// Prev returns the bar n positions before the latest one.
func (s Series) Prev(n int) (Bar, bool) {
	idx := len(s.Bars) - 1 - n
	if idx < 0 {
		return Bar{}, false
	}
	return s.Bars[idx], true
}

func (s Series) Closes() []float64  { return s.extract(func(b Bar) float64 { return b.Close }) }
func (s Series) Highs() []float64   { return s.extract(func(b Bar) float64 { return b.High }) }
func (s Series) Lows() []float64    { return s.extract(func(b Bar) float64 { return b.Low }) }
func (s Series) Volumes() []float64 { return s.extract(func(b Bar) float64 { return b.Volume }) }

func (s Series) extract(f func(Bar) float64) []float64 {
	out := make([]float64, len(s.Bars))
	for i, b := range s.Bars {
		out[i] = f(b)
	}
	return out
}
