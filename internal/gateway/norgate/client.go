// Package norgate is the REST client for the market-data bridge: watchlist
// membership and daily OHLCV history.
package norgate

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"sort"
	"strconv"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"sigmill/internal/logger"
	"sigmill/internal/market"
)

const dateLayout = "2006-01-02"

type Client struct {
	baseURL string
	http    *http.Client
}

func NewClient(baseURL string, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &Client{
		baseURL: baseURL,
		http:    &http.Client{Timeout: timeout},
	}
}

// Watchlist returns the symbols of a named provider watchlist.
func (c *Client) Watchlist(ctx context.Context, name string) ([]string, error) {
	var payload struct {
		Symbols []string `json:"symbols"`
	}
	if err := c.getJSON(ctx, "/api/watchlist/"+url.PathEscape(name), nil, &payload); err != nil {
		return nil, fmt.Errorf("watchlist %s: %w", name, err)
	}
	return payload.Symbols, nil
}

type wireBar struct {
	Date   string  `json:"date"`
	Open   float64 `json:"open"`
	High   float64 `json:"high"`
	Low    float64 `json:"low"`
	Close  float64 `json:"close"`
	Volume float64 `json:"volume"`
}

// Timeseries fetches up to bars daily bars for one symbol, oldest first. A
// non-zero end pins the last bar date, used by the monthly-rebalance
// strategies.
func (c *Client) Timeseries(ctx context.Context, symbol string, bars int, end time.Time) (market.Series, error) {
	query := url.Values{"bars": []string{strconv.Itoa(bars)}}
	if !end.IsZero() {
		query.Set("end", end.Format(dateLayout))
	}
	var payload struct {
		Symbol string    `json:"symbol"`
		Bars   []wireBar `json:"bars"`
	}
	if err := c.getJSON(ctx, "/api/timeseries/"+url.PathEscape(symbol), query, &payload); err != nil {
		return market.Series{}, fmt.Errorf("timeseries %s: %w", symbol, err)
	}
	series := market.Series{Symbol: symbol, Bars: make([]market.Bar, 0, len(payload.Bars))}
	for _, b := range payload.Bars {
		date, err := time.Parse(dateLayout, b.Date)
		if err != nil {
			return market.Series{}, fmt.Errorf("timeseries %s: bad bar date %q: %w", symbol, b.Date, err)
		}
		series.Bars = append(series.Bars, market.Bar{
			Date: date, Open: b.Open, High: b.High, Low: b.Low, Close: b.Close, Volume: b.Volume,
		})
	}
	sort.Slice(series.Bars, func(i, j int) bool { return series.Bars[i].Date.Before(series.Bars[j].Date) })
	return series, nil
}

// FetchAll prefetches history for a symbol set with bounded concurrency.
// A symbol whose fetch fails is logged and left out of the snapshot; the
// strategies treat a missing symbol like insufficient history.
func (c *Client) FetchAll(ctx context.Context, symbols []string, bars int, end time.Time, concurrency int) (map[string]market.Series, error) {
	if concurrency <= 0 {
		concurrency = 8
	}
	var mu sync.Mutex
	out := make(map[string]market.Series, len(symbols))

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(concurrency)
	for _, symbol := range symbols {
		symbol := symbol
		g.Go(func() error {
			series, err := c.Timeseries(ctx, symbol, bars, end)
			if err != nil {
				logger.Warnf("fetch %s failed, symbol skipped: %v", symbol, err)
				return nil
			}
			mu.Lock()
			out[symbol] = series
			mu.Unlock()
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) getJSON(ctx context.Context, path string, query url.Values, dst any) error {
	u := c.baseURL + path
	if len(query) > 0 {
		u += "?" + query.Encode()
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return err
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return err
	}
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("status %d: %s", resp.StatusCode, truncate(body, 200))
	}
	return json.Unmarshal(body, dst)
}

func truncate(b []byte, n int) string {
	if len(b) > n {
		b = b[:n]
	}
	return string(b)
}
