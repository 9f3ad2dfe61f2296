// Package brokerage is the REST client for the brokerage bridge: JWT login,
// account summary and the aggregate position book.
package brokerage

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/tidwall/gjson"
)

// ErrAuthFailed marks a rejected login. The run aborts before touching
// market data.
var ErrAuthFailed = errors.New("brokerage authentication failed")

// Summary carries the account figures capital allocation runs on.
type Summary struct {
	BuyingPower        float64
	GrossPositionValue float64
	NetLiquidation     float64
}

// Position is one aggregate book entry; Quantity is negative for shorts.
// The bridge reports the whole account, not per-strategy books.
type Position struct {
	Symbol   string
	Quantity float64
	AvgCost  float64
}

type Client struct {
	baseURL  string
	username string
	password string
	http     *http.Client
	token    string
}

func NewClient(baseURL, username, password string, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &Client{
		baseURL:  baseURL,
		username: username,
		password: password,
		http:     &http.Client{Timeout: timeout},
	}
}

// Login exchanges credentials for a bearer token. Any non-200 or a missing
// token field is an auth failure.
func (c *Client) Login(ctx context.Context) error {
	payload, _ := json.Marshal(map[string]string{
		"username": c.username,
		"password": c.password,
	})
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/api/auth/login", bytes.NewReader(payload))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrAuthFailed, err)
	}
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("%w: read response: %v", ErrAuthFailed, err)
	}
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("%w: status %d", ErrAuthFailed, resp.StatusCode)
	}
	token := gjson.GetBytes(body, "token")
	if !token.Exists() || token.String() == "" {
		return fmt.Errorf("%w: no token in response", ErrAuthFailed)
	}
	c.token = token.String()
	return nil
}

// AccountSummary reads the capital figures. The bridge nests them under
// different shapes across versions, so extraction is path based.
func (c *Client) AccountSummary(ctx context.Context) (Summary, error) {
	body, err := c.get(ctx, "/api/account-summary")
	if err != nil {
		return Summary{}, fmt.Errorf("account summary: %w", err)
	}
	bp := firstNumber(body, "buyingPower", "summary.buyingPower")
	if !bp.Exists() {
		return Summary{}, fmt.Errorf("account summary: buying power missing")
	}
	return Summary{
		BuyingPower:        bp.Float(),
		GrossPositionValue: firstNumber(body, "grossPositionValue", "summary.grossPositionValue").Float(),
		NetLiquidation:     firstNumber(body, "netLiquidation", "summary.netLiquidation").Float(),
	}, nil
}

// Positions reads the aggregate position book.
func (c *Client) Positions(ctx context.Context) ([]Position, error) {
	body, err := c.get(ctx, "/api/positions")
	if err != nil {
		return nil, fmt.Errorf("positions: %w", err)
	}
	list := gjson.GetBytes(body, "positions")
	if !list.Exists() {
		list = gjson.ParseBytes(body)
	}
	var out []Position
	list.ForEach(func(_, item gjson.Result) bool {
		symbol := item.Get("symbol").String()
		if symbol == "" {
			return true
		}
		out = append(out, Position{
			Symbol:   symbol,
			Quantity: item.Get("position").Float(),
			AvgCost:  item.Get("avgCost").Float(),
		})
		return true
	})
	return out, nil
}

func (c *Client) get(ctx context.Context, path string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", "Bearer "+c.token)
	resp, err := c.http.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode == http.StatusUnauthorized {
		return nil, fmt.Errorf("%w: token rejected", ErrAuthFailed)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("status %d", resp.StatusCode)
	}
	return body, nil
}

func firstNumber(body []byte, paths ...string) gjson.Result {
	for _, p := range paths {
		if r := gjson.GetBytes(body, p); r.Exists() {
			return r
		}
	}
	return gjson.Result{}
}
