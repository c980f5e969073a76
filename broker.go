// FILE: broker.go
// Package main – Broker abstraction and shared market types.
//
// This file defines the minimal interface the bot needs to talk to the
// exchange:
//   • Broker interface: price, order book, accounts, balance, market buy
//   • Common types: OrderSide, PlacedOrder, OrderBook, Account
//   • APIError: normalized transport/exchange failure
//
// The only real implementation is broker_coinbase.go; tests substitute a
// stub.

package main

import (
	"context"
	"fmt"
	"net/http"
	"time"
)

// OrderSide is the side of a trade.
type OrderSide string

const (
	SideBuy  OrderSide = "BUY"
	SideSell OrderSide = "SELL"
)

// PlacedOrder is a normalized view of a placed (or simulated) market order.
type PlacedOrder struct {
	ID            string
	ClientOrderID string
	ProductID     string
	Side          OrderSide
	Price         float64 // estimated fill price; 0 when unknown
	BaseSize      float64 // estimated filled base (e.g. BTC)
	QuoteSpent    float64 // quote committed (e.g. USD)
	Simulated     bool
	CreateTime    time.Time
}

// BookLevel is one price level of the order book.
type BookLevel struct {
	Price float64
	Size  float64
}

// OrderBook holds the top levels of resting orders, bids high-to-low and
// asks low-to-high as the exchange returns them.
type OrderBook struct {
	Bids []BookLevel
	Asks []BookLevel
}

// Spread returns the absolute and percentage bid/ask spread; ok is false
// when either side of the book is empty.
func (ob *OrderBook) Spread() (abs float64, pct float64, ok bool) {
	if ob == nil || len(ob.Bids) == 0 || len(ob.Asks) == 0 {
		return 0, 0, false
	}
	abs = ob.Asks[0].Price - ob.Bids[0].Price
	if ob.Asks[0].Price > 0 {
		pct = abs / ob.Asks[0].Price * 100
	}
	return abs, pct, true
}

// Account is a funding account on the exchange.
type Account struct {
	UUID      string
	Currency  string
	Available float64
}

// Broker is the minimal surface the bot needs to operate.
type Broker interface {
	Name() string
	GetNowPrice(ctx context.Context, product string) (float64, error)
	GetOrderBook(ctx context.Context, product string, limit int) (*OrderBook, error)
	ListAccounts(ctx context.Context) ([]Account, error)
	GetAvailableBalance(ctx context.Context, currency string) (float64, error)
	PlaceMarketBuy(ctx context.Context, product string, quoteUSD float64) (*PlacedOrder, error)
}

// APIError is a failed exchange call: either transport-level (Err set) or
// an HTTP status the exchange rejected us with (Status/Body set).
type APIError struct {
	Op     string // endpoint shorthand, e.g. "product", "orders"
	Status int
	Body   string
	Err    error
}

func (e *APIError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Op, e.Err)
	}
	return fmt.Sprintf("%s %d: %s", e.Op, e.Status, e.Body)
}

func (e *APIError) Unwrap() error { return e.Err }

// IsAuth reports whether the exchange rejected our credentials.
func (e *APIError) IsAuth() bool {
	return e.Status == http.StatusUnauthorized || e.Status == http.StatusForbidden
}
