// FILE: trader.go
// Package main – TradingBot: the operations behind every CLI command.
//
// What's here:
//   • ValidateCredentials – cheapest authenticated call (list accounts)
//   • CurrentPrice / FetchOrderBook / Balance – read-only passthroughs
//   • PlaceMarketBuy – the one write path, behind the order gate: amount
//       checks first, then (live only) the balance check, then simulate
//       (dry run) or execute (live)
//   • RunDiagnostics – sequential pass/fail over the four checks
//
// Safety:
//   - The gate's ceiling checks run before any balance lookup, so an order
//     over MAX_ORDER_USD is rejected without any network write.
//   - In live mode a failed balance fetch aborts the buy: an order that
//     spends real funds does not go out when the precondition could not be
//     checked.

package main

import (
	"context"
	"fmt"
	"math"
	"time"

	"github.com/google/uuid"
)

// TradingBot sequences broker calls for one CLI invocation.
type TradingBot struct {
	cfg    Config
	broker Broker
}

func NewTradingBot(cfg Config, broker Broker) *TradingBot {
	logInfof("initializing trading bot (broker=%s, pair=%s, mode=%s)",
		broker.Name(), cfg.ProductID, cfg.Mode)
	return &TradingBot{cfg: cfg, broker: broker}
}

// ValidateCredentials makes a test authenticated call and returns the number
// of accounts visible to the key.
func (b *TradingBot) ValidateCredentials(ctx context.Context) (int, error) {
	logInfof("validating API credentials...")
	accounts, err := b.broker.ListAccounts(ctx)
	if err != nil {
		return 0, err
	}
	logInfof("credentials valid! found %d account(s)", len(accounts))
	for i, a := range accounts {
		if i >= 5 {
			break
		}
		logDebugf("  account: %s - available: %.8f", a.Currency, a.Available)
	}
	return len(accounts), nil
}

// CurrentPrice fetches the latest price for the configured pair.
func (b *TradingBot) CurrentPrice(ctx context.Context) (float64, error) {
	logInfof("fetching current price for %s", b.cfg.ProductID)
	price, err := b.broker.GetNowPrice(ctx, b.cfg.ProductID)
	if err != nil {
		return 0, err
	}
	logInfof("current %s price: $%.2f", b.cfg.ProductID, price)
	return price, nil
}

// FetchOrderBook fetches the top levels and logs best bid/ask and spread.
func (b *TradingBot) FetchOrderBook(ctx context.Context, limit int) (*OrderBook, error) {
	logInfof("fetching order book for %s", b.cfg.ProductID)
	book, err := b.broker.GetOrderBook(ctx, b.cfg.ProductID, limit)
	if err != nil {
		return nil, err
	}
	if len(book.Bids) > 0 {
		logInfof("best bid: $%.2f", book.Bids[0].Price)
	}
	if len(book.Asks) > 0 {
		logInfof("best ask: $%.2f", book.Asks[0].Price)
	}
	if abs, pct, ok := book.Spread(); ok {
		logInfof("spread: $%.2f (%.4f%%)", abs, pct)
	}
	return book, nil
}

// Balance returns the available balance for one currency.
func (b *TradingBot) Balance(ctx context.Context, currency string) (float64, error) {
	logDebugf("fetching %s balance", currency)
	bal, err := b.broker.GetAvailableBalance(ctx, currency)
	if err != nil {
		return 0, err
	}
	logInfof("%s balance: %.8f", currency, bal)
	return bal, nil
}

// PlaceMarketBuy runs the gate and then either simulates (dry run) or
// executes (live) a market buy of quoteUSD.
func (b *TradingBot) PlaceMarketBuy(ctx context.Context, quoteUSD float64) (*PlacedOrder, error) {
	logInfof("preparing market buy order: $%.2f", quoteUSD)

	// First pass with balance treated as covered: the amount checks must
	// hold before we spend any network call on this order.
	if dec := EvaluateOrder(quoteUSD, b.cfg.MaxOrderUSD, b.cfg.Mode, math.Inf(1)); !dec.Approved {
		return nil, b.reject(quoteUSD, dec.Reason)
	}

	if b.cfg.IsDryRun() {
		return b.simulateMarketBuy(ctx, quoteUSD)
	}

	quoteCur := b.cfg.QuoteCurrency()
	available, err := b.Balance(ctx, quoteCur)
	if err != nil {
		return nil, fmt.Errorf("balance check before live order: %w", err)
	}
	if dec := EvaluateOrder(quoteUSD, b.cfg.MaxOrderUSD, b.cfg.Mode, available); !dec.Approved {
		logErrorf("insufficient %s balance: %.2f < %.2f", quoteCur, available, quoteUSD)
		return nil, b.reject(quoteUSD, dec.Reason)
	}

	return b.executeMarketBuy(ctx, quoteUSD)
}

func (b *TradingBot) reject(quoteUSD float64, reason string) error {
	IncGuardRejection(reason)
	logErrorf("order rejected: %s (requested $%.2f, max $%.2f)", reason, quoteUSD, b.cfg.MaxOrderUSD)
	return &GuardError{Amount: quoteUSD, Reason: reason}
}

// simulateMarketBuy fills the order against the live price without sending
// anything that spends funds. A failed price lookup still yields a simulated
// order, just without a fill estimate.
func (b *TradingBot) simulateMarketBuy(ctx context.Context, quoteUSD float64) (*PlacedOrder, error) {
	logInfof("[DRY RUN] simulating market buy order...")

	price, err := b.broker.GetNowPrice(ctx, b.cfg.ProductID)
	if err != nil {
		logWarnf("[DRY RUN] price unavailable, fill estimate will be zero: %v", err)
		price = 0
	}
	estBase := 0.0
	if price > 0 {
		estBase = quoteUSD / price
	}

	u := uuid.New()
	order := &PlacedOrder{
		ID:         fmt.Sprintf("DRY-RUN-%X", u[:4]),
		ProductID:  b.cfg.ProductID,
		Side:       SideBuy,
		Price:      price,
		BaseSize:   estBase,
		QuoteSpent: quoteUSD,
		Simulated:  true,
		CreateTime: time.Now().UTC(),
	}
	IncOrder("paper", SideBuy)

	logInfof("==================================================")
	logInfof("[DRY RUN] SIMULATED ORDER DETAILS")
	logInfof("==================================================")
	logInfof("Order ID:       %s", order.ID)
	logInfof("Product:        %s", order.ProductID)
	logInfof("Side:           %s", order.Side)
	logInfof("Amount:         $%.2f", order.QuoteSpent)
	logInfof("Est. Price:     $%.2f", order.Price)
	logInfof("Est. Quantity:  %.8f %s", order.BaseSize, b.cfg.BaseCurrency())
	logInfof("==================================================")
	logInfof("[DRY RUN] no real order was placed")

	return order, nil
}

func (b *TradingBot) executeMarketBuy(ctx context.Context, quoteUSD float64) (*PlacedOrder, error) {
	logWarnf("==================================================")
	logWarnf("EXECUTING LIVE MARKET ORDER")
	logWarnf("==================================================")

	order, err := b.broker.PlaceMarketBuy(ctx, b.cfg.ProductID, quoteUSD)
	if err != nil {
		logErrorf("order execution failed: %v", err)
		logErrorf("check your account balance and API permissions")
		return nil, err
	}
	IncOrder("live", SideBuy)

	logInfof("==================================================")
	logInfof("ORDER PLACED SUCCESSFULLY")
	logInfof("==================================================")
	logInfof("Order ID:     %s", order.ID)
	logInfof("Product:      %s", order.ProductID)
	logInfof("Amount:       $%.2f", quoteUSD)
	logInfof("==================================================")

	return order, nil
}

// RunDiagnostics verifies credentials, price data, order book and balance
// in sequence. A failed check is reported but later checks still run; a
// missing quote account is only a warning.
func (b *TradingBot) RunDiagnostics(ctx context.Context) bool {
	logInfof("==================================================")
	logInfof("RUNNING DIAGNOSTICS")
	logInfof("==================================================")

	allPassed := true

	logInfof("[test 1/4] validating credentials...")
	if _, err := b.ValidateCredentials(ctx); err != nil {
		logErrorf("FAILED: credential validation: %v", err)
		allPassed = false
	} else {
		logInfof("PASSED: credentials are valid")
	}

	logInfof("[test 2/4] fetching price data...")
	if price, err := b.CurrentPrice(ctx); err != nil {
		logErrorf("FAILED: could not fetch price: %v", err)
		allPassed = false
	} else {
		logInfof("PASSED: price fetched ($%.2f)", price)
	}

	logInfof("[test 3/4] fetching order book...")
	if _, err := b.FetchOrderBook(ctx, 5); err != nil {
		logErrorf("FAILED: could not fetch order book: %v", err)
		allPassed = false
	} else {
		logInfof("PASSED: order book fetched")
	}

	logInfof("[test 4/4] fetching account balance...")
	quoteCur := b.cfg.QuoteCurrency()
	if bal, err := b.Balance(ctx, quoteCur); err != nil {
		logWarnf("WARNING: could not fetch %s balance (may not have a %s account): %v", quoteCur, quoteCur, err)
	} else {
		logInfof("PASSED: %s balance is %.2f", quoteCur, bal)
	}

	logInfof("==================================================")
	if allPassed {
		logInfof("ALL DIAGNOSTICS PASSED")
		logInfof("your bot is ready to trade!")
	} else {
		logErrorf("SOME DIAGNOSTICS FAILED")
		logErrorf("please fix the issues above before trading")
	}
	logInfof("==================================================")

	return allPassed
}
