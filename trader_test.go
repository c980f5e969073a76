// FILE: trader_test.go
package main

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"
)

// stubBroker records write calls so tests can prove the gate kept them from
// happening.
type stubBroker struct {
	price    float64
	priceErr error

	book    *OrderBook
	bookErr error

	accounts    []Account
	accountsErr error

	balance      float64
	balanceErr   error
	balanceCalls int

	placed   []float64
	placeErr error
}

func (s *stubBroker) Name() string { return "stub" }

func (s *stubBroker) GetNowPrice(ctx context.Context, product string) (float64, error) {
	return s.price, s.priceErr
}

func (s *stubBroker) GetOrderBook(ctx context.Context, product string, limit int) (*OrderBook, error) {
	return s.book, s.bookErr
}

func (s *stubBroker) ListAccounts(ctx context.Context) ([]Account, error) {
	return s.accounts, s.accountsErr
}

func (s *stubBroker) GetAvailableBalance(ctx context.Context, currency string) (float64, error) {
	s.balanceCalls++
	return s.balance, s.balanceErr
}

func (s *stubBroker) PlaceMarketBuy(ctx context.Context, product string, quoteUSD float64) (*PlacedOrder, error) {
	s.placed = append(s.placed, quoteUSD)
	if s.placeErr != nil {
		return nil, s.placeErr
	}
	return &PlacedOrder{
		ID:         "live-1",
		ProductID:  product,
		Side:       SideBuy,
		QuoteSpent: quoteUSD,
		CreateTime: time.Now().UTC(),
	}, nil
}

func testConfig(mode TradingMode, maxOrder float64) Config {
	return Config{
		APIKey:      "test-key",
		APISecret:   "test-secret",
		Mode:        mode,
		ProductID:   "BTC-USD",
		MaxOrderUSD: maxOrder,
	}
}

func TestDryRunBuyPlacesNoOrder(t *testing.T) {
	stub := &stubBroker{price: 50_000}
	bot := NewTradingBot(testConfig(ModeDryRun, 50), stub)

	order, err := bot.PlaceMarketBuy(context.Background(), 10)
	if err != nil {
		t.Fatalf("dry run buy failed: %v", err)
	}
	if !order.Simulated {
		t.Error("dry run order not marked simulated")
	}
	if !strings.HasPrefix(order.ID, "DRY-RUN-") {
		t.Errorf("order id = %q, want DRY-RUN- prefix", order.ID)
	}
	if want := 10.0 / 50_000; order.BaseSize != want {
		t.Errorf("estimated base = %v, want %v", order.BaseSize, want)
	}
	if len(stub.placed) != 0 {
		t.Fatalf("dry run issued %d write call(s)", len(stub.placed))
	}
	if stub.balanceCalls != 0 {
		t.Errorf("dry run fetched balance %d time(s); balance is not required to cover a simulated order", stub.balanceCalls)
	}
}

func TestLiveBuyOverCeilingPlacesNoOrder(t *testing.T) {
	stub := &stubBroker{balance: 1_000_000}
	bot := NewTradingBot(testConfig(ModeLive, 50), stub)

	_, err := bot.PlaceMarketBuy(context.Background(), 75)
	var ge *GuardError
	if !errors.As(err, &ge) {
		t.Fatalf("err = %v, want GuardError", err)
	}
	if ge.Reason != RejectExceedsMax {
		t.Errorf("reason = %q, want %q", ge.Reason, RejectExceedsMax)
	}
	if len(stub.placed) != 0 {
		t.Fatalf("rejected order still issued %d write call(s)", len(stub.placed))
	}
	if stub.balanceCalls != 0 {
		t.Errorf("ceiling rejection fetched balance %d time(s); should reject before any network call", stub.balanceCalls)
	}
}

func TestLiveBuyInsufficientBalance(t *testing.T) {
	stub := &stubBroker{balance: 5}
	bot := NewTradingBot(testConfig(ModeLive, 50), stub)

	_, err := bot.PlaceMarketBuy(context.Background(), 10)
	var ge *GuardError
	if !errors.As(err, &ge) {
		t.Fatalf("err = %v, want GuardError", err)
	}
	if ge.Reason != RejectInsufficientBalance {
		t.Errorf("reason = %q, want %q", ge.Reason, RejectInsufficientBalance)
	}
	if len(stub.placed) != 0 {
		t.Fatalf("underfunded order still issued %d write call(s)", len(stub.placed))
	}
}

func TestLiveBuyHappyPath(t *testing.T) {
	stub := &stubBroker{balance: 100}
	bot := NewTradingBot(testConfig(ModeLive, 50), stub)

	order, err := bot.PlaceMarketBuy(context.Background(), 10)
	if err != nil {
		t.Fatalf("live buy failed: %v", err)
	}
	if order.ID != "live-1" {
		t.Errorf("order id = %q, want live-1", order.ID)
	}
	if len(stub.placed) != 1 || stub.placed[0] != 10 {
		t.Fatalf("placed calls = %v, want exactly one $10 order", stub.placed)
	}
}

func TestLiveBuyAbortsWhenBalanceUnavailable(t *testing.T) {
	stub := &stubBroker{balanceErr: &APIError{Op: "accounts", Err: errors.New("connection reset")}}
	bot := NewTradingBot(testConfig(ModeLive, 50), stub)

	_, err := bot.PlaceMarketBuy(context.Background(), 10)
	if err == nil {
		t.Fatal("live buy succeeded without a balance check")
	}
	var ae *APIError
	if !errors.As(err, &ae) {
		t.Errorf("err = %v, want wrapped APIError", err)
	}
	if len(stub.placed) != 0 {
		t.Fatalf("unverified order still issued %d write call(s)", len(stub.placed))
	}
}

func TestDryRunBuySurvivesPriceFailure(t *testing.T) {
	stub := &stubBroker{priceErr: errors.New("boom")}
	bot := NewTradingBot(testConfig(ModeDryRun, 50), stub)

	order, err := bot.PlaceMarketBuy(context.Background(), 10)
	if err != nil {
		t.Fatalf("dry run buy failed: %v", err)
	}
	if order.Price != 0 || order.BaseSize != 0 {
		t.Errorf("fill estimate = %v @ %v, want zeros when price unavailable", order.BaseSize, order.Price)
	}
	if len(stub.placed) != 0 {
		t.Fatalf("dry run issued %d write call(s)", len(stub.placed))
	}
}

func TestRunDiagnosticsContinuesPastFailures(t *testing.T) {
	stub := &stubBroker{
		priceErr: errors.New("price endpoint down"),
		book:     &OrderBook{Bids: []BookLevel{{Price: 99, Size: 1}}, Asks: []BookLevel{{Price: 101, Size: 1}}},
		accounts: []Account{{Currency: "USD", Available: 100}},
		balance:  100,
	}
	bot := NewTradingBot(testConfig(ModeDryRun, 50), stub)

	if bot.RunDiagnostics(context.Background()) {
		t.Error("diagnostics passed despite a failing check")
	}
	// later independent checks still ran
	if stub.balanceCalls == 0 {
		t.Error("balance check skipped after earlier failure")
	}
}

func TestRunDiagnosticsTreatsMissingBalanceAsWarning(t *testing.T) {
	stub := &stubBroker{
		price:      50_000,
		book:       &OrderBook{Bids: []BookLevel{{Price: 99, Size: 1}}, Asks: []BookLevel{{Price: 101, Size: 1}}},
		accounts:   []Account{{Currency: "BTC", Available: 1}},
		balanceErr: errors.New("no USD account"),
	}
	bot := NewTradingBot(testConfig(ModeDryRun, 50), stub)

	if !bot.RunDiagnostics(context.Background()) {
		t.Error("diagnostics failed over a missing quote account")
	}
}
