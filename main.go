// FILE: main.go
// Package main – Program entrypoint, CLI dispatch and metrics server.
//
// Boot sequence:
//   1) loadBotEnv()              – read .env (no shell exports required)
//   2) initLogging()             – console INFO+, file DEBUG+ under logs/
//   3) cfg := loadConfigFromEnv() – build the immutable runtime Config
//   4) apply -dry-run / -live overrides, print the config summary
//   5) wire the Coinbase broker into the bot
//   6) start the Prometheus /healthz server when PORT > 0
//   7) run exactly one command (or the interactive menu) and exit
//
// Flags:
//   -diagnose         Run diagnostics and exit
//   -price            Get the current price and exit
//   -orderbook        Show the order book and exit
//   -buy <amount>     Place a market buy for the given USD amount
//   -dry-run / -live  Override TRADING_MODE from .env
//   -yes              Skip the buy confirmation prompt
//
// Example:
//   go run . -dry-run -buy 10

package main

import (
	"bufio"
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
)

type cliOptions struct {
	diagnose  bool
	price     bool
	orderbook bool
	buy       float64 // negative = not requested
	yes       bool
}

func main() {
	var opts cliOptions
	var dryRun, live bool
	flag.BoolVar(&opts.diagnose, "diagnose", false, "Run diagnostics and exit")
	flag.BoolVar(&opts.price, "price", false, "Get the current price and exit")
	flag.BoolVar(&opts.orderbook, "orderbook", false, "Show the order book and exit")
	flag.Float64Var(&opts.buy, "buy", -1, "Place a market buy order for the given USD amount")
	flag.BoolVar(&dryRun, "dry-run", false, "Force dry run mode (override .env setting)")
	flag.BoolVar(&live, "live", false, "Force live mode (override .env setting) - USE WITH CAUTION!")
	flag.BoolVar(&opts.yes, "yes", false, "Skip the buy confirmation prompt")
	flag.Parse()

	printBanner()

	// ---- Environment, logging & Config ----
	loadBotEnv()
	initLogging(getEnv("LOG_DIR", "logs"))
	defer closeLogging()

	cfg, err := loadConfigFromEnv()
	if err != nil {
		logErrorf("%v", err)
		logErrorf("please copy .env.example to .env and add your API credentials")
		exit(1)
	}

	if dryRun && live {
		logErrorf("-dry-run and -live are mutually exclusive")
		exit(2)
	}
	if dryRun {
		cfg.Mode = ModeDryRun
		logInfof("[OVERRIDE] forcing DRY RUN mode")
	}
	if live {
		cfg.Mode = ModeLive
		logWarnf("[OVERRIDE] forcing LIVE mode - real trades will execute!")
	}

	cfg.logSummary()

	// ---- Bot wiring ----
	bot := NewTradingBot(cfg, NewCoinbaseBroker(cfg))

	// ---- HTTP metrics/health (optional) ----
	var srv *http.Server
	if cfg.Port > 0 {
		mux := http.NewServeMux()
		mux.HandleFunc("/healthz", func(w http.ResponseWriter, _ *http.Request) {
			_, _ = w.Write([]byte("ok\n"))
		})
		mux.Handle("/metrics", promhttp.Handler())
		srv = &http.Server{Addr: fmt.Sprintf(":%d", cfg.Port), Handler: mux}
		go func() {
			logInfof("serving metrics on :%d/metrics", cfg.Port)
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				logErrorf("metrics server: %v", err)
			}
		}()
	}

	// ---- Run selected command ----
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	code := dispatch(ctx, bot, opts)
	cancel()

	if srv != nil {
		shutdownCtx, c := context.WithTimeout(context.Background(), 2*time.Second)
		_ = srv.Shutdown(shutdownCtx)
		c()
	}
	exit(code)
}

func exit(code int) {
	closeLogging()
	os.Exit(code)
}

// dispatch runs exactly one command; no flags means the interactive menu.
func dispatch(ctx context.Context, bot *TradingBot, opts cliOptions) int {
	in := bufio.NewReader(os.Stdin)

	switch {
	case opts.diagnose:
		if bot.RunDiagnostics(ctx) {
			return 0
		}
		return 1

	case opts.price:
		price, err := bot.CurrentPrice(ctx)
		if err != nil {
			logErrorf("failed to get price: %v", err)
			return 1
		}
		fmt.Printf("\nCurrent %s price: $%.2f\n", bot.cfg.ProductID, price)
		return 0

	case opts.orderbook:
		book, err := bot.FetchOrderBook(ctx, 10)
		if err != nil {
			logErrorf("failed to get order book: %v", err)
			return 1
		}
		renderOrderBook(book, bot.cfg.BaseCurrency())
		return 0

	case opts.buy >= 0:
		return runBuy(ctx, bot, in, opts.buy, opts.yes)

	default:
		return runMenu(ctx, bot, in)
	}
}

// runBuy confirms and places one market buy; shared by -buy and the menu.
func runBuy(ctx context.Context, bot *TradingBot, in *bufio.Reader, amount float64, skipConfirm bool) int {
	mode := "LIVE"
	if bot.cfg.IsDryRun() {
		mode = "DRY RUN"
	}
	fmt.Printf("\nYou are about to place a $%.2f buy order (%s)\n", amount, mode)
	if !bot.cfg.IsDryRun() {
		logWarnf("this is a LIVE order with REAL money!")
	}
	if !skipConfirm && !confirm(in, "Type 'yes' to confirm: ") {
		fmt.Println("Order cancelled.")
		return 0
	}
	if _, err := bot.PlaceMarketBuy(ctx, amount); err != nil {
		logErrorf("%v", err)
		return 1
	}
	return 0
}

func printBanner() {
	fmt.Println(`
    +----------------------------------------------------------+
    |       COINBASE ADVANCED TRADE BOT                        |
    |       A simple bot for learning the API                  |
    +----------------------------------------------------------+`)
}
