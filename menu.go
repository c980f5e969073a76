// FILE: menu.go
// Package main – Interactive menu and small stdin helpers.
//
// The menu runs when no command flag is given. Every option maps onto the
// same TradingBot operations the flags use; buys go through the same
// confirmation and gate.

package main

import (
	"bufio"
	"context"
	"fmt"
	"strconv"
	"strings"
)

func runMenu(ctx context.Context, bot *TradingBot, in *bufio.Reader) int {
	for {
		if ctx.Err() != nil {
			return 0
		}

		fmt.Println("\n========================================")
		fmt.Println("MAIN MENU")
		fmt.Println("========================================")
		fmt.Printf("1. Run diagnostics\n")
		fmt.Printf("2. Get current %s price\n", bot.cfg.ProductID)
		fmt.Printf("3. View order book\n")
		fmt.Printf("4. Check account balances\n")
		fmt.Printf("5. Place test buy order ($10)\n")
		fmt.Printf("6. Place custom buy order\n")
		fmt.Printf("0. Exit\n")
		fmt.Println("========================================")

		choice, err := readLine(in, "\nEnter your choice: ")
		if err != nil {
			// stdin closed
			return 0
		}

		switch choice {
		case "0":
			fmt.Println("\nGoodbye!")
			return 0

		case "1":
			bot.RunDiagnostics(ctx)

		case "2":
			price, err := bot.CurrentPrice(ctx)
			if err != nil {
				logErrorf("failed to get price: %v", err)
				continue
			}
			fmt.Printf("\nCurrent %s price: $%.2f\n", bot.cfg.ProductID, price)

		case "3":
			book, err := bot.FetchOrderBook(ctx, 10)
			if err != nil {
				logErrorf("failed to get order book: %v", err)
				continue
			}
			renderOrderBook(book, bot.cfg.BaseCurrency())

		case "4":
			showBalances(ctx, bot)

		case "5":
			runBuy(ctx, bot, in, 10.0, false)

		case "6":
			raw, err := readLine(in, "\nEnter USD amount: $")
			if err != nil {
				return 0
			}
			amount, err := strconv.ParseFloat(raw, 64)
			if err != nil {
				fmt.Println("\nInvalid amount. Please enter a number.")
				continue
			}
			if amount > bot.cfg.MaxOrderUSD {
				fmt.Printf("\nAmount exceeds maximum ($%.2f)\n", bot.cfg.MaxOrderUSD)
				fmt.Println("Edit MAX_ORDER_USD in .env to increase the limit")
				continue
			}
			runBuy(ctx, bot, in, amount, false)

		default:
			fmt.Println("\nInvalid choice. Please try again.")
		}
	}
}

func showBalances(ctx context.Context, bot *TradingBot) {
	fmt.Println("\nFetching balances...")
	quoteCur := bot.cfg.QuoteCurrency()
	baseCur := bot.cfg.BaseCurrency()

	if bal, err := bot.Balance(ctx, quoteCur); err != nil {
		fmt.Printf("\n  %s: not available (%v)\n", quoteCur, err)
	} else {
		fmt.Printf("\n  %s: $%.2f\n", quoteCur, bal)
	}
	if bal, err := bot.Balance(ctx, baseCur); err != nil {
		fmt.Printf("  %s: not available (%v)\n", baseCur, err)
	} else {
		fmt.Printf("  %s: %.8f\n", baseCur, bal)
	}
}

func renderOrderBook(book *OrderBook, baseCur string) {
	fmt.Printf("\n--- TOP %d BIDS (Buy Orders) ---\n", len(book.Bids))
	for i, bid := range book.Bids {
		fmt.Printf("  %2d. $%.2f - %.8f %s\n", i+1, bid.Price, bid.Size, baseCur)
	}
	fmt.Printf("\n--- TOP %d ASKS (Sell Orders) ---\n", len(book.Asks))
	for i, ask := range book.Asks {
		fmt.Printf("  %2d. $%.2f - %.8f %s\n", i+1, ask.Price, ask.Size, baseCur)
	}
}

// confirm requires the user to type exactly "yes".
func confirm(in *bufio.Reader, prompt string) bool {
	line, err := readLine(in, prompt)
	if err != nil {
		return false
	}
	return strings.EqualFold(line, "yes")
}

func readLine(in *bufio.Reader, prompt string) (string, error) {
	fmt.Print(prompt)
	line, err := in.ReadString('\n')
	if err != nil && line == "" {
		return "", err
	}
	return strings.TrimSpace(line), nil
}
