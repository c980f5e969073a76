// FILE: guard.go
// Package main – Order safety gate.
//
// EvaluateOrder is a pure decision over (amount, ceiling, mode, balance);
// it performs no I/O. Checks run in a fixed order, so the ceiling verdict
// wins over the balance verdict when both would reject:
//   1. amount must be positive
//   2. amount must not exceed MAX_ORDER_USD
//   3. amount must meet the exchange minimum (~$1 for BTC-USD)
//   4. in live mode, the quote balance must cover the amount
//
// Dry run never looks at the balance: the order is only simulated, so funds
// are not required to cover it.

package main

import "fmt"

// Rejection reasons, also used as metric labels.
const (
	RejectNotPositive         = "amount must be positive"
	RejectExceedsMax          = "exceeds maximum"
	RejectBelowMinimum        = "below exchange minimum"
	RejectInsufficientBalance = "insufficient balance"
)

// minOrderUSD is the exchange-side floor on market orders.
const minOrderUSD = 1.00

// GuardDecision is the outcome of the gate. Reason is set only on reject.
type GuardDecision struct {
	Approved bool
	Reason   string
}

// GuardError is a rejected order, surfaced to the caller as a normal error.
type GuardError struct {
	Amount float64
	Reason string
}

func (e *GuardError) Error() string {
	return fmt.Sprintf("order rejected: %s (requested $%.2f)", e.Reason, e.Amount)
}

// EvaluateOrder decides whether a market buy of quoteUSD may proceed.
// availableQuote is only consulted in live mode.
func EvaluateOrder(quoteUSD, maxOrderUSD float64, mode TradingMode, availableQuote float64) GuardDecision {
	if quoteUSD <= 0 {
		return GuardDecision{Reason: RejectNotPositive}
	}
	if quoteUSD > maxOrderUSD {
		return GuardDecision{Reason: RejectExceedsMax}
	}
	if quoteUSD < minOrderUSD {
		return GuardDecision{Reason: RejectBelowMinimum}
	}
	if mode == ModeLive && availableQuote < quoteUSD {
		return GuardDecision{Reason: RejectInsufficientBalance}
	}
	return GuardDecision{Approved: true}
}
