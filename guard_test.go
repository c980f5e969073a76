// FILE: guard_test.go
package main

import "testing"

func TestEvaluateOrderCeilingWinsRegardlessOfModeAndBalance(t *testing.T) {
	cases := []struct {
		name    string
		mode    TradingMode
		balance float64
	}{
		{"dry run, zero balance", ModeDryRun, 0},
		{"live, rich balance", ModeLive, 1_000_000},
		{"live, poor balance", ModeLive, 1},
	}
	for _, tc := range cases {
		dec := EvaluateOrder(75, 50, tc.mode, tc.balance)
		if dec.Approved {
			t.Errorf("%s: order over ceiling approved", tc.name)
		}
		if dec.Reason != RejectExceedsMax {
			t.Errorf("%s: reason = %q, want %q", tc.name, dec.Reason, RejectExceedsMax)
		}
	}
}

func TestEvaluateOrderDryRunIgnoresBalance(t *testing.T) {
	for _, amount := range []float64{1, 10, 50} {
		dec := EvaluateOrder(amount, 50, ModeDryRun, 0)
		if !dec.Approved {
			t.Errorf("dry run buy of $%.2f with zero balance rejected: %s", amount, dec.Reason)
		}
	}
}

func TestEvaluateOrderLiveBalanceCheck(t *testing.T) {
	cases := []struct {
		name       string
		amount     float64
		balance    float64
		approved   bool
		wantReason string
	}{
		{"balance short", 10, 5, false, RejectInsufficientBalance},
		{"balance exact", 10, 10, true, ""},
		{"balance ample", 10, 100, true, ""},
	}
	for _, tc := range cases {
		dec := EvaluateOrder(tc.amount, 50, ModeLive, tc.balance)
		if dec.Approved != tc.approved {
			t.Errorf("%s: approved = %v, want %v", tc.name, dec.Approved, tc.approved)
		}
		if dec.Reason != tc.wantReason {
			t.Errorf("%s: reason = %q, want %q", tc.name, dec.Reason, tc.wantReason)
		}
	}
}

func TestEvaluateOrderSanityChecks(t *testing.T) {
	cases := []struct {
		amount     float64
		wantReason string
	}{
		{0, RejectNotPositive},
		{-5, RejectNotPositive},
		{0.50, RejectBelowMinimum},
	}
	for _, tc := range cases {
		dec := EvaluateOrder(tc.amount, 50, ModeLive, 1000)
		if dec.Approved {
			t.Errorf("amount %.2f approved", tc.amount)
		}
		if dec.Reason != tc.wantReason {
			t.Errorf("amount %.2f: reason = %q, want %q", tc.amount, dec.Reason, tc.wantReason)
		}
	}
}

func TestEvaluateOrderApprovesAtCeiling(t *testing.T) {
	dec := EvaluateOrder(50, 50, ModeDryRun, 0)
	if !dec.Approved {
		t.Fatalf("buy at exactly MAX_ORDER_USD rejected: %s", dec.Reason)
	}
}
