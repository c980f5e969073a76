// FILE: metrics.go
// Package main – Prometheus metrics for observability.
//
// Metrics the bot updates during operation:
//   • bot_api_requests_total{endpoint,outcome} – exchange calls (ok|error)
//   • bot_orders_total{mode,side}              – orders placed (paper|live)
//   • bot_guard_rejections_total{reason}       – orders blocked by the gate
//
// These are registered in init() and served by the HTTP handler started in
// main.go at /metrics (Prometheus text exposition format) when PORT > 0.

package main

import "github.com/prometheus/client_golang/prometheus"

var (
	mtxAPIRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "bot_api_requests_total",
			Help: "Exchange API requests by endpoint and outcome",
		},
		[]string{"endpoint", "outcome"},
	)

	mtxOrders = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "bot_orders_total",
			Help: "Orders placed",
		},
		[]string{"mode", "side"}, // mode: paper|live
	)

	mtxGuardRejections = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "bot_guard_rejections_total",
			Help: "Orders rejected by the safety gate, by reason",
		},
		[]string{"reason"},
	)
)

func init() {
	prometheus.MustRegister(mtxAPIRequests, mtxOrders, mtxGuardRejections)
}

// Helper setters used across files.
func IncAPIRequest(endpoint, outcome string) {
	mtxAPIRequests.WithLabelValues(endpoint, outcome).Inc()
}
func IncOrder(mode string, side OrderSide) { mtxOrders.WithLabelValues(mode, string(side)).Inc() }
func IncGuardRejection(reason string)      { mtxGuardRejections.WithLabelValues(reason).Inc() }
