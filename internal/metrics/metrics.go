package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	PurchasesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "chipsms_purchases_total",
			Help: "Total number of purchase attempts",
		},
		[]string{"outcome"},
	)

	FulfillmentsTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "chipsms_fulfillments_total",
			Help: "Total number of purchases fulfilled with an SMS code",
		},
	)

	RechargesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "chipsms_recharges_total",
			Help: "Total number of recharge attempts",
		},
		[]string{"outcome"},
	)

	PendingFulfillments = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "chipsms_pending_fulfillments",
			Help: "Number of fulfillment timers currently scheduled",
		},
	)

	TelemetryPostsTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "chipsms_gateway_telemetry_posts_total",
			Help: "Total number of accepted gateway telemetry posts",
		},
	)
)

func RecordPurchase(outcome string) {
	PurchasesTotal.WithLabelValues(outcome).Inc()
}

func RecordFulfillment() {
	FulfillmentsTotal.Inc()
}

func RecordRecharge(outcome string) {
	RechargesTotal.WithLabelValues(outcome).Inc()
}
