package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// StoreMetrics records checkout and payment activity.
type StoreMetrics struct {
	ordersPlaced      prometheus.Counter
	stockShortfalls   prometheus.Counter
	paymentsCompleted prometheus.Counter
	amountMismatches  prometheus.Counter
	gatewayRequests   *prometheus.CounterVec
}

// NewStoreMetrics registers the checkout metrics on the provided registerer.
func NewStoreMetrics(reg prometheus.Registerer) *StoreMetrics {
	if reg == nil {
		return &StoreMetrics{}
	}
	ordersPlaced := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "orders_placed_total",
		Help: "Orders accepted by the placement engine.",
	})
	stockShortfalls := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "stock_shortfall_total",
		Help: "Order attempts rejected for insufficient stock.",
	})
	paymentsCompleted := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "payments_completed_total",
		Help: "Orders transitioned to paid.",
	})
	amountMismatches := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "payment_amount_mismatch_total",
		Help: "Webhook events whose amount disagreed with the order total.",
	})
	gatewayRequests := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "gateway_requests_total",
		Help: "Payment gateway calls by operation and outcome.",
	}, []string{"operation", "outcome"})
	reg.MustRegister(ordersPlaced, stockShortfalls, paymentsCompleted, amountMismatches, gatewayRequests)
	return &StoreMetrics{
		ordersPlaced:      ordersPlaced,
		stockShortfalls:   stockShortfalls,
		paymentsCompleted: paymentsCompleted,
		amountMismatches:  amountMismatches,
		gatewayRequests:   gatewayRequests,
	}
}

// IncOrderPlaced counts a successfully placed order.
func (m *StoreMetrics) IncOrderPlaced() {
	if m == nil || m.ordersPlaced == nil {
		return
	}
	m.ordersPlaced.Inc()
}

// IncStockShortfall counts a rejected order attempt.
func (m *StoreMetrics) IncStockShortfall() {
	if m == nil || m.stockShortfalls == nil {
		return
	}
	m.stockShortfalls.Inc()
}

// IncPaymentCompleted counts an effective paid transition.
func (m *StoreMetrics) IncPaymentCompleted() {
	if m == nil || m.paymentsCompleted == nil {
		return
	}
	m.paymentsCompleted.Inc()
}

// IncAmountMismatch counts a webhook whose amount disagreed with the order.
func (m *StoreMetrics) IncAmountMismatch() {
	if m == nil || m.amountMismatches == nil {
		return
	}
	m.amountMismatches.Inc()
}

// IncGatewayRequest counts a gateway call by operation and outcome.
func (m *StoreMetrics) IncGatewayRequest(operation, outcome string) {
	if m == nil || m.gatewayRequests == nil {
		return
	}
	if operation == "" {
		operation = "unknown"
	}
	if outcome == "" {
		outcome = "unknown"
	}
	m.gatewayRequests.WithLabelValues(operation, outcome).Inc()
}
