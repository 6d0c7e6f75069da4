package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"
)

func TestStoreMetricsExportsCounters(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewStoreMetrics(reg)
	m.IncOrderPlaced()
	m.IncOrderPlaced()
	m.IncStockShortfall()
	m.IncPaymentCompleted()
	m.IncAmountMismatch()
	m.IncGatewayRequest("create_payment", "success")
	m.IncGatewayRequest("create_payment", "failure")

	mfs, err := reg.Gather()
	if err != nil {
		t.Fatalf("gather metrics: %v", err)
	}

	if got := counterValue(t, mfs, "orders_placed_total", nil); got != 2 {
		t.Fatalf("expected orders_placed_total=2, got %f", got)
	}
	if got := counterValue(t, mfs, "stock_shortfall_total", nil); got != 1 {
		t.Fatalf("expected stock_shortfall_total=1, got %f", got)
	}
	if got := counterValue(t, mfs, "payments_completed_total", nil); got != 1 {
		t.Fatalf("expected payments_completed_total=1, got %f", got)
	}
	if got := counterValue(t, mfs, "payment_amount_mismatch_total", nil); got != 1 {
		t.Fatalf("expected payment_amount_mismatch_total=1, got %f", got)
	}
	labels := map[string]string{"operation": "create_payment", "outcome": "success"}
	if got := counterValue(t, mfs, "gateway_requests_total", labels); got != 1 {
		t.Fatalf("expected gateway success=1, got %f", got)
	}
}

func TestNilRegistererIsNoOp(t *testing.T) {
	m := NewStoreMetrics(nil)
	m.IncOrderPlaced()
	m.IncGatewayRequest("get_payment", "success")
}

func counterValue(t *testing.T, mfs []*dto.MetricFamily, name string, labels map[string]string) float64 {
	t.Helper()
	mf := findMetricFamily(mfs, name)
	if mf == nil {
		t.Fatalf("metric family %s not found", name)
	}
	for _, metric := range mf.GetMetric() {
		if !labelsMatch(metric, labels) {
			continue
		}
		if metric.GetCounter() == nil {
			t.Fatalf("metric %s is not a counter", name)
		}
		return metric.GetCounter().GetValue()
	}
	t.Fatalf("no sample of %s matched labels %v", name, labels)
	return 0
}

func findMetricFamily(mfs []*dto.MetricFamily, name string) *dto.MetricFamily {
	for _, mf := range mfs {
		if mf.GetName() == name {
			return mf
		}
	}
	return nil
}

func labelsMatch(metric *dto.Metric, labels map[string]string) bool {
	for key, want := range labels {
		found := false
		for _, pair := range metric.GetLabel() {
			if pair.GetName() == key && pair.GetValue() == want {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}
	return true
}
