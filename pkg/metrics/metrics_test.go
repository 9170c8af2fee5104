package metrics

import (
	"fmt"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"
)

func TestMetricsExportCollectors(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := New(reg)
	m.ObserveRequest("GET", "/api/v1/orders", 200, 120*time.Millisecond)
	m.ObserveRequest("GET", "/api/v1/orders", 200, 80*time.Millisecond)
	m.CheckoutOutcome("placed")
	m.CheckoutOutcome("")
	m.BreakerState("nominatim", 2)
	m.BreakerFailure("nominatim")

	mfs, err := reg.Gather()
	if err != nil {
		t.Fatalf("gather metrics: %v", err)
	}

	if got, err := fetchCounterValue(mfs, "foodorder_http_requests_total", "route", "/api/v1/orders"); err != nil || got != 2 {
		t.Fatalf("expected 2 requests, got %f err=%v", got, err)
	}
	if got, err := fetchHistogramSum(mfs, "foodorder_http_request_duration_seconds", "method", "GET"); err != nil || got <= 0 {
		t.Fatalf("expected latency sum > 0, got %f err=%v", got, err)
	}
	if got, err := fetchCounterValue(mfs, "foodorder_checkout_outcomes_total", "outcome", "placed"); err != nil || got != 1 {
		t.Fatalf("expected placed=1, got %f err=%v", got, err)
	}
	if got, err := fetchCounterValue(mfs, "foodorder_checkout_outcomes_total", "outcome", "unknown"); err != nil || got != 1 {
		t.Fatalf("expected unknown=1, got %f err=%v", got, err)
	}
	if got, err := fetchGaugeValue(mfs, "foodorder_circuit_breaker_state", "dependency", "nominatim"); err != nil || got != 2 {
		t.Fatalf("expected open breaker, got %f err=%v", got, err)
	}
	if got, err := fetchCounterValue(mfs, "foodorder_circuit_breaker_failures_total", "dependency", "nominatim"); err != nil || got != 1 {
		t.Fatalf("expected one breaker failure, got %f err=%v", got, err)
	}
}

func TestNilMetricsIsNoop(t *testing.T) {
	var m *Metrics
	m.ObserveRequest("GET", "/", 200, time.Millisecond)
	m.CheckoutOutcome("placed")
	m.BreakerState("osrm", 1)
	m.BreakerFailure("osrm")
	if New(nil) != nil {
		t.Fatal("expected nil metrics without a registerer")
	}
}

func fetchCounterValue(mfs []*dto.MetricFamily, name, label, value string) (float64, error) {
	metric, err := findMetric(mfs, name, label, value)
	if err != nil {
		return 0, err
	}
	return metric.GetCounter().GetValue(), nil
}

func fetchGaugeValue(mfs []*dto.MetricFamily, name, label, value string) (float64, error) {
	metric, err := findMetric(mfs, name, label, value)
	if err != nil {
		return 0, err
	}
	return metric.GetGauge().GetValue(), nil
}

func fetchHistogramSum(mfs []*dto.MetricFamily, name, label, value string) (float64, error) {
	metric, err := findMetric(mfs, name, label, value)
	if err != nil {
		return 0, err
	}
	return metric.GetHistogram().GetSampleSum(), nil
}

func findMetric(mfs []*dto.MetricFamily, name, label, value string) (*dto.Metric, error) {
	for _, mf := range mfs {
		if mf.GetName() != name {
			continue
		}
		for _, metric := range mf.GetMetric() {
			if matchesLabel(metric.GetLabel(), label, value) {
				return metric, nil
			}
		}
		return nil, fmt.Errorf("metric %q missing label %s=%s", name, label, value)
	}
	return nil, fmt.Errorf("metric %q not found", name)
}

func matchesLabel(labels []*dto.LabelPair, name, value string) bool {
	for _, label := range labels {
		if label.GetName() == name && label.GetValue() == value {
			return true
		}
	}
	return false
}
