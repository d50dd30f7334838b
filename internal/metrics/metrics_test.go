package metrics

import (
	"testing"
	"time"

	"optionflow/logger"
)

func TestRegisterMetricHandlerReceivesEmissions(t *testing.T) {
	received := make([]Metric, 0)
	id := RegisterMetricHandler(func(m Metric) { received = append(received, m) })
	t.Cleanup(func() { UnregisterMetricHandler(id) })

	Count("fetcher", "records_fetched", 42, logger.Fields{"asset": "BTC"})

	if len(received) != 1 {
		t.Fatalf("expected 1 metric, got %d", len(received))
	}
	m := received[0]
	if m.Component != "fetcher" || m.Name != "records_fetched" {
		t.Fatalf("unexpected metric identity: %+v", m)
	}
	if m.Value != 42 || m.Type != "counter" {
		t.Fatalf("unexpected metric payload: %+v", m)
	}
	if m.Fields["asset"] != "BTC" {
		t.Fatalf("unexpected metric fields: %v", m.Fields)
	}
}

func TestUnregisterMetricHandlerStopsDelivery(t *testing.T) {
	count := 0
	id := RegisterMetricHandler(func(Metric) { count++ })

	Gauge("store", "assets", 2, nil)
	UnregisterMetricHandler(id)
	Gauge("store", "assets", 3, nil)

	if count != 1 {
		t.Fatalf("expected 1 delivery, got %d", count)
	}
}

func TestRegisterNilHandler(t *testing.T) {
	if id := RegisterMetricHandler(nil); id != 0 {
		t.Fatalf("nil handler should not register, got id %d", id)
	}
	// Unregistering the zero id is a no-op.
	UnregisterMetricHandler(0)
}

func TestTimingCarriesMillisecondUnit(t *testing.T) {
	var got Metric
	id := RegisterMetricHandler(func(m Metric) { got = m })
	t.Cleanup(func() { UnregisterMetricHandler(id) })

	Timing("fetcher", "fetch_all_duration", 1500*time.Millisecond, logger.Fields{"asset": "BTC"})

	if got.Value != 1500 {
		t.Fatalf("value = %v, want 1500 milliseconds", got.Value)
	}
	if got.Type != "timing" {
		t.Fatalf("type = %q, want timing", got.Type)
	}
	if got.Fields["unit"] != "Milliseconds" {
		t.Fatalf("fields = %v, want the Milliseconds unit", got.Fields)
	}
	if got.Fields["asset"] != "BTC" {
		t.Fatalf("caller fields must survive the clone: %v", got.Fields)
	}
}

func TestEmitIgnoresEmptyName(t *testing.T) {
	count := 0
	id := RegisterMetricHandler(func(Metric) { count++ })
	t.Cleanup(func() { UnregisterMetricHandler(id) })

	Count("fetcher", "", 1, nil)

	if count != 0 {
		t.Fatalf("metrics without a name must be dropped, got %d deliveries", count)
	}
}

func TestMetricUnitFromString(t *testing.T) {
	if unit, ok := metricUnitFromString("Milliseconds"); !ok || string(unit) != "Milliseconds" {
		t.Fatalf("Milliseconds should resolve, got %q ok=%v", unit, ok)
	}
	if _, ok := metricUnitFromString("Fortnights"); ok {
		t.Fatalf("unknown units must not resolve")
	}
}
