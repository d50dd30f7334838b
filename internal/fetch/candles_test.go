package fetch

import (
	"context"
	"errors"
	"testing"

	"optionflow/models"
)

func TestCandleLoaderLoad(t *testing.T) {
	api := &fakeAPI{chart: &models.ChartData{Timestamps: []int64{1000}, Closes: []float64{11}}}
	loader := NewCandleLoader(api, fetchConfig())

	result, fresh := loader.Load(context.Background(), "C-BTC-65000-080824", models.OptionTypeCall)
	if !fresh {
		t.Fatalf("an uncontended load must be fresh")
	}
	if result.Symbol != "C-BTC-65000-080824" || result.OptionType != models.OptionTypeCall {
		t.Errorf("result identity = %+v", result)
	}
	if result.Chart == nil || result.Chart.Timestamps[0] != 1000 {
		t.Errorf("chart missing from result")
	}
}

func TestCandleLoaderFailureDegradesToNilChart(t *testing.T) {
	api := &fakeAPI{candleErrs: map[string]error{"C-BTC-65000-080824": errors.New("timeout")}}
	loader := NewCandleLoader(api, fetchConfig())

	result, fresh := loader.Load(context.Background(), "C-BTC-65000-080824", models.OptionTypeCall)
	if !fresh {
		t.Fatalf("a failed but uncontended load is still fresh")
	}
	if result.Chart != nil {
		t.Errorf("chart should be nil after a fetch failure")
	}
}

func TestCandleLoaderSupersededLoadIsStale(t *testing.T) {
	api := &fakeAPI{chart: &models.ChartData{Timestamps: []int64{1000}}}
	loader := NewCandleLoader(api, fetchConfig())

	// A newer request arrives while the fetch is in flight.
	api.onCandles = func() { loader.seq.Add(1) }

	if _, fresh := loader.Load(context.Background(), "C-BTC-65000-080824", models.OptionTypeCall); fresh {
		t.Fatalf("a superseded load must report stale")
	}

	// With no contention the next load is fresh again.
	api.onCandles = nil
	if _, fresh := loader.Load(context.Background(), "C-BTC-65000-080824", models.OptionTypeCall); !fresh {
		t.Fatalf("expected the follow-up load to be fresh")
	}
}
