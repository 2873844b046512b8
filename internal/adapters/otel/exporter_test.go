package otel

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"

	"github.com/emiliopalmerini/mpylon/internal/domain"
	"github.com/emiliopalmerini/mpylon/internal/ports"
)

func collect(t *testing.T, reader *sdkmetric.ManualReader) map[string]metricdata.Aggregation {
	t.Helper()
	var rm metricdata.ResourceMetrics
	require.NoError(t, reader.Collect(context.Background(), &rm))

	out := map[string]metricdata.Aggregation{}
	for _, sm := range rm.ScopeMetrics {
		for _, m := range sm.Metrics {
			out[m.Name] = m.Data
		}
	}
	return out
}

func TestObserver_ObserveRequest(t *testing.T) {
	reader := sdkmetric.NewManualReader()
	obs, err := newObserver(sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader)))
	require.NoError(t, err)
	ctx := context.Background()

	obs.ObserveRequest(ctx, ports.RequestOutcome{
		AnalysisType: domain.FrequencyDistributionType, Target: "fb.author.gender",
		StatusCode: 200, Duration: 250 * time.Millisecond,
	})
	obs.ObserveRequest(ctx, ports.RequestOutcome{
		AnalysisType: domain.FrequencyDistributionType, Target: "fb.author.gender",
		StatusCode: 400, Duration: time.Second, Failed: true, Error: "bad",
	})

	got := collect(t, reader)

	requests, ok := got["mpylon_analyze_requests_total"].(metricdata.Sum[int64])
	require.True(t, ok)
	var total int64
	for _, dp := range requests.DataPoints {
		total += dp.Value
		v, ok := dp.Attributes.Value("analysis_type")
		require.True(t, ok)
		assert.Equal(t, "freqDist", v.AsString())
	}
	assert.Equal(t, int64(2), total)

	failures, ok := got["mpylon_analyze_failures_total"].(metricdata.Sum[int64])
	require.True(t, ok)
	require.Len(t, failures.DataPoints, 1)
	status, _ := failures.DataPoints[0].Attributes.Value("status")
	assert.Equal(t, "400", status.AsString())

	hist, ok := got["mpylon_analyze_duration_seconds"].(metricdata.Histogram[float64])
	require.True(t, ok)
	var count uint64
	for _, dp := range hist.DataPoints {
		count += dp.Count
	}
	assert.Equal(t, uint64(2), count)

	require.NoError(t, obs.Close(ctx))
}

func TestNewObserver_Disabled(t *testing.T) {
	_, err := NewObserver(context.Background(), Config{Enabled: false, Endpoint: "localhost:4317"})
	assert.Error(t, err)

	_, err = NewObserver(context.Background(), Config{Enabled: true})
	assert.Error(t, err)
}

func TestNoOpObserver(t *testing.T) {
	var obs ports.RequestObserver = NewNoOpObserver()
	obs.ObserveRequest(context.Background(), ports.RequestOutcome{})
	assert.NoError(t, obs.Close(context.Background()))
}
