package prometheus

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/emiliopalmerini/mpylon/internal/domain"
	"github.com/emiliopalmerini/mpylon/internal/ports"
)

func TestObserver_CountsRequests(t *testing.T) {
	obs, err := NewObserver(Config{Enabled: true})
	require.NoError(t, err)
	ctx := context.Background()

	obs.ObserveRequest(ctx, ports.RequestOutcome{
		AnalysisType: domain.FrequencyDistributionType, Target: "fb.author.gender",
		StatusCode: 200, Duration: 100 * time.Millisecond,
	})
	obs.ObserveRequest(ctx, ports.RequestOutcome{
		AnalysisType: domain.FrequencyDistributionType, Target: "fb.author.gender",
		StatusCode: 200, Duration: 300 * time.Millisecond,
	})
	obs.ObserveRequest(ctx, ports.RequestOutcome{
		AnalysisType: domain.TimeSeriesType, Target: "time",
		StatusCode: 0, Duration: time.Second, Failed: true, Error: "timeout",
	})

	assert.Equal(t, float64(2), testutil.ToFloat64(obs.requests.WithLabelValues("freqDist", "fb.author.gender", "200")))
	assert.Equal(t, float64(1), testutil.ToFloat64(obs.failures.WithLabelValues("timeSeries", "time", "0")))
	assert.Equal(t, 2, testutil.CollectAndCount(obs.requests))

	expected := `
# HELP mpylon_analyze_failures_total Analyze requests that ended in error.
# TYPE mpylon_analyze_failures_total counter
mpylon_analyze_failures_total{analysis_type="timeSeries",status="0",target="time"} 1
`
	require.NoError(t, testutil.GatherAndCompare(obs.Registry(), strings.NewReader(expected), "mpylon_analyze_failures_total"))

	// no pushgateway configured
	assert.NoError(t, obs.Close(ctx))
}

func TestObserver_PushesOnClose(t *testing.T) {
	var pushes atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Contains(t, r.URL.Path, "/metrics/job/analyze")
		pushes.Add(1)
		w.WriteHeader(http.StatusAccepted)
	}))
	defer srv.Close()

	obs, err := NewObserver(Config{Enabled: true, PushgatewayURL: srv.URL, Job: "analyze"})
	require.NoError(t, err)

	obs.ObserveRequest(context.Background(), ports.RequestOutcome{AnalysisType: domain.FrequencyDistributionType, StatusCode: 200})
	require.NoError(t, obs.Close(context.Background()))
	assert.Equal(t, int32(1), pushes.Load())
}

func TestObserver_PushFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	obs, err := NewObserver(Config{Enabled: true, PushgatewayURL: srv.URL, Job: "analyze"})
	require.NoError(t, err)
	assert.ErrorContains(t, obs.Close(context.Background()), "pushing metrics")
}

func TestNewObserver_Disabled(t *testing.T) {
	_, err := NewObserver(Config{})
	assert.Error(t, err)
}
