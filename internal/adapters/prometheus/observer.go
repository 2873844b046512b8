package prometheus

import (
	"context"
	"fmt"
	"strconv"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/push"

	"github.com/emiliopalmerini/mpylon/internal/ports"
)

var labels = []string{"analysis_type", "target", "status"}

// Observer counts analyze requests in its own registry and pushes them to
// a Pushgateway on Close when one is configured.
type Observer struct {
	registry *prometheus.Registry
	requests *prometheus.CounterVec
	failures *prometheus.CounterVec
	duration *prometheus.HistogramVec
	pusher   *push.Pusher
}

func NewObserver(cfg Config) (*Observer, error) {
	if !cfg.Enabled {
		return nil, fmt.Errorf("Prometheus observer is disabled")
	}

	o := &Observer{
		registry: prometheus.NewRegistry(),
		requests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "mpylon",
			Name:      "analyze_requests_total",
			Help:      "Analyze requests dispatched.",
		}, labels),
		failures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "mpylon",
			Name:      "analyze_failures_total",
			Help:      "Analyze requests that ended in error.",
		}, labels),
		duration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "mpylon",
			Name:      "analyze_duration_seconds",
			Help:      "Analyze request round trip in seconds.",
			Buckets:   prometheus.ExponentialBuckets(0.05, 2, 10),
		}, []string{"analysis_type", "status"}),
	}
	o.registry.MustRegister(o.requests, o.failures, o.duration)

	if cfg.PushgatewayURL != "" {
		o.pusher = push.New(cfg.PushgatewayURL, cfg.Job).Gatherer(o.registry)
	}
	return o, nil
}

// Registry exposes the collectors, for serving or inspection.
func (o *Observer) Registry() *prometheus.Registry {
	return o.registry
}

func (o *Observer) ObserveRequest(_ context.Context, out ports.RequestOutcome) {
	status := strconv.Itoa(out.StatusCode)
	o.requests.WithLabelValues(string(out.AnalysisType), out.Target, status).Inc()
	if out.Failed {
		o.failures.WithLabelValues(string(out.AnalysisType), out.Target, status).Inc()
	}
	o.duration.WithLabelValues(string(out.AnalysisType), status).Observe(out.Duration.Seconds())
}

// Close pushes the collected metrics when a Pushgateway is configured.
func (o *Observer) Close(ctx context.Context) error {
	if o.pusher == nil {
		return nil
	}
	if err := o.pusher.AddContext(ctx); err != nil {
		return fmt.Errorf("pushing metrics: %w", err)
	}
	return nil
}
