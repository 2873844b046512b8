package pylon

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"github.com/emiliopalmerini/mpylon/internal/domain"
	"github.com/emiliopalmerini/mpylon/internal/ports"
)

// UnknownErrorMessage is recorded when a failed call carries no message.
const UnknownErrorMessage = "An unknown error occurred, please try again shortly"

// TimeoutErrorMessage is recorded when a call exceeds its timeout.
const TimeoutErrorMessage = "The analysis request timed out, please try again shortly"

// RequestCollection dispatches one request per analysis of a collection and
// gathers the per-request outcomes. A failing request never aborts its
// siblings.
type RequestCollection struct {
	requests []*AnalyzeRequest
	client   *http.Client

	parallel       bool
	maxConcurrency int
	timeout        time.Duration
	observer       ports.RequestObserver
	logger         logrus.FieldLogger

	outcomes []ports.RequestOutcome
}

// CollectionOption configures a RequestCollection.
type CollectionOption func(*RequestCollection)

// WithParallel selects concurrent (true) or sequential (false) dispatch.
func WithParallel(parallel bool) CollectionOption {
	return func(c *RequestCollection) { c.parallel = parallel }
}

// WithMaxConcurrency bounds in-flight calls in concurrent mode. Zero means unbounded.
func WithMaxConcurrency(n int) CollectionOption {
	return func(c *RequestCollection) { c.maxConcurrency = n }
}

// WithTimeout bounds each call. Zero disables the per-call timeout.
func WithTimeout(d time.Duration) CollectionOption {
	return func(c *RequestCollection) { c.timeout = d }
}

func WithObserver(o ports.RequestObserver) CollectionOption {
	return func(c *RequestCollection) { c.observer = o }
}

func WithLogger(l logrus.FieldLogger) CollectionOption {
	return func(c *RequestCollection) { c.logger = l }
}

// NewRequestCollection builds one request per analysis, in order.
// Dispatch is concurrent unless WithParallel(false) is given.
func NewRequestCollection(client *http.Client, baseURL string, creds Credentials, analyses *domain.AnalysisCollection, opts ...CollectionOption) *RequestCollection {
	c := &RequestCollection{
		client:   client,
		parallel: true,
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.logger == nil {
		l := logrus.New()
		l.SetOutput(io.Discard)
		c.logger = l
	}

	for _, a := range analyses.Analyses() {
		c.requests = append(c.requests, NewAnalyzeRequest(baseURL, creds, a))
	}
	return c
}

// Requests returns the requests in analysis order.
func (c *RequestCollection) Requests() []*AnalyzeRequest {
	return c.requests
}

func (c *RequestCollection) Parallel() bool {
	return c.parallel
}

// Dispatch runs every request and attaches decoded results to the analyses
// that succeeded. Remote failures are recorded on their request and read
// back with HasErrors and Errors. The returned error is reserved for
// payloads that cannot be built; in that case no call is made.
func (c *RequestCollection) Dispatch(ctx context.Context) error {
	defer c.closeAll()

	for _, r := range c.requests {
		if _, err := r.Handle(ctx); err != nil {
			return fmt.Errorf("building request for %q: %w", r.analysis.Base().Target, err)
		}
	}

	if c.parallel {
		c.runConcurrent()
	} else {
		c.runSequential()
	}

	c.collect(ctx)
	return nil
}

func (c *RequestCollection) runSequential() {
	for _, r := range c.requests {
		r.handle.Do(c.client, c.timeout)
	}
}

func (c *RequestCollection) runConcurrent() {
	var g errgroup.Group
	if c.maxConcurrency > 0 {
		g.SetLimit(c.maxConcurrency)
	}
	for _, r := range c.requests {
		g.Go(func() error {
			r.handle.Do(c.client, c.timeout)
			return nil
		})
	}
	_ = g.Wait()
}

// collect inspects each finished call in request order.
func (c *RequestCollection) collect(ctx context.Context) {
	c.outcomes = make([]ports.RequestOutcome, 0, len(c.requests))

	for _, r := range c.requests {
		h := r.handle
		base := r.analysis.Base()

		if h.Err() == nil && h.StatusCode() == http.StatusOK {
			var results any
			if err := json.Unmarshal(h.ResponseBody(), &results); err != nil {
				r.SetError(fmt.Sprintf("Unable to decode the analysis response: %v", err))
			} else {
				base.Results = results
			}
		} else {
			r.SetError(failureMessage(h))
		}

		outcome := ports.RequestOutcome{
			RequestID:    r.ID(),
			Hash:         base.Recording.RemoteRecordingID(),
			AnalysisType: r.analysis.Type(),
			Target:       base.Target,
			StatusCode:   h.StatusCode(),
			Duration:     h.Duration(),
			Failed:       r.HasError(),
			Error:        r.Error(),
		}
		c.outcomes = append(c.outcomes, outcome)

		entry := c.logger.WithFields(logrus.Fields{
			"request_id":    outcome.RequestID,
			"analysis_type": outcome.AnalysisType,
			"target":        outcome.Target,
			"status":        outcome.StatusCode,
			"duration":      outcome.Duration,
		})
		if r.HasError() {
			if h.Err() != nil {
				entry = entry.WithError(h.Err())
			}
			entry.Warn(r.Error())
		} else {
			entry.Debug("analysis completed")
		}

		if c.observer != nil {
			c.observer.ObserveRequest(ctx, outcome)
		}
	}
}

// failureMessage picks the message reported for an unsuccessful call.
func failureMessage(h *Handle) string {
	if err := h.Err(); err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			return TimeoutErrorMessage
		}
		return UnknownErrorMessage
	}

	var payload struct {
		Error string `json:"error"`
	}
	if err := json.Unmarshal(h.ResponseBody(), &payload); err == nil && payload.Error != "" {
		return payload.Error
	}
	return UnknownErrorMessage
}

func (c *RequestCollection) closeAll() {
	for _, r := range c.requests {
		r.Close()
	}
}

// HasErrors reports whether any request failed in the last dispatch.
func (c *RequestCollection) HasErrors() bool {
	for _, r := range c.requests {
		if r.HasError() {
			return true
		}
	}
	return false
}

// Errors returns the failure messages in request order.
func (c *RequestCollection) Errors() []string {
	var out []string
	for _, r := range c.requests {
		if r.HasError() {
			out = append(out, r.Error())
		}
	}
	return out
}

// Outcomes returns one outcome per request from the last dispatch.
func (c *RequestCollection) Outcomes() []ports.RequestOutcome {
	return c.outcomes
}
