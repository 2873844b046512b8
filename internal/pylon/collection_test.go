package pylon

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	logtest "github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/emiliopalmerini/mpylon/internal/domain"
	"github.com/emiliopalmerini/mpylon/internal/ports"
)

// targetOf extracts the root target from an analyze payload.
func targetOf(t *testing.T, r *http.Request) string {
	t.Helper()
	var body struct {
		Parameters struct {
			Parameters struct {
				Target string `json:"target"`
			} `json:"parameters"`
		} `json:"parameters"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		t.Errorf("decoding request body: %v", err)
	}
	return body.Parameters.Parameters.Target
}

func collectionOf(t *testing.T, targets ...string) *domain.AnalysisCollection {
	t.Helper()
	c := domain.NewAnalysisCollection("test")
	for _, target := range targets {
		c.Add(freqDist(t, target, nil, domain.Recording{Hash: "h"}))
	}
	return c
}

type recordingObserver struct {
	mu       sync.Mutex
	outcomes []ports.RequestOutcome
}

func (o *recordingObserver) ObserveRequest(_ context.Context, out ports.RequestOutcome) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.outcomes = append(o.outcomes, out)
}

func (o *recordingObserver) Close(context.Context) error { return nil }

func TestRequestCollection_PartialFailureIsolation(t *testing.T) {
	for _, parallel := range []bool{true, false} {
		t.Run(map[bool]string{true: "concurrent", false: "sequential"}[parallel], func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				target := targetOf(t, r)
				if target == "b" {
					w.WriteHeader(http.StatusInternalServerError)
					return
				}
				_ = json.NewEncoder(w).Encode(map[string]any{"target": target})
			}))
			defer srv.Close()

			analyses := collectionOf(t, "a", "b", "c")
			obs := &recordingObserver{}
			rc := NewRequestCollection(srv.Client(), srv.URL, testCreds(), analyses,
				WithParallel(parallel), WithObserver(obs))

			require.NoError(t, rc.Dispatch(context.Background()))

			items := analyses.Analyses()
			assert.Equal(t, map[string]any{"target": "a"}, items[0].Base().Results)
			assert.Nil(t, items[1].Base().Results)
			assert.Equal(t, map[string]any{"target": "c"}, items[2].Base().Results)

			assert.True(t, rc.HasErrors())
			assert.Equal(t, []string{UnknownErrorMessage}, rc.Errors())
			assert.True(t, rc.Requests()[1].HasError())

			require.Len(t, obs.outcomes, 3)
			assert.Equal(t, http.StatusInternalServerError, obs.outcomes[1].StatusCode)
			assert.True(t, obs.outcomes[1].Failed)
			assert.Equal(t, "h", obs.outcomes[0].Hash)
		})
	}
}

func TestRequestCollection_BuildsOneRequestPerAnalysisInOrder(t *testing.T) {
	analyses := collectionOf(t, "x", "y", "z")
	rc := NewRequestCollection(http.DefaultClient, "http://example.test", testCreds(), analyses)

	require.Len(t, rc.Requests(), 3)
	for i, r := range rc.Requests() {
		assert.Same(t, analyses.Analyses()[i], r.Analysis())
	}
	assert.True(t, rc.Parallel())
}

func TestRequestCollection_ErrorMessages(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch targetOf(t, r) {
		case "slow":
			time.Sleep(50 * time.Millisecond)
			w.WriteHeader(http.StatusBadRequest)
			_, _ = w.Write([]byte(`{"error":"A"}`))
		case "fast":
			w.WriteHeader(http.StatusForbidden)
			_, _ = w.Write([]byte(`{"error":"B"}`))
		case "empty":
			w.WriteHeader(http.StatusBadGateway)
			_, _ = w.Write([]byte(`{"error":""}`))
		case "garbled":
			_, _ = w.Write([]byte(`{not json`))
		}
	}))
	defer srv.Close()

	rc := NewRequestCollection(srv.Client(), srv.URL, testCreds(), collectionOf(t, "slow", "fast", "empty", "garbled"))
	require.NoError(t, rc.Dispatch(context.Background()))

	errs := rc.Errors()
	require.Len(t, errs, 4)
	assert.Equal(t, "A", errs[0])
	assert.Equal(t, "B", errs[1])
	assert.Equal(t, UnknownErrorMessage, errs[2])
	assert.Contains(t, errs[3], "Unable to decode")
}

func TestRequestCollection_ConcurrentDispatchOverlapsCalls(t *testing.T) {
	const n = 4
	var arrived atomic.Int32
	all := make(chan struct{})

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if arrived.Add(1) == n {
			close(all)
		}
		select {
		case <-all:
			_, _ = w.Write([]byte(`{"overlapped":true}`))
		case <-time.After(2 * time.Second):
			w.WriteHeader(http.StatusGatewayTimeout)
		}
	}))
	defer srv.Close()

	analyses := collectionOf(t, "a", "b", "c", "d")
	rc := NewRequestCollection(srv.Client(), srv.URL, testCreds(), analyses)
	require.NoError(t, rc.Dispatch(context.Background()))

	assert.False(t, rc.HasErrors(), "errors: %v", rc.Errors())
	for _, a := range analyses.Analyses() {
		assert.Equal(t, map[string]any{"overlapped": true}, a.Base().Results)
	}
}

func TestRequestCollection_MaxConcurrency(t *testing.T) {
	var inFlight, peak atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		cur := inFlight.Add(1)
		defer inFlight.Add(-1)
		for {
			p := peak.Load()
			if cur <= p || peak.CompareAndSwap(p, cur) {
				break
			}
		}
		time.Sleep(20 * time.Millisecond)
		_, _ = w.Write([]byte(`{}`))
	}))
	defer srv.Close()

	rc := NewRequestCollection(srv.Client(), srv.URL, testCreds(), collectionOf(t, "a", "b", "c", "d", "e"),
		WithMaxConcurrency(2))
	require.NoError(t, rc.Dispatch(context.Background()))

	assert.False(t, rc.HasErrors())
	assert.LessOrEqual(t, peak.Load(), int32(2))
}

func TestRequestCollection_TimeoutIsDeliveredAsError(t *testing.T) {
	release := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if targetOf(t, r) == "hung" {
			select {
			case <-release:
			case <-r.Context().Done():
			}
			return
		}
		_, _ = w.Write([]byte(`{"ok":true}`))
	}))
	defer srv.Close()
	defer close(release)

	logger, hook := logtest.NewNullLogger()
	analyses := collectionOf(t, "ok", "hung")
	rc := NewRequestCollection(srv.Client(), srv.URL, testCreds(), analyses,
		WithTimeout(100*time.Millisecond), WithLogger(logger))
	require.NoError(t, rc.Dispatch(context.Background()))

	assert.Equal(t, []string{TimeoutErrorMessage}, rc.Errors())
	assert.Equal(t, map[string]any{"ok": true}, analyses.Analyses()[0].Base().Results)

	var warned bool
	for _, e := range hook.AllEntries() {
		if e.Level == logrus.WarnLevel && e.Message == TimeoutErrorMessage {
			warned = true
			assert.Equal(t, "hung", e.Data["target"])
		}
	}
	assert.True(t, warned)
}

func TestRequestCollection_InvalidPayloadMakesNoCalls(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
	}))
	defer srv.Close()

	analyses := collectionOf(t, "a")
	analyses.Add(freqDist(t, "orphan", nil, nil))

	rc := NewRequestCollection(srv.Client(), srv.URL, testCreds(), analyses)
	err := rc.Dispatch(context.Background())

	assert.ErrorIs(t, err, domain.ErrInvalidParameters)
	assert.Zero(t, calls.Load())
	for _, r := range rc.Requests() {
		assert.Nil(t, r.handle)
	}
}

func TestRequestCollection_ReleasesEveryHandle(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if targetOf(t, r) == "bad" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		_, _ = w.Write([]byte(`[]`))
	}))
	defer srv.Close()

	rc := NewRequestCollection(srv.Client(), srv.URL, testCreds(), collectionOf(t, "good", "bad"))
	require.NoError(t, rc.Dispatch(context.Background()))

	for _, r := range rc.Requests() {
		assert.Nil(t, r.handle)
	}
	assert.Len(t, rc.Outcomes(), 2)
}
