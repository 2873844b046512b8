package pylon

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/emiliopalmerini/mpylon/internal/domain"
)

const analyzePath = "/pylon/analyze"

// Body is the JSON payload of an analyze call.
type Body struct {
	Hash       string         `json:"hash"`
	Parameters map[string]any `json:"parameters"`
	Filter     string         `json:"filter,omitempty"`
	Start      *int64         `json:"start,omitempty"`
	End        *int64         `json:"end,omitempty"`
}

// AnalyzeRequest wraps exactly one top-level analysis and the lifecycle of
// the single network call made for it. Child analyses travel inside the
// payload.
type AnalyzeRequest struct {
	id       string
	endpoint string
	creds    Credentials
	analysis domain.Analysis
	handle   *Handle

	hasError bool
	err      string
}

// NewAnalyzeRequest creates a request posting analysis to baseURL.
func NewAnalyzeRequest(baseURL string, creds Credentials, analysis domain.Analysis) *AnalyzeRequest {
	return &AnalyzeRequest{
		id:       uuid.NewString(),
		endpoint: baseURL + analyzePath,
		creds:    creds,
		analysis: analysis,
	}
}

func (r *AnalyzeRequest) ID() string {
	return r.id
}

func (r *AnalyzeRequest) Analysis() domain.Analysis {
	return r.analysis
}

// SetError marks the request as failed. It cannot be undone.
func (r *AnalyzeRequest) SetError(message string) {
	r.hasError = true
	r.err = message
}

func (r *AnalyzeRequest) HasError() bool {
	return r.hasError
}

// Error returns the recorded failure message, if any.
func (r *AnalyzeRequest) Error() string {
	return r.err
}

// Body builds the payload for the wrapped analysis. No network call is made.
func (r *AnalyzeRequest) Body() (*Body, error) {
	base := r.analysis.Base()
	if base.Recording == nil {
		return nil, fmt.Errorf("%w: analysis %q has no recording", domain.ErrInvalidParameters, base.Target)
	}

	tree, err := buildParameters(r.analysis)
	if err != nil {
		return nil, err
	}
	params, err := normalizeParameters(tree)
	if err != nil {
		return nil, err
	}

	return &Body{
		Hash:       base.Recording.RemoteRecordingID(),
		Parameters: params,
		Filter:     base.Filter,
		Start:      base.Start,
		End:        base.End,
	}, nil
}

// buildParameters walks the child chain, nesting each child under "child".
func buildParameters(a domain.Analysis) (map[string]any, error) {
	node := map[string]any{"analysis_type": string(a.Type())}

	switch a.Type() {
	case domain.FrequencyDistributionType:
		fd, ok := a.(*domain.FrequencyDistribution)
		if !ok {
			return nil, fmt.Errorf("%w: %T reports type %s", domain.ErrInvalidParameters, a, a.Type())
		}
		p := map[string]any{"target": fd.Target}
		if fd.Threshold != nil {
			p["threshold"] = *fd.Threshold
		}
		node["parameters"] = p
	case domain.TimeSeriesType:
		ts, ok := a.(*domain.TimeSeries)
		if !ok {
			return nil, fmt.Errorf("%w: %T reports type %s", domain.ErrInvalidParameters, a, a.Type())
		}
		p := map[string]any{"interval": ts.Interval}
		if ts.Span != nil {
			p["span"] = *ts.Span
		}
		node["parameters"] = p
	default:
		return nil, fmt.Errorf("%w: unknown analysis type %q", domain.ErrInvalidParameters, a.Type())
	}

	if child := a.Base().Child; child != nil {
		c, err := buildParameters(child)
		if err != nil {
			return nil, err
		}
		node["child"] = c
	}
	return node, nil
}

// normalizeParameters accepts a structured map or JSON text and rejects
// anything that ends up empty.
func normalizeParameters(v any) (map[string]any, error) {
	var (
		out map[string]any
		raw []byte
	)
	switch p := v.(type) {
	case map[string]any:
		out = p
	case string:
		raw = []byte(p)
	case []byte:
		raw = p
	case json.RawMessage:
		raw = p
	}
	if raw != nil {
		if err := json.Unmarshal(raw, &out); err != nil {
			return nil, fmt.Errorf("%w: decoding parameters: %w", domain.ErrInvalidParameters, err)
		}
	}
	if len(out) == 0 {
		return nil, fmt.Errorf("%w: parameters are empty", domain.ErrInvalidParameters)
	}
	return out, nil
}

// Handle returns the outbound call for this request, creating it on first
// use. The handle is bound to ctx; release it with Close.
func (r *AnalyzeRequest) Handle(ctx context.Context) (*Handle, error) {
	if r.handle != nil {
		return r.handle, nil
	}

	body, err := r.Body()
	if err != nil {
		return nil, err
	}
	payload, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("encoding body: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, r.endpoint, bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Authorization", r.creds.Authorization())
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	r.handle = &Handle{req: req}
	return r.handle, nil
}

// Close releases the handle. Calling it more than once is a no-op.
func (r *AnalyzeRequest) Close() {
	if r.handle == nil {
		return
	}
	r.handle.release()
	r.handle = nil
}

// Handle is one outbound call and, once performed, its outcome.
type Handle struct {
	req *http.Request

	done     bool
	status   int
	body     []byte
	err      error
	duration time.Duration
}

// Request returns the prepared HTTP request.
func (h *Handle) Request() *http.Request {
	return h.req
}

// Do performs the call with client and records the outcome. A positive
// timeout bounds the whole call, body included. The response body is read
// fully and closed before Do returns.
func (h *Handle) Do(client *http.Client, timeout time.Duration) {
	start := time.Now()
	defer func() {
		h.duration = time.Since(start)
		h.done = true
	}()

	req := h.req
	if timeout > 0 {
		ctx, cancel := context.WithTimeout(req.Context(), timeout)
		defer cancel()
		req = req.WithContext(ctx)
	}

	resp, err := client.Do(req)
	if err != nil {
		h.err = err
		return
	}
	defer resp.Body.Close()

	h.status = resp.StatusCode
	h.body, h.err = io.ReadAll(resp.Body)
}

// Done reports whether Do has completed.
func (h *Handle) Done() bool {
	return h.done
}

// StatusCode returns the HTTP status, or 0 when no response arrived.
func (h *Handle) StatusCode() int {
	return h.status
}

func (h *Handle) ResponseBody() []byte {
	return h.body
}

// Err returns the transport error, if any.
func (h *Handle) Err() error {
	return h.err
}

func (h *Handle) Duration() time.Duration {
	return h.duration
}

func (h *Handle) release() {
	h.req = nil
	h.body = nil
}
