package pylon

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/emiliopalmerini/mpylon/internal/domain"
	"github.com/emiliopalmerini/mpylon/internal/ports"
)

const (
	hashPath     = "/pylon/get"
	identityPath = "/account/identity/"
)

// Config holds the connection settings of a Client.
type Config struct {
	BaseURL        string
	Credentials    Credentials
	Timeout        time.Duration
	// Sequential runs calls one after another instead of concurrently.
	Sequential     bool
	MaxConcurrency int
}

// Client is the facade over the remote analytics service.
type Client struct {
	cfg         Config
	httpClient  *http.Client
	observer    ports.RequestObserver
	dispatchLog ports.DispatchLogRepository
	logger      logrus.FieldLogger
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient replaces the transport built from the credentials.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.httpClient = hc }
}

func WithRequestObserver(o ports.RequestObserver) Option {
	return func(c *Client) { c.observer = o }
}

// WithDispatchLog records every request outcome in repo.
func WithDispatchLog(repo ports.DispatchLogRepository) Option {
	return func(c *Client) { c.dispatchLog = repo }
}

func WithClientLogger(l logrus.FieldLogger) Option {
	return func(c *Client) { c.logger = l }
}

// NewClient creates a client for cfg.
func NewClient(cfg Config, opts ...Option) *Client {
	cfg.BaseURL = strings.TrimRight(cfg.BaseURL, "/")
	c := &Client{cfg: cfg}
	for _, opt := range opts {
		opt(c)
	}
	if c.httpClient == nil {
		c.httpClient = NewHTTPClient(cfg.Credentials)
	}
	if c.logger == nil {
		l := logrus.New()
		l.SetOutput(io.Discard)
		c.logger = l
	}
	return c
}

// NewRequestCollection prepares a dispatch round for analyses using the
// client's settings.
func (c *Client) NewRequestCollection(analyses *domain.AnalysisCollection) *RequestCollection {
	opts := []CollectionOption{
		WithParallel(!c.cfg.Sequential),
		WithMaxConcurrency(c.cfg.MaxConcurrency),
		WithTimeout(c.cfg.Timeout),
		WithLogger(c.logger),
	}
	if c.observer != nil {
		opts = append(opts, WithObserver(c.observer))
	}
	return NewRequestCollection(c.httpClient, c.cfg.BaseURL, c.cfg.Credentials, analyses, opts...)
}

// AnalyzeMulti dispatches every analysis of the collection and attaches the
// results in place. When any request fails it returns a *domain.RemoteAPIError
// whose message is the first failure; the others are kept in Messages.
func (c *Client) AnalyzeMulti(ctx context.Context, analyses *domain.AnalysisCollection) (*domain.AnalysisCollection, error) {
	requests := c.NewRequestCollection(analyses)
	if err := requests.Dispatch(ctx); err != nil {
		return nil, err
	}

	c.recordDispatch(ctx, requests.Outcomes())

	if requests.HasErrors() {
		return nil, domain.NewRemoteAPIError(requests.Errors()...)
	}
	return analyses, nil
}

// Analyze runs a single analysis.
func (c *Client) Analyze(ctx context.Context, analysis domain.Analysis) (domain.Analysis, error) {
	if _, err := c.AnalyzeMulti(ctx, domain.NewAnalysisCollection("", analysis)); err != nil {
		return nil, err
	}
	return analysis, nil
}

// AnalyzeGroup dispatches each collection of the group in turn. A failing
// collection does not stop the next one; the first error is returned.
func (c *Client) AnalyzeGroup(ctx context.Context, group *domain.AnalysisGroup) error {
	var first error
	for _, coll := range group.Collections() {
		if _, err := c.AnalyzeMulti(ctx, coll); err != nil {
			c.logger.WithError(err).WithField("collection", coll.Title).Warn("collection dispatch failed")
			if first == nil {
				first = fmt.Errorf("collection %q: %w", coll.Title, err)
			}
		}
	}
	return first
}

func (c *Client) recordDispatch(ctx context.Context, outcomes []ports.RequestOutcome) {
	if c.dispatchLog == nil || len(outcomes) == 0 {
		return
	}

	now := time.Now().UTC()
	records := make([]*domain.DispatchRecord, len(outcomes))
	for i, o := range outcomes {
		rec := &domain.DispatchRecord{
			ID:           o.RequestID,
			Hash:         o.Hash,
			AnalysisType: o.AnalysisType,
			Target:       o.Target,
			StatusCode:   o.StatusCode,
			Duration:     o.Duration,
			CreatedAt:    now,
		}
		if o.Failed {
			msg := o.Error
			rec.Error = &msg
		}
		records[i] = rec
	}

	if err := c.dispatchLog.Record(ctx, records); err != nil {
		c.logger.WithError(err).Warn("failed to record dispatch log")
	}
}

// HashExists reports whether the remote service knows the subscription hash.
// A not-found answer is a normal false result.
func (c *Client) HashExists(ctx context.Context, hash string) (bool, error) {
	q := url.Values{}
	q.Set("id", hash)
	return c.exists(ctx, hashPath+"?"+q.Encode())
}

// IdentityExists reports whether the identity is present on the account.
func (c *Client) IdentityExists(ctx context.Context, id string) (bool, error) {
	return c.exists(ctx, identityPath+url.PathEscape(id))
}

func (c *Client) exists(ctx context.Context, path string) (bool, error) {
	if c.cfg.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.cfg.Timeout)
		defer cancel()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.cfg.BaseURL+path, nil)
	if err != nil {
		return false, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Authorization", c.cfg.Credentials.Authorization())
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return false, fmt.Errorf("executing request: %w", err)
	}
	defer resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusOK:
		return true, nil
	case http.StatusNotFound:
		return false, nil
	default:
		h := &Handle{status: resp.StatusCode}
		h.body, _ = io.ReadAll(resp.Body)
		return false, domain.NewRemoteAPIError(failureMessage(h))
	}
}
