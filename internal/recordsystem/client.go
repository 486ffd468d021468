// Package recordsystem is the REST client for the external record system's
// Table API.
package recordsystem

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"
	"sync"
	"time"

	"bloom-portal/internal/config"
	"bloom-portal/internal/logger"

	"github.com/go-resty/resty/v2"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Client issues authenticated calls against the record system
type Client interface {
	Get(ctx context.Context, endpoint string, out interface{}, opts ...RequestOption) error
	Post(ctx context.Context, endpoint string, body, out interface{}, opts ...RequestOption) error
	Put(ctx context.Context, endpoint string, body, out interface{}, opts ...RequestOption) error
	Patch(ctx context.Context, endpoint string, body, out interface{}, opts ...RequestOption) error
	Delete(ctx context.Context, endpoint string, out interface{}, opts ...RequestOption) error
	SetAuthToken(token string)
	AuthToken() string
}

// RequestOption customizes a single request
type RequestOption func(*resty.Request)

// WithQuery adds a query parameter to the request.
func WithQuery(key, value string) RequestOption {
	return func(r *resty.Request) {
		r.SetQueryParam(key, value)
	}
}

// WithQueryParams adds several query parameters to the request.
func WithQueryParams(params map[string]string) RequestOption {
	return func(r *resty.Request) {
		r.SetQueryParams(params)
	}
}

type restClient struct {
	http        *resty.Client
	credentials CredentialStore
	logger      *logger.Logger

	mu    sync.RWMutex
	token string

	requestCounter  *prometheus.CounterVec
	requestDuration *prometheus.HistogramVec
}

// NewClient builds a record-system client from cfg. Only HTTP 429 is
// retried, once, after the configured fixed backoff.
func NewClient(cfg *config.RecordSystemConfig, credentials CredentialStore, log *logger.Logger, registerer prometheus.Registerer) Client {
	backoff := cfg.BackoffDuration()
	timeout := cfg.TimeoutDuration()
	if timeout <= 0 {
		timeout = 30 * time.Second
	}

	factory := promauto.With(registerer)
	c := &restClient{
		credentials: credentials,
		logger:      log,
		requestCounter: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "record_system_requests_total",
			Help: "Total number of record system requests",
		}, []string{"method", "status"}),
		requestDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "record_system_request_duration_seconds",
			Help:    "Record system request latency",
			Buckets: prometheus.DefBuckets,
		}, []string{"method"}),
	}

	c.http = resty.New().
		SetBaseURL(cfg.BaseURL).
		SetTimeout(timeout).
		SetHeader("Content-Type", "application/json").
		SetHeader("Accept", "application/json").
		SetQueryParam("sysparm_display_value", "true").
		SetQueryParam("sysparm_exclude_reference_link", "true").
		SetRetryCount(1).
		SetRetryWaitTime(backoff).
		SetRetryMaxWaitTime(backoff).
		SetRetryAfter(func(*resty.Client, *resty.Response) (time.Duration, error) {
			return backoff, nil
		}).
		AddRetryCondition(func(r *resty.Response, err error) bool {
			return err == nil && r != nil && r.StatusCode() == http.StatusTooManyRequests
		}).
		SetLogger(log.WithField("component", "record_system")).
		OnBeforeRequest(c.authorize)

	return c
}

// authorize attaches the bearer token, or the stored basic credential when
// no token is held.
func (c *restClient) authorize(_ *resty.Client, r *resty.Request) error {
	if token := c.AuthToken(); token != "" {
		r.SetHeader("Authorization", "Bearer "+token)
		return nil
	}
	if c.credentials == nil {
		return nil
	}
	credential, err := c.credentials.Credential(r.Context())
	if err != nil {
		c.logger.WithError(err).Warn("Failed to read record system credential")
		return nil
	}
	if credential != "" {
		r.SetHeader("Authorization", "Basic "+credential)
	}
	return nil
}

func (c *restClient) SetAuthToken(token string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.token = token
}

func (c *restClient) AuthToken() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.token
}

func (c *restClient) Get(ctx context.Context, endpoint string, out interface{}, opts ...RequestOption) error {
	return c.do(ctx, resty.MethodGet, endpoint, nil, out, opts)
}

func (c *restClient) Post(ctx context.Context, endpoint string, body, out interface{}, opts ...RequestOption) error {
	return c.do(ctx, resty.MethodPost, endpoint, body, out, opts)
}

func (c *restClient) Put(ctx context.Context, endpoint string, body, out interface{}, opts ...RequestOption) error {
	return c.do(ctx, resty.MethodPut, endpoint, body, out, opts)
}

func (c *restClient) Patch(ctx context.Context, endpoint string, body, out interface{}, opts ...RequestOption) error {
	return c.do(ctx, resty.MethodPatch, endpoint, body, out, opts)
}

func (c *restClient) Delete(ctx context.Context, endpoint string, out interface{}, opts ...RequestOption) error {
	return c.do(ctx, resty.MethodDelete, endpoint, nil, out, opts)
}

func (c *restClient) do(ctx context.Context, method, endpoint string, body, out interface{}, opts []RequestOption) error {
	start := time.Now()

	req := c.http.R().SetContext(ctx)
	if body != nil {
		req.SetBody(body)
	}
	for _, opt := range opts {
		opt(req)
	}

	resp, err := req.Execute(method, endpoint)
	c.requestDuration.WithLabelValues(method).Observe(time.Since(start).Seconds())

	if err != nil {
		c.requestCounter.WithLabelValues(method, "error").Inc()
		c.logger.WithError(err).WithFields(map[string]interface{}{
			"method":   method,
			"endpoint": endpoint,
		}).Error("Record system request failed")
		return &APIError{Kind: KindTransport, Message: defaultErrorMessage, Err: err}
	}

	status := resp.StatusCode()
	c.requestCounter.WithLabelValues(method, strconv.Itoa(status)).Inc()

	if resp.IsError() || status < 200 || status >= 300 {
		apiErr := c.classify(resp)
		c.logger.WithFields(map[string]interface{}{
			"method":   method,
			"endpoint": endpoint,
			"status":   status,
			"kind":     apiErr.Kind,
		}).Warn("Record system returned an error")
		return apiErr
	}

	if out == nil || len(resp.Body()) == 0 {
		return nil
	}
	if err := json.Unmarshal(resp.Body(), out); err != nil {
		return &APIError{
			Kind:    KindUpstream,
			Message: "failed to decode record system response",
			Status:  status,
			Err:     err,
		}
	}
	return nil
}

func (c *restClient) classify(resp *resty.Response) *APIError {
	apiErr := &APIError{Kind: KindUpstream, Message: defaultErrorMessage, Status: resp.StatusCode()}

	var envelope errorEnvelope
	if err := json.Unmarshal(resp.Body(), &envelope); err == nil {
		if envelope.Error.Message != "" {
			apiErr.Message = envelope.Error.Message
		}
		apiErr.Code = envelope.Error.Code
	}

	switch resp.StatusCode() {
	case http.StatusUnauthorized:
		// The held token is unusable; later calls fall back to basic auth.
		c.SetAuthToken("")
		apiErr.Kind = KindUnauthenticated
	case http.StatusTooManyRequests:
		apiErr.Kind = KindRateLimited
	}
	return apiErr
}
