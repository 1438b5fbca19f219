// Package upstream issues JSON-over-HTTP calls to third-party APIs
// through the shared request queue, so every outbound call inherits the
// queue's concurrency cap, retry policy, and dedup window.
package upstream

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"go.opentelemetry.io/otel/attribute"

	"github.com/ankitjain91/pmfit-analyzer/internal/logging"
	"github.com/ankitjain91/pmfit-analyzer/internal/metrics"
	"github.com/ankitjain91/pmfit-analyzer/internal/queue"
	"github.com/ankitjain91/pmfit-analyzer/internal/tracing"
)

// Responses larger than this are cut off; none of the APIs we proxy
// return payloads anywhere near it.
const maxResponseBytes = 4 << 20

// Request describes one upstream call.
type Request struct {
	Source  string // logical source name for metrics and logging
	Method  string // defaults to GET
	URL     string
	Query   url.Values
	Header  http.Header
	Body    any  // JSON-marshaled when non-nil
	NoDedup bool // skip the dedup window (non-idempotent calls)
}

// StatusError is a non-2xx upstream response.
type StatusError struct {
	Status int
	Body   string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("upstream status %d: %s", e.Status, e.Body)
}

// HTTPStatus lets the queue classify the failure for retry metrics.
func (e *StatusError) HTTPStatus() int { return e.Status }

type Client struct {
	queue   *queue.Queue
	http    *http.Client
	logger  *logging.Logger
	timeout time.Duration
}

func NewClient(q *queue.Queue, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	return &Client{
		queue:   q,
		http:    &http.Client{Timeout: timeout},
		logger:  logging.New("pmfit-upstream"),
		timeout: timeout,
	}
}

// Invoke runs req through the queue and blocks until it settles.
// Transient failures (network, timeout, 5xx, 429, malformed JSON) consume
// retries per the queue policy; other 4xx responses surface immediately.
func (c *Client) Invoke(ctx context.Context, req Request) (json.RawMessage, error) {
	opts := []queue.AddOption{}
	if !req.NoDedup {
		opts = append(opts, queue.WithKey(dedupKey(req)))
	}
	h := c.queue.Add(ctx, func(ctx context.Context) (any, error) {
		return c.do(ctx, req)
	}, opts...)

	v, err := h.Wait(ctx)
	if err != nil {
		return nil, err
	}
	raw, _ := v.(json.RawMessage)
	return raw, nil
}

// Prefetch warms the dedup window for req at the lowest priority. It
// returns immediately; failures are logged and never reach a caller.
func (c *Client) Prefetch(ctx context.Context, req Request) {
	// The warm call must outlive the request that triggered it.
	bg := context.WithoutCancel(ctx)
	c.queue.Add(bg, func(ctx context.Context) (any, error) {
		raw, err := c.do(ctx, req)
		if err != nil {
			c.logger.WithContext(ctx).WithSource(req.Source).WithError(err).Debug("prefetch attempt failed")
			return nil, err
		}
		return raw, nil
	}, queue.WithPriority(queue.PriorityLow), queue.WithKey(dedupKey(req)))
}

func (c *Client) do(ctx context.Context, req Request) (json.RawMessage, error) {
	method := req.Method
	if method == "" {
		method = http.MethodGet
	}
	target := req.URL
	if len(req.Query) > 0 {
		target += "?" + req.Query.Encode()
	}

	var bodyReader io.Reader
	if req.Body != nil {
		b, err := json.Marshal(req.Body)
		if err != nil {
			return nil, queue.Permanent(fmt.Errorf("marshal request body: %w", err))
		}
		bodyReader = bytes.NewReader(b)
	}

	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	httpReq, err := http.NewRequestWithContext(ctx, method, target, bodyReader)
	if err != nil {
		return nil, queue.Permanent(err)
	}
	httpReq.Header.Set("Accept", "application/json")
	if req.Body != nil {
		httpReq.Header.Set("Content-Type", "application/json")
	}
	for k, vs := range req.Header {
		for _, v := range vs {
			httpReq.Header.Add(k, v)
		}
	}
	tracing.InjectHTTPHeaders(ctx, httpReq.Header)

	ctx, span := tracing.StartSpan(ctx, "upstream.request",
		attribute.String("source", req.Source),
		attribute.String("http.method", method),
		attribute.String("http.url", req.URL),
	)
	defer span.End()

	start := time.Now()
	resp, doErr := c.http.Do(httpReq)
	latency := time.Since(start)
	if doErr != nil {
		metrics.RecordUpstream(req.Source, "network_error", latency)
		tracing.SetSpanError(ctx, doErr)
		return nil, doErr
	}
	defer resp.Body.Close()

	body, readErr := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	span.SetAttributes(
		attribute.Int("http.status_code", resp.StatusCode),
		attribute.Int64("http.latency_ms", latency.Milliseconds()),
	)
	metrics.RecordUpstream(req.Source, statusClass(resp.StatusCode), latency)
	if readErr != nil {
		return nil, readErr
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		serr := &StatusError{Status: resp.StatusCode, Body: truncate(string(body), 160)}
		tracing.SetSpanError(ctx, serr)
		if retryableStatus(resp.StatusCode) {
			return nil, serr
		}
		return nil, queue.Permanent(serr)
	}

	if !json.Valid(body) {
		// Some providers emit truncated JSON under load; worth a retry.
		return nil, fmt.Errorf("invalid JSON response (%d bytes)", len(body))
	}
	return json.RawMessage(body), nil
}

// retryableStatus: 5xx and 429 consume a retry; other 4xx are permanent.
func retryableStatus(status int) bool {
	return status >= 500 || status == http.StatusTooManyRequests
}

func statusClass(status int) string {
	switch {
	case status >= 200 && status < 300:
		return "2xx"
	case status == http.StatusTooManyRequests:
		return "429"
	case status >= 400 && status < 500:
		return "4xx"
	case status >= 500:
		return "5xx"
	default:
		return "other"
	}
}

// dedupKey hashes the logical request: method, URL, sorted query, and
// canonical JSON body. Two requests with the same key are the same call.
func dedupKey(req Request) string {
	h := sha256.New()
	method := req.Method
	if method == "" {
		method = http.MethodGet
	}
	io.WriteString(h, method)
	io.WriteString(h, "\n")
	io.WriteString(h, req.URL)
	io.WriteString(h, "\n")
	io.WriteString(h, req.Query.Encode()) // Encode sorts keys
	io.WriteString(h, "\n")
	if req.Body != nil {
		if b, err := json.Marshal(req.Body); err == nil {
			h.Write(b)
		}
	}
	return hex.EncodeToString(h.Sum(nil))
}

// truncate trims s to n bytes with an ellipsis marker.
func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return fmt.Sprintf("%s...", s[:n])
}
