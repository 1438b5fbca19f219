package upstream

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"sync/atomic"
	"testing"
	"time"

	"github.com/ankitjain91/pmfit-analyzer/internal/queue"
)

func testQueue(retries int, dedupTTL time.Duration) *queue.Queue {
	return queue.New(queue.Config{
		MaxConcurrency: 2,
		MaxRetries:     retries,
		BackoffBase:    time.Millisecond,
		BackoffMax:     5 * time.Millisecond,
		DedupTTL:       dedupTTL,
	})
}

func TestInvokeSuccess(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"ok":true,"items":[1,2,3]}`))
	}))
	defer srv.Close()

	c := NewClient(testQueue(0, 0), 5*time.Second)
	raw, err := c.Invoke(context.Background(), Request{Source: "test", URL: srv.URL})
	if err != nil {
		t.Fatalf("Invoke() unexpected error: %v", err)
	}
	if string(raw) != `{"ok":true,"items":[1,2,3]}` {
		t.Errorf("Invoke() = %s, want original body", raw)
	}
}

func TestInvokeRetriesServerErrors(t *testing.T) {
	var hits int64
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if atomic.AddInt64(&hits, 1) <= 2 {
			http.Error(w, "temporary failure", http.StatusInternalServerError)
			return
		}
		w.Write([]byte(`{"recovered":true}`))
	}))
	defer srv.Close()

	c := NewClient(testQueue(2, 0), 5*time.Second)
	raw, err := c.Invoke(context.Background(), Request{Source: "test", URL: srv.URL})
	if err != nil {
		t.Fatalf("Invoke() unexpected error: %v", err)
	}
	if string(raw) != `{"recovered":true}` {
		t.Errorf("Invoke() = %s, want recovered body", raw)
	}
	if got := atomic.LoadInt64(&hits); got != 3 {
		t.Errorf("server hits = %d, want 3 (two failures retried)", got)
	}
}

func TestInvokeClientErrorNotRetried(t *testing.T) {
	var hits int64
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt64(&hits, 1)
		http.Error(w, "missing parameter", http.StatusBadRequest)
	}))
	defer srv.Close()

	c := NewClient(testQueue(3, 0), 5*time.Second)
	_, err := c.Invoke(context.Background(), Request{Source: "test", URL: srv.URL})
	if err == nil {
		t.Fatal("Invoke() expected error for 400 response")
	}
	if !queue.IsPermanent(err) {
		t.Errorf("Invoke() error = %v, want permanent", err)
	}
	var serr *StatusError
	if !errors.As(err, &serr) || serr.Status != http.StatusBadRequest {
		t.Errorf("Invoke() error = %v, want StatusError 400", err)
	}
	if got := atomic.LoadInt64(&hits); got != 1 {
		t.Errorf("server hits = %d, want 1 (4xx never retried)", got)
	}
}

func TestInvokeRateLimitRetried(t *testing.T) {
	var hits int64
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if atomic.AddInt64(&hits, 1) == 1 {
			http.Error(w, "slow down", http.StatusTooManyRequests)
			return
		}
		w.Write([]byte(`{}`))
	}))
	defer srv.Close()

	c := NewClient(testQueue(1, 0), 5*time.Second)
	if _, err := c.Invoke(context.Background(), Request{Source: "test", URL: srv.URL}); err != nil {
		t.Fatalf("Invoke() unexpected error: %v", err)
	}
	if got := atomic.LoadInt64(&hits); got != 2 {
		t.Errorf("server hits = %d, want 2 (429 retried)", got)
	}
}

func TestInvokeMalformedJSONRetried(t *testing.T) {
	var hits int64
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if atomic.AddInt64(&hits, 1) == 1 {
			w.Write([]byte(`{"truncated":`))
			return
		}
		w.Write([]byte(`{"complete":true}`))
	}))
	defer srv.Close()

	c := NewClient(testQueue(1, 0), 5*time.Second)
	raw, err := c.Invoke(context.Background(), Request{Source: "test", URL: srv.URL})
	if err != nil {
		t.Fatalf("Invoke() unexpected error: %v", err)
	}
	if string(raw) != `{"complete":true}` {
		t.Errorf("Invoke() = %s, want complete body", raw)
	}
}

func TestInvokeDeduplicates(t *testing.T) {
	var hits int64
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt64(&hits, 1)
		w.Write([]byte(`{"n":1}`))
	}))
	defer srv.Close()

	c := NewClient(testQueue(0, time.Minute), 5*time.Second)
	req := Request{Source: "test", URL: srv.URL, Query: url.Values{"q": {"startup idea"}}}

	for i := 0; i < 3; i++ {
		if _, err := c.Invoke(context.Background(), req); err != nil {
			t.Fatalf("Invoke() #%d unexpected error: %v", i, err)
		}
	}
	if got := atomic.LoadInt64(&hits); got != 1 {
		t.Errorf("server hits = %d, want 1 (identical requests dedup)", got)
	}
}

func TestInvokeNoDedup(t *testing.T) {
	var hits int64
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt64(&hits, 1)
		w.Write([]byte(`{}`))
	}))
	defer srv.Close()

	c := NewClient(testQueue(0, time.Minute), 5*time.Second)
	req := Request{Source: "chat", URL: srv.URL, NoDedup: true}

	for i := 0; i < 3; i++ {
		if _, err := c.Invoke(context.Background(), req); err != nil {
			t.Fatalf("Invoke() #%d unexpected error: %v", i, err)
		}
	}
	if got := atomic.LoadInt64(&hits); got != 3 {
		t.Errorf("server hits = %d, want 3 (NoDedup issues every call)", got)
	}
}

func TestPrefetchWarmsDedupWindow(t *testing.T) {
	var hits int64
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt64(&hits, 1)
		w.Write([]byte(`{"warm":true}`))
	}))
	defer srv.Close()

	q := testQueue(0, time.Minute)
	c := NewClient(q, 5*time.Second)
	req := Request{Source: "test", URL: srv.URL}

	c.Prefetch(context.Background(), req)
	drainCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := q.Drain(drainCtx); err != nil {
		t.Fatalf("Drain() unexpected error: %v", err)
	}

	raw, err := c.Invoke(context.Background(), req)
	if err != nil {
		t.Fatalf("Invoke() unexpected error: %v", err)
	}
	if string(raw) != `{"warm":true}` {
		t.Errorf("Invoke() = %s, want warmed body", raw)
	}
	if got := atomic.LoadInt64(&hits); got != 1 {
		t.Errorf("server hits = %d, want 1 (invoke served from warm window)", got)
	}
}

func TestPrefetchSwallowsFailures(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "down", http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	q := testQueue(1, time.Minute)
	c := NewClient(q, 5*time.Second)

	// Must not panic or propagate anything to the caller.
	c.Prefetch(context.Background(), Request{Source: "test", URL: srv.URL})

	drainCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := q.Drain(drainCtx); err != nil {
		t.Fatalf("Drain() unexpected error: %v", err)
	}
}

func TestDedupKeyStability(t *testing.T) {
	tests := []struct {
		name string
		a, b Request
		same bool
	}{
		{
			name: "identical requests",
			a:    Request{URL: "https://api.example/search", Query: url.Values{"q": {"x"}, "engine": {"news"}}},
			b:    Request{URL: "https://api.example/search", Query: url.Values{"engine": {"news"}, "q": {"x"}}},
			same: true,
		},
		{
			name: "different query values",
			a:    Request{URL: "https://api.example/search", Query: url.Values{"q": {"x"}}},
			b:    Request{URL: "https://api.example/search", Query: url.Values{"q": {"y"}}},
			same: false,
		},
		{
			name: "different methods",
			a:    Request{Method: http.MethodGet, URL: "https://api.example/search"},
			b:    Request{Method: http.MethodPost, URL: "https://api.example/search"},
			same: false,
		},
		{
			name: "same body different field order is canonical",
			a:    Request{Method: http.MethodPost, URL: "https://api.example/x", Body: map[string]any{"a": 1, "b": 2}},
			b:    Request{Method: http.MethodPost, URL: "https://api.example/x", Body: map[string]any{"b": 2, "a": 1}},
			same: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ka, kb := dedupKey(tt.a), dedupKey(tt.b)
			if (ka == kb) != tt.same {
				t.Errorf("dedupKey equality = %v, want %v (a=%s b=%s)", ka == kb, tt.same, ka, kb)
			}
		})
	}
}

func TestTruncate(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		n        int
		expected string
	}{
		{name: "short string unchanged", input: "hello", n: 10, expected: "hello"},
		{name: "exact length unchanged", input: "hello", n: 5, expected: "hello"},
		{name: "long string truncated", input: "hello world", n: 5, expected: "hello..."},
		{name: "empty string", input: "", n: 5, expected: ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := truncate(tt.input, tt.n); got != tt.expected {
				t.Errorf("truncate(%q, %d) = %q, want %q", tt.input, tt.n, got, tt.expected)
			}
		})
	}
}

func TestStatusClass(t *testing.T) {
	tests := []struct {
		status int
		want   string
	}{
		{status: 200, want: "2xx"},
		{status: 201, want: "2xx"},
		{status: 404, want: "4xx"},
		{status: 429, want: "429"},
		{status: 500, want: "5xx"},
		{status: 503, want: "5xx"},
		{status: 100, want: "other"},
	}

	for _, tt := range tests {
		if got := statusClass(tt.status); got != tt.want {
			t.Errorf("statusClass(%d) = %q, want %q", tt.status, got, tt.want)
		}
	}
}
