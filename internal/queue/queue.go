// Package queue implements a bounded-concurrency request queue with
// retry, exponential backoff, and optional deduplication. Backend code
// submits outbound calls through a shared Queue so a batch of upstream
// requests never exceeds a configured concurrency ceiling or hammers a
// rate-limited provider.
package queue

import (
	"context"
	"fmt"
	"math/rand"
	"runtime/debug"
	"sync"
	"time"

	"github.com/ankitjain91/pmfit-analyzer/internal/logging"
	"github.com/ankitjain91/pmfit-analyzer/internal/metrics"
)

type Config struct {
	MaxConcurrency int           // cap on simultaneously running operations
	MaxRetries     int           // retries after the first attempt
	BackoffBase    time.Duration // attempt n waits base*n^2
	BackoffMax     time.Duration // ceiling on a single wait
	JitterPercent  float64       // +/- fraction applied to each wait
	DedupTTL       time.Duration // reuse window for completed keyed tasks; 0 disables
}

func (c Config) withDefaults() Config {
	if c.MaxConcurrency <= 0 {
		c.MaxConcurrency = 3
	}
	if c.MaxRetries < 0 {
		c.MaxRetries = 0
	}
	if c.BackoffBase <= 0 {
		c.BackoffBase = 400 * time.Millisecond
	}
	if c.BackoffMax <= 0 {
		c.BackoffMax = 10 * time.Second
	}
	if c.JitterPercent < 0 || c.JitterPercent >= 1 {
		c.JitterPercent = 0
	}
	return c
}

// Queue schedules operations with bounded concurrency. Construct one per
// process and inject it; there is no package-level instance.
type Queue struct {
	cfg    Config
	clock  Clock
	logger *logging.Logger

	mu       sync.Mutex
	pending  [numPriorities][]*task
	active   int
	dedup    map[string]*dedupEntry
	inflight sync.WaitGroup
}

type dedupEntry struct {
	handle    *Handle
	settled   bool
	settledAt time.Time
}

type Option func(*Queue)

// WithClock replaces the wall clock, letting tests observe backoff waits
// without real timers.
func WithClock(c Clock) Option {
	return func(q *Queue) { q.clock = c }
}

func WithLogger(l *logging.Logger) Option {
	return func(q *Queue) { q.logger = l }
}

func New(cfg Config, opts ...Option) *Queue {
	q := &Queue{
		cfg:    cfg.withDefaults(),
		clock:  NewSystemClock(),
		logger: logging.New("pmfit-queue"),
		dedup:  make(map[string]*dedupEntry),
	}
	for _, o := range opts {
		o(q)
	}
	return q
}

type addOptions struct {
	priority Priority
	key      string
	retries  int
}

type AddOption func(*addOptions)

// WithPriority sets the task's scheduling class.
func WithPriority(p Priority) AddOption {
	return func(o *addOptions) {
		if p >= PriorityHigh && p < numPriorities {
			o.priority = p
		}
	}
}

// WithKey enables deduplication: an Add carrying the same key while an
// identical task is in flight, or within DedupTTL of one completing
// successfully, returns the existing handle instead of enqueuing.
func WithKey(key string) AddOption {
	return func(o *addOptions) { o.key = key }
}

// WithRetries overrides the queue-level retry budget for this task.
func WithRetries(n int) AddOption {
	return func(o *addOptions) {
		if n >= 0 {
			o.retries = n
		}
	}
}

// Add submits op for execution. If fewer than MaxConcurrency operations
// are running it starts immediately, otherwise it waits for a slot.
// The returned handle settles exactly once: with op's result, or with the
// final error once retries are exhausted. Once added, a task runs to
// settlement; ctx cancellation is only honored between attempts.
func (q *Queue) Add(ctx context.Context, op Operation, opts ...AddOption) *Handle {
	o := addOptions{priority: PriorityNormal, retries: q.cfg.MaxRetries}
	for _, fn := range opts {
		fn(&o)
	}
	if ctx == nil {
		ctx = context.Background()
	}

	q.mu.Lock()
	if o.key != "" && q.cfg.DedupTTL > 0 {
		if e, ok := q.dedup[o.key]; ok {
			if !e.settled || q.clock.Now().Sub(e.settledAt) < q.cfg.DedupTTL {
				q.mu.Unlock()
				metrics.RecordDedupHit()
				return e.handle
			}
			delete(q.dedup, o.key)
		}
	}

	t := &task{
		ctx:         ctx,
		op:          op,
		handle:      newHandle(),
		priority:    o.priority,
		key:         o.key,
		retriesLeft: o.retries,
	}
	if o.key != "" && q.cfg.DedupTTL > 0 {
		q.dedup[o.key] = &dedupEntry{handle: t.handle}
	}
	q.inflight.Add(1)
	q.pending[t.priority] = append(q.pending[t.priority], t)
	q.dispatchLocked()
	q.updateDepthLocked()
	q.mu.Unlock()
	return t.handle
}

// Stats returns the number of running operations and pending tasks.
func (q *Queue) Stats() (active, pending int) {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.active, q.pendingLocked()
}

// Drain blocks until every submitted task has settled or ctx expires.
func (q *Queue) Drain(ctx context.Context) error {
	done := make(chan struct{})
	go func() {
		q.inflight.Wait()
		close(done)
	}()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (q *Queue) pendingLocked() int {
	n := 0
	for p := range q.pending {
		n += len(q.pending[p])
	}
	return n
}

func (q *Queue) updateDepthLocked() {
	metrics.SetQueueDepth(q.active, q.pendingLocked())
}

// dispatchLocked starts pending tasks while worker slots are free.
// Priority classes drain high to low, FIFO within a class.
func (q *Queue) dispatchLocked() {
	for q.active < q.cfg.MaxConcurrency {
		t := q.popLocked()
		if t == nil {
			return
		}
		q.active++
		go q.run(t)
	}
}

func (q *Queue) popLocked() *task {
	for p := range q.pending {
		if len(q.pending[p]) > 0 {
			t := q.pending[p][0]
			q.pending[p] = q.pending[p][1:]
			return t
		}
	}
	return nil
}

func (q *Queue) run(t *task) {
	t.attempt++
	result, err := q.invoke(t)
	if err == nil {
		q.finish(t, result, nil)
		return
	}

	if t.retriesLeft > 0 && !IsPermanent(err) && t.ctx.Err() == nil {
		t.retriesLeft--
		reason := FailureReason(err)
		delay := q.backoff(t.attempt)
		metrics.RecordRetry(reason)
		q.logger.WithContext(t.ctx).WithFields(map[string]any{
			"attempt": t.attempt,
			"reason":  reason,
			"delay":   delay.String(),
		}).Warn("task failed, retry scheduled")

		// Release the slot while the backoff timer runs so queued tasks
		// are not starved by a waiting retry.
		q.mu.Lock()
		q.active--
		q.dispatchLocked()
		q.updateDepthLocked()
		q.mu.Unlock()

		go q.retryAfter(t, delay, err)
		return
	}

	q.finish(t, nil, err)
}

// invoke runs the operation, converting a panic into an error.
func (q *Queue) invoke(t *task) (result any, err error) {
	defer func() {
		if r := recover(); r != nil {
			q.logger.WithContext(t.ctx).WithField("stack", string(debug.Stack())).
				Errorf("operation panicked: %v", r)
			result = nil
			err = &panicError{value: r}
		}
	}()
	return t.op(t.ctx)
}

func (q *Queue) retryAfter(t *task, delay time.Duration, lastErr error) {
	if err := q.clock.Sleep(t.ctx, delay); err != nil {
		// Caller context ended during backoff; settle with the last failure.
		q.mu.Lock()
		q.settleLocked(t, nil, fmt.Errorf("retry abandoned: %w", lastErr))
		q.mu.Unlock()
		return
	}
	q.mu.Lock()
	// A retried attempt re-enters at the head of its priority class.
	q.pending[t.priority] = append([]*task{t}, q.pending[t.priority]...)
	q.dispatchLocked()
	q.updateDepthLocked()
	q.mu.Unlock()
}

func (q *Queue) finish(t *task, result any, err error) {
	q.mu.Lock()
	q.active--
	q.settleLocked(t, result, err)
	q.dispatchLocked()
	q.updateDepthLocked()
	q.mu.Unlock()
}

func (q *Queue) settleLocked(t *task, result any, err error) {
	t.handle.settle(result, err)
	if t.key != "" && q.cfg.DedupTTL > 0 {
		if e, ok := q.dedup[t.key]; ok && e.handle == t.handle {
			if err == nil {
				e.settled = true
				e.settledAt = q.clock.Now()
			} else {
				// Failures are not served from the dedup window.
				delete(q.dedup, t.key)
			}
		}
	}
	if err == nil {
		metrics.RecordTask("succeeded")
	} else {
		metrics.RecordTask("failed")
	}
	q.inflight.Done()
}

// backoff returns the wait before re-running a task whose attempt-th try
// just failed. Quadratic in the attempt number, jittered, capped.
func (q *Queue) backoff(attempt int) time.Duration {
	if attempt < 1 {
		attempt = 1
	}
	d := time.Duration(attempt*attempt) * q.cfg.BackoffBase
	if d > q.cfg.BackoffMax {
		d = q.cfg.BackoffMax
	}
	if q.cfg.JitterPercent > 0 {
		j := 1 + (rand.Float64()*2-1)*q.cfg.JitterPercent
		if j < 0.1 {
			j = 0.1
		}
		d = time.Duration(float64(d) * j)
	}
	return d
}
