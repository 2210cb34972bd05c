package jobs

import (
	"context"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"golang.org/x/sync/errgroup"

	"medidoc/internal/config"
)

// queueCapacity bounds pending work; an upload spike past this is dropped
// with a log line and recovered by a later retry of the upload.
const queueCapacity = 1024

// JobRunner is the unit of work the dispatcher drives. Run is retried per
// policy; Failed is invoked once after retries are exhausted.
type JobRunner interface {
	Run(ctx context.Context, documentID string) error
	Failed(ctx context.Context, documentID string, cause error) error
}

// Dispatcher feeds document IDs to a pool of extraction workers. Each
// document is retried a fixed number of times with a fixed backoff, and a
// per-document lease suppresses concurrent duplicate runs.
type Dispatcher struct {
	runner      JobRunner
	workers     int
	maxAttempts int
	backoff     time.Duration
	leases      *leaseTable
	queue       chan string
	loc         *time.Location
	metrics     *dispatcherMetrics

	g      *errgroup.Group
	cancel context.CancelFunc
}

// dispatcherMetrics tracks extraction outcomes.
type dispatcherMetrics struct {
	attempts *prometheus.CounterVec
	terminal prometheus.Counter
}

func newDispatcherMetrics(reg prometheus.Registerer) *dispatcherMetrics {
	m := &dispatcherMetrics{
		attempts: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "extraction_attempts_total",
				Help: "Extraction attempts by outcome.",
			},
			[]string{"outcome"},
		),
		terminal: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "extraction_terminal_failures_total",
				Help: "Documents marked FAILED after exhausting retries.",
			},
		),
	}
	reg.MustRegister(m.attempts, m.terminal)
	return m
}

// NewDispatcher constructs a Dispatcher from the jobs configuration.
func NewDispatcher(runner JobRunner, cfg config.JobsConfig, reg prometheus.Registerer, loc *time.Location) *Dispatcher {
	if loc == nil {
		loc = time.UTC
	}
	if reg == nil {
		reg = prometheus.NewRegistry()
	}
	workers := cfg.Workers
	if workers <= 0 {
		workers = 1
	}
	maxAttempts := cfg.MaxAttempts
	if maxAttempts <= 0 {
		maxAttempts = 1
	}
	return &Dispatcher{
		runner:      runner,
		workers:     workers,
		maxAttempts: maxAttempts,
		backoff:     time.Duration(cfg.BackoffSec) * time.Second,
		leases:      newLeaseTable(time.Duration(cfg.LeaseTTLSec) * time.Second),
		queue:       make(chan string, queueCapacity),
		loc:         loc,
		metrics:     newDispatcherMetrics(reg),
	}
}

// Start launches the worker pool. Workers drain the queue until Stop is
// called or ctx is cancelled.
func (d *Dispatcher) Start(ctx context.Context) {
	ctx, d.cancel = context.WithCancel(ctx)
	d.g, ctx = errgroup.WithContext(ctx)

	for i := 0; i < d.workers; i++ {
		d.g.Go(func() error {
			for {
				select {
				case <-ctx.Done():
					return nil
				case id, ok := <-d.queue:
					if !ok {
						return nil
					}
					d.process(ctx, id)
				}
			}
		})
	}

	logJSON(d.loc, map[string]any{
		"component": "jobs",
		"event":     "dispatcher_started",
		"status":    "success",
		"workers":   d.workers,
	})
}

// Enqueue schedules background extraction for a document. It never blocks
// the caller: when the queue is full the job is dropped and logged.
func (d *Dispatcher) Enqueue(documentID string) {
	select {
	case d.queue <- documentID:
	default:
		logJSON(d.loc, map[string]any{
			"component":   "jobs",
			"event":       "enqueue_dropped",
			"status":      "error",
			"msg":         "job queue full",
			"document_id": documentID,
		})
	}
}

// Stop closes the queue, lets workers drain it, and waits for them to exit.
func (d *Dispatcher) Stop() error {
	close(d.queue)
	err := d.g.Wait()
	if d.cancel != nil {
		d.cancel()
	}
	logJSON(d.loc, map[string]any{
		"component": "jobs",
		"event":     "dispatcher_stopped",
		"status":    "success",
	})
	return err
}

func (d *Dispatcher) process(ctx context.Context, documentID string) {
	if !d.leases.Acquire(documentID, time.Now()) {
		logJSON(d.loc, map[string]any{
			"component":   "jobs",
			"event":       "extraction_suppressed",
			"status":      "success",
			"msg":         "document already being processed",
			"document_id": documentID,
		})
		return
	}
	defer d.leases.Release(documentID)

	var lastErr error
	for attempt := 1; attempt <= d.maxAttempts; attempt++ {
		err := d.runner.Run(ctx, documentID)
		if err == nil {
			d.metrics.attempts.WithLabelValues("success").Inc()
			return
		}
		d.metrics.attempts.WithLabelValues("error").Inc()
		lastErr = err

		logJSON(d.loc, map[string]any{
			"component":     "jobs",
			"event":         "extraction_attempt_failed",
			"status":        "error",
			"document_id":   documentID,
			"attempt":       attempt,
			"max_attempts":  d.maxAttempts,
			"error_message": err.Error(),
		})

		if attempt < d.maxAttempts {
			select {
			case <-ctx.Done():
				return
			case <-time.After(d.backoff):
			}
		}
	}

	d.metrics.terminal.Inc()
	if err := d.runner.Failed(ctx, documentID, lastErr); err != nil {
		logJSON(d.loc, map[string]any{
			"component":     "jobs",
			"event":         "extraction_failure_record_failed",
			"status":        "error",
			"document_id":   documentID,
			"error_message": err.Error(),
		})
	}
}
