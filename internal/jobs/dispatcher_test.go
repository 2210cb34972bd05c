package jobs

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"medidoc/internal/config"
)

// fakeRunner scripts per-document outcomes and records calls.
type fakeRunner struct {
	mu        sync.Mutex
	failures  map[string]int // attempts that fail before succeeding
	runs      map[string]int
	failedFor map[string]error
}

func newFakeRunner() *fakeRunner {
	return &fakeRunner{
		failures:  make(map[string]int),
		runs:      make(map[string]int),
		failedFor: make(map[string]error),
	}
}

func (r *fakeRunner) Run(ctx context.Context, documentID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.runs[documentID]++
	if r.runs[documentID] <= r.failures[documentID] {
		return errors.New("extraction blew up")
	}
	return nil
}

func (r *fakeRunner) Failed(ctx context.Context, documentID string, cause error) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.failedFor[documentID] = cause
	return nil
}

func (r *fakeRunner) runCount(id string) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.runs[id]
}

func (r *fakeRunner) terminalCause(id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.failedFor[id]
}

func testJobsConfig() config.JobsConfig {
	return config.JobsConfig{Workers: 2, MaxAttempts: 3, BackoffSec: 0, LeaseTTLSec: 60}
}

func TestDispatcherProcessesQueuedDocuments(t *testing.T) {
	runner := newFakeRunner()
	d := NewDispatcher(runner, testJobsConfig(), prometheus.NewRegistry(), time.UTC)
	d.Start(context.Background())

	d.Enqueue("doc-1")
	d.Enqueue("doc-2")
	require.NoError(t, d.Stop())

	assert.Equal(t, 1, runner.runCount("doc-1"))
	assert.Equal(t, 1, runner.runCount("doc-2"))
	assert.Nil(t, runner.terminalCause("doc-1"))
}

func TestDispatcherRetriesThenSucceeds(t *testing.T) {
	runner := newFakeRunner()
	runner.failures["doc-1"] = 2 // two failures, third attempt passes

	d := NewDispatcher(runner, testJobsConfig(), prometheus.NewRegistry(), time.UTC)
	d.Start(context.Background())

	d.Enqueue("doc-1")
	require.NoError(t, d.Stop())

	assert.Equal(t, 3, runner.runCount("doc-1"))
	assert.Nil(t, runner.terminalCause("doc-1"))
}

func TestDispatcherExhaustsRetriesAndRecordsFailure(t *testing.T) {
	runner := newFakeRunner()
	runner.failures["doc-1"] = 99

	d := NewDispatcher(runner, testJobsConfig(), prometheus.NewRegistry(), time.UTC)
	d.Start(context.Background())

	d.Enqueue("doc-1")
	require.NoError(t, d.Stop())

	assert.Equal(t, 3, runner.runCount("doc-1"))
	require.Error(t, runner.terminalCause("doc-1"))
	assert.Contains(t, runner.terminalCause("doc-1").Error(), "extraction blew up")
}
