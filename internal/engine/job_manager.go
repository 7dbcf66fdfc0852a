package engine

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/scrypster/triad/pkg/types"
)

var (
	// ErrJobConflict is returned when a simulation job is already running
	// and another job or exclusive graph operation is requested.
	ErrJobConflict = errors.New("engine: a simulation job is already running")

	// ErrJobNotFound is returned when no job with the given id exists.
	ErrJobNotFound = errors.New("engine: job not found")
)

// defaultStatsInterval is how many iterations pass between the stats
// snapshots a running job publishes.
const defaultStatsInterval = 10

// job is the manager's internal record for one simulation run. Its mutex
// guards the snapshot; the run loop writes, pollers read.
type job struct {
	mu       sync.Mutex
	snapshot types.JobSnapshot
	cancel   context.CancelFunc
}

func (j *job) view() types.JobSnapshot {
	j.mu.Lock()
	defer j.mu.Unlock()
	return j.snapshot
}

func (j *job) update(fn func(*types.JobSnapshot)) types.JobSnapshot {
	j.mu.Lock()
	defer j.mu.Unlock()
	fn(&j.snapshot)
	return j.snapshot
}

// JobManager owns background simulation runs and serialises every graph
// mutation: at most one job runs at a time, and single-step operations
// (initialize, iterate, reset) are rejected while one does.
type JobManager struct {
	engine        *Engine
	timeout       time.Duration
	statsInterval int

	mu       sync.Mutex
	jobs     map[string]*job
	activeID string

	onProgress func(types.JobSnapshot)
	wg         sync.WaitGroup
}

// NewJobManager creates a manager running jobs against eng. timeout bounds
// each job's wall-clock time; statsInterval is the snapshot cadence in
// iterations (0 means the default of 10).
func NewJobManager(eng *Engine, timeout time.Duration, statsInterval int) *JobManager {
	if statsInterval <= 0 {
		statsInterval = defaultStatsInterval
	}
	return &JobManager{
		engine:        eng,
		timeout:       timeout,
		statsInterval: statsInterval,
		jobs:          make(map[string]*job),
	}
}

// SetProgressFunc registers a callback invoked with a snapshot every time
// a running job publishes one (stats cadence and terminal transitions).
// Must be called before the first Start.
func (m *JobManager) SetProgressFunc(fn func(types.JobSnapshot)) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.onProgress = fn
}

// Start launches a background simulation job. It returns ErrJobConflict
// while another job is running: concurrent runs would interleave their
// iteration passes on the same graph.
func (m *JobManager) Start(maxIterations int, actionProb float64) (types.JobSnapshot, error) {
	if maxIterations <= 0 {
		return types.JobSnapshot{}, fmt.Errorf("engine: max iterations must be positive, got %d", maxIterations)
	}
	if actionProb < 0 || actionProb > 1 {
		return types.JobSnapshot{}, fmt.Errorf("engine: action probability must be in [0, 1], got %g", actionProb)
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if m.activeLocked() != nil {
		return types.JobSnapshot{}, ErrJobConflict
	}

	ctx, cancel := context.WithCancel(context.Background())
	j := &job{
		snapshot: types.JobSnapshot{
			ID:                "job:" + uuid.NewString(),
			Status:            types.JobPending,
			MaxIterations:     maxIterations,
			ActionProbability: actionProb,
		},
		cancel: cancel,
	}
	m.jobs[j.snapshot.ID] = j
	m.activeID = j.snapshot.ID

	// Capture the pending snapshot before the run loop can touch it.
	snap := j.snapshot

	m.wg.Add(1)
	go m.run(ctx, j)

	log.Printf("engine: started job %s (max_iterations=%d, action_probability=%g)",
		snap.ID, maxIterations, actionProb)
	return snap, nil
}

// activeLocked returns the currently running job, if any. Callers hold m.mu.
func (m *JobManager) activeLocked() *job {
	if m.activeID == "" {
		return nil
	}
	j := m.jobs[m.activeID]
	if j == nil || j.view().Status.Terminal() {
		m.activeID = ""
		return nil
	}
	return j
}

// Status returns the current snapshot of the job with the given id.
func (m *JobManager) Status(id string) (types.JobSnapshot, error) {
	m.mu.Lock()
	j := m.jobs[id]
	m.mu.Unlock()
	if j == nil {
		return types.JobSnapshot{}, ErrJobNotFound
	}
	return j.view(), nil
}

// Stop requests cancellation of the job with the given id. The run loop
// observes the request at the next iteration boundary; stopping an
// already-terminal job is a no-op.
func (m *JobManager) Stop(id string) (types.JobSnapshot, error) {
	m.mu.Lock()
	j := m.jobs[id]
	m.mu.Unlock()
	if j == nil {
		return types.JobSnapshot{}, ErrJobNotFound
	}
	j.cancel()
	return j.view(), nil
}

// Exclusive runs fn while no simulation job is active, and blocks new jobs
// from starting for its duration by holding the active slot. It backs the
// single-step operations: initialize, iterate, reset.
func (m *JobManager) Exclusive(fn func() error) error {
	m.mu.Lock()
	if m.activeLocked() != nil {
		m.mu.Unlock()
		return ErrJobConflict
	}
	// Park a sentinel so Start refuses while fn runs.
	sentinel := &job{snapshot: types.JobSnapshot{ID: "exclusive", Status: types.JobRunning}, cancel: func() {}}
	m.jobs[sentinel.snapshot.ID] = sentinel
	m.activeID = sentinel.snapshot.ID
	m.mu.Unlock()

	defer func() {
		m.mu.Lock()
		delete(m.jobs, sentinel.snapshot.ID)
		if m.activeID == sentinel.snapshot.ID {
			m.activeID = ""
		}
		m.mu.Unlock()
	}()
	return fn()
}

// PruneTerminal drops the records of finished jobs, typically alongside a
// graph reset.
func (m *JobManager) PruneTerminal() {
	m.mu.Lock()
	defer m.mu.Unlock()
	for id, j := range m.jobs {
		if j.view().Status.Terminal() {
			delete(m.jobs, id)
		}
	}
}

// Shutdown cancels the active job, if any, and waits for its run loop to
// exit or for ctx to expire.
func (m *JobManager) Shutdown(ctx context.Context) error {
	m.mu.Lock()
	if j := m.activeLocked(); j != nil {
		j.cancel()
	}
	m.mu.Unlock()

	done := make(chan struct{})
	go func() {
		m.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return fmt.Errorf("engine: shutdown wait: %w", ctx.Err())
	}
}

// run is the job's iteration loop. Cancellation and the wall-clock bound
// are checked at iteration boundaries only, so a job never leaves the
// graph mid-iteration.
func (m *JobManager) run(ctx context.Context, j *job) {
	defer m.wg.Done()

	deadline := time.Now().Add(m.timeout)
	snap := j.update(func(s *types.JobSnapshot) { s.Status = types.JobRunning })

	// Iterations run on a context not tied to the stop signal. The SQL
	// backends honor cancellation inside QueryContext/ExecContext, so
	// passing ctx through would abort the in-flight iteration and turn a
	// stop request into an errored job.
	runCtx := context.Background()

	// Convergence is judged by the post-iteration scan, so an already
	// balanced graph converges on iteration 1 with zero changes.
	var last types.GraphStats
	for i := 1; i <= snap.MaxIterations; i++ {
		select {
		case <-ctx.Done():
			// Outcome is only meaningful for jobs that completed on their
			// own; the status already says why this one ended.
			m.finish(j, types.JobStopped, &types.RunResult{
				Iterations: i - 1,
				FinalStats: last,
			}, nil)
			return
		default:
		}
		if m.timeout > 0 && time.Now().After(deadline) {
			m.finish(j, types.JobTimedOut, &types.RunResult{
				Iterations: i - 1,
				FinalStats: last,
			}, nil)
			return
		}

		result, err := m.engine.RunIteration(runCtx, snap.ActionProbability)
		if err != nil {
			m.finish(j, types.JobErrored, nil, err)
			return
		}
		last = result.Stats

		// The first iteration reports stats too, so early polls never see
		// a nil snapshot.
		report := i == 1 || i%m.statsInterval == 0
		updated := j.update(func(s *types.JobSnapshot) {
			s.CurrentIteration = i
			if report {
				stats := result.Stats
				s.CurrentStats = &stats
			}
		})
		if report {
			m.publish(updated)
		}

		if result.Stats.UnbalancedTriangles == 0 {
			m.finish(j, types.JobCompleted, &types.RunResult{
				Iterations: i,
				Outcome:    types.OutcomeConverged,
				Converged:  true,
				FinalStats: result.Stats,
			}, nil)
			return
		}
		if result.ChangesMade == 0 {
			m.finish(j, types.JobCompleted, &types.RunResult{
				Iterations: i,
				Outcome:    types.OutcomeStabilized,
				FinalStats: result.Stats,
			}, nil)
			return
		}
	}

	m.finish(j, types.JobCompleted, &types.RunResult{
		Iterations: snap.MaxIterations,
		Outcome:    types.OutcomeExhausted,
		FinalStats: last,
	}, nil)
}

// finish transitions the job to a terminal status exactly once and
// publishes the final snapshot.
func (m *JobManager) finish(j *job, status types.JobStatus, result *types.RunResult, runErr error) {
	snap := j.update(func(s *types.JobSnapshot) {
		s.Status = status
		s.Result = result
		if result != nil {
			s.CurrentIteration = result.Iterations
			stats := result.FinalStats
			s.CurrentStats = &stats
		}
		if runErr != nil {
			s.Error = runErr.Error()
		}
	})

	m.mu.Lock()
	if m.activeID == snap.ID {
		m.activeID = ""
	}
	m.mu.Unlock()

	if runErr != nil {
		log.Printf("ERROR: engine: job %s errored after %d iterations: %v", snap.ID, snap.CurrentIteration, runErr)
	} else {
		log.Printf("engine: job %s finished: status=%s iterations=%d", snap.ID, status, snap.CurrentIteration)
	}
	m.publish(snap)
}

// publish invokes the progress callback, if registered. The callback runs
// on the job goroutine; listeners must not block.
func (m *JobManager) publish(snap types.JobSnapshot) {
	m.mu.Lock()
	fn := m.onProgress
	m.mu.Unlock()
	if fn != nil {
		fn(snap)
	}
}
