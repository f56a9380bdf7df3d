package runner

import (
	"context"
	"log/slog"
	"math/rand"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"faultline/internal/inject"
	"faultline/internal/scenario"
	"faultline/internal/stats"
	"faultline/internal/target"
)

// Runner drives a scenario end to end: it owns the stage state machine, the
// per-stage worker pools, and the streaming aggregation of outcomes.
//
// Each stage runs a closed-loop pool of exactly Concurrency workers. A worker
// loops pick target -> decide injection -> execute -> report, reissuing
// immediately on completion. Outcomes flow over a channel to a single
// aggregator goroutine, the only place the accumulator is written from worker
// traffic.
type Runner struct {
	Cfg      Config
	Scenario scenario.Scenario
	Selector *target.Selector
	Exec     *Executor
	Stats    *stats.Stats

	// Updates carries periodic snapshots to progress/TUI consumers.
	Updates chan stats.Snapshot

	log *slog.Logger

	inflight    int64
	state       int32
	stage       int32
	stageCounts []uint64

	// Set when the drain grace expires; stragglers forced off the wire are
	// accounted as timeouts, not cancellations.
	forcedDrain int32
}

func New(cfg Config, sc scenario.Scenario, targets []target.Descriptor, updates chan stats.Snapshot, log *slog.Logger) (*Runner, error) {
	if err := sc.Validate(); err != nil {
		return nil, err
	}
	sel, err := target.NewSelector(targets)
	if err != nil {
		return nil, err
	}

	cfg = cfg.withDefaults()
	if updates == nil {
		updates = make(chan stats.Snapshot, 10)
	}
	if log == nil {
		log = slog.Default()
	}

	return &Runner{
		Cfg:         cfg,
		Scenario:    sc,
		Selector:    sel,
		Exec:        NewExecutor(cfg.BaseURL, cfg.Timeout),
		Stats:       stats.New(),
		Updates:     updates,
		log:         log,
		stageCounts: make([]uint64, len(sc.Stages)),
	}, nil
}

// HealthCheck verifies the target is ready before any load is generated.
func (r *Runner) HealthCheck(ctx context.Context) error {
	return r.Exec.HealthCheck(ctx)
}

func (r *Runner) State() State {
	return State(atomic.LoadInt32(&r.state))
}

func (r *Runner) Inflight() int64 {
	return atomic.LoadInt64(&r.inflight)
}

func (r *Runner) setState(s State) {
	atomic.StoreInt32(&r.state, int32(s))
}

// Run executes the scenario and returns the finalized summary. The summary is
// always produced, marked Incomplete when ctx was cancelled mid-run. Per-request
// errors are data in the summary, never an error return.
func (r *Runner) Run(ctx context.Context) (stats.Summary, error) {
	start := time.Now()

	// Request-level context: cancelled by operator abort (via parent) or by
	// the drain grace expiring.
	reqCtx, cancelReqs := context.WithCancel(ctx)
	defer cancelReqs()

	outcomes := make(chan Outcome, 256)
	aggDone := make(chan struct{})
	go r.aggregate(outcomes, aggDone)

	stopTicks := make(chan struct{})
	go r.tickLoop(stopTicks)

	var wg sync.WaitGroup
	nextWorker := 0

	r.setState(StateRunning)
stages:
	for i, st := range r.Scenario.Stages {
		if ctx.Err() != nil {
			break
		}
		atomic.StoreInt32(&r.stage, int32(i))

		deadline := time.Now().Add(st.Duration)
		for w := 0; w < st.Concurrency; w++ {
			wg.Add(1)
			go r.worker(reqCtx, &wg, outcomes, i, r.Cfg.Seed+int64(nextWorker), deadline)
			nextWorker++
		}

		// Stage transition is wall-clock driven; in-flight requests from the
		// outgoing stage finish on their own and still report under their
		// stage index.
		select {
		case <-ctx.Done():
			break stages
		case <-time.After(st.Duration):
		}

		r.log.Info("stage complete",
			"scenario", r.Scenario.Name,
			"stage", i,
			"duration", st.Duration.String(),
			"concurrency", st.Concurrency,
			"stage_requests", atomic.LoadUint64(&r.stageCounts[i]),
			"total_requests", atomic.LoadUint64(&r.Stats.Requests),
		)
	}

	// Drain: wait for in-flight requests up to the grace period, then force
	// completion.
	r.setState(StateDraining)
	workersDone := make(chan struct{})
	go func() {
		wg.Wait()
		close(workersDone)
	}()

	select {
	case <-workersDone:
	case <-ctx.Done():
		// Operator abort: reqCtx is already cancelled through the parent;
		// in-flight requests resolve as cancelled almost immediately.
		<-workersDone
	case <-time.After(r.Cfg.Grace):
		atomic.StoreInt32(&r.forcedDrain, 1)
		cancelReqs()
		<-workersDone
	}

	close(outcomes)
	<-aggDone
	close(stopTicks)
	r.setState(StateDone)

	sum := r.Stats.Finalize(start, time.Now())
	sum.RunID = uuid.New().String()
	sum.Scenario = r.Scenario.Name
	sum.BaseURL = r.Cfg.BaseURL
	sum.Incomplete = ctx.Err() != nil
	for i, st := range r.Scenario.Stages {
		sum.Stages = append(sum.Stages, stats.StageSummary{
			Index:       i,
			Duration:    st.Duration,
			Concurrency: st.Concurrency,
			Requests:    atomic.LoadUint64(&r.stageCounts[i]),
		})
	}

	r.log.Info("run complete",
		"scenario", sum.Scenario,
		"run_id", sum.RunID,
		"incomplete", sum.Incomplete,
		"total_requests", sum.TotalRequests,
		"success", sum.Success,
		"timeouts", sum.Timeouts,
		"connection_errors", sum.ConnErrors,
		"p95_ms", sum.P95Ms,
	)
	return sum, nil
}

func (r *Runner) worker(ctx context.Context, wg *sync.WaitGroup, outcomes chan<- Outcome, stageIdx int, seed int64, deadline time.Time) {
	defer wg.Done()

	// Per-worker rng: selection and injection sequences are reproducible for
	// a fixed seed without cross-worker lock contention.
	rng := rand.New(rand.NewSource(seed))

	for time.Now().Before(deadline) {
		if ctx.Err() != nil {
			return
		}
		t := r.Selector.Pick(rng)
		dec := inject.Decide(t.Injection, rng)

		atomic.AddInt64(&r.inflight, 1)
		o := r.Exec.Execute(ctx, t, dec, stageIdx)
		atomic.AddInt64(&r.inflight, -1)

		outcomes <- o
	}
}

// aggregate is the single serialization point for outcome recording.
func (r *Runner) aggregate(outcomes <-chan Outcome, done chan<- struct{}) {
	defer close(done)
	for o := range outcomes {
		kind := o.Failure
		if kind == stats.FailCancelled && atomic.LoadInt32(&r.forcedDrain) == 1 {
			kind = stats.FailTimeout
		}
		r.Stats.Record(o.Target.Path, o.StatusCode, kind, o.Duration)
		if o.StageIndex >= 0 && o.StageIndex < len(r.stageCounts) {
			atomic.AddUint64(&r.stageCounts[o.StageIndex], 1)
		}
	}
}

func (r *Runner) tickLoop(stop <-chan struct{}) {
	ticker := time.NewTicker(200 * time.Millisecond)
	defer ticker.Stop()
	for {
		select {
		case <-stop:
			return
		case <-ticker.C:
			snap := r.Stats.Snapshot()
			snap.Inflight = atomic.LoadInt64(&r.inflight)
			snap.Stage = int(atomic.LoadInt32(&r.stage))
			snap.State = r.State().String()

			// Non-blocking send; consumers act as backpressure.
			select {
			case r.Updates <- snap:
			default:
			}
		}
	}
}
