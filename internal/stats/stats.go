package stats

import (
	"sync"
	"sync/atomic"
	"time"
)

// FailureKind classifies requests that never produced an HTTP status.
// HTTP-level 4xx/5xx are not failures of the generator: the exchange
// completed, the server reported the error we asked it to produce.
type FailureKind string

const (
	FailNone      FailureKind = ""
	FailTimeout   FailureKind = "timeout"
	FailConnError FailureKind = "connection_error"
	FailCancelled FailureKind = "cancelled"
)

// Stats is the streaming run accumulator. Hot counters are atomics so the
// progress ticker can snapshot them while the aggregator records; the
// per-target map is guarded by a mutex.
type Stats struct {
	Requests  uint64
	Success   uint64
	Class2xx  uint64
	Class3xx  uint64
	Class4xx  uint64
	Class5xx  uint64
	Timeouts  uint64
	ConnErrs  uint64
	Cancelled uint64

	// Latency over completed requests only (microseconds). Timeouts and
	// connection errors are counted above and excluded from percentile math.
	Latency *SafeHistogram

	mu        sync.Mutex
	perTarget map[string]*TargetCounts
}

type TargetCounts struct {
	Requests uint64 `json:"requests"`
	Success  uint64 `json:"success"`
}

func New() *Stats {
	return &Stats{
		Latency:   NewSafeHistogram(),
		perTarget: make(map[string]*TargetCounts),
	}
}

// Record folds one request outcome into the accumulator and discards it.
func (s *Stats) Record(path string, status int, kind FailureKind, latency time.Duration) {
	atomic.AddUint64(&s.Requests, 1)

	success := false
	switch kind {
	case FailTimeout:
		atomic.AddUint64(&s.Timeouts, 1)
	case FailConnError:
		atomic.AddUint64(&s.ConnErrs, 1)
	case FailCancelled:
		atomic.AddUint64(&s.Cancelled, 1)
	default:
		switch {
		case status >= 200 && status < 300:
			atomic.AddUint64(&s.Class2xx, 1)
			atomic.AddUint64(&s.Success, 1)
			success = true
		case status >= 300 && status < 400:
			atomic.AddUint64(&s.Class3xx, 1)
		case status >= 400 && status < 500:
			atomic.AddUint64(&s.Class4xx, 1)
		default:
			atomic.AddUint64(&s.Class5xx, 1)
		}
		s.Latency.RecordValue(latency.Microseconds())
	}

	s.mu.Lock()
	tc, ok := s.perTarget[path]
	if !ok {
		tc = &TargetCounts{}
		s.perTarget[path] = tc
	}
	tc.Requests++
	if success {
		tc.Success++
	}
	s.mu.Unlock()
}

func (s *Stats) ErrorRate() float64 {
	reqs := atomic.LoadUint64(&s.Requests)
	if reqs == 0 {
		return 0
	}
	bad := reqs - atomic.LoadUint64(&s.Success)
	return float64(bad) / float64(reqs) * 100
}

func (s *Stats) PercentileMs(q float64) float64 {
	if s.Latency.TotalCount() == 0 {
		return 0
	}
	return float64(s.Latency.ValueAtQuantile(q)) / 1000.0
}

// Snapshot is a cheap copy of the live counters, pushed to progress and TUI
// consumers over a channel.
type Snapshot struct {
	Requests  uint64
	Success   uint64
	Class4xx  uint64
	Class5xx  uint64
	Timeouts  uint64
	ConnErrs  uint64
	Cancelled uint64
	Inflight  int64

	P50Ms float64
	P95Ms float64
	P99Ms float64
	MaxMs float64

	Stage int
	State string
}

func (s *Stats) Snapshot() Snapshot {
	return Snapshot{
		Requests:  atomic.LoadUint64(&s.Requests),
		Success:   atomic.LoadUint64(&s.Success),
		Class4xx:  atomic.LoadUint64(&s.Class4xx),
		Class5xx:  atomic.LoadUint64(&s.Class5xx),
		Timeouts:  atomic.LoadUint64(&s.Timeouts),
		ConnErrs:  atomic.LoadUint64(&s.ConnErrs),
		Cancelled: atomic.LoadUint64(&s.Cancelled),
		P50Ms:     s.PercentileMs(50),
		P95Ms:     s.PercentileMs(95),
		P99Ms:     s.PercentileMs(99),
		MaxMs:     float64(s.Latency.Max()) / 1000.0,
	}
}

// --- Finalized summary ---

type TargetSummary struct {
	Requests uint64 `json:"requests"`
	Success  uint64 `json:"success"`
}

type StageSummary struct {
	Index       int           `json:"index"`
	Duration    time.Duration `json:"duration"`
	Concurrency int           `json:"concurrency"`
	Requests    uint64        `json:"requests"`
}

// Summary is the immutable result of a completed or cancelled run.
type Summary struct {
	RunID     string    `json:"run_id"`
	Scenario  string    `json:"scenario"`
	BaseURL   string    `json:"base_url"`
	StartedAt time.Time `json:"started_at"`
	EndedAt   time.Time `json:"ended_at"`

	// Incomplete marks runs cut short by cancellation.
	Incomplete bool `json:"incomplete"`

	TotalRequests uint64            `json:"total_requests"`
	Success       uint64            `json:"success"`
	StatusClasses map[string]uint64 `json:"status_classes"`
	Timeouts      uint64            `json:"timeouts"`
	ConnErrors    uint64            `json:"connection_errors"`
	Cancelled     uint64            `json:"cancelled"`

	ActualRPS float64 `json:"actual_rps"`
	P50Ms     float64 `json:"p50_ms"`
	P95Ms     float64 `json:"p95_ms"`
	P99Ms     float64 `json:"p99_ms"`
	MaxMs     float64 `json:"max_ms"`

	PerTarget map[string]TargetSummary `json:"per_target"`
	Stages    []StageSummary           `json:"stages"`
}

// Finalize freezes the accumulator into a Summary. Called exactly once, after
// all outcomes have been recorded.
func (s *Stats) Finalize(start, end time.Time) Summary {
	sum := Summary{
		StartedAt:     start,
		EndedAt:       end,
		TotalRequests: atomic.LoadUint64(&s.Requests),
		Success:       atomic.LoadUint64(&s.Success),
		Timeouts:      atomic.LoadUint64(&s.Timeouts),
		ConnErrors:    atomic.LoadUint64(&s.ConnErrs),
		Cancelled:     atomic.LoadUint64(&s.Cancelled),
		StatusClasses: make(map[string]uint64),
		PerTarget:     make(map[string]TargetSummary),
		P50Ms:         s.PercentileMs(50),
		P95Ms:         s.PercentileMs(95),
		P99Ms:         s.PercentileMs(99),
	}
	if s.Latency.TotalCount() > 0 {
		sum.MaxMs = float64(s.Latency.Max()) / 1000.0
	}

	for class, v := range map[string]uint64{
		"2xx": atomic.LoadUint64(&s.Class2xx),
		"3xx": atomic.LoadUint64(&s.Class3xx),
		"4xx": atomic.LoadUint64(&s.Class4xx),
		"5xx": atomic.LoadUint64(&s.Class5xx),
	} {
		if v > 0 {
			sum.StatusClasses[class] = v
		}
	}

	if elapsed := end.Sub(start).Seconds(); elapsed > 0 {
		sum.ActualRPS = float64(sum.TotalRequests) / elapsed
	}

	s.mu.Lock()
	for path, tc := range s.perTarget {
		sum.PerTarget[path] = TargetSummary{Requests: tc.Requests, Success: tc.Success}
	}
	s.mu.Unlock()

	return sum
}
