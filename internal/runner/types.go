package runner

import (
	"time"

	"faultline/internal/stats"
	"faultline/internal/target"
)

type Config struct {
	BaseURL string
	// Per-request hard timeout.
	Timeout time.Duration
	// Grace bounds the drain wait after the final stage.
	Grace time.Duration
	// Seed makes selection and injection sequences reproducible.
	Seed int64
	// Force skips the pre-flight health check.
	Force bool
}

func (c Config) withDefaults() Config {
	if c.Timeout <= 0 {
		c.Timeout = 10 * time.Second
	}
	if c.Grace <= 0 {
		c.Grace = 10 * time.Second
	}
	if c.Seed == 0 {
		c.Seed = time.Now().UnixNano()
	}
	return c
}

// Outcome is one issued request, folded into the accumulator and discarded.
type Outcome struct {
	Target     target.Descriptor
	StageIndex int
	Start      time.Time
	Duration   time.Duration
	StatusCode int
	Failure    stats.FailureKind
}

// State is the rate-controller phase of a run.
type State int32

const (
	StateIdle State = iota
	StateRunning
	StateDraining
	StateDone
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateRunning:
		return "running"
	case StateDraining:
		return "draining"
	case StateDone:
		return "done"
	}
	return "unknown"
}
