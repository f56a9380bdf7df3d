package scenario

import (
	"errors"
	"fmt"
	"time"
)

var ErrEmptyScenario = errors.New("scenario has no stages")

// Stage is a time-boxed segment of a run with a fixed concurrency target.
type Stage struct {
	Duration    time.Duration
	Concurrency int
}

// Scenario is a named ordered sequence of stages. Owned by the runner for the
// lifetime of a run.
type Scenario struct {
	Name   string
	Stages []Stage
}

func (s Scenario) Validate() error {
	if len(s.Stages) == 0 {
		return ErrEmptyScenario
	}
	for i, st := range s.Stages {
		if st.Concurrency < 1 {
			return fmt.Errorf("scenario %s stage %d: concurrency %d (must be >= 1)", s.Name, i, st.Concurrency)
		}
		if st.Duration < 0 {
			return fmt.Errorf("scenario %s stage %d: negative duration %s", s.Name, i, st.Duration)
		}
	}
	return nil
}

func (s Scenario) TotalDuration() time.Duration {
	var total time.Duration
	for _, st := range s.Stages {
		total += st.Duration
	}
	return total
}

func (s Scenario) MaxConcurrency() int {
	max := 0
	for _, st := range s.Stages {
		if st.Concurrency > max {
			max = st.Concurrency
		}
	}
	return max
}

// --- Built-in catalog ---

// Quick is a short smoke run: steady low load.
func Quick() Scenario {
	return Scenario{
		Name:   "quick",
		Stages: []Stage{{Duration: 30 * time.Second, Concurrency: 5}},
	}
}

// Sustained holds a constant concurrency for the given duration.
func Sustained(d time.Duration) Scenario {
	return Scenario{
		Name:   "sustained",
		Stages: []Stage{{Duration: d, Concurrency: 10}},
	}
}

// Errors is the stage shape for error-rate runs; callers pair it with an
// error-injecting target set.
func Errors(d time.Duration) Scenario {
	return Scenario{
		Name:   "errors",
		Stages: []Stage{{Duration: d, Concurrency: 5}},
	}
}

// Ramp climbs gradually to peak concurrency and back down.
func Ramp() Scenario {
	steps := []int{2, 4, 6, 8, 10, 8, 6, 4, 2}
	stages := make([]Stage, 0, len(steps))
	for _, c := range steps {
		stages = append(stages, Stage{Duration: 10 * time.Second, Concurrency: c})
	}
	return Scenario{Name: "ramp", Stages: stages}
}

// Spike is a low baseline, a sudden burst, and a recovery window.
func Spike() Scenario {
	return Scenario{
		Name: "spike",
		Stages: []Stage{
			{Duration: 20 * time.Second, Concurrency: 2},
			{Duration: 15 * time.Second, Concurrency: 20},
			{Duration: 25 * time.Second, Concurrency: 2},
		},
	}
}

// Full chains the quick, ramp and spike patterns into one tour.
func Full() Scenario {
	s := Scenario{Name: "full"}
	for _, part := range []Scenario{Quick(), Ramp(), Spike()} {
		s.Stages = append(s.Stages, part.Stages...)
	}
	return s
}
