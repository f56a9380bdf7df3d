package inject

import (
	"errors"
	"fmt"
	"math/rand"
)

var ErrInvalidPolicy = errors.New("invalid injection policy")

// Policy controls synthetic error and delay behavior for a single target.
// Error and delay injection are independent: a request may carry both.
type Policy struct {
	ErrorRatePercent int     `yaml:"error_rate_percent"`
	DelayMinSeconds  float64 `yaml:"delay_min_seconds"`
	DelayMaxSeconds  float64 `yaml:"delay_max_seconds"`
}

func (p Policy) Validate() error {
	if p.ErrorRatePercent < 0 || p.ErrorRatePercent > 100 {
		return fmt.Errorf("%w: error rate %d%% outside 0..100", ErrInvalidPolicy, p.ErrorRatePercent)
	}
	if p.DelayMinSeconds < 0 {
		return fmt.Errorf("%w: negative delay min %g", ErrInvalidPolicy, p.DelayMinSeconds)
	}
	if p.DelayMaxSeconds < p.DelayMinSeconds {
		return fmt.Errorf("%w: delay max %g below min %g", ErrInvalidPolicy, p.DelayMaxSeconds, p.DelayMinSeconds)
	}
	return nil
}

// Decision is the per-request outcome of a policy evaluation.
type Decision struct {
	InduceError bool
	// ErrorClass is the status class the target is expected to produce.
	// The demo target contract picks uniformly among 400/404/500 itself;
	// this field mirrors that split and is advisory for real targets.
	ErrorClass   int
	DelaySeconds float64
}

var errorClasses = [...]int{400, 404, 500}

// Decide evaluates the policy against one request. A nil policy yields the
// zero decision. Deterministic given a seeded rng.
func Decide(p *Policy, rng *rand.Rand) Decision {
	if p == nil {
		return Decision{}
	}

	var d Decision
	if p.ErrorRatePercent > 0 && rng.Intn(100) < p.ErrorRatePercent {
		d.InduceError = true
		d.ErrorClass = errorClasses[rng.Intn(len(errorClasses))]
	}
	if p.DelayMaxSeconds > 0 {
		d.DelaySeconds = p.DelayMinSeconds + rng.Float64()*(p.DelayMaxSeconds-p.DelayMinSeconds)
	}
	return d
}
