package target

import (
	"errors"
	"fmt"
	"strings"

	"faultline/internal/inject"
)

var (
	ErrInvalidTarget = errors.New("invalid target")
	ErrNoTargets     = errors.New("no targets configured")
)

// Descriptor is static metadata about one endpoint of the target service.
// Immutable once a run starts.
type Descriptor struct {
	Path      string
	Method    string // GET or POST
	Weight    float64
	Tags      []string
	Injection *inject.Policy
}

func (d Descriptor) Validate() error {
	if strings.TrimSpace(d.Path) == "" {
		return fmt.Errorf("%w: empty path", ErrInvalidTarget)
	}
	if d.Method != "GET" && d.Method != "POST" {
		return fmt.Errorf("%w: method %q (want GET or POST)", ErrInvalidTarget, d.Method)
	}
	if d.Weight <= 0 {
		return fmt.Errorf("%w: weight %g for %s (must be > 0)", ErrInvalidTarget, d.Weight, d.Path)
	}
	if d.Injection != nil {
		if err := d.Injection.Validate(); err != nil {
			return fmt.Errorf("target %s: %w", d.Path, err)
		}
	}
	return nil
}

// Defaults is the golden-signals demo target mix used when no targets file
// is given: mostly cheap endpoints, occasional expensive ones.
func Defaults() []Descriptor {
	return []Descriptor{
		{Path: "/", Method: "GET", Weight: 3, Tags: []string{"cheap"}},
		{Path: "/health", Method: "GET", Weight: 1, Tags: []string{"cheap"}},
		{Path: "/users", Method: "GET", Weight: 3, Tags: []string{"cheap"}},
		{Path: "/delay", Method: "GET", Weight: 1, Tags: []string{"latency"},
			Injection: &inject.Policy{DelayMinSeconds: 0.1, DelayMaxSeconds: 0.5}},
		{Path: "/cpu-intensive", Method: "GET", Weight: 1, Tags: []string{"saturation"}},
		{Path: "/memory-usage", Method: "GET", Weight: 1, Tags: []string{"saturation"}},
	}
}

// ErrorMix is the target set for error-rate scenarios: every request hits the
// error endpoint with a 50% induced failure rate.
func ErrorMix() []Descriptor {
	return []Descriptor{
		{Path: "/error", Method: "GET", Weight: 1, Tags: []string{"errors"},
			Injection: &inject.Policy{ErrorRatePercent: 50}},
	}
}
