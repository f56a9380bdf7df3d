package target

import (
	"math/rand"
	"sort"
)

// Selector picks targets proportionally to their weights. Cumulative sums are
// computed once at construction; each pick is one uniform draw plus a binary
// search. Ties resolve to the first matching descriptor, so a seeded rng
// reproduces the exact pick sequence.
type Selector struct {
	targets []Descriptor
	cum     []float64
	total   float64
}

func NewSelector(targets []Descriptor) (*Selector, error) {
	if len(targets) == 0 {
		return nil, ErrNoTargets
	}

	s := &Selector{
		targets: make([]Descriptor, len(targets)),
		cum:     make([]float64, len(targets)),
	}
	copy(s.targets, targets)

	for i, t := range s.targets {
		if err := t.Validate(); err != nil {
			return nil, err
		}
		s.total += t.Weight
		s.cum[i] = s.total
	}
	return s, nil
}

func (s *Selector) Pick(rng *rand.Rand) Descriptor {
	x := rng.Float64() * s.total
	i := sort.SearchFloat64s(s.cum, x)
	// SearchFloat64s finds the first index with cum[i] >= x; an exact hit on a
	// boundary belongs to the next bucket.
	if i < len(s.cum) && s.cum[i] == x {
		i++
	}
	if i >= len(s.targets) {
		i = len(s.targets) - 1
	}
	return s.targets[i]
}

// Targets returns the descriptor set in selection order.
func (s *Selector) Targets() []Descriptor {
	out := make([]Descriptor, len(s.targets))
	copy(out, s.targets)
	return out
}

func (s *Selector) TotalWeight() float64 {
	return s.total
}
