package scenario

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestValidateEmpty(t *testing.T) {
	require.ErrorIs(t, Scenario{Name: "empty"}.Validate(), ErrEmptyScenario)
}

func TestValidateBadStages(t *testing.T) {
	bad := Scenario{Name: "bad", Stages: []Stage{{Duration: time.Second, Concurrency: 0}}}
	require.Error(t, bad.Validate())

	neg := Scenario{Name: "neg", Stages: []Stage{{Duration: -time.Second, Concurrency: 1}}}
	require.Error(t, neg.Validate())
}

func TestZeroDurationStageIsValid(t *testing.T) {
	s := Scenario{Name: "zero", Stages: []Stage{{Duration: 0, Concurrency: 1}}}
	require.NoError(t, s.Validate())
	require.Equal(t, time.Duration(0), s.TotalDuration())
}

func TestCatalog(t *testing.T) {
	for _, s := range []Scenario{Quick(), Sustained(time.Minute), Errors(30 * time.Second), Ramp(), Spike(), Full()} {
		require.NoError(t, s.Validate(), s.Name)
		require.Positive(t, s.TotalDuration(), s.Name)
	}
}

func TestQuickShape(t *testing.T) {
	s := Quick()
	require.Len(t, s.Stages, 1)
	require.Equal(t, 30*time.Second, s.Stages[0].Duration)
	require.Equal(t, 5, s.Stages[0].Concurrency)
}

func TestRampClimbsAndDescends(t *testing.T) {
	s := Ramp()
	peak := s.MaxConcurrency()
	require.Greater(t, peak, s.Stages[0].Concurrency)
	require.Equal(t, s.Stages[0].Concurrency, s.Stages[len(s.Stages)-1].Concurrency)
}

func TestSpikeShape(t *testing.T) {
	s := Spike()
	require.Len(t, s.Stages, 3)
	require.Greater(t, s.Stages[1].Concurrency, s.Stages[0].Concurrency)
	require.Greater(t, s.Stages[1].Concurrency, s.Stages[2].Concurrency)
}

func TestFullConcatenates(t *testing.T) {
	want := len(Quick().Stages) + len(Ramp().Stages) + len(Spike().Stages)
	full := Full()
	require.Len(t, full.Stages, want)
	require.Equal(t, Quick().TotalDuration()+Ramp().TotalDuration()+Spike().TotalDuration(), full.TotalDuration())
}

func TestSustainedDuration(t *testing.T) {
	s := Sustained(42 * time.Second)
	require.Equal(t, 42*time.Second, s.TotalDuration())
}
