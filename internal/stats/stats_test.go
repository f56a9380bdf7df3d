package stats

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestRecordAndInvariants(t *testing.T) {
	s := New()

	s.Record("/a", 200, FailNone, 10*time.Millisecond)
	s.Record("/a", 200, FailNone, 20*time.Millisecond)
	s.Record("/a", 404, FailNone, 5*time.Millisecond)
	s.Record("/b", 500, FailNone, 30*time.Millisecond)
	s.Record("/b", 301, FailNone, 3*time.Millisecond)
	s.Record("/b", 0, FailTimeout, 0)
	s.Record("/c", 0, FailConnError, 0)
	s.Record("/c", 0, FailCancelled, 0)

	sum := s.Finalize(time.Now().Add(-time.Second), time.Now())

	require.Equal(t, uint64(8), sum.TotalRequests)
	require.Equal(t, uint64(2), sum.Success)

	// Total equals the sum across every outcome bucket.
	var classTotal uint64
	for _, v := range sum.StatusClasses {
		classTotal += v
	}
	require.Equal(t, sum.TotalRequests, classTotal+sum.Timeouts+sum.ConnErrors+sum.Cancelled)

	// Total equals the per-target breakdown.
	var targetTotal uint64
	for _, tc := range sum.PerTarget {
		targetTotal += tc.Requests
	}
	require.Equal(t, sum.TotalRequests, targetTotal)

	require.Equal(t, uint64(2), sum.StatusClasses["2xx"])
	require.Equal(t, uint64(1), sum.StatusClasses["3xx"])
	require.Equal(t, uint64(1), sum.StatusClasses["4xx"])
	require.Equal(t, uint64(1), sum.StatusClasses["5xx"])
	require.Equal(t, uint64(1), sum.Timeouts)
	require.Equal(t, uint64(1), sum.ConnErrors)
	require.Equal(t, uint64(1), sum.Cancelled)

	require.Equal(t, TargetSummary{Requests: 3, Success: 2}, sum.PerTarget["/a"])
	require.Equal(t, TargetSummary{Requests: 3, Success: 0}, sum.PerTarget["/b"])
}

func TestPercentilesExcludeNonCompleted(t *testing.T) {
	s := New()
	s.Record("/a", 200, FailNone, 10*time.Millisecond)
	// Timeouts carry no latency sample.
	for i := 0; i < 100; i++ {
		s.Record("/a", 0, FailTimeout, time.Minute)
	}

	require.Equal(t, int64(1), s.Latency.TotalCount())
	require.InDelta(t, 10.0, s.PercentileMs(99), 1.0)
}

func TestEmptySummary(t *testing.T) {
	s := New()
	now := time.Now()
	sum := s.Finalize(now, now)

	require.Zero(t, sum.TotalRequests)
	require.Zero(t, sum.P50Ms)
	require.Zero(t, sum.P99Ms)
	require.Zero(t, sum.MaxMs)
	require.Zero(t, sum.ActualRPS)
	require.Empty(t, sum.StatusClasses)
	require.Empty(t, sum.PerTarget)
}

func TestErrorRate(t *testing.T) {
	s := New()
	require.Zero(t, s.ErrorRate())

	s.Record("/a", 200, FailNone, time.Millisecond)
	s.Record("/a", 500, FailNone, time.Millisecond)
	require.InDelta(t, 50.0, s.ErrorRate(), 0.001)
}

func TestSnapshot(t *testing.T) {
	s := New()
	s.Record("/a", 200, FailNone, 8*time.Millisecond)
	s.Record("/a", 503, FailNone, 2*time.Millisecond)
	s.Record("/a", 0, FailConnError, 0)

	snap := s.Snapshot()
	require.Equal(t, uint64(3), snap.Requests)
	require.Equal(t, uint64(1), snap.Success)
	require.Equal(t, uint64(1), snap.Class5xx)
	require.Equal(t, uint64(1), snap.ConnErrs)
	require.Positive(t, snap.P99Ms)
}

func TestHistogramClampsExtremes(t *testing.T) {
	h := NewSafeHistogram()
	// Values outside the trackable range must not panic or poison the run.
	h.RecordValue(-5)
	h.RecordValue(int64(24 * time.Hour / time.Microsecond))
	require.Equal(t, int64(2), h.TotalCount())
}
