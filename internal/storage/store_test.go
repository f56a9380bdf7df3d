package storage

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"faultline/internal/stats"
)

func testStore(t *testing.T) *Store {
	t.Helper()
	s, err := OpenStore(filepath.Join(t.TempDir(), "history.db"))
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func item(id string, ts time.Time) HistoryItem {
	return FromSummary(stats.Summary{
		RunID:         id,
		Scenario:      "quick",
		BaseURL:       "http://localhost:3001",
		StartedAt:     ts,
		TotalRequests: 42,
		Success:       40,
	})
}

func TestSaveAndGet(t *testing.T) {
	s := testStore(t)

	it := item("run-1", time.Now())
	require.NoError(t, s.Save(it))

	got, err := s.Get("run-1")
	require.NoError(t, err)
	require.Equal(t, it.Scenario, got.Scenario)
	require.Equal(t, uint64(42), got.Summary.TotalRequests)

	_, err = s.Get("missing")
	require.Error(t, err)
}

func TestListNewestFirst(t *testing.T) {
	s := testStore(t)

	base := time.Now().Add(-time.Hour)
	require.NoError(t, s.Save(item("old", base)))
	require.NoError(t, s.Save(item("mid", base.Add(10*time.Minute))))
	require.NoError(t, s.Save(item("new", base.Add(20*time.Minute))))

	items := s.List()
	require.Len(t, items, 3)
	require.Equal(t, "new", items[0].ID)
	require.Equal(t, "mid", items[1].ID)
	require.Equal(t, "old", items[2].ID)
}

func TestListEmpty(t *testing.T) {
	s := testStore(t)
	require.Empty(t, s.List())
}
