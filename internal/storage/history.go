package storage

import (
	"time"

	"faultline/internal/stats"
)

// HistoryItem is one persisted run.
type HistoryItem struct {
	ID        string        `json:"id"`
	Timestamp time.Time     `json:"timestamp"`
	Scenario  string        `json:"scenario"`
	BaseURL   string        `json:"base_url"`
	Summary   stats.Summary `json:"summary"`
}

// FromSummary builds the history record for a finalized run.
func FromSummary(sum stats.Summary) HistoryItem {
	return HistoryItem{
		ID:        sum.RunID,
		Timestamp: sum.StartedAt,
		Scenario:  sum.Scenario,
		BaseURL:   sum.BaseURL,
		Summary:   sum,
	}
}
