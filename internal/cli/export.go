package cli

import (
	"encoding/json"
	"os"

	"faultline/internal/stats"
)

// ExportSummary writes the run summary as pretty-printed JSON so results can
// be correlated against the target's own telemetry.
func ExportSummary(sum stats.Summary, prefix string) error {
	data, err := json.MarshalIndent(sum, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(prefix+"_summary.json", data, 0644)
}
