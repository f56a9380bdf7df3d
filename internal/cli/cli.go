package cli

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"faultline/internal/runner"
	"faultline/internal/stats"
	"faultline/internal/storage"
)

type Options struct {
	// OutPrefix, when set, writes <prefix>_summary.json after the run.
	OutPrefix string
	// SaveHistory persists the run under ~/.faultline.
	SaveHistory bool
}

// Start drives a headless run: periodic progress line, final report, optional
// export and history save. The summary is returned even for cancelled runs.
func Start(ctx context.Context, r *runner.Runner, opts Options) (stats.Summary, error) {
	printHeader(r)

	done := make(chan stats.Summary, 1)
	go func() {
		sum, _ := r.Run(ctx)
		done <- sum
	}()

	startTime := time.Now()
	totalDuration := r.Scenario.TotalDuration()
	ticker := time.NewTicker(200 * time.Millisecond)
	defer ticker.Stop()

	for {
		select {
		case <-r.Updates:
			// Drain; progress renders on its own tick.
		case <-ticker.C:
			renderProgress(r, startTime, totalDuration)
		case sum := <-done:
			fmt.Println()
			printSummary(sum)

			if opts.OutPrefix != "" {
				if err := ExportSummary(sum, opts.OutPrefix); err != nil {
					fmt.Printf("failed to write report: %v\n", err)
				} else {
					fmt.Printf("Report saved to %s_summary.json\n", opts.OutPrefix)
				}
			}
			if opts.SaveHistory {
				SaveHistory(sum)
			}
			return sum, nil
		}
	}
}

func renderProgress(r *runner.Runner, startTime time.Time, totalDuration time.Duration) {
	elapsed := time.Since(startTime)
	snap := r.Stats.Snapshot()
	inflight := r.Inflight()

	rps := 0.0
	if elapsed.Seconds() > 0 {
		rps = float64(snap.Requests) / elapsed.Seconds()
	}

	if r.State() == runner.StateDraining {
		fmt.Printf("\r%s 100%% | draining %d in-flight requests...                ",
			progressBar(1.0, 20), inflight)
		return
	}

	pct := 0.0
	if totalDuration > 0 {
		pct = elapsed.Seconds() / totalDuration.Seconds()
	}
	if pct > 1.0 {
		pct = 1.0
	}

	fmt.Printf("\r%s %3.0f%% | %s/%s | stage %d | inf %3d | rps %.1f | ok %d | err %d",
		progressBar(pct, 20), pct*100,
		elapsed.Round(time.Second), totalDuration,
		snap.Stage,
		inflight,
		rps,
		snap.Success,
		snap.Requests-snap.Success,
	)
}

func printHeader(r *runner.Runner) {
	fmt.Printf("\nFAULTLINE TRAFFIC RUN\n")
	fmt.Printf("======================================================================\n")
	fmt.Printf("Target     : %s\n", r.Cfg.BaseURL)
	fmt.Printf("Scenario   : %s (%d stages, %s)\n",
		r.Scenario.Name, len(r.Scenario.Stages), r.Scenario.TotalDuration())
	fmt.Printf("Peak users : %d\n", r.Scenario.MaxConcurrency())
	fmt.Printf("Timeout    : %s | Grace: %s | Seed: %d\n", r.Cfg.Timeout, r.Cfg.Grace, r.Cfg.Seed)

	fmt.Printf("Targets    :")
	for _, t := range r.Selector.Targets() {
		fmt.Printf(" %s(w=%g)", t.Path, t.Weight)
	}
	fmt.Printf("\n======================================================================\n\n")
}

func progressBar(pct float64, width int) string {
	filled := int(pct * float64(width))
	if filled > width {
		filled = width
	}
	if filled < 0 {
		filled = 0
	}
	return "[" + strings.Repeat("█", filled) + strings.Repeat("-", width-filled) + "]"
}

func printSummary(sum stats.Summary) {
	fmt.Printf("\nRUN SUMMARY")
	if sum.Incomplete {
		fmt.Printf("  (INCOMPLETE — run was cancelled)")
	}
	fmt.Printf("\n======================================================================\n")
	fmt.Printf("Duration       : %s\n", sum.EndedAt.Sub(sum.StartedAt).Round(time.Millisecond))
	fmt.Printf("Requests Sent  : %d\n", sum.TotalRequests)
	fmt.Printf("Success (2xx)  : %d\n", sum.Success)
	for _, class := range []string{"3xx", "4xx", "5xx"} {
		if n := sum.StatusClasses[class]; n > 0 {
			fmt.Printf("HTTP %s       : %d\n", class, n)
		}
	}
	fmt.Printf("Timeouts       : %d\n", sum.Timeouts)
	fmt.Printf("Conn Errors    : %d\n", sum.ConnErrors)
	if sum.Cancelled > 0 {
		fmt.Printf("Cancelled      : %d\n", sum.Cancelled)
	}
	fmt.Printf("Actual RPS     : %.2f\n", sum.ActualRPS)

	fmt.Printf("\nLATENCY (ms) [completed requests only]\n")
	fmt.Printf("   P50 : %.2f\n", sum.P50Ms)
	fmt.Printf("   P95 : %.2f\n", sum.P95Ms)
	fmt.Printf("   P99 : %.2f\n", sum.P99Ms)
	fmt.Printf("   Max : %.2f\n", sum.MaxMs)

	if len(sum.PerTarget) > 0 {
		fmt.Printf("\nPER TARGET\n")
		paths := make([]string, 0, len(sum.PerTarget))
		for p := range sum.PerTarget {
			paths = append(paths, p)
		}
		sort.Strings(paths)
		for _, p := range paths {
			tc := sum.PerTarget[p]
			fmt.Printf("   %-20s %6d requests, %6d ok\n", p, tc.Requests, tc.Success)
		}
	}
	fmt.Printf("======================================================================\n")
}

// SaveHistory persists the run under the user's history store; failures are
// reported but never fail the run.
func SaveHistory(sum stats.Summary) {
	store, err := storage.NewStore()
	if err != nil {
		fmt.Printf("history unavailable: %v\n", err)
		return
	}
	defer store.Close()

	if err := store.Save(storage.FromSummary(sum)); err != nil {
		fmt.Printf("failed to save run history: %v\n", err)
	}
}
