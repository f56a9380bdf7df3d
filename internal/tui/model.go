package tui

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/progress"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"faultline/internal/runner"
	"faultline/internal/stats"
	"faultline/internal/tui/components"
	"faultline/internal/tui/styles"
)

type summaryMsg stats.Summary

// Model shows a live run view and flips to a result view when the run
// finishes. Pressing q mid-run aborts the run first; pressing it on the
// result view exits.
type Model struct {
	scenarioName string
	totalDur     time.Duration
	cancel       context.CancelFunc

	updates chan stats.Snapshot

	Progress    progress.Model
	RpsLine     components.Sparkline
	LatencyLine components.Sparkline

	StartTime  time.Time
	LastUpdate time.Time
	LastReqs   uint64

	snap    stats.Snapshot
	summary *stats.Summary

	Width  int
	Height int
}

func NewModel(scenarioName string, totalDur time.Duration, updates chan stats.Snapshot, cancel context.CancelFunc) Model {
	return Model{
		scenarioName: scenarioName,
		totalDur:     totalDur,
		cancel:       cancel,
		updates:      updates,
		Progress:     progress.New(progress.WithDefaultGradient()),
		RpsLine:      components.NewSparkline(40, "RPS", styles.Active),
		LatencyLine:  components.NewSparkline(40, "Latency P95 (ms)", styles.Warn),
		StartTime:    time.Now(),
		LastUpdate:   time.Now(),
	}
}

func waitForSnapshot(ch chan stats.Snapshot) tea.Cmd {
	return func() tea.Msg {
		return <-ch
	}
}

func (m Model) Init() tea.Cmd {
	return waitForSnapshot(m.updates)
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case stats.Snapshot:
		now := time.Now()
		dt := now.Sub(m.LastUpdate).Seconds()
		if dt < 0.01 {
			dt = 0.01
		}

		rps := float64(msg.Requests-m.LastReqs) / dt
		m.RpsLine.Add(uint64(rps))
		m.LatencyLine.Add(uint64(msg.P95Ms))

		m.snap = msg
		m.LastReqs = msg.Requests
		m.LastUpdate = now

		elapsed := time.Since(m.StartTime)
		pct := 0.0
		if m.totalDur > 0 {
			pct = float64(elapsed) / float64(m.totalDur)
		}
		if pct > 1.0 {
			pct = 1.0
		}
		return m, tea.Batch(m.Progress.SetPercent(pct), waitForSnapshot(m.updates))

	case summaryMsg:
		sum := stats.Summary(msg)
		m.summary = &sum
		return m, nil

	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c", "esc":
			if m.summary == nil {
				m.cancel()
				return m, nil
			}
			return m, tea.Quit
		}
		return m, nil

	case tea.WindowSizeMsg:
		m.Width = msg.Width
		m.Height = msg.Height
		m.Progress.Width = msg.Width - 4

		half := (msg.Width / 2) - 4
		if half < 10 {
			half = 10
		}
		m.RpsLine.Width = half
		m.LatencyLine.Width = half
		return m, nil

	case progress.FrameMsg:
		prog, cmd := m.Progress.Update(msg)
		m.Progress = prog.(progress.Model)
		return m, cmd
	}

	return m, nil
}

func (m Model) View() string {
	if m.summary != nil {
		return m.resultView()
	}
	return m.liveView()
}

func (m Model) liveView() string {
	s := strings.Builder{}

	s.WriteString(styles.Title.Render(fmt.Sprintf("faultline — %s", m.scenarioName)))
	s.WriteString("\n\n")

	reqs := m.snap.Requests
	errRate := 0.0
	if reqs > 0 {
		errRate = float64(reqs-m.snap.Success) / float64(reqs) * 100
	}

	errColor := styles.Active
	if errRate > 5.0 {
		errColor = styles.Error
	} else if errRate > 1.0 {
		errColor = styles.Warn
	}

	col1 := fmt.Sprintf("REQ: %d\nINF: %d", reqs, m.snap.Inflight)
	col2 := fmt.Sprintf("ERR: %.2f%%\n4xx/5xx: %d/%d", errRate, m.snap.Class4xx, m.snap.Class5xx)
	col3 := fmt.Sprintf("STAGE: %d\nSTATE: %s", m.snap.Stage, m.snap.State)

	grid := lipgloss.JoinHorizontal(lipgloss.Top,
		styles.Box.Render(col1),
		styles.Box.Render(errColor.Render(col2)),
		styles.Box.Render(col3),
	)
	s.WriteString(grid)
	s.WriteString("\n\n")

	s.WriteString(lipgloss.JoinHorizontal(lipgloss.Top,
		styles.Box.Render(m.RpsLine.View()),
		styles.Box.Render(m.LatencyLine.View()),
	))
	s.WriteString("\n\n")

	latencies := fmt.Sprintf(
		"P50: %.2f ms  |  P95: %.2f ms  |  P99: %.2f ms  |  Max: %.2f ms",
		m.snap.P50Ms, m.snap.P95Ms, m.snap.P99Ms, m.snap.MaxMs,
	)
	s.WriteString(styles.Box.Width(m.Width - 4).Render(latencies))
	s.WriteString("\n\n")

	s.WriteString(m.Progress.View())
	s.WriteString("\n\n")
	s.WriteString(styles.Subtle.Render("q to abort"))

	return s.String()
}

func (m Model) resultView() string {
	sum := m.summary
	s := strings.Builder{}

	title := "Run Complete"
	if sum.Incomplete {
		title = "Run Cancelled (partial results)"
	}
	s.WriteString(styles.Title.Render(title))
	s.WriteString("\n\n")

	s.WriteString(styles.Active.Render("Overview"))
	s.WriteString("\n")
	overview := fmt.Sprintf(
		"Total Requests: %d\nSuccess:        %d\nTimeouts:       %d\nConn Errors:    %d\nActual RPS:     %.2f",
		sum.TotalRequests, sum.Success, sum.Timeouts, sum.ConnErrors, sum.ActualRPS,
	)
	s.WriteString(styles.Box.Render(overview))
	s.WriteString("\n\n")

	s.WriteString(styles.Active.Render("Latency (completed requests)"))
	s.WriteString("\n")
	latency := fmt.Sprintf(
		"P50: %.2f ms\nP95: %.2f ms\nP99: %.2f ms\nMax: %.2f ms",
		sum.P50Ms, sum.P95Ms, sum.P99Ms, sum.MaxMs,
	)
	s.WriteString(styles.Box.Render(latency))
	s.WriteString("\n\n")

	if len(sum.PerTarget) > 0 {
		s.WriteString(styles.Active.Render("Per Target"))
		s.WriteString("\n")
		paths := make([]string, 0, len(sum.PerTarget))
		for p := range sum.PerTarget {
			paths = append(paths, p)
		}
		sort.Strings(paths)
		rows := strings.Builder{}
		for i, p := range paths {
			tc := sum.PerTarget[p]
			if i > 0 {
				rows.WriteString("\n")
			}
			rows.WriteString(fmt.Sprintf("%-20s %6d req %6d ok", p, tc.Requests, tc.Success))
		}
		s.WriteString(styles.Box.Render(rows.String()))
		s.WriteString("\n\n")
	}

	s.WriteString(styles.Subtle.Render("Press q to quit"))
	return s.String()
}

// Run executes the runner behind a live TUI and returns the finalized summary.
func Run(ctx context.Context, r *runner.Runner) (stats.Summary, error) {
	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	m := NewModel(r.Scenario.Name, r.Scenario.TotalDuration(), r.Updates, cancel)
	p := tea.NewProgram(m, tea.WithAltScreen())

	done := make(chan stats.Summary, 1)
	go func() {
		sum, _ := r.Run(runCtx)
		done <- sum
		p.Send(summaryMsg(sum))
	}()

	if _, err := p.Run(); err != nil {
		cancel()
		return <-done, err
	}
	cancel()
	return <-done, nil
}
