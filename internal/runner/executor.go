package runner

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"faultline/internal/inject"
	"faultline/internal/stats"
	"faultline/internal/target"
)

// Executor issues one HTTP call per invocation, measures latency and
// classifies the result. A single tuned client is shared by all workers.
type Executor struct {
	BaseURL string
	Client  *http.Client
	Timeout time.Duration
}

func NewExecutor(baseURL string, timeout time.Duration) *Executor {
	t := http.DefaultTransport.(*http.Transport).Clone()
	t.MaxIdleConns = 2000
	t.MaxConnsPerHost = 2000
	t.MaxIdleConnsPerHost = 2000

	return &Executor{
		BaseURL: strings.TrimSuffix(baseURL, "/"),
		Client:  &http.Client{Transport: t},
		Timeout: timeout,
	}
}

// buildURL merges the target path with the injection decision encoded as
// query parameters per the demo target contract: rate for induced errors,
// seconds for artificial delay.
func (e *Executor) buildURL(t target.Descriptor, dec inject.Decision) string {
	q := url.Values{}
	if dec.InduceError {
		// The decision is already made; rate=100 tells the target to fail
		// this particular request.
		q.Set("rate", "100")
	} else if t.Injection != nil && t.Injection.ErrorRatePercent > 0 {
		q.Set("rate", "0")
	}
	if dec.DelaySeconds > 0 {
		q.Set("seconds", strconv.FormatFloat(dec.DelaySeconds, 'f', 3, 64))
	}

	u := e.BaseURL + t.Path
	if enc := q.Encode(); enc != "" {
		u += "?" + enc
	}
	return u
}

// Execute performs the call. ctx is the run-level context; the per-request
// timeout is layered on top so a cancelled run and a slow target classify
// differently.
func (e *Executor) Execute(ctx context.Context, t target.Descriptor, dec inject.Decision, stage int) Outcome {
	reqCtx, cancel := context.WithTimeout(ctx, e.Timeout)
	defer cancel()

	out := Outcome{Target: t, StageIndex: stage, Start: time.Now()}

	req, err := http.NewRequestWithContext(reqCtx, t.Method, e.buildURL(t, dec), nil)
	if err != nil {
		out.Failure = stats.FailConnError
		return out
	}

	resp, err := e.Client.Do(req)
	out.Duration = time.Since(out.Start)

	if err != nil {
		out.Failure = classify(ctx, err)
		return out
	}

	io.Copy(io.Discard, resp.Body)
	resp.Body.Close()
	out.StatusCode = resp.StatusCode
	return out
}

func classify(runCtx context.Context, err error) stats.FailureKind {
	// Run-level cancellation wins over the per-request deadline.
	if runCtx.Err() != nil {
		return stats.FailCancelled
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return stats.FailTimeout
	}
	return stats.FailConnError
}

// HealthCheck gates a run on the target being reachable and ready.
func (e *Executor) HealthCheck(ctx context.Context) error {
	reqCtx, cancel := context.WithTimeout(ctx, e.Timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(reqCtx, http.MethodGet, e.BaseURL+"/health", nil)
	if err != nil {
		return fmt.Errorf("health check: %w", err)
	}
	resp, err := e.Client.Do(req)
	if err != nil {
		return fmt.Errorf("health check against %s: %w", e.BaseURL, err)
	}
	io.Copy(io.Discard, resp.Body)
	resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("health check against %s: status %d", e.BaseURL, resp.StatusCode)
	}
	return nil
}
