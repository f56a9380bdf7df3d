package runner

import (
	"context"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"faultline/internal/inject"
	"faultline/internal/stats"
	"faultline/internal/target"
)

func testTarget(path string) target.Descriptor {
	return target.Descriptor{Path: path, Method: "GET", Weight: 1}
}

func TestExecuteRecordsStatus(t *testing.T) {
	for _, status := range []int{200, 301, 404, 500, 503} {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(status)
		}))

		e := NewExecutor(srv.URL, time.Second)
		// Redirect-following would mask the 301; the raw status is the data
		// we care about on a 200-or-300 exchange.
		e.Client.CheckRedirect = func(req *http.Request, via []*http.Request) error {
			return http.ErrUseLastResponse
		}

		out := e.Execute(context.Background(), testTarget("/x"), inject.Decision{}, 0)
		require.Equal(t, status, out.StatusCode)
		require.Equal(t, stats.FailNone, out.Failure)
		require.Positive(t, out.Duration)
		srv.Close()
	}
}

func TestExecuteEncodesInjection(t *testing.T) {
	var got url.Values
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got = r.URL.Query()
	}))
	defer srv.Close()

	e := NewExecutor(srv.URL, time.Second)

	dec := inject.Decision{InduceError: true, ErrorClass: 500, DelaySeconds: 0.25}
	e.Execute(context.Background(), testTarget("/error"), dec, 0)
	require.Equal(t, "100", got.Get("rate"))
	require.Equal(t, "0.250", got.Get("seconds"))

	// No injection decision: request carries no injection parameters.
	e.Execute(context.Background(), testTarget("/health"), inject.Decision{}, 0)
	require.Empty(t, got.Get("rate"))
	require.Empty(t, got.Get("seconds"))
}

func TestExecuteRateZeroForPolicyTargets(t *testing.T) {
	var got url.Values
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got = r.URL.Query()
	}))
	defer srv.Close()

	e := NewExecutor(srv.URL, time.Second)

	// A target with an error policy that decided "no error this time" must
	// pin rate=0 so the target's own default rate does not fire.
	d := testTarget("/error")
	d.Injection = &inject.Policy{ErrorRatePercent: 50}
	e.Execute(context.Background(), d, inject.Decision{}, 0)
	require.Equal(t, "0", got.Get("rate"))
}

func TestExecuteTimeout(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(500 * time.Millisecond)
	}))
	defer srv.Close()

	e := NewExecutor(srv.URL, 50*time.Millisecond)
	out := e.Execute(context.Background(), testTarget("/slow"), inject.Decision{}, 0)
	require.Equal(t, stats.FailTimeout, out.Failure)
	require.Zero(t, out.StatusCode)
}

func TestExecuteConnError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	srv.Close() // nothing listening anymore

	e := NewExecutor(srv.URL, time.Second)
	out := e.Execute(context.Background(), testTarget("/x"), inject.Decision{}, 0)
	require.Equal(t, stats.FailConnError, out.Failure)
}

func TestExecuteCancelled(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(2 * time.Second)
	}))
	defer srv.Close()

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		time.Sleep(50 * time.Millisecond)
		cancel()
	}()

	e := NewExecutor(srv.URL, 10*time.Second)
	out := e.Execute(ctx, testTarget("/slow"), inject.Decision{}, 0)
	require.Equal(t, stats.FailCancelled, out.Failure)
}

func TestHealthCheck(t *testing.T) {
	healthy := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/health", r.URL.Path)
		w.WriteHeader(http.StatusOK)
	}))
	defer healthy.Close()
	require.NoError(t, NewExecutor(healthy.URL, time.Second).HealthCheck(context.Background()))

	sick := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer sick.Close()
	require.Error(t, NewExecutor(sick.URL, time.Second).HealthCheck(context.Background()))

	gone := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	gone.Close()
	require.Error(t, NewExecutor(gone.URL, time.Second).HealthCheck(context.Background()))
}

func TestBuildURLTrimsSlash(t *testing.T) {
	e := NewExecutor("http://example.test/", time.Second)
	u := e.buildURL(testTarget("/health"), inject.Decision{})
	require.Equal(t, "http://example.test/health", u)
}
