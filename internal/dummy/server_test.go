package dummy

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func get(t *testing.T, srv *httptest.Server, path string) (*http.Response, map[string]any) {
	t.Helper()
	resp, err := http.Get(srv.URL + path)
	require.NoError(t, err)
	defer resp.Body.Close()

	var body map[string]any
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	return resp, body
}

func TestHealth(t *testing.T) {
	srv := httptest.NewServer(Handler())
	defer srv.Close()

	resp, body := get(t, srv, "/health")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.Equal(t, "healthy", body["status"])
}

func TestRoot(t *testing.T) {
	srv := httptest.NewServer(Handler())
	defer srv.Close()

	resp, _ := get(t, srv, "/")
	require.Equal(t, http.StatusOK, resp.StatusCode)

	resp, _ = get(t, srv, "/nope")
	require.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestUsers(t *testing.T) {
	srv := httptest.NewServer(Handler())
	defer srv.Close()

	resp, body := get(t, srv, "/users")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.NotEmpty(t, body["users"])
}

func TestErrorRateBoundaries(t *testing.T) {
	srv := httptest.NewServer(Handler())
	defer srv.Close()

	for i := 0; i < 50; i++ {
		resp, _ := get(t, srv, "/error?rate=0")
		require.Equal(t, http.StatusOK, resp.StatusCode)

		resp, _ = get(t, srv, "/error?rate=100")
		require.Contains(t, []int{400, 404, 500}, resp.StatusCode)
	}
}

func TestDelay(t *testing.T) {
	srv := httptest.NewServer(Handler())
	defer srv.Close()

	start := time.Now()
	resp, body := get(t, srv, "/delay?seconds=0.05")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.GreaterOrEqual(t, time.Since(start), 50*time.Millisecond)
	require.InDelta(t, 0.05, body["delay"], 1e-9)
}

func TestCPUIntensive(t *testing.T) {
	srv := httptest.NewServer(Handler())
	defer srv.Close()

	resp, body := get(t, srv, "/cpu-intensive?iterations=100")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.EqualValues(t, 100, body["iterations"])
}
