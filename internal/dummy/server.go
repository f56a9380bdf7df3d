package dummy

import (
	"encoding/json"
	"fmt"
	"math/rand"
	"net/http"
	"time"
)

type ServerConfig struct {
	Port int
}

var users = []map[string]any{
	{"id": 1, "name": "Alice", "role": "admin"},
	{"id": 2, "name": "Bob", "role": "user"},
	{"id": 3, "name": "Carol", "role": "user"},
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

// Handler returns the demo target mux. The endpoint contract mirrors the
// golden-signals demo app the generator is built to drive.
func Handler() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/" {
			writeJSON(w, http.StatusNotFound, map[string]any{"error": "not found"})
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{
			"message":   "Hello from the faultline demo target",
			"timestamp": time.Now().Format(time.RFC3339),
		})
	})

	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]any{
			"status":    "healthy",
			"timestamp": time.Now().Format(time.RFC3339),
		})
	})

	mux.HandleFunc("/users", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]any{"users": users})
	})

	// Latency: artificial delay controlled by ?seconds=
	mux.HandleFunc("/delay", func(w http.ResponseWriter, r *http.Request) {
		seconds := 1.0
		if s := r.URL.Query().Get("seconds"); s != "" {
			fmt.Sscanf(s, "%f", &seconds)
		}
		time.Sleep(time.Duration(seconds * float64(time.Second)))
		writeJSON(w, http.StatusOK, map[string]any{
			"message": fmt.Sprintf("Delayed response after %g seconds", seconds),
			"delay":   seconds,
		})
	})

	// Errors: fails with probability ?rate= percent, picking uniformly among
	// 400, 404 and 500.
	mux.HandleFunc("/error", func(w http.ResponseWriter, r *http.Request) {
		rate := 50
		if s := r.URL.Query().Get("rate"); s != "" {
			fmt.Sscanf(s, "%d", &rate)
		}
		if rand.Intn(100) < rate {
			switch rand.Intn(3) {
			case 0:
				writeJSON(w, http.StatusBadRequest, map[string]any{"error": "Bad request simulation"})
			case 1:
				writeJSON(w, http.StatusNotFound, map[string]any{"error": "Resource not found simulation"})
			default:
				writeJSON(w, http.StatusInternalServerError, map[string]any{"error": "Internal server error simulation"})
			}
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"message": "Success! No error generated this time"})
	})

	// Saturation: burn CPU for ?iterations= loop rounds.
	mux.HandleFunc("/cpu-intensive", func(w http.ResponseWriter, r *http.Request) {
		iterations := 100000
		if s := r.URL.Query().Get("iterations"); s != "" {
			fmt.Sscanf(s, "%d", &iterations)
		}
		start := time.Now()
		var result uint64
		for i := 0; i < iterations; i++ {
			result += uint64(i) * uint64(i)
		}
		writeJSON(w, http.StatusOK, map[string]any{
			"message":        "CPU-intensive operation completed",
			"iterations":     iterations,
			"result":         result,
			"execution_time": time.Since(start).Seconds(),
		})
	})

	// Saturation: hold ?size= MB of memory for a second.
	mux.HandleFunc("/memory-usage", func(w http.ResponseWriter, r *http.Request) {
		sizeMB := 10
		if s := r.URL.Query().Get("size"); s != "" {
			fmt.Sscanf(s, "%d", &sizeMB)
		}
		data := make([]byte, sizeMB*1024*1024)
		time.Sleep(1 * time.Second)
		writeJSON(w, http.StatusOK, map[string]any{
			"message":    fmt.Sprintf("Allocated %d MB of memory", sizeMB),
			"size_bytes": len(data),
		})
	})

	return mux
}

func Start(cfg ServerConfig) {
	addr := fmt.Sprintf(":%d", cfg.Port)
	fmt.Printf("Demo target running on http://localhost%s\n", addr)
	fmt.Println("   Endpoints: /, /health, /users, /delay, /error, /cpu-intensive, /memory-usage")

	server := &http.Server{
		Addr:    addr,
		Handler: Handler(),
	}

	go func() {
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			fmt.Printf("Server failed: %v\n", err)
		}
	}()
}
