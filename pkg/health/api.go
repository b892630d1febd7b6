package health

import (
	"context"
	"encoding/json"
	"net/http"
	"runtime"
	"sort"
	"time"
)

const (
	StatusHealthy  = "healthy"
	StatusDegraded = "degraded"
)

// Checker pings one dependency; a nil error means it is reachable.
type Checker func(ctx context.Context) error

type HealthResponse struct {
	Status       string            `json:"status"`
	Timestamp    string            `json:"timestamp"`
	Version      string            `json:"version,omitempty"`
	Uptime       string            `json:"uptime"`
	GoVersion    string            `json:"go_version"`
	Dependencies map[string]string `json:"dependencies,omitempty"`
	Memory       struct {
		Alloc      uint64 `json:"alloc"`      // bytes allocated and not yet freed
		TotalAlloc uint64 `json:"totalAlloc"` // total bytes allocated (even if freed)
		Sys        uint64 `json:"sys"`        // bytes obtained from system
		NumGC      uint32 `json:"numGC"`      // number of garbage collections
	} `json:"memory"`
}

var startTime = time.Now()

type Option func(*options)

type options struct {
	version  string
	timeout  time.Duration
	checkers map[string]Checker
}

func WithVersion(v string) Option {
	return func(o *options) { o.version = v }
}

func WithTimeout(d time.Duration) Option {
	return func(o *options) { o.timeout = d }
}

func WithChecker(name string, c Checker) Option {
	return func(o *options) {
		if c != nil {
			o.checkers[name] = c
		}
	}
}

func HealthGet(opts ...Option) http.HandlerFunc {
	o := &options{version: "1.0.0", timeout: 2 * time.Second, checkers: map[string]Checker{}}
	for _, opt := range opts {
		opt(o)
	}
	names := make([]string, 0, len(o.checkers))
	for name := range o.checkers {
		names = append(names, name)
	}
	sort.Strings(names)

	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			w.WriteHeader(http.StatusMethodNotAllowed)
			return
		}

		var memStats runtime.MemStats
		runtime.ReadMemStats(&memStats)

		health := HealthResponse{
			Status:    StatusHealthy,
			Timestamp: time.Now().UTC().Format(time.RFC3339),
			Version:   o.version,
			Uptime:    time.Since(startTime).String(),
			GoVersion: runtime.Version(),
		}

		health.Memory.Alloc = memStats.Alloc
		health.Memory.TotalAlloc = memStats.TotalAlloc
		health.Memory.Sys = memStats.Sys
		health.Memory.NumGC = memStats.NumGC

		statusCode := http.StatusOK
		if len(names) > 0 {
			ctx, cancel := context.WithTimeout(r.Context(), o.timeout)
			defer cancel()

			health.Dependencies = make(map[string]string, len(names))
			for _, name := range names {
				if err := o.checkers[name](ctx); err != nil {
					health.Dependencies[name] = err.Error()
					health.Status = StatusDegraded
					statusCode = http.StatusServiceUnavailable
					continue
				}
				health.Dependencies[name] = "ok"
			}
		}

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(statusCode)

		if err := json.NewEncoder(w).Encode(health); err != nil {
			json.NewEncoder(w).Encode(map[string]string{
				"error": "Failed to encode health check response",
			})
			return
		}
	}
}
