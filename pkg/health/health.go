package health

import (
	"context"
	"encoding/json"
	"net/http"
	"sync"
	"time"
)

const probeTimeout = 5 * time.Second

// Checker probes one dependency and returns an error when it is unhealthy.
type Checker func(ctx context.Context) error

// Status is the reported health of a component.
type Status string

const (
	StatusUp   Status = "up"
	StatusDown Status = "down"
)

// Response is the body returned by the health endpoints.
type Response struct {
	Status    Status                 `json:"status"`
	Timestamp time.Time              `json:"timestamp"`
	Checks    map[string]CheckResult `json:"checks,omitempty"`
}

// CheckResult is the outcome of one dependency probe.
type CheckResult struct {
	Status Status `json:"status"`
	Error  string `json:"error,omitempty"`
}

// Handler serves liveness and readiness endpoints over registered checkers.
type Handler struct {
	mu       sync.RWMutex
	checkers map[string]Checker
}

func NewHandler() *Handler {
	return &Handler{checkers: make(map[string]Checker)}
}

// Register adds a named dependency probe. Registering the same name
// twice replaces the previous checker.
func (h *Handler) Register(name string, checker Checker) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.checkers[name] = checker
}

func writeHealth(w http.ResponseWriter, status int, body Response) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

// LivenessHandler reports up whenever the process can answer at all.
func (h *Handler) LivenessHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeHealth(w, http.StatusOK, Response{
			Status:    StatusUp,
			Timestamp: time.Now().UTC(),
		})
	}
}

// ReadinessHandler probes every registered dependency in parallel. One
// failing probe turns the overall status down and the code to 503.
func (h *Handler) ReadinessHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), probeTimeout)
		defer cancel()

		h.mu.RLock()
		names := make([]string, 0, len(h.checkers))
		probes := make([]Checker, 0, len(h.checkers))
		for name, c := range h.checkers {
			names = append(names, name)
			probes = append(probes, c)
		}
		h.mu.RUnlock()

		results := make([]CheckResult, len(probes))
		var wg sync.WaitGroup
		for i, probe := range probes {
			wg.Add(1)
			go func(i int, probe Checker) {
				defer wg.Done()
				if err := probe(ctx); err != nil {
					results[i] = CheckResult{Status: StatusDown, Error: err.Error()}
					return
				}
				results[i] = CheckResult{Status: StatusUp}
			}(i, probe)
		}
		wg.Wait()

		overall := StatusUp
		checks := make(map[string]CheckResult, len(results))
		for i, name := range names {
			checks[name] = results[i]
			if results[i].Status == StatusDown {
				overall = StatusDown
			}
		}

		code := http.StatusOK
		if overall == StatusDown {
			code = http.StatusServiceUnavailable
		}
		writeHealth(w, code, Response{
			Status:    overall,
			Timestamp: time.Now().UTC(),
			Checks:    checks,
		})
	}
}
