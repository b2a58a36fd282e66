// Package health provides HTTP health and readiness check handlers for the
// voxsight server.
//
// The package exposes two endpoints:
//
//   - /healthz — liveness probe; always returns 200 OK.
//   - /readyz  — readiness probe; returns 200 only when all registered
//     probes pass.
//
// Responses are JSON objects with a top-level "status" field ("ok" or
// "fail") and a "probes" map containing the result of each named probe.
package health

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"
)

// probeTimeout is the maximum time a single readiness probe may take before
// its context is cancelled.
const probeTimeout = 5 * time.Second

// Probe is a named readiness check. The Check function should return nil
// when the dependency is usable and a non-nil error describing the failure
// otherwise.
type Probe struct {
	// Name is a short label for this probe (e.g. "inference", "scene"). It
	// appears as a key in the JSON response.
	Name string

	// Check probes the dependency. It must respect context cancellation.
	Check func(ctx context.Context) error
}

// Reachable returns a probe that issues a GET to url and passes on any
// response, regardless of status code. Used for the inference endpoint,
// where reachability is what readiness means; prediction errors are the
// pipeline's concern.
func Reachable(name, url string, client *http.Client) Probe {
	if client == nil {
		client = http.DefaultClient
	}
	return Probe{
		Name: name,
		Check: func(ctx context.Context) error {
			req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
			if err != nil {
				return fmt.Errorf("build request: %w", err)
			}
			resp, err := client.Do(req)
			if err != nil {
				return fmt.Errorf("unreachable: %w", err)
			}
			resp.Body.Close()
			return nil
		},
	}
}

// NonEmpty returns a probe that fails while count reports zero. Used for
// the scene inventory, which must be loaded before commands can resolve
// targets.
func NonEmpty(name string, count func() int) Probe {
	return Probe{
		Name: name,
		Check: func(context.Context) error {
			if count() == 0 {
				return errors.New("empty")
			}
			return nil
		},
	}
}

// result is the JSON response body for health endpoints.
type result struct {
	Status string            `json:"status"`
	Probes map[string]string `json:"probes,omitempty"`
}

// Handler serves /healthz and /readyz endpoints. It is safe for concurrent
// use; the probe list is fixed at construction time.
type Handler struct {
	probes []Probe
}

// New creates a [Handler] that evaluates the given probes on each /readyz
// request, sequentially, in the order provided.
func New(probes ...Probe) *Handler {
	p := make([]Probe, len(probes))
	copy(p, probes)
	return &Handler{probes: p}
}

// Healthz is a liveness probe that always returns 200 OK. A running
// process that can serve HTTP is considered alive.
func (h *Handler) Healthz(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, result{Status: "ok"})
}

// Readyz is a readiness probe that returns 200 only when every registered
// [Probe] passes. Each probe gets a context with a [probeTimeout] deadline
// derived from the request context.
func (h *Handler) Readyz(w http.ResponseWriter, r *http.Request) {
	probes := make(map[string]string, len(h.probes))
	allOK := true

	for _, p := range h.probes {
		ctx, cancel := context.WithTimeout(r.Context(), probeTimeout)
		err := p.Check(ctx)
		cancel()

		if err != nil {
			probes[p.Name] = "fail: " + err.Error()
			allOK = false
		} else {
			probes[p.Name] = "ok"
		}
	}

	res := result{
		Status: "ok",
		Probes: probes,
	}
	status := http.StatusOK
	if !allOK {
		res.Status = "fail"
		status = http.StatusServiceUnavailable
	}

	writeJSON(w, status, res)
}

// Register adds the /healthz and /readyz routes to mux.
func (h *Handler) Register(mux *http.ServeMux) {
	mux.HandleFunc("GET /healthz", h.Healthz)
	mux.HandleFunc("GET /readyz", h.Readyz)
}

// writeJSON encodes v as JSON and writes it with the given status code. On
// encoding failure it falls back to a plain-text 500 response.
func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		http.Error(w, `{"status":"error"}`, http.StatusInternalServerError)
	}
}
