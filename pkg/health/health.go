// Package health tracks server readiness and serves HTTP probe endpoints
// for the streamable HTTP transport.
package health

import (
	"encoding/json"
	"net/http"
	"sync/atomic"
)

// Readiness states.
const (
	stateStarting int32 = iota
	stateReady
	stateDraining
)

// Probe tracks readiness. It starts in the Starting state and is safe for
// concurrent use.
type Probe struct {
	state atomic.Int32
}

// NewProbe creates a Probe in the Starting state.
func NewProbe() *Probe {
	return &Probe{}
}

// Ready marks the server ready to accept traffic.
func (p *Probe) Ready() {
	p.state.Store(stateReady)
}

// Draining marks the server as shutting down.
func (p *Probe) Draining() {
	p.state.Store(stateDraining)
}

// IsReady reports whether the server accepts traffic.
func (p *Probe) IsReady() bool {
	return p.state.Load() == stateReady
}

// State returns the current state name.
func (p *Probe) State() string {
	switch p.state.Load() {
	case stateReady:
		return "ready"
	case stateDraining:
		return "draining"
	default:
		return "starting"
	}
}

// Routes mounts /healthz (liveness, always 200) and /readyz (readiness,
// 503 while starting or draining) on the mux.
func (p *Probe) Routes(mux *http.ServeMux) {
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		writeStatus(w, http.StatusOK, "ok")
	})
	mux.HandleFunc("/readyz", func(w http.ResponseWriter, _ *http.Request) {
		code := http.StatusOK
		if !p.IsReady() {
			code = http.StatusServiceUnavailable
		}
		writeStatus(w, code, p.State())
	})
}

func writeStatus(w http.ResponseWriter, code int, status string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(map[string]string{"status": status})
}
