package health

import (
	"context"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"github.com/noah-isme/backend-tiket/internal/common"
)

const defaultProbeTimeout = 500 * time.Millisecond

var ready atomic.Bool

func init() { ready.Store(true) }

// SetReady toggles readiness. The API flips it off while draining on shutdown.
func SetReady(v bool) { ready.Store(v) }

// Probe checks one dependency.
type Probe struct {
	Name    string
	Timeout time.Duration
	Check   func(ctx context.Context) error
}

// Handler exposes HTTP handlers for health endpoints.
type Handler struct {
	Probes []Probe
}

// Live reports liveness status.
func (h Handler) Live(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

// Ready runs every probe concurrently and reports 503 when any fails or the process is
// draining.
func (h Handler) Ready(w http.ResponseWriter, r *http.Request) {
	if !ready.Load() {
		common.JSON(w, http.StatusServiceUnavailable, map[string]string{"status": "draining"})
		return
	}
	results := h.run(r.Context())
	status := http.StatusOK
	for _, v := range results {
		if v != "ok" {
			status = http.StatusServiceUnavailable
			break
		}
	}
	common.JSON(w, status, results)
}

func (h Handler) run(ctx context.Context) map[string]string {
	results := make(map[string]string, len(h.Probes))
	var (
		mu sync.Mutex
		wg sync.WaitGroup
	)
	for _, p := range h.Probes {
		wg.Add(1)
		go func(p Probe) {
			defer wg.Done()
			res := "ok"
			if p.Check == nil {
				res = "not configured"
			} else {
				timeout := p.Timeout
				if timeout <= 0 {
					timeout = defaultProbeTimeout
				}
				pctx, cancel := context.WithTimeout(ctx, timeout)
				defer cancel()
				if err := p.Check(pctx); err != nil {
					res = err.Error()
				}
			}
			mu.Lock()
			results[p.Name] = res
			mu.Unlock()
		}(p)
	}
	wg.Wait()
	return results
}
