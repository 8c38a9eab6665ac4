// Package httptransport assembles the service's top-level HTTP surface:
// feature routers mounted under /api plus the operational endpoints.
package httptransport

import (
	"net/http"
	"sync/atomic"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"profilegate/internal/transport/http/shared"
)

// Registrar is a feature handler that can mount its routes on a router.
type Registrar interface {
	Register(r chi.Router)
}

// Readiness gates /readyz. The server flips it to ready only after every
// backing store has answered a health check, so load balancers never route to
// an instance that cannot serve.
type Readiness struct {
	ready atomic.Bool
}

func (rd *Readiness) SetReady(ready bool) { rd.ready.Store(ready) }
func (rd *Readiness) Ready() bool         { return rd.ready.Load() }

// NewRouter mounts the feature handlers under /api and wires the health,
// readiness, and metrics endpoints.
func NewRouter(readiness *Readiness, handlers ...Registrar) http.Handler {
	r := chi.NewRouter()

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		shared.WriteJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	r.Get("/readyz", func(w http.ResponseWriter, _ *http.Request) {
		if readiness != nil && !readiness.Ready() {
			shared.WriteJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "starting"})
			return
		}
		shared.WriteJSON(w, http.StatusOK, map[string]string{"status": "ready"})
	})
	r.Handle("/metrics", promhttp.Handler())

	r.Route("/api", func(api chi.Router) {
		for _, h := range handlers {
			h.Register(api)
		}
	})

	return r
}
