// Package httptransport assembles the HTTP surface: middleware chain, public
// routes, and the operator-guarded agency routes.
package httptransport

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"landq/internal/lending"
	"landq/internal/parcel"
	"landq/internal/platform/middleware"
	"landq/internal/verification"
	"landq/pkg/platform/httputil"
)

// requestTimeout bounds a single request end to end. Ledger writes may
// outlive it; their broadcast is irrevocable and surfaces as a pending
// outcome rather than being retried.
const requestTimeout = 3 * time.Minute

// Deps are the wired handlers the router mounts.
type Deps struct {
	Parcels      *parcel.Handler
	Verification *verification.Handler
	Lending      *lending.Handler
	OperatorKey  string
	Logger       *slog.Logger
}

// NewRouter builds the chi router with the full middleware chain.
func NewRouter(deps Deps) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RequestTime)
	r.Use(middleware.Recovery(deps.Logger))
	r.Use(middleware.Logger(deps.Logger))
	r.Use(middleware.Timeout(requestTimeout))

	r.Get("/healthz", handleHealth)
	r.Method(http.MethodGet, "/metrics", promhttp.Handler())

	r.Route("/api/v1", func(api chi.Router) {
		deps.Parcels.Register(api)
		deps.Verification.Register(api)
		deps.Lending.Register(api)

		api.Group(func(privileged chi.Router) {
			privileged.Use(middleware.RequireOperator(deps.OperatorKey, deps.Logger))
			deps.Verification.RegisterPrivileged(privileged)
		})
	})

	return r
}

func handleHealth(w http.ResponseWriter, _ *http.Request) {
	httputil.WriteJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
