package app

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	"github.com/nirmaan-flow/nirmaan-flow/internal/notify"
	"github.com/nirmaan-flow/nirmaan-flow/internal/procurement"
	"github.com/nirmaan-flow/nirmaan-flow/internal/shared"
	"github.com/nirmaan-flow/nirmaan-flow/jobs"
)

// RouterParams groups dependencies for building the HTTP router.
type RouterParams struct {
	Logger             *slog.Logger
	Config             *Config
	Sessions           *shared.SessionStore
	ProcurementHandler *procurement.Handler
	NotifyHandler      *notify.Handler
	JobHandler         *jobs.Handler
}

// NewRouter constructs the chi.Router for the workflow service.
func NewRouter(params RouterParams) http.Handler {
	r := chi.NewRouter()

	for _, mw := range MiddlewareStack(MiddlewareConfig{
		Logger:   params.Logger,
		Config:   params.Config,
		Sessions: params.Sessions,
	}) {
		r.Use(mw)
	}

	r.Use(chimw.Logger)

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})

	// The frontend calls these under the same /api/method prefix the
	// previous backend exposed, so deep links keep working.
	r.Route("/api/method", func(r chi.Router) {
		if params.ProcurementHandler != nil {
			params.ProcurementHandler.MountRoutes(r)
		}
		if params.NotifyHandler != nil {
			params.NotifyHandler.MountRoutes(r)
		}
	})

	if params.JobHandler != nil {
		r.Route("/api/jobs", func(r chi.Router) {
			params.JobHandler.MountRoutes(r)
		})
	}

	return r
}
