package webapp

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

func (wa *WebApp) Router() http.Handler {
	r := chi.NewRouter()

	r.Use(chimw.RealIP)
	r.Use(chimw.Recoverer)
	r.Use(wa.requestLogger)
	r.Use(metricsMiddleware)

	r.Get("/healthz", wa.healthz)
	r.Handle("/metrics", promhttp.Handler())

	r.Route("/api/v1", func(r chi.Router) {
		r.Get("/roots", wa.listRoots)
		r.Post("/roots", wa.addRoot)
		r.Route("/roots/{alias}", func(r chi.Router) {
			r.Delete("/", wa.removeRoot)
			r.Post("/scan", wa.enqueueScan)
			r.Get("/report", wa.report)
			r.Get("/stats", wa.stats)
			r.Get("/dirs", wa.dirSizes)
		})

		r.Get("/reports", wa.reports)
		r.Get("/search", wa.search)
		r.Get("/export/csv", wa.exportCSV)

		r.Get("/jobs", wa.listJobs)
		r.Delete("/jobs", wa.clearJobs)
		r.Get("/jobs/{id}", wa.getJob)
		r.Post("/jobs/{id}/cancel", wa.cancelJob)

		r.Get("/schedules", wa.listSchedules)
		r.Put("/schedules/{alias}", wa.setSchedule)
		r.Delete("/schedules/{alias}", wa.removeSchedule)

		r.Get("/snapshot", wa.exportSnapshot)
		r.Post("/snapshot", wa.importSnapshot)
	})

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		writeError(w, http.StatusNotFound, "not found")
	})

	return r
}
