package httpapi

import (
	stdhttp "net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"reelcraft/internal/http/handlers"
	"reelcraft/internal/middleware"
)

func NewRouter(app *handlers.App) stdhttp.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID, chimw.RealIP, chimw.Recoverer)
	r.Use(middleware.Logger(app.Logger))
	r.Use(middleware.Identity)

	r.Get("/v1/healthz", app.Health)
	r.Handle("/metrics", promhttp.Handler())

	r.Route("/v1/jobs", func(r chi.Router) {
		r.Post("/", app.CreateJob)
		r.Get("/", app.ListJobs)
		r.Get("/{job_id}", app.GetJob)
		r.Delete("/{job_id}", app.DeleteJob)
	})

	r.Route("/v1/credits", func(r chi.Router) {
		r.Get("/balance", app.CreditBalance)
		r.Get("/history", app.CreditHistory)
	})

	r.Get("/v1/plans", app.ListPlans)
	r.Post("/v1/uploads/presign", app.PresignUpload)

	r.Route("/v1/admin/queue", func(r chi.Router) {
		r.Get("/", app.QueueStats)
		r.Post("/pause", app.QueuePause)
		r.Post("/resume", app.QueueResume)
		r.Post("/clear", app.QueueClear)
	})

	return r
}
