package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

func NewRouter(app *App) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)

	r.Get("/ping", PingHandler)
	r.Handle("/metrics", promhttp.Handler())

	r.Route("/api", func(r chi.Router) {
		r.Post("/videos", app.UploadHandler)
		r.Get("/videos", app.ListVideosHandler)
		r.Get("/videos/{id}", app.GetVideoHandler)
		r.Post("/videos/{id}/analyze", app.EnqueueAnalysisHandler)
		r.Get("/videos/{id}/analysis", app.GetAnalysisHandler)
	})

	return r
}
