/*
Package handler provides the HTTP handlers and routing setup of the local
transcript viewer.

The viewer serves what the chat session already rendered and sanitized: the
transcript page, a JSON API over the same data and a download proxy to the
chat server's file store.
*/
package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/rs/cors"
	"golang.org/x/time/rate"

	"chatterbox/internal/pkg/limiter"
	"chatterbox/internal/pkg/logx"
	"chatterbox/internal/pkg/resp"
)

const (
	DownloadRate  = 1
	DownloadBurst = 5
)

// Router sets up the routing table of the viewer. The returned stop function
// releases the download rate limiter.
func Router(deps *AppDeps) (http.Handler, func()) {
	downloadLimiter := limiter.New(rate.Limit(DownloadRate), DownloadBurst)

	r := chi.NewRouter()

	corsAllowedOrigins := []string{}
	if deps.Config.IsDevelopment() {
		corsAllowedOrigins = []string{"*"}
	} else if len(deps.Config.AllowedOrigins) > 0 {
		corsAllowedOrigins = deps.Config.AllowedOrigins
	}

	c := cors.New(cors.Options{
		AllowedOrigins:   corsAllowedOrigins,
		AllowedMethods:   []string{"GET", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Content-Type"},
		ExposedHeaders:   []string{},
		AllowCredentials: false,
		MaxAge:           300,
	})
	r.Use(c.Handler)

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(logx.RequestLogger())
	r.Use(middleware.Recoverer)

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		data := map[string]string{
			"status":  "ok",
			"service": "chatterbox viewer",
		}
		resp.RespondSuccess(w, r, data)
	})

	r.Get("/", HandleTranscriptPage(deps))
	r.Get("/static/highlight.css", HandleHighlightCSS(deps))

	r.Route("/api", func(api chi.Router) {
		api.Get("/transcript", HandleTranscript(deps))
		api.Get("/history", HandleHistory(deps))
	})

	r.With(downloadLimiter.Middleware).Get("/download", HandleDownload(deps))

	return r, downloadLimiter.Close
}
