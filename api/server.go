/*
server.go - HTTP router and middleware configuration

PURPOSE:
  Configures the HTTP router (chi), middleware stack, and route definitions.
  This is the wiring layer that connects URLs to handlers.

ROUTER: chi
  Chi was chosen for:
  - Lightweight and fast
  - Context-based
  - Middleware support
  - RESTful route patterns

MIDDLEWARE STACK:
  1. RequestID:      Unique ID per request for tracing
  2. requestLogger:  One structured log line per request
  3. Recoverer:      Panic recovery (500 instead of crash)
  4. CORS:           Cross-origin requests for dashboards

ROUTE GROUPS:
  /api/tanks/*          Tanks, supplies, parameters, readings, reports
  /api/notes/*          Report annotations
  /api/scenarios/*      Demo scenarios
  /healthz              Liveness probe

SECURITY NOTE:
  No authentication middleware currently. All endpoints are public.
  Deploy behind the plant network boundary.

SEE ALSO:
  - handlers.go: Handler implementations
  - cmd/server/main.go: Server startup
*/
package api

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/clearwater/dosing-engine/logging"
)

// RouterConfig carries the router options that vary by deployment.
type RouterConfig struct {
	// CORSOrigins lists the allowed origins. Empty allows all, which suits
	// a plant-internal deployment.
	CORSOrigins []string
}

// NewRouter creates a new router with all routes configured.
func NewRouter(h *Handler, cfg RouterConfig) *chi.Mux {
	r := chi.NewRouter()

	origins := cfg.CORSOrigins
	if len(origins) == 0 {
		origins = []string{"*"}
	}

	// Middleware
	r.Use(middleware.RequestID)
	r.Use(requestLogger)
	r.Use(middleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: origins,
		// The API is append-only: history is corrected by appending, so
		// there is nothing for DELETE or PUT to do.
		AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Content-Type"},
		AllowCredentials: false,
		MaxAge:           300,
	}))

	// Liveness probe
	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	// API routes
	r.Route("/api", func(r chi.Router) {
		// Tank routes
		r.Route("/tanks", func(r chi.Router) {
			r.Get("/", h.ListTanks)
			r.Post("/", h.CreateTank)

			r.Route("/{id}", func(r chi.Router) {
				r.Get("/", h.GetTank)

				r.Get("/supplies", h.ListSupplies)
				r.Post("/supplies", h.CreateSupply)

				r.Get("/parameters/cws", h.ListCWSRecords)
				r.Post("/parameters/cws", h.SaveCWSRecord)
				r.Get("/parameters/bws", h.ListBWSRecords)
				r.Post("/parameters/bws", h.SaveBWSRecord)

				r.Get("/readings", h.ListReadings)
				r.Post("/readings", h.AppendReading)
				r.Post("/readings/batch", h.AppendReadingBatch)

				r.Get("/reports/{year}", h.GetYearReport)
				r.Get("/reports/{year}/{month}", h.GetMonthReport)
				r.Get("/snapshots/{year}", h.ListReportSnapshots)

				r.Get("/usage/daily", h.GetDailyUsage)
				r.Get("/usage/weekly", h.GetWeeklyUsage)
			})
		})

		// Note routes
		r.Route("/notes", func(r chi.Router) {
			r.Get("/", h.ListNotes)
			r.Post("/", h.CreateNote)
		})

		// Scenario routes
		r.Route("/scenarios", func(r chi.Router) {
			r.Get("/", h.ListScenarios)
			r.Get("/current", h.GetCurrentScenario)
			r.Post("/load", h.LoadScenario)
			r.Post("/reset", h.ResetDatabase)
		})
	})

	// Headless service: the root serves a short API index for humans
	// poking at the port.
	r.Get("/", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html")
		w.Write([]byte(`<!DOCTYPE html>
<html>
<head><title>Dosing Reconciliation Engine</title></head>
<body style="font-family: system-ui; max-width: 800px; margin: 50px auto; padding: 20px;">
<h1>Dosing Reconciliation Engine API</h1>
<h2>API Endpoints</h2>
<ul>
<li><a href="/api/tanks">/api/tanks</a> - List tanks</li>
<li><a href="/api/scenarios">/api/scenarios</a> - List demo scenarios</li>
<li><a href="/healthz">/healthz</a> - Liveness probe</li>
</ul>
</body>
</html>`))
	})

	return r
}

// requestLogger emits one structured log line per request through the
// shared zap logger.
func requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()
		next.ServeHTTP(ww, r)
		logging.Infow("http request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", ww.Status(),
			"bytes", ww.BytesWritten(),
			"duration", time.Since(start),
			"request_id", middleware.GetReqID(r.Context()),
		)
	})
}
