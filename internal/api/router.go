// Package api serves the route listing, statistics and export endpoints.
package api

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"golang.org/x/time/rate"

	"github.com/FutingLiang/dmv-routes-frontend/internal/route"
	"github.com/FutingLiang/dmv-routes-frontend/internal/store"
)

// Reader is the read side of the routes table.
type Reader interface {
	ListRoutes(ctx context.Context, limit int) ([]store.RouteRow, error)
	TableStats(ctx context.Context) (store.TableStats, error)
	SearchRoutes(ctx context.Context, p store.SearchParams) ([]store.RouteRow, int64, error)
	RouteGroups(ctx context.Context) ([]route.Group, error)
}

// Options tunes the router middleware.
type Options struct {
	CORSOrigins    []string
	RequestTimeout time.Duration
	ExportRPS      float64
	ExportBurst    int
}

// NewRouter builds the HTTP handler tree.
func NewRouter(reader Reader, opts Options) chi.Router {
	h := &handlers{reader: reader}

	origins := opts.CORSOrigins
	if len(origins) == 0 {
		origins = []string{"*"}
	}

	r := chi.NewRouter()
	r.Use(
		middleware.RequestID,
		middleware.RealIP,
		requestLogger,
		recoverJSON,
		cors.Handler(cors.Options{
			AllowedOrigins: origins,
			AllowedMethods: []string{http.MethodGet, http.MethodOptions},
			AllowedHeaders: []string{"Accept", "Content-Type"},
			ExposedHeaders: []string{"Content-Disposition"},
			MaxAge:         300,
		}),
	)
	if opts.RequestTimeout > 0 {
		r.Use(middleware.Timeout(opts.RequestTimeout))
	}

	r.Get("/health", h.health)

	r.Route("/api", func(r chi.Router) {
		r.Get("/routes", h.routes)
		r.Get("/routes/search", h.search)
		r.Get("/statistics", h.statistics)
		r.Get("/detailed-statistics", h.detailedStatistics)
		r.Get("/sample-table", h.sampleTable)
	})

	r.Route("/export", func(r chi.Router) {
		if opts.ExportRPS > 0 {
			burst := opts.ExportBurst
			if burst < 1 {
				burst = 1
			}
			r.Use(rateLimit(rate.NewLimiter(rate.Limit(opts.ExportRPS), burst)))
		}
		r.Get("/detailed-statistics.xlsx", h.exportDetailed)
		r.Get("/sample-table.xlsx", h.exportSample)
	})

	return r
}
