package httpapi

import (
	stdhttp "net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	"server/internal/http/handlers"
	"server/internal/middleware"
)

type RouterOptions struct {
	AllowedOrigins []string
	RateLimit      int
	CountryLookup  middleware.CountryLookup
	// StaticDir, when set, serves stored design images under /static/.
	StaticDir string
}

func NewRouter(app *handlers.App, opts RouterOptions) stdhttp.Handler {
	r := chi.NewRouter()
	r.Use(
		middleware.RequestID,
		chimw.RealIP,
		chimw.Recoverer,
	)
	if app.Logger != nil {
		r.Use(middleware.Logger(*app.Logger))
	}
	if len(opts.AllowedOrigins) > 0 {
		r.Use(middleware.CORS(opts.AllowedOrigins))
	}
	r.Use(middleware.I18N("fr", opts.CountryLookup))

	r.Get("/v1/healthz", app.Health)
	r.Get("/v1/design-options", app.DesignOptions)

	r.Route("/v1/designs", func(r chi.Router) {
		if opts.RateLimit > 0 {
			r.With(middleware.RateLimit(opts.RateLimit, time.Minute)).Post("/generate", app.GenerateDesign)
		} else {
			r.Post("/generate", app.GenerateDesign)
		}
		r.Get("/{id}", app.GetDesign)
		r.Get("/{id}/download", app.DownloadDesign)
	})

	r.Post("/v1/analyze-room", app.AnalyzeRoom)

	r.Route("/v1/projects", func(r chi.Router) {
		r.Post("/", app.CreateProject)
		r.Get("/{id}", app.GetProject)
		r.Post("/{id}/rooms", app.CreateRoom)
		r.Get("/{id}/rooms", app.ListProjectRooms)
	})

	r.Route("/v1/rooms", func(r chi.Router) {
		r.Get("/{id}", app.GetRoom)
		r.Get("/{id}/designs", app.ListRoomDesigns)
	})

	if opts.StaticDir != "" {
		fileServer := stdhttp.StripPrefix("/static/", stdhttp.FileServer(stdhttp.Dir(opts.StaticDir)))
		r.Get("/static/*", fileServer.ServeHTTP)
	}

	return r
}
