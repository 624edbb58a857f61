package app

import (
	"io/fs"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/rumo-app/rumo/internal/auth"
	"github.com/rumo-app/rumo/internal/candidates"
	"github.com/rumo-app/rumo/internal/observability"
	"github.com/rumo-app/rumo/internal/quiz"
	"github.com/rumo-app/rumo/internal/shared"
	"github.com/rumo-app/rumo/internal/view"
	"github.com/rumo-app/rumo/web"
)

// RouterParams groups dependencies for building the HTTP router.
type RouterParams struct {
	Logger            *slog.Logger
	Config            *Config
	Templates         *view.Engine
	SessionManager    *shared.SessionManager
	CSRFManager       *shared.CSRFManager
	Gate              *auth.Gate
	AuthHandler       *auth.Handler
	CandidatesHandler *candidates.Handler
	QuizHandler       *quiz.Handler
	Pool              *pgxpool.Pool
	Metrics           *observability.Metrics
}

// NewRouter constructs the chi.Router with Rumo defaults.
func NewRouter(params RouterParams) http.Handler {
	r := chi.NewRouter()

	var gate func(http.Handler) http.Handler
	if params.Gate != nil {
		gate = params.Gate.Middleware
	}
	for _, mw := range MiddlewareStack(MiddlewareConfig{
		Logger:         params.Logger,
		Config:         params.Config,
		SessionManager: params.SessionManager,
		Gate:           gate,
		Metrics:        params.Metrics,
	}) {
		r.Use(mw)
	}

	r.Use(chimw.Logger)

	r.Get("/healthz", func(w http.ResponseWriter, req *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		if params.Pool != nil {
			if err := params.Pool.Ping(req.Context()); err != nil {
				params.Logger.Warn("healthz database ping", slog.Any("error", err))
				w.WriteHeader(http.StatusServiceUnavailable)
				_, _ = w.Write([]byte(`{"status":"degraded"}`))
				return
			}
		}
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})

	// Landing page for unauthenticated visitors
	r.Get("/welcome", renderPage(params, "pages/welcome.html", "Rumo"))

	r.Get("/", func(w http.ResponseWriter, req *http.Request) {
		sess := shared.SessionFromContext(req.Context())
		if params.SessionManager.Validate(sess) != shared.SessionValid {
			http.Redirect(w, req, "/welcome", http.StatusSeeOther)
			return
		}
		renderPage(params, "pages/home.html", "Início")(w, req)
	})

	r.Get("/questionario", renderPage(params, "pages/questionario.html", "Questionário Vocacional"))
	r.Get("/area", renderPage(params, "pages/area.html", "Minha Área"))
	r.Get("/informacoes", renderPage(params, "pages/informacoes.html", "Informações"))

	r.Route("/auth", func(r chi.Router) {
		r.Use(LoginRateLimiter())
		params.AuthHandler.MountRoutes(r)
	})
	params.CandidatesHandler.MountRoutes(r)
	r.Route("/api", func(r chi.Router) {
		params.AuthHandler.MountAPIRoutes(r)
		params.CandidatesHandler.MountAPIRoutes(r)
		params.QuizHandler.MountRoutes(r)
	})

	if params.Metrics != nil {
		r.Method(http.MethodGet, "/metrics", params.Metrics.Handler())
	}

	staticFS, err := fs.Sub(web.Static, "static")
	if err != nil {
		params.Logger.Error("create static sub filesystem", slog.Any("error", err))
	} else {
		fileServer := http.StripPrefix("/static/", http.FileServer(http.FS(staticFS)))
		r.Handle("/static/*", staticCacheHandler(fileServer))
	}

	return r
}

func renderPage(params RouterParams, page, title string) http.HandlerFunc {
	return func(w http.ResponseWriter, req *http.Request) {
		sess := shared.SessionFromContext(req.Context())
		csrfToken, _ := params.CSRFManager.EnsureToken(req.Context(), sess)
		var flash *shared.FlashMessage
		userName := ""
		if sess != nil {
			flash = sess.PopFlash()
			userName = sess.UserName()
		}
		data := view.TemplateData{
			Title:       title,
			CSRFToken:   csrfToken,
			Flash:       flash,
			CurrentPath: req.URL.Path,
			Data:        map[string]any{"Usuario": userName},
		}
		if err := params.Templates.Render(w, page, data); err != nil {
			params.Logger.Error("render page", slog.String("page", page), slog.Any("error", err))
			http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		}
	}
}

// staticCacheHandler wraps a file server with Cache-Control headers.
func staticCacheHandler(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Cache-Control", "public, max-age=3600")
		next.ServeHTTP(w, r)
	})
}
