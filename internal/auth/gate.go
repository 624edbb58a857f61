package auth

import (
	"log/slog"
	"net/http"
	"strings"

	"github.com/rumo-app/rumo/internal/shared"
)

// Gate guards every route that is not on the public allow-list. It is the
// single choke point between the middleware chain and the business handlers:
// session validation first, then CSRF for state-changing requests.
type Gate struct {
	logger    *slog.Logger
	sessions  *shared.SessionManager
	csrf      *shared.CSRFManager
	security  *shared.SecurityLog
	loginPath string
	prefixes  []string
	exact     map[string]struct{}
}

// NewGate constructs the request gate. Public entries ending in "/" match as
// prefixes, everything else matches exactly.
func NewGate(logger *slog.Logger, sessions *shared.SessionManager, csrf *shared.CSRFManager, security *shared.SecurityLog, public []string) *Gate {
	g := &Gate{
		logger:    logger,
		sessions:  sessions,
		csrf:      csrf,
		security:  security,
		loginPath: "/auth/login",
		exact:     make(map[string]struct{}),
	}
	for _, p := range public {
		if strings.HasSuffix(p, "/") {
			g.prefixes = append(g.prefixes, p)
			continue
		}
		g.exact[p] = struct{}{}
	}
	return g
}

// DefaultPublicPaths is the allow-list of unauthenticated endpoints: the
// authentication entry points, health, metrics, static assets and the two
// public JSON probes.
func DefaultPublicPaths() []string {
	return []string{
		"/auth/",
		"/healthz",
		"/metrics",
		"/welcome",
		"/static/",
		"/api/verificar-idade",
		"/api/verificar-sessao",
	}
}

// Public reports whether the path bypasses the gate.
func (g *Gate) Public(path string) bool {
	if _, ok := g.exact[path]; ok {
		return true
	}
	for _, prefix := range g.prefixes {
		if strings.HasPrefix(path, prefix) {
			return true
		}
	}
	return false
}

// Middleware enforces the gate for every request.
func (g *Gate) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if g.Public(r.URL.Path) {
			next.ServeHTTP(w, r)
			return
		}

		sess := shared.SessionFromContext(r.Context())
		switch g.sessions.Validate(sess) {
		case shared.SessionValid:
		case shared.SessionExpired:
			// Terminal: clear and force re-authentication. The notice is the
			// same as for a missing session so the two cases are
			// indistinguishable from outside.
			g.sessions.Destroy(sess)
			g.redirectToLogin(w, r)
			return
		default:
			g.redirectToLogin(w, r)
			return
		}

		if stateChanging(r.Method) {
			token := r.PostFormValue(shared.CSRFFormField)
			if token == "" {
				token = r.Header.Get("X-CSRF-Token")
			}
			if err := g.csrf.VerifyToken(r.Context(), sess, token); err != nil {
				if g.security != nil {
					_ = g.security.Record(r.Context(), shared.SecurityEvent{
						Kind:    shared.EventCSRFMismatch,
						Subject: sess.User(),
						Origin:  r.RemoteAddr,
					})
				}
				if g.logger != nil {
					g.logger.Warn("csrf validation failed", slog.String("path", r.URL.Path), slog.String("origin", r.RemoteAddr))
				}
				g.sessions.Destroy(sess)
				http.Redirect(w, r, "/auth/logout", http.StatusSeeOther)
				return
			}
		}

		next.ServeHTTP(w, r)
	})
}

// redirectToLogin sends the browser to the authentication entry point with a
// generic notice. Absent and expired sessions take the exact same path so the
// two cases cannot be told apart.
func (g *Gate) redirectToLogin(w http.ResponseWriter, r *http.Request) {
	if wantsJSON(r) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = w.Write([]byte(`{"logged_in":false}`))
		return
	}
	http.Redirect(w, r, g.loginPath+"?aviso=1", http.StatusSeeOther)
}

func stateChanging(method string) bool {
	switch method {
	case http.MethodGet, http.MethodHead, http.MethodOptions:
		return false
	}
	return true
}

func wantsJSON(r *http.Request) bool {
	if strings.HasPrefix(r.URL.Path, "/api/") {
		return true
	}
	return strings.Contains(r.Header.Get("Accept"), "application/json")
}
