package auth_test

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"

	"github.com/rumo-app/rumo/internal/auth"
	"github.com/rumo-app/rumo/internal/shared"
	"github.com/rumo-app/rumo/internal/view"
	_ "github.com/rumo-app/rumo/testing"
)

func newAuthHandler(t *testing.T, repo auth.Repository) (*auth.Handler, *shared.SessionManager) {
	t.Helper()
	mr := miniredis.RunT(t)
	redisClient := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	sessionManager := shared.NewSessionManager(redisClient, "test_session", "secret", 2*time.Hour, 720*time.Hour, false)
	csrfManager := shared.NewCSRFManager("csrfsecret")
	templates, err := view.NewEngine()
	if err != nil {
		t.Fatalf("templates: %v", err)
	}
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	service := auth.NewService(repo, auth.DefaultLockoutPolicy(), nil, nil, time.Hour)
	return auth.NewHandler(logger, service, templates, sessionManager, csrfManager), sessionManager
}

func TestLoginPage(t *testing.T) {
	handler, sessionManager := newAuthHandler(t, &memRepo{})

	req := httptest.NewRequest(http.MethodGet, "/auth/login", nil)
	sess, err := sessionManager.Load(context.Background(), req)
	if err != nil {
		t.Fatalf("load session: %v", err)
	}
	ctx := shared.ContextWithSession(req.Context(), sess)
	req = req.WithContext(ctx)

	res := httptest.NewRecorder()
	handler.ShowLoginForTest(res, req)
	if err := sessionManager.Commit(ctx, res, req, sess); err != nil {
		t.Fatalf("commit session: %v", err)
	}

	if res.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", res.Code)
	}
	if !strings.Contains(res.Body.String(), "<form") {
		t.Fatalf("expected login form in body")
	}
}

func TestLoginPageShowsNotice(t *testing.T) {
	handler, sessionManager := newAuthHandler(t, &memRepo{})

	req := httptest.NewRequest(http.MethodGet, "/auth/login?aviso=1", nil)
	sess, err := sessionManager.Load(context.Background(), req)
	if err != nil {
		t.Fatalf("load session: %v", err)
	}
	req = req.WithContext(shared.ContextWithSession(req.Context(), sess))

	res := httptest.NewRecorder()
	handler.ShowLoginForTest(res, req)
	if !strings.Contains(res.Body.String(), "Faça login para acessar esta página.") {
		t.Fatalf("expected login notice in body")
	}
}

func postLogin(t *testing.T, handler *auth.Handler, sessionManager *shared.SessionManager, email, senha string) *httptest.ResponseRecorder {
	t.Helper()
	form := url.Values{}
	form.Set("email", email)
	form.Set("senha", senha)

	req := httptest.NewRequest(http.MethodPost, "/auth/login", strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	sess, err := sessionManager.Load(context.Background(), req)
	if err != nil {
		t.Fatalf("load session: %v", err)
	}
	ctx := shared.ContextWithSession(req.Context(), sess)
	req = req.WithContext(ctx)

	res := httptest.NewRecorder()
	handler.HandleLoginForTest(res, req)
	if err := sessionManager.Commit(ctx, res, req, sess); err != nil {
		t.Fatalf("commit session: %v", err)
	}
	return res
}

func TestLoginWrongPassword(t *testing.T) {
	handler, sessionManager := newAuthHandler(t, &memRepo{cand: newCandidate(t, "Correct1!")})

	res := postLogin(t, handler, sessionManager, "maria@test.local", "Errada1!")
	if res.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", res.Code)
	}
	if !strings.Contains(res.Body.String(), "Senha incorreta!") {
		t.Fatalf("expected wrong password message in body")
	}
}

func TestLoginUnknownEmail(t *testing.T) {
	handler, sessionManager := newAuthHandler(t, &memRepo{})

	res := postLogin(t, handler, sessionManager, "ninguem@test.local", "Correct1!")
	if res.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", res.Code)
	}
	if !strings.Contains(res.Body.String(), "Email não cadastrado!") {
		t.Fatalf("expected unknown email message in body")
	}
}

func TestLoginLockedAccountMessage(t *testing.T) {
	repo := &memRepo{cand: newCandidate(t, "Correct1!")}
	repo.cand.FailedAttempts = 5
	until := time.Now().Add(10 * time.Minute)
	repo.cand.LockedUntil = &until
	handler, sessionManager := newAuthHandler(t, repo)

	res := postLogin(t, handler, sessionManager, "maria@test.local", "Correct1!")
	if !strings.Contains(res.Body.String(), "Conta bloqueada por excesso de tentativas.") {
		t.Fatalf("expected lockout message in body")
	}
}

func TestLoginSuccessRedirects(t *testing.T) {
	handler, sessionManager := newAuthHandler(t, &memRepo{cand: newCandidate(t, "Correct1!")})

	form := url.Values{}
	form.Set("email", "maria@test.local")
	form.Set("senha", "Correct1!")
	form.Set("manter_conectado", "1")

	req := httptest.NewRequest(http.MethodPost, "/auth/login", strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	sess, err := sessionManager.Load(context.Background(), req)
	if err != nil {
		t.Fatalf("load session: %v", err)
	}
	ctx := shared.ContextWithSession(req.Context(), sess)
	req = req.WithContext(ctx)

	res := httptest.NewRecorder()
	handler.HandleLoginForTest(res, req)

	if res.Code != http.StatusSeeOther {
		t.Fatalf("expected 303, got %d", res.Code)
	}
	if loc := res.Header().Get("Location"); loc != "/" {
		t.Fatalf("expected redirect to home, got %q", loc)
	}
	if sessionManager.Validate(sess) != shared.SessionValid {
		t.Fatalf("expected authenticated session")
	}
	if !sess.Permanent() {
		t.Fatalf("expected remembered session")
	}
	if sess.Get(shared.CSRFSessionKey) == "" {
		t.Fatalf("expected csrf token rotated in")
	}
}

func TestCadastroSuccessAuthenticates(t *testing.T) {
	handler, sessionManager := newAuthHandler(t, &memRepo{})

	form := url.Values{}
	form.Set("nome", "João Souza")
	form.Set("email", "joao@test.local")
	form.Set("telefone", "(11) 91234-5678")
	form.Set("data_nascimento", "01/01/2000")
	form.Set("senha", "Abcdef1!")
	form.Set("confirmar_senha", "Abcdef1!")

	req := httptest.NewRequest(http.MethodPost, "/auth/cadastro", strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	sess, err := sessionManager.Load(context.Background(), req)
	if err != nil {
		t.Fatalf("load session: %v", err)
	}
	ctx := shared.ContextWithSession(req.Context(), sess)
	req = req.WithContext(ctx)

	res := httptest.NewRecorder()
	handler.HandleCadastroForTest(res, req)

	if res.Code != http.StatusSeeOther {
		t.Fatalf("expected 303, got %d", res.Code)
	}
	if sessionManager.Validate(sess) != shared.SessionValid {
		t.Fatalf("expected session authenticated after registration")
	}
}
