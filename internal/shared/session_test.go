package shared_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"

	"github.com/rumo-app/rumo/internal/shared"
	_ "github.com/rumo-app/rumo/testing"
)

func newSessionManager(t *testing.T) (*shared.SessionManager, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	redisClient := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	return shared.NewSessionManager(redisClient, "test_session", "secret", 2*time.Hour, 720*time.Hour, false), mr
}

func TestValidateStates(t *testing.T) {
	manager, _ := newSessionManager(t)
	ctx := context.Background()

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	sess, err := manager.Load(ctx, req)
	if err != nil {
		t.Fatalf("load: %v", err)
	}

	if got := manager.Validate(sess); got != shared.SessionAbsent {
		t.Fatalf("fresh session: expected absent, got %v", got)
	}

	sess.Authenticate("7", "Maria", false)
	if got := manager.Validate(sess); got != shared.SessionValid {
		t.Fatalf("authenticated session: expected valid, got %v", got)
	}

	manager.Destroy(sess)
	if got := manager.Validate(sess); got != shared.SessionAbsent {
		t.Fatalf("destroyed session: expected absent, got %v", got)
	}
	if sess.User() != "" || sess.UserName() != "" {
		t.Fatalf("destroy must clear identity fields")
	}

	// Destroy is idempotent.
	manager.Destroy(sess)
	if got := manager.Validate(sess); got != shared.SessionAbsent {
		t.Fatalf("double destroy: expected absent, got %v", got)
	}
}

func TestSessionRoundTrip(t *testing.T) {
	manager, _ := newSessionManager(t)
	ctx := context.Background()

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	sess, err := manager.Load(ctx, req)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	sess.Authenticate("7", "Maria", false)
	sess.Set("chave", "valor")

	res := httptest.NewRecorder()
	if err := manager.Commit(ctx, res, req, sess); err != nil {
		t.Fatalf("commit: %v", err)
	}

	cookies := res.Result().Cookies()
	if len(cookies) == 0 {
		t.Fatalf("expected session cookie")
	}

	again := httptest.NewRequest(http.MethodGet, "/", nil)
	again.AddCookie(cookies[0])
	loaded, err := manager.Load(ctx, again)
	if err != nil {
		t.Fatalf("reload: %v", err)
	}
	if loaded.User() != "7" || loaded.UserName() != "Maria" {
		t.Fatalf("expected identity to round-trip, got %q/%q", loaded.User(), loaded.UserName())
	}
	if loaded.Get("chave") != "valor" {
		t.Fatalf("expected values to round-trip")
	}
	if manager.Validate(loaded) != shared.SessionValid {
		t.Fatalf("expected reloaded session valid")
	}
}

func TestCommitDeletesDestroyedSession(t *testing.T) {
	manager, mr := newSessionManager(t)
	ctx := context.Background()

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	sess, err := manager.Load(ctx, req)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	sess.Authenticate("7", "Maria", false)

	res := httptest.NewRecorder()
	if err := manager.Commit(ctx, res, req, sess); err != nil {
		t.Fatalf("commit: %v", err)
	}
	if !mr.Exists("session:" + sess.ID) {
		t.Fatalf("expected stored session key")
	}

	manager.Destroy(sess)
	res = httptest.NewRecorder()
	if err := manager.Commit(ctx, res, req, sess); err != nil {
		t.Fatalf("commit destroyed: %v", err)
	}
	if mr.Exists("session:" + sess.ID) {
		t.Fatalf("expected session key deleted")
	}

	var cleared *http.Cookie
	for _, c := range res.Result().Cookies() {
		if c.Name == manager.CookieName() {
			cleared = c
		}
	}
	if cleared == nil || cleared.MaxAge != -1 {
		t.Fatalf("expected expired cookie after destroy")
	}
}

func TestFlashDeliveredOnce(t *testing.T) {
	manager, _ := newSessionManager(t)
	ctx := context.Background()

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	sess, err := manager.Load(ctx, req)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	sess.AddFlash(shared.FlashMessage{Kind: "success", Message: "feito"})

	msg := sess.PopFlash()
	if msg == nil || msg.Message != "feito" {
		t.Fatalf("expected queued flash, got %+v", msg)
	}
	if again := sess.PopFlash(); again != nil {
		t.Fatalf("expected flash consumed, got %+v", again)
	}
}

func TestFlashSurvivesCommitUntilPopped(t *testing.T) {
	manager, _ := newSessionManager(t)
	ctx := context.Background()

	// Flash queued just before a redirect commit.
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	sess, err := manager.Load(ctx, req)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	sess.Authenticate("7", "Maria", false)
	sess.AddFlash(shared.FlashMessage{Kind: "success", Message: "feito"})

	res := httptest.NewRecorder()
	if err := manager.Commit(ctx, res, req, sess); err != nil {
		t.Fatalf("commit: %v", err)
	}
	cookies := res.Result().Cookies()
	if len(cookies) == 0 {
		t.Fatalf("expected session cookie")
	}

	// The follow-up request sees the flash once.
	again := httptest.NewRequest(http.MethodGet, "/", nil)
	again.AddCookie(cookies[0])
	loaded, err := manager.Load(ctx, again)
	if err != nil {
		t.Fatalf("reload: %v", err)
	}
	msg := loaded.PopFlash()
	if msg == nil || msg.Message != "feito" {
		t.Fatalf("expected flash to survive the redirect commit, got %+v", msg)
	}

	res = httptest.NewRecorder()
	if err := manager.Commit(ctx, res, again, loaded); err != nil {
		t.Fatalf("commit after pop: %v", err)
	}

	// Popping marked the session dirty, so the consumed state persisted.
	third := httptest.NewRequest(http.MethodGet, "/", nil)
	third.AddCookie(cookies[0])
	final, err := manager.Load(ctx, third)
	if err != nil {
		t.Fatalf("final reload: %v", err)
	}
	if again := final.PopFlash(); again != nil {
		t.Fatalf("expected flash consumed after delivery, got %+v", again)
	}
}

func TestCSRFTokenLifecycle(t *testing.T) {
	manager, _ := newSessionManager(t)
	csrf := shared.NewCSRFManager("csrfsecret")
	ctx := context.Background()

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	sess, err := manager.Load(ctx, req)
	if err != nil {
		t.Fatalf("load: %v", err)
	}

	token, err := csrf.EnsureToken(ctx, sess)
	if err != nil {
		t.Fatalf("ensure: %v", err)
	}
	if token == "" {
		t.Fatalf("expected token")
	}

	same, err := csrf.EnsureToken(ctx, sess)
	if err != nil || same != token {
		t.Fatalf("ensure must be stable, got %q/%v", same, err)
	}

	if err := csrf.VerifyToken(ctx, sess, token); err != nil {
		t.Fatalf("verify: %v", err)
	}
	if err := csrf.VerifyToken(ctx, sess, "forged"); err != shared.ErrCSRFTokenMismatch {
		t.Fatalf("expected mismatch, got %v", err)
	}
	if err := csrf.VerifyToken(ctx, sess, ""); err != shared.ErrCSRFTokenMissing {
		t.Fatalf("expected missing, got %v", err)
	}

	rotated, err := csrf.RotateToken(ctx, sess)
	if err != nil {
		t.Fatalf("rotate: %v", err)
	}
	if rotated == token {
		t.Fatalf("rotation must issue a fresh token")
	}
	if err := csrf.VerifyToken(ctx, sess, token); err != shared.ErrCSRFTokenMismatch {
		t.Fatalf("old token must stop verifying, got %v", err)
	}
}
