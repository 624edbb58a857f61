package shared

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// FlashMessage represents a one-time notification stored in session.
type FlashMessage struct {
	Kind    string `json:"kind"`
	Message string `json:"message"`
}

// SessionState is the outcome of validating a session against its
// absolute lifetime.
type SessionState int

const (
	// SessionAbsent means no authenticated session is attached.
	SessionAbsent SessionState = iota
	// SessionValid means the session is authenticated and within its lifetime.
	SessionValid
	// SessionExpired means the absolute lifetime has elapsed; the caller must
	// clear the session and force re-authentication.
	SessionExpired
)

// SessionManager orchestrates cookie based sessions backed by Redis.
type SessionManager struct {
	client           *redis.Client
	cookieName       string
	lifetime         time.Duration
	rememberLifetime time.Duration
	secure           bool
	secret           []byte
}

// Session holds per-request session data.
type Session struct {
	ID        string
	values    map[string]string
	userID    string
	userName  string
	loginAt   time.Time
	permanent bool
	flashes   []FlashMessage
	manager   *SessionManager
	isNew     bool
	dirty     bool
	destroyed bool
}

type sessionPayload struct {
	Values    map[string]string `json:"values"`
	UserID    string            `json:"user_id"`
	UserName  string            `json:"user_name"`
	LoginAt   int64             `json:"login_at"`
	Permanent bool              `json:"permanent"`
	Flashes   []FlashMessage    `json:"flashes"`
}

// NewSessionManager constructs a SessionManager. The lifetime is the absolute
// validity window of an authenticated session; rememberLifetime applies to
// sessions flagged permanent.
func NewSessionManager(client *redis.Client, cookieName string, secret string, lifetime, rememberLifetime time.Duration, secure bool) *SessionManager {
	if rememberLifetime < lifetime {
		rememberLifetime = lifetime
	}
	return &SessionManager{
		client:           client,
		cookieName:       cookieName,
		lifetime:         lifetime,
		rememberLifetime: rememberLifetime,
		secure:           secure,
		secret:           []byte(secret),
	}
}

// Load loads or creates a new session for request.
func (sm *SessionManager) Load(ctx context.Context, r *http.Request) (*Session, error) {
	cookie, err := r.Cookie(sm.cookieName)
	if err != nil {
		if errors.Is(err, http.ErrNoCookie) {
			return sm.newSession(), nil
		}
		return nil, err
	}

	payload, err := sm.client.Get(ctx, sm.redisKey(cookie.Value)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			sess := sm.newSession()
			sess.ID = cookie.Value
			sess.isNew = true
			return sess, nil
		}
		return nil, err
	}

	var stored sessionPayload
	if err := json.Unmarshal(payload, &stored); err != nil {
		return nil, err
	}

	sess := sm.newSession()
	sess.ID = cookie.Value
	sess.values = stored.Values
	sess.userID = stored.UserID
	sess.userName = stored.UserName
	if stored.LoginAt > 0 {
		sess.loginAt = time.Unix(stored.LoginAt, 0)
	}
	sess.permanent = stored.Permanent
	sess.flashes = stored.Flashes
	sess.isNew = false
	return sess, nil
}

// Validate classifies the session against the absolute lifetime. Expired is
// terminal: the caller must destroy the session and redirect to login.
func (sm *SessionManager) Validate(sess *Session) SessionState {
	if sess == nil || sess.destroyed || sess.userID == "" {
		return SessionAbsent
	}
	if sess.loginAt.IsZero() {
		return SessionAbsent
	}
	lifetime := sm.lifetime
	if sess.permanent {
		lifetime = sm.rememberLifetime
	}
	if time.Since(sess.loginAt) > lifetime {
		return SessionExpired
	}
	return SessionValid
}

// Commit persists the session and writes cookie headers as needed.
func (sm *SessionManager) Commit(ctx context.Context, w http.ResponseWriter, r *http.Request, sess *Session) error {
	if sess == nil {
		return nil
	}

	if sess.destroyed {
		if err := sm.client.Del(ctx, sm.redisKey(sess.ID)).Err(); err != nil && !errors.Is(err, redis.Nil) {
			return err
		}
		http.SetCookie(w, &http.Cookie{
			Name:     sm.cookieName,
			Value:    "",
			Path:     "/",
			MaxAge:   -1,
			HttpOnly: true,
			Secure:   sm.secure,
			SameSite: http.SameSiteStrictMode,
		})
		return nil
	}

	if sess.isNew && sess.ID == "" {
		sess.ID = sm.generateSessionID()
	}

	if sess.dirty || sess.isNew {
		data, err := json.Marshal(sm.payloadOf(sess))
		if err != nil {
			return err
		}
		if err := sm.client.Set(ctx, sm.redisKey(sess.ID), data, sm.storeTTL(sess)).Err(); err != nil {
			return err
		}
		sess.dirty = false
	}

	if sess.ID != "" {
		cookie := &http.Cookie{
			Name:     sm.cookieName,
			Value:    sess.ID,
			Path:     "/",
			HttpOnly: true,
			Secure:   sm.secure,
			SameSite: http.SameSiteStrictMode,
			Expires:  time.Now().Add(sm.storeTTL(sess)),
		}
		http.SetCookie(w, cookie)
	}

	return nil
}

// Destroy marks the session for deletion and clears its state. Safe to call
// more than once.
func (sm *SessionManager) Destroy(sess *Session) {
	if sess == nil {
		return
	}
	sess.destroyed = true
	sess.userID = ""
	sess.userName = ""
	sess.loginAt = time.Time{}
	sess.permanent = false
	sess.values = nil
}

// Lifetime exposes the configured absolute session lifetime.
func (sm *SessionManager) Lifetime() time.Duration {
	return sm.lifetime
}

// CookieName returns the cookie identifier used for sessions.
func (sm *SessionManager) CookieName() string {
	return sm.cookieName
}

// Session helpers

// Set stores a key-value pair.
func (s *Session) Set(key, value string) {
	if s.values == nil {
		s.values = make(map[string]string)
	}
	s.values[key] = value
	s.dirty = true
}

// Get retrieves a value.
func (s *Session) Get(key string) string {
	if s.values == nil {
		return ""
	}
	return s.values[key]
}

// Delete removes a value.
func (s *Session) Delete(key string) {
	if s.values == nil {
		return
	}
	delete(s.values, key)
	s.dirty = true
}

// Authenticate binds the session to a user and stamps the login time, which
// anchors the absolute lifetime check.
func (s *Session) Authenticate(id, name string, permanent bool) {
	s.userID = id
	s.userName = name
	s.loginAt = time.Now()
	s.permanent = permanent
	s.dirty = true
}

// User returns the current user ID.
func (s *Session) User() string {
	return s.userID
}

// UserName returns the display name captured at login.
func (s *Session) UserName() string {
	return s.userName
}

// LoginAt returns the authentication timestamp.
func (s *Session) LoginAt() time.Time {
	return s.loginAt
}

// Permanent reports whether the extended lifetime applies.
func (s *Session) Permanent() bool {
	return s.permanent
}

// AddFlash queues a flash message.
func (s *Session) AddFlash(msg FlashMessage) {
	s.flashes = append(s.flashes, msg)
	s.dirty = true
}

// PopFlash retrieves and clears the oldest flash message.
func (s *Session) PopFlash() *FlashMessage {
	if len(s.flashes) == 0 {
		if value := s.Get("flash"); value != "" {
			s.Delete("flash")
		}
		return nil
	}
	msg := s.flashes[0]
	s.flashes = s.flashes[1:]
	s.dirty = true
	return &msg
}

func (sm *SessionManager) newSession() *Session {
	return &Session{
		ID:      sm.generateSessionID(),
		values:  make(map[string]string),
		manager: sm,
		isNew:   true,
		dirty:   true,
	}
}

func (sm *SessionManager) payloadOf(sess *Session) sessionPayload {
	var loginAt int64
	if !sess.loginAt.IsZero() {
		loginAt = sess.loginAt.Unix()
	}
	return sessionPayload{
		Values:    sess.values,
		UserID:    sess.userID,
		UserName:  sess.userName,
		LoginAt:   loginAt,
		Permanent: sess.permanent,
		Flashes:   sess.flashes,
	}
}

func (sm *SessionManager) storeTTL(sess *Session) time.Duration {
	if sess != nil && sess.permanent {
		return sm.rememberLifetime
	}
	return sm.lifetime
}

func (sm *SessionManager) redisKey(id string) string {
	return "session:" + id
}

func (sm *SessionManager) generateSessionID() string {
	if id, err := uuid.NewRandom(); err == nil {
		return id.String()
	}
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return base64.RawURLEncoding.EncodeToString([]byte(time.Now().Format(time.RFC3339Nano)))
	}
	if len(sm.secret) > 0 {
		for i := range b {
			b[i] ^= sm.secret[i%len(sm.secret)]
		}
	}
	return base64.RawURLEncoding.EncodeToString(b)
}
