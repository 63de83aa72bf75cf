package auth

import (
	"fmt"
	"net/http"
	"time"
)

const (
	// SessionCookieName is the cookie that carries the session token.
	SessionCookieName = "lela_admin"
	// SessionMaxAge is the browser-side lifetime of the session cookie.
	SessionMaxAge = 8 * time.Hour
)

// CookieInstruction tells the caller which session cookie to set on its
// response. A zero MaxAge means "delete the cookie".
type CookieInstruction struct {
	Name     string
	Value    string
	Path     string
	MaxAge   time.Duration
	HTTPOnly bool
	Secure   bool
	SameSite http.SameSite
}

// Delete reports whether the instruction clears the cookie.
func (ci CookieInstruction) Delete() bool {
	return ci.MaxAge <= 0
}

// Cookie converts the instruction into an *http.Cookie for http.SetCookie.
func (ci CookieInstruction) Cookie() *http.Cookie {
	c := &http.Cookie{
		Name:     ci.Name,
		Value:    ci.Value,
		Path:     ci.Path,
		HttpOnly: ci.HTTPOnly,
		Secure:   ci.Secure,
		SameSite: ci.SameSite,
	}
	if ci.Delete() {
		// net/http writes MaxAge<0 as "Max-Age=0".
		c.MaxAge = -1
		c.Expires = time.Unix(0, 0)
	} else {
		c.MaxAge = int(ci.MaxAge / time.Second)
	}
	return c
}

func sessionCookie(value string, maxAge time.Duration) CookieInstruction {
	return CookieInstruction{
		Name:     SessionCookieName,
		Value:    value,
		Path:     "/",
		MaxAge:   maxAge,
		HTTPOnly: true,
		Secure:   true,
		SameSite: http.SameSiteLaxMode,
	}
}

// SessionsOption configures Sessions.
type SessionsOption func(*Sessions)

// WithClock overrides the time source used for the issued-at timestamp.
func WithClock(now func() time.Time) SessionsOption {
	return func(s *Sessions) {
		s.now = now
	}
}

// Sessions issues and revokes stateless operator sessions. Nothing is
// stored server-side; the session lives entirely in the signed cookie.
type Sessions struct {
	secrets *SecretStore
	codec   *Codec
	now     func() time.Time
}

// NewSessions returns a Sessions backed by secrets.
func NewSessions(secrets *SecretStore, opts ...SessionsOption) *Sessions {
	s := &Sessions{
		secrets: secrets,
		codec:   NewCodec(secrets),
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Codec returns the codec used to sign session tokens.
func (s *Sessions) Codec() *Codec {
	return s.codec
}

// Login checks candidate against the configured secret and, on a match,
// returns the instruction to set a freshly signed session cookie.
//
// It fails with ErrNotConfigured when no secret is configured, regardless
// of the candidate, and with ErrInvalidCredentials otherwise.
func (s *Sessions) Login(candidate string) (CookieInstruction, error) {
	if !s.secrets.Configured() {
		return CookieInstruction{}, ErrNotConfigured
	}
	if !s.secrets.Equal(candidate) {
		return CookieInstruction{}, ErrInvalidCredentials
	}
	token, err := s.codec.NewSessionToken(s.now())
	if err != nil {
		return CookieInstruction{}, fmt.Errorf("signing session: %w", err)
	}
	return sessionCookie(token, SessionMaxAge), nil
}

// Logout returns the instruction to delete the session cookie. It always
// succeeds, whether or not a session exists.
func (s *Sessions) Logout() CookieInstruction {
	return sessionCookie("", 0)
}
