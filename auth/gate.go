package auth

import (
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"path"
	"strings"
)

// DefaultLoginPath is where the Gate sends requests that carry no session.
const DefaultLoginPath = "/admin/login"

// NextParam is the query parameter holding the originally requested path.
const NextParam = "next"

// GateRule selects the requests a Gate guards.
type GateRule struct {
	// Prefix matches the path itself and everything below it.
	Prefix string
	// Except lists sub-trees of Prefix that are not guarded.
	Except []string
	// WritesOnly restricts the rule to non-read methods.
	WritesOnly bool
}

func (gr GateRule) matches(method, p string) bool {
	if !underPath(p, gr.Prefix) {
		return false
	}
	for _, ex := range gr.Except {
		if underPath(p, ex) {
			return false
		}
	}
	if gr.WritesOnly && isReadMethod(method) {
		return false
	}
	return true
}

func underPath(p, prefix string) bool {
	prefix = strings.TrimSuffix(prefix, "/")
	return p == prefix || strings.HasPrefix(p, prefix+"/")
}

// cleanPath returns the canonical form of the request path, the one the
// page handler and file server resolve. Rules are matched against it so
// "//admin" or "/admin/login/../stories" cannot slip past a prefix.
func cleanPath(r *http.Request) string {
	return path.Clean("/" + r.URL.Path)
}

func isReadMethod(method string) bool {
	switch method {
	case http.MethodGet, http.MethodHead, http.MethodOptions:
		return true
	}
	return false
}

// DefaultGateRules guards the admin pages (except the login page) and every
// state-changing call under the stories API.
func DefaultGateRules() []GateRule {
	return []GateRule{
		{Prefix: "/admin", Except: []string{DefaultLoginPath}},
		{Prefix: "/api/stories", WritesOnly: true},
	}
}

// GateOption configures a Gate.
type GateOption func(*Gate)

// WithGateLogger sets the logger used for redirect events.
func WithGateLogger(logger *slog.Logger) GateOption {
	return func(g *Gate) {
		g.logger = logger
	}
}

// WithLoginPath overrides DefaultLoginPath.
func WithLoginPath(path string) GateOption {
	return func(g *Gate) {
		g.loginPath = path
	}
}

// WithGateRules replaces DefaultGateRules.
func WithGateRules(rules ...GateRule) GateOption {
	return func(g *Gate) {
		g.rules = rules
	}
}

// Gate is the coarse interception layer evaluated before routing. For
// guarded requests it only checks that a session cookie is present.
//
// The cookie value is NOT verified here. A request carrying any non-empty
// lela_admin cookie reaches the handler; the Authorizer inside each
// protected operation is what actually enforces a valid session.
type Gate struct {
	rules     []GateRule
	loginPath string
	logger    *slog.Logger
}

// NewGate returns a Gate with DefaultGateRules.
func NewGate(opts ...GateOption) *Gate {
	g := &Gate{
		rules:     DefaultGateRules(),
		loginPath: DefaultLoginPath,
	}
	for _, opt := range opts {
		opt(g)
	}
	if g.logger == nil {
		g.logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return g
}

// Guards reports whether r falls under one of the Gate's rules.
func (g *Gate) Guards(r *http.Request) bool {
	p := cleanPath(r)
	for _, rule := range g.rules {
		if rule.matches(r.Method, p) {
			return true
		}
	}
	return false
}

// Middleware redirects guarded requests without a session cookie to the
// login page, preserving the requested path and query in the "next"
// parameter.
func (g *Gate) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !g.Guards(r) || hasSessionCookie(r) {
			next.ServeHTTP(w, r)
			return
		}
		dest := cleanPath(r)
		if r.URL.RawQuery != "" {
			dest += "?" + r.URL.RawQuery
		}
		target := g.loginPath + "?" + url.Values{NextParam: {dest}}.Encode()
		g.logger.LogAttrs(r.Context(), slog.LevelInfo, "gate redirect",
			slog.String("event", "gate_redirect"),
			slog.String("method", r.Method),
			slog.String("path", r.URL.Path),
			slog.String("remote_addr", r.RemoteAddr),
		)
		http.Redirect(w, r, target, http.StatusTemporaryRedirect)
	})
}

func hasSessionCookie(r *http.Request) bool {
	c, err := r.Cookie(SessionCookieName)
	return err == nil && c.Value != ""
}
