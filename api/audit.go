package api

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/jmcleod/lela/auth"
)

// AuditEvent identifies the type of security-relevant action being logged.
type AuditEvent string

const (
	AuditLoginSuccess      AuditEvent = "login_success"
	AuditLoginFailure      AuditEvent = "login_failure"
	AuditLoginUnconfigured AuditEvent = "login_unconfigured"
	AuditLogout            AuditEvent = "logout"
	AuditUnauthorized      AuditEvent = "unauthorized"
	AuditStoryCreated      AuditEvent = "story_created"
	AuditStoryUpdated      AuditEvent = "story_updated"
	AuditStoryDeleted      AuditEvent = "story_deleted"
)

// auditLogger wraps slog.Logger for structured security audit logging.
type auditLogger struct {
	logger  *slog.Logger
	metrics *metricsCollector
}

func newAuditLogger(logger *slog.Logger) *auditLogger {
	return &auditLogger{
		logger: logger.With("component", "audit"),
	}
}

// log writes a structured audit log entry. Secrets and token values are
// never passed in attrs.
func (al *auditLogger) log(event AuditEvent, r *http.Request, attrs ...slog.Attr) {
	baseAttrs := []slog.Attr{
		slog.String("event", string(event)),
		slog.String("remote_addr", r.RemoteAddr),
		slog.String("timestamp", time.Now().UTC().Format(time.RFC3339)),
	}
	baseAttrs = append(baseAttrs, attrs...)
	al.logger.LogAttrs(r.Context(), slog.LevelInfo, "audit", baseAttrs...)
	if al.metrics != nil {
		al.metrics.recordEvent(event)
	}
}

// logStory records a story mutation along with the credential that allowed it.
func (al *auditLogger) logStory(event AuditEvent, r *http.Request, slug string, method auth.Method, extra ...slog.Attr) {
	attrs := []slog.Attr{
		slog.String("slug", slug),
		slog.String("auth_method", string(method)),
	}
	attrs = append(attrs, extra...)
	al.log(event, r, attrs...)
}

// logFailure logs a rejected request.
func (al *auditLogger) logFailure(event AuditEvent, r *http.Request, reason string, extra ...slog.Attr) {
	attrs := []slog.Attr{
		slog.String("reason", reason),
	}
	attrs = append(attrs, extra...)
	al.log(event, r, attrs...)
}
