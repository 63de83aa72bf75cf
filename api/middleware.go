package api

import (
	"log/slog"
	"net/http"

	"github.com/jmcleod/lela/auth"
)

// authorize runs the resource-level check for a protected operation. It
// answers 401 itself when the request carries neither a valid session nor
// the legacy secret header.
func (a *API) authorize(w http.ResponseWriter, r *http.Request) (auth.Method, bool) {
	method, err := a.authorizer.Authorize(r)
	if err != nil {
		a.audit.logFailure(AuditUnauthorized, r, "no valid session or secret header",
			slog.String("method", r.Method),
			slog.String("path", r.URL.Path))
		a.mapError(w, err)
		return auth.MethodNone, false
	}
	if method == auth.MethodLegacyHeader {
		a.logger.LogAttrs(r.Context(), slog.LevelWarn, "legacy secret header used",
			slog.String("header", auth.LegacySecretHeader),
			slog.String("path", r.URL.Path))
	}
	return method, true
}
