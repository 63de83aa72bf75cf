package api

import (
	"errors"
	"net/http"

	"github.com/jmcleod/lela/auth"
)

// Login handles POST /admin/login.
func (a *API) Login(w http.ResponseWriter, r *http.Request) {
	// An unreadable body is the same as submitting no secret.
	req, err := readJSON[LoginRequest](w, r, maxAuthBodySize)
	if err != nil {
		req = LoginRequest{}
	}

	instr, err := a.sessions.Login(req.candidate())
	switch {
	case errors.Is(err, auth.ErrNotConfigured):
		a.audit.logFailure(AuditLoginUnconfigured, r, "admin secret not configured")
		a.mapError(w, err)
		return
	case errors.Is(err, auth.ErrInvalidCredentials):
		a.audit.logFailure(AuditLoginFailure, r, "invalid credentials")
		a.mapError(w, err)
		return
	case err != nil:
		a.writeInternalError(w, "failed to issue session", err)
		return
	}

	http.SetCookie(w, instr.Cookie())
	a.audit.log(AuditLoginSuccess, r)
	writeJSON(w, http.StatusOK, OKResponse{OK: true})
}

// Logout handles POST /admin/logout. It always succeeds.
func (a *API) Logout(w http.ResponseWriter, r *http.Request) {
	http.SetCookie(w, a.sessions.Logout().Cookie())
	a.audit.log(AuditLogout, r)
	writeJSON(w, http.StatusOK, OKResponse{OK: true})
}
