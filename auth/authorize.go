package auth

import "net/http"

// LegacySecretHeader carries the raw operator secret for clients that
// predate cookie sessions.
const LegacySecretHeader = "X-Admin-Secret"

// Method identifies which credential authorized a request.
type Method string

const (
	MethodNone         Method = ""
	MethodSession      Method = "session"
	MethodLegacyHeader Method = "legacy_header"
)

// Authorizer is the resource-level check run inside each protected
// operation. It is independent of the Gate and is the only component that
// validates the session token cryptographically.
type Authorizer struct {
	secrets *SecretStore
	codec   *Codec
}

// NewAuthorizer returns an Authorizer for the given secret and codec.
func NewAuthorizer(secrets *SecretStore, codec *Codec) *Authorizer {
	return &Authorizer{secrets: secrets, codec: codec}
}

// Authorize allows r when it carries a session cookie that verifies, or
// else a legacy secret header equal to the configured secret. Anything else
// is ErrUnauthorized.
func (a *Authorizer) Authorize(r *http.Request) (Method, error) {
	if c, err := r.Cookie(SessionCookieName); err == nil && c.Value != "" {
		if a.codec.Verify(c.Value) {
			return MethodSession, nil
		}
	}
	if header := r.Header.Get(LegacySecretHeader); header != "" && a.secrets.Equal(header) {
		return MethodLegacyHeader, nil
	}
	return MethodNone, ErrUnauthorized
}

// Authorized is Authorize reduced to a boolean.
func (a *Authorizer) Authorized(r *http.Request) bool {
	_, err := a.Authorize(r)
	return err == nil
}
