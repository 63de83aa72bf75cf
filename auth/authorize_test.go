package auth

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestAuthorizer(secret string) (*Authorizer, *Sessions) {
	secrets := NewSecretStore(secret)
	sessions := NewSessions(secrets)
	return NewAuthorizer(secrets, sessions.Codec()), sessions
}

func TestAuthorize(t *testing.T) {
	authz, sessions := newTestAuthorizer("correct-secret")
	ci, err := sessions.Login("correct-secret")
	require.NoError(t, err)

	otherAuthz, _ := newTestAuthorizer("other-secret")

	tests := []struct {
		name       string
		cookie     string
		header     string
		authz      *Authorizer
		wantMethod Method
		wantErr    error
	}{
		{name: "valid session", cookie: ci.Value, authz: authz, wantMethod: MethodSession},
		{name: "valid session wins over bad header", cookie: ci.Value, header: "wrong", authz: authz, wantMethod: MethodSession},
		{name: "legacy header", header: "correct-secret", authz: authz, wantMethod: MethodLegacyHeader},
		{name: "garbage cookie falls back to header", cookie: "garbage", header: "correct-secret", authz: authz, wantMethod: MethodLegacyHeader},
		{name: "garbage cookie", cookie: "garbage", authz: authz, wantErr: ErrUnauthorized},
		{name: "wrong header", header: "wrong-secret", authz: authz, wantErr: ErrUnauthorized},
		{name: "nothing", authz: authz, wantErr: ErrUnauthorized},
		{name: "session signed by other secret", cookie: ci.Value, authz: otherAuthz, wantErr: ErrUnauthorized},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := httptest.NewRequest(http.MethodPost, "/api/stories", nil)
			if tt.cookie != "" {
				r.AddCookie(&http.Cookie{Name: SessionCookieName, Value: tt.cookie})
			}
			if tt.header != "" {
				r.Header.Set(LegacySecretHeader, tt.header)
			}
			method, err := tt.authz.Authorize(r)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				assert.False(t, tt.authz.Authorized(r))
			} else {
				assert.NoError(t, err)
				assert.True(t, tt.authz.Authorized(r))
			}
			assert.Equal(t, tt.wantMethod, method)
		})
	}
}

func TestAuthorizeFailsClosedWithoutSecret(t *testing.T) {
	authz, _ := newTestAuthorizer("")
	r := httptest.NewRequest(http.MethodDelete, "/api/stories/x", nil)
	r.Header.Set(LegacySecretHeader, "")
	r.AddCookie(&http.Cookie{Name: SessionCookieName, Value: "eA.c2ln"})
	_, err := authz.Authorize(r)
	assert.ErrorIs(t, err, ErrUnauthorized)
}
