package auth

import (
	"crypto/hmac"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"strings"
	"time"
)

const (
	tokenSeparator = "."
	// maxTokenLen bounds the work done on attacker-supplied cookie values.
	maxTokenLen = 4096
)

// tokenEncoding is base64url without padding, so tokens are cookie-safe.
var tokenEncoding = base64.RawURLEncoding

var errBadSignature = errors.New("session token signature mismatch")

// Codec signs and verifies session tokens with the operator secret.
//
// A token is base64url(payload) "." base64url(HMAC-SHA256(secret,
// base64url(payload))). The MAC covers the encoded payload, so any change to
// either half of the token string invalidates it. Tokens carry no expiry of
// their own; their lifetime is bounded only by the cookie that transports
// them.
type Codec struct {
	secrets *SecretStore
	equal   func(got, want []byte) bool
}

// NewCodec returns a Codec keyed by the given SecretStore.
func NewCodec(secrets *SecretStore) *Codec {
	return &Codec{secrets: secrets, equal: constantTimeEqual}
}

// Sign encodes payload and appends its MAC. The result is deterministic for
// a given payload and secret.
func (c *Codec) Sign(payload []byte) (string, error) {
	if len(payload) == 0 {
		return "", ErrEmptyPayload
	}
	encoded := tokenEncoding.EncodeToString(payload)
	tag, err := c.tag(encoded)
	if err != nil {
		return "", err
	}
	return encoded + tokenSeparator + tag, nil
}

// Verify reports whether token was produced by Sign under the configured
// secret. Malformed tokens and signature mismatches are indistinguishable.
func (c *Codec) Verify(token string) bool {
	_, ok := c.Open(token)
	return ok
}

// Open verifies token and returns the decoded payload.
func (c *Codec) Open(token string) ([]byte, bool) {
	payload, err := c.open(token)
	if err != nil {
		return nil, false
	}
	return payload, true
}

func (c *Codec) open(token string) ([]byte, error) {
	if len(token) > maxTokenLen {
		return nil, ErrMalformedToken
	}
	encoded, presented, ok := strings.Cut(token, tokenSeparator)
	if !ok || encoded == "" || presented == "" {
		return nil, ErrMalformedToken
	}
	payload, err := tokenEncoding.DecodeString(encoded)
	if err != nil {
		return nil, ErrMalformedToken
	}
	expected, err := c.tag(encoded)
	if err != nil {
		return nil, err
	}
	if !c.equal([]byte(presented), []byte(expected)) {
		return nil, errBadSignature
	}
	return payload, nil
}

func (c *Codec) tag(encodedPayload string) (string, error) {
	var tag string
	err := c.secrets.withKey(func(key []byte) error {
		mac := hmac.New(sha256.New, key)
		mac.Write([]byte(encodedPayload))
		tag = tokenEncoding.EncodeToString(mac.Sum(nil))
		return nil
	})
	return tag, err
}

// constantTimeEqual compares got against want without returning early on a
// length mismatch: got is copied into a buffer sized like want and the full
// buffer is always compared.
func constantTimeEqual(got, want []byte) bool {
	buf := make([]byte, len(want))
	copy(buf, got)
	sameLen := subtle.ConstantTimeEq(clampLen(len(got)), clampLen(len(want)))
	return subtle.ConstantTimeCompare(buf, want)&sameLen == 1
}

func clampLen(n int) int32 {
	if n > math.MaxInt32 {
		return math.MaxInt32
	}
	return int32(n)
}

// SessionPayload is the signed content of a session token.
type SessionPayload struct {
	// IssuedAt is the issue time in Unix milliseconds.
	IssuedAt int64 `json:"iat"`
}

// Issued returns IssuedAt as a time.Time.
func (p SessionPayload) Issued() time.Time {
	return time.UnixMilli(p.IssuedAt)
}

// NewSessionToken signs a SessionPayload issued at now.
func (c *Codec) NewSessionToken(now time.Time) (string, error) {
	payload, err := json.Marshal(SessionPayload{IssuedAt: now.UnixMilli()})
	if err != nil {
		return "", fmt.Errorf("encoding session payload: %w", err)
	}
	return c.Sign(payload)
}

// OpenSession verifies token and decodes its SessionPayload.
func (c *Codec) OpenSession(token string) (SessionPayload, bool) {
	raw, ok := c.Open(token)
	if !ok {
		return SessionPayload{}, false
	}
	var p SessionPayload
	if err := json.Unmarshal(raw, &p); err != nil {
		return SessionPayload{}, false
	}
	return p, true
}
