// Package auth implements operator authentication for lela: a shared secret
// held in protected memory, a stateless HMAC-signed session token, the
// login/logout cookie instructions, the presence-only request Gate and the
// per-operation authorization check.
package auth

import (
	"crypto/subtle"
	"fmt"

	"github.com/awnumar/memguard"
)

// SecretStore holds the operator's shared secret. The secret is kept in a
// memguard Enclave (encrypted at rest in memory) and is only decrypted for
// the duration of a single MAC computation or comparison.
//
// A SecretStore built from an empty secret is valid but unconfigured: every
// authentication path fails closed.
type SecretStore struct {
	enclave *memguard.Enclave
}

// NewSecretStore moves secret into a new SecretStore.
func NewSecretStore(secret string) *SecretStore {
	if secret == "" {
		return &SecretStore{}
	}
	// NewEnclave wipes its input, so hand it a private copy.
	return &SecretStore{enclave: memguard.NewEnclave([]byte(secret))}
}

// Configured reports whether a non-empty secret is available.
func (s *SecretStore) Configured() bool {
	return s != nil && s.enclave != nil
}

// Equal reports whether candidate matches the configured secret. The
// comparison is constant-time. An empty candidate or an unconfigured store
// never matches.
func (s *SecretStore) Equal(candidate string) bool {
	if candidate == "" || !s.Configured() {
		return false
	}
	var equal bool
	err := s.withKey(func(key []byte) error {
		equal = subtle.ConstantTimeCompare(key, []byte(candidate)) == 1
		return nil
	})
	return err == nil && equal
}

// Destroy drops the enclave. The store reports unconfigured afterwards.
func (s *SecretStore) Destroy() {
	if s != nil {
		s.enclave = nil
	}
}

// withKey opens the enclave and passes the plaintext secret to fn. The
// plaintext buffer is destroyed when fn returns; fn must not retain key.
func (s *SecretStore) withKey(fn func(key []byte) error) error {
	if !s.Configured() {
		return ErrNotConfigured
	}
	buf, err := s.enclave.Open()
	if err != nil {
		return fmt.Errorf("opening secret enclave: %w", err)
	}
	defer buf.Destroy()
	return fn(buf.Bytes())
}
