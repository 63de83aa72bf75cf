package auth

import "errors"

var (
	// ErrNotConfigured indicates no operator secret was configured. Login is
	// unavailable and every session is treated as invalid.
	ErrNotConfigured = errors.New("admin secret not configured")
	// ErrInvalidCredentials indicates the candidate secret was missing or wrong.
	ErrInvalidCredentials = errors.New("invalid credentials")
	// ErrUnauthorized indicates a protected operation was invoked without a
	// valid session or a valid shared-secret header.
	ErrUnauthorized = errors.New("unauthorized")
	// ErrMalformedToken indicates a token that could not be parsed. It never
	// leaves this package: Verify collapses it to false.
	ErrMalformedToken = errors.New("malformed session token")
	// ErrEmptyPayload is returned by Sign for an empty payload.
	ErrEmptyPayload = errors.New("session payload must not be empty")
)
