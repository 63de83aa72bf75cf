package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/jmcleod/lela/auth"
	"github.com/jmcleod/lela/storage"
)

const (
	maxAuthBodySize  = 64 << 10
	maxStoryBodySize = 1 << 20
)

var errEmptyBody = errors.New("request body is empty")

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, ErrorResponse{Error: msg})
}

// writeInternalError logs err and answers with a generic 500 so storage
// details never reach the client.
func (a *API) writeInternalError(w http.ResponseWriter, msg string, err error) {
	a.logger.Error(msg, "error", err)
	writeError(w, http.StatusInternalServerError, msg)
}

func (a *API) mapError(w http.ResponseWriter, err error) {
	var invalid *validationError
	switch {
	case errors.As(err, &invalid):
		writeError(w, http.StatusBadRequest, invalid.Error())
	case errors.Is(err, storage.ErrNotFound):
		writeError(w, http.StatusNotFound, storage.ErrNotFound.Error())
	case errors.Is(err, auth.ErrUnauthorized):
		writeError(w, http.StatusUnauthorized, "unauthorized")
	case errors.Is(err, auth.ErrInvalidCredentials):
		writeError(w, http.StatusUnauthorized, "invalid credentials")
	case errors.Is(err, auth.ErrNotConfigured):
		writeError(w, http.StatusInternalServerError, auth.ErrNotConfigured.Error())
	default:
		a.writeInternalError(w, "internal error", err)
	}
}

// readJSON decodes a size-limited JSON body into T.
func readJSON[T any](w http.ResponseWriter, r *http.Request, limit int64) (T, error) {
	var v T
	r.Body = http.MaxBytesReader(w, r.Body, limit)
	dec := json.NewDecoder(r.Body)
	if err := dec.Decode(&v); err != nil {
		if errors.Is(err, io.EOF) {
			return v, errEmptyBody
		}
		return v, err
	}
	return v, nil
}

// decodeJSON is readJSON that answers the request itself on failure.
func decodeJSON[T any](w http.ResponseWriter, r *http.Request, limit int64) (T, bool) {
	v, err := readJSON[T](w, r, limit)
	if err != nil {
		var tooLarge *http.MaxBytesError
		switch {
		case errors.As(err, &tooLarge):
			writeError(w, http.StatusRequestEntityTooLarge, fmt.Sprintf("request body exceeds %d bytes", tooLarge.Limit))
		case errors.Is(err, errEmptyBody):
			writeError(w, http.StatusBadRequest, "request body is required")
		default:
			writeError(w, http.StatusBadRequest, "invalid JSON body")
		}
		return v, false
	}
	return v, true
}
