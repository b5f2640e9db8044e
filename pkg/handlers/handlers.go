// Package handlers provides JSON response helpers that wrap every payload
// in the service envelope.
package handlers

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"runtime/debug"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"github.com/JaimeStill/certify/pkg/apperr"
)

var verbose atomic.Bool

// SetVerbose controls whether error responses include the wrapped error chain
// and the stack of the responding goroutine. Enabled outside production.
func SetVerbose(v bool) {
	verbose.Store(v)
}

// Envelope is the response body shape for every API response.
type Envelope struct {
	Success   bool      `json:"success"`
	Data      any       `json:"data,omitempty"`
	Message   string    `json:"message,omitempty"`
	Code      string    `json:"code,omitempty"`
	Details   any       `json:"details,omitempty"`
	Trace     []string  `json:"trace,omitempty"`
	Stack     string    `json:"stack,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}

// RespondJSON writes data inside a success envelope.
func RespondJSON(w http.ResponseWriter, status int, data any) {
	RespondMessage(w, status, data, "")
}

// RespondMessage writes data and a human-readable message inside a success envelope.
func RespondMessage(w http.ResponseWriter, status int, data any, message string) {
	write(w, status, Envelope{
		Success:   true,
		Data:      data,
		Message:   message,
		Timestamp: time.Now().UTC(),
	})
}

// RespondError writes err inside a failure envelope with the given status.
// Server errors are logged and their messages are not exposed.
func RespondError(w http.ResponseWriter, logger *slog.Logger, status int, err error) {
	env := Envelope{
		Success:   false,
		Message:   err.Error(),
		Code:      apperr.KindOf(err).String(),
		Details:   apperr.DetailsOf(err),
		Timestamp: time.Now().UTC(),
	}

	if status >= http.StatusInternalServerError {
		logger.Error("request failed", "status", status, "error", err)
		env.Message = http.StatusText(status)
		env.Details = nil
	} else {
		logger.Warn("request rejected", "status", status, "error", err)
	}

	if verbose.Load() {
		env.Trace = chain(err)
		env.Stack = string(debug.Stack())
	}

	write(w, status, env)
}

// chain lists every error in err's tree, outermost first, with its type.
func chain(err error) []string {
	var out []string
	var walk func(error)
	walk = func(e error) {
		if e == nil {
			return
		}
		out = append(out, fmt.Sprintf("%T: %s", e, e.Error()))
		switch u := e.(type) {
		case interface{ Unwrap() error }:
			walk(u.Unwrap())
		case interface{ Unwrap() []error }:
			for _, inner := range u.Unwrap() {
				walk(inner)
			}
		}
	}
	walk(err)
	return out
}

// RespondAppError writes err using the status derived from its apperr.Kind.
func RespondAppError(w http.ResponseWriter, logger *slog.Logger, err error) {
	RespondError(w, logger, apperr.HTTPStatus(err), err)
}

// DecodeJSON decodes the request body into v, rejecting unknown fields.
func DecodeJSON(r *http.Request, v any) error {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		return apperr.ErrInvalidInput.WithMessage("invalid request body: " + err.Error())
	}
	return nil
}

func write(w http.ResponseWriter, status int, env Envelope) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(env)
}

// PathUUID parses the named path value as a UUID.
func PathUUID(r *http.Request, name string) (uuid.UUID, error) {
	id, err := uuid.Parse(r.PathValue(name))
	if err != nil {
		return uuid.Nil, apperr.ErrInvalidID.WithDetails(map[string]string{name: r.PathValue(name)})
	}
	return id, nil
}
