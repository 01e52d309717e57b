package apihttp

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"

	"podstream/internal/domain"
	"podstream/internal/identity"
	"podstream/internal/metrics"
	"podstream/internal/usecase"
)

// envelope is the uniform JSON response shape. Count is only populated on
// list responses.
type envelope struct {
	Success bool        `json:"success"`
	Message string      `json:"message,omitempty"`
	Count   *int        `json:"count,omitempty"`
	Data    interface{} `json:"data,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func writeData(w http.ResponseWriter, status int, data interface{}) {
	writeJSON(w, status, envelope{Success: true, Data: data})
}

func writeList(w http.ResponseWriter, status int, count int, data interface{}) {
	writeJSON(w, status, envelope{Success: true, Count: &count, Data: data})
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, envelope{Success: false, Message: message})
}

// writeUseCaseError translates use case sentinels into HTTP responses.
// Internal error detail leaks into the body only outside production.
func (s *Server) writeUseCaseError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, usecase.ErrValidation):
		writeError(w, http.StatusBadRequest, userFacingMessage(err, usecase.ErrValidation))
	case errors.Is(err, usecase.ErrEmailTaken):
		writeError(w, http.StatusBadRequest, "email already registered")
	case errors.Is(err, usecase.ErrInvalidCredentials):
		metrics.AuthFailuresTotal.Inc()
		writeError(w, http.StatusUnauthorized, "invalid credentials")
	case errors.Is(err, identity.ErrUnauthorized):
		metrics.AuthFailuresTotal.Inc()
		writeError(w, http.StatusUnauthorized, "unauthorized")
	case errors.Is(err, usecase.ErrForbidden):
		writeError(w, http.StatusForbidden, "you are not authorized to perform this action")
	case errors.Is(err, domain.ErrNotFound):
		writeError(w, http.StatusNotFound, "not found")
	case errors.Is(err, domain.ErrInvalidID):
		writeError(w, http.StatusBadRequest, "invalid file id")
	default:
		message := "internal server error"
		if s.environment != "production" {
			message = err.Error()
		}
		writeError(w, http.StatusInternalServerError, message)
	}
}

// userFacingMessage strips the sentinel prefix so clients see only the
// human-readable part ("title, description and author are required").
func userFacingMessage(err error, sentinel error) string {
	message := err.Error()
	prefix := sentinel.Error() + ": "
	if strings.HasPrefix(message, prefix) {
		return message[len(prefix):]
	}
	return message
}

type contextKey string

const (
	requestIDKey contextKey = "requestID"
	principalKey contextKey = "principal"
)

func withRequestID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, requestIDKey, id)
}

func requestIDFrom(ctx context.Context) string {
	id, _ := ctx.Value(requestIDKey).(string)
	return id
}

func withPrincipal(ctx context.Context, p identity.Principal) context.Context {
	return context.WithValue(ctx, principalKey, p)
}

func principalFrom(ctx context.Context) (identity.Principal, bool) {
	p, ok := ctx.Value(principalKey).(identity.Principal)
	return p, ok
}

// authenticate verifies the bearer token and returns the caller's principal.
// On failure it writes the 401 itself and returns ok=false.
func (s *Server) authenticate(w http.ResponseWriter, r *http.Request) (identity.Principal, bool) {
	if s.tokens == nil {
		writeError(w, http.StatusInternalServerError, "token verifier not configured")
		return identity.Principal{}, false
	}
	header := strings.TrimSpace(r.Header.Get("Authorization"))
	const prefix = "Bearer "
	if header == "" || !strings.HasPrefix(header, prefix) {
		metrics.AuthFailuresTotal.Inc()
		writeError(w, http.StatusUnauthorized, "missing or malformed authorization header")
		return identity.Principal{}, false
	}
	principal, err := s.tokens.VerifyToken(strings.TrimSpace(header[len(prefix):]))
	if err != nil {
		metrics.AuthFailuresTotal.Inc()
		writeError(w, http.StatusUnauthorized, "invalid or expired token")
		return identity.Principal{}, false
	}
	return principal, true
}

var (
	errInvalidRange        = errors.New("invalid range")
	errRangeNotSatisfiable = errors.New("range not satisfiable")
)

// parseByteRange parses a single "bytes=start-end" header value against the
// blob size. Multi-range requests are rejected as invalid.
func parseByteRange(value string, size int64) (int64, int64, error) {
	if size <= 0 {
		return 0, 0, errRangeNotSatisfiable
	}

	value = strings.TrimSpace(value)
	lower := strings.ToLower(value)
	if !strings.HasPrefix(lower, "bytes=") {
		return 0, 0, errInvalidRange
	}

	spec := strings.TrimSpace(value[len("bytes="):])
	if spec == "" || strings.Contains(spec, ",") {
		return 0, 0, errInvalidRange
	}

	parts := strings.SplitN(spec, "-", 2)
	if len(parts) == 1 {
		parts = append(parts, "")
	}

	startStr := strings.TrimSpace(parts[0])
	endStr := strings.TrimSpace(parts[1])

	if startStr == "" {
		if endStr == "" {
			return 0, 0, errInvalidRange
		}
		suffix, err := strconv.ParseInt(endStr, 10, 64)
		if err != nil || suffix <= 0 {
			return 0, 0, errInvalidRange
		}
		if suffix > size {
			suffix = size
		}
		return size - suffix, size - 1, nil
	}

	start, err := strconv.ParseInt(startStr, 10, 64)
	if err != nil || start < 0 {
		return 0, 0, errInvalidRange
	}
	if start >= size {
		return 0, 0, errRangeNotSatisfiable
	}

	if endStr == "" {
		return start, size - 1, nil
	}

	end, err := strconv.ParseInt(endStr, 10, 64)
	if err != nil || end < 0 {
		return 0, 0, errInvalidRange
	}
	if end < start {
		return 0, 0, errInvalidRange
	}
	if end >= size {
		end = size - 1
	}
	return start, end, nil
}
