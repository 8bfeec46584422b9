package handler

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/quick-orders/internal/domain"
	"github.com/quick-orders/internal/infrastructure/shopify"
)

// MessageEnvelope is the generic response wrapper.
type MessageEnvelope struct {
	Message string `json:"message,omitempty"`
}

// ErrorEnvelope is the body of every failed request. Reason is a stable
// machine-readable code; Details carries upstream payloads when there are any.
type ErrorEnvelope struct {
	Error   string `json:"error"`
	Reason  string `json:"reason,omitempty"`
	Details any    `json:"details,omitempty"`
}

// IdentityEnvelope wraps a completed login or registration.
type IdentityEnvelope struct {
	*domain.Identity
	SessionToken string `json:"session_token,omitempty"`
}

// SSOEnvelope wraps a freshly built single sign-on token.
type SSOEnvelope struct {
	Token string `json:"token"`
	URL   string `json:"url"`
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, ErrorEnvelope{Error: msg, Reason: reasonFor(status)})
}

// httpError maps a service error onto a status code and reason.
func httpError(w http.ResponseWriter, err error) {
	if reason := domain.VerificationReason(err); reason != "" {
		writeJSON(w, http.StatusUnauthorized, ErrorEnvelope{Error: err.Error(), Reason: reason})
		return
	}

	var status int
	switch {
	case errors.Is(err, domain.ErrBadRequest):
		status = http.StatusBadRequest
	case errors.Is(err, domain.ErrUnauthorized):
		status = http.StatusUnauthorized
	case errors.Is(err, domain.ErrForbidden):
		status = http.StatusForbidden
	case errors.Is(err, domain.ErrNotFound):
		status = http.StatusNotFound
	case errors.Is(err, domain.ErrConflict):
		status = http.StatusConflict
	case errors.Is(err, domain.ErrUpstream):
		status = http.StatusBadGateway
	case errors.Is(err, domain.ErrConfiguration):
		slog.Error("configuration error", "err", err)
		writeJSON(w, http.StatusInternalServerError, ErrorEnvelope{Error: "service is not configured", Reason: "configuration"})
		return
	default:
		slog.Error("unhandled error", "err", err)
		writeError(w, http.StatusInternalServerError, "internal server error")
		return
	}

	env := ErrorEnvelope{Error: err.Error(), Reason: reasonFor(status)}
	var apiErr *shopify.APIError
	if errors.As(err, &apiErr) {
		env.Details = upstreamDetails(apiErr.Body)
	}
	writeJSON(w, status, env)
}

// upstreamDetails passes a JSON upstream body through as JSON and anything
// else as a string.
func upstreamDetails(body string) any {
	if json.Valid([]byte(body)) {
		return json.RawMessage(body)
	}
	return body
}

func reasonFor(status int) string {
	switch status {
	case http.StatusBadRequest:
		return "validation"
	case http.StatusUnauthorized:
		return "unauthorized"
	case http.StatusForbidden:
		return "forbidden"
	case http.StatusNotFound:
		return "not_found"
	case http.StatusConflict:
		return "conflict"
	case http.StatusBadGateway:
		return "upstream"
	case http.StatusServiceUnavailable:
		return "unavailable"
	}
	return "internal"
}

func decodeJSON(r *http.Request, dst any) error {
	return json.NewDecoder(r.Body).Decode(dst)
}
