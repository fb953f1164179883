package web

// errors.go provides unified error response handling for the web layer.
//
// Errors are logged with full technical detail and the request id, and
// returned to clients as the user message of acs.MapError: JSON for /api
// routes and clients that accept JSON, plain text otherwise.

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/JonMunkholm/acsextract/internal/acs"
	"github.com/JonMunkholm/acsextract/internal/logging"
)

// ErrorResponse represents the JSON structure for API error responses.
// Includes both machine-readable (Code) and human-readable (Message, Action) fields.
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
	Action  string `json:"action,omitempty"`
	Code    string `json:"code"`
}

// statusFor maps request-side failures to 400 and everything else to 500.
func statusFor(err error) int {
	if errors.Is(err, acs.ErrInvalidSpec) || errors.Is(err, acs.ErrConfig) {
		return http.StatusBadRequest
	}
	return http.StatusInternalServerError
}

// respondError logs err and writes a user-friendly response.
func respondError(w http.ResponseWriter, r *http.Request, err error) {
	status := statusFor(err)
	userMsg := acs.MapError(err)

	logging.FromContext(r.Context()).Error("request error",
		"path", r.URL.Path,
		"method", r.Method,
		"status", status,
		"error", err.Error(),
		"code", userMsg.Code,
	)

	if wantsJSON(r) {
		respondErrorJSON(w, userMsg, err, status)
		return
	}
	http.Error(w, acs.FormatUserError(err), status)
}

// respondErrorJSON writes a JSON error response. Request errors echo their
// detail; server errors do not.
func respondErrorJSON(w http.ResponseWriter, msg acs.UserMessage, err error, status int) {
	detail := msg.Message
	if status < http.StatusInternalServerError {
		detail = err.Error()
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(ErrorResponse{
		Error:   detail,
		Message: msg.Message,
		Action:  msg.Action,
		Code:    msg.Code,
	})
}

// wantsJSON checks if the client prefers JSON response.
func wantsJSON(r *http.Request) bool {
	if strings.Contains(r.Header.Get("Accept"), "application/json") {
		return true
	}

	// API routes default to JSON
	return strings.HasPrefix(r.URL.Path, "/api/")
}
