package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"go.uber.org/zap"

	"github.com/benvon/codemate/internal/apperror"
	logpkg "github.com/benvon/codemate/internal/logger"
	"github.com/benvon/codemate/internal/models"
	"github.com/benvon/codemate/internal/request"
	forumsvc "github.com/benvon/codemate/internal/services/forum"
)

// respondJSON sends a JSON response
func respondJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	response := map[string]any{
		"success":   true,
		"data":      data,
		"timestamp": time.Now().UTC().Format(time.RFC3339),
	}

	if err := json.NewEncoder(w).Encode(response); err != nil {
		http.Error(w, "Failed to encode response", http.StatusInternalServerError)
	}
}

// sanitizeErrorMessage caps the length of client-facing error messages
func sanitizeErrorMessage(message string) string {
	if len(message) > 200 {
		return message[:200] + "..."
	}
	return message
}

// respondJSONError sends an error JSON response with sanitized error messages
func respondJSONError(w http.ResponseWriter, status int, errorType, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	response := map[string]any{
		"success":   false,
		"error":     errorType,
		"message":   sanitizeErrorMessage(message),
		"timestamp": time.Now().UTC().Format(time.RFC3339),
	}

	if err := json.NewEncoder(w).Encode(response); err != nil {
		http.Error(w, "Failed to encode response", http.StatusInternalServerError)
	}
}

// respondError maps a service error to its status and public message. Only
// unexpected errors are logged; their detail never reaches the client.
func respondError(w http.ResponseWriter, r *http.Request, log *zap.Logger, err error) {
	if errors.Is(err, forumsvc.ErrAssistantUnavailable) {
		respondJSONError(w, http.StatusServiceUnavailable, "assistant_unavailable", err.Error())
		return
	}
	status := apperror.HTTPStatus(err)
	if status >= http.StatusInternalServerError {
		log.Error("request_failed",
			zap.Error(err),
			zap.Int("status_code", status),
			zap.String("path", logpkg.SanitizePath(r.URL.Path)),
			zap.String("request_id", request.RequestID(r.Context())),
		)
	}
	respondJSONError(w, status, apperror.Kind(err), apperror.PublicMessage(err))
}

// decodeJSON reads a single JSON object from the body into dst.
func decodeJSON(r *http.Request, dst any) error {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		var maxErr *http.MaxBytesError
		switch {
		case errors.As(err, &maxErr):
			return apperror.InvalidInput("body", "request body is too large")
		case errors.Is(err, io.EOF):
			return apperror.InvalidInput("body", "request body is required")
		default:
			return apperror.InvalidInput("body", "request body must be valid JSON")
		}
	}
	if dec.More() {
		return apperror.InvalidInput("body", "request body must contain a single JSON object")
	}
	return nil
}

func pathID(r *http.Request, name string) (uuid.UUID, error) {
	raw := mux.Vars(r)[name]
	id, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, apperror.InvalidInput(name, fmt.Sprintf("%s must be a UUID", name))
	}
	return id, nil
}

// pageParam reads ?page=, defaulting to 1 for missing or invalid values.
func pageParam(r *http.Request) int {
	page, err := strconv.Atoi(r.URL.Query().Get("page"))
	if err != nil || page < 1 {
		return 1
	}
	return page
}

// viewerID is the signed in user's id, or nil for anonymous requests.
func viewerID(r *http.Request) *uuid.UUID {
	if u := request.UserFromContext(r); u != nil {
		id := u.ID
		return &id
	}
	return nil
}

// requireUser returns the signed in user or writes a 401.
func requireUser(w http.ResponseWriter, r *http.Request) (*models.User, bool) {
	user := request.UserFromContext(r)
	if user == nil {
		respondJSONError(w, http.StatusUnauthorized, "unauthorized", "authentication required")
		return nil, false
	}
	return user, true
}

// mutationResponse pairs a mutation's result with the cached paths it made stale.
type mutationResponse struct {
	Item        any      `json:"item,omitempty"`
	Invalidated []string `json:"invalidated"`
}

func mutated(item any, paths []string) mutationResponse {
	if paths == nil {
		paths = []string{}
	}
	return mutationResponse{Item: item, Invalidated: paths}
}
