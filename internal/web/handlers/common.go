package handlers

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/kozaktomas/biomatch/internal/biometric"
	"github.com/kozaktomas/biomatch/internal/database"
	"github.com/kozaktomas/biomatch/internal/matching"
)

// errInvalidRequestBody is a shared error message for invalid JSON request bodies.
const errInvalidRequestBody = "invalid request body"

// respondJSON sends a JSON response.
func respondJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if data != nil {
		json.NewEncoder(w).Encode(data)
	}
}

// respondError sends an error response.
func respondError(w http.ResponseWriter, status int, message string) {
	respondJSON(w, status, map[string]string{"error": message})
}

// DuplicateResponse is the 409 body returned when a template is already enrolled.
type DuplicateResponse struct {
	Error        string  `json:"error"`
	ExistingID   int64   `json:"existing_id"`
	ExistingName string  `json:"existing_name"`
	Similarity   float64 `json:"similarity"`
}

// respondServiceError maps matching errors to HTTP status codes.
func respondServiceError(w http.ResponseWriter, logger *slog.Logger, err error) {
	var dup *matching.DuplicateError
	switch {
	case errors.As(err, &dup):
		respondJSON(w, http.StatusConflict, DuplicateResponse{
			Error:        "template already enrolled",
			ExistingID:   dup.ExistingID,
			ExistingName: dup.ExistingName,
			Similarity:   dup.Similarity,
		})
	case errors.Is(err, matching.ErrValidation):
		respondError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, matching.ErrNotFound):
		respondError(w, http.StatusNotFound, "enrollment not found")
	case errors.Is(err, matching.ErrPersistence):
		logger.Error("storage failure", "error", err)
		respondError(w, http.StatusInternalServerError, "failed to persist enrollments")
	default:
		logger.Error("unexpected error", "error", err)
		respondError(w, http.StatusInternalServerError, "internal error")
	}
}

// decodeTemplate parses the base64 template of a request body.
func decodeTemplate(w http.ResponseWriter, s string) (biometric.Template, bool) {
	tmpl, err := biometric.ParseTemplate(s)
	if err != nil {
		respondError(w, http.StatusBadRequest, "invalid template: "+err.Error())
		return nil, false
	}
	return tmpl, true
}

// EnrollmentResponse is the public view of an enrollment. The template is only
// included on request.
type EnrollmentResponse struct {
	ID           int64     `json:"id"`
	Name         string    `json:"name"`
	Phone        string    `json:"phone"`
	RegisteredAt time.Time `json:"registered_at"`
	Template     string    `json:"template,omitempty"`
}

func toEnrollmentResponse(e *database.Enrollment, includeTemplate bool) EnrollmentResponse {
	resp := EnrollmentResponse{
		ID:           e.ID,
		Name:         e.Name,
		Phone:        e.Phone,
		RegisteredAt: e.RegisteredAt,
	}
	if includeTemplate {
		resp.Template = e.Template.String()
	}
	return resp
}

// HealthCheck handles the health check endpoint.
func HealthCheck(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, map[string]string{
		"status": "ok",
	})
}
