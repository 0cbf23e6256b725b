package handlers

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/kozaktomas/biomatch/internal/matching"
)

// EnrollmentsHandler handles enrollment management endpoints
type EnrollmentsHandler struct {
	service *matching.Service
	logger  *slog.Logger
}

// NewEnrollmentsHandler creates a new enrollments handler
func NewEnrollmentsHandler(service *matching.Service, logger *slog.Logger) *EnrollmentsHandler {
	return &EnrollmentsHandler{service: service, logger: logger}
}

// EnrollRequest is the body of POST /enrollments
type EnrollRequest struct {
	Template string `json:"template"`
	Name     string `json:"name"`
	Phone    string `json:"phone"`
}

// EnrollmentListResponse wraps the enrollment list
type EnrollmentListResponse struct {
	Enrollments []EnrollmentResponse `json:"enrollments"`
	Count       int                  `json:"count"`
}

// Create enrolls a new identity.
func (h *EnrollmentsHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req EnrollRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, errInvalidRequestBody)
		return
	}

	tmpl, ok := decodeTemplate(w, req.Template)
	if !ok {
		return
	}

	e, err := h.service.Enroll(r.Context(), tmpl, req.Name, req.Phone)
	if err != nil {
		respondServiceError(w, h.logger, err)
		return
	}

	respondJSON(w, http.StatusCreated, toEnrollmentResponse(&e, false))
}

// List returns all enrollments in scan order.
func (h *EnrollmentsHandler) List(w http.ResponseWriter, r *http.Request) {
	withTemplate := includeTemplate(r)
	all := h.service.List()

	resp := EnrollmentListResponse{
		Enrollments: make([]EnrollmentResponse, 0, len(all)),
		Count:       len(all),
	}
	for i := range all {
		resp.Enrollments = append(resp.Enrollments, toEnrollmentResponse(&all[i], withTemplate))
	}
	respondJSON(w, http.StatusOK, resp)
}

// Get returns a single enrollment.
func (h *EnrollmentsHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, ok := parseID(w, r)
	if !ok {
		return
	}

	e, err := h.service.Get(id)
	if err != nil {
		respondServiceError(w, h.logger, err)
		return
	}
	respondJSON(w, http.StatusOK, toEnrollmentResponse(&e, includeTemplate(r)))
}

// Delete removes an enrollment. Unknown ids are accepted.
func (h *EnrollmentsHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, ok := parseID(w, r)
	if !ok {
		return
	}

	if _, err := h.service.Delete(r.Context(), id); err != nil {
		respondServiceError(w, h.logger, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// Clear removes every enrollment.
func (h *EnrollmentsHandler) Clear(w http.ResponseWriter, r *http.Request) {
	if _, err := h.service.Clear(r.Context()); err != nil {
		respondServiceError(w, h.logger, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func parseID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil || id <= 0 {
		respondError(w, http.StatusBadRequest, "invalid enrollment id")
		return 0, false
	}
	return id, true
}

func includeTemplate(r *http.Request) bool {
	v, _ := strconv.ParseBool(r.URL.Query().Get("include_template"))
	return v
}
