package handlers

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/kozaktomas/biomatch/internal/matching"
)

// MatchHandler handles identification requests
type MatchHandler struct {
	service *matching.Service
	logger  *slog.Logger
}

// NewMatchHandler creates a new match handler
func NewMatchHandler(service *matching.Service, logger *slog.Logger) *MatchHandler {
	return &MatchHandler{service: service, logger: logger}
}

// MatchRequest is the body of POST /match
type MatchRequest struct {
	Template  string   `json:"template"`
	Threshold *float64 `json:"threshold,omitempty"`
}

// MatchResponse reports the best match. Similarity is zero when nothing matched;
// BestSimilarity is always the highest score in the store.
type MatchResponse struct {
	Matched        bool                `json:"matched"`
	Similarity     float64             `json:"similarity"`
	BestSimilarity float64             `json:"best_similarity"`
	Threshold      float64             `json:"threshold"`
	Enrollment     *EnrollmentResponse `json:"enrollment,omitempty"`
}

// Match identifies the enrolled person closest to the submitted template.
func (h *MatchHandler) Match(w http.ResponseWriter, r *http.Request) {
	var req MatchRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, errInvalidRequestBody)
		return
	}

	tmpl, ok := decodeTemplate(w, req.Template)
	if !ok {
		return
	}

	threshold := h.service.MatchThreshold()
	if req.Threshold != nil && *req.Threshold > 0 {
		threshold = *req.Threshold
	}

	res, err := h.service.Match(r.Context(), tmpl, threshold)
	if err != nil {
		respondServiceError(w, h.logger, err)
		return
	}

	resp := MatchResponse{
		Matched:        res.Matched,
		BestSimilarity: res.BestSimilarity,
		Threshold:      threshold,
	}
	if res.Matched {
		resp.Similarity = res.Similarity
		e := toEnrollmentResponse(res.Enrollment, false)
		resp.Enrollment = &e
	}
	respondJSON(w, http.StatusOK, resp)
}
