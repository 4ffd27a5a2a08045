// ABOUTME: HTTP handlers for treatment plans, pesticide lookup and cost estimates
// ABOUTME: Thin JSON wrappers over the treatment advisor and cost estimator

package handlers

import (
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/agrisense/leafdoctor/backend/models"
)

// TreatmentRequest asks for a plan for a known diagnosis
type TreatmentRequest struct {
	Disease         string  `json:"disease"`
	SeverityPercent float64 `json:"severity_percent"`
	Crop            string  `json:"crop,omitempty"`
}

// CostRequest asks for a treatment versus prevention comparison
type CostRequest struct {
	Disease         string  `json:"disease"`
	Crop            string  `json:"crop,omitempty"`
	SeverityPercent float64 `json:"severity_percent"`
	LandArea        float64 `json:"land_area,omitempty"`
}

// CompatibilityRequest names the products a grower intends to tank-mix
type CompatibilityRequest struct {
	Names []string `json:"names"`
}

// PesticidesResponse lists catalog products for a disease
type PesticidesResponse struct {
	Disease    string             `json:"disease"`
	Pesticides []models.Pesticide `json:"pesticides"`
}

func (h *Handler) Treatment(w http.ResponseWriter, r *http.Request) {
	var req TreatmentRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeErrorResponse(w, models.ErrorResponse{Error: "Invalid request body", Details: err.Error(), Code: http.StatusBadRequest})
		return
	}
	if strings.TrimSpace(req.Disease) == "" {
		writeError(w, "disease is required", http.StatusBadRequest)
		return
	}
	if !validSeverity(req.SeverityPercent) {
		writeError(w, "severity_percent must be between 0 and 100", http.StatusBadRequest)
		return
	}
	crop, ok := optionalCrop(w, req.Crop)
	if !ok {
		return
	}

	plan, err := h.svc.Advisor.Recommend(r.Context(), req.Disease, req.SeverityPercent, crop)
	if err != nil {
		slog.Error("Failed to build treatment plan", "disease", req.Disease, "error", err)
		writeError(w, "Failed to build treatment plan", http.StatusInternalServerError)
		return
	}
	h.writeJSON(w, http.StatusOK, plan)
}

// Pesticides lists products for ?disease=, optionally filtered with
// ?organic=true and ?approved=true.
func (h *Handler) Pesticides(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	disease := strings.TrimSpace(q.Get("disease"))
	if disease == "" {
		writeError(w, "disease query parameter is required", http.StatusBadRequest)
		return
	}
	organic, err := queryBool(q.Get("organic"))
	if err != nil {
		writeError(w, "organic must be true or false", http.StatusBadRequest)
		return
	}
	approved, err := queryBool(q.Get("approved"))
	if err != nil {
		writeError(w, "approved must be true or false", http.StatusBadRequest)
		return
	}

	items, err := h.svc.Advisor.Pesticides(r.Context(), disease, organic, approved)
	if err != nil {
		slog.Error("Pesticide search failed", "disease", disease, "error", err)
		writeError(w, "Pesticide search failed", http.StatusInternalServerError)
		return
	}
	if items == nil {
		items = []models.Pesticide{}
	}
	h.writeJSON(w, http.StatusOK, PesticidesResponse{Disease: disease, Pesticides: items})
}

func (h *Handler) Compatibility(w http.ResponseWriter, r *http.Request) {
	var req CompatibilityRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeErrorResponse(w, models.ErrorResponse{Error: "Invalid request body", Details: err.Error(), Code: http.StatusBadRequest})
		return
	}
	if len(req.Names) < 2 {
		writeError(w, "names must list at least two products", http.StatusBadRequest)
		return
	}

	report, err := h.svc.Advisor.CheckCompatibility(r.Context(), req.Names)
	if err != nil {
		slog.Error("Compatibility check failed", "error", err)
		writeError(w, "Compatibility check failed", http.StatusInternalServerError)
		return
	}
	h.writeJSON(w, http.StatusOK, report)
}

// DiseaseInfo describes ?disease= for ?crop=. Unknown diseases are 404.
func (h *Handler) DiseaseInfo(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	disease := strings.TrimSpace(q.Get("disease"))
	if disease == "" {
		writeError(w, "disease query parameter is required", http.StatusBadRequest)
		return
	}
	crop, ok := optionalCrop(w, q.Get("crop"))
	if !ok {
		return
	}

	info, err := h.svc.Advisor.DiseaseInfo(r.Context(), crop, disease)
	if err != nil {
		slog.Error("Disease info lookup failed", "disease", disease, "error", err)
		writeError(w, "Disease info lookup failed", http.StatusInternalServerError)
		return
	}
	if info == nil {
		writeError(w, "Disease not found", http.StatusNotFound)
		return
	}
	h.writeJSON(w, http.StatusOK, info)
}

func (h *Handler) Cost(w http.ResponseWriter, r *http.Request) {
	var req CostRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeErrorResponse(w, models.ErrorResponse{Error: "Invalid request body", Details: err.Error(), Code: http.StatusBadRequest})
		return
	}
	if strings.TrimSpace(req.Disease) == "" {
		writeError(w, "disease is required", http.StatusBadRequest)
		return
	}
	if !validSeverity(req.SeverityPercent) {
		writeError(w, "severity_percent must be between 0 and 100", http.StatusBadRequest)
		return
	}
	if req.LandArea < 0 {
		writeError(w, "land_area must be positive", http.StatusBadRequest)
		return
	}
	if req.LandArea == 0 {
		req.LandArea = h.cfg.DefaultLandArea
	}
	crop, ok := optionalCrop(w, req.Crop)
	if !ok {
		return
	}

	cmp, err := h.svc.Costs.Compare(r.Context(), req.Disease, crop, req.SeverityPercent, req.LandArea)
	if err != nil {
		slog.Error("Cost estimate failed", "disease", req.Disease, "error", err)
		writeError(w, "Cost estimate failed", http.StatusInternalServerError)
		return
	}
	h.writeJSON(w, http.StatusOK, cmp)
}

func (h *Handler) PerAcre(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	disease := strings.TrimSpace(q.Get("disease"))
	if disease == "" {
		writeError(w, "disease query parameter is required", http.StatusBadRequest)
		return
	}
	crop, ok := optionalCrop(w, q.Get("crop"))
	if !ok {
		return
	}

	rows, err := h.svc.Costs.PerAcre(r.Context(), disease, crop)
	if err != nil {
		slog.Error("Per-acre estimate failed", "disease", disease, "error", err)
		writeError(w, "Per-acre estimate failed", http.StatusInternalServerError)
		return
	}
	h.writeJSON(w, http.StatusOK, map[string]interface{}{"disease": disease, "per_acre": rows})
}

// optionalCrop parses a crop name that may be blank. It writes a 400 and
// returns false for names outside the vocabulary.
func optionalCrop(w http.ResponseWriter, name string) (models.Crop, bool) {
	if strings.TrimSpace(name) == "" {
		return "", true
	}
	crop, ok := models.ParseCrop(name)
	if !ok {
		writeErrorResponse(w, models.ErrorResponse{Error: "Unknown crop", Code: http.StatusBadRequest, Crop: name})
		return "", false
	}
	return crop, true
}

func validSeverity(v float64) bool {
	return v >= 0 && v <= 100
}

func queryBool(v string) (bool, error) {
	if v == "" {
		return false, nil
	}
	return strconv.ParseBool(v)
}
