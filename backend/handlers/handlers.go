// ABOUTME: HTTP handlers for the LeafDoctor diagnosis API
// ABOUTME: Holds the service collaborators and shared JSON response helpers

package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/agrisense/leafdoctor/backend/cache"
	"github.com/agrisense/leafdoctor/backend/catalog"
	"github.com/agrisense/leafdoctor/backend/config"
	"github.com/agrisense/leafdoctor/backend/models"
	"github.com/agrisense/leafdoctor/backend/services"
	"github.com/agrisense/leafdoctor/backend/uploads"
)

// maxJSONBody bounds JSON request bodies
const maxJSONBody = 1 << 20

// ModelStatusChecker reports whether a model is being served
type ModelStatusChecker interface {
	ModelStatus(ctx context.Context, model string) (string, error)
}

// Services are the collaborators the handlers delegate to. Uploads and
// ModelStatus may be nil.
type Services struct {
	Pipeline    *services.DiagnosisPipeline
	Registry    *services.Registry
	Advisor     *services.TreatmentAdvisor
	Costs       *services.CostEstimator
	Translator  *services.Translator
	Chat        *services.ChatAdvisor
	Catalog     catalog.Store
	Uploads     uploads.Store
	ModelStatus ModelStatusChecker
}

type Handler struct {
	cfg     *config.Config
	reports *cache.Cache[*models.DiagnosisReport]
	svc     Services
}

func NewHandler(cfg *config.Config, reports *cache.Cache[*models.DiagnosisReport], svc Services) *Handler {
	if cfg == nil {
		cfg = &config.Config{MaxUploadMB: 10, DefaultLandArea: 1}
	}
	return &Handler{cfg: cfg, reports: reports, svc: svc}
}

func (h *Handler) writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, message string, code int) {
	writeErrorResponse(w, models.ErrorResponse{Error: message, Code: code})
}

func writeErrorResponse(w http.ResponseWriter, resp models.ErrorResponse) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(resp.Code)
	json.NewEncoder(w).Encode(resp)
}

// decodeJSON reads a bounded JSON body into v, rejecting unknown fields
func decodeJSON(w http.ResponseWriter, r *http.Request, v interface{}) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxJSONBody))
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		if errors.Is(err, io.EOF) {
			return fmt.Errorf("request body is empty")
		}
		return fmt.Errorf("invalid JSON: %w", err)
	}
	return nil
}

func (h *Handler) now() time.Time {
	return time.Now().UTC()
}
