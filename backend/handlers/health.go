// ABOUTME: HTTP handlers for health and crop vocabulary endpoints
// ABOUTME: Reports collaborator status and which crops have disease models

package handlers

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/agrisense/leafdoctor/backend/models"
)

// modelStatusTimeout bounds each model server probe in the health check
const modelStatusTimeout = 3 * time.Second

// HealthResponse is the service status
type HealthResponse struct {
	Status      string            `json:"status"`
	ModelServer map[string]string `json:"model_server"`
	Catalog     CatalogStatus     `json:"catalog"`
	Uploads     string            `json:"uploads"`
	LLM         string            `json:"llm"`
	Metadata    models.Metadata   `json:"metadata"`
}

// CatalogStatus describes the pesticide catalog backend
type CatalogStatus struct {
	Driver     string `json:"driver"`
	Pesticides int    `json:"pesticides"`
	Error      string `json:"error,omitempty"`
}

// Health returns service status. A model that is not AVAILABLE or a failing
// catalog makes the service "degraded"; the endpoint itself still returns 200.
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	resp := HealthResponse{
		Status:      "ok",
		ModelServer: map[string]string{},
		Uploads:     "not_configured",
		LLM:         "not_configured",
		Metadata:    models.Metadata{Timestamp: h.now()},
	}

	if h.svc.Registry != nil {
		for _, crop := range h.svc.Registry.Supported() {
			spec, _ := h.svc.Registry.Lookup(crop)
			state := "unknown"
			if h.svc.ModelStatus != nil {
				ctx, cancel := context.WithTimeout(r.Context(), modelStatusTimeout)
				s, err := h.svc.ModelStatus.ModelStatus(ctx, spec.Model)
				cancel()
				if err != nil {
					slog.Warn("Model status check failed", "model", spec.Model, "error", err)
					s = "unreachable"
				}
				state = s
			}
			if state != "AVAILABLE" {
				resp.Status = "degraded"
			}
			resp.ModelServer[spec.Model] = state
		}
	}

	if h.svc.Catalog != nil {
		resp.Catalog.Driver = string(h.svc.Catalog.Driver())
		n, err := h.svc.Catalog.Count(r.Context())
		if err != nil {
			slog.Warn("Catalog health check failed", "error", err)
			resp.Catalog.Error = "catalog unavailable"
			resp.Status = "degraded"
		}
		resp.Catalog.Pesticides = n
	}

	if h.svc.Uploads != nil {
		resp.Uploads = string(h.svc.Uploads.Driver())
	}
	if h.cfg.AnthropicConfigured() {
		resp.LLM = "configured"
	}

	h.writeJSON(w, http.StatusOK, resp)
}

// CropInfo describes one vocabulary crop
type CropInfo struct {
	Crop      models.Crop `json:"crop"`
	Name      string      `json:"name"`
	Supported bool        `json:"supported"`
	Model     string      `json:"model,omitempty"`
	Labels    []string    `json:"labels,omitempty"`
}

// Crops lists the full crop vocabulary and which crops can be diagnosed
func (h *Handler) Crops(w http.ResponseWriter, r *http.Request) {
	crops := make([]CropInfo, 0, len(models.AllCrops()))
	for _, c := range models.AllCrops() {
		info := CropInfo{Crop: c, Name: c.Title()}
		if h.svc.Registry != nil {
			if spec, ok := h.svc.Registry.Lookup(c); ok {
				info.Supported = true
				info.Model = spec.Model
				info.Labels = spec.Labels
			}
		}
		crops = append(crops, info)
	}
	h.writeJSON(w, http.StatusOK, map[string]interface{}{"crops": crops})
}
