// ABOUTME: HTTP handlers for leaf photo diagnosis and image quality checks
// ABOUTME: Maps the diagnosis error taxonomy onto HTTP status codes

package handlers

import (
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/google/uuid"

	"github.com/agrisense/leafdoctor/backend/cache"
	"github.com/agrisense/leafdoctor/backend/imaging"
	"github.com/agrisense/leafdoctor/backend/middleware"
	"github.com/agrisense/leafdoctor/backend/models"
	"github.com/agrisense/leafdoctor/backend/services"
	"github.com/agrisense/leafdoctor/backend/uploads"
)

// QualityResponse is returned by the image quality endpoint
type QualityResponse struct {
	Quality models.QualityReport `json:"quality"`
	Content models.ContentReport `json:"content"`
}

// Diagnose runs the full diagnosis for a multipart leaf photo and returns a
// DiagnosisReport with treatment and cost attached.
func (h *Handler) Diagnose(w http.ResponseWriter, r *http.Request) {
	data, ok := h.readImage(w, r)
	if !ok {
		return
	}

	crop := strings.TrimSpace(r.FormValue("crop"))
	message := r.FormValue("message")
	language := strings.ToLower(strings.TrimSpace(r.FormValue("language")))
	if _, ok := services.Languages[language]; !ok {
		language = "en"
	}
	landArea := h.cfg.DefaultLandArea
	if v := strings.TrimSpace(r.FormValue("land_area")); v != "" {
		area, err := strconv.ParseFloat(v, 64)
		if err != nil || area <= 0 {
			writeError(w, "land_area must be a positive number", http.StatusBadRequest)
			return
		}
		landArea = area
	}

	digest := sha256.Sum256(data)
	keyCrop := strings.ToLower(crop)
	if keyCrop == "" {
		// A crop named in the message decides the diagnosis just like the form field
		if mentioned, ok := models.FindCropMention(message); ok {
			keyCrop = "hint:" + string(mentioned)
		}
	}
	key := cache.ReportKey(hex.EncodeToString(digest[:]), keyCrop, landArea, language)
	if h.reports != nil {
		if cached, ok := h.reports.Get(key); ok {
			report := *cached
			report.Metadata.Cached = true
			h.writeJSON(w, http.StatusOK, report)
			return
		}
	}

	img, format, err := imaging.Decode(data)
	if err != nil {
		writeErrorResponse(w, models.ErrorResponse{
			Error:   "Image unreadable",
			Details: "upload must be a PNG or JPEG image",
			Code:    http.StatusBadRequest,
		})
		return
	}
	quality := imaging.CheckQuality(img)
	if !quality.IsValid {
		writeErrorResponse(w, models.ErrorResponse{Error: "Image quality too low", Details: quality.Reason, Code: http.StatusBadRequest})
		return
	}
	content := imaging.CheckPlantContent(img)
	if !content.IsValid {
		writeErrorResponse(w, models.ErrorResponse{Error: "No plant detected", Details: content.Reason, Code: http.StatusBadRequest})
		return
	}

	mediaType := imaging.MediaType(format)
	result, err := h.svc.Pipeline.Run(r.Context(), services.DiagnosisInput{
		Image:     data,
		MediaType: mediaType,
		Crop:      crop,
		Message:   message,
	})
	if err != nil {
		writeDiagnosisError(w, r, err)
		return
	}

	report := &models.DiagnosisReport{
		ID:        uuid.NewString(),
		Diagnosis: *result,
		Quality:   &quality,
		Content:   &content,
		Language:  language,
		Metadata:  models.Metadata{Timestamp: h.now()},
	}

	plan, err := h.svc.Advisor.Recommend(r.Context(), result.Disease, result.SeverityPercent, result.Crop)
	if err != nil {
		slog.Error("Failed to build treatment plan", "disease", result.Disease, "error", err)
		writeError(w, "Failed to build treatment plan", http.StatusInternalServerError)
		return
	}
	report.Treatment = plan
	report.Cost = models.CompareCosts(plan, landArea, result.SeverityPercent)

	info, err := h.svc.Advisor.DiseaseInfo(r.Context(), result.Crop, result.Disease)
	if err != nil {
		slog.Warn("Disease info lookup failed", "crop", result.Crop, "disease", result.Disease, "error", err)
	}
	report.DiseaseInfo = info

	if h.svc.Uploads != nil {
		imageKey := uploads.NewKey(h.now(), mediaType)
		if err := h.svc.Uploads.Put(r.Context(), imageKey, data, mediaType); err != nil {
			slog.Warn("Failed to archive leaf photo", "key", imageKey, "error", err)
		} else {
			report.ImageKey = imageKey
		}
	}

	if h.svc.Translator != nil {
		h.svc.Translator.LocalizeReport(r.Context(), report, language)
	}

	if h.reports != nil {
		h.reports.Set(key, report)
	}
	h.writeJSON(w, http.StatusOK, report)
}

// ImageQuality reports photo quality and plant content without diagnosing
func (h *Handler) ImageQuality(w http.ResponseWriter, r *http.Request) {
	data, ok := h.readImage(w, r)
	if !ok {
		return
	}
	img, _, err := imaging.Decode(data)
	if err != nil {
		writeErrorResponse(w, models.ErrorResponse{
			Error:   "Image unreadable",
			Details: "upload must be a PNG or JPEG image",
			Code:    http.StatusBadRequest,
		})
		return
	}
	h.writeJSON(w, http.StatusOK, QualityResponse{
		Quality: imaging.CheckQuality(img),
		Content: imaging.CheckPlantContent(img),
	})
}

// readImage parses a bounded multipart form and returns the "image" part
func (h *Handler) readImage(w http.ResponseWriter, r *http.Request) ([]byte, bool) {
	limit := int64(h.cfg.MaxUploadMB) << 20
	r.Body = http.MaxBytesReader(w, r.Body, limit)
	if err := r.ParseMultipartForm(limit); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			writeError(w, fmt.Sprintf("Image exceeds %d MB limit", h.cfg.MaxUploadMB), http.StatusRequestEntityTooLarge)
			return nil, false
		}
		writeErrorResponse(w, models.ErrorResponse{Error: "Invalid multipart form", Details: err.Error(), Code: http.StatusBadRequest})
		return nil, false
	}
	file, _, err := r.FormFile("image")
	if err != nil {
		writeError(w, "Missing image file", http.StatusBadRequest)
		return nil, false
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		writeError(w, "Failed to read image", http.StatusBadRequest)
		return nil, false
	}
	if len(data) == 0 {
		writeError(w, "Missing image file", http.StatusBadRequest)
		return nil, false
	}
	return data, true
}

// writeDiagnosisError maps pipeline failures onto HTTP responses
func writeDiagnosisError(w http.ResponseWriter, r *http.Request, err error) {
	if uc, ok := models.IsUnsupportedCrop(err); ok {
		writeErrorResponse(w, models.ErrorResponse{
			Error:   "Unsupported crop",
			Details: fmt.Sprintf("no disease model is available for %s", uc.Crop),
			Code:    http.StatusUnprocessableEntity,
			Crop:    uc.Crop,
		})
		return
	}

	switch {
	case errors.Is(err, models.ErrImageUnreadable):
		writeErrorResponse(w, models.ErrorResponse{
			Error:   "Image unreadable",
			Details: "upload must be a PNG or JPEG image",
			Code:    http.StatusBadRequest,
		})
	case errors.Is(err, models.ErrCropIdentificationFailed):
		writeErrorResponse(w, models.ErrorResponse{
			Error:              "Could not identify crop",
			Details:            "resubmit with the crop field set",
			Code:               http.StatusUnprocessableEntity,
			NeedsCropSelection: true,
		})
	case errors.Is(err, models.ErrModelUnavailable):
		writeError(w, "Disease model unavailable", http.StatusServiceUnavailable)
	default:
		slog.Error("Diagnosis failed", "request_id", middleware.RequestID(r.Context()), "error", err)
		writeError(w, "Diagnosis failed", http.StatusInternalServerError)
	}
}
