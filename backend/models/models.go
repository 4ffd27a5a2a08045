// ABOUTME: Data models for diagnosis reports and API responses
// ABOUTME: JSON-serializable structures returned by the HTTP API and CLI

package models

import "time"

// DiseaseInfo is the reference description of a crop disease from the catalog
type DiseaseInfo struct {
	Crop            Crop   `json:"crop"`
	DiseaseName     string `json:"disease_name"`
	Description     string `json:"description"`
	Symptoms        string `json:"symptoms"`
	PreventionSteps string `json:"prevention_steps"`
	IsHealthy       bool   `json:"is_healthy"`
}

// DiagnosisReport is the unified API response for a leaf photo
type DiagnosisReport struct {
	ID          string          `json:"id"`
	Diagnosis   DiagnosisResult `json:"diagnosis"`
	DiseaseInfo *DiseaseInfo    `json:"disease_info,omitempty"`
	Treatment   TreatmentPlan   `json:"treatment"`
	Cost        CostComparison  `json:"cost"`
	Quality     *QualityReport  `json:"quality,omitempty"`
	Content     *ContentReport  `json:"content,omitempty"`
	ImageKey    string          `json:"image_key,omitempty"`
	Language    string          `json:"language"`
	Localized   *Localized      `json:"localized,omitempty"`
	Metadata    Metadata        `json:"metadata"`
}

// Localized carries translations of the report's display text
type Localized struct {
	Crop            string `json:"crop,omitempty"`
	Disease         string `json:"disease,omitempty"`
	Stage           string `json:"stage,omitempty"`
	Description     string `json:"description,omitempty"`
	Symptoms        string `json:"symptoms,omitempty"`
	PreventionSteps string `json:"prevention_steps,omitempty"`
	TreatmentNote   string `json:"treatment_approach,omitempty"`
}

// Metadata contains response metadata
type Metadata struct {
	Timestamp time.Time `json:"timestamp"`
	Cached    bool      `json:"cached"`
}

// ErrorResponse represents an error response
type ErrorResponse struct {
	Error   string `json:"error"`
	Details string `json:"details,omitempty"`
	Code    int    `json:"code"`
	// Crop is set when the request named a crop the service has no model for
	Crop string `json:"crop,omitempty"`
	// NeedsCropSelection asks the caller to resubmit with an explicit crop
	NeedsCropSelection bool `json:"needs_crop_selection,omitempty"`
}
