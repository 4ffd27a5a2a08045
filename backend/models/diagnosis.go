// ABOUTME: Diagnosis result and pipeline state types
// ABOUTME: Records how the crop was identified and which states the pipeline visited

package models

import (
	"fmt"
	"strings"
)

// PipelineState is a step of the diagnosis state machine
type PipelineState string

const (
	StateCropPending       PipelineState = "crop_pending"
	StateCropIdentified    PipelineState = "crop_identified"
	StateDiseaseClassified PipelineState = "disease_classified"
	StateSeverityScored    PipelineState = "severity_scored"
	StateStageAssigned     PipelineState = "stage_assigned"
	StateComplete          PipelineState = "complete"
	StateFailed            PipelineState = "failed"
)

// IdentificationSource records which cascade tier named the crop
type IdentificationSource string

const (
	SourceSupplied   IdentificationSource = "supplied"
	SourceTextHint   IdentificationSource = "text_hint"
	SourceVision     IdentificationSource = "vision"
	SourceBruteForce IdentificationSource = "brute_force"
)

// DiagnosisResult is the outcome of one diagnosis.
// Confidence comes from the classifier, severity from pixel colour; they may disagree.
type DiagnosisResult struct {
	Crop            Crop                 `json:"crop"`
	Disease         string               `json:"disease"`
	Confidence      float64              `json:"confidence"`
	SeverityPercent float64              `json:"severity_percent"`
	Stage           Stage                `json:"stage"`
	IdentifiedBy    IdentificationSource `json:"identified_by"`
	OverrideApplied bool                 `json:"override_applied,omitempty"`
	ModelLabel      string               `json:"model_label,omitempty"`
	Trace           []PipelineState      `json:"trace"`
}

// IsHealthy reports whether the classifier label denotes a healthy leaf
func (d DiagnosisResult) IsHealthy() bool {
	return strings.EqualFold(strings.TrimSpace(d.Disease), "healthy")
}

// PipelineError is a terminal diagnosis failure at a given state
type PipelineError struct {
	State PipelineState
	Err   error
}

func (e *PipelineError) Error() string {
	return fmt.Sprintf("diagnosis failed at %s: %v", e.State, e.Err)
}

func (e *PipelineError) Unwrap() error {
	return e.Err
}
