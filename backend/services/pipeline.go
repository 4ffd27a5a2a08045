// ABOUTME: Diagnosis state machine from leaf photo to staged result
// ABOUTME: Identifies the crop, classifies the disease, scores severity and assigns a stage

package services

import (
	"context"
	"log/slog"

	"github.com/agrisense/leafdoctor/backend/imaging"
	"github.com/agrisense/leafdoctor/backend/models"
)

// DiagnosisInput is one leaf photo to diagnose
type DiagnosisInput struct {
	Image     []byte
	MediaType string
	// Crop is optional; when empty the crop is identified
	Crop    string
	Message string
}

// DiagnosisPipeline runs identification, classification, severity and staging in order
type DiagnosisPipeline struct {
	identifier *CropIdentifier
	classifier *DiseaseClassifier
	metrics    *Metrics
}

// NewDiagnosisPipeline wires the pipeline stages
func NewDiagnosisPipeline(identifier *CropIdentifier, classifier *DiseaseClassifier, metrics *Metrics) *DiagnosisPipeline {
	return &DiagnosisPipeline{identifier: identifier, classifier: classifier, metrics: metrics}
}

// Run diagnoses one photo. Failures return a *models.PipelineError naming
// the state that failed; it unwraps to the underlying taxonomy error.
func (p *DiagnosisPipeline) Run(ctx context.Context, in DiagnosisInput) (*models.DiagnosisResult, error) {
	result := &models.DiagnosisResult{}

	img, _, err := imaging.Decode(in.Image)
	if err != nil {
		state := models.StateCropIdentified
		if in.Crop == "" {
			state = models.StateCropPending
		}
		return nil, p.fail(result, state, err)
	}

	if in.Crop != "" {
		crop, ok := models.ParseCrop(in.Crop)
		if !ok {
			return nil, p.fail(result, models.StateCropIdentified, &models.UnsupportedCropError{Crop: in.Crop})
		}
		result.Crop = crop
		result.IdentifiedBy = models.SourceSupplied
	} else {
		result.Trace = append(result.Trace, models.StateCropPending)
		id, err := p.identifier.Identify(ctx, IdentifyRequest{
			Image:     in.Image,
			MediaType: in.MediaType,
			Decoded:   img,
			Message:   in.Message,
		})
		if err != nil {
			return nil, p.fail(result, models.StateCropPending, err)
		}
		result.Crop = id.Crop
		result.IdentifiedBy = id.Source
	}
	result.Trace = append(result.Trace, models.StateCropIdentified)

	pred, err := p.classifier.Classify(ctx, img, result.Crop)
	if err != nil {
		return nil, p.fail(result, models.StateCropIdentified, err)
	}
	result.Disease = pred.Label
	result.ModelLabel = pred.ModelLabel
	result.Confidence = pred.Confidence
	result.OverrideApplied = pred.OverrideApplied
	result.Trace = append(result.Trace, models.StateDiseaseClassified)

	result.SeverityPercent = imaging.EstimateSeverity(img)
	result.Trace = append(result.Trace, models.StateSeverityScored)

	result.Stage = models.ClassifyStage(result.SeverityPercent)
	result.Trace = append(result.Trace, models.StateStageAssigned, models.StateComplete)

	p.metrics.observeDiagnosis(models.StateComplete)
	slog.Info("Diagnosis completed",
		"crop", result.Crop,
		"identified_by", result.IdentifiedBy,
		"disease", result.Disease,
		"confidence", result.Confidence,
		"severity", result.SeverityPercent,
		"stage", result.Stage)
	return result, nil
}

func (p *DiagnosisPipeline) fail(result *models.DiagnosisResult, state models.PipelineState, err error) error {
	result.Trace = append(result.Trace, models.StateFailed)
	p.metrics.observeDiagnosis(models.StateFailed)
	slog.Warn("Diagnosis failed", "state", state, "error", err)
	return &models.PipelineError{State: state, Err: err}
}
