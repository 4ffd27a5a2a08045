// ABOUTME: Per-crop disease classification against the model server
// ABOUTME: Preprocesses leaf images, picks the top class and applies confidence overrides

package services

import (
	"context"
	"fmt"
	"image"
	"log/slog"
	"math"
	"sync"
	"time"

	"github.com/agrisense/leafdoctor/backend/imaging"
	"github.com/agrisense/leafdoctor/backend/models"
	"golang.org/x/sync/singleflight"
)

// Prediction is one classifier verdict
type Prediction struct {
	Crop models.Crop
	// Label is the reported disease, after any confidence override
	Label string
	// ModelLabel is the raw top class
	ModelLabel      string
	Confidence      float64
	OverrideApplied bool
}

// DiseaseClassifier runs the registered model for a crop
type DiseaseClassifier struct {
	registry  *Registry
	predictor Predictor
	overrides models.OverrideTable
	metrics   *Metrics

	mu        sync.RWMutex
	rescaling map[string]bool
	probes    singleflight.Group
}

// NewDiseaseClassifier creates a classifier. overrides may be nil.
func NewDiseaseClassifier(registry *Registry, predictor Predictor, overrides models.OverrideTable, metrics *Metrics) *DiseaseClassifier {
	return &DiseaseClassifier{
		registry:  registry,
		predictor: predictor,
		overrides: overrides,
		metrics:   metrics,
		rescaling: make(map[string]bool),
	}
}

// Registry exposes the model registry
func (c *DiseaseClassifier) Registry() *Registry {
	return c.registry
}

// Classify predicts the disease for crop and applies the crop's confidence override
func (c *DiseaseClassifier) Classify(ctx context.Context, img image.Image, crop models.Crop) (Prediction, error) {
	p, err := c.ClassifyRaw(ctx, img, crop)
	if err != nil {
		return Prediction{}, err
	}
	p.Label, p.OverrideApplied = c.overrides.Apply(crop, p.ModelLabel, p.Confidence)
	if p.OverrideApplied {
		slog.Debug("Confidence override applied", "crop", crop, "model_label", p.ModelLabel, "confidence", p.Confidence, "label", p.Label)
	}
	return p, nil
}

// ClassifyRaw predicts without overrides, for comparing crops by raw confidence
func (c *DiseaseClassifier) ClassifyRaw(ctx context.Context, img image.Image, crop models.Crop) (p Prediction, err error) {
	spec, ok := c.registry.Lookup(crop)
	if !ok {
		return Prediction{}, &models.UnsupportedCropError{Crop: string(crop)}
	}
	if img == nil {
		return Prediction{}, fmt.Errorf("%w: no image", models.ErrImageUnreadable)
	}

	start := time.Now()
	defer func() { c.metrics.observeClassification(crop, start, err) }()

	unitScale, err := c.unitScale(ctx, spec)
	if err != nil {
		return Prediction{}, err
	}
	tensor := imaging.ToTensor(imaging.ResizeCenterCrop(img, spec.InputSize), spec.Channels, unitScale)

	scores, err := c.predictor.Predict(ctx, spec.Model, tensor)
	if err != nil {
		return Prediction{}, fmt.Errorf("classify %s: %w", crop, err)
	}
	if len(scores) != len(spec.Labels) {
		return Prediction{}, fmt.Errorf("%w: model %s returned %d scores for %d labels",
			models.ErrModelUnavailable, spec.Model, len(scores), len(spec.Labels))
	}

	best := 0
	for i, s := range scores {
		if s > scores[best] {
			best = i
		}
	}
	label := spec.Labels[best]
	return Prediction{
		Crop:       crop,
		Label:      label,
		ModelLabel: label,
		Confidence: math.Round(scores[best]*100*100) / 100,
	}, nil
}

// unitScale resolves whether pixels are divided by 255 for spec
func (c *DiseaseClassifier) unitScale(ctx context.Context, spec ModelSpec) (bool, error) {
	switch spec.Scale {
	case ScaleUnit:
		return true, nil
	case ScaleRaw:
		return false, nil
	}

	c.mu.RLock()
	has, ok := c.rescaling[spec.Model]
	c.mu.RUnlock()
	if ok {
		return !has, nil
	}

	v, err, _ := c.probes.Do(spec.Model, func() (interface{}, error) {
		return c.predictor.HasRescaling(ctx, spec.Model)
	})
	if err != nil {
		slog.Warn("Model metadata probe failed, scaling input to unit range", "model", spec.Model, "error", err)
		return true, nil
	}
	has = v.(bool)

	c.mu.Lock()
	c.rescaling[spec.Model] = has
	c.mu.Unlock()
	slog.Info("Model scale resolved", "model", spec.Model, "has_rescaling", has)
	return !has, nil
}
