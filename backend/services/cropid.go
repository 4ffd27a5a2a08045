// ABOUTME: Tiered crop identification: text hint, vision model, brute-force voting
// ABOUTME: Cheaper tiers short-circuit; collaborator failures fall through to the next tier

package services

import (
	"context"
	"errors"
	"image"
	"log/slog"
	"sync"
	"time"

	"github.com/agrisense/leafdoctor/backend/imaging"
	"github.com/agrisense/leafdoctor/backend/models"
	"golang.org/x/sync/errgroup"
)

// Cascade defaults
const (
	DefaultVisionTimeout       = 15 * time.Second
	DefaultBruteForceThreshold = 45.0
	DefaultBruteForceWorkers   = 4
)

// IdentifyRequest is the input to crop identification
type IdentifyRequest struct {
	Image     []byte
	MediaType string
	// Decoded is reused by the brute-force tier when set
	Decoded image.Image
	Message string
}

// Identification is a resolved crop and the tier that resolved it
type Identification struct {
	Crop       models.Crop
	Source     models.IdentificationSource
	Confidence float64
}

// CropIdentifierConfig tunes the cascade
type CropIdentifierConfig struct {
	VisionTimeout       time.Duration
	BruteForceThreshold float64
	BruteForceWorkers   int
}

// CropIdentifier resolves which crop a leaf photo shows
type CropIdentifier struct {
	vision     CropVision
	classifier *DiseaseClassifier
	cfg        CropIdentifierConfig
	metrics    *Metrics
}

// NewCropIdentifier creates the cascade. vision may be nil to skip that tier.
func NewCropIdentifier(vision CropVision, classifier *DiseaseClassifier, cfg CropIdentifierConfig, metrics *Metrics) *CropIdentifier {
	if cfg.VisionTimeout <= 0 {
		cfg.VisionTimeout = DefaultVisionTimeout
	}
	if cfg.BruteForceThreshold <= 0 {
		cfg.BruteForceThreshold = DefaultBruteForceThreshold
	}
	if cfg.BruteForceWorkers <= 0 {
		cfg.BruteForceWorkers = DefaultBruteForceWorkers
	}
	return &CropIdentifier{vision: vision, classifier: classifier, cfg: cfg, metrics: metrics}
}

// Identify runs the tiers in order and returns the first hit, or
// ErrCropIdentificationFailed when every tier misses.
func (ci *CropIdentifier) Identify(ctx context.Context, req IdentifyRequest) (Identification, error) {
	if crop, ok := models.FindCropMention(req.Message); ok {
		slog.Debug("Crop named in message", "crop", crop)
		return ci.hit(Identification{Crop: crop, Source: models.SourceTextHint}), nil
	}

	if crop, ok := ci.identifyByVision(ctx, req); ok {
		return ci.hit(Identification{Crop: crop, Source: models.SourceVision}), nil
	}

	id, ok, err := ci.identifyByVoting(ctx, req)
	if err != nil {
		return Identification{}, err
	}
	if ok {
		return ci.hit(id), nil
	}

	ci.metrics.observeIdentification("")
	return Identification{}, models.ErrCropIdentificationFailed
}

func (ci *CropIdentifier) hit(id Identification) Identification {
	ci.metrics.observeIdentification(id.Source)
	slog.Info("Crop identified", "crop", id.Crop, "source", id.Source)
	return id
}

func (ci *CropIdentifier) identifyByVision(ctx context.Context, req IdentifyRequest) (models.Crop, bool) {
	if ci.vision == nil || len(req.Image) == 0 {
		return "", false
	}
	vctx, cancel := context.WithTimeout(ctx, ci.cfg.VisionTimeout)
	defer cancel()

	crop, ok, err := ci.vision.IdentifyCrop(vctx, req.Image, req.MediaType)
	if err != nil {
		if errors.Is(err, models.ErrExternalServiceTimeout) || errors.Is(vctx.Err(), context.DeadlineExceeded) {
			slog.Warn("Vision tier timed out", "timeout", ci.cfg.VisionTimeout)
		} else {
			slog.Warn("Vision tier failed", "error", err)
		}
		ci.metrics.observeFallback("vision")
		return "", false
	}
	if !ok {
		slog.Debug("Vision tier could not name the crop")
		return "", false
	}
	// Only a crop with a registered model ends the cascade
	if ci.classifier != nil {
		if _, registered := ci.classifier.Registry().Lookup(crop); !registered {
			slog.Info("Vision tier named a crop without a model, falling through", "crop", crop)
			ci.metrics.observeFallback("vision")
			return "", false
		}
	}
	return crop, true
}

// identifyByVoting classifies the image with every registered model and keeps
// the most confident crop. Raw confidences are compared without overrides.
func (ci *CropIdentifier) identifyByVoting(ctx context.Context, req IdentifyRequest) (Identification, bool, error) {
	if ci.classifier == nil {
		return Identification{}, false, nil
	}
	img := req.Decoded
	if img == nil {
		decoded, _, err := imaging.Decode(req.Image)
		if err != nil {
			return Identification{}, false, err
		}
		img = decoded
	}

	crops := ci.classifier.Registry().Supported()
	votes := make([]*Prediction, len(crops))
	var mu sync.Mutex

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(ci.cfg.BruteForceWorkers)
	for i, crop := range crops {
		g.Go(func() error {
			p, err := ci.classifier.ClassifyRaw(gctx, img, crop)
			if err != nil {
				slog.Warn("Brute-force classifier failed", "crop", crop, "error", err)
				return nil
			}
			mu.Lock()
			votes[i] = &p
			mu.Unlock()
			return nil
		})
	}
	_ = g.Wait()

	var best *Prediction
	for _, p := range votes {
		if p == nil {
			continue
		}
		if best == nil || p.Confidence > best.Confidence {
			best = p
		}
	}
	if best == nil {
		return Identification{}, false, nil
	}
	if best.Confidence < ci.cfg.BruteForceThreshold {
		slog.Info("Brute-force vote below threshold", "crop", best.Crop, "confidence", best.Confidence, "threshold", ci.cfg.BruteForceThreshold)
		return Identification{}, false, nil
	}
	return Identification{Crop: best.Crop, Source: models.SourceBruteForce, Confidence: best.Confidence}, true, nil
}
