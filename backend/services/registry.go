// ABOUTME: Crop to disease-model registry loaded from a JSON manifest
// ABOUTME: Validated at startup so every served crop has a model and ordered labels

package services

import (
	_ "embed"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"

	"github.com/agrisense/leafdoctor/backend/imaging"
	"github.com/agrisense/leafdoctor/backend/models"
)

// ScaleMode says how pixel values are scaled before inference
type ScaleMode string

const (
	// ScaleAuto probes the model metadata for a rescaling layer
	ScaleAuto ScaleMode = "auto"
	// ScaleUnit divides pixels by 255
	ScaleUnit ScaleMode = "unit"
	// ScaleRaw sends 0-255 values for models that rescale internally
	ScaleRaw ScaleMode = "raw"
)

// DefaultInputSize is the square input edge used when a manifest omits it
const DefaultInputSize = 224

// ModelSpec describes one crop's disease model
type ModelSpec struct {
	Crop      models.Crop          `json:"crop"`
	Model     string               `json:"model"`
	Labels    []string             `json:"labels"`
	InputSize int                  `json:"input_size"`
	Scale     ScaleMode            `json:"scale"`
	Channels  imaging.ChannelOrder `json:"channels"`
}

type manifest struct {
	Models []ModelSpec `json:"models"`
}

//go:embed manifest/models.json
var defaultManifest []byte

// Registry maps crops to their disease models
type Registry struct {
	specs map[models.Crop]ModelSpec
}

// LoadRegistry reads the manifest at path, or the bundled manifest when path is empty
func LoadRegistry(path string) (*Registry, error) {
	data := defaultManifest
	if path != "" {
		b, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read model manifest: %w", err)
		}
		data = b
	}
	var m manifest
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("failed to parse model manifest: %w", err)
	}
	return NewRegistry(m.Models)
}

// NewRegistry validates specs against the crop vocabulary. Unknown crops,
// duplicate entries, unsafe model names and empty label lists are errors;
// vocabulary crops without an entry are reported as unsupported.
func NewRegistry(specs []ModelSpec) (*Registry, error) {
	r := &Registry{specs: make(map[models.Crop]ModelSpec, len(specs))}
	for _, s := range specs {
		crop, ok := models.ParseCrop(string(s.Crop))
		if !ok {
			return nil, fmt.Errorf("model manifest names unknown crop %q", s.Crop)
		}
		if _, dup := r.specs[crop]; dup {
			return nil, fmt.Errorf("model manifest lists crop %s twice", crop)
		}
		if err := ValidateModelName(s.Model); err != nil {
			return nil, fmt.Errorf("crop %s: %w", crop, err)
		}
		if len(s.Labels) == 0 {
			return nil, fmt.Errorf("crop %s: model %s has no labels", crop, s.Model)
		}
		s.Crop = crop
		if s.InputSize <= 0 {
			s.InputSize = DefaultInputSize
		}
		switch s.Scale {
		case "":
			s.Scale = ScaleAuto
		case ScaleAuto, ScaleUnit, ScaleRaw:
		default:
			return nil, fmt.Errorf("crop %s: unknown scale mode %q", crop, s.Scale)
		}
		switch s.Channels {
		case "":
			s.Channels = imaging.ChannelsRGB
		case imaging.ChannelsRGB, imaging.ChannelsBGR:
		default:
			return nil, fmt.Errorf("crop %s: unknown channel order %q", crop, s.Channels)
		}
		r.specs[crop] = s
	}

	for _, c := range models.AllCrops() {
		if _, ok := r.specs[c]; !ok {
			slog.Info("Crop has no disease model", "crop", c)
		}
	}
	return r, nil
}

// Lookup returns the model for crop
func (r *Registry) Lookup(crop models.Crop) (ModelSpec, bool) {
	s, ok := r.specs[crop]
	return s, ok
}

// Supported returns crops with a model, in vocabulary order
func (r *Registry) Supported() []models.Crop {
	var out []models.Crop
	for _, c := range models.AllCrops() {
		if _, ok := r.specs[c]; ok {
			out = append(out, c)
		}
	}
	return out
}
