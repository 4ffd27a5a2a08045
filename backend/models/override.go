// ABOUTME: Per-crop confidence override policy for disease predictions
// ABOUTME: Replaces low-confidence labels for crops that opt in

package models

// ConfidenceOverride replaces a prediction below MinConfidence with Label
type ConfidenceOverride struct {
	MinConfidence float64 `json:"min_confidence"`
	Label         string  `json:"override_label"`
}

// OverrideTable maps crops to their confidence override
type OverrideTable map[Crop]ConfidenceOverride

// DefaultOverrides suppresses noisy rice false positives: the rice model has no
// healthy class, so weak predictions are reported as Healthy.
func DefaultOverrides() OverrideTable {
	return OverrideTable{
		CropRice: {MinConfidence: 60, Label: "Healthy"},
	}
}

// Apply returns the label to report and whether the override fired
func (t OverrideTable) Apply(crop Crop, label string, confidence float64) (string, bool) {
	o, ok := t[crop]
	if !ok || confidence >= o.MinConfidence {
		return label, false
	}
	return o.Label, true
}
