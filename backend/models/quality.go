// ABOUTME: Image quality and plant content report types
// ABOUTME: Produced by the imaging checks before diagnosis runs

package models

// QualityReport describes whether a photo is sharp and exposed well enough to diagnose
type QualityReport struct {
	IsValid         bool    `json:"is_valid"`
	QualityScore    float64 `json:"quality_score"`
	BlurScore       float64 `json:"blur_score"`
	BrightnessScore float64 `json:"brightness_score"`
	ContrastScore   float64 `json:"contrast_score"`
	Width           int     `json:"width"`
	Height          int     `json:"height"`
	Reason          string  `json:"reason,omitempty"`
	// DimensionsRejected is set when the size check failed before scoring
	DimensionsRejected bool `json:"dimensions_rejected,omitempty"`
}

// ContentReport describes how much of a photo looks like plant tissue
type ContentReport struct {
	IsValid    bool    `json:"is_valid"`
	PlantRatio float64 `json:"plant_ratio"`
	Reason     string  `json:"reason,omitempty"`
}
