// ABOUTME: Colour-heuristic disease severity estimation
// ABOUTME: Percentage of a 256x256 canvas inside the disease hue band

package imaging

import (
	"image"
	"log/slog"
	"math"
)

// SeverityCanvas is the side length images are resized to before masking
const SeverityCanvas = 256

// EstimateSeverity returns the percentage of disease-coloured pixels,
// rounded to two decimals. The result is deterministic for a given image.
func EstimateSeverity(img image.Image) float64 {
	canvas := Resize(img, SeverityCanvas, SeverityCanvas)
	return round(MaskRatio(canvas, DiseaseBand)*100, 2)
}

// EstimateSeverityBytes decodes and scores an upload. Severity is advisory,
// so an unreadable image scores 0 instead of failing.
func EstimateSeverityBytes(data []byte) float64 {
	img, _, err := Decode(data)
	if err != nil {
		slog.Warn("Severity estimation skipped", "error", err)
		return 0
	}
	return EstimateSeverity(img)
}

func round(v float64, places int) float64 {
	p := math.Pow(10, float64(places))
	return math.Round(v*p) / p
}
