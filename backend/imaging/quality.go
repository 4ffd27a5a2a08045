// ABOUTME: Pre-diagnosis image quality and plant content checks
// ABOUTME: Scores sharpness, exposure and contrast; rejects non-plant photos

package imaging

import (
	"fmt"
	"image"
	"math"

	"github.com/agrisense/leafdoctor/backend/models"
)

// Quality thresholds
const (
	MinDimension        = 100
	MaxDimension        = 4000
	MinQualityScore     = 0.15
	MinBlurScore        = 0.01
	MinPlantRatio       = 0.15
	blurVarianceScale   = 500.0
	contrastStdDevScale = 50.0
	darkMeanBelow       = 50.0
)

// CheckQuality scores a photo for sharpness (Laplacian variance), exposure
// (distance of mean grey from mid-grey) and contrast (grey standard deviation).
func CheckQuality(img image.Image) models.QualityReport {
	b := img.Bounds()
	w, h := b.Dx(), b.Dy()
	report := models.QualityReport{Width: w, Height: h}

	if w < MinDimension || h < MinDimension {
		report.DimensionsRejected = true
		report.Reason = fmt.Sprintf("Image too small (minimum %dx%d pixels)", MinDimension, MinDimension)
		return report
	}
	if w > MaxDimension || h > MaxDimension {
		report.DimensionsRejected = true
		report.Reason = fmt.Sprintf("Image too large (maximum %dx%d pixels)", MaxDimension, MaxDimension)
		return report
	}

	gray := grayscale(img)
	mean, std := meanStdDev(gray)

	blur := math.Min(laplacianVariance(gray, w, h)/blurVarianceScale, 1)
	brightness := 1 - math.Abs(mean-127)/127
	contrast := math.Min(std/contrastStdDevScale, 1)
	score := blur*0.5 + brightness*0.25 + contrast*0.25

	report.BlurScore = round(blur, 3)
	report.BrightnessScore = round(brightness, 3)
	report.ContrastScore = round(contrast, 3)
	report.QualityScore = round(score, 3)
	report.IsValid = score >= MinQualityScore && blur >= MinBlurScore

	if !report.IsValid {
		switch {
		case blur < MinBlurScore:
			report.Reason = "Image is too blurry. Please capture a clearer image."
		case brightness < 0.3 && mean < darkMeanBelow:
			report.Reason = "Image is too dark. Please use better lighting."
		case brightness < 0.3:
			report.Reason = "Image is too bright. Please avoid direct sunlight."
		default:
			report.Reason = "Image quality is too low. Please capture a better image."
		}
	}
	return report
}

// CheckPlantContent measures how much of the photo is green, yellow or brown
// plant tissue. The photo is analysed on the severity canvas.
func CheckPlantContent(img image.Image) models.ContentReport {
	canvas := Resize(img, SeverityCanvas, SeverityCanvas)
	ratio := MaskRatio(canvas, GreenBand, YellowBand, BrownBand)

	report := models.ContentReport{
		IsValid:    ratio >= MinPlantRatio,
		PlantRatio: round(ratio, 3),
	}
	if !report.IsValid {
		report.Reason = "Image does not appear to contain enough plant material (leaves/stems). Please ensure the crop is clearly visible."
	}
	return report
}

// grayscale returns luma values (0-255) in row-major order
func grayscale(img image.Image) []float64 {
	b := img.Bounds()
	out := make([]float64, 0, b.Dx()*b.Dy())
	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			r, g, bl, _ := img.At(x, y).RGBA()
			luma := 0.299*float64(r>>8) + 0.587*float64(g>>8) + 0.114*float64(bl>>8)
			out = append(out, luma)
		}
	}
	return out
}

func meanStdDev(values []float64) (float64, float64) {
	if len(values) == 0 {
		return 0, 0
	}
	var sum float64
	for _, v := range values {
		sum += v
	}
	mean := sum / float64(len(values))

	var sq float64
	for _, v := range values {
		d := v - mean
		sq += d * d
	}
	return mean, math.Sqrt(sq / float64(len(values)))
}

// laplacianVariance applies the 4-neighbour Laplacian to interior pixels
func laplacianVariance(gray []float64, w, h int) float64 {
	if w < 3 || h < 3 {
		return 0
	}
	lap := make([]float64, 0, (w-2)*(h-2))
	for y := 1; y < h-1; y++ {
		for x := 1; x < w-1; x++ {
			i := y*w + x
			lap = append(lap, gray[i-w]+gray[i+w]+gray[i-1]+gray[i+1]-4*gray[i])
		}
	}
	_, std := meanStdDev(lap)
	return std * std
}
