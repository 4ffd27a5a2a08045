// ABOUTME: HSV colour masks on the 8-bit OpenCV scale
// ABOUTME: Hue 0-179 (degrees halved), saturation and value 0-255

package imaging

import (
	"image"
	"image/color"
	"math"

	"github.com/lucasb-eyer/go-colorful"
)

// HSV8 is a pixel in 8-bit HSV: H in [0,179], S and V in [0,255]
type HSV8 struct {
	H, S, V int
}

// HSVRange is an inclusive box in HSV8 space
type HSVRange struct {
	Lower HSV8
	Upper HSV8
}

// Contains reports whether p lies inside the range on every channel
func (r HSVRange) Contains(p HSV8) bool {
	return p.H >= r.Lower.H && p.H <= r.Upper.H &&
		p.S >= r.Lower.S && p.S <= r.Upper.S &&
		p.V >= r.Lower.V && p.V <= r.Upper.V
}

// DiseaseBand selects yellow/brown tones. The saturation and value floors
// exclude near-grey and near-black pixels.
var DiseaseBand = HSVRange{
	Lower: HSV8{H: 10, S: 40, V: 40},
	Upper: HSV8{H: 35, S: 255, V: 255},
}

// Plant tissue bands used by the content check
var (
	GreenBand  = HSVRange{Lower: HSV8{H: 25, S: 30, V: 30}, Upper: HSV8{H: 95, S: 255, V: 255}}
	YellowBand = HSVRange{Lower: HSV8{H: 10, S: 30, V: 30}, Upper: HSV8{H: 35, S: 255, V: 255}}
	BrownBand  = HSVRange{Lower: HSV8{H: 0, S: 20, V: 20}, Upper: HSV8{H: 20, S: 200, V: 150}}
)

// ToHSV8 converts a colour to 8-bit HSV
func ToHSV8(c color.Color) HSV8 {
	r, g, b, _ := c.RGBA()
	h, s, v := colorful.Color{
		R: float64(r) / 0xffff,
		G: float64(g) / 0xffff,
		B: float64(b) / 0xffff,
	}.Hsv()

	hue := int(math.Round(h / 2))
	if hue >= 180 {
		hue = 0
	}
	return HSV8{
		H: hue,
		S: int(math.Round(s * 255)),
		V: int(math.Round(v * 255)),
	}
}

// MaskRatio returns the fraction of pixels that fall inside any of the ranges
func MaskRatio(img image.Image, ranges ...HSVRange) float64 {
	b := img.Bounds()
	total := b.Dx() * b.Dy()
	if total == 0 {
		return 0
	}

	matched := 0
	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			p := ToHSV8(img.At(x, y))
			for _, r := range ranges {
				if r.Contains(p) {
					matched++
					break
				}
			}
		}
	}
	return float64(matched) / float64(total)
}
