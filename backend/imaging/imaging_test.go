// ABOUTME: Shared fixtures for imaging tests
// ABOUTME: Builds solid, split and patterned images in memory

package imaging

import (
	"bytes"
	"image"
	"image/color"
	"image/png"
	"testing"
)

var (
	diseaseYellow = color.RGBA{R: 200, G: 150, B: 50, A: 255}
	leafGreen     = color.RGBA{R: 40, G: 160, B: 40, A: 255}
	skyBlue       = color.RGBA{R: 40, G: 40, B: 200, A: 255}
)

func solidImage(w, h int, c color.Color) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.Set(x, y, c)
		}
	}
	return img
}

// splitImage paints the left half with left and the right half with right
func splitImage(w, h int, left, right color.Color) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			if x < w/2 {
				img.Set(x, y, left)
			} else {
				img.Set(x, y, right)
			}
		}
	}
	return img
}

func checkerboard(w, h int, a, b color.Color) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			if (x+y)%2 == 0 {
				img.Set(x, y, a)
			} else {
				img.Set(x, y, b)
			}
		}
	}
	return img
}

func encodePNG(t *testing.T, img image.Image) []byte {
	t.Helper()
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatalf("Failed to encode PNG: %v", err)
	}
	return buf.Bytes()
}
