// ABOUTME: Image resizing and center cropping
// ABOUTME: Produces RGBA canvases for colour analysis and model input

package imaging

import (
	"image"

	"golang.org/x/image/draw"
)

// Resize scales img to exactly width x height with bilinear interpolation
func Resize(img image.Image, width, height int) *image.RGBA {
	dst := image.NewRGBA(image.Rect(0, 0, width, height))
	draw.BiLinear.Scale(dst, dst.Bounds(), img, img.Bounds(), draw.Src, nil)
	return dst
}

// ResizeCenterCrop scales the shorter side to size, keeping aspect ratio,
// then crops the central size x size square.
func ResizeCenterCrop(img image.Image, size int) *image.RGBA {
	b := img.Bounds()
	w, h := b.Dx(), b.Dy()

	nw, nh := size, size
	if h < w {
		nw = w * size / h
	} else {
		nh = h * size / w
	}

	scaled := image.NewRGBA(image.Rect(0, 0, nw, nh))
	draw.CatmullRom.Scale(scaled, scaled.Bounds(), img, b, draw.Src, nil)

	dst := image.NewRGBA(image.Rect(0, 0, size, size))
	offset := image.Pt((nw-size)/2, (nh-size)/2)
	draw.Draw(dst, dst.Bounds(), scaled, offset, draw.Src)
	return dst
}
