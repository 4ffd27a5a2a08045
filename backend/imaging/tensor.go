// ABOUTME: Conversion of images into model input tensors
// ABOUTME: Handles channel order and pixel scaling for classifier inputs

package imaging

import "image"

// ChannelOrder is the channel layout a model was trained on
type ChannelOrder string

const (
	ChannelsRGB ChannelOrder = "rgb"
	ChannelsBGR ChannelOrder = "bgr"
)

// Tensor is a single image as [height][width][channel]
type Tensor [][][]float32

// ToTensor converts an RGBA canvas to a tensor. When unitScale is true pixel
// values are divided by 255, otherwise raw 0-255 values are kept for models
// that rescale internally.
func ToTensor(img *image.RGBA, order ChannelOrder, unitScale bool) Tensor {
	b := img.Bounds()
	conv := func(v uint8) float32 {
		if unitScale {
			return float32(v) / 255
		}
		return float32(v)
	}

	t := make(Tensor, b.Dy())
	for y := 0; y < b.Dy(); y++ {
		row := make([][]float32, b.Dx())
		for x := 0; x < b.Dx(); x++ {
			c := img.RGBAAt(b.Min.X+x, b.Min.Y+y)
			r, g, bl := conv(c.R), conv(c.G), conv(c.B)
			if order == ChannelsBGR {
				row[x] = []float32{bl, g, r}
			} else {
				row[x] = []float32{r, g, bl}
			}
		}
		t[y] = row
	}
	return t
}
