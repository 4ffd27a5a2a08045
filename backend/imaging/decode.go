// ABOUTME: Leaf photo decoding for PNG and JPEG uploads
// ABOUTME: Maps decoder failures onto the image-unreadable error

package imaging

import (
	"bytes"
	"fmt"
	"image"
	_ "image/jpeg" // register JPEG decoder
	_ "image/png"  // register PNG decoder
	"os"

	"github.com/agrisense/leafdoctor/backend/models"
)

// Decode parses PNG or JPEG bytes and returns the image with its format name
func Decode(data []byte) (image.Image, string, error) {
	if len(data) == 0 {
		return nil, "", fmt.Errorf("empty image: %w", models.ErrImageUnreadable)
	}
	img, format, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, "", fmt.Errorf("%w: %v", models.ErrImageUnreadable, err)
	}
	b := img.Bounds()
	if b.Dx() == 0 || b.Dy() == 0 {
		return nil, "", fmt.Errorf("zero-sized image: %w", models.ErrImageUnreadable)
	}
	return img, format, nil
}

// LoadFile reads an image file from disk without decoding it
func LoadFile(path string) ([]byte, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", models.ErrImageUnreadable, err)
	}
	return data, nil
}

// MediaType returns the MIME type for a decoded format name
func MediaType(format string) string {
	switch format {
	case "png":
		return "image/png"
	case "jpeg":
		return "image/jpeg"
	default:
		return "application/octet-stream"
	}
}
