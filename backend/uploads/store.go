// ABOUTME: Archive for submitted leaf photos
// ABOUTME: Defines the store contract and key layout shared by the fs and s3 drivers

package uploads

import (
	"context"
	"errors"
	"fmt"
	"path"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Driver names an upload backend
type Driver string

const (
	DriverNone       Driver = "none"
	DriverFilesystem Driver = "fs"
	DriverS3         Driver = "s3"
)

// ErrNotFound is returned by Get for unknown keys
var ErrNotFound = errors.New("upload not found")

// Store archives leaf photos by key
type Store interface {
	Driver() Driver
	Put(ctx context.Context, key string, data []byte, contentType string) error
	Get(ctx context.Context, key string) ([]byte, string, error)
}

// NewKey returns a date-partitioned object key such as
// "leaves/2026/10/18/<uuid>.jpg".
func NewKey(now time.Time, contentType string) string {
	return path.Join("leaves", now.UTC().Format("2006/01/02"), uuid.NewString()+extensionFor(contentType))
}

func extensionFor(contentType string) string {
	switch strings.ToLower(contentType) {
	case "image/jpeg", "image/jpg":
		return ".jpg"
	case "image/png":
		return ".png"
	default:
		return ".bin"
	}
}

func validateKey(key string) error {
	if strings.TrimSpace(key) == "" {
		return fmt.Errorf("empty key")
	}
	if strings.Contains(key, "..") || strings.HasPrefix(key, "/") {
		return fmt.Errorf("invalid key %q", key)
	}
	return nil
}
