// ABOUTME: Opens the configured upload store
// ABOUTME: Returns nil when archiving is disabled

package uploads

import (
	"context"
	"fmt"
)

// Config selects an upload driver
type Config struct {
	Driver Driver
	FSRoot string
	S3     S3Config
}

// Open returns the store for cfg.Driver, or nil for DriverNone
func Open(ctx context.Context, cfg Config) (Store, error) {
	switch cfg.Driver {
	case DriverNone, "":
		return nil, nil
	case DriverFilesystem:
		s, err := NewFSStore(cfg.FSRoot)
		if err != nil {
			return nil, err
		}
		return s, nil
	case DriverS3:
		s, err := NewS3Store(ctx, cfg.S3)
		if err != nil {
			return nil, err
		}
		return s, nil
	default:
		return nil, fmt.Errorf("unknown upload driver %q", cfg.Driver)
	}
}
