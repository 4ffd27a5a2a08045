// ABOUTME: Diagnosis error taxonomy shared across the service
// ABOUTME: Distinguishes unidentified, unsupported and unreadable outcomes

package models

import (
	"errors"
	"fmt"
)

var (
	// ErrImageUnreadable is returned when the upload cannot be decoded as PNG or JPEG
	ErrImageUnreadable = errors.New("image unreadable")

	// ErrCropIdentificationFailed means every identification tier missed
	ErrCropIdentificationFailed = errors.New("could not identify crop")

	// ErrModelUnavailable means the crop has a registered model but inference failed
	ErrModelUnavailable = errors.New("disease model unavailable")

	// ErrExternalServiceTimeout marks a collaborator call that exceeded its deadline
	ErrExternalServiceTimeout = errors.New("external service timeout")

	// ErrExternalServiceUnavailable marks a collaborator that is not configured or failed
	ErrExternalServiceUnavailable = errors.New("external service unavailable")
)

// UnsupportedCropError is returned for a crop without a disease model
type UnsupportedCropError struct {
	Crop string
}

func (e *UnsupportedCropError) Error() string {
	return fmt.Sprintf("unsupported crop %q", e.Crop)
}

// IsUnsupportedCrop reports whether err carries an UnsupportedCropError
func IsUnsupportedCrop(err error) (*UnsupportedCropError, bool) {
	var uc *UnsupportedCropError
	if errors.As(err, &uc) {
		return uc, true
	}
	return nil, false
}
