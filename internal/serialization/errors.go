package serialization

import (
	"errors"
	"fmt"
)

// Common errors.
var (
	ErrUnknownFormat     = errors.New("unknown checkpoint format")
	ErrHeaderTooLarge    = errors.New("header exceeds maximum size")
	ErrUnsupportedDType  = errors.New("unsupported tensor data type")
	ErrUnsupportedPickle = errors.New("unsupported pickle content")
)

// ValidationError provides detailed information about a malformed tensor
// entry.
type ValidationError struct {
	Type    string // Type of error (e.g., "out_of_bounds", "size_mismatch")
	Tensor  string // Tensor name involved
	Details string // Additional details
}

// Error implements the error interface.
func (e *ValidationError) Error() string {
	if e.Tensor != "" {
		return fmt.Sprintf("%s: tensor %q: %s", e.Type, e.Tensor, e.Details)
	}
	return fmt.Sprintf("%s: %s", e.Type, e.Details)
}
