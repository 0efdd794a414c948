package file

import "fmt"

// MaxFileSize is the upload size ceiling: 50 MiB.
const MaxFileSize = 52428800

// ValidateSize enforces the upload size bounds before any I/O happens.
func ValidateSize(n int64) error {
	if n <= 0 {
		return fmt.Errorf("%w: must be greater than 0", ErrInvalidSize)
	}
	if n > MaxFileSize {
		return fmt.Errorf("%w: exceeds maximum of %d bytes", ErrInvalidSize, MaxFileSize)
	}
	return nil
}
