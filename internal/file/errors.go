package file

import (
	"errors"
	"fmt"
)

var (
	// Validation errors, detected before any I/O
	ErrInvalidFilename = errors.New("invalid filename")
	ErrInvalidSize     = errors.New("invalid file size")

	// Lookup errors
	ErrNotFound = errors.New("file not found")

	// Blob or metadata I/O failures
	ErrStorage = errors.New("storage operation failed")
)

// DuplicateError reports an upload that collides with an existing file of the
// same owner. It carries the conflicting record so the HTTP layer can return
// a structured 409 response.
type DuplicateError struct {
	Existing File
}

func (e *DuplicateError) Error() string {
	return fmt.Sprintf("file %q already exists (id %s)", e.Existing.Filename, e.Existing.ID)
}

// IsDuplicate reports whether err is a duplicate-filename conflict and
// returns the conflicting record if so.
func IsDuplicate(err error) (*DuplicateError, bool) {
	var dup *DuplicateError
	if errors.As(err, &dup) {
		return dup, true
	}
	return nil, false
}
