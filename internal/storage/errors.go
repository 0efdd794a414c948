package storage

import "errors"

var (
	ErrInvalidConfig      = errors.New("invalid storage configuration")
	ErrFailedToLoadConfig = errors.New("failed to load AWS config")
	ErrInvalidKey         = errors.New("invalid blob key")

	ErrBlobNotFound   = errors.New("blob not found")
	ErrBucketNotFound = errors.New("bucket not found")
	ErrAccessDenied   = errors.New("access denied")

	ErrOperationTimeout  = errors.New("storage operation timed out")
	ErrOperationCanceled = errors.New("storage operation canceled")
)
