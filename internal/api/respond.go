// Package api contains the HTTP handlers and the translation of domain
// errors into status codes and the JSON error envelope. Error semantics live
// in the services; this layer only maps them at the boundary.
package api

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/dmitrymomot/filebox/internal/auth"
	"github.com/dmitrymomot/filebox/internal/file"
	"github.com/dmitrymomot/filebox/internal/logger"
)

// Machine-readable error codes returned in the error envelope.
const (
	CodeInvalidFilename = "INVALID_FILENAME"
	CodeInvalidSize     = "INVALID_SIZE"
	CodeDuplicateFile   = "DUPLICATE_FILE"
	CodeNotFound        = "NOT_FOUND"
	CodeUnauthorized    = "UNAUTHORIZED"
	CodeEmailTaken      = "EMAIL_TAKEN"
	CodeValidationError = "VALIDATION_ERROR"
	CodeStorageError    = "STORAGE_ERROR"
	CodeRateLimited     = "RATE_LIMITED"
	CodeInternalError   = "INTERNAL_ERROR"
)

type errorBody struct {
	Error errorDetail `json:"error"`
}

type errorDetail struct {
	Code         string `json:"code"`
	Message      string `json:"message"`
	ExistingFile any    `json:"existing_file,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if v != nil {
		_ = json.NewEncoder(w).Encode(v)
	}
}

func writeError(w http.ResponseWriter, status int, code, message string) {
	writeJSON(w, status, errorBody{Error: errorDetail{Code: code, Message: message}})
}

// writeDomainError maps a service error to a status code and envelope.
// Unknown errors become opaque 500s; the underlying cause is logged, never
// echoed to the client.
func writeDomainError(w http.ResponseWriter, log *slog.Logger, err error) {
	switch {
	case errors.Is(err, file.ErrInvalidFilename):
		writeError(w, http.StatusBadRequest, CodeInvalidFilename, err.Error())
	case errors.Is(err, file.ErrInvalidSize):
		writeError(w, http.StatusBadRequest, CodeInvalidSize, err.Error())
	case errors.Is(err, file.ErrNotFound):
		writeError(w, http.StatusNotFound, CodeNotFound, "file not found")
	case errors.Is(err, auth.ErrUnauthorized), errors.Is(err, auth.ErrInvalidCredentials):
		writeError(w, http.StatusUnauthorized, CodeUnauthorized, "invalid credentials")
	case errors.Is(err, auth.ErrEmailTaken):
		writeError(w, http.StatusConflict, CodeEmailTaken, "email already registered")
	case errors.Is(err, auth.ErrInvalidEmail), errors.Is(err, auth.ErrWeakPassword):
		writeError(w, http.StatusBadRequest, CodeValidationError, err.Error())
	case errors.Is(err, file.ErrStorage):
		log.Error("storage failure", logger.Component("api"), logger.Error(err))
		writeError(w, http.StatusInternalServerError, CodeStorageError, "storage operation failed")
	default:
		if dup, ok := file.IsDuplicate(err); ok {
			writeJSON(w, http.StatusConflict, errorBody{Error: errorDetail{
				Code:    CodeDuplicateFile,
				Message: "file with this name already exists",
				ExistingFile: map[string]any{
					"id":          dup.Existing.ID,
					"filename":    dup.Existing.Filename,
					"file_size":   dup.Existing.SizeBytes,
					"uploaded_at": dup.Existing.UploadedAt,
				},
			}})
			return
		}
		log.Error("unhandled error", logger.Component("api"), logger.Error(err))
		writeError(w, http.StatusInternalServerError, CodeInternalError, "internal server error")
	}
}
