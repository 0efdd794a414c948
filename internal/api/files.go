package api

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/dmitrymomot/filebox/internal/auth"
	"github.com/dmitrymomot/filebox/internal/file"
)

// multipartMemoryLimit bounds how much of a multipart body is buffered in
// memory before spilling to temp files.
const multipartMemoryLimit = 32 << 20

// FileService is the subset of the file service consumed by the handlers.
type FileService interface {
	Ingest(ctx context.Context, ownerID uuid.UUID, filename, contentType string, content []byte) (file.File, error)
	List(ctx context.Context, ownerID uuid.UUID, page, pageSize int, sortBy, sortOrder string) (file.ListPage, error)
	DownloadURL(ctx context.Context, ownerID, fileID uuid.UUID) (string, error)
	Delete(ctx context.Context, ownerID, fileID uuid.UUID) error
}

// FilesHandler serves the /files routes.
type FilesHandler struct {
	files FileService
	log   *slog.Logger
}

// NewFilesHandler wires the handler.
func NewFilesHandler(files FileService, log *slog.Logger) *FilesHandler {
	if log == nil {
		log = slog.Default()
	}
	return &FilesHandler{files: files, log: log}
}

// Upload handles POST /files/upload.
func (h *FilesHandler) Upload(w http.ResponseWriter, r *http.Request) {
	id, ok := auth.IdentityFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, CodeUnauthorized, "authentication required")
		return
	}

	if err := r.ParseMultipartForm(multipartMemoryLimit); err != nil {
		writeError(w, http.StatusBadRequest, CodeValidationError, "malformed multipart body")
		return
	}

	part, header, err := r.FormFile("file")
	if err != nil {
		writeError(w, http.StatusBadRequest, CodeValidationError, "multipart field 'file' is required")
		return
	}
	defer func() { _ = part.Close() }()

	// Read at most one byte past the limit; size validation rejects the
	// oversized read without buffering the whole body.
	content, err := io.ReadAll(io.LimitReader(part, file.MaxFileSize+1))
	if err != nil {
		writeError(w, http.StatusBadRequest, CodeValidationError, "failed to read upload")
		return
	}

	rec, err := h.files.Ingest(r.Context(), id.UserID, header.Filename, header.Header.Get("Content-Type"), content)
	if err != nil {
		writeDomainError(w, h.log, err)
		return
	}

	writeJSON(w, http.StatusCreated, uploadResponse{
		File:    toFileResponse(rec, ""),
		Message: "File uploaded successfully",
	})
}

// List handles GET /files.
func (h *FilesHandler) List(w http.ResponseWriter, r *http.Request) {
	id, ok := auth.IdentityFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, CodeUnauthorized, "authentication required")
		return
	}

	q := r.URL.Query()
	page := queryInt(q.Get("page"), 1)
	pageSize := queryInt(q.Get("page_size"), file.DefaultPageSize)

	result, err := h.files.List(r.Context(), id.UserID, page, pageSize, q.Get("sort_by"), q.Get("sort_order"))
	if err != nil {
		writeDomainError(w, h.log, err)
		return
	}

	files := make([]fileResponse, 0, len(result.Files))
	for _, item := range result.Files {
		files = append(files, toFileResponse(item.File, item.ThumbnailURL))
	}

	writeJSON(w, http.StatusOK, listResponse{
		Files:      files,
		Total:      result.Total,
		Page:       result.Page,
		PageSize:   result.PageSize,
		TotalPages: result.TotalPages,
	})
}

// Delete handles DELETE /files/{id}.
func (h *FilesHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, ok := auth.IdentityFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, CodeUnauthorized, "authentication required")
		return
	}

	fileID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, http.StatusBadRequest, CodeValidationError, "invalid file id")
		return
	}

	if err := h.files.Delete(r.Context(), id.UserID, fileID); err != nil {
		writeDomainError(w, h.log, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// Download handles GET /files/{id}/download with a redirect to a temporary
// signed URL.
func (h *FilesHandler) Download(w http.ResponseWriter, r *http.Request) {
	id, ok := auth.IdentityFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, CodeUnauthorized, "authentication required")
		return
	}

	fileID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, http.StatusBadRequest, CodeValidationError, "invalid file id")
		return
	}

	url, err := h.files.DownloadURL(r.Context(), id.UserID, fileID)
	if err != nil {
		writeDomainError(w, h.log, err)
		return
	}

	http.Redirect(w, r, url, http.StatusFound)
}

func queryInt(s string, fallback int) int {
	if s == "" {
		return fallback
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return fallback
	}
	return n
}
