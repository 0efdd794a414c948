package api_test

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/filebox/internal/api"
	"github.com/dmitrymomot/filebox/internal/auth"
	"github.com/dmitrymomot/filebox/internal/file"
)

// fakeFiles is a canned api.FileService.
type fakeFiles struct {
	ingestFn   func(ctx context.Context, ownerID uuid.UUID, filename, contentType string, content []byte) (file.File, error)
	listFn     func(ctx context.Context, ownerID uuid.UUID, page, pageSize int, sortBy, sortOrder string) (file.ListPage, error)
	downloadFn func(ctx context.Context, ownerID, fileID uuid.UUID) (string, error)
	deleteFn   func(ctx context.Context, ownerID, fileID uuid.UUID) error
}

func (f *fakeFiles) Ingest(ctx context.Context, ownerID uuid.UUID, filename, contentType string, content []byte) (file.File, error) {
	return f.ingestFn(ctx, ownerID, filename, contentType, content)
}

func (f *fakeFiles) List(ctx context.Context, ownerID uuid.UUID, page, pageSize int, sortBy, sortOrder string) (file.ListPage, error) {
	return f.listFn(ctx, ownerID, page, pageSize, sortBy, sortOrder)
}

func (f *fakeFiles) DownloadURL(ctx context.Context, ownerID, fileID uuid.UUID) (string, error) {
	return f.downloadFn(ctx, ownerID, fileID)
}

func (f *fakeFiles) Delete(ctx context.Context, ownerID, fileID uuid.UUID) error {
	return f.deleteFn(ctx, ownerID, fileID)
}

func filesRouter(svc api.FileService) http.Handler {
	h := api.NewFilesHandler(svc, nil)
	r := chi.NewRouter()
	r.Get("/files", h.List)
	r.Post("/files/upload", h.Upload)
	r.Delete("/files/{id}", h.Delete)
	r.Get("/files/{id}/download", h.Download)
	return r
}

func authedRequest(t *testing.T, method, target string, body *bytes.Buffer, identity auth.Identity) *http.Request {
	t.Helper()
	if body == nil {
		body = &bytes.Buffer{}
	}
	req := httptest.NewRequest(method, target, body)
	return req.WithContext(auth.WithIdentity(req.Context(), identity))
}

func multipartBody(t *testing.T, field, filename string, content []byte) (*bytes.Buffer, string) {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	part, err := mw.CreateFormFile(field, filename)
	require.NoError(t, err)
	_, err = part.Write(content)
	require.NoError(t, err)
	require.NoError(t, mw.Close())
	return &buf, mw.FormDataContentType()
}

func decodeError(t *testing.T, body *bytes.Buffer) (code, message string, existing map[string]any) {
	t.Helper()
	var envelope struct {
		Error struct {
			Code         string         `json:"code"`
			Message      string         `json:"message"`
			ExistingFile map[string]any `json:"existing_file"`
		} `json:"error"`
	}
	require.NoError(t, json.Unmarshal(body.Bytes(), &envelope))
	return envelope.Error.Code, envelope.Error.Message, envelope.Error.ExistingFile
}

func TestUploadHandler(t *testing.T) {
	t.Parallel()
	identity := auth.Identity{UserID: uuid.New(), Email: "user@example.com"}

	t.Run("successful upload returns 201 with the record", func(t *testing.T) {
		t.Parallel()
		rec := file.File{
			ID:         uuid.New(),
			OwnerID:    identity.UserID,
			Filename:   "photo.png",
			SizeBytes:  9,
			StorageKey: fmt.Sprintf("%s/%s/photo.png", identity.UserID, uuid.New()),
			UploadedAt: time.Now().UTC(),
		}
		svc := &fakeFiles{
			ingestFn: func(_ context.Context, ownerID uuid.UUID, filename, _ string, content []byte) (file.File, error) {
				assert.Equal(t, identity.UserID, ownerID)
				assert.Equal(t, "photo.png", filename)
				assert.Equal(t, []byte("png-bytes"), content)
				return rec, nil
			},
		}

		body, contentType := multipartBody(t, "file", "photo.png", []byte("png-bytes"))
		req := authedRequest(t, http.MethodPost, "/files/upload", body, identity)
		req.Header.Set("Content-Type", contentType)
		w := httptest.NewRecorder()

		filesRouter(svc).ServeHTTP(w, req)
		require.Equal(t, http.StatusCreated, w.Code)

		var resp struct {
			File struct {
				ID           uuid.UUID `json:"id"`
				Filename     string    `json:"filename"`
				FileSize     int64     `json:"file_size"`
				HasThumbnail bool      `json:"has_thumbnail"`
				ThumbnailURL *string   `json:"thumbnail_url"`
			} `json:"file"`
			Message string `json:"message"`
		}
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
		assert.Equal(t, rec.ID, resp.File.ID)
		assert.Equal(t, "photo.png", resp.File.Filename)
		assert.False(t, resp.File.HasThumbnail)
		assert.Nil(t, resp.File.ThumbnailURL)
		assert.Equal(t, "File uploaded successfully", resp.Message)
	})

	t.Run("missing identity", func(t *testing.T) {
		t.Parallel()
		body, contentType := multipartBody(t, "file", "a.txt", []byte("x"))
		req := httptest.NewRequest(http.MethodPost, "/files/upload", body)
		req.Header.Set("Content-Type", contentType)
		w := httptest.NewRecorder()

		filesRouter(&fakeFiles{}).ServeHTTP(w, req)
		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})

	t.Run("missing file field", func(t *testing.T) {
		t.Parallel()
		body, contentType := multipartBody(t, "attachment", "a.txt", []byte("x"))
		req := authedRequest(t, http.MethodPost, "/files/upload", body, identity)
		req.Header.Set("Content-Type", contentType)
		w := httptest.NewRecorder()

		filesRouter(&fakeFiles{}).ServeHTTP(w, req)
		require.Equal(t, http.StatusBadRequest, w.Code)
		code, _, _ := decodeError(t, w.Body)
		assert.Equal(t, api.CodeValidationError, code)
	})

	t.Run("invalid filename maps to 400", func(t *testing.T) {
		t.Parallel()
		svc := &fakeFiles{
			ingestFn: func(context.Context, uuid.UUID, string, string, []byte) (file.File, error) {
				return file.File{}, fmt.Errorf("%w: bad name", file.ErrInvalidFilename)
			},
		}
		body, contentType := multipartBody(t, "file", "bad<name>.txt", []byte("x"))
		req := authedRequest(t, http.MethodPost, "/files/upload", body, identity)
		req.Header.Set("Content-Type", contentType)
		w := httptest.NewRecorder()

		filesRouter(svc).ServeHTTP(w, req)
		require.Equal(t, http.StatusBadRequest, w.Code)
		code, _, _ := decodeError(t, w.Body)
		assert.Equal(t, api.CodeInvalidFilename, code)
	})

	t.Run("duplicate maps to 409 with the existing record", func(t *testing.T) {
		t.Parallel()
		existing := file.File{
			ID:         uuid.New(),
			Filename:   "dup.txt",
			SizeBytes:  42,
			UploadedAt: time.Now().UTC(),
		}
		svc := &fakeFiles{
			ingestFn: func(context.Context, uuid.UUID, string, string, []byte) (file.File, error) {
				return file.File{}, &file.DuplicateError{Existing: existing}
			},
		}
		body, contentType := multipartBody(t, "file", "dup.txt", []byte("x"))
		req := authedRequest(t, http.MethodPost, "/files/upload", body, identity)
		req.Header.Set("Content-Type", contentType)
		w := httptest.NewRecorder()

		filesRouter(svc).ServeHTTP(w, req)
		require.Equal(t, http.StatusConflict, w.Code)

		code, _, got := decodeError(t, w.Body)
		assert.Equal(t, api.CodeDuplicateFile, code)
		require.NotNil(t, got)
		assert.Equal(t, existing.ID.String(), got["id"])
		assert.Equal(t, "dup.txt", got["filename"])
		assert.EqualValues(t, 42, got["file_size"])
	})

	t.Run("storage failure maps to an opaque 500", func(t *testing.T) {
		t.Parallel()
		svc := &fakeFiles{
			ingestFn: func(context.Context, uuid.UUID, string, string, []byte) (file.File, error) {
				return file.File{}, fmt.Errorf("%w: blob upload: connection refused", file.ErrStorage)
			},
		}
		body, contentType := multipartBody(t, "file", "a.txt", []byte("x"))
		req := authedRequest(t, http.MethodPost, "/files/upload", body, identity)
		req.Header.Set("Content-Type", contentType)
		w := httptest.NewRecorder()

		filesRouter(svc).ServeHTTP(w, req)
		require.Equal(t, http.StatusInternalServerError, w.Code)
		code, message, _ := decodeError(t, w.Body)
		assert.Equal(t, api.CodeStorageError, code)
		assert.NotContains(t, message, "connection refused")
	})
}

func TestListHandler(t *testing.T) {
	t.Parallel()
	identity := auth.Identity{UserID: uuid.New(), Email: "user@example.com"}

	t.Run("passes query params through and renders the page", func(t *testing.T) {
		t.Parallel()
		thumb := "https://blobs.test/signed/thumb.jpg"
		svc := &fakeFiles{
			listFn: func(_ context.Context, ownerID uuid.UUID, page, pageSize int, sortBy, sortOrder string) (file.ListPage, error) {
				assert.Equal(t, identity.UserID, ownerID)
				assert.Equal(t, 2, page)
				assert.Equal(t, 5, pageSize)
				assert.Equal(t, "name", sortBy)
				assert.Equal(t, "asc", sortOrder)
				return file.ListPage{
					Files: []file.ListItem{
						{File: file.File{ID: uuid.New(), Filename: "a.png", HasThumbnail: true}, ThumbnailURL: thumb},
						{File: file.File{ID: uuid.New(), Filename: "b.txt"}},
					},
					Total: 12, Page: 2, PageSize: 5, TotalPages: 3,
				}, nil
			},
		}

		req := authedRequest(t, http.MethodGet, "/files?page=2&page_size=5&sort_by=name&sort_order=asc", nil, identity)
		w := httptest.NewRecorder()
		filesRouter(svc).ServeHTTP(w, req)
		require.Equal(t, http.StatusOK, w.Code)

		var resp struct {
			Files []struct {
				Filename     string  `json:"filename"`
				ThumbnailURL *string `json:"thumbnail_url"`
			} `json:"files"`
			Total      int64 `json:"total"`
			TotalPages int   `json:"total_pages"`
		}
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
		require.Len(t, resp.Files, 2)
		require.NotNil(t, resp.Files[0].ThumbnailURL)
		assert.Equal(t, thumb, *resp.Files[0].ThumbnailURL)
		assert.Nil(t, resp.Files[1].ThumbnailURL)
		assert.Equal(t, int64(12), resp.Total)
		assert.Equal(t, 3, resp.TotalPages)
	})

	t.Run("non-numeric paging falls back to defaults", func(t *testing.T) {
		t.Parallel()
		svc := &fakeFiles{
			listFn: func(_ context.Context, _ uuid.UUID, page, pageSize int, _, _ string) (file.ListPage, error) {
				assert.Equal(t, 1, page)
				assert.Equal(t, file.DefaultPageSize, pageSize)
				return file.ListPage{Files: []file.ListItem{}, Page: 1, PageSize: file.DefaultPageSize}, nil
			},
		}
		req := authedRequest(t, http.MethodGet, "/files?page=abc&page_size=", nil, identity)
		w := httptest.NewRecorder()
		filesRouter(svc).ServeHTTP(w, req)
		assert.Equal(t, http.StatusOK, w.Code)
	})

	t.Run("missing identity", func(t *testing.T) {
		t.Parallel()
		req := httptest.NewRequest(http.MethodGet, "/files", nil)
		w := httptest.NewRecorder()
		filesRouter(&fakeFiles{}).ServeHTTP(w, req)
		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})
}

func TestDeleteHandler(t *testing.T) {
	t.Parallel()
	identity := auth.Identity{UserID: uuid.New(), Email: "user@example.com"}

	t.Run("deletes and returns 204", func(t *testing.T) {
		t.Parallel()
		fileID := uuid.New()
		svc := &fakeFiles{
			deleteFn: func(_ context.Context, ownerID, id uuid.UUID) error {
				assert.Equal(t, identity.UserID, ownerID)
				assert.Equal(t, fileID, id)
				return nil
			},
		}
		req := authedRequest(t, http.MethodDelete, "/files/"+fileID.String(), nil, identity)
		w := httptest.NewRecorder()
		filesRouter(svc).ServeHTTP(w, req)
		assert.Equal(t, http.StatusNoContent, w.Code)
		assert.Empty(t, w.Body.Bytes())
	})

	t.Run("malformed id", func(t *testing.T) {
		t.Parallel()
		req := authedRequest(t, http.MethodDelete, "/files/not-a-uuid", nil, identity)
		w := httptest.NewRecorder()
		filesRouter(&fakeFiles{}).ServeHTTP(w, req)
		require.Equal(t, http.StatusBadRequest, w.Code)
		code, _, _ := decodeError(t, w.Body)
		assert.Equal(t, api.CodeValidationError, code)
	})

	t.Run("missing record maps to 404", func(t *testing.T) {
		t.Parallel()
		svc := &fakeFiles{
			deleteFn: func(context.Context, uuid.UUID, uuid.UUID) error {
				return fmt.Errorf("%w: nope", file.ErrNotFound)
			},
		}
		req := authedRequest(t, http.MethodDelete, "/files/"+uuid.NewString(), nil, identity)
		w := httptest.NewRecorder()
		filesRouter(svc).ServeHTTP(w, req)
		require.Equal(t, http.StatusNotFound, w.Code)
		code, _, _ := decodeError(t, w.Body)
		assert.Equal(t, api.CodeNotFound, code)
	})
}

func TestDownloadHandler(t *testing.T) {
	t.Parallel()
	identity := auth.Identity{UserID: uuid.New(), Email: "user@example.com"}

	t.Run("redirects to the signed url", func(t *testing.T) {
		t.Parallel()
		fileID := uuid.New()
		signed := "https://blobs.test/signed/" + fileID.String()
		svc := &fakeFiles{
			downloadFn: func(_ context.Context, ownerID, id uuid.UUID) (string, error) {
				assert.Equal(t, identity.UserID, ownerID)
				assert.Equal(t, fileID, id)
				return signed, nil
			},
		}
		req := authedRequest(t, http.MethodGet, "/files/"+fileID.String()+"/download", nil, identity)
		w := httptest.NewRecorder()
		filesRouter(svc).ServeHTTP(w, req)
		assert.Equal(t, http.StatusFound, w.Code)
		assert.Equal(t, signed, w.Header().Get("Location"))
	})

	t.Run("missing record maps to 404", func(t *testing.T) {
		t.Parallel()
		svc := &fakeFiles{
			downloadFn: func(context.Context, uuid.UUID, uuid.UUID) (string, error) {
				return "", fmt.Errorf("%w: nope", file.ErrNotFound)
			},
		}
		req := authedRequest(t, http.MethodGet, "/files/"+uuid.NewString()+"/download", nil, identity)
		w := httptest.NewRecorder()
		filesRouter(svc).ServeHTTP(w, req)
		assert.Equal(t, http.StatusNotFound, w.Code)
	})
}
