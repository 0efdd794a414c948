package file

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/dmitrymomot/filebox/internal/logger"
)

// Store is the metadata record storage consumed by the service.
//
// ByID and Delete must return ErrNotFound (wrapped is fine) for a missing or
// foreign record. Insert must return *DuplicateError when the
// (owner, filename) pair already exists.
type Store interface {
	Insert(ctx context.Context, f File) error
	ByID(ctx context.Context, id, ownerID uuid.UUID) (File, error)
	ByName(ctx context.Context, ownerID uuid.UUID, filename string) (File, error)
	Delete(ctx context.Context, id, ownerID uuid.UUID) error
	List(ctx context.Context, ownerID uuid.UUID, sortBy SortField, order SortOrder, offset, limit int) ([]File, int64, error)
	SetThumbnail(ctx context.Context, id uuid.UUID, hasThumbnail bool, key string) error
}

// BlobStore is the durable byte storage consumed by the service.
type BlobStore interface {
	Upload(ctx context.Context, key string, data []byte, contentType string) error
	Delete(ctx context.Context, key string) error
	Exists(ctx context.Context, key string) bool
	SignedURL(ctx context.Context, key string, ttl time.Duration) (string, error)
}

// Thumbnailer derives a fixed-size preview from image bytes.
type Thumbnailer interface {
	Generate(data []byte) ([]byte, error)
}

// Dispatcher runs a unit of work detached from the calling request.
type Dispatcher interface {
	Go(name string, fn func(context.Context))
}

const (
	// DefaultPageSize applies when a listing request omits page_size.
	DefaultPageSize = 20
	// MaxPageSize caps a single listing page.
	MaxPageSize = 100

	// SignedURLTTL bounds temporary access to blobs.
	SignedURLTTL = time.Hour

	// thumbnailContentType is the MIME type of generated thumbnails.
	thumbnailContentType = "image/jpeg"
)

// Service coordinates the ingestion, listing, download, and deletion flows.
// It holds no mutable state and is safe for concurrent use.
type Service struct {
	records Store
	blobs   BlobStore
	thumbs  Thumbnailer
	tasks   Dispatcher
	log     *slog.Logger
	urlTTL  time.Duration
}

// NewService wires the service. A zero signedURLTTL falls back to
// SignedURLTTL; a nil log falls back to slog.Default.
func NewService(records Store, blobs BlobStore, thumbs Thumbnailer, tasks Dispatcher, log *slog.Logger, signedURLTTL time.Duration) *Service {
	if log == nil {
		log = slog.Default()
	}
	if signedURLTTL <= 0 {
		signedURLTTL = SignedURLTTL
	}
	return &Service{
		records: records,
		blobs:   blobs,
		thumbs:  thumbs,
		tasks:   tasks,
		log:     log,
		urlTTL:  signedURLTTL,
	}
}

// Ingest validates and stores an upload, then schedules thumbnail derivation
// for images without blocking the caller. The returned record always has
// HasThumbnail=false; the thumbnail fields are completed by the background
// task if and when it succeeds.
//
// Ordering is blob-then-metadata: a metadata write failure after a
// successful blob upload leaves an orphaned blob, which is logged and
// accepted.
func (s *Service) Ingest(ctx context.Context, ownerID uuid.UUID, filename, contentType string, content []byte) (File, error) {
	if err := ValidateSize(int64(len(content))); err != nil {
		return File{}, err
	}

	name, err := SanitizeFilename(filename)
	if err != nil {
		return File{}, err
	}

	if existing, err := s.records.ByName(ctx, ownerID, name); err == nil {
		return File{}, &DuplicateError{Existing: existing}
	} else if !errors.Is(err, ErrNotFound) {
		return File{}, fmt.Errorf("%w: duplicate check: %v", ErrStorage, err)
	}

	fileID := uuid.New()
	key := StorageKey(ownerID, fileID, name)

	if err := s.blobs.Upload(ctx, key, content, contentType); err != nil {
		return File{}, fmt.Errorf("%w: blob upload: %v", ErrStorage, err)
	}

	rec := File{
		ID:           fileID,
		OwnerID:      ownerID,
		Filename:     name,
		SizeBytes:    int64(len(content)),
		StorageKey:   key,
		HasThumbnail: false,
		UploadedAt:   time.Now().UTC(),
	}
	if err := s.records.Insert(ctx, rec); err != nil {
		var dup *DuplicateError
		if errors.As(err, &dup) {
			// Lost the check-then-insert race; the blob just written is an
			// accepted orphan.
			s.log.Warn("duplicate insert after passing pre-check, blob orphaned",
				logger.Component("file_service"),
				logger.UserID(ownerID),
				logger.StorageKey(key),
			)
			return File{}, dup
		}
		s.log.Error("metadata insert failed after blob upload, blob orphaned",
			logger.Component("file_service"),
			logger.UserID(ownerID),
			logger.StorageKey(key),
			logger.Error(err),
		)
		return File{}, fmt.Errorf("%w: metadata insert: %v", ErrStorage, err)
	}

	if IsImageFilename(name) {
		s.scheduleThumbnail(rec, content)
	}

	return rec, nil
}

// scheduleThumbnail dispatches the derivation task. The task runs at most
// once, is never retried, and reports nothing back to the upload caller.
func (s *Service) scheduleThumbnail(rec File, content []byte) {
	s.tasks.Go("thumbnail:"+rec.ID.String(), func(ctx context.Context) {
		if err := s.deriveThumbnail(ctx, rec, content); err != nil {
			s.log.Warn("thumbnail derivation failed",
				logger.Component("file_service"),
				logger.FileID(rec.ID),
				logger.Error(err),
			)
			// Degrade rather than retry. A no-op if the flag is already
			// false or the record was deleted meanwhile.
			if err := s.records.SetThumbnail(ctx, rec.ID, false, ""); err != nil {
				s.log.Error("thumbnail degrade update failed",
					logger.Component("file_service"),
					logger.FileID(rec.ID),
					logger.Error(err),
				)
			}
		}
	})
}

func (s *Service) deriveThumbnail(ctx context.Context, rec File, content []byte) error {
	thumb, err := s.thumbs.Generate(content)
	if err != nil {
		return fmt.Errorf("generate: %w", err)
	}

	key := ThumbnailKey(rec.StorageKey)
	if err := s.blobs.Upload(ctx, key, thumb, thumbnailContentType); err != nil {
		return fmt.Errorf("upload: %w", err)
	}

	if err := s.records.SetThumbnail(ctx, rec.ID, true, key); err != nil {
		return fmt.Errorf("metadata update: %w", err)
	}
	return nil
}

// List returns one page of the owner's files ordered by the requested field,
// with thumbnail references resolved to time-bounded URLs. URL resolution
// failure for a single record degrades that record's thumbnail to absent
// without failing the page.
func (s *Service) List(ctx context.Context, ownerID uuid.UUID, page, pageSize int, sortBy, sortOrder string) (ListPage, error) {
	if page < 1 {
		page = 1
	}
	if pageSize < 1 {
		pageSize = DefaultPageSize
	}
	if pageSize > MaxPageSize {
		pageSize = MaxPageSize
	}

	offset := (page - 1) * pageSize
	records, total, err := s.records.List(ctx, ownerID, ParseSortField(sortBy), ParseSortOrder(sortOrder), offset, pageSize)
	if err != nil {
		return ListPage{}, fmt.Errorf("%w: list query: %v", ErrStorage, err)
	}

	items := make([]ListItem, 0, len(records))
	for _, rec := range records {
		item := ListItem{File: rec}
		if rec.HasThumbnail {
			key := rec.ThumbnailKey
			if key == "" {
				key = ThumbnailKey(rec.StorageKey)
			}
			url, err := s.blobs.SignedURL(ctx, key, s.urlTTL)
			if err != nil {
				s.log.Error("thumbnail URL resolution failed",
					logger.Component("file_service"),
					logger.FileID(rec.ID),
					logger.StorageKey(key),
					logger.Error(err),
				)
			} else {
				item.ThumbnailURL = url
			}
		}
		items = append(items, item)
	}

	totalPages := 0
	if total > 0 {
		totalPages = int((total + int64(pageSize) - 1) / int64(pageSize))
	}

	return ListPage{
		Files:      items,
		Total:      total,
		Page:       page,
		PageSize:   pageSize,
		TotalPages: totalPages,
	}, nil
}

// DownloadURL resolves a time-bounded URL for the file's primary blob,
// scoped to the owner.
func (s *Service) DownloadURL(ctx context.Context, ownerID, fileID uuid.UUID) (string, error) {
	rec, err := s.records.ByID(ctx, fileID, ownerID)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return "", err
		}
		return "", fmt.Errorf("%w: lookup: %v", ErrStorage, err)
	}

	url, err := s.blobs.SignedURL(ctx, rec.StorageKey, s.urlTTL)
	if err != nil {
		return "", fmt.Errorf("%w: sign url: %v", ErrStorage, err)
	}
	return url, nil
}

// Delete removes the file's blobs best-effort and then its metadata record.
// Blob deletion failures are logged and tolerated; the metadata delete is
// authoritative and its failure is surfaced.
func (s *Service) Delete(ctx context.Context, ownerID, fileID uuid.UUID) error {
	rec, err := s.records.ByID(ctx, fileID, ownerID)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return err
		}
		return fmt.Errorf("%w: lookup: %v", ErrStorage, err)
	}

	if err := s.blobs.Delete(ctx, rec.StorageKey); err != nil {
		s.log.Warn("blob delete failed, continuing",
			logger.Component("file_service"),
			logger.FileID(rec.ID),
			logger.StorageKey(rec.StorageKey),
			logger.Error(err),
		)
	}

	if rec.HasThumbnail {
		key := rec.ThumbnailKey
		if key == "" {
			key = ThumbnailKey(rec.StorageKey)
		}
		if err := s.blobs.Delete(ctx, key); err != nil {
			s.log.Warn("thumbnail blob delete failed, continuing",
				logger.Component("file_service"),
				logger.FileID(rec.ID),
				logger.StorageKey(key),
				logger.Error(err),
			)
		}
	}

	if err := s.records.Delete(ctx, fileID, ownerID); err != nil {
		if errors.Is(err, ErrNotFound) {
			return err
		}
		return fmt.Errorf("%w: metadata delete: %v", ErrStorage, err)
	}
	return nil
}
