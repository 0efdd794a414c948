package metadata

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/dmitrymomot/filebox/internal/file"
)

// Files is the Postgres repository for file records. It implements
// file.Store.
type Files struct {
	pool *pgxpool.Pool
}

// NewFiles returns the repository bound to pool.
func NewFiles(pool *pgxpool.Pool) *Files {
	return &Files{pool: pool}
}

const fileColumns = "id, user_id, filename, file_size, storage_key, has_thumbnail, thumbnail_key, uploaded_at"

func scanFile(row interface{ Scan(dest ...any) error }) (file.File, error) {
	var f file.File
	err := row.Scan(&f.ID, &f.OwnerID, &f.Filename, &f.SizeBytes, &f.StorageKey, &f.HasThumbnail, &f.ThumbnailKey, &f.UploadedAt)
	return f, err
}

// Insert creates the record. A unique violation on (user_id, filename) is
// reported as *file.DuplicateError carrying the winning record, so callers
// that lose the check-then-insert race still get a structured conflict.
func (r *Files) Insert(ctx context.Context, f file.File) error {
	_, err := r.pool.Exec(ctx,
		`INSERT INTO files (`+fileColumns+`) VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		f.ID, f.OwnerID, f.Filename, f.SizeBytes, f.StorageKey, f.HasThumbnail, f.ThumbnailKey, f.UploadedAt,
	)
	if err == nil {
		return nil
	}
	if IsDuplicateKeyError(err) {
		existing, lookupErr := r.ByName(ctx, f.OwnerID, f.Filename)
		if lookupErr != nil {
			return &file.DuplicateError{Existing: file.File{OwnerID: f.OwnerID, Filename: f.Filename}}
		}
		return &file.DuplicateError{Existing: existing}
	}
	return fmt.Errorf("insert file record: %w", err)
}

// ByID fetches a record scoped to its owner.
func (r *Files) ByID(ctx context.Context, id, ownerID uuid.UUID) (file.File, error) {
	row := r.pool.QueryRow(ctx,
		`SELECT `+fileColumns+` FROM files WHERE id = $1 AND user_id = $2`,
		id, ownerID,
	)
	f, err := scanFile(row)
	if IsNotFoundError(err) {
		return file.File{}, fmt.Errorf("%w: %s", file.ErrNotFound, id)
	}
	if err != nil {
		return file.File{}, fmt.Errorf("get file record: %w", err)
	}
	return f, nil
}

// ByName fetches an owner's record by its sanitized display name.
func (r *Files) ByName(ctx context.Context, ownerID uuid.UUID, filename string) (file.File, error) {
	row := r.pool.QueryRow(ctx,
		`SELECT `+fileColumns+` FROM files WHERE user_id = $1 AND filename = $2`,
		ownerID, filename,
	)
	f, err := scanFile(row)
	if IsNotFoundError(err) {
		return file.File{}, fmt.Errorf("%w: %s", file.ErrNotFound, filename)
	}
	if err != nil {
		return file.File{}, fmt.Errorf("get file record by name: %w", err)
	}
	return f, nil
}

// Delete removes a record scoped to its owner.
func (r *Files) Delete(ctx context.Context, id, ownerID uuid.UUID) error {
	tag, err := r.pool.Exec(ctx,
		`DELETE FROM files WHERE id = $1 AND user_id = $2`,
		id, ownerID,
	)
	if err != nil {
		return fmt.Errorf("delete file record: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("%w: %s", file.ErrNotFound, id)
	}
	return nil
}

// List returns one sorted page of the owner's records plus the total count.
func (r *Files) List(ctx context.Context, ownerID uuid.UUID, sortBy file.SortField, order file.SortOrder, offset, limit int) ([]file.File, int64, error) {
	var total int64
	if err := r.pool.QueryRow(ctx,
		`SELECT count(*) FROM files WHERE user_id = $1`, ownerID,
	).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count file records: %w", err)
	}

	// sortBy/order come from a fixed enum, never from raw client input.
	query := fmt.Sprintf(
		`SELECT `+fileColumns+` FROM files WHERE user_id = $1 ORDER BY %s %s LIMIT $2 OFFSET $3`,
		orderColumn(sortBy), orderDirection(order),
	)
	rows, err := r.pool.Query(ctx, query, ownerID, limit, offset)
	if err != nil {
		return nil, 0, fmt.Errorf("list file records: %w", err)
	}
	defer rows.Close()

	var files []file.File
	for rows.Next() {
		f, err := scanFile(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("scan file record: %w", err)
		}
		files = append(files, f)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("list file records: %w", err)
	}

	return files, total, nil
}

// SetThumbnail updates the thumbnail fields. Updating a record that was
// deleted meanwhile is a no-op, matching the unordered delete-vs-thumbnail
// contract.
func (r *Files) SetThumbnail(ctx context.Context, id uuid.UUID, hasThumbnail bool, key string) error {
	_, err := r.pool.Exec(ctx,
		`UPDATE files SET has_thumbnail = $2, thumbnail_key = $3 WHERE id = $1`,
		id, hasThumbnail, key,
	)
	if err != nil {
		return fmt.Errorf("update thumbnail fields: %w", err)
	}
	return nil
}

// orderColumn maps the sort enum to a column name.
func orderColumn(f file.SortField) string {
	switch f {
	case file.SortByFilename:
		return "filename"
	case file.SortBySize:
		return "file_size"
	default:
		return "uploaded_at"
	}
}

func orderDirection(o file.SortOrder) string {
	if o == file.SortAsc {
		return "ASC"
	}
	return "DESC"
}
