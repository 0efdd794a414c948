package file

import (
	"time"

	"github.com/google/uuid"
)

// File is the metadata record for a single uploaded file. The storage key
// always resolves to exactly one blob owned by OwnerID; ThumbnailKey is set
// only after the derived thumbnail has been uploaded.
type File struct {
	ID           uuid.UUID
	OwnerID      uuid.UUID
	Filename     string
	SizeBytes    int64
	StorageKey   string
	HasThumbnail bool
	ThumbnailKey string
	UploadedAt   time.Time
}

// SortField selects the column a listing is ordered by.
type SortField string

const (
	SortByFilename   SortField = "filename"
	SortByUploadedAt SortField = "uploaded_at"
	SortBySize       SortField = "file_size"
)

// SortOrder is the listing direction.
type SortOrder string

const (
	SortAsc  SortOrder = "asc"
	SortDesc SortOrder = "desc"
)

// sortFieldAliases maps client-facing sort names to columns. Unknown values
// fall back to uploaded_at.
var sortFieldAliases = map[string]SortField{
	"name":        SortByFilename,
	"date":        SortByUploadedAt,
	"size":        SortBySize,
	"filename":    SortByFilename,
	"uploaded_at": SortByUploadedAt,
	"file_size":   SortBySize,
}

// ParseSortField resolves a client-supplied sort name.
func ParseSortField(s string) SortField {
	if f, ok := sortFieldAliases[s]; ok {
		return f
	}
	return SortByUploadedAt
}

// ParseSortOrder resolves a client-supplied sort order, defaulting to desc.
func ParseSortOrder(s string) SortOrder {
	if s == string(SortAsc) {
		return SortAsc
	}
	return SortDesc
}

// ListItem is a listing entry with the thumbnail reference resolved to a
// time-bounded URL. ThumbnailURL is empty when the file has no thumbnail or
// when URL resolution failed for this record.
type ListItem struct {
	File
	ThumbnailURL string
}

// ListPage is one page of a user's files together with pagination totals.
type ListPage struct {
	Files      []ListItem
	Total      int64
	Page       int
	PageSize   int
	TotalPages int
}
