package file

import (
	"fmt"
	"path"
	"strings"

	"github.com/google/uuid"
)

// ThumbnailFilename is the fixed blob name for derived thumbnails, stored
// next to the original under the same owner/file prefix.
const ThumbnailFilename = "thumbnail.jpg"

// StorageKey derives the deterministic blob key for a file. Uniqueness is
// guaranteed by fileID alone; owner and filename are informational path
// segments.
func StorageKey(ownerID, fileID uuid.UUID, filename string) string {
	return fmt.Sprintf("%s/%s/%s", ownerID, fileID, filename)
}

// ThumbnailKey derives the thumbnail blob key from a file's storage key by
// replacing the filename segment.
func ThumbnailKey(storageKey string) string {
	return path.Dir(storageKey) + "/" + ThumbnailFilename
}

// imageExtensions is the fixed allow-list used to decide whether an upload
// gets a derived thumbnail.
var imageExtensions = map[string]struct{}{
	".jpg":  {},
	".jpeg": {},
	".png":  {},
	".gif":  {},
	".webp": {},
	".bmp":  {},
}

// IsImageFilename classifies a file as image/non-image by extension,
// case-insensitively.
func IsImageFilename(filename string) bool {
	ext := strings.ToLower(path.Ext(filename))
	_, ok := imageExtensions[ext]
	return ok
}
