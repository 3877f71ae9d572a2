package images

import "errors"

// Errors returned by the catalog. Permission and token failures surface as
// the auth package's errors; storage failures are wrapped with %w.
var (
	// ErrAlreadyExists indicates intake of content whose hash is taken
	ErrAlreadyExists = errors.New("image already exists")
	// ErrNotFound indicates no record matches the requested hash
	ErrNotFound = errors.New("image not found")
)

// FileExt is the extension of every stored object; intake canonicalizes all
// uploads to PNG.
const FileExt = "png"

// View is the caller-facing projection of a stored image. It exposes where
// the bytes can be fetched from, never the bytes themselves.
type View struct {
	BaseURL string   `json:"baseUrl"`
	Hash    string   `json:"hash"`
	FileExt string   `json:"fileExt"`
	Name    string   `json:"name"`
	Tags    []string `json:"tags"`
}

// BlobKey is the object key of the full canonical image for a hash.
func BlobKey(hash string) string {
	return hash + "." + FileExt
}

// ThumbnailKey is the object key of the thumbnail for a hash.
func ThumbnailKey(hash string) string {
	return hash + "-thumbnail." + FileExt
}
