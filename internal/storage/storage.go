package storage

import (
	"context"
	"errors"
	"io"
	"path/filepath"
	"strings"

	"snapbooth/site/internal/domain"
)

// CacheControl is sent with every served upload. Stored names are never reused, so the body never changes.
const CacheControl = "public, max-age=31536000, immutable"

// FileStore defines durable storage for uploaded files.
type FileStore interface {
	// Save copies src into durable storage under a freshly generated unique name.
	Save(ctx context.Context, originalName, contentType string, src io.Reader) (domain.StoredFile, error)
	// Path returns where a name returned by Save lives locally.
	Path(storageName string) string
}

// Mirror replicates a stored file to a secondary location. Failures never affect the primary copy.
type Mirror interface {
	Mirror(ctx context.Context, file domain.StoredFile, localPath string) error
}

// Error constants for the storage layer
var (
	ErrInvalidName = errors.New("invalid file name")
	ErrTraversal   = errors.New("path escapes storage root")
	ErrNotFound    = errors.New("file not found")
)

var contentTypes = map[string]string{
	".jpg":  "image/jpeg",
	".jpeg": "image/jpeg",
	".png":  "image/png",
	".gif":  "image/gif",
	".webp": "image/webp",
	".svg":  "image/svg+xml",
	".heic": "image/heic",
	".heif": "image/heif",
	".bmp":  "image/bmp",
	".tif":  "image/tiff",
	".tiff": "image/tiff",
	".ico":  "image/x-icon",
	".pdf":  "application/pdf",
	".ai":   "application/postscript",
	".eps":  "application/postscript",
}

// ContentTypeFor maps a file extension to a MIME type, defaulting to a generic binary type.
func ContentTypeFor(name string) string {
	if ct, ok := contentTypes[strings.ToLower(filepath.Ext(name))]; ok {
		return ct
	}
	return "application/octet-stream"
}
