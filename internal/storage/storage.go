// Package storage puts ingested recordings in an S3-compatible object
// store and hands out time-limited playback URLs.
package storage

import (
	"context"
	"time"
)

// ObjectStore abstracts the durable store for recording files.
type ObjectStore interface {
	// Configured reports whether a destination bucket is set. Callers
	// must check this before doing any work that feeds an upload.
	Configured() bool
	// Bucket returns the destination bucket name, for diagnostics.
	Bucket() string
	// Put uploads bytes under key and returns the stored object's URL.
	Put(ctx context.Context, key string, body []byte, contentType string) (string, error)
	// PresignGet converts a stored object URL into a time-limited GET URL.
	PresignGet(ctx context.Context, storedURL string, expiry time.Duration) (string, error)
}

// extensions maps video MIME types to file extensions. Unrecognized types
// fall back to webm, the container the call provider records in.
var extensions = map[string]string{
	"video/webm":      "webm",
	"video/mp4":       "mp4",
	"video/ogg":       "ogv",
	"video/quicktime": "mov",
}

// ExtensionForContentType returns the file extension for a video MIME
// type, defaulting to webm.
func ExtensionForContentType(contentType string) string {
	if ext, ok := extensions[contentType]; ok {
		return ext
	}
	return "webm"
}
