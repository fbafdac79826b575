package recording

import (
	"errors"
	"fmt"
)

var (
	// ErrSessionNotFound is returned when no active session maps the
	// meeting id to a participant pair.
	ErrSessionNotFound = errors.New("no active session for meeting")

	// ErrStorageNotConfigured is returned before any download is
	// attempted when the destination bucket is unset.
	ErrStorageNotConfigured = errors.New("recording storage bucket not configured")
)

// DownloadError wraps a failure to fetch the provider-hosted file.
type DownloadError struct {
	URL string
	Err error
}

func (e *DownloadError) Error() string {
	return fmt.Sprintf("download recording from %s: %v", e.URL, e.Err)
}

func (e *DownloadError) Unwrap() error { return e.Err }

// PermissionError is an upload failure caused by missing bucket
// permissions. Its message names the capability the credentials lack so
// an operator can fix the policy without reading SDK internals.
type PermissionError struct {
	Bucket string
	Err    error
}

func (e *PermissionError) Error() string {
	return fmt.Sprintf(
		"storage permission denied: the configured credentials cannot write to bucket %q; "+
			"grant s3:PutObject on arn:aws:s3:::%s/* to the credential's IAM policy (original error: %v)",
		e.Bucket, e.Bucket, e.Err)
}

func (e *PermissionError) Unwrap() error { return e.Err }
