package recording

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPermissionErrorNamesMissingCapability(t *testing.T) {
	err := &PermissionError{Bucket: "session-recordings", Err: errors.New("Access Denied")}

	msg := err.Error()
	assert.Contains(t, msg, "s3:PutObject")
	assert.Contains(t, msg, `"session-recordings"`)
	assert.Contains(t, msg, "arn:aws:s3:::session-recordings/*")
}

func TestDownloadErrorUnwraps(t *testing.T) {
	cause := errors.New("connection refused")
	err := &DownloadError{URL: "https://cdn.example.com/f.webm", Err: cause}

	assert.ErrorIs(t, err, cause)
	assert.Contains(t, err.Error(), "cdn.example.com")
}
