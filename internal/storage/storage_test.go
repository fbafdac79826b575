package storage

import (
	"errors"
	"testing"

	"github.com/minio/minio-go/v7"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExtensionForContentType(t *testing.T) {
	tests := []struct {
		contentType string
		want        string
	}{
		{"video/webm", "webm"},
		{"video/mp4", "mp4"},
		{"video/ogg", "ogv"},
		{"video/quicktime", "mov"},
		{"application/octet-stream", "webm"},
		{"", "webm"},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, ExtensionForContentType(tt.contentType), "content type %q", tt.contentType)
	}
}

func TestKeyFromURL(t *testing.T) {
	key, err := KeyFromURL("https://bucket.s3.us-east-1.amazonaws.com/meetings/c1/t1/abc.webm")
	require.NoError(t, err)
	assert.Equal(t, "meetings/c1/t1/abc.webm", key)
}

func TestKeyFromURL_NoKey(t *testing.T) {
	_, err := KeyFromURL("https://bucket.s3.us-east-1.amazonaws.com/")
	assert.Error(t, err)
}

func TestIsAccessDenied(t *testing.T) {
	assert.True(t, IsAccessDenied(minio.ErrorResponse{Code: "AccessDenied"}))
	assert.False(t, IsAccessDenied(minio.ErrorResponse{Code: "NoSuchBucket"}))
	assert.False(t, IsAccessDenied(errors.New("connection reset")))
	assert.False(t, IsAccessDenied(nil))
}
