package recording

import (
	"bytes"
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/harborhealth/harbor-backend/internal/meeting"
	"github.com/harborhealth/harbor-backend/internal/repository"
)

type fakeStore struct {
	bucket  string
	putKey  string
	putBody []byte
	putType string
	putErr  error
	puts    int
}

func (f *fakeStore) Configured() bool { return f.bucket != "" }
func (f *fakeStore) Bucket() string   { return f.bucket }

func (f *fakeStore) Put(_ context.Context, key string, body []byte, contentType string) (string, error) {
	f.puts++
	if f.putErr != nil {
		return "", f.putErr
	}
	f.putKey = key
	f.putBody = body
	f.putType = contentType
	return "https://" + f.bucket + ".s3.us-east-1.amazonaws.com/" + key, nil
}

func (f *fakeStore) PresignGet(_ context.Context, storedURL string, _ time.Duration) (string, error) {
	return storedURL + "?signed", nil
}

type fakeRecordings struct {
	created   []*repository.Recording
	createErr error
}

func (f *fakeRecordings) Create(_ context.Context, rec *repository.Recording) error {
	if f.createErr != nil {
		return f.createErr
	}
	f.created = append(f.created, rec)
	return nil
}

func (f *fakeRecordings) Get(context.Context, string) (*repository.Recording, error) {
	return nil, nil
}

func (f *fakeRecordings) ListByPair(context.Context, string, string) ([]*repository.Recording, error) {
	return nil, nil
}

func (f *fakeRecordings) Update(context.Context, string, map[string]interface{}) error {
	return nil
}

func (f *fakeRecordings) Delete(context.Context, string) (int64, error) {
	return 0, nil
}

func testLogger() *logrus.Logger {
	log := logrus.New()
	log.SetOutput(bytes.NewBuffer(nil))
	return log
}

func TestIngest_NoSessionPerformsNoDownload(t *testing.T) {
	var downloads atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		downloads.Add(1)
	}))
	defer srv.Close()

	store := &fakeStore{bucket: "recordings"}
	recs := &fakeRecordings{}
	ing := NewIngestor(meeting.NewRegistry(), store, recs, testLogger())

	err := ing.Ingest(context.Background(), "m1", srv.URL+"/file.webm")

	require.ErrorIs(t, err, ErrSessionNotFound)
	assert.Equal(t, int32(0), downloads.Load())
	assert.Equal(t, 0, store.puts)
	assert.Empty(t, recs.created)
}

func TestIngest_StorageUnconfiguredFailsBeforeDownload(t *testing.T) {
	var downloads atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		downloads.Add(1)
	}))
	defer srv.Close()

	sessions := meeting.NewRegistry()
	sessions.Put("m1", "c1", "t1")

	ing := NewIngestor(sessions, &fakeStore{}, &fakeRecordings{}, testLogger())

	err := ing.Ingest(context.Background(), "m1", srv.URL+"/file.webm")

	require.ErrorIs(t, err, ErrStorageNotConfigured)
	assert.Equal(t, int32(0), downloads.Load())

	// The session survives a refused ingestion so manual save can retry.
	_, ok := sessions.Get("m1")
	assert.True(t, ok)
}

func TestIngest_HappyPath(t *testing.T) {
	video := bytes.Repeat([]byte{0xAB}, 50*1024)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "video/webm")
		w.Write(video)
	}))
	defer srv.Close()

	sessions := meeting.NewRegistry()
	sessions.Put("m1", "c1", "t1")
	store := &fakeStore{bucket: "recordings"}
	recs := &fakeRecordings{}

	ing := NewIngestor(sessions, store, recs, testLogger())
	err := ing.Ingest(context.Background(), "m1", srv.URL+"/file.webm")
	require.NoError(t, err)

	require.Len(t, recs.created, 1)
	rec := recs.created[0]
	assert.Equal(t, "c1", rec.ClientID)
	assert.Equal(t, "t1", rec.TherapistID)
	assert.Nil(t, rec.Transcript)
	assert.Equal(t, "", rec.Analysis)
	assert.Equal(t, "https://recordings.s3.us-east-1.amazonaws.com/"+store.putKey, rec.StorageURL)

	assert.True(t, strings.HasPrefix(store.putKey, "meetings/c1/t1/"))
	assert.True(t, strings.HasSuffix(store.putKey, ".webm"))
	assert.Equal(t, video, store.putBody)
	assert.Equal(t, "video/webm", store.putType)

	_, ok := sessions.Get("m1")
	assert.False(t, ok, "session should be cleared after ingestion")
}

func TestIngest_DownloadFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "gone", http.StatusNotFound)
	}))
	defer srv.Close()

	sessions := meeting.NewRegistry()
	sessions.Put("m1", "c1", "t1")
	store := &fakeStore{bucket: "recordings"}

	ing := NewIngestor(sessions, store, &fakeRecordings{}, testLogger())
	err := ing.Ingest(context.Background(), "m1", srv.URL+"/file.webm")

	var dlErr *DownloadError
	require.ErrorAs(t, err, &dlErr)
	assert.Equal(t, 0, store.puts)
}

func TestIngest_DefaultContentTypeExtension(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/octet-stream")
		w.Write([]byte("data"))
	}))
	defer srv.Close()

	sessions := meeting.NewRegistry()
	sessions.Put("m1", "c1", "t1")
	store := &fakeStore{bucket: "recordings"}

	ing := NewIngestor(sessions, store, &fakeRecordings{}, testLogger())
	require.NoError(t, ing.Ingest(context.Background(), "m1", srv.URL+"/file"))

	assert.True(t, strings.HasSuffix(store.putKey, ".webm"))
}

func TestIngest_PersistFailureStillClearsSession(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "video/mp4")
		w.Write([]byte("data"))
	}))
	defer srv.Close()

	sessions := meeting.NewRegistry()
	sessions.Put("m1", "c1", "t1")
	recs := &fakeRecordings{createErr: errors.New("db down")}

	ing := NewIngestor(sessions, &fakeStore{bucket: "recordings"}, recs, testLogger())
	err := ing.Ingest(context.Background(), "m1", srv.URL+"/file.mp4")

	// The object is durably stored; persistence failure is logged, not
	// surfaced, and the session entry does not outlive the upload.
	require.NoError(t, err)
	_, ok := sessions.Get("m1")
	assert.False(t, ok)
}

func TestIngest_TwoIngestionsCreateTwoRecordings(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "video/webm")
		w.Write([]byte("data"))
	}))
	defer srv.Close()

	sessions := meeting.NewRegistry()
	store := &fakeStore{bucket: "recordings"}
	recs := &fakeRecordings{}
	ing := NewIngestor(sessions, store, recs, testLogger())

	sessions.Put("m1", "c1", "t1")
	require.NoError(t, ing.Ingest(context.Background(), "m1", srv.URL+"/a.webm"))
	sessions.Put("m1", "c1", "t1")
	require.NoError(t, ing.Ingest(context.Background(), "m1", srv.URL+"/a.webm"))

	require.Len(t, recs.created, 2)
	assert.NotEqual(t, recs.created[0].ID, recs.created[1].ID)
}
