package handlers

import (
	"context"
	"encoding/json"
	"io"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/harborhealth/harbor-backend/internal/meeting"
	"github.com/harborhealth/harbor-backend/internal/recording"
	"github.com/harborhealth/harbor-backend/internal/repository"
	"github.com/harborhealth/harbor-backend/internal/services"
)

type stubStore struct {
	configured bool
}

func (s *stubStore) Configured() bool { return s.configured }
func (s *stubStore) Bucket() string   { return "harbor-recordings" }
func (s *stubStore) Put(ctx context.Context, key string, body []byte, contentType string) (string, error) {
	return "https://harbor-recordings.s3.us-east-1.amazonaws.com/" + key, nil
}
func (s *stubStore) PresignGet(ctx context.Context, storedURL string, expiry time.Duration) (string, error) {
	return storedURL + "?signed", nil
}

type stubRecordings struct {
	created []*repository.Recording
}

func (s *stubRecordings) Create(ctx context.Context, rec *repository.Recording) error {
	if rec.ID == "" {
		rec.ID = "rec-1"
	}
	s.created = append(s.created, rec)
	return nil
}

func (s *stubRecordings) Get(ctx context.Context, id string) (*repository.Recording, error) {
	return nil, nil
}

func (s *stubRecordings) ListByPair(ctx context.Context, clientID, therapistID string) ([]*repository.Recording, error) {
	return nil, nil
}

func (s *stubRecordings) Update(ctx context.Context, id string, updates map[string]interface{}) error {
	return nil
}

func (s *stubRecordings) Delete(ctx context.Context, id string) (int64, error) { return 0, nil }

func newWebhookApp(t *testing.T, sessions *meeting.Registry, store *stubStore, recs *stubRecordings) *fiber.App {
	t.Helper()
	log := logrus.New()
	log.SetOutput(io.Discard)

	svc := &services.Services{
		Log:      log,
		Sessions: sessions,
		Ingestor: recording.NewIngestor(sessions, store, recs, log),
	}

	app := fiber.New()
	app.Post("/api/v1/meetings/recording-webhook", RecordingWebhook(svc))
	app.Post("/api/v1/meetings/manual-save", ManualSaveRecording(svc))
	return app
}

func TestRecordingWebhookAlwaysReturns200(t *testing.T) {
	sessions := meeting.NewRegistry()
	app := newWebhookApp(t, sessions, &stubStore{configured: true}, &stubRecordings{})

	// Unknown meeting: ingestion fails but the provider still gets 200.
	req := httptest.NewRequest("POST", "/api/v1/meetings/recording-webhook",
		strings.NewReader(`{"webhookType":"recording-stopped","data":{"meetingId":"m-unknown","fileUrl":"https://cdn.example.com/file.webm"}}`))
	req.Header.Set("Content-Type", "application/json")

	resp, err := app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)

	// Malformed body: still 200.
	req = httptest.NewRequest("POST", "/api/v1/meetings/recording-webhook", strings.NewReader("not json"))
	req.Header.Set("Content-Type", "application/json")

	resp, err = app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)

	// Non-recording event without file data: acknowledged and ignored.
	req = httptest.NewRequest("POST", "/api/v1/meetings/recording-webhook",
		strings.NewReader(`{"webhookType":"participant-joined","data":{}}`))
	req.Header.Set("Content-Type", "application/json")

	resp, err = app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)
}

func TestManualSaveSurfacesErrors(t *testing.T) {
	sessions := meeting.NewRegistry()
	app := newWebhookApp(t, sessions, &stubStore{configured: true}, &stubRecordings{})

	// No session registered for the meeting.
	req := httptest.NewRequest("POST", "/api/v1/meetings/manual-save",
		strings.NewReader(`{"meetingId":"m-unknown","fileUrl":"https://cdn.example.com/file.webm"}`))
	req.Header.Set("Content-Type", "application/json")

	resp, err := app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusNotFound, resp.StatusCode)

	var body struct {
		Message string `json:"message"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	assert.NotEmpty(t, body.Message)

	// Missing fields.
	req = httptest.NewRequest("POST", "/api/v1/meetings/manual-save", strings.NewReader(`{}`))
	req.Header.Set("Content-Type", "application/json")

	resp, err = app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode)
}

func TestManualSaveUnconfiguredStorage(t *testing.T) {
	sessions := meeting.NewRegistry()
	sessions.Put("m-1", "client-1", "therapist-1")
	app := newWebhookApp(t, sessions, &stubStore{configured: false}, &stubRecordings{})

	req := httptest.NewRequest("POST", "/api/v1/meetings/manual-save",
		strings.NewReader(`{"meetingId":"m-1","fileUrl":"https://cdn.example.com/file.webm"}`))
	req.Header.Set("Content-Type", "application/json")

	resp, err := app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusServiceUnavailable, resp.StatusCode)

	// The session survives a refused ingestion.
	_, ok := sessions.Get("m-1")
	assert.True(t, ok)
}
