// Package recording turns a provider-hosted recording file into a durably
// stored, database-indexed recording record.
package recording

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"github.com/harborhealth/harbor-backend/internal/meeting"
	"github.com/harborhealth/harbor-backend/internal/repository"
	"github.com/harborhealth/harbor-backend/internal/storage"
)

// Ingestor runs the ingestion pipeline: resolve the session, download the
// file, re-upload it to object storage, persist the metadata, clear the
// session. Both the provider webhook and the manual-save endpoint funnel
// into Ingest.
type Ingestor struct {
	sessions   meeting.SessionStore
	store      storage.ObjectStore
	recordings repository.RecordingRepository
	client     *http.Client
	log        *logrus.Logger
}

// NewIngestor creates an ingestor.
func NewIngestor(sessions meeting.SessionStore, store storage.ObjectStore, recordings repository.RecordingRepository, log *logrus.Logger) *Ingestor {
	return &Ingestor{
		sessions:   sessions,
		store:      store,
		recordings: recordings,
		client:     &http.Client{Timeout: 5 * time.Minute},
		log:        log,
	}
}

// Ingest processes one finished recording. There is no idempotency guard:
// ingesting the same meeting twice creates two recordings, each under a
// fresh id. In practice the provider fires once and manual save is
// user-triggered once.
func (i *Ingestor) Ingest(ctx context.Context, meetingID, fileURL string) error {
	session, ok := i.sessions.Get(meetingID)
	if !ok {
		return fmt.Errorf("meeting %s: %w", meetingID, ErrSessionNotFound)
	}

	// Refuse before downloading; a missing bucket should not cost a
	// multi-megabyte fetch.
	if !i.store.Configured() {
		return ErrStorageNotConfigured
	}

	i.log.WithFields(logrus.Fields{
		"meeting_id":   meetingID,
		"client_id":    session.ClientID,
		"therapist_id": session.TherapistID,
	}).Info("ingesting recording")

	body, contentType, err := i.download(ctx, fileURL)
	if err != nil {
		return err
	}

	recordingID := uuid.New().String()
	ext := storage.ExtensionForContentType(contentType)
	key := fmt.Sprintf("meetings/%s/%s/%s.%s", session.ClientID, session.TherapistID, recordingID, ext)

	storedURL, err := i.store.Put(ctx, key, body, contentType)
	if err != nil {
		if storage.IsAccessDenied(err) {
			return &PermissionError{Bucket: i.store.Bucket(), Err: err}
		}
		return fmt.Errorf("upload recording: %w", err)
	}

	rec := &repository.Recording{
		ID:          recordingID,
		ClientID:    session.ClientID,
		TherapistID: session.TherapistID,
		StorageURL:  storedURL,
		Transcript:  nil,
		Analysis:    "",
	}
	if err := i.recordings.Create(ctx, rec); err != nil {
		// The object is already durably stored; losing the metadata row
		// is recoverable and must not keep the session entry alive.
		i.log.WithError(err).WithField("recording_id", recordingID).
			Error("recording uploaded but metadata persistence failed")
	}

	i.sessions.Remove(meetingID)

	i.log.WithFields(logrus.Fields{
		"recording_id": recordingID,
		"storage_url":  storedURL,
		"bytes":        len(body),
	}).Info("recording ingested")

	return nil
}

func (i *Ingestor) download(ctx context.Context, fileURL string) ([]byte, string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, fileURL, nil)
	if err != nil {
		return nil, "", &DownloadError{URL: fileURL, Err: err}
	}

	resp, err := i.client.Do(req)
	if err != nil {
		return nil, "", &DownloadError{URL: fileURL, Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, "", &DownloadError{URL: fileURL, Err: fmt.Errorf("unexpected status %s", resp.Status)}
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, "", &DownloadError{URL: fileURL, Err: err}
	}

	contentType := resp.Header.Get("Content-Type")
	if contentType == "" {
		contentType = "video/mp4"
	}
	return body, contentType, nil
}
