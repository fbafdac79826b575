package handlers

import (
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/harborhealth/harbor-backend/internal/api/middleware"
	"github.com/harborhealth/harbor-backend/internal/repository"
	"github.com/harborhealth/harbor-backend/internal/services"
)

const presignTTL = time.Hour

// presentRecording swaps the stored object URL for a short-lived signed
// one. Signing failures fall back to the stored URL so listings still
// render.
func presentRecording(svc *services.Services, c *fiber.Ctx, rec *repository.Recording) *repository.Recording {
	signed, err := svc.Storage.PresignGet(c.Context(), rec.StorageURL, presignTTL)
	if err != nil {
		svc.Log.WithError(err).WithField("recording", rec.ID).Warn("failed to presign recording url")
		return rec
	}
	out := *rec
	out.StorageURL = signed
	return &out
}

// CreateRecording stores recording metadata directly, for recordings
// uploaded outside the ingestion path
func CreateRecording(svc *services.Services) fiber.Handler {
	return func(c *fiber.Ctx) error {
		uc := middleware.GetUserContext(c)

		var req struct {
			ClientID   string `json:"client_id"`
			StorageURL string `json:"storage_url"`
		}
		if err := c.BodyParser(&req); err != nil || req.ClientID == "" || req.StorageURL == "" {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"error": "client_id and storage_url are required",
			})
		}

		rec := &repository.Recording{
			ClientID:    req.ClientID,
			TherapistID: uc.UserID,
			StorageURL:  req.StorageURL,
		}
		if err := svc.Recordings.Create(c.Context(), rec); err != nil {
			svc.Log.WithError(err).Error("failed to create recording")
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
				"error": "Failed to create recording",
			})
		}

		return c.Status(fiber.StatusCreated).JSON(rec)
	}
}

// ListRecordings returns the recordings for a client/therapist pair
func ListRecordings(svc *services.Services) fiber.Handler {
	return func(c *fiber.Ctx) error {
		uc := middleware.GetUserContext(c)

		var clientID, therapistID string
		switch uc.Role {
		case repository.RoleClient:
			clientID, therapistID = uc.UserID, uc.TherapistID
		case repository.RoleTherapist:
			clientID, therapistID = c.Query("client_id"), uc.UserID
		default:
			clientID, therapistID = c.Query("client_id"), c.Query("therapist_id")
		}
		if clientID == "" || therapistID == "" {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"error": "client_id is required",
			})
		}

		recordings, err := svc.Recordings.ListByPair(c.Context(), clientID, therapistID)
		if err != nil {
			svc.Log.WithError(err).Error("failed to list recordings")
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
				"error": "Failed to list recordings",
			})
		}

		out := make([]*repository.Recording, len(recordings))
		for i, rec := range recordings {
			out[i] = presentRecording(svc, c, rec)
		}

		return c.JSON(out)
	}
}

// GetRecording returns a single recording with a signed playback URL
func GetRecording(svc *services.Services) fiber.Handler {
	return func(c *fiber.Ctx) error {
		rec, err := svc.Recordings.Get(c.Context(), c.Params("id"))
		if err != nil {
			svc.Log.WithError(err).Error("failed to get recording")
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
				"error": "Failed to get recording",
			})
		}
		if rec == nil {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
				"error": "Recording not found",
			})
		}
		if !canAccessPair(middleware.GetUserContext(c), rec.ClientID, rec.TherapistID) {
			return c.Status(fiber.StatusForbidden).JSON(fiber.Map{
				"error": "Insufficient permissions",
			})
		}

		return c.JSON(presentRecording(svc, c, rec))
	}
}

// DeleteRecording removes a recording's metadata
func DeleteRecording(svc *services.Services) fiber.Handler {
	return func(c *fiber.Ctx) error {
		uc := middleware.GetUserContext(c)
		if uc.Role == repository.RoleClient {
			return c.Status(fiber.StatusForbidden).JSON(fiber.Map{
				"error": "Only therapists can delete recordings",
			})
		}

		rec, err := svc.Recordings.Get(c.Context(), c.Params("id"))
		if err != nil {
			svc.Log.WithError(err).Error("failed to get recording")
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
				"error": "Failed to delete recording",
			})
		}
		if rec == nil {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
				"error": "Recording not found",
			})
		}
		if uc.Role == repository.RoleTherapist && rec.TherapistID != uc.UserID {
			return c.Status(fiber.StatusForbidden).JSON(fiber.Map{
				"error": "Insufficient permissions",
			})
		}

		if _, err := svc.Recordings.Delete(c.Context(), rec.ID); err != nil {
			svc.Log.WithError(err).Error("failed to delete recording")
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
				"error": "Failed to delete recording",
			})
		}

		return c.JSON(fiber.Map{"message": "Recording deleted"})
	}
}

// TranscribeRecording runs speech-to-text over a stored recording and
// saves the transcript, plus a generated session analysis when possible
func TranscribeRecording(svc *services.Services) fiber.Handler {
	return func(c *fiber.Ctx) error {
		rec, err := svc.Recordings.Get(c.Context(), c.Params("id"))
		if err != nil {
			svc.Log.WithError(err).Error("failed to get recording")
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
				"error": "Failed to transcribe recording",
			})
		}
		if rec == nil {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
				"error": "Recording not found",
			})
		}
		if !canAccessPair(middleware.GetUserContext(c), rec.ClientID, rec.TherapistID) {
			return c.Status(fiber.StatusForbidden).JSON(fiber.Map{
				"error": "Insufficient permissions",
			})
		}

		audioURL, err := svc.Storage.PresignGet(c.Context(), rec.StorageURL, presignTTL)
		if err != nil {
			audioURL = rec.StorageURL
		}

		transcript, err := svc.Transcriber.Transcribe(c.Context(), audioURL)
		if err != nil {
			svc.Log.WithError(err).WithField("recording", rec.ID).Error("transcription failed")
			return c.Status(fiber.StatusBadGateway).JSON(fiber.Map{
				"error": "Failed to transcribe recording",
			})
		}
		if transcript == "" {
			return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{
				"error": "Transcription produced no text",
			})
		}

		updates := map[string]interface{}{"transcript": transcript}

		// Analysis is best-effort; a transcript without one is still
		// worth keeping.
		if svc.GenAI != nil {
			analysis, err := svc.GenAI.SessionAnalysis(c.Context(), transcript)
			if err != nil {
				svc.Log.WithError(err).WithField("recording", rec.ID).Warn("session analysis failed")
			} else if analysis != "" {
				updates["analysis"] = analysis
			}
		}

		if err := svc.Recordings.Update(c.Context(), rec.ID, updates); err != nil {
			svc.Log.WithError(err).Error("failed to store transcript")
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
				"error": "Failed to store transcript",
			})
		}

		updated, err := svc.Recordings.Get(c.Context(), rec.ID)
		if err != nil || updated == nil {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
				"error": "Recording not found",
			})
		}

		return c.JSON(presentRecording(svc, c, updated))
	}
}
