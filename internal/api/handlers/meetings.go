package handlers

import (
	"errors"

	"github.com/gofiber/fiber/v2"

	"github.com/harborhealth/harbor-backend/internal/api/middleware"
	"github.com/harborhealth/harbor-backend/internal/meeting"
	"github.com/harborhealth/harbor-backend/internal/recording"
	"github.com/harborhealth/harbor-backend/internal/repository"
	"github.com/harborhealth/harbor-backend/internal/services"
)

// StartMeeting creates a video room for a therapist and one of their
// clients and registers the live session
func StartMeeting(svc *services.Services) fiber.Handler {
	return func(c *fiber.Ctx) error {
		uc := middleware.GetUserContext(c)

		var req struct {
			ClientID string `json:"client_id"`
		}
		if err := c.BodyParser(&req); err != nil || req.ClientID == "" {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"error": "client_id is required",
			})
		}

		client, err := svc.Users.GetByID(c.Context(), req.ClientID)
		if err != nil {
			svc.Log.WithError(err).Error("failed to look up client")
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
				"error": "Failed to start meeting",
			})
		}
		if client == nil || client.TherapistID == nil || *client.TherapistID != uc.UserID {
			return c.Status(fiber.StatusForbidden).JSON(fiber.Map{
				"error": "Client is not linked to this therapist",
			})
		}

		roomID, err := svc.Rooms.CreateRoom(c.Context())
		if err != nil {
			if errors.Is(err, meeting.ErrRoomsNotConfigured) {
				return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{
					"error": "Video meetings are not configured",
				})
			}
			svc.Log.WithError(err).Error("failed to create room")
			return c.Status(fiber.StatusBadGateway).JSON(fiber.Map{
				"error": "Failed to create room",
			})
		}

		svc.Sessions.Put(roomID, client.ID, uc.UserID)

		token, err := svc.Rooms.Token(roomID, meeting.DefaultTokenTTL)
		if err != nil {
			svc.Log.WithError(err).Error("failed to sign room token")
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
				"error": "Failed to sign room token",
			})
		}

		return c.Status(fiber.StatusCreated).JSON(fiber.Map{
			"roomId": roomID,
			"token":  token,
		})
	}
}

// ActiveMeeting returns the caller's live session, if any. Absence is not
// an error; both fields come back null.
func ActiveMeeting(svc *services.Services) fiber.Handler {
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

		roomID, ok := svc.Sessions.FindByParticipants(clientID, therapistID)
		if !ok {
			return c.JSON(fiber.Map{"roomId": nil, "token": nil})
		}

		token, err := svc.Rooms.Token(roomID, meeting.DefaultTokenTTL)
		if err != nil {
			svc.Log.WithError(err).Error("failed to sign room token")
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
				"error": "Failed to sign room token",
			})
		}

		return c.JSON(fiber.Map{"roomId": roomID, "token": token})
	}
}

// MeetingToken issues a join token for a registered session
func MeetingToken(svc *services.Services) fiber.Handler {
	return func(c *fiber.Ctx) error {
		uc := middleware.GetUserContext(c)
		roomID := c.Query("roomId")
		if roomID == "" {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"error": "roomId is required",
			})
		}

		session, ok := svc.Sessions.Get(roomID)
		if !ok {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
				"error": "No active session for this room",
			})
		}
		if !canAccessPair(uc, session.ClientID, session.TherapistID) {
			return c.Status(fiber.StatusForbidden).JSON(fiber.Map{
				"error": "Insufficient permissions",
			})
		}

		token, err := svc.Rooms.Token(roomID, meeting.DefaultTokenTTL)
		if err != nil {
			svc.Log.WithError(err).Error("failed to sign room token")
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
				"error": "Failed to sign room token",
			})
		}

		return c.JSON(fiber.Map{"token": token})
	}
}

// ValidateMeeting checks a room against the video provider
func ValidateMeeting(svc *services.Services) fiber.Handler {
	return func(c *fiber.Ctx) error {
		valid, err := svc.Rooms.ValidateRoom(c.Context(), c.Params("roomId"))
		if err != nil {
			if errors.Is(err, meeting.ErrRoomsNotConfigured) {
				return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{
					"error": "Video meetings are not configured",
				})
			}
			svc.Log.WithError(err).Error("failed to validate room")
			return c.Status(fiber.StatusBadGateway).JSON(fiber.Map{
				"error": "Failed to validate room",
			})
		}

		return c.JSON(fiber.Map{"valid": valid})
	}
}

// RecordingWebhook receives provider callbacks when a recording becomes
// available. The provider retries on non-200, so every failure is
// swallowed after logging.
func RecordingWebhook(svc *services.Services) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var req struct {
			WebhookType string `json:"webhookType"`
			Data        struct {
				MeetingID string `json:"meetingId"`
				FileURL   string `json:"fileUrl"`
			} `json:"data"`
		}
		if err := c.BodyParser(&req); err != nil {
			svc.Log.WithError(err).Warn("unreadable recording webhook body")
			return c.JSON(fiber.Map{"message": "ok"})
		}

		if req.Data.MeetingID == "" || req.Data.FileURL == "" {
			svc.Log.WithField("webhookType", req.WebhookType).Debug("ignoring webhook without recording data")
			return c.JSON(fiber.Map{"message": "ok"})
		}

		if err := svc.Ingestor.Ingest(c.Context(), req.Data.MeetingID, req.Data.FileURL); err != nil {
			svc.Log.WithError(err).WithField("meetingId", req.Data.MeetingID).Error("recording ingestion failed")
		}

		return c.JSON(fiber.Map{"message": "ok"})
	}
}

// ManualSaveRecording ingests a recording on explicit request. Unlike the
// webhook, failures surface to the caller.
func ManualSaveRecording(svc *services.Services) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var req struct {
			MeetingID string `json:"meetingId"`
			FileURL   string `json:"fileUrl"`
		}
		if err := c.BodyParser(&req); err != nil || req.MeetingID == "" || req.FileURL == "" {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"message": "meetingId and fileUrl are required",
			})
		}

		err := svc.Ingestor.Ingest(c.Context(), req.MeetingID, req.FileURL)
		if err != nil {
			svc.Log.WithError(err).WithField("meetingId", req.MeetingID).Error("manual recording save failed")

			var permErr *recording.PermissionError
			var dlErr *recording.DownloadError
			switch {
			case errors.Is(err, recording.ErrSessionNotFound):
				return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
					"message": "No session found for this meeting",
				})
			case errors.Is(err, recording.ErrStorageNotConfigured):
				return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{
					"message": "Recording storage is not configured",
				})
			case errors.As(err, &permErr):
				return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
					"message": permErr.Error(),
				})
			case errors.As(err, &dlErr):
				return c.Status(fiber.StatusBadGateway).JSON(fiber.Map{
					"message": "Failed to download recording",
				})
			}
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
				"message": "Failed to save recording",
			})
		}

		return c.JSON(fiber.Map{"message": "Recording saved"})
	}
}
