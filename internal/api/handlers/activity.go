package handlers

import (
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/harborhealth/harbor-backend/internal/api/middleware"
	"github.com/harborhealth/harbor-backend/internal/repository"
	"github.com/harborhealth/harbor-backend/internal/services"
)

const activityWindow = 7 * 24 * time.Hour

// RecentActivity returns the messages and homework created in the
// trailing week for a client/therapist pair
func RecentActivity(svc *services.Services) fiber.Handler {
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

		since := time.Now().Add(-activityWindow)

		messages, err := svc.Messages.ListSince(c.Context(), since, clientID, therapistID)
		if err != nil {
			svc.Log.WithError(err).Error("failed to list recent messages")
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
				"error": "Failed to list recent activity",
			})
		}

		homework, err := svc.Homework.ListSince(c.Context(), since, clientID, therapistID)
		if err != nil {
			svc.Log.WithError(err).Error("failed to list recent homework")
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
				"error": "Failed to list recent activity",
			})
		}

		return c.JSON(fiber.Map{
			"since":    since,
			"messages": messages,
			"homework": homework,
		})
	}
}
