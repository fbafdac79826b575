package handlers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/harborhealth/harbor-backend/internal/api/middleware"
	"github.com/harborhealth/harbor-backend/internal/repository"
	"github.com/harborhealth/harbor-backend/internal/services"
)

// homeworkPair resolves the client/therapist pair for homework routes from
// the route parameter and the caller's role. Homework rows are keyed by
// both sides, so a mismatched pair simply matches nothing.
func homeworkPair(c *fiber.Ctx) (clientID, therapistID string, ok bool) {
	uc := middleware.GetUserContext(c)
	clientID = c.Params("clientId")

	switch uc.Role {
	case repository.RoleClient:
		if uc.UserID != clientID {
			return "", "", false
		}
		return clientID, uc.TherapistID, true
	case repository.RoleTherapist:
		return clientID, uc.UserID, true
	default:
		return clientID, c.Query("therapist_id"), true
	}
}

// CreateHomework assigns homework to a client
func CreateHomework(svc *services.Services) fiber.Handler {
	return func(c *fiber.Ctx) error {
		uc := middleware.GetUserContext(c)
		if uc.Role == repository.RoleClient {
			return c.Status(fiber.StatusForbidden).JSON(fiber.Map{
				"error": "Only therapists can assign homework",
			})
		}

		clientID, therapistID, ok := homeworkPair(c)
		if !ok {
			return c.Status(fiber.StatusForbidden).JSON(fiber.Map{
				"error": "Insufficient permissions",
			})
		}

		var req struct {
			Title  string `json:"title"`
			Prompt string `json:"prompt"`
		}
		if err := c.BodyParser(&req); err != nil || req.Title == "" || req.Prompt == "" {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"error": "title and prompt are required",
			})
		}

		hw := &repository.Homework{
			ClientID:    clientID,
			TherapistID: therapistID,
			Title:       req.Title,
			Prompt:      req.Prompt,
			Status:      repository.HomeworkPending,
		}
		if err := svc.Homework.Create(c.Context(), hw); err != nil {
			svc.Log.WithError(err).Error("failed to create homework")
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
				"error": "Failed to create homework",
			})
		}

		return c.Status(fiber.StatusCreated).JSON(hw)
	}
}

// ListHomework returns a client's homework
func ListHomework(svc *services.Services) fiber.Handler {
	return func(c *fiber.Ctx) error {
		clientID, therapistID, ok := homeworkPair(c)
		if !ok {
			return c.Status(fiber.StatusForbidden).JSON(fiber.Map{
				"error": "Insufficient permissions",
			})
		}

		items, err := svc.Homework.List(c.Context(), clientID, therapistID)
		if err != nil {
			svc.Log.WithError(err).Error("failed to list homework")
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
				"error": "Failed to list homework",
			})
		}

		return c.JSON(items)
	}
}

// GetHomework returns a single homework item
func GetHomework(svc *services.Services) fiber.Handler {
	return func(c *fiber.Ctx) error {
		clientID, therapistID, ok := homeworkPair(c)
		if !ok {
			return c.Status(fiber.StatusForbidden).JSON(fiber.Map{
				"error": "Insufficient permissions",
			})
		}

		hw, err := svc.Homework.Get(c.Context(), clientID, therapistID, c.Params("homeworkId"))
		if err != nil {
			svc.Log.WithError(err).Error("failed to get homework")
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
				"error": "Failed to get homework",
			})
		}
		if hw == nil {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
				"error": "Homework not found",
			})
		}

		return c.JSON(hw)
	}
}

// UpdateHomework updates a homework item. Clients may submit a response
// and mark completion; therapists may edit everything.
func UpdateHomework(svc *services.Services) fiber.Handler {
	return func(c *fiber.Ctx) error {
		uc := middleware.GetUserContext(c)
		clientID, therapistID, ok := homeworkPair(c)
		if !ok {
			return c.Status(fiber.StatusForbidden).JSON(fiber.Map{
				"error": "Insufficient permissions",
			})
		}

		var req struct {
			Title    *string `json:"title"`
			Prompt   *string `json:"prompt"`
			Response *string `json:"response"`
			Status   *string `json:"status"`
		}
		if err := c.BodyParser(&req); err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"error": "Invalid request body",
			})
		}

		updates := make(map[string]interface{})
		if uc.Role != repository.RoleClient {
			if req.Title != nil {
				updates["title"] = *req.Title
			}
			if req.Prompt != nil {
				updates["prompt"] = *req.Prompt
			}
		}
		if req.Response != nil {
			updates["response"] = *req.Response
		}
		if req.Status != nil {
			switch *req.Status {
			case repository.HomeworkPending, repository.HomeworkCompleted, repository.HomeworkArchived:
				updates["status"] = *req.Status
			default:
				return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
					"error": "Invalid status",
				})
			}
		}
		if len(updates) == 0 {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"error": "No fields to update",
			})
		}

		if err := svc.Homework.Update(c.Context(), clientID, therapistID, c.Params("homeworkId"), updates); err != nil {
			svc.Log.WithError(err).Error("failed to update homework")
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
				"error": "Failed to update homework",
			})
		}

		hw, err := svc.Homework.Get(c.Context(), clientID, therapistID, c.Params("homeworkId"))
		if err != nil || hw == nil {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
				"error": "Homework not found",
			})
		}

		return c.JSON(hw)
	}
}

// DeleteHomework removes a homework item
func DeleteHomework(svc *services.Services) fiber.Handler {
	return func(c *fiber.Ctx) error {
		uc := middleware.GetUserContext(c)
		if uc.Role == repository.RoleClient {
			return c.Status(fiber.StatusForbidden).JSON(fiber.Map{
				"error": "Only therapists can delete homework",
			})
		}

		clientID, therapistID, ok := homeworkPair(c)
		if !ok {
			return c.Status(fiber.StatusForbidden).JSON(fiber.Map{
				"error": "Insufficient permissions",
			})
		}

		deleted, err := svc.Homework.Delete(c.Context(), clientID, therapistID, c.Params("homeworkId"))
		if err != nil {
			svc.Log.WithError(err).Error("failed to delete homework")
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
				"error": "Failed to delete homework",
			})
		}
		if deleted == 0 {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
				"error": "Homework not found",
			})
		}

		return c.JSON(fiber.Map{"message": "Homework deleted"})
	}
}
