package handlers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/harborhealth/harbor-backend/internal/api/middleware"
	"github.com/harborhealth/harbor-backend/internal/repository"
	"github.com/harborhealth/harbor-backend/internal/services"
)

// CreateCarePlan stores a therapist-written care plan
func CreateCarePlan(svc *services.Services) fiber.Handler {
	return func(c *fiber.Ctx) error {
		uc := middleware.GetUserContext(c)

		var req struct {
			ClientID    string  `json:"client_id"`
			Name        *string `json:"name"`
			Description string  `json:"description"`
		}
		if err := c.BodyParser(&req); err != nil || req.ClientID == "" || req.Description == "" {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"error": "client_id and description are required",
			})
		}

		plan := &repository.CarePlan{
			ClientID:    req.ClientID,
			TherapistID: uc.UserID,
			Name:        req.Name,
			Description: req.Description,
		}
		if err := svc.CarePlans.Create(c.Context(), plan); err != nil {
			svc.Log.WithError(err).Error("failed to create care plan")
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
				"error": "Failed to create care plan",
			})
		}

		return c.Status(fiber.StatusCreated).JSON(plan)
	}
}

// GenerateCarePlan drafts a care plan from a conversation's message
// history and links it to the conversation, which closes the conversation.
func GenerateCarePlan(svc *services.Services) fiber.Handler {
	return func(c *fiber.Ctx) error {
		uc := middleware.GetUserContext(c)

		if svc.GenAI == nil {
			return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{
				"error": "Plan generation is not available",
			})
		}

		var req struct {
			ConversationID string  `json:"conversation_id"`
			Name           *string `json:"name"`
		}
		if err := c.BodyParser(&req); err != nil || req.ConversationID == "" {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"error": "conversation_id is required",
			})
		}

		conv, err := svc.Conversations.Get(c.Context(), req.ConversationID)
		if err != nil {
			svc.Log.WithError(err).Error("failed to get conversation")
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
				"error": "Failed to generate care plan",
			})
		}
		if conv == nil {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
				"error": "Conversation not found",
			})
		}
		if !canAccessPair(uc, conv.ClientID, conv.TherapistID) {
			return c.Status(fiber.StatusForbidden).JSON(fiber.Map{
				"error": "Insufficient permissions",
			})
		}

		messages, err := svc.Messages.ListByConversation(c.Context(), conv.ClientID, conv.ID)
		if err != nil {
			svc.Log.WithError(err).Error("failed to list messages")
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
				"error": "Failed to generate care plan",
			})
		}
		if len(messages) == 0 {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"error": "Conversation has no messages",
			})
		}

		history := make([]string, len(messages))
		for i, m := range messages {
			history[i] = m.Role + ": " + m.Content
		}

		description, err := svc.GenAI.TreatmentPlan(c.Context(), history)
		if err != nil || description == "" {
			svc.Log.WithError(err).Error("plan generation failed")
			return c.Status(fiber.StatusBadGateway).JSON(fiber.Map{
				"error": "Failed to generate care plan",
			})
		}

		plan := &repository.CarePlan{
			ClientID:       conv.ClientID,
			TherapistID:    conv.TherapistID,
			ConversationID: &conv.ID,
			Name:           req.Name,
			Description:    description,
		}
		if err := svc.CarePlans.Create(c.Context(), plan); err != nil {
			svc.Log.WithError(err).Error("failed to store care plan")
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
				"error": "Failed to store care plan",
			})
		}

		// Linking the plan closes the conversation. A failure here leaves
		// the plan in place, so it is logged rather than surfaced.
		if err := svc.Conversations.Update(c.Context(), conv.ID, map[string]interface{}{
			"care_plan_id": plan.ID,
			"status":       repository.StatusClosed,
		}); err != nil {
			svc.Log.WithError(err).Error("failed to link care plan to conversation")
		}

		return c.Status(fiber.StatusCreated).JSON(plan)
	}
}

// GetCarePlan returns a single care plan
func GetCarePlan(svc *services.Services) fiber.Handler {
	return func(c *fiber.Ctx) error {
		plan, err := svc.CarePlans.Get(c.Context(), c.Params("id"))
		if err != nil {
			svc.Log.WithError(err).Error("failed to get care plan")
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
				"error": "Failed to get care plan",
			})
		}
		if plan == nil {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
				"error": "Care plan not found",
			})
		}
		if !canAccessPair(middleware.GetUserContext(c), plan.ClientID, plan.TherapistID) {
			return c.Status(fiber.StatusForbidden).JSON(fiber.Map{
				"error": "Insufficient permissions",
			})
		}

		return c.JSON(plan)
	}
}

// UpdateCarePlan updates a care plan's name or description
func UpdateCarePlan(svc *services.Services) fiber.Handler {
	return func(c *fiber.Ctx) error {
		plan, err := svc.CarePlans.Get(c.Context(), c.Params("id"))
		if err != nil {
			svc.Log.WithError(err).Error("failed to get care plan")
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
				"error": "Failed to update care plan",
			})
		}
		if plan == nil {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
				"error": "Care plan not found",
			})
		}
		uc := middleware.GetUserContext(c)
		if uc.UserID != plan.TherapistID && uc.Role != repository.RoleAdmin {
			return c.Status(fiber.StatusForbidden).JSON(fiber.Map{
				"error": "Insufficient permissions",
			})
		}

		var req struct {
			Name        *string `json:"name"`
			Description *string `json:"description"`
		}
		if err := c.BodyParser(&req); err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"error": "Invalid request body",
			})
		}

		updates := make(map[string]interface{})
		if req.Name != nil {
			updates["name"] = *req.Name
		}
		if req.Description != nil {
			updates["description"] = *req.Description
		}
		if len(updates) == 0 {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"error": "No fields to update",
			})
		}

		if err := svc.CarePlans.Update(c.Context(), plan.ID, updates); err != nil {
			svc.Log.WithError(err).Error("failed to update care plan")
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
				"error": "Failed to update care plan",
			})
		}

		updated, err := svc.CarePlans.Get(c.Context(), plan.ID)
		if err != nil || updated == nil {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
				"error": "Care plan not found",
			})
		}

		return c.JSON(updated)
	}
}

// DeleteCarePlan removes a care plan
func DeleteCarePlan(svc *services.Services) fiber.Handler {
	return func(c *fiber.Ctx) error {
		plan, err := svc.CarePlans.Get(c.Context(), c.Params("id"))
		if err != nil {
			svc.Log.WithError(err).Error("failed to get care plan")
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
				"error": "Failed to delete care plan",
			})
		}
		if plan == nil {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
				"error": "Care plan not found",
			})
		}
		uc := middleware.GetUserContext(c)
		if uc.UserID != plan.TherapistID && uc.Role != repository.RoleAdmin {
			return c.Status(fiber.StatusForbidden).JSON(fiber.Map{
				"error": "Insufficient permissions",
			})
		}

		if _, err := svc.CarePlans.Delete(c.Context(), plan.ID); err != nil {
			svc.Log.WithError(err).Error("failed to delete care plan")
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
				"error": "Failed to delete care plan",
			})
		}

		return c.JSON(fiber.Map{"message": "Care plan deleted"})
	}
}
