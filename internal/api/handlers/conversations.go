package handlers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/harborhealth/harbor-backend/internal/api/middleware"
	"github.com/harborhealth/harbor-backend/internal/repository"
	"github.com/harborhealth/harbor-backend/internal/services"
)

// canAccessPair reports whether the caller may touch records owned by the
// given client/therapist pair.
func canAccessPair(uc *middleware.UserContext, clientID, therapistID string) bool {
	if uc == nil {
		return false
	}
	switch uc.Role {
	case repository.RoleAdmin:
		return true
	case repository.RoleTherapist:
		return uc.UserID == therapistID
	default:
		return uc.UserID == clientID
	}
}

// CreateConversation opens a new bot conversation for the caller
func CreateConversation(svc *services.Services) fiber.Handler {
	return func(c *fiber.Ctx) error {
		uc := middleware.GetUserContext(c)
		if uc.Role != repository.RoleClient {
			return c.Status(fiber.StatusForbidden).JSON(fiber.Map{
				"error": "Only clients can open conversations",
			})
		}
		if uc.TherapistID == "" {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"error": "Account has no linked therapist",
			})
		}

		conv := &repository.Conversation{
			ClientID:    uc.UserID,
			TherapistID: uc.TherapistID,
			Status:      repository.StatusOpen,
		}
		if err := svc.Conversations.Create(c.Context(), conv); err != nil {
			svc.Log.WithError(err).Error("failed to create conversation")
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
				"error": "Failed to create conversation",
			})
		}

		return c.Status(fiber.StatusCreated).JSON(conv)
	}
}

// ListConversations returns the caller's conversations, or a client's
// conversations when a therapist asks for one of their clients
func ListConversations(svc *services.Services) fiber.Handler {
	return func(c *fiber.Ctx) error {
		uc := middleware.GetUserContext(c)

		clientID := uc.UserID
		if uc.Role != repository.RoleClient {
			clientID = c.Query("client_id")
			if clientID == "" {
				return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
					"error": "client_id is required",
				})
			}
			client, err := svc.Users.GetByID(c.Context(), clientID)
			if err != nil {
				svc.Log.WithError(err).Error("failed to look up client")
				return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
					"error": "Failed to list conversations",
				})
			}
			if client == nil || !canAccessPair(uc, clientID, derefString(client.TherapistID)) {
				return c.Status(fiber.StatusForbidden).JSON(fiber.Map{
					"error": "Insufficient permissions",
				})
			}
		}

		conversations, err := svc.Conversations.ListByClient(c.Context(), clientID)
		if err != nil {
			svc.Log.WithError(err).Error("failed to list conversations")
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
				"error": "Failed to list conversations",
			})
		}

		return c.JSON(conversations)
	}
}

// GetConversation returns a single conversation from either generation
func GetConversation(svc *services.Services) fiber.Handler {
	return func(c *fiber.Ctx) error {
		conv, err := svc.Conversations.Get(c.Context(), c.Params("id"))
		if err != nil {
			svc.Log.WithError(err).Error("failed to get conversation")
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
				"error": "Failed to get conversation",
			})
		}
		if conv == nil {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
				"error": "Conversation not found",
			})
		}

		if !canAccessPair(middleware.GetUserContext(c), conv.ClientID, conv.TherapistID) {
			return c.Status(fiber.StatusForbidden).JSON(fiber.Map{
				"error": "Insufficient permissions",
			})
		}

		return c.JSON(conv)
	}
}

// CloseConversation marks a conversation closed
func CloseConversation(svc *services.Services) fiber.Handler {
	return func(c *fiber.Ctx) error {
		conv, err := svc.Conversations.Get(c.Context(), c.Params("id"))
		if err != nil {
			svc.Log.WithError(err).Error("failed to get conversation")
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
				"error": "Failed to close conversation",
			})
		}
		if conv == nil {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
				"error": "Conversation not found",
			})
		}
		if !canAccessPair(middleware.GetUserContext(c), conv.ClientID, conv.TherapistID) {
			return c.Status(fiber.StatusForbidden).JSON(fiber.Map{
				"error": "Insufficient permissions",
			})
		}
		if conv.Closed() {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"error": "Conversation is already closed",
			})
		}

		if err := svc.Conversations.Update(c.Context(), conv.ID, map[string]interface{}{
			"status": repository.StatusClosed,
		}); err != nil {
			svc.Log.WithError(err).Error("failed to close conversation")
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
				"error": "Failed to close conversation",
			})
		}

		conv.Status = repository.StatusClosed
		return c.JSON(conv)
	}
}

// DeleteConversation removes a current-generation conversation
func DeleteConversation(svc *services.Services) fiber.Handler {
	return func(c *fiber.Ctx) error {
		conv, err := svc.Conversations.Get(c.Context(), c.Params("id"))
		if err != nil {
			svc.Log.WithError(err).Error("failed to get conversation")
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
				"error": "Failed to delete conversation",
			})
		}
		if conv == nil {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
				"error": "Conversation not found",
			})
		}
		if !canAccessPair(middleware.GetUserContext(c), conv.ClientID, conv.TherapistID) {
			return c.Status(fiber.StatusForbidden).JSON(fiber.Map{
				"error": "Insufficient permissions",
			})
		}

		deleted, err := svc.Conversations.Delete(c.Context(), conv.ID)
		if err != nil {
			svc.Log.WithError(err).Error("failed to delete conversation")
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
				"error": "Failed to delete conversation",
			})
		}
		if deleted == 0 {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
				"error": "Conversation not found",
			})
		}

		return c.JSON(fiber.Map{"message": "Conversation deleted"})
	}
}

func derefString(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
