package handlers

import (
	"errors"

	"github.com/gofiber/fiber/v2"

	"github.com/harborhealth/harbor-backend/internal/api/middleware"
	"github.com/harborhealth/harbor-backend/internal/botchat"
	"github.com/harborhealth/harbor-backend/internal/repository"
	"github.com/harborhealth/harbor-backend/internal/services"
)

// loadConversation fetches a conversation and enforces pair access. A nil
// conversation return means the response has already been written.
func loadConversation(svc *services.Services, c *fiber.Ctx) (*repository.Conversation, error) {
	conv, err := svc.Conversations.Get(c.Context(), c.Params("id"))
	if err != nil {
		svc.Log.WithError(err).Error("failed to get conversation")
		return nil, c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to get conversation",
		})
	}
	if conv == nil {
		return nil, c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"error": "Conversation not found",
		})
	}
	if !canAccessPair(middleware.GetUserContext(c), conv.ClientID, conv.TherapistID) {
		return nil, c.Status(fiber.StatusForbidden).JSON(fiber.Map{
			"error": "Insufficient permissions",
		})
	}
	return conv, nil
}

// ListMessages returns all messages in a conversation, oldest first
func ListMessages(svc *services.Services) fiber.Handler {
	return func(c *fiber.Ctx) error {
		conv, err := loadConversation(svc, c)
		if conv == nil {
			return err
		}

		messages, err := svc.Messages.ListByConversation(c.Context(), conv.ClientID, conv.ID)
		if err != nil {
			svc.Log.WithError(err).Error("failed to list messages")
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
				"error": "Failed to list messages",
			})
		}

		return c.JSON(messages)
	}
}

// CreateMessage posts a turn into a conversation. A user turn triggers a
// bot reply; a bot turn is persisted verbatim.
func CreateMessage(svc *services.Services) fiber.Handler {
	return func(c *fiber.Ctx) error {
		conv, err := loadConversation(svc, c)
		if conv == nil {
			return err
		}

		var req struct {
			Role    string `json:"role"`
			Content string `json:"content"`
		}
		if err := c.BodyParser(&req); err != nil || req.Content == "" {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"error": "content is required",
			})
		}
		if req.Role == "" {
			req.Role = repository.MessageRoleUser
		}

		switch req.Role {
		case repository.MessageRoleUser:
			turn, err := svc.Bot.PostUserTurn(c.Context(), conv.ID, conv.ClientID, conv.TherapistID, req.Content)
			if err != nil {
				return botTurnError(c, err)
			}
			return c.Status(fiber.StatusCreated).JSON(turn)

		case repository.MessageRoleBot:
			msg, err := svc.Bot.PostBotTurn(c.Context(), conv.ID, conv.ClientID, conv.TherapistID, req.Content)
			if err != nil {
				return botTurnError(c, err)
			}
			return c.JSON(msg)

		default:
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"error": "role must be user or bot",
			})
		}
	}
}

func botTurnError(c *fiber.Ctx, err error) error {
	switch {
	case errors.Is(err, botchat.ErrConversationClosed):
		return c.Status(fiber.StatusForbidden).JSON(fiber.Map{
			"error": "Cannot send messages to a closed conversation",
		})
	case errors.Is(err, botchat.ErrConversationNotFound):
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"error": "Conversation not found",
		})
	}
	return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
		"error": "Failed to post message",
	})
}

// GetMessage returns a single message
func GetMessage(svc *services.Services) fiber.Handler {
	return func(c *fiber.Ctx) error {
		conv, err := loadConversation(svc, c)
		if conv == nil {
			return err
		}

		msg, err := svc.Messages.Get(c.Context(), conv.ClientID, conv.ID, c.Params("messageId"))
		if err != nil {
			svc.Log.WithError(err).Error("failed to get message")
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
				"error": "Failed to get message",
			})
		}
		if msg == nil {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
				"error": "Message not found",
			})
		}

		return c.JSON(msg)
	}
}

// UpdateMessage replaces a message's content
func UpdateMessage(svc *services.Services) fiber.Handler {
	return func(c *fiber.Ctx) error {
		conv, err := loadConversation(svc, c)
		if conv == nil {
			return err
		}

		var req struct {
			Content string `json:"content"`
		}
		if err := c.BodyParser(&req); err != nil || req.Content == "" {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"error": "content is required",
			})
		}

		if err := svc.Messages.UpdateContent(c.Context(), conv.ClientID, conv.ID, c.Params("messageId"), req.Content); err != nil {
			svc.Log.WithError(err).Error("failed to update message")
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
				"error": "Failed to update message",
			})
		}

		return c.JSON(fiber.Map{"message": "Message updated"})
	}
}

// DeleteMessage removes a message
func DeleteMessage(svc *services.Services) fiber.Handler {
	return func(c *fiber.Ctx) error {
		conv, err := loadConversation(svc, c)
		if conv == nil {
			return err
		}

		deleted, err := svc.Messages.Delete(c.Context(), conv.ClientID, conv.ID, c.Params("messageId"))
		if err != nil {
			svc.Log.WithError(err).Error("failed to delete message")
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
				"error": "Failed to delete message",
			})
		}
		if deleted == 0 {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
				"error": "Message not found",
			})
		}

		return c.JSON(fiber.Map{"message": "Message deleted"})
	}
}
