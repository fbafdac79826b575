package handlers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/harborhealth/harbor-backend/internal/api/middleware"
	"github.com/harborhealth/harbor-backend/internal/repository"
	"github.com/harborhealth/harbor-backend/internal/services"
)

// GetUser returns a single account
func GetUser(svc *services.Services) fiber.Handler {
	return func(c *fiber.Ctx) error {
		user, err := svc.Users.GetByID(c.Context(), c.Params("id"))
		if err != nil {
			svc.Log.WithError(err).Error("failed to get user")
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
				"error": "Failed to get user",
			})
		}
		if user == nil {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
				"error": "User not found",
			})
		}

		return c.JSON(user)
	}
}

// ListTherapists returns all therapist accounts
func ListTherapists(svc *services.Services) fiber.Handler {
	return func(c *fiber.Ctx) error {
		// A therapist can be looked up by email to link a new client.
		if email := c.Query("email"); email != "" {
			therapist, err := svc.Users.GetTherapistByEmail(c.Context(), email)
			if err != nil {
				svc.Log.WithError(err).Error("failed to look up therapist")
				return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
					"error": "Failed to look up therapist",
				})
			}
			if therapist == nil {
				return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
					"error": "Therapist not found",
				})
			}
			return c.JSON(therapist)
		}

		therapists, err := svc.Users.ListTherapists(c.Context())
		if err != nil {
			svc.Log.WithError(err).Error("failed to list therapists")
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
				"error": "Failed to list therapists",
			})
		}

		return c.JSON(therapists)
	}
}

// ListClients returns the clients linked to a therapist
func ListClients(svc *services.Services) fiber.Handler {
	return func(c *fiber.Ctx) error {
		uc := middleware.GetUserContext(c)
		therapistID := c.Params("id")
		if uc.UserID != therapistID && uc.Role != repository.RoleAdmin {
			return c.Status(fiber.StatusForbidden).JSON(fiber.Map{
				"error": "Insufficient permissions",
			})
		}

		clients, err := svc.Users.ListClients(c.Context(), therapistID)
		if err != nil {
			svc.Log.WithError(err).Error("failed to list clients")
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
				"error": "Failed to list clients",
			})
		}

		return c.JSON(clients)
	}
}

// LinkClient attaches a client account to a therapist
func LinkClient(svc *services.Services) fiber.Handler {
	return func(c *fiber.Ctx) error {
		uc := middleware.GetUserContext(c)
		therapistID := c.Params("id")
		if uc.UserID != therapistID && uc.Role != repository.RoleAdmin {
			return c.Status(fiber.StatusForbidden).JSON(fiber.Map{
				"error": "Insufficient permissions",
			})
		}

		client, err := svc.Users.GetByID(c.Context(), c.Params("clientId"))
		if err != nil {
			svc.Log.WithError(err).Error("failed to look up client")
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
				"error": "Failed to link client",
			})
		}
		if client == nil || client.Role != repository.RoleClient {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
				"error": "Client not found",
			})
		}

		if err := svc.Users.LinkClient(c.Context(), therapistID, client.ID); err != nil {
			svc.Log.WithError(err).Error("failed to link client")
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
				"error": "Failed to link client",
			})
		}

		return c.JSON(fiber.Map{"message": "Client linked"})
	}
}

// UpdateUser updates an account's profile fields
func UpdateUser(svc *services.Services) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var req struct {
			FirstName *string `json:"first_name"`
			LastName  *string `json:"last_name"`
			Email     *string `json:"email"`
		}
		if err := c.BodyParser(&req); err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"error": "Invalid request body",
			})
		}

		updates := make(map[string]interface{})
		if req.FirstName != nil {
			updates["first_name"] = *req.FirstName
		}
		if req.LastName != nil {
			updates["last_name"] = *req.LastName
		}
		if req.Email != nil {
			updates["email"] = *req.Email
		}
		if len(updates) == 0 {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"error": "No fields to update",
			})
		}

		if err := svc.Users.Update(c.Context(), c.Params("id"), updates); err != nil {
			svc.Log.WithError(err).Error("failed to update user")
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
				"error": "Failed to update user",
			})
		}

		user, err := svc.Users.GetByID(c.Context(), c.Params("id"))
		if err != nil || user == nil {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
				"error": "User not found",
			})
		}

		return c.JSON(user)
	}
}

// DeleteUser removes an account
func DeleteUser(svc *services.Services) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if err := svc.Users.Delete(c.Context(), c.Params("id")); err != nil {
			svc.Log.WithError(err).Error("failed to delete user")
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
				"error": "Failed to delete user",
			})
		}

		return c.JSON(fiber.Map{"message": "User deleted"})
	}
}
