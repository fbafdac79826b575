package handlers

import (
	"errors"

	"github.com/gofiber/fiber/v2"

	"github.com/harborhealth/harbor-backend/internal/api/middleware"
	"github.com/harborhealth/harbor-backend/internal/auth"
	"github.com/harborhealth/harbor-backend/internal/services"
)

// Signup registers a new account
func Signup(svc *services.Services) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var req auth.SignupRequest
		if err := c.BodyParser(&req); err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"error": "Invalid request body",
			})
		}

		pair, err := svc.Auth.Signup(c.Context(), req)
		if err != nil {
			switch {
			case errors.Is(err, auth.ErrEmailAlreadyExists):
				return c.Status(fiber.StatusConflict).JSON(fiber.Map{"error": err.Error()})
			case errors.Is(err, auth.ErrPasswordTooShort),
				errors.Is(err, auth.ErrPasswordTooWeak),
				errors.Is(err, auth.ErrInvalidRole),
				errors.Is(err, auth.ErrTherapistNotFound),
				errors.Is(err, auth.ErrInvalidCredentials):
				return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
			}
			svc.Log.WithError(err).Error("signup failed")
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
				"error": "Failed to create account",
			})
		}

		return c.Status(fiber.StatusCreated).JSON(pair)
	}
}

// Login authenticates an account
func Login(svc *services.Services) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var req struct {
			Email    string `json:"email"`
			Password string `json:"password"`
		}
		if err := c.BodyParser(&req); err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"error": "Invalid request body",
			})
		}

		pair, err := svc.Auth.Login(c.Context(), req.Email, req.Password)
		if err != nil {
			if errors.Is(err, auth.ErrInvalidCredentials) {
				return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": err.Error()})
			}
			svc.Log.WithError(err).Error("login failed")
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
				"error": "Failed to log in",
			})
		}

		return c.JSON(pair)
	}
}

// Refresh exchanges a refresh token for a new token pair
func Refresh(svc *services.Services) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var req struct {
			RefreshToken string `json:"refresh_token"`
		}
		if err := c.BodyParser(&req); err != nil || req.RefreshToken == "" {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"error": "Invalid request body",
			})
		}

		pair, err := svc.Auth.Refresh(c.Context(), req.RefreshToken)
		if err != nil {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"error": "Invalid or expired token",
			})
		}

		return c.JSON(pair)
	}
}

// Me returns the authenticated account
func Me(svc *services.Services) fiber.Handler {
	return func(c *fiber.Ctx) error {
		uc := middleware.GetUserContext(c)
		if uc == nil {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"error": "Not authenticated",
			})
		}

		user, err := svc.Users.GetByID(c.Context(), uc.UserID)
		if err != nil || user == nil {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
				"error": "User not found",
			})
		}

		return c.JSON(user)
	}
}
