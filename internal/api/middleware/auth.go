package middleware

import (
	"github.com/gofiber/fiber/v2"

	"github.com/harborhealth/harbor-backend/internal/auth"
	"github.com/harborhealth/harbor-backend/internal/repository"
)

// UserContext is the authenticated caller, stored in fiber locals.
type UserContext struct {
	UserID      string
	Email       string
	Role        string
	TherapistID string
}

// AuthConfig holds the auth middleware configuration
type AuthConfig struct {
	AuthService *auth.Service
	Users       repository.UserRepository
	RequireRole string // If set, requires specific role
}

// AuthRequired creates a middleware that requires authentication
func AuthRequired(authService *auth.Service, users repository.UserRepository) fiber.Handler {
	return AuthMiddleware(AuthConfig{
		AuthService: authService,
		Users:       users,
	})
}

// RequireRole creates a middleware that requires a specific role
func RequireRole(authService *auth.Service, users repository.UserRepository, role string) fiber.Handler {
	return AuthMiddleware(AuthConfig{
		AuthService: authService,
		Users:       users,
		RequireRole: role,
	})
}

// AuthMiddleware is the main authentication middleware
func AuthMiddleware(config AuthConfig) fiber.Handler {
	return func(c *fiber.Ctx) error {
		token := auth.ExtractTokenFromBearer(c.Get("Authorization"))
		if token == "" {
			token = c.Cookies("access_token")
		}
		if token == "" {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"error": "Authentication required",
			})
		}

		claims, err := config.AuthService.ValidateAccessToken(token)
		if err != nil {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"error": "Invalid or expired token",
			})
		}

		user, err := config.Users.GetByID(c.Context(), claims.UserID)
		if err != nil || user == nil {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"error": "Invalid or expired token",
			})
		}

		if config.RequireRole != "" && user.Role != config.RequireRole && user.Role != repository.RoleAdmin {
			return c.Status(fiber.StatusForbidden).JSON(fiber.Map{
				"error": "Insufficient permissions",
			})
		}

		storeUserContext(c, user)
		return c.Next()
	}
}

func storeUserContext(c *fiber.Ctx, user *repository.User) {
	uc := &UserContext{
		UserID: user.ID,
		Email:  user.Email,
		Role:   user.Role,
	}
	if user.TherapistID != nil {
		uc.TherapistID = *user.TherapistID
	}
	c.Locals("user_id", user.ID)
	c.Locals("user_role", user.Role)
	c.Locals("user_context", uc)
}

// GetUserContext retrieves the user context from the fiber context
func GetUserContext(c *fiber.Ctx) *UserContext {
	if ctx := c.Locals("user_context"); ctx != nil {
		if uc, ok := ctx.(*UserContext); ok {
			return uc
		}
	}
	return nil
}

// HasRole checks if the authenticated user has a specific role
func HasRole(c *fiber.Ctx, role string) bool {
	if userRole := c.Locals("user_role"); userRole != nil {
		if r, ok := userRole.(string); ok {
			return r == role
		}
	}
	return false
}

// IsAdmin checks if the authenticated user is an admin
func IsAdmin(c *fiber.Ctx) bool {
	return HasRole(c, repository.RoleAdmin)
}

// RequireSelf restricts a route to the account named by the given route
// parameter. Admins pass, and therapists pass for their own clients.
func RequireSelf(param string, users repository.UserRepository) fiber.Handler {
	return func(c *fiber.Ctx) error {
		uc := GetUserContext(c)
		if uc == nil {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"error": "Authentication required",
			})
		}

		target := c.Params(param)
		if uc.UserID == target || uc.Role == repository.RoleAdmin {
			return c.Next()
		}

		if uc.Role == repository.RoleTherapist {
			client, err := users.GetByID(c.Context(), target)
			if err == nil && client != nil && client.TherapistID != nil && *client.TherapistID == uc.UserID {
				return c.Next()
			}
		}

		return c.Status(fiber.StatusForbidden).JSON(fiber.Map{
			"error": "Insufficient permissions",
		})
	}
}
