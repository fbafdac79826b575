package api

import (
	"github.com/gofiber/fiber/v2"

	"github.com/harborhealth/harbor-backend/internal/api/handlers"
	"github.com/harborhealth/harbor-backend/internal/api/middleware"
	"github.com/harborhealth/harbor-backend/internal/repository"
	"github.com/harborhealth/harbor-backend/internal/services"
)

// SetupRoutes configures all API routes
func SetupRoutes(app *fiber.App, svc *services.Services) {
	api := app.Group("/api/v1")

	// Health check
	api.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{
			"status":  "healthy",
			"service": "harbor-backend",
		})
	})

	// Public auth endpoints
	api.Post("/auth/signup", handlers.Signup(svc))
	api.Post("/auth/login", handlers.Login(svc))
	api.Post("/auth/refresh", handlers.Refresh(svc))

	// The video provider calls this endpoint directly; it carries no user
	// credentials and must always answer 200.
	api.Post("/meetings/recording-webhook", handlers.RecordingWebhook(svc))

	authed := api.Group("", middleware.AuthRequired(svc.Auth, svc.Users))
	therapist := middleware.RequireRole(svc.Auth, svc.Users, repository.RoleTherapist)

	authed.Get("/auth/me", handlers.Me(svc))

	// Users
	authed.Get("/therapists", handlers.ListTherapists(svc))
	authed.Get("/therapists/:id/clients", therapist, handlers.ListClients(svc))
	authed.Post("/therapists/:id/clients/:clientId", therapist, handlers.LinkClient(svc))
	authed.Get("/users/:id", middleware.RequireSelf("id", svc.Users), handlers.GetUser(svc))
	authed.Patch("/users/:id", middleware.RequireSelf("id", svc.Users), handlers.UpdateUser(svc))
	authed.Delete("/users/:id", middleware.RequireSelf("id", svc.Users), handlers.DeleteUser(svc))

	// Conversations and messages
	authed.Post("/conversations", handlers.CreateConversation(svc))
	authed.Get("/conversations", handlers.ListConversations(svc))
	authed.Get("/conversations/:id", handlers.GetConversation(svc))
	authed.Post("/conversations/:id/close", handlers.CloseConversation(svc))
	authed.Delete("/conversations/:id", handlers.DeleteConversation(svc))
	authed.Get("/conversations/:id/messages", handlers.ListMessages(svc))
	authed.Post("/conversations/:id/messages", handlers.CreateMessage(svc))
	authed.Get("/conversations/:id/messages/:messageId", handlers.GetMessage(svc))
	authed.Patch("/conversations/:id/messages/:messageId", handlers.UpdateMessage(svc))
	authed.Delete("/conversations/:id/messages/:messageId", handlers.DeleteMessage(svc))

	// Care plans
	authed.Post("/careplans", therapist, handlers.CreateCarePlan(svc))
	authed.Post("/careplans/generate", therapist, handlers.GenerateCarePlan(svc))
	authed.Get("/careplans/:id", handlers.GetCarePlan(svc))
	authed.Put("/careplans/:id", therapist, handlers.UpdateCarePlan(svc))
	authed.Delete("/careplans/:id", therapist, handlers.DeleteCarePlan(svc))

	// Homework
	authed.Post("/clients/:clientId/homework", handlers.CreateHomework(svc))
	authed.Get("/clients/:clientId/homework", handlers.ListHomework(svc))
	authed.Get("/clients/:clientId/homework/:homeworkId", handlers.GetHomework(svc))
	authed.Patch("/clients/:clientId/homework/:homeworkId", handlers.UpdateHomework(svc))
	authed.Delete("/clients/:clientId/homework/:homeworkId", handlers.DeleteHomework(svc))

	// Meetings
	authed.Post("/meetings/start", therapist, handlers.StartMeeting(svc))
	authed.Get("/meetings/active", handlers.ActiveMeeting(svc))
	authed.Get("/meetings/token", handlers.MeetingToken(svc))
	authed.Get("/meetings/validate/:roomId", handlers.ValidateMeeting(svc))
	authed.Post("/meetings/manual-save", handlers.ManualSaveRecording(svc))

	// Recordings
	authed.Post("/recordings", therapist, handlers.CreateRecording(svc))
	authed.Get("/recordings", handlers.ListRecordings(svc))
	authed.Get("/recordings/:id", handlers.GetRecording(svc))
	authed.Delete("/recordings/:id", therapist, handlers.DeleteRecording(svc))
	authed.Post("/recordings/:id/transcribe", therapist, handlers.TranscribeRecording(svc))

	// Recent activity
	authed.Get("/activity", handlers.RecentActivity(svc))
}
