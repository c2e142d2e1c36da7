package routes

import (
	"github.com/nakkita92/tutorhub_backend/handlers"
	"github.com/nakkita92/tutorhub_backend/middleware"
	"github.com/gofiber/fiber/v2"
)

func TeacherRoutes(app *fiber.App) {
	api := app.Group("/api/v1")

	api.Post("/availability/validate", middleware.Protected(), handlers.ValidateAvailability)

	teacher := api.Group("/teacher", middleware.Protected(), middleware.TeacherRequired())
	teacher.Get("/availability", handlers.GetMyAvailabilityRules)
	teacher.Post("/availability", handlers.CreateAvailabilityRule)
	teacher.Delete("/availability/:ruleId", handlers.DeleteAvailabilityRule)

	teacher.Get("/sessions", handlers.GetMySessions)
	teacher.Post("/sessions", handlers.CreateSession)
	teacher.Post("/sessions/:sessionId/cancel", handlers.CancelSession)
}
