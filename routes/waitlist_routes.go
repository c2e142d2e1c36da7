package routes

import (
	"github.com/nakkita92/tutorhub_backend/handlers"
	"github.com/nakkita92/tutorhub_backend/middleware"
	"github.com/gofiber/fiber/v2"
)

func WaitlistRoutes(app *fiber.App) {
	api := app.Group("/api/v1")

	waitlist := api.Group("/waitlist", middleware.Protected())
	waitlist.Get("/me", handlers.GetMyWaitlistEntries)
	waitlist.Post("/sessions/:sessionId/join", handlers.JoinWaitlist)
	waitlist.Delete("/:entryId", handlers.LeaveWaitlist)

	adminWaitlist := api.Group("/admin/waitlist", middleware.Protected(), middleware.AdminRequired())
	adminWaitlist.Get("/sessions/:sessionId", handlers.GetSessionWaitlist)
	adminWaitlist.Post("/:entryId/promote", handlers.PromoteWaitlistEntry)
}
