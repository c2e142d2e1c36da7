package routes

import (
	"github.com/nakkita92/tutorhub_backend/handlers"
	"github.com/nakkita92/tutorhub_backend/middleware"
	"github.com/gofiber/fiber/v2"
)

func BookingRoutes(app *fiber.App) {
	api := app.Group("/api/v1")

	booking := api.Group("/bookings", middleware.Protected())
	booking.Get("/me", handlers.GetMyBookings)
	booking.Post("", handlers.CreateBooking)
	booking.Post("/:bookingId/cancel", handlers.CancelBooking)

	adminUses := api.Group("/admin/package-uses", middleware.Protected(), middleware.AdminRequired())
	adminUses.Post("/:useId/link", handlers.LinkUseToBooking)
}
