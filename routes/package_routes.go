package routes

import (
	"github.com/nakkita92/tutorhub_backend/handlers"
	"github.com/nakkita92/tutorhub_backend/middleware"
	"github.com/gofiber/fiber/v2"
)

func PackageRoutes(app *fiber.App) {
	api := app.Group("/api/v1")
	api.Get("/products", handlers.ListActiveProducts)

	packages := api.Group("/packages", middleware.Protected())
	packages.Get("/me", handlers.GetMyPackages)
	packages.Post("/:productId/purchase", handlers.PurchasePackage)

	adminProducts := api.Group("/admin/products", middleware.Protected(), middleware.AdminRequired())
	adminProducts.Get("", handlers.AdminListProducts)
	adminProducts.Post("", handlers.CreateProduct)
	adminProducts.Put("/:productId/status", handlers.ToggleProductStatus)

	adminPackages := api.Group("/admin/packages", middleware.Protected(), middleware.AdminRequired())
	adminPackages.Get("", handlers.AdminListStudentPackages)
}
