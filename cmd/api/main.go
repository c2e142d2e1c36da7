package main

import (
	"log"
	"time"

	"github.com/nakkita92/tutorhub_backend/database"
	"github.com/nakkita92/tutorhub_backend/handlers"
	"github.com/nakkita92/tutorhub_backend/jobs"
	"github.com/nakkita92/tutorhub_backend/notifications"
	"github.com/nakkita92/tutorhub_backend/routes"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/robfig/cron/v3"
)

func main() {
	database.ConnectDB()
	database.Migrate()
	database.SeedAdmin()
	notifications.InitEmailService()
	handlers.InitServices()

	c := cron.New()
	c.AddFunc("* * * * *", jobs.ExpireWaitlistOffers)
	c.AddFunc("*/5 * * * *", jobs.SendSessionReminders)
	go c.Start()
	log.Println("✅ Cron jobs scheduled successfully.")

	app := fiber.New(fiber.Config{
		Prefork:           false,
		AppName:           "TutorHub",
		CaseSensitive:     true,
		StrictRouting:     true,
		EnablePrintRoutes: true,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      15 * time.Second,
		IdleTimeout:       60 * time.Second,
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			code := fiber.StatusInternalServerError
			if e, ok := err.(*fiber.Error); ok {
				code = e.Code
			}

			log.Printf("[ERROR] %v | Path: %s | Method: %s", err, c.Path(), c.Method())
			return c.Status(code).JSON(fiber.Map{
				"status":  "error",
				"code":    code,
				"message": err.Error(),
			})
		},
	})

	app.Use(cors.New(cors.Config{
		AllowOrigins:     "*",
		AllowHeaders:     "Origin, Content-Type, Accept, Authorization",
		AllowCredentials: false,
	}))
	app.Use(logger.New())
	app.Use(recover.New())

	routes.PublicRoutes(app)
	routes.PackageRoutes(app)
	routes.BookingRoutes(app)
	routes.WaitlistRoutes(app)
	routes.TeacherRoutes(app)

	log.Fatal(app.Listen(":8080"))
}
