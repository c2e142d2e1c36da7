package handlers

import (
	"github.com/nakkita92/tutorhub_backend/database"
	"github.com/nakkita92/tutorhub_backend/database/repository"
	"github.com/nakkita92/tutorhub_backend/notifications"
	"github.com/nakkita92/tutorhub_backend/services"
	"github.com/gofiber/fiber/v2"
)

var (
	availabilityService *services.AvailabilityService
	packageUseService   *services.PackageUseService
	waitlistService     *services.WaitlistService
	sessionService      *services.SessionService
)

// InitServices wires the core services to the connected database. Must run
// after database.ConnectDB.
func InitServices() {
	availabilityService = services.NewAvailabilityService(repository.NewAvailabilityRepository(database.DB))
	sessionService = services.NewSessionService(repository.NewSessionRepository(database.DB))
	packageUseService = services.NewPackageUseService(repository.NewPackageRepository(database.DB), services.SystemClock)
	waitlistService = services.NewWaitlistService(
		repository.NewWaitlistRepository(database.DB),
		packageUseService,
		notifications.NewOfferDispatcher(),
		services.SystemClock,
	)
}

// serviceError maps the service error taxonomy onto HTTP statuses.
func serviceError(c *fiber.Ctx, err error) error {
	status := fiber.StatusInternalServerError
	switch services.KindOf(err) {
	case services.KindNotFound:
		status = fiber.StatusNotFound
	case services.KindConflict:
		status = fiber.StatusConflict
	case services.KindBadRequest:
		status = fiber.StatusBadRequest
	case services.KindUnauthorized:
		status = fiber.StatusUnauthorized
	}
	return c.Status(status).JSON(fiber.Map{"error": err.Error()})
}
