package handlers

import (
	"github.com/nakkita92/tutorhub_backend/database"
	"github.com/nakkita92/tutorhub_backend/models"
	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v4"
	"github.com/google/uuid"
)

func JoinWaitlist(c *fiber.Ctx) error {
	token := c.Locals("user").(*jwt.Token)
	claims := token.Claims.(jwt.MapClaims)
	studentID, _ := uuid.Parse(claims["user_id"].(string))

	sessionID, err := uuid.Parse(c.Params("sessionId"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid session ID format"})
	}

	entry, err := waitlistService.JoinWaitlist(sessionID, studentID)
	if err != nil {
		return serviceError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(entry)
}

func LeaveWaitlist(c *fiber.Ctx) error {
	token := c.Locals("user").(*jwt.Token)
	claims := token.Claims.(jwt.MapClaims)
	studentID, _ := uuid.Parse(claims["user_id"].(string))

	entryID, err := uuid.Parse(c.Params("entryId"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid entry ID format"})
	}

	if err := waitlistService.LeaveWaitlist(entryID, studentID); err != nil {
		return serviceError(c, err)
	}
	return c.JSON(fiber.Map{"message": "You have left the waitlist."})
}

func GetMyWaitlistEntries(c *fiber.Ctx) error {
	token := c.Locals("user").(*jwt.Token)
	claims := token.Claims.(jwt.MapClaims)
	studentID, _ := uuid.Parse(claims["user_id"].(string))

	var entries []models.WaitlistEntry
	database.DB.Preload("Session").
		Where("student_id = ?", studentID).
		Order("created_at ASC").
		Find(&entries)

	return c.JSON(entries)
}

type PromoteRequest struct {
	StudentPackageID *string `json:"student_package_id,omitempty" validate:"omitempty,uuid"`
}

// PromoteWaitlistEntry turns a waitlist entry into a confirmed booking once a
// seat is free. When a package id is supplied the student's credits pay for
// the seat.
func PromoteWaitlistEntry(c *fiber.Ctx) error {
	entryID, err := uuid.Parse(c.Params("entryId"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid entry ID format"})
	}

	var req PromoteRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Cannot parse JSON"})
	}
	if err := validate.Struct(req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	}

	booking, err := waitlistService.PromoteToBooking(entryID, parseOptionalUUID(req.StudentPackageID))
	if err != nil {
		return serviceError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"booking": booking})
}

// GetSessionWaitlist lists a session's queue in position order (teacher and
// admin view).
func GetSessionWaitlist(c *fiber.Ctx) error {
	sessionID, err := uuid.Parse(c.Params("sessionId"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid session ID format"})
	}

	var entries []models.WaitlistEntry
	database.DB.Preload("Student").
		Where("session_id = ?", sessionID).
		Order("position ASC").
		Find(&entries)

	return c.JSON(entries)
}
