package handlers

import (
	"log"
	"time"

	"github.com/nakkita92/tutorhub_backend/database"
	"github.com/nakkita92/tutorhub_backend/models"
	"github.com/nakkita92/tutorhub_backend/services"
	"github.com/nakkita92/tutorhub_backend/websocket"
	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v4"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

func teacherProfileFromClaims(c *fiber.Ctx) (*models.Teacher, error) {
	token := c.Locals("user").(*jwt.Token)
	claims := token.Claims.(jwt.MapClaims)
	userID, _ := uuid.Parse(claims["user_id"].(string))

	var teacher models.Teacher
	if err := database.DB.Where("user_id = ?", userID).First(&teacher).Error; err != nil {
		return nil, err
	}
	return &teacher, nil
}

type AvailabilityRuleRequest struct {
	Kind string `json:"kind" validate:"required,oneof=ONE_OFF RECURRING BLACKOUT"`

	StartAt *string `json:"start_at,omitempty" validate:"omitempty,datetime=2006-01-02T15:04:05Z07:00"`
	EndAt   *string `json:"end_at,omitempty" validate:"omitempty,datetime=2006-01-02T15:04:05Z07:00"`

	Weekday        *int `json:"weekday,omitempty" validate:"omitempty,gte=0,lte=6"`
	StartMinuteUTC *int `json:"start_minute_utc,omitempty" validate:"omitempty,gte=0,lt=1440"`
	EndMinuteUTC   *int `json:"end_minute_utc,omitempty" validate:"omitempty,gt=0,lte=1440"`
}

func CreateAvailabilityRule(c *fiber.Ctx) error {
	teacher, err := teacherProfileFromClaims(c)
	if err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Teacher profile not found"})
	}

	var req AvailabilityRuleRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Cannot parse JSON"})
	}
	if err := validate.Struct(req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	}

	rule := models.TeacherAvailability{
		TeacherID: teacher.ID,
		Kind:      req.Kind,
		IsActive:  true,
	}

	switch req.Kind {
	case models.AvailabilityRecurring:
		if req.Weekday == nil || req.StartMinuteUTC == nil || req.EndMinuteUTC == nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Recurring rules need weekday, start_minute_utc and end_minute_utc"})
		}
		if *req.StartMinuteUTC >= *req.EndMinuteUTC {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "start_minute_utc must be before end_minute_utc"})
		}
		rule.Weekday = req.Weekday
		rule.StartMinuteUTC = req.StartMinuteUTC
		rule.EndMinuteUTC = req.EndMinuteUTC
	default:
		if req.StartAt == nil || req.EndAt == nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "One-off and blackout rules need start_at and end_at"})
		}
		startAt, _ := time.Parse(time.RFC3339, *req.StartAt)
		endAt, _ := time.Parse(time.RFC3339, *req.EndAt)
		if !startAt.Before(endAt) {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "start_at must be before end_at"})
		}
		rule.StartAt = &startAt
		rule.EndAt = &endAt
	}

	if err := database.DB.Create(&rule).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to create availability rule"})
	}
	return c.Status(fiber.StatusCreated).JSON(rule)
}

func GetMyAvailabilityRules(c *fiber.Ctx) error {
	teacher, err := teacherProfileFromClaims(c)
	if err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Teacher profile not found"})
	}

	var rules []models.TeacherAvailability
	database.DB.Where("teacher_id = ? AND deleted_at IS NULL", teacher.ID).
		Order("created_at ASC").
		Find(&rules)

	return c.JSON(rules)
}

// DeleteAvailabilityRule tombstones the rule; it stops feeding the validator
// but stays queryable for history.
func DeleteAvailabilityRule(c *fiber.Ctx) error {
	teacher, err := teacherProfileFromClaims(c)
	if err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Teacher profile not found"})
	}
	ruleID := c.Params("ruleId")

	result := database.DB.Model(&models.TeacherAvailability{}).
		Where("id = ? AND teacher_id = ? AND deleted_at IS NULL", ruleID, teacher.ID).
		Update("deleted_at", time.Now())
	if result.Error != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to delete availability rule"})
	}
	if result.RowsAffected == 0 {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Availability rule not found"})
	}

	return c.SendStatus(fiber.StatusNoContent)
}

type ValidateAvailabilityRequest struct {
	TeacherID string  `json:"teacher_id" validate:"required,uuid"`
	StartAt   string  `json:"start_at" validate:"required,datetime=2006-01-02T15:04:05Z07:00"`
	EndAt     string  `json:"end_at" validate:"required,datetime=2006-01-02T15:04:05Z07:00"`
	StudentID *string `json:"student_id,omitempty" validate:"omitempty,uuid"`
}

// ValidateAvailability exposes the availability validator to the session
// creation flow.
func ValidateAvailability(c *fiber.Ctx) error {
	var req ValidateAvailabilityRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Cannot parse JSON"})
	}
	if err := validate.Struct(req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	}

	startAt, _ := time.Parse(time.RFC3339, req.StartAt)
	endAt, _ := time.Parse(time.RFC3339, req.EndAt)

	result, err := availabilityService.ValidateAvailability(services.ValidateAvailabilityInput{
		TeacherID:           uuid.MustParse(req.TeacherID),
		StartAt:             startAt,
		EndAt:               endAt,
		RequestingStudentID: parseOptionalUUID(req.StudentID),
	})
	if err != nil {
		return serviceError(c, err)
	}
	return c.JSON(result)
}

type CreateSessionRequest struct {
	ServiceType string `json:"service_type" validate:"required,oneof=PRIVATE GROUP COURSE"`
	Title       string `json:"title" validate:"required"`
	StartTime   string `json:"start_time" validate:"required,datetime=2006-01-02T15:04:05Z07:00"`
	EndTime     string `json:"end_time" validate:"required,datetime=2006-01-02T15:04:05Z07:00"`
	Capacity    int    `json:"capacity,omitempty" validate:"omitempty,gt=0"`
}

func CreateSession(c *fiber.Ctx) error {
	teacher, err := teacherProfileFromClaims(c)
	if err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Teacher profile not found"})
	}

	var req CreateSessionRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Cannot parse JSON"})
	}
	if err := validate.Struct(req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	}

	startTime, _ := time.Parse(time.RFC3339, req.StartTime)
	endTime, _ := time.Parse(time.RFC3339, req.EndTime)

	if _, err := availabilityService.ValidateAvailability(services.ValidateAvailabilityInput{
		TeacherID: teacher.ID,
		StartAt:   startTime,
		EndAt:     endTime,
	}); err != nil {
		return serviceError(c, err)
	}

	capacity := 1
	if req.Capacity > 1 {
		capacity = req.Capacity
	}

	session := models.Session{
		TeacherID:   teacher.ID,
		ServiceType: models.ServiceType(req.ServiceType),
		Title:       req.Title,
		StartTime:   startTime,
		EndTime:     endTime,
		Capacity:    capacity,
	}
	// Re-checks the conflict predicate under the teacher row lock; the
	// validation above may be stale by the time the insert runs.
	if err := sessionService.ScheduleSession(&session); err != nil {
		return serviceError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(session)
}

func GetMySessions(c *fiber.Ctx) error {
	teacher, err := teacherProfileFromClaims(c)
	if err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Teacher profile not found"})
	}

	var sessions []models.Session
	database.DB.Where("teacher_id = ? AND deleted_at IS NULL", teacher.ID).
		Order("start_time ASC").
		Find(&sessions)

	return c.JSON(sessions)
}

// CancelSession cancels the session and every active booking on it, and
// pushes a cancellation event to each affected student.
func CancelSession(c *fiber.Ctx) error {
	teacher, err := teacherProfileFromClaims(c)
	if err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Teacher profile not found"})
	}
	sessionID := c.Params("sessionId")

	var session models.Session
	if err := database.DB.First(&session, "id = ? AND teacher_id = ? AND deleted_at IS NULL", sessionID, teacher.ID).Error; err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Session not found"})
	}
	if session.Status == "cancelled" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Session is already cancelled"})
	}

	var affected []models.Booking
	err = database.DB.Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(&session).Update("status", "cancelled").Error; err != nil {
			return err
		}
		if err := tx.Where("session_id = ? AND deleted_at IS NULL AND status NOT IN ?", session.ID,
			[]string{models.BookingCancelled, models.BookingForfeit}).
			Find(&affected).Error; err != nil {
			return err
		}
		now := time.Now()
		return tx.Model(&models.Booking{}).
			Where("session_id = ? AND deleted_at IS NULL AND status NOT IN ?", session.ID,
				[]string{models.BookingCancelled, models.BookingForfeit}).
			Updates(map[string]any{"status": models.BookingCancelled, "cancelled_at": now}).Error
	})
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to cancel session"})
	}

	for _, b := range affected {
		websocket.Push(b.StudentID, websocket.Event{
			Type:      websocket.EventSessionCancelled,
			SessionID: session.ID,
			Message:   "Your session " + session.Title + " was cancelled by the teacher.",
		})
	}
	log.Printf("Session %s cancelled, %d booking(s) affected", session.ID, len(affected))

	return c.JSON(fiber.Map{"message": "Session cancelled.", "bookings_cancelled": len(affected)})
}
