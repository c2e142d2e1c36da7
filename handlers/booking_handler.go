package handlers

import (
	"log"
	"time"

	"github.com/nakkita92/tutorhub_backend/database"
	"github.com/nakkita92/tutorhub_backend/models"
	"github.com/nakkita92/tutorhub_backend/notifications"
	"github.com/nakkita92/tutorhub_backend/services"
	"github.com/nakkita92/tutorhub_backend/utils"
	"github.com/nakkita92/tutorhub_backend/websocket"
	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v4"
	"github.com/google/uuid"
)

type CreateBookingRequest struct {
	// Either book an existing session by id, or request a private lesson by
	// naming the teacher and a time window.
	SessionID *string `json:"session_id,omitempty" validate:"omitempty,uuid"`
	TeacherID *string `json:"teacher_id,omitempty" validate:"omitempty,uuid"`
	StartTime *string `json:"start_time,omitempty" validate:"omitempty,datetime=2006-01-02T15:04:05Z07:00"`
	EndTime   *string `json:"end_time,omitempty" validate:"omitempty,datetime=2006-01-02T15:04:05Z07:00"`

	// Paying with package credits. Without a package the booking stays
	// PENDING until payment settles upstream.
	StudentPackageID *string `json:"student_package_id,omitempty" validate:"omitempty,uuid"`
	AllowanceID      *string `json:"allowance_id,omitempty" validate:"omitempty,uuid"`
	CreditsUsed      int     `json:"credits_used,omitempty" validate:"omitempty,gte=0"`
}

func CreateBooking(c *fiber.Ctx) error {
	token := c.Locals("user").(*jwt.Token)
	claims := token.Claims.(jwt.MapClaims)
	studentID, _ := uuid.Parse(claims["user_id"].(string))

	var req CreateBookingRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Cannot parse JSON"})
	}
	if err := validate.Struct(req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	}

	if req.SessionID != nil {
		return bookExistingSession(c, studentID, req)
	}
	if req.TeacherID != nil && req.StartTime != nil && req.EndTime != nil {
		return bookPrivateLesson(c, studentID, req)
	}
	return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Provide either a session_id or a teacher_id with start_time and end_time"})
}

func bookExistingSession(c *fiber.Ctx, studentID uuid.UUID, req CreateBookingRequest) error {
	sessionID := uuid.MustParse(*req.SessionID)

	var session models.Session
	if err := database.DB.Preload("Teacher").
		First(&session, "id = ? AND deleted_at IS NULL AND status <> ?", sessionID, "cancelled").Error; err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Session not found"})
	}
	if session.ServiceType == models.ServiceCourse {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Course sessions are booked through enrollment, not session booking"})
	}

	var booked int64
	database.DB.Model(&models.Booking{}).
		Where("session_id = ? AND deleted_at IS NULL AND status NOT IN ?", session.ID,
			[]string{models.BookingCancelled, models.BookingForfeit}).
		Count(&booked)
	if int(booked) >= session.Capacity {
		return c.Status(fiber.StatusConflict).JSON(fiber.Map{
			"error":         "This session is full",
			"waitlist_hint": "Join the waitlist to be notified when a seat opens up",
		})
	}

	if req.StudentPackageID == nil {
		booking := models.Booking{
			SessionID: session.ID,
			StudentID: studentID,
			Status:    models.BookingPending,
			Reference: utils.GenerateBookingReference(),
		}
		if err := database.DB.Create(&booking).Error; err != nil {
			return c.Status(fiber.StatusConflict).JSON(fiber.Map{"error": "You already have a booking for this session"})
		}
		return c.Status(fiber.StatusCreated).JSON(fiber.Map{"booking": booking})
	}

	result, err := packageUseService.UsePackageForSession(services.UsePackageInput{
		StudentID:   studentID,
		PackageID:   uuid.MustParse(*req.StudentPackageID),
		SessionID:   session.ID,
		CreditsUsed: req.CreditsUsed,
		AllowanceID: parseOptionalUUID(req.AllowanceID),
	})
	if err != nil {
		return serviceError(c, err)
	}

	notifyBookingConfirmed(studentID, session, result.Booking)
	return c.Status(fiber.StatusCreated).JSON(result)
}

func bookPrivateLesson(c *fiber.Ctx, studentID uuid.UUID, req CreateBookingRequest) error {
	teacherID := uuid.MustParse(*req.TeacherID)
	startTime, _ := time.Parse(time.RFC3339, *req.StartTime)
	endTime, _ := time.Parse(time.RFC3339, *req.EndTime)

	if startTime.Before(time.Now()) {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Cannot book a lesson in the past"})
	}

	if _, err := availabilityService.ValidateAvailability(services.ValidateAvailabilityInput{
		TeacherID:           teacherID,
		StartAt:             startTime,
		EndAt:               endTime,
		RequestingStudentID: &studentID,
	}); err != nil {
		return serviceError(c, err)
	}

	// The validator above gave a fast answer; the insert re-checks the
	// conflict predicate under the teacher row lock, so two concurrent
	// requests for the same window cannot both land. A retry of this
	// student's own interrupted checkout gets its PENDING booking back.
	session, booking, err := sessionService.CreatePrivateLesson(teacherID, studentID, startTime, endTime)
	if err != nil {
		return serviceError(c, err)
	}

	if req.StudentPackageID == nil {
		return c.Status(fiber.StatusCreated).JSON(fiber.Map{"booking": booking, "session": session})
	}

	bookingID := booking.ID
	result, err := packageUseService.UsePackageForSession(services.UsePackageInput{
		StudentID:   studentID,
		PackageID:   uuid.MustParse(*req.StudentPackageID),
		SessionID:   session.ID,
		BookingID:   &bookingID,
		CreditsUsed: req.CreditsUsed,
		AllowanceID: parseOptionalUUID(req.AllowanceID),
	})
	if err != nil {
		// The lesson request stays PENDING; the student can retry the debit
		// or pay another way. The validator's self-conflict bypass lets the
		// retry through.
		return serviceError(c, err)
	}

	notifyBookingConfirmed(studentID, *session, result.Booking)
	return c.Status(fiber.StatusCreated).JSON(result)
}

func CancelBooking(c *fiber.Ctx) error {
	token := c.Locals("user").(*jwt.Token)
	claims := token.Claims.(jwt.MapClaims)
	studentID, _ := uuid.Parse(claims["user_id"].(string))
	bookingID := c.Params("bookingId")

	var booking models.Booking
	if err := database.DB.Preload("Session").First(&booking, "id = ? AND deleted_at IS NULL", bookingID).Error; err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Booking not found"})
	}
	if booking.StudentID != studentID {
		return c.Status(fiber.StatusForbidden).JSON(fiber.Map{"error": "This is not your booking"})
	}
	if booking.Status == models.BookingCancelled {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Booking is already cancelled"})
	}

	now := time.Now()
	booking.Status = models.BookingCancelled
	booking.CancelledAt = &now
	if err := database.DB.Save(&booking).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to cancel booking"})
	}

	// The freed seat goes to the head of the waitlist, if anyone is waiting.
	if err := waitlistService.HandleBookingCancellation(booking.SessionID); err != nil {
		log.Printf("🔥 Failed to notify waitlist after cancellation of booking %s: %v", booking.ID, err)
	}

	return c.JSON(fiber.Map{"message": "Booking cancelled successfully."})
}

func GetMyBookings(c *fiber.Ctx) error {
	token := c.Locals("user").(*jwt.Token)
	claims := token.Claims.(jwt.MapClaims)
	studentID, _ := uuid.Parse(claims["user_id"].(string))

	var bookings []models.Booking
	database.DB.Preload("Session.Teacher").
		Where("student_id = ? AND deleted_at IS NULL", studentID).
		Order("created_at DESC").
		Find(&bookings)

	return c.JSON(bookings)
}

type LinkUseRequest struct {
	BookingID string `json:"booking_id" validate:"required,uuid"`
}

// LinkUseToBooking backfills the booking id on a ledger row created before
// its booking existed. Admin-only; idempotent.
func LinkUseToBooking(c *fiber.Ctx) error {
	useID, err := uuid.Parse(c.Params("useId"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid use ID format"})
	}

	var req LinkUseRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Cannot parse JSON"})
	}
	if err := validate.Struct(req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	}

	use, err := packageUseService.LinkUseToBooking(useID, uuid.MustParse(req.BookingID))
	if err != nil {
		return serviceError(c, err)
	}
	return c.JSON(fiber.Map{"use": use})
}

func notifyBookingConfirmed(studentID uuid.UUID, session models.Session, booking *models.Booking) {
	if booking == nil {
		return
	}
	websocket.Push(studentID, websocket.Event{
		Type:      websocket.EventBookingConfirmed,
		SessionID: session.ID,
		Message:   "Your booking " + booking.Reference + " is confirmed.",
	})
	go func() {
		var student models.User
		if err := database.DB.First(&student, "id = ?", studentID).Error; err != nil {
			return
		}
		notifications.SendEmail(student.FullName, student.Email,
			"Your Booking is Confirmed!",
			"<h1>Booking Confirmed</h1><p>Your class has been booked with your package credits. Reference: "+booking.Reference+"</p>")
	}()
}

func parseOptionalUUID(s *string) *uuid.UUID {
	if s == nil {
		return nil
	}
	id, err := uuid.Parse(*s)
	if err != nil {
		return nil
	}
	return &id
}
