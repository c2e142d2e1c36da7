package jobs

import (
	"log"
	"time"

	"github.com/nakkita92/tutorhub_backend/database"
	"github.com/nakkita92/tutorhub_backend/models"
	"github.com/nakkita92/tutorhub_backend/notifications"
)

// SendSessionReminders emails every confirmed student whose session starts
// within the next hour. Runs every five minutes; the window below keeps each
// booking from being reminded more than once.
func SendSessionReminders() {
	log.Println("Running job: SendSessionReminders...")

	now := time.Now()
	lowerBound := now.Add(55 * time.Minute)
	upperBound := now.Add(60 * time.Minute)

	var upcoming []models.Booking
	err := database.DB.
		Preload("Session").
		Preload("Student").
		Joins("JOIN sessions ON bookings.session_id = sessions.id").
		Where("bookings.status = ? AND bookings.deleted_at IS NULL AND sessions.start_time BETWEEN ? AND ?",
			models.BookingConfirmed, lowerBound, upperBound).
		Find(&upcoming).Error
	if err != nil {
		log.Printf("🔥 SendSessionReminders query failed: %v", err)
		return
	}

	for _, booking := range upcoming {
		go notifications.SendEmail(
			booking.Student.FullName,
			booking.Student.Email,
			"Your Class Starts Soon!",
			"<h1>Reminder</h1><p>Your session "+booking.Session.Title+" starts at "+
				booking.Session.StartTime.Format("15:04 MST")+". See you there!</p>",
		)
	}

	if len(upcoming) > 0 {
		log.Printf("Sent %d session reminder(s)", len(upcoming))
	}
}
