package notifications

import (
	"fmt"
	"log"

	"github.com/nakkita92/tutorhub_backend/database"
	"github.com/nakkita92/tutorhub_backend/models"
	"github.com/nakkita92/tutorhub_backend/websocket"
)

// OfferDispatcher delivers waitlist seat offers over email and websocket.
// It satisfies the waitlist service's OfferNotifier contract: dispatch is
// fire-and-forget, after the queue state has committed, and a delivery
// failure is logged rather than surfaced.
type OfferDispatcher struct{}

func NewOfferDispatcher() *OfferDispatcher {
	return &OfferDispatcher{}
}

func (d *OfferDispatcher) NotifyOffer(entry models.WaitlistEntry, session models.Session) {
	go func() {
		var student models.User
		if err := database.DB.First(&student, "id = ?", entry.StudentID).Error; err != nil {
			log.Printf("🔥 Could not load student %s for waitlist offer: %v", entry.StudentID, err)
			return
		}

		message := fmt.Sprintf("A seat opened up in %q starting %s.", session.Title, session.StartTime.Format("Mon Jan 2 15:04 MST"))
		if entry.NotificationExpiresAt != nil {
			message += fmt.Sprintf(" Your offer expires %s.", entry.NotificationExpiresAt.Format("Mon Jan 2 15:04 MST"))
		}

		websocket.Push(entry.StudentID, websocket.Event{
			Type:      websocket.EventWaitlistOffer,
			SessionID: session.ID,
			Message:   message,
			ExpiresAt: entry.NotificationExpiresAt,
		})

		SendEmail(student.FullName, student.Email,
			"A Seat Opened Up!",
			"<h1>Good news!</h1><p>"+message+" Book now to claim your seat before the offer expires.</p>")
	}()
}
